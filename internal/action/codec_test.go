package action

import (
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visuscript/liveviz/internal/component"
	"github.com/visuscript/liveviz/internal/core/ecs"
)

func columns(n int) *int { return &n }

func TestDecodeTaggedActions(t *testing.T) {
	cases := []struct {
		raw  string
		want Action
	}{
		{`{"action":"Destroy","entity":7}`, Destroy{Entity: 7}},
		{`{"action":"SetTarget","entity":3,"translation":[1,2],"duration":0.5}`,
			SetTarget{Entity: 3, Translation: Vector{X: 1, Y: 2}, Duration: 0.5}},
		{`{"action":"CreateArray","values":["5","3"],"num_columns":4,"translation":[0,10,1]}`,
			CreateArray{Values: []string{"5", "3"}, NumColumns: columns(4), Translation: &Vector{Y: 10, Z: 1}}},
		{`{"action":"SwapInArray","array":9,"i":0,"j":2}`, SwapInArray{Array: 9, I: 0, J: 2}},
		{`{"action":"Clear"}`, Clear{}},
		{`{"action":"GetPosition","entity":1}`, GetPosition{Entity: 1}},
	}
	for _, tc := range cases {
		got, err := Decode([]byte(tc.raw))
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"entity":1}`,
		`{"action":"Explode"}`,
		`{"action":"Destroy"}`,
		`{"action":"Destroy","entity":null}`,
		`{"action":"SetTarget","entity":1,"translation":[1],"duration":1}`,
		`{"action":"PopFromArray","array":1,"index":"zero"}`,
	} {
		_, err := Decode([]byte(raw))
		assert.ErrorIs(t, err, ErrProtocol, raw)
	}
}

func TestDecodeNormalizesText(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	got, err := Decode([]byte(`{"action":"InsertToArray","array":1,"index":0,"value":"e\u0301"}`))
	require.NoError(t, err)
	assert.Equal(t, "\u00e9", got.(InsertToArray).Value)
}

func TestEncodeDecodeAgree(t *testing.T) {
	y := float32(-40)
	for _, a := range []Action{
		Destroy{Entity: ecs.NewEntityID(4, 2)},
		Clear{},
		CreateArrayFromSlice{Array: 5, Begin: 1, End: 3, Y: &y},
		SetInArray{Array: 2, Index: 1, Value: "x"},
	} {
		raw, err := Encode(a)
		require.NoError(t, err)
		back, err := Decode(raw)
		require.NoError(t, err, string(raw))
		assert.Equal(t, a, back)
	}
}

func TestSliceOffsetDefaults(t *testing.T) {
	assert.Equal(t, component.Vec3{Y: -100}, CreateArrayFromSlice{}.Offset())
	x := float32(12)
	assert.Equal(t, component.Vec3{X: 12, Y: -100}, CreateArrayFromSlice{X: &x}.Offset())
}

func TestResponseWireShape(t *testing.T) {
	cases := []struct {
		resp Response
		want string
	}{
		{None(), `{"result":"none"}`},
		{EntityResult(12), `{"result":"entity","entity":12}`},
		{VectorResult(component.Vec3{X: 1, Y: -2}), `{"result":"vector","vector":[1,-2,0]}`},
		{TextResult(""), `{"result":"text","text":""}`},
		{TextsResult(nil), `{"result":"texts","texts":[]}`},
		{EntitiesResult([]ecs.EntityID{1, 2}), `{"result":"entities","entities":[1,2]}`},
		{VectorsResult(nil), `{"result":"vectors","vectors":[]}`},
		{Failure(fmt.Errorf("pop: %w", ErrIndexOutOfRange)),
			`{"result":"error","error":{"kind":"index_out_of_range","message":"pop: index out of range"}}`},
	}
	for _, tc := range cases {
		raw, err := json.Marshal(tc.resp)
		require.NoError(t, err)
		assert.JSONEq(t, tc.want, string(raw))

		var back Response
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.Equal(t, tc.resp, back)
	}
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, KindEntityNotFound, KindOf(fmt.Errorf("x: %w", ErrEntityNotFound)))
	assert.Equal(t, KindInternal, KindOf(fmt.Errorf("boom")))

	resp := Failure(fmt.Errorf("wrap: %w", ErrChannelClosed))
	assert.ErrorIs(t, resp.Error(), ErrChannelClosed)
	assert.NoError(t, None().Error())
}
