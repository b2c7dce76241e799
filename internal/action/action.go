package action

import (
	"github.com/visuscript/liveviz/internal/component"
	"github.com/visuscript/liveviz/internal/core/ecs"
)

// Kind is the wire tag of an action.
type Kind string

const (
	KindDestroy                    Kind = "Destroy"
	KindSetTarget                  Kind = "SetTarget"
	KindSetParent                  Kind = "SetParent"
	KindGetPosition                Kind = "GetPosition"
	KindGetValue                   Kind = "GetValue"
	KindCreateArray                Kind = "CreateArray"
	KindInsertToArray              Kind = "InsertToArray"
	KindSwapInArray                Kind = "SwapInArray"
	KindPopFromArray               Kind = "PopFromArray"
	KindSetInArray                 Kind = "SetInArray"
	KindGetArrayContents           Kind = "GetArrayContents"
	KindGetArrayContentEntities    Kind = "GetArrayContentEntities"
	KindGetArrayContentCoordinates Kind = "GetArrayContentCoordinates"
	KindClear                      Kind = "Clear"
	KindCreateArrayFromSlice       Kind = "CreateArrayFromSlice"
)

// Action is one externally submitted command. Values are owned by whoever
// holds them; they cross goroutines by value through the bridge.
type Action interface {
	Kind() Kind
}

// Vector is a wire vector, encoded as [x, y] or [x, y, z].
type Vector component.Vec3

func (v Vector) Vec3() component.Vec3 { return component.Vec3(v) }

type Destroy struct {
	Entity ecs.EntityID `json:"entity"`
}

type SetTarget struct {
	Entity      ecs.EntityID `json:"entity"`
	Translation Vector       `json:"translation"`
	Scale       *Vector      `json:"scale,omitempty"`
	Duration    float32      `json:"duration"`
}

type SetParent struct {
	Parent ecs.EntityID `json:"parent"`
	Child  ecs.EntityID `json:"child"`
}

type GetPosition struct {
	Entity    ecs.EntityID `json:"entity"`
	Reference ecs.EntityID `json:"reference,omitempty"`
}

type GetValue struct {
	Entity ecs.EntityID `json:"entity"`
}

type CreateArray struct {
	Values      []string `json:"values"`
	Translation *Vector  `json:"translation,omitempty"`
	Scale       *Vector  `json:"scale,omitempty"`
	NumColumns  *int     `json:"num_columns,omitempty"` // nil = layout.default_columns
}

type InsertToArray struct {
	Array       ecs.EntityID `json:"array"`
	Index       int          `json:"index"`
	Value       string       `json:"value"`
	Translation *Vector      `json:"translation,omitempty"`
}

type SwapInArray struct {
	Array ecs.EntityID `json:"array"`
	I     int          `json:"i"`
	J     int          `json:"j"`
}

type PopFromArray struct {
	Array ecs.EntityID `json:"array"`
	Index int          `json:"index"`
}

type SetInArray struct {
	Array       ecs.EntityID `json:"array"`
	Index       int          `json:"index"`
	Value       string       `json:"value"`
	Translation *Vector      `json:"translation,omitempty"`
}

type GetArrayContents struct {
	Array ecs.EntityID `json:"array"`
}

type GetArrayContentEntities struct {
	Array ecs.EntityID `json:"array"`
}

type GetArrayContentCoordinates struct {
	Array ecs.EntityID `json:"array"`
}

type Clear struct{}

// CreateArrayFromSlice copies cells [Begin, End) into a new array offset by
// (X, Y) from the source; X defaults to 0 and Y to -100.
type CreateArrayFromSlice struct {
	Array ecs.EntityID `json:"array"`
	Begin int          `json:"begin"`
	End   int          `json:"end"`
	X     *float32     `json:"x,omitempty"`
	Y     *float32     `json:"y,omitempty"`
}

const (
	DefaultSliceX float32 = 0
	DefaultSliceY float32 = -100
)

// Offset resolves the optional X and Y fields.
func (a CreateArrayFromSlice) Offset() component.Vec3 {
	off := component.Vec3{X: DefaultSliceX, Y: DefaultSliceY}
	if a.X != nil {
		off.X = *a.X
	}
	if a.Y != nil {
		off.Y = *a.Y
	}
	return off
}

func (Destroy) Kind() Kind                    { return KindDestroy }
func (SetTarget) Kind() Kind                  { return KindSetTarget }
func (SetParent) Kind() Kind                  { return KindSetParent }
func (GetPosition) Kind() Kind                { return KindGetPosition }
func (GetValue) Kind() Kind                   { return KindGetValue }
func (CreateArray) Kind() Kind                { return KindCreateArray }
func (InsertToArray) Kind() Kind              { return KindInsertToArray }
func (SwapInArray) Kind() Kind                { return KindSwapInArray }
func (PopFromArray) Kind() Kind               { return KindPopFromArray }
func (SetInArray) Kind() Kind                 { return KindSetInArray }
func (GetArrayContents) Kind() Kind           { return KindGetArrayContents }
func (GetArrayContentEntities) Kind() Kind    { return KindGetArrayContentEntities }
func (GetArrayContentCoordinates) Kind() Kind { return KindGetArrayContentCoordinates }
func (Clear) Kind() Kind                      { return KindClear }
func (CreateArrayFromSlice) Kind() Kind       { return KindCreateArrayFromSlice }
