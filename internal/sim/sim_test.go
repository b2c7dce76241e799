package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/config"
	"github.com/visuscript/liveviz/internal/core/ecs"
)

const dt = 250 * time.Millisecond

// call submits act from a worker goroutine and ticks until it is answered,
// the way a transport and the tick loop interact.
func call(t *testing.T, s *Simulation, act action.Action) action.Response {
	t.Helper()
	type result struct {
		resp action.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := s.Bridge.Submit(context.Background(), act)
		done <- result{resp, err}
	}()
	require.Eventually(t, func() bool { return s.Bridge.Pending() == 1 }, time.Second, time.Millisecond)
	s.Tick(dt)
	select {
	case r := <-done:
		require.NoError(t, r.err)
		return r.resp
	case <-time.After(time.Second):
		t.Fatalf("%s was not answered", act.Kind())
		return action.Response{}
	}
}

func newSim(t *testing.T) *Simulation {
	t.Helper()
	cfg := config.Defaults()
	return New(cfg, nil, zap.NewNop())
}

func TestInsertAndSwapScenario(t *testing.T) {
	s := newSim(t)
	resp := call(t, s, action.CreateArray{Values: []string{"5", "3", "0"}})
	require.Equal(t, action.ResultEntity, resp.Result)
	arr := resp.Entity

	for _, step := range []action.Action{
		action.InsertToArray{Array: arr, Index: 0, Value: "9"},
		action.InsertToArray{Array: arr, Index: 1, Value: "1"},
		action.InsertToArray{Array: arr, Index: 2, Value: "5"},
		action.InsertToArray{Array: arr, Index: 1, Value: "4"},
		action.SwapInArray{Array: arr, I: 0, J: 2},
	} {
		require.Equal(t, action.None(), call(t, s, step), step.Kind())
	}

	resp = call(t, s, action.GetArrayContents{Array: arr})
	assert.Equal(t, []string{"1", "4", "9", "5", "5", "3", "0"}, resp.Texts)
	assert.Len(t, resp.Texts, 7)
}

func TestPoppedEntityIsGone(t *testing.T) {
	s := newSim(t)
	arr := call(t, s, action.CreateArray{Values: []string{"a", "b", "c"}}).Entity
	cells := call(t, s, action.GetArrayContentEntities{Array: arr}).Entities
	require.Len(t, cells, 3)

	assert.Equal(t, action.TextResult("b"), call(t, s, action.PopFromArray{Array: arr, Index: 1}))
	assert.False(t, s.World.ECS().Alive(cells[1]))
	resp := call(t, s, action.GetValue{Entity: cells[1]})
	assert.ErrorIs(t, resp.Error(), action.ErrEntityNotFound)

	resp = call(t, s, action.PopFromArray{Array: arr, Index: 2})
	assert.ErrorIs(t, resp.Error(), action.ErrIndexOutOfRange)
	assert.Equal(t, []string{"a", "c"}, call(t, s, action.GetArrayContents{Array: arr}).Texts)
}

func TestSetReplacesThenRetires(t *testing.T) {
	s := newSim(t)
	arr := call(t, s, action.CreateArray{Values: []string{"a", "b"}}).Entity
	for i := 0; i < 4; i++ {
		s.Tick(dt)
	}
	old := call(t, s, action.GetArrayContentEntities{Array: arr}).Entities[1]

	require.Equal(t, action.None(), call(t, s, action.SetInArray{Array: arr, Index: 1, Value: "z"}))
	cells := call(t, s, action.GetArrayContentEntities{Array: arr}).Entities
	assert.NotEqual(t, old, cells[1])
	assert.Equal(t, action.TextResult("z"), call(t, s, action.GetValue{Entity: cells[1]}))

	// alignment_duration is one second
	for i := 0; i < 4; i++ {
		s.Tick(dt)
	}
	assert.False(t, s.World.ECS().Alive(old))
	assert.Equal(t, []string{"a", "z"}, call(t, s, action.GetArrayContents{Array: arr}).Texts)
}

func TestCellsSettleOnGrid(t *testing.T) {
	s := newSim(t)
	three := 3
	arr := call(t, s, action.CreateArray{Values: []string{"a", "b", "c", "d"}, NumColumns: &three}).Entity
	for i := 0; i < 4; i++ {
		s.Tick(dt)
	}
	resp := call(t, s, action.GetArrayContentCoordinates{Array: arr})
	require.Len(t, resp.Vectors, 4)
	assert.Equal(t, float32(128), resp.Vectors[2].X)
	assert.Equal(t, float32(-64), resp.Vectors[3].Y)
}

func TestRunClosesBridge(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.TickRate = time.Millisecond
	s := New(cfg, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()

	resp, err := s.Bridge.Submit(context.Background(), action.CreateArray{Values: []string{"x"}})
	require.NoError(t, err)
	assert.NotEqual(t, ecs.NoEntity, resp.Entity)

	cancel()
	<-stopped
	_, err = s.Bridge.Submit(context.Background(), action.Clear{})
	assert.ErrorIs(t, err, action.ErrChannelClosed)
}
