package system

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/component"
	"github.com/visuscript/liveviz/internal/config"
	"github.com/visuscript/liveviz/internal/core/ecs"
	"github.com/visuscript/liveviz/internal/core/event"
	coresys "github.com/visuscript/liveviz/internal/core/system"
	"github.com/visuscript/liveviz/internal/handler"
	"github.com/visuscript/liveviz/internal/net"
	"github.com/visuscript/liveviz/internal/persist"
	"github.com/visuscript/liveviz/internal/world"
)

const quarter = 250 * time.Millisecond

type fixture struct {
	world  *world.State
	bus    *event.Bus
	runner *coresys.Runner
}

func newFixture() *fixture {
	ws := world.NewState(world.DefaultStyle())
	bus := event.NewBus()
	log := zap.NewNop()
	r := coresys.NewRunner()
	r.Register(NewEventSystem(bus))
	r.Register(NewLayoutSystem(ws))
	r.Register(NewInterpolationSystem(ws, log))
	r.Register(NewLifecycleSystem(ws, bus, log))
	r.Register(NewRedrawSystem(ws))
	r.Register(NewCleanupSystem(ws.ECS(), log))
	return &fixture{world: ws, bus: bus, runner: r}
}

func (f *fixture) tick(n int) {
	for i := 0; i < n; i++ {
		f.runner.Tick(quarter)
	}
}

func translation(t *testing.T, ws *world.State, id ecs.EntityID) component.Vec3 {
	t.Helper()
	tr, ok := ws.Transforms.Get(id)
	require.True(t, ok, "entity %d has no transform", id)
	return tr.Translation
}

func TestGridLayoutThreeColumns(t *testing.T) {
	f := newFixture()
	id, err := f.world.SpawnArray([]string{"a", "b", "c", "d", "e", "f"}, 3, component.Identity())
	require.NoError(t, err)
	cells, _ := f.world.Entities(id)

	NewLayoutSystem(f.world).Update(0)
	want := []component.Vec3{{X: 0, Y: 0, Z: 0}, {X: 64, Y: 0, Z: 0}, {X: 128, Y: 0, Z: 0}, {X: 0, Y: -64, Z: 0}, {X: 64, Y: -64, Z: 0}, {X: 128, Y: -64, Z: 0}}
	for i, cell := range cells {
		tt, ok := f.world.TargetTransforms.Get(cell)
		require.True(t, ok)
		assert.Equal(t, want[i], tt.Goal.Translation, "cell %d", i)
		assert.Equal(t, time.Second, tt.Duration)
	}
	assert.False(t, f.world.Realign.Has(id))

	f.tick(4)
	for i, cell := range cells {
		assert.Equal(t, want[i], translation(t, f.world, cell), "cell %d", i)
		assert.False(t, f.world.TargetTransforms.Has(cell))
	}
}

func TestLayoutKeepsIdenticalGoal(t *testing.T) {
	f := newFixture()
	id, err := f.world.SpawnArray([]string{"a", "b"}, 3, component.Identity())
	require.NoError(t, err)
	cells, _ := f.world.Entities(id)

	f.tick(1)
	tt, ok := f.world.TargetTransforms.Get(cells[1])
	require.True(t, ok)
	require.Equal(t, quarter, tt.Elapsed)

	f.world.Realign.Set(id, component.Realign{})
	NewLayoutSystem(f.world).Update(0)
	tt, _ = f.world.TargetTransforms.Get(cells[1])
	assert.Equal(t, quarter, tt.Elapsed, "running animation untouched")

	require.NoError(t, f.world.Swap(id, 0, 1))
	NewLayoutSystem(f.world).Update(0)
	tt, _ = f.world.TargetTransforms.Get(cells[1])
	assert.Equal(t, time.Duration(0), tt.Elapsed, "new goal restarts the animation")
	assert.Equal(t, component.Vec3{}, tt.Goal.Translation)
}

func TestInterpolationRecurrence(t *testing.T) {
	ws := world.NewState(world.DefaultStyle())
	e := ws.Spawn(component.Identity())
	require.NoError(t, ws.SetTarget(e, component.At(component.Vec3{X: 100}), 1))

	sys := NewInterpolationSystem(ws, zap.NewNop())
	for _, want := range []float32{25, 62.5, 90.625} {
		sys.Update(quarter)
		assert.Equal(t, want, translation(t, ws, e).X)
		assert.True(t, ws.TargetTransforms.Has(e))
	}
	sys.Update(quarter)
	assert.Equal(t, component.Vec3{X: 100}, translation(t, ws, e))
	assert.False(t, ws.TargetTransforms.Has(e))
}

func TestZeroDurationSnaps(t *testing.T) {
	ws := world.NewState(world.DefaultStyle())
	e := ws.Spawn(component.Identity())
	require.NoError(t, ws.SetTarget(e, component.At(component.Vec3{Y: 7}), 0))
	NewInterpolationSystem(ws, zap.NewNop()).Update(16 * time.Millisecond)
	assert.Equal(t, component.Vec3{Y: 7}, translation(t, ws, e))
	assert.False(t, ws.TargetTransforms.Has(e))
}

func TestInterpolationCompletesOnShortTicks(t *testing.T) {
	for _, tc := range []struct {
		dt    time.Duration
		ticks int
	}{
		{20 * time.Millisecond, 50},
		{10 * time.Millisecond, 100},
	} {
		ws := world.NewState(world.DefaultStyle())
		e := ws.Spawn(component.Identity())
		require.NoError(t, ws.SetTarget(e, component.At(component.Vec3{X: 100}), 1))

		sys := NewInterpolationSystem(ws, zap.NewNop())
		for i := 0; i < tc.ticks-1; i++ {
			sys.Update(tc.dt)
		}
		assert.True(t, ws.TargetTransforms.Has(e), "dt %s: still in flight", tc.dt)
		sys.Update(tc.dt)
		assert.Equal(t, component.Vec3{X: 100}, translation(t, ws, e), "dt %s", tc.dt)
		assert.False(t, ws.TargetTransforms.Has(e), "dt %s", tc.dt)
	}
}

func TestTargetEntityTracksMovingGoal(t *testing.T) {
	ws := world.NewState(world.DefaultStyle())
	mover := ws.Spawn(component.Identity())
	goal := ws.Spawn(component.At(component.Vec3{X: 100}))
	ws.TargetEntities.Set(mover, component.TargetEntity{Goal: goal, Duration: time.Second})

	sys := NewInterpolationSystem(ws, zap.NewNop())
	sys.Update(quarter)
	assert.Equal(t, float32(25), translation(t, ws, mover).X)

	tr, _ := ws.Transforms.Get(goal)
	tr.Translation.X = 200
	sys.Update(quarter)
	assert.Equal(t, float32(112.5), translation(t, ws, mover).X)

	sys.Update(2 * quarter)
	assert.Equal(t, float32(200), translation(t, ws, mover).X)
	assert.False(t, ws.TargetEntities.Has(mover))
}

func TestTargetEntityMissingGoalHoldsPosition(t *testing.T) {
	ws := world.NewState(world.DefaultStyle())
	mover := ws.Spawn(component.At(component.Vec3{X: 3}))
	goal := ws.Spawn(component.At(component.Vec3{X: 100}))
	ws.TargetEntities.Set(mover, component.TargetEntity{Goal: goal, Duration: time.Second})
	require.NoError(t, ws.Despawn(goal))

	sys := NewInterpolationSystem(ws, zap.NewNop())
	for i := 0; i < 3; i++ {
		sys.Update(quarter)
		assert.Equal(t, component.Vec3{X: 3}, translation(t, ws, mover))
		assert.True(t, ws.TargetEntities.Has(mover))
	}
	sys.Update(quarter)
	assert.Equal(t, component.Vec3{X: 3}, translation(t, ws, mover))
	assert.False(t, ws.TargetEntities.Has(mover), "removed once the flight expires")
}

func collectRetired(bus *event.Bus) *[]event.EntityRetired {
	var got []event.EntityRetired
	event.Subscribe(bus, func(ev event.EntityRetired) { got = append(got, ev) })
	return &got
}

func TestTouchWinsOverTimerInSameTick(t *testing.T) {
	f := newFixture()
	got := collectRetired(f.bus)
	old := f.world.Spawn(component.At(component.Vec3{X: 10}))
	other := f.world.Spawn(component.At(component.Vec3{X: 12}))
	f.world.DespawnTimers.Set(old, component.DespawnTimer{Remaining: 100 * time.Millisecond})
	f.world.DespawnOnTouches.Set(old, component.DespawnOnTouch{Other: other, Radius: 16})

	f.tick(1)
	assert.False(t, f.world.ECS().Alive(old))
	assert.True(t, f.world.ECS().Alive(other))

	f.tick(1) // deliver events
	require.Len(t, *got, 1)
	assert.Equal(t, event.EntityRetired{Entity: old, Reason: RetiredByTouch}, (*got)[0])
}

func TestTimerRetiresWithoutTouch(t *testing.T) {
	f := newFixture()
	got := collectRetired(f.bus)
	old := f.world.Spawn(component.Identity())
	other := f.world.Spawn(component.At(component.Vec3{X: 500}))
	f.world.DespawnTimers.Set(old, component.DespawnTimer{Remaining: time.Second})
	f.world.DespawnOnTouches.Set(old, component.DespawnOnTouch{Other: other, Radius: 16})

	f.tick(3)
	assert.True(t, f.world.ECS().Alive(old))
	f.tick(1)
	assert.False(t, f.world.ECS().Alive(old))

	f.tick(1)
	require.Len(t, *got, 1)
	assert.Equal(t, RetiredByTimer, (*got)[0].Reason)
}

func TestStaleRetirementComponentsAreDropped(t *testing.T) {
	f := newFixture()
	got := collectRetired(f.bus)
	gone := f.world.Spawn(component.Identity())
	require.NoError(t, f.world.Despawn(gone))
	f.world.DespawnTimers.Set(gone, component.DespawnTimer{})
	f.world.DespawnOnTouches.Set(gone, component.DespawnOnTouch{Other: gone, Radius: 16})

	f.tick(3)
	assert.Empty(t, *got)
	assert.False(t, f.world.DespawnTimers.Has(gone))
	assert.False(t, f.world.DespawnOnTouches.Has(gone))
	assert.Equal(t, 0, f.world.ECS().Pending())
}

func TestSetRetiresOldCellWithinAlignment(t *testing.T) {
	f := newFixture()
	id, err := f.world.SpawnArray([]string{"a", "b"}, 3, component.Identity())
	require.NoError(t, err)
	f.tick(4)
	old := f.world.ECS().Children(id)[1]

	cell, err := f.world.Set(id, 1, "z", component.At(component.Vec3{Y: -128}))
	require.NoError(t, err)
	f.tick(4)

	assert.False(t, f.world.ECS().Alive(old))
	assert.True(t, f.world.ECS().Alive(cell))
	got, _ := f.world.Contents(id)
	assert.Equal(t, []string{"a", "z"}, got)
	assert.Equal(t, component.Vec3{X: 64}, translation(t, f.world, cell))
}

func TestRedrawRebuildsBackgrounds(t *testing.T) {
	f := newFixture()
	id, err := f.world.SpawnArray([]string{"a", "b", "c", "d"}, 3, component.Identity())
	require.NoError(t, err)

	countBackgrounds := func() []component.Vec3 {
		var out []component.Vec3
		f.world.Backgrounds.Each(func(bg ecs.EntityID, b *component.Background) {
			if b.Array == id {
				out = append(out, translation(t, f.world, bg))
			}
		})
		return out
	}

	f.tick(1)
	assert.False(t, f.world.Redraw.Has(id))
	assert.ElementsMatch(t, []component.Vec3{{X: 0, Y: 0, Z: -1}, {X: 64, Y: 0, Z: -1}, {X: 128, Y: 0, Z: -1}, {X: 0, Y: -64, Z: -1}}, countBackgrounds())

	_, _, err = f.world.Pop(id, 0)
	require.NoError(t, err)
	f.tick(1)
	assert.Len(t, countBackgrounds(), 3)

	got, _ := f.world.Contents(id)
	assert.Equal(t, []string{"b", "c", "d"}, got, "backgrounds never join the elements")
}

func TestDispatchDrainsOnePerTick(t *testing.T) {
	ws := world.NewState(world.DefaultStyle())
	bus := event.NewBus()
	log := zap.NewNop()
	deps := &handler.Deps{World: ws, Layout: config.Defaults().Layout, Log: log}
	reg := handler.NewRegistry(deps)
	handler.RegisterAll(reg)
	bridge := net.NewBridge(8, log)
	dispatch := NewDispatchSystem(bridge, reg, bus, log)

	var applied []event.ActionApplied
	event.Subscribe(bus, func(ev event.ActionApplied) { applied = append(applied, ev) })

	one := 1
	var wg sync.WaitGroup
	responses := make(chan action.Response, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := bridge.Submit(context.Background(), action.CreateArray{Values: []string{"x"}, NumColumns: &one})
			assert.NoError(t, err)
			responses <- resp
		}()
	}
	require.Eventually(t, func() bool { return bridge.Pending() == 3 }, time.Second, time.Millisecond)

	dispatch.Update(0)
	assert.Equal(t, 2, bridge.Pending())
	assert.Equal(t, 1, ws.Arrays.Len())

	dispatch.Update(0)
	dispatch.Update(0)
	wg.Wait()
	close(responses)
	for resp := range responses {
		assert.Equal(t, action.ResultEntity, resp.Result)
	}
	assert.Equal(t, 3, ws.Arrays.Len())

	dispatch.Update(0) // idle tick
	NewEventSystem(bus).Update(0)
	require.Len(t, applied, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{applied[0].Tick, applied[1].Tick, applied[2].Tick})
	assert.Equal(t, "CreateArray", applied[0].Kind)
	assert.NotEmpty(t, applied[0].Raw)
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []persist.JournalEntry
}

func (f *fakeJournal) Append(_ context.Context, entries []persist.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeJournal) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func TestJournalBatchesAppliedActions(t *testing.T) {
	bus := event.NewBus()
	writer := &fakeJournal{}
	journal := NewJournalSystem(bus, writer, zap.NewNop(), 2)
	events := NewEventSystem(bus)

	event.Emit(bus, event.ActionApplied{Kind: "Clear", Result: "none", Tick: 1})
	event.Emit(bus, event.ActionApplied{Kind: "GetValue", Result: "error", ErrorKind: "entity_not_found", Tick: 1})
	events.Update(0)
	journal.Update(0)
	assert.Len(t, journal.batches, 0, "interval not reached")
	journal.Update(0)
	assert.Len(t, journal.batches, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		journal.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return writer.len() == 2 }, time.Second, time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "entity_not_found", writer.entries[1].ErrorKind)
}

func TestSnapshotPublishes(t *testing.T) {
	ws := world.NewState(world.DefaultStyle())
	snap := NewSnapshotSystem(ws, 1)
	assert.Empty(t, snap.Latest().Nodes)

	id, err := ws.SpawnArray([]string{"q"}, 1, component.At(component.Vec3{X: 5}))
	require.NoError(t, err)
	snap.Update(0)

	latest := snap.Latest()
	require.Len(t, latest.Nodes, 2)
	assert.Equal(t, uint64(1), latest.Tick)
	assert.Equal(t, id, latest.Nodes[0].Entity)
	assert.Equal(t, "array", latest.Nodes[0].Kind)
	assert.Equal(t, "cell", latest.Nodes[1].Kind)
	assert.Equal(t, "q", latest.Nodes[1].Text)
	assert.Equal(t, [3]float32{5, 0, 0}, latest.Nodes[1].Position)
}
