package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/core/ecs"
	"github.com/visuscript/liveviz/internal/core/event"
	coresys "github.com/visuscript/liveviz/internal/core/system"
	"github.com/visuscript/liveviz/internal/world"
)

const (
	RetiredByTouch = "touch"
	RetiredByTimer = "timer"
)

// LifecycleSystem retires replaced cells. Touch checks run before timers, so
// an entity eligible for both in one tick is reported as touched. Retired
// entities are queued and despawned by CleanupSystem. Phase 4 (Retire).
type LifecycleSystem struct {
	world *world.State
	bus   *event.Bus
	log   *zap.Logger
}

func NewLifecycleSystem(ws *world.State, bus *event.Bus, log *zap.Logger) *LifecycleSystem {
	return &LifecycleSystem{world: ws, bus: bus, log: log}
}

func (s *LifecycleSystem) Phase() coresys.Phase { return coresys.PhaseRetire }

func (s *LifecycleSystem) Update(dt time.Duration) {
	retired := make(map[ecs.EntityID]bool)
	s.checkTouches(retired)
	s.tickTimers(dt, retired)
}

func (s *LifecycleSystem) checkTouches(retired map[ecs.EntityID]bool) {
	w := s.world
	for _, id := range ecs.Collect(w.DespawnOnTouches, nil) {
		if s.stale(id) {
			continue
		}
		touch, _ := w.DespawnOnTouches.Get(id)
		other, radius := touch.Other, touch.Radius

		self, err := w.WorldTranslation(id)
		if err != nil {
			continue
		}
		pos, err := w.WorldTranslation(other)
		if err != nil {
			continue
		}
		if self.Distance(pos) <= radius {
			s.retire(id, RetiredByTouch, retired)
		}
	}
}

func (s *LifecycleSystem) tickTimers(dt time.Duration, retired map[ecs.EntityID]bool) {
	w := s.world
	for _, id := range ecs.Collect(w.DespawnTimers, nil) {
		if s.stale(id) {
			continue
		}
		timer, _ := w.DespawnTimers.Get(id)
		timer.Tick(dt)
		if timer.Done() && !retired[id] {
			s.retire(id, RetiredByTimer, retired)
		}
	}
}

// stale drops every component left under an id that is no longer alive.
func (s *LifecycleSystem) stale(id ecs.EntityID) bool {
	w := s.world.ECS()
	if w.Alive(id) {
		return false
	}
	w.Registry().RemoveAll(id)
	return true
}

func (s *LifecycleSystem) retire(id ecs.EntityID, reason string, retired map[ecs.EntityID]bool) {
	retired[id] = true
	s.world.ECS().MarkForDestruction(id)
	event.Emit(s.bus, event.EntityRetired{Entity: id, Reason: reason})
	s.log.Debug("entity retired", zap.Uint64("entity", uint64(id)), zap.String("reason", reason))
}
