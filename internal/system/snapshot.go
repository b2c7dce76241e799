package system

import (
	"sync/atomic"
	"time"

	coresys "github.com/visuscript/liveviz/internal/core/system"
	"github.com/visuscript/liveviz/internal/world"
)

// SnapshotSystem publishes an immutable copy of the scene every interval
// ticks for readers outside the simulation goroutine. Phase 8 (Output).
type SnapshotSystem struct {
	world    *world.State
	latest   atomic.Pointer[world.Snapshot]
	interval int
	tick     uint64
}

func NewSnapshotSystem(ws *world.State, intervalTicks int) *SnapshotSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	s := &SnapshotSystem{world: ws, interval: intervalTicks}
	s.latest.Store(ws.Snapshot(0))
	return s
}

func (s *SnapshotSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *SnapshotSystem) Update(_ time.Duration) {
	s.tick++
	if s.tick%uint64(s.interval) != 0 {
		return
	}
	s.latest.Store(s.world.Snapshot(s.tick))
}

// Latest returns the most recently published snapshot. Safe for concurrent use.
func (s *SnapshotSystem) Latest() *world.Snapshot {
	return s.latest.Load()
}
