package component

import (
	"time"

	"github.com/visuscript/liveviz/internal/core/ecs"
)

// DespawnTimer despawns its owner once Remaining reaches zero.
type DespawnTimer struct {
	Remaining time.Duration
}

func (t *DespawnTimer) Tick(dt time.Duration) {
	t.Remaining -= dt
	if t.Remaining < 0 {
		t.Remaining = 0
	}
}

func (t *DespawnTimer) Done() bool { return t.Remaining <= 0 }

// DespawnOnTouch despawns its owner when Other comes within Radius.
type DespawnOnTouch struct {
	Other  ecs.EntityID
	Radius float32
}

// RedrawMarker is set when an array changed shape and cleared once its
// background slots are rebuilt.
type RedrawMarker struct{}

// Realign is set when an array's elements changed and cleared once the
// layout system has re-targeted its cells.
type Realign struct{}
