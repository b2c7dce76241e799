package system

import (
	"time"

	"github.com/visuscript/liveviz/internal/component"
	"github.com/visuscript/liveviz/internal/core/ecs"
	coresys "github.com/visuscript/liveviz/internal/core/system"
	"github.com/visuscript/liveviz/internal/world"
)

// LayoutSystem re-targets the cells of every array whose elements changed
// onto their row-major grid slots. Phase 2 (Layout).
type LayoutSystem struct {
	world *world.State
}

func NewLayoutSystem(ws *world.State) *LayoutSystem {
	return &LayoutSystem{world: ws}
}

func (s *LayoutSystem) Phase() coresys.Phase { return coresys.PhaseLayout }

func (s *LayoutSystem) Update(_ time.Duration) {
	w := s.world
	for _, id := range ecs.Collect(w.Realign, nil) {
		w.Realign.Remove(id)
		arr, ok := w.Arrays.Get(id)
		if !ok {
			continue
		}
		cells := make([]ecs.EntityID, len(arr.Elements))
		copy(cells, arr.Elements)
		duration := component.Seconds(arr.AlignmentDuration)

		for i, cell := range cells {
			tr, ok := w.Transforms.Get(cell)
			if !ok {
				continue
			}
			goal := *tr
			goal.Translation = arr.Slot(i, tr.Translation.Z)
			if tt, ok := w.TargetTransforms.Get(cell); ok && tt.Goal == goal {
				continue
			}
			w.TargetTransforms.Set(cell, component.TargetTransform{Goal: goal, Duration: duration})
		}
	}
}
