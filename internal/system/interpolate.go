package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/visuscript/liveviz/internal/component"
	"github.com/visuscript/liveviz/internal/core/ecs"
	coresys "github.com/visuscript/liveviz/internal/core/system"
	"github.com/visuscript/liveviz/internal/world"
)

// InterpolationSystem advances every TargetTransform and TargetEntity.
// While progress p < 1 the translation becomes goal*p + current*(1-p), where
// current is whatever the previous ticks left behind; at p >= 1 it snaps to
// the goal and the component is removed. Phase 3 (Animate).
type InterpolationSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewInterpolationSystem(ws *world.State, log *zap.Logger) *InterpolationSystem {
	return &InterpolationSystem{world: ws, log: log}
}

func (s *InterpolationSystem) Phase() coresys.Phase { return coresys.PhaseAnimate }

func (s *InterpolationSystem) Update(dt time.Duration) {
	s.advanceTransforms(dt)
	s.advanceEntities(dt)
}

func (s *InterpolationSystem) advanceTransforms(dt time.Duration) {
	w := s.world
	for _, id := range ecs.Collect(w.TargetTransforms, nil) {
		tt, _ := w.TargetTransforms.Get(id)
		p := tt.Advance(dt)
		goal := tt.Goal

		tr, ok := w.Transforms.Get(id)
		if !ok {
			s.log.Debug("animated entity has no transform", zap.Uint64("entity", uint64(id)))
			if p >= 1 {
				w.TargetTransforms.Remove(id)
			}
			continue
		}
		if p >= 1 {
			*tr = goal
			w.TargetTransforms.Remove(id)
			continue
		}
		tr.Translation = component.Blend(tr.Translation, goal.Translation, p)
	}
}

func (s *InterpolationSystem) advanceEntities(dt time.Duration) {
	w := s.world
	for _, id := range ecs.Collect(w.TargetEntities, nil) {
		te, _ := w.TargetEntities.Get(id)
		p := te.Advance(dt)
		goalID := te.Goal

		tr, ok := w.Transforms.Get(id)
		if !ok {
			s.log.Debug("animated entity has no transform", zap.Uint64("entity", uint64(id)))
			if p >= 1 {
				w.TargetEntities.Remove(id)
			}
			continue
		}
		goal, err := w.GoalTranslation(id, goalID)
		if err != nil {
			// goal retired mid-flight; hold position until the flight expires
			s.log.Debug("flight goal missing",
				zap.Uint64("entity", uint64(id)),
				zap.Uint64("goal", uint64(goalID)),
				zap.Error(err),
			)
			if p >= 1 {
				w.TargetEntities.Remove(id)
			}
			continue
		}
		if p >= 1 {
			tr.Translation = goal
			w.TargetEntities.Remove(id)
			continue
		}
		tr.Translation = component.Blend(tr.Translation, goal, p)
	}
}
