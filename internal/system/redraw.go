package system

import (
	"time"

	"github.com/visuscript/liveviz/internal/component"
	"github.com/visuscript/liveviz/internal/core/ecs"
	coresys "github.com/visuscript/liveviz/internal/core/system"
	"github.com/visuscript/liveviz/internal/world"
)

// backgroundZ keeps slot outlines behind the cells.
const backgroundZ = -1

// RedrawSystem rebuilds the slot outlines of every array marked for redraw:
// one rectangle per element, parented to the array. Phase 5 (Redraw).
type RedrawSystem struct {
	world *world.State
}

func NewRedrawSystem(ws *world.State) *RedrawSystem {
	return &RedrawSystem{world: ws}
}

func (s *RedrawSystem) Phase() coresys.Phase { return coresys.PhaseRedraw }

func (s *RedrawSystem) Update(_ time.Duration) {
	w := s.world
	for _, id := range ecs.Collect(w.Redraw, nil) {
		w.Redraw.Remove(id)
		if !w.Arrays.Has(id) {
			continue
		}
		s.clearBackgrounds(id)

		arr, _ := w.Arrays.Get(id)
		n := len(arr.Elements)
		shape := component.Shape{Kind: component.ShapeRectangle, Width: arr.CellWidth, Height: arr.CellHeight}
		slots := make([]component.Vec3, n)
		for i := range slots {
			slots[i] = arr.Slot(i, backgroundZ)
		}

		for i, pos := range slots {
			bg := w.Spawn(component.At(pos))
			w.Shapes.Set(bg, shape)
			w.Backgrounds.Set(bg, component.Background{Array: id, Index: i})
			_ = w.SetParent(bg, id)
		}
	}
}

func (s *RedrawSystem) clearBackgrounds(array ecs.EntityID) {
	w := s.world
	children := append([]ecs.EntityID(nil), w.ECS().Children(array)...)
	for _, child := range children {
		if w.Backgrounds.Has(child) {
			_ = w.Despawn(child)
		}
	}
}
