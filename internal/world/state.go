package world

import (
	"errors"
	"fmt"

	"github.com/visuscript/liveviz/internal/component"
	"github.com/visuscript/liveviz/internal/core/ecs"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrEntityNotFound  = ecs.ErrEntityNotFound
)

// Style holds the layout parameters stamped onto newly created arrays.
type Style struct {
	CellWidth         float32
	CellHeight        float32
	FontSize          float32
	AlignmentDuration float32 // seconds
}

// DefaultStyle matches the 32px font and one-second alignment used by the
// viewer.
func DefaultStyle() Style {
	return Style{
		CellWidth:         64,
		CellHeight:        64,
		FontSize:          32,
		AlignmentDuration: 1,
	}
}

// State is the in-memory scene: the ECS world plus a cached pointer to every
// component store. Accessed only from the simulation goroutine; no locks needed.
type State struct {
	ecs   *ecs.World
	style Style

	Transforms       *ecs.Store[component.Transform]
	Cells            *ecs.Store[component.Cell]
	Arrays           *ecs.Store[component.Array]
	Members          *ecs.Store[component.Member]
	Shapes           *ecs.Store[component.Shape]
	Backgrounds      *ecs.Store[component.Background]
	TargetTransforms *ecs.Store[component.TargetTransform]
	TargetEntities   *ecs.Store[component.TargetEntity]
	DespawnTimers    *ecs.Store[component.DespawnTimer]
	DespawnOnTouches *ecs.Store[component.DespawnOnTouch]
	Redraw           *ecs.Store[component.RedrawMarker]
	Realign          *ecs.Store[component.Realign]
}

func NewState(style Style) *State {
	w := ecs.NewWorld()
	s := &State{
		ecs:              w,
		style:            style,
		Transforms:       ecs.Register[component.Transform](w),
		Cells:            ecs.Register[component.Cell](w),
		Arrays:           ecs.Register[component.Array](w),
		Members:          ecs.Register[component.Member](w),
		Shapes:           ecs.Register[component.Shape](w),
		Backgrounds:      ecs.Register[component.Background](w),
		TargetTransforms: ecs.Register[component.TargetTransform](w),
		TargetEntities:   ecs.Register[component.TargetEntity](w),
		DespawnTimers:    ecs.Register[component.DespawnTimer](w),
		DespawnOnTouches: ecs.Register[component.DespawnOnTouch](w),
		Redraw:           ecs.Register[component.RedrawMarker](w),
		Realign:          ecs.Register[component.Realign](w),
	}
	w.OnDespawn(s.forgetElement)
	return s
}

func (s *State) ECS() *ecs.World { return s.ecs }
func (s *State) Style() Style    { return s.style }

// Spawn creates a bare entity positioned by t.
func (s *State) Spawn(t component.Transform) ecs.EntityID {
	id := s.ecs.CreateEntity()
	s.Transforms.Set(id, t)
	return id
}

// SpawnCell creates a cell entity showing value.
func (s *State) SpawnCell(value string, t component.Transform, fontSize float32) ecs.EntityID {
	id := s.Spawn(t)
	s.Cells.Set(id, component.Cell{Value: value, FontSize: fontSize})
	return id
}

// Despawn destroys id and all of its descendants.
func (s *State) Despawn(id ecs.EntityID) error {
	if _, err := s.ecs.Despawn(id); err != nil {
		return fmt.Errorf("despawn %d: %w", id, err)
	}
	return nil
}

// Clear despawns every root entity, which takes every array, cell and
// free-standing entity with it. It returns how many entities were destroyed.
func (s *State) Clear() int {
	roots := ecs.Collect(s.Transforms, func(id ecs.EntityID, _ *component.Transform) bool {
		_, hasParent := s.ecs.Parent(id)
		return !hasParent
	})
	total := 0
	for _, id := range roots {
		n, _ := s.ecs.Despawn(id)
		total += n
	}
	return total
}

// SetParent reparents child under parent, keeping child's local transform.
func (s *State) SetParent(child, parent ecs.EntityID) error {
	err := s.ecs.SetParent(child, parent)
	switch {
	case errors.Is(err, ecs.ErrHierarchyCycle):
		return fmt.Errorf("set parent of %d to %d: %w", child, parent, ErrInvalidArgument)
	case err != nil:
		return fmt.Errorf("set parent of %d to %d: %w", child, parent, err)
	}
	return nil
}

// WorldTransform resolves id's transform through its parent chain. Ancestors
// without a Transform contribute the identity.
func (s *State) WorldTransform(id ecs.EntityID) (component.Transform, error) {
	local, ok := s.Transforms.Get(id)
	if !ok {
		return component.Transform{}, fmt.Errorf("transform of %d: %w", id, ErrEntityNotFound)
	}
	out := *local
	for p, ok := s.ecs.Parent(id); ok; p, ok = s.ecs.Parent(p) {
		if pt, has := s.Transforms.Get(p); has {
			out = pt.Compose(out)
		}
	}
	return out, nil
}

// WorldTranslation is WorldTransform(id).Translation.
func (s *State) WorldTranslation(id ecs.EntityID) (component.Vec3, error) {
	t, err := s.WorldTransform(id)
	return t.Translation, err
}

// parentTransform is the world transform of id's parent, or identity for roots.
func (s *State) parentTransform(id ecs.EntityID) component.Transform {
	p, ok := s.ecs.Parent(id)
	if !ok {
		return component.Identity()
	}
	t, err := s.WorldTransform(p)
	if err != nil {
		return component.Identity()
	}
	return t
}

// GoalTranslation returns goal's position expressed in mover's parent space,
// so it can be blended directly into mover's local translation. Siblings
// share a space and use the local translation as is.
func (s *State) GoalTranslation(mover, goal ecs.EntityID) (component.Vec3, error) {
	gt, ok := s.Transforms.Get(goal)
	if !ok {
		return component.Vec3{}, fmt.Errorf("goal %d: %w", goal, ErrEntityNotFound)
	}
	mp, moverHasParent := s.ecs.Parent(mover)
	gp, goalHasParent := s.ecs.Parent(goal)
	if moverHasParent == goalHasParent && mp == gp {
		return gt.Translation, nil
	}
	world, err := s.WorldTranslation(goal)
	if err != nil {
		return component.Vec3{}, err
	}
	return s.parentTransform(mover).Unapply(world), nil
}

// Value returns the text of a cell.
func (s *State) Value(id ecs.EntityID) (string, error) {
	c, ok := s.Cells.Get(id)
	if !ok {
		return "", fmt.Errorf("cell %d: %w", id, ErrEntityNotFound)
	}
	return c.Value, nil
}

// Position returns id's world translation, relative to ref's world
// translation when ref is non-zero.
func (s *State) Position(id, ref ecs.EntityID) (component.Vec3, error) {
	pos, err := s.WorldTranslation(id)
	if err != nil {
		return component.Vec3{}, err
	}
	if ref.IsZero() {
		return pos, nil
	}
	origin, err := s.WorldTranslation(ref)
	if err != nil {
		return component.Vec3{}, err
	}
	return pos.Sub(origin), nil
}

// SetTarget starts a TargetTransform animation toward goal.
func (s *State) SetTarget(id ecs.EntityID, goal component.Transform, duration float32) error {
	if duration < 0 {
		return fmt.Errorf("target duration %v: %w", duration, ErrInvalidArgument)
	}
	if !s.Transforms.Has(id) {
		return fmt.Errorf("target %d: %w", id, ErrEntityNotFound)
	}
	s.TargetTransforms.Set(id, component.TargetTransform{Goal: goal, Duration: component.Seconds(duration)})
	return nil
}

// adopt parents cell under array and records the membership.
func (s *State) adopt(cell, array ecs.EntityID) {
	_ = s.ecs.SetParent(cell, array)
	s.Members.Set(cell, component.Member{Array: array})
}

// forgetElement keeps the array invariant when a listed cell is despawned
// directly rather than through Pop, wherever it sits in the hierarchy.
func (s *State) forgetElement(id ecs.EntityID) {
	m, ok := s.Members.Get(id)
	if !ok {
		return
	}
	array := m.Array
	arr, ok := s.Arrays.Get(array)
	if !ok {
		return
	}
	if i := arr.IndexOf(id); i >= 0 {
		arr.Elements = append(arr.Elements[:i], arr.Elements[i+1:]...)
		s.markChanged(array)
	}
}

func (s *State) markChanged(array ecs.EntityID) {
	s.Realign.Set(array, component.Realign{})
	s.Redraw.Set(array, component.RedrawMarker{})
}
