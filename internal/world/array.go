package world

import (
	"fmt"

	"github.com/visuscript/liveviz/internal/component"
	"github.com/visuscript/liveviz/internal/core/ecs"
)

// Every operation validates its arguments before touching any store, so a
// failed call leaves the scene unchanged.

func (s *State) array(id ecs.EntityID) (*component.Array, error) {
	arr, ok := s.Arrays.Get(id)
	if !ok {
		return nil, fmt.Errorf("array %d: %w", id, ErrEntityNotFound)
	}
	return arr, nil
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("index %d with length %d: %w", index, n, ErrIndexOutOfRange)
	}
	return nil
}

// SpawnArray creates one cell per value and an array entity owning them.
func (s *State) SpawnArray(values []string, numColumns int, t component.Transform) (ecs.EntityID, error) {
	if numColumns < 1 {
		return ecs.NoEntity, fmt.Errorf("num_columns %d: %w", numColumns, ErrInvalidArgument)
	}
	id := s.Spawn(t)
	arr := component.Array{
		Elements:          make([]ecs.EntityID, 0, len(values)),
		NumColumns:        numColumns,
		CellWidth:         s.style.CellWidth,
		CellHeight:        s.style.CellHeight,
		FontSize:          s.style.FontSize,
		AlignmentDuration: s.style.AlignmentDuration,
	}
	for _, v := range values {
		cell := s.SpawnCell(v, component.Identity(), arr.FontSize)
		s.adopt(cell, id)
		arr.Elements = append(arr.Elements, cell)
	}
	s.Arrays.Set(id, arr)
	s.markChanged(id)
	return id, nil
}

// Insert spawns a cell showing value at local transform t and inserts it at index.
func (s *State) Insert(array ecs.EntityID, index int, value string, t component.Transform) (ecs.EntityID, error) {
	arr, err := s.array(array)
	if err != nil {
		return ecs.NoEntity, err
	}
	if index < 0 || index > len(arr.Elements) {
		return ecs.NoEntity, fmt.Errorf("insert at %d with length %d: %w", index, len(arr.Elements), ErrIndexOutOfRange)
	}
	cell := s.SpawnCell(value, t, arr.FontSize)
	s.adopt(cell, array)

	arr.Elements = append(arr.Elements, ecs.NoEntity)
	copy(arr.Elements[index+1:], arr.Elements[index:])
	arr.Elements[index] = cell
	s.markChanged(array)
	return cell, nil
}

// Pop removes the cell at index and despawns it. It returns the removed
// handle and the value it held.
func (s *State) Pop(array ecs.EntityID, index int) (ecs.EntityID, string, error) {
	arr, err := s.array(array)
	if err != nil {
		return ecs.NoEntity, "", err
	}
	if err := checkIndex(index, len(arr.Elements)); err != nil {
		return ecs.NoEntity, "", err
	}
	cell := arr.Elements[index]
	if !s.ecs.Alive(cell) {
		return ecs.NoEntity, "", fmt.Errorf("pop cell %d: %w", cell, ErrEntityNotFound)
	}
	value, err := s.Value(cell)
	if err != nil {
		return ecs.NoEntity, "", err
	}

	arr.Elements = append(arr.Elements[:index], arr.Elements[index+1:]...)
	s.Members.Remove(cell)
	s.markChanged(array)
	if err := s.Despawn(cell); err != nil {
		return cell, value, err
	}
	return cell, value, nil
}

// Set replaces the cell at index with a new cell showing value. The logical
// element changes immediately; the old cell is retired by whichever fires
// first: its despawn timer or the new cell flying within touch radius.
func (s *State) Set(array ecs.EntityID, index int, value string, t component.Transform) (ecs.EntityID, error) {
	arr, err := s.array(array)
	if err != nil {
		return ecs.NoEntity, err
	}
	if err := checkIndex(index, len(arr.Elements)); err != nil {
		return ecs.NoEntity, err
	}
	old := arr.Elements[index]
	if !s.ecs.Alive(old) {
		return ecs.NoEntity, fmt.Errorf("replace cell %d: %w", old, ErrEntityNotFound)
	}
	duration := component.Seconds(arr.AlignmentDuration)
	radius := arr.FontSize / 2

	cell := s.SpawnCell(value, t, arr.FontSize)
	s.adopt(cell, array)
	s.Members.Remove(old)
	s.TargetEntities.Set(cell, component.TargetEntity{Goal: old, Duration: duration})
	s.DespawnTimers.Set(old, component.DespawnTimer{Remaining: duration})
	s.DespawnOnTouches.Set(old, component.DespawnOnTouch{Other: cell, Radius: radius})

	// arr points into the Arrays store, which none of the spawns above touch.
	arr.Elements[index] = cell
	s.markChanged(array)
	return cell, nil
}

// Swap exchanges the elements at i and j.
func (s *State) Swap(array ecs.EntityID, i, j int) error {
	arr, err := s.array(array)
	if err != nil {
		return err
	}
	if err := checkIndex(i, len(arr.Elements)); err != nil {
		return err
	}
	if err := checkIndex(j, len(arr.Elements)); err != nil {
		return err
	}
	arr.Elements[i], arr.Elements[j] = arr.Elements[j], arr.Elements[i]
	s.markChanged(array)
	return nil
}

// Contents returns the ordered cell values of array.
func (s *State) Contents(array ecs.EntityID) ([]string, error) {
	arr, err := s.array(array)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(arr.Elements))
	for _, cell := range arr.Elements {
		v, err := s.Value(cell)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Entities returns a copy of the ordered cell handles of array.
func (s *State) Entities(array ecs.EntityID) ([]ecs.EntityID, error) {
	arr, err := s.array(array)
	if err != nil {
		return nil, err
	}
	out := make([]ecs.EntityID, len(arr.Elements))
	copy(out, arr.Elements)
	return out, nil
}

// Coordinates returns the ordered world translations of array's cells.
func (s *State) Coordinates(array ecs.EntityID) ([]component.Vec3, error) {
	arr, err := s.array(array)
	if err != nil {
		return nil, err
	}
	cells := make([]ecs.EntityID, len(arr.Elements))
	copy(cells, arr.Elements)

	out := make([]component.Vec3, 0, len(cells))
	for _, cell := range cells {
		pos, err := s.WorldTranslation(cell)
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, nil
}

// Slice creates a new array holding copies of cells [begin, end) of array,
// placed at offset from array's world position. The copies start where the
// source cells are and fly into the new layout.
func (s *State) Slice(array ecs.EntityID, begin, end int, offset component.Vec3) (ecs.EntityID, error) {
	arr, err := s.array(array)
	if err != nil {
		return ecs.NoEntity, err
	}
	if begin < 0 || end < begin || end > len(arr.Elements) {
		return ecs.NoEntity, fmt.Errorf("slice [%d:%d] with length %d: %w", begin, end, len(arr.Elements), ErrIndexOutOfRange)
	}
	origin, err := s.WorldTranslation(array)
	if err != nil {
		return ecs.NoEntity, err
	}

	type seed struct {
		value string
		pos   component.Vec3
	}
	seeds := make([]seed, 0, end-begin)
	for _, cell := range arr.Elements[begin:end] {
		v, err := s.Value(cell)
		if err != nil {
			return ecs.NoEntity, err
		}
		pos, err := s.WorldTranslation(cell)
		if err != nil {
			return ecs.NoEntity, err
		}
		seeds = append(seeds, seed{v, pos})
	}
	out := *arr
	out.Elements = make([]ecs.EntityID, 0, len(seeds))

	base := origin.Add(offset)
	id := s.Spawn(component.At(base))
	for _, sd := range seeds {
		cell := s.SpawnCell(sd.value, component.At(sd.pos.Sub(base)), out.FontSize)
		s.adopt(cell, id)
		out.Elements = append(out.Elements, cell)
	}
	s.Arrays.Set(id, out)
	s.markChanged(id)
	return id, nil
}
