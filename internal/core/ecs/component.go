package ecs

const absent = -1

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID) bool
}

// Store is a generic sparse-set component store. The sparse slice maps an
// entity index to a slot in the dense value/owner slices; removal swaps the
// victim with the last slot, so every operation is O(1).
//
// Invariant: sparse[e.Index()] == i iff owners[i] == e.
//
// Pointers returned by Add and Get stay valid only until the next Add or
// Remove on the same store.
type Store[T any] struct {
	sparse []int32
	dense  []T
	owners []EntityID
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		sparse: make([]int32, 0, 256),
		dense:  make([]T, 0, 64),
		owners: make([]EntityID, 0, 64),
	}
}

func (s *Store[T]) slot(id EntityID) (int, bool) {
	idx := int(id.Index())
	if idx >= len(s.sparse) {
		return 0, false
	}
	i := s.sparse[idx]
	if i == absent || s.owners[i] != id {
		return 0, false
	}
	return int(i), true
}

// Add attaches a zero-valued component to id and returns it. An existing
// component is reset to the zero value.
func (s *Store[T]) Add(id EntityID) *T {
	var zero T
	s.Set(id, zero)
	i, _ := s.slot(id)
	return &s.dense[i]
}

// Set attaches or overwrites the component for id.
func (s *Store[T]) Set(id EntityID, v T) {
	if i, ok := s.slot(id); ok {
		s.dense[i] = v
		return
	}
	idx := int(id.Index())
	for len(s.sparse) <= idx {
		s.sparse = append(s.sparse, absent)
	}
	s.sparse[idx] = int32(len(s.dense))
	s.dense = append(s.dense, v)
	s.owners = append(s.owners, id)
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	i, ok := s.slot(id)
	if !ok {
		return nil, false
	}
	return &s.dense[i], true
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.slot(id)
	return ok
}

// Remove detaches the component from id. It reports false when id has none.
func (s *Store[T]) Remove(id EntityID) bool {
	i, ok := s.slot(id)
	if !ok {
		return false
	}
	last := len(s.dense) - 1
	moved := s.owners[last]

	s.dense[i] = s.dense[last]
	s.owners[i] = moved
	s.sparse[moved.Index()] = int32(i)

	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.owners = s.owners[:last]
	s.sparse[id.Index()] = absent
	return true
}

func (s *Store[T]) Len() int {
	return len(s.dense)
}

// Entities returns the dense owner list. Callers must not modify it and must
// copy it before mutating the store.
func (s *Store[T]) Entities() []EntityID {
	return s.owners
}

// Each visits every component in dense order. fn must not add or remove
// components of this store.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for i := range s.dense {
		fn(s.owners[i], &s.dense[i])
	}
}
