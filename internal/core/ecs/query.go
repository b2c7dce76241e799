package ecs

// Each2 iterates over entities that have both component A and B.
// It iterates over the smaller store and checks the larger one.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for i, id := range sa.owners {
			if b, ok := sb.Get(id); ok {
				fn(id, &sa.dense[i], b)
			}
		}
		return
	}
	for i, id := range sb.owners {
		if a, ok := sa.Get(id); ok {
			fn(id, a, &sb.dense[i])
		}
	}
}

// Collect returns a copy of the owners of s for which keep returns true.
// Systems use it to snapshot a work list before mutating stores.
func Collect[T any](s *Store[T], keep func(EntityID, *T) bool) []EntityID {
	out := make([]EntityID, 0, s.Len())
	for i, id := range s.owners {
		if keep == nil || keep(id, &s.dense[i]) {
			out = append(out, id)
		}
	}
	return out
}
