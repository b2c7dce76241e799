package ecs

import "errors"

var (
	// ErrEntityNotFound is returned when a handle is stale or was never allocated.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrHierarchyCycle is returned when a reparent would make an entity its own ancestor.
	ErrHierarchyCycle = errors.New("hierarchy cycle")
)

// World is the top-level ECS container. It owns the entity pool, the component
// registry, the parent/child tree, and a deferred destruction queue flushed by
// CleanupSystem each tick.
type World struct {
	pool         *EntityPool
	registry     *Registry
	parents      *Store[EntityID]
	children     *Store[[]EntityID]
	destroyQueue []EntityID
	onDespawn    []func(EntityID)
}

func NewWorld() *World {
	w := &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 64),
	}
	w.parents = Register[EntityID](w)
	w.children = Register[[]EntityID](w)
	return w
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// OnDespawn registers fn to run for every entity right before its components
// are removed.
func (w *World) OnDespawn(fn func(EntityID)) {
	w.onDespawn = append(w.onDespawn, fn)
}

// Parent returns the parent of id, if any.
func (w *World) Parent(id EntityID) (EntityID, bool) {
	p, ok := w.parents.Get(id)
	if !ok {
		return NoEntity, false
	}
	return *p, true
}

// Children returns the ordered children of id. The slice is owned by the world.
func (w *World) Children(id EntityID) []EntityID {
	c, ok := w.children.Get(id)
	if !ok {
		return nil
	}
	return *c
}

// SetParent attaches child under parent, detaching it from any previous parent.
func (w *World) SetParent(child, parent EntityID) error {
	if !w.Alive(child) || !w.Alive(parent) {
		return ErrEntityNotFound
	}
	for cur, ok := parent, true; ok; cur, ok = w.Parent(cur) {
		if cur == child {
			return ErrHierarchyCycle
		}
	}
	w.RemoveParent(child)
	w.parents.Set(child, parent)
	if c, ok := w.children.Get(parent); ok {
		*c = append(*c, child)
	} else {
		w.children.Set(parent, []EntityID{child})
	}
	return nil
}

// RemoveParent detaches child from its parent. Detaching a root is a no-op.
func (w *World) RemoveParent(child EntityID) {
	parent, ok := w.Parent(child)
	if !ok {
		return
	}
	w.parents.Remove(child)
	c, ok := w.children.Get(parent)
	if !ok {
		return
	}
	for i, id := range *c {
		if id == child {
			*c = append((*c)[:i], (*c)[i+1:]...)
			break
		}
	}
	if len(*c) == 0 {
		w.children.Remove(parent)
	}
}

// Despawn detaches id from its parent and destroys it with all descendants.
// OnDespawn hooks see the hierarchy intact. It returns the number of
// entities destroyed.
func (w *World) Despawn(id EntityID) (int, error) {
	if !w.Alive(id) {
		return 0, ErrEntityNotFound
	}
	subtree := []EntityID{id}
	for i := 0; i < len(subtree); i++ {
		subtree = append(subtree, w.Children(subtree[i])...)
	}
	for _, e := range subtree {
		for _, fn := range w.onDespawn {
			fn(e)
		}
	}
	w.RemoveParent(id)
	for _, e := range subtree {
		w.registry.RemoveAll(e)
		w.pool.Destroy(e)
	}
	return len(subtree), nil
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// Pending reports how many entities are queued for destruction.
func (w *World) Pending() int {
	return len(w.destroyQueue)
}

// FlushDestroyQueue despawns all queued entities. Entities already gone
// (queued twice, or despawned with an ancestor) are skipped, but any
// component still stored under their stale id is dropped.
func (w *World) FlushDestroyQueue() int {
	total := 0
	for _, id := range w.destroyQueue {
		n, err := w.Despawn(id)
		if err != nil {
			w.registry.RemoveAll(id)
			continue
		}
		total += n
	}
	w.destroyQueue = w.destroyQueue[:0]
	return total
}
