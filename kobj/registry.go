package kobj

import (
	"sync"

	"github.com/hostkit/reskit/errors"
)

// ID identifies an object in a Registry. Zero is never a valid id.
type ID uint64

// Registry is an id-keyed index of live objects, the lookup-by-id
// surface of the object lifecycle provider. The registry itself holds
// no reference count units; entries are weak and must be removed by
// the object's owner before the last unit is released.
type Registry[T Object] struct {
	mu   sync.RWMutex
	objs map[ID]T
	next ID
}

// NewRegistry creates an empty registry.
func NewRegistry[T Object]() *Registry[T] {
	return &Registry[T]{objs: make(map[ID]T)}
}

// Add indexes obj and returns its id.
func (r *Registry[T]) Add(obj T) ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.objs[r.next] = obj
	return r.next
}

// Remove drops the index entry for id, if present.
func (r *Registry[T]) Remove(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objs, id)
}

// AcquireByID looks up id and returns an owning handle with the count
// already incremented. An entry whose count has reached zero is
// treated as dead even if the owner has not removed it yet.
func (r *Registry[T]) AcquireByID(id ID) (*Shared[T], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	obj, ok := r.objs[id]
	if !ok || obj.RefCount() == 0 {
		return nil, errors.NotFound("kobj.acquire_by_id", "no live object with id %d", id)
	}

	// Owners must Remove an object before releasing their last unit,
	// so an indexed object with a nonzero count is safe to retain.
	Retain(obj)
	return Adopt(obj), nil
}

// Len returns the number of indexed objects.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objs)
}
