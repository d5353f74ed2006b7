package kobj

import "sync/atomic"

// Shared handle states.
const (
	handleLive uint32 = iota
	handleMoved
	handleClosed
)

// Shared is a cloneable owning handle to an Object. Every live Shared
// accounts for exactly one unit of the object's reference count; the
// handle's Close releases that unit. A Shared may be used from
// multiple goroutines, but Close and TakeOwnership are one-shot.
type Shared[T Object] struct {
	obj   T
	state atomic.Uint32
}

// Adopt wraps an object whose count was already incremented on the
// caller's behalf (e.g. by a lookup that returns a pre-retained
// reference). It does not touch the count: ownership of that existing
// unit transfers into the returned handle.
//
// The caller must guarantee obj is valid and that the adopted unit has
// not been given to anyone else.
func Adopt[T Object](obj T) *Shared[T] {
	return &Shared[T]{obj: obj}
}

// Get retains obj and returns a new owning handle for it. The caller
// must hold a reference or valid borrow of obj for the duration of the
// call.
func Get[T Object](obj T) *Shared[T] {
	Retain(obj)
	return &Shared[T]{obj: obj}
}

// Clone returns a new handle holding its own reference count unit.
func (s *Shared[T]) Clone() *Shared[T] {
	if s.state.Load() != handleLive {
		panic("kobj: clone of dead handle")
	}
	return Get(s.obj)
}

// Obj returns the underlying object. The returned reference is valid
// only while the handle is live.
func (s *Shared[T]) Obj() T {
	if s.state.Load() != handleLive {
		panic("kobj: access through dead handle")
	}
	return s.obj
}

// Borrow returns a non-owning view bounded by the handle's lifetime.
func (s *Shared[T]) Borrow() Borrowed[T] {
	return Borrowed[T]{obj: s.Obj()}
}

// Close releases the handle's reference count unit. Calling Close
// twice, or after TakeOwnership, is a contract violation.
func (s *Shared[T]) Close() {
	if !s.state.CompareAndSwap(handleLive, handleClosed) {
		panic("kobj: double close of handle")
	}
	Release(s.obj)
}

// TakeOwnership moves the handle's reference count unit out to the
// caller and leaves the handle inert: neither Close nor any accessor
// may run afterwards. Used when a count unit is transferred into an
// external owner such as a descriptor table.
func (s *Shared[T]) TakeOwnership() T {
	if !s.state.CompareAndSwap(handleLive, handleMoved) {
		panic("kobj: take ownership of dead handle")
	}
	return s.obj
}

// Borrowed is a non-owning view of an Object. It holds no reference
// count unit; validity is the caller's obligation and is bounded by
// whatever guarantees the reference it was created from.
type Borrowed[T Object] struct {
	obj T
}

// Borrow creates a non-owning view of obj.
//
// The caller must guarantee that obj's count is held above zero by
// some other party for as long as the view is used. This is the single
// load-bearing precondition of the handle layer: every accessor on a
// Borrowed rests on it.
func Borrow[T Object](obj T) Borrowed[T] {
	return Borrowed[T]{obj: obj}
}

// Obj returns the underlying object.
func (b Borrowed[T]) Obj() T {
	return b.obj
}

// ToShared upgrades the borrow to an owning handle by retaining the
// object. Valid only while the borrow itself is valid.
func (b Borrowed[T]) ToShared() *Shared[T] {
	return Get(b.obj)
}
