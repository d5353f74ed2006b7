package kobj

import "sync/atomic"

// Object is implemented by reference-counted values whose storage is
// owned by the runtime, not by individual handles. Implementations
// embed Count; the unexported method keeps the interface closed to
// types that carry a real count.
type Object interface {
	// RefCount returns the current reference count. Intended for
	// assertions and introspection, not for lifetime decisions.
	RefCount() int64

	refs() *Count
}

// Dropper is optionally implemented by objects that need cleanup when
// their count reaches zero.
type Dropper interface {
	Drop()
}

// Count is the embeddable reference count for Objects.
//
// The zero value has count zero and must not be published; call Init
// from the object's constructor, which establishes the allocation's
// initial owning reference.
type Count struct {
	n atomic.Int64
}

// Init sets the count to one. Must be called exactly once, before the
// object is visible to any other goroutine.
func (c *Count) Init() {
	c.n.Store(1)
}

// RefCount returns the current count.
func (c *Count) RefCount() int64 {
	return c.n.Load()
}

func (c *Count) refs() *Count { return c }

// Retain increments o's reference count. It never fails and never
// blocks. The caller must already hold at least one reference (or a
// valid borrow) to o; incrementing a count that may concurrently reach
// zero is a contract violation.
func Retain(o Object) {
	o.refs().n.Add(1)
}

// Release decrements o's reference count by one. The call that takes
// the count to zero runs the object's Drop, after which o must not be
// touched. Safe to call from any goroutine.
func Release(o Object) {
	n := o.refs().n.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("kobj: release of object with zero refcount")
	}
	if d, ok := o.(Dropper); ok {
		d.Drop()
	}
}
