package deferclose

import (
	"sync"

	"github.com/hostkit/reskit/file"
	"github.com/hostkit/reskit/kobj"
	"github.com/hostkit/reskit/task"
)

// State of a Closer. The transitions are strictly ordered:
//
//	Empty -> Scheduled -> Filled -> Executed
//
// A Closer that fails to schedule goes straight to Executed; one that
// schedules but finds the descriptor already empty stays Scheduled
// until its callback runs as a no-op.
type State uint8

const (
	// StateEmpty is a freshly allocated token.
	StateEmpty State = iota
	// StateScheduled means the callback is queued but holds no
	// reference yet; running it now would be a no-op.
	StateScheduled
	// StateFilled means the callback owns one reference count unit of
	// the closed file and will release it at the safe point.
	StateFilled
	// StateExecuted is terminal.
	StateExecuted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateScheduled:
		return "scheduled"
	case StateFilled:
		return "filled"
	case StateExecuted:
		return "executed"
	}
	return "invalid"
}

// Closer closes a descriptor in a way that is safe even if the file is
// currently held through an fdget-style borrow: the descriptor slot is
// detached and freed for reuse synchronously, but the final reference
// release is deferred to the task's safe point, which by contract is
// reached only after every such borrow window has closed.
type Closer struct {
	mu sync.Mutex
	f  *file.File
	st State
}

// New allocates an empty token. Allocation is separate from CloseFd so
// that the caller can fail early, before anything destructive happens.
func New() *Closer {
	return &Closer{}
}

// State returns the token's current state.
func (c *Closer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// CloseFd closes descriptor fd of task t. The token is consumed.
//
// The callback is scheduled before the descriptor is touched, because
// scheduling is the only fallible step and it must be known to have
// succeeded before any destructive action. From the moment scheduling
// succeeds, the token belongs to the task's work queue.
//
// On success the descriptor number is immediately reusable; the
// file's extra reference is released later, at the safe point.
//
// Errors:
//   - deferred_work_unavailable: t cannot reach a safe point; the
//     descriptor is untouched and the token is dead.
//   - bad_descriptor: fd was not bound; the queued callback remains
//     and will run as a harmless no-op (dequeuing it could be
//     expensive if the queue is long, so it is left in place).
func (c *Closer) CloseFd(t *task.Task, fd int) error {
	c.mu.Lock()
	if c.st != StateEmpty {
		c.mu.Unlock()
		panic("deferclose: token already consumed")
	}
	c.mu.Unlock()

	if err := t.AddWork(c.run); err != nil {
		c.mu.Lock()
		c.st = StateExecuted
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.st = StateScheduled
	c.mu.Unlock()

	f, err := t.Files().Detach(fd)
	if err != nil {
		return err
	}

	// Take the unit the callback will release. Even if some thread
	// holds this file through an fdget window right now, the count
	// cannot reach zero before the window ends, because the callback
	// only runs after the task is past every such window.
	kobj.Retain(f)

	// Table-independent close runs now; the slot number was already
	// freed by Detach.
	t.Files().CloseUnderlying(f)

	c.mu.Lock()
	c.f = f
	c.st = StateFilled
	c.mu.Unlock()

	return nil
}

// run is the deferred callback. It releases the recorded reference, if
// any, and retires the token.
func (c *Closer) run() {
	c.mu.Lock()
	f := c.f
	c.f = nil
	c.st = StateExecuted
	c.mu.Unlock()

	if f != nil {
		kobj.Release(f)
	}
}
