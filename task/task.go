package task

import (
	"sync"
	"sync/atomic"

	"github.com/hostkit/reskit/cred"
	"github.com/hostkit/reskit/errors"
	"github.com/hostkit/reskit/fdtable"
	"github.com/hostkit/reskit/file"
	"github.com/hostkit/reskit/kobj"
)

// Task is an execution context: it owns a descriptor table, a
// credential, and a queue of deferred work that runs at the task's
// safe point.
type Task struct {
	mu      sync.Mutex
	work    []func()
	files   *fdtable.Table
	cred    *cred.Credential
	kthread bool
	exited  bool

	// borrows counts outstanding fdget windows. Deferred work must not
	// run while any window is open; ReturnToUser asserts this.
	borrows atomic.Int64
}

// Option configures a Task.
type Option func(*Task)

// WithKthread marks the task as a kernel worker that never returns to
// a safe point. Such tasks cannot schedule deferred work.
func WithKthread() Option {
	return func(t *Task) { t.kthread = true }
}

// WithMaxFds caps the task's descriptor table.
func WithMaxFds(n int) Option {
	return func(t *Task) {
		t.files = fdtable.New(fdtable.WithOwner(t), fdtable.WithMaxFds(n))
	}
}

// WithCred sets the task's credential. The task retains its own unit.
func WithCred(c *cred.Credential) Option {
	return func(t *Task) {
		kobj.Retain(c)
		t.cred = c
	}
}

// New creates a task with an empty descriptor table. Without WithCred
// the task runs with a root credential.
func New(opts ...Option) *Task {
	t := &Task{}
	t.files = fdtable.New(fdtable.WithOwner(t))
	for _, opt := range opts {
		opt(t)
	}
	if t.cred == nil {
		t.cred = cred.New(0, 0)
	}
	return t
}

// Files returns the task's descriptor table.
func (t *Task) Files() *fdtable.Table {
	return t.files
}

// Cred returns a borrowed view of the task's credential, valid while
// the task is.
func (t *Task) Cred() kobj.Borrowed[*cred.Credential] {
	return kobj.Borrow(t.cred)
}

// AddWork queues fn to run at the task's next safe point. The queue
// preserves submission order and each entry runs exactly once, on
// whatever goroutine drives the safe point. Fails with
// deferred_work_unavailable if the task has no safe point (kthread) or
// has already exited.
func (t *Task) AddWork(fn func()) error {
	if t.kthread {
		return errors.DeferredWorkUnavailable("task.add_work", "kthread has no return-to-user boundary")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.exited {
		return errors.DeferredWorkUnavailable("task.add_work", "task has exited")
	}
	t.work = append(t.work, fn)
	return nil
}

// ReturnToUser is the task's safe point: it drains the deferred work
// queue in order. By contract every fdget window must be closed before
// the task reaches this boundary; an open window here is a
// use-after-free waiting to happen, so it panics.
func (t *Task) ReturnToUser() {
	if n := t.borrows.Load(); n != 0 {
		panic("task: return to user with open fdget window")
	}
	t.runPending()
}

// Exit drains any remaining deferred work, closes the descriptor
// table, releases the credential and marks the task dead. AddWork
// fails afterwards.
func (t *Task) Exit() {
	t.mu.Lock()
	if t.exited {
		t.mu.Unlock()
		return
	}
	t.exited = true
	t.mu.Unlock()

	t.runPending()
	t.files.Close()
	kobj.Release(t.cred)
}

func (t *Task) runPending() {
	for {
		t.mu.Lock()
		if len(t.work) == 0 {
			t.mu.Unlock()
			return
		}
		fn := t.work[0]
		t.work = t.work[1:]
		t.mu.Unlock()
		fn()
	}
}

// Pending returns the number of queued work items.
func (t *Task) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.work)
}

// Fdget opens an unprotected borrow window on fd: the returned view
// holds no reference count unit and trusts the descriptor table's own
// unit instead. The window must be closed with Fdput before the task
// returns to user, which is exactly what makes deferred closing of the
// same descriptor safe.
func (t *Task) Fdget(fd int) (kobj.Borrowed[*file.File], error) {
	b, err := t.files.Borrow(fd)
	if err != nil {
		return kobj.Borrowed[*file.File]{}, err
	}
	t.borrows.Add(1)
	return b, nil
}

// Fdput closes a borrow window opened by Fdget. The view must not be
// used afterwards.
func (t *Task) Fdput(kobj.Borrowed[*file.File]) {
	if t.borrows.Add(-1) < 0 {
		panic("task: fdput without matching fdget")
	}
}

// ReserveFd claims an unused descriptor slot on the task's table.
func (t *Task) ReserveFd(flags uint32) (*fdtable.Reservation, error) {
	return t.files.Reserve(flags)
}

// Fget looks up fd in the task's table and returns an owning handle.
func (t *Task) Fget(fd int) (*kobj.Shared[*file.File], error) {
	return t.files.Fget(fd)
}
