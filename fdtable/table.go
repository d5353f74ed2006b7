package fdtable

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/hostkit/reskit/errors"
	"github.com/hostkit/reskit/file"
	"github.com/hostkit/reskit/kobj"
)

// DefaultMaxFds is the default descriptor table capacity.
const DefaultMaxFds = 64

type entry struct {
	f        *file.File
	reserved bool
	cloexec  bool
}

// Table is a descriptor table: a dense map from small integers to open
// files. The table owns one reference count unit per bound file.
//
// All operations are atomic with respect to each other: no lookup can
// observe a half-bound slot.
type Table struct {
	mu      sync.RWMutex
	entries []entry
	free    []int
	maxFds  int
	owner   any
}

// Option configures a Table.
type Option func(*Table)

// WithMaxFds caps the number of descriptor slots.
func WithMaxFds(n int) Option {
	return func(t *Table) { t.maxFds = n }
}

// WithOwner records the execution context the table belongs to.
// Reservations are affine to it.
func WithOwner(owner any) Option {
	return func(t *Table) { t.owner = owner }
}

// New creates an empty descriptor table.
func New(opts ...Option) *Table {
	t := &Table{
		entries: make([]entry, 0, 16),
		free:    make([]int, 0, 8),
		maxFds:  DefaultMaxFds,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Reserve claims an unused descriptor slot without binding anything to
// it. The only recognized flag is file.OCloexec. Fails with a
// slot_exhausted error when the table is full or the flags are
// invalid.
func (t *Table) Reserve(flags uint32) (*Reservation, error) {
	if flags&^file.OCloexec != 0 {
		return nil, errors.SlotExhausted("fdtable.reserve", "invalid flags %#o", flags)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fd := -1
	if n := len(t.free); n > 0 {
		fd = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		if len(t.entries) >= t.maxFds {
			return nil, errors.SlotExhausted("fdtable.reserve", "table full (%d slots)", t.maxFds)
		}
		t.entries = append(t.entries, entry{})
		fd = len(t.entries) - 1
	}

	t.entries[fd] = entry{reserved: true, cloexec: flags&file.OCloexec != 0}
	Logger().Debug("reserved slot", zap.Int("fd", fd))

	return &Reservation{tbl: t, fd: fd, owner: t.owner}, nil
}

// install binds f into a reserved slot, taking over the reference
// count unit the caller moved out of its handle. Infallible for a
// valid reservation; the bind is atomic with respect to lookups.
func (t *Table) install(fd int, f *file.File) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.entries[fd].reserved {
		panic("fdtable: install into unreserved slot")
	}
	t.entries[fd].f = f
	t.entries[fd].reserved = false
	Logger().Debug("installed file", zap.Int("fd", fd))
}

// unreserve releases a claimed slot without binding anything.
// Infallible.
func (t *Table) unreserve(fd int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.entries[fd].reserved {
		panic("fdtable: unreserve of slot that is not reserved")
	}
	t.entries[fd] = entry{}
	t.free = append(t.free, fd)
	Logger().Debug("canceled reservation", zap.Int("fd", fd))
}

// lookupLocked returns the file bound at fd, or nil.
func (t *Table) lookupLocked(fd int) *file.File {
	if fd < 0 || fd >= len(t.entries) {
		return nil
	}
	return t.entries[fd].f
}

// Fget looks up fd and returns an owning handle to the bound file,
// with the count incremented under the table lock so the handle can
// never refer to a freed file.
func (t *Table) Fget(fd int) (*kobj.Shared[*file.File], error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	f := t.lookupLocked(fd)
	if f == nil {
		return nil, errors.BadDescriptor("fdtable.fget", fd)
	}
	kobj.Retain(f)
	return kobj.Adopt(f), nil
}

// Borrow returns a non-owning view of the file bound at fd without
// touching its count: the fast path that trusts the table's own unit.
// The caller must end the borrow before this table could drop that
// unit, which tasks enforce through their fdget/fdput windows.
func (t *Table) Borrow(fd int) (kobj.Borrowed[*file.File], error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	f := t.lookupLocked(fd)
	if f == nil {
		return kobj.Borrowed[*file.File]{}, errors.BadDescriptor("fdtable.borrow", fd)
	}
	return kobj.Borrow(f), nil
}

// Detach unbinds fd and returns the file together with ownership of
// the table's reference count unit. The slot number is free for reuse
// as soon as Detach returns.
func (t *Table) Detach(fd int) (*file.File, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f := t.lookupLocked(fd)
	if f == nil {
		return nil, errors.BadDescriptor("fdtable.detach", fd)
	}
	t.entries[fd] = entry{}
	t.free = append(t.free, fd)
	Logger().Debug("detached file", zap.Int("fd", fd))
	return f, nil
}

// CloseUnderlying runs the table-independent close action on a
// detached file and releases the unit Detach handed over. It does not
// free the file unless that unit was the last one.
func (t *Table) CloseUnderlying(f *file.File) {
	f.Flush()
	kobj.Release(f)
}

// IsBound reports whether fd currently has a file bound to it.
func (t *Table) IsBound(fd int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lookupLocked(fd) != nil
}

// Cloexec reports whether fd was reserved with the close-on-exec flag.
func (t *Table) Cloexec(fd int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if fd < 0 || fd >= len(t.entries) {
		return false
	}
	return t.entries[fd].cloexec
}

// Len returns the number of bound descriptors.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for i := range t.entries {
		if t.entries[i].f != nil {
			n++
		}
	}
	return n
}

// Fds returns the bound descriptor numbers in ascending order.
func (t *Table) Fds() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fds := make([]int, 0, len(t.entries))
	for i := range t.entries {
		if t.entries[i].f != nil {
			fds = append(fds, i)
		}
	}
	sort.Ints(fds)
	return fds
}

// MaxFds returns the table capacity.
func (t *Table) MaxFds() int {
	return t.maxFds
}

// Owner returns the execution context the table belongs to.
func (t *Table) Owner() any {
	return t.owner
}

// Close detaches every bound file and releases the table's units.
// Called at task exit, after pending deferred work has drained.
func (t *Table) Close() {
	t.mu.Lock()
	files := make([]*file.File, 0, len(t.entries))
	for i := range t.entries {
		if t.entries[i].f != nil {
			files = append(files, t.entries[i].f)
			t.entries[i] = entry{}
		}
	}
	t.entries = t.entries[:0]
	t.free = t.free[:0]
	t.mu.Unlock()

	for _, f := range files {
		t.CloseUnderlying(f)
	}
}
