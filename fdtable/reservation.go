package fdtable

import (
	"sync/atomic"

	"github.com/hostkit/reskit/file"
	"github.com/hostkit/reskit/kobj"
)

// Reservation states.
const (
	rsvPending uint32 = iota
	rsvCommitted
	rsvCanceled
)

// Reservation is a claimed-but-unbound descriptor slot. It allows a
// descriptor to be created in two steps: first reserve the slot, then
// commit a file into it or cancel. Reserving may fail; commit and
// cancel never fail and are mutually exclusive.
//
// A Reservation is affine to the execution context that reserved it.
// The underlying reserve/commit/cancel protocol is defined only in
// terms of that context, so committing or canceling from a different
// one is a contract violation. Go cannot track ownership movement
// across goroutines, so the affinity is asserted where detectable and
// otherwise a documented caller obligation.
type Reservation struct {
	tbl   *Table
	owner any
	fd    int
	state atomic.Uint32
}

// Fd returns the descriptor number that was reserved.
func (r *Reservation) Fd() int {
	return r.fd
}

// Commit binds h's file into the reserved slot. It consumes both the
// reservation and the handle: the handle's reference count unit moves
// into the table, so neither the reservation's cancel nor the handle's
// Close may run afterwards. The bind is atomic with respect to any
// concurrent lookup of the slot.
func (r *Reservation) Commit(h *kobj.Shared[*file.File]) {
	r.assertOwner()
	if !r.state.CompareAndSwap(rsvPending, rsvCommitted) {
		panic("fdtable: commit of consumed reservation")
	}
	r.tbl.install(r.fd, h.TakeOwnership())
}

// Cancel releases the claimed slot without binding anything. It is
// infallible and safe to run from any exit path, including error
// unwinding. Cancel after Commit is a contract violation.
func (r *Reservation) Cancel() {
	r.assertOwner()
	if !r.state.CompareAndSwap(rsvPending, rsvCanceled) {
		panic("fdtable: cancel of consumed reservation")
	}
	r.tbl.unreserve(r.fd)
}

// Consumed reports whether the reservation has been committed or
// canceled.
func (r *Reservation) Consumed() bool {
	return r.state.Load() != rsvPending
}

func (r *Reservation) assertOwner() {
	if r.tbl.owner != r.owner {
		panic("fdtable: reservation used outside the context that reserved it")
	}
}
