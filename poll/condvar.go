package poll

import (
	"context"
	"sync/atomic"

	"github.com/hostkit/reskit/grace"
)

// CondVar is a condition variable backed by a WaitList. Waits are
// level-less: a notification that arrives while nobody waits is lost,
// as with poll-style readiness.
type CondVar struct {
	wl *WaitList
}

// NewCondVar creates a condition variable with a private wait list.
// Use NewPollCondVar instead when the list will be published to wait
// tables.
func NewCondVar() *CondVar {
	return &CondVar{wl: newWaitList()}
}

// Wait blocks until the condition is notified, the wait list is torn
// down, or ctx is canceled (reported as OutcomePollFree: the wait will
// never be satisfied through this entry).
func (cv *CondVar) Wait(ctx context.Context) Outcome {
	ch := make(chan Outcome, 1)
	w := &waiter{wake: func(o Outcome) {
		select {
		case ch <- o:
		default:
		}
	}}
	cv.wl.add(w)
	defer cv.wl.remove(w)

	select {
	case o := <-ch:
		return o
	case <-ctx.Done():
		return OutcomePollFree
	}
}

// Notify wakes everything waiting on the condition.
func (cv *CondVar) Notify() {
	cv.wl.WakeAll()
}

// PollCondVar is a CondVar that may be registered with poll tables.
// Its Close makes the backing wait list safe to reclaim even while
// external notifiers hold references to it.
//
// A PollCondVar owns its wait list exclusively; the list is allocated
// here and never shared with another condition variable.
type PollCondVar struct {
	CondVar

	dom        *grace.Domain
	registered atomic.Bool
	closed     atomic.Bool
}

// NewPollCondVar creates a condition variable whose teardown
// handshakes with dom.
func NewPollCondVar(dom *grace.Domain) *PollCondVar {
	return &PollCondVar{CondVar: CondVar{wl: newWaitList()}, dom: dom}
}

// noteRegistered records that the wait list has been published to at
// least one external wait table.
func (p *PollCondVar) noteRegistered() {
	p.registered.Store(true)
}

// Registered reports whether the wait list was ever published.
func (p *PollCondVar) Registered() bool {
	return p.registered.Load()
}

// Close tears the condition variable down:
//
//  1. every entry is woken with a never-satisfied outcome and evicted,
//     so no notifier keeps iterating the list after this returns, and
//  2. if the list was ever published to an external table, a grace
//     period elapses before the backing storage is treated as freed,
//     covering notifiers that read the list reference before step 1.
//
// If nothing was ever registered, no external reference to the list
// can exist and the grace period is skipped.
func (p *PollCondVar) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		panic("poll: condvar closed twice")
	}

	p.wl.WakePollFree()

	if p.registered.Load() {
		p.dom.Synchronize()
	}

	p.wl.free()
}
