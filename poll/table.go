package poll

import (
	"go.uber.org/zap"

	"github.com/hostkit/reskit/file"
)

// QueueFunc is the registration callback of a wait table. It receives
// the resource's reference and the condition variable's wait list by
// reference; whatever graph it links the list into holds it weakly and
// must traverse it only inside the grace domain the condvar was built
// with.
type QueueFunc func(f *file.File, wl *WaitList)

// Table wraps a poll/select-style wait table. The registration
// callback may be absent, in which case registration is a no-op (the
// caller polled without blocking).
type Table struct {
	queue QueueFunc
}

// NewTable creates a poll table with the given registration callback,
// which may be nil.
func NewTable(queue QueueFunc) *Table {
	return &Table{queue: queue}
}

// RegisterWait publishes cv's wait list for f into the wait table, so
// blocking waiters can be woken through it. No ownership moves: the
// table ends up with a weak reference that cv's Close knows how to
// neutralize.
func (t *Table) RegisterWait(f *file.File, cv *PollCondVar) {
	if t.queue == nil {
		return
	}
	cv.noteRegistered()
	t.queue(f, cv.wl)
	Logger().Debug("registered wait", zap.String("file", f.String()))
}
