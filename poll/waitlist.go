package poll

import "sync"

// Outcome of a wait.
type Outcome uint8

const (
	// OutcomeSignaled means the condition was notified.
	OutcomeSignaled Outcome = iota
	// OutcomePollFree means the wait list is being torn down and the
	// wait can never be satisfied.
	OutcomePollFree
)

// waiter is one entry on a wait list. wake is invoked by notifiers
// with the list lock held, so it must not block; waiters use a
// buffered channel behind it.
type waiter struct {
	wake func(Outcome)
}

// WaitList is the wait queue a condition variable is backed by.
// Exactly one condition variable may use a given list as backing
// storage; registration publishes the list to external notifiers by
// reference, without transferring ownership.
type WaitList struct {
	mu      sync.Mutex
	entries []*waiter
	freed   bool
}

func newWaitList() *WaitList {
	return &WaitList{}
}

func (l *WaitList) add(w *waiter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.checkLive()
	l.entries = append(l.entries, w)
}

func (l *WaitList) remove(w *waiter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e == w {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// AddCallback attaches a persistent notification hook, the way a wait
// table links itself into the list during registration. fn runs under
// the list lock on every wake and must not block. An OutcomePollFree
// delivery means the entry has been evicted: the hook's owner must
// drop every reference it holds to this list before leaving its
// current read-side section.
func (l *WaitList) AddCallback(fn func(Outcome)) {
	l.add(&waiter{wake: fn})
}

// WakeAll notifies every entry on the list. Entries stay on the list;
// persistent registrations (poll items) see every wakeup.
func (l *WaitList) WakeAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.checkLive()
	for _, w := range l.entries {
		w.wake(OutcomeSignaled)
	}
}

// WakePollFree wakes every entry with a never-satisfied outcome and
// evicts all of them, so that no notifier keeps a path to entries
// whose backing memory is about to be reclaimed.
func (l *WaitList) WakePollFree() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.checkLive()
	for _, w := range l.entries {
		w.wake(OutcomePollFree)
	}
	l.entries = nil
}

// Len returns the number of entries on the list.
func (l *WaitList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// free marks the list's backing storage reclaimed. Any later touch is
// a use-after-free; the panic stands in for the memory corruption the
// teardown protocol exists to prevent.
func (l *WaitList) free() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.freed = true
}

func (l *WaitList) checkLive() {
	if l.freed {
		panic("poll: wait list used after free")
	}
}
