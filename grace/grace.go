// Package grace provides a reader-tracked grace-period domain: a
// cooperative handshake that lets a writer wait until every reader
// that started before a marker has finished.
//
// This is not a lock. Readers never block and never exclude each
// other or the writer; Synchronize only waits, it guards nothing by
// itself. The usefulness comes from the protocol built on top: evict
// all ways of reaching a structure, then Synchronize, then free it.
package grace

import "sync"

// Epoch identifies the generation a read section joined.
type Epoch uint64

// Domain tracks read-side sections by generation.
type Domain struct {
	mu      sync.Mutex
	cond    *sync.Cond
	gen     Epoch
	readers map[Epoch]int
}

// NewDomain creates an empty domain.
func NewDomain() *Domain {
	d := &Domain{readers: make(map[Epoch]int)}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// ReadLock enters a read-side section and returns its epoch. Never
// blocks.
func (d *Domain) ReadLock() Epoch {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readers[d.gen]++
	return d.gen
}

// ReadUnlock leaves a read-side section entered at e.
func (d *Domain) ReadUnlock(e Epoch) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.readers[e] - 1
	if n < 0 {
		panic("grace: read unlock without matching read lock")
	}
	if n == 0 {
		delete(d.readers, e)
		d.cond.Broadcast()
	} else {
		d.readers[e] = n
	}
}

// Synchronize blocks until every read section that began before the
// call has ended. Sections that begin after the call do not delay it.
func (d *Domain) Synchronize() {
	d.mu.Lock()
	defer d.mu.Unlock()

	target := d.gen
	d.gen++

	for d.anyReadersAtOrBefore(target) {
		d.cond.Wait()
	}
}

func (d *Domain) anyReadersAtOrBefore(target Epoch) bool {
	for e := range d.readers {
		if e <= target {
			return true
		}
	}
	return false
}
