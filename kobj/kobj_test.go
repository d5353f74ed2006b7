package kobj

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testObj is a minimal counted object that records its destruction.
type testObj struct {
	Count
	dropped bool
}

func newTestObj() *testObj {
	o := &testObj{}
	o.Init()
	return o
}

func (o *testObj) Drop() {
	o.dropped = true
}

func TestRetainRelease(t *testing.T) {
	o := newTestObj()
	require.EqualValues(t, 1, o.RefCount())

	Retain(o)
	assert.EqualValues(t, 2, o.RefCount())

	Release(o)
	assert.EqualValues(t, 1, o.RefCount())
	assert.False(t, o.dropped)

	Release(o)
	assert.EqualValues(t, 0, o.RefCount())
	assert.True(t, o.dropped)
}

func TestSharedCloneDropBaseline(t *testing.T) {
	o := newTestObj()

	h := Get(o) // 2
	clones := make([]*Shared[*testObj], 0, 8)
	for i := 0; i < 8; i++ {
		clones = append(clones, h.Clone())
	}
	assert.EqualValues(t, 10, o.RefCount())

	for _, c := range clones {
		c.Close()
	}
	h.Close()

	// Back to the pre-test baseline: only the allocation's own unit.
	assert.EqualValues(t, 1, o.RefCount())
	assert.False(t, o.dropped)
}

func TestSharedConcurrentCloneDrop(t *testing.T) {
	o := newTestObj()
	h := Get(o)

	const workers = 16
	const rounds = 200

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				c := h.Clone()
				cc := c.Clone()
				cc.Close()
				c.Close()
			}
		}()
	}
	wg.Wait()

	h.Close()
	assert.EqualValues(t, 1, o.RefCount())
}

func TestAdoptTakesExistingUnit(t *testing.T) {
	o := newTestObj()
	Retain(o) // simulate a lookup that retained on our behalf

	h := Adopt(o)
	assert.EqualValues(t, 2, o.RefCount())

	h.Close()
	assert.EqualValues(t, 1, o.RefCount())
}

func TestTakeOwnershipLeavesHandleInert(t *testing.T) {
	o := newTestObj()
	h := Get(o)

	got := h.TakeOwnership()
	require.Same(t, o, got)
	assert.EqualValues(t, 2, o.RefCount(), "moving the unit must not touch the count")

	assert.Panics(t, func() { h.Close() })
	assert.Panics(t, func() { h.Obj() })
	assert.Panics(t, func() { h.Clone() })

	Release(o) // the moved unit, now the caller's responsibility
	assert.EqualValues(t, 1, o.RefCount())
}

func TestDoubleClosePanics(t *testing.T) {
	o := newTestObj()
	h := Get(o)
	h.Close()
	assert.Panics(t, func() { h.Close() })
}

func TestBorrowedUpgrade(t *testing.T) {
	o := newTestObj()

	b := Borrow(o)
	assert.EqualValues(t, 1, o.RefCount(), "borrow must not count")
	require.Same(t, o, b.Obj())

	h := b.ToShared()
	assert.EqualValues(t, 2, o.RefCount())
	h.Close()
	assert.EqualValues(t, 1, o.RefCount())
}

func TestReleaseBelowZeroPanics(t *testing.T) {
	o := newTestObj()
	Release(o)
	assert.Panics(t, func() { Release(o) })
}

func TestRegistryAcquireByID(t *testing.T) {
	r := NewRegistry[*testObj]()
	o := newTestObj()
	id := r.Add(o)

	h, err := r.AcquireByID(id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, o.RefCount(), "acquire_by_id returns a retained reference")
	require.Same(t, o, h.Obj())
	h.Close()

	_, err = r.AcquireByID(id + 1)
	require.Error(t, err)

	r.Remove(id)
	_, err = r.AcquireByID(id)
	require.Error(t, err)
	assert.EqualValues(t, 1, o.RefCount())
}

func TestRegistryDeadEntryNotAcquirable(t *testing.T) {
	r := NewRegistry[*testObj]()
	o := newTestObj()
	id := r.Add(o)

	Release(o) // owner dropped its unit without removing the entry
	_, err := r.AcquireByID(id)
	require.Error(t, err)
}
