package grace

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronizeNoReaders(t *testing.T) {
	d := NewDomain()
	done := make(chan struct{})
	go func() {
		d.Synchronize()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Synchronize blocked with no readers")
	}
}

func TestSynchronizeWaitsForEarlierReader(t *testing.T) {
	d := NewDomain()

	e := d.ReadLock()

	var synced atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.Synchronize()
		synced.Store(true)
	}()

	time.Sleep(20 * time.Millisecond)
	require.False(t, synced.Load(), "must wait for the pre-existing reader")

	d.ReadUnlock(e)
	wg.Wait()
	assert.True(t, synced.Load())
}

func TestSynchronizeIgnoresLaterReaders(t *testing.T) {
	d := NewDomain()

	e := d.ReadLock()

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		d.Synchronize()
		close(done)
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	// A reader from a later generation must not delay the writer.
	late := d.ReadLock()
	d.ReadUnlock(e)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Synchronize waited for a reader that started after it")
	}
	d.ReadUnlock(late)
}

func TestUnbalancedUnlockPanics(t *testing.T) {
	d := NewDomain()
	assert.Panics(t, func() { d.ReadUnlock(0) })
}

func TestManyConcurrentReaders(t *testing.T) {
	d := NewDomain()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				e := d.ReadLock()
				d.ReadUnlock(e)
			}
		}()
	}

	for i := 0; i < 10; i++ {
		d.Synchronize()
	}
	wg.Wait()
	d.Synchronize()
}
