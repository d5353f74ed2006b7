package deferclose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostkit/reskit/cred"
	"github.com/hostkit/reskit/errors"
	"github.com/hostkit/reskit/file"
	"github.com/hostkit/reskit/kobj"
	"github.com/hostkit/reskit/task"
)

func openFd(t *testing.T, tk *task.Task, flushed *int) (int, *file.File) {
	t.Helper()

	c := cred.New(0, 0)
	opts := []file.Option{}
	if flushed != nil {
		opts = append(opts, file.WithFlusher(func(*file.File) { *flushed++ }))
	}
	f := file.New(c, file.ORdwr, opts...)
	kobj.Release(c)

	rsv, err := tk.ReserveFd(0)
	require.NoError(t, err)
	rsv.Commit(kobj.Adopt(f))
	return rsv.Fd(), f
}

// End-to-end: close a valid descriptor, slot reusable immediately,
// deferred callback restores the baseline count.
func TestCloseFdDefersFinalRelease(t *testing.T) {
	tk := task.New()
	flushed := 0
	fd, f := openFd(t, tk, &flushed)

	// A second handle stands in for "some other owner" so the file
	// survives the close and the counts stay observable.
	keep, err := tk.Fget(fd)
	require.NoError(t, err)
	require.EqualValues(t, 2, f.RefCount())

	c := New()
	require.Equal(t, StateEmpty, c.State())
	require.NoError(t, c.CloseFd(tk, fd))
	assert.Equal(t, StateFilled, c.State())

	// Synchronous effects: slot unbound and reusable, file flushed,
	// table unit consumed, deferred unit still held.
	assert.False(t, tk.Files().IsBound(fd))
	assert.Equal(t, 1, flushed)
	assert.EqualValues(t, 2, f.RefCount(), "keep's unit plus the deferred unit")

	rsv, err := tk.ReserveFd(0)
	require.NoError(t, err)
	assert.Equal(t, fd, rsv.Fd(), "descriptor number reusable before the callback runs")
	rsv.Cancel()

	// Safe point: the deferred unit is released.
	tk.ReturnToUser()
	assert.Equal(t, StateExecuted, c.State())
	assert.EqualValues(t, 1, f.RefCount())

	keep.Close()
	tk.Exit()
}

func TestCloseFdBadDescriptorLeavesNoopWork(t *testing.T) {
	tk := task.New()
	defer tk.Exit()

	c := New()
	err := c.CloseFd(tk, 33)
	require.Error(t, err)
	assert.True(t, errors.HasKind(err, errors.KindBadDescriptor))
	assert.Equal(t, StateScheduled, c.State(), "token scheduled but never filled")
	assert.Equal(t, 1, tk.Pending(), "queued work left in place")

	// The eventual callback is a harmless no-op.
	tk.ReturnToUser()
	assert.Equal(t, StateExecuted, c.State())
}

func TestCloseFdWorkUnavailableLeavesFdOpen(t *testing.T) {
	tk := task.New(task.WithKthread())
	flushed := 0
	fd, f := openFd(t, tk, &flushed)

	c := New()
	err := c.CloseFd(tk, fd)
	require.Error(t, err)
	assert.True(t, errors.HasKind(err, errors.KindDeferredWorkUnavailable))

	// Descriptor untouched: still bound, never flushed.
	assert.True(t, tk.Files().IsBound(fd))
	assert.Equal(t, 0, flushed)
	assert.EqualValues(t, 1, f.RefCount())
	assert.Equal(t, StateExecuted, c.State(), "token is dead after a scheduling failure")
}

func TestTokenIsOneShot(t *testing.T) {
	tk := task.New()
	defer tk.Exit()
	fd, _ := openFd(t, tk, nil)

	c := New()
	require.NoError(t, c.CloseFd(tk, fd))
	assert.Panics(t, func() { _ = c.CloseFd(tk, fd) })
	tk.ReturnToUser()
}

// The motivating race: an fdget borrow is open while another party
// closes the descriptor. The borrow must stay valid until fdput, and
// the file must only be freed after the safe point.
func TestCloseFdSafeAgainstOpenBorrowWindow(t *testing.T) {
	tk := task.New()
	fd, f := openFd(t, tk, nil)

	b, err := tk.Fdget(fd)
	require.NoError(t, err)

	c := New()
	require.NoError(t, c.CloseFd(tk, fd))

	// The table's unit is gone, but the deferred unit keeps the file
	// alive for the duration of the borrow window.
	assert.EqualValues(t, 1, f.RefCount())
	assert.Equal(t, file.ORdwr, file.AccMode(b.Obj().Flags()), "borrow still dereferenceable")

	// Safe point is unreachable while the window is open.
	assert.Panics(t, func() { tk.ReturnToUser() })

	tk.Fdput(b)
	tk.ReturnToUser()
	assert.EqualValues(t, 0, f.RefCount(), "freed only after the borrow window ended")

	tk.Exit()
}

// Scenario B from the protocol description: baseline restoration.
func TestScenarioDeferredCloseRestoresBaseline(t *testing.T) {
	tk := task.New()
	defer tk.Exit()

	reg := kobj.NewRegistry[*file.File]()
	fd, f := openFd(t, tk, nil)
	id := reg.Add(f)

	// Outside owner holds the baseline unit.
	h, err := reg.AcquireByID(id)
	require.NoError(t, err)
	require.EqualValues(t, 2, f.RefCount())

	c := New()
	require.NoError(t, c.CloseFd(tk, fd))
	assert.False(t, tk.Files().IsBound(fd))
	assert.EqualValues(t, 2, f.RefCount(), "extra close unit replaced the table unit")

	tk.ReturnToUser()
	assert.EqualValues(t, 1, f.RefCount(), "baseline restored")

	reg.Remove(id)
	h.Close()
}
