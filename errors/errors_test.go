package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	err := BadDescriptor("fdtable.fget", 7)
	assert.Equal(t, "[fdtable.fget] bad_descriptor fd=7", err.Error())

	err = SlotExhausted("fdtable.reserve", "table full (%d slots)", 64)
	assert.Equal(t, "[fdtable.reserve] slot_exhausted: table full (64 slots)", err.Error())
}

func TestErrorIsMatchesOnKind(t *testing.T) {
	err := BadDescriptor("task.fdget", 3)
	require.True(t, stderrors.Is(err, &Error{Kind: KindBadDescriptor}))
	require.False(t, stderrors.Is(err, &Error{Kind: KindSlotExhausted}))
}

func TestWrapUnwrap(t *testing.T) {
	cause := NotFound("kobj.acquire", "id %d", 12)
	err := Wrap("file.fget", KindBadDescriptor, cause, "lookup failed")

	require.ErrorIs(t, err, cause)
	assert.True(t, HasKind(err, KindBadDescriptor))
	assert.True(t, HasKind(err, KindNotFound))
	assert.False(t, HasKind(err, KindClosed))
}

func TestHasKindNonStructured(t *testing.T) {
	assert.False(t, HasKind(stderrors.New("plain"), KindBadDescriptor))
	assert.False(t, HasKind(nil, KindBadDescriptor))
}
