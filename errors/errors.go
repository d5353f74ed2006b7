package errors

import (
	"fmt"
	"strings"
)

// Op names the operation that failed, e.g. "fdtable.reserve".
type Op string

// Kind categorizes the error.
type Kind string

const (
	// KindBadDescriptor means the requested descriptor does not exist or
	// was already closed.
	KindBadDescriptor Kind = "bad_descriptor"

	// KindSlotExhausted means a descriptor reservation failed, either
	// because the table is full or because the flags were invalid.
	KindSlotExhausted Kind = "slot_exhausted"

	// KindDeferredWorkUnavailable means the calling context cannot
	// schedule deferred work (it never returns to a safe point).
	KindDeferredWorkUnavailable Kind = "deferred_work_unavailable"

	// KindNotFound means an object id has no live object behind it.
	KindNotFound Kind = "not_found"

	// KindClosed means the target was already shut down.
	KindClosed Kind = "closed"
)

// Error is the structured error type used throughout the library.
type Error struct {
	Cause  error
	Op     Op
	Kind   Kind
	Fd     int // descriptor involved, -1 if not applicable
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Op))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Fd >= 0 {
		fmt.Fprintf(&b, " fd=%d", e.Fd)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two Errors match when
// their kinds are equal, so sentinel-style comparisons work on kind
// alone:
//
//	errors.Is(err, &errors.Error{Kind: errors.KindBadDescriptor})
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for common error patterns.

// BadDescriptor creates a bad-descriptor error for fd.
func BadDescriptor(op Op, fd int) *Error {
	return &Error{Op: op, Kind: KindBadDescriptor, Fd: fd}
}

// SlotExhausted creates a reservation-failure error.
func SlotExhausted(op Op, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{Op: op, Kind: KindSlotExhausted, Fd: -1, Detail: detail}
}

// DeferredWorkUnavailable creates a cannot-schedule error.
func DeferredWorkUnavailable(op Op, detail string) *Error {
	return &Error{Op: op, Kind: KindDeferredWorkUnavailable, Fd: -1, Detail: detail}
}

// NotFound creates a dead-object-id error.
func NotFound(op Op, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{Op: op, Kind: KindNotFound, Fd: -1, Detail: detail}
}

// Closed creates an already-shut-down error.
func Closed(op Op, detail string) *Error {
	return &Error{Op: op, Kind: KindClosed, Fd: -1, Detail: detail}
}

// Wrap wraps an existing error with operation context.
func Wrap(op Op, kind Kind, cause error, detail string) *Error {
	return &Error{Op: op, Kind: kind, Fd: -1, Detail: detail, Cause: cause}
}

// HasKind reports whether err is an *Error of the given kind, looking
// through wrapped causes.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		e, ok := err.(*Error)
		if !ok {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}
