package file

import (
	"fmt"
	"sync/atomic"

	"github.com/hostkit/reskit/cred"
	"github.com/hostkit/reskit/kobj"
)

// File is an open file object. Its storage lifetime is governed by its
// reference count: descriptor tables, handles and in-flight deferred
// work each account for one unit.
type File struct {
	kobj.Count

	// cred is set once at open time and never changes, so reading it
	// needs no synchronization. The file's unit on the credential is
	// released when the file is destroyed, which is what makes the
	// borrowed view returned by Cred sound.
	cred *cred.Credential

	// flags may be mutated by the owner (fcntl-style) without any lock
	// visible to handle holders, so all reads must go through the
	// atomic and never a plain load.
	flags atomic.Uint32

	onFlush func(*File)
}

// Option configures a File at open time.
type Option func(*File)

// WithFlusher installs fn to run when the file is closed at the table
// level (the filp_close analogue), before the table's unit is dropped.
func WithFlusher(fn func(*File)) Option {
	return func(f *File) { f.onFlush = fn }
}

// New opens a file with the given credential and flags. The file
// retains its own unit on c; the caller keeps whatever reference it
// already held. The returned reference carries the initial count unit.
func New(c *cred.Credential, flags uint32, opts ...Option) *File {
	f := &File{cred: c}
	f.flags.Store(flags)
	kobj.Retain(c)
	f.Init()
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Cred returns the credentials of the task that originally opened the
// file. The view is non-owning: it is valid only while the caller's
// reference to the file is, because the file guarantees the credential
// outlives it but hands out no unit of its own.
func (f *File) Cred() kobj.Borrowed[*cred.Credential] {
	return kobj.Borrow(f.cred)
}

// Flags returns the flags associated with the file, a combination of
// the O* constants. Single atomic read; the owner may change the word
// concurrently.
func (f *File) Flags() uint32 {
	return f.flags.Load()
}

// SetFlags replaces the flags word. Owner-side mutation path.
func (f *File) SetFlags(flags uint32) {
	f.flags.Store(flags)
}

// Raw returns f as an untyped object reference for collaborator APIs
// that traffic in opaque resource references. Equality is identity.
func (f *File) Raw() kobj.Object {
	return f
}

// Flush runs the table-independent close action (the filp_close
// analogue minus the reference drop). Safe to call while other
// goroutines still hold references; the slot number this file was
// bound to may already have been reused.
func (f *File) Flush() {
	if f.onFlush != nil {
		f.onFlush(f)
	}
}

// Drop releases the file's unit on its credential. Runs when the last
// reference count unit is released.
func (f *File) Drop() {
	kobj.Release(f.cred)
}

func (f *File) String() string {
	return fmt.Sprintf("file{%v flags:%#o refs:%d}", f.cred.Euid(), f.Flags(), f.RefCount())
}
