// Package deferclose closes descriptors without racing concurrent
// fdget-style borrows of the same file.
//
// Closing a descriptor is two actions: detaching the file from the
// table, and releasing the table's reference. Releasing immediately is
// a use-after-free if another thread is inside a borrow window that
// trusts the table's reference. The Closer splits the two actions: the
// detach (and the table-independent close) happen synchronously, so
// the caller observes a normal close and the slot number is reusable
// at once; the release is deferred to the task's safe point, which is
// reached only after every borrow window has ended.
//
// This is a strictly ordered two-step teardown, not a grace-period
// scheme: the safe point of a single task is the only barrier needed,
// because borrow windows are task-local.
package deferclose
