// Package errors provides structured error types for the handle layer.
//
// Every recoverable failure is an *Error carrying the failing operation
// and a Kind. Kinds are the error taxonomy of the library:
//
//	bad_descriptor             descriptor does not exist / already closed
//	slot_exhausted             reservation failed (table full, bad flags)
//	deferred_work_unavailable  context cannot reach a future safe point
//
// Contract violations (double commit, cross-task reservation use,
// double close of a handle) are not part of this taxonomy; they panic.
package errors
