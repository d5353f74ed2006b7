// Package task models execution contexts for the handle layer.
//
// A Task bundles the pieces the descriptor protocols are defined
// against: a descriptor table, a credential, a deferred-work queue
// drained at the task's safe point (ReturnToUser), and bookkeeping for
// fdget/fdput borrow windows. Deferred work is guaranteed to run after
// every borrow window that was open when the work was queued has
// closed, because windows must close before the safe point is reached.
package task
