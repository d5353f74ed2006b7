// Package fdtable implements descriptor tables and the two-phase
// descriptor reservation protocol.
//
// # Two-Phase Allocation
//
// Creating a descriptor is split so that the fallible part happens
// first:
//
//	rsv, err := tbl.Reserve(0)     // may fail: table full, bad flags
//	if err != nil { ... }
//	rsv.Commit(h)                  // never fails, consumes rsv and h
//
// or, on any error path:
//
//	rsv.Cancel()                   // never fails
//
// Commit and Cancel are mutually exclusive and each terminal; reaching
// both for one reservation panics.
//
// # Ownership
//
// A bound slot owns one reference count unit of its file. Fget hands
// out additional owned units under the table lock; Borrow hands out a
// counted-by-nobody view that trusts the table's unit for a brief
// window (the fdget fast path). Detach moves the table's unit out to
// the caller and frees the slot number immediately.
package fdtable
