// Package kobj implements reference-counted handles over objects whose
// storage is owned by an external runtime.
//
// # Handle Flavors
//
// Three views exist over a counted object:
//
//	Shared[T]    owning, cloneable; one count unit per live handle
//	Borrowed[T]  non-owning; validity bounded by an external guarantee
//	TakeOwnership moves a Shared's unit into an external owner
//
// Construction is the contract: Adopt takes over a pre-existing count
// unit (for lookups that return retained references), Get retains and
// wraps, Borrow wraps without counting. Which constructor is correct
// depends entirely on what the reference's producer guarantees, and
// that obligation is documented on each constructor rather than
// checked, because it cannot be checked at run time.
//
// # Lifecycle
//
// An object's constructor calls Count.Init, establishing the initial
// owning unit. Release of the last unit runs the object's Drop, after
// which the allocation must not be touched. Retain never fails and
// never blocks.
package kobj
