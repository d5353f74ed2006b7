// Package poll implements wait-list registration for file-like objects
// and its teardown protocol.
//
// A file publishes its readiness condition variable into a poll table
// with RegisterWait. The table's notification graph then holds the
// condvar's wait list by bare reference, readable by arbitrary threads
// at arbitrary times. Teardown therefore cannot simply free the list:
// PollCondVar.Close first wakes and evicts every entry (so nothing new
// starts iterating the list) and then waits out a grace period on the
// condvar's domain (so anything that already held the reference has
// finished). Notifiers must traverse published lists inside a
// read-side section of the same domain.
//
// Each PollCondVar owns its wait list exclusively. Sharing one list
// between two condition variables would let one Close free storage the
// other still publishes; the API makes that unrepresentable by
// allocating the list privately.
package poll
