// Package reskit provides safe, reference-counted handles over objects
// whose storage and lifetime are owned by an external runtime.
//
// The library models the handle layer of an operating system: callers
// hold cheap, thread-shareable handles to objects (open files,
// credentials) that may be concurrently released by other parties, and
// the library guarantees that no handle ever outlives the allocation it
// points at.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	reskit/          Root package documentation
//	├── kobj/        Reference-counted object registry and handle types
//	├── cred/        Credential objects (security context accessors)
//	├── file/        Open-file objects and flag words
//	├── fdtable/     Descriptor tables and two-phase fd reservations
//	├── task/        Execution contexts with deferred-work queues
//	├── deferclose/  Deferred descriptor close (safe against borrows)
//	├── poll/        Wait-list registration and teardown
//	├── grace/       Grace-period synchronization domain
//	└── errors/      Structured error types
//
// # Quick Start
//
// Open a file on a task and bind it to a descriptor:
//
//	t := task.New()
//	defer t.Exit()
//
//	rsv, err := t.Files().Reserve(0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	f := file.New(c, file.ORdonly)
//	rsv.Commit(kobj.Adopt(f))
//
//	h, err := t.Files().Fget(rsv.Fd())
//	defer h.Close()
//
// # Thread Safety
//
// Shared handles may be cloned and used from any goroutine. An
// fdtable.Reservation is context-affine: it must only be committed or
// canceled by the task that created it. Task work queues run at the
// task's safe point (ReturnToUser), never concurrently with the task's
// own unprotected borrows.
package reskit
