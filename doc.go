// Package greensched provides a user-space task (green thread) scheduler for Go.
//
// The library multiplexes cooperatively scheduled tasks over a single
// logical thread of control: exactly one task executes at any instant, and
// concurrency is achieved by interleaving rather than parallelism. A
// periodic preemption timer forces reschedules at safepoints, and a mutex
// primitive with broadcast wake coordinates tasks.
//
// # Quick Start
//
// Initialize the global scheduler at application startup, from the
// goroutine that will act as the initial task:
//
//	greensched.Init(nil) // default config: 1s preemption, 16KiB stacks
//
// Create and start tasks:
//
//	t, err := greensched.NewTask()
//	if err != nil {
//		// task budget exhausted
//	}
//	greensched.InitTask(t, func(ctx context.Context) {
//		s := greensched.GetCurrentScheduler(ctx)
//		for i := 0; i < 10; i++ {
//			fmt.Println("working", i)
//			s.Yield()
//		}
//	})
//	greensched.Join(t)
//
// # Key Concepts
//
// Task: a schedulable unit of user-space concurrency. Lifecycle is
// Alloc → Ready → Running → {Ready | Blocked} → … → Zombie. Terminated
// tasks are never reclaimed; each one is a permanent allocation until
// process exit.
//
// Scheduler: strict round robin over arrival order, no priorities. The
// ready ring holds every non-terminal task; blocked tasks stay linked and
// are skipped. The constructing goroutine is adopted as the initial task.
//
// Preemption: a configurable periodic timer requests involuntary
// reschedules, delivered transparently at safepoints (Checkpoint calls and
// blocking scheduler operations). Delivery never happens inside a masked
// critical section.
//
// Mutex: blocking Lock, non-blocking TryLock, and broadcast-wake Unlock.
// Woken waiters re-compete for the lock; wait order does not guarantee
// acquisition order. Re-locking an owned mutex is a guaranteed
// self-deadlock.
//
// # Multiple Schedulers
//
// The global scheduler is a convenience. core.NewScheduler creates
// independent instances, each bound to its constructing goroutine; tests
// rely on this to run isolated scheduling scenarios.
package greensched
