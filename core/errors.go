package core

import "errors"

// Sentinel errors returned by the scheduler API.
//
// Allocation and misuse conditions are local to the call site; there is no
// cross-task error propagation. A deadlocked task simply never runs again,
// which is observable only through a join that never returns.
var (
	// ErrTaskLimit is returned by NewTask when the configured MaxTasks
	// budget is exhausted. Zombie tasks still count against the budget
	// because they are never reclaimed.
	ErrTaskLimit = errors.New("greensched: task limit reached")

	// ErrNotAlloc is returned by InitTask when the handle is not in the
	// Alloc state (already initialized, already running, or terminated).
	ErrNotAlloc = errors.New("greensched: task is not in Alloc state")

	// ErrSchedulerStopped is returned when creating tasks on a scheduler
	// after Stop has been called.
	ErrSchedulerStopped = errors.New("greensched: scheduler is stopped")
)
