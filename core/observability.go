package core

import "time"

// SchedulerStats is a point-in-time snapshot of a scheduler's counters,
// safe to read from outside the scheduler's execution stream.
type SchedulerStats struct {
	// Spawned counts every task ever created on this scheduler, the
	// adopted initial task included.
	Spawned int64

	// Retired counts tasks whose entry routine has returned.
	Retired int64

	// Per-state task counts.
	Alloc   int64
	Ready   int64
	Running int64
	Blocked int64
	Zombie  int64

	// Switches counts every context switch, voluntary and preempted.
	Switches int64

	// Preemptions counts switches forced by the preemption timer.
	Preemptions int64

	// StackReserved is the configured stack reservation times the number
	// of live (non-terminal, initialized) tasks. Accounting only: actual
	// stacks are managed by the Go runtime.
	StackReserved int64

	// PreemptInterval is the configured preemption period, 0 if disabled.
	PreemptInterval time.Duration
}
