package core

import (
	"context"
	"runtime/debug"
	"sync/atomic"
)

// TaskState is the lifecycle state of a task.
//
// The lifecycle is Alloc → Ready → Running → {Ready | Blocked} → … → Zombie.
// Zombie is absorbing: a terminated task is never relinked into the ready
// ring and never reclaimed. Only the scheduler moves a task into Running;
// only the task itself moves into Blocked (before yielding inside a mutex
// wait loop).
type TaskState int32

const (
	// StateAlloc is a freshly created, uninitialized task. It is not yet
	// linked into the ready ring.
	StateAlloc TaskState = iota

	// StateReady means the task is linked and eligible for selection.
	StateReady

	// StateRunning means the task currently holds the run token. At most
	// one task is Running at any instant, except transiently during a
	// switch.
	StateRunning

	// StateBlocked means the task is waiting on a mutex. Blocked tasks
	// remain linked in the ready ring but are skipped during selection.
	StateBlocked

	// StateZombie means the task's entry routine has returned. Terminal.
	StateZombie
)

// String returns a human-readable state name.
func (s TaskState) String() string {
	switch s {
	case StateAlloc:
		return "alloc"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateZombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// EntryFunc is the entry routine of a task. The context carries the owning
// scheduler and the task itself; retrieve them with GetCurrentScheduler and
// GetCurrentTask. Arguments are forwarded by closing over them.
type EntryFunc func(ctx context.Context)

// Task is a schedulable unit of user-space concurrency (a green thread).
//
// A Task is created in the Alloc state by Scheduler.NewTask, given an entry
// routine by Scheduler.InitTask, and from then on is owned by the scheduler
// until its entry routine returns. Task values must not be copied.
type Task struct {
	id    uint64
	name  string
	state atomic.Int32

	entry EntryFunc
	ec    *execContext
	sched *Scheduler

	// ready ring links, touched only while holding the run token with
	// preemption masked
	next, prev *Task
}

// ID returns the task's identity. The initial task adopted by NewScheduler
// has id 0.
func (t *Task) ID() uint64 { return t.id }

// Name returns the task's diagnostic name.
func (t *Task) Name() string { return t.name }

// SetName sets a diagnostic name. Call it before InitTask; the name is not
// synchronized afterwards.
func (t *Task) SetName(name string) { t.name = name }

// State returns the task's current lifecycle state.
func (t *Task) State() TaskState {
	return TaskState(t.state.Load())
}

// setState transitions the task and keeps the scheduler's per-state gauges
// consistent. All transitions happen on the execution stream that holds the
// run token, so the swap never races with another transition.
func (t *Task) setState(ns TaskState) {
	os := TaskState(t.state.Swap(int32(ns)))
	if os == ns {
		return
	}
	t.sched.stateCounts[os].Add(-1)
	t.sched.stateCounts[ns].Add(1)
}

// run is the body of the task's execution context. It parks until the first
// resume, invokes the entry routine, and on return (or panic) falls through
// into the cleanup handler by handing over the run token.
func (t *Task) run() {
	t.ec.park()

	s := t.sched
	ctx := context.WithValue(context.Background(), schedulerKey, s)
	ctx = context.WithValue(ctx, taskKey, t)

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				s.cfg.PanicHandler.HandlePanic(ctx, t.id, rec, debug.Stack())
				s.metrics.RecordTaskPanic(t.id)
			}
		}()
		t.entry(ctx)
	}()

	// Entry routine returned: control falls into the cleanup context.
	// This goroutine is done; the Task struct stays allocated as a zombie.
	s.cleanup.signal()
}

// =============================================================================
// Context plumbing
// =============================================================================

type ctxKey int

const (
	schedulerKey ctxKey = iota
	taskKey
)

// GetCurrentScheduler retrieves the scheduler owning the current task from
// an entry routine's context. Returns nil if ctx does not originate from a
// task entry.
func GetCurrentScheduler(ctx context.Context) *Scheduler {
	s, _ := ctx.Value(schedulerKey).(*Scheduler)
	return s
}

// GetCurrentTask retrieves the current task from an entry routine's context.
// Returns nil if ctx does not originate from a task entry.
func GetCurrentTask(ctx context.Context) *Task {
	t, _ := ctx.Value(taskKey).(*Task)
	return t
}
