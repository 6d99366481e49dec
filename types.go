package greensched

import "github.com/janlis/go-green-scheduler/core"

// Re-export commonly used types from the core package for convenience.
// This allows users to import only the greensched package for most use cases.

// Task is a schedulable unit of user-space concurrency (green thread)
type Task = core.Task

// TaskState is the lifecycle state of a task
type TaskState = core.TaskState

// EntryFunc is the entry routine of a task
type EntryFunc = core.EntryFunc

// Scheduler multiplexes tasks over a single logical thread of control
type Scheduler = core.Scheduler

// Mutex is the task-level mutual-exclusion primitive
type Mutex = core.Mutex

// Config holds scheduler configuration
type Config = core.Config

// SchedulerStats is a snapshot of scheduler counters
type SchedulerStats = core.SchedulerStats

// Logger is the structured logging interface
type Logger = core.Logger

// Metrics is the scheduling metrics interface
type Metrics = core.Metrics

// Lifecycle state constants
const (
	StateAlloc   TaskState = core.StateAlloc
	StateReady   TaskState = core.StateReady
	StateRunning TaskState = core.StateRunning
	StateBlocked TaskState = core.StateBlocked
	StateZombie  TaskState = core.StateZombie
)

// Convenience re-exports
var (
	DefaultConfig       = core.DefaultConfig
	GetCurrentScheduler = core.GetCurrentScheduler
	GetCurrentTask      = core.GetCurrentTask
)

// Sentinel errors
var (
	ErrTaskLimit        = core.ErrTaskLimit
	ErrNotAlloc         = core.ErrNotAlloc
	ErrSchedulerStopped = core.ErrSchedulerStopped
)
