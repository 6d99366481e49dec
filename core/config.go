package core

import "time"

const (
	// DefaultPreemptInterval is the reference preemption period.
	DefaultPreemptInterval = 1 * time.Second

	// DefaultStackSize is the reference per-task stack reservation.
	DefaultStackSize = 16 * 1024
)

// Config holds configuration options for a Scheduler.
// All handlers are optional; if not provided, default implementations are used.
type Config struct {
	// PreemptInterval is the period of the involuntary reschedule timer.
	// A value of 0 disables preemption entirely (purely cooperative mode).
	PreemptInterval time.Duration

	// StackSize is the per-task stack reservation in bytes. Task stacks are
	// managed by the Go runtime and grow on demand, so this value is an
	// accounting figure reported through Stats rather than a hard limit.
	StackSize int

	// MaxTasks caps the number of tasks that can be created on the
	// scheduler. Terminated tasks are never reclaimed and keep counting
	// against the budget. 0 means unlimited.
	MaxTasks int

	// DebugChecks enables misuse diagnostics (self-deadlock on a mutex,
	// unlock by a non-owner, re-initializing a task). Diagnostics are
	// reported through Logger and never change blocking behavior.
	DebugChecks bool

	// Logger receives scheduler diagnostics. Defaults to NoOpLogger.
	Logger Logger

	// Metrics is called to record scheduling events. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler is called when a task entry routine panics.
	// Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler
}

// DefaultConfig returns a config with the reference preemption interval and
// stack reservation, and default handlers.
func DefaultConfig() *Config {
	return &Config{
		PreemptInterval: DefaultPreemptInterval,
		StackSize:       DefaultStackSize,
	}
}

// withDefaults fills in zero-valued fields. Used by NewScheduler so a nil or
// partial config is always safe.
func (c *Config) withDefaults() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if c == nil {
		out.PreemptInterval = DefaultPreemptInterval
	}
	if out.StackSize <= 0 {
		out.StackSize = DefaultStackSize
	}
	if out.Logger == nil {
		out.Logger = &NoOpLogger{}
	}
	if out.Metrics == nil {
		out.Metrics = &NilMetrics{}
	}
	if out.PanicHandler == nil {
		out.PanicHandler = &DefaultPanicHandler{}
	}
	return out
}
