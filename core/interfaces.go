package core

import (
	"context"
	"fmt"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task's entry routine panics.
// The panic is recovered on the task's own execution context; after the
// handler returns, the task falls into the cleanup handler and terminates
// exactly as if its entry routine had returned normally.
type PanicHandler interface {
	// HandlePanic is called with the panicked task's context, the task id,
	// the recovered panic value, and the stack trace at the time of panic.
	HandlePanic(ctx context.Context, taskID uint64, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler provides a basic panic handler that logs to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, taskID uint64, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Task %d] Panic: %v\nStack trace:\n%s", taskID, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting scheduling metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called from inside scheduling paths and must be non-blocking
// and fast. They must never call back into the scheduler.
type Metrics interface {
	// RecordSwitch records a context switch. preempted is true when the
	// switch was forced by the preemption timer rather than a voluntary
	// yield.
	RecordSwitch(preempted bool)

	// RecordTaskSpawned records that a task was initialized and linked
	// into the ready ring.
	RecordTaskSpawned()

	// RecordTaskRetired records that a finished task was unlinked and
	// marked terminal by the cleanup handler.
	RecordTaskRetired()

	// RecordTaskPanic records that a task's entry routine panicked.
	RecordTaskPanic(taskID uint64)

	// RecordMutexContention records that a Lock call found the mutex held
	// and had to enter the wait list.
	RecordMutexContention()
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordSwitch is a no-op.
func (m *NilMetrics) RecordSwitch(preempted bool) {}

// RecordTaskSpawned is a no-op.
func (m *NilMetrics) RecordTaskSpawned() {}

// RecordTaskRetired is a no-op.
func (m *NilMetrics) RecordTaskRetired() {}

// RecordTaskPanic is a no-op.
func (m *NilMetrics) RecordTaskPanic(taskID uint64) {}

// RecordMutexContention is a no-op.
func (m *NilMetrics) RecordMutexContention() {}
