package greensched

import (
	"sync"
	"time"

	"github.com/janlis/go-green-scheduler/core"
)

// The process-global scheduler. Global state lives as long as the process;
// Init is meant to be called once, from the goroutine that acts as the
// initial task. Embedders needing isolation use core.NewScheduler directly.
var (
	globalMu    sync.Mutex
	globalSched *core.Scheduler
)

// Init sets up the global scheduler, adopting the calling goroutine as the
// initial task and starting the preemption timer. A nil cfg uses
// DefaultConfig. Calling Init twice is a no-op that returns the existing
// scheduler.
func Init(cfg *Config) *Scheduler {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalSched == nil {
		globalSched = core.NewScheduler(cfg)
	}
	return globalSched
}

// Global returns the global scheduler. Panics if Init has not been called;
// a scheduler cannot be created lazily because it must adopt a specific
// goroutine as its initial task.
func Global() *Scheduler {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalSched == nil {
		panic("greensched: Init has not been called")
	}
	return globalSched
}

// NewTask allocates a task on the global scheduler.
func NewTask() (*Task, error) {
	return Global().NewTask()
}

// InitTask starts a task on the global scheduler.
func InitTask(t *Task, entry EntryFunc) error {
	return Global().InitTask(t, entry)
}

// Join blocks, by yielding in a loop, until t has terminated.
func Join(t *Task) {
	Global().Join(t)
}

// Yield is a voluntary reschedule point on the global scheduler.
func Yield() {
	Global().Yield()
}

// Checkpoint is a preemption safepoint on the global scheduler.
func Checkpoint() {
	Global().Checkpoint()
}

// Sleep pauses the calling task while letting other tasks run.
func Sleep(d time.Duration) {
	Global().Sleep(d)
}

// NewMutex creates a mutex on the global scheduler.
func NewMutex() *Mutex {
	return Global().NewMutex()
}

// Stats returns a snapshot of the global scheduler's counters.
func Stats() SchedulerStats {
	return Global().Stats()
}
