package core

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Scheduler multiplexes tasks over a single logical thread of control.
// Exactly one task executes at any instant; concurrency is achieved by
// interleaving, never by parallel execution.
//
// The scheduler exclusively owns the ready ring and the notion of the
// current task. It is bound to the execution stream that created it: the
// constructing goroutine is adopted as the initial task, and every API
// method that schedules (Yield, Join, InitTask, Sleep, mutex operations)
// must be called from whichever task is currently running on this
// scheduler. Schedulers are independent; tests can create several.
type Scheduler struct {
	cfg     Config
	logger  Logger
	metrics Metrics

	ring    readyRing
	curr    *Task // task holding the run token; nil transiently during retirement
	initial *Task
	cleanup *execContext
	preempt *preemptTimer // nil when preemption is disabled

	// maskDepth is the preemption mask nesting counter. Masking is the
	// system's only mutual exclusion against the preemption path. It is
	// correct solely because no second task runs concurrently with the
	// masked one; it would not survive a truly parallel implementation.
	maskDepth atomic.Int32

	nextID  atomic.Uint64
	stopped atomic.Bool

	// Gauges and counters. Atomics so that Stats can be read from outside
	// the scheduler's execution stream (e.g. a metrics poller).
	stateCounts [5]atomic.Int64 // indexed by TaskState
	spawned     atomic.Int64
	retired     atomic.Int64
	switches    atomic.Int64
	preemptions atomic.Int64
}

// NewScheduler sets up a scheduler, adopts the calling goroutine as the
// initial task (id 0, Running), starts the resident cleanup context, and
// starts the preemption timer unless cfg disables it. A nil cfg uses
// DefaultConfig.
//
// The scheduler lives as long as the process by default; Stop exists for
// tests and embedders that need to silence the preemption timer.
func NewScheduler(cfg *Config) *Scheduler {
	s := &Scheduler{}
	s.cfg = cfg.withDefaults()
	s.logger = s.cfg.Logger
	s.metrics = s.cfg.Metrics
	s.ring.init()

	// Adopt the caller as the initial task. Its execution context is the
	// calling goroutine itself; no entry routine, so it never terminates.
	main := &Task{
		id:    s.nextID.Add(1) - 1,
		name:  "initial",
		ec:    newExecContext(),
		sched: s,
	}
	main.state.Store(int32(StateRunning))
	s.stateCounts[StateRunning].Add(1)
	s.ring.add(main)
	s.curr = main
	s.initial = main
	s.spawned.Add(1)

	// The resident cleanup context: one shared execution stream retires
	// finished tasks. At most one task is ever inside this hand-off at a
	// time, so a single context suffices.
	s.cleanup = newExecContext()
	go s.cleanupLoop()

	if s.cfg.PreemptInterval > 0 {
		s.preempt = newPreemptTimer(s.cfg.PreemptInterval)
	}

	s.logger.Debug("scheduler initialized",
		F("preempt_interval", s.cfg.PreemptInterval),
		F("stack_size", s.cfg.StackSize))
	return s
}

// Initial returns the task adopted from the constructing goroutine.
func (s *Scheduler) Initial() *Task {
	return s.initial
}

// NewTask allocates a task in the Alloc state, unlinked. It fails when the
// scheduler is stopped or the MaxTasks budget is exhausted; terminated
// tasks still count against the budget because they are never reclaimed.
func (s *Scheduler) NewTask() (*Task, error) {
	if s.stopped.Load() {
		return nil, ErrSchedulerStopped
	}
	if s.cfg.MaxTasks > 0 && s.spawned.Load() >= int64(s.cfg.MaxTasks) {
		return nil, fmt.Errorf("%w (max %d)", ErrTaskLimit, s.cfg.MaxTasks)
	}
	t := &Task{
		id:    s.nextID.Add(1) - 1,
		sched: s,
	}
	s.spawned.Add(1)
	s.stateCounts[StateAlloc].Add(1)
	return t, nil
}

// InitTask gives t an entry routine and makes it runnable. Valid only for a
// task in the Alloc state; anything else returns ErrNotAlloc. The new task
// is appended to the ready ring and a scheduling point is triggered
// immediately, so the caller may be switched away before InitTask returns.
//
// Argument forwarding is the caller's business: close over whatever the
// entry routine needs.
func (s *Scheduler) InitTask(t *Task, entry EntryFunc) error {
	if t == nil || t.State() != StateAlloc {
		if s.cfg.DebugChecks {
			s.logger.Warn("InitTask on a non-Alloc task ignored")
		}
		return ErrNotAlloc
	}
	s.maskPreempt()
	t.entry = entry
	t.ec = newExecContext()
	go t.run() // parks until first resume
	t.setState(StateReady)
	s.ring.add(t)
	s.unmaskPreempt()
	s.metrics.RecordTaskSpawned()

	// The new task becomes eligible at once.
	s.reschedule(false)
	return nil
}

// Join blocks until t's entry routine has returned. This is busy-polling:
// the caller yields in a loop and consumes scheduling turns while waiting.
// There is no timeout; joining a task that never terminates never returns.
func (s *Scheduler) Join(t *Task) {
	if t == nil {
		return
	}
	for t.State() != StateZombie {
		s.reschedule(false)
	}
}

// Yield is a voluntary reschedule point: the caller is marked Ready and the
// next runnable task in round-robin order is resumed.
func (s *Scheduler) Yield() {
	s.reschedule(false)
}

// Checkpoint is a preemption safepoint. If the preemption timer has fired
// since the last delivery and preemption is not masked, the caller is
// involuntarily rescheduled, transparently to its own computation. Pure
// computations that should remain preemptible call Checkpoint inside their
// loops; every blocking scheduler operation is already a safepoint.
func (s *Scheduler) Checkpoint() {
	s.preemptPoint()
}

// Sleep pauses the calling task for at least d while letting other tasks
// run. Like Join it is a busy rotation through the scheduler, not a timer
// wait; the task stays Ready the whole time. When no other task is
// runnable it naps briefly instead of spinning hot.
func (s *Scheduler) Sleep(d time.Duration) {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		if s.runnableCount() <= 1 {
			nap := 500 * time.Microsecond
			if remaining < nap {
				nap = remaining
			}
			time.Sleep(nap)
		}
		s.reschedule(false)
	}
}

// Stats returns a snapshot of the scheduler's counters. Safe to call from
// any goroutine.
func (s *Scheduler) Stats() SchedulerStats {
	ready := s.stateCounts[StateReady].Load()
	running := s.stateCounts[StateRunning].Load()
	blocked := s.stateCounts[StateBlocked].Load()
	return SchedulerStats{
		Spawned:         s.spawned.Load(),
		Retired:         s.retired.Load(),
		Alloc:           s.stateCounts[StateAlloc].Load(),
		Ready:           ready,
		Running:         running,
		Blocked:         blocked,
		Zombie:          s.stateCounts[StateZombie].Load(),
		Switches:        s.switches.Load(),
		Preemptions:     s.preemptions.Load(),
		StackReserved:   int64(s.cfg.StackSize) * (ready + running + blocked),
		PreemptInterval: s.cfg.PreemptInterval,
	}
}

// Stop silences the preemption timer and rejects further task creation.
// Live tasks keep their state; the scheduler remains usable for joining
// what is already running. Intended for tests and embedders; the default
// process-global scheduler is never stopped.
func (s *Scheduler) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	if s.preempt != nil {
		s.preempt.stop()
	}
	s.logger.Debug("scheduler stopped")
}

// =============================================================================
// Internal scheduling machinery
// =============================================================================

// maskPreempt blocks involuntary preemption delivery for the duration of a
// critical section that mutates shared scheduler or mutex state. Nests.
func (s *Scheduler) maskPreempt() {
	s.maskDepth.Add(1)
}

// unmaskPreempt re-enables preemption delivery. A request that arrived
// while masked stays pending and is delivered at the next safepoint.
func (s *Scheduler) unmaskPreempt() {
	s.maskDepth.Add(-1)
}

// preemptPoint delivers a pending preemption request, if any. Must only be
// called from the execution stream of the currently running task.
func (s *Scheduler) preemptPoint() {
	if s.preempt == nil || s.maskDepth.Load() != 0 {
		return
	}
	if s.preempt.consume() {
		s.preemptions.Add(1)
		s.reschedule(true)
	}
}

// selectNext scans forward from the current position, wrapping and skipping
// the sentinel, until it finds a Ready or Running task. Blocked and
// not-yet-ready tasks stay linked but are skipped. When no runnable task
// exists the system cannot make progress: every wake-up source is itself a
// task, so this is a genuine deadlock and selectNext panics rather than
// spinning forever.
func (s *Scheduler) selectNext() *Task {
	from := s.curr
	if from == nil {
		from = s.ring.sentinel()
	}
	if s.ring.len() == 0 {
		panic("greensched: ready ring is empty, nothing to schedule")
	}
	n := from
	for i := 0; i <= s.ring.len(); i++ {
		n = s.ring.nextAfter(n)
		if st := n.State(); st == StateReady || st == StateRunning {
			return n
		}
	}
	panic("greensched: all tasks are blocked - deadlock")
}

// switchTasks marks the previously running task Ready (unless it already
// set itself Blocked), marks the selected task Running, and returns the
// previous task so its context can be swapped out by the caller.
func (s *Scheduler) switchTasks() *Task {
	prev := s.curr
	next := s.selectNext()
	if prev.State() == StateRunning {
		prev.setState(StateReady)
	}
	next.setState(StateRunning)
	s.curr = next
	return prev
}

// reschedule computes the next task and performs the full context swap.
// The caller suspends here and continues, possibly much later, when the
// round robin comes back to it.
func (s *Scheduler) reschedule(preempted bool) {
	s.maskPreempt()
	prev := s.switchTasks()
	next := s.curr
	s.unmaskPreempt()

	s.switches.Add(1)
	s.metrics.RecordSwitch(preempted)
	prev.ec.transferTo(next.ec)
}

// cleanupLoop runs on the resident cleanup context. Every task's entry
// routine falls through into it on return: the just-finished task hands
// over the run token, gets unlinked and marked terminal here, and the next
// runnable task is resumed. Terminated tasks are never freed; each one is
// a permanent allocation until process exit.
func (s *Scheduler) cleanupLoop() {
	for range s.cleanup.resume {
		s.retireCurrent()
	}
}

func (s *Scheduler) retireCurrent() {
	s.maskPreempt()
	t := s.curr
	s.ring.remove(t)
	t.setState(StateZombie)
	s.curr = nil
	s.retired.Add(1)

	next := s.selectNext()
	next.setState(StateRunning)
	s.curr = next
	s.unmaskPreempt()

	s.switches.Add(1)
	s.metrics.RecordTaskRetired()
	s.metrics.RecordSwitch(false)
	s.logger.Debug("task retired", F("task", t.ID()), F("name", t.Name()))
	next.ec.signal()
}

// current returns the running task. Only meaningful on the execution stream
// that holds the run token.
func (s *Scheduler) current() *Task {
	return s.curr
}

func (s *Scheduler) runnableCount() int64 {
	return s.stateCounts[StateReady].Load() + s.stateCounts[StateRunning].Load()
}
