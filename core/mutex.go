package core

// Mutex is a mutual-exclusion primitive for tasks on one scheduler, with a
// blocking Lock, a non-blocking TryLock, and a broadcast-wake Unlock.
//
// The wait list records blocked tasks in the order they began waiting, but
// woken tasks do not inherit the lock: they re-compete as ordinary Ready
// tasks on their next scheduling turn, so wait order does not guarantee
// acquisition order.
//
// A Mutex belongs to whichever subsystem created it and is shared by every
// task holding a reference; its fields are protected solely by masking
// preemption, which is sufficient because only one task executes at a time.
//
// There is no recursion support. A task calling Lock on a mutex it already
// owns enqueues itself behind itself and can never be woken: a guaranteed
// self-deadlock. With Config.DebugChecks the hazard is logged, but the call
// still blocks forever.
type Mutex struct {
	s       *Scheduler
	held    bool
	owner   *Task // valid only while held
	waiters []*Task
}

// NewMutex creates a free mutex with no owner and an empty wait list.
func (s *Scheduler) NewMutex() *Mutex {
	return &Mutex{s: s}
}

// Lock acquires the mutex, blocking the calling task until it is free.
// While waiting the task is Blocked and skipped by the scheduler; each
// broadcast wake moves it back to Ready for another attempt. Between
// unmasking and yielding the wait loop passes a safepoint, so a pending
// preemption can be delivered there.
func (m *Mutex) Lock() {
	s := m.s
	s.maskPreempt()
	t := s.current()
	if m.held {
		if s.cfg.DebugChecks && m.owner == t {
			s.logger.Error("mutex self-deadlock: task is re-locking a mutex it already owns",
				F("task", t.ID()), F("name", t.Name()))
		}
		s.metrics.RecordMutexContention()
		m.waiters = append(m.waiters, t)
		for m.held {
			t.setState(StateBlocked)
			s.unmaskPreempt()
			s.preemptPoint()
			s.reschedule(false)
			s.maskPreempt()
		}
		m.removeWaiter(t)
	}
	m.held = true
	m.owner = t
	s.unmaskPreempt()
}

// TryLock acquires the mutex only if it is free, reporting success. It
// never blocks and never enqueues the caller.
func (m *Mutex) TryLock() bool {
	s := m.s
	s.maskPreempt()
	ok := !m.held
	if ok {
		m.held = true
		m.owner = s.current()
	}
	s.unmaskPreempt()
	return ok
}

// Unlock releases the mutex and wakes every waiting task (broadcast, not
// single wake). Effective only when called by the current owner; release
// by any other task is a silent no-op, logged when DebugChecks is on.
func (m *Mutex) Unlock() {
	s := m.s
	s.maskPreempt()
	if m.held && m.owner == s.current() {
		m.held = false
		m.owner = nil
		for _, w := range m.waiters {
			w.setState(StateReady)
		}
	} else if s.cfg.DebugChecks {
		s.logger.Warn("unlock ignored: caller does not own the mutex",
			F("task", s.current().ID()))
	}
	s.unmaskPreempt()
}

// Held reports whether the mutex is currently held. Diagnostic only; the
// answer is stale the moment the caller yields.
func (m *Mutex) Held() bool {
	s := m.s
	s.maskPreempt()
	held := m.held
	s.unmaskPreempt()
	return held
}

// Owner returns the task holding the mutex, or nil when free. Valid only
// while held; diagnostic only.
func (m *Mutex) Owner() *Task {
	s := m.s
	s.maskPreempt()
	owner := m.owner
	s.unmaskPreempt()
	return owner
}

// removeWaiter unlinks t from the wait list, preserving the order of the
// remaining waiters.
func (m *Mutex) removeWaiter(t *Task) {
	for i, w := range m.waiters {
		if w == t {
			m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
			return
		}
	}
}
