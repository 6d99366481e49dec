package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

// cooperative returns a config with preemption disabled, for deterministic
// round-robin tests.
func cooperative() *Config {
	return &Config{PreemptInterval: 0}
}

// TestScheduler_RoundRobinOrder tests strict round-robin rotation.
// Main test items:
// 1. Tasks A, B, C created in that order run in arrival order
// 2. One voluntary yield per body resumes the rotation at the same point
// 3. Observed order is A, B, C, A, B, C
func TestScheduler_RoundRobinOrder(t *testing.T) {
	s := NewScheduler(cooperative())
	defer s.Stop()

	var order []string
	started := false

	body := func(name string) EntryFunc {
		return func(ctx context.Context) {
			sc := GetCurrentScheduler(ctx)
			// Gate: wait until all three tasks exist so construction
			// turns do not pollute the recorded rotation.
			for !started {
				sc.Yield()
			}
			order = append(order, name)
			sc.Yield()
			order = append(order, name)
		}
	}

	tasks := make([]*Task, 0, 3)
	for _, name := range []string{"A", "B", "C"} {
		tk, err := s.NewTask()
		if err != nil {
			t.Fatalf("NewTask(%s): %v", name, err)
		}
		tk.SetName(name)
		if err := s.InitTask(tk, body(name)); err != nil {
			t.Fatalf("InitTask(%s): %v", name, err)
		}
		tasks = append(tasks, tk)
	}

	started = true
	for _, tk := range tasks {
		s.Join(tk)
	}

	expected := []string{"A", "B", "C", "A", "B", "C"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d entries, got %v", len(expected), order)
	}
	for i, exp := range expected {
		if order[i] != exp {
			t.Errorf("position %d: expected %s, got %s (full order %v)", i, exp, order[i], order)
		}
	}
}

// TestScheduler_FairnessWindow tests that with N perpetually ready tasks
// every window of N consecutive recorded turns selects each task exactly
// once, in arrival order.
func TestScheduler_FairnessWindow(t *testing.T) {
	s := NewScheduler(cooperative())
	defer s.Stop()

	const n = 4
	const rounds = 8
	var seq []int
	started := false

	tasks := make([]*Task, 0, n)
	for i := 0; i < n; i++ {
		id := i
		tk, err := s.NewTask()
		if err != nil {
			t.Fatalf("NewTask: %v", err)
		}
		err = s.InitTask(tk, func(ctx context.Context) {
			sc := GetCurrentScheduler(ctx)
			for !started {
				sc.Yield()
			}
			for r := 0; r < rounds; r++ {
				seq = append(seq, id)
				sc.Yield()
			}
		})
		if err != nil {
			t.Fatalf("InitTask: %v", err)
		}
		tasks = append(tasks, tk)
	}

	started = true
	for _, tk := range tasks {
		s.Join(tk)
	}

	if len(seq) != n*rounds {
		t.Fatalf("expected %d turns, got %d", n*rounds, len(seq))
	}
	for i, id := range seq {
		if id != i%n {
			t.Fatalf("turn %d went to task %d, expected %d (seq %v)", i, id, i%n, seq)
		}
	}
}

// TestScheduler_JoinCorrectness tests that Join returns if and only if the
// target's entry routine has returned.
// Main test items:
// 1. Join returns only after the target's last statement ran
// 2. A watcher never observes Zombie while the target is still executing
// 3. The joined task is Zombie afterwards
func TestScheduler_JoinCorrectness(t *testing.T) {
	s := NewScheduler(cooperative())
	defer s.Stop()

	finished := false
	target, err := s.NewTask()
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	err = s.InitTask(target, func(ctx context.Context) {
		sc := GetCurrentScheduler(ctx)
		for i := 0; i < 5; i++ {
			sc.Yield()
		}
		finished = true
	})
	if err != nil {
		t.Fatalf("InitTask: %v", err)
	}

	premature := false
	watcher, err := s.NewTask()
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	err = s.InitTask(watcher, func(ctx context.Context) {
		sc := GetCurrentScheduler(ctx)
		for target.State() != StateZombie {
			sc.Yield()
		}
		if !finished {
			premature = true
		}
	})
	if err != nil {
		t.Fatalf("InitTask: %v", err)
	}

	s.Join(target)
	if !finished {
		t.Error("Join returned before the entry routine finished")
	}
	if target.State() != StateZombie {
		t.Errorf("joined task state = %v, expected zombie", target.State())
	}

	s.Join(watcher)
	if premature {
		t.Error("watcher observed Zombie before the entry routine finished")
	}
}

// TestScheduler_InitTaskStateValidation tests the observable
// invalid-state-transition errors.
// Main test items:
// 1. InitTask on an initialized task returns ErrNotAlloc
// 2. InitTask on a terminated task returns ErrNotAlloc
// 3. InitTask on nil returns ErrNotAlloc
func TestScheduler_InitTaskStateValidation(t *testing.T) {
	s := NewScheduler(cooperative())
	defer s.Stop()

	tk, err := s.NewTask()
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	if err := s.InitTask(tk, func(ctx context.Context) {}); err != nil {
		t.Fatalf("first InitTask: %v", err)
	}
	if err := s.InitTask(tk, func(ctx context.Context) {}); !errors.Is(err, ErrNotAlloc) {
		t.Errorf("second InitTask: expected ErrNotAlloc, got %v", err)
	}

	s.Join(tk)
	if err := s.InitTask(tk, func(ctx context.Context) {}); !errors.Is(err, ErrNotAlloc) {
		t.Errorf("InitTask on zombie: expected ErrNotAlloc, got %v", err)
	}

	if err := s.InitTask(nil, func(ctx context.Context) {}); !errors.Is(err, ErrNotAlloc) {
		t.Errorf("InitTask(nil): expected ErrNotAlloc, got %v", err)
	}
}

// TestScheduler_TaskBudget tests allocation failure reporting.
// Main test items:
// 1. NewTask fails with ErrTaskLimit once MaxTasks is reached
// 2. The initial task counts against the budget
// 3. NewTask fails with ErrSchedulerStopped after Stop
func TestScheduler_TaskBudget(t *testing.T) {
	s := NewScheduler(&Config{PreemptInterval: 0, MaxTasks: 2})

	// Budget 2: initial task plus one more.
	if _, err := s.NewTask(); err != nil {
		t.Fatalf("first NewTask: %v", err)
	}
	if _, err := s.NewTask(); !errors.Is(err, ErrTaskLimit) {
		t.Errorf("expected ErrTaskLimit, got %v", err)
	}

	s.Stop()
	if _, err := s.NewTask(); !errors.Is(err, ErrSchedulerStopped) {
		t.Errorf("expected ErrSchedulerStopped, got %v", err)
	}
}

// TestScheduler_ZombieNeverRelinked tests that terminated tasks are retired
// exactly once and leave the ready ring for good.
func TestScheduler_ZombieNeverRelinked(t *testing.T) {
	s := NewScheduler(cooperative())
	defer s.Stop()

	tk, err := s.NewTask()
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	if err := s.InitTask(tk, func(ctx context.Context) {}); err != nil {
		t.Fatalf("InitTask: %v", err)
	}
	s.Join(tk)

	// Rotate a few more times; the zombie must stay terminal and the
	// counters must not move.
	retired := s.Stats().Retired
	for i := 0; i < 10; i++ {
		s.Yield()
	}
	if tk.State() != StateZombie {
		t.Errorf("state = %v, expected zombie", tk.State())
	}
	if got := s.Stats().Retired; got != retired {
		t.Errorf("retired count moved from %d to %d after the task ended", retired, got)
	}
}

// TestScheduler_PreemptionTransparency tests that a pure computation run
// under forced preemption produces output identical to the same computation
// with preemption disabled.
func TestScheduler_PreemptionTransparency(t *testing.T) {
	compute := func(s *Scheduler, force bool) uint64 {
		var result uint64
		tk, err := s.NewTask()
		if err != nil {
			t.Fatalf("NewTask: %v", err)
		}
		err = s.InitTask(tk, func(ctx context.Context) {
			sc := GetCurrentScheduler(ctx)
			acc := uint64(14695981039346656037)
			for i := 0; i < 20000; i++ {
				acc = (acc ^ uint64(i)) * 1099511628211
				if force {
					sc.preempt.request()
				}
				sc.Checkpoint()
			}
			result = acc
		})
		if err != nil {
			t.Fatalf("InitTask: %v", err)
		}
		s.Join(tk)
		return result
	}

	// Preemption requested on every iteration. A long interval keeps the
	// real ticker out of the way so the test stays deterministic.
	forced := NewScheduler(&Config{PreemptInterval: time.Hour})
	defer forced.Stop()
	// Spare task so every preemption actually switches somewhere.
	spin, err := forced.NewTask()
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	spinning := true
	err = forced.InitTask(spin, func(ctx context.Context) {
		sc := GetCurrentScheduler(ctx)
		for spinning {
			sc.Yield()
		}
	})
	if err != nil {
		t.Fatalf("InitTask: %v", err)
	}

	forcedResult := compute(forced, true)
	spinning = false
	forced.Join(spin)

	if forced.Stats().Preemptions == 0 {
		t.Error("expected at least one preemption on the forced scheduler")
	}

	plain := NewScheduler(cooperative())
	defer plain.Stop()
	plainResult := compute(plain, false)

	if forcedResult != plainResult {
		t.Errorf("preempted computation produced %#x, unpreempted %#x", forcedResult, plainResult)
	}
}

// TestScheduler_PreemptionMasking tests that a pending preemption request
// is not delivered while masked and is delivered after unmasking.
func TestScheduler_PreemptionMasking(t *testing.T) {
	s := NewScheduler(&Config{PreemptInterval: time.Hour})
	defer s.Stop()

	s.maskPreempt()
	s.preempt.request()
	before := s.Stats().Preemptions
	s.Checkpoint()
	if got := s.Stats().Preemptions; got != before {
		t.Fatalf("preemption delivered inside a masked section (count %d -> %d)", before, got)
	}

	s.unmaskPreempt()
	s.Checkpoint()
	if got := s.Stats().Preemptions; got != before+1 {
		t.Fatalf("pending preemption not delivered after unmask (count %d, expected %d)", got, before+1)
	}
}

// TestScheduler_PreemptionTimerFires tests that the real ticker produces
// involuntary reschedules at checkpoints.
func TestScheduler_PreemptionTimerFires(t *testing.T) {
	s := NewScheduler(&Config{PreemptInterval: 2 * time.Millisecond})
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for s.Stats().Preemptions == 0 && time.Now().Before(deadline) {
		s.Checkpoint()
	}
	if s.Stats().Preemptions == 0 {
		t.Error("preemption timer never forced a reschedule")
	}
}

// TestScheduler_Stats tests the counter snapshot after a known scenario.
func TestScheduler_Stats(t *testing.T) {
	s := NewScheduler(&Config{PreemptInterval: 0, StackSize: 32 * 1024})
	defer s.Stop()

	tk, err := s.NewTask()
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	if err := s.InitTask(tk, func(ctx context.Context) {}); err != nil {
		t.Fatalf("InitTask: %v", err)
	}
	s.Join(tk)

	stats := s.Stats()
	if stats.Spawned != 2 {
		t.Errorf("Spawned = %d, expected 2 (initial + one task)", stats.Spawned)
	}
	if stats.Retired != 1 {
		t.Errorf("Retired = %d, expected 1", stats.Retired)
	}
	if stats.Zombie != 1 {
		t.Errorf("Zombie = %d, expected 1", stats.Zombie)
	}
	if stats.Running != 1 {
		t.Errorf("Running = %d, expected 1 (the initial task)", stats.Running)
	}
	if stats.Switches == 0 {
		t.Error("expected a non-zero switch count")
	}
	// Only the initial task is live.
	if want := int64(32 * 1024); stats.StackReserved != want {
		t.Errorf("StackReserved = %d, expected %d", stats.StackReserved, want)
	}
}

// TestScheduler_PanicInEntryRoutine tests that a panicking task is reported
// and retired without taking the scheduler down.
func TestScheduler_PanicInEntryRoutine(t *testing.T) {
	var gotID uint64
	var gotInfo any
	handler := &recordingPanicHandler{
		fn: func(taskID uint64, info any) {
			gotID = taskID
			gotInfo = info
		},
	}
	s := NewScheduler(&Config{PreemptInterval: 0, PanicHandler: handler})
	defer s.Stop()

	tk, err := s.NewTask()
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	if err := s.InitTask(tk, func(ctx context.Context) {
		panic("boom")
	}); err != nil {
		t.Fatalf("InitTask: %v", err)
	}
	s.Join(tk)

	if tk.State() != StateZombie {
		t.Errorf("panicked task state = %v, expected zombie", tk.State())
	}
	if gotID != tk.ID() {
		t.Errorf("panic reported for task %d, expected %d", gotID, tk.ID())
	}
	if gotInfo != "boom" {
		t.Errorf("panic info = %v, expected boom", gotInfo)
	}

	// The scheduler keeps going.
	after, err := s.NewTask()
	if err != nil {
		t.Fatalf("NewTask after panic: %v", err)
	}
	ran := false
	if err := s.InitTask(after, func(ctx context.Context) { ran = true }); err != nil {
		t.Fatalf("InitTask after panic: %v", err)
	}
	s.Join(after)
	if !ran {
		t.Error("task initialized after a panic never ran")
	}
}

type recordingPanicHandler struct {
	fn func(taskID uint64, info any)
}

func (h *recordingPanicHandler) HandlePanic(ctx context.Context, taskID uint64, panicInfo any, stackTrace []byte) {
	h.fn(taskID, panicInfo)
}
