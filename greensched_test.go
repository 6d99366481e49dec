package greensched

import (
	"context"
	"testing"
)

// TestGlobalScheduler exercises the package-level facade end to end. The
// global scheduler adopts this test's goroutine as its initial task, so all
// facade coverage lives in this single test.
func TestGlobalScheduler(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreemptInterval = 0 // deterministic
	s := Init(cfg)
	if Init(cfg) != s {
		t.Fatal("second Init did not return the existing scheduler")
	}
	if Global() != s {
		t.Fatal("Global returned a different scheduler")
	}

	ran := false
	tk, err := NewTask()
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	if err := InitTask(tk, func(ctx context.Context) {
		if GetCurrentScheduler(ctx) != s {
			t.Error("context does not carry the global scheduler")
		}
		if GetCurrentTask(ctx) != tk {
			t.Error("context does not carry the task")
		}
		Yield()
		ran = true
	}); err != nil {
		t.Fatalf("InitTask: %v", err)
	}
	Join(tk)
	if !ran {
		t.Error("task body never ran")
	}
	if tk.State() != StateZombie {
		t.Errorf("state = %v, expected zombie", tk.State())
	}

	m := NewMutex()
	if !m.TryLock() {
		t.Error("TryLock on a fresh mutex failed")
	}
	m.Unlock()

	if stats := Stats(); stats.Retired != 1 {
		t.Errorf("Retired = %d, expected 1", stats.Retired)
	}
}
