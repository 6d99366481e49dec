package core

import (
	"sync"
	"sync/atomic"
	"time"
)

// preemptTimer is the periodic interrupt source behind involuntary
// rescheduling. A ticker goroutine raises a pending flag; the flag is
// consumed and acted upon at the running task's next safepoint
// (Scheduler.Checkpoint, or the delivery window inside the mutex wait
// loop). Requests raised while preemption is masked stay pending and are
// delivered after the mask drops, mirroring how a blocked signal is
// delivered on unblock.
type preemptTimer struct {
	interval time.Duration
	pending  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
}

func newPreemptTimer(interval time.Duration) *preemptTimer {
	p := &preemptTimer{
		interval: interval,
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *preemptTimer) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.pending.Store(true)
		case <-p.done:
			return
		}
	}
}

// request raises the pending flag outside the ticker, as if the timer had
// just fired. Exercised by tests for deterministic preemption.
func (p *preemptTimer) request() {
	p.pending.Store(true)
}

// consume atomically claims a pending request. Returns true at most once
// per request.
func (p *preemptTimer) consume() bool {
	return p.pending.CompareAndSwap(true, false)
}

// stop shuts down the ticker goroutine. Pending state is left as is.
func (p *preemptTimer) stop() {
	p.stopOnce.Do(func() { close(p.done) })
}
