package core

// execContext is the execution context of a task: the saved state needed to
// suspend and resume it. Rather than copying machine registers, it leans on
// the platform-native facility — a parked goroutine keeps its entire stack
// and register state alive, and a capacity-1 resume channel acts as the
// swap primitive. Exactly one run token exists per scheduler; whichever
// context holds it is the one executing. The save/restore round trip is
// lossless by construction.
type execContext struct {
	resume chan struct{}
}

func newExecContext() *execContext {
	// Capacity 1 so that a context can transfer to itself: the send
	// completes immediately and the subsequent receive consumes it, which
	// is the degenerate "swap to self" case when only one task is runnable.
	return &execContext{resume: make(chan struct{}, 1)}
}

// signal hands the run token to c without suspending the caller. Used when
// the calling execution stream is about to end (task completion) or is the
// resident cleanup context passing control onward.
func (c *execContext) signal() {
	c.resume <- struct{}{}
}

// park suspends the caller until some other context hands it the run token.
func (c *execContext) park() {
	<-c.resume
}

// transferTo performs a full context swap: resume next, then suspend the
// caller until it is handed the token again.
func (c *execContext) transferTo(next *execContext) {
	next.resume <- struct{}{}
	<-c.resume
}
