package core

// readyRing is the sentinel-headed circular doubly-linked list of all
// non-terminal tasks. Insertion order is arrival order is round-robin
// traversal order. Blocked tasks stay linked and are skipped during
// selection; the sentinel is never selectable.
//
// The ring is owned exclusively by the scheduler and is only touched while
// holding the run token with preemption masked, so it needs no locking of
// its own.
type readyRing struct {
	head Task // sentinel, never a real task
	size int
}

func (r *readyRing) init() {
	r.head.next = &r.head
	r.head.prev = &r.head
	r.size = 0
}

// sentinel returns the anchor node. Useful as a scan origin when there is
// no current task (the cleanup path).
func (r *readyRing) sentinel() *Task {
	return &r.head
}

// add appends t at the tail, preserving arrival order.
func (r *readyRing) add(t *Task) {
	t.prev = r.head.prev
	t.next = &r.head
	r.head.prev.next = t
	r.head.prev = t
	r.size++
}

// remove unlinks t. Removing the sentinel is a no-op.
func (r *readyRing) remove(t *Task) {
	if t == &r.head {
		return
	}
	t.next.prev = t.prev
	t.prev.next = t.next
	t.next = nil
	t.prev = nil
	r.size--
}

// nextAfter returns the node following t, skipping over the sentinel.
// Must not be called on an empty ring.
func (r *readyRing) nextAfter(t *Task) *Task {
	n := t.next
	for n == &r.head {
		n = n.next
	}
	return n
}

// len returns the number of linked tasks, sentinel excluded.
func (r *readyRing) len() int {
	return r.size
}
