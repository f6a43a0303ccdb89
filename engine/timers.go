package engine

import (
	"container/heap"
	"time"
)

// Task is a deferred callback owned by Timers
type Task struct {
	deadline  time.Time
	seq       uint64
	fn        func()
	cancelled bool
	fired     bool
}

// Cancel prevents the task from firing, returns false if it already fired or was cancelled
func (t *Task) Cancel() bool {
	if t == nil || t.cancelled || t.fired {
		return false
	}
	t.cancelled = true
	return true
}

// Pending reports whether the task will still fire
func (t *Task) Pending() bool {
	return t != nil && !t.cancelled && !t.fired
}

// Deadline returns the scheduled fire time
func (t *Task) Deadline() time.Time {
	return t.deadline
}

// Timers schedules cancellable deferred tasks against loop time
// Tasks fire only inside Advance, on the loop goroutine; not safe for concurrent use
type Timers struct {
	now    time.Time
	seq    uint64
	queue  taskHeap
	closed bool
}

// NewTimers creates a scheduler whose relative deadlines start at now
func NewTimers(now time.Time) *Timers {
	return &Timers{now: now}
}

// Now returns the loop time of the last Advance
func (t *Timers) Now() time.Time {
	return t.now
}

// After schedules fn to run d after the current loop time
// After CancelAll the returned task is inert
func (t *Timers) After(d time.Duration, fn func()) *Task {
	t.seq++
	task := &Task{deadline: t.now.Add(d), seq: t.seq, fn: fn}
	if t.closed {
		task.cancelled = true
		return task
	}
	heap.Push(&t.queue, task)
	return task
}

// Advance moves loop time to now and fires due tasks in deadline order
// A task scheduled from inside a callback is relative to the firing task's deadline
func (t *Timers) Advance(now time.Time) int {
	fired := 0
	for t.queue.Len() > 0 {
		next := t.queue[0]
		if next.deadline.After(now) {
			break
		}
		heap.Pop(&t.queue)
		if next.cancelled {
			continue
		}
		if next.deadline.After(t.now) {
			t.now = next.deadline
		}
		next.fired = true
		next.fn()
		fired++
	}
	if now.After(t.now) {
		t.now = now
	}
	return fired
}

// Len returns the number of pending tasks
func (t *Timers) Len() int {
	n := 0
	for _, task := range t.queue {
		if !task.cancelled {
			n++
		}
	}
	return n
}

// CancelAll cancels every pending task and rejects new ones
func (t *Timers) CancelAll() {
	for _, task := range t.queue {
		task.cancelled = true
	}
	t.queue = nil
	t.closed = true
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*Task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
