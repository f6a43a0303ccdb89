package event

import (
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/spotglobe/parameter"
)

// Queue carries dashboard events from producer goroutines to the loop
//
// Two lanes:
//   - live frames go to a lock-free MPSC ring; when it is full the newest frame is
//     dropped and counted in Dropped, so a frame burst never displaces older work
//   - every other type goes to an unbounded FIFO, these are low-rate and the workflow
//     depends on each one arriving (migration results, operator intents, snapshots)
//
// Consume is single-consumer. Each lane is FIFO; workflow events are returned first
type Queue struct {
	mu       sync.Mutex
	workflow []Event

	frames    [parameter.EventQueueSize]Event
	published [parameter.EventQueueSize]atomic.Bool // slot fully written
	head      atomic.Uint64                         // read index, advanced by the consumer only
	tail      atomic.Uint64                         // write index
	dropped   atomic.Uint64
}

func NewQueue() *Queue {
	return &Queue{}
}

// Lossy reports whether events of type t may be dropped under load
func (t EventType) Lossy() bool {
	return t == EventLiveFrame
}

// Push enqueues ev, safe for concurrent producers
func (q *Queue) Push(ev Event) {
	if !ev.Type.Lossy() {
		q.mu.Lock()
		q.workflow = append(q.workflow, ev)
		q.mu.Unlock()
		return
	}

	for {
		tail := q.tail.Load()
		if tail-q.head.Load() >= parameter.EventQueueSize {
			q.dropped.Add(1)
			return
		}
		if q.tail.CompareAndSwap(tail, tail+1) {
			idx := tail & parameter.EventBufferMask
			q.frames[idx] = ev
			q.published[idx].Store(true) // after the write
			return
		}
	}
}

// Consume drains both lanes
func (q *Queue) Consume() []Event {
	q.mu.Lock()
	out := q.workflow
	q.workflow = nil
	q.mu.Unlock()

	head := q.head.Load()
	tail := q.tail.Load()
	for ; head != tail; head++ {
		idx := head & parameter.EventBufferMask
		if !q.published[idx].Load() {
			break // writer still filling this slot, pick it up next step
		}
		out = append(out, q.frames[idx])
		q.frames[idx] = Event{}
		q.published[idx].Store(false)
	}
	q.head.Store(head)

	if len(out) == 0 {
		return nil
	}
	return out
}

// Len returns the approximate number of pending events
func (q *Queue) Len() int {
	q.mu.Lock()
	n := len(q.workflow)
	q.mu.Unlock()
	return n + int(q.tail.Load()-q.head.Load())
}

// Dropped returns the number of live frames rejected because the ring was full
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
