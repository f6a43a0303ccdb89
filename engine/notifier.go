package engine

import "sync"

// Notifier fans out state snapshots to subscribers
// Subscribers run synchronously on the notifying goroutine
type Notifier[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
	keys []int
}

// Subscribe registers fn and returns its unsubscribe func
func (n *Notifier[T]) Subscribe(fn func(T)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(T))
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	n.keys = append(n.keys, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
			for i, k := range n.keys {
				if k == id {
					n.keys = append(n.keys[:i], n.keys[i+1:]...)
					break
				}
			}
		})
	}
}

// Notify delivers v to every subscriber in subscription order
func (n *Notifier[T]) Notify(v T) {
	n.mu.Lock()
	fns := make([]func(T), 0, len(n.keys))
	for _, k := range n.keys {
		fns = append(fns, n.subs[k])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the subscriber count
func (n *Notifier[T]) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.keys)
}
