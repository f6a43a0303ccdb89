package status

import (
	"slices"
	"sync"
)

// MetricMap lazily allocates one *T per key
// Pointers are stable for the life of the map so producers cache them and write atomics directly
type MetricMap[T any] struct {
	items sync.Map // string -> *T
}

func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{}
}

// Get returns the metric for key, allocating it on first use
func (m *MetricMap[T]) Get(key string) *T {
	if v, ok := m.items.Load(key); ok {
		return v.(*T)
	}
	v, _ := m.items.LoadOrStore(key, new(T))
	return v.(*T)
}

// Range visits metrics in key order
func (m *MetricMap[T]) Range(fn func(key string, ptr *T)) {
	var keys []string
	ptrs := make(map[string]*T)
	m.items.Range(func(k, v any) bool {
		key := k.(string)
		keys = append(keys, key)
		ptrs[key] = v.(*T)
		return true
	})
	slices.Sort(keys)
	for _, k := range keys {
		fn(k, ptrs[k])
	}
}

// Count returns the number of keys seen
func (m *MetricMap[T]) Count() int {
	n := 0
	m.items.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
