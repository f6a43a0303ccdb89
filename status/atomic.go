package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat provides atomic float64 operations using bit conversion
// Zero value is ready to use (represents 0.0)
type AtomicFloat struct {
	bits atomic.Uint64
}

func (f *AtomicFloat) Set(val float64) {
	f.bits.Store(math.Float64bits(val))
}

func (f *AtomicFloat) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// AtomicString holds a short label such as the current workflow state
// Zero value is ready to use (represents empty string)
type AtomicString struct {
	ptr atomic.Pointer[string]
}

func (s *AtomicString) Store(val string) {
	s.ptr.Store(&val)
}

func (s *AtomicString) Load() string {
	if p := s.ptr.Load(); p != nil {
		return *p
	}
	return ""
}
