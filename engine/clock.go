package engine

import (
	"sync"
	"time"
)

// Clock is the time source for the loop and its deferred tasks
type Clock interface {
	Now() time.Time
}

// SystemClock provides the real system time with monotonic clock readings
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// MockClock provides a controllable time source for testing
type MockClock struct {
	mu          sync.RWMutex
	currentTime time.Time
}

// NewMockClock creates a new mock clock with the given start time
func NewMockClock(startTime time.Time) *MockClock {
	return &MockClock{
		currentTime: startTime,
	}
}

// Now returns the current mocked time
func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTime
}

// SetTime sets the current time for the mock
func (m *MockClock) SetTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = t
}

// Advance moves the clock forward and returns the new time
func (m *MockClock) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
	return m.currentTime
}
