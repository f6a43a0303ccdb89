package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestTimersFireInDeadlineOrder(t *testing.T) {
	tm := NewTimers(epoch)
	var order []string
	tm.After(300*time.Millisecond, func() { order = append(order, "c") })
	tm.After(100*time.Millisecond, func() { order = append(order, "a") })
	tm.After(200*time.Millisecond, func() { order = append(order, "b") })

	assert.Equal(t, 0, tm.Advance(epoch.Add(99*time.Millisecond)))
	assert.Equal(t, 3, tm.Advance(epoch.Add(time.Second)))
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, tm.Len())
}

func TestTimersSameDeadlineFIFO(t *testing.T) {
	tm := NewTimers(epoch)
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		tm.After(time.Second, func() { order = append(order, i) })
	}
	tm.Advance(epoch.Add(time.Second))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestTaskCancel(t *testing.T) {
	tm := NewTimers(epoch)
	fired := false
	task := tm.After(time.Second, func() { fired = true })

	require.True(t, task.Pending())
	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel(), "second cancel is a no-op")
	assert.Equal(t, 0, tm.Len())

	tm.Advance(epoch.Add(2 * time.Second))
	assert.False(t, fired)
	assert.False(t, task.Pending())
}

func TestCancelAfterFire(t *testing.T) {
	tm := NewTimers(epoch)
	task := tm.After(time.Millisecond, func() {})
	tm.Advance(epoch.Add(time.Millisecond))
	assert.False(t, task.Cancel())

	var nilTask *Task
	assert.False(t, nilTask.Cancel())
}

func TestNestedScheduleRelativeToDeadline(t *testing.T) {
	tm := NewTimers(epoch)
	var second time.Time
	tm.After(100*time.Millisecond, func() {
		tm.After(100*time.Millisecond, func() { second = tm.Now() })
	})

	// Both fall inside one large advance
	tm.Advance(epoch.Add(250 * time.Millisecond))
	assert.Equal(t, epoch.Add(200*time.Millisecond), second)
	assert.Equal(t, epoch.Add(250*time.Millisecond), tm.Now())
}

func TestCancelAllRejectsNewTasks(t *testing.T) {
	tm := NewTimers(epoch)
	fired := 0
	tm.After(time.Millisecond, func() { fired++ })
	tm.After(time.Second, func() { fired++ })

	tm.CancelAll()
	late := tm.After(time.Millisecond, func() { fired++ })

	tm.Advance(epoch.Add(time.Hour))
	assert.Equal(t, 0, fired)
	assert.False(t, late.Pending())
}
