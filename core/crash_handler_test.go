package core

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTerm struct {
	mu     sync.Mutex
	closed bool
}

func (f *fakeTerm) Fini() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeTerm) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func swapCrashHooks(t *testing.T, out *bytes.Buffer, exit func(int)) {
	t.Helper()
	crashMu.Lock()
	prevOut, prevExit := crashOut, crashExit
	crashOut, crashExit = out, exit
	crashMu.Unlock()
	t.Cleanup(func() {
		crashMu.Lock()
		crashOut, crashExit = prevOut, prevExit
		crashMu.Unlock()
		RegisterTerminal(nil)
	})
}

func TestHandleCrashRestoresTerminal(t *testing.T) {
	var out bytes.Buffer
	code := -1
	swapCrashHooks(t, &out, func(c int) { code = c })

	term := &fakeTerm{}
	RegisterTerminal(term)

	HandleCrash("boom")

	assert.True(t, term.isClosed())
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "CRASH DETECTED: boom")
	assert.Contains(t, out.String(), "Stack Trace:")
}

func TestHandleCrashNilIsNoop(t *testing.T) {
	var out bytes.Buffer
	called := false
	swapCrashHooks(t, &out, func(int) { called = true })

	HandleCrash(nil)

	assert.False(t, called)
	assert.Empty(t, out.String())
}

func TestGoRecoversPanic(t *testing.T) {
	var out bytes.Buffer
	done := make(chan int, 1)
	swapCrashHooks(t, &out, func(c int) { done <- c })

	Go(func() { panic("worker failed") })

	code := <-done
	require.Equal(t, 1, code)
}
