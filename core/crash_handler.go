package core

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
)

// Finalizer restores an output device before the crash report is written
type Finalizer interface {
	Fini()
}

var (
	crashMu       sync.Mutex
	crashTerminal Finalizer
	crashOut      io.Writer = os.Stderr
	crashExit               = os.Exit
)

// RegisterTerminal sets the screen restored on crash, nil clears it
func RegisterTerminal(f Finalizer) {
	crashMu.Lock()
	crashTerminal = f
	crashMu.Unlock()
}

// HandleCrash is the unified panic handler that resets the terminal and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}

	crashMu.Lock()
	term := crashTerminal
	out := crashOut
	exit := crashExit
	crashMu.Unlock()

	// Restore terminal to sane state before printing
	if term != nil {
		term.Fini()
	}

	fmt.Fprintf(out, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(out, "Stack Trace:\r\n%s\r\n", debug.Stack())

	if f, ok := out.(*os.File); ok {
		f.Sync()
	}

	exit(1)
}

// Go runs a function in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
