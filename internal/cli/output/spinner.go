package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner displays a progress animation while a command waits on the
// server. Stopping it more than once is harmless.
type Spinner struct {
	w        io.Writer
	message  string
	interval time.Duration

	started atomic.Bool
	once    sync.Once
	done    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a new spinner writing to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:        w,
		message:  message,
		interval: 100 * time.Millisecond,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			fmt.Fprintf(s.w, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], s.message)
			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// stop ends the animation and waits for the last frame to be written.
func (s *Spinner) stop() bool {
	first := false
	s.once.Do(func() {
		close(s.done)
		first = true
	})
	if s.started.Load() {
		<-s.stopped
	}
	return first
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	if s.stop() {
		fmt.Fprint(s.w, "\r\033[K")
	}
}

// Success stops the spinner with a success message.
func (s *Spinner) Success(message string) {
	if s.stop() {
		fmt.Fprintf(s.w, "\r\033[K✓ %s\n", message)
	}
}

// Fail stops the spinner with a failure message.
func (s *Spinner) Fail(message string) {
	if s.stop() {
		fmt.Fprintf(s.w, "\r\033[K✗ %s\n", message)
	}
}
