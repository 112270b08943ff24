// Package shutdown propagates stop requests from OS signals and window close events into the
// loops of the window and render goroutines.
package shutdown

import (
	"sync/atomic"
)

// coordinator implements the Coordinator interface.
type coordinator struct {
	main   Handle
	render Handle

	shutdownRequested atomic.Bool
	closeRequested    atomic.Bool

	done chan struct{} // closed by the RequestShutdown call that sets shutdownRequested
}

// Coordinator owns the loop handles of the main (window) goroutine and the render goroutine.
//
// Every method is lock-free and allocation-free so RequestShutdown can be driven from the
// signal path. Shutdown is eventually consistent: both loops stop, each at its own next tick
// boundary, but not necessarily on the same tick.
type Coordinator interface {
	// Main returns the handle of the main goroutine's loop.
	//
	// Returns:
	//   - *Handle: the main loop handle
	Main() *Handle

	// Render returns the handle of the render goroutine's loop.
	//
	// Returns:
	//   - *Handle: the render loop handle
	Render() *Handle

	// Install sets s on h and stops it immediately if shutdown was already requested,
	// so a loop that starts after a stop request still observes it.
	//
	// Parameters:
	//   - h: the handle to install into (Main or Render)
	//   - s: the loop's stopper
	Install(h *Handle, s Stopper)

	// RequestShutdown stops every installed loop. Empty handles are skipped.
	// Safe to call any number of times from any goroutine.
	RequestShutdown()

	// ShutdownRequested reports whether RequestShutdown has been called.
	//
	// Returns:
	//   - bool: true once shutdown was requested
	ShutdownRequested() bool

	// Done returns a channel closed on the first RequestShutdown, for blocking work such as
	// setup I/O that does not run inside a loop.
	//
	// Returns:
	//   - <-chan struct{}: the shutdown channel
	Done() <-chan struct{}

	// RequestWindowClose records that the window should close and wakes the main loop.
	// The main goroutine observes the flag and calls the windowing close API itself;
	// the render goroutine never touches the window directly.
	RequestWindowClose()

	// WindowCloseRequested reports whether RequestWindowClose has been called.
	//
	// Returns:
	//   - bool: true once window close was requested
	WindowCloseRequested() bool
}

var _ Coordinator = &coordinator{}

// NewCoordinator creates a Coordinator with both handles empty.
//
// Returns:
//   - Coordinator: the new coordinator
func NewCoordinator() Coordinator {
	return &coordinator{done: make(chan struct{})}
}

func (c *coordinator) Main() *Handle {
	return &c.main
}

func (c *coordinator) Render() *Handle {
	return &c.render
}

func (c *coordinator) Install(h *Handle, s Stopper) {
	h.Set(s)
	// RequestShutdown publishes its flag before reading the handles, so either it sees s
	// or this load sees the flag.
	if c.shutdownRequested.Load() {
		s.Stop()
	}
}

func (c *coordinator) RequestShutdown() {
	if c.shutdownRequested.CompareAndSwap(false, true) {
		close(c.done)
	}
	c.main.Stop()
	c.render.Stop()
}

func (c *coordinator) ShutdownRequested() bool {
	return c.shutdownRequested.Load()
}

func (c *coordinator) Done() <-chan struct{} {
	return c.done
}

func (c *coordinator) RequestWindowClose() {
	c.closeRequested.Store(true)
	c.main.Stop()
}

func (c *coordinator) WindowCloseRequested() bool {
	return c.closeRequested.Load()
}
