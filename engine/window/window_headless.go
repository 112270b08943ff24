package window

import (
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// Simulator drives a headless window from tests and tools.
// PollEvents delivers the simulated events on the polling goroutine, like a platform would.
type Simulator interface {
	// SimulateResize queues a framebuffer resize delivered on the next PollEvents.
	SimulateResize(width, height int)

	// SimulateClose marks the window as closed by the user.
	SimulateClose()

	// SimulateError queues a platform error delivered on the next PollEvents.
	SimulateError(code int, description string)

	// Polls returns how many times PollEvents has run.
	Polls() int64
}

type headlessEvent struct {
	width, height int
	code          int
	description   string
	isError       bool
}

// headlessWindow is a Window with no platform resources.
type headlessWindow struct {
	engineWindow
	shouldClose atomic.Bool
	closed      atomic.Bool
	polls       atomic.Int64
	events      chan headlessEvent
}

var (
	_ Window    = &headlessWindow{}
	_ Simulator = &headlessWindow{}
)

func newHeadlessWindow(base engineWindow) *headlessWindow {
	return &headlessWindow{
		engineWindow: base,
		events:       make(chan headlessEvent, 64),
	}
}

func (w *headlessWindow) PollEvents() {
	w.polls.Add(1)
	for {
		select {
		case ev := <-w.events:
			if ev.isError {
				w.reportError(ev.code, ev.description)
				continue
			}
			w.resized(ev.width, ev.height)
		default:
			return
		}
	}
}

func (w *headlessWindow) ShouldClose() bool {
	return w.shouldClose.Load()
}

func (w *headlessWindow) SetShouldClose(value bool) {
	w.shouldClose.Store(value)
}

func (w *headlessWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return nil
}

func (w *headlessWindow) Close() error {
	w.closed.Store(true)
	return nil
}

func (w *headlessWindow) SimulateResize(width, height int) {
	w.events <- headlessEvent{width: width, height: height}
}

func (w *headlessWindow) SimulateClose() {
	w.shouldClose.Store(true)
}

func (w *headlessWindow) SimulateError(code int, description string) {
	w.events <- headlessEvent{code: code, description: description, isError: true}
}

func (w *headlessWindow) Polls() int64 {
	return w.polls.Load()
}
