package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// WindowType selects the platform implementation behind a Window.
type WindowType int

const (
	// WindowTypeGLFW opens a native window through GLFW.
	WindowTypeGLFW WindowType = iota

	// WindowTypeHeadless creates an in-memory window with no platform resources.
	WindowTypeHeadless
)

// String returns the lowercase name of the window type.
func (t WindowType) String() string {
	switch t {
	case WindowTypeGLFW:
		return "glfw"
	case WindowTypeHeadless:
		return "headless"
	default:
		return fmt.Sprintf("WindowType(%d)", int(t))
	}
}

// Window is the platform window the harness renders into.
//
// Every method must be called from the main OS thread, the one that created the window.
// Callbacks are invoked synchronously from PollEvents on that same thread.
type Window interface {
	// PollEvents processes pending window events without blocking.
	PollEvents()

	// ShouldClose reports whether the window has been asked to close, by the user or by SetShouldClose.
	//
	// Returns:
	//   - bool: true once a close was requested
	ShouldClose() bool

	// SetShouldClose sets or clears the close flag.
	//
	// Parameters:
	//   - value: the new close flag
	SetShouldClose(value bool)

	// SetErrorCallback sets the function receiving errors reported by the platform layer.
	//
	// Parameters:
	//   - callback: function receiving the platform error code and description (or nil to disable)
	SetErrorCallback(callback func(code int, description string))

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface,
	// or nil when the window has no native surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int

	// Title returns the window title.
	Title() string

	// Close destroys the window and releases platform resources. Safe to call more than once.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error
}

// engineWindow holds the configuration shared by every window implementation.
type engineWindow struct {
	title  string
	width  int
	height int

	onError  func(code int, description string)
	onResize func(width, height int)
}

// NewWindow creates a Window of the given type. Applies default values first, then each option in order.
//
// Parameters:
//   - windowType: the platform implementation to use
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the opened window
//   - error: an error if the platform window could not be created
func NewWindow(windowType WindowType, options ...WindowBuilderOption) (Window, error) {
	w := engineWindow{
		title:  "Dawn window",
		width:  1280,
		height: 720,
	}
	for _, opt := range options {
		opt(&w)
	}
	if w.width <= 0 || w.height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", w.width, w.height)
	}

	switch windowType {
	case WindowTypeHeadless:
		return newHeadlessWindow(w), nil
	case WindowTypeGLFW:
		return newGLFWWindow(w)
	default:
		return nil, fmt.Errorf("unknown window type %s", windowType)
	}
}

func (w *engineWindow) SetErrorCallback(callback func(code int, description string)) {
	w.onError = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) Title() string {
	return w.title
}

// resized records the new framebuffer size and notifies the resize callback.
func (w *engineWindow) resized(width, height int) {
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *engineWindow) reportError(code int, description string) {
	if w.onError != nil {
		w.onError(code, description)
	}
}
