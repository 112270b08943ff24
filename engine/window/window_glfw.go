package window

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow is the GLFW implementation of Window.
type glfwWindow struct {
	engineWindow
	window *glfw.Window
}

var _ Window = &glfwWindow{}

// newGLFWWindow initializes GLFW and opens a window with no client API, since WebGPU
// provides its own graphics API. The caller must be on the main OS thread.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newGLFWWindow(base engineWindow) (Window, error) {
	w := &glfwWindow{engineWindow: base}

	if err := glfw.Init(); err != nil {
		w.reportGLFWError(err)
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		w.reportGLFWError(err)
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}
	w.window = win

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
		}
	})

	// Framebuffer size, not window size: on high-DPI displays the two differ and the
	// surface must be configured in pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})

	w.width, w.height = win.GetFramebufferSize()
	return w, nil
}

func (w *glfwWindow) PollEvents() {
	defer w.recoverGLFWError()
	glfw.PollEvents()
}

func (w *glfwWindow) ShouldClose() bool {
	if w.window == nil {
		return true
	}
	return w.window.ShouldClose()
}

func (w *glfwWindow) SetShouldClose(value bool) {
	if w.window == nil {
		return
	}
	w.window.SetShouldClose(value)
}

// SurfaceDescriptor uses the wgpuglfw bridge, which has per-platform implementations
// (Windows, X11, Wayland, macOS).
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func (w *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.window == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.window)
}

func (w *glfwWindow) Close() error {
	if w.window == nil {
		return nil
	}
	defer w.recoverGLFWError()
	w.window.Destroy()
	w.window = nil
	glfw.Terminate()
	return nil
}

// recoverGLFWError turns a GLFW error raised as a panic by go-gl into an error callback.
// Any other panic is re-raised.
func (w *glfwWindow) recoverGLFWError() {
	r := recover()
	if r == nil {
		return
	}
	err, ok := r.(error)
	if !ok || !w.reportGLFWError(err) {
		panic(r)
	}
}

func (w *glfwWindow) reportGLFWError(err error) bool {
	var gerr *glfw.Error
	if !errors.As(err, &gerr) {
		return false
	}
	w.reportError(int(gerr.Code), gerr.Desc)
	return true
}
