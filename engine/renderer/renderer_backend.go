package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-harness/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeHeadless selects a backend that performs no GPU work and only counts frames.
	BackendTypeHeadless
)

// String returns the backend name accepted by ParseBackendType.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeHeadless:
		return "headless"
	default:
		return "unknown"
	}
}

// ParseBackendType maps a configuration name onto a RendererBackendType.
//
// Parameters:
//   - name: "wgpu" or "headless" (case-insensitive)
//
// Returns:
//   - RendererBackendType: the matching backend type
//   - error: an error if the name is not recognized
func ParseBackendType(name string) (RendererBackendType, error) {
	switch strings.ToLower(name) {
	case "wgpu":
		return BackendTypeWGPU, nil
	case "headless":
		return BackendTypeHeadless, nil
	default:
		return 0, fmt.Errorf("unknown renderer backend %q", name)
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

var (
	// ErrNoAdapter is returned when no GPU adapter compatible with the surface can be found.
	ErrNoAdapter = errors.New("no compatible GPU adapter")

	// ErrNoDevice is returned when the adapter refuses to create a device.
	ErrNoDevice = errors.New("failed to create GPU device")

	// ErrNoSurface is returned when the window cannot provide a surface to render into.
	ErrNoSurface = errors.New("window has no renderable surface")

	// ErrFrameInProgress is returned by BeginFrame while a previous frame is still held.
	ErrFrameInProgress = errors.New("previous frame surface not yet presented")
)

// RendererBackend is the device layer behind a Renderer. There is exactly one implementation per
// RendererBackendType. All methods are called from the goroutine that owns the renderer.
type RendererBackend interface {
	// ConfigureSurface (re)creates the swapchain and depth attachment for the given size.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	//
	// Returns:
	//   - error: an error if the surface or its attachments cannot be created
	ConfigureSurface(width, height int) error

	// Init creates the GPU objects for the pipeline and every resource the scene needs.
	// ConfigureSurface must have been called first so the surface format is known.
	//
	// Parameters:
	//   - p: the pipeline holding both shader stages
	//   - scene: the scene resources and draw parameters
	//
	// Returns:
	//   - error: an error if any GPU object creation fails
	Init(p pipeline.Pipeline, scene SceneDescriptor) error

	// BeginFrame acquires the next surface texture and begins a render pass that clears
	// color and depth.
	//
	// Returns:
	//   - error: an error if the surface texture or the command encoder cannot be acquired
	BeginFrame() error

	// Draw binds the pipeline and scene resources and issues the scene's draw call.
	//
	// Returns:
	//   - error: an error if no frame is in progress
	Draw() error

	// EndFrame ends the render pass and submits the recorded commands.
	//
	// Returns:
	//   - error: an error if the command buffer cannot be finished
	EndFrame() error

	// Present shows the acquired surface texture.
	//
	// Returns:
	//   - error: an error if there is nothing to present
	Present() error

	// Release destroys every GPU object owned by the backend. Safe to call more than once.
	Release()
}

// deviceErrorTypeNames maps wgpu error types onto the names used in log lines.
var deviceErrorTypeNames = map[wgpu.ErrorType]string{
	wgpu.ErrorTypeValidation:  "Validation",
	wgpu.ErrorTypeOutOfMemory: "Out of memory",
	wgpu.ErrorTypeUnknown:     "Unknown",
	wgpu.ErrorTypeDeviceLost:  "Device lost",
}

// describeDeviceError formats a device error as "<type> error: message".
// Errors that did not originate from the device are described as "Unknown".
//
// Parameters:
//   - err: the error returned by a device call
//
// Returns:
//   - string: the formatted description
func describeDeviceError(err error) string {
	var gpuErr *wgpu.Error
	if errors.As(err, &gpuErr) {
		name, ok := deviceErrorTypeNames[gpuErr.Type]
		if !ok {
			name = "Unknown"
		}
		return fmt.Sprintf("%s error: %s", name, gpuErr.Message)
	}
	return fmt.Sprintf("Unknown error: %v", err)
}
