package renderer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-harness/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-harness/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-harness/engine/window"
)

// ErrReleased is returned by RunFrame after Release.
var ErrReleased = errors.New("renderer released")

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	pipeline    pipeline.Pipeline
	mode        SceneMode

	state    FrameState
	frames   atomic.Uint64
	released bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	shaderOptions        []shader.ShaderBuilderOption
}

// Renderer draws one scene per frame through a RendererBackend.
//
// A Renderer is owned by a single goroutine: RunFrame, Resize and Release must all be called
// from the goroutine that runs the frame loop. Frames is safe to call from anywhere.
type Renderer interface {
	// RunFrame advances the frame state, then clears, draws, submits and presents exactly once.
	//
	// Returns:
	//   - error: the first backend error of the frame, wrapped with the frame number
	RunFrame() error

	// FrameState returns a copy of the frame counters.
	//
	// Returns:
	//   - FrameState: the counters after the last RunFrame
	FrameState() FrameState

	// Frames returns the number of frames presented so far.
	//
	// Returns:
	//   - uint64: the presented frame count
	Frames() uint64

	// Resize reconfigures the surface. A zero width or height is ignored, as happens while
	// the window is minimized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be reconfigured
	Resize(width, height int) error

	// Mode returns the scene mode being drawn.
	Mode() SceneMode

	// BackendType returns the backend the renderer was built with.
	BackendType() RendererBackendType

	// Pipeline returns the render pipeline built for the scene.
	Pipeline() pipeline.Pipeline

	// Release destroys the backend's GPU objects. Safe to call more than once.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer compiles the scene's shaders, builds its pipeline and sets up the selected backend
// against the window's surface. Everything that can fail at startup fails here.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - win: the window providing the surface descriptor and initial size
//   - scene: the scene to draw every frame
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the ready-to-run renderer
//   - error: a shader, adapter, device or resource creation error
func NewRenderer(backendType RendererBackendType, win window.Window, scene SceneDescriptor, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		mode:        scene.Mode,
		presentMode: PresentModeVSync,
	}
	for _, opt := range options {
		opt(r)
	}

	vs, err := shader.NewShader(scene.Mode.String()+"_vs", shader.ShaderTypeVertex, scene.Source, r.shaderOptions...)
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShader(scene.Mode.String()+"_fs", shader.ShaderTypeFragment, scene.Source, r.shaderOptions...)
	if err != nil {
		return nil, err
	}
	r.pipeline = pipeline.NewPipeline(scene.Mode.String(),
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithTopology(scene.Topology),
		pipeline.WithBlendEnabled(scene.Blend),
		pipeline.WithDepthTestEnabled(scene.DepthTest),
		pipeline.WithDepthWriteEnabled(scene.DepthTest),
	)

	if r.backend == nil {
		switch backendType {
		case BackendTypeHeadless:
			r.backend = NewHeadlessBackend()
		case BackendTypeWGPU:
			b, err := newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, r.presentMode)
			if err != nil {
				return nil, err
			}
			r.backend = b
		default:
			return nil, fmt.Errorf("unknown renderer backend %s", backendType)
		}
	}

	if err := r.backend.ConfigureSurface(win.Width(), win.Height()); err != nil {
		r.backend.Release()
		return nil, fmt.Errorf("configure surface: %w", err)
	}
	if err := r.backend.Init(r.pipeline, scene); err != nil {
		r.backend.Release()
		return nil, fmt.Errorf("init %s scene: %w", scene.Mode, err)
	}

	return r, nil
}

func (r *renderer) RunFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}

	r.state.Advance()
	frame := r.frames.Load() + 1

	if err := r.backend.BeginFrame(); err != nil {
		return fmt.Errorf("frame %d: begin: %w", frame, err)
	}
	if err := r.backend.Draw(); err != nil {
		// The pass must still be ended so the backend releases the frame's objects.
		_ = r.backend.EndFrame()
		return fmt.Errorf("frame %d: draw: %w", frame, err)
	}
	if err := r.backend.EndFrame(); err != nil {
		return fmt.Errorf("frame %d: submit: %w", frame, err)
	}
	if err := r.backend.Present(); err != nil {
		return fmt.Errorf("frame %d: present: %w", frame, err)
	}

	r.frames.Add(1)
	return nil
}

func (r *renderer) FrameState() FrameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *renderer) Frames() uint64 {
	return r.frames.Load()
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released || width <= 0 || height <= 0 {
		return nil
	}
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) Mode() SceneMode {
	return r.mode
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Pipeline() pipeline.Pipeline {
	return r.pipeline
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true
	r.backend.Release()
}
