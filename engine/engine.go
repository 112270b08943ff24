package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-harness/engine/logging"
	"github.com/Carmen-Shannon/oxy-harness/engine/loop"
	"github.com/Carmen-Shannon/oxy-harness/engine/profiler"
	"github.com/Carmen-Shannon/oxy-harness/engine/renderer"
	"github.com/Carmen-Shannon/oxy-harness/engine/shutdown"
	"github.com/Carmen-Shannon/oxy-harness/engine/texture"
	"github.com/Carmen-Shannon/oxy-harness/engine/window"
)

const (
	// DefaultFrameBudget is the target interval between render frames.
	DefaultFrameBudget = 16 * time.Millisecond

	// DefaultMainTick bounds each window event polling iteration.
	DefaultMainTick = 16 * time.Millisecond

	// DefaultLoadTimeout bounds texture loading during setup.
	DefaultLoadTimeout = 30 * time.Second
)

var (
	// ErrAlreadyRunning is returned by Run when the engine has already been started.
	ErrAlreadyRunning = errors.New("engine already running")

	// ErrRenderPanic wraps a panic recovered on the render goroutine.
	ErrRenderPanic = errors.New("render loop panicked")
)

// engine implements the Engine interface.
// Coordinates the main (window) goroutine and the render goroutine.
type engine struct {
	running atomic.Bool
	frames  atomic.Uint64

	window      window.Window
	windowType  window.WindowType
	ownsWindow  bool
	title       string
	width       int
	height      int
	coordinator shutdown.Coordinator

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	mode          renderer.SceneMode
	backendType   renderer.RendererBackendType
	textureSource string
	fitTexture    bool
	loadTimeout   time.Duration

	frameBudget time.Duration
	mainTick    time.Duration

	rendererOptions []renderer.RendererBuilderOption
	textureOptions  []texture.LoaderBuilderOption
	clockOptions    []loop.LoopControllerBuilderOption

	// configErr is reported by Run; options cannot return errors.
	configErr error

	// resizeErr is only touched on the render goroutine.
	resizeErr error
}

// Engine is the main entry point for the harness.
// It owns the window on the main goroutine and a renderer on a dedicated render goroutine,
// and ties both loops to a shutdown coordinator.
type Engine interface {
	// Run performs setup (window, texture, renderer), spawns the render goroutine and pumps
	// window events until the window closes or shutdown is requested. It must be called from
	// the main OS thread and blocks until both loops have exited.
	//
	// Returns:
	//   - error: a setup error, or the frame error that stopped the render loop
	Run() error

	// Quit requests a cooperative shutdown of both loops.
	// Safe to call multiple times and from any goroutine.
	Quit()

	// Window returns the window, or nil before Run when the engine creates its own.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Coordinator returns the shutdown coordinator shared by both loops.
	//
	// Returns:
	//   - shutdown.Coordinator: the coordinator
	Coordinator() shutdown.Coordinator

	// Frames returns the number of frames presented so far.
	//
	// Returns:
	//   - uint64: the presented frame count
	Frames() uint64

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (window, scene, backend, budgets)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		windowType:  window.WindowTypeGLFW,
		title:       "Dawn window",
		width:       1280,
		height:      720,
		coordinator: shutdown.NewCoordinator(),
		mode:        renderer.SceneModeTriangle,
		backendType: renderer.BackendTypeWGPU,
		loadTimeout: DefaultLoadTimeout,
		frameBudget: DefaultFrameBudget,
		mainTick:    DefaultMainTick,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}
	return e
}

func (e *engine) Run() error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if e.configErr != nil {
		return e.configErr
	}
	log := logging.Logger()

	if e.window == nil {
		w, err := window.NewWindow(e.windowType,
			window.WithTitle(e.title),
			window.WithWidth(e.width),
			window.WithHeight(e.height),
			window.WithErrorCallback(logWindowError),
		)
		if err != nil {
			return fmt.Errorf("create window: %w", err)
		}
		e.window = w
		e.ownsWindow = true
	} else {
		e.window.SetErrorCallback(logWindowError)
	}
	if e.ownsWindow {
		defer func() {
			if err := e.window.Close(); err != nil {
				log.Warn("window close failed", "error", err)
			}
		}()
	}

	scene, err := e.buildScene()
	if err != nil {
		if e.coordinator.ShutdownRequested() {
			log.Info("setup interrupted by shutdown", "error", err)
			return nil
		}
		return err
	}
	r, err := renderer.NewRenderer(e.backendType, e.window, scene, e.rendererOptions...)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	log.Info("renderer ready",
		"backend", e.backendType.String(),
		"mode", e.mode.String(),
		"width", e.window.Width(),
		"height", e.window.Height(),
	)

	mainCtl := loop.NewLoopController(e.clockOptions...)
	renderCtl := loop.NewLoopController(e.clockOptions...)
	e.coordinator.Install(e.coordinator.Main(), mainCtl)
	defer e.coordinator.Main().Clear()

	e.window.SetResizeCallback(func(width, height int) {
		renderCtl.Post(func() { e.resize(r, width, height) })
	})
	defer e.window.SetResizeCallback(nil)

	// Setup is complete before the render goroutine exists.
	renderDone := make(chan error, 1)
	go e.renderLoop(r, renderCtl, renderDone)

	for !mainCtl.Stopped() {
		e.window.PollEvents()
		if e.window.ShouldClose() || e.coordinator.WindowCloseRequested() {
			break
		}
		mainCtl.Tick(e.mainTick)
	}

	// A closed window ends the render loop too; a stopped render loop has already asked for this.
	e.coordinator.RequestShutdown()
	renderErr := <-renderDone

	if e.coordinator.WindowCloseRequested() {
		e.window.SetShouldClose(true)
	}
	log.Info("engine stopped", "frames", e.frames.Load())
	return renderErr
}

// renderLoop runs frames on a goroutine locked to its own OS thread until its controller stops.
// On exit it clears its handle, releases the renderer and asks the main goroutine to close the window.
func (e *engine) renderLoop(r renderer.Renderer, ctl loop.LoopController, done chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var err error
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrRenderPanic, rec)
			logging.Logger().Error("render loop panicked", "panic", rec)
			e.coordinator.RequestShutdown()
		}
		e.coordinator.Render().Clear()
		r.Release()
		e.coordinator.RequestWindowClose()
		done <- err
	}()

	e.coordinator.Install(e.coordinator.Render(), ctl)

	for !ctl.Stopped() {
		err = r.RunFrame()
		if err == nil {
			err = e.resizeErr
		}
		if err != nil {
			logging.Logger().Error("frame failed", "error", err)
			e.coordinator.RequestShutdown()
			return
		}
		e.frames.Add(1)

		if e.profilingEnabled.Load() {
			e.profiler.Tick()
		}
		ctl.Tick(e.frameBudget)
	}
}

// resize runs on the render goroutine as a posted work item.
func (e *engine) resize(r renderer.Renderer, width, height int) {
	if err := r.Resize(width, height); err != nil {
		e.resizeErr = fmt.Errorf("resize to %dx%d: %w", width, height, err)
		return
	}
	logging.Logger().Debug("surface resized", "width", width, "height", height)
}

// buildScene loads the scene's texture. It runs during setup, before any loop starts.
func (e *engine) buildScene() (renderer.SceneDescriptor, error) {
	switch e.mode {
	case renderer.SceneModeTriangle:
		return renderer.TriangleScene(texture.Procedural(texture.ProceduralSize, texture.ProceduralSize)), nil
	case renderer.SceneModeTexturedQuad:
		tex := texture.Procedural(texture.ProceduralSize, texture.ProceduralSize)
		if e.textureSource != "" {
			ctx, cancel := context.WithTimeout(context.Background(), e.loadTimeout)
			defer cancel()
			go func() {
				select {
				case <-e.coordinator.Done():
					cancel()
				case <-ctx.Done():
				}
			}()

			var err error
			tex, err = texture.Load(ctx, e.textureSource, e.textureOptions...)
			if err != nil {
				return renderer.SceneDescriptor{}, fmt.Errorf("load texture: %w", err)
			}
			logging.Logger().Debug("texture loaded", "source", e.textureSource, "width", tex.Width, "height", tex.Height)
		}

		geometry := renderer.FullscreenGeometry
		if e.fitTexture {
			geometry = renderer.FitGeometry(
				float32(tex.Width), float32(tex.Height),
				float32(e.window.Width()), float32(e.window.Height()),
			)
		}
		return renderer.TexturedQuadScene(tex, geometry), nil
	default:
		return renderer.SceneDescriptor{}, fmt.Errorf("unknown scene mode %s", e.mode)
	}
}

func (e *engine) Quit() {
	e.coordinator.RequestShutdown()
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Coordinator() shutdown.Coordinator {
	return e.coordinator
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// logWindowError reports platform errors at info level; they are not fatal on their own.
func logWindowError(code int, description string) {
	logging.Logger().Info(fmt.Sprintf("GLFW error: %d - %s", code, description))
}
