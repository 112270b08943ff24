package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-harness/engine/config"
	"github.com/Carmen-Shannon/oxy-harness/engine/loop"
	"github.com/Carmen-Shannon/oxy-harness/engine/profiler"
	"github.com/Carmen-Shannon/oxy-harness/engine/renderer"
	"github.com/Carmen-Shannon/oxy-harness/engine/shutdown"
	"github.com/Carmen-Shannon/oxy-harness/engine/texture"
	"github.com/Carmen-Shannon/oxy-harness/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig applies every setting of a loaded configuration. Later options override it.
// A mode or backend name that cannot be parsed is reported by Run.
//
// Parameters:
//   - cfg: the configuration, typically from config.Load
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg *config.Config) EngineBuilderOption {
	return func(e *engine) {
		if cfg == nil {
			return
		}
		if err := config.Validate(cfg); err != nil {
			e.configErr = err
			return
		}

		e.title = cfg.Title
		e.width = cfg.Width
		e.height = cfg.Height
		e.textureSource = cfg.Texture
		e.fitTexture = cfg.FitTexture
		WithFrameBudget(cfg.FrameBudget.Std())(e)
		WithMainTick(cfg.MainTick.Std())(e)
		e.profilingEnabled.Store(cfg.Profile)

		mode, err := renderer.ParseSceneMode(cfg.Mode)
		if err != nil {
			e.configErr = err
			return
		}
		e.mode = mode

		backend, err := renderer.ParseBackendType(cfg.Backend)
		if err != nil {
			e.configErr = err
			return
		}
		e.backendType = backend
		if backend == renderer.BackendTypeHeadless {
			e.windowType = window.WindowTypeHeadless
		}

		presentMode := renderer.PresentModeUncapped
		if cfg.VSync {
			presentMode = renderer.PresentModeVSync
		}
		e.rendererOptions = append(e.rendererOptions,
			renderer.WithPresentMode(presentMode),
			renderer.WithForceSoftwareRenderer(cfg.ForceFallbackAdapter),
		)
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally. The engine does not close a window it did not create.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithWindowType selects the window implementation the engine creates.
func WithWindowType(t window.WindowType) EngineBuilderOption {
	return func(e *engine) {
		e.windowType = t
	}
}

// WithSceneMode selects what is drawn each frame.
func WithSceneMode(mode renderer.SceneMode) EngineBuilderOption {
	return func(e *engine) {
		e.mode = mode
	}
}

// WithBackendType selects the renderer backend.
func WithBackendType(t renderer.RendererBackendType) EngineBuilderOption {
	return func(e *engine) {
		e.backendType = t
	}
}

// WithTexture sets the image drawn by the quad scene and whether the quad keeps its aspect ratio.
//
// Parameters:
//   - source: a file path or http(s) URL; empty uses the procedural texture
//   - fit: true to size the quad to the image aspect ratio
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTexture(source string, fit bool) EngineBuilderOption {
	return func(e *engine) {
		e.textureSource = source
		e.fitTexture = fit
	}
}

// WithFrameBudget sets the target interval between render frames.
// Values <= 0 are treated as the default (16ms).
//
// Parameters:
//   - budget: the frame budget
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameBudget(budget time.Duration) EngineBuilderOption {
	return func(e *engine) {
		if budget <= 0 {
			budget = DefaultFrameBudget
		}
		e.frameBudget = budget
	}
}

// WithMainTick sets the bound on each window event polling iteration.
// Values <= 0 are treated as the default (16ms).
func WithMainTick(tick time.Duration) EngineBuilderOption {
	return func(e *engine) {
		if tick <= 0 {
			tick = DefaultMainTick
		}
		e.mainTick = tick
	}
}

// WithCoordinator shares an existing shutdown coordinator, for example one already wired to OS signals.
func WithCoordinator(c shutdown.Coordinator) EngineBuilderOption {
	return func(e *engine) {
		e.coordinator = c
	}
}

// WithRendererOptions forwards options to renderer.NewRenderer.
func WithRendererOptions(options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithTextureOptions forwards options to texture.Load.
func WithTextureOptions(options ...texture.LoaderBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.textureOptions = append(e.textureOptions, options...)
	}
}

// WithClock sets the clock used by both loop controllers.
func WithClock(c loop.Clock) EngineBuilderOption {
	return func(e *engine) {
		e.clockOptions = append(e.clockOptions, loop.WithClock(c))
	}
}
