package renderer

import (
	"github.com/Carmen-Shannon/oxy-harness/engine/renderer/shader"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithBackend replaces the backend selected by the backend type, for example with a
// HeadlessBackend carrying a failure hook.
//
// Parameters:
//   - backend: the backend to drive
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(backend RendererBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = backend
	}
}

// WithShaderCompiler compiles the scene's shaders with fn instead of shader.DefaultCompiler.
//
// Parameters:
//   - fn: the WGSL to SPIR-V compiler
//
// Returns:
//   - RendererBuilderOption: a function that applies the compiler option to a renderer
func WithShaderCompiler(fn shader.CompileFunc) RendererBuilderOption {
	return func(r *renderer) {
		r.shaderOptions = append(r.shaderOptions, shader.WithCompiler(fn))
	}
}
