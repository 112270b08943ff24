package shader

type shaderConfig struct {
	compile CompileFunc
}

// ShaderBuilderOption is a functional option applied during NewShader.
type ShaderBuilderOption func(*shaderConfig)

// WithCompiler replaces the WGSL to SPIR-V compiler. A nil compiler keeps DefaultCompiler.
//
// Parameters:
//   - compile: the compiler to use
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithCompiler(compile CompileFunc) ShaderBuilderOption {
	return func(c *shaderConfig) {
		c.compile = compile
	}
}
