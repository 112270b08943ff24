package shader

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader entry point belongs to.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// String returns the WGSL attribute name of the stage.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	key      string
	artifact Artifact
	layouts  map[int]wgpu.BindGroupLayoutDescriptor
	varNames map[int]map[int]string
	module   *wgpu.ShaderModuleDescriptor
}

// Shader is a compiled WGSL stage together with the resource layout declared in its source.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for labels and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage this shader was compiled for.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// EntryPoint returns the entry point function name for the shader stage.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// SPIRV returns the compiled SPIR-V words.
	//
	// Returns:
	//   - []uint32: the SPIR-V binary
	SPIRV() []uint32

	// BindGroupLayoutDescriptors retrieves the bind group layouts declared by the source,
	// keyed by group index, with entries sorted by binding.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name for a given group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// Module returns the shader module descriptor handed to the device.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the module descriptor labelled with the shader key
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader compiles source for the given stage and parses its resource declarations.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage whose entry point must be present in source
//   - source: the WGSL source code
//   - options: functional options, see WithCompiler
//
// Returns:
//   - Shader: the compiled shader
//   - error: ErrShaderStage or ErrShaderCompile wrapped with the shader key
func NewShader(key string, shaderType ShaderType, source string, options ...ShaderBuilderOption) (Shader, error) {
	cfg := shaderConfig{compile: DefaultCompiler}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.compile == nil {
		cfg.compile = DefaultCompiler
	}

	artifact, err := compileWith(cfg.compile, source, shaderType)
	if err != nil {
		return nil, wrapKey(key, err)
	}

	visibility := wgpu.ShaderStageNone
	switch shaderType {
	case ShaderTypeVertex:
		visibility = wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		visibility = wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		visibility = wgpu.ShaderStageCompute
	}
	layouts, varNames := parseBindGroupLayouts(source, visibility)

	return &shader{
		key:      key,
		artifact: artifact,
		layouts:  layouts,
		varNames: varNames,
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		},
	}, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.artifact.Source
}

func (s *shader) ShaderType() ShaderType {
	return s.artifact.Stage
}

func (s *shader) EntryPoint() string {
	return s.artifact.EntryPoint
}

func (s *shader) SPIRV() []uint32 {
	return s.artifact.SPIRV
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.layouts
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.varNames[group] == nil {
		return ""
	}
	return s.varNames[group][binding]
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
