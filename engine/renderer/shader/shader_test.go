package shader

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spirvMagic = 0x07230203

const texturedSource = `
// @vertex fn commented_out() {}
@group(0) @binding(0) var tex_sampler: sampler;
@group(0) @binding(1) var tex: texture_2d<f32>;
@group(0) @binding(2) var<uniform> geometry: vec4<f32>;

@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(geometry.x, geometry.y, 0.0, 1.0);
}

@fragment
fn fs_main(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
    return textureSample(tex, tex_sampler, pos.xy);
}
`

// stubCompiler replaces the default compiler for the duration of a test.
func stubCompiler(t *testing.T, fn CompileFunc) {
	t.Helper()
	prev := DefaultCompiler
	DefaultCompiler = fn
	t.Cleanup(func() { DefaultCompiler = prev })
}

func validSPIRV(string) ([]byte, error) {
	return []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}, nil
}

func TestCompileFindsEntryPoints(t *testing.T) {
	stubCompiler(t, validSPIRV)

	tests := []struct {
		stage ShaderType
		entry string
	}{
		{ShaderTypeVertex, "vs_main"},
		{ShaderTypeFragment, "fs_main"},
	}
	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			artifact, err := Compile(texturedSource, tt.stage)
			require.NoError(t, err)

			assert.Equal(t, tt.entry, artifact.EntryPoint)
			assert.Equal(t, tt.stage, artifact.Stage)
			assert.Equal(t, []uint32{spirvMagic, 0x00010000}, artifact.SPIRV)
		})
	}
}

func TestCompileMissingStage(t *testing.T) {
	stubCompiler(t, validSPIRV)

	_, err := Compile(texturedSource, ShaderTypeCompute)
	assert.ErrorIs(t, err, ErrShaderStage)
}

func TestCompileIgnoresCommentedEntryPoints(t *testing.T) {
	stubCompiler(t, validSPIRV)

	source := "// @fragment fn fs_main() {}\n/* @fragment\nfn other() {} */\n"
	_, err := Compile(source, ShaderTypeFragment)
	assert.ErrorIs(t, err, ErrShaderStage)
}

func TestCompileWrapsCompilerError(t *testing.T) {
	cause := errors.New("unexpected token")
	stubCompiler(t, func(string) ([]byte, error) { return nil, cause })

	_, err := Compile(texturedSource, ShaderTypeVertex)
	assert.ErrorIs(t, err, ErrShaderCompile)
	assert.ErrorIs(t, err, cause)
}

func TestCompileRejectsMalformedOutput(t *testing.T) {
	stubCompiler(t, func(string) ([]byte, error) { return []byte{1, 2, 3}, nil })

	_, err := Compile(texturedSource, ShaderTypeVertex)
	assert.ErrorIs(t, err, ErrShaderCompile)
}

func TestCompileWithNaga(t *testing.T) {
	source := `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`
	artifact, err := Compile(source, ShaderTypeVertex)
	require.NoError(t, err)
	require.NotEmpty(t, artifact.SPIRV)
	assert.Equal(t, uint32(spirvMagic), artifact.SPIRV[0])
}

func TestNewShaderParsesBindings(t *testing.T) {
	stubCompiler(t, validSPIRV)

	s, err := NewShader("quad_fs", ShaderTypeFragment, texturedSource)
	require.NoError(t, err)

	assert.Equal(t, "quad_fs", s.Key())
	assert.Equal(t, "fs_main", s.EntryPoint())
	assert.Equal(t, "quad_fs", s.Module().Label)
	assert.Equal(t, texturedSource, s.Module().WGSLDescriptor.Code)

	layouts := s.BindGroupLayoutDescriptors()
	require.Len(t, layouts, 1)
	entries := layouts[0].Entries
	require.Len(t, entries, 3)

	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, entries[0].Sampler.Type)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[1].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, entries[1].Texture.ViewDimension)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[2].Buffer.Type)
	assert.Equal(t, uint64(16), entries[2].Buffer.MinBindingSize)
	for _, e := range entries {
		assert.Equal(t, wgpu.ShaderStageFragment, e.Visibility)
	}

	assert.Equal(t, "geometry", s.BindGroupVarName(0, 2))
	assert.Empty(t, s.BindGroupVarName(3, 0))
}

func TestNewShaderWithCompiler(t *testing.T) {
	var compiled string
	s, err := NewShader("quad_vs", ShaderTypeVertex, texturedSource, WithCompiler(func(source string) ([]byte, error) {
		compiled = source
		return validSPIRV(source)
	}))
	require.NoError(t, err)

	assert.Equal(t, texturedSource, compiled)
	assert.Equal(t, "vs_main", s.EntryPoint())
	assert.Equal(t, uint32(spirvMagic), s.SPIRV()[0])
	assert.Equal(t, wgpu.ShaderStageVertex, s.BindGroupLayoutDescriptors()[0].Entries[2].Visibility)
}

func TestNewShaderWrapsKey(t *testing.T) {
	stubCompiler(t, validSPIRV)

	_, err := NewShader("broken", ShaderTypeCompute, texturedSource)
	assert.ErrorIs(t, err, ErrShaderStage)
	assert.ErrorContains(t, err, `shader "broken"`)
}

func TestMergeBindGroupLayouts(t *testing.T) {
	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 2, Visibility: wgpu.ShaderStageVertex},
		}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 1, Visibility: wgpu.ShaderStageFragment},
			{Binding: 2, Visibility: wgpu.ShaderStageFragment},
		}},
		2: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageFragment},
		}},
	}

	merged := MergeBindGroupLayouts(vertex, fragment)
	require.Len(t, merged, 3)

	require.Len(t, merged[0].Entries, 2)
	assert.Equal(t, uint32(1), merged[0].Entries[0].Binding)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, merged[0].Entries[1].Visibility)
	assert.Empty(t, merged[1].Entries)
	assert.Len(t, merged[2].Entries, 1)
}
