package renderer

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-harness/common"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

// SceneMode selects what the harness draws each frame.
type SceneMode int

const (
	// SceneModeTriangle draws one indexed triangle textured with the procedural texture.
	SceneModeTriangle SceneMode = iota

	// SceneModeTexturedQuad draws a 4-vertex triangle strip covering the uniform geometry rectangle,
	// textured with a loaded image and alpha blended over the clear color.
	SceneModeTexturedQuad
)

// String returns the mode name accepted by ParseSceneMode.
func (m SceneMode) String() string {
	switch m {
	case SceneModeTriangle:
		return "triangle"
	case SceneModeTexturedQuad:
		return "quad"
	default:
		return "unknown"
	}
}

// ParseSceneMode maps a configuration name onto a SceneMode.
//
// Parameters:
//   - name: "triangle" or "quad" (case-insensitive)
//
// Returns:
//   - SceneMode: the matching mode
//   - error: an error if the name is not recognized
func ParseSceneMode(name string) (SceneMode, error) {
	switch strings.ToLower(name) {
	case "triangle":
		return SceneModeTriangle, nil
	case "quad":
		return SceneModeTexturedQuad, nil
	default:
		return 0, fmt.Errorf("unknown scene mode %q", name)
	}
}

// triangleSource samples the texture in screen space over a fixed 640x480 reference frame.
const triangleSource = `
@group(0) @binding(0) var tex_sampler: sampler;
@group(0) @binding(1) var tex: texture_2d<f32>;

@vertex
fn vs_main(@location(0) position: vec4<f32>) -> @builtin(position) vec4<f32> {
    return position;
}

@fragment
fn fs_main(@builtin(position) frag_coord: vec4<f32>) -> @location(0) vec4<f32> {
    return textureSample(tex, tex_sampler, frag_coord.xy / vec2<f32>(640.0, 480.0));
}
`

// quadSourceFormat is completed with the image size so the texture maps one texel per pixel.
const quadSourceFormat = `
@group(0) @binding(0) var tex_sampler: sampler;
@group(0) @binding(1) var tex: texture_2d<f32>;
@group(0) @binding(2) var<uniform> geometry: vec4<f32>;

@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    var x = geometry.x;
    if (idx == 1u || idx == 3u) {
        x = geometry.z;
    }
    var y = geometry.y;
    if (idx >= 2u) {
        y = geometry.w;
    }
    return vec4<f32>(x, y, 0.0, 1.0);
}

@fragment
fn fs_main(@builtin(position) frag_coord: vec4<f32>) -> @location(0) vec4<f32> {
    return textureSample(tex, tex_sampler, frag_coord.xy / vec2<f32>(%d.0, %d.0));
}
`

// FullscreenGeometry is the quad rectangle (left, top, right, bottom) covering the whole surface in clip space.
var FullscreenGeometry = [4]float32{-1, 1, 1, -1}

// triangleVertices are three clip-space vec4 positions.
var triangleVertices = []float32{
	0.0, 0.5, 0.0, 1.0,
	-0.5, -0.5, 0.0, 1.0,
	0.5, -0.5, 0.0, 1.0,
}

var triangleIndices = []uint32{0, 1, 2}

// SceneDescriptor carries everything the device layer needs to set up one scene: the WGSL module,
// the texture and sampler, optional vertex/index data, the optional geometry uniform and the
// draw parameters.
type SceneDescriptor struct {
	Mode    SceneMode
	Source  string
	Texture common.TextureStagingData
	Sampler common.SamplerStagingData

	// Vertices and Indices are empty for the quad, which is generated from vertex_index.
	Vertices      []float32
	Indices       []uint32
	VertexLayouts []wgpu.VertexBufferLayout

	// VertexCount is used for non-indexed draws.
	VertexCount uint32

	// Geometry is uploaded to the uniform at group 0 binding 2 when HasGeometry is set.
	Geometry    [4]float32
	HasGeometry bool

	Topology wgpu.PrimitiveTopology
	Blend    bool

	// DepthTest enables depth comparison and writes. The quad is a flat overlay and draws without it.
	DepthTest bool
}

// TriangleScene describes the indexed triangle textured with tex.
//
// Parameters:
//   - tex: the texture to sample, typically texture.Procedural(1024, 1024)
//
// Returns:
//   - SceneDescriptor: the triangle scene
func TriangleScene(tex common.TextureStagingData) SceneDescriptor {
	return SceneDescriptor{
		Mode:     SceneModeTriangle,
		Source:   triangleSource,
		Texture:  tex,
		Sampler:  common.DefaultSamplerStagingData(),
		Vertices: triangleVertices,
		Indices:  triangleIndices,
		VertexLayouts: []wgpu.VertexBufferLayout{
			{
				ArrayStride: 4 * 4,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
				},
			},
		},
		Topology:  wgpu.PrimitiveTopologyTriangleList,
		DepthTest: true,
	}
}

// TexturedQuadScene describes the alpha-blended quad drawn over geometry.
//
// Parameters:
//   - tex: the decoded image
//   - geometry: the quad rectangle in clip space as (left, top, right, bottom)
//
// Returns:
//   - SceneDescriptor: the quad scene
func TexturedQuadScene(tex common.TextureStagingData, geometry [4]float32) SceneDescriptor {
	return SceneDescriptor{
		Mode:        SceneModeTexturedQuad,
		Source:      fmt.Sprintf(quadSourceFormat, tex.Width, tex.Height),
		Texture:     tex,
		Sampler:     common.DefaultSamplerStagingData(),
		VertexCount: 4,
		Geometry:    geometry,
		HasGeometry: true,
		Topology:    wgpu.PrimitiveTopologyTriangleStrip,
		Blend:       true,
	}
}

// IndexCount returns the number of indices drawn, or 0 for non-indexed scenes.
func (s SceneDescriptor) IndexCount() uint32 {
	return uint32(len(s.Indices))
}

// VertexBytes returns the vertex data in the little-endian layout the GPU expects.
func (s SceneDescriptor) VertexBytes() []byte {
	return float32Bytes(s.Vertices)
}

// IndexBytes returns the index data as little-endian uint32 values.
func (s SceneDescriptor) IndexBytes() []byte {
	out := make([]byte, 0, len(s.Indices)*4)
	for _, idx := range s.Indices {
		out = appendUint32(out, idx)
	}
	return out
}

// GeometryBytes returns the geometry uniform contents.
func (s SceneDescriptor) GeometryBytes() []byte {
	return float32Bytes(s.Geometry[:])
}

// FitGeometry computes a clip-space rectangle that shows an image at its own aspect ratio,
// centered in the surface and touching two opposite edges.
//
// Parameters:
//   - imageWidth, imageHeight: the image size in pixels
//   - surfaceWidth, surfaceHeight: the surface size in pixels
//
// Returns:
//   - [4]float32: (left, top, right, bottom), or FullscreenGeometry if any size is not positive
func FitGeometry(imageWidth, imageHeight, surfaceWidth, surfaceHeight float32) [4]float32 {
	if imageWidth <= 0 || imageHeight <= 0 || surfaceWidth <= 0 || surfaceHeight <= 0 {
		return FullscreenGeometry
	}

	imageAspect := imageWidth / imageHeight
	surfaceAspect := surfaceWidth / surfaceHeight

	sx := math32.Min(1, imageAspect/surfaceAspect)
	sy := math32.Min(1, surfaceAspect/imageAspect)

	return [4]float32{-sx, sy, sx, -sy}
}

func float32Bytes(values []float32) []byte {
	out := make([]byte, 0, len(values)*4)
	for _, v := range values {
		out = appendUint32(out, math32.Float32bits(v))
	}
	return out
}

func appendUint32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
