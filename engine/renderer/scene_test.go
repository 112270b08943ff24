package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-harness/engine/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSceneMode(t *testing.T) {
	mode, err := ParseSceneMode("QUAD")
	require.NoError(t, err)
	assert.Equal(t, SceneModeTexturedQuad, mode)

	mode, err = ParseSceneMode("triangle")
	require.NoError(t, err)
	assert.Equal(t, SceneModeTriangle, mode)

	_, err = ParseSceneMode("cube")
	assert.Error(t, err)
}

func TestTriangleSceneBytes(t *testing.T) {
	scene := TriangleScene(texture.Procedural(4, 4))

	assert.Equal(t, []byte{0, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0}, scene.IndexBytes())

	vertices := scene.VertexBytes()
	require.Len(t, vertices, 12*4)
	// 0.5 is 0x3f000000
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x3f}, vertices[4:8])
	assert.False(t, scene.HasGeometry)
}

func TestTexturedQuadSceneGeometry(t *testing.T) {
	scene := TexturedQuadScene(texture.Procedural(2, 2), FullscreenGeometry)

	assert.True(t, scene.HasGeometry)
	assert.True(t, scene.Blend)
	// -1.0 is 0xbf800000, 1.0 is 0x3f800000
	assert.Equal(t, []byte{
		0x00, 0x00, 0x80, 0xbf,
		0x00, 0x00, 0x80, 0x3f,
		0x00, 0x00, 0x80, 0x3f,
		0x00, 0x00, 0x80, 0xbf,
	}, scene.GeometryBytes())
}

func TestFitGeometry(t *testing.T) {
	tests := []struct {
		name               string
		imageW, imageH     float32
		surfaceW, surfaceH float32
		want               [4]float32
	}{
		{"same aspect", 640, 480, 1280, 960, [4]float32{-1, 1, 1, -1}},
		{"wide image", 200, 50, 100, 100, [4]float32{-1, 0.25, 1, -0.25}},
		{"tall image", 50, 100, 100, 100, [4]float32{-0.5, 1, 0.5, -1}},
		{"zero surface", 10, 10, 0, 10, FullscreenGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitGeometry(tt.imageW, tt.imageH, tt.surfaceW, tt.surfaceH)
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-6)
			}
		})
	}
}
