package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/Carmen-Shannon/oxy-harness/common"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadPNGFilePadsRows(t *testing.T) {
	path := writeFile(t, "image.png", encodePNG(t, testImage(10, 3)))

	staging, err := Load(t.Context(), path)
	require.NoError(t, err)

	assert.Equal(t, uint32(10), staging.Width)
	assert.Equal(t, uint32(3), staging.Height)
	assert.Equal(t, uint32(common.TextureRowPitchAlignment), staging.BytesPerRow)
	assert.Len(t, staging.Pixels, 3*common.TextureRowPitchAlignment)

	// pixel (4, 2) sits at row 2, column 4
	off := 2*int(staging.BytesPerRow) + 4*4
	assert.Equal(t, []byte{4, 2, 7, 255}, staging.Pixels[off:off+4])
	// padding after the last pixel of a row stays zero
	assert.Zero(t, staging.Pixels[10*4])
}

func TestLoadBMPFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, testImage(4, 4)))
	path := writeFile(t, "image.bmp", buf.Bytes())

	staging, err := Load(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), staging.Width)
	assert.Equal(t, []byte{3, 0, 7, 255}, staging.Pixels[3*4:3*4+4])
}

func TestLoadFromHTTP(t *testing.T) {
	data := encodePNG(t, testImage(2, 2))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tex.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	staging, err := Load(t.Context(), srv.URL+"/tex.png", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), staging.Height)

	_, err = Load(t.Context(), srv.URL+"/missing.png", WithHTTPClient(srv.Client()))
	assert.ErrorIs(t, err, ErrFetch)
}

func TestLoadRejectsNonImage(t *testing.T) {
	path := writeFile(t, "notes.png", []byte("definitely not an image"))

	_, err := Load(t.Context(), path)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.Context(), filepath.Join(t.TempDir(), "absent.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEnforcesByteLimit(t *testing.T) {
	path := writeFile(t, "image.png", encodePNG(t, testImage(8, 8)))

	_, err := Load(t.Context(), path, WithMaxBytes(16))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLoadScalesOversizedImages(t *testing.T) {
	path := writeFile(t, "image.png", encodePNG(t, testImage(40, 20)))

	staging, err := Load(t.Context(), path, WithMaxDimension(10))
	require.NoError(t, err)
	assert.Equal(t, uint32(10), staging.Width)
	assert.Equal(t, uint32(5), staging.Height)
}

func TestFromImageHandlesOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	src.Set(5, 6, color.RGBA{R: 9, G: 8, B: 7, A: 255})
	sub := src.SubImage(image.Rect(4, 4, 8, 8))

	staging := FromImage(sub)
	require.Equal(t, uint32(4), staging.Width)
	off := 2*int(staging.BytesPerRow) + 1*4
	assert.Equal(t, []byte{9, 8, 7, 255}, staging.Pixels[off:off+4])
}

func TestProcedural(t *testing.T) {
	staging := Procedural(ProceduralSize, ProceduralSize)

	assert.Equal(t, uint32(ProceduralSize*4), staging.BytesPerRow)
	require.Len(t, staging.Pixels, ProceduralSize*ProceduralSize*4)
	for _, i := range []int{0, 1, 252, 253, 254, 4096, len(staging.Pixels) - 1} {
		assert.Equal(t, byte(i%253), staging.Pixels[i], "byte %d", i)
	}
}

func TestProceduralPadsNarrowRows(t *testing.T) {
	staging := Procedural(3, 2)

	assert.Equal(t, uint32(common.TextureRowPitchAlignment), staging.BytesPerRow)
	assert.Equal(t, byte(12), staging.Pixels[common.TextureRowPitchAlignment])
	assert.Zero(t, staging.Pixels[12])
}
