// Package texture loads images from disk or HTTP and converts them into row-padded RGBA8
// staging data for GPU upload.
package texture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Carmen-Shannon/oxy-harness/common"
	"github.com/Carmen-Shannon/oxy-harness/engine/logging"
)

const (
	// ProceduralSize is the edge length of the generated fallback texture.
	ProceduralSize = 1024

	// DefaultMaxDimension is the largest edge accepted before an image is scaled down.
	DefaultMaxDimension = 8192

	// DefaultMaxBytes caps how much is read from a file or HTTP response.
	DefaultMaxBytes = 64 << 20
)

var (
	// ErrUnsupportedImage is returned when the content is not an image type the decoder handles.
	ErrUnsupportedImage = errors.New("unsupported image format")

	// ErrFetch is returned when an HTTP source answers with a non-2xx status.
	ErrFetch = errors.New("texture fetch failed")

	// ErrTooLarge is returned when the source exceeds the byte limit.
	ErrTooLarge = errors.New("texture source too large")
)

// supportedKinds lists the filetype extensions with a registered image decoder.
var supportedKinds = map[string]bool{
	"png":  true,
	"jpg":  true,
	"gif":  true,
	"bmp":  true,
	"webp": true,
	"tif":  true,
}

// Load reads the image at source, which is either a file path or an http(s) URL, and returns it
// as RGBA8 staging data with rows padded to common.TextureRowPitchAlignment.
//
// Parameters:
//   - ctx: bounds the HTTP request; ignored for files
//   - source: a file path or http(s) URL
//   - options: functional options, see WithHTTPClient, WithMaxDimension and WithMaxBytes
//
// Returns:
//   - common.TextureStagingData: the decoded pixels
//   - error: an error if the source cannot be read, is not a supported image, or fails to decode
func Load(ctx context.Context, source string, options ...LoaderBuilderOption) (common.TextureStagingData, error) {
	l := &loader{
		client:       http.DefaultClient,
		maxDimension: DefaultMaxDimension,
		maxBytes:     DefaultMaxBytes,
	}
	for _, opt := range options {
		opt(l)
	}

	data, err := l.read(ctx, source)
	if err != nil {
		return common.TextureStagingData{}, err
	}

	img, err := decode(data)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("texture %s: %w", source, err)
	}

	img = l.limit(img)
	staging := FromImage(img)
	logging.Logger().Debug("texture loaded", "source", source, "width", staging.Width, "height", staging.Height)
	return staging, nil
}

// FromImage converts any image into RGBA8 staging data with padded rows.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - common.TextureStagingData: the converted pixels
func FromImage(img image.Image) common.TextureStagingData {
	bounds := img.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		xdraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, xdraw.Src)
	}

	pitch := common.AlignUp(width*4, common.TextureRowPitchAlignment)
	pixels := make([]byte, int(pitch)*int(height))
	for y := 0; y < int(height); y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+int(width)*4]
		copy(pixels[y*int(pitch):], src)
	}

	return common.TextureStagingData{
		Pixels:      pixels,
		Width:       width,
		Height:      height,
		BytesPerRow: pitch,
	}
}

// Procedural builds the fallback texture: every byte of the tightly packed RGBA data is its
// index modulo 253, producing diagonal color bands.
//
// Parameters:
//   - width: texture width in pixels
//   - height: texture height in pixels
//
// Returns:
//   - common.TextureStagingData: the generated pixels with padded rows
func Procedural(width, height uint32) common.TextureStagingData {
	packed := width * 4
	pitch := common.AlignUp(packed, common.TextureRowPitchAlignment)
	pixels := make([]byte, int(pitch)*int(height))
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < packed; x++ {
			pixels[y*pitch+x] = byte((y*packed + x) % 253)
		}
	}
	return common.TextureStagingData{
		Pixels:      pixels,
		Width:       width,
		Height:      height,
		BytesPerRow: pitch,
	}
}

type loader struct {
	client       *http.Client
	maxDimension int
	maxBytes     int64
}

func (l *loader) read(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return l.fetch(ctx, source)
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture file: %w", err)
	}
	defer f.Close()
	return l.readLimited(f, source)
}

func (l *loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build texture request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch texture: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, url, resp.Status)
	}
	return l.readLimited(resp.Body, url)
}

func (l *loader) readLimited(r io.Reader, source string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read texture %s: %w", source, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, source, l.maxBytes)
	}
	return data, nil
}

// limit scales img down with Catmull-Rom so its longest edge fits maxDimension.
func (l *loader) limit(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if l.maxDimension <= 0 || (w <= l.maxDimension && h <= l.maxDimension) {
		return img
	}

	if w >= h {
		h = max(1, h*l.maxDimension/w)
		w = l.maxDimension
	} else {
		w = max(1, w*l.maxDimension/h)
		h = l.maxDimension
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	logging.Logger().Info("texture scaled down", "from", bounds.Size(), "to", dst.Bounds().Size())
	return dst
}

func decode(data []byte) (image.Image, error) {
	kind, err := filetype.Image(data)
	if err != nil || kind == filetype.Unknown || !supportedKinds[kind.Extension] {
		return nil, ErrUnsupportedImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", kind.Extension, err)
	}
	return img, nil
}
