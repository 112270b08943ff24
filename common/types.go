package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureRowPitchAlignment is the byte alignment WebGPU requires for the row pitch of buffer-to-texture copies.
const TextureRowPitchAlignment = 256

// TextureStagingData holds decoded RGBA8 pixel data ready to be uploaded to a GPU texture.
// Rows are laid out BytesPerRow apart, which may be larger than Width*4 when rows are padded
// to TextureRowPitchAlignment.
type TextureStagingData struct {
	// Pixels is the raw RGBA pixel data, row-major, BytesPerRow bytes per row.
	Pixels []byte

	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// BytesPerRow is the distance in bytes between the start of two consecutive rows.
	BytesPerRow uint32
}

// RowPitch returns the byte distance between rows, falling back to the tightly packed pitch
// when BytesPerRow was left unset.
//
// Returns:
//   - uint32: the row pitch in bytes
func (t TextureStagingData) RowPitch() uint32 {
	return Coalesce(t.BytesPerRow, t.Width*4)
}

// SamplerStagingData holds the configuration used to create a GPU sampler.
// Zero values are replaced by the defaults from DefaultSamplerStagingData when the sampler is created.
type SamplerStagingData struct {
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	MagFilter, MinFilter                     wgpu.FilterMode
	MipmapFilter                             wgpu.MipmapFilterMode
	LodMinClamp, LodMaxClamp                 float32
	Compare                                  wgpu.CompareFunction
	MaxAnisotropy                            uint16
}

// DefaultSamplerStagingData returns the sampler used for every harness texture:
// linear filtering, repeat addressing on all axes and a 0..1000 LOD clamp.
//
// Returns:
//   - SamplerStagingData: the default sampler configuration
func DefaultSamplerStagingData() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   1000,
		MaxAnisotropy: 1,
	}
}
