//go:build darwin

package renderer

import "github.com/cogentcore/webgpu/wgpu"

// preferredAdapterBackend is the native backend requested from the adapter on this platform.
const preferredAdapterBackend = wgpu.BackendTypeMetal
