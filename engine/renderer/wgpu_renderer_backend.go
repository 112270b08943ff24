package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-harness/common"
	"github.com/Carmen-Shannon/oxy-harness/engine/logging"
	"github.com/Carmen-Shannon/oxy-harness/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-harness/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// depthFormat is the format of the depth attachment and of the pipeline's depth state.
const depthFormat = wgpu.TextureFormatDepth24PlusStencil8

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode

	// Scene objects created by Init
	renderPipeline  *wgpu.RenderPipeline
	bindGroupLayout []*wgpu.BindGroupLayout
	bindGroup       *wgpu.BindGroup
	vertexBuffer    *wgpu.Buffer
	indexBuffer     *wgpu.Buffer
	geometryBuffer  *wgpu.Buffer
	texture         *wgpu.Texture
	textureView     *wgpu.TextureView
	sampler         *wgpu.Sampler
	indexCount      uint32
	vertexCount     uint32

	// Frame state between BeginFrame and Present
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend creates the instance, surface, adapter and device. On failure every
// object created so far is released.
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, presentMode PresentMode) (b *wgpuRendererBackendImpl, err error) {
	if surfaceDescriptor == nil {
		return nil, ErrNoSurface
	}

	wgpu.SetLogLevel(wgpuLogLevel(logging.Logger()))

	b = &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpuPresentMode(presentMode),
	}
	defer func() {
		if err != nil {
			b.Release()
			b = nil
		}
	}()

	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	b.adapter, err = b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
		BackendType:          preferredAdapterBackend,
	})
	if err != nil {
		return b, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}

	b.device, err = b.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return b, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	b.queue = b.device.GetQueue()

	return b, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return fmt.Errorf("%w: surface reports no formats", ErrNoSurface)
	}
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseDepth()
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return b.deviceError("create depth texture", err)
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		return b.deviceError("create depth view", err)
	}

	// View of the color attachment is set per-frame to the swapchain view.
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:              b.depthTextureView,
			DepthLoadOp:       wgpu.LoadOpClear,
			DepthStoreOp:      wgpu.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     wgpu.LoadOpClear,
			StencilStoreOp:    wgpu.StoreOpStore,
			StencilClearValue: 0,
		},
	}

	return nil
}

func (b *wgpuRendererBackendImpl) Init(p pipeline.Pipeline, scene SceneDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return errors.New("surface must be configured before Init")
	}
	if err := p.Validate(); err != nil {
		return err
	}

	if err := b.createRenderPipeline(p, scene); err != nil {
		return err
	}
	if err := b.createMeshBuffers(scene); err != nil {
		return err
	}
	if err := b.createTexture(scene.Texture); err != nil {
		return err
	}
	if err := b.createSampler(scene.Sampler); err != nil {
		return err
	}
	if scene.HasGeometry {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Geometry Uniform",
			Size:  16,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return b.deviceError("create geometry uniform", err)
		}
		b.queue.WriteBuffer(buf, 0, scene.GeometryBytes())
		b.geometryBuffer = buf
	}

	layouts := p.BindGroupLayouts()
	if len(layouts) > 0 {
		if err := b.createBindGroup(layouts[0]); err != nil {
			return err
		}
	}

	return nil
}

func (b *wgpuRendererBackendImpl) createRenderPipeline(p pipeline.Pipeline, scene SceneDescriptor) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return b.deviceError("create vertex module "+vertexShader.Key(), err)
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return b.deviceError("create fragment module "+fragmentShader.Key(), err)
	}
	defer fs.Release()

	merged := p.BindGroupLayouts()
	b.bindGroupLayout = make([]*wgpu.BindGroupLayout, len(merged))
	for g, desc := range merged {
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return b.deviceError(fmt.Sprintf("create bind group layout %d", g), layoutErr)
		}
		b.bindGroupLayout[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: b.bindGroupLayout,
	})
	if err != nil {
		return b.deviceError("create pipeline layout", err)
	}
	defer pipelineLayout.Release()

	target := wgpu.ColorTargetState{
		Format:    *b.surfaceFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    scene.VertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return b.deviceError("create render pipeline "+p.PipelineKey(), err)
	}

	b.renderPipeline = created

	return nil
}

func (b *wgpuRendererBackendImpl) createMeshBuffers(scene SceneDescriptor) error {
	if len(scene.Vertices) > 0 {
		vertexData := scene.VertexBytes()
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            "Vertex Buffer",
			Size:             uint64(len(vertexData)),
			Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return b.deviceError("create vertex buffer", err)
		}
		b.queue.WriteBuffer(buf, 0, vertexData)
		b.vertexBuffer = buf
	}

	if len(scene.Indices) > 0 {
		indexData := scene.IndexBytes()
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            "Index Buffer",
			Size:             uint64(len(indexData)),
			Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return b.deviceError("create index buffer", err)
		}
		b.queue.WriteBuffer(buf, 0, indexData)
		b.indexBuffer = buf
	}

	b.indexCount = scene.IndexCount()
	b.vertexCount = scene.VertexCount

	return nil
}

func (b *wgpuRendererBackendImpl) createTexture(stagingData common.TextureStagingData) error {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     "Scene Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              stagingData.Width,
			Height:             stagingData.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return b.deviceError("create texture", err)
	}
	b.texture = tex

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  stagingData.RowPitch(),
			RowsPerImage: stagingData.Height,
		},
		&wgpu.Extent3D{
			Width:              stagingData.Width,
			Height:             stagingData.Height,
			DepthOrArrayLayers: 1,
		},
	)

	b.textureView, err = tex.CreateView(nil)
	if err != nil {
		return b.deviceError("create texture view", err)
	}

	return nil
}

func (b *wgpuRendererBackendImpl) createSampler(samplerStagingData common.SamplerStagingData) error {
	defaults := common.DefaultSamplerStagingData()
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Scene Sampler",
		AddressModeU:  common.Coalesce(samplerStagingData.AddressModeU, defaults.AddressModeU),
		AddressModeV:  common.Coalesce(samplerStagingData.AddressModeV, defaults.AddressModeV),
		AddressModeW:  common.Coalesce(samplerStagingData.AddressModeW, defaults.AddressModeW),
		MagFilter:     common.Coalesce(samplerStagingData.MagFilter, defaults.MagFilter),
		MinFilter:     common.Coalesce(samplerStagingData.MinFilter, defaults.MinFilter),
		MipmapFilter:  common.Coalesce(samplerStagingData.MipmapFilter, defaults.MipmapFilter),
		LodMinClamp:   samplerStagingData.LodMinClamp,
		LodMaxClamp:   common.Coalesce(samplerStagingData.LodMaxClamp, defaults.LodMaxClamp),
		MaxAnisotropy: common.Coalesce(samplerStagingData.MaxAnisotropy, defaults.MaxAnisotropy),
		Compare:       samplerStagingData.Compare,
	})
	if err != nil {
		return b.deviceError("create sampler", err)
	}
	b.sampler = samp

	return nil
}

func (b *wgpuRendererBackendImpl) createBindGroup(descriptor wgpu.BindGroupLayoutDescriptor) error {
	if len(descriptor.Entries) == 0 {
		return nil
	}

	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined

		switch {
		case isTexture:
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, TextureView: b.textureView}
		case isSampler:
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, Sampler: b.sampler}
		default:
			if b.geometryBuffer == nil {
				return fmt.Errorf("buffer binding %d has no geometry uniform", entry.Binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  b.geometryBuffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Scene Bind Group",
		Layout:  b.bindGroupLayout[0],
		Entries: entries,
	})
	if err != nil {
		return b.deviceError("create bind group", err)
	}
	b.bindGroup = bindGroup

	return nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return ErrFrameInProgress
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return b.deviceError("acquire surface texture", err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return b.deviceError("create surface view", err)
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return b.deviceError("create command encoder", err)
	}

	b.renderPassDescriptor.ColorAttachments[0].View = view
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackendImpl) Draw() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return errors.New("draw outside of a frame")
	}

	b.framePass.SetPipeline(b.renderPipeline)
	if b.bindGroup != nil {
		b.framePass.SetBindGroup(0, b.bindGroup, nil)
	}

	if b.vertexBuffer != nil {
		b.framePass.SetVertexBuffer(0, b.vertexBuffer, 0, wgpu.WholeSize)
	}
	if b.indexBuffer != nil {
		b.framePass.SetIndexBuffer(b.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		b.framePass.DrawIndexed(b.indexCount, 1, 0, 0, 0)
		return nil
	}
	b.framePass.Draw(b.vertexCount, 1, 0, 0)

	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return errors.New("end frame outside of a frame")
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameSurface = nil
		b.frameView = nil
		return b.deviceError("finish command encoder", err)
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil

	return nil
}

func (b *wgpuRendererBackendImpl) Present() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return errors.New("no acquired surface to present")
	}

	b.surface.Present()

	b.frameView.Release()
	b.frameView = nil
	b.frameSurface.Release()
	b.frameSurface = nil

	return nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
		b.framePass = nil
	}
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}

	if b.bindGroup != nil {
		b.bindGroup.Release()
		b.bindGroup = nil
	}
	for _, layout := range b.bindGroupLayout {
		if layout != nil {
			layout.Release()
		}
	}
	b.bindGroupLayout = nil
	if b.renderPipeline != nil {
		b.renderPipeline.Release()
		b.renderPipeline = nil
	}
	for _, buf := range []*wgpu.Buffer{b.vertexBuffer, b.indexBuffer, b.geometryBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
	b.vertexBuffer, b.indexBuffer, b.geometryBuffer = nil, nil, nil
	if b.sampler != nil {
		b.sampler.Release()
		b.sampler = nil
	}
	if b.textureView != nil {
		b.textureView.Release()
		b.textureView = nil
	}
	if b.texture != nil {
		b.texture.Release()
		b.texture = nil
	}
	b.releaseDepth()

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func (b *wgpuRendererBackendImpl) releaseDepth() {
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

// deviceError logs a device error by type and wraps it with the failed operation.
func (b *wgpuRendererBackendImpl) deviceError(op string, err error) error {
	logging.Logger().Error(describeDeviceError(err), "op", op)
	return fmt.Errorf("%s: %w", op, err)
}

func wgpuPresentMode(mode PresentMode) wgpu.PresentMode {
	switch mode {
	case PresentModeUncapped:
		return wgpu.PresentModeImmediate
	default:
		return wgpu.PresentModeFifo
	}
}

// wgpuLogLevel maps the enabled level of the harness logger onto the native library's log level.
func wgpuLogLevel(l *slog.Logger) wgpu.LogLevel {
	ctx := context.Background()
	switch {
	case l.Enabled(ctx, slog.LevelDebug):
		return wgpu.LogLevelInfo
	case l.Enabled(ctx, slog.LevelInfo):
		return wgpu.LogLevelWarn
	case l.Enabled(ctx, slog.LevelError):
		return wgpu.LogLevelError
	default:
		return wgpu.LogLevelOff
	}
}
