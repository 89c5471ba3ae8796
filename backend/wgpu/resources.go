package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi/backend"
)

// wgpuBuffer wraps a hal buffer.
type wgpuBuffer struct {
	b      *Backend
	native hal.Buffer
	label  string
	size   uint64
}

func (r *wgpuBuffer) Destroy()      { r.b.device.DestroyBuffer(r.native) }
func (r *wgpuBuffer) Label() string { return r.label }

// wgpuTexture wraps a hal texture together with its default view; the view
// is what render passes and bind groups consume.
type wgpuTexture struct {
	b      *Backend
	native hal.Texture
	view   hal.TextureView
	label  string
	format gputypes.TextureFormat
	width  uint32
	height uint32
}

func (r *wgpuTexture) Destroy() {
	r.b.dropTextureBindGroups(r)
	r.b.device.DestroyTextureView(r.view)
	r.b.device.DestroyTexture(r.native)
}

func (r *wgpuTexture) Label() string                  { return r.label }
func (r *wgpuTexture) Format() gputypes.TextureFormat { return r.format }
func (r *wgpuTexture) Width() uint32                  { return r.width }
func (r *wgpuTexture) Height() uint32                 { return r.height }

// wgpuSampler wraps a hal sampler.
type wgpuSampler struct {
	b      *Backend
	native hal.Sampler
	label  string
}

func (r *wgpuSampler) Destroy()      { r.b.device.DestroySampler(r.native) }
func (r *wgpuSampler) Label() string { return r.label }

// wgpuFramebuffer is a set of attachment views. The views belong to the
// attached textures; the framebuffer owns no hal objects of its own.
type wgpuFramebuffer struct {
	label      string
	colorViews []hal.TextureView
	depthView  hal.TextureView
}

func (r *wgpuFramebuffer) Destroy()      {}
func (r *wgpuFramebuffer) Label() string { return r.label }

// wgpuShader wraps a compiled hal shader module.
type wgpuShader struct {
	b      *Backend
	native hal.ShaderModule
	label  string
}

func (r *wgpuShader) Destroy()      { r.b.device.DestroyShaderModule(r.native) }
func (r *wgpuShader) Label() string { return r.label }

// wgpuPipeline wraps a hal render pipeline.
type wgpuPipeline struct {
	b      *Backend
	native hal.RenderPipeline
	label  string
}

func (r *wgpuPipeline) Destroy()      { r.b.device.DestroyRenderPipeline(r.native) }
func (r *wgpuPipeline) Label() string { return r.label }

// CreateBuffer creates a GPU buffer.
func (b *Backend) CreateBuffer(desc *backend.BufferDescriptor) (backend.Buffer, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	native, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create buffer %q: %w", desc.Label, err)
	}
	return &wgpuBuffer{b: b, native: native, label: desc.Label, size: desc.Size}, nil
}

// CreateTexture creates a 2D texture and its default view.
func (b *Backend) CreateTexture(desc *backend.TextureDescriptor) (backend.Texture, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	native, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: desc.MipLevels,
		SampleCount:   desc.SampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %q: %w", desc.Label, err)
	}
	view, err := b.device.CreateTextureView(native, &hal.TextureViewDescriptor{
		Label: desc.Label + "_view",
	})
	if err != nil {
		b.device.DestroyTexture(native)
		return nil, fmt.Errorf("wgpu: create texture view %q: %w", desc.Label, err)
	}
	return &wgpuTexture{
		b:      b,
		native: native,
		view:   view,
		label:  desc.Label,
		format: desc.Format,
		width:  desc.Width,
		height: desc.Height,
	}, nil
}

// CreateSampler creates a texture sampler.
func (b *Backend) CreateSampler(desc *backend.SamplerDescriptor) (backend.Sampler, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	native, err := b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: desc.AddressModeU,
		AddressModeV: desc.AddressModeV,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    desc.MagFilter,
		MinFilter:    desc.MinFilter,
		MipmapFilter: desc.MinFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create sampler %q: %w", desc.Label, err)
	}
	return &wgpuSampler{b: b, native: native, label: desc.Label}, nil
}

// CreateFramebuffer collects attachment views for later render passes. The
// attached textures must outlive the framebuffer; the rhi layer enforces
// that through its pools.
func (b *Backend) CreateFramebuffer(desc *backend.FramebufferDescriptor) (backend.Framebuffer, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	fb := &wgpuFramebuffer{label: desc.Label}
	for i, target := range desc.ColorTargets {
		tex, ok := target.(*wgpuTexture)
		if !ok {
			return nil, fmt.Errorf("wgpu: framebuffer %q: foreign color target %d (%T)", desc.Label, i, target)
		}
		fb.colorViews = append(fb.colorViews, tex.view)
	}
	if desc.DepthTarget != nil {
		tex, ok := desc.DepthTarget.(*wgpuTexture)
		if !ok {
			return nil, fmt.Errorf("wgpu: framebuffer %q: foreign depth target (%T)", desc.Label, desc.DepthTarget)
		}
		fb.depthView = tex.view
	}
	return fb, nil
}

// CompileShader validates the WGSL source through naga and creates the hal
// shader module. Validation failures surface the naga diagnostic.
func (b *Backend) CompileShader(desc *backend.ShaderDescriptor) (backend.ShaderModule, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	if _, err := naga.Compile(desc.Source); err != nil {
		return nil, fmt.Errorf("wgpu: validate %s shader %q: %w", desc.Stage, desc.Label, err)
	}
	native, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{WGSL: desc.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s shader module %q: %w", desc.Stage, desc.Label, err)
	}
	return &wgpuShader{b: b, native: native, label: desc.Label}, nil
}

// CreatePipeline creates a hal render pipeline from the already-converted
// descriptor.
func (b *Backend) CreatePipeline(desc *backend.PipelineDescriptor) (backend.Pipeline, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	vs, ok := desc.VertexShader.(*wgpuShader)
	if !ok {
		return nil, fmt.Errorf("wgpu: pipeline %q: foreign vertex shader (%T)", desc.Label, desc.VertexShader)
	}
	fs, ok := desc.FragmentShader.(*wgpuShader)
	if !ok {
		return nil, fmt.Errorf("wgpu: pipeline %q: foreign fragment shader (%T)", desc.Label, desc.FragmentShader)
	}

	var blend *gputypes.BlendState
	if desc.Blend != nil {
		blend = &gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: desc.Blend.Color.SrcFactor,
				DstFactor: desc.Blend.Color.DstFactor,
				Operation: desc.Blend.Color.Operation,
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: desc.Blend.Alpha.SrcFactor,
				DstFactor: desc.Blend.Alpha.DstFactor,
				Operation: desc.Blend.Alpha.Operation,
			},
		}
	}

	var depthStencil *hal.DepthStencilState
	if desc.DepthStencil != nil {
		depthStencil = &hal.DepthStencilState{
			Format:            desc.DepthStencil.Format,
			DepthWriteEnabled: desc.DepthStencil.DepthWriteEnabled,
			DepthCompare:      desc.DepthStencil.DepthCompare,
			StencilFront:      convertStencilFace(desc.DepthStencil.StencilFront),
			StencilBack:       convertStencilFace(desc.DepthStencil.StencilBack),
			StencilReadMask:   desc.DepthStencil.StencilReadMask,
			StencilWriteMask:  desc.DepthStencil.StencilWriteMask,
		}
	}

	sampleCount := desc.SampleCount
	if sampleCount == 0 {
		sampleCount = 1
	}

	native, err := b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: b.pipelineLayout,
		Vertex: hal.VertexState{
			Module:     vs.native,
			EntryPoint: desc.VertexEntryPoint,
		},
		Fragment: &hal.FragmentState{
			Module:     fs.native,
			EntryPoint: desc.FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    desc.ColorFormat,
					Blend:     blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: depthStencil,
		Primitive: gputypes.PrimitiveState{
			Topology:  desc.Topology,
			FrontFace: desc.FrontFace,
			CullMode:  desc.CullMode,
		},
		Multisample: gputypes.MultisampleState{
			Count: sampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline %q: %w", desc.Label, err)
	}
	return &wgpuPipeline{b: b, native: native, label: desc.Label}, nil
}

func convertStencilFace(f backend.StencilFaceState) hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     f.Compare,
		FailOp:      f.FailOp,
		DepthFailOp: f.DepthFailOp,
		PassOp:      f.PassOp,
	}
}

// WriteBuffer uploads data at offset into a buffer through the queue.
func (b *Backend) WriteBuffer(buf backend.Buffer, offset uint64, data []byte) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	wb, ok := buf.(*wgpuBuffer)
	if !ok {
		return fmt.Errorf("wgpu: foreign buffer %T", buf)
	}
	b.queue.WriteBuffer(wb.native, offset, data)
	return nil
}

// WriteTexture uploads tightly packed texel data covering the full first
// mip level.
func (b *Backend) WriteTexture(tex backend.Texture, data []byte) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	wt, ok := tex.(*wgpuTexture)
	if !ok {
		return fmt.Errorf("wgpu: foreign texture %T", tex)
	}
	bytesPerRow := wt.width * texelSize(wt.format)
	err := b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: wt.native, MipLevel: 0, Origin: hal.Origin3D{}, Aspect: gputypes.TextureAspectAll},
		data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: bytesPerRow, RowsPerImage: wt.height},
		&hal.Extent3D{Width: wt.width, Height: wt.height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("wgpu: write texture %q: %w", wt.label, err)
	}
	return nil
}

// texelSize returns the byte size of one texel for the formats the upload
// path supports. Unlisted formats fall back to 4 bytes.
func texelSize(format gputypes.TextureFormat) uint32 {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatR32Float:
		return 4
	default:
		return 4
	}
}

// dropTextureBindGroups destroys cached bind groups referencing tex. Called
// when the texture is destroyed so no stale view stays bound.
func (b *Backend) dropTextureBindGroups(tex *wgpuTexture) {
	for key, bg := range b.bindGroups {
		if key.tex == tex {
			b.device.DestroyBindGroup(bg)
			delete(b.bindGroups, key)
		}
	}
}
