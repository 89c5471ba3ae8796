package rhi

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi/backend"
	"github.com/gogpu/rhi/pool"
)

// DeviceOptions configures device creation. The zero value selects the
// highest-priority registered backend with a 1x1 BGRA8 backbuffer; most
// callers set at least Width and Height.
type DeviceOptions struct {
	// Backend names a registered backend ("wgpu", "null"). Empty selects
	// the default by registry priority.
	Backend string

	// Backbuffer dimensions in pixels. Zero is treated as 1.
	Width  uint32
	Height uint32

	// ColorFormat of the backbuffer. Undefined defaults to BGRA8Unorm.
	ColorFormat gputypes.TextureFormat

	// DepthFormat of the default depth attachment. Undefined disables it;
	// use DefaultDepthFormat for the common depth+stencil configuration.
	DepthFormat gputypes.TextureFormat

	// SampleCount for the backbuffer. Zero is treated as 1.
	SampleCount uint32
}

// DefaultDepthFormat is the depth/stencil format used by NewDevice callers
// that want a depth attachment without choosing a format.
const DefaultDepthFormat = gputypes.TextureFormatDepth24PlusStencil8

func (o *DeviceOptions) normalize() {
	if o.Width == 0 {
		o.Width = 1
	}
	if o.Height == 0 {
		o.Height = 1
	}
	if o.ColorFormat == gputypes.TextureFormatUndefined {
		o.ColorFormat = gputypes.TextureFormatBGRA8Unorm
	}
	if o.SampleCount == 0 {
		o.SampleCount = 1
	}
}

// Device owns every GPU resource created through it. All methods must be
// driven from a single goroutine; see the package documentation.
//
// Create and Destroy calls manage lifetime through generation-validated
// pools: a returned handle stays usable until its Destroy call, after
// which it permanently resolves to nothing, even if the pool slot is
// reused. Per-frame binding calls absorb stale handles instead of failing.
type Device struct {
	backend backend.Backend
	opts    DeviceOptions

	buffers      *pool.Pool[*Buffer]
	textures     *pool.Pool[*Texture]
	samplers     *pool.Pool[*Sampler]
	framebuffers *pool.Pool[*Framebuffer]
	shaders      *pool.Pool[*ShaderProgram]
	pipelines    *pool.Pool[*Pipeline]

	cache *pipelineCache

	inFrame bool
	closed  bool
}

// NewDevice creates a device on a registered backend. With an empty
// DeviceOptions.Backend the registry's priority order decides; NoBackend
// means no backend package was imported.
func NewDevice(opts DeviceOptions) (*Device, error) {
	var b backend.Backend
	if opts.Backend != "" {
		if b = backend.Get(opts.Backend); b == nil {
			return nil, fmt.Errorf("rhi: backend %q: %w", opts.Backend, ErrNoBackend)
		}
	} else {
		if b = backend.Default(); b == nil {
			return nil, ErrNoBackend
		}
	}
	return NewDeviceWith(b, opts)
}

// NewDeviceWith creates a device on a caller-supplied backend instance,
// initializing it with the backbuffer configuration from opts. Tests use
// this to drive a backend they can inspect.
func NewDeviceWith(b backend.Backend, opts DeviceOptions) (*Device, error) {
	opts.normalize()
	if err := b.Init(backend.InitOptions{
		Width:       opts.Width,
		Height:      opts.Height,
		ColorFormat: opts.ColorFormat,
		DepthFormat: opts.DepthFormat,
		SampleCount: opts.SampleCount,
	}); err != nil {
		return nil, fmt.Errorf("rhi: init backend %s: %w", b.Name(), err)
	}

	d := &Device{
		backend: b,
		opts:    opts,
		cache:   newPipelineCache(),
	}
	d.buffers = pool.New(func(r *Buffer) { r.native.Destroy() })
	d.textures = pool.New(func(r *Texture) { r.native.Destroy() })
	d.samplers = pool.New(func(r *Sampler) { r.native.Destroy() })
	d.framebuffers = pool.New(func(r *Framebuffer) { r.native.Destroy() })
	d.shaders = pool.New(func(r *ShaderProgram) { r.native.Destroy() })
	// Native pipelines are owned by the cache, not the pool: several
	// pipeline handles can share one cache entry.
	d.pipelines = pool.New(func(r *Pipeline) {})

	Logger().Info("rhi: device created",
		"backend", b.Name(),
		"width", opts.Width,
		"height", opts.Height,
		"colorFormat", opts.ColorFormat,
		"sampleCount", opts.SampleCount)
	return d, nil
}

// Backend returns the backend identifier the device runs on.
func (d *Device) Backend() string { return d.backend.Name() }

// Options returns the normalized options the device was created with.
func (d *Device) Options() DeviceOptions { return d.opts }

// CreateBuffer creates a GPU buffer and returns its handle.
func (d *Device) CreateBuffer(desc BufferDesc) (BufferHandle, error) {
	if d.closed {
		return NilBuffer(), ErrDeviceClosed
	}
	if desc.Size == 0 {
		return NilBuffer(), fmt.Errorf("rhi: create buffer %q: %w", desc.Label, ErrZeroSize)
	}
	native, err := d.backend.CreateBuffer(&backend.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return NilBuffer(), fmt.Errorf("rhi: create buffer %q (%d bytes) on backend %s: %w",
			desc.Label, desc.Size, d.backend.Name(), err)
	}
	h, _ := d.buffers.Alloc(&Buffer{native: native, desc: desc})
	Logger().Debug("rhi: buffer created", "label", desc.Label, "size", desc.Size, "handle", h)
	return h, nil
}

// CreateTexture creates a 2D texture and returns its handle.
func (d *Device) CreateTexture(desc TextureDesc) (TextureHandle, error) {
	if d.closed {
		return NilTexture(), ErrDeviceClosed
	}
	if desc.Width == 0 || desc.Height == 0 {
		return NilTexture(), fmt.Errorf("rhi: create texture %q: %w", desc.Label, ErrZeroSize)
	}
	if desc.MipLevels == 0 {
		desc.MipLevels = 1
	}
	if desc.SampleCount == 0 {
		desc.SampleCount = 1
	}
	native, err := d.backend.CreateTexture(&backend.TextureDescriptor{
		Label:       desc.Label,
		Width:       desc.Width,
		Height:      desc.Height,
		MipLevels:   desc.MipLevels,
		SampleCount: desc.SampleCount,
		Format:      desc.Format,
		Usage:       desc.Usage,
	})
	if err != nil {
		return NilTexture(), fmt.Errorf("rhi: create texture %q (%dx%d %v) on backend %s: %w",
			desc.Label, desc.Width, desc.Height, desc.Format, d.backend.Name(), err)
	}
	h, _ := d.textures.Alloc(&Texture{native: native, desc: desc})
	Logger().Debug("rhi: texture created", "label", desc.Label,
		"width", desc.Width, "height", desc.Height, "handle", h)
	return h, nil
}

// CreateSampler creates a texture sampler and returns its handle.
func (d *Device) CreateSampler(desc SamplerDesc) (SamplerHandle, error) {
	if d.closed {
		return NilSampler(), ErrDeviceClosed
	}
	native, err := d.backend.CreateSampler(&backend.SamplerDescriptor{
		Label:        desc.Label,
		MagFilter:    desc.MagFilter,
		MinFilter:    desc.MinFilter,
		AddressModeU: desc.AddressModeU,
		AddressModeV: desc.AddressModeV,
	})
	if err != nil {
		return NilSampler(), fmt.Errorf("rhi: create sampler %q on backend %s: %w",
			desc.Label, d.backend.Name(), err)
	}
	h, _ := d.samplers.Alloc(&Sampler{native: native, desc: desc})
	return h, nil
}

// CreateFramebuffer creates an offscreen render target from live texture
// handles. Every attachment handle must resolve; a stale attachment is a
// creation error, not a silent skip.
func (d *Device) CreateFramebuffer(desc FramebufferDesc) (FramebufferHandle, error) {
	if d.closed {
		return NilFramebuffer(), ErrDeviceClosed
	}
	if len(desc.ColorAttachments) == 0 {
		return NilFramebuffer(), fmt.Errorf("rhi: create framebuffer %q: %w", desc.Label, ErrNoAttachments)
	}

	colors := make([]backend.Texture, len(desc.ColorAttachments))
	var width, height uint32
	for i, th := range desc.ColorAttachments {
		tex, ok := d.textures.Get(th)
		if !ok {
			return NilFramebuffer(), fmt.Errorf("rhi: create framebuffer %q: color attachment %d: %w",
				desc.Label, i, ErrInvalidHandle)
		}
		colors[i] = tex.native
		if i == 0 {
			width, height = tex.Width(), tex.Height()
		}
	}

	var depth backend.Texture
	if !desc.DepthAttachment.IsNil() {
		tex, ok := d.textures.Get(desc.DepthAttachment)
		if !ok {
			return NilFramebuffer(), fmt.Errorf("rhi: create framebuffer %q: depth attachment: %w",
				desc.Label, ErrInvalidHandle)
		}
		depth = tex.native
	}

	native, err := d.backend.CreateFramebuffer(&backend.FramebufferDescriptor{
		Label:        desc.Label,
		ColorTargets: colors,
		DepthTarget:  depth,
	})
	if err != nil {
		return NilFramebuffer(), fmt.Errorf("rhi: create framebuffer %q on backend %s: %w",
			desc.Label, d.backend.Name(), err)
	}
	h, _ := d.framebuffers.Alloc(&Framebuffer{native: native, label: desc.Label, width: width, height: height})
	return h, nil
}

// CreateShaderProgram compiles a shader and returns its handle. A
// compilation failure carries the backend, stage, and entry point.
func (d *Device) CreateShaderProgram(desc ShaderDesc) (ShaderHandle, error) {
	if d.closed {
		return NilShader(), ErrDeviceClosed
	}
	if desc.Source == "" {
		return NilShader(), fmt.Errorf("rhi: compile %s shader %q: %w", desc.Stage, desc.Label, ErrEmptyShaderSource)
	}
	if desc.EntryPoint == "" {
		return NilShader(), fmt.Errorf("rhi: compile %s shader %q: %w", desc.Stage, desc.Label, ErrEmptyEntryPoint)
	}
	native, err := d.backend.CompileShader(&backend.ShaderDescriptor{
		Label:      desc.Label,
		Stage:      desc.Stage,
		EntryPoint: desc.EntryPoint,
		Source:     desc.Source,
	})
	if err != nil {
		return NilShader(), fmt.Errorf("rhi: compile %s shader %q (entry %q) on backend %s: %w",
			desc.Stage, desc.Label, desc.EntryPoint, d.backend.Name(), err)
	}
	h, _ := d.shaders.Alloc(newShaderProgram(native, desc))
	Logger().Debug("rhi: shader compiled", "label", desc.Label, "stage", desc.Stage, "handle", h)
	return h, nil
}

// CreatePipeline creates a render pipeline for the abstract state in desc,
// reusing the cached native pipeline when an identical one already exists.
// Both shader handles must be live and target their declared stages.
func (d *Device) CreatePipeline(desc PipelineDesc) (PipelineHandle, error) {
	if d.closed {
		return NilPipeline(), ErrDeviceClosed
	}
	vs, ok := d.shaders.Get(desc.VertexShader)
	if !ok {
		return NilPipeline(), fmt.Errorf("rhi: create pipeline %q: vertex shader: %w", desc.Label, ErrInvalidHandle)
	}
	if vs.Stage() != StageVertex {
		return NilPipeline(), fmt.Errorf("rhi: create pipeline %q: shader %q targets %s, need vertex: %w",
			desc.Label, vs.Label(), vs.Stage(), ErrShaderStageMismatch)
	}
	fs, ok := d.shaders.Get(desc.FragmentShader)
	if !ok {
		return NilPipeline(), fmt.Errorf("rhi: create pipeline %q: fragment shader: %w", desc.Label, ErrInvalidHandle)
	}
	if fs.Stage() != StageFragment {
		return NilPipeline(), fmt.Errorf("rhi: create pipeline %q: shader %q targets %s, need fragment: %w",
			desc.Label, fs.Label(), fs.Stage(), ErrShaderStageMismatch)
	}
	if desc.SampleCount == 0 {
		desc.SampleCount = d.opts.SampleCount
	}

	key := PipelineKey{
		VertexShader:   vs.id,
		FragmentShader: fs.id,
		Blend:          desc.Blend,
		Depth:          desc.Depth,
		Stencil:        desc.Stencil,
		Raster:         desc.Raster,
		Topology:       desc.Topology,
		ColorFormat:    d.opts.ColorFormat,
		DepthFormat:    d.opts.DepthFormat,
		SampleCount:    desc.SampleCount,
	}

	native, err := d.cache.getOrCreate(key, func() (backend.Pipeline, error) {
		Logger().Debug("rhi: pipeline cache miss", "label", desc.Label)
		return d.backend.CreatePipeline(&backend.PipelineDescriptor{
			Label:              desc.Label,
			VertexShader:       vs.native,
			VertexEntryPoint:   vs.EntryPoint(),
			FragmentShader:     fs.native,
			FragmentEntryPoint: fs.EntryPoint(),
			Topology:           convertTopology(desc.Topology),
			FrontFace:          convertFrontFace(desc.Raster.FrontFace),
			CullMode:           convertCullMode(desc.Raster.Cull),
			Blend:              convertBlend(desc.Blend),
			DepthStencil:       convertDepthStencil(desc.Depth, desc.Stencil, d.opts.DepthFormat),
			ColorFormat:        d.opts.ColorFormat,
			SampleCount:        desc.SampleCount,
		})
	})
	if err != nil {
		return NilPipeline(), fmt.Errorf("rhi: create pipeline %q on backend %s: %w",
			desc.Label, d.backend.Name(), err)
	}

	h, _ := d.pipelines.Alloc(&Pipeline{native: native, desc: desc, key: key})
	return h, nil
}

// DestroyBuffer releases the buffer and invalidates its handle. Returns
// false without effect when the handle is already invalid.
func (d *Device) DestroyBuffer(h BufferHandle) bool { return d.buffers.Release(h) }

// DestroyTexture releases the texture and invalidates its handle.
func (d *Device) DestroyTexture(h TextureHandle) bool { return d.textures.Release(h) }

// DestroySampler releases the sampler and invalidates its handle.
func (d *Device) DestroySampler(h SamplerHandle) bool { return d.samplers.Release(h) }

// DestroyFramebuffer releases the framebuffer and invalidates its handle.
// The attached textures stay alive; they have their own handles.
func (d *Device) DestroyFramebuffer(h FramebufferHandle) bool { return d.framebuffers.Release(h) }

// DestroyShaderProgram releases the shader module and invalidates its
// handle. Pipelines already created from it keep working: the cache holds
// the compiled native pipeline.
func (d *Device) DestroyShaderProgram(h ShaderHandle) bool { return d.shaders.Release(h) }

// DestroyPipeline invalidates the pipeline handle. The cached native
// pipeline stays in the cache for future identical descriptions.
func (d *Device) DestroyPipeline(h PipelineHandle) bool { return d.pipelines.Release(h) }

// GetBuffer resolves a buffer handle for introspection.
func (d *Device) GetBuffer(h BufferHandle) (*Buffer, bool) { return d.buffers.Get(h) }

// GetTexture resolves a texture handle for introspection.
func (d *Device) GetTexture(h TextureHandle) (*Texture, bool) { return d.textures.Get(h) }

// GetSampler resolves a sampler handle for introspection.
func (d *Device) GetSampler(h SamplerHandle) (*Sampler, bool) { return d.samplers.Get(h) }

// GetFramebuffer resolves a framebuffer handle for introspection.
func (d *Device) GetFramebuffer(h FramebufferHandle) (*Framebuffer, bool) { return d.framebuffers.Get(h) }

// GetShaderProgram resolves a shader handle for introspection.
func (d *Device) GetShaderProgram(h ShaderHandle) (*ShaderProgram, bool) { return d.shaders.Get(h) }

// GetPipeline resolves a pipeline handle for introspection.
func (d *Device) GetPipeline(h PipelineHandle) (*Pipeline, bool) { return d.pipelines.Get(h) }

// UpdateBuffer uploads data at offset into a live buffer. Unlike the
// binding calls, a stale handle here is an error: losing an upload
// corrupts data rather than skipping a draw.
func (d *Device) UpdateBuffer(h BufferHandle, offset uint64, data []byte) error {
	buf, ok := d.buffers.Get(h)
	if !ok {
		return fmt.Errorf("rhi: update buffer: %w", ErrInvalidHandle)
	}
	if err := d.backend.WriteBuffer(buf.native, offset, data); err != nil {
		return fmt.Errorf("rhi: update buffer %q: %w", buf.Label(), err)
	}
	return nil
}

// UpdateTexture uploads tightly packed texel data covering the full first
// mip level of a live texture.
func (d *Device) UpdateTexture(h TextureHandle, data []byte) error {
	tex, ok := d.textures.Get(h)
	if !ok {
		return fmt.Errorf("rhi: update texture: %w", ErrInvalidHandle)
	}
	if err := d.backend.WriteTexture(tex.native, data); err != nil {
		return fmt.Errorf("rhi: update texture %q: %w", tex.Label(), err)
	}
	return nil
}

// BeginFrame starts command recording. Binding and draw calls outside a
// frame are discarded with a warning.
func (d *Device) BeginFrame() error {
	if d.closed {
		return ErrDeviceClosed
	}
	if err := d.backend.BeginFrame(); err != nil {
		return fmt.Errorf("rhi: begin frame: %w", err)
	}
	d.inFrame = true
	return nil
}

// EndFrame submits the recorded commands.
func (d *Device) EndFrame() error {
	if !d.inFrame {
		return fmt.Errorf("rhi: end frame: %w", backend.ErrNoFrame)
	}
	d.inFrame = false
	if err := d.backend.EndFrame(); err != nil {
		return fmt.Errorf("rhi: end frame: %w", err)
	}
	return nil
}

func (d *Device) recording(op string) bool {
	if !d.inFrame {
		Logger().Warn("rhi: recording call outside frame, skipped", "op", op)
		return false
	}
	return true
}

// SetRenderTarget redirects subsequent draws to a framebuffer. A nil or
// stale handle selects the backbuffer: a single bad frame must not take
// down the render loop.
func (d *Device) SetRenderTarget(h FramebufferHandle) {
	if !d.recording("SetRenderTarget") {
		return
	}
	if h.IsNil() {
		d.backend.SetRenderTarget(nil)
		return
	}
	fb, ok := d.framebuffers.Get(h)
	if !ok {
		Logger().Warn("rhi: stale framebuffer handle, using backbuffer", "handle", h)
		d.backend.SetRenderTarget(nil)
		return
	}
	d.backend.SetRenderTarget(fb.native)
}

// SetPipeline binds a pipeline. A stale handle is skipped.
func (d *Device) SetPipeline(h PipelineHandle) {
	if !d.recording("SetPipeline") {
		return
	}
	p, ok := d.pipelines.Get(h)
	if !ok {
		Logger().Warn("rhi: stale pipeline handle, bind skipped", "handle", h)
		return
	}
	d.backend.SetPipeline(p.native)
}

// BindVertexBuffer binds a buffer to a vertex input slot. A stale handle
// is skipped.
func (d *Device) BindVertexBuffer(slot uint32, h BufferHandle, offset uint64) {
	if !d.recording("BindVertexBuffer") {
		return
	}
	buf, ok := d.buffers.Get(h)
	if !ok {
		Logger().Warn("rhi: stale buffer handle, vertex bind skipped", "slot", slot, "handle", h)
		return
	}
	d.backend.SetVertexBuffer(slot, buf.native, offset)
}

// BindIndexBuffer binds the index buffer. A stale handle is skipped.
func (d *Device) BindIndexBuffer(h BufferHandle, format gputypes.IndexFormat, offset uint64) {
	if !d.recording("BindIndexBuffer") {
		return
	}
	buf, ok := d.buffers.Get(h)
	if !ok {
		Logger().Warn("rhi: stale buffer handle, index bind skipped", "handle", h)
		return
	}
	d.backend.SetIndexBuffer(buf.native, format, offset)
}

// BindTexture binds a texture and sampler pair to a shader slot. A stale
// texture handle skips the bind; a stale sampler handle binds the texture
// with the backend's default sampling.
func (d *Device) BindTexture(slot uint32, th TextureHandle, sh SamplerHandle) {
	if !d.recording("BindTexture") {
		return
	}
	tex, ok := d.textures.Get(th)
	if !ok {
		Logger().Warn("rhi: stale texture handle, bind skipped", "slot", slot, "handle", th)
		return
	}
	var smp backend.Sampler
	if s, ok := d.samplers.Get(sh); ok {
		smp = s.native
	} else if !sh.IsNil() {
		Logger().Warn("rhi: stale sampler handle, using default sampling", "slot", slot, "handle", sh)
	}
	d.backend.BindTexture(slot, tex.native, smp)
}

// SetViewport sets the viewport in pixels.
func (d *Device) SetViewport(x, y, width, height float32) {
	if !d.recording("SetViewport") {
		return
	}
	d.backend.SetViewport(x, y, width, height)
}

// SetScissorRect sets the scissor rectangle in pixels.
func (d *Device) SetScissorRect(x, y, width, height uint32) {
	if !d.recording("SetScissorRect") {
		return
	}
	d.backend.SetScissorRect(x, y, width, height)
}

// Draw issues a non-indexed draw with the current bindings.
func (d *Device) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !d.recording("Draw") {
		return
	}
	d.backend.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// DrawIndexed issues an indexed draw with the current bindings.
func (d *Device) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if !d.recording("DrawIndexed") {
		return
	}
	d.backend.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

// Flush submits the commands recorded so far and immediately starts a new
// frame, keeping the recording surface open. Outside a frame it is a no-op.
func (d *Device) Flush() error {
	if !d.inFrame {
		return nil
	}
	if err := d.EndFrame(); err != nil {
		return fmt.Errorf("rhi: flush: %w", err)
	}
	return d.BeginFrame()
}

// Resize recreates the backbuffer at the new dimensions. Cached native
// pipelines reference the old output configuration, so the pipeline cache
// is cleared and every outstanding pipeline handle is invalidated; callers
// recreate pipelines from their descriptions, which hits the backend once
// per distinct state. Not valid during a frame.
func (d *Device) Resize(width, height uint32) error {
	if d.closed {
		return ErrDeviceClosed
	}
	if d.inFrame {
		return fmt.Errorf("rhi: resize: %w", ErrFrameInProgress)
	}
	if width == 0 || height == 0 {
		return fmt.Errorf("rhi: resize to %dx%d: %w", width, height, ErrZeroSize)
	}
	if err := d.backend.Resize(width, height); err != nil {
		return fmt.Errorf("rhi: resize: %w", err)
	}
	d.opts.Width = width
	d.opts.Height = height
	d.pipelines.Clear()
	d.cache.clear()
	Logger().Info("rhi: device resized", "width", width, "height", height)
	return nil
}

// PipelineCacheStats returns hit/miss counters and the current entry count.
func (d *Device) PipelineCacheStats() PipelineCacheStats { return d.cache.stats() }

// PipelineCacheHitRate returns the fraction of pipeline creations served
// from the cache, or 0 before any creation.
func (d *Device) PipelineCacheHitRate() float64 { return d.cache.hitRate() }

// Destroy releases every live resource, the pipeline cache, and the
// backend. The device and all handles issued by it are unusable afterward.
// Destroy is idempotent.
func (d *Device) Destroy() {
	if d.closed {
		return
	}
	d.closed = true
	d.inFrame = false

	// Pipelines first: their natives live in the cache.
	d.pipelines.Clear()
	d.cache.clear()
	d.framebuffers.Clear()
	d.samplers.Clear()
	d.textures.Clear()
	d.buffers.Clear()
	d.shaders.Clear()

	d.backend.Close()
	Logger().Info("rhi: device destroyed", "backend", d.backend.Name())
}
