// Package wgpu implements the rhi backend on top of the wgpu hardware
// abstraction layer. It opens the first suitable GPU adapter, owns the
// backbuffer render targets, and translates the backend's immediate-mode
// recording surface into hal render passes.
//
// Import for side effects to register it:
//
//	import _ "github.com/gogpu/rhi/backend/wgpu"
package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi/backend"
)

// Adapter and device errors.
var (
	// ErrNoVulkan is returned when the Vulkan hal backend is not compiled in.
	ErrNoVulkan = errors.New("wgpu: vulkan backend not available")

	// ErrNoAdapter is returned when adapter enumeration finds no GPU.
	ErrNoAdapter = errors.New("wgpu: no GPU adapters found")
)

// init registers the wgpu backend on package import.
func init() {
	backend.Register(backend.BackendWgpu, func() backend.Backend {
		return New()
	})
}

// maxTextureSlots is the number of fragment texture binding slots the
// backend exposes. Each slot is one bind group holding a sampled texture
// at binding 0 and a sampler at binding 1; shaders address slot N as
// group(N).
const maxTextureSlots = 4

// Backend drives a hal device. Not safe for concurrent use, matching the
// backend.Backend contract.
type Backend struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	opts        backend.InitOptions
	initialized bool

	// Shared layouts: one texture-slot bind group layout repeated for
	// every slot in each pipeline layout.
	textureLayout  hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	defaultSampler hal.Sampler

	// Backbuffer target.
	target targetSet

	frame frameState

	// Transient bind groups created by BindTexture, keyed by the bound
	// pair and reused across frames until Close.
	bindGroups map[bindKey]hal.BindGroup
}

// bindKey identifies a texture+sampler bind group.
type bindKey struct {
	tex *wgpuTexture
	smp hal.Sampler
}

// New creates an unregistered wgpu backend instance. Most callers go
// through the registry instead.
func New() *Backend {
	return &Backend{bindGroups: make(map[bindKey]hal.BindGroup)}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendWgpu }

// Init opens a GPU device and creates the backbuffer targets.
func (b *Backend) Init(opts backend.InitOptions) error {
	if err := b.openDevice(); err != nil {
		return err
	}
	b.opts = opts

	textureLayout, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "rhi_texture_slot_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture:    &gputypes.TextureBindingLayout{},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		b.teardownDevice()
		return fmt.Errorf("wgpu: create texture slot layout: %w", err)
	}
	b.textureLayout = textureLayout

	slots := make([]hal.BindGroupLayout, maxTextureSlots)
	for i := range slots {
		slots[i] = textureLayout
	}
	pipelineLayout, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "rhi_pipeline_layout",
		BindGroupLayouts: slots,
	})
	if err != nil {
		b.teardownDevice()
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	b.pipelineLayout = pipelineLayout

	defaultSampler, err := b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "rhi_default_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		b.teardownDevice()
		return fmt.Errorf("wgpu: create default sampler: %w", err)
	}
	b.defaultSampler = defaultSampler

	if err := b.target.create(b.device, opts); err != nil {
		b.teardownDevice()
		return err
	}

	b.initialized = true
	return nil
}

// openDevice selects and opens a GPU adapter, preferring discrete and
// integrated GPUs over software implementations.
func (b *Backend) openDevice() error {
	halBackend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return ErrNoVulkan
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("wgpu: open adapter %q: %w", selected.Info.Name, err)
	}
	b.instance = instance
	b.device = openDev.Device
	b.queue = openDev.Queue
	return nil
}

func (b *Backend) teardownDevice() {
	if b.defaultSampler != nil {
		b.device.DestroySampler(b.defaultSampler)
		b.defaultSampler = nil
	}
	if b.pipelineLayout != nil {
		b.device.DestroyPipelineLayout(b.pipelineLayout)
		b.pipelineLayout = nil
	}
	if b.textureLayout != nil {
		b.device.DestroyBindGroupLayout(b.textureLayout)
		b.textureLayout = nil
	}
	if b.device != nil {
		b.device.Destroy()
		b.device = nil
		b.queue = nil
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
}

// Close releases all backend resources.
func (b *Backend) Close() {
	if b.device == nil {
		return
	}
	for key, bg := range b.bindGroups {
		b.device.DestroyBindGroup(bg)
		delete(b.bindGroups, key)
	}
	b.target.destroy(b.device)
	b.teardownDevice()
	b.initialized = false
}

// Resize recreates the backbuffer targets at the new dimensions.
func (b *Backend) Resize(width, height uint32) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	b.target.destroy(b.device)
	b.opts.Width = width
	b.opts.Height = height
	return b.target.create(b.device, b.opts)
}

// targetSet owns the backbuffer color and depth textures.
type targetSet struct {
	colorTex  hal.Texture
	colorView hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView
}

func (t *targetSet) create(device hal.Device, opts backend.InitOptions) error {
	size := hal.Extent3D{Width: opts.Width, Height: opts.Height, DepthOrArrayLayers: 1}

	colorTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "rhi_backbuffer_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   opts.SampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        opts.ColorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create backbuffer color texture: %w", err)
	}
	t.colorTex = colorTex

	colorView, err := device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
		Label: "rhi_backbuffer_color_view",
	})
	if err != nil {
		t.destroy(device)
		return fmt.Errorf("wgpu: create backbuffer color view: %w", err)
	}
	t.colorView = colorView

	if opts.DepthFormat == gputypes.TextureFormatUndefined {
		return nil
	}

	depthTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "rhi_backbuffer_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   opts.SampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        opts.DepthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.destroy(device)
		return fmt.Errorf("wgpu: create backbuffer depth texture: %w", err)
	}
	t.depthTex = depthTex

	depthView, err := device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label: "rhi_backbuffer_depth_view",
	})
	if err != nil {
		t.destroy(device)
		return fmt.Errorf("wgpu: create backbuffer depth view: %w", err)
	}
	t.depthView = depthView
	return nil
}

func (t *targetSet) destroy(device hal.Device) {
	if t.depthView != nil {
		device.DestroyTextureView(t.depthView)
		t.depthView = nil
	}
	if t.depthTex != nil {
		device.DestroyTexture(t.depthTex)
		t.depthTex = nil
	}
	if t.colorView != nil {
		device.DestroyTextureView(t.colorView)
		t.colorView = nil
	}
	if t.colorTex != nil {
		device.DestroyTexture(t.colorTex)
		t.colorTex = nil
	}
}
