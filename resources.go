package rhi

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi/backend"
)

// BufferDesc describes a GPU buffer.
type BufferDesc struct {
	// Label names the buffer in logs and native debug layers. Optional.
	Label string

	// Size in bytes. Must be nonzero.
	Size uint64

	// Usage declares how the buffer will be bound.
	Usage gputypes.BufferUsage
}

// Buffer is a device-owned GPU buffer. Access it through its handle; the
// struct itself is an internal pool entry.
type Buffer struct {
	native backend.Buffer
	desc   BufferDesc
}

// Label returns the debug label given at creation.
func (b *Buffer) Label() string { return b.desc.Label }

// Size returns the size in bytes.
func (b *Buffer) Size() uint64 { return b.desc.Size }

// Usage returns the usage flags.
func (b *Buffer) Usage() gputypes.BufferUsage { return b.desc.Usage }

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Label string

	// Dimensions in texels. Both must be nonzero.
	Width  uint32
	Height uint32

	// MipLevels of 0 is treated as 1.
	MipLevels uint32

	// SampleCount of 0 is treated as 1.
	SampleCount uint32

	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
}

// Texture is a device-owned 2D texture.
type Texture struct {
	native backend.Texture
	desc   TextureDesc
}

func (t *Texture) Label() string                  { return t.desc.Label }
func (t *Texture) Width() uint32                  { return t.desc.Width }
func (t *Texture) Height() uint32                 { return t.desc.Height }
func (t *Texture) Format() gputypes.TextureFormat { return t.desc.Format }

// SamplerDesc describes a texture sampler. The zero value is a nearest
// clamping sampler.
type SamplerDesc struct {
	Label        string
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
}

// Sampler is a device-owned texture sampler.
type Sampler struct {
	native backend.Sampler
	desc   SamplerDesc
}

func (s *Sampler) Label() string { return s.desc.Label }

// FramebufferDesc describes an offscreen render target. Attachments are
// texture handles previously created on the same device; every handle must
// be live at creation time.
type FramebufferDesc struct {
	Label string

	// ColorAttachments must contain at least one handle.
	ColorAttachments []TextureHandle

	// DepthAttachment is optional; NilTexture() means color-only.
	DepthAttachment TextureHandle
}

// Framebuffer is a device-owned render target.
type Framebuffer struct {
	native backend.Framebuffer
	label  string

	// Resolved attachment dimensions, taken from the first color target.
	width  uint32
	height uint32
}

func (f *Framebuffer) Label() string  { return f.label }
func (f *Framebuffer) Width() uint32  { return f.width }
func (f *Framebuffer) Height() uint32 { return f.height }
