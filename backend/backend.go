// Package backend defines the boundary between the rhi resource layer and
// a native graphics API. Implementations live in subpackages (wgpu, null)
// and register themselves with this package's registry on import.
//
// The descriptor structs here are backend-facing: their state fields are
// already converted from the abstract rhi/state vocabulary into gputypes
// and wgpu/hal values by the rhi package. Backends consume them verbatim.
package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrNoFrame is returned when recording is attempted outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("backend: no frame in progress")
)

// Resource is the minimal capability surface shared by every native
// object handed across the boundary. Destroy releases the native object
// and must be safe to call exactly once.
type Resource interface {
	Destroy()
	Label() string
}

// Opaque native objects. The rhi layer never inspects these beyond the
// Resource surface; they only flow back into the backend that created them.
type (
	Buffer interface{ Resource }
	Texture interface {
		Resource
		Format() gputypes.TextureFormat
		Width() uint32
		Height() uint32
	}
	Sampler      interface{ Resource }
	Framebuffer  interface{ Resource }
	ShaderModule interface{ Resource }
	Pipeline     interface{ Resource }
)

// ShaderStage identifies the pipeline stage a shader module targets.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageFragment
)

// String returns the string representation of ShaderStage.
func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// TextureDescriptor describes a 2D texture to create.
type TextureDescriptor struct {
	Label       string
	Width       uint32
	Height      uint32
	MipLevels   uint32
	SampleCount uint32
	Format      gputypes.TextureFormat
	Usage       gputypes.TextureUsage
}

// SamplerDescriptor describes a texture sampler to create.
type SamplerDescriptor struct {
	Label        string
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
}

// FramebufferDescriptor describes a render target built from textures
// previously created on the same backend.
type FramebufferDescriptor struct {
	Label        string
	ColorTargets []Texture
	DepthTarget  Texture // nil for color-only targets
}

// ShaderDescriptor describes a shader module to compile. Source is WGSL;
// backends that consume another shading language cross-compile it.
type ShaderDescriptor struct {
	Label      string
	Stage      ShaderStage
	EntryPoint string
	Source     string
}

// BlendComponent is one converted blend equation (color or alpha).
type BlendComponent struct {
	SrcFactor gputypes.BlendFactor
	DstFactor gputypes.BlendFactor
	Operation gputypes.BlendOperation
}

// BlendState is the converted blend configuration for the color target.
// A nil *BlendState on the pipeline descriptor means blending is disabled.
type BlendState struct {
	Color BlendComponent
	Alpha BlendComponent
}

// StencilFaceState is the converted per-facing stencil configuration.
type StencilFaceState struct {
	Compare     gputypes.CompareFunction
	FailOp      hal.StencilOperation
	DepthFailOp hal.StencilOperation
	PassOp      hal.StencilOperation
}

// DepthStencilState is the converted depth/stencil configuration.
// A nil *DepthStencilState on the pipeline descriptor means the pipeline
// has no depth attachment.
type DepthStencilState struct {
	Format            gputypes.TextureFormat
	DepthWriteEnabled bool
	DepthCompare      gputypes.CompareFunction
	StencilFront      StencilFaceState
	StencilBack       StencilFaceState
	StencilReadMask   uint32
	StencilWriteMask  uint32
}

// PipelineDescriptor describes a render pipeline to create. All state has
// already passed through the rhi state converters.
type PipelineDescriptor struct {
	Label string

	VertexShader       ShaderModule
	VertexEntryPoint   string
	FragmentShader     ShaderModule
	FragmentEntryPoint string

	Topology  gputypes.PrimitiveTopology
	FrontFace gputypes.FrontFace
	CullMode  gputypes.CullMode

	Blend        *BlendState
	DepthStencil *DepthStencilState

	ColorFormat gputypes.TextureFormat
	SampleCount uint32
}

// Backend is a native graphics API adapter. All methods must be driven
// from a single goroutine; see the rhi package documentation.
//
// Creation methods fail loudly with wrapped native errors. Recording
// methods (SetPipeline through DrawIndexed) are only valid between
// BeginFrame and EndFrame and never fail: the caller has already
// validated every argument against its pools.
type Backend interface {
	// Name returns the backend identifier (e.g., "null", "wgpu").
	Name() string

	// Init initializes the backend for the given backbuffer configuration.
	Init(opts InitOptions) error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	CreateBuffer(desc *BufferDescriptor) (Buffer, error)
	CreateTexture(desc *TextureDescriptor) (Texture, error)
	CreateSampler(desc *SamplerDescriptor) (Sampler, error)
	CreateFramebuffer(desc *FramebufferDescriptor) (Framebuffer, error)
	CompileShader(desc *ShaderDescriptor) (ShaderModule, error)
	CreatePipeline(desc *PipelineDescriptor) (Pipeline, error)

	// WriteBuffer uploads data at offset into a buffer.
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// WriteTexture uploads tightly packed texel data covering the full
	// first mip level.
	WriteTexture(tex Texture, data []byte) error

	// BeginFrame starts command recording against the backbuffer.
	BeginFrame() error

	// SetRenderTarget redirects subsequent draws. A nil framebuffer
	// selects the default backbuffer target.
	SetRenderTarget(fb Framebuffer)

	SetViewport(x, y, width, height float32)
	SetScissorRect(x, y, width, height uint32)
	SetPipeline(p Pipeline)
	SetVertexBuffer(slot uint32, buf Buffer, offset uint64)
	SetIndexBuffer(buf Buffer, format gputypes.IndexFormat, offset uint64)
	BindTexture(slot uint32, tex Texture, smp Sampler)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)

	// EndFrame submits the recorded commands.
	EndFrame() error

	// Resize recreates the default backbuffer target at the new
	// dimensions. Not valid during a frame.
	Resize(width, height uint32) error
}

// InitOptions configures backend initialization.
type InitOptions struct {
	// Backbuffer dimensions in pixels.
	Width  uint32
	Height uint32

	// ColorFormat is the backbuffer color format.
	ColorFormat gputypes.TextureFormat

	// DepthFormat is the backbuffer depth/stencil format.
	// TextureFormatUndefined disables the default depth attachment.
	DepthFormat gputypes.TextureFormat

	// SampleCount is the backbuffer MSAA sample count (1 = no MSAA).
	SampleCount uint32
}
