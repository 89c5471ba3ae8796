// Package null provides a headless in-memory backend. It performs no GPU
// work: every creation call returns a recording stub and every draw is
// counted and discarded.
//
// The null backend serves two purposes: it keeps the resource layer usable
// on machines without GPU support (CI, servers), and it gives tests a real
// backend whose observable state (creation/destruction counts, current
// bindings) can be asserted against.
//
// Import for side effects to register it:
//
//	import _ "github.com/gogpu/rhi/backend/null"
package null

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi/backend"
)

// Shader compilation errors.
var (
	// ErrEmptyShaderSource is returned when CompileShader gets no source.
	ErrEmptyShaderSource = errors.New("null: shader source is empty")

	// ErrEmptyEntryPoint is returned when CompileShader gets no entry point.
	ErrEmptyEntryPoint = errors.New("null: shader entry point is empty")
)

// init registers the null backend on package import.
func init() {
	backend.Register(backend.BackendNull, func() backend.Backend {
		return New()
	})
}

// Stats counts backend activity for diagnostics and tests.
type Stats struct {
	BuffersCreated        int
	BuffersDestroyed      int
	TexturesCreated       int
	TexturesDestroyed     int
	SamplersCreated       int
	SamplersDestroyed     int
	FramebuffersCreated   int
	FramebuffersDestroyed int
	ShadersCompiled       int
	ShadersDestroyed      int
	PipelinesCreated      int
	PipelinesDestroyed    int
	BufferWrites          int
	TextureWrites         int
	Draws                 int
	DrawsIndexed          int
	Frames                int
}

// Backend is the headless backend. Not safe for concurrent use, matching
// the backend.Backend contract.
type Backend struct {
	initialized bool
	inFrame     bool
	opts        backend.InitOptions
	stats       Stats

	// Current recording state, observable by tests.
	currentTarget   backend.Framebuffer // nil = backbuffer
	currentPipeline backend.Pipeline
}

// New creates an unregistered null backend instance. Most callers go
// through the registry instead; tests construct directly for inspection.
func New() *Backend {
	return &Backend{}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendNull }

// Init initializes the backend.
func (b *Backend) Init(opts backend.InitOptions) error {
	b.opts = opts
	b.initialized = true
	return nil
}

// Close releases all backend resources.
func (b *Backend) Close() {
	b.initialized = false
	b.inFrame = false
	b.currentTarget = nil
	b.currentPipeline = nil
}

// Stats returns a snapshot of the activity counters.
func (b *Backend) Stats() Stats { return b.stats }

// BackbufferBound reports whether draws currently target the backbuffer.
func (b *Backend) BackbufferBound() bool { return b.currentTarget == nil }

// CurrentPipeline returns the pipeline bound by the last SetPipeline.
func (b *Backend) CurrentPipeline() backend.Pipeline { return b.currentPipeline }

// resource is the shared stub storage for all null resource kinds.
type resource struct {
	label string
}

func (r *resource) Label() string { return r.label }

type nullBuffer struct {
	resource
	b    *Backend
	size uint64
	data []byte
}

func (n *nullBuffer) Destroy() { n.b.stats.BuffersDestroyed++ }

type nullTexture struct {
	resource
	b      *Backend
	width  uint32
	height uint32
	format gputypes.TextureFormat
}

func (n *nullTexture) Destroy() { n.b.stats.TexturesDestroyed++ }

func (n *nullTexture) Format() gputypes.TextureFormat { return n.format }

func (n *nullTexture) Width() uint32  { return n.width }
func (n *nullTexture) Height() uint32 { return n.height }

type nullSampler struct {
	resource
	b *Backend
}

func (n *nullSampler) Destroy() { n.b.stats.SamplersDestroyed++ }

type nullFramebuffer struct {
	resource
	b *Backend
}

func (n *nullFramebuffer) Destroy() { n.b.stats.FramebuffersDestroyed++ }

type nullShader struct {
	resource
	b     *Backend
	stage backend.ShaderStage
	entry string
}

func (n *nullShader) Destroy() { n.b.stats.ShadersDestroyed++ }

type nullPipeline struct {
	resource
	b *Backend
}

func (n *nullPipeline) Destroy() { n.b.stats.PipelinesDestroyed++ }

// CreateBuffer allocates an in-memory buffer stub.
func (b *Backend) CreateBuffer(desc *backend.BufferDescriptor) (backend.Buffer, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	b.stats.BuffersCreated++
	return &nullBuffer{
		resource: resource{label: desc.Label},
		b:        b,
		size:     desc.Size,
		data:     make([]byte, desc.Size),
	}, nil
}

// CreateTexture allocates a texture stub.
func (b *Backend) CreateTexture(desc *backend.TextureDescriptor) (backend.Texture, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	b.stats.TexturesCreated++
	return &nullTexture{
		resource: resource{label: desc.Label},
		b:        b,
		width:    desc.Width,
		height:   desc.Height,
		format:   desc.Format,
	}, nil
}

// CreateSampler allocates a sampler stub.
func (b *Backend) CreateSampler(desc *backend.SamplerDescriptor) (backend.Sampler, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	b.stats.SamplersCreated++
	return &nullSampler{resource: resource{label: desc.Label}, b: b}, nil
}

// CreateFramebuffer allocates a framebuffer stub.
func (b *Backend) CreateFramebuffer(desc *backend.FramebufferDescriptor) (backend.Framebuffer, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	b.stats.FramebuffersCreated++
	return &nullFramebuffer{resource: resource{label: desc.Label}, b: b}, nil
}

// CompileShader validates the descriptor and returns a shader stub. The
// source is not parsed; the null backend accepts any non-empty WGSL.
func (b *Backend) CompileShader(desc *backend.ShaderDescriptor) (backend.ShaderModule, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	if desc.Source == "" {
		return nil, ErrEmptyShaderSource
	}
	if desc.EntryPoint == "" {
		return nil, ErrEmptyEntryPoint
	}
	b.stats.ShadersCompiled++
	return &nullShader{
		resource: resource{label: desc.Label},
		b:        b,
		stage:    desc.Stage,
		entry:    desc.EntryPoint,
	}, nil
}

// CreatePipeline allocates a pipeline stub. Every call creates a distinct
// object, so cache deduplication is directly observable in the counters.
func (b *Backend) CreatePipeline(desc *backend.PipelineDescriptor) (backend.Pipeline, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	if desc.VertexShader == nil || desc.FragmentShader == nil {
		return nil, fmt.Errorf("null: pipeline %q: missing shader module", desc.Label)
	}
	b.stats.PipelinesCreated++
	return &nullPipeline{resource: resource{label: desc.Label}, b: b}, nil
}

// WriteBuffer copies data into the stub's backing store.
func (b *Backend) WriteBuffer(buf backend.Buffer, offset uint64, data []byte) error {
	nb, ok := buf.(*nullBuffer)
	if !ok {
		return fmt.Errorf("null: foreign buffer %T", buf)
	}
	if offset+uint64(len(data)) > nb.size {
		return fmt.Errorf("null: write of %d bytes at %d exceeds buffer size %d", len(data), offset, nb.size)
	}
	copy(nb.data[offset:], data)
	b.stats.BufferWrites++
	return nil
}

// WriteTexture accepts and discards texel data.
func (b *Backend) WriteTexture(tex backend.Texture, data []byte) error {
	if _, ok := tex.(*nullTexture); !ok {
		return fmt.Errorf("null: foreign texture %T", tex)
	}
	_ = data
	b.stats.TextureWrites++
	return nil
}

// BeginFrame starts a recording frame.
func (b *Backend) BeginFrame() error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	b.inFrame = true
	b.currentTarget = nil
	b.currentPipeline = nil
	return nil
}

// SetRenderTarget records the draw target; nil selects the backbuffer.
func (b *Backend) SetRenderTarget(fb backend.Framebuffer) {
	b.currentTarget = fb
}

// SetViewport records and discards the viewport.
func (b *Backend) SetViewport(x, y, width, height float32) {}

// SetScissorRect records and discards the scissor rectangle.
func (b *Backend) SetScissorRect(x, y, width, height uint32) {}

// SetPipeline records the bound pipeline.
func (b *Backend) SetPipeline(p backend.Pipeline) {
	b.currentPipeline = p
}

// SetVertexBuffer records and discards the binding.
func (b *Backend) SetVertexBuffer(slot uint32, buf backend.Buffer, offset uint64) {}

// SetIndexBuffer records and discards the binding.
func (b *Backend) SetIndexBuffer(buf backend.Buffer, format gputypes.IndexFormat, offset uint64) {}

// BindTexture records and discards the binding.
func (b *Backend) BindTexture(slot uint32, tex backend.Texture, smp backend.Sampler) {}

// Draw counts a non-indexed draw.
func (b *Backend) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if b.inFrame {
		b.stats.Draws++
	}
}

// DrawIndexed counts an indexed draw.
func (b *Backend) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if b.inFrame {
		b.stats.DrawsIndexed++
	}
}

// EndFrame finishes the recording frame.
func (b *Backend) EndFrame() error {
	if !b.inFrame {
		return backend.ErrNoFrame
	}
	b.inFrame = false
	b.stats.Frames++
	return nil
}

// Resize records the new backbuffer dimensions.
func (b *Backend) Resize(width, height uint32) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	b.opts.Width = width
	b.opts.Height = height
	return nil
}
