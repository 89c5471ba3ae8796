package rhi

import "github.com/gogpu/rhi/pool"

// Handle is an opaque, generation-validated reference to a device-owned
// resource. See [pool.Handle].
type Handle[T comparable] = pool.Handle[T]

// Typed handles for each resource kind the device pools.
type (
	BufferHandle      = Handle[*Buffer]
	TextureHandle     = Handle[*Texture]
	SamplerHandle     = Handle[*Sampler]
	FramebufferHandle = Handle[*Framebuffer]
	ShaderHandle      = Handle[*ShaderProgram]
	PipelineHandle    = Handle[*Pipeline]
)

// Nil handles for each resource kind. A nil handle never resolves; binding
// one is a no-op, and SetRenderTarget treats it as the backbuffer.
func NilBuffer() BufferHandle           { return pool.Nil[*Buffer]() }
func NilTexture() TextureHandle         { return pool.Nil[*Texture]() }
func NilSampler() SamplerHandle         { return pool.Nil[*Sampler]() }
func NilFramebuffer() FramebufferHandle { return pool.Nil[*Framebuffer]() }
func NilShader() ShaderHandle           { return pool.Nil[*ShaderProgram]() }
func NilPipeline() PipelineHandle       { return pool.Nil[*Pipeline]() }
