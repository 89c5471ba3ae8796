package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi/backend"
)

// vertexBinding is one bound vertex buffer slot.
type vertexBinding struct {
	buf    hal.Buffer
	offset uint64
}

// indexBinding is the bound index buffer.
type indexBinding struct {
	buf    hal.Buffer
	format gputypes.IndexFormat
	offset uint64
}

// frameState tracks the encoder, the open render pass, and the bindings
// applied so far. Switching render targets ends the current pass and
// starts a new one, so the recorded bindings are re-applied to keep the
// recording surface target-independent.
type frameState struct {
	active  bool
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder

	// Current target; nil means the backbuffer.
	target *wgpuFramebuffer

	// Targets already cleared this frame; later passes on them load.
	backbufferCleared bool
	cleared           map[*wgpuFramebuffer]bool

	pipeline *wgpuPipeline
	vertex   map[uint32]vertexBinding
	index    *indexBinding
	groups   map[uint32]hal.BindGroup
	viewport *[4]float32
	scissor  *[4]uint32
}

// BeginFrame starts command recording against the backbuffer.
func (b *Backend) BeginFrame() error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "rhi_frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("rhi_frame"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	b.frame = frameState{
		active:  true,
		encoder: encoder,
		cleared: make(map[*wgpuFramebuffer]bool),
		vertex:  make(map[uint32]vertexBinding),
		groups:  make(map[uint32]hal.BindGroup),
	}
	return nil
}

// SetRenderTarget redirects subsequent draws; nil selects the backbuffer.
// The open pass, if any, is ended and a fresh pass against the new target
// begins on the next draw.
func (b *Backend) SetRenderTarget(fb backend.Framebuffer) {
	if !b.frame.active {
		return
	}
	var target *wgpuFramebuffer
	if fb != nil {
		target, _ = fb.(*wgpuFramebuffer)
	}
	if target == b.frame.target && b.frame.pass != nil {
		return
	}
	b.endPass()
	b.frame.target = target
}

// ensurePass opens a render pass against the current target if none is
// open, re-applying the recorded bindings.
func (b *Backend) ensurePass() hal.RenderPassEncoder {
	f := &b.frame
	if f.pass != nil {
		return f.pass
	}

	colorViews := []hal.TextureView{b.target.colorView}
	depthView := b.target.depthView
	loadOp := gputypes.LoadOpClear
	if f.target != nil {
		colorViews = f.target.colorViews
		depthView = f.target.depthView
		if f.cleared[f.target] {
			loadOp = gputypes.LoadOpLoad
		}
		f.cleared[f.target] = true
	} else {
		if f.backbufferCleared {
			loadOp = gputypes.LoadOpLoad
		}
		f.backbufferCleared = true
	}

	colors := make([]hal.RenderPassColorAttachment, len(colorViews))
	for i, view := range colorViews {
		colors[i] = hal.RenderPassColorAttachment{
			View:       view,
			LoadOp:     loadOp,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}
	}
	desc := &hal.RenderPassDescriptor{
		Label:            "rhi_pass",
		ColorAttachments: colors,
	}
	if depthView != nil {
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              depthView,
			DepthLoadOp:       loadOp,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     loadOp,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: 0,
		}
	}

	pass := f.encoder.BeginRenderPass(desc)
	f.pass = pass

	// Re-apply recorded state so caller bindings survive the pass switch.
	if f.pipeline != nil {
		pass.SetPipeline(f.pipeline.native)
	}
	for slot, vb := range f.vertex {
		pass.SetVertexBuffer(slot, vb.buf, vb.offset)
	}
	if f.index != nil {
		pass.SetIndexBuffer(f.index.buf, f.index.format, f.index.offset)
	}
	for slot, bg := range f.groups {
		pass.SetBindGroup(slot, bg, nil)
	}
	if f.viewport != nil {
		v := f.viewport
		pass.SetViewport(v[0], v[1], v[2], v[3], 0, 1)
	}
	if f.scissor != nil {
		s := f.scissor
		pass.SetScissorRect(s[0], s[1], s[2], s[3])
	}
	return pass
}

func (b *Backend) endPass() {
	if b.frame.pass != nil {
		b.frame.pass.End()
		b.frame.pass = nil
	}
}

// SetViewport sets the viewport with the full depth range.
func (b *Backend) SetViewport(x, y, width, height float32) {
	if !b.frame.active {
		return
	}
	b.frame.viewport = &[4]float32{x, y, width, height}
	if b.frame.pass != nil {
		b.frame.pass.SetViewport(x, y, width, height, 0, 1)
	}
}

// SetScissorRect sets the scissor rectangle.
func (b *Backend) SetScissorRect(x, y, width, height uint32) {
	if !b.frame.active {
		return
	}
	b.frame.scissor = &[4]uint32{x, y, width, height}
	if b.frame.pass != nil {
		b.frame.pass.SetScissorRect(x, y, width, height)
	}
}

// SetPipeline binds a render pipeline.
func (b *Backend) SetPipeline(p backend.Pipeline) {
	if !b.frame.active {
		return
	}
	wp, ok := p.(*wgpuPipeline)
	if !ok {
		return
	}
	b.frame.pipeline = wp
	if b.frame.pass != nil {
		b.frame.pass.SetPipeline(wp.native)
	}
}

// SetVertexBuffer binds a vertex buffer slot.
func (b *Backend) SetVertexBuffer(slot uint32, buf backend.Buffer, offset uint64) {
	if !b.frame.active {
		return
	}
	wb, ok := buf.(*wgpuBuffer)
	if !ok {
		return
	}
	b.frame.vertex[slot] = vertexBinding{buf: wb.native, offset: offset}
	if b.frame.pass != nil {
		b.frame.pass.SetVertexBuffer(slot, wb.native, offset)
	}
}

// SetIndexBuffer binds the index buffer.
func (b *Backend) SetIndexBuffer(buf backend.Buffer, format gputypes.IndexFormat, offset uint64) {
	if !b.frame.active {
		return
	}
	wb, ok := buf.(*wgpuBuffer)
	if !ok {
		return
	}
	b.frame.index = &indexBinding{buf: wb.native, format: format, offset: offset}
	if b.frame.pass != nil {
		b.frame.pass.SetIndexBuffer(wb.native, format, offset)
	}
}

// BindTexture binds a texture and sampler to a fragment slot. Bind groups
// are created on first use of a texture+sampler pair and cached.
func (b *Backend) BindTexture(slot uint32, tex backend.Texture, smp backend.Sampler) {
	if !b.frame.active || slot >= maxTextureSlots {
		return
	}
	wt, ok := tex.(*wgpuTexture)
	if !ok {
		return
	}
	sampler := b.defaultSampler
	if ws, ok := smp.(*wgpuSampler); ok {
		sampler = ws.native
	}

	key := bindKey{tex: wt, smp: sampler}
	bg, ok := b.bindGroups[key]
	if !ok {
		var err error
		bg, err = b.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  wt.label + "_bind",
			Layout: b.textureLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: wt.view.NativeHandle()}},
				{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
			},
		})
		if err != nil {
			// Recording calls cannot fail; the draw proceeds without
			// this slot and the texture samples as undefined.
			return
		}
		b.bindGroups[key] = bg
	}

	b.frame.groups[slot] = bg
	if b.frame.pass != nil {
		b.frame.pass.SetBindGroup(slot, bg, nil)
	}
}

// Draw issues a non-indexed draw, opening the render pass if needed.
func (b *Backend) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !b.frame.active {
		return
	}
	b.ensurePass().Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// DrawIndexed issues an indexed draw, opening the render pass if needed.
func (b *Backend) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if !b.frame.active {
		return
	}
	b.ensurePass().DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

// EndFrame ends the open pass, submits the command buffer, and blocks
// until the GPU has finished the frame.
func (b *Backend) EndFrame() error {
	if !b.frame.active {
		return backend.ErrNoFrame
	}
	f := &b.frame
	f.active = false
	b.endPass()

	cmdBuf, err := f.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	if _, err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	// The hal queue tracks submission completion internally; draining the
	// device keeps FreeCommandBuffer safe once this returns.
	if err := b.device.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	return nil
}
