package rhi

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi/backend/null"
	"github.com/gogpu/rhi/state"
)

const (
	testVertexWGSL   = "@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }"
	testFragmentWGSL = "@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }"
)

// newTestDevice creates a device on a private null backend so tests can
// assert against the backend's counters.
func newTestDevice(t *testing.T) (*Device, *null.Backend) {
	t.Helper()
	b := null.New()
	d, err := NewDeviceWith(b, DeviceOptions{
		Width:       64,
		Height:      64,
		DepthFormat: DefaultDepthFormat,
	})
	if err != nil {
		t.Fatalf("NewDeviceWith: %v", err)
	}
	t.Cleanup(d.Destroy)
	return d, b
}

func newTestShaders(t *testing.T, d *Device) (ShaderHandle, ShaderHandle) {
	t.Helper()
	vs, err := d.CreateShaderProgram(ShaderDesc{
		Label: "vs", Stage: StageVertex, EntryPoint: "vs_main", Source: testVertexWGSL,
	})
	if err != nil {
		t.Fatalf("vertex shader: %v", err)
	}
	fs, err := d.CreateShaderProgram(ShaderDesc{
		Label: "fs", Stage: StageFragment, EntryPoint: "fs_main", Source: testFragmentWGSL,
	})
	if err != nil {
		t.Fatalf("fragment shader: %v", err)
	}
	return vs, fs
}

func TestNewDeviceFromRegistry(t *testing.T) {
	d, err := NewDevice(DeviceOptions{Backend: "null"})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	defer d.Destroy()
	if d.Backend() != "null" {
		t.Errorf("backend = %q, want null", d.Backend())
	}
	opts := d.Options()
	if opts.Width != 1 || opts.Height != 1 || opts.SampleCount != 1 {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if opts.ColorFormat != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("color format = %v, want BGRA8Unorm", opts.ColorFormat)
	}
}

func TestNewDeviceUnknownBackend(t *testing.T) {
	_, err := NewDevice(DeviceOptions{Backend: "metal3000"})
	if !errors.Is(err, ErrNoBackend) {
		t.Fatalf("err = %v, want ErrNoBackend", err)
	}
}

func TestBufferLifecycle(t *testing.T) {
	d, b := newTestDevice(t)

	_, err := d.CreateBuffer(BufferDesc{Label: "empty"})
	if !errors.Is(err, ErrZeroSize) {
		t.Fatalf("zero-size err = %v, want ErrZeroSize", err)
	}

	h, err := d.CreateBuffer(BufferDesc{Label: "verts", Size: 256, Usage: gputypes.BufferUsageVertex})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	buf, ok := d.GetBuffer(h)
	if !ok {
		t.Fatal("GetBuffer failed for live handle")
	}
	if buf.Size() != 256 || buf.Label() != "verts" {
		t.Errorf("buffer = %q/%d, want verts/256", buf.Label(), buf.Size())
	}

	// Double destroy: true then false, one native disposal.
	if !d.DestroyBuffer(h) {
		t.Error("first DestroyBuffer returned false")
	}
	if d.DestroyBuffer(h) {
		t.Error("second DestroyBuffer returned true")
	}
	if n := b.Stats().BuffersDestroyed; n != 1 {
		t.Errorf("native buffer destroyed %d times, want 1", n)
	}
	if _, ok := d.GetBuffer(h); ok {
		t.Error("GetBuffer succeeded for destroyed handle")
	}
}

func TestSlotReuseInvalidatesOldBufferHandle(t *testing.T) {
	d, _ := newTestDevice(t)

	a, err := d.CreateBuffer(BufferDesc{Label: "a", Size: 16})
	if err != nil {
		t.Fatal(err)
	}
	d.DestroyBuffer(a)

	bh, err := d.CreateBuffer(BufferDesc{Label: "b", Size: 16})
	if err != nil {
		t.Fatal(err)
	}
	if bh.ID() != a.ID() {
		t.Fatalf("slot not reused: got id %d, want %d", bh.ID(), a.ID())
	}
	if bh.Generation() == a.Generation() {
		t.Fatal("reused slot kept old generation")
	}
	if _, ok := d.GetBuffer(a); ok {
		t.Error("old handle still resolves after slot reuse")
	}
	got, ok := d.GetBuffer(bh)
	if !ok || got.Label() != "b" {
		t.Error("new handle does not resolve to new buffer")
	}
}

func TestShaderValidation(t *testing.T) {
	d, _ := newTestDevice(t)

	_, err := d.CreateShaderProgram(ShaderDesc{Stage: StageVertex, EntryPoint: "main"})
	if !errors.Is(err, ErrEmptyShaderSource) {
		t.Errorf("empty source err = %v, want ErrEmptyShaderSource", err)
	}
	_, err = d.CreateShaderProgram(ShaderDesc{Stage: StageVertex, Source: testVertexWGSL})
	if !errors.Is(err, ErrEmptyEntryPoint) {
		t.Errorf("empty entry err = %v, want ErrEmptyEntryPoint", err)
	}
}

func TestPipelineCacheReuse(t *testing.T) {
	d, b := newTestDevice(t)
	vs, fs := newTestShaders(t, d)

	desc := PipelineDesc{
		Label:          "opaque",
		VertexShader:   vs,
		FragmentShader: fs,
		Blend:          state.BlendOpaque,
		Depth:          state.DepthDefault,
		Raster:         state.RasterDefault,
		Topology:       state.TopologyTriangleList,
	}

	h1, err := d.CreatePipeline(desc)
	if err != nil {
		t.Fatalf("first CreatePipeline: %v", err)
	}
	h2, err := d.CreatePipeline(desc)
	if err != nil {
		t.Fatalf("second CreatePipeline: %v", err)
	}
	if h1 == h2 {
		t.Error("identical descriptions returned the same handle, want distinct handles")
	}

	p1, _ := d.GetPipeline(h1)
	p2, _ := d.GetPipeline(h2)
	if p1.native != p2.native {
		t.Error("identical descriptions produced distinct native pipelines")
	}
	if n := b.Stats().PipelinesCreated; n != 1 {
		t.Errorf("native pipelines created = %d, want 1", n)
	}
	st := d.PipelineCacheStats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("cache stats = %+v, want 1 hit, 1 miss", st)
	}
}

func TestPipelineDistinctStateCreatesDistinctNatives(t *testing.T) {
	d, b := newTestDevice(t)
	vs, fs := newTestShaders(t, d)

	base := PipelineDesc{
		VertexShader:   vs,
		FragmentShader: fs,
		Depth:          state.DepthDefault,
		Raster:         state.RasterDefault,
		Topology:       state.TopologyTriangleList,
	}

	opaque := base
	opaque.Blend = state.BlendOpaque
	alpha := base
	alpha.Blend = state.BlendAlpha

	if _, err := d.CreatePipeline(opaque); err != nil {
		t.Fatal(err)
	}
	if _, err := d.CreatePipeline(alpha); err != nil {
		t.Fatal(err)
	}
	if n := b.Stats().PipelinesCreated; n != 2 {
		t.Errorf("native pipelines created = %d, want 2", n)
	}
	if st := d.PipelineCacheStats(); st.Misses != 2 || st.Hits != 0 {
		t.Errorf("cache stats = %+v, want 2 misses, 0 hits", st)
	}
}

func TestPipelineShaderValidation(t *testing.T) {
	d, _ := newTestDevice(t)
	vs, fs := newTestShaders(t, d)

	t.Run("nil vertex handle", func(t *testing.T) {
		_, err := d.CreatePipeline(PipelineDesc{VertexShader: NilShader(), FragmentShader: fs})
		if !errors.Is(err, ErrInvalidHandle) {
			t.Errorf("err = %v, want ErrInvalidHandle", err)
		}
	})

	t.Run("destroyed fragment handle", func(t *testing.T) {
		_, fs2 := newTestShaders(t, d)
		d.DestroyShaderProgram(fs2)
		_, err := d.CreatePipeline(PipelineDesc{VertexShader: vs, FragmentShader: fs2})
		if !errors.Is(err, ErrInvalidHandle) {
			t.Errorf("err = %v, want ErrInvalidHandle", err)
		}
	})

	t.Run("swapped stages", func(t *testing.T) {
		_, err := d.CreatePipeline(PipelineDesc{VertexShader: fs, FragmentShader: vs})
		if !errors.Is(err, ErrShaderStageMismatch) {
			t.Errorf("err = %v, want ErrShaderStageMismatch", err)
		}
	})
}

func TestSetRenderTargetFallsBackToBackbuffer(t *testing.T) {
	d, b := newTestDevice(t)

	tex, err := d.CreateTexture(TextureDesc{
		Label: "target", Width: 32, Height: 32,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatal(err)
	}
	fb, err := d.CreateFramebuffer(FramebufferDesc{
		Label:            "offscreen",
		ColorAttachments: []TextureHandle{tex},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}

	d.SetRenderTarget(fb)
	if b.BackbufferBound() {
		t.Error("live framebuffer: backbuffer still bound")
	}

	// Nil handle selects the backbuffer without error.
	d.SetRenderTarget(NilFramebuffer())
	if !b.BackbufferBound() {
		t.Error("nil handle: backbuffer not bound")
	}

	// Stale handle falls back to the backbuffer without error.
	d.SetRenderTarget(fb)
	d.DestroyFramebuffer(fb)
	d.SetRenderTarget(fb)
	if !b.BackbufferBound() {
		t.Error("stale handle: backbuffer not bound")
	}

	if err := d.EndFrame(); err != nil {
		t.Fatal(err)
	}
}

func TestBindSkipsStaleHandles(t *testing.T) {
	d, b := newTestDevice(t)
	vs, fs := newTestShaders(t, d)

	buf, err := d.CreateBuffer(BufferDesc{Label: "verts", Size: 64, Usage: gputypes.BufferUsageVertex})
	if err != nil {
		t.Fatal(err)
	}
	ph, err := d.CreatePipeline(PipelineDesc{
		VertexShader: vs, FragmentShader: fs,
		Raster: state.RasterDefault, Topology: state.TopologyTriangleList,
	})
	if err != nil {
		t.Fatal(err)
	}

	d.DestroyBuffer(buf)
	d.DestroyPipeline(ph)

	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	d.SetPipeline(ph)
	d.BindVertexBuffer(0, buf, 0)
	d.BindIndexBuffer(buf, gputypes.IndexFormatUint16, 0)
	d.Draw(3, 1, 0, 0)
	if err := d.EndFrame(); err != nil {
		t.Fatal(err)
	}

	if b.CurrentPipeline() != nil {
		t.Error("stale pipeline handle was bound")
	}
	if n := b.Stats().Draws; n != 1 {
		t.Errorf("draws = %d, want 1", n)
	}
}

func TestRecordingOutsideFrameIsDiscarded(t *testing.T) {
	d, b := newTestDevice(t)

	d.Draw(3, 1, 0, 0)
	d.SetViewport(0, 0, 64, 64)
	d.SetRenderTarget(NilFramebuffer())
	if n := b.Stats().Draws; n != 0 {
		t.Errorf("draws outside frame = %d, want 0", n)
	}
	if err := d.EndFrame(); err == nil {
		t.Error("EndFrame without BeginFrame succeeded")
	}
}

func TestFlushSubmitsAndKeepsRecording(t *testing.T) {
	d, b := newTestDevice(t)

	// Outside a frame Flush is a no-op.
	if err := d.Flush(); err != nil {
		t.Fatalf("Flush outside frame: %v", err)
	}
	if n := b.Stats().Frames; n != 0 {
		t.Fatalf("frames = %d, want 0", n)
	}

	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	d.Draw(3, 1, 0, 0)
	if err := d.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	d.Draw(3, 1, 0, 0)
	if err := d.EndFrame(); err != nil {
		t.Fatal(err)
	}

	st := b.Stats()
	if st.Frames != 2 {
		t.Errorf("frames = %d, want 2", st.Frames)
	}
	if st.Draws != 2 {
		t.Errorf("draws = %d, want 2", st.Draws)
	}
}

func TestUpdateBuffer(t *testing.T) {
	d, b := newTestDevice(t)

	h, err := d.CreateBuffer(BufferDesc{Label: "u", Size: 16, Usage: gputypes.BufferUsageUniform})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.UpdateBuffer(h, 0, make([]byte, 16)); err != nil {
		t.Fatalf("UpdateBuffer: %v", err)
	}
	if n := b.Stats().BufferWrites; n != 1 {
		t.Errorf("buffer writes = %d, want 1", n)
	}

	d.DestroyBuffer(h)
	if err := d.UpdateBuffer(h, 0, make([]byte, 16)); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("stale update err = %v, want ErrInvalidHandle", err)
	}
}

func TestFramebufferValidation(t *testing.T) {
	d, _ := newTestDevice(t)

	_, err := d.CreateFramebuffer(FramebufferDesc{Label: "bare"})
	if !errors.Is(err, ErrNoAttachments) {
		t.Errorf("no attachments err = %v, want ErrNoAttachments", err)
	}

	tex, err := d.CreateTexture(TextureDesc{
		Width: 8, Height: 8, Format: gputypes.TextureFormatRGBA8Unorm,
		Usage: gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatal(err)
	}
	d.DestroyTexture(tex)
	_, err = d.CreateFramebuffer(FramebufferDesc{ColorAttachments: []TextureHandle{tex}})
	if !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("stale attachment err = %v, want ErrInvalidHandle", err)
	}

	// A zero-value DepthAttachment means color-only, same as NilTexture().
	color, err := d.CreateTexture(TextureDesc{
		Width: 8, Height: 8, Format: gputypes.TextureFormatRGBA8Unorm,
		Usage: gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.CreateFramebuffer(FramebufferDesc{
		Label:            "color-only",
		ColorAttachments: []TextureHandle{color},
	}); err != nil {
		t.Errorf("color-only framebuffer with zero depth handle: %v", err)
	}
}

func TestResizeInvalidatesPipelines(t *testing.T) {
	d, b := newTestDevice(t)
	vs, fs := newTestShaders(t, d)

	desc := PipelineDesc{
		VertexShader: vs, FragmentShader: fs,
		Raster: state.RasterDefault, Topology: state.TopologyTriangleList,
	}
	h, err := d.CreatePipeline(desc)
	if err != nil {
		t.Fatal(err)
	}

	if err := d.Resize(128, 128); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if _, ok := d.GetPipeline(h); ok {
		t.Error("pipeline handle survived resize")
	}
	if st := d.PipelineCacheStats(); st.Size != 0 {
		t.Errorf("cache size after resize = %d, want 0", st.Size)
	}

	// Recreating after resize compiles a fresh native pipeline.
	if _, err := d.CreatePipeline(desc); err != nil {
		t.Fatal(err)
	}
	if n := b.Stats().PipelinesCreated; n != 2 {
		t.Errorf("native pipelines created = %d, want 2", n)
	}

	if err := d.Resize(0, 64); !errors.Is(err, ErrZeroSize) {
		t.Errorf("zero resize err = %v, want ErrZeroSize", err)
	}

	// Resize is rejected while a frame is being recorded.
	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := d.Resize(256, 256); !errors.Is(err, ErrFrameInProgress) {
		t.Errorf("mid-frame resize err = %v, want ErrFrameInProgress", err)
	}
	if err := d.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if err := d.Resize(256, 256); err != nil {
		t.Errorf("post-frame resize err = %v", err)
	}
}

func TestDestroyedDeviceRejectsCreation(t *testing.T) {
	d, b := newTestDevice(t)

	bh, _ := d.CreateBuffer(BufferDesc{Size: 8})
	_ = bh
	d.Destroy()

	if _, err := d.CreateBuffer(BufferDesc{Size: 8}); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("create after destroy err = %v, want ErrDeviceClosed", err)
	}
	if err := d.BeginFrame(); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("begin after destroy err = %v, want ErrDeviceClosed", err)
	}
	if n := b.Stats().BuffersDestroyed; n != 1 {
		t.Errorf("native buffers destroyed = %d, want 1", n)
	}

	// Destroy is idempotent.
	d.Destroy()
}
