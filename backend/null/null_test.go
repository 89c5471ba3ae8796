package null

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi/backend"
)

func newInitialized(t *testing.T) *Backend {
	t.Helper()
	b := New()
	if err := b.Init(backend.InitOptions{
		Width:       64,
		Height:      64,
		ColorFormat: gputypes.TextureFormatBGRA8Unorm,
		SampleCount: 1,
	}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return b
}

func TestRegisteredInRegistry(t *testing.T) {
	if !backend.IsRegistered(backend.BackendNull) {
		t.Fatal("null backend not registered on import")
	}
	b := backend.Get(backend.BackendNull)
	if b == nil || b.Name() != backend.BackendNull {
		t.Fatalf("Get(null) = %v", b)
	}
}

func TestCreateBeforeInit(t *testing.T) {
	b := New()
	_, err := b.CreateBuffer(&backend.BufferDescriptor{Size: 16})
	if !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("CreateBuffer before Init: err = %v, want ErrNotInitialized", err)
	}
}

func TestResourceLifecycleCounts(t *testing.T) {
	b := newInitialized(t)

	buf, err := b.CreateBuffer(&backend.BufferDescriptor{Label: "vb", Size: 64, Usage: gputypes.BufferUsageVertex})
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	tex, err := b.CreateTexture(&backend.TextureDescriptor{
		Label: "tex", Width: 4, Height: 4,
		Format: gputypes.TextureFormatRGBA8Unorm, Usage: gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}

	buf.Destroy()
	tex.Destroy()

	s := b.Stats()
	if s.BuffersCreated != 1 || s.BuffersDestroyed != 1 {
		t.Errorf("buffer counts = %d/%d, want 1/1", s.BuffersCreated, s.BuffersDestroyed)
	}
	if s.TexturesCreated != 1 || s.TexturesDestroyed != 1 {
		t.Errorf("texture counts = %d/%d, want 1/1", s.TexturesCreated, s.TexturesDestroyed)
	}
}

func TestCompileShaderValidation(t *testing.T) {
	b := newInitialized(t)

	cases := []struct {
		name    string
		desc    backend.ShaderDescriptor
		wantErr error
	}{
		{"empty source", backend.ShaderDescriptor{EntryPoint: "vs_main"}, ErrEmptyShaderSource},
		{"empty entry point", backend.ShaderDescriptor{Source: "fn vs_main() {}"}, ErrEmptyEntryPoint},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.CompileShader(&tc.desc)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("CompileShader() err = %v, want %v", err, tc.wantErr)
			}
		})
	}

	sm, err := b.CompileShader(&backend.ShaderDescriptor{
		Label: "vs", Stage: backend.StageVertex, EntryPoint: "vs_main",
		Source: "@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }",
	})
	if err != nil {
		t.Fatalf("CompileShader() error = %v", err)
	}
	if sm.Label() != "vs" {
		t.Errorf("Label() = %q, want %q", sm.Label(), "vs")
	}
}

func TestWriteBufferBounds(t *testing.T) {
	b := newInitialized(t)
	buf, _ := b.CreateBuffer(&backend.BufferDescriptor{Label: "ub", Size: 8, Usage: gputypes.BufferUsageUniform})

	if err := b.WriteBuffer(buf, 0, []byte{1, 2, 3, 4}); err != nil {
		t.Errorf("in-bounds WriteBuffer() error = %v", err)
	}
	if err := b.WriteBuffer(buf, 6, []byte{1, 2, 3, 4}); err == nil {
		t.Error("out-of-bounds WriteBuffer() succeeded, want error")
	}
}

func TestFrameRecording(t *testing.T) {
	b := newInitialized(t)

	if err := b.EndFrame(); !errors.Is(err, backend.ErrNoFrame) {
		t.Errorf("EndFrame without BeginFrame: err = %v, want ErrNoFrame", err)
	}

	if err := b.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame() error = %v", err)
	}
	if !b.BackbufferBound() {
		t.Error("frame must start targeting the backbuffer")
	}

	fb, _ := b.CreateFramebuffer(&backend.FramebufferDescriptor{Label: "offscreen"})
	b.SetRenderTarget(fb)
	if b.BackbufferBound() {
		t.Error("SetRenderTarget(fb) left backbuffer bound")
	}
	b.SetRenderTarget(nil)
	if !b.BackbufferBound() {
		t.Error("SetRenderTarget(nil) must restore the backbuffer")
	}

	b.Draw(3, 1, 0, 0)
	b.DrawIndexed(6, 1, 0, 0, 0)
	if err := b.EndFrame(); err != nil {
		t.Fatalf("EndFrame() error = %v", err)
	}

	s := b.Stats()
	if s.Draws != 1 || s.DrawsIndexed != 1 || s.Frames != 1 {
		t.Errorf("stats = draws %d, indexed %d, frames %d; want 1, 1, 1", s.Draws, s.DrawsIndexed, s.Frames)
	}
}
