package wgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi/backend"
)

func TestRegisteredInRegistry(t *testing.T) {
	b := backend.Get(backend.BackendWgpu)
	if b == nil {
		t.Fatal("wgpu backend not registered")
	}
	if b.Name() != backend.BackendWgpu {
		t.Errorf("name = %q, want %q", b.Name(), backend.BackendWgpu)
	}
}

func TestUninitializedCallsFail(t *testing.T) {
	b := New()

	if _, err := b.CreateBuffer(&backend.BufferDescriptor{Size: 16}); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("CreateBuffer err = %v, want ErrNotInitialized", err)
	}
	if err := b.BeginFrame(); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("BeginFrame err = %v, want ErrNotInitialized", err)
	}
	if err := b.Resize(32, 32); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("Resize err = %v, want ErrNotInitialized", err)
	}
	if err := b.EndFrame(); !errors.Is(err, backend.ErrNoFrame) {
		t.Errorf("EndFrame err = %v, want ErrNoFrame", err)
	}

	// Close before Init must not panic.
	b.Close()
}

func TestTexelSize(t *testing.T) {
	cases := []struct {
		format gputypes.TextureFormat
		want   uint32
	}{
		{gputypes.TextureFormatR8Unorm, 1},
		{gputypes.TextureFormatRGBA8Unorm, 4},
		{gputypes.TextureFormatBGRA8Unorm, 4},
	}
	for _, c := range cases {
		if got := texelSize(c.format); got != c.want {
			t.Errorf("texelSize(%v) = %d, want %d", c.format, got, c.want)
		}
	}
}

// TestInitOnHardware exercises the full device path when a GPU is present.
// Skipped on machines without a usable adapter.
func TestInitOnHardware(t *testing.T) {
	b := New()
	err := b.Init(backend.InitOptions{
		Width:       64,
		Height:      64,
		ColorFormat: gputypes.TextureFormatBGRA8Unorm,
		SampleCount: 1,
	})
	if err != nil {
		t.Skipf("no usable GPU: %v", err)
	}
	defer b.Close()

	buf, err := b.CreateBuffer(&backend.BufferDescriptor{
		Label: "probe", Size: 64, Usage: gputypes.BufferUsageVertex,
	})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if err := b.WriteBuffer(buf, 0, make([]byte, 64)); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	buf.Destroy()

	if err := b.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	b.Draw(0, 0, 0, 0)
	if err := b.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
}
