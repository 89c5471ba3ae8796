// Package rhi provides a resource-handle interface for GPU rendering: a
// generation-validated handle/pool layer, a pipeline-state cache, and a
// state-conversion layer sitting between engine code and a native graphics
// backend.
//
// # Overview
//
// GPU objects (buffers, textures, samplers, framebuffers, shader programs,
// pipelines) are owned by per-kind pools inside a Device. Engine code never
// holds a native object; it holds an opaque Handle whose generation counter
// is checked on every access, so a handle can never observe a slot after it
// has been reused for a different resource.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/rhi"
//	    _ "github.com/gogpu/rhi/backend/null" // headless backend
//	)
//
//	dev, err := rhi.NewDevice(rhi.DeviceOptions{Width: 1280, Height: 720})
//	if err != nil {
//	    // handle error
//	}
//	defer dev.Destroy()
//
//	vb, err := dev.CreateBuffer(rhi.BufferDesc{
//	    Label: "quad_vertices",
//	    Size:  64,
//	    Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
//	})
//
// # Pipelines
//
// Pipeline creation converts abstract blend/depth/raster/stencil state into
// backend descriptors and deduplicates native pipeline objects through a
// cache keyed by shader identity plus the full state tuple and output
// formats. Creating the same pipeline twice returns two handles wrapping one
// native object.
//
// # Error Model
//
// Create calls fail loudly: native creation and shader compilation errors
// are wrapped with backend, stage, and entry-point context and returned to
// the caller. Per-frame binding never fails: binding a stale or released
// handle is skipped (or falls back to the backbuffer for render targets)
// and the render loop keeps going.
//
// # Threading
//
// A Device and everything it owns must be driven from a single goroutine,
// typically the render thread. Handle values themselves are inert and may
// be copied freely across goroutines.
package rhi

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
