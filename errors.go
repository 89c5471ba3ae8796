package rhi

import "errors"

// Creation-time errors. Per-frame binding operations never return these;
// invalid handles during binding are absorbed (skipped or redirected to the
// backbuffer) so a single bad frame cannot take down the render loop.
var (
	// ErrDeviceClosed is returned by Create calls after Destroy.
	ErrDeviceClosed = errors.New("rhi: device is closed")

	// ErrNoBackend is returned by NewDevice when no backend is available.
	ErrNoBackend = errors.New("rhi: no backend available (import a backend package such as rhi/backend/null)")

	// ErrInvalidHandle is returned by explicit-failure operations
	// (UpdateBuffer, UpdateTexture, pipeline creation from shader handles)
	// when a handle is stale, released, or never issued.
	ErrInvalidHandle = errors.New("rhi: invalid handle")

	// ErrZeroSize is returned when a buffer or texture description has no extent.
	ErrZeroSize = errors.New("rhi: resource size must be non-zero")

	// ErrEmptyShaderSource is returned when a shader description carries no source.
	ErrEmptyShaderSource = errors.New("rhi: shader source is empty")

	// ErrEmptyEntryPoint is returned when a shader description carries no entry point.
	ErrEmptyEntryPoint = errors.New("rhi: shader entry point is empty")

	// ErrShaderStageMismatch is returned when pipeline creation is given a
	// shader handle compiled for the wrong stage.
	ErrShaderStageMismatch = errors.New("rhi: shader stage mismatch")

	// ErrNoAttachments is returned when a framebuffer description names no targets.
	ErrNoAttachments = errors.New("rhi: framebuffer has no attachments")

	// ErrFrameInProgress is returned by operations that must not run between
	// BeginFrame and EndFrame, such as Resize.
	ErrFrameInProgress = errors.New("rhi: frame in progress")
)
