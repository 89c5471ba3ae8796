package rhi

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi/backend"
	"github.com/gogpu/rhi/state"
)

// PipelineDesc describes a render pipeline in the abstract state
// vocabulary. The device converts it once at creation; the resulting
// native pipeline is cached by its fully converted key.
type PipelineDesc struct {
	Label string

	// Shader handles, both required. VertexShader must target StageVertex
	// and FragmentShader must target StageFragment.
	VertexShader   ShaderHandle
	FragmentShader ShaderHandle

	Blend    state.Blend
	Depth    state.Depth
	Stencil  state.Stencil
	Raster   state.Raster
	Topology state.Topology

	// SampleCount of 0 is treated as the device's backbuffer sample count.
	SampleCount uint32
}

// Pipeline is a device-owned render pipeline. The native pipeline it
// references is owned by the device's pipeline cache; several Pipeline
// values may share one native object.
type Pipeline struct {
	native backend.Pipeline
	desc   PipelineDesc
	key    PipelineKey
}

func (p *Pipeline) Label() string { return p.desc.Label }

// Desc returns the abstract state the pipeline was created with.
func (p *Pipeline) Desc() PipelineDesc { return p.desc }

// ColorFormat returns the color target format baked into the pipeline.
func (p *Pipeline) ColorFormat() gputypes.TextureFormat { return p.key.ColorFormat }
