package rhi

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi/backend"
	"github.com/gogpu/rhi/state"
)

// State converters: pure, deterministic mappings from the abstract
// rhi/state vocabulary to backend descriptor fields. Every switch is
// exhaustive over the defined constants and has an explicit default for
// out-of-range values, so a corrupted or future enum value degrades to a
// well-known state instead of falling through silently. These functions
// have no side effects and are safe to call from any goroutine.

// convertBlendFactor maps an abstract blend factor.
// Unknown values default to One.
func convertBlendFactor(f state.BlendFactor) gputypes.BlendFactor {
	switch f {
	case state.BlendZero:
		return gputypes.BlendFactorZero
	case state.BlendOne:
		return gputypes.BlendFactorOne
	case state.BlendSrcColor:
		return gputypes.BlendFactorSrc
	case state.BlendOneMinusSrcColor:
		return gputypes.BlendFactorOneMinusSrc
	case state.BlendDstColor:
		return gputypes.BlendFactorDst
	case state.BlendOneMinusDstColor:
		return gputypes.BlendFactorOneMinusDst
	case state.BlendSrcAlpha:
		return gputypes.BlendFactorSrcAlpha
	case state.BlendOneMinusSrcAlpha:
		return gputypes.BlendFactorOneMinusSrcAlpha
	case state.BlendDstAlpha:
		return gputypes.BlendFactorDstAlpha
	case state.BlendOneMinusDstAlpha:
		return gputypes.BlendFactorOneMinusDstAlpha
	default:
		return gputypes.BlendFactorOne
	}
}

// convertBlendOp maps an abstract blend operation.
// Unknown values default to Add.
func convertBlendOp(o state.BlendOp) gputypes.BlendOperation {
	switch o {
	case state.BlendOpAdd:
		return gputypes.BlendOperationAdd
	case state.BlendOpSubtract:
		return gputypes.BlendOperationSubtract
	case state.BlendOpReverseSubtract:
		return gputypes.BlendOperationReverseSubtract
	case state.BlendOpMin:
		return gputypes.BlendOperationMin
	case state.BlendOpMax:
		return gputypes.BlendOperationMax
	default:
		return gputypes.BlendOperationAdd
	}
}

// convertComparison maps an abstract comparison.
// Unknown values default to Always.
func convertComparison(c state.Comparison) gputypes.CompareFunction {
	switch c {
	case state.CompareNever:
		return gputypes.CompareFunctionNever
	case state.CompareLess:
		return gputypes.CompareFunctionLess
	case state.CompareEqual:
		return gputypes.CompareFunctionEqual
	case state.CompareLessEqual:
		return gputypes.CompareFunctionLessEqual
	case state.CompareGreater:
		return gputypes.CompareFunctionGreater
	case state.CompareNotEqual:
		return gputypes.CompareFunctionNotEqual
	case state.CompareGreaterEqual:
		return gputypes.CompareFunctionGreaterEqual
	case state.CompareAlways:
		return gputypes.CompareFunctionAlways
	default:
		return gputypes.CompareFunctionAlways
	}
}

// convertStencilOp maps an abstract stencil operation.
// Unknown values default to Keep.
func convertStencilOp(o state.StencilOp) hal.StencilOperation {
	switch o {
	case state.StencilKeep:
		return hal.StencilOperationKeep
	case state.StencilZero:
		return hal.StencilOperationZero
	case state.StencilReplace:
		return hal.StencilOperationReplace
	case state.StencilInvert:
		return hal.StencilOperationInvert
	case state.StencilIncrementClamp:
		return hal.StencilOperationIncrementClamp
	case state.StencilDecrementClamp:
		return hal.StencilOperationDecrementClamp
	case state.StencilIncrementWrap:
		return hal.StencilOperationIncrementWrap
	case state.StencilDecrementWrap:
		return hal.StencilOperationDecrementWrap
	default:
		return hal.StencilOperationKeep
	}
}

// convertCullMode maps an abstract cull mode.
// Unknown values default to None.
func convertCullMode(m state.CullMode) gputypes.CullMode {
	switch m {
	case state.CullNone:
		return gputypes.CullModeNone
	case state.CullFront:
		return gputypes.CullModeFront
	case state.CullBack:
		return gputypes.CullModeBack
	default:
		return gputypes.CullModeNone
	}
}

// convertFrontFace maps an abstract winding order.
// Unknown values default to CCW.
func convertFrontFace(f state.FrontFace) gputypes.FrontFace {
	switch f {
	case state.FrontCounterClockwise:
		return gputypes.FrontFaceCCW
	case state.FrontClockwise:
		return gputypes.FrontFaceCW
	default:
		return gputypes.FrontFaceCCW
	}
}

// convertTopology maps an abstract primitive topology.
// Unknown values default to TriangleList.
func convertTopology(t state.Topology) gputypes.PrimitiveTopology {
	switch t {
	case state.TopologyTriangleList:
		return gputypes.PrimitiveTopologyTriangleList
	case state.TopologyTriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip
	case state.TopologyLineList:
		return gputypes.PrimitiveTopologyLineList
	case state.TopologyLineStrip:
		return gputypes.PrimitiveTopologyLineStrip
	case state.TopologyPointList:
		return gputypes.PrimitiveTopologyPointList
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

// convertStencilFace maps one per-facing stencil description.
func convertStencilFace(f state.StencilFace) backend.StencilFaceState {
	return backend.StencilFaceState{
		Compare:     convertComparison(f.Compare),
		FailOp:      convertStencilOp(f.Fail),
		DepthFailOp: convertStencilOp(f.DepthFail),
		PassOp:      convertStencilOp(f.Pass),
	}
}

// convertBlend builds the backend blend state. Disabled blending is
// represented as nil: source replaces destination.
func convertBlend(b state.Blend) *backend.BlendState {
	if !b.Enabled {
		return nil
	}
	return &backend.BlendState{
		Color: backend.BlendComponent{
			SrcFactor: convertBlendFactor(b.SrcColor),
			DstFactor: convertBlendFactor(b.DstColor),
			Operation: convertBlendOp(b.ColorOp),
		},
		Alpha: backend.BlendComponent{
			SrcFactor: convertBlendFactor(b.SrcAlpha),
			DstFactor: convertBlendFactor(b.DstAlpha),
			Operation: convertBlendOp(b.AlphaOp),
		},
	}
}

// passthroughStencilFace leaves the stencil buffer untouched.
var passthroughStencilFace = backend.StencilFaceState{
	Compare:     gputypes.CompareFunctionAlways,
	FailOp:      hal.StencilOperationKeep,
	DepthFailOp: hal.StencilOperationKeep,
	PassOp:      hal.StencilOperationKeep,
}

// convertDepthStencil builds the backend depth/stencil state for the given
// attachment format. An undefined format yields nil: the pipeline has no
// depth attachment. A disabled depth test converts to Always so the
// attachment stays declared without rejecting fragments.
func convertDepthStencil(d state.Depth, s state.Stencil, format gputypes.TextureFormat) *backend.DepthStencilState {
	if format == gputypes.TextureFormatUndefined {
		return nil
	}

	ds := &backend.DepthStencilState{
		Format:            format,
		DepthWriteEnabled: d.WriteEnabled,
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilFront:      passthroughStencilFace,
		StencilBack:       passthroughStencilFace,
	}
	if d.TestEnabled {
		ds.DepthCompare = convertComparison(d.Compare)
	}
	if s.Enabled {
		ds.StencilFront = convertStencilFace(s.Front)
		ds.StencilBack = convertStencilFace(s.Back)
		ds.StencilReadMask = s.ReadMask
		ds.StencilWriteMask = s.WriteMask
	}
	return ds
}
