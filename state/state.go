// Package state defines the abstract render-state vocabulary consumed by
// pipeline creation: blend, depth, stencil, and rasterizer descriptions,
// plus the enums they are built from.
//
// These types are backend-neutral value types. They are comparable, so a
// full state tuple can be used directly as part of a pipeline cache key.
// Conversion to backend descriptor fields happens in the rhi package.
package state

import "fmt"

// BlendFactor selects the multiplier applied to a blend input.
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendDstColor
	BlendOneMinusDstColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstAlpha
	BlendOneMinusDstAlpha
)

// String returns the string representation of BlendFactor.
func (f BlendFactor) String() string {
	switch f {
	case BlendZero:
		return "Zero"
	case BlendOne:
		return "One"
	case BlendSrcColor:
		return "SrcColor"
	case BlendOneMinusSrcColor:
		return "OneMinusSrcColor"
	case BlendDstColor:
		return "DstColor"
	case BlendOneMinusDstColor:
		return "OneMinusDstColor"
	case BlendSrcAlpha:
		return "SrcAlpha"
	case BlendOneMinusSrcAlpha:
		return "OneMinusSrcAlpha"
	case BlendDstAlpha:
		return "DstAlpha"
	case BlendOneMinusDstAlpha:
		return "OneMinusDstAlpha"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// BlendOp combines the two weighted blend inputs.
type BlendOp uint8

const (
	BlendOpAdd BlendOp = iota
	BlendOpSubtract
	BlendOpReverseSubtract
	BlendOpMin
	BlendOpMax
)

// String returns the string representation of BlendOp.
func (o BlendOp) String() string {
	switch o {
	case BlendOpAdd:
		return "Add"
	case BlendOpSubtract:
		return "Subtract"
	case BlendOpReverseSubtract:
		return "ReverseSubtract"
	case BlendOpMin:
		return "Min"
	case BlendOpMax:
		return "Max"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(o))
	}
}

// Comparison is the test used for depth and stencil comparisons.
type Comparison uint8

const (
	CompareNever Comparison = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// String returns the string representation of Comparison.
func (c Comparison) String() string {
	switch c {
	case CompareNever:
		return "Never"
	case CompareLess:
		return "Less"
	case CompareEqual:
		return "Equal"
	case CompareLessEqual:
		return "LessEqual"
	case CompareGreater:
		return "Greater"
	case CompareNotEqual:
		return "NotEqual"
	case CompareGreaterEqual:
		return "GreaterEqual"
	case CompareAlways:
		return "Always"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// StencilOp is the update applied to a stencil buffer entry.
type StencilOp uint8

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilInvert
	StencilIncrementClamp
	StencilDecrementClamp
	StencilIncrementWrap
	StencilDecrementWrap
)

// String returns the string representation of StencilOp.
func (o StencilOp) String() string {
	switch o {
	case StencilKeep:
		return "Keep"
	case StencilZero:
		return "Zero"
	case StencilReplace:
		return "Replace"
	case StencilInvert:
		return "Invert"
	case StencilIncrementClamp:
		return "IncrementClamp"
	case StencilDecrementClamp:
		return "DecrementClamp"
	case StencilIncrementWrap:
		return "IncrementWrap"
	case StencilDecrementWrap:
		return "DecrementWrap"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(o))
	}
}

// CullMode selects which triangle faces are discarded.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// String returns the string representation of CullMode.
func (m CullMode) String() string {
	switch m {
	case CullNone:
		return "None"
	case CullFront:
		return "Front"
	case CullBack:
		return "Back"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(m))
	}
}

// FillMode selects how primitives are rasterized.
//
// Wireframe has no equivalent in WebGPU-class backends; such backends
// rasterize solid and record the requested mode for introspection only.
type FillMode uint8

const (
	FillSolid FillMode = iota
	FillWireframe
)

// String returns the string representation of FillMode.
func (m FillMode) String() string {
	switch m {
	case FillSolid:
		return "Solid"
	case FillWireframe:
		return "Wireframe"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(m))
	}
}

// FrontFace defines the vertex winding considered front-facing.
type FrontFace uint8

const (
	FrontCounterClockwise FrontFace = iota
	FrontClockwise
)

// String returns the string representation of FrontFace.
func (f FrontFace) String() string {
	switch f {
	case FrontCounterClockwise:
		return "CounterClockwise"
	case FrontClockwise:
		return "Clockwise"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// Topology is the primitive assembly mode.
type Topology uint8

const (
	TopologyTriangleList Topology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyLineStrip
	TopologyPointList
)

// String returns the string representation of Topology.
func (t Topology) String() string {
	switch t {
	case TopologyTriangleList:
		return "TriangleList"
	case TopologyTriangleStrip:
		return "TriangleStrip"
	case TopologyLineList:
		return "LineList"
	case TopologyLineStrip:
		return "LineStrip"
	case TopologyPointList:
		return "PointList"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Blend describes color/alpha blending for a render target.
// When Enabled is false the source fragment replaces the destination and
// the factor/op fields are ignored.
type Blend struct {
	Enabled bool

	SrcColor BlendFactor
	DstColor BlendFactor
	ColorOp  BlendOp

	SrcAlpha BlendFactor
	DstAlpha BlendFactor
	AlphaOp  BlendOp
}

// Common blend descriptions.
var (
	// BlendOpaque disables blending; source replaces destination.
	BlendOpaque = Blend{}

	// BlendAlpha is standard non-premultiplied alpha blending.
	BlendAlpha = Blend{
		Enabled:  true,
		SrcColor: BlendSrcAlpha,
		DstColor: BlendOneMinusSrcAlpha,
		ColorOp:  BlendOpAdd,
		SrcAlpha: BlendSrcAlpha,
		DstAlpha: BlendOneMinusSrcAlpha,
		AlphaOp:  BlendOpAdd,
	}

	// BlendPremultiplied is alpha blending for premultiplied sources.
	BlendPremultiplied = Blend{
		Enabled:  true,
		SrcColor: BlendOne,
		DstColor: BlendOneMinusSrcAlpha,
		ColorOp:  BlendOpAdd,
		SrcAlpha: BlendOne,
		DstAlpha: BlendOneMinusSrcAlpha,
		AlphaOp:  BlendOpAdd,
	}

	// BlendAdditive accumulates source onto destination.
	BlendAdditive = Blend{
		Enabled:  true,
		SrcColor: BlendOne,
		DstColor: BlendOne,
		ColorOp:  BlendOpAdd,
		SrcAlpha: BlendOne,
		DstAlpha: BlendOne,
		AlphaOp:  BlendOpAdd,
	}
)

// Depth describes the depth test.
type Depth struct {
	TestEnabled  bool
	WriteEnabled bool
	Compare      Comparison
}

// Common depth descriptions.
var (
	// DepthDefault tests and writes with LessEqual.
	DepthDefault = Depth{TestEnabled: true, WriteEnabled: true, Compare: CompareLessEqual}

	// DepthReadOnly tests but never writes.
	DepthReadOnly = Depth{TestEnabled: true, WriteEnabled: false, Compare: CompareLessEqual}

	// DepthDisabled passes every fragment.
	DepthDisabled = Depth{}
)

// StencilFace describes stencil behavior for one triangle facing.
type StencilFace struct {
	Compare   Comparison
	Fail      StencilOp
	DepthFail StencilOp
	Pass      StencilOp
}

// Stencil describes the stencil test for both facings.
type Stencil struct {
	Enabled   bool
	Front     StencilFace
	Back      StencilFace
	ReadMask  uint32
	WriteMask uint32
	Reference uint32
}

// StencilDisabled ignores the stencil buffer.
var StencilDisabled = Stencil{}

// Raster describes fixed-function rasterizer state.
type Raster struct {
	Cull      CullMode
	Fill      FillMode
	FrontFace FrontFace
}

// Common rasterizer descriptions.
var (
	// RasterDefault culls back faces of counter-clockwise triangles.
	RasterDefault = Raster{Cull: CullBack, Fill: FillSolid, FrontFace: FrontCounterClockwise}

	// RasterNoCull rasterizes both facings.
	RasterNoCull = Raster{Cull: CullNone, Fill: FillSolid, FrontFace: FrontCounterClockwise}
)
