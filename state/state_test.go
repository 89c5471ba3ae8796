package state

import "testing"

func TestEnumStrings(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"blend factor", BlendOneMinusSrcAlpha.String(), "OneMinusSrcAlpha"},
		{"blend op", BlendOpReverseSubtract.String(), "ReverseSubtract"},
		{"comparison", CompareLessEqual.String(), "LessEqual"},
		{"stencil op", StencilIncrementWrap.String(), "IncrementWrap"},
		{"cull mode", CullBack.String(), "Back"},
		{"fill mode", FillWireframe.String(), "Wireframe"},
		{"front face", FrontCounterClockwise.String(), "CounterClockwise"},
		{"topology", TopologyTriangleStrip.String(), "TriangleStrip"},
		{"unknown blend factor", BlendFactor(200).String(), "Unknown(200)"},
		{"unknown topology", Topology(99).String(), "Unknown(99)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("String() = %q, want %q", tc.got, tc.want)
			}
		})
	}
}

func TestDescriptionsAreComparable(t *testing.T) {
	// Full state tuples serve as pipeline cache key components, so value
	// equality must be structural and exact.
	a := Blend{Enabled: true, SrcColor: BlendSrcAlpha, DstColor: BlendOneMinusSrcAlpha, ColorOp: BlendOpAdd}
	b := a
	if a != b {
		t.Error("identical blend descriptions compare unequal")
	}
	b.DstColor = BlendOne
	if a == b {
		t.Error("differing blend descriptions compare equal")
	}

	if BlendAlpha == BlendPremultiplied {
		t.Error("distinct presets compare equal")
	}
}

func TestPresets(t *testing.T) {
	if BlendOpaque.Enabled {
		t.Error("BlendOpaque must disable blending")
	}
	if !BlendAdditive.Enabled || BlendAdditive.SrcColor != BlendOne || BlendAdditive.DstColor != BlendOne {
		t.Errorf("BlendAdditive = %+v, want One/One additive", BlendAdditive)
	}
	if !DepthDefault.TestEnabled || !DepthDefault.WriteEnabled {
		t.Errorf("DepthDefault = %+v, want test+write enabled", DepthDefault)
	}
	if DepthReadOnly.WriteEnabled {
		t.Error("DepthReadOnly must not write depth")
	}
	if StencilDisabled.Enabled {
		t.Error("StencilDisabled must be disabled")
	}
	if RasterDefault.Cull != CullBack || RasterDefault.FrontFace != FrontCounterClockwise {
		t.Errorf("RasterDefault = %+v, want back-face culling, CCW front", RasterDefault)
	}
}
