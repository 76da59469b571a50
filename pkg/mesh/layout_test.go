package mesh

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayout_Stride(t *testing.T) {
	tests := []struct {
		name   string
		counts LayerCounts
		stride int
		attrs  int
	}{
		{"position only", LayerCounts{}, 12 + 20, 3},
		{"one uv", LayerCounts{UVs: 1}, 12 + 8 + 20, 4},
		{"full", LayerCounts{Colors: 1, UVs: 2, Normals: 1, Binormals: 1, Tangents: 1}, 12 + 16 + 16 + 36 + 20, 9},
		{"normals", LayerCounts{Normals: 1}, 12 + 12 + 20, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLayout(tt.counts)
			assert.Equal(t, tt.stride, l.Stride)
			assert.Len(t, l.Attributes, tt.attrs)

			// Offsets are contiguous.
			off := 0
			for _, a := range l.Attributes {
				assert.Equal(t, off, a.Offset, "%s/%d", a.Semantic, a.Layer)
				off += a.Size()
			}
			assert.Equal(t, l.Stride, off)
		})
	}
}

func TestNewLayout_Order(t *testing.T) {
	l := NewLayout(LayerCounts{Colors: 1, UVs: 2, Normals: 1, Binormals: 1, Tangents: 1})

	var got []Semantic
	for _, a := range l.Attributes {
		got = append(got, a.Semantic)
	}
	assert.Equal(t, []Semantic{
		SemanticPosition,
		SemanticDiffuse,
		SemanticTexCoord,
		SemanticTexCoord,
		SemanticNormal,
		SemanticBinormal,
		SemanticTangent,
		SemanticBlendIndex,
		SemanticBlendWeight,
	}, got)
	assert.Equal(t, 1, l.Attributes[3].Layer)
	assert.Equal(t, 3+4+2+2+3+3+3+4+4, l.ComponentCount())
}

func TestLayoutFromAttributes(t *testing.T) {
	want := NewLayout(LayerCounts{UVs: 1, Normals: 2})

	got, err := LayoutFromAttributes(want.Attributes)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLayoutFromAttributes_Invalid(t *testing.T) {
	base := NewLayout(LayerCounts{UVs: 1}).Attributes

	swapped := []Attribute{base[1], base[0]}
	badOffset := append([]Attribute(nil), base...)
	badOffset[1].Offset = 16
	unknown := append([]Attribute(nil), base...)
	unknown[1].Semantic = 42
	noWeights := base[:len(base)-1]
	noBlend := base[:2]
	badLayer := append([]Attribute(nil), base...)
	badLayer[1].Layer = 3

	tests := []struct {
		name  string
		attrs []Attribute
	}{
		{"reordered", swapped},
		{"wrong offset", badOffset},
		{"unknown semantic", unknown},
		{"missing weights", noWeights},
		{"missing blend block", noBlend},
		{"layer out of order", badLayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LayoutFromAttributes(tt.attrs)
			assert.True(t, errors.Is(err, ErrInvalidLayout), "got %v", err)
		})
	}
}

func TestLayout_BufferLayout(t *testing.T) {
	l := NewLayout(LayerCounts{Colors: 1, UVs: 1})

	bl := l.BufferLayout()

	assert.Equal(t, uint64(l.Stride), bl.ArrayStride)
	assert.Equal(t, gputypes.VertexStepModeVertex, bl.StepMode)
	require.Len(t, bl.Attributes, 5)

	formats := []gputypes.VertexFormat{
		gputypes.VertexFormatFloat32x3,
		gputypes.VertexFormatFloat32x4,
		gputypes.VertexFormatFloat32x2,
		gputypes.VertexFormatSint8x4,
		gputypes.VertexFormatFloat32x4,
	}
	for i, a := range bl.Attributes {
		assert.Equal(t, formats[i], a.Format, "attribute %d", i)
		assert.Equal(t, uint32(i), a.ShaderLocation)
		assert.Equal(t, uint64(l.Attributes[i].Offset), a.Offset)
	}
}

func TestParseSemantic(t *testing.T) {
	for s := SemanticPosition; s <= SemanticBlendWeight; s++ {
		got, err := ParseSemantic(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseSemantic("color")
	assert.True(t, errors.Is(err, ErrInvalidLayout))
}

func TestParseElementType(t *testing.T) {
	for _, typ := range []ElementType{ElementFloat32, ElementInt8} {
		got, err := ParseElementType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err := ParseElementType("float16")
	assert.Error(t, err)
}
