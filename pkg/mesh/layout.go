package mesh

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// ErrInvalidLayout is returned when an attribute list does not describe a
// vertex layout this package can produce.
var ErrInvalidLayout = errors.New("invalid vertex layout")

// Semantic identifies what an attribute in the vertex buffer carries.
type Semantic int32

const (
	SemanticPosition    Semantic = 1
	SemanticDiffuse     Semantic = 2
	SemanticTexCoord    Semantic = 3
	SemanticNormal      Semantic = 4
	SemanticBinormal    Semantic = 5
	SemanticTangent     Semantic = 6
	SemanticBlendIndex  Semantic = 7
	SemanticBlendWeight Semantic = 8
)

// String returns a human-readable semantic name.
func (s Semantic) String() string {
	switch s {
	case SemanticPosition:
		return "position"
	case SemanticDiffuse:
		return "diffuse"
	case SemanticTexCoord:
		return "texcoord"
	case SemanticNormal:
		return "normal"
	case SemanticBinormal:
		return "binormal"
	case SemanticTangent:
		return "tangent"
	case SemanticBlendIndex:
		return "blend_index"
	case SemanticBlendWeight:
		return "blend_weight"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(s))
	}
}

// ParseSemantic is the inverse of Semantic.String.
func ParseSemantic(name string) (Semantic, error) {
	for s := SemanticPosition; s <= SemanticBlendWeight; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown semantic %q", ErrInvalidLayout, name)
}

// ElementType is the scalar type of one attribute component.
type ElementType int32

const (
	ElementFloat32 ElementType = 1
	ElementInt8    ElementType = 2
)

// Size returns the encoded size of one component in bytes.
func (t ElementType) Size() int {
	switch t {
	case ElementInt8:
		return 1
	default:
		return 4
	}
}

// String returns a human-readable element type name.
func (t ElementType) String() string {
	switch t {
	case ElementFloat32:
		return "float32"
	case ElementInt8:
		return "int8"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(t))
	}
}

// ParseElementType is the inverse of ElementType.String.
func ParseElementType(name string) (ElementType, error) {
	switch name {
	case "float32":
		return ElementFloat32, nil
	case "int8":
		return ElementInt8, nil
	default:
		return 0, fmt.Errorf("%w: unknown element type %q", ErrInvalidLayout, name)
	}
}

// LayerCounts holds the number of layers per repeatable attribute kind.
type LayerCounts struct {
	Colors    int `yaml:"colors"`
	UVs       int `yaml:"uvs"`
	Normals   int `yaml:"normals"`
	Binormals int `yaml:"binormals"`
	Tangents  int `yaml:"tangents"`
}

// Attribute describes one field of the interleaved vertex record.
type Attribute struct {
	Semantic   Semantic
	Layer      int // repetition index within the semantic
	Type       ElementType
	Components int
	Offset     int // byte offset within the vertex record
}

// Size returns the encoded size of the attribute in bytes.
func (a Attribute) Size() int {
	return a.Components * a.Type.Size()
}

// Format maps the attribute onto a GPU vertex format.
func (a Attribute) Format() gputypes.VertexFormat {
	if a.Type == ElementInt8 {
		return gputypes.VertexFormatSint8x4
	}
	switch a.Components {
	case 1:
		return gputypes.VertexFormatFloat32
	case 2:
		return gputypes.VertexFormatFloat32x2
	case 3:
		return gputypes.VertexFormatFloat32x3
	default:
		return gputypes.VertexFormatFloat32x4
	}
}

// Layout is the attribute layout descriptor of a vertex buffer. Attribute
// order is the canonical field order: position, colors, uvs, normals,
// binormals, tangents, then blend indices and weights. The blend block is
// always present; unskinned meshes carry four empty slots.
type Layout struct {
	Attributes []Attribute
	Stride     int
	Counts     LayerCounts
}

// NewLayout builds the descriptor for the given layer counts.
func NewLayout(counts LayerCounts) Layout {
	l := Layout{Counts: counts}

	add := func(sem Semantic, layers int, typ ElementType, comps int) {
		for i := 0; i < layers; i++ {
			a := Attribute{Semantic: sem, Layer: i, Type: typ, Components: comps, Offset: l.Stride}
			l.Attributes = append(l.Attributes, a)
			l.Stride += a.Size()
		}
	}

	add(SemanticPosition, 1, ElementFloat32, 3)
	add(SemanticDiffuse, counts.Colors, ElementFloat32, 4)
	add(SemanticTexCoord, counts.UVs, ElementFloat32, 2)
	add(SemanticNormal, counts.Normals, ElementFloat32, 3)
	add(SemanticBinormal, counts.Binormals, ElementFloat32, 3)
	add(SemanticTangent, counts.Tangents, ElementFloat32, 3)
	add(SemanticBlendIndex, 1, ElementInt8, MaxInfluences)
	add(SemanticBlendWeight, 1, ElementFloat32, MaxInfluences)
	return l
}

// LayoutFromAttributes rebuilds a Layout from a stored attribute list and
// checks that it matches the canonical field order and sizes.
func LayoutFromAttributes(attrs []Attribute) (Layout, error) {
	var counts LayerCounts
	for _, a := range attrs {
		switch a.Semantic {
		case SemanticPosition:
		case SemanticDiffuse:
			counts.Colors++
		case SemanticTexCoord:
			counts.UVs++
		case SemanticNormal:
			counts.Normals++
		case SemanticBinormal:
			counts.Binormals++
		case SemanticTangent:
			counts.Tangents++
		case SemanticBlendIndex, SemanticBlendWeight:
		default:
			return Layout{}, fmt.Errorf("%w: unknown semantic %d", ErrInvalidLayout, a.Semantic)
		}
	}

	want := NewLayout(counts)
	if len(want.Attributes) != len(attrs) {
		return Layout{}, fmt.Errorf("%w: expected %d attributes, got %d",
			ErrInvalidLayout, len(want.Attributes), len(attrs))
	}
	for i, a := range attrs {
		if a != want.Attributes[i] {
			return Layout{}, fmt.Errorf("%w: attribute %d is %s/%d, expected %s/%d",
				ErrInvalidLayout, i, a.Semantic, a.Layer, want.Attributes[i].Semantic, want.Attributes[i].Layer)
		}
	}
	return want, nil
}

// ComponentCount returns the number of scalar values per vertex.
func (l Layout) ComponentCount() int {
	n := 0
	for _, a := range l.Attributes {
		n += a.Components
	}
	return n
}

// BufferLayout returns the layout as a GPU vertex buffer description.
// Shader locations follow attribute order.
func (l Layout) BufferLayout() gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = gputypes.VertexAttribute{
			Format:         a.Format(),
			Offset:         uint64(a.Offset),
			ShaderLocation: uint32(i),
		}
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(l.Stride),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}
}
