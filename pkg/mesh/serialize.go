package mesh

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"
	"strconv"
	"strings"

	"github.com/Faultbox/meshconv/pkg/math"
)

// Serializer errors.
var (
	ErrTruncatedBuffer = errors.New("buffer size is not a multiple of the record size")
	ErrMalformedText   = errors.New("malformed text buffer")
)

// EncodeVertices packs every compact vertex in layout order: float fields as
// little-endian IEEE-754, blend indices as signed bytes.
func EncodeVertices(vb *VertexBuffer) []byte {
	out := make([]byte, 0, vb.Layout.Stride*len(vb.Vertices))
	for i := range vb.Vertices {
		v := &vb.Vertices[i]
		out = appendVertex(out, &v.Record, &v.Blend, vb.Layout)
	}
	return out
}

// DecodeVertices unpacks a binary vertex buffer using only its layout. The
// canonical key and material index are not stored and stay zero.
func DecodeVertices(layout Layout, data []byte) ([]CompactVertex, error) {
	layout, err := LayoutFromAttributes(layout.Attributes)
	if err != nil {
		return nil, err
	}
	if len(data)%layout.Stride != 0 {
		return nil, fmt.Errorf("%w: %d bytes, stride %d", ErrTruncatedBuffer, len(data), layout.Stride)
	}

	count := len(data) / layout.Stride
	out := make([]CompactVertex, count)
	for i := range out {
		rec := data[i*layout.Stride : (i+1)*layout.Stride]
		v := newDecodedVertex(layout, uint32(i))
		for _, a := range layout.Attributes {
			field := rec[a.Offset : a.Offset+a.Size()]
			if a.Type == ElementInt8 {
				for k := 0; k < a.Components; k++ {
					v.Blend[k].Bone = int8(field[k])
				}
				continue
			}
			vals := make([]float32, a.Components)
			for k := range vals {
				vals[k] = gomath.Float32frombits(binary.LittleEndian.Uint32(field[k*4:]))
			}
			setField(&v, a, vals)
		}
		out[i] = v
	}
	return out, nil
}

// EncodeVerticesText writes one line per compact vertex with the fields in
// layout order. Floats use the shortest decimal form that parses back to the
// same float32; blend indices are signed integers.
func EncodeVerticesText(vb *VertexBuffer) string {
	var sb strings.Builder
	vals := make([]string, 0, vb.Layout.ComponentCount())
	for i := range vb.Vertices {
		v := &vb.Vertices[i]
		data := appendVertex(nil, &v.Record, &v.Blend, vb.Layout)
		vals = vals[:0]
		for _, a := range vb.Layout.Attributes {
			field := data[a.Offset : a.Offset+a.Size()]
			for k := 0; k < a.Components; k++ {
				if a.Type == ElementInt8 {
					vals = append(vals, strconv.Itoa(int(int8(field[k]))))
					continue
				}
				f := gomath.Float32frombits(binary.LittleEndian.Uint32(field[k*4:]))
				vals = append(vals, formatFloat(f))
			}
		}
		sb.WriteString(strings.Join(vals, " "))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseTextVertices reads the text form back. Any whitespace separates values.
func ParseTextVertices(layout Layout, text string) ([]CompactVertex, error) {
	layout, err := LayoutFromAttributes(layout.Attributes)
	if err != nil {
		return nil, err
	}
	tokens := strings.Fields(text)
	per := layout.ComponentCount()
	if len(tokens)%per != 0 {
		return nil, fmt.Errorf("%w: %d values, %d per vertex", ErrMalformedText, len(tokens), per)
	}

	out := make([]CompactVertex, len(tokens)/per)
	pos := 0
	for i := range out {
		v := newDecodedVertex(layout, uint32(i))
		for _, a := range layout.Attributes {
			if a.Type == ElementInt8 {
				for k := 0; k < a.Components; k++ {
					n, err := strconv.ParseInt(tokens[pos], 10, 8)
					if err != nil {
						return nil, fmt.Errorf("%w: vertex %d %s: %v", ErrMalformedText, i, a.Semantic, err)
					}
					v.Blend[k].Bone = int8(n)
					pos++
				}
				continue
			}
			vals := make([]float32, a.Components)
			for k := range vals {
				f, err := strconv.ParseFloat(tokens[pos], 32)
				if err != nil {
					return nil, fmt.Errorf("%w: vertex %d %s: %v", ErrMalformedText, i, a.Semantic, err)
				}
				vals[k] = float32(f)
				pos++
			}
			setField(&v, a, vals)
		}
		out[i] = v
	}
	return out, nil
}

// EncodeIndices packs indices as little-endian unsigned integers of the
// buffer's width.
func EncodeIndices(ib *IndexBuffer) []byte {
	out := make([]byte, 0, len(ib.Indices)*ib.Width.Bytes())
	for _, idx := range ib.Indices {
		if ib.Width == Index16 {
			out = binary.LittleEndian.AppendUint16(out, uint16(idx))
		} else {
			out = binary.LittleEndian.AppendUint32(out, idx)
		}
	}
	return out
}

// DecodeIndices unpacks a binary index buffer.
func DecodeIndices(width IndexWidth, data []byte) ([]uint32, error) {
	size := width.Bytes()
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes, %d-bit indices", ErrTruncatedBuffer, len(data), width)
	}
	out := make([]uint32, len(data)/size)
	for i := range out {
		if width == Index16 {
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		} else {
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	}
	return out, nil
}

// EncodeIndicesText writes one triangle per line.
func EncodeIndicesText(ib *IndexBuffer) string {
	var sb strings.Builder
	for i, idx := range ib.Indices {
		sb.WriteString(strconv.FormatUint(uint64(idx), 10))
		if i%3 == 2 || i == len(ib.Indices)-1 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// ParseTextIndices reads the text form of an index buffer.
func ParseTextIndices(text string) ([]uint32, error) {
	tokens := strings.Fields(text)
	out := make([]uint32, len(tokens))
	for i, tok := range tokens {
		n, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: index %d: %v", ErrMalformedText, i, err)
		}
		out[i] = uint32(n)
	}
	return out, nil
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func newDecodedVertex(layout Layout, index uint32) CompactVertex {
	v := CompactVertex{Index: index}
	c := layout.Counts
	if c.Colors > 0 {
		v.Record.Colors = make([]math.Vec4, c.Colors)
	}
	if c.UVs > 0 {
		v.Record.UVs = make([]math.Vec2, c.UVs)
	}
	if c.Normals > 0 {
		v.Record.Normals = make([]math.Vec3, c.Normals)
	}
	if c.Binormals > 0 {
		v.Record.Binormals = make([]math.Vec3, c.Binormals)
	}
	if c.Tangents > 0 {
		v.Record.Tangents = make([]math.Vec3, c.Tangents)
	}
	for i := range v.Blend {
		v.Blend[i] = emptySlot
	}
	return v
}

func setField(v *CompactVertex, a Attribute, vals []float32) {
	r := &v.Record
	switch a.Semantic {
	case SemanticPosition:
		r.Position = math.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}
	case SemanticDiffuse:
		r.Colors[a.Layer] = math.Vec4{X: vals[0], Y: vals[1], Z: vals[2], W: vals[3]}
	case SemanticTexCoord:
		r.UVs[a.Layer] = math.Vec2{X: vals[0], Y: vals[1]}
	case SemanticNormal:
		r.Normals[a.Layer] = math.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}
	case SemanticBinormal:
		r.Binormals[a.Layer] = math.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}
	case SemanticTangent:
		r.Tangents[a.Layer] = math.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}
	case SemanticBlendWeight:
		for k := range vals {
			v.Blend[k].Weight = vals[k]
		}
	}
}
