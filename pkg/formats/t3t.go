package formats

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshconv/pkg/math"
	"github.com/Faultbox/meshconv/pkg/mesh"
)

// textFormatTag marks a t3t document.
const textFormatTag = "t3t"

type textModel struct {
	Format  string     `yaml:"format"`
	Version uint8      `yaml:"version"`
	Name    string     `yaml:"name,omitempty"`
	Meshes  []textMesh `yaml:"meshes"`
}

type textMesh struct {
	Name         string            `yaml:"name"`
	Node         string            `yaml:"node,omitempty"`
	VertexBuffer textVertexBuffer  `yaml:"vertex_buffer"`
	IndexBuffers []textIndexBuffer `yaml:"index_buffers"`
	Bones        []textBone        `yaml:"bones,omitempty"`
}

type textVertexBuffer struct {
	Stride     int             `yaml:"stride"`
	Count      int             `yaml:"count"`
	Attributes []textAttribute `yaml:"attributes"`
	Values     block           `yaml:"values"`
}

type textAttribute struct {
	Semantic string `yaml:"semantic"`
	Type     string `yaml:"type"`
	Size     int    `yaml:"size"`
	Layer    int    `yaml:"layer"`
	Offset   int    `yaml:"offset"`
}

type textIndexBuffer struct {
	Width          int    `yaml:"width"`
	Primitive      string `yaml:"primitive"`
	PrimitiveCount int    `yaml:"primitive_count"`
	Material       int32  `yaml:"material"`
	MaterialName   string `yaml:"material_name,omitempty"`
	Values         block  `yaml:"values"`
}

type textBone struct {
	Name   string `yaml:"name"`
	Node   string `yaml:"node,omitempty"`
	Offset string `yaml:"offset"` // 16 column-major floats
}

// block is a multi-line string emitted as a YAML literal block.
type block string

// MarshalYAML implements yaml.Marshaler.
func (b block) MarshalYAML() (interface{}, error) {
	if b == "" {
		return "", nil
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Style: yaml.LiteralStyle, Value: string(b)}, nil
}

// EncodeText writes the t3t form.
func EncodeText(m *Model) ([]byte, error) {
	doc := textModel{
		Format:  textFormatTag,
		Version: Version,
		Name:    m.Name,
		Meshes:  make([]textMesh, 0, len(m.Meshes)),
	}

	for _, ms := range m.Meshes {
		tm := textMesh{
			Name: ms.Name,
			Node: ms.Node,
			VertexBuffer: textVertexBuffer{
				Stride: ms.Vertex.Layout.Stride,
				Count:  len(ms.Vertex.Vertices),
				Values: block(mesh.EncodeVerticesText(&ms.Vertex)),
			},
		}
		for _, a := range ms.Vertex.Layout.Attributes {
			tm.VertexBuffer.Attributes = append(tm.VertexBuffer.Attributes, textAttribute{
				Semantic: a.Semantic.String(),
				Type:     a.Type.String(),
				Size:     a.Components,
				Layer:    a.Layer,
				Offset:   a.Offset,
			})
		}
		for i := range ms.Indices {
			ib := &ms.Indices[i]
			tm.IndexBuffers = append(tm.IndexBuffers, textIndexBuffer{
				Width:          int(ib.Width),
				Primitive:      ib.Primitive.String(),
				PrimitiveCount: ib.PrimitiveCount(),
				Material:       ib.Material,
				MaterialName:   ib.MaterialName,
				Values:         block(mesh.EncodeIndicesText(ib)),
			})
		}
		for _, b := range ms.Bones {
			tm.Bones = append(tm.Bones, textBone{
				Name:   b.Name,
				Node:   b.Node,
				Offset: formatMatrix(b.Offset),
			})
		}
		doc.Meshes = append(doc.Meshes, tm)
	}

	return yaml.Marshal(&doc)
}

// DecodeText parses the t3t form.
func DecodeText(data []byte) (*Model, error) {
	var doc textModel
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMagic, err)
	}
	if doc.Format != textFormatTag {
		return nil, fmt.Errorf("%w: format %q", ErrInvalidMagic, doc.Format)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	m := &Model{Name: doc.Name}
	for i := range doc.Meshes {
		ms, err := decodeTextMesh(&doc.Meshes[i])
		if err != nil {
			return nil, fmt.Errorf("mesh %d %q: %w", i, doc.Meshes[i].Name, err)
		}
		m.Meshes = append(m.Meshes, ms)
	}
	return m, nil
}

func decodeTextMesh(tm *textMesh) (*mesh.Mesh, error) {
	attrs := make([]mesh.Attribute, len(tm.VertexBuffer.Attributes))
	for i, ta := range tm.VertexBuffer.Attributes {
		sem, err := mesh.ParseSemantic(ta.Semantic)
		if err != nil {
			return nil, err
		}
		typ, err := mesh.ParseElementType(ta.Type)
		if err != nil {
			return nil, err
		}
		attrs[i] = mesh.Attribute{Semantic: sem, Layer: ta.Layer, Type: typ, Components: ta.Size, Offset: ta.Offset}
	}

	layout, err := mesh.LayoutFromAttributes(attrs)
	if err != nil {
		return nil, err
	}
	if layout.Stride != tm.VertexBuffer.Stride {
		return nil, fmt.Errorf("%w: stride %d, attributes give %d", mesh.ErrInvalidLayout, tm.VertexBuffer.Stride, layout.Stride)
	}
	vertices, err := mesh.ParseTextVertices(layout, string(tm.VertexBuffer.Values))
	if err != nil {
		return nil, err
	}
	if len(vertices) != tm.VertexBuffer.Count {
		return nil, fmt.Errorf("%w: %d vertices, header says %d", ErrTruncatedData, len(vertices), tm.VertexBuffer.Count)
	}

	m := &mesh.Mesh{
		Name:   tm.Name,
		Node:   tm.Node,
		Vertex: mesh.VertexBuffer{Layout: layout, Vertices: vertices},
	}

	for i, ti := range tm.IndexBuffers {
		ib, err := decodeTextIndexBuffer(&ti)
		if err != nil {
			return nil, fmt.Errorf("index buffer %d: %w", i, err)
		}
		m.Indices = append(m.Indices, ib)
	}

	for i, tb := range tm.Bones {
		off, err := parseMatrix(tb.Offset)
		if err != nil {
			return nil, fmt.Errorf("bone %d %q: %w", i, tb.Name, err)
		}
		m.Bones = append(m.Bones, mesh.Bone{Node: tb.Node, Name: tb.Name, Offset: off})
	}

	m.Stats = decodedStats(m)
	return m, nil
}

func decodeTextIndexBuffer(ti *textIndexBuffer) (mesh.IndexBuffer, error) {
	ib := mesh.IndexBuffer{
		Primitive:    mesh.PrimitiveTriangleList,
		Material:     ti.Material,
		MaterialName: ti.MaterialName,
	}

	switch ti.Width {
	case 16:
		ib.Width = mesh.Index16
	case 32:
		ib.Width = mesh.Index32
	default:
		return ib, fmt.Errorf("unsupported index width %d", ti.Width)
	}
	if ti.Primitive != mesh.PrimitiveTriangleList.String() {
		return ib, fmt.Errorf("unsupported primitive %q", ti.Primitive)
	}

	indices, err := mesh.ParseTextIndices(string(ti.Values))
	if err != nil {
		return ib, err
	}
	ib.Indices = indices
	if ib.PrimitiveCount() != ti.PrimitiveCount {
		return ib, fmt.Errorf("%w: %d primitives, header says %d", ErrTruncatedData, ib.PrimitiveCount(), ti.PrimitiveCount)
	}
	return ib, nil
}

func formatMatrix(m math.Mat4) string {
	vals := make([]string, len(m))
	for i, f := range m {
		vals[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return strings.Join(vals, " ")
}

func parseMatrix(s string) (math.Mat4, error) {
	var m math.Mat4
	fields := strings.Fields(s)
	if len(fields) != len(m) {
		return m, fmt.Errorf("%w: offset has %d values", ErrTruncatedData, len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return m, fmt.Errorf("offset value %d: %w", i, err)
		}
		m[i] = float32(v)
	}
	return m, nil
}
