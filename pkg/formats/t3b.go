package formats

import (
	"encoding/binary"
	"fmt"
	gomath "math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/Faultbox/meshconv/pkg/math"
	"github.com/Faultbox/meshconv/pkg/mesh"
)

// Field numbers of the t3b messages.
const (
	modelName   protowire.Number = 1
	modelMeshes protowire.Number = 2

	meshName          protowire.Number = 1
	meshVertexBuffers protowire.Number = 2
	meshIndexBuffers  protowire.Number = 3
	meshBones         protowire.Number = 4
	meshNode          protowire.Number = 5

	vbAttributes protowire.Number = 1
	vbValues     protowire.Number = 2
	vbStride     protowire.Number = 3
	vbCount      protowire.Number = 4

	attrSemantic protowire.Number = 1
	attrType     protowire.Number = 2
	attrSize     protowire.Number = 3
	attrLayer    protowire.Number = 4
	attrOffset   protowire.Number = 5

	ibIs16Bit        protowire.Number = 1
	ibPrimitiveType  protowire.Number = 2
	ibPrimitiveCount protowire.Number = 3
	ibMaterial       protowire.Number = 4
	ibValues         protowire.Number = 5
	ibMaterialName   protowire.Number = 6

	boneNode   protowire.Number = 1
	boneName   protowire.Number = 2
	boneOffset protowire.Number = 3
)

// EncodeBinary writes the t3b form: magic, version byte, then the Model
// message in protobuf wire format.
func EncodeBinary(m *Model) []byte {
	b := make([]byte, 0, 64+m.VertexCount()*32)
	b = append(b, Magic...)
	b = append(b, Version)

	b = appendString(b, modelName, m.Name)
	for _, ms := range m.Meshes {
		b = protowire.AppendTag(b, modelMeshes, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeMesh(ms))
	}
	return b
}

func encodeMesh(m *mesh.Mesh) []byte {
	var b []byte
	b = appendString(b, meshName, m.Name)

	b = protowire.AppendTag(b, meshVertexBuffers, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeVertexBuffer(&m.Vertex))

	for i := range m.Indices {
		b = protowire.AppendTag(b, meshIndexBuffers, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeIndexBuffer(&m.Indices[i]))
	}
	for i := range m.Bones {
		b = protowire.AppendTag(b, meshBones, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeBone(&m.Bones[i]))
	}
	b = appendString(b, meshNode, m.Node)
	return b
}

func encodeVertexBuffer(vb *mesh.VertexBuffer) []byte {
	var b []byte
	for _, a := range vb.Layout.Attributes {
		var ab []byte
		ab = appendVarint(ab, attrSemantic, uint64(a.Semantic))
		ab = appendVarint(ab, attrType, uint64(a.Type))
		ab = appendVarint(ab, attrSize, uint64(a.Components))
		ab = appendVarint(ab, attrLayer, uint64(a.Layer))
		ab = appendVarint(ab, attrOffset, uint64(a.Offset))

		b = protowire.AppendTag(b, vbAttributes, protowire.BytesType)
		b = protowire.AppendBytes(b, ab)
	}
	b = protowire.AppendTag(b, vbValues, protowire.BytesType)
	b = protowire.AppendBytes(b, mesh.EncodeVertices(vb))
	b = appendVarint(b, vbStride, uint64(vb.Layout.Stride))
	b = appendVarint(b, vbCount, uint64(len(vb.Vertices)))
	return b
}

func encodeIndexBuffer(ib *mesh.IndexBuffer) []byte {
	var b []byte
	b = appendVarint(b, ibIs16Bit, protowire.EncodeBool(ib.Width == mesh.Index16))
	b = appendVarint(b, ibPrimitiveType, uint64(ib.Primitive))
	b = appendVarint(b, ibPrimitiveCount, uint64(ib.PrimitiveCount()))
	b = appendVarint(b, ibMaterial, uint64(int64(ib.Material)))
	b = protowire.AppendTag(b, ibValues, protowire.BytesType)
	b = protowire.AppendBytes(b, mesh.EncodeIndices(ib))
	b = appendString(b, ibMaterialName, ib.MaterialName)
	return b
}

func encodeBone(bone *mesh.Bone) []byte {
	var b []byte
	b = appendString(b, boneNode, bone.Node)
	b = appendString(b, boneName, bone.Name)

	packed := make([]byte, 0, len(bone.Offset)*4)
	for _, f := range bone.Offset {
		packed = binary.LittleEndian.AppendUint32(packed, gomath.Float32bits(f))
	}
	b = protowire.AppendTag(b, boneOffset, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)
	return b
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// DecodeBinary parses the t3b form. Unknown fields are skipped.
func DecodeBinary(data []byte) (*Model, error) {
	if len(data) < len(Magic)+1 {
		return nil, ErrTruncatedData
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, ErrInvalidMagic
	}
	if v := data[len(Magic)]; v != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	m := &Model{}
	err := walkFields(data[len(Magic)+1:], func(num protowire.Number, _ uint64, val []byte) error {
		switch num {
		case modelName:
			m.Name = string(val)
		case modelMeshes:
			ms, err := decodeMesh(val)
			if err != nil {
				return fmt.Errorf("mesh %d: %w", len(m.Meshes), err)
			}
			m.Meshes = append(m.Meshes, ms)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func decodeMesh(data []byte) (*mesh.Mesh, error) {
	m := &mesh.Mesh{}
	buffers := 0
	err := walkFields(data, func(num protowire.Number, _ uint64, val []byte) error {
		switch num {
		case meshName:
			m.Name = string(val)
		case meshNode:
			m.Node = string(val)
		case meshVertexBuffers:
			buffers++
			if buffers > 1 {
				return fmt.Errorf("%w: more than one vertex buffer", mesh.ErrInvalidLayout)
			}
			vb, err := decodeVertexBuffer(val)
			if err != nil {
				return err
			}
			m.Vertex = vb
		case meshIndexBuffers:
			ib, err := decodeIndexBuffer(val)
			if err != nil {
				return fmt.Errorf("index buffer %d: %w", len(m.Indices), err)
			}
			m.Indices = append(m.Indices, ib)
		case meshBones:
			bone, err := decodeBone(val)
			if err != nil {
				return fmt.Errorf("bone %d: %w", len(m.Bones), err)
			}
			m.Bones = append(m.Bones, bone)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.Stats = decodedStats(m)
	return m, nil
}

func decodeVertexBuffer(data []byte) (mesh.VertexBuffer, error) {
	var (
		attrs         []mesh.Attribute
		values        []byte
		stride, count uint64
	)
	err := walkFields(data, func(num protowire.Number, v uint64, val []byte) error {
		switch num {
		case vbAttributes:
			a, err := decodeAttribute(val)
			if err != nil {
				return err
			}
			attrs = append(attrs, a)
		case vbValues:
			values = val
		case vbStride:
			stride = v
		case vbCount:
			count = v
		}
		return nil
	})
	if err != nil {
		return mesh.VertexBuffer{}, err
	}

	layout, err := mesh.LayoutFromAttributes(attrs)
	if err != nil {
		return mesh.VertexBuffer{}, err
	}
	if uint64(layout.Stride) != stride {
		return mesh.VertexBuffer{}, fmt.Errorf("%w: stride %d, attributes give %d", mesh.ErrInvalidLayout, stride, layout.Stride)
	}
	vertices, err := mesh.DecodeVertices(layout, values)
	if err != nil {
		return mesh.VertexBuffer{}, err
	}
	if uint64(len(vertices)) != count {
		return mesh.VertexBuffer{}, fmt.Errorf("%w: %d vertices, header says %d", ErrTruncatedData, len(vertices), count)
	}
	return mesh.VertexBuffer{Layout: layout, Vertices: vertices}, nil
}

func decodeAttribute(data []byte) (mesh.Attribute, error) {
	var a mesh.Attribute
	err := walkFields(data, func(num protowire.Number, v uint64, _ []byte) error {
		switch num {
		case attrSemantic:
			a.Semantic = mesh.Semantic(v)
		case attrType:
			a.Type = mesh.ElementType(v)
		case attrSize:
			a.Components = int(v)
		case attrLayer:
			a.Layer = int(v)
		case attrOffset:
			a.Offset = int(v)
		}
		return nil
	})
	return a, err
}

func decodeIndexBuffer(data []byte) (mesh.IndexBuffer, error) {
	ib := mesh.IndexBuffer{Width: mesh.Index32}
	var (
		values []byte
		count  uint64
	)
	err := walkFields(data, func(num protowire.Number, v uint64, val []byte) error {
		switch num {
		case ibIs16Bit:
			if protowire.DecodeBool(v) {
				ib.Width = mesh.Index16
			}
		case ibPrimitiveType:
			ib.Primitive = mesh.PrimitiveType(v)
		case ibPrimitiveCount:
			count = v
		case ibMaterial:
			ib.Material = int32(int64(v))
		case ibValues:
			values = val
		case ibMaterialName:
			ib.MaterialName = string(val)
		}
		return nil
	})
	if err != nil {
		return ib, err
	}

	if ib.Indices, err = mesh.DecodeIndices(ib.Width, values); err != nil {
		return ib, err
	}
	if uint64(ib.PrimitiveCount()) != count {
		return ib, fmt.Errorf("%w: %d primitives, header says %d", ErrTruncatedData, ib.PrimitiveCount(), count)
	}
	return ib, nil
}

func decodeBone(data []byte) (mesh.Bone, error) {
	var bone mesh.Bone
	err := walkFields(data, func(num protowire.Number, _ uint64, val []byte) error {
		switch num {
		case boneNode:
			bone.Node = string(val)
		case boneName:
			bone.Name = string(val)
		case boneOffset:
			if len(val) != len(bone.Offset)*4 {
				return fmt.Errorf("%w: offset matrix has %d bytes", ErrTruncatedData, len(val))
			}
			var off math.Mat4
			for i := range off {
				off[i] = gomath.Float32frombits(binary.LittleEndian.Uint32(val[i*4:]))
			}
			bone.Offset = off
		}
		return nil
	})
	return bone, err
}

// walkFields visits every field of a message. Varints arrive in v,
// length-delimited fields in val; other wire types are skipped.
func walkFields(b []byte, visit func(num protowire.Number, v uint64, val []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrTruncatedData, protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrTruncatedData, num, protowire.ParseError(n))
			}
			b = b[n:]
			if err := visit(num, v, nil); err != nil {
				return err
			}
		case protowire.BytesType:
			val, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrTruncatedData, num, protowire.ParseError(n))
			}
			b = b[n:]
			if err := visit(num, 0, val); err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrTruncatedData, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}
