package mesh

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// MaxIndex16 is the largest vertex count addressable with 16-bit indices.
const MaxIndex16 = 65535

// IndexWidth is the bit width of an encoded index.
type IndexWidth uint8

const (
	Index16 IndexWidth = 16
	Index32 IndexWidth = 32
)

// SelectWidth returns the narrowest width able to address vertexCount
// vertices.
func SelectWidth(vertexCount int) IndexWidth {
	if vertexCount <= MaxIndex16 {
		return Index16
	}
	return Index32
}

// Bytes returns the encoded size of one index.
func (w IndexWidth) Bytes() int {
	if w == Index16 {
		return 2
	}
	return 4
}

// Format maps the width onto a GPU index format.
func (w IndexWidth) Format() gputypes.IndexFormat {
	if w == Index16 {
		return gputypes.IndexFormatUint16
	}
	return gputypes.IndexFormatUint32
}

// PrimitiveType is the primitive assembly of an index buffer.
type PrimitiveType int32

// PrimitiveTriangleList is the only primitive type produced here.
const PrimitiveTriangleList PrimitiveType = 4

// String returns a human-readable primitive name.
func (p PrimitiveType) String() string {
	if p == PrimitiveTriangleList {
		return "triangle_list"
	}
	return fmt.Sprintf("Unknown(%d)", int32(p))
}

// Topology maps the primitive type onto a GPU topology.
func (p PrimitiveType) Topology() gputypes.PrimitiveTopology {
	return gputypes.PrimitiveTopologyTriangleList
}

// IndexBuffer holds the compact indices of one material partition.
type IndexBuffer struct {
	Indices      []uint32
	Width        IndexWidth
	Primitive    PrimitiveType
	Material     int32  // material index of the first corner
	MaterialName string // resolved from the mesh material table, may be empty
}

// PrimitiveCount returns the number of triangles.
func (b *IndexBuffer) PrimitiveCount() int {
	return len(b.Indices) / 3
}
