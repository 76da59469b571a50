package mesh

import (
	"errors"
	"fmt"
)

// MaxBones is the number of bones a packed signed blend index can address.
const MaxBones = 128

// Conversion errors.
var (
	ErrEmptyMesh          = errors.New("mesh has no corners")
	ErrIncompleteTriangle = errors.New("corner count is not a multiple of 3")
	ErrBoneRange          = errors.New("blend influence references an unknown bone")
)

// Source is the importer's view of one mesh: corners partitioned per
// material, in triangle order within each partition.
type Source struct {
	Name       string
	Node       string // opaque node reference, carried through unchanged
	Counts     LayerCounts
	Partitions [][]AttributeRecord
	Materials  []string // material names indexed by AttributeRecord.Material
	Clusters   []SkinCluster // at most MaxBones; influences index into it
}

// Corners returns the total corner count.
func (s *Source) Corners() int {
	n := 0
	for _, p := range s.Partitions {
		n += len(p)
	}
	return n
}

// Options tunes a conversion.
type Options struct {
	Collisions CollisionPolicy
}

// VertexBuffer is the interleaved, welded vertex buffer of a mesh.
type VertexBuffer struct {
	Layout   Layout
	Vertices []CompactVertex
}

// Mesh is a converted mesh ready for serialization.
type Mesh struct {
	Name    string
	Node    string
	Vertex  VertexBuffer
	Indices []IndexBuffer // one per material partition
	Bones   []Bone
	Stats   WeldStats
}

// IndexWidth returns the width shared by all index buffers of the mesh.
func (m *Mesh) IndexWidth() IndexWidth {
	return SelectWidth(len(m.Vertex.Vertices))
}

// Convert welds all partitions into one vertex buffer and emits one index
// buffer per partition. A failure aborts the whole mesh; no partial mesh is
// returned.
func Convert(src Source, opts Options) (*Mesh, error) {
	if src.Corners() == 0 {
		return nil, fmt.Errorf("mesh %q: %w", src.Name, ErrEmptyMesh)
	}
	for i, p := range src.Partitions {
		if len(p)%3 != 0 {
			return nil, fmt.Errorf("mesh %q partition %d: %w (%d corners)",
				src.Name, i, ErrIncompleteTriangle, len(p))
		}
	}

	if err := checkInfluences(&src); err != nil {
		return nil, fmt.Errorf("mesh %q: %w", src.Name, err)
	}

	bones, err := BuildBones(src.Clusters)
	if err != nil {
		return nil, fmt.Errorf("mesh %q: %w", src.Name, err)
	}

	layout := NewLayout(src.Counts)
	welder := NewWelder(layout, opts.Collisions)

	type span struct {
		from, to int
		material int32
	}
	spans := make([]span, 0, len(src.Partitions))
	for _, p := range src.Partitions {
		if len(p) == 0 {
			continue
		}
		from := welder.Len()
		for _, rec := range p {
			welder.Add(rec)
		}
		spans = append(spans, span{from, welder.Len(), p[0].Material})
	}

	table := welder.Finalize()
	width := SelectWidth(len(table.Vertices))

	buffers := make([]IndexBuffer, 0, len(spans))
	for _, s := range spans {
		material := s.material
		ib := IndexBuffer{
			Indices:   table.Indices(s.from, s.to),
			Width:     width,
			Primitive: PrimitiveTriangleList,
			Material:  material,
		}
		if material >= 0 && int(material) < len(src.Materials) {
			ib.MaterialName = src.Materials[material]
		}
		buffers = append(buffers, ib)
	}

	return &Mesh{
		Name:    src.Name,
		Node:    src.Node,
		Vertex:  VertexBuffer{Layout: layout, Vertices: table.Vertices},
		Indices: buffers,
		Bones:   bones,
		Stats:   table.Stats,
	}, nil
}

func checkInfluences(src *Source) error {
	if len(src.Clusters) > MaxBones {
		return fmt.Errorf("%w: %d bones, at most %d", ErrBoneRange, len(src.Clusters), MaxBones)
	}
	for _, p := range src.Partitions {
		for i := range p {
			for _, inf := range p[i].Influences {
				if int(inf.Bone) >= len(src.Clusters) {
					return fmt.Errorf("%w: corner %d bone %d, %d bones",
						ErrBoneRange, p[i].SourceCorner, inf.Bone, len(src.Clusters))
				}
			}
		}
	}
	return nil
}
