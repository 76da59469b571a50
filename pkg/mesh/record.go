// Package mesh turns a per-corner vertex soup into a welded, indexed mesh.
//
// One AttributeRecord is fed per triangle corner. The Welder merges corners
// whose full attribute tuple is identical, the compact vertices are ordered by
// ascending canonical key, and index buffers are emitted in the narrowest
// width that can address every vertex. Every vertex carries four packed blend
// slots; skinned meshes additionally carry bone offset matrices.
package mesh

import "github.com/Faultbox/meshconv/pkg/math"

// BlendInfluence is one bone's contribution to a corner.
type BlendInfluence struct {
	Bone   uint8
	Weight float32
}

// AttributeRecord is the full attribute tuple of one triangle corner.
type AttributeRecord struct {
	Position   math.Vec3
	Colors     []math.Vec4
	UVs        []math.Vec2
	Normals    []math.Vec3
	Binormals  []math.Vec3
	Tangents   []math.Vec3
	Influences []BlendInfluence // insertion order is kept for tie-breaking

	Material     int32
	SourceCorner uint32 // position in the original corner stream
}

// LayerCounts returns how many layers of each attribute kind the record carries.
func (r *AttributeRecord) LayerCounts() LayerCounts {
	return LayerCounts{
		Colors:    len(r.Colors),
		UVs:       len(r.UVs),
		Normals:   len(r.Normals),
		Binormals: len(r.Binormals),
		Tangents:  len(r.Tangents),
	}
}
