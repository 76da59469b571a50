package importer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Faultbox/meshconv/pkg/math"
	"github.com/Faultbox/meshconv/pkg/mesh"
)

// MaxBones is the largest number of skin clusters a mesh may carry.
const MaxBones = mesh.MaxBones

// Import errors.
var (
	ErrNoMeshes          = errors.New("scene has no meshes")
	ErrEmptyMesh         = errors.New("mesh has no triangles")
	ErrLayerMismatch     = errors.New("corner layer counts differ")
	ErrControlPointRange = errors.New("control point index out of range")
	ErrMaterialRange     = errors.New("material index out of range")
	ErrTooManyBones      = errors.New("too many skin clusters")
	ErrSkinMismatch      = errors.New("skin indices and weights differ in length")
	ErrInvalidMatrix     = errors.New("invalid matrix")
	ErrInvalidVector     = errors.New("invalid vector")
)

// nodeSpace is the namespace of generated node references.
var nodeSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/Faultbox/meshconv/node"))

// NodeRef returns the stable reference generated for a node without one.
func NodeRef(kind, name string) string {
	return uuid.NewSHA1(nodeSpace, []byte(kind+"/"+name)).String()
}

// Sources builds every mesh of the scene, stopping at the first failure.
func (s *Scene) Sources() ([]mesh.Source, error) {
	if len(s.Meshes) == 0 {
		return nil, ErrNoMeshes
	}
	out := make([]mesh.Source, 0, len(s.Meshes))
	for i := range s.Meshes {
		src, err := s.Build(i)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

// Build turns mesh i into converter input: one record per corner,
// partitioned per material in order of first appearance, with skin
// influences spread from control points onto corners.
func (s *Scene) Build(i int) (mesh.Source, error) {
	d := &s.Meshes[i]
	name := d.Name
	if name == "" {
		name = fmt.Sprintf("mesh%d", i)
	}

	src, err := s.build(name, d)
	if err != nil {
		return mesh.Source{}, fmt.Errorf("mesh %q: %w", name, err)
	}
	return src, nil
}

func (s *Scene) build(name string, d *MeshDesc) (mesh.Source, error) {
	if len(d.Triangles) == 0 {
		return mesh.Source{}, ErrEmptyMesh
	}
	if len(d.Skin) > MaxBones {
		return mesh.Source{}, fmt.Errorf("%w: %d, limit %d", ErrTooManyBones, len(d.Skin), MaxBones)
	}

	meshBind, err := matrix(d.Bind)
	if err != nil {
		return mesh.Source{}, fmt.Errorf("bind: %w", err)
	}
	if !meshBind.IsFinite() {
		return mesh.Source{}, fmt.Errorf("bind: %w: non-finite value", ErrInvalidMatrix)
	}

	points := make([]math.Vec3, len(d.ControlPoints))
	for i, cp := range d.ControlPoints {
		if len(cp) != 3 {
			return mesh.Source{}, fmt.Errorf("control point %d: %w: %d components", i, ErrInvalidVector, len(cp))
		}
		points[i] = math.Vec3{X: cp[0], Y: cp[1], Z: cp[2]}
	}

	records, counts, err := s.corners(d, points)
	if err != nil {
		return mesh.Source{}, err
	}

	clusters, err := applySkin(d, meshBind, records)
	if err != nil {
		return mesh.Source{}, err
	}

	node := d.Node
	if node == "" {
		node = NodeRef("mesh", s.Name+"/"+name)
	}

	return mesh.Source{
		Name:       name,
		Node:       node,
		Counts:     counts,
		Partitions: partition(records),
		Materials:  s.Materials,
		Clusters:   clusters,
	}, nil
}

// corners flattens the triangles into records in triangle order and checks
// that every corner carries the same layer counts.
func (s *Scene) corners(d *MeshDesc, points []math.Vec3) ([]mesh.AttributeRecord, mesh.LayerCounts, error) {
	var counts mesh.LayerCounts
	records := make([]mesh.AttributeRecord, 0, len(d.Triangles)*3)

	for t, tri := range d.Triangles {
		if len(tri.Corners) != 3 {
			return nil, counts, fmt.Errorf("triangle %d: %w (%d corners)", t, mesh.ErrIncompleteTriangle, len(tri.Corners))
		}
		if tri.Material < 0 || (len(s.Materials) > 0 && int(tri.Material) >= len(s.Materials)) {
			return nil, counts, fmt.Errorf("triangle %d: %w: %d", t, ErrMaterialRange, tri.Material)
		}

		for c := range tri.Corners {
			corner := &tri.Corners[c]
			if corner.CP < 0 || corner.CP >= len(points) {
				return nil, counts, fmt.Errorf("triangle %d corner %d: %w: %d", t, c, ErrControlPointRange, corner.CP)
			}

			rec, err := record(corner, points[corner.CP])
			if err != nil {
				return nil, counts, fmt.Errorf("triangle %d corner %d: %w", t, c, err)
			}
			rec.Material = tri.Material
			rec.SourceCorner = uint32(len(records))

			if len(records) == 0 {
				counts = rec.LayerCounts()
			} else if got := rec.LayerCounts(); got != counts {
				return nil, counts, fmt.Errorf("triangle %d corner %d: %w: %+v, first corner %+v",
					t, c, ErrLayerMismatch, got, counts)
			}
			records = append(records, rec)
		}
	}
	return records, counts, nil
}

func record(c *CornerDesc, pos math.Vec3) (mesh.AttributeRecord, error) {
	rec := mesh.AttributeRecord{Position: pos}
	var err error

	if rec.Colors, err = vec4s("colors", c.Colors); err != nil {
		return rec, err
	}
	if rec.UVs, err = vec2s("uvs", c.UVs); err != nil {
		return rec, err
	}
	if rec.Normals, err = vec3s("normals", c.Normals); err != nil {
		return rec, err
	}
	if rec.Binormals, err = vec3s("binormals", c.Binormals); err != nil {
		return rec, err
	}
	if rec.Tangents, err = vec3s("tangents", c.Tangents); err != nil {
		return rec, err
	}
	return rec, nil
}

// applySkin builds one cluster per skin entry, the entry position being the
// bone index, and adds each influence to every corner that references the
// influenced control point. A bone already present on a corner is not added
// again.
func applySkin(d *MeshDesc, meshBind math.Mat4, records []mesh.AttributeRecord) ([]mesh.SkinCluster, error) {
	if len(d.Skin) == 0 {
		return nil, nil
	}

	byPoint := make(map[int][]int)
	for i := range records {
		cp := d.Triangles[i/3].Corners[i%3].CP
		byPoint[cp] = append(byPoint[cp], i)
	}

	clusters := make([]mesh.SkinCluster, len(d.Skin))
	for b, sk := range d.Skin {
		if len(sk.Indices) != len(sk.Weights) {
			return nil, fmt.Errorf("bone %q: %w: %d indices, %d weights",
				sk.Bone, ErrSkinMismatch, len(sk.Indices), len(sk.Weights))
		}

		boneBind, err := matrix(sk.Bind)
		if err != nil {
			return nil, fmt.Errorf("bone %q bind: %w", sk.Bone, err)
		}
		clusterMeshBind := meshBind
		if len(sk.MeshBind) > 0 {
			if clusterMeshBind, err = matrix(sk.MeshBind); err != nil {
				return nil, fmt.Errorf("bone %q mesh_bind: %w", sk.Bone, err)
			}
			if !clusterMeshBind.IsFinite() {
				return nil, fmt.Errorf("bone %q mesh_bind: %w: non-finite value", sk.Bone, ErrInvalidMatrix)
			}
		}

		node := sk.Node
		if node == "" {
			node = NodeRef("bone", sk.Bone)
		}
		clusters[b] = mesh.SkinCluster{
			Node:     node,
			Name:     sk.Bone,
			MeshBind: clusterMeshBind,
			BoneBind: boneBind,
		}

		for k, cp := range sk.Indices {
			if cp < 0 || cp >= len(d.ControlPoints) {
				return nil, fmt.Errorf("bone %q: %w: %d", sk.Bone, ErrControlPointRange, cp)
			}
			for _, i := range byPoint[cp] {
				rec := &records[i]
				if hasBone(rec, uint8(b)) {
					continue
				}
				rec.Influences = append(rec.Influences, mesh.BlendInfluence{Bone: uint8(b), Weight: sk.Weights[k]})
			}
		}
	}
	return clusters, nil
}

func hasBone(rec *mesh.AttributeRecord, bone uint8) bool {
	for _, in := range rec.Influences {
		if in.Bone == bone {
			return true
		}
	}
	return false
}

// partition groups records per material, partitions ordered by the first
// appearance of their material.
func partition(records []mesh.AttributeRecord) [][]mesh.AttributeRecord {
	var parts [][]mesh.AttributeRecord
	slot := make(map[int32]int)
	for _, rec := range records {
		p, ok := slot[rec.Material]
		if !ok {
			p = len(parts)
			slot[rec.Material] = p
			parts = append(parts, nil)
		}
		parts[p] = append(parts[p], rec)
	}
	return parts
}

// matrix converts 16 column-major floats, or nothing for identity.
func matrix(vals []float32) (math.Mat4, error) {
	if len(vals) == 0 {
		return math.Identity(), nil
	}
	if len(vals) != 16 {
		return math.Mat4{}, fmt.Errorf("%w: %d values, want 16", ErrInvalidMatrix, len(vals))
	}
	var m math.Mat4
	copy(m[:], vals)
	return m, nil
}

func vec2s(field string, in [][]float32) ([]math.Vec2, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]math.Vec2, len(in))
	for i, v := range in {
		if len(v) != 2 {
			return nil, fmt.Errorf("%s[%d]: %w: %d components, want 2", field, i, ErrInvalidVector, len(v))
		}
		out[i] = math.Vec2{X: v[0], Y: v[1]}
	}
	return out, nil
}

func vec3s(field string, in [][]float32) ([]math.Vec3, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]math.Vec3, len(in))
	for i, v := range in {
		if len(v) != 3 {
			return nil, fmt.Errorf("%s[%d]: %w: %d components, want 3", field, i, ErrInvalidVector, len(v))
		}
		out[i] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
	}
	return out, nil
}

func vec4s(field string, in [][]float32) ([]math.Vec4, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]math.Vec4, len(in))
	for i, v := range in {
		if len(v) != 4 {
			return nil, fmt.Errorf("%s[%d]: %w: %d components, want 4", field, i, ErrInvalidVector, len(v))
		}
		out[i] = math.Vec4{X: v[0], Y: v[1], Z: v[2], W: v[3]}
	}
	return out, nil
}
