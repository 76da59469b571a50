package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshconv/pkg/math"
)

// ErrDegenerateBindPose is returned when a bone's bind matrix cannot be
// inverted.
var ErrDegenerateBindPose = errors.New("degenerate bind pose")

// Bone links a skin cluster to its transform node.
type Bone struct {
	Node   string // opaque node reference
	Name   string
	Offset math.Mat4 // bind-time mesh space -> bone local space
}

// SkinCluster carries the bind-time transforms of one bone, as supplied by
// the importer. Its position in the cluster list is the bone index used by
// blend influences.
type SkinCluster struct {
	Node     string
	Name     string
	MeshBind math.Mat4 // mesh world transform at bind time
	BoneBind math.Mat4 // bone world transform at bind time
}

// BoneOffset returns inverse(boneBind) * meshBind.
func BoneOffset(meshBind, boneBind math.Mat4) (math.Mat4, error) {
	inv, ok := boneBind.Inverse()
	if !ok {
		return math.Mat4{}, ErrDegenerateBindPose
	}
	return inv.Mul(meshBind), nil
}

// BuildBones computes one Bone per cluster, in cluster order. It returns nil
// for an unskinned mesh.
func BuildBones(clusters []SkinCluster) ([]Bone, error) {
	if len(clusters) == 0 {
		return nil, nil
	}
	bones := make([]Bone, 0, len(clusters))
	for i, c := range clusters {
		offset, err := BoneOffset(c.MeshBind, c.BoneBind)
		if err != nil {
			return nil, fmt.Errorf("bone %d %q: %w", i, c.Name, err)
		}
		bones = append(bones, Bone{Node: c.Node, Name: c.Name, Offset: offset})
	}
	return bones, nil
}
