package mesh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshconv/pkg/math"
)

func TestBoneOffset(t *testing.T) {
	meshBind := math.Translate(1, 0, 0)
	boneBind := math.Translate(0, 2, 0)

	offset, err := BoneOffset(meshBind, boneBind)
	require.NoError(t, err)

	assert.True(t, offset.ApproxEqual(math.Translate(1, -2, 0), 1e-6), "got %v", offset)

	// The offset carries a mesh-space point into bone-local space.
	p := offset.TransformVec3(math.Vec3{X: 0, Y: 0, Z: 0})
	assert.InDelta(t, 1, p.X, 1e-6)
	assert.InDelta(t, -2, p.Y, 1e-6)
}

func TestBoneOffset_Identity(t *testing.T) {
	offset, err := BoneOffset(math.Identity(), math.Identity())
	require.NoError(t, err)
	assert.Equal(t, math.Identity(), offset)
}

func TestBoneOffset_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		bind math.Mat4
	}{
		{"zero", math.Mat4{}},
		{"flattened", math.Scale(0, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BoneOffset(math.Identity(), tt.bind)
			assert.True(t, errors.Is(err, ErrDegenerateBindPose))
		})
	}
}

func TestBuildBones(t *testing.T) {
	clusters := []SkinCluster{
		{Node: "n0", Name: "hips", MeshBind: math.Identity(), BoneBind: math.Identity()},
		{Node: "n1", Name: "spine", MeshBind: math.Identity(), BoneBind: math.Scale(2, 2, 2)},
	}

	bones, err := BuildBones(clusters)
	require.NoError(t, err)
	require.Len(t, bones, 2)
	assert.Equal(t, "hips", bones[0].Name)
	assert.Equal(t, "n1", bones[1].Node)
	assert.True(t, bones[1].Offset.ApproxEqual(math.Scale(0.5, 0.5, 0.5), 1e-6))
}

func TestBuildBones_Error(t *testing.T) {
	clusters := []SkinCluster{
		{Name: "ok", MeshBind: math.Identity(), BoneBind: math.Identity()},
		{Name: "broken", MeshBind: math.Identity()},
	}

	bones, err := BuildBones(clusters)
	assert.Nil(t, bones)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateBindPose))
	assert.Contains(t, err.Error(), `bone 1 "broken"`)
}

func TestBuildBones_Unskinned(t *testing.T) {
	bones, err := BuildBones(nil)
	require.NoError(t, err)
	assert.Nil(t, bones)
}
