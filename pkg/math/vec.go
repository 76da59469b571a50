// Package math provides the vector and matrix types shared by the mesh converter.
package math

// Vec2 is a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float32
}

// Vec3 is a 3D vector, used for positions and the normal/binormal/tangent frame.
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 is a 4-component vector. Vertex colors store RGBA in X, Y, Z, W.
type Vec4 struct {
	X, Y, Z, W float32
}

// Array returns the components as an array.
func (v Vec2) Array() [2]float32 { return [2]float32{v.X, v.Y} }

// Array returns the components as an array.
func (v Vec3) Array() [3]float32 { return [3]float32{v.X, v.Y, v.Z} }

// Array returns the components as an array.
func (v Vec4) Array() [4]float32 { return [4]float32{v.X, v.Y, v.Z, v.W} }
