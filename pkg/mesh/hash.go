package mesh

import (
	"encoding/binary"
	gomath "math"

	"github.com/Faultbox/meshconv/pkg/math"
)

const hashSeed = 5381

// Hash runs the DJB-style rolling hash over data, masked to 31 bits.
// It is not collision resistant.
func Hash(data []byte) uint32 {
	h := uint32(hashSeed)
	for _, b := range data {
		h = h + (h << 5) + uint32(b)
		h &= 0x7FFFFFFF
	}
	return h
}

// CanonicalBytes returns the byte stream the canonical key is computed from:
// the vertex record in layout order followed by the material index as a
// float32. blend must be the packed form of rec.Influences.
func CanonicalBytes(rec *AttributeRecord, blend *[MaxInfluences]BlendSlot, layout Layout) []byte {
	buf := make([]byte, 0, layout.Stride+4)
	return appendCanonical(buf, rec, blend, layout)
}

// Key computes the canonical key of a record.
func Key(rec *AttributeRecord, layout Layout) uint32 {
	blend := PackInfluences(rec.Influences)
	return Hash(CanonicalBytes(rec, &blend, layout))
}

func appendCanonical(dst []byte, rec *AttributeRecord, blend *[MaxInfluences]BlendSlot, layout Layout) []byte {
	dst = appendVertex(dst, rec, blend, layout)
	return appendFloat(dst, float32(rec.Material))
}

// appendVertex encodes the vertex record exactly as it is stored in a binary
// vertex buffer. Missing layers are written as zeros so the stride holds.
func appendVertex(dst []byte, rec *AttributeRecord, blend *[MaxInfluences]BlendSlot, layout Layout) []byte {
	for _, a := range layout.Attributes {
		switch a.Semantic {
		case SemanticPosition:
			p := rec.Position.Array()
			dst = appendFloats(dst, p[:]...)
		case SemanticDiffuse:
			var c math.Vec4
			if a.Layer < len(rec.Colors) {
				c = rec.Colors[a.Layer]
			}
			arr := c.Array()
			dst = appendFloats(dst, arr[:]...)
		case SemanticTexCoord:
			var uv math.Vec2
			if a.Layer < len(rec.UVs) {
				uv = rec.UVs[a.Layer]
			}
			arr := uv.Array()
			dst = appendFloats(dst, arr[:]...)
		case SemanticNormal:
			dst = appendVec3(dst, layerVec3(rec.Normals, a.Layer))
		case SemanticBinormal:
			dst = appendVec3(dst, layerVec3(rec.Binormals, a.Layer))
		case SemanticTangent:
			dst = appendVec3(dst, layerVec3(rec.Tangents, a.Layer))
		case SemanticBlendIndex:
			for _, s := range blend {
				dst = append(dst, byte(s.Bone))
			}
		case SemanticBlendWeight:
			for _, s := range blend {
				dst = appendFloat(dst, s.Weight)
			}
		}
	}
	return dst
}

func layerVec3(layers []math.Vec3, i int) math.Vec3 {
	if i < len(layers) {
		return layers[i]
	}
	return math.Vec3{}
}

func appendVec3(dst []byte, v math.Vec3) []byte {
	return appendFloats(dst, v.X, v.Y, v.Z)
}

func appendFloat(dst []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, gomath.Float32bits(f))
}

func appendFloats(dst []byte, fs ...float32) []byte {
	for _, f := range fs {
		dst = appendFloat(dst, f)
	}
	return dst
}
