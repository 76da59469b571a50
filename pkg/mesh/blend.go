package mesh

import "sort"

// MaxInfluences is the number of blend slots stored per vertex.
const MaxInfluences = 4

// BlendSlot is one packed bone influence. Empty slots hold Bone -1 and
// weight 0.
type BlendSlot struct {
	Bone   int8
	Weight float32
}

// Empty reports whether the slot carries no influence.
func (s BlendSlot) Empty() bool {
	return s.Bone < 0
}

var emptySlot = BlendSlot{Bone: -1, Weight: 0}

// PackInfluences keeps the MaxInfluences heaviest influences, heaviest first.
// Equal weights keep their insertion order. Weights are not renormalized and
// duplicate bones are not merged.
func PackInfluences(in []BlendInfluence) [MaxInfluences]BlendSlot {
	sorted := make([]BlendInfluence, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight > sorted[j].Weight
	})

	var out [MaxInfluences]BlendSlot
	for i := range out {
		if i < len(sorted) {
			out[i] = BlendSlot{Bone: int8(sorted[i].Bone), Weight: sorted[i].Weight}
		} else {
			out[i] = emptySlot
		}
	}
	return out
}
