package mesh

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// CollisionPolicy decides what happens when two different attribute tuples
// produce the same canonical key.
type CollisionPolicy int

const (
	// CollisionVerify compares full tuples when keys match and keeps
	// distinct tuples apart.
	CollisionVerify CollisionPolicy = iota
	// CollisionMerge treats equal keys as equal vertices, even when the
	// tuples differ.
	CollisionMerge
)

// String returns the policy name as used in configuration.
func (p CollisionPolicy) String() string {
	switch p {
	case CollisionVerify:
		return "verify"
	case CollisionMerge:
		return "merge"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// ParseCollisionPolicy parses a policy name.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch strings.ToLower(s) {
	case "", "verify":
		return CollisionVerify, nil
	case "merge":
		return CollisionMerge, nil
	default:
		return 0, fmt.Errorf("unknown collision policy %q", s)
	}
}

// CompactVertex is the representative of one welded vertex: the first record
// observed for its tuple plus its packed blend slots.
type CompactVertex struct {
	Record AttributeRecord
	Blend  [MaxInfluences]BlendSlot
	Key    uint32
	Index  uint32 // dense position in the vertex buffer

	canonical []byte
}

// WeldStats summarizes one weld.
type WeldStats struct {
	Corners    int
	Vertices   int
	Collisions int // distinct tuples that shared a key with an earlier one
}

// Welder builds the dedup table for one mesh. It is not safe for concurrent
// use; each mesh gets its own Welder.
type Welder struct {
	layout  Layout
	policy  CollisionPolicy
	arena   []CompactVertex  // first-seen order
	buckets map[uint32][]int // key -> arena positions
	corners []int            // corner -> arena position
	hash    func([]byte) uint32

	collisions int
}

// NewWelder creates an empty dedup table for records of the given layout.
func NewWelder(layout Layout, policy CollisionPolicy) *Welder {
	return &Welder{
		layout:  layout,
		policy:  policy,
		buckets: make(map[uint32][]int),
		hash:    Hash,
	}
}

// Add consumes the next corner and returns its corner position.
func (w *Welder) Add(rec AttributeRecord) int {
	blend := PackInfluences(rec.Influences)
	canonical := CanonicalBytes(&rec, &blend, w.layout)
	key := w.hash(canonical)

	slot := -1
	bucket := w.buckets[key]
	if len(bucket) > 0 {
		if w.policy == CollisionMerge {
			slot = bucket[0]
		} else {
			for _, pos := range bucket {
				if bytes.Equal(w.arena[pos].canonical, canonical) {
					slot = pos
					break
				}
			}
			if slot < 0 {
				w.collisions++
			}
		}
	}

	if slot < 0 {
		slot = len(w.arena)
		w.arena = append(w.arena, CompactVertex{
			Record:    rec,
			Blend:     blend,
			Key:       key,
			canonical: canonical,
		})
		w.buckets[key] = append(bucket, slot)
	}

	w.corners = append(w.corners, slot)
	return len(w.corners) - 1
}

// Len returns the number of corners consumed so far.
func (w *Welder) Len() int {
	return len(w.corners)
}

// Finalize assigns compact indices in ascending key order and resolves every
// corner. Vertices sharing a key keep first-seen order. The Welder must not
// be used afterwards.
func (w *Welder) Finalize() *Table {
	order := make([]int, len(w.arena))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return w.arena[order[i]].Key < w.arena[order[j]].Key
	})

	remap := make([]uint32, len(w.arena))
	vertices := make([]CompactVertex, len(order))
	for idx, pos := range order {
		v := w.arena[pos]
		v.Index = uint32(idx)
		v.canonical = nil
		vertices[idx] = v
		remap[pos] = uint32(idx)
	}

	indices := make([]uint32, len(w.corners))
	for corner, pos := range w.corners {
		indices[corner] = remap[pos]
	}

	t := &Table{
		Vertices: vertices,
		indices:  indices,
		Stats: WeldStats{
			Corners:    len(w.corners),
			Vertices:   len(vertices),
			Collisions: w.collisions,
		},
	}
	w.arena, w.buckets, w.corners = nil, nil, nil
	return t
}

// Table is a finalized dedup table.
type Table struct {
	Vertices []CompactVertex // ascending key
	Stats    WeldStats

	indices []uint32 // corner -> compact index
}

// Index returns the compact index of a corner.
func (t *Table) Index(corner int) uint32 {
	return t.indices[corner]
}

// Indices returns the compact indices of corners [from, to).
func (t *Table) Indices(from, to int) []uint32 {
	out := make([]uint32, to-from)
	copy(out, t.indices[from:to])
	return out
}
