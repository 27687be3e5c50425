// Package accel implements the BVH accelerator described in spec.md
// §4.D: SAH build over a bump arena, depth-first flatten into a
// cache-friendly array, and iterative traversal with an explicit
// stack.
//
// The teacher repo carries two independent BVHs (pkg/core/bvh.go and
// pkg/geometry/bvh.go) that are both pointer-tree median-split builds —
// neither does SAH binning nor array flattening. This package keeps
// the teacher's overall shape (NewBVH constructor, Hit-style traversal
// entry points, a precomputed finite-world center/radius for infinite
// lights) but replaces the build and traversal algorithms with the
// SAH + flattened-array design spec.md §4.D requires. See DESIGN.md.
package accel

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/shape"
)

// SplitMethod selects the BVH partition strategy (spec.md §6).
type SplitMethod int

const (
	SplitSAH SplitMethod = iota
	SplitHLBVH
	SplitMiddle
	SplitEqualCounts
)

// Config mirrors spec.md §6's BVH construction parameters.
type Config struct {
	MaxPrimsInNode uint8 // effective cap 255
	SplitMethod    SplitMethod
}

func DefaultConfig() Config {
	return Config{MaxPrimsInNode: 4, SplitMethod: SplitSAH}
}

const (
	nBuckets    = 12 // spec.md §4.D step 5
	stackDepth  = 64 // spec.md §4.D / §6 traversal stack depth
	maxCapLimit = 255
)

// primitiveInfo is the per-primitive {bounds, centroid, index} tuple
// the SAH build partitions over (spec.md §4.D step "compute per-
// primitive array").
type primitiveInfo struct {
	index    int
	bounds   geom.Bounds3
	centroid geom.Point3
}

// buildNode is an arena-allocated build-tree node, valid only during
// construction (spec.md §3 "BVH build node", §9 "arena-backed BVH
// build"). children are indices into the same arena slice, never
// pointers that could outlive it.
type buildNode struct {
	bounds                   geom.Bounds3
	children                 [2]int // -1 if absent
	splitAxis                int
	firstPrimOffset, nPrims  int
}

func (n *buildNode) isLeaf() bool { return n.children[0] < 0 && n.children[1] < 0 }

// LinearNode is the flattened, cache-friendly traversal record
// (spec.md §3 "Linear BVH node"). Real Go structs can't hit exactly
// 32 bytes with float64 bounds (pbrt uses float32); this keeps the
// *shape* of the record — bounds, offset, count, axis — rather than
// chasing the byte budget at the cost of precision.
type LinearNode struct {
	Bounds      geom.Bounds3
	Offset      int32 // primitives-offset for leaves, right-child index for interior
	NPrimitives uint16
	Axis        uint8
}

func (n *LinearNode) isLeaf() bool { return n.NPrimitives > 0 }

// BVH is the accelerator built over a fixed primitive set (spec.md
// §4.D contract: expected O(log N) bounding-box tests per query).
type BVH struct {
	Nodes      []LinearNode
	primitives []shape.Shape // reordered so each leaf's primitives are contiguous

	WorldBound  geom.Bounds3
	WorldCenter geom.Point3
	WorldRadius float64
}

// Build constructs a BVH from shapes using the configured split
// method. An empty shape set yields an empty accelerator whose queries
// always miss (spec.md §4.D "Failure: none signalled").
func Build(shapes []shape.Shape, cfg Config) *BVH {
	if cfg.MaxPrimsInNode == 0 {
		cfg.MaxPrimsInNode = 1
	}

	bvh := &BVH{}
	if len(shapes) == 0 {
		bvh.WorldBound = geom.EmptyBounds3()
		return bvh
	}

	info := make([]primitiveInfo, len(shapes))
	for i, s := range shapes {
		b := s.Bounds()
		info[i] = primitiveInfo{index: i, bounds: b, centroid: b.Center()}
	}

	b := &builder{shapes: shapes, cfg: cfg}
	b.orderedPrims = make([]shape.Shape, 0, len(shapes))

	root := b.build(info, 0, len(info))

	bvh.primitives = b.orderedPrims
	bvh.Nodes = make([]LinearNode, 0, len(b.arena))
	flatten(b.arena, root, &bvh.Nodes)

	bvh.WorldBound = bvh.Nodes[0].Bounds
	bvh.WorldCenter, bvh.WorldRadius = worldSphere(shapes)

	return bvh
}

// builder owns the bump arena for the duration of Build; nothing it
// allocates escapes past the call to flatten (spec.md §5 "after
// flattening, the arena is dropped").
type builder struct {
	shapes       []shape.Shape
	cfg          Config
	arena        []buildNode
	orderedPrims []shape.Shape
}

func (b *builder) newLeaf(info []primitiveInfo, bounds geom.Bounds3) int {
	firstOffset := len(b.orderedPrims)
	for _, pi := range info {
		b.orderedPrims = append(b.orderedPrims, b.shapes[pi.index])
	}
	b.arena = append(b.arena, buildNode{
		bounds:          bounds,
		children:        [2]int{-1, -1},
		firstPrimOffset: firstOffset,
		nPrims:          len(info),
	})
	return len(b.arena) - 1
}

func (b *builder) newInterior(axis int, left, right int) int {
	bounds := b.arena[left].bounds.Union(b.arena[right].bounds)
	b.arena = append(b.arena, buildNode{
		bounds:    bounds,
		children:  [2]int{left, right},
		splitAxis: axis,
	})
	return len(b.arena) - 1
}

// build implements spec.md §4.D's recursive partition over info[start:end].
func (b *builder) build(info []primitiveInfo, start, end int) int {
	n := end - start
	seg := info[start:end]

	var bounds geom.Bounds3 = geom.EmptyBounds3()
	for _, pi := range seg {
		bounds = bounds.Union(pi.bounds)
	}

	if n == 1 {
		return b.newLeaf(seg, bounds)
	}

	centroidBounds := geom.EmptyBounds3()
	for _, pi := range seg {
		centroidBounds = centroidBounds.UnionPoint(pi.centroid)
	}
	axis := centroidBounds.MaximumExtent()

	if centroidBounds.Max.Component(axis) == centroidBounds.Min.Component(axis) {
		return b.newLeaf(seg, bounds)
	}

	var mid int
	switch b.cfg.SplitMethod {
	case SplitMiddle, SplitEqualCounts:
		// spec.md §9 open question: Middle/EqualCounts are left as
		// TODOs upstream and "should be treated as fall back to SAH
		// until spec-level tests exist". We implement that fallback
		// rather than emitting a node with no primitives.
		fallthrough
	default:
		if n <= 2 {
			mid = partitionMiddle(seg, axis, centroidBounds.Center().Component(axis))
		} else {
			var ok bool
			mid, ok = b.sahSplit(seg, axis, bounds, centroidBounds)
			if !ok {
				return b.newLeaf(seg, bounds)
			}
		}
	}

	if mid == 0 || mid == n {
		// SAH (or the fallback) failed to separate the primitives:
		// emit a leaf if they fit in one, otherwise split the range
		// into two equal halves so the recursion still terminates.
		if n > int(b.cfg.MaxPrimsInNode) {
			mid = n / 2
			partitionMiddle(seg, axis, centroidBounds.Center().Component(axis))
		} else {
			return b.newLeaf(seg, bounds)
		}
	}

	left := b.build(info, start, start+mid)
	right := b.build(info, start+mid, end)
	return b.newInterior(axis, left, right)
}

// sahSplit buckets centroids into nBuckets buckets along axis, scores
// the 11 possible splits, and returns the partition point or false if
// a leaf is cheaper (spec.md §4.D steps 5-7).
func (b *builder) sahSplit(seg []primitiveInfo, axis int, bounds, centroidBounds geom.Bounds3) (mid int, ok bool) {
	type bucket struct {
		count  int
		bounds geom.Bounds3
	}
	var buckets [nBuckets]bucket
	for i := range buckets {
		buckets[i].bounds = geom.EmptyBounds3()
	}

	bucketIndex := func(pi primitiveInfo) int {
		offset := centroidBounds.Offset(pi.centroid).Component(axis)
		idx := int(float64(nBuckets) * offset)
		if idx >= nBuckets {
			idx = nBuckets - 1
		}
		if idx < 0 {
			idx = 0
		}
		return idx
	}

	for _, pi := range seg {
		bi := bucketIndex(pi)
		buckets[bi].count++
		buckets[bi].bounds = buckets[bi].bounds.Union(pi.bounds)
	}

	var cost [nBuckets - 1]float64
	for i := 0; i < nBuckets-1; i++ {
		b0, b1 := geom.EmptyBounds3(), geom.EmptyBounds3()
		count0, count1 := 0, 0
		for j := 0; j <= i; j++ {
			b0 = b0.Union(buckets[j].bounds)
			count0 += buckets[j].count
		}
		for j := i + 1; j < nBuckets; j++ {
			b1 = b1.Union(buckets[j].bounds)
			count1 += buckets[j].count
		}
		parentArea := bounds.SurfaceArea()
		if parentArea == 0 {
			cost[i] = math.Inf(1)
			continue
		}
		cost[i] = 1 + (float64(count0)*b0.SurfaceArea()+float64(count1)*b1.SurfaceArea())/parentArea
	}

	minCost := cost[0]
	minIdx := 0
	for i := 1; i < nBuckets-1; i++ {
		if cost[i] < minCost {
			minCost = cost[i]
			minIdx = i
		}
	}

	leafCost := float64(len(seg))
	if len(seg) > int(b.cfg.MaxPrimsInNode) || minCost < leafCost {
		mid = partitionByBucket(seg, axis, centroidBounds, bucketIndex, minIdx)
		return mid, true
	}
	return 0, false
}

func partitionByBucket(seg []primitiveInfo, axis int, centroidBounds geom.Bounds3, bucketIndex func(primitiveInfo) int, splitBucket int) int {
	i, j := 0, len(seg)-1
	for i <= j {
		for i <= j && bucketIndex(seg[i]) <= splitBucket {
			i++
		}
		for i <= j && bucketIndex(seg[j]) > splitBucket {
			j--
		}
		if i < j {
			seg[i], seg[j] = seg[j], seg[i]
		}
	}
	return i
}

// partitionMiddle handles the n<=2 case (spec.md §4.D step 4): split at
// the midpoint, swapping if the two are out of axis order.
func partitionMiddle(seg []primitiveInfo, axis int, mid float64) int {
	if len(seg) == 2 {
		if seg[0].centroid.Component(axis) > seg[1].centroid.Component(axis) {
			seg[0], seg[1] = seg[1], seg[0]
		}
		return 1
	}
	i := 0
	for idx, pi := range seg {
		if pi.centroid.Component(axis) < mid {
			seg[i], seg[idx] = seg[idx], seg[i]
			i++
		}
	}
	return i
}

// flatten performs the depth-first walk of spec.md §4.D's "Flatten"
// step: left child lands at the next contiguous index, right child's
// index is recorded in Offset.
func flatten(arena []buildNode, nodeIdx int, out *[]LinearNode) int {
	node := arena[nodeIdx]
	myIdx := len(*out)
	*out = append(*out, LinearNode{Bounds: node.bounds})

	if node.isLeaf() {
		(*out)[myIdx].Offset = int32(node.firstPrimOffset)
		(*out)[myIdx].NPrimitives = uint16(node.nPrims)
		return myIdx
	}

	(*out)[myIdx].Axis = uint8(node.splitAxis)
	flatten(arena, node.children[0], out) // left: i+1
	rightIdx := flatten(arena, node.children[1], out)
	(*out)[myIdx].Offset = int32(rightIdx)
	(*out)[myIdx].NPrimitives = 0
	return myIdx
}

func worldSphere(shapes []shape.Shape) (geom.Point3, float64) {
	bounds := geom.EmptyBounds3()
	has := false
	for _, s := range shapes {
		b := s.Bounds()
		d := b.Diagonal()
		// Skip shapes with very large extents (e.g. ground planes),
		// mirroring the teacher's calculateFiniteWorldBounds
		// (pkg/core/bvh.go) — infinite lights need a *finite* scene
		// radius to build a bounding sphere proxy (spec.md §4.I "set
		// the light endpoint's pdf_fwd to 1/(pi*R_world^2)").
		if d.X > 1e5 || d.Y > 1e5 || d.Z > 1e5 {
			continue
		}
		if !has {
			bounds = b
			has = true
		} else {
			bounds = bounds.Union(b)
		}
	}
	if !has {
		return geom.Vec3{}, 0
	}
	return bounds.BoundingSphere()
}
