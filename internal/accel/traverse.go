package accel

import (
	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/shape"
)

// Intersect finds the nearest hit, returning the SurfaceInteraction,
// its owning primitive index, and whether anything was hit. Matches
// spec.md §4.D "Traverse": precomputed inverse direction and sign
// bits, an explicit stack of up to 64 node indices, and early descent
// toward the side the ray is heading into.
func (b *BVH) Intersect(ray geom.Ray) (*shape.SurfaceInteraction, int, bool) {
	if len(b.Nodes) == 0 {
		return nil, -1, false
	}

	invDir := geom.Vec3{X: 1 / ray.Direction.X, Y: 1 / ray.Direction.Y, Z: 1 / ray.Direction.Z}
	dirIsNeg := [3]bool{invDir.X < 0, invDir.Y < 0, invDir.Z < 0}

	var hit *shape.SurfaceInteraction
	hitPrim := -1

	var stack [stackDepth]int32
	sp := 0
	current := int32(0)

	for {
		node := &b.Nodes[current]
		if node.Bounds.IntersectP(ray, invDir, dirIsNeg) {
			if node.isLeaf() {
				for i := 0; i < int(node.NPrimitives); i++ {
					primIdx := int(node.Offset) + i
					if si, ok := b.primitives[primIdx].Intersect(ray); ok {
						hit = si
						hitPrim = primIdx
						ray.TMax = si.T
					}
				}
				if sp == 0 {
					break
				}
				sp--
				current = stack[sp]
			} else {
				// Descend toward the near child first so the far
				// child can be culled once TMax has shrunk.
				if dirIsNeg[node.Axis] {
					stack[sp] = current + 1
					sp++
					current = node.Offset
				} else {
					stack[sp] = node.Offset
					sp++
					current = current + 1
				}
			}
		} else {
			if sp == 0 {
				break
			}
			sp--
			current = stack[sp]
		}
	}

	return hit, hitPrim, hit != nil
}

// IntersectP is a shadow-ray query: return as soon as any hit is
// found, without tracking the nearest one (spec.md §4.D).
func (b *BVH) IntersectP(ray geom.Ray) bool {
	if len(b.Nodes) == 0 {
		return false
	}

	invDir := geom.Vec3{X: 1 / ray.Direction.X, Y: 1 / ray.Direction.Y, Z: 1 / ray.Direction.Z}
	dirIsNeg := [3]bool{invDir.X < 0, invDir.Y < 0, invDir.Z < 0}

	var stack [stackDepth]int32
	sp := 0
	current := int32(0)

	for {
		node := &b.Nodes[current]
		if node.Bounds.IntersectP(ray, invDir, dirIsNeg) {
			if node.isLeaf() {
				for i := 0; i < int(node.NPrimitives); i++ {
					if b.primitives[int(node.Offset)+i].IntersectP(ray) {
						return true
					}
				}
				if sp == 0 {
					return false
				}
				sp--
				current = stack[sp]
			} else {
				if dirIsNeg[node.Axis] {
					stack[sp] = current + 1
					sp++
					current = node.Offset
				} else {
					stack[sp] = node.Offset
					sp++
					current = current + 1
				}
			}
		} else {
			if sp == 0 {
				return false
			}
			sp--
			current = stack[sp]
		}
	}
}
