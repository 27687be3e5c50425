// Package geom holds the vector, point, normal, ray and bounding-box
// primitives shared by every other package in the renderer.
package geom

import (
	"fmt"
	"math"
)

// Vec3 is used for vectors, points, and normals alike — the teacher
// repo makes the same simplification (pkg/core/vec3.go) and the
// distinction is carried at the call site (Point3/Normal3 below are
// thin aliases so intent stays readable without a type hierarchy).
type Vec3 struct {
	X, Y, Z float64
}

// Point3 and Normal3 document intent at call sites; they share Vec3's
// representation and operations.
type Point3 = Vec3
type Normal3 = Vec3

func New(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) String() string {
	return fmt.Sprintf("{%.4g, %.4g, %.4g}", v.X, v.Y, v.Z)
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Negate() Vec3         { return Vec3{-v.X, -v.Y, -v.Z} }
func (v Vec3) Mul(o Vec3) Vec3      { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }
func (v Vec3) Div(o Vec3) Vec3      { return Vec3{v.X / o.X, v.Y / o.Y, v.Z / o.Z} }

func (v Vec3) Dot(o Vec3) float64    { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) AbsDot(o Vec3) float64 { return math.Abs(v.Dot(o)) }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) LengthSquared() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }
func (v Vec3) Length() float64        { return math.Sqrt(v.LengthSquared()) }

func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	inv := 1.0 / l
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}

func (v Vec3) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

func (v Vec3) HasNaN() bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

// MaxDimension returns the axis (0=X,1=Y,2=Z) of the largest (signed)
// component — used by the BVH to pick the split axis.
func (v Vec3) MaxDimension() int {
	if v.X > v.Y && v.X > v.Z {
		return 0
	}
	if v.Y > v.Z {
		return 1
	}
	return 2
}

func (v Vec3) Component(axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// FaceForward flips n so it lies in the same hemisphere as v, matching
// the geometric-normal convention used when evaluating BSDFs.
func FaceForward(n, v Vec3) Vec3 {
	if n.Dot(v) < 0 {
		return n.Negate()
	}
	return n
}

// CoordinateSystem builds an orthonormal basis (v2, v3) given a unit v1,
// using Duff et al.'s branchless construction — the same one pbrt (and
// therefore the Rust source this spec distills) uses for the shading
// frame in BSDF.go.
func CoordinateSystem(v1 Vec3) (v2, v3 Vec3) {
	sign := math.Copysign(1.0, v1.Z)
	a := -1.0 / (sign + v1.Z)
	b := v1.X * v1.Y * a
	v2 = Vec3{1.0 + sign*v1.X*v1.X*a, sign * b, -sign * v1.X}
	v3 = Vec3{b, sign + v1.Y*v1.Y*a, -v1.Y}
	return v2, v3
}

// Ray is an origin + direction with an interior-mutable TMax, matching
// the "interior mutability on Ray.t_max" note in spec.md §9: BVH
// traversal shrinks TMax as it finds closer hits. Rays are per-path
// scratch values and must not be shared across goroutines (§5).
type Ray struct {
	Origin    Point3
	Direction Vec3
	TMax      float64
	Time      float64
}

func NewRay(origin Point3, dir Vec3) Ray {
	return Ray{Origin: origin, Direction: dir, TMax: math.Inf(1)}
}

func (r Ray) At(t float64) Point3 { return r.Origin.Add(r.Direction.Scale(t)) }

// Bounds3 is an axis-aligned bounding box. The zero value is NOT empty —
// callers needing the spec.md §3 empty-box invariant (min=+inf, max=-inf)
// must use EmptyBounds3.
type Bounds3 struct {
	Min, Max Point3
}

func EmptyBounds3() Bounds3 {
	inf := math.Inf(1)
	return Bounds3{Min: Vec3{inf, inf, inf}, Max: Vec3{-inf, -inf, -inf}}
}

func BoundsFromPoints(p1, p2 Point3) Bounds3 {
	return Bounds3{
		Min: Vec3{math.Min(p1.X, p2.X), math.Min(p1.Y, p2.Y), math.Min(p1.Z, p2.Z)},
		Max: Vec3{math.Max(p1.X, p2.X), math.Max(p1.Y, p2.Y), math.Max(p1.Z, p2.Z)},
	}
}

func (b Bounds3) Union(o Bounds3) Bounds3 {
	return Bounds3{
		Min: Vec3{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)},
		Max: Vec3{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)},
	}
}

func (b Bounds3) UnionPoint(p Point3) Bounds3 {
	return Bounds3{
		Min: Vec3{math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y), math.Min(b.Min.Z, p.Z)},
		Max: Vec3{math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y), math.Max(b.Max.Z, p.Z)},
	}
}

func (b Bounds3) Diagonal() Vec3 { return b.Max.Sub(b.Min) }

func (b Bounds3) SurfaceArea() float64 {
	d := b.Diagonal()
	if d.X < 0 || d.Y < 0 || d.Z < 0 {
		return 0
	}
	return 2 * (d.X*d.Y + d.Y*d.Z + d.Z*d.X)
}

func (b Bounds3) Center() Point3 { return b.Min.Add(b.Max).Scale(0.5) }

// BoundingSphere returns a center and radius that contain the box,
// matching pbrt's Bounds3::BoundingSphere used for infinite-light
// world-radius bookkeeping.
func (b Bounds3) BoundingSphere() (center Point3, radius float64) {
	center = b.Center()
	radius = 0
	if b.IsValid() {
		radius = b.Max.Sub(center).Length()
	}
	return center, radius
}

func (b Bounds3) MaximumExtent() int { return b.Diagonal().MaxDimension() }

func (b Bounds3) IsValid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Offset returns p's position inside the box in [0,1]^3, used by the
// BVH's bucket assignment (spec.md §4.D step 5).
func (b Bounds3) Offset(p Point3) Vec3 {
	o := p.Sub(b.Min)
	if b.Max.X > b.Min.X {
		o.X /= b.Max.X - b.Min.X
	}
	if b.Max.Y > b.Min.Y {
		o.Y /= b.Max.Y - b.Min.Y
	}
	if b.Max.Z > b.Min.Z {
		o.Z /= b.Max.Z - b.Min.Z
	}
	return o
}

// IntersectP implements the slab test with precomputed inverse
// direction and sign bits, as used by the BVH traversal loop
// (spec.md §4.D "Traverse"). Returns whether the ray's [0,TMax]
// segment intersects the box.
func (b Bounds3) IntersectP(ray Ray, invDir Vec3, dirIsNeg [3]bool) bool {
	bounds := [2]Point3{b.Min, b.Max}

	tMin := (bounds[boolToIdx(dirIsNeg[0])].X - ray.Origin.X) * invDir.X
	tMax := (bounds[1-boolToIdx(dirIsNeg[0])].X - ray.Origin.X) * invDir.X
	tyMin := (bounds[boolToIdx(dirIsNeg[1])].Y - ray.Origin.Y) * invDir.Y
	tyMax := (bounds[1-boolToIdx(dirIsNeg[1])].Y - ray.Origin.Y) * invDir.Y

	if tMin > tyMax || tyMin > tMax {
		return false
	}
	if tyMin > tMin {
		tMin = tyMin
	}
	if tyMax < tMax {
		tMax = tyMax
	}

	tzMin := (bounds[boolToIdx(dirIsNeg[2])].Z - ray.Origin.Z) * invDir.Z
	tzMax := (bounds[1-boolToIdx(dirIsNeg[2])].Z - ray.Origin.Z) * invDir.Z

	if tMin > tzMax || tzMin > tMax {
		return false
	}
	if tzMin > tMin {
		tMin = tzMin
	}
	if tzMax < tMax {
		tMax = tzMax
	}

	return tMin < ray.TMax && tMax > 0
}

func boolToIdx(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Lerp linearly interpolates between two scalars.
func Lerp(t, a, b float64) float64 { return (1-t)*a + t*b }

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
