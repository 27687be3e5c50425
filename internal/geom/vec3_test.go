package geom

import (
	"math"
	"testing"
)

func TestBounds3EmptyInvariant(t *testing.T) {
	b := EmptyBounds3()
	if b.IsValid() {
		t.Errorf("empty bounds should not be valid, got min=%v max=%v", b.Min, b.Max)
	}
}

func TestBounds3UnionMonotonicity(t *testing.T) {
	a := BoundsFromPoints(New(0, 0, 0), New(1, 1, 1))
	b := BoundsFromPoints(New(2, 2, 2), New(3, 3, 3))
	u := a.Union(b)

	if u.Min != (Vec3{0, 0, 0}) || u.Max != (Vec3{3, 3, 3}) {
		t.Errorf("union bounds wrong: %+v", u)
	}
}

func TestBoundsOneSphereWorldBound(t *testing.T) {
	// Scenario 1 from spec.md §8: a unit sphere at the origin has
	// world bound [(-1,-1,-1),(1,1,1)].
	b := BoundsFromPoints(New(-1, -1, -1), New(1, 1, 1))
	if b.SurfaceArea() != 24 {
		t.Errorf("expected surface area 24, got %f", b.SurfaceArea())
	}
}

func TestCoordinateSystemOrthonormal(t *testing.T) {
	vectors := []Vec3{
		New(0, 0, 1),
		New(0, 1, 0),
		New(1, 0, 0),
		New(0.577, 0.577, 0.577).Normalize(),
	}

	for _, v1 := range vectors {
		v2, v3 := CoordinateSystem(v1)

		if math.Abs(v2.Length()-1) > 1e-9 {
			t.Errorf("v2 not unit length for v1=%v: %f", v1, v2.Length())
		}
		if math.Abs(v3.Length()-1) > 1e-9 {
			t.Errorf("v3 not unit length for v1=%v: %f", v1, v3.Length())
		}
		if math.Abs(v1.Dot(v2)) > 1e-9 || math.Abs(v1.Dot(v3)) > 1e-9 || math.Abs(v2.Dot(v3)) > 1e-9 {
			t.Errorf("basis not orthogonal for v1=%v: v2=%v v3=%v", v1, v2, v3)
		}
	}
}

func TestRayAt(t *testing.T) {
	r := NewRay(New(0, 0, -3), New(0, 0, 1))
	p := r.At(2.0)
	if p != (Vec3{0, 0, -1}) {
		t.Errorf("expected (0,0,-1), got %v", p)
	}
}
