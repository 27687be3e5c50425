package accel

import (
	"math"
	"testing"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/shape"
)

// TestBVHOneSphere is spec.md §8 end-to-end scenario 1: a single unit
// sphere at the origin, ray (0,0,-3)->(0,0,1). Expect t_hit = 2 and a
// world bound of [(-1,-1,-1),(1,1,1)].
func TestBVHOneSphere(t *testing.T) {
	sphere := shape.NewSphere(geom.New(0, 0, 0), 1, 0)
	bvh := Build([]shape.Shape{sphere}, DefaultConfig())

	if bvh.WorldBound.Min != (geom.Vec3{-1, -1, -1}) || bvh.WorldBound.Max != (geom.Vec3{1, 1, 1}) {
		t.Fatalf("expected world bound [-1,-1,-1]-[1,1,1], got %+v", bvh.WorldBound)
	}

	ray := geom.NewRay(geom.New(0, 0, -3), geom.New(0, 0, 1))
	hit, _, ok := bvh.Intersect(ray)
	if !ok {
		t.Fatal("expected a hit")
	}
	if math.Abs(hit.T-2.0) > 1e-5 {
		t.Errorf("expected t_hit=2.0, got %f", hit.T)
	}
}

func TestBVHEmptyAccelerator(t *testing.T) {
	bvh := Build(nil, DefaultConfig())
	ray := geom.NewRay(geom.New(0, 0, -3), geom.New(0, 0, 1))
	if _, _, ok := bvh.Intersect(ray); ok {
		t.Error("empty accelerator should never report a hit")
	}
	if bvh.IntersectP(ray) {
		t.Error("empty accelerator IntersectP should be false")
	}
}

// TestBVHBoundsMonotonicity is spec.md §8 property 2: each interior
// node's bounds equal the union of its children's bounds.
func TestBVHBoundsMonotonicity(t *testing.T) {
	var shapes []shape.Shape
	for i := 0; i < 40; i++ {
		shapes = append(shapes, shape.NewSphere(geom.New(float64(i)*2, 0, 0), 0.4, 0))
	}
	bvh := Build(shapes, Config{MaxPrimsInNode: 2, SplitMethod: SplitSAH})

	for i, node := range bvh.Nodes {
		if node.isLeaf() {
			continue
		}
		left := bvh.Nodes[i+1]
		right := bvh.Nodes[node.Offset]
		union := left.Bounds.Union(right.Bounds)
		if union.Min != node.Bounds.Min || union.Max != node.Bounds.Max {
			t.Errorf("node %d bounds %+v != union of children %+v", i, node.Bounds, union)
		}
	}
}

// TestBVHMatchesLinearScan is spec.md §8 property 1: the BVH's nearest
// hit equals the minimum over a brute-force scan of every primitive.
func TestBVHMatchesLinearScan(t *testing.T) {
	var shapes []shape.Shape
	positions := [][3]float64{
		{0, 0, 0}, {3, 0, 0}, {-3, 1, 0}, {0, 4, 2}, {1, -2, -3}, {5, 5, 5},
	}
	for _, p := range positions {
		shapes = append(shapes, shape.NewSphere(geom.New(p[0], p[1], p[2]), 0.8, 0))
	}
	bvh := Build(shapes, DefaultConfig())

	rays := []geom.Ray{
		geom.NewRay(geom.New(-10, 0, 0), geom.New(1, 0, 0)),
		geom.NewRay(geom.New(0, -10, 2), geom.New(0, 1, 0)),
		geom.NewRay(geom.New(5, 5, -10), geom.New(0, 0, 1)),
	}

	for _, ray := range rays {
		ray.TMax = math.Inf(1)
		bvhHit, _, bvhOK := bvh.Intersect(ray)

		var wantT float64 = math.Inf(1)
		wantOK := false
		for _, s := range shapes {
			scan := ray
			scan.TMax = wantT
			if hit, ok := s.Intersect(scan); ok && hit.T < wantT {
				wantT = hit.T
				wantOK = true
			}
		}

		if bvhOK != wantOK {
			t.Fatalf("ray %+v: bvh hit=%v, linear scan hit=%v", ray, bvhOK, wantOK)
		}
		if wantOK && math.Abs(bvhHit.T-wantT) > 1e-9 {
			t.Errorf("ray %+v: bvh t=%f, linear scan t=%f", ray, bvhHit.T, wantT)
		}
	}
}

func TestBVHIntersectPShadowRay(t *testing.T) {
	sphere := shape.NewSphere(geom.New(0, 0, 0), 1, 0)
	bvh := Build([]shape.Shape{sphere}, DefaultConfig())

	blocked := geom.NewRay(geom.New(0, 0, -3), geom.New(0, 0, 1))
	blocked.TMax = 2.5
	if !bvh.IntersectP(blocked) {
		t.Error("expected shadow ray to be blocked within t_max")
	}

	clear := geom.NewRay(geom.New(0, 0, -3), geom.New(0, 0, 1))
	clear.TMax = 1.0
	if bvh.IntersectP(clear) {
		t.Error("expected shadow ray to miss before reaching the sphere")
	}
}
