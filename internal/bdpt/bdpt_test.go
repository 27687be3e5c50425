package bdpt

import (
	"math"
	"math/rand"
	"testing"

	"github.com/kjellstrom/lumenpath/internal/accel"
	"github.com/kjellstrom/lumenpath/internal/bsdf"
	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/light"
	"github.com/kjellstrom/lumenpath/internal/sampling"
	"github.com/kjellstrom/lumenpath/internal/scenegraph"
	"github.com/kjellstrom/lumenpath/internal/shape"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// cornellLikeScene builds a minimal scene: a matte sphere lit by one
// area light sphere, sufficient to exercise every BDPT strategy
// (s=0 path tracing, s=1 direct lighting, s>=2 connection).
func cornellLikeScene(t *testing.T) (*scenegraph.Scene, *Camera) {
	t.Helper()

	floor := shape.NewSphere(geom.New(0, -1000.5, -1), 1000, 0)
	ball := shape.NewSphere(geom.New(0, 0, -1), 0.5, 0)
	lightShape := shape.NewSphere(geom.New(0, 3, -1), 0.5, shape.NoMaterial)
	lightShape.Light = 0

	areaLight := &light.AreaLight{Shape: lightShape, Lemit: spectrum.Gray(8)}

	materials := []scenegraph.Material{
		scenegraph.Matte{R: spectrum.New(0.6, 0.6, 0.6)},
	}
	lights := []light.Light{areaLight}
	sampler := light.NewUniformLightSampler(lights)

	scene := scenegraph.New(
		[]shape.Shape{floor, ball, lightShape},
		accel.DefaultConfig(),
		materials,
		lights,
		[]light.Light{areaLight},
		sampler,
	)

	cam := NewCamera(geom.New(0, 1, 4), geom.New(0, 0, -1), geom.New(0, 1, 0), 40, 1, 0, 5)
	return scene, cam
}

func TestGenerateCameraSubpath_TerminatesAndRecordsFirstVertex(t *testing.T) {
	scene, cam := cornellLikeScene(t)
	rng := sampling.NewRandomSampler(rand.New(rand.NewSource(1)))

	ray := cam.GenerateRay(0.5, 0.5, [2]float64{0, 0})
	path := GenerateCameraSubpath(ray, cam, scene, rng, 5)

	if path.Length < 1 {
		t.Fatalf("expected at least the camera vertex, got length %d", path.Length)
	}
	if !path.Vertices[0].IsCamera {
		t.Errorf("first vertex should be the camera vertex")
	}
	if path.Length > 6 {
		t.Errorf("path exceeded maxDepth+1 vertices: %d", path.Length)
	}
}

func TestGenerateLightSubpath_StartsOnLight(t *testing.T) {
	scene, _ := cornellLikeScene(t)
	rng := sampling.NewRandomSampler(rand.New(rand.NewSource(2)))

	path := GenerateLightSubpath(scene, scene.Sampler, rng, 5)
	if path.Length < 1 {
		t.Fatalf("expected at least the light vertex, got length %d", path.Length)
	}
	if !path.Vertices[0].IsLight {
		t.Errorf("first vertex should be a light vertex")
	}
	if path.Vertices[0].Beta.IsBlack() {
		t.Errorf("light vertex should carry nonzero emitted throughput")
	}
}

func TestConvertPDFDensity_InfiniteLightKeepsSolidAngle(t *testing.T) {
	v := Vertex{P: geom.New(0, 0, 0)}
	next := Vertex{P: geom.New(100, 0, 0), IsInfiniteLight: true}

	pdf := v.convertPDFDensity(next, 0.25)
	if pdf != 0.25 {
		t.Errorf("infinite light density should pass through unconverted, got %g want 0.25", pdf)
	}
}

func TestConvertPDFDensity_FiniteSurfaceAppliesCosineAndInverseSquare(t *testing.T) {
	v := Vertex{P: geom.New(0, 0, 0)}
	next := Vertex{
		P:    geom.New(2, 0, 0),
		N:    geom.New(-1, 0, 0),
		BSDF: bsdf.NewBSDF(geom.New(0, 0, 1), geom.New(0, 0, 1), geom.New(1, 0, 0), 1),
	}
	pdf := v.convertPDFDensity(next, 1.0)
	want := 1.0 / 4.0 // cos(theta)=1, invDist2=1/4
	if math.Abs(pdf-want) > 1e-9 {
		t.Errorf("convertPDFDensity = %g, want %g", pdf, want)
	}
}

func TestCalculateMISWeight_TwoVertexPathIsUnweighted(t *testing.T) {
	scene, cam := cornellLikeScene(t)
	cameraPath := Path{Vertices: []Vertex{{IsCamera: true, Camera: cam}, {}}, Length: 2}
	lightPath := Path{Length: 0}

	w := calculateMISWeight(cameraPath, lightPath, nil, 0, 2, scene, scene.Sampler)
	if w != 1 {
		t.Errorf("s+t==2 should always have MIS weight 1, got %g", w)
	}
}

func TestRayColor_ReturnsFiniteNonNegativeColor(t *testing.T) {
	scene, cam := cornellLikeScene(t)
	bd := New(Config{MaxDepth: 5}, nil)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 16; i++ {
		sampler := sampling.NewRandomSampler(rng)
		u, v := 0.4+0.02*float64(i%4), 0.4+0.02*float64(i/4)
		ray := cam.GenerateRay(u, v, sampler.Get2D())

		color := bd.RayColor(ray, cam, scene, scene.Sampler, sampler)
		if color.HasNaN() {
			t.Fatalf("sample %d produced NaN color: %v", i, color)
		}
		if color.R < 0 || color.G < 0 || color.B < 0 {
			t.Errorf("sample %d produced negative color: %v", i, color)
		}
	}
}
