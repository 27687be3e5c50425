package mlt

import (
	"math/rand"
	"testing"

	"github.com/kjellstrom/lumenpath/internal/accel"
	"github.com/kjellstrom/lumenpath/internal/bdpt"
	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/light"
	"github.com/kjellstrom/lumenpath/internal/scenegraph"
	"github.com/kjellstrom/lumenpath/internal/shape"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

type fakeFilm struct {
	splats []spectrum.Spectrum
}

func (f *fakeFilm) AddSplat(x, y int, c spectrum.Spectrum) { f.splats = append(f.splats, c) }

func litScene(t *testing.T) (*scenegraph.Scene, *bdpt.Camera) {
	t.Helper()

	floor := shape.NewSphere(geom.New(0, -1000.5, -1), 1000, 0)
	ball := shape.NewSphere(geom.New(0, 0, -1), 0.5, 0)
	lightShape := shape.NewSphere(geom.New(0, 3, -1), 0.5, shape.NoMaterial)
	lightShape.Light = 0

	areaLight := &light.AreaLight{Shape: lightShape, Lemit: spectrum.Gray(8)}
	materials := []scenegraph.Material{scenegraph.Matte{R: spectrum.New(0.6, 0.6, 0.6)}}
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
	cam := bdpt.NewCamera(geom.New(0, 1, 4), geom.New(0, 0, -1), geom.New(0, 1, 0), 40, 1, 0, 5)
	return scene, cam
}

func TestMLTSampler_RejectRestoresPreviousValue(t *testing.T) {
	s := NewMLTSampler(rand.New(rand.NewSource(1)), 0.01, 0.3)

	s.StartIteration()
	first := s.Get1D()
	s.Accept()

	s.StartIteration()
	s.StartStream(CameraStream)
	s.Get1D() // mutate same coordinate
	s.Reject()

	restored := s.x[0].Value
	if restored != first {
		t.Errorf("reject should restore prior coordinate value: got %g, want %g", restored, first)
	}
}

func TestIntegrator_LProducesFiniteRadiance(t *testing.T) {
	scene, cam := litScene(t)
	lightSampler := scene.Sampler
	m := New(Config{MaxDepth: 5, Sigma: 0.01, LargeStepProbability: 0.3}, cam, scene, lightSampler, 64, 64, nil)

	sampler := NewMLTSampler(rand.New(rand.NewSource(7)), 0.01, 0.3)
	color, x, y := m.L(sampler, 3)

	if color.HasNaN() {
		t.Fatalf("L produced NaN radiance: %v", color)
	}
	if x < 0 || x >= 64 || y < 0 || y >= 64 {
		if !color.IsBlack() {
			t.Errorf("nonzero sample landed outside the film: (%d,%d)", x, y)
		}
	}
}

func TestIntegrator_RenderSplatsOntoFilm(t *testing.T) {
	scene, cam := litScene(t)
	lightSampler := scene.Sampler
	m := New(Config{
		MaxDepth: 3, NBootstrap: 16, NChains: 4, MutationsPerPixel: 8,
		Sigma: 0.01, LargeStepProbability: 0.3,
	}, cam, scene, lightSampler, 16, 16, nil)

	film := &fakeFilm{}
	norm := m.Render(film, 123)

	if norm <= 0 {
		t.Fatalf("expected positive normalization factor, got %g", norm)
	}
	if len(film.splats) == 0 {
		t.Errorf("expected at least one splat across all chains")
	}
}
