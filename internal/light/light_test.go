package light

import (
	"math"
	"math/rand"
	"testing"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/shape"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

func TestPointLight_SampleLi_InverseSquareFalloff(t *testing.T) {
	const tolerance = 1e-9

	l := &PointLight{P: geom.New(0, 0, 2), I: spectrum.Gray(4)}
	p := geom.New(0, 0, 0)

	s := l.SampleLi(p, geom.New(0, 0, 1), [2]float64{0.3, 0.7})

	if math.Abs(s.Distance-2) > tolerance {
		t.Errorf("distance = %g, want 2", s.Distance)
	}
	wantLi := 4.0 / 4.0 // I / dist^2
	if math.Abs(s.Li.R-wantLi) > tolerance {
		t.Errorf("Li = %g, want %g", s.Li.R, wantLi)
	}
	if s.Pdf != 1 {
		t.Errorf("Pdf = %g, want 1 (delta light)", s.Pdf)
	}
}

func TestPointLight_PdfLi_AlwaysZero(t *testing.T) {
	l := &PointLight{P: geom.New(0, 0, 1), I: spectrum.Gray(1)}
	if pdf := l.PdfLi(geom.New(0, 0, 0), geom.New(0, 0, 1), geom.New(0, 0, 1)); pdf != 0 {
		t.Errorf("delta light PdfLi = %g, want 0", pdf)
	}
}

func TestPointLight_Power(t *testing.T) {
	l := &PointLight{I: spectrum.Gray(1)}
	want := 4 * math.Pi
	if math.Abs(l.Power().R-want) > 1e-9 {
		t.Errorf("Power = %g, want %g", l.Power().R, want)
	}
}

func TestAreaLight_SampleLi_PointsTowardShape(t *testing.T) {
	const tolerance = 1e-6

	sph := shape.NewSphere(geom.New(0, 0, 0), 1, shape.NoMaterial)
	al := &AreaLight{Shape: sph, Lemit: spectrum.Gray(2)}

	shadingPoint := geom.New(0, 0, 5)
	rng := rand.New(rand.NewSource(1))
	u := [2]float64{rng.Float64(), rng.Float64()}

	s := al.SampleLi(shadingPoint, geom.New(0, 0, 1), u)
	if s.Pdf <= 0 {
		t.Fatalf("expected positive pdf, got %g", s.Pdf)
	}

	expectedDir := s.P.Sub(shadingPoint).Normalize()
	if s.Wi.Sub(expectedDir).Length() > tolerance {
		t.Errorf("Wi inconsistent with sampled point: got %v, want %v", s.Wi, expectedDir)
	}
}

func TestAreaLight_OneSided_BackFaceIsBlack(t *testing.T) {
	sph := shape.NewSphere(geom.New(0, 0, 0), 1, shape.NoMaterial)
	al := &AreaLight{Shape: sph, Lemit: spectrum.Gray(3), TwoSided: false}

	n := geom.New(0, 0, 1)
	backFacing := al.L(n, geom.New(0, 0, -1))
	if !backFacing.IsBlack() {
		t.Errorf("one-sided area light should be black on the back face, got %v", backFacing)
	}

	frontFacing := al.L(n, geom.New(0, 0, 1))
	if frontFacing.IsBlack() {
		t.Errorf("one-sided area light should emit on the front face")
	}
}

func TestAreaLight_Power_ScalesWithArea(t *testing.T) {
	small := shape.NewSphere(geom.New(0, 0, 0), 1, shape.NoMaterial)
	big := shape.NewSphere(geom.New(0, 0, 0), 2, shape.NoMaterial)

	lSmall := &AreaLight{Shape: small, Lemit: spectrum.Gray(1)}
	lBig := &AreaLight{Shape: big, Lemit: spectrum.Gray(1)}

	if lBig.Power().R <= lSmall.Power().R {
		t.Errorf("larger emissive sphere should have more power: small=%g big=%g",
			lSmall.Power().R, lBig.Power().R)
	}
}

func TestInfiniteLight_SampleLi_UniformPdf(t *testing.T) {
	l := &InfiniteLight{L: spectrum.Gray(1), WorldRadius: 10}
	s := l.SampleLi(geom.New(0, 0, 0), geom.New(0, 0, 1), [2]float64{0.2, 0.8})
	want := 1 / (4 * math.Pi)
	if math.Abs(s.Pdf-want) > 1e-9 {
		t.Errorf("Pdf = %g, want %g", s.Pdf, want)
	}
}

func TestInfiniteLight_Le_ConstantAlongAnyRay(t *testing.T) {
	l := &InfiniteLight{L: spectrum.New(1, 2, 3), WorldRadius: 5}
	r1 := geom.NewRay(geom.New(0, 0, 0), geom.New(1, 0, 0))
	r2 := geom.NewRay(geom.New(10, 10, 10), geom.New(0, -1, 0))
	if l.Le(r1) != l.Le(r2) {
		t.Errorf("infinite light radiance should not depend on ray: %v vs %v", l.Le(r1), l.Le(r2))
	}
}

func TestUniformLightSampler_PdfSumsToOne(t *testing.T) {
	lights := []Light{
		&PointLight{I: spectrum.Gray(1)},
		&PointLight{I: spectrum.Gray(5)},
		&PointLight{I: spectrum.Gray(0.1)},
	}
	s := NewUniformLightSampler(lights)

	sum := 0.0
	for _, l := range lights {
		sum += s.PdfLight(l)
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("uniform sampler PDFs sum to %g, want 1", sum)
	}
}

func TestPowerLightSampler_FavorsHigherPower(t *testing.T) {
	dim := &PointLight{I: spectrum.Gray(0.01)}
	bright := &PointLight{I: spectrum.Gray(100)}
	lights := []Light{dim, bright}

	s := NewPowerLightSampler(lights)
	if s.PdfLight(bright) <= s.PdfLight(dim) {
		t.Errorf("power sampler should favor the brighter light: bright pdf=%g dim pdf=%g",
			s.PdfLight(bright), s.PdfLight(dim))
	}

	// Sampling with a fine sweep of u should select the bright light more often.
	brightCount := 0
	const n = 1000
	for i := 0; i < n; i++ {
		u := (float64(i) + 0.5) / n
		light, _ := s.SampleLight(u)
		if light == bright {
			brightCount++
		}
	}
	if brightCount < n/2 {
		t.Errorf("expected the brighter light to be selected more than half the time, got %d/%d", brightCount, n)
	}
}

func TestPowerLightSampler_PdfMatchesSampleFrequency(t *testing.T) {
	lights := []Light{
		&PointLight{I: spectrum.Gray(1)},
		&PointLight{I: spectrum.Gray(3)},
	}
	s := NewPowerLightSampler(lights)

	sum := 0.0
	for _, l := range lights {
		sum += s.PdfLight(l)
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("power sampler PDFs sum to %g, want 1", sum)
	}
}
