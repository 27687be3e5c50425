package bsdf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

const eps = 1e-5

func TestLambertianRoundTrip(t *testing.T) {
	b := NewBSDF(geom.New(0, 0, 1), geom.New(0, 0, 1), geom.New(1, 0, 0), 1)
	b.Add(LambertianReflection{R: spectrum.Gray(0.5)})

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		theta := rng.Float64() * math.Pi / 2
		phi := rng.Float64() * 2 * math.Pi
		wo := geom.New(math.Sin(theta)*math.Cos(phi), math.Sin(theta)*math.Sin(phi), math.Cos(theta))

		res, ok := b.SampleF(wo, [2]float64{rng.Float64(), rng.Float64()}, All)
		if !ok {
			t.Fatalf("sample_f failed for wo=%v", wo)
		}
		if res.Wi.Z < 0 {
			t.Errorf("sampled wi left the upper hemisphere: %v", res.Wi)
		}
		want := math.Abs(res.Wi.Z) / math.Pi
		if math.Abs(res.Pdf-want) > 1e-5 {
			t.Errorf("pdf mismatch: got %g want %g", res.Pdf, want)
		}
	}
}

func TestFresnelSpecularGrazing(t *testing.T) {
	theta := 89.0 * math.Pi / 180
	wo := geom.New(math.Sin(theta), 0, math.Cos(theta))
	lobe := FresnelSpecular{
		R: spectrum.Gray(1), T: spectrum.Gray(1),
		EtaA: 1, EtaB: 1.5,
	}
	fr := FrDielectric(CosTheta(wo), 1, 1.5)

	wiRefl, pdfRefl, _, flagsRefl := lobe.SampleF(wo, [2]float64{0, 0})
	if !flagsRefl.Has(Specular) || !flagsRefl.Has(Reflection) {
		t.Fatalf("u.x=0 should choose reflection, got flags %v", flagsRefl)
	}
	if math.Abs(pdfRefl-fr) > eps {
		t.Errorf("reflection pdf = %g, want %g", pdfRefl, fr)
	}
	wantRefl := geom.New(-wo.X, -wo.Y, wo.Z)
	if wiRefl.Sub(wantRefl).Length() > eps {
		t.Errorf("reflection direction = %v, want mirror %v", wiRefl, wantRefl)
	}

	_, pdfTrans, _, flagsTrans := lobe.SampleF(wo, [2]float64{1, 0})
	if !flagsTrans.Has(Specular) || !flagsTrans.Has(Transmission) {
		t.Fatalf("u.x=1 should choose transmission, got flags %v", flagsTrans)
	}
	if math.Abs(pdfTrans-(1-fr)) > eps {
		t.Errorf("transmission pdf = %g, want %g", pdfTrans, 1-fr)
	}
}

// TestBSDFEnergyConservation is a coarse Monte-Carlo check of spec.md
// §8 property 3 for a non-specular lobe.
func TestBSDFEnergyConservation(t *testing.T) {
	lobe := NewOrenNayar(spectrum.Gray(0.6), 20)
	wo := geom.New(0, 0, 1)

	rng := rand.New(rand.NewSource(7))
	const n = 20000
	sum := 0.0
	for i := 0; i < n; i++ {
		u := [2]float64{rng.Float64(), rng.Float64()}
		wi := cosineHemisphere(u)
		pdf := AbsCosTheta(wi) / math.Pi
		f := lobe.F(wo, wi).MaxComponent()
		sum += f * AbsCosTheta(wi) / pdf
	}
	integral := sum / n
	if integral > 1+0.05 {
		t.Errorf("OrenNayar integral = %g, expected <= ~1", integral)
	}
}

// TestPdfConsistency checks spec.md §8 property 4 for LambertianReflection.
func TestPdfConsistency(t *testing.T) {
	lobe := LambertianReflection{R: spectrum.Gray(0.5)}
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 100; i++ {
		wo := geom.New(0, 0, 1)
		wi, pdf, _, _ := lobe.SampleF(wo, [2]float64{rng.Float64(), rng.Float64()})
		if pdf <= 0 {
			continue
		}
		if math.Abs(lobe.Pdf(wo, wi)-pdf) > eps {
			t.Errorf("pdf inconsistency: sample_f=%g pdf()=%g", pdf, lobe.Pdf(wo, wi))
		}
	}
}

func TestCatmullRomWeightsSumToOne(t *testing.T) {
	nodes := []float64{0, 0.25, 0.5, 0.75, 1.0}
	_, w, ok := catmullRomWeights(nodes, 0.6)
	if !ok {
		t.Fatal("expected in-range sample to succeed")
	}
	sum := w[0] + w[1] + w[2] + w[3]
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("catmull-rom weights sum to %g, want 1", sum)
	}
}

func TestRefractTotalInternalReflection(t *testing.T) {
	wi := geom.New(math.Sin(1.4), 0, math.Cos(1.4))
	n := geom.New(0, 0, 1)
	_, ok := Refract(wi, n, 1.5/1.0)
	if ok {
		t.Error("expected total internal reflection at steep angle with eta>1")
	}
}
