package sampling

import (
	"math"
	"testing"
)

// TestDistribution1DUniform is spec.md §8 scenario 2: f=[1,1,1,1], for
// u=0.375 expect x=0.375, pdf=1, offset=1.
func TestDistribution1DUniform(t *testing.T) {
	d := NewDistribution1D([]float64{1, 1, 1, 1})

	x, pdf, offset := d.SampleContinuous(0.375)
	if math.Abs(x-0.375) > 1e-9 {
		t.Errorf("expected x=0.375, got %f", x)
	}
	if math.Abs(pdf-1.0) > 1e-9 {
		t.Errorf("expected pdf=1.0, got %f", pdf)
	}
	if offset != 1 {
		t.Errorf("expected offset=1, got %d", offset)
	}
}

// TestDistribution1DSkewed is spec.md §8 scenario 3:
// f=[0,1,0,3], func_int=1.0, cdf=[0,0,0.25,0.25,1.0].
// For u=0.5 expect offset=3, x in [0.75,1.0), discrete pdf index 3 = 0.75.
func TestDistribution1DSkewed(t *testing.T) {
	d := NewDistribution1D([]float64{0, 1, 0, 3})

	if math.Abs(d.FuncInt-1.0) > 1e-9 {
		t.Fatalf("expected func_int=1.0, got %f", d.FuncInt)
	}
	wantCdf := []float64{0, 0, 0.25, 0.25, 1.0}
	for i, w := range wantCdf {
		if math.Abs(d.Cdf[i]-w) > 1e-9 {
			t.Errorf("cdf[%d] = %f, want %f", i, d.Cdf[i], w)
		}
	}

	x, _, offset := d.SampleContinuous(0.5)
	if offset != 3 {
		t.Errorf("expected offset=3, got %d", offset)
	}
	if x < 0.75 || x >= 1.0 {
		t.Errorf("expected x in [0.75,1.0), got %f", x)
	}

	discretePdf := d.DiscretePDF(3)
	if math.Abs(discretePdf-0.75) > 1e-9 {
		t.Errorf("expected discrete pdf index 3 = 0.75, got %f", discretePdf)
	}
}

// TestDistribution1DRoundTrip is spec.md §8 property 5.
func TestDistribution1DRoundTrip(t *testing.T) {
	d := NewDistribution1D([]float64{2, 5, 1, 8, 3})

	for _, u := range []float64{0.01, 0.2, 0.33, 0.5, 0.76, 0.99} {
		x, pdf, offset := d.SampleContinuous(u)
		bucket := int(x * float64(d.Count()))
		if bucket != offset {
			t.Errorf("u=%f: x=%f maps to bucket %d, but SampleContinuous reported offset %d", u, x, bucket, offset)
		}
		if u < d.Cdf[offset] || u >= d.Cdf[offset+1] {
			// Allow the boundary u==Cdf[n] edge case at u=1 (not tested here).
			t.Errorf("u=%f not in [Cdf[%d], Cdf[%d]) = [%f, %f)", u, offset, offset+1, d.Cdf[offset], d.Cdf[offset+1])
		}
		wantPdf := d.Func[offset] / d.FuncInt
		if math.Abs(pdf-wantPdf) > 1e-9 {
			t.Errorf("u=%f: pdf=%f, want %f", u, pdf, wantPdf)
		}
	}
}

// TestDistribution2DMarginalLaw is spec.md §8 property 6:
// pdf(u,v) = p_marginal(v) * p_conditional[v](u).
func TestDistribution2DMarginalLaw(t *testing.T) {
	nu, nv := 4, 3
	f := []float64{
		1, 2, 3, 4,
		0, 1, 0, 1,
		5, 5, 5, 5,
	}
	d := NewDistribution2D(f, nu, nv)

	for _, u2 := range []float64{0.1, 0.5, 0.9} {
		for _, u1 := range []float64{0.2, 0.6} {
			uv, pdf := d.SampleContinuous(u1, u2)
			wantPdf := d.Pdf(uv[0], uv[1])
			if math.Abs(pdf-wantPdf) > 1e-6 {
				t.Errorf("u1=%f u2=%f: joint pdf=%f, marginal*conditional pdf=%f", u1, u2, pdf, wantPdf)
			}
		}
	}
}

func TestRemap0(t *testing.T) {
	if Remap0(0) != 1 {
		t.Error("Remap0(0) should be 1")
	}
	if Remap0(2.5) != 2.5 {
		t.Error("Remap0 should pass through non-zero values")
	}
}

func TestCosineSampleHemisphereUpperHalf(t *testing.T) {
	for _, u1 := range []float64{0, 0.25, 0.5, 0.75, 0.999} {
		for _, u2 := range []float64{0, 0.25, 0.5, 0.75, 0.999} {
			d := CosineSampleHemisphere(u1, u2)
			if d.Z < 0 {
				t.Errorf("cosine hemisphere sample below equator: %+v", d)
			}
			if math.Abs(d.LengthSquared()-1) > 1e-6 {
				t.Errorf("cosine hemisphere sample not unit length: %+v", d)
			}
		}
	}
}
