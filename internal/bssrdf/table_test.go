package bssrdf

import "testing"

func TestComputeBeamDiffusionBSSRDFMonotoneCDF(t *testing.T) {
	table := NewTable(4, 16)
	ComputeBeamDiffusionBSSRDF(0, 1.33, table)

	for i := 0; i < table.NRhoSamples; i++ {
		prev := -1.0
		row := table.ProfileCDF[i*table.NRadiusSamples : (i+1)*table.NRadiusSamples]
		for _, v := range row {
			if v < prev {
				t.Fatalf("profile CDF not monotone in row %d: %v", i, row)
			}
			prev = v
		}
		if table.RhoEff[i] < 0 {
			t.Errorf("rho_eff[%d] = %g, want >= 0", i, table.RhoEff[i])
		}
	}

	for i := 2; i < table.NRadiusSamples; i++ {
		if table.RadiusSamples[i] <= table.RadiusSamples[i-1] {
			t.Errorf("radius grid not strictly increasing at %d", i)
		}
	}
}

func TestFresnelMoment1Continuous(t *testing.T) {
	// FresnelMoment1's two polynomial branches should roughly agree at
	// the eta=1 boundary.
	below := FresnelMoment1(0.999)
	above := FresnelMoment1(1.001)
	if diff := below - above; diff > 0.05 || diff < -0.05 {
		t.Errorf("fresnel moment1 discontinuous at eta=1: %g vs %g", below, above)
	}
}
