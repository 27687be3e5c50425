package light

import (
	"github.com/kjellstrom/lumenpath/internal/sampling"
)

// LightSampler picks one light among the scene's lights for direct
// lighting and MLT/BDPT bootstrapping, mirroring the teacher's
// pkg/lights/interfaces.go LightSampler but generalized from the
// teacher's fixed user-supplied weights to the "uniform"/"power"
// strategies spec.md §6 names.
type LightSampler interface {
	SampleLight(u float64) (light Light, pdf float64)
	PdfLight(light Light) float64
	Lights() []Light
}

// UniformLightSampler assigns every light equal selection probability,
// grounded on the teacher's NewUniformLightSampler
// (pkg/core/weighted_light_sampler.go).
type UniformLightSampler struct {
	lights []Light
}

func NewUniformLightSampler(lights []Light) *UniformLightSampler {
	return &UniformLightSampler{lights: lights}
}

func (s *UniformLightSampler) Lights() []Light { return s.lights }

func (s *UniformLightSampler) SampleLight(u float64) (Light, float64) {
	n := len(s.lights)
	if n == 0 {
		return nil, 0
	}
	idx := int(u * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return s.lights[idx], 1 / float64(n)
}

func (s *UniformLightSampler) PdfLight(light Light) float64 {
	if len(s.lights) == 0 {
		return 0
	}
	return 1 / float64(len(s.lights))
}

// PowerLightSampler weights each light by its total emitted power's
// luminance, built atop sampling.Distribution1D exactly as the teacher
// builds WeightedLightSampler atop explicit weights
// (pkg/core/weighted_light_sampler.go), but with the weight vector
// derived from Light.Power() instead of taken from scene authoring
// data (spec.md §6 "power" strategy, §C "light_sample_strategy").
type PowerLightSampler struct {
	lights []Light
	dist   *sampling.Distribution1D
}

func NewPowerLightSampler(lights []Light) *PowerLightSampler {
	weights := make([]float64, len(lights))
	for i, l := range lights {
		weights[i] = l.Power().Luminance()
	}
	return &PowerLightSampler{lights: lights, dist: sampling.NewDistribution1D(weights)}
}

func (s *PowerLightSampler) Lights() []Light { return s.lights }

func (s *PowerLightSampler) SampleLight(u float64) (Light, float64) {
	if len(s.lights) == 0 {
		return nil, 0
	}
	idx, pdf, _ := s.dist.SampleDiscrete(u)
	if pdf == 0 {
		// Degenerate all-black-power scene: fall back to uniform so a
		// caller still gets a usable light rather than a nil with pdf 0.
		return s.lights[idx], 1 / float64(len(s.lights))
	}
	return s.lights[idx], pdf
}

func (s *PowerLightSampler) PdfLight(light Light) float64 {
	for i, l := range s.lights {
		if l == light {
			return s.dist.DiscretePDF(i)
		}
	}
	return 0
}
