package sampling

import "math/rand"

// Sampler is the source of random numbers consumed by subpath
// generation and connection (spec.md §4.I). It is implemented both by
// RandomSampler, a thin wrapper over math/rand for ordinary rendering,
// and by internal/mlt's MLTSampler, whose Get1D/Get2D route through
// the primary-sample-space mutation machinery instead — the same
// swap the original Rust source makes by boxing a `Sampler` trait
// object (original_source/src/integrators/mlt.rs's `Box<Sampler>`).
type Sampler interface {
	Get1D() float64
	Get2D() [2]float64
}

// RandomSampler is the ordinary, non-mutating Sampler used by plain
// BDPT rendering, grounded on the teacher's core.RandomSampler
// (pkg/core/sampler.go's rand.Rand-backed sampler).
type RandomSampler struct {
	Rng *rand.Rand
}

func NewRandomSampler(rng *rand.Rand) *RandomSampler { return &RandomSampler{Rng: rng} }

func (s *RandomSampler) Get1D() float64 { return s.Rng.Float64() }

func (s *RandomSampler) Get2D() [2]float64 {
	return [2]float64{s.Rng.Float64(), s.Rng.Float64()}
}
