// Package mlt implements Metropolis Light Transport (spec.md §4.J): a
// primary-sample-space sampler that proposes small perturbations to an
// accepted path and a set of independent Markov chains that explore
// path space proportional to contribution, splatting onto the film
// instead of accumulating per-pixel averages — grounded on
// original_source/src/integrators/mlt.rs's MLTSampler/MLTIntegrator,
// reusing internal/bdpt's subpath generation and connection strategies
// unchanged via the sampling.Sampler interface they're already
// parameterized over.
package mlt

import (
	"math"
	"math/rand"
)

// Stream indices let a single MLTSampler serve the three phases of one
// L() evaluation without their random numbers interfering with each
// other's mutation history, mirroring the Rust source's
// CAMERA_STREAM_INDEX/LIGHT_STREAM_INDEX/CONNECTION_STREAM_INDEX.
const (
	CameraStream = iota
	LightStream
	ConnectionStream
	NSampleStreams
)

// PrimarySample is one coordinate of primary sample space, carrying
// enough history to undo a rejected mutation — pbrt's PrimarySample.
type PrimarySample struct {
	Value                     float64
	LastModificationIteration int64
	valueBackup               float64
	modifyBackup              int64
}

func (p *PrimarySample) backup()  { p.valueBackup, p.modifyBackup = p.Value, p.LastModificationIteration }
func (p *PrimarySample) restore() { p.Value, p.LastModificationIteration = p.valueBackup, p.modifyBackup }

// MLTSampler implements sampling.Sampler by replaying a sequence of
// primary sample space coordinates, each either freshly redrawn (a
// "large step") or perturbed by a small Gaussian offset around its
// previous value (a "small step") — the teacher repo has no Metropolis
// sampler; this is the Rust source's MLTSampler generalized onto
// math/rand instead of its hand-rolled Rng.
type MLTSampler struct {
	Rng                  *rand.Rand
	Sigma                float64
	LargeStepProbability float64

	streamCount int
	x           []PrimarySample

	currentIteration       int64
	largeStep              bool
	lastLargeStepIteration int64

	streamIndex int
	sampleIndex int
}

func NewMLTSampler(rng *rand.Rand, sigma, largeStepProbability float64) *MLTSampler {
	return &MLTSampler{
		Rng:                  rng,
		Sigma:                sigma,
		LargeStepProbability: largeStepProbability,
		streamCount:          NSampleStreams,
		largeStep:            true,
	}
}

// StartIteration begins a new proposed mutation, deciding up front
// whether it is a large (fully independent) or small (perturbed) step.
func (s *MLTSampler) StartIteration() {
	s.currentIteration++
	s.largeStep = s.Rng.Float64() < s.LargeStepProbability
}

// Accept commits the current iteration as the chain's new state.
func (s *MLTSampler) Accept() {
	if s.largeStep {
		s.lastLargeStepIteration = s.currentIteration
	}
}

// Reject rolls back every coordinate touched by the current iteration.
func (s *MLTSampler) Reject() {
	for i := range s.x {
		if s.x[i].LastModificationIteration == s.currentIteration {
			s.x[i].restore()
		}
	}
	s.currentIteration--
}

// StartStream resets the per-stream sample cursor, called once before
// each of the camera/light/connection phases of an L() evaluation so
// the same logical coordinate index is reused across iterations.
func (s *MLTSampler) StartStream(index int) {
	s.streamIndex = index
	s.sampleIndex = 0
}

func (s *MLTSampler) nextIndex() int {
	ret := s.streamIndex + s.streamCount*s.sampleIndex
	s.sampleIndex++
	return ret
}

// ensureReady lazily grows the coordinate vector and applies whatever
// mutation (reset, large step, or small step) is due for index, pbrt's
// MLTSampler::EnsureReady.
func (s *MLTSampler) ensureReady(index int) {
	if index >= len(s.x) {
		grown := make([]PrimarySample, index+1)
		copy(grown, s.x)
		s.x = grown
	}

	xi := &s.x[index]
	if xi.LastModificationIteration < s.lastLargeStepIteration {
		xi.Value = s.Rng.Float64()
		xi.LastModificationIteration = s.lastLargeStepIteration
	}

	xi.backup()
	if s.largeStep {
		xi.Value = s.Rng.Float64()
	} else {
		nSmall := s.currentIteration - xi.LastModificationIteration
		normalSample := math.Sqrt2 * math.Erfinv(2*s.Rng.Float64()-1)
		effSigma := s.Sigma * math.Sqrt(float64(nSmall))
		xi.Value += normalSample * effSigma
		xi.Value -= math.Floor(xi.Value)
	}
	xi.LastModificationIteration = s.currentIteration
}

func (s *MLTSampler) Get1D() float64 {
	index := s.nextIndex()
	s.ensureReady(index)
	return s.x[index].Value
}

func (s *MLTSampler) Get2D() [2]float64 {
	return [2]float64{s.Get1D(), s.Get1D()}
}
