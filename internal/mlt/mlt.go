package mlt

import (
	"math"
	"math/rand"

	"github.com/kjellstrom/lumenpath/internal/bdpt"
	"github.com/kjellstrom/lumenpath/internal/light"
	"github.com/kjellstrom/lumenpath/internal/rtlog"
	"github.com/kjellstrom/lumenpath/internal/sampling"
	"github.com/kjellstrom/lumenpath/internal/scenegraph"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// Config mirrors MLTIntegrator's constructor parameters
// (original_source/src/integrators/mlt.rs).
type Config struct {
	MaxDepth             uint32
	NBootstrap           uint32
	NChains              uint32
	MutationsPerPixel    uint32
	Sigma                float64
	LargeStepProbability float64
}

// Splatter receives an MLT mutation's two samples (current and
// proposed), the narrow interface internal/film.Film satisfies so this
// package never imports internal/film directly.
type Splatter interface {
	AddSplat(x, y int, c spectrum.Spectrum)
}

// Integrator runs independent Metropolis chains over primary sample
// space, each chain replaying internal/bdpt's ordinary subpath
// generation and connection strategies through an MLTSampler instead
// of a RandomSampler — original_source's MLTIntegrator.
type Integrator struct {
	Config        Config
	Camera        *bdpt.Camera
	Scene         *scenegraph.Scene
	Lights        light.LightSampler
	Width, Height int
	Logger        rtlog.Logger
}

func New(cfg Config, cam *bdpt.Camera, scene *scenegraph.Scene, lights light.LightSampler, width, height int, logger rtlog.Logger) *Integrator {
	if logger == nil {
		logger = rtlog.NoOp{}
	}
	return &Integrator{Config: cfg, Camera: cam, Scene: scene, Lights: lights, Width: width, Height: height, Logger: logger}
}

// L evaluates one Metropolis sample: pick a connection strategy (s,t)
// for the given path depth, trace both subpaths through sampler, and
// evaluate the single selected strategy — MLTIntegrator::l. It returns
// the raster pixel the sample landed on alongside its radiance, since
// MLT's chains wander over image space rather than rendering one fixed
// pixel at a time.
//
// Unlike the Rust source, s is clamped so t never reaches 1: this
// integrator's bdpt.EvaluateStrategy deliberately has no t=1
// (light-tracing-to-camera) strategy (see internal/bdpt), so every
// mutation here reprojects onto the pixel its own camera subpath
// started from rather than an arbitrary one a light path might hit.
func (m *Integrator) L(sampler *MLTSampler, depth uint32) (color spectrum.Spectrum, x, y int) {
	sampler.StartStream(CameraStream)

	var s, t, nStrategies int
	if depth == 0 {
		nStrategies, s, t = 1, 0, 2
	} else {
		nStrategies = int(depth) + 2
		s = int(sampler.Get1D() * float64(nStrategies))
		if s > nStrategies-2 {
			s = nStrategies - 2
		}
		if s < 0 {
			s = 0
		}
		t = nStrategies - s
	}

	px := sampler.Get1D() * float64(m.Width)
	py := sampler.Get1D() * float64(m.Height)
	u := px / float64(m.Width)
	v := 1 - py/float64(m.Height)

	ray := m.Camera.GenerateRay(u, v, sampler.Get2D())
	cameraPath := bdpt.GenerateCameraSubpath(ray, m.Camera, m.Scene, sampler, t-1)
	if cameraPath.Length != t {
		return spectrum.Black, 0, 0
	}

	sampler.StartStream(LightStream)
	lightPath := bdpt.GenerateLightSubpath(m.Scene, m.Lights, sampler, s)
	if lightPath.Length != s {
		return spectrum.Black, 0, 0
	}

	sampler.StartStream(ConnectionStream)
	contribution := bdpt.EvaluateStrategy(cameraPath, lightPath, s, t, m.Scene, m.Lights, sampler)

	return contribution.Scale(float64(nStrategies)), int(px), int(py)
}

// Bootstrap draws NBootstrap*(MaxDepth+1) independent samples, one per
// path depth in round-robin, and builds a Distribution1D over their
// luminances — the normalization constant b and per-chain starting
// point selection pbrt's bidirectional MLT needs before it can start
// any chain. Sequential, matching the Rust source's bootstrap loop
// ("TMP: disable multi-threading" in original_source/src/integrators/mlt.rs);
// internal/film's tile dispatcher is where this repo spends its
// parallelism budget instead.
func (m *Integrator) Bootstrap(rngSeed int64) *sampling.Distribution1D {
	depths := int(m.Config.MaxDepth) + 1
	n := int(m.Config.NBootstrap) * depths
	weights := make([]float64, n)

	for i := range weights {
		depth := uint32(i % depths)
		rng := rand.New(rand.NewSource(rngSeed + int64(i)))
		sampler := NewMLTSampler(rng, m.Config.Sigma, m.Config.LargeStepProbability)
		color, _, _ := m.L(sampler, depth)
		weights[i] = color.Luminance()
	}

	return sampling.NewDistribution1D(weights)
}

// Render runs Config.NChains independent Metropolis chains, each
// started from a bootstrap sample drawn proportional to luminance, and
// splats every proposed and current sample onto film each mutation —
// MLTIntegrator::render. It returns the normalization factor
// b/MutationsPerPixel the caller must scale the accumulated splats by
// when resolving the final image (film.WriteImage's norm parameter).
func (m *Integrator) Render(film Splatter, rngSeed int64) float64 {
	depths := float64(m.Config.MaxDepth + 1)
	bootstrap := m.Bootstrap(rngSeed)
	b := bootstrap.FuncInt * depths
	if b <= 0 || len(m.Lights.Lights()) == 0 {
		m.Logger.Printf("mlt: scene has no measurable light transport, nothing to render\n")
		return 0
	}

	totalMutations := uint64(m.Config.MutationsPerPixel) * uint64(m.Width) * uint64(m.Height)
	nChains := uint64(m.Config.NChains)

	for c := uint64(0); c < nChains; c++ {
		chainMutations := (c+1)*totalMutations/nChains - c*totalMutations/nChains

		chainRng := rand.New(rand.NewSource(rngSeed + int64(c) + 1))
		bootstrapIndex, _, _ := bootstrap.SampleDiscrete(chainRng.Float64())
		depth := uint32(bootstrapIndex) % (m.Config.MaxDepth + 1)

		sampler := NewMLTSampler(rand.New(rand.NewSource(rngSeed+int64(bootstrapIndex))), m.Config.Sigma, m.Config.LargeStepProbability)
		lCurrent, xCurrent, yCurrent := m.L(sampler, depth)

		for j := uint64(0); j < chainMutations; j++ {
			sampler.StartIteration()
			lProposed, xProposed, yProposed := m.L(sampler, depth)

			accept := 1.0
			if lCurrent.Luminance() > 0 {
				accept = math.Min(1, lProposed.Luminance()/lCurrent.Luminance())
			}

			if accept > 0 && lProposed.Luminance() > 0 {
				film.AddSplat(xProposed, yProposed, lProposed.Scale(accept/lProposed.Luminance()))
			}
			if lCurrent.Luminance() > 0 {
				film.AddSplat(xCurrent, yCurrent, lCurrent.Scale((1-accept)/lCurrent.Luminance()))
			}

			if chainRng.Float64() < accept {
				xCurrent, yCurrent, lCurrent = xProposed, yProposed, lProposed
				sampler.Accept()
			} else {
				sampler.Reject()
			}
		}
	}

	m.Logger.Printf("mlt: %d chains, %d total mutations, normalization b=%g\n", nChains, totalMutations, b)
	return b / float64(m.Config.MutationsPerPixel)
}
