package bdpt

import (
	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/light"
	"github.com/kjellstrom/lumenpath/internal/rtlog"
	"github.com/kjellstrom/lumenpath/internal/sampling"
	"github.com/kjellstrom/lumenpath/internal/scenegraph"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// Config mirrors the teacher's SamplingConfig's depth knobs
// (pkg/core/scene.go), scoped to what BDPT subpath generation needs.
type Config struct {
	MaxDepth int
}

// Integrator is stateless and safe to share across the worker
// goroutines internal/film dispatches tiles to — the teacher's
// BDPTIntegrator instead embedded *PathTracingIntegrator and a
// Verbose bool per instance; here the config is immutable and
// diagnostics go through an injected rtlog.Logger instead.
type Integrator struct {
	Config Config
	Logger rtlog.Logger
}

func New(cfg Config, logger rtlog.Logger) *Integrator {
	if logger == nil {
		logger = rtlog.NoOp{}
	}
	return &Integrator{Config: cfg, Logger: logger}
}

// RayColor is the integrator's single-pixel entry point (spec.md
// §4.I): generate both subpaths, enumerate every valid (s,t)
// connection strategy, and sum their MIS-weighted contributions — the
// teacher's BDPTIntegrator.RayColor without the splat-ray return value
// t=1's omission makes unreachable. cam is the same Camera used to
// generate ray; it is carried into the camera subpath's root vertex so
// the MIS weight calculation can query CalculateRayPDFs for
// hypothetical connection strategies through that vertex.
func (bd *Integrator) RayColor(ray geom.Ray, cam *Camera, scene *scenegraph.Scene, lightSampler light.LightSampler, sampler sampling.Sampler) spectrum.Spectrum {
	cameraPath := GenerateCameraSubpath(ray, cam, scene, sampler, bd.Config.MaxDepth)
	lightPath := GenerateLightSubpath(scene, lightSampler, sampler, bd.Config.MaxDepth)

	strategies := generateStrategies(cameraPath, lightPath, scene, lightSampler, sampler)
	color := evaluateStrategies(strategies)

	bd.Logger.Printf("bdpt: ray=%v camera_len=%d light_len=%d strategies=%d color=%v\n",
		ray, cameraPath.Length, lightPath.Length, len(strategies), color)

	return color
}
