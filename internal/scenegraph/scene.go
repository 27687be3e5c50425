package scenegraph

import (
	"github.com/kjellstrom/lumenpath/internal/accel"
	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/light"
	"github.com/kjellstrom/lumenpath/internal/shape"
)

// Hit is the result of intersecting the scene: the surface record
// plus the resolved Material and, if the primitive is emissive, the
// Light it backs. Resolving MaterialID/AreaLightID here — rather than
// inside the BVH — keeps accel.BVH ignorant of the material table,
// matching spec.md §9's index-not-pointer guidance.
type Hit struct {
	SI       *shape.SurfaceInteraction
	Material Material
	AreaLight light.Light // nil unless SI.AreaLight != shape.NoAreaLight
}

// Scene bundles the accelerator, the light list sampled by BDPT/MLT's
// light subpaths, and the material table those shapes index into
// (spec.md §4.H). It is the aggregate root every integrator traces
// against, generalizing the teacher's core.Scene
// (pkg/core/scene.go) to the index-based material/light model.
type Scene struct {
	BVH       *accel.BVH
	Lights    []light.Light
	Sampler   light.LightSampler
	Materials []Material

	// areaLightByID maps shape.AreaLightID -> the Light it backs, built
	// once at construction from the same order callers attach area
	// lights to shapes in.
	areaLightByID []light.Light
}

// New builds a Scene from already-built shapes/materials/lights.
// areaLights must be indexed identically to how shapes' AreaLightID
// fields reference them (a shape whose Light field is i is backed by
// areaLights[i]).
func New(shapes []shape.Shape, cfg accel.Config, materials []Material, lights []light.Light, areaLights []light.Light, sampler light.LightSampler) *Scene {
	return &Scene{
		BVH:           accel.Build(shapes, cfg),
		Lights:        lights,
		Sampler:       sampler,
		Materials:     materials,
		areaLightByID: areaLights,
	}
}

func (s *Scene) resolve(si *shape.SurfaceInteraction) Hit {
	h := Hit{SI: si}
	if si.Material != shape.NoMaterial {
		h.Material = s.Materials[si.Material]
	}
	if si.AreaLight != shape.NoAreaLight {
		h.AreaLight = s.areaLightByID[si.AreaLight]
	}
	return h
}

// Intersect finds the closest hit along ray and resolves its material
// and area light, matching pbrt's SceneIntersect -> Material lookup.
func (s *Scene) Intersect(ray geom.Ray) (Hit, bool) {
	si, _, ok := s.BVH.Intersect(ray)
	if !ok {
		return Hit{}, false
	}
	return s.resolve(si), true
}

// IntersectP is a shadow-ray test with no material/light resolution.
func (s *Scene) IntersectP(ray geom.Ray) bool {
	return s.BVH.IntersectP(ray)
}

// Prober adapts a Scene to bssrdf.ProbeIntersector's
// Intersect(ray) (*SurfaceInteraction, bool) signature — Scene.Intersect
// itself returns the richer Hit (material/light resolved), which the
// probe segment doesn't need.
type Prober struct{ *Scene }

func (p Prober) Intersect(ray geom.Ray) (*shape.SurfaceInteraction, bool) {
	si, _, ok := p.BVH.Intersect(ray)
	return si, ok
}

func (s *Scene) WorldBound() geom.Bounds3 { return s.BVH.WorldBound }
func (s *Scene) WorldCenter() geom.Point3 { return s.BVH.WorldCenter }
func (s *Scene) WorldRadius() float64     { return s.BVH.WorldRadius }
