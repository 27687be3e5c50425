// Package scenegraph wires shapes, materials, and lights into the
// Scene the BDPT/MLT integrators trace against (spec.md §4.H).
// Materials are BSDF factories in the teacher's mold
// (pkg/material/interfaces.go's Material.Scatter), but adapted to
// produce a *bsdf.BSDF value directly rather than a ScatterResult,
// since BDPT needs F/Pdf/SampleF on demand at every vertex rather
// than a single sampled bounce.
package scenegraph

import (
	"github.com/kjellstrom/lumenpath/internal/bsdf"
	"github.com/kjellstrom/lumenpath/internal/shape"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// Material builds the BSDF attached to a surface interaction
// (spec.md §4.E's frame construction plus §4.H's material table
// entry). A Material is stateless and reusable across every hit that
// resolves to it.
type Material interface {
	ComputeBSDF(si *shape.SurfaceInteraction) *bsdf.BSDF
}

// Matte is a Lambertian material, grounded on the teacher's
// pkg/material/lambertian.go.
type Matte struct {
	R spectrum.Spectrum
}

func (m Matte) ComputeBSDF(si *shape.SurfaceInteraction) *bsdf.BSDF {
	b := bsdf.NewBSDF(si.ShadingN, si.N, si.ShadingDpdu, 1)
	b.Add(bsdf.LambertianReflection{R: m.R})
	return b
}

// Mirror is a perfect specular reflector, grounded on the teacher's
// pkg/material/metal.go with fuzz fixed at zero (a delta lobe).
type Mirror struct {
	R spectrum.Spectrum
}

func (m Mirror) ComputeBSDF(si *shape.SurfaceInteraction) *bsdf.BSDF {
	b := bsdf.NewBSDF(si.ShadingN, si.N, si.ShadingDpdu, 1)
	b.Add(bsdf.SpecularReflection{R: m.R, Fresnel: bsdf.NoOpFresnel{}})
	return b
}

// Glass is a dielectric interface that both reflects and refracts,
// grounded on the teacher's pkg/material/dielectric.go and expressed
// here as the single FresnelSpecular lobe spec.md §4.E documents.
type Glass struct {
	R, T spectrum.Spectrum
	Eta  float64 // index of refraction, outside assumed to be 1
}

func (g Glass) ComputeBSDF(si *shape.SurfaceInteraction) *bsdf.BSDF {
	b := bsdf.NewBSDF(si.ShadingN, si.N, si.ShadingDpdu, g.Eta)
	b.Add(bsdf.FresnelSpecular{R: g.R, T: g.T, EtaA: 1, EtaB: g.Eta, Radiance: true})
	return b
}
