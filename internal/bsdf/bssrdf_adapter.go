package bsdf

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// SeparableBSSRDFAdapter exposes a BSSRDF's Sw surface term as a
// diffuse-reflection-flagged BxDF over the outgoing direction
// (spec.md §4.E "BSSRDF adapter"). It takes Sw as a closure rather than
// importing package bssrdf directly, so bssrdf can depend one-way on
// bsdf without a cycle.
type SeparableBSSRDFAdapter struct {
	Sw       func(wi geom.Vec3) spectrum.Spectrum
	Eta      float64
	Radiance bool
}

func (a SeparableBSSRDFAdapter) Flags() Flags { return Reflection | Diffuse }

func (a SeparableBSSRDFAdapter) F(wo, wi geom.Vec3) spectrum.Spectrum {
	f := a.Sw(wi)
	if a.Radiance {
		f = f.Scale(a.Eta * a.Eta)
	}
	return f
}

func (a SeparableBSSRDFAdapter) SampleF(wo geom.Vec3, u [2]float64) (geom.Vec3, float64, spectrum.Spectrum, Flags) {
	wi := cosineHemisphere(u)
	if wo.Z < 0 {
		wi.Z = -wi.Z
	}
	return wi, a.Pdf(wo, wi), a.F(wo, wi), a.Flags()
}

func (a SeparableBSSRDFAdapter) Pdf(wo, wi geom.Vec3) float64 {
	if !SameHemisphere(wo, wi) {
		return 0
	}
	return AbsCosTheta(wi) / math.Pi
}
