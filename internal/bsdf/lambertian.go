package bsdf

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// LambertianReflection is R/pi over the upper hemisphere, matching the
// teacher's Lambertian material (pkg/material/lambertian.go) but
// expressed as a lobe rather than a whole Material.
type LambertianReflection struct {
	R spectrum.Spectrum
}

func (l LambertianReflection) Flags() Flags { return Reflection | Diffuse }

func (l LambertianReflection) F(wo, wi geom.Vec3) spectrum.Spectrum {
	if !SameHemisphere(wo, wi) {
		return spectrum.Black
	}
	return l.R.Scale(1 / math.Pi)
}

func (l LambertianReflection) SampleF(wo geom.Vec3, u [2]float64) (geom.Vec3, float64, spectrum.Spectrum, Flags) {
	wi := cosineHemisphere(u)
	if wo.Z < 0 {
		wi.Z = -wi.Z
	}
	pdf := l.Pdf(wo, wi)
	return wi, pdf, l.F(wo, wi), l.Flags()
}

func (l LambertianReflection) Pdf(wo, wi geom.Vec3) float64 {
	if !SameHemisphere(wo, wi) {
		return 0
	}
	return AbsCosTheta(wi) / math.Pi
}

// LambertianTransmission is T/pi over the opposite hemisphere from wo.
type LambertianTransmission struct {
	T spectrum.Spectrum
}

func (l LambertianTransmission) Flags() Flags { return Transmission | Diffuse }

func (l LambertianTransmission) F(wo, wi geom.Vec3) spectrum.Spectrum {
	if SameHemisphere(wo, wi) {
		return spectrum.Black
	}
	return l.T.Scale(1 / math.Pi)
}

func (l LambertianTransmission) SampleF(wo geom.Vec3, u [2]float64) (geom.Vec3, float64, spectrum.Spectrum, Flags) {
	wi := cosineHemisphere(u)
	if wo.Z > 0 {
		wi.Z = -wi.Z
	}
	pdf := l.Pdf(wo, wi)
	return wi, pdf, l.F(wo, wi), l.Flags()
}

func (l LambertianTransmission) Pdf(wo, wi geom.Vec3) float64 {
	if SameHemisphere(wo, wi) {
		return 0
	}
	return AbsCosTheta(wi) / math.Pi
}

// OrenNayar is a microfacet diffuse model with precomputed A/B terms
// (spec.md §4.E), grounded directly on the closed-form description
// there since neither the teacher nor the Rust source implements it.
type OrenNayar struct {
	R    spectrum.Spectrum
	A, B float64
}

func NewOrenNayar(r spectrum.Spectrum, sigmaDegrees float64) OrenNayar {
	sigma := sigmaDegrees * math.Pi / 180
	sigma2 := sigma * sigma
	return OrenNayar{
		R: r,
		A: 1 - sigma2/(2*(sigma2+0.33)),
		B: 0.45 * sigma2 / (sigma2 + 0.09),
	}
}

func (o OrenNayar) Flags() Flags { return Reflection | Diffuse }

func (o OrenNayar) F(wo, wi geom.Vec3) spectrum.Spectrum {
	if !SameHemisphere(wo, wi) {
		return spectrum.Black
	}

	sinThetaI := SinTheta(wi)
	sinThetaO := SinTheta(wo)

	maxCos := 0.0
	if sinThetaI > 1e-4 && sinThetaO > 1e-4 {
		dCos := CosPhi(wi)*CosPhi(wo) + SinPhi(wi)*SinPhi(wo)
		maxCos = math.Max(0, dCos)
	}

	var sinAlpha, tanBeta float64
	if AbsCosTheta(wi) > AbsCosTheta(wo) {
		sinAlpha, tanBeta = sinThetaO, sinThetaI/AbsCosTheta(wi)
	} else {
		sinAlpha, tanBeta = sinThetaI, sinThetaO/AbsCosTheta(wo)
	}

	return o.R.Scale((o.A + o.B*maxCos*sinAlpha*tanBeta) / math.Pi)
}

func (o OrenNayar) SampleF(wo geom.Vec3, u [2]float64) (geom.Vec3, float64, spectrum.Spectrum, Flags) {
	wi := cosineHemisphere(u)
	if wo.Z < 0 {
		wi.Z = -wi.Z
	}
	return wi, o.Pdf(wo, wi), o.F(wo, wi), o.Flags()
}

func (o OrenNayar) Pdf(wo, wi geom.Vec3) float64 {
	if !SameHemisphere(wo, wi) {
		return 0
	}
	return AbsCosTheta(wi) / math.Pi
}
