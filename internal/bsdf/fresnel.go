package bsdf

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// Fresnel computes the reflectance of a surface as a function of the
// cosine of the incident angle (spec.md §4.E "Fresnel variants").
type Fresnel interface {
	Evaluate(cosThetaI float64) spectrum.Spectrum
}

// NoOpFresnel always returns full reflectance — used for interfaces
// that should not attenuate (spec.md "NoOp -> 1").
type NoOpFresnel struct{}

func (NoOpFresnel) Evaluate(float64) spectrum.Spectrum { return spectrum.Gray(1) }

// DielectricFresnel implements the unpolarized Fresnel reflectance
// between two dielectrics, handling the sign flip / eta swap when the
// ray exits rather than enters the medium.
type DielectricFresnel struct {
	EtaI, EtaT float64
}

func FrDielectric(cosThetaI, etaI, etaT float64) float64 {
	cosThetaI = geom.Clamp(cosThetaI, -1, 1)
	if cosThetaI <= 0 {
		etaI, etaT = etaT, etaI
		cosThetaI = math.Abs(cosThetaI)
	}

	sinThetaI := math.Sqrt(math.Max(0, 1-cosThetaI*cosThetaI))
	sinThetaT := etaI / etaT * sinThetaI
	if sinThetaT >= 1 {
		return 1 // total internal reflection
	}
	cosThetaT := math.Sqrt(math.Max(0, 1-sinThetaT*sinThetaT))

	rParl := ((etaT * cosThetaI) - (etaI * cosThetaT)) / ((etaT * cosThetaI) + (etaI * cosThetaT))
	rPerp := ((etaI * cosThetaI) - (etaT * cosThetaT)) / ((etaI * cosThetaI) + (etaT * cosThetaT))
	return (rParl*rParl + rPerp*rPerp) / 2
}

func (d DielectricFresnel) Evaluate(cosThetaI float64) spectrum.Spectrum {
	return spectrum.Gray(FrDielectric(cosThetaI, d.EtaI, d.EtaT))
}

// ConductorFresnel implements the Fresnel reflectance for a conductor
// with complex index of refraction (eta, k) per channel.
type ConductorFresnel struct {
	EtaI, Eta, K spectrum.Spectrum
}

func frConductor(cosThetaI float64, etaI, eta, k float64) float64 {
	cosThetaI = geom.Clamp(cosThetaI, -1, 1)
	cos2ThetaI := cosThetaI * cosThetaI
	sin2ThetaI := 1 - cos2ThetaI

	eta2 := (eta / etaI) * (eta / etaI)
	eta2k2 := (k / etaI) * (k / etaI)

	t0 := eta2 - eta2k2 - sin2ThetaI
	a2plusb2 := math.Sqrt(math.Max(0, t0*t0+4*eta2*eta2k2))
	t1 := a2plusb2 + cos2ThetaI
	a := math.Sqrt(math.Max(0, 0.5*(a2plusb2+t0)))
	t2 := 2 * a * cosThetaI
	rs := (t1 - t2) / (t1 + t2)

	t3 := cos2ThetaI*a2plusb2 + sin2ThetaI*sin2ThetaI
	t4 := t2 * sin2ThetaI
	rp := rs * (t3 - t4) / (t3 + t4)

	return 0.5 * (rp + rs)
}

func (c ConductorFresnel) Evaluate(cosThetaI float64) spectrum.Spectrum {
	return spectrum.New(
		frConductor(cosThetaI, c.EtaI.R, c.Eta.R, c.K.R),
		frConductor(cosThetaI, c.EtaI.G, c.Eta.G, c.K.G),
		frConductor(cosThetaI, c.EtaI.B, c.Eta.B, c.K.B),
	)
}

// SchlickFresnel is the cheap polynomial approximation used by
// FresnelBlend and DisneyFresnel's dielectric term.
func SchlickFresnel(r0 spectrum.Spectrum, cosTheta float64) spectrum.Spectrum {
	pow5 := func(x float64) float64 { y := 1 - x; y2 := y * y; return y2 * y2 * y }
	return r0.Add(spectrum.Gray(1).Sub(r0).Scale(pow5(geom.Clamp(cosTheta, 0, 1))))
}

// DisneyFresnel mixes a dielectric Fresnel term with a Schlick term
// weighted by metallic, matching the "Disney family" note in spec.md
// §4.E ("implementers may defer these behind the same interface" —
// Fresnel itself is cheap enough not to defer).
type DisneyFresnel struct {
	R0         spectrum.Spectrum
	Metallic   float64
	Eta        float64
}

func (d DisneyFresnel) Evaluate(cosThetaI float64) spectrum.Spectrum {
	dielectric := spectrum.Gray(FrDielectric(cosThetaI, 1, d.Eta))
	schlick := SchlickFresnel(d.R0, cosThetaI)
	return dielectric.Scale(1 - d.Metallic).Add(schlick.Scale(d.Metallic))
}
