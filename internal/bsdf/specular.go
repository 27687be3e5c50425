package bsdf

import (
	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// SpecularReflection is a delta lobe: f and pdf are identically zero
// (there is zero probability of any particular wo,wi pair), and
// SampleF always returns the mirror direction (spec.md §4.E).
type SpecularReflection struct {
	R        spectrum.Spectrum
	Fresnel  Fresnel
}

func (s SpecularReflection) Flags() Flags { return Reflection | Specular }

func (s SpecularReflection) F(wo, wi geom.Vec3) spectrum.Spectrum { return spectrum.Black }
func (s SpecularReflection) Pdf(wo, wi geom.Vec3) float64         { return 0 }

func (s SpecularReflection) SampleF(wo geom.Vec3, u [2]float64) (geom.Vec3, float64, spectrum.Spectrum, Flags) {
	wi := geom.Vec3{X: -wo.X, Y: -wo.Y, Z: wo.Z}
	f := s.Fresnel.Evaluate(CosTheta(wi)).Mul(s.R).DivScalar(AbsCosTheta(wi))
	return wi, 1.0, f, s.Flags()
}

// SpecularTransmission refracts through the interface, applying the
// non-symmetric (eta_i/eta_t)^2 scale factor when transporting
// radiance rather than importance (spec.md §4.E).
type SpecularTransmission struct {
	T          spectrum.Spectrum
	EtaA, EtaB float64 // A = outside, B = inside
	Radiance   bool    // true when transporting radiance (camera paths); false for importance (light paths)
}

func (s SpecularTransmission) Flags() Flags { return Transmission | Specular }

func (s SpecularTransmission) F(wo, wi geom.Vec3) spectrum.Spectrum { return spectrum.Black }
func (s SpecularTransmission) Pdf(wo, wi geom.Vec3) float64         { return 0 }

func (s SpecularTransmission) SampleF(wo geom.Vec3, u [2]float64) (geom.Vec3, float64, spectrum.Spectrum, Flags) {
	entering := CosTheta(wo) > 0
	etaI, etaT := s.EtaA, s.EtaB
	if !entering {
		etaI, etaT = s.EtaB, s.EtaA
	}

	n := geom.Vec3{X: 0, Y: 0, Z: 1}
	if !entering {
		n = n.Negate()
	}

	wi, ok := Refract(wo, n, etaI/etaT)
	if !ok {
		return geom.Vec3{}, 0, spectrum.Black, s.Flags() // total internal reflection, spec.md §7
	}

	ft := s.T.Scale(1 - FrDielectric(CosTheta(wi), etaI, etaT))
	if s.Radiance {
		ft = ft.Scale((etaI * etaI) / (etaT * etaT))
	}
	ft = ft.DivScalar(AbsCosTheta(wi))

	return wi, 1.0, ft, s.Flags()
}

// FresnelSpecular samples reflection vs transmission by comparing u.x
// against the Fresnel term, per spec.md §4.E.
type FresnelSpecular struct {
	R, T       spectrum.Spectrum
	EtaA, EtaB float64
	Radiance   bool
}

func (f FresnelSpecular) Flags() Flags {
	return Reflection | Transmission | Specular
}

func (f FresnelSpecular) F(wo, wi geom.Vec3) spectrum.Spectrum { return spectrum.Black }
func (f FresnelSpecular) Pdf(wo, wi geom.Vec3) float64         { return 0 }

func (f FresnelSpecular) SampleF(wo geom.Vec3, u [2]float64) (geom.Vec3, float64, spectrum.Spectrum, Flags) {
	fr := FrDielectric(CosTheta(wo), f.EtaA, f.EtaB)

	if u[0] < fr {
		wi := geom.Vec3{X: -wo.X, Y: -wo.Y, Z: wo.Z}
		pdf := fr
		val := f.R.Scale(fr).DivScalar(AbsCosTheta(wi))
		return wi, pdf, val, Reflection | Specular
	}

	entering := CosTheta(wo) > 0
	etaI, etaT := f.EtaA, f.EtaB
	if !entering {
		etaI, etaT = f.EtaB, f.EtaA
	}
	n := geom.Vec3{X: 0, Y: 0, Z: 1}
	if !entering {
		n = n.Negate()
	}

	wi, ok := Refract(wo, n, etaI/etaT)
	if !ok {
		return geom.Vec3{}, 0, spectrum.Black, f.Flags()
	}

	ft := f.T.Scale(1 - fr)
	if f.Radiance {
		ft = ft.Scale((etaI * etaI) / (etaT * etaT))
	}
	pdf := 1 - fr
	ft = ft.DivScalar(AbsCosTheta(wi))
	return wi, pdf, ft, Transmission | Specular
}

// MirrorReflectDirection computes the reflection of v about n in world
// space; used by BDPT's specular-vertex bookkeeping where lobes alone
// don't carry enough context (matches the teacher's free function
// `reflect` in pkg/material/metal.go).
func MirrorReflectDirection(v, n geom.Vec3) geom.Vec3 {
	return v.Sub(n.Scale(2 * v.Dot(n)))
}
