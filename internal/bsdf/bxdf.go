// Package bsdf implements the material/BxDF framework of spec.md §4.E:
// tagged-variant reflectance lobes aggregated into a BSDF that
// evaluates, samples, and reports a PDF in a shared shading frame.
//
// The teacher repo (pkg/material) models one material == one BRDF with
// no lobe aggregation (Lambertian, Metal, Dielectric are each a whole
// Material). This package is grounded on spec.md §4.E directly and on
// the Rust source's core::reflection module
// (original_source/src/core/reflection.rs), which is exactly this
// pbrt-style BxDF/BSDF split; the teacher's ScatterResult/HitRecord
// naming and its Scatter/EvaluateBRDF/PDF three-method shape
// (pkg/material/interfaces.go) carries over as the aggregate BSDF's
// public API.
package bsdf

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// Flags is a bitset over lobe categories (spec.md §3 "BxDF").
type Flags uint8

const (
	Reflection Flags = 1 << iota
	Transmission
	Diffuse
	Glossy
	Specular

	All = Reflection | Transmission | Diffuse | Glossy | Specular
)

func (f Flags) Has(mask Flags) bool { return f&mask == mask }
func (f Flags) Any(mask Flags) bool { return f&mask != 0 }
func (f Flags) IsSpecular() bool    { return f.Has(Specular) }

// MaxBxDFs bounds the BSDF's lobe list so it can live inline on the
// per-thread scratch interaction (spec.md §5 "BSDF lobe storage is
// bounded (MAX_BXDFS = 8) and can live inline").
const MaxBxDFs = 8

// BxDF is a single scattering lobe, expressed entirely in the local
// shading frame where +z is the shading normal (spec.md §3 "BxDF").
type BxDF interface {
	Flags() Flags

	// F evaluates the lobe for a given pair of local-frame directions.
	F(wo, wi geom.Vec3) spectrum.Spectrum

	// SampleF draws wi given wo and a 2-D sample, returning the
	// scattered direction, its pdf, the lobe value, and which flags
	// were actually sampled (relevant for FresnelSpecular, which picks
	// reflection or transmission at sample time).
	SampleF(wo geom.Vec3, u [2]float64) (wi geom.Vec3, pdf float64, f spectrum.Spectrum, sampledFlags Flags)

	Pdf(wo, wi geom.Vec3) float64
}

// CosTheta and friends operate in the local shading frame where the
// surface normal is +z — the same convention pbrt's reflection.h uses.
func CosTheta(w geom.Vec3) float64     { return w.Z }
func AbsCosTheta(w geom.Vec3) float64  { return math.Abs(w.Z) }
func Cos2Theta(w geom.Vec3) float64    { return w.Z * w.Z }
func Sin2Theta(w geom.Vec3) float64    { return math.Max(0, 1-Cos2Theta(w)) }
func SinTheta(w geom.Vec3) float64     { return math.Sqrt(Sin2Theta(w)) }
func TanTheta(w geom.Vec3) float64     { return SinTheta(w) / CosTheta(w) }
func Tan2Theta(w geom.Vec3) float64    { return Sin2Theta(w) / Cos2Theta(w) }

func CosPhi(w geom.Vec3) float64 {
	s := SinTheta(w)
	if s == 0 {
		return 1
	}
	return geom.Clamp(w.X/s, -1, 1)
}

func SinPhi(w geom.Vec3) float64 {
	s := SinTheta(w)
	if s == 0 {
		return 0
	}
	return geom.Clamp(w.Y/s, -1, 1)
}

// SameHemisphere reports whether two local-frame vectors are on the
// same side of the shading plane (reflection vs transmission test).
func SameHemisphere(a, b geom.Vec3) bool { return a.Z*b.Z > 0 }

// Reflect computes the mirror direction of wo about n, all in the same
// frame (used both in local-frame specular lobes and by Metal-style
// callers in the world frame).
func Reflect(wo, n geom.Vec3) geom.Vec3 {
	return n.Scale(2 * wo.Dot(n)).Sub(wo)
}

// Refract applies Snell's law; returns ok=false on total internal
// reflection (spec.md §7 "Total internal reflection ... return false").
func Refract(wi, n geom.Vec3, eta float64) (wt geom.Vec3, ok bool) {
	cosThetaI := n.Dot(wi)
	sin2ThetaI := math.Max(0, 1-cosThetaI*cosThetaI)
	sin2ThetaT := eta * eta * sin2ThetaI
	if sin2ThetaT >= 1 {
		return geom.Vec3{}, false
	}
	cosThetaT := math.Sqrt(1 - sin2ThetaT)
	wt = wi.Negate().Scale(eta).Add(n.Scale(eta*cosThetaI - cosThetaT))
	return wt, true
}

// cosineHemisphere draws a local-frame +z hemisphere direction; kept
// here (rather than importing package sampling) to keep this package
// free of a dependency edge sampling would otherwise need back into
// bsdf for Flags. The formula is Malley's method with a polar disk
// mapping; sampling.CosineSampleHemisphere uses the concentric mapping,
// so both have the same cos(theta)/pi density but map a given u to
// different directions.
func cosineHemisphere(u [2]float64) geom.Vec3 {
	r := math.Sqrt(u[0])
	theta := 2 * math.Pi * u[1]
	x := r * math.Cos(theta)
	y := r * math.Sin(theta)
	z := math.Sqrt(math.Max(0, 1-u[0]))
	return geom.Vec3{X: x, Y: y, Z: z}
}
