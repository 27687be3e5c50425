package sampling

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
)

// ConcentricSampleDisk maps a unit square sample to the unit disk via the
// concentric mapping (Shirley & Chiu), the standard low-distortion
// choice pbrt and its ports use for lens/disk sampling.
func ConcentricSampleDisk(u geom.Vec3) (x, y float64) {
	ux := 2*u.X - 1
	uy := 2*u.Y - 1

	if ux == 0 && uy == 0 {
		return 0, 0
	}

	var r, theta float64
	if math.Abs(ux) > math.Abs(uy) {
		r = ux
		theta = (math.Pi / 4) * (uy / ux)
	} else {
		r = uy
		theta = (math.Pi / 2) - (math.Pi/4)*(ux/uy)
	}

	return r * math.Cos(theta), r * math.Sin(theta)
}

// CosineSampleHemisphere draws a direction in the local +z hemisphere
// with PDF cos(theta)/pi, via Malley's method (disk sample projected up).
func CosineSampleHemisphere(u1, u2 float64) geom.Vec3 {
	x, y := ConcentricSampleDisk(geom.Vec3{X: u1, Y: u2})
	z := math.Sqrt(math.Max(0, 1-x*x-y*y))
	return geom.Vec3{X: x, Y: y, Z: z}
}

func CosineHemispherePDF(cosTheta float64) float64 {
	return cosTheta / math.Pi
}

// UniformSampleHemisphere draws a direction in the local +z hemisphere
// with uniform solid-angle PDF 1/(2*pi).
func UniformSampleHemisphere(u1, u2 float64) geom.Vec3 {
	z := u1
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * u2
	return geom.Vec3{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

func UniformHemispherePDF() float64 { return 1.0 / (2 * math.Pi) }

// UniformSampleSphere draws a direction uniformly over the full sphere.
func UniformSampleSphere(u1, u2 float64) geom.Vec3 {
	z := 1 - 2*u1
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * u2
	return geom.Vec3{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

func UniformSpherePDF() float64 { return 1.0 / (4 * math.Pi) }

// UniformSampleCone draws a direction inside a cone of half-angle
// acos(cosThetaMax) around +z, used for sampling a sphere light's
// solid angle from outside (spec.md §4.G / core.SphereConePDF in the
// teacher's pkg/core/sampling.go).
func UniformSampleCone(u1, u2, cosThetaMax float64) geom.Vec3 {
	cosTheta := (1 - u1) + u1*cosThetaMax
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	phi := u2 * 2 * math.Pi
	return geom.Vec3{X: math.Cos(phi) * sinTheta, Y: math.Sin(phi) * sinTheta, Z: cosTheta}
}

func UniformConePDF(cosThetaMax float64) float64 {
	return 1.0 / (2 * math.Pi * (1 - cosThetaMax))
}

// UniformSampleTriangle returns barycentric coordinates (b0, b1)
// uniformly distributed over a triangle.
func UniformSampleTriangle(u1, u2 float64) (b0, b1 float64) {
	su0 := math.Sqrt(u1)
	b0 = 1 - su0
	b1 = u2 * su0
	return b0, b1
}

// PowerHeuristic is the beta=2 power heuristic for multiple importance
// sampling (spec.md GLOSSARY "MIS"), matching the teacher's
// pkg/core/sampling.go PowerHeuristic exactly.
func PowerHeuristic(nf int, fPdf float64, ng int, gPdf float64) float64 {
	if fPdf == 0 {
		return 0
	}
	f := float64(nf) * fPdf
	g := float64(ng) * gPdf
	return (f * f) / (f*f + g*g)
}

// BalanceHeuristic is the beta=1 balance heuristic. spec.md §4.I's BDPT
// MIS weight is a balance heuristic over reciprocal estimators, which
// internal/bdpt computes directly from per-vertex density ratios
// rather than through this function.
func BalanceHeuristic(nf int, fPdf float64, ng int, gPdf float64) float64 {
	if fPdf == 0 {
		return 0
	}
	f := float64(nf) * fPdf
	g := float64(ng) * gPdf
	return f / (f + g)
}

// Remap0 implements spec.md §4.I's `remap0`: treat a zero PDF as 1 so
// MIS ratios don't divide by zero or propagate NaN (spec.md §7).
func Remap0(x float64) float64 {
	if x == 0 {
		return 1
	}
	return x
}

// RadicalInverseBase2 is the van der Corput sequence, the simplest
// low-discrepancy sequence, for places that want a cheap quasi-random
// stream without pulling in a full Halton or Sobol table.
func RadicalInverseBase2(n uint32) float64 {
	n = (n << 16) | (n >> 16)
	n = ((n & 0x55555555) << 1) | ((n & 0xAAAAAAAA) >> 1)
	n = ((n & 0x33333333) << 2) | ((n & 0xCCCCCCCC) >> 2)
	n = ((n & 0x0F0F0F0F) << 4) | ((n & 0xF0F0F0F0) >> 4)
	n = ((n & 0x00FF00FF) << 8) | ((n & 0xFF00FF00) >> 8)
	return float64(n) * 2.3283064365386963e-10 // 1 / 2^32
}
