// Package spectrum implements the RGB radiometric representation used
// throughout the renderer. spec.md §1 scopes out full hero-wavelength
// spectral rendering; like the teacher repo (pkg/core/vec3.go, which
// reuses Vec3 as a color) this sticks to RGB.
package spectrum

import "math"

// Spectrum is an RGB radiance/reflectance value. Negative components
// can appear transiently (e.g. Fourier evaluation, spec.md §7) and
// must be clamped with Clamp before use.
type Spectrum struct {
	R, G, B float64
}

func New(r, g, b float64) Spectrum { return Spectrum{r, g, b} }
func Gray(v float64) Spectrum      { return Spectrum{v, v, v} }

var Black = Spectrum{}

func (s Spectrum) Add(o Spectrum) Spectrum  { return Spectrum{s.R + o.R, s.G + o.G, s.B + o.B} }
func (s Spectrum) Sub(o Spectrum) Spectrum  { return Spectrum{s.R - o.R, s.G - o.G, s.B - o.B} }
func (s Spectrum) Mul(o Spectrum) Spectrum  { return Spectrum{s.R * o.R, s.G * o.G, s.B * o.B} }
func (s Spectrum) Scale(f float64) Spectrum { return Spectrum{s.R * f, s.G * f, s.B * f} }

// Div divides component-wise; division by a zero channel yields 0 in
// that channel rather than +Inf/NaN (spec.md §7 "never NaN-propagate").
func (s Spectrum) Div(o Spectrum) Spectrum {
	return Spectrum{safeDiv(s.R, o.R), safeDiv(s.G, o.G), safeDiv(s.B, o.B)}
}

// DivScalar returns black (not NaN/Inf) when f is zero.
func (s Spectrum) DivScalar(f float64) Spectrum {
	if f == 0 {
		return Black
	}
	return Spectrum{s.R / f, s.G / f, s.B / f}
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// IsBlack reports whether every channel is exactly zero.
func (s Spectrum) IsBlack() bool { return s.R == 0 && s.G == 0 && s.B == 0 }

// Clamp clamps every channel to [lo, hi], used after Fourier
// evaluation per spec.md §7 "clamp to [0, ∞)".
func (s Spectrum) Clamp(lo, hi float64) Spectrum {
	return Spectrum{clamp1(s.R, lo, hi), clamp1(s.G, lo, hi), clamp1(s.B, lo, hi)}
}

func clamp1(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func (s Spectrum) HasNaN() bool {
	return math.IsNaN(s.R) || math.IsNaN(s.G) || math.IsNaN(s.B)
}

// Luminance uses Rec. 709 weights, matching the teacher's Vec3.Luminance
// (pkg/core/vec3.go) — needed by MLT for the scalar contribution
// function Y(L) (spec.md §4.J).
func (s Spectrum) Luminance() float64 {
	return 0.2126*s.R + 0.7152*s.G + 0.0722*s.B
}

// MaxComponent is used by Russian-roulette termination heuristics.
func (s Spectrum) MaxComponent() float64 {
	return math.Max(s.R, math.Max(s.G, s.B))
}

// Channel returns the i'th channel (0=R,1=G,2=B), used by the BSSRDF's
// per-channel radial-profile sampling (spec.md §4.F step 2).
func (s Spectrum) Channel(i int) float64 {
	switch i {
	case 0:
		return s.R
	case 1:
		return s.G
	default:
		return s.B
	}
}

func FromChannels(c [3]float64) Spectrum { return Spectrum{c[0], c[1], c[2]} }
