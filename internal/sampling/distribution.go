// Package sampling implements the piecewise-constant 1-D/2-D
// distributions and the hemisphere/disk/cone samplers used throughout
// the light-transport core (spec.md §3 "Distribution1D"/"Distribution2D",
// §4.D "SAH bucket" support, §8 testable properties 5 and 6).
//
// The teacher repo (pkg/core/sampling.go) only carries the MIS
// heuristics; it has no piecewise-constant CDF sampler, since its
// path tracer never needed one. This package is grounded on
// spec.md §3/§8 directly and on the Rust source's
// `core::sampling::Distribution1D` (original_source/src/core/sampling.rs),
// which the prose descriptions track closely.
package sampling

import "sort"

// Distribution1D is a piecewise-constant 1-D probability distribution
// built from non-negative function samples. See spec.md §3 for the
// exact CDF invariants (F[0]=0, F[n]=1 after normalization).
type Distribution1D struct {
	Func    []float64 // f[0..n)
	Cdf     []float64 // F[0..n], len(Func)+1
	FuncInt float64   // integral of Func over the domain
}

// NewDistribution1D builds the CDF from function samples, following
// the standard piecewise-constant construction: each CDF step is the
// running sum of Func[i]/n, then the whole table (including FuncInt)
// is normalized so Cdf[n] == 1 unless the function is identically
// zero (FuncInt == 0), in which case the CDF is left uniform.
func NewDistribution1D(f []float64) *Distribution1D {
	n := len(f)
	d := &Distribution1D{
		Func: append([]float64(nil), f...),
		Cdf:  make([]float64, n+1),
	}

	d.Cdf[0] = 0
	for i := 1; i <= n; i++ {
		d.Cdf[i] = d.Cdf[i-1] + d.Func[i-1]/float64(n)
	}

	d.FuncInt = d.Cdf[n]
	if d.FuncInt == 0 {
		for i := 1; i <= n; i++ {
			d.Cdf[i] = float64(i) / float64(n)
		}
	} else {
		for i := 1; i <= n; i++ {
			d.Cdf[i] /= d.FuncInt
		}
	}

	return d
}

func (d *Distribution1D) Count() int { return len(d.Func) }

// SampleContinuous draws x in [0,1) proportional to Func, returning
// the PDF of x and the bucket offset (spec.md §8 property 5).
func (d *Distribution1D) SampleContinuous(u float64) (x, pdf float64, offset int) {
	offset = d.findInterval(u)

	du := u - d.Cdf[offset]
	if d.Cdf[offset+1]-d.Cdf[offset] > 0 {
		du /= d.Cdf[offset+1] - d.Cdf[offset]
	}

	if d.FuncInt > 0 {
		pdf = d.Func[offset] / d.FuncInt
	}

	x = (float64(offset) + du) / float64(d.Count())
	return x, pdf, offset
}

// SampleDiscrete draws a bucket index proportional to Func, returning
// the discrete PDF Func[i]*width/FuncInt (width = 1/n) and, optionally,
// the remapped uniform sample for reuse downstream.
func (d *Distribution1D) SampleDiscrete(u float64) (index int, pdf float64, uRemapped float64) {
	index = d.findInterval(u)
	if d.FuncInt > 0 {
		pdf = d.Func[index] / (d.FuncInt * float64(d.Count()))
	}
	denom := d.Cdf[index+1] - d.Cdf[index]
	if denom > 0 {
		uRemapped = (u - d.Cdf[index]) / denom
	}
	return index, pdf, uRemapped
}

// DiscretePDF returns the probability of SampleDiscrete returning index.
func (d *Distribution1D) DiscretePDF(index int) float64 {
	if d.FuncInt == 0 {
		return 0
	}
	return d.Func[index] / (d.FuncInt * float64(d.Count()))
}

func (d *Distribution1D) findInterval(u float64) int {
	// sort.Search finds the first i such that Cdf[i+1] > u, matching
	// pbrt's FindInterval predicate on the CDF array.
	i := sort.Search(len(d.Cdf)-2, func(i int) bool {
		return d.Cdf[i+1] > u
	})
	return clampInt(i, 0, d.Count()-1)
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Distribution2D is a 2-D piecewise-constant distribution built as a
// marginal Distribution1D over rows plus one conditional Distribution1D
// per row (spec.md §3, §8 property 6).
type Distribution2D struct {
	conditional []*Distribution1D
	marginal    *Distribution1D
}

// NewDistribution2D builds the 2-D distribution from a row-major
// function grid of nu columns by nv rows.
func NewDistribution2D(f []float64, nu, nv int) *Distribution2D {
	d := &Distribution2D{conditional: make([]*Distribution1D, nv)}

	marginalFunc := make([]float64, nv)
	for v := 0; v < nv; v++ {
		row := f[v*nu : (v+1)*nu]
		d.conditional[v] = NewDistribution1D(row)
		marginalFunc[v] = d.conditional[v].FuncInt
	}
	d.marginal = NewDistribution1D(marginalFunc)

	return d
}

// SampleContinuous returns a (u,v) sample and the joint PDF, satisfying
// pdf(u,v) = p_marginal(v) * p_conditional[v](u) (spec.md §8 property 6).
func (d *Distribution2D) SampleContinuous(u1, u2 float64) (uv [2]float64, pdf float64) {
	v, pdfV, vOffset := d.marginal.SampleContinuous(u2)
	u, pdfU, _ := d.conditional[vOffset].SampleContinuous(u1)
	return [2]float64{u, v}, pdfU * pdfV
}

func (d *Distribution2D) Pdf(u, v float64) float64 {
	nu := d.conditional[0].Count()
	nv := d.marginal.Count()
	iu := clampInt(int(u*float64(nu)), 0, nu-1)
	iv := clampInt(int(v*float64(nv)), 0, nv-1)
	if d.marginal.FuncInt == 0 {
		return 0
	}
	return d.conditional[iv].Func[iu] / d.marginal.FuncInt
}
