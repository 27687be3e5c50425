package bsdf

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// BSDF aggregates up to MaxBxDFs lobes in a single orthonormal shading
// frame (spec.md §3 "BSDF"). It is a per-interaction scratch value: the
// renderer builds one, evaluates/samples it, and discards it — it is
// never stored between rays, matching the teacher's per-hit
// ScatterResult construction (pkg/material/interfaces.go).
type BSDF struct {
	Ns, Ng geom.Normal3
	Ss, Ts geom.Vec3
	Eta    float64

	bxdfs [MaxBxDFs]BxDF
	n     int
}

// NewBSDF builds the shading frame from the shading normal and the
// u-tangent, per spec.md §4.E: "ns (unit, bump-perturbed), ss =
// normalize(dpdu), ts = ns x ss".
func NewBSDF(ns geom.Normal3, ng geom.Normal3, dpdu geom.Vec3, eta float64) *BSDF {
	ss := dpdu
	if ss.IsZero() {
		ss, _ = geom.CoordinateSystem(ns)
	} else {
		ss = ss.Normalize()
	}
	ts := ns.Cross(ss)
	return &BSDF{Ns: ns, Ng: ng, Ss: ss, Ts: ts, Eta: eta}
}

// Add appends a lobe, panicking if the bounded lobe storage would
// overflow (spec.md §5 "BSDF lobe storage is bounded (MAX_BXDFS = 8)").
func (b *BSDF) Add(l BxDF) {
	if b.n >= MaxBxDFs {
		panic("bsdf: too many lobes")
	}
	b.bxdfs[b.n] = l
	b.n++
}

func (b *BSDF) NumComponents(flags Flags) int {
	count := 0
	for i := 0; i < b.n; i++ {
		if matchesFlags(b.bxdfs[i].Flags(), flags) {
			count++
		}
	}
	return count
}

func matchesFlags(lobeFlags, query Flags) bool {
	return lobeFlags&query == lobeFlags
}

func (b *BSDF) worldToLocal(v geom.Vec3) geom.Vec3 {
	return geom.New(v.Dot(b.Ss), v.Dot(b.Ts), v.Dot(b.Ns))
}

func (b *BSDF) localToWorld(v geom.Vec3) geom.Vec3 {
	return geom.New(
		b.Ss.X*v.X+b.Ts.X*v.Y+b.Ns.X*v.Z,
		b.Ss.Y*v.X+b.Ts.Y*v.Y+b.Ns.Y*v.Z,
		b.Ss.Z*v.X+b.Ts.Z*v.Y+b.Ns.Z*v.Z,
	)
}

// F evaluates the BSDF for world-space directions, summing only lobes
// whose type matches flags and whose reflect/transmit side matches the
// geometric-normal test (spec.md §4.E "f(wo_w, wi_w, flags)").
func (b *BSDF) F(woW, wiW geom.Vec3, flags Flags) spectrum.Spectrum {
	wo := b.worldToLocal(woW)
	wi := b.worldToLocal(wiW)
	if wo.Z == 0 {
		return spectrum.Black
	}
	reflect := (wiW.Dot(b.Ng) * woW.Dot(b.Ng)) > 0

	f := spectrum.Black
	for i := 0; i < b.n; i++ {
		lf := b.bxdfs[i].Flags()
		if !matchesFlags(lf, flags) {
			continue
		}
		if (reflect && lf.Has(Reflection)) || (!reflect && lf.Has(Transmission)) {
			f = f.Add(b.bxdfs[i].F(wo, wi))
		}
	}
	return f
}

// Pdf averages matching lobes' pdfs (spec.md §4.E "pdf(wo_w, wi_w,
// flags)"). Returns 0 if no lobe is present or matches.
func (b *BSDF) Pdf(woW, wiW geom.Vec3, flags Flags) float64 {
	if b.n == 0 {
		return 0
	}
	wo := b.worldToLocal(woW)
	wi := b.worldToLocal(wiW)
	if wo.Z == 0 {
		return 0
	}

	pdfSum, matching := 0.0, 0
	for i := 0; i < b.n; i++ {
		if !matchesFlags(b.bxdfs[i].Flags(), flags) {
			continue
		}
		matching++
		pdfSum += b.bxdfs[i].Pdf(wo, wi)
	}
	if matching == 0 {
		return 0
	}
	return pdfSum / float64(matching)
}

// SampleResult carries sample_f's output, including which lobe flags
// were actually sampled (relevant for delta-lobe detection in BDPT).
type SampleResult struct {
	Wi           geom.Vec3
	Pdf          float64
	F            spectrum.Spectrum
	SampledFlags Flags
}

// SampleF implements spec.md §4.E's sample_f contract: pick a matching
// lobe uniformly by remapping u.x, delegate to it, then — for
// non-specular lobes with more than one match — average the pdf and
// re-sum f over the matching half-space.
func (b *BSDF) SampleF(woW geom.Vec3, u [2]float64, flags Flags) (SampleResult, bool) {
	matchingCount := b.NumComponents(flags)
	if matchingCount == 0 {
		return SampleResult{}, false
	}

	k := int(math.Floor(u[0] * float64(matchingCount)))
	if k >= matchingCount {
		k = matchingCount - 1
	}

	var chosen BxDF
	seen := 0
	for i := 0; i < b.n; i++ {
		if !matchesFlags(b.bxdfs[i].Flags(), flags) {
			continue
		}
		if seen == k {
			chosen = b.bxdfs[i]
			break
		}
		seen++
	}
	if chosen == nil {
		return SampleResult{}, false
	}

	uRemap := [2]float64{u[0]*float64(matchingCount) - float64(k), u[1]}

	wo := b.worldToLocal(woW)
	if wo.Z == 0 {
		return SampleResult{}, false
	}

	wiLocal, pdf, f, sampledFlags := chosen.SampleF(wo, uRemap)
	if pdf == 0 {
		return SampleResult{}, false
	}

	wiW := b.localToWorld(wiLocal)

	if !sampledFlags.Has(Specular) && matchingCount > 1 {
		for i := 0; i < b.n; i++ {
			if b.bxdfs[i] == chosen || !matchesFlags(b.bxdfs[i].Flags(), flags) {
				continue
			}
			pdf += b.bxdfs[i].Pdf(wo, wiLocal)
		}
	}
	if matchingCount > 1 {
		pdf /= float64(matchingCount)
	}

	if !sampledFlags.Has(Specular) {
		reflect := (wiW.Dot(b.Ng) * woW.Dot(b.Ng)) > 0
		f = spectrum.Black
		for i := 0; i < b.n; i++ {
			lf := b.bxdfs[i].Flags()
			if !matchesFlags(lf, flags) {
				continue
			}
			if (reflect && lf.Has(Reflection)) || (!reflect && lf.Has(Transmission)) {
				f = f.Add(b.bxdfs[i].F(wo, wiLocal))
			}
		}
	}

	return SampleResult{Wi: wiW, Pdf: pdf, F: f, SampledFlags: sampledFlags}, true
}
