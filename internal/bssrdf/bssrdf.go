package bssrdf

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/bsdf"
	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/shape"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// ProbeIntersector is the minimal scene query the BSSRDF probe segment
// needs (spec.md §4.F step 5). It is satisfied by scenegraph.Prober (a
// Scene wrapper; Scene.Intersect itself returns a Hit) but declared
// locally so this package never imports scenegraph.
type ProbeIntersector interface {
	Intersect(ray geom.Ray) (*shape.SurfaceInteraction, bool)
}

// Separable is the tabulated BSSRDF attached to a surface point, per
// spec.md §4.F: "S(p_o, w_o, p_i, w_i) ~= (1-Fr(cos th_o)) * Sp(po,pi) * Sw(wi)".
type Separable struct {
	PoP        geom.Point3
	PoTime     float64
	PoWo       geom.Vec3
	Eta        float64
	Ns, Ss, Ts geom.Vec3
	Material   shape.MaterialID
	Radiance   bool

	Table       *Table
	SigmaT, Rho spectrum.Spectrum
}

// New builds a Separable BSSRDF from absorption/scattering coefficients,
// deriving rho = sigma_s/sigma_t per channel (original_source's
// TabulatedBssrdf::new).
func New(po *shape.SurfaceInteraction, material shape.MaterialID, radiance bool, eta float64, sigmaA, sigmaS spectrum.Spectrum, table *Table) *Separable {
	sigmaT := sigmaA.Add(sigmaS)
	rho := spectrum.New(safeRatio(sigmaS.R, sigmaT.R), safeRatio(sigmaS.G, sigmaT.G), safeRatio(sigmaS.B, sigmaT.B))
	ss := po.ShadingDpdu.Normalize()
	return &Separable{
		PoP: po.P, PoTime: po.Time, PoWo: po.Wo, Eta: eta,
		Ns: po.ShadingN, Ss: ss, Ts: po.ShadingN.Cross(ss),
		Material: material, Radiance: radiance,
		Table: table, SigmaT: sigmaT, Rho: rho,
	}
}

func safeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Sw is the surface-transmittance term exposed to internal/bsdf via
// SeparableBSSRDFAdapter (spec.md §4.E "BSSRDF adapter").
func (s *Separable) Sw(w geom.Vec3) spectrum.Spectrum {
	c := 1 - 2*FresnelMoment1(1/s.Eta)
	val := (1 - frDielectricScalar(bsdf.CosTheta(w), 1, s.Eta)) / (c * math.Pi)
	return spectrum.Gray(val)
}

// Adapter returns a BxDF lobe exposing Sw, for installation into the
// sampled interaction's BSDF (spec.md §4.F step 6 "initialize ... at
// sampled surface interaction").
func (s *Separable) Adapter() bsdf.BxDF {
	return bsdf.SeparableBSSRDFAdapter{Sw: s.Sw, Eta: s.Eta, Radiance: s.Radiance}
}

// Sr evaluates the radial profile for all three channels via tensor
// spline interpolation over the (rho, optical-radius) grid, per
// spec.md §4.F "Sp(r) = sigma_t^2 * integral tabulated profile".
func (s *Separable) Sr(r float64) spectrum.Spectrum {
	var out [3]float64
	for ch := 0; ch < 3; ch++ {
		sigmaTCh := s.SigmaT.Channel(ch)
		rOptical := r * sigmaTCh

		rhoOffset, rhoWeights, rhoOK := catmullRomWeights(s.Table.RhoSamples, s.Rho.Channel(ch))
		radiusOffset, radiusWeights, radiusOK := catmullRomWeights(s.Table.RadiusSamples, rOptical)
		if !rhoOK || !radiusOK {
			continue
		}

		srf := 0.0
		for i, rw := range rhoWeights {
			if rw == 0 {
				continue
			}
			for j, radw := range radiusWeights {
				weight := rw * radw
				if weight != 0 {
					srf += weight * s.Table.EvalProfile(rhoOffset+i, radiusOffset+j)
				}
			}
		}
		if rOptical != 0 {
			srf /= 2 * math.Pi * rOptical
		}
		out[ch] = srf
	}
	sr := spectrum.New(out[0], out[1], out[2]).Mul(s.SigmaT).Mul(s.SigmaT)
	return sr.Clamp(0, math.Inf(1))
}

// PdfSr is the per-channel radial-profile density, used by both the
// combined PDF (PdfSp) and rejection in SampleSp.
func (s *Separable) PdfSr(ch int, r float64) float64 {
	sigmaTCh := s.SigmaT.Channel(ch)
	rOptical := r * sigmaTCh

	rhoOffset, rhoWeights, rhoOK := catmullRomWeights(s.Table.RhoSamples, s.Rho.Channel(ch))
	radiusOffset, radiusWeights, radiusOK := catmullRomWeights(s.Table.RadiusSamples, rOptical)
	if !rhoOK || !radiusOK {
		return 0
	}

	sr, rhoEff := 0.0, 0.0
	for i, rw := range rhoWeights {
		if rw == 0 {
			continue
		}
		rhoEff += s.Table.RhoEff[rhoOffset+i] * rw
		for j, radw := range radiusWeights {
			if radw == 0 {
				continue
			}
			sr += s.Table.EvalProfile(rhoOffset+i, radiusOffset+j) * rw * radw
		}
	}
	if rOptical != 0 {
		sr /= 2 * math.Pi * rOptical
	}
	if rhoEff == 0 {
		return 0
	}
	return math.Max(0, sr*sigmaTCh*sigmaTCh/rhoEff)
}

// SampleSr draws a radius from channel ch's inverse-CDF, scaled back
// into world units by 1/sigma_t (spec.md §4.F step 3).
func (s *Separable) SampleSr(ch int, u float64) float64 {
	sigmaTCh := s.SigmaT.Channel(ch)
	if sigmaTCh == 0 {
		return -1
	}
	row := s.Table.RhoSamples
	r, _, _ := sampleCatmullRom2D(row, s.Table.RadiusSamples, s.Table.Profile, s.Table.ProfileCDF, s.Rho.Channel(ch), u)
	return r / sigmaTCh
}

// PdfSp combines the per-axis, per-channel radial densities (spec.md
// §4.F step 6) for a sampled interaction pi.
func (s *Separable) PdfSp(pi *shape.SurfaceInteraction) float64 {
	d := s.PoP.Sub(pi.P)
	dLocal := geom.New(s.Ss.Dot(d), s.Ts.Dot(d), s.Ns.Dot(d))
	nLocal := geom.New(s.Ss.Dot(pi.N), s.Ts.Dot(pi.N), s.Ns.Dot(pi.N))

	rProj := [3]float64{
		math.Sqrt(dLocal.Y*dLocal.Y + dLocal.Z*dLocal.Z),
		math.Sqrt(dLocal.Z*dLocal.Z + dLocal.X*dLocal.X),
		math.Sqrt(dLocal.X*dLocal.X + dLocal.Y*dLocal.Y),
	}
	axisProb := [3]float64{0.25, 0.25, 0.5}
	chProb := 1.0 / 3.0

	pdf := 0.0
	nLocalArr := [3]float64{nLocal.X, nLocal.Y, nLocal.Z}
	for axis := 0; axis < 3; axis++ {
		for ch := 0; ch < 3; ch++ {
			pdf += s.PdfSr(ch, rProj[axis]) * math.Abs(nLocalArr[axis]) * chProb * axisProb[axis]
		}
	}
	return pdf
}

// SampleSp implements spec.md §4.F's full sampling algorithm: pick an
// axis and channel, sample a radius, build a probe segment, intersect
// it against the scene accumulating same-material hits, and pick one
// uniformly.
func (s *Separable) SampleSp(scene ProbeIntersector, u1 float64, u2 [2]float64) (spectrum.Spectrum, *shape.SurfaceInteraction, float64) {
	var vx, vy, vz geom.Vec3
	switch {
	case u1 < 0.5:
		vx, vy, vz = s.Ss, s.Ts, s.Ns
		u1 *= 2
	case u1 < 0.75:
		vx, vy, vz = s.Ts, s.Ns, s.Ss
		u1 = (u1 - 0.5) * 4
	default:
		vx, vy, vz = s.Ns, s.Ss, s.Ts
		u1 = (u1 - 0.75) * 4
	}

	ch := int(u1 * 3)
	if ch > 2 {
		ch = 2
	}
	u1 = u1*3 - float64(ch)

	r := s.SampleSr(ch, u2[0])
	if r < 0 {
		return spectrum.Black, nil, 0
	}
	phi := 2 * math.Pi * u2[1]

	rMax := s.SampleSr(ch, 0.999)
	if r >= rMax {
		return spectrum.Black, nil, 0
	}
	l := 2 * math.Sqrt(rMax*rMax-r*r)

	base := s.PoP.Add(vx.Scale(r * math.Cos(phi))).Add(vy.Scale(r * math.Sin(phi))).Sub(vz.Scale(l / 2))
	target := base.Add(vz.Scale(l))

	var chain []*shape.SurfaceInteraction
	origin := base
	for {
		dir := target.Sub(origin)
		dist := dir.Length()
		if dist < 1e-7 {
			break
		}
		ray := geom.NewRay(origin, dir.Normalize())
		ray.TMax = dist * (1 - 1e-4)
		si, hit := scene.Intersect(ray)
		if !hit {
			break
		}
		if si.Material == s.Material {
			chain = append(chain, si)
		}
		origin = si.P
	}

	if len(chain) == 0 {
		return spectrum.Black, nil, 0
	}
	selected := int(u1 * float64(len(chain)))
	if selected >= len(chain) {
		selected = len(chain) - 1
	}
	pi := chain[selected]

	pdf := s.PdfSp(pi) / float64(len(chain))
	return s.Sr(s.PoP.Sub(pi.P).Length()), pi, pdf
}

// S is the full BSSRDF value, including the (1-Fr) surface-exit term
// (spec.md §4.F's model equation). wi is given in world space and is
// projected into the BSSRDF's local frame before evaluating Sw.
func (s *Separable) S(pi *shape.SurfaceInteraction, wi geom.Vec3) spectrum.Spectrum {
	cosThetaO := s.PoWo.Dot(s.Ns)
	ft := frDielectricScalar(cosThetaO, 1, s.Eta)
	sp := s.Sr(s.PoP.Sub(pi.P).Length())
	wiLocal := geom.New(s.Ss.Dot(wi), s.Ts.Dot(wi), s.Ns.Dot(wi))
	return sp.Mul(s.Sw(wiLocal)).Scale(1 - ft)
}
