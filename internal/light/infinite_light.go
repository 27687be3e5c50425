package light

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// InfiniteLight is a uniform environment light occupying the whole
// sphere of directions, grounded on the teacher's
// pkg/lights/uniform_infinite_light.go. Position sampling for light
// subpaths (SampleLe) needs the scene's bounding sphere, set once the
// accelerator has been built (spec.md §4.F step 2's "world radius").
type InfiniteLight struct {
	L           spectrum.Spectrum
	WorldCenter geom.Point3
	WorldRadius float64
}

func (l *InfiniteLight) Kind() Kind    { return KindInfinite }
func (l *InfiniteLight) IsDelta() bool { return false }

func (l *InfiniteLight) SampleLi(p geom.Point3, n geom.Normal3, u [2]float64) LiSample {
	wi := uniformSphere(u)
	pdf := uniformSpherePdf()
	return LiSample{
		Wi: wi, Distance: 2 * l.radius(),
		Li: l.L, Pdf: pdf,
		P: p.Add(wi.Scale(2 * l.radius())), N: wi.Negate(),
	}
}

func (l *InfiniteLight) PdfLi(p geom.Point3, n geom.Normal3, wi geom.Vec3) float64 {
	return uniformSpherePdf()
}

// SampleLe samples a point on a disc perpendicular to a uniformly
// sampled direction, at the boundary of the scene's bounding sphere,
// then fires the ray inward (pbrt's InfiniteAreaLight::Sample_Le,
// uniform-radiance specialization).
func (l *InfiniteLight) SampleLe(u1, u2 [2]float64) LeSample {
	dir := uniformSphere(u1)
	v1, v2 := geom.CoordinateSystem(dir)

	r := l.radius()
	cd := concentricSampleDisk(u2)
	pDisk := l.WorldCenter.Add(v1.Scale(cd[0] * r)).Add(v2.Scale(cd[1] * r))
	origin := pDisk.Add(dir.Scale(r))

	return LeSample{
		Ray:    geom.NewRay(origin, dir.Negate()),
		N:      dir.Negate(),
		Le:     l.L,
		PdfPos: 1 / (math.Pi * r * r),
		PdfDir: uniformSpherePdf(),
	}
}

func (l *InfiniteLight) PdfLe(ray geom.Ray, n geom.Normal3) (float64, float64) {
	r := l.radius()
	return 1 / (math.Pi * r * r), uniformSpherePdf()
}

func (l *InfiniteLight) Le(ray geom.Ray) spectrum.Spectrum { return l.L }

func (l *InfiniteLight) Power() spectrum.Spectrum {
	r := l.radius()
	return l.L.Scale(math.Pi * r * r * math.Pi)
}

func (l *InfiniteLight) radius() float64 {
	if l.WorldRadius <= 0 {
		return 1e6
	}
	return l.WorldRadius
}

func concentricSampleDisk(u [2]float64) [2]float64 {
	ox := 2*u[0] - 1
	oy := 2*u[1] - 1
	if ox == 0 && oy == 0 {
		return [2]float64{0, 0}
	}
	var r, theta float64
	if math.Abs(ox) > math.Abs(oy) {
		r = ox
		theta = (math.Pi / 4) * (oy / ox)
	} else {
		r = oy
		theta = (math.Pi / 2) - (math.Pi/4)*(ox/oy)
	}
	return [2]float64{r * math.Cos(theta), r * math.Sin(theta)}
}
