package light

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/shape"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// AreaLight wraps a Shape with a cosine-weighted emitted radiance, one
// per emissive primitive (spec.md §4.G). Grounded on the teacher's
// SphereLight/QuadLight (pkg/lights/sphere_light.go, quad_light.go),
// generalized to any shape.Shape rather than one concrete geometry per
// light type.
type AreaLight struct {
	Shape    shape.Shape
	Lemit    spectrum.Spectrum
	TwoSided bool
}

func (l *AreaLight) Kind() Kind    { return KindArea }
func (l *AreaLight) IsDelta() bool { return false }

// L is the emitted radiance in direction w from a point with normal n
// on the light's surface (pbrt's DiffuseAreaLight::L).
func (l *AreaLight) L(n geom.Normal3, w geom.Vec3) spectrum.Spectrum {
	if l.TwoSided || n.Dot(w) > 0 {
		return l.Lemit
	}
	return spectrum.Black
}

func (l *AreaLight) SampleLi(p geom.Point3, n geom.Normal3, u [2]float64) LiSample {
	pL, nL, pdf := l.Shape.SampleFrom(p, u)
	if pdf == 0 {
		return LiSample{}
	}
	d := pL.Sub(p)
	dist2 := d.LengthSquared()
	if dist2 == 0 {
		return LiSample{}
	}
	dist := math.Sqrt(dist2)
	wi := d.Scale(1 / dist)

	le := l.L(nL, wi.Negate())
	return LiSample{Wi: wi, Distance: dist, Li: le, Pdf: pdf, P: pL, N: nL}
}

func (l *AreaLight) PdfLi(p geom.Point3, n geom.Normal3, wi geom.Vec3) float64 {
	return l.Shape.PdfFrom(p, wi)
}

func (l *AreaLight) SampleLe(u1, u2 [2]float64) LeSample {
	p, n, pdfPos := l.Shape.Sample(u1)

	var wLocal geom.Vec3
	if l.TwoSided {
		u := u2
		if u2[0] < 0.5 {
			u = [2]float64{u2[0] * 2, u2[1]}
			wLocal = cosineHemisphere(u)
		} else {
			u = [2]float64{(u2[0] - 0.5) * 2, u2[1]}
			wLocal = cosineHemisphere(u)
			wLocal.Z = -wLocal.Z
		}
	} else {
		wLocal = cosineHemisphere(u2)
	}

	tangent, bitangent := geom.CoordinateSystem(n)
	dir := tangent.Scale(wLocal.X).Add(bitangent.Scale(wLocal.Y)).Add(n.Scale(wLocal.Z))

	pdfDir := math.Abs(wLocal.Z) / math.Pi
	if l.TwoSided {
		pdfDir *= 0.5
	}

	return LeSample{
		Ray:    geom.NewRay(p, dir),
		N:      n,
		Le:     l.L(n, dir),
		PdfPos: pdfPos,
		PdfDir: pdfDir,
	}
}

func (l *AreaLight) PdfLe(ray geom.Ray, n geom.Normal3) (float64, float64) {
	pdfPos := 1 / l.Shape.Area()
	cosTheta := n.Dot(ray.Direction)
	pdfDir := math.Max(0, cosTheta) / math.Pi
	if l.TwoSided {
		pdfDir = math.Abs(cosTheta) / (2 * math.Pi)
	}
	return pdfPos, pdfDir
}

func (l *AreaLight) Le(ray geom.Ray) spectrum.Spectrum { return spectrum.Black }

func (l *AreaLight) Power() spectrum.Spectrum {
	scale := math.Pi
	if l.TwoSided {
		scale *= 2
	}
	return l.Lemit.Scale(scale * l.Shape.Area())
}

func cosineHemisphere(u [2]float64) geom.Vec3 {
	r := math.Sqrt(u[0])
	theta := 2 * math.Pi * u[1]
	return geom.New(r*math.Cos(theta), r*math.Sin(theta), math.Sqrt(math.Max(0, 1-u[0])))
}
