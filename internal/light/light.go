// Package light implements the Light capability of spec.md §4.G:
// emitted radiance, direct-lighting sampling, emission sampling for
// BDPT light subpaths, and PDFs in both solid-angle and area measure.
//
// Grounded on the teacher's pkg/lights (interfaces.go's Light
// interface, sphere_light.go's visible-hemisphere cone sampling,
// uniform_infinite_light.go) generalized from the teacher's
// LightSample/EmissionSample split into the BDPT-friendly PdfLe/SampleLe
// vocabulary spec.md §4.I expects ("Le, |n.d| / (light_pick_pdf *
// pdf_pos * pdf_dir)").
package light

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

type Kind int

const (
	KindPoint Kind = iota
	KindArea
	KindInfinite
)

// LiSample is a direct-lighting sample toward a light, mirroring the
// teacher's LightSample (pkg/lights/interfaces.go) but with the PDF
// expressed in solid-angle measure as spec.md §4.G requires for BDPT's
// MIS bookkeeping.
type LiSample struct {
	Wi       geom.Vec3
	Distance float64
	Li       spectrum.Spectrum
	Pdf      float64 // solid angle measure at the shading point; 0 if degenerate (occlusion is not tested here)
	P, N     geom.Point3
}

// LeSample is an emitted ray sampled from the light surface, for BDPT
// light subpath generation (spec.md §4.I step 2).
type LeSample struct {
	Ray    geom.Ray
	N      geom.Normal3
	Le     spectrum.Spectrum
	PdfPos float64 // area measure
	PdfDir float64 // solid angle measure
}

// Light is the tagged-variant capability every light type implements
// (spec.md §4.G).
type Light interface {
	Kind() Kind
	IsDelta() bool

	// SampleLi samples the light toward point p with surface normal n,
	// for direct lighting / BDPT (s=1) connections.
	SampleLi(p geom.Point3, n geom.Normal3, u [2]float64) LiSample

	// PdfLi is the solid-angle PDF of sampling direction wi from p via
	// SampleLi.
	PdfLi(p geom.Point3, n geom.Normal3, wi geom.Vec3) float64

	// SampleLe samples an emission ray for light subpath generation.
	SampleLe(u1, u2 [2]float64) LeSample

	// PdfLe returns (pdfPos, pdfDir) for a ray already known to have
	// been emitted by this light, used when converting a BDPT light
	// vertex's reverse PDF.
	PdfLe(ray geom.Ray, n geom.Normal3) (pdfPos, pdfDir float64)

	// Le evaluates emission along a ray that escaped the scene,
	// nonzero only for infinite lights (spec.md §4.I "no surface hit:
	// ... emit an escaped-ray Light vertex").
	Le(ray geom.Ray) spectrum.Spectrum

	// Power is the total emitted power, used to build the power-weighted
	// light distribution (spec.md §6 "power" strategy).
	Power() spectrum.Spectrum
}

// PointLight is an idealized delta-position emitter, grounded on the
// teacher's point/spot light family (pkg/lights/disc_spot_light.go
// generalized to the non-spot case).
type PointLight struct {
	P geom.Point3
	I spectrum.Spectrum // intensity (radiant intensity, W/sr)
}

func (l *PointLight) Kind() Kind    { return KindPoint }
func (l *PointLight) IsDelta() bool { return true }

func (l *PointLight) SampleLi(p geom.Point3, n geom.Normal3, u [2]float64) LiSample {
	d := l.P.Sub(p)
	dist2 := d.LengthSquared()
	if dist2 == 0 {
		return LiSample{}
	}
	dist := math.Sqrt(dist2)
	wi := d.Scale(1 / dist)
	return LiSample{
		Wi: wi, Distance: dist,
		Li:  l.I.Scale(1 / dist2),
		Pdf: 1,
		P:   l.P, N: wi.Negate(),
	}
}

func (l *PointLight) PdfLi(p geom.Point3, n geom.Normal3, wi geom.Vec3) float64 { return 0 }

func (l *PointLight) SampleLe(u1, u2 [2]float64) LeSample {
	dir := uniformSphere(u1)
	return LeSample{
		Ray:    geom.NewRay(l.P, dir),
		N:      dir,
		Le:     l.I,
		PdfPos: 1,
		PdfDir: uniformSpherePdf(),
	}
}

func (l *PointLight) PdfLe(ray geom.Ray, n geom.Normal3) (float64, float64) {
	return 1, uniformSpherePdf()
}

func (l *PointLight) Le(ray geom.Ray) spectrum.Spectrum { return spectrum.Black }

func (l *PointLight) Power() spectrum.Spectrum { return l.I.Scale(4 * math.Pi) }

func uniformSphere(u [2]float64) geom.Vec3 {
	z := 1 - 2*u[0]
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * u[1]
	return geom.New(r*math.Cos(phi), r*math.Sin(phi), z)
}

func uniformSpherePdf() float64 { return 1 / (4 * math.Pi) }
