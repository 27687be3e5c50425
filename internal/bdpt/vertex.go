// Package bdpt implements bidirectional path tracing with multiple
// importance sampling (spec.md §4.I, the core light-transport
// integrator). Grounded on the teacher's pkg/integrator/bdpt.go:
// the tagged Vertex struct, the shared extendPath bounce loop, the
// convertPDFDensity/calculateMISWeight scoped-mutation MIS machinery,
// and the deliberate omission of t=1 (light-tracing-to-camera)
// strategies all carry over; what changes is the per-vertex payload,
// which now holds a *bsdf.BSDF built from scenegraph.Scene's resolved
// material rather than the teacher's whole-material Material/Light
// pointers, and subpath generation is parameterized over
// sampling.Sampler so internal/mlt can replay these exact routines
// through its primary-sample-space sampler instead of math/rand.
package bdpt

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/bsdf"
	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/light"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// Vertex is a single node in a camera or light subpath, carrying both
// the transport quantities (Beta, Le) and the densities BDPT's MIS
// weight needs (AreaPdfForward/Reverse), exactly mirroring the
// teacher's Vertex (pkg/integrator/bdpt.go) field-for-field except
// Material/Light/Camera are this repo's own types.
type Vertex struct {
	P geom.Point3
	N geom.Normal3 // geometric normal (zero at camera/escaped-ray vertices)

	BSDF   *bsdf.BSDF // nil at camera, light, and escaped-ray vertices
	Light  light.Light
	Camera *Camera

	Wo geom.Vec3 // direction back toward the previous vertex

	AreaPdfForward float64
	AreaPdfReverse float64

	IsLight         bool
	IsCamera        bool
	IsSpecular      bool
	IsInfiniteLight bool

	Beta spectrum.Spectrum // accumulated throughput from path start to this vertex
	Le   spectrum.Spectrum // light emitted from this vertex toward Wo
}

// Path is a generated camera or light subpath.
type Path struct {
	Vertices []Vertex
	Length   int
}

// convertPDFDensity converts a solid-angle PDF measured at v, for the
// direction toward next, into the area-measure PDF at next — pbrt's
// Vertex::ConvertDensity, including its infinite-light special case
// (solid-angle density is kept as-is since an infinite light has no
// finite area to convert into).
func (v *Vertex) convertPDFDensity(next Vertex, pdfDir float64) float64 {
	if next.IsInfiniteLight {
		return pdfDir
	}

	direction := next.P.Sub(v.P)
	distSq := direction.LengthSquared()
	if distSq == 0 {
		return 0
	}
	invDist2 := 1 / distSq

	pdf := pdfDir
	if next.BSDF != nil { // next.IsOnSurface()
		cosTheta := direction.Scale(1 / direction.Length()).Dot(next.N)
		pdf *= math.Abs(cosTheta)
	}
	return pdf * invDist2
}
