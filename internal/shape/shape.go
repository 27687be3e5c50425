// Package shape defines the Shape capability the core consumes
// (spec.md §1 "Concrete shape intersection routines ... treated as a
// Shape capability") plus the SurfaceInteraction record that flows
// from intersection through material evaluation into BDPT vertices.
//
// Concrete shapes here are the minimum needed to exercise the BVH and
// BDPT end to end (spec.md §8 scenario 1 "BVH one-sphere", scenario 6
// "BDPT Cornell Box"); a full shape library (meshes, curves, …) is the
// external façade's job per spec.md §1.
package shape

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
)

// MaterialID is an index into a scene-wide material table rather than a
// raw pointer, per spec.md §9's "replace raw pointers with indices"
// guidance for SurfaceInteraction -> Primitive back-references.
type MaterialID int32

const NoMaterial MaterialID = -1

// AreaLightID indexes into the scene's light table; -1 if the
// primitive is not emissive.
type AreaLightID int32

const NoAreaLight AreaLightID = -1

// SurfaceInteraction is the per-path scratch record produced by a ray
// intersection (spec.md §3). It carries no BSDF or BSSRDF; the
// material layer builds the BSDF from it (scenegraph.Material).
type SurfaceInteraction struct {
	P    geom.Point3
	N    geom.Normal3 // geometric normal
	Wo   geom.Vec3    // points back toward the ray origin
	U, V float64

	Dpdu, Dpdv geom.Vec3
	Dndu, Dndv geom.Vec3

	ShadingN    geom.Normal3 // possibly bump-perturbed shading normal
	ShadingDpdu geom.Vec3

	T    float64
	Time float64

	Material  MaterialID
	AreaLight AreaLightID

	// Not populated by Shape.Intersect or by the scene layer;
	// accel.BVH.Intersect returns the primitive index as a separate value.
	PrimitiveIndex int
}

// SetShadingGeometry installs a (possibly bump-mapped) shading frame,
// matching pbrt's SurfaceInteraction::SetShadingGeometry.
func (si *SurfaceInteraction) SetShadingGeometry(ns geom.Normal3, dpdus geom.Vec3, authoritative bool) {
	si.ShadingN = ns
	si.ShadingDpdu = dpdus
	if authoritative {
		si.N = geom.FaceForward(si.N, ns)
	} else {
		si.ShadingN = geom.FaceForward(si.ShadingN, si.N)
	}
}

// Shape is the capability the BVH and BDPT consume (spec.md §1, §3
// "Primitive"). A Shape also knows how to sample a point on its area
// for direct-lighting and BSSRDF probe connection, per §4.C.
type Shape interface {
	Bounds() geom.Bounds3
	Intersect(ray geom.Ray) (*SurfaceInteraction, bool)
	IntersectP(ray geom.Ray) bool
	Area() float64

	// Sample draws a point on the shape's surface uniformly by area.
	Sample(u [2]float64) (p geom.Point3, n geom.Normal3, pdf float64)

	// SampleFrom draws a point on the shape as seen from ref, with the
	// PDF expressed in solid angle measure at ref (spec.md §4.G direct
	// lighting convention).
	SampleFrom(ref geom.Point3, u [2]float64) (p geom.Point3, n geom.Normal3, pdf float64)
	PdfFrom(ref geom.Point3, wi geom.Vec3) float64
}

// Sphere is a minimal reference Shape implementation, sufficient for
// spec.md §8 scenario 1 and for exercising BSSRDF probe segments
// (§4.F) against a simple analytic surface.
type Sphere struct {
	Center geom.Point3
	Radius float64
	Mat    MaterialID
	Light  AreaLightID
}

func NewSphere(center geom.Point3, radius float64, mat MaterialID) *Sphere {
	return &Sphere{Center: center, Radius: radius, Mat: mat, Light: NoAreaLight}
}

func (s *Sphere) Bounds() geom.Bounds3 {
	r := geom.New(s.Radius, s.Radius, s.Radius)
	return geom.Bounds3{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
}

func (s *Sphere) Area() float64 { return 4 * math.Pi * s.Radius * s.Radius }

func (s *Sphere) quadratic(ray geom.Ray) (t0, t1 float64, ok bool) {
	oc := ray.Origin.Sub(s.Center)
	a := ray.Direction.LengthSquared()
	b := 2 * oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, 0, false
	}
	sqrtDisc := math.Sqrt(disc)
	q := -0.5 * (b + math.Copysign(sqrtDisc, b))
	t0, t1 = q/a, c/q
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	return t0, t1, true
}

func (s *Sphere) Intersect(ray geom.Ray) (*SurfaceInteraction, bool) {
	t0, t1, ok := s.quadratic(ray)
	if !ok {
		return nil, false
	}

	const tMin = 1e-4
	tHit := t0
	if tHit <= tMin || tHit >= ray.TMax {
		tHit = t1
		if tHit <= tMin || tHit >= ray.TMax {
			return nil, false
		}
	}

	p := ray.At(tHit)
	n := p.Sub(s.Center).Normalize()
	phi := math.Atan2(n.Y, n.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	theta := math.Acos(geom.Clamp(n.Z, -1, 1))

	dpdu := geom.New(-n.Y, n.X, 0).Scale(2 * math.Pi)
	dpdv := geom.New(n.Z*math.Cos(phi), n.Z*math.Sin(phi), -math.Sin(theta)).Scale(math.Pi)

	ray.TMax = tHit

	return &SurfaceInteraction{
		P: p, N: n, Wo: ray.Direction.Negate().Normalize(),
		U: phi / (2 * math.Pi), V: theta / math.Pi,
		Dpdu: dpdu, Dpdv: dpdv,
		ShadingN: n, ShadingDpdu: dpdu,
		T: tHit, Time: ray.Time,
		Material: s.Mat, AreaLight: s.Light,
	}, true
}

func (s *Sphere) IntersectP(ray geom.Ray) bool {
	t0, t1, ok := s.quadratic(ray)
	if !ok {
		return false
	}
	const tMin = 1e-4
	if t0 > tMin && t0 < ray.TMax {
		return true
	}
	return t1 > tMin && t1 < ray.TMax
}

func (s *Sphere) Sample(u [2]float64) (geom.Point3, geom.Normal3, float64) {
	n := sphereUniform(u)
	p := s.Center.Add(n.Scale(s.Radius))
	pdf := 1.0 / s.Area()
	return p, n, pdf
}

func sphereUniform(u [2]float64) geom.Vec3 {
	z := 1 - 2*u[0]
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * u[1]
	return geom.New(r*math.Cos(phi), r*math.Sin(phi), z)
}

// SampleFrom samples the sphere's solid angle as seen from ref using
// cone sampling when ref is outside the sphere (pbrt's
// Sphere::Sample(ref, u) strategy), falling back to area sampling with
// a converted PDF when ref is inside.
func (s *Sphere) SampleFrom(ref geom.Point3, u [2]float64) (geom.Point3, geom.Normal3, float64) {
	distSq := ref.Sub(s.Center).LengthSquared()
	if distSq <= s.Radius*s.Radius {
		p, n, areaPdf := s.Sample(u)
		toRef := ref.Sub(p)
		d2 := toRef.LengthSquared()
		if d2 == 0 {
			return p, n, 0
		}
		cos := toRef.Normalize().AbsDot(n)
		if cos == 0 {
			return p, n, 0
		}
		return p, n, areaPdf * d2 / cos
	}

	dist := math.Sqrt(distSq)
	sinThetaMax2 := s.Radius * s.Radius / distSq
	cosThetaMax := math.Sqrt(math.Max(0, 1-sinThetaMax2))

	frameZ := ref.Sub(s.Center).Scale(1 / dist)
	frameX, frameY := geom.CoordinateSystem(frameZ)

	local := coneSample(u, cosThetaMax)
	wi := frameX.Scale(local.X).Add(frameY.Scale(local.Y)).Add(frameZ.Scale(local.Z)).Negate()

	cosTheta := local.Z
	ds := dist*cosTheta - math.Sqrt(math.Max(0, s.Radius*s.Radius-distSq*(1-cosTheta*cosTheta)))
	p := ref.Add(wi.Scale(ds))
	p = s.Center.Add(p.Sub(s.Center).Normalize().Scale(s.Radius))
	n := p.Sub(s.Center).Normalize()

	pdf := 1.0 / (2 * math.Pi * (1 - cosThetaMax))
	return p, n, pdf
}

func coneSample(u [2]float64, cosThetaMax float64) geom.Vec3 {
	cosTheta := (1-u[0])*1 + u[0]*cosThetaMax
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	phi := u[1] * 2 * math.Pi
	return geom.New(math.Cos(phi)*sinTheta, math.Sin(phi)*sinTheta, cosTheta)
}

func (s *Sphere) PdfFrom(ref geom.Point3, wi geom.Vec3) float64 {
	distSq := ref.Sub(s.Center).LengthSquared()
	if distSq <= s.Radius*s.Radius {
		ray := geom.NewRay(ref, wi)
		ray.TMax = math.Inf(1)
		hit, ok := s.Intersect(ray)
		if !ok {
			return 0
		}
		toRef := ref.Sub(hit.P)
		d2 := toRef.LengthSquared()
		cos := toRef.Normalize().AbsDot(hit.N)
		if cos == 0 {
			return 0
		}
		return d2 / (cos * s.Area())
	}
	sinThetaMax2 := s.Radius * s.Radius / distSq
	cosThetaMax := math.Sqrt(math.Max(0, 1-sinThetaMax2))
	return 1.0 / (2 * math.Pi * (1 - cosThetaMax))
}
