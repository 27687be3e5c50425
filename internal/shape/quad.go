package shape

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
)

// Quad is a planar rectangle defined by a corner and two edge vectors,
// adapted from the teacher's pkg/geometry/quad.go barycentric hit test.
// It is the workhorse shape for the Cornell Box scenario in spec.md §8.
type Quad struct {
	Corner, U, V geom.Vec3
	Normal       geom.Vec3
	d            float64
	w            geom.Vec3 // cached for barycentric coords, see NewQuad
	Mat          MaterialID
	Light        AreaLightID
	area         float64
}

func NewQuad(corner, u, v geom.Vec3, mat MaterialID) *Quad {
	normal := u.Cross(v).Normalize()
	d := normal.Dot(corner)
	cross := u.Cross(v)
	w := normal.Scale(1.0 / normal.Dot(cross))

	return &Quad{
		Corner: corner, U: u, V: v, Normal: normal,
		d: d, w: w, Mat: mat, Light: NoAreaLight,
		area: u.Cross(v).Length(),
	}
}

func (q *Quad) Area() float64 { return q.area }

func (q *Quad) Bounds() geom.Bounds3 {
	corners := [4]geom.Vec3{
		q.Corner, q.Corner.Add(q.U), q.Corner.Add(q.V), q.Corner.Add(q.U).Add(q.V),
	}
	b := geom.BoundsFromPoints(corners[0], corners[1])
	b = b.UnionPoint(corners[2])
	b = b.UnionPoint(corners[3])
	// Pad every axis by an epsilon so exactly-planar quads still
	// have a non-degenerate box for the BVH's slab test.
	const eps = 1e-4
	pad := geom.New(eps, eps, eps)
	return geom.Bounds3{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}
}

func (q *Quad) intersect(ray geom.Ray) (t, alpha, beta float64, ok bool) {
	denom := ray.Direction.Dot(q.Normal)
	if math.Abs(denom) < 1e-10 {
		return 0, 0, 0, false
	}
	t = (q.d - ray.Origin.Dot(q.Normal)) / denom
	if t < 1e-4 || t > ray.TMax {
		return 0, 0, 0, false
	}
	hit := ray.At(t).Sub(q.Corner)
	alpha = q.w.Dot(hit.Cross(q.V))
	beta = q.w.Dot(q.U.Cross(hit))
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return 0, 0, 0, false
	}
	return t, alpha, beta, true
}

func (q *Quad) Intersect(ray geom.Ray) (*SurfaceInteraction, bool) {
	t, alpha, beta, ok := q.intersect(ray)
	if !ok {
		return nil, false
	}
	n := q.Normal
	wo := ray.Direction.Negate().Normalize()
	if n.Dot(wo) < 0 {
		n = n.Negate()
	}
	ray.TMax = t
	return &SurfaceInteraction{
		P: ray.At(t), N: n, Wo: wo,
		U: alpha, V: beta,
		Dpdu: q.U, Dpdv: q.V,
		ShadingN: n, ShadingDpdu: q.U,
		T: t, Time: ray.Time,
		Material: q.Mat, AreaLight: q.Light,
	}, true
}

func (q *Quad) IntersectP(ray geom.Ray) bool {
	_, _, _, ok := q.intersect(ray)
	return ok
}

func (q *Quad) Sample(u [2]float64) (geom.Point3, geom.Normal3, float64) {
	p := q.Corner.Add(q.U.Scale(u[0])).Add(q.V.Scale(u[1]))
	pdf := 1.0 / q.area
	return p, q.Normal, pdf
}

func (q *Quad) SampleFrom(ref geom.Point3, u [2]float64) (geom.Point3, geom.Normal3, float64) {
	p, n, areaPdf := q.Sample(u)
	toRef := ref.Sub(p)
	d2 := toRef.LengthSquared()
	if d2 == 0 {
		return p, n, 0
	}
	cos := toRef.Normalize().AbsDot(n)
	if cos < 1e-9 {
		return p, n, 0
	}
	return p, n, areaPdf * d2 / cos
}

func (q *Quad) PdfFrom(ref geom.Point3, wi geom.Vec3) float64 {
	ray := geom.NewRay(ref, wi)
	ray.TMax = math.Inf(1)
	hit, ok := q.Intersect(ray)
	if !ok {
		return 0
	}
	toRef := ref.Sub(hit.P)
	d2 := toRef.LengthSquared()
	cos := toRef.Normalize().AbsDot(hit.N)
	if cos < 1e-9 {
		return 0
	}
	return d2 / (cos * q.area)
}
