package bdpt

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/bsdf"
	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/light"
	"github.com/kjellstrom/lumenpath/internal/scenegraph"
)

// calculateMISWeight implements pbrt's Vertex-based MIS weight for a
// BDPT (s,t) strategy: temporarily rewrite the reverse densities and
// specular flags of the four vertices adjacent to the connection, walk
// both subpaths backward accumulating a ratio product, then restore
// the originals — the teacher's calculateMISWeight verbatim in
// structure (pkg/integrator/bdpt.go), generalized to this package's
// Vertex/Light types.
func calculateMISWeight(cameraPath, lightPath Path, sampledVertex *Vertex, s, t int, scene *scenegraph.Scene, lightSampler light.LightSampler) float64 {
	if s+t == 2 {
		return 1
	}

	if s == 0 && t > 1 {
		if cameraPath.Vertices[t-1].IsInfiniteLight {
			return 1
		}
	}

	remap0 := func(f float64) float64 {
		if f != 0 {
			return f
		}
		return 1
	}

	var qs, pt, qsMinus, ptMinus *Vertex
	if s > 0 {
		qs = &lightPath.Vertices[s-1]
	}
	if t > 0 {
		pt = &cameraPath.Vertices[t-1]
	}
	if s > 1 {
		qsMinus = &lightPath.Vertices[s-2]
	}
	if t > 1 {
		ptMinus = &cameraPath.Vertices[t-2]
	}

	var originalPtPdfRev, originalPtMinusPdfRev, originalQsPdfRev, originalQsMinusPdfRev float64
	var originalPtDelta, originalQsDelta bool
	var overwritten *Vertex
	var overwrittenOriginal Vertex

	defer func() {
		if pt != nil {
			pt.AreaPdfReverse = originalPtPdfRev
			pt.IsSpecular = originalPtDelta
		}
		if ptMinus != nil {
			ptMinus.AreaPdfReverse = originalPtMinusPdfRev
		}
		if qs != nil {
			qs.AreaPdfReverse = originalQsPdfRev
			qs.IsSpecular = originalQsDelta
		}
		if qsMinus != nil {
			qsMinus.AreaPdfReverse = originalQsMinusPdfRev
		}
		if overwritten != nil {
			*overwritten = overwrittenOriginal
		}
	}()

	if s == 1 && qs != nil && sampledVertex != nil {
		overwritten, overwrittenOriginal = qs, *qs
		*qs = *sampledVertex
	} else if t == 1 && pt != nil && sampledVertex != nil {
		overwritten, overwrittenOriginal = pt, *pt
		*pt = *sampledVertex
	}

	if pt != nil {
		originalPtDelta = pt.IsSpecular
		pt.IsSpecular = false
	}
	if qs != nil {
		originalQsDelta = qs.IsSpecular
		qs.IsSpecular = false
	}

	if pt != nil {
		originalPtPdfRev = pt.AreaPdfReverse
		if s > 0 {
			pt.AreaPdfReverse = calculateVertexPdf(*qs, qsMinus, *pt)
		} else {
			pt.AreaPdfReverse = calculateLightOriginPdf(*pt, *ptMinus, lightSampler)
		}
	}

	if ptMinus != nil {
		originalPtMinusPdfRev = ptMinus.AreaPdfReverse
		if s > 0 {
			ptMinus.AreaPdfReverse = calculateVertexPdf(*pt, qs, *ptMinus)
		} else {
			ptMinus.AreaPdfReverse = calculateLightPdf(*pt, *ptMinus)
		}
	}

	if qs != nil {
		originalQsPdfRev = qs.AreaPdfReverse
		if pt != nil {
			qs.AreaPdfReverse = calculateVertexPdf(*pt, ptMinus, *qs)
		}
	}
	if qsMinus != nil {
		originalQsMinusPdfRev = qsMinus.AreaPdfReverse
		if qs != nil && pt != nil {
			qsMinus.AreaPdfReverse = calculateVertexPdf(*qs, pt, *qsMinus)
		}
	}

	sumRi := 0.0

	ri := 1.0
	for i := t - 1; i > 0; i-- {
		vertex := &cameraPath.Vertices[i]
		ri *= remap0(vertex.AreaPdfReverse) / remap0(vertex.AreaPdfForward)

		hasSpecularAfter := false
		for j := i + 1; j < t; j++ {
			if cameraPath.Vertices[j].IsSpecular {
				hasSpecularAfter = true
				break
			}
		}

		// HACK: exclude connection strategies that would connect
		// through a specular vertex, compensating for not
		// implementing t=1 (light-tracing-to-camera) strategies — the
		// teacher's own documented workaround, carried over unchanged
		// since the same t=1 omission applies here (spec.md §4.I).
		if !vertex.IsSpecular && !cameraPath.Vertices[i-1].IsSpecular && !hasSpecularAfter {
			sumRi += ri
		}
	}

	ri = 1.0
	for i := s - 1; i >= 0; i-- {
		vertex := &lightPath.Vertices[i]
		ri *= remap0(vertex.AreaPdfReverse) / remap0(vertex.AreaPdfForward)

		var deltaLightVertex bool
		if i > 0 {
			deltaLightVertex = lightPath.Vertices[i-1].IsSpecular
		} else {
			deltaLightVertex = vertex.IsLight && vertex.Light != nil && vertex.Light.IsDelta()
		}

		if !vertex.IsSpecular && !deltaLightVertex {
			sumRi += ri
		}
	}

	return 1 / (1 + sumRi)
}

// calculateVertexPdf implements pbrt's Vertex::Pdf: the area-measure
// density of having sampled next from curr, given curr was reached
// from prev (or, for a camera vertex, with no prev).
func calculateVertexPdf(curr Vertex, prev *Vertex, next Vertex) float64 {
	if curr.IsLight {
		return calculateLightPdf(curr, next)
	}

	wn := next.P.Sub(curr.P)
	if wn.LengthSquared() == 0 {
		return 0
	}
	wn = wn.Normalize()

	var wp geom.Vec3
	if prev != nil {
		wp = prev.P.Sub(curr.P)
		if wp.LengthSquared() == 0 {
			return 0
		}
		wp = wp.Normalize()
	} else if !curr.IsCamera {
		return 0
	}

	var pdf float64
	switch {
	case curr.IsCamera:
		if curr.Camera == nil {
			return 0
		}
		_, pdf = curr.Camera.CalculateRayPDFs(geom.NewRay(curr.P, wn))
		if pdf == 0 {
			return 0
		}
	case curr.BSDF != nil:
		pdf = curr.BSDF.Pdf(wp, wn, bsdf.All)
		if pdf == 0 {
			return 0
		}
	default:
		return 0
	}

	return curr.convertPDFDensity(next, pdf)
}

// calculateLightPdf implements pbrt's Vertex::PdfLight: the
// area-measure density of curr (a light vertex) having emitted toward
// to, using Light.PdfLe directly rather than the teacher's
// EmissionPDF/cosine back-conversion — our Light interface already
// separates PdfLe into (pdfPos, pdfDir), so no back-conversion is
// needed (see DESIGN.md).
func calculateLightPdf(curr, to Vertex) float64 {
	if !curr.IsLight || curr.Light == nil {
		return 0
	}

	w := to.P.Sub(curr.P)
	distSq := w.LengthSquared()
	if distSq == 0 {
		return 0
	}
	invDist := 1 / math.Sqrt(distSq)
	wn := w.Scale(invDist)

	_, pdfDir := curr.Light.PdfLe(geom.NewRay(curr.P, wn), curr.N)

	var pdf float64
	if curr.IsInfiniteLight {
		pdf = pdfDir
	} else {
		pdf = pdfDir * invDist * invDist
	}

	if !to.IsLight && !to.IsCamera {
		pdf *= math.Abs(to.N.Dot(wn))
	}
	return pdf
}

// calculateLightOriginPdf implements pbrt's Vertex::PdfLightOrigin:
// the probability density of having chosen lightVertex's light and
// its emission origin in the first place.
func calculateLightOriginPdf(lightVertex, to Vertex, lightSampler light.LightSampler) float64 {
	if !lightVertex.IsLight || lightVertex.Light == nil {
		return 0
	}
	w := to.P.Sub(lightVertex.P)
	if w.LengthSquared() == 0 {
		return 0
	}
	w = w.Normalize()

	pdfPos, _ := lightVertex.Light.PdfLe(geom.NewRay(lightVertex.P, w), lightVertex.N)
	pdfChoice := lightSampler.PdfLight(lightVertex.Light)
	return pdfPos * pdfChoice
}
