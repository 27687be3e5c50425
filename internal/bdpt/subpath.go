package bdpt

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/bsdf"
	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/light"
	"github.com/kjellstrom/lumenpath/internal/sampling"
	"github.com/kjellstrom/lumenpath/internal/scenegraph"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// GenerateCameraSubpath traces a camera subpath, recording forward
// PDFs at every vertex for the MIS weight calculation — the teacher's
// generateCameraSubpath, generalized over sampling.Sampler so MLT can
// drive it through primary sample space.
func GenerateCameraSubpath(ray geom.Ray, cam *Camera, scene *scenegraph.Scene, sampler sampling.Sampler, maxDepth int) Path {
	path := Path{Vertices: make([]Vertex, 0, maxDepth+1)}

	_, directionPdf := cam.CalculateRayPDFs(ray)

	cameraVertex := Vertex{
		P:              ray.Origin,
		N:              ray.Direction.Negate(),
		Camera:         cam,
		AreaPdfForward: 0,
		AreaPdfReverse: 0,
		IsCamera:       true,
		Beta:           spectrum.Gray(1),
	}
	path.Vertices = append(path.Vertices, cameraVertex)
	path.Length++

	extendPath(&path, ray, spectrum.Gray(1), directionPdf, scene, sampler, maxDepth, true)
	return path
}

// GenerateLightSubpath samples emission from a light in the scene and
// traces it through the scene, mirroring the teacher's
// generateLightSubpath.
func GenerateLightSubpath(scene *scenegraph.Scene, lightSampler light.LightSampler, sampler sampling.Sampler, maxDepth int) Path {
	path := Path{Vertices: make([]Vertex, 0, maxDepth+1)}

	if len(lightSampler.Lights()) == 0 {
		return path
	}

	sampledLight, lightSelectionPdf := lightSampler.SampleLight(sampler.Get1D())
	emission := sampledLight.SampleLe(sampler.Get2D(), sampler.Get2D())
	if lightSelectionPdf <= 0 || emission.PdfPos <= 0 || emission.PdfDir <= 0 {
		return path
	}
	cosTheta := emission.Ray.Direction.Dot(emission.N)

	lightVertex := Vertex{
		P:              emission.Ray.Origin,
		N:              emission.N,
		Light:          sampledLight,
		AreaPdfForward: emission.PdfPos * lightSelectionPdf,
		AreaPdfReverse: 0,
		IsLight:        true,
		Beta:           emission.Le,
		Le:             emission.Le,
	}
	path.Vertices = append(path.Vertices, lightVertex)
	path.Length++

	forwardThroughput := emission.Le.Scale(math.Abs(cosTheta) / (lightSelectionPdf * emission.PdfPos * emission.PdfDir))
	extendPath(&path, emission.Ray, forwardThroughput, emission.PdfDir, scene, sampler, maxDepth-1, false)
	return path
}

// extendPath is the bounce loop shared by camera and light subpath
// generation, after the initial vertex — the teacher's extendPath.
func extendPath(path *Path, currentRay geom.Ray, beta spectrum.Spectrum, pdfDir float64, scene *scenegraph.Scene, sampler sampling.Sampler, maxBounces int, isCameraPath bool) {
	for bounces := 0; bounces < maxBounces; bounces++ {
		vertexPrev := &path.Vertices[path.Length-1]

		hit, isHit := scene.Intersect(currentRay)
		if !isHit {
			if !isCameraPath {
				return
			}
			il := findInfiniteLight(scene)
			var emitted spectrum.Spectrum
			if il != nil {
				emitted = il.Le(currentRay)
			}
			vertex := Vertex{
				P:               currentRay.Origin.Add(currentRay.Direction.Scale(2 * sceneRadius(scene))),
				N:               currentRay.Direction.Negate(),
				Light:           il,
				Wo:              currentRay.Direction.Negate(),
				AreaPdfForward:  pdfDir,
				AreaPdfReverse:  0,
				IsLight:         !emitted.IsBlack(),
				IsInfiniteLight: true,
				Beta:            beta,
				Le:              emitted,
			}
			path.Vertices = append(path.Vertices, vertex)
			path.Length++
			return
		}

		emitted := spectrum.Black
		if hit.AreaLight != nil {
			if em, ok := hit.AreaLight.(interface {
				L(n geom.Normal3, w geom.Vec3) spectrum.Spectrum
			}); ok {
				emitted = em.L(hit.SI.N, hit.SI.Wo)
			}
		}

		var b *bsdf.BSDF
		if hit.Material != nil {
			b = hit.Material.ComputeBSDF(hit.SI)
		}

		vertex := Vertex{
			P:              hit.SI.P,
			N:              hit.SI.N,
			BSDF:           b,
			Light:          hit.AreaLight,
			Wo:             hit.SI.Wo,
			AreaPdfForward: 1,
			AreaPdfReverse: 0,
			IsLight:        !emitted.IsBlack(),
			Beta:           beta,
			Le:             emitted,
		}
		vertex.AreaPdfForward = vertexPrev.convertPDFDensity(vertex, pdfDir)

		if b == nil {
			path.Vertices = append(path.Vertices, vertex)
			path.Length++
			return
		}

		result, ok := b.SampleF(hit.SI.Wo, sampler.Get2D(), bsdf.All)
		if !ok || result.Pdf == 0 {
			path.Vertices = append(path.Vertices, vertex)
			path.Length++
			return
		}

		vertex.IsSpecular = result.SampledFlags.IsSpecular()
		pdfDir = result.Pdf

		cosTheta := hit.SI.N.AbsDot(result.Wi)
		beta = beta.Mul(result.F).Scale(cosTheta / pdfDir)

		pdfRev := b.Pdf(result.Wi, hit.SI.Wo, bsdf.All)
		vertexPrev.AreaPdfReverse = vertex.convertPDFDensity(*vertexPrev, pdfRev)

		path.Vertices = append(path.Vertices, vertex)
		path.Length++

		currentRay = geom.NewRay(hit.SI.P, result.Wi)
	}
}

func findInfiniteLight(scene *scenegraph.Scene) light.Light {
	for _, l := range scene.Lights {
		if l.Kind() == light.KindInfinite {
			return l
		}
	}
	return nil
}

func sceneRadius(scene *scenegraph.Scene) float64 {
	r := scene.WorldRadius()
	if r <= 0 {
		return 1e6
	}
	return r
}
