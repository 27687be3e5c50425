package bsdf

import (
	"math"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// MicrofacetDistribution abstracts over Beckmann and Trowbridge-Reitz
// (GGX), per spec.md §4.E "parameterised by a microfacet distribution".
type MicrofacetDistribution interface {
	D(wh geom.Vec3) float64
	Lambda(w geom.Vec3) float64
	SampleWh(wo geom.Vec3, u [2]float64) geom.Vec3
	SampleVisibleArea() bool
}

func g1(d MicrofacetDistribution, w geom.Vec3) float64 {
	return 1 / (1 + d.Lambda(w))
}

// G is the height-correlated Smith masking-shadowing term.
func G(d MicrofacetDistribution, wo, wi geom.Vec3) float64 {
	return 1 / (1 + d.Lambda(wo) + d.Lambda(wi))
}

func microfacetPdf(d MicrofacetDistribution, wo, wh geom.Vec3) float64 {
	return d.D(wh) * AbsCosTheta(wh)
}

// BeckmannDistribution is the classic Gaussian-slope microfacet model.
type BeckmannDistribution struct {
	AlphaX, AlphaY float64
}

func (b BeckmannDistribution) D(wh geom.Vec3) float64 {
	tan2 := Tan2Theta(wh)
	if math.IsInf(tan2, 1) {
		return 0
	}
	cos4 := Cos2Theta(wh) * Cos2Theta(wh)
	e := tan2 * (CosPhi(wh)*CosPhi(wh)/(b.AlphaX*b.AlphaX) + SinPhi(wh)*SinPhi(wh)/(b.AlphaY*b.AlphaY))
	return math.Exp(-e) / (math.Pi * b.AlphaX * b.AlphaY * cos4)
}

func (b BeckmannDistribution) Lambda(w geom.Vec3) float64 {
	absTanTheta := math.Abs(TanTheta(w))
	if math.IsInf(absTanTheta, 1) {
		return 0
	}
	alpha := math.Sqrt(CosPhi(w)*CosPhi(w)*b.AlphaX*b.AlphaX + SinPhi(w)*SinPhi(w)*b.AlphaY*b.AlphaY)
	a := 1 / (alpha * absTanTheta)
	if a >= 1.6 {
		return 0
	}
	return (1 - 1.259*a + 0.396*a*a) / (3.535*a + 2.181*a*a)
}

func (b BeckmannDistribution) SampleVisibleArea() bool { return false }

func (b BeckmannDistribution) SampleWh(wo geom.Vec3, u [2]float64) geom.Vec3 {
	logSample := math.Log(1 - u[0])
	if math.IsInf(logSample, -1) {
		logSample = 0
	}

	var tan2Theta, phi float64
	if b.AlphaX == b.AlphaY {
		tan2Theta = -b.AlphaX * b.AlphaX * logSample
		phi = u[1] * 2 * math.Pi
	} else {
		phi = math.Atan(b.AlphaY/b.AlphaX*math.Tan(2*math.Pi*u[1]+0.5*math.Pi)) + 0.5*math.Pi*math.Floor(2*u[1]+0.5)
		sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
		alphax2, alphay2 := b.AlphaX*b.AlphaX, b.AlphaY*b.AlphaY
		tan2Theta = -logSample / (cosPhi*cosPhi/alphax2 + sinPhi*sinPhi/alphay2)
	}

	cosTheta := 1 / math.Sqrt(1+tan2Theta)
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	wh := geom.New(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
	if !SameHemisphere(wo, wh) {
		wh = wh.Negate()
	}
	return wh
}

// TrowbridgeReitzDistribution is GGX, with heavier tails than Beckmann.
type TrowbridgeReitzDistribution struct {
	AlphaX, AlphaY float64
}

// RoughnessToAlpha converts a perceptual roughness in [0,1] to the
// distribution's alpha parameter, using pbrt's empirical fit.
func RoughnessToAlpha(roughness float64) float64 {
	roughness = math.Max(roughness, 1e-3)
	x := math.Log(roughness)
	return 1.62142 + 0.819955*x + 0.1734*x*x + 0.0171201*x*x*x + 0.000640711*x*x*x*x
}

func (t TrowbridgeReitzDistribution) D(wh geom.Vec3) float64 {
	tan2 := Tan2Theta(wh)
	if math.IsInf(tan2, 1) {
		return 0
	}
	cos4 := Cos2Theta(wh) * Cos2Theta(wh)
	e := (CosPhi(wh)*CosPhi(wh)/(t.AlphaX*t.AlphaX) + SinPhi(wh)*SinPhi(wh)/(t.AlphaY*t.AlphaY)) * tan2
	denom := math.Pi * t.AlphaX * t.AlphaY * cos4 * (1 + e) * (1 + e)
	return 1 / denom
}

func (t TrowbridgeReitzDistribution) Lambda(w geom.Vec3) float64 {
	absTanTheta := math.Abs(TanTheta(w))
	if math.IsInf(absTanTheta, 1) {
		return 0
	}
	alpha := math.Sqrt(CosPhi(w)*CosPhi(w)*t.AlphaX*t.AlphaX + SinPhi(w)*SinPhi(w)*t.AlphaY*t.AlphaY)
	alpha2Tan2Theta := (alpha * absTanTheta) * (alpha * absTanTheta)
	return (-1 + math.Sqrt(1+alpha2Tan2Theta)) / 2
}

func (t TrowbridgeReitzDistribution) SampleVisibleArea() bool { return false }

func (t TrowbridgeReitzDistribution) SampleWh(wo geom.Vec3, u [2]float64) geom.Vec3 {
	cosTheta := 0.0
	phi := 2 * math.Pi * u[1]
	if t.AlphaX == t.AlphaY {
		tanTheta2 := t.AlphaX * t.AlphaX * u[0] / (1 - u[0])
		cosTheta = 1 / math.Sqrt(1+tanTheta2)
	}
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	wh := geom.New(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
	if !SameHemisphere(wo, wh) {
		wh = wh.Negate()
	}
	return wh
}

// MicrofacetReflection is the Torrance-Sparrow reflection lobe:
// f = D*G*F / (4 cosThetaO cosThetaI) (spec.md §4.E).
type MicrofacetReflection struct {
	R            spectrum.Spectrum
	Distribution MicrofacetDistribution
	Fr           Fresnel
}

func (m MicrofacetReflection) Flags() Flags { return Reflection | Glossy }

func (m MicrofacetReflection) F(wo, wi geom.Vec3) spectrum.Spectrum {
	cosThetaO, cosThetaI := AbsCosTheta(wo), AbsCosTheta(wi)
	wh := wi.Add(wo)
	if cosThetaI == 0 || cosThetaO == 0 || wh.IsZero() {
		return spectrum.Black
	}
	wh = wh.Normalize()
	fr := m.Fr.Evaluate(wi.Dot(wh))
	d := m.Distribution.D(wh)
	g := G(m.Distribution, wo, wi)
	return m.R.Mul(fr).Scale(d * g / (4 * cosThetaI * cosThetaO))
}

func (m MicrofacetReflection) SampleF(wo geom.Vec3, u [2]float64) (geom.Vec3, float64, spectrum.Spectrum, Flags) {
	if wo.Z == 0 {
		return geom.Vec3{}, 0, spectrum.Black, m.Flags()
	}
	wh := m.Distribution.SampleWh(wo, u)
	wi := Reflect(wo, wh)
	if !SameHemisphere(wo, wi) {
		return geom.Vec3{}, 0, spectrum.Black, m.Flags()
	}
	pdf := microfacetPdf(m.Distribution, wo, wh) / (4 * wo.Dot(wh))
	return wi, pdf, m.F(wo, wi), m.Flags()
}

func (m MicrofacetReflection) Pdf(wo, wi geom.Vec3) float64 {
	if !SameHemisphere(wo, wi) {
		return 0
	}
	wh := wo.Add(wi).Normalize()
	return microfacetPdf(m.Distribution, wo, wh) / (4 * wo.Dot(wh))
}

// MicrofacetTransmission is the rough-refraction counterpart, with the
// Jacobian from the half-vector convention (spec.md §4.E).
type MicrofacetTransmission struct {
	T            spectrum.Spectrum
	Distribution MicrofacetDistribution
	EtaA, EtaB   float64
	Radiance     bool
}

func (m MicrofacetTransmission) Flags() Flags { return Transmission | Glossy }

func (m MicrofacetTransmission) F(wo, wi geom.Vec3) spectrum.Spectrum {
	if SameHemisphere(wo, wi) {
		return spectrum.Black
	}
	cosThetaO, cosThetaI := CosTheta(wo), CosTheta(wi)
	if cosThetaI == 0 || cosThetaO == 0 {
		return spectrum.Black
	}

	eta := m.EtaB / m.EtaA
	if cosThetaO > 0 {
		eta = m.EtaA / m.EtaB
	}
	wh := wo.Add(wi.Scale(eta)).Normalize()
	if wh.Z < 0 {
		wh = wh.Negate()
	}

	fr := FrDielectric(wo.Dot(wh), m.EtaA, m.EtaB)
	sqrtDenom := wo.Dot(wh) + eta*wi.Dot(wh)

	factor := 1.0
	if m.Radiance {
		factor = 1 / eta
	}

	d := m.Distribution.D(wh)
	g := G(m.Distribution, wo, wi)
	numerator := d * g * (1 - fr)
	val := numerator * math.Abs(wi.Dot(wh)*wo.Dot(wh)/(cosThetaI*cosThetaO*sqrtDenom*sqrtDenom)) * factor * factor

	return m.T.Scale(val)
}

func (m MicrofacetTransmission) SampleF(wo geom.Vec3, u [2]float64) (geom.Vec3, float64, spectrum.Spectrum, Flags) {
	if wo.Z == 0 {
		return geom.Vec3{}, 0, spectrum.Black, m.Flags()
	}
	wh := m.Distribution.SampleWh(wo, u)

	eta := m.EtaA / m.EtaB
	if CosTheta(wo) <= 0 {
		eta = m.EtaB / m.EtaA
	}
	wi, ok := Refract(wo, geom.FaceForward(wh, wo), eta)
	if !ok {
		return geom.Vec3{}, 0, spectrum.Black, m.Flags()
	}
	return wi, m.Pdf(wo, wi), m.F(wo, wi), m.Flags()
}

func (m MicrofacetTransmission) Pdf(wo, wi geom.Vec3) float64 {
	if SameHemisphere(wo, wi) {
		return 0
	}
	eta := m.EtaB / m.EtaA
	if CosTheta(wo) > 0 {
		eta = m.EtaA / m.EtaB
	}
	wh := wo.Add(wi.Scale(eta)).Normalize()
	if wh.Z < 0 {
		wh = wh.Negate()
	}

	sqrtDenom := wo.Dot(wh) + eta*wi.Dot(wh)
	dwhDwi := math.Abs((eta * eta * wi.Dot(wh)) / (sqrtDenom * sqrtDenom))
	return microfacetPdf(m.Distribution, wo, wh) * dwhDwi
}

// FresnelBlend is a Schlick blend between a Lambertian diffuse term and
// a glossy microfacet term (spec.md §4.E); sampling picks between the
// two strategies with probability 0.5 each.
type FresnelBlend struct {
	Rd, Rs       spectrum.Spectrum
	Distribution MicrofacetDistribution
}

func (f FresnelBlend) Flags() Flags { return Reflection | Glossy }

func (f FresnelBlend) F(wo, wi geom.Vec3) spectrum.Spectrum {
	pow5 := func(x float64) float64 { y := 1 - x/2; y2 := y * y; return y2 * y2 * y }
	diffuse := f.Rd.Scale(28.0 / (23.0 * math.Pi)).Mul(spectrum.Gray(1).Sub(f.Rs)).
		Scale((1 - pow5(AbsCosTheta(wo))) * (1 - pow5(AbsCosTheta(wi))))

	wh := wi.Add(wo)
	if wh.IsZero() {
		return diffuse
	}
	wh = wh.Normalize()
	fr := SchlickFresnel(f.Rs, wi.Dot(wh))
	d := f.Distribution.D(wh)
	denom := 4 * math.Abs(wi.Dot(wh)) * math.Max(AbsCosTheta(wi), AbsCosTheta(wo))
	if denom == 0 {
		return diffuse
	}
	specular := fr.Scale(d / denom)
	return diffuse.Add(specular)
}

func (f FresnelBlend) SampleF(wo geom.Vec3, u [2]float64) (geom.Vec3, float64, spectrum.Spectrum, Flags) {
	var wi geom.Vec3
	uRemap := u

	if u[0] < 0.5 {
		uRemap[0] = math.Min(2*u[0], 1-1e-9)
		wi = cosineHemisphere(uRemap)
		if wo.Z < 0 {
			wi.Z = -wi.Z
		}
	} else {
		uRemap[0] = math.Min(2*(u[0]-0.5), 1-1e-9)
		wh := f.Distribution.SampleWh(wo, uRemap)
		wi = Reflect(wo, wh)
		if !SameHemisphere(wo, wi) {
			return geom.Vec3{}, 0, spectrum.Black, f.Flags()
		}
	}

	return wi, f.Pdf(wo, wi), f.F(wo, wi), f.Flags()
}

func (f FresnelBlend) Pdf(wo, wi geom.Vec3) float64 {
	if !SameHemisphere(wo, wi) {
		return 0
	}
	wh := wo.Add(wi).Normalize()
	pdfWh := microfacetPdf(f.Distribution, wo, wh) / (4 * wo.Dot(wh))
	return 0.5*(AbsCosTheta(wi)/math.Pi) + 0.5*pdfWh
}
