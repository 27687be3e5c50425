package bsdf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/kjellstrom/lumenpath/internal/geom"
	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// FourierBSDFTable holds a parsed tabulated BSDF, per spec.md §6's
// binary layout. Grounded on original_source/src/materials/fourier.rs
// and the table-shape description in spec.md §4.E.
type FourierBSDFTable struct {
	Eta       float64
	MMax      int
	NChannels int
	NMu       int
	Mu        []float64
	M         []int32   // order per (offsetI, offsetO) pair, row-major NMu*NMu
	AOffset   []int32   // offset into A per pair
	A         []float64 // n_coeffs
	A0        []float64 // k=0 coefficient per pair, for marginal sampling
	CDF       []float64 // NMu*NMu
	Recip     []float64 // 1/k for k=1..MMax-1
}

const fourierMagic = "SCATFUN\x01"

// LoadFourierBSDFTable parses the little-endian binary format described
// in spec.md §6. Only flags==1, n_channels in {1,3}, n_bases==1 are
// supported — anything else is a fatal format error per spec.md §7.
func LoadFourierBSDFTable(path string) (*FourierBSDFTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fourier: open %s: %w", path, err)
	}
	defer f.Close()
	return readFourierBSDFTable(bufio.NewReader(f))
}

func readFourierBSDFTable(r io.Reader) (*FourierBSDFTable, error) {
	magic := make([]byte, 8)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("fourier: read magic: %w", err)
	}
	if string(magic) != fourierMagic {
		return nil, fmt.Errorf("fourier: bad magic %q", magic)
	}

	var header [9]int32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("fourier: read header: %w", err)
	}
	flags, nMu, nCoeffs, mMax, nChannels, nBases := header[0], header[1], header[2], header[3], header[4], header[5]
	if flags != 1 {
		return nil, fmt.Errorf("fourier: unsupported flags %d", flags)
	}
	if nChannels != 1 && nChannels != 3 {
		return nil, fmt.Errorf("fourier: unsupported n_channels %d", nChannels)
	}
	if nBases != 1 {
		return nil, fmt.Errorf("fourier: unsupported n_bases %d", nBases)
	}

	var etaF32 float32
	if err := binary.Read(r, binary.LittleEndian, &etaF32); err != nil {
		return nil, fmt.Errorf("fourier: read eta: %w", err)
	}
	var unused [4]int32
	if err := binary.Read(r, binary.LittleEndian, &unused); err != nil {
		return nil, fmt.Errorf("fourier: read reserved: %w", err)
	}

	mu := make([]float64, nMu)
	if err := readF32Slice(r, mu); err != nil {
		return nil, fmt.Errorf("fourier: read mu: %w", err)
	}

	cdf := make([]float64, int(nMu)*int(nMu))
	if err := readF32Slice(r, cdf); err != nil {
		return nil, fmt.Errorf("fourier: read cdf: %w", err)
	}

	offsetAndLength := make([]int32, int(nMu)*int(nMu)*2)
	if err := binary.Read(r, binary.LittleEndian, offsetAndLength); err != nil {
		return nil, fmt.Errorf("fourier: read offset/length table: %w", err)
	}

	a := make([]float64, nCoeffs)
	if err := readF32Slice(r, a); err != nil {
		return nil, fmt.Errorf("fourier: read coefficients: %w", err)
	}

	n := int(nMu)
	table := &FourierBSDFTable{
		Eta:       float64(etaF32),
		MMax:      int(mMax),
		NChannels: int(nChannels),
		NMu:       n,
		Mu:        mu,
		M:         make([]int32, n*n),
		AOffset:   make([]int32, n*n),
		A:         a,
		A0:        make([]float64, n*n),
		CDF:       cdf,
	}
	for i := 0; i < n*n; i++ {
		table.AOffset[i] = offsetAndLength[2*i]
		table.M[i] = offsetAndLength[2*i+1]
		if table.M[i] > 0 {
			table.A0[i] = a[table.AOffset[i]]
		}
	}
	table.Recip = make([]float64, table.MMax)
	for i := 1; i < table.MMax; i++ {
		table.Recip[i] = 1 / float64(i)
	}
	return table, nil
}

func readF32Slice(r io.Reader, dst []float64) error {
	buf := make([]float32, len(dst))
	if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
		return err
	}
	for i, v := range buf {
		dst[i] = float64(v)
	}
	return nil
}

// GetWeightsAndOffset computes the 4-tap Catmull-Rom weights over the
// table's mu axis for a given cosine value.
func (t *FourierBSDFTable) GetWeightsAndOffset(cosTheta float64) (offset int, weights [4]float64, ok bool) {
	return catmullRomWeights(t.Mu, cosTheta)
}

// GetAk returns the coefficient slice and order for the (offsetI,
// offsetO) pair, across all channels (stored contiguously per channel).
func (t *FourierBSDFTable) GetAk(offsetI, offsetO int) (coeffs []float64, order int) {
	idx := offsetO*t.NMu + offsetI
	order = int(t.M[idx])
	if order == 0 {
		return nil, 0
	}
	start := t.AOffset[idx]
	return t.A[start : int(start)+order*t.NChannels], order
}

// catmullRomWeights mirrors pbrt's CatmullRomWeights: given a sorted
// node array and a query x inside its range, returns the 4 spline
// weights centred on the bracketing interval.
func catmullRomWeights(nodes []float64, x float64) (offset int, weights [4]float64, ok bool) {
	n := len(nodes)
	if !(x >= nodes[0] && x <= nodes[n-1]) {
		return 0, weights, false
	}
	idx := findIntervalLE(nodes, x)
	offset = idx - 1
	x0, x1 := nodes[idx], nodes[idx+1]
	t := (x - x0) / (x1 - x0)
	t2, t3 := t*t, t*t*t

	weights[1] = 2*t3 - 3*t2 + 1
	weights[2] = -2*t3 + 3*t2

	if idx > 0 {
		w0 := (t3 - 2*t2 + t) * (x1 - x0) / (x1 - nodes[idx-1])
		weights[0] = -w0
		weights[2] += w0
	} else {
		w0 := t3 - 2*t2 + t
		weights[0] = 0
		weights[1] -= w0
		weights[2] += w0
	}

	if idx+2 < n {
		w3 := (t3 - t2) * (x1 - x0) / (nodes[idx+2] - x0)
		weights[1] -= w3
		weights[3] = w3
	} else {
		w3 := t3 - t2
		weights[1] -= w3
		weights[2] += w3
		weights[3] = 0
	}
	return offset, weights, true
}

func findIntervalLE(nodes []float64, x float64) int {
	lo, hi := 0, len(nodes)-2
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if nodes[mid] <= x {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// fourierSeries evaluates sum_k a[k]*cos(k*phi), given cosPhi =
// cos(phi), via the standard
// Chebyshev-style recurrence (spec.md §4.E "accumulate ... evaluate
// series at cos(phi_i - phi_o)").
func fourierSeries(a []float64, m int, cosPhi float64) float64 {
	value := 0.0
	cosKMinus1 := cosPhi
	cosK := 1.0
	for k := 0; k < m; k++ {
		value += a[k] * cosK
		cosKPlus1 := 2*cosPhi*cosK - cosKMinus1
		cosKMinus1 = cosK
		cosK = cosKPlus1
	}
	return value
}

// sampleFourier inverts the Fourier series' CDF over phi in [0, 2*pi)
// via combined Newton/bisection, mirroring pbrt's SampleFourier.
func sampleFourier(ak []float64, recip []float64, m int, u float64) (value, pdf, phi float64) {
	flip := u >= 0.5
	if flip {
		u = 1 - 2*(u-0.5)
	} else {
		u = 2 * u
	}

	a, b := 0.0, math.Pi
	phi = 0.5 * math.Pi
	var F, f float64

	for iter := 0; iter < 100; iter++ {
		cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)
		cosPhiPrev, cosPhiCur := cosPhi, 1.0
		sinPhiPrev, sinPhiCur := -sinPhi, 0.0

		F = ak[0] * phi
		f = ak[0]
		for k := 1; k < m; k++ {
			sinPhiNext := 2*cosPhi*sinPhiCur - sinPhiPrev
			cosPhiNext := 2*cosPhi*cosPhiCur - cosPhiPrev
			sinPhiPrev, sinPhiCur = sinPhiCur, sinPhiNext
			cosPhiPrev, cosPhiCur = cosPhiCur, cosPhiNext

			F += ak[k] * recip[k] * sinPhiNext
			f += ak[k] * cosPhiNext
		}
		F -= u * ak[0] * math.Pi

		if F > 0 {
			b = phi
		} else {
			a = phi
		}

		if math.Abs(F) < 1e-6 || b-a < 1e-6 {
			break
		}

		phi -= F / f
		if !(phi > a && phi < b) {
			phi = 0.5 * (a + b)
		}
	}

	if flip {
		phi = 2*math.Pi - phi
	}
	if ak[0] == 0 {
		return 0, 0, phi
	}
	pdf = (1 / (2 * math.Pi)) * f / ak[0]
	return f, pdf, phi
}

// sampleCatmullRom2D samples a spline-interpolated row of `values`
// (indexed by the `alpha` axis via Catmull-Rom weights, then along the
// second axis by its own CDF), mirroring pbrt's SampleCatmullRom2D.
func sampleCatmullRom2D(nodes1, nodes2, values, cdf []float64, alpha, u float64) (sample, fval, pdf float64) {
	offset, weights, ok := catmullRomWeights(nodes1, alpha)
	if !ok {
		return 0, 0, 0
	}
	size2 := len(nodes2)
	interpolate := func(array []float64, idx int) float64 {
		value := 0.0
		for i := 0; i < 4; i++ {
			if weights[i] != 0 {
				value += array[(offset+i)*size2+idx] * weights[i]
			}
		}
		return value
	}

	maximum := interpolate(cdf, size2-1)
	if maximum <= 0 {
		return nodes2[0], 0, 0
	}
	u *= maximum

	idx := 0
	for idx < size2-1 && interpolate(cdf, idx+1) <= u {
		idx++
	}

	f0, f1 := interpolate(values, idx), interpolate(values, idx+1)
	x0, x1 := nodes2[idx], nodes2[idx+1]
	width := x1 - x0

	uLocal := (u - interpolate(cdf, idx)) / width

	var d0, d1 float64
	if idx > 0 {
		d0 = width * (f1 - interpolate(values, idx-1)) / (x1 - nodes2[idx-1])
	} else {
		d0 = f1 - f0
	}
	if idx+2 < size2 {
		d1 = width * (interpolate(values, idx+2) - f0) / (nodes2[idx+2] - x0)
	} else {
		d1 = f1 - f0
	}

	var t float64
	if f0 != f1 {
		t = (f0 - math.Sqrt(math.Max(0, f0*f0+2*uLocal*(f1-f0)))) / (f0 - f1)
	} else if f0 > 0 {
		t = uLocal / f0
	}

	a, b := 0.0, 1.0
	var Fhat, fhat float64
	for iter := 0; iter < 100; iter++ {
		if !(t >= a && t <= b) {
			t = 0.5 * (a + b)
		}
		Fhat = t * (f0 + t*(0.5*d0+t*((1.0/3.0)*(-2*d0-d1)+f1-f0+t*(0.25*(d0+d1)+0.5*(f0-f1)))))
		fhat = f0 + t*(d0+t*(-2*d0-d1+3*(f1-f0)+t*(d0+d1+2*(f0-f1))))

		if math.Abs(Fhat-uLocal) < 1e-6 || b-a < 1e-6 {
			break
		}
		if Fhat-uLocal < 0 {
			a = t
		} else {
			b = t
		}
		if fhat != 0 {
			t -= (Fhat - uLocal) / fhat
		}
	}

	return x0 + width*t, fhat, fhat / maximum
}

// FourierBSDF is a tabulated lobe driven by a FourierBSDFTable, as
// described in spec.md §4.E.
type FourierBSDF struct {
	Table    *FourierBSDFTable
	Radiance bool
}

func (b FourierBSDF) Flags() Flags {
	return Reflection | Transmission | Glossy
}

func cosDPhi(wa, wb geom.Vec3) float64 {
	waxy := wa.X*wa.X + wa.Y*wa.Y
	wbxy := wb.X*wb.X + wb.Y*wb.Y
	if waxy == 0 || wbxy == 0 {
		return 1
	}
	return geom.Clamp((wa.X*wb.X+wa.Y*wb.Y)/math.Sqrt(waxy*wbxy), -1, 1)
}

func (b FourierBSDF) F(wo, wi geom.Vec3) spectrum.Spectrum {
	wiNeg := wi.Negate()
	muI, muO := CosTheta(wiNeg), CosTheta(wo)
	cosPhi := cosDPhi(wiNeg, wo)

	offsetI, weightsI, okI := b.Table.GetWeightsAndOffset(muI)
	offsetO, weightsO, okO := b.Table.GetWeightsAndOffset(muO)
	if !okI || !okO {
		return spectrum.Black
	}

	mMax := 0
	ak := make([]float64, b.Table.MMax*b.Table.NChannels)
	for bIdx := 0; bIdx < 4; bIdx++ {
		for aIdx := 0; aIdx < 4; aIdx++ {
			weight := weightsI[aIdx] * weightsO[bIdx]
			if weight == 0 {
				continue
			}
			coeffs, order := b.Table.GetAk(offsetI+aIdx, offsetO+bIdx)
			if order == 0 {
				continue
			}
			if order > mMax {
				mMax = order
			}
			for c := 0; c < b.Table.NChannels; c++ {
				for k := 0; k < order; k++ {
					ak[c*b.Table.MMax+k] += weight * coeffs[c*order+k]
				}
			}
		}
	}
	if mMax == 0 {
		return spectrum.Black
	}

	y := math.Max(0, fourierSeries(ak[:mMax], mMax, cosPhi))
	scale := 0.0
	if muI != 0 {
		scale = 1 / math.Abs(muI)
	}
	if b.Radiance && muI*muO > 0 {
		eta := b.Table.Eta
		if muI > 0 {
			eta = 1 / eta
		}
		scale *= eta * eta
	}

	if b.Table.NChannels == 1 {
		return spectrum.Gray(y * scale)
	}
	r := fourierSeries(ak[b.Table.MMax:b.Table.MMax+mMax], mMax, cosPhi)
	bl := fourierSeries(ak[2*b.Table.MMax:2*b.Table.MMax+mMax], mMax, cosPhi)
	g := 1.39829*y - 0.100913*bl - 0.297375*r
	return spectrum.New(r*scale, math.Max(0, g*scale), bl*scale).Clamp(0, math.Inf(1))
}

func (b FourierBSDF) Pdf(wo, wi geom.Vec3) float64 {
	wiNeg := wi.Negate()
	muI, muO := CosTheta(wiNeg), CosTheta(wo)
	cosPhi := cosDPhi(wiNeg, wo)

	offsetI, weightsI, okI := b.Table.GetWeightsAndOffset(muI)
	offsetO, weightsO, okO := b.Table.GetWeightsAndOffset(muO)
	if !okI || !okO {
		return 0
	}

	rho, pdfSum := 0.0, 0.0
	for bIdx := 0; bIdx < 4; bIdx++ {
		if weightsO[bIdx] == 0 {
			continue
		}
		for aIdx := 0; aIdx < 4; aIdx++ {
			if weightsI[aIdx] == 0 {
				continue
			}
			idx := (offsetO + bIdx) * b.Table.NMu
			if b.Table.M[idx+offsetI+aIdx] > 0 {
				rho += weightsI[aIdx] * weightsO[bIdx] * b.Table.A0[idx+offsetI+aIdx]
			}
		}
	}

	coeffs, order := b.fusedAk(offsetI, offsetO, weightsI, weightsO)
	if order == 0 {
		return 0
	}
	y := math.Max(1e-12, fourierSeries(coeffs, order, cosPhi))
	if rho > 0 {
		pdfSum += y / (rho * (2 * math.Pi * 2 * math.Pi))
	}
	return pdfSum
}

func (b FourierBSDF) fusedAk(offsetI, offsetO int, weightsI, weightsO [4]float64) ([]float64, int) {
	mMax := 0
	ak := make([]float64, b.Table.MMax)
	for bIdx := 0; bIdx < 4; bIdx++ {
		for aIdx := 0; aIdx < 4; aIdx++ {
			weight := weightsI[aIdx] * weightsO[bIdx]
			if weight == 0 {
				continue
			}
			coeffs, order := b.Table.GetAk(offsetI+aIdx, offsetO+bIdx)
			if order == 0 {
				continue
			}
			if order > mMax {
				mMax = order
			}
			for k := 0; k < order; k++ {
				ak[k] += weight * coeffs[k]
			}
		}
	}
	return ak[:mMax], mMax
}

func (b FourierBSDF) SampleF(wo geom.Vec3, u [2]float64) (geom.Vec3, float64, spectrum.Spectrum, Flags) {
	muO := CosTheta(wo)
	muI, _, pdfMu := sampleCatmullRom2D(b.Table.Mu, b.Table.Mu, b.Table.A0, b.Table.CDF, muO, u[1])

	offsetI, weightsI, okI := b.Table.GetWeightsAndOffset(muI)
	offsetO, weightsO, okO := b.Table.GetWeightsAndOffset(muO)
	if !okI || !okO {
		return geom.Vec3{}, 0, spectrum.Black, b.Flags()
	}

	mMax := 0
	ak := make([]float64, b.Table.MMax*b.Table.NChannels)
	for bIdx := 0; bIdx < 4; bIdx++ {
		if weightsO[bIdx] == 0 {
			continue
		}
		for aIdx := 0; aIdx < 4; aIdx++ {
			if weightsI[aIdx] == 0 {
				continue
			}
			weight := weightsI[aIdx] * weightsO[bIdx]
			coeffs, order := b.Table.GetAk(offsetI+aIdx, offsetO+bIdx)
			if order == 0 {
				continue
			}
			if order > mMax {
				mMax = order
			}
			for c := 0; c < b.Table.NChannels; c++ {
				for k := 0; k < order; k++ {
					ak[c*b.Table.MMax+k] += weight * coeffs[c*order+k]
				}
			}
		}
	}
	if mMax == 0 {
		return geom.Vec3{}, 0, spectrum.Black, b.Flags()
	}

	y, pdfPhi, phi := sampleFourier(ak[:mMax], b.Table.Recip, mMax, u[0])
	pdf := math.Max(0, pdfPhi*pdfMu)
	if pdf == 0 {
		return geom.Vec3{}, 0, spectrum.Black, b.Flags()
	}

	sin2ThetaI := math.Max(0, 1-muI*muI)
	norm := math.Sqrt(sin2ThetaI / Sin2Theta(wo))
	if math.IsInf(norm, 0) || math.IsNaN(norm) {
		norm = 0
	}
	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
	wi := geom.New(
		norm*(cosPhi*wo.X-sinPhi*wo.Y),
		norm*(sinPhi*wo.X+cosPhi*wo.Y),
		muI,
	).Negate().Normalize()

	scale := 0.0
	if muI != 0 {
		scale = 1 / math.Abs(muI)
	}
	if b.Radiance && muI*muO > 0 {
		eta := b.Table.Eta
		if muI > 0 {
			eta = 1 / eta
		}
		scale *= eta * eta
	}

	var val spectrum.Spectrum
	if b.Table.NChannels == 1 {
		val = spectrum.Gray(y * scale)
	} else {
		r := fourierSeries(ak[b.Table.MMax:b.Table.MMax+mMax], mMax, math.Cos(phi))
		bl := fourierSeries(ak[2*b.Table.MMax:2*b.Table.MMax+mMax], mMax, math.Cos(phi))
		g := 1.39829*y - 0.100913*bl - 0.297375*r
		val = spectrum.New(r*scale, math.Max(0, g*scale), bl*scale).Clamp(0, math.Inf(1))
	}

	return wi, pdf, val, b.Flags()
}
