// Package film accumulates per-pixel samples and Metropolis splats
// into a final image (spec.md §4.K). It is grounded on the teacher's
// pkg/renderer package: PixelAccum generalizes PixelStats
// (pkg/renderer/raytracer.go), and splat storage generalizes
// SplatQueue (pkg/renderer/splat_queue.go) down to what
// internal/mlt.Splatter needs. Tile dispatch (tile.go) replaces the
// teacher's hand-rolled channel-based WorkerPool
// (pkg/renderer/worker_pool.go) with golang.org/x/sync/errgroup's
// bounded, context-aware fan-out.
package film

import (
	"sync"

	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// PixelAccum tracks the running average color for one pixel —
// pkg/renderer.PixelStats trimmed to what BDPT's integrator needs
// (no adaptive-sampling variance tracking; spec.md §4.I samples a
// fixed count per pixel).
type PixelAccum struct {
	ColorAccum  spectrum.Spectrum
	SampleCount int
}

func (p *PixelAccum) AddSample(c spectrum.Spectrum) {
	p.ColorAccum = p.ColorAccum.Add(c)
	p.SampleCount++
}

// Color returns the pixel's current average, or black if unsampled.
func (p *PixelAccum) Color() spectrum.Spectrum {
	if p.SampleCount == 0 {
		return spectrum.Black
	}
	return p.ColorAccum.Scale(1 / float64(p.SampleCount))
}

type splat struct {
	X, Y  int
	Color spectrum.Spectrum
}

// Film is the render target shared by every tile worker. Per-pixel
// samples (from BDPT, one tile per worker, disjoint bounds) need no
// locking; splats (from MLT, landing on an arbitrary pixel from any
// chain) go through splatMu, mirroring SplatQueue's single mutex.
type Film struct {
	Width, Height int

	pixels [][]PixelAccum // [y][x]

	splatMu sync.Mutex
	splats  []splat
}

func New(width, height int) *Film {
	pixels := make([][]PixelAccum, height)
	for y := range pixels {
		pixels[y] = make([]PixelAccum, width)
	}
	return &Film{Width: width, Height: height, pixels: pixels}
}

// AddSample records one BDPT path-tracing sample at pixel (x,y). Only
// safe to call from a tile worker that owns (x,y) — see RenderTiles.
func (f *Film) AddSample(x, y int, c spectrum.Spectrum) {
	f.pixels[y][x].AddSample(c)
}

// AddSplat records one MLT mutation's contribution to an arbitrary
// pixel, satisfying internal/mlt.Splatter. Safe to call concurrently
// from every chain.
func (f *Film) AddSplat(x, y int, c spectrum.Spectrum) {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return
	}
	f.splatMu.Lock()
	f.splats = append(f.splats, splat{X: x, Y: y, Color: c})
	f.splatMu.Unlock()
}

// splatSum folds every recorded splat into a dense per-pixel grid,
// called once at image resolve time (WriteImage).
func (f *Film) splatSum() [][]spectrum.Spectrum {
	sum := make([][]spectrum.Spectrum, f.Height)
	for y := range sum {
		sum[y] = make([]spectrum.Spectrum, f.Width)
	}

	f.splatMu.Lock()
	defer f.splatMu.Unlock()
	for _, s := range f.splats {
		sum[s.Y][s.X] = sum[s.Y][s.X].Add(s.Color)
	}
	return sum
}
