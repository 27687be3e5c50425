package film

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// Tile is a rectangular, non-overlapping block of pixels — the
// teacher's Tile (referenced by pkg/renderer/tile_renderer.go's
// RenderTileBounds) expressed as plain bounds instead of an
// image.Rectangle, since Film tracks its own pixel grid.
type Tile struct {
	MinX, MinY, MaxX, MaxY int
}

// tiles partitions a width x height image into tileSize x tileSize
// blocks, clipped at the image edges.
func tiles(width, height, tileSize int) []Tile {
	if tileSize <= 0 {
		tileSize = width
	}
	var out []Tile
	for y := 0; y < height; y += tileSize {
		for x := 0; x < width; x += tileSize {
			maxX, maxY := x+tileSize, y+tileSize
			if maxX > width {
				maxX = width
			}
			if maxY > height {
				maxY = height
			}
			out = append(out, Tile{MinX: x, MinY: y, MaxX: maxX, MaxY: maxY})
		}
	}
	return out
}

// RenderTiles partitions the film into tiles and runs render on each
// one concurrently, replacing the teacher's WorkerPool/Worker
// channel plumbing (pkg/renderer/worker_pool.go) with
// errgroup.Group's SetLimit + context cancellation: a render error on
// any tile cancels ctx and RenderTiles returns that error once every
// in-flight tile finishes. maxParallel <= 0 means unlimited (bounded
// only by GOMAXPROCS-driven goroutine scheduling).
//
// Each tile gets its own *rand.Rand seeded from seed and the tile's
// index, so reruns with the same seed are reproducible regardless of
// how many tiles run concurrently.
func (f *Film) RenderTiles(ctx context.Context, tileSize, maxParallel int, seed int64, render func(ctx context.Context, tile Tile, rng *rand.Rand) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if maxParallel > 0 {
		g.SetLimit(maxParallel)
	}

	for i, tile := range tiles(f.Width, f.Height, tileSize) {
		tile := tile
		rng := rand.New(rand.NewSource(seed + int64(i)))
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return render(ctx, tile, rng)
		})
	}

	return g.Wait()
}
