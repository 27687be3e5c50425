package film

import (
	"bytes"
	"context"
	"image/png"
	"math/rand"
	"testing"

	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

func TestFilm_AddSampleAverages(t *testing.T) {
	f := New(4, 4)
	f.AddSample(1, 1, spectrum.Gray(0.2))
	f.AddSample(1, 1, spectrum.Gray(0.6))

	got := f.pixels[1][1].Color()
	if want := spectrum.Gray(0.4); got.Sub(want).Luminance() > 1e-9 {
		t.Errorf("average color = %v, want %v", got, want)
	}
}

func TestFilm_AddSplatOutOfBoundsIgnored(t *testing.T) {
	f := New(4, 4)
	f.AddSplat(-1, 0, spectrum.Gray(1))
	f.AddSplat(0, 4, spectrum.Gray(1))
	if len(f.splats) != 0 {
		t.Errorf("out-of-bounds splats should be dropped, got %d recorded", len(f.splats))
	}
}

func TestFilm_RenderTilesCoversEveryPixelExactlyOnce(t *testing.T) {
	f := New(10, 7)
	var total int
	err := f.RenderTiles(context.Background(), 3, 4, 1, func(ctx context.Context, tile Tile, rng *rand.Rand) error {
		for y := tile.MinY; y < tile.MaxY; y++ {
			for x := tile.MinX; x < tile.MaxX; x++ {
				f.AddSample(x, y, spectrum.Gray(1))
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RenderTiles returned error: %v", err)
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if f.pixels[y][x].SampleCount != 1 {
				t.Fatalf("pixel (%d,%d) sampled %d times, want exactly 1", x, y, f.pixels[y][x].SampleCount)
			}
			total++
		}
	}
	if total != 70 {
		t.Errorf("expected 70 pixels covered, got %d", total)
	}
}

func TestFilm_WriteImageProducesValidPNG(t *testing.T) {
	f := New(2, 2)
	f.AddSample(0, 0, spectrum.Gray(0.5))

	var buf bytes.Buffer
	if err := f.WriteImage(&buf, 0, 2.0); err != nil {
		t.Fatalf("WriteImage failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding written PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("decoded image size = %v, want 2x2", b)
	}
}
