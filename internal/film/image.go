package film

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/kjellstrom/lumenpath/internal/spectrum"
)

// WriteImage resolves the accumulated samples and splats into a PNG,
// the teacher's Raytracer.RenderImage/vec3ToColor
// (pkg/renderer/raytracer.go) generalized to also fold in MLT's splat
// buffer. splatNorm is MLT's b/MutationsPerPixel normalization factor
// (internal/mlt.Integrator.Render's return value); pass 0 when the
// film only holds BDPT per-pixel samples.
func (f *Film) WriteImage(w io.Writer, splatNorm, gamma float64) error {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))

	var splats [][]spectrum.Spectrum
	if splatNorm > 0 {
		splats = f.splatSum()
	}

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := f.pixels[y][x].Color()
			if splats != nil {
				c = c.Add(splats[y][x].Scale(splatNorm))
			}
			img.Set(x, y, toRGBA(c, gamma))
		}
	}

	return png.Encode(w, img)
}

// toRGBA clamps to [0,1], applies gamma correction, and quantizes to
// 8 bits per channel — the teacher's vec3ToColor (gamma = 2.0 by
// default there too).
func toRGBA(c spectrum.Spectrum, gamma float64) color.RGBA {
	c = c.Clamp(0, 1)
	if gamma > 0 {
		c = spectrum.New(math.Pow(c.R, 1/gamma), math.Pow(c.G, 1/gamma), math.Pow(c.B, 1/gamma))
	}
	return color.RGBA{
		R: uint8(c.R*255 + 0.5),
		G: uint8(c.G*255 + 0.5),
		B: uint8(c.B*255 + 0.5),
		A: 255,
	}
}
