package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// Quantize reduces the image to at most n colors. The palette is built
// from the most frequent color buckets. With dither set, Floyd-Steinberg
// error diffusion is applied.
func Quantize(img *image.NRGBA, n int, dither bool) *image.NRGBA {
	if n <= 0 || CountColors(img) <= n {
		return imaging.Clone(img)
	}
	freq := DominantColors(img, n)
	palette := make(color.Palette, 0, len(freq))
	for _, f := range freq {
		palette = append(palette, f.Color)
	}
	return Remap(img, palette, dither)
}

// Remap maps every pixel to its nearest palette entry.
func Remap(img *image.NRGBA, palette color.Palette, dither bool) *image.NRGBA {
	b := img.Bounds()
	pal := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette)
	var drawer xdraw.Drawer = xdraw.Src
	if dither {
		drawer = xdraw.FloydSteinberg
	}
	drawer.Draw(pal, pal.Bounds(), img, b.Min)
	return imaging.Clone(pal)
}

// Palette returns the distinct colors of the image, up to limit.
func Palette(img *image.NRGBA, limit int) color.Palette {
	var out color.Palette
	for _, f := range DominantColors(img, limit) {
		out = append(out, f.Color)
	}
	return out
}
