package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Canvas returns a w×h image filled with c.
func Canvas(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

// Gradient returns a vertical gradient from top to bottom, blended in
// RGB.
func Gradient(w, h int, top, bottom color.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	ct, _ := colorful.MakeColor(opaque(top))
	cb, _ := colorful.MakeColor(opaque(bottom))
	for y := 0; y < h; y++ {
		t := 0.0
		if h > 1 {
			t = float64(y) / float64(h-1)
		}
		r, g, b := ct.BlendRgb(cb, t).Clamped().RGB255()
		a := clampUint8(float64(top.A)*(1-t) + float64(bottom.A)*t)
		c := color.NRGBA{R: r, G: g, B: b, A: a}
		for x := 0; x < w; x++ {
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}

// Checkerboard returns a w×h gray checkerboard of 15 pixel squares.
func Checkerboard(w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	light := color.NRGBA{R: 0xBF, G: 0xBF, B: 0xBF, A: 255}
	dark := color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := light
			if (x/15+y/15)%2 == 1 {
				c = dark
			}
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}

// Tile repeats pattern across a w×h canvas starting at the origin.
func Tile(pattern *image.NRGBA, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	pw, ph := pattern.Bounds().Dx(), pattern.Bounds().Dy()
	if pw == 0 || ph == 0 {
		return dst
	}
	for y := 0; y < h; y += ph {
		for x := 0; x < w; x += pw {
			dst = imaging.Paste(dst, pattern, image.Pt(x, y))
		}
	}
	return dst
}

// Rose returns the built-in 70×46 sample image: a red five petal flower
// on a green background. The image is the same on every call.
func Rose() *image.NRGBA {
	const w, h = 70, 46
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := (float64(x)+0.5-cx)/cx, (float64(y)+0.5-cy)/cy
			r := math.Hypot(dx, dy)
			theta := math.Atan2(dy, dx)
			petal := 0.55 + 0.3*math.Abs(math.Cos(2.5*theta))
			var c colorful.Color
			if r < petal {
				c = colorful.Hsl(355, 0.8, 0.25+0.35*(1-r/petal))
			} else {
				c = colorful.Hsl(110, 0.45, 0.2+0.15*float64(y)/h)
			}
			cr, cg, cb := c.Clamped().RGB255()
			dst.SetNRGBA(x, y, color.NRGBA{R: cr, G: cg, B: cb, A: 255})
		}
	}
	return dst
}
