package imaging

import (
	"image"
	"image/color"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

var filters = map[string]imaging.ResampleFilter{
	"point":    imaging.NearestNeighbor,
	"box":      imaging.Box,
	"triangle": imaging.Linear,
	"hermite":  imaging.Hermite,
	"hann":     imaging.Hann,
	"hamming":  imaging.Hamming,
	"blackman": imaging.Blackman,
	"gaussian": imaging.Gaussian,
	"cubic":    imaging.BSpline,
	"spline":   imaging.BSpline,
	"catrom":   imaging.CatmullRom,
	"mitchell": imaging.MitchellNetravali,
	"lanczos":  imaging.Lanczos,
	"bartlett": imaging.Bartlett,
	"welch":    imaging.Welch,
	"cosine":   imaging.Cosine,
}

// Filter returns the resampling filter for a -filter keyword. Unknown or
// empty names select Lanczos.
func Filter(name string) imaging.ResampleFilter {
	if f, ok := filters[strings.ToLower(name)]; ok {
		return f
	}
	return imaging.Lanczos
}

// Resize resamples to exactly w×h with the named filter.
func Resize(img *image.NRGBA, w, h int, filter string) *image.NRGBA {
	return imaging.Resize(img, w, h, Filter(filter))
}

// Sample resizes by pixel replication, introducing no new colors.
func Sample(img *image.NRGBA, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// Scale resizes by box averaging.
func Scale(img *image.NRGBA, w, h int) *image.NRGBA {
	return imaging.Resize(img, w, h, imaging.Box)
}

// AdaptiveResize resizes with bilinear interpolation, which avoids the
// ringing of sharper filters on small changes.
func AdaptiveResize(img *image.NRGBA, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// Thumbnail resizes and crops to fill w×h.
func Thumbnail(img *image.NRGBA, w, h int) *image.NRGBA {
	return imaging.Thumbnail(img, w, h, imaging.Box)
}

// Rotate rotates clockwise by degrees, filling uncovered corners with bg.
func Rotate(img *image.NRGBA, degrees float64, bg color.NRGBA) *image.NRGBA {
	return imaging.Rotate(img, -degrees, bg)
}

// Flip mirrors top to bottom.
func Flip(img *image.NRGBA) *image.NRGBA { return imaging.FlipV(img) }

// Flop mirrors left to right.
func Flop(img *image.NRGBA) *image.NRGBA { return imaging.FlipH(img) }

// Transpose mirrors along the top-left to bottom-right diagonal.
func Transpose(img *image.NRGBA) *image.NRGBA { return imaging.Transpose(img) }

// Transverse mirrors along the bottom-left to top-right diagonal.
func Transverse(img *image.NRGBA) *image.NRGBA { return imaging.Transverse(img) }

// Shear slants the image by xDeg along X and then yDeg along Y. The grown
// canvas is filled with bg.
func Shear(img *image.NRGBA, xDeg, yDeg float64, bg color.NRGBA) *image.NRGBA {
	var out image.Image = img
	if xDeg != 0 {
		out = transform.ShearH(out, xDeg)
	}
	if yDeg != 0 {
		out = transform.ShearV(out, yDeg)
	}
	b := out.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, out, image.Pt(0, 0), 1.0)
}

// Roll shifts the image by (dx, dy) with wrap-around.
func Roll(img *image.NRGBA, dx, dy int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	for y := 0; y < h; y++ {
		ty := ((y+dy)%h + h) % h
		for x := 0; x < w; x++ {
			tx := ((x+dx)%w + w) % w
			dst.SetNRGBA(tx, ty, img.NRGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// Extent places the image on a w×h canvas of bg, with its top-left corner
// at (-x, -y) on the canvas.
func Extent(img *image.NRGBA, w, h, x, y int, bg color.NRGBA) *image.NRGBA {
	canvas := imaging.New(w, h, bg)
	return imaging.Overlay(canvas, img, image.Pt(-x, -y), 1.0)
}

// Splice inserts bg colored columns and rows: r.Dx() columns at r.Min.X
// and r.Dy() rows at r.Min.Y.
func Splice(img *image.NRGBA, r image.Rectangle, bg color.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	sx, sy := clamp(r.Min.X, 0, w), clamp(r.Min.Y, 0, h)
	dst := imaging.New(w+r.Dx(), h+r.Dy(), bg)
	for y := 0; y < h; y++ {
		ty := y
		if y >= sy {
			ty += r.Dy()
		}
		for x := 0; x < w; x++ {
			tx := x
			if x >= sx {
				tx += r.Dx()
			}
			dst.SetNRGBA(tx, ty, img.NRGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// Border surrounds the image with bw columns and bh rows of c, composed
// over the border with the image's own alpha.
func Border(img *image.NRGBA, bw, bh int, c color.NRGBA) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx()+2*bw, b.Dy()+2*bh, c)
	return imaging.Overlay(canvas, img, image.Pt(bw, bh), 1.0)
}

// Raise lightens the top and left edge bands and darkens the bottom and
// right ones, giving a raised button look; lowered swaps them.
func Raise(img *image.NRGBA, bw, bh int, raised bool) *image.NRGBA {
	dst := imaging.Clone(img)
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	light, dark := 0.6, -0.5
	if !raised {
		light, dark = dark, light
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var amt float64
			switch {
			case y < bh && x < w-y:
				amt = light
			case x < bw && y < h-x:
				amt = light
			case y >= h-bh || x >= w-bw:
				amt = dark
			default:
				continue
			}
			dst.SetNRGBA(x, y, shade(dst.NRGBAAt(x, y), amt))
		}
	}
	return dst
}

// Frame adds a matte colored border of w×h with a bevel of width bevel on
// both its outer and inner edges.
func Frame(img *image.NRGBA, w, h, bevel int, matte color.NRGBA) *image.NRGBA {
	framed := Border(img, w, h, matte)
	if bevel <= 0 {
		return framed
	}
	framed = Raise(framed, bevel, bevel, true)
	b := framed.Bounds()
	inner := image.Rect(w-bevel, h-bevel, b.Dx()-w+bevel, b.Dy()-h+bevel).Intersect(b)
	if inner.Empty() {
		return framed
	}
	lowered := Raise(imaging.Crop(framed, inner), bevel, bevel, false)
	return imaging.Paste(framed, lowered, inner.Min)
}

// shade moves c toward white (amt > 0) or black (amt < 0).
func shade(c color.NRGBA, amt float64) color.NRGBA {
	f := func(v uint8) uint8 {
		if amt >= 0 {
			return clampUint8(float64(v) + (255-float64(v))*amt)
		}
		return clampUint8(float64(v) * (1 + amt))
	}
	return color.NRGBA{R: f(c.R), G: f(c.G), B: f(c.B), A: c.A}
}
