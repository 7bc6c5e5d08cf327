package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/noise"
	"github.com/disintegration/imaging"
)

// Blur smooths with a Gaussian of the given sigma.
func Blur(img *image.NRGBA, sigma float64) *image.NRGBA {
	if sigma <= 0 {
		return imaging.Clone(img)
	}
	return imaging.Blur(img, sigma)
}

// GaussianBlur blurs using a kernel of the given radius. A zero radius is
// derived from sigma.
func GaussianBlur(img *image.NRGBA, radius, sigma float64) *image.NRGBA {
	if radius <= 0 {
		radius = math.Ceil(2 * sigma)
	}
	if radius <= 0 {
		return imaging.Clone(img)
	}
	return keepAlpha(img, blur.Gaussian(img, radius))
}

// MotionBlur smears along angle (degrees) over radius pixels.
func MotionBlur(img *image.NRGBA, radius, angle float64) *image.NRGBA {
	n := int(math.Ceil(radius))
	if n <= 0 {
		return imaging.Clone(img)
	}
	dx, dy := math.Cos(angle*math.Pi/180), math.Sin(angle*math.Pi/180)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, bl, a float64
			for i := 0; i <= n; i++ {
				sx := clamp(x-int(math.Round(float64(i)*dx)), 0, w-1)
				sy := clamp(y-int(math.Round(float64(i)*dy)), 0, h-1)
				c := img.NRGBAAt(b.Min.X+sx, b.Min.Y+sy)
				r += float64(c.R)
				g += float64(c.G)
				bl += float64(c.B)
				a += float64(c.A)
			}
			k := float64(n + 1)
			dst.SetNRGBA(x, y, color.NRGBA{R: clampUint8(r / k), G: clampUint8(g / k), B: clampUint8(bl / k), A: clampUint8(a / k)})
		}
	}
	return dst
}

// edgeWeights returns a per-pixel 0-1 edge strength from a Sobel pass.
func edgeWeights(img *image.NRGBA) []float64 {
	sob := effect.Sobel(effect.Grayscale(img))
	b := sob.Bounds()
	weights := make([]float64, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			weights[y*b.Dx()+x] = float64(sob.Pix[sob.PixOffset(b.Min.X+x, b.Min.Y+y)]) / 255
		}
	}
	return weights
}

// mixBy mixes a and b per pixel; weight 0 keeps a, 1 takes b.
func mixBy(a, b *image.NRGBA, weight func(i int) float64) *image.NRGBA {
	dst := imaging.Clone(a)
	for i := 0; i+3 < len(dst.Pix) && i+3 < len(b.Pix); i += 4 {
		t := weight(i / 4)
		for k := 0; k < 4; k++ {
			dst.Pix[i+k] = clampUint8(float64(a.Pix[i+k])*(1-t) + float64(b.Pix[i+k])*t)
		}
	}
	return dst
}

// AdaptiveBlur blurs less near edges.
func AdaptiveBlur(img *image.NRGBA, sigma float64) *image.NRGBA {
	blurred := Blur(img, sigma)
	w := edgeWeights(img)
	return mixBy(img, blurred, func(i int) float64 { return 1 - w[i] })
}

// AdaptiveSharpen sharpens more near edges.
func AdaptiveSharpen(img *image.NRGBA, sigma float64) *image.NRGBA {
	sharp := Sharpen(img, sigma)
	w := edgeWeights(img)
	return mixBy(img, sharp, func(i int) float64 { return w[i] })
}

// Sharpen sharpens with the given Gaussian sigma.
func Sharpen(img *image.NRGBA, sigma float64) *image.NRGBA {
	if sigma <= 0 {
		return keepAlpha(img, effect.Sharpen(img))
	}
	return imaging.Sharpen(img, sigma)
}

// Unsharp applies an unsharp mask.
func Unsharp(img *image.NRGBA, radius, amount float64) *image.NRGBA {
	if radius <= 0 {
		radius = 1
	}
	if amount <= 0 {
		amount = 1
	}
	return keepAlpha(img, effect.UnsharpMask(img, radius, amount))
}

// Emboss gives a relief look.
func Emboss(img *image.NRGBA) *image.NRGBA {
	return keepAlpha(img, effect.Emboss(img))
}

// Edge highlights edges found within radius.
func Edge(img *image.NRGBA, radius float64) *image.NRGBA {
	if radius <= 0 {
		radius = 1
	}
	return keepAlpha(img, effect.EdgeDetection(img, radius))
}

// Charcoal simulates a charcoal drawing: inverted edges of the grayscale
// image, normalized and blurred lightly.
func Charcoal(img *image.NRGBA, radius, sigma float64) *image.NRGBA {
	out := Edge(Grayscale(img, ""), radius)
	out = Blur(out, sigma)
	out = Normalize(out, RGB)
	out = Negate(out, false, RGB)
	return Grayscale(out, "")
}

// Median replaces each pixel with the median of its neighbourhood.
func Median(img *image.NRGBA, radius float64) *image.NRGBA {
	if radius <= 0 {
		radius = 1
	}
	return keepAlpha(img, effect.Median(img, radius))
}

// Despeckle removes speckle noise with a small median filter.
func Despeckle(img *image.NRGBA) *image.NRGBA {
	return Median(img, 1)
}

// Implode pulls pixels toward (amount > 0) or away from the center.
func Implode(img *image.NRGBA, amount float64, bg color.NRGBA) *image.NRGBA {
	return warp(img, bg, func(dx, dy, r, radius float64) (float64, float64) {
		if r >= radius || r == 0 {
			return dx, dy
		}
		f := math.Pow(math.Sin(math.Pi*r/radius/2), -amount)
		return dx * f, dy * f
	})
}

// Swirl rotates pixels around the center, more near the middle.
func Swirl(img *image.NRGBA, degrees float64, bg color.NRGBA) *image.NRGBA {
	return warp(img, bg, func(dx, dy, r, radius float64) (float64, float64) {
		if r >= radius {
			return dx, dy
		}
		f := 1 - r/radius
		a := degrees * math.Pi / 180 * f * f
		s, c := math.Sin(a), math.Cos(a)
		return c*dx - s*dy, s*dx + c*dy
	})
}

// Wave displaces columns vertically along a sine wave. The canvas grows by
// twice the amplitude.
func Wave(img *image.NRGBA, amplitude, wavelength float64, bg color.NRGBA) *image.NRGBA {
	if wavelength == 0 {
		wavelength = 1
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	amp := int(math.Ceil(math.Abs(amplitude)))
	dst := imaging.New(w, h+2*amp, bg)
	for x := 0; x < w; x++ {
		off := amplitude * math.Sin(2*math.Pi*float64(x)/wavelength)
		for y := 0; y < dst.Bounds().Dy(); y++ {
			sy := int(math.Round(float64(y-amp) - off))
			if sy < 0 || sy >= h {
				continue
			}
			dst.SetNRGBA(x, y, img.NRGBAAt(b.Min.X+x, b.Min.Y+sy))
		}
	}
	return dst
}

// warp resamples img through an inverse mapping expressed relative to the
// image center.
func warp(img *image.NRGBA, bg color.NRGBA, fn func(dx, dy, r, radius float64) (float64, float64)) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	cx, cy := float64(w)/2, float64(h)/2
	radius := math.Min(cx, cy)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			sx, sy := fn(dx, dy, math.Hypot(dx, dy), radius)
			px, py := int(math.Floor(sx+cx)), int(math.Floor(sy+cy))
			if px < 0 || py < 0 || px >= w || py >= h {
				dst.SetNRGBA(x, y, bg)
				continue
			}
			dst.SetNRGBA(x, y, img.NRGBAAt(b.Min.X+px, b.Min.Y+py))
		}
	}
	return dst
}

// Spread moves each pixel to a random neighbour within radius.
func Spread(img *image.NRGBA, radius float64, rng *rand.Rand) *image.NRGBA {
	n := int(math.Ceil(radius))
	if n <= 0 {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := clamp(x+rng.Intn(2*n+1)-n, 0, w-1)
			sy := clamp(y+rng.Intn(2*n+1)-n, 0, h-1)
			dst.SetNRGBA(x, y, img.NRGBAAt(b.Min.X+sx, b.Min.Y+sy))
		}
	}
	return dst
}

// NoiseTypes lists the noise distributions AddNoise accepts.
var NoiseTypes = []string{"Uniform", "Gaussian", "Impulse", "Laplacian", "Multiplicative", "Poisson", "Random"}

// AddNoise adds noise of the named type scaled by attenuate. rng must not
// be nil; it is the source for every random draw.
func AddNoise(img *image.NRGBA, kind string, attenuate float64, rng *rand.Rand) (*image.NRGBA, error) {
	var mu sync.Mutex
	draw := func(fn func() float64) noise.Fn {
		return func() uint8 {
			mu.Lock()
			defer mu.Unlock()
			return clampUint8(128 + fn()*attenuate)
		}
	}
	var fn noise.Fn
	impulse := false
	switch strings.ToLower(kind) {
	case "uniform", "random":
		fn = draw(func() float64 { return (rng.Float64() - 0.5) * 64 })
	case "gaussian", "multiplicative":
		fn = draw(func() float64 { return rng.NormFloat64() * 16 })
	case "laplacian":
		fn = draw(func() float64 { return rng.ExpFloat64() * 16 * float64(rng.Intn(2)*2-1) })
	case "poisson":
		fn = draw(func() float64 { return (rng.ExpFloat64() - 1) * 24 })
	case "impulse":
		impulse = true
		fn = draw(func() float64 {
			switch p := rng.Float64(); {
			case p < 0.05:
				return -255
			case p > 0.95:
				return 255
			}
			return 0
		})
	default:
		return nil, fmt.Errorf("unrecognized noise type %q", kind)
	}
	b := img.Bounds()
	field := noise.Generate(b.Dx(), b.Dy(), &noise.Options{NoiseFn: fn, Monochrome: impulse})
	dst := imaging.Clone(img)
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		for k := 0; k < 3; k++ {
			dst.Pix[i+k] = clampUint8(float64(dst.Pix[i+k]) + float64(field.Pix[i+k]) - 128)
		}
	}
	return dst, nil
}

// MorphologyMethods lists the methods Morphology accepts.
var MorphologyMethods = []string{
	"Dilate", "Erode", "Open", "Close", "EdgeIn", "EdgeOut", "Edge",
	"TopHat", "BottomHat", "Smooth",
}

// Morphology applies a morphology method with a disk kernel of the given
// radius, iterations times. Negative iterations mean one pass per radius
// unit.
func Morphology(img *image.NRGBA, method string, radius float64, iterations int) (*image.NRGBA, error) {
	if radius <= 0 {
		radius = 1
	}
	if iterations < 0 {
		iterations = int(math.Max(1, radius))
	}
	if iterations == 0 {
		return imaging.Clone(img), nil
	}
	repeat := func(fn func(image.Image, float64) *image.RGBA, src image.Image) *image.NRGBA {
		out := src
		for i := 0; i < iterations; i++ {
			out = fn(out, radius)
		}
		return keepAlpha(img, out)
	}
	dilate := func() *image.NRGBA { return repeat(effect.Dilate, img) }
	erode := func() *image.NRGBA { return repeat(effect.Erode, img) }
	open := func() *image.NRGBA { return repeat(effect.Dilate, erode()) }
	closed := func() *image.NRGBA { return repeat(effect.Erode, dilate()) }
	// blend.Subtract takes the background first and returns fg - bg.
	sub := func(a, b *image.NRGBA) *image.NRGBA { return keepAlpha(img, blend.Subtract(b, a)) }

	switch strings.ToLower(method) {
	case "dilate":
		return dilate(), nil
	case "erode":
		return erode(), nil
	case "open":
		return open(), nil
	case "close":
		return closed(), nil
	case "edgein":
		return sub(img, erode()), nil
	case "edgeout":
		return sub(dilate(), img), nil
	case "edge":
		return sub(dilate(), erode()), nil
	case "tophat":
		return sub(img, open()), nil
	case "bottomhat":
		return sub(closed(), img), nil
	case "smooth":
		return repeat(effect.Erode, repeat(effect.Dilate, open())), nil
	}
	return nil, fmt.Errorf("unrecognized morphology method %q", method)
}
