package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// mapChannels applies fn to the selected channels of every pixel.
func mapChannels(img *image.NRGBA, ch Channels, fn func(v uint8) uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if ch&Red != 0 {
			c.R = fn(c.R)
		}
		if ch&Green != 0 {
			c.G = fn(c.G)
		}
		if ch&Blue != 0 {
			c.B = fn(c.B)
		}
		if ch&Alpha != 0 {
			c.A = fn(c.A)
		}
		return c
	})
}

func lut(fn func(v float64) float64) [256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = clampUint8(fn(float64(i)))
	}
	return t
}

// Gamma applies gamma correction; values above 1 lighten.
func Gamma(img *image.NRGBA, gamma float64, ch Channels) *image.NRGBA {
	if ch&RGB == RGB && ch&Alpha == 0 {
		return imaging.AdjustGamma(img, gamma)
	}
	t := lut(func(v float64) float64 { return 255 * math.Pow(v/255, 1/gamma) })
	return mapChannels(img, ch, func(v uint8) uint8 { return t[v] })
}

// Level maps black..white (0-255 scale) onto the full range with a
// midtone gamma. With invert set the full range is compressed into
// black..white instead.
func Level(img *image.NRGBA, black, white, gamma float64, invert bool, ch Channels) *image.NRGBA {
	if gamma <= 0 {
		gamma = 1
	}
	span := white - black
	if span == 0 {
		span = 1
	}
	var t [256]uint8
	if invert {
		t = lut(func(v float64) float64 {
			return black + math.Pow(v/255, gamma)*span
		})
	} else {
		t = lut(func(v float64) float64 {
			n := (v - black) / span
			if n <= 0 {
				return 0
			}
			return 255 * math.Pow(n, 1/gamma)
		})
	}
	return mapChannels(img, ch, func(v uint8) uint8 { return t[v] })
}

// Contrast enhances (sharpen) or reduces the contrast a notch.
func Contrast(img *image.NRGBA, sharpen bool) *image.NRGBA {
	if sharpen {
		return imaging.AdjustSigmoid(img, 0.5, 3)
	}
	return imaging.AdjustSigmoid(img, 0.5, -3)
}

// BrightnessContrast shifts brightness and contrast by percentages in
// -100..100.
func BrightnessContrast(img *image.NRGBA, brightness, contrast float64) *image.NRGBA {
	out := img
	if brightness != 0 {
		out = imaging.AdjustBrightness(out, brightness)
	}
	if contrast != 0 {
		out = imaging.AdjustContrast(out, contrast)
	}
	if out == img {
		out = imaging.Clone(img)
	}
	return out
}

// SigmoidalContrast adjusts contrast with a sigmoid curve centred on
// midpoint (0-1). Inverse reduces contrast.
func SigmoidalContrast(img *image.NRGBA, contrast, midpoint float64, inverse bool) *image.NRGBA {
	if inverse {
		contrast = -contrast
	}
	return imaging.AdjustSigmoid(img, midpoint, contrast)
}

// Modulate scales brightness and saturation and rotates hue. Each
// argument is a percentage where 100 leaves the channel unchanged; hue
// 0 and 200 are both a half turn.
func Modulate(img *image.NRGBA, brightness, saturation, hue float64) *image.NRGBA {
	var out image.Image = img
	if brightness != 100 {
		out = adjust.Brightness(out, (brightness-100)/100)
	}
	if saturation != 100 {
		out = adjust.Saturation(out, (saturation-100)/100)
	}
	if hue != 100 {
		out = adjust.Hue(out, int(math.Round((hue-100)*1.8)))
	}
	return keepAlpha(img, out)
}

// Negate inverts the selected channels. With grayOnly set only pixels
// whose red, green and blue are equal are touched.
func Negate(img *image.NRGBA, grayOnly bool, ch Channels) *image.NRGBA {
	if !grayOnly && ch == RGB {
		return imaging.Invert(img)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if grayOnly && !(c.R == c.G && c.G == c.B) {
			return c
		}
		if ch&Red != 0 {
			c.R = 255 - c.R
		}
		if ch&Green != 0 {
			c.G = 255 - c.G
		}
		if ch&Blue != 0 {
			c.B = 255 - c.B
		}
		if ch&Alpha != 0 {
			c.A = 255 - c.A
		}
		return c
	})
}

// ContrastStretch stretches intensities so that blackPct percent of the
// pixels become black and whitePct percent become white.
func ContrastStretch(img *image.NRGBA, blackPct, whitePct float64, ch Channels) *image.NRGBA {
	hist := imaging.Histogram(img)
	black, white := 0.0, 255.0
	acc := 0.0
	for i := 0; i < 256; i++ {
		acc += hist[i] * 100
		if acc > blackPct {
			black = float64(i)
			break
		}
	}
	acc = 0
	for i := 255; i >= 0; i-- {
		acc += hist[i] * 100
		if acc > whitePct {
			white = float64(i)
			break
		}
	}
	if white <= black {
		return imaging.Clone(img)
	}
	return Level(img, black, white, 1, false, ch)
}

// Normalize stretches the range leaving 2% black and 1% white.
func Normalize(img *image.NRGBA, ch Channels) *image.NRGBA {
	return ContrastStretch(img, 2, 1, ch)
}

// AutoLevel stretches the full range of the image to 0-255.
func AutoLevel(img *image.NRGBA, ch Channels) *image.NRGBA {
	return ContrastStretch(img, 0, 0, ch)
}

// AutoGamma picks the gamma that moves the mean intensity to mid-gray.
func AutoGamma(img *image.NRGBA, ch Channels) *image.NRGBA {
	hist := imaging.Histogram(img)
	mean := 0.0
	for i, f := range hist {
		mean += f * float64(i) / 255
	}
	if mean <= 0 || mean >= 1 {
		return imaging.Clone(img)
	}
	return Gamma(img, math.Log(mean)/math.Log(0.5), ch)
}

// Equalize flattens the histogram of each color channel.
func Equalize(img *image.NRGBA, ch Channels) *image.NRGBA {
	hist := histogram.NewRGBAHistogram(img).Cumulative()
	total := float64(img.Bounds().Dx() * img.Bounds().Dy())
	if total == 0 {
		return imaging.Clone(img)
	}
	table := func(h histogram.Histogram) [256]uint8 {
		var t [256]uint8
		for i := range t {
			if i < len(h.Bins) {
				t[i] = clampUint8(float64(h.Bins[i]) / total * 255)
			}
		}
		return t
	}
	tr, tg, tb := table(hist.R), table(hist.G), table(hist.B)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if ch&Red != 0 {
			c.R = tr[c.R]
		}
		if ch&Green != 0 {
			c.G = tg[c.G]
		}
		if ch&Blue != 0 {
			c.B = tb[c.B]
		}
		return c
	})
}

// Threshold makes each pixel black or white depending on whether its
// intensity exceeds level (0-255). Alpha is preserved.
func Threshold(img *image.NRGBA, level float64, ch Channels) *image.NRGBA {
	if ch&RGB == RGB {
		gray := segment.Threshold(img, clampUint8(level))
		return keepAlpha(img, gray)
	}
	return mapChannels(img, ch, func(v uint8) uint8 {
		if float64(v) > level {
			return 255
		}
		return 0
	})
}

// BlackThreshold forces pixels with intensity below level to black.
func BlackThreshold(img *image.NRGBA, level float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if float64(luma(c)) < level {
			return color.NRGBA{A: c.A}
		}
		return c
	})
}

// WhiteThreshold forces pixels with intensity above level to white.
func WhiteThreshold(img *image.NRGBA, level float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if float64(luma(c)) > level {
			return color.NRGBA{R: 255, G: 255, B: 255, A: c.A}
		}
		return c
	})
}

// Solarize negates every channel value above level.
func Solarize(img *image.NRGBA, level float64, ch Channels) *image.NRGBA {
	return mapChannels(img, ch, func(v uint8) uint8 {
		if float64(v) > level {
			return 255 - v
		}
		return v
	})
}

// Posterize reduces each channel to the given number of levels.
func Posterize(img *image.NRGBA, levels int, ch Channels) *image.NRGBA {
	if levels < 2 {
		levels = 2
	}
	step := 255 / float64(levels-1)
	t := lut(func(v float64) float64 { return math.Round(v/step) * step })
	return mapChannels(img, ch, func(v uint8) uint8 { return t[v] })
}

// Depth reduces each channel to bits of precision.
func Depth(img *image.NRGBA, bits int) *image.NRGBA {
	if bits >= 8 || bits <= 0 {
		return imaging.Clone(img)
	}
	return Posterize(img, 1<<uint(bits), AllChannels)
}

// Colorize blends the fill color into each pixel by per-channel
// percentages.
func Colorize(img *image.NRGBA, fill color.NRGBA, pr, pg, pb float64) *image.NRGBA {
	mix := func(v, f uint8, p float64) uint8 {
		return clampUint8(float64(v)*(1-p/100) + float64(f)*p/100)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: mix(c.R, fill.R, pr), G: mix(c.G, fill.G, pg), B: mix(c.B, fill.B, pb), A: c.A}
	})
}

// Tint pushes midtones toward the fill color by pct percent, leaving
// pure black and white alone.
func Tint(img *image.NRGBA, fill color.NRGBA, pct float64) *image.NRGBA {
	mix := func(v, f uint8) uint8 {
		n := float64(v) / 255
		weight := 1 - 4*(n-0.5)*(n-0.5)
		return clampUint8(float64(v) + (float64(f)-float64(v))*weight*pct/100)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: mix(c.R, fill.R), G: mix(c.G, fill.G), B: mix(c.B, fill.B), A: c.A}
	})
}

// SepiaTone applies a sepia filter blended in by threshold percent.
func SepiaTone(img *image.NRGBA, threshold float64) *image.NRGBA {
	sepia := keepAlpha(img, effect.Sepia(img))
	if threshold >= 100 {
		return sepia
	}
	return imaging.Overlay(img, sepia, image.Pt(0, 0), threshold/100)
}

// Grayscale converts to gray using the named intensity method: Rec601Luma
// (the default), Rec709Luma, Average, Brightness or Lightness.
func Grayscale(img *image.NRGBA, method string) *image.NRGBA {
	switch method {
	case "Rec709Luma", "Rec709Luminance":
		return keepAlpha(img, effect.GrayscaleWithWeights(img, 0.2126, 0.7152, 0.0722))
	case "Average":
		return keepAlpha(img, effect.GrayscaleWithWeights(img, 1.0/3, 1.0/3, 1.0/3))
	case "Brightness", "Lightness":
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			hi := max3(c.R, c.G, c.B)
			v := hi
			if method == "Lightness" {
				v = uint8((int(hi) + int(min3(c.R, c.G, c.B))) / 2)
			}
			return color.NRGBA{R: v, G: v, B: v, A: c.A}
		})
	default:
		return keepAlpha(img, effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114))
	}
}

// Monochrome converts to pure black and white.
func Monochrome(img *image.NRGBA) *image.NRGBA {
	return Threshold(Grayscale(img, ""), 127.5, RGB)
}

// keepAlpha converts out to NRGBA and restores the alpha channel of src,
// for library calls that drop or premultiply it.
func keepAlpha(src *image.NRGBA, out image.Image) *image.NRGBA {
	dst := imaging.Clone(out)
	if dst.Bounds().Size() != src.Bounds().Size() {
		return dst
	}
	for i := 3; i < len(dst.Pix) && i < len(src.Pix); i += 4 {
		dst.Pix[i] = src.Pix[i]
	}
	return dst
}

func max3(a, b, c uint8) uint8 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func min3(a, b, c uint8) uint8 {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
