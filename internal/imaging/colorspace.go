package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Colorspaces lists the colorspaces TransformColorspace understands.
var Colorspaces = []string{"sRGB", "RGB", "Gray", "LinearGray", "HSL", "HSB", "Lab", "XYZ", "CMY", "YCbCr"}

// labScale maps the a and b axes (about -1.28 to 1.28 in go-colorful
// units) onto a unit channel.
const labScale = 2.56

type spaceCodec struct {
	encode func(c colorful.Color) (a, b, d float64)
	decode func(a, b, d float64) colorful.Color
}

var colorspaces = map[string]spaceCodec{
	"sRGB": {
		encode: func(c colorful.Color) (float64, float64, float64) { return c.R, c.G, c.B },
		decode: func(a, b, d float64) colorful.Color { return colorful.Color{R: a, G: b, B: d} },
	},
	"RGB": {
		encode: func(c colorful.Color) (float64, float64, float64) { return c.LinearRgb() },
		decode: func(a, b, d float64) colorful.Color { return colorful.LinearRgb(a, b, d) },
	},
	"Gray": {
		encode: func(c colorful.Color) (float64, float64, float64) {
			y := 0.299*c.R + 0.587*c.G + 0.114*c.B
			return y, y, y
		},
		decode: func(a, b, d float64) colorful.Color { return colorful.Color{R: a, G: a, B: a} },
	},
	"LinearGray": {
		encode: func(c colorful.Color) (float64, float64, float64) {
			r, g, b := c.LinearRgb()
			y := 0.2126*r + 0.7152*g + 0.0722*b
			return y, y, y
		},
		decode: func(a, b, d float64) colorful.Color { return colorful.LinearRgb(a, a, a) },
	},
	"HSL": {
		encode: func(c colorful.Color) (float64, float64, float64) {
			h, s, l := c.Hsl()
			return hue01(h), s, l
		},
		decode: func(a, b, d float64) colorful.Color { return colorful.Hsl(a*360, b, d) },
	},
	"HSB": {
		encode: func(c colorful.Color) (float64, float64, float64) {
			h, s, v := c.Hsv()
			return hue01(h), s, v
		},
		decode: func(a, b, d float64) colorful.Color { return colorful.Hsv(a*360, b, d) },
	},
	"Lab": {
		encode: func(c colorful.Color) (float64, float64, float64) {
			l, a, b := c.Lab()
			return l, a/labScale + 0.5, b/labScale + 0.5
		},
		decode: func(a, b, d float64) colorful.Color {
			return colorful.Lab(a, (b-0.5)*labScale, (d-0.5)*labScale)
		},
	},
	"XYZ": {
		encode: func(c colorful.Color) (float64, float64, float64) {
			x, y, z := c.Xyz()
			return x / colorful.D65[0], y / colorful.D65[1], z / colorful.D65[2]
		},
		decode: func(a, b, d float64) colorful.Color {
			return colorful.Xyz(a*colorful.D65[0], b*colorful.D65[1], d*colorful.D65[2])
		},
	},
	"CMY": {
		encode: func(c colorful.Color) (float64, float64, float64) { return 1 - c.R, 1 - c.G, 1 - c.B },
		decode: func(a, b, d float64) colorful.Color { return colorful.Color{R: 1 - a, G: 1 - b, B: 1 - d} },
	},
	"YCbCr": {
		encode: func(c colorful.Color) (float64, float64, float64) {
			r, g, b := c.RGB255()
			y, cb, cr := color.RGBToYCbCr(r, g, b)
			return float64(y) / 255, float64(cb) / 255, float64(cr) / 255
		},
		decode: func(a, b, d float64) colorful.Color {
			r, g, bl := color.YCbCrToRGB(clampUint8(a*255), clampUint8(b*255), clampUint8(d*255))
			return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(bl) / 255}
		},
	},
}

func hue01(h float64) float64 {
	if math.IsNaN(h) {
		return 0
	}
	return h / 360
}

// TransformColorspace re-encodes the channel values of img from one
// colorspace to another. Alpha is untouched.
func TransformColorspace(img *image.NRGBA, from, to string) (*image.NRGBA, error) {
	src, ok := colorspaces[from]
	if !ok {
		return nil, fmt.Errorf("unsupported colorspace %q", from)
	}
	dst, ok := colorspaces[to]
	if !ok {
		return nil, fmt.Errorf("unsupported colorspace %q", to)
	}
	if from == to {
		return imaging.Clone(img), nil
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		rgb := src.decode(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255).Clamped()
		a, b, d := dst.encode(rgb)
		return color.NRGBA{R: clampUint8(a * 255), G: clampUint8(b * 255), B: clampUint8(d * 255), A: c.A}
	}), nil
}

// IsGray reports whether every pixel has equal red, green and blue.
func IsGray(img *image.NRGBA) bool {
	for i := 0; i+2 < len(img.Pix); i += 4 {
		if img.Pix[i] != img.Pix[i+1] || img.Pix[i+1] != img.Pix[i+2] {
			return false
		}
	}
	return true
}

// IsOpaque reports whether every pixel is fully opaque.
func IsOpaque(img *image.NRGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 255 {
			return false
		}
	}
	return true
}

// ImageType classifies the image the way -type reports it.
func ImageType(img *image.NRGBA) string {
	opaque := IsOpaque(img)
	gray := IsGray(img)
	switch {
	case gray && opaque && CountColors(img) <= 2:
		return "Bilevel"
	case gray && opaque:
		return "Grayscale"
	case gray:
		return "GrayscaleAlpha"
	case CountColors(img) <= 256 && opaque:
		return "Palette"
	case CountColors(img) <= 256:
		return "PaletteAlpha"
	case opaque:
		return "TrueColor"
	}
	return "TrueColorAlpha"
}

// SetType converts img to the named image type.
func SetType(img *image.NRGBA, typ string) (*image.NRGBA, error) {
	switch typ {
	case "Bilevel":
		return Monochrome(img), nil
	case "Grayscale":
		return removeAlpha(Grayscale(img, "")), nil
	case "GrayscaleAlpha":
		return Grayscale(img, ""), nil
	case "Palette":
		return removeAlpha(Quantize(img, 256, true)), nil
	case "PaletteAlpha":
		return Quantize(img, 256, true), nil
	case "TrueColor":
		return removeAlpha(img), nil
	case "TrueColorAlpha", "ColorSeparation", "Optimize":
		return imaging.Clone(img), nil
	}
	return nil, fmt.Errorf("unsupported image type %q", typ)
}

func removeAlpha(img *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out
}
