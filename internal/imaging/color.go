package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Transparent is the fully transparent black used for "none".
var Transparent = color.NRGBA{}

// ParseColor parses a color argument.
//
// Accepted forms:
//   - "none" and "transparent"
//   - "#rgb", "#rgba", "#rrggbb", "#rrggbbaa"
//   - "rgb(r,g,b)", "rgba(r,g,b,a)", "srgb(...)", "srgba(...)" with 0-255 or
//     percentage components and an alpha of 0-1
//   - "hsl(h,s%,l%)", "hsla(h,s%,l%,a)"
//   - "gray(n)", "grey(n)", "grayN" for N in 0-100
//   - any SVG color keyword, ignoring case and spaces
func ParseColor(s string) (color.NRGBA, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if key == "" {
		return color.NRGBA{}, fmt.Errorf("empty color")
	}
	switch key {
	case "none", "transparent":
		return Transparent, nil
	}
	if strings.HasPrefix(key, "#") {
		return parseHexColor(key)
	}
	if open := strings.IndexByte(key, '('); open > 0 && strings.HasSuffix(key, ")") {
		return parseFunctionalColor(key[:open], key[open+1:len(key)-1])
	}
	if strings.HasPrefix(key, "gray") || strings.HasPrefix(key, "grey") {
		if n, err := strconv.Atoi(key[4:]); err == nil && n >= 0 && n <= 100 {
			v := uint8(math.Round(float64(n) * 255 / 100))
			return color.NRGBA{R: v, G: v, B: v, A: 255}, nil
		}
	}
	if c, ok := colornames.Map[key]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	return color.NRGBA{}, fmt.Errorf("unrecognized color %q", s)
}

// IsColor reports whether s parses as a color.
func IsColor(s string) bool {
	_, err := ParseColor(s)
	return err == nil
}

// parseHexColor parses #rgb, #rgba, #rrggbb and #rrggbbaa.
func parseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	c := color.NRGBA{A: 255}
	nibble := func(i int) (uint8, error) {
		v, err := strconv.ParseUint(hex[i:i+1], 16, 8)
		return uint8(v) * 17, err
	}
	octet := func(i int) (uint8, error) {
		v, err := strconv.ParseUint(hex[i:i+2], 16, 8)
		return uint8(v), err
	}
	var err error
	var parts []*uint8
	switch len(hex) {
	case 3, 4:
		parts = []*uint8{&c.R, &c.G, &c.B, &c.A}[:len(hex)]
		for i, p := range parts {
			if *p, err = nibble(i); err != nil {
				return c, fmt.Errorf("invalid hex color %q", s)
			}
		}
	case 6, 8:
		parts = []*uint8{&c.R, &c.G, &c.B, &c.A}[:len(hex)/2]
		for i, p := range parts {
			if *p, err = octet(i * 2); err != nil {
				return c, fmt.Errorf("invalid hex color %q", s)
			}
		}
	default:
		return c, fmt.Errorf("invalid hex color %q: need 3, 4, 6 or 8 digits", s)
	}
	return c, nil
}

func parseFunctionalColor(fn, body string) (color.NRGBA, error) {
	args := strings.Split(body, ",")
	component := func(v string, scale float64) (float64, error) {
		if strings.HasSuffix(v, "%") {
			f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
			return f * scale / 100, err
		}
		return strconv.ParseFloat(v, 64)
	}
	alpha := func(i int) (uint8, error) {
		if len(args) <= i {
			return 255, nil
		}
		a, err := component(args[i], 1)
		if err != nil {
			return 0, err
		}
		return clampUint8(a * 255), nil
	}
	switch fn {
	case "rgb", "rgba", "srgb", "srgba":
		if len(args) < 3 || len(args) > 4 {
			break
		}
		var v [3]float64
		for i := range v {
			f, err := component(args[i], 255)
			if err != nil {
				return color.NRGBA{}, fmt.Errorf("invalid color %s(%s): %w", fn, body, err)
			}
			v[i] = f
		}
		a, err := alpha(3)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %s(%s): %w", fn, body, err)
		}
		return color.NRGBA{R: clampUint8(v[0]), G: clampUint8(v[1]), B: clampUint8(v[2]), A: a}, nil
	case "hsl", "hsla":
		if len(args) < 3 || len(args) > 4 {
			break
		}
		h, err1 := component(args[0], 360)
		sat, err2 := component(args[1], 1)
		l, err3 := component(args[2], 1)
		if err1 != nil || err2 != nil || err3 != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %s(%s)", fn, body)
		}
		if !strings.HasSuffix(args[1], "%") {
			sat /= 100
		}
		if !strings.HasSuffix(args[2], "%") {
			l /= 100
		}
		a, err := alpha(3)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %s(%s): %w", fn, body, err)
		}
		r, g, b := colorful.Hsl(h, sat, l).Clamped().RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: a}, nil
	case "gray", "grey":
		if len(args) != 1 {
			break
		}
		f, err := component(args[0], 255)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %s(%s): %w", fn, body, err)
		}
		v := clampUint8(f)
		return color.NRGBA{R: v, G: v, B: v, A: 255}, nil
	}
	return color.NRGBA{}, fmt.Errorf("invalid color %s(%s)", fn, body)
}

// FormatColor renders c as "#RRGGBB", or "#RRGGBBAA" when it is not opaque.
func FormatColor(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// PixelString renders c in functional notation, "srgb(r,g,b)" or
// "srgba(r,g,b,a)".
func PixelString(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("srgb(%d,%d,%d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf("srgba(%d,%d,%d,%.4g)", c.R, c.G, c.B, float64(c.A)/255)
}

// ColorDistance returns the normalized RGBA distance between two colors,
// 0 for identical and 1 for opaque black against transparent white.
func ColorDistance(a, b color.NRGBA) float64 {
	ca := colorful.Color{R: float64(a.R) / 255, G: float64(a.G) / 255, B: float64(a.B) / 255}
	cb := colorful.Color{R: float64(b.R) / 255, G: float64(b.G) / 255, B: float64(b.B) / 255}
	d := ca.DistanceRgb(cb)
	da := float64(a.A)/255 - float64(b.A)/255
	return math.Sqrt(d*d+da*da) / 2
}

// FuzzyEqual reports whether a and b are within fuzz (0-1) of each other.
func FuzzyEqual(a, b color.NRGBA, fuzz float64) bool {
	if fuzz <= 0 {
		return a == b
	}
	return ColorDistance(a, b) <= fuzz
}

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor is a color in HSL space: hue in degrees, saturation and
// lightness in percent.
type HSLColor struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// ColorResult describes one pixel in several notations.
type ColorResult struct {
	Hex   string   `json:"hex"`
	Pixel string   `json:"pixel"`
	RGB   RGBColor `json:"rgb"`
	Alpha uint8    `json:"alpha"`
	HSL   HSLColor `json:"hsl"`
}

// SampleColor returns the color at (x, y).
//
// Parameters:
//   - img: The source image to sample from.
//   - x, y: 0-based coordinates; out-of-range values are clamped to the
//     nearest edge pixel, as the virtual-pixel "Edge" method does.
//
// Returns an error only for an empty image.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("cannot sample an empty image")
	}
	x = clamp(x+bounds.Min.X, bounds.Min.X, bounds.Max.X-1)
	y = clamp(y+bounds.Min.Y, bounds.Min.Y, bounds.Max.Y-1)

	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	h, s, l := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return &ColorResult{
		Hex:   FormatColor(c),
		Pixel: PixelString(c),
		RGB:   RGBColor{R: c.R, G: c.G, B: c.B},
		Alpha: c.A,
		HSL:   HSLColor{H: int(math.Round(h)), S: int(math.Round(s * 100)), L: int(math.Round(l * 100))},
	}, nil
}

// ColorFrequency is a color and the share of pixels close to it.
type ColorFrequency struct {
	Color      color.NRGBA `json:"-"`
	Hex        string      `json:"hex"`
	Percentage float64     `json:"percentage"`
}

// DominantColors returns up to count colors ordered by frequency.
//
// Components are quantized to steps of 16 before counting, so colors within
// 16 units of each other per channel fall into the same bucket. The bucket
// color is the mean of its members, not the bucket corner.
func DominantColors(img *image.NRGBA, count int) []ColorFrequency {
	type bucket struct {
		n          int
		r, g, b, a int
	}
	buckets := map[uint32]*bucket{}
	total := 0
	for i := 0; i+3 < len(img.Pix); i += 4 {
		r, g, b, a := img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]
		key := uint32(r>>4)<<12 | uint32(g>>4)<<8 | uint32(b>>4)<<4 | uint32(a>>4)
		bk := buckets[key]
		if bk == nil {
			bk = &bucket{}
			buckets[key] = bk
		}
		bk.n++
		bk.r += int(r)
		bk.g += int(g)
		bk.b += int(b)
		bk.a += int(a)
		total++
	}
	colors := make([]ColorFrequency, 0, len(buckets))
	for _, bk := range buckets {
		c := color.NRGBA{
			R: uint8(bk.r / bk.n), G: uint8(bk.g / bk.n),
			B: uint8(bk.b / bk.n), A: uint8(bk.a / bk.n),
		}
		colors = append(colors, ColorFrequency{
			Color:      c,
			Hex:        FormatColor(c),
			Percentage: float64(bk.n) / float64(total) * 100,
		})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})
	if count > 0 && len(colors) > count {
		colors = colors[:count]
	}
	return colors
}

// CountColors returns the number of distinct RGBA values.
func CountColors(img *image.NRGBA) int {
	seen := map[uint32]struct{}{}
	for i := 0; i+3 < len(img.Pix); i += 4 {
		seen[uint32(img.Pix[i])<<24|uint32(img.Pix[i+1])<<16|uint32(img.Pix[i+2])<<8|uint32(img.Pix[i+3])] = struct{}{}
	}
	return len(seen)
}

func clampUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
