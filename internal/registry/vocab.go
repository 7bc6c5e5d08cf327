package registry

import (
	"sort"
	"strings"

	"github.com/ironsheep/image-pipeline/internal/geometry"
)

// vocabularies holds the keyword lists accepted by enumerated settings and
// operator arguments. The first spelling of each keyword is canonical.
var vocabularies = map[string][]string{
	"alpha": {"Activate", "Background", "Copy", "Deactivate", "Extract",
		"Off", "On", "Opaque", "Remove", "Set", "Transparent"},
	"channel": {"All", "Alpha", "Black", "Blue", "Cyan", "Gray", "Green",
		"Magenta", "Red", "Yellow", "RGB", "RGBA"},
	"colorspace": {"CMY", "Gray", "HSB", "HSL", "Lab", "LinearGray",
		"RGB", "sRGB", "XYZ", "YCbCr"},
	"compose": {"Over", "Src", "Dst", "Clear", "Copy", "DstOver", "In",
		"Out", "Atop", "DstIn", "DstOut", "DstAtop", "Xor", "Plus",
		"Multiply", "Screen", "Overlay", "SoftLight", "HardLight", "Darken",
		"Lighten", "ColorBurn", "ColorDodge", "LinearBurn", "LinearLight",
		"Difference", "Exclusion", "Minus", "Divide", "Hue", "Saturate",
		"Luminize", "Colorize"},
	"compress": {"None", "Undefined", "BZip", "DXT1", "DXT5", "Fax",
		"Group4", "JPEG", "LosslessJPEG", "LZW", "RLE", "WebP", "Zip"},
	"direction":  {"right-to-left", "left-to-right"},
	"dispose":    {"Undefined", "None", "Background", "Previous"},
	"dither":     {"None", "FloydSteinberg", "Riemersma"},
	"endian":     {"Undefined", "LSB", "MSB"},
	"evaluate":   {"Add", "Max", "Mean", "Median", "Min", "Multiply"},
	"filter": {"Point", "Box", "Triangle", "Hermite", "Hann", "Hamming",
		"Blackman", "Gaussian", "Cubic", "Catrom", "Mitchell", "Lanczos",
		"Bartlett", "Welch", "Cosine", "Spline"},
	"intent":      {"Undefined", "Absolute", "Perceptual", "Relative", "Saturation"},
	"interlace":   {"None", "Line", "Plane", "Partition", "GIF", "JPEG", "PNG"},
	"interpolate": {"Average", "Bilinear", "Catrom", "Integer", "Mesh", "Nearest", "Spline"},
	"layers": {"Coalesce", "CompareAny", "CompareClear", "CompareOverlay",
		"Composite", "Dispose", "Flatten", "Merge", "Mosaic", "Optimize",
		"RemoveDups", "RemoveZero", "TrimBounds"},
	"metric":     {"AE", "Fuzz", "MAE", "MSE", "PSNR", "RMSE"},
	"morphology": {"Dilate", "Erode", "Open", "Close", "EdgeIn", "EdgeOut", "Edge", "TopHat", "BottomHat", "Smooth"},
	"noise": {"Gaussian", "Impulse", "Laplacian", "Multiplicative",
		"Poisson", "Random", "Uniform"},
	"orientation": {"Undefined", "TopLeft", "TopRight", "BottomRight",
		"BottomLeft", "LeftTop", "RightTop", "RightBottom", "LeftBottom"},
	"style": {"Any", "Italic", "Normal", "Oblique"},
	"type": {"Bilevel", "Grayscale", "GrayscaleAlpha", "Palette",
		"PaletteAlpha", "TrueColor", "TrueColorAlpha", "ColorSeparation",
		"Optimize"},
	"units": {"Undefined", "PixelsPerInch", "PixelsPerCentimeter"},
	"virtual-pixel": {"Undefined", "Background", "Black", "Dither", "Edge",
		"Gray", "Mirror", "None", "Random", "Tile", "Transparent", "White"},
	"weight": {"Thin", "ExtraLight", "Light", "Normal", "Medium",
		"DemiBold", "Bold", "ExtraBold", "Heavy"},
}

func init() {
	vocabularies["gravity"] = geometry.GravityNames()
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

// Parse matches value against the named vocabulary, ignoring case, dashes
// and underscores, and returns the canonical spelling.
func Parse(vocabulary, value string) (string, bool) {
	words, ok := vocabularies[vocabulary]
	if !ok {
		return "", false
	}
	key := normalize(value)
	for _, w := range words {
		if normalize(w) == key {
			return w, true
		}
	}
	return "", false
}

// Vocabulary returns a copy of the keyword list of the named vocabulary.
func Vocabulary(name string) ([]string, bool) {
	words, ok := vocabularies[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(words))
	copy(out, words)
	return out, true
}

// Vocabularies returns the names of every vocabulary, sorted.
func Vocabularies() []string {
	out := make([]string, 0, len(vocabularies))
	for k := range vocabularies {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
