package pipeline

import (
	"image/color"
	"maps"

	"github.com/ironsheep/image-pipeline/internal/geometry"
	"github.com/ironsheep/image-pipeline/internal/imagelist"
	ops "github.com/ironsheep/image-pipeline/internal/imaging"
)

// ImageInfo holds the image defaults. Every setting also keeps its raw
// argument in Options under the option name, which is what reaches the
// codecs and the per-image artifacts.
type ImageInfo struct {
	Options map[string]string

	Adjoin           bool
	Antialias        bool
	Background       color.NRGBA
	BorderColor      color.NRGBA
	MatteColor       color.NRGBA
	TransparentColor color.NRGBA
	Colorspace       string
	Compression      string
	Quality          int
	Density          string
	Units            string
	Depth            int
	Fuzz             float64
	Size             string
	Page             string
	Extract          string
	Format           string
	Ping             bool
	Verbose          bool
	Monitor          bool
	Quiet            bool
	Scene            int
	Delay            int
	Dispose          string
	Loop             int
	Gravity          geometry.Gravity
	Compose          string
	Filter           string
	Interpolate      string
	VirtualPixel     string
	Channel          ops.Channels
	Type             string
	Endian           string
	Interlace        string
	SamplingFactor   string
	Metric           string
	Attenuate        float64
	Seed             int64
	SeedSet          bool

	RespectParentheses bool
	RegardWarnings     bool
	Limits             map[string]string
}

// DrawInfo holds the attributes used when drawing text and shapes.
type DrawInfo struct {
	Fill              color.NRGBA
	Stroke            color.NRGBA
	FillPattern       *imagelist.Image
	StrokePattern     *imagelist.Image
	FillPatternActive bool
	StrokeActive      bool
	Font              string
	Family            string
	Style             string
	Weight            string
	Pointsize         float64
	StrokeWidth       float64
	Gravity           geometry.Gravity
	Affine            [6]float64
	Text              string
	Undercolor        color.NRGBA
	Kerning           float64
	InterlineSpacing  float64
	InterwordSpacing  float64
	Direction         string
	Antialias         bool
}

// QuantizeInfo holds the color reduction parameters.
type QuantizeInfo struct {
	NumberColors int
	Dither       string
	TreeDepth    int
	Colorspace   string
}

// Settings is one snapshot of the execution context: what a "{" saves and
// a "}" restores.
type Settings struct {
	Image    ImageInfo
	Draw     DrawInfo
	Quantize QuantizeInfo
}

var (
	defaultFill   = color.NRGBA{A: 255}
	defaultBorder = color.NRGBA{R: 0xdf, G: 0xdf, B: 0xdf, A: 0xff}
	defaultMatte  = color.NRGBA{R: 0xbd, G: 0xbd, B: 0xbd, A: 0xff}
	white         = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	identity      = [6]float64{1, 0, 0, 1, 0, 0}
)

// NewSettings returns the defaults in effect before any option.
func NewSettings() *Settings {
	return &Settings{
		Image: ImageInfo{
			Options:     map[string]string{},
			Adjoin:      true,
			Antialias:   true,
			Background:  white,
			BorderColor: defaultBorder,
			MatteColor:  defaultMatte,
			Colorspace:  "sRGB",
			Depth:       8,
			Dispose:     "Undefined",
			Compose:     "Over",
			Channel:     ops.RGB,
			Metric:      "RMSE",
			Attenuate:   1,
			Limits:      map[string]string{},
		},
		Draw: DrawInfo{
			Fill:        defaultFill,
			Pointsize:   12,
			StrokeWidth: 1,
			Affine:      identity,
			Antialias:   true,
			Undercolor:  ops.Transparent,
		},
		Quantize: QuantizeInfo{
			Dither:     "FloydSteinberg",
			Colorspace: "sRGB",
		},
	}
}

// Clone deep-copies the snapshot. Pattern images are shared through their
// pixel blob.
func (s *Settings) Clone() *Settings {
	cp := *s
	cp.Image.Options = maps.Clone(s.Image.Options)
	cp.Image.Limits = maps.Clone(s.Image.Limits)
	if s.Draw.FillPattern != nil {
		cp.Draw.FillPattern = s.Draw.FillPattern.Clone()
	}
	if s.Draw.StrokePattern != nil {
		cp.Draw.StrokePattern = s.Draw.StrokePattern.Clone()
	}
	return &cp
}

// Release drops the pattern images held by the snapshot.
func (s *Settings) Release() {
	releasePattern(&s.Draw.FillPattern)
	releasePattern(&s.Draw.StrokePattern)
	s.Draw.FillPatternActive = false
}

func releasePattern(p **imagelist.Image) {
	if *p != nil {
		(*p).Release()
		*p = nil
	}
}

// textOptions collects the draw settings used by text rendering.
func (s *Settings) textOptions() ops.TextOptions {
	return ops.TextOptions{
		Fill:             s.Draw.Fill,
		Undercolor:       s.Draw.Undercolor,
		Pointsize:        s.Draw.Pointsize,
		Gravity:          s.Draw.Gravity,
		InterlineSpacing: s.Draw.InterlineSpacing,
		InterwordSpacing: s.Draw.InterwordSpacing,
		Kerning:          s.Draw.Kerning,
	}
}
