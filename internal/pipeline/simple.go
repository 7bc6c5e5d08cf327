package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/ironsheep/image-pipeline/internal/codec"
	"github.com/ironsheep/image-pipeline/internal/detection"
	"github.com/ironsheep/image-pipeline/internal/exception"
	"github.com/ironsheep/image-pipeline/internal/geometry"
	"github.com/ironsheep/image-pipeline/internal/imagelist"
	ops "github.com/ironsheep/image-pipeline/internal/imaging"
	"github.com/ironsheep/image-pipeline/internal/registry"
)

// quantumRange is the largest channel value.
const quantumRange = 255.0

// frame is the image a per-image operator works on, with its position in
// the list.
type frame struct {
	*imagelist.Image
	index, count int
}

// simpleFunc applies an operator to one image. A nil result means the
// image was changed in place; otherwise the images returned replace it.
type simpleFunc func(c *CLI, f frame, p registry.Polarity, arg1, arg2 string) ([]*imagelist.Image, error)

// pixelFunc computes new pixels for one image. A nil result leaves the
// pixels as they are.
type pixelFunc func(c *CLI, f frame, p registry.Polarity, arg1, arg2 string) (*image.NRGBA, error)

type simpleOp struct {
	// check validates the arguments once, before any image is touched.
	check func(p registry.Polarity, arg1, arg2 string) error
	apply simpleFunc
}

var simpleOps map[string]simpleOp

func pixels(check func(registry.Polarity, string, string) error, fn pixelFunc) simpleOp {
	return simpleOp{check: check, apply: func(c *CLI, f frame, p registry.Polarity, arg1, arg2 string) ([]*imagelist.Image, error) {
		out, err := fn(c, f, p, arg1, arg2)
		if err != nil || out == nil {
			return nil, err
		}
		f.SetPixels(out)
		return nil, nil
	}}
}

// simple wraps an operator that needs no argument and no settings.
func simple(fn func(*image.NRGBA) *image.NRGBA) simpleOp {
	return pixels(nil, func(_ *CLI, f frame, _ registry.Polarity, _, _ string) (*image.NRGBA, error) {
		return fn(f.Pixels()), nil
	})
}

// channelOp wraps an operator limited to the -channel setting.
func channelOp(fn func(*image.NRGBA, ops.Channels) *image.NRGBA) simpleOp {
	return pixels(nil, func(c *CLI, f frame, _ registry.Polarity, _, _ string) (*image.NRGBA, error) {
		return fn(f.Pixels(), c.settings.Image.Channel), nil
	})
}

func checkGeometry(_ registry.Polarity, arg, _ string) error {
	if _, err := geometry.Parse(arg); err != nil {
		return invalidArg(arg, err)
	}
	return nil
}

func checkInfo(_ registry.Polarity, arg, _ string) error {
	if _, err := geometry.ParseInfo(arg); err != nil {
		return invalidArg(arg, err)
	}
	return nil
}

// checkThreshold accepts "+threshold" without an argument.
func checkThreshold(p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		return nil
	}
	return checkInfo(p, arg, "")
}

func checkColor(_ registry.Polarity, arg, _ string) error {
	if _, err := ops.ParseColor(arg); err != nil {
		return fail(exception.OptionError, exception.UnrecognizedOptionValue, "unrecognized color %q", arg)
	}
	return nil
}

func checkKeyword(vocab string) func(registry.Polarity, string, string) error {
	return func(_ registry.Polarity, arg, _ string) error {
		if _, ok := registry.Parse(vocab, arg); !ok {
			return badKeyword(vocab, arg)
		}
		return nil
	}
}

// info parses a numeric list argument already validated by checkInfo.
func info(arg string) geometry.Info {
	v, _ := geometry.ParseInfo(arg)
	return v
}

func geom(arg string) geometry.Geometry {
	g, _ := geometry.Parse(arg)
	return g
}

// level scales a value given absolutely or as a percentage of the full
// channel range.
func level(v geometry.Info, value float64) float64 {
	return geometry.Scale(value, v.Flags.Has(geometry.PercentValue), quantumRange)
}

func rect(r geometry.Rect) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// missed reports a region outside the image as a warning; the image is
// left unchanged.
func missed(err error, arg string) error {
	if errors.Is(err, ops.ErrNoOverlap) {
		return fail(exception.OptionWarning, exception.GeometryDoesNotContainImage, "geometry %q does not contain image", arg)
	}
	return err
}

func init() {
	simpleOps = map[string]simpleOp{
		"auto-gamma":  channelOp(ops.AutoGamma),
		"auto-level":  channelOp(ops.AutoLevel),
		"equalize":    channelOp(ops.Equalize),
		"normalize":   channelOp(ops.Normalize),
		"despeckle":   simple(ops.Despeckle),
		"flip":        simple(ops.Flip),
		"flop":        simple(ops.Flop),
		"transpose":   simple(ops.Transpose),
		"transverse":  simple(ops.Transverse),
		"monochrome":  simple(ops.Monochrome),
		"auto-orient": {apply: autoOrient},
		// 8-bit channels can never leave the quantum range.
		"clamp":       {apply: func(*CLI, frame, registry.Polarity, string, string) ([]*imagelist.Image, error) { return nil, nil }},
		"contrast": pixels(nil, func(_ *CLI, f frame, p registry.Polarity, _, _ string) (*image.NRGBA, error) {
			return ops.Contrast(f.Pixels(), p == registry.Enable), nil
		}),
		"negate": pixels(nil, func(c *CLI, f frame, p registry.Polarity, _, _ string) (*image.NRGBA, error) {
			return ops.Negate(f.Pixels(), p == registry.Disable, c.settings.Image.Channel), nil
		}),
		"identify":  {apply: identify},
		"separate":  {apply: separate},
		"strip":     {apply: strip},
		"trim":      {apply: trim},
		"alpha":     {check: checkKeyword("alpha"), apply: alpha},
		"crop":      {check: checkGeometry, apply: crop},
		"annotate":  {check: checkAnnotate, apply: annotate},
		"repage":    {check: checkRepage, apply: repage},
		"colorspace": {check: func(p registry.Polarity, arg, _ string) error {
			if p == registry.Disable {
				return nil
			}
			return checkKeyword("colorspace")(p, arg, "")
		}, apply: colorspace},
		"gamma": {check: checkInfo, apply: gamma},

		"adaptive-blur": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			_, sigma, _ := geometry.RadiusSigma(arg)
			return ops.AdaptiveBlur(f.Pixels(), sigma), nil
		}),
		"adaptive-sharpen": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			_, sigma, _ := geometry.RadiusSigma(arg)
			return ops.AdaptiveSharpen(f.Pixels(), sigma), nil
		}),
		"blur": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			radius, sigma, _ := geometry.RadiusSigma(arg)
			return ops.GaussianBlur(f.Pixels(), radius, sigma), nil
		}),
		"gaussian-blur": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			radius, sigma, _ := geometry.RadiusSigma(arg)
			return ops.GaussianBlur(f.Pixels(), radius, sigma), nil
		}),
		"motion-blur": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			return ops.MotionBlur(f.Pixels(), v.Rho, v.Xi), nil
		}),
		"sharpen": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			_, sigma, _ := geometry.RadiusSigma(arg)
			return ops.Sharpen(f.Pixels(), sigma), nil
		}),
		"unsharp": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			amount := 1.0
			if v.Flags.Has(geometry.XiValue) {
				amount = v.Xi
			}
			return ops.Unsharp(f.Pixels(), v.Rho, amount), nil
		}),
		"charcoal": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			radius, sigma, _ := geometry.RadiusSigma(arg)
			return ops.Charcoal(f.Pixels(), radius, sigma), nil
		}),
		"edge": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			return ops.Edge(f.Pixels(), info(arg).Rho), nil
		}),
		"emboss": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, _, _ string) (*image.NRGBA, error) {
			return ops.Emboss(f.Pixels()), nil
		}),
		"median": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			return ops.Median(f.Pixels(), info(arg).Rho), nil
		}),
		"noise": {check: checkNoise, apply: noise},
		"spread": pixels(checkInfo, func(c *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			return ops.Spread(f.Pixels(), info(arg).Rho, c.rng), nil
		}),
		"implode": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			return ops.Implode(f.Pixels(), info(arg).Rho, f.Background), nil
		}),
		"swirl": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			return ops.Swirl(f.Pixels(), info(arg).Rho, f.Background), nil
		}),
		"wave": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			length := 150.0
			if v.Flags.Has(geometry.SigmaValue) {
				length = v.Sigma
			}
			return ops.Wave(f.Pixels(), v.Rho, length, f.Background), nil
		}),
		"canny": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			sigma, low, high := 1.0, 0.1, 0.3
			if v.Flags.Has(geometry.SigmaValue) {
				sigma = v.Sigma
			}
			if v.Flags.Has(geometry.XiValue) {
				low = v.Xi / 100
			}
			if v.Flags.Has(geometry.PsiValue) {
				high = v.Psi / 100
			}
			return ops.Canny(f.Pixels(), sigma, low, high), nil
		}),
		"morphology": {check: checkMorphology, apply: morphology},
		"hough-lines": pixels(checkGeometry, houghLines),

		"black-threshold": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			return ops.BlackThreshold(f.Pixels(), level(v, v.Rho)), nil
		}),
		"white-threshold": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			return ops.WhiteThreshold(f.Pixels(), level(v, v.Rho)), nil
		}),
		"threshold": pixels(checkThreshold, func(c *CLI, f frame, p registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			t := quantumRange / 2
			if p == registry.Enable {
				v := info(arg)
				t = level(v, v.Rho)
			}
			return ops.Threshold(f.Pixels(), t, c.settings.Image.Channel), nil
		}),
		"solarize": pixels(checkInfo, func(c *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			return ops.Solarize(f.Pixels(), level(v, v.Rho), c.settings.Image.Channel), nil
		}),
		"posterize": pixels(checkLevels, func(c *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			n, _ := strconv.Atoi(arg)
			return ops.Posterize(f.Pixels(), n, c.settings.Image.Channel), nil
		}),
		"level":            pixels(checkInfo, levelOp),
		"contrast-stretch": pixels(checkInfo, contrastStretch),
		"brightness-contrast": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			return ops.BrightnessContrast(f.Pixels(), v.Rho, v.Sigma), nil
		}),
		"sigmoidal-contrast": pixels(checkInfo, func(_ *CLI, f frame, p registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			mid := 0.5
			if v.Flags.Has(geometry.SigmaValue) {
				mid = level(v, v.Sigma) / quantumRange
			}
			return ops.SigmoidalContrast(f.Pixels(), v.Rho, mid, p == registry.Disable), nil
		}),
		"modulate": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			s, h := 100.0, 100.0
			if v.Flags.Has(geometry.SigmaValue) {
				s = v.Sigma
			}
			if v.Flags.Has(geometry.XiValue) {
				h = v.Xi
			}
			return ops.Modulate(f.Pixels(), v.Rho, s, h), nil
		}),
		"colorize": pixels(checkInfo, func(c *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			pr, pg, pb := v.Rho, v.Rho, v.Rho
			if v.Flags.Has(geometry.SigmaValue) {
				pg = v.Sigma
				pb = v.Sigma
			}
			if v.Flags.Has(geometry.XiValue) {
				pb = v.Xi
			}
			return ops.Colorize(f.Pixels(), c.settings.Draw.Fill, pr, pg, pb), nil
		}),
		"tint": pixels(checkInfo, func(c *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			return ops.Tint(f.Pixels(), c.settings.Draw.Fill, info(arg).Rho), nil
		}),
		"sepia-tone": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			pct := v.Rho
			if !v.Flags.Has(geometry.PercentValue) {
				pct = v.Rho * 100 / quantumRange
			}
			return ops.SepiaTone(f.Pixels(), pct), nil
		}),
		"grayscale": pixels(checkIntensity, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			return ops.Grayscale(f.Pixels(), canonicalIntensity(arg)), nil
		}),
		"opaque": pixels(checkColor, func(c *CLI, f frame, p registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			target, _ := ops.ParseColor(arg)
			return ops.OpaquePaint(f.Pixels(), target, c.settings.Draw.Fill, f.Fuzz, p == registry.Disable), nil
		}),
		"transparent": pixels(checkColor, func(_ *CLI, f frame, p registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			target, _ := ops.ParseColor(arg)
			f.AlphaEnabled = true
			return ops.TransparentPaint(f.Pixels(), target, f.Fuzz, p == registry.Disable), nil
		}),
		"depth": {check: checkDepth, apply: depth},
		"colors": pixels(checkLevels, func(c *CLI, f frame, p registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			if p == registry.Disable {
				return nil, nil
			}
			n, _ := strconv.Atoi(arg)
			return ops.Quantize(f.Pixels(), n, c.settings.Quantize.Dither != "None"), nil
		}),

		"resize":          resizeOp(func(_ *CLI, pix *image.NRGBA, w, h int, filter string) *image.NRGBA { return ops.Resize(pix, w, h, filter) }),
		"adaptive-resize": resizeOp(func(_ *CLI, pix *image.NRGBA, w, h int, _ string) *image.NRGBA { return ops.AdaptiveResize(pix, w, h) }),
		"sample":          resizeOp(func(_ *CLI, pix *image.NRGBA, w, h int, _ string) *image.NRGBA { return ops.Sample(pix, w, h) }),
		"scale":           resizeOp(func(_ *CLI, pix *image.NRGBA, w, h int, _ string) *image.NRGBA { return ops.Scale(pix, w, h) }),
		"thumbnail":       resizeOp(func(_ *CLI, pix *image.NRGBA, w, h int, _ string) *image.NRGBA { return ops.Thumbnail(pix, w, h) }),
		"resample":        {check: checkGeometry, apply: resample},
		"rotate":          pixels(checkInfo, rotate),
		"shear": pixels(checkInfo, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			v := info(arg)
			y := v.Rho
			if v.Flags.Has(geometry.SigmaValue) {
				y = v.Sigma
			}
			return ops.Shear(f.Pixels(), v.Rho, y, f.Background), nil
		}),
		"roll": pixels(checkGeometry, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			g := geom(arg)
			dx, dy := g.X, g.Y
			if g.Flags.Has(geometry.PercentValue) {
				dx = g.X * float64(f.Width()) / 100
				dy = g.Y * float64(f.Height()) / 100
			}
			return ops.Roll(f.Pixels(), int(math.Round(dx)), int(math.Round(dy))), nil
		}),
		"border": pixels(checkGeometry, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			bw, bh := borderSize(f, arg)
			return ops.Border(f.Pixels(), bw, bh, f.BorderColor), nil
		}),
		"frame": pixels(checkGeometry, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			bw, bh := borderSize(f, arg)
			bevel := bw / 4
			if g := geom(arg); g.Flags.Has(geometry.XValue) {
				bevel = int(g.X)
			}
			return ops.Frame(f.Pixels(), bw, bh, bevel, f.MatteColor), nil
		}),
		"raise": pixels(checkGeometry, func(_ *CLI, f frame, p registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			bw, bh := borderSize(f, arg)
			return ops.Raise(f.Pixels(), bw, bh, p == registry.Enable), nil
		}),
		"extent": pixels(checkGeometry, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			r := geometry.Region(f.Width(), f.Height(), geom(arg), f.Gravity)
			if r.Width <= 0 || r.Height <= 0 {
				return nil, invalidArg(arg, nil)
			}
			f.Page = imagelist.Page{Width: r.Width, Height: r.Height}
			return ops.Extent(f.Pixels(), r.Width, r.Height, r.X, r.Y, f.Background), nil
		}),
		"splice": pixels(checkGeometry, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			r := geometry.Region(f.Width(), f.Height(), geom(arg), f.Gravity)
			return ops.Splice(f.Pixels(), rect(r), f.Background), nil
		}),
		"chop": pixels(checkGeometry, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			r := geometry.Region(f.Width(), f.Height(), geom(arg), f.Gravity)
			out, err := ops.Chop(f.Pixels(), rect(r))
			return out, missed(err, arg)
		}),
		"shave": pixels(checkGeometry, func(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
			bw, bh := borderSize(f, arg)
			out, err := ops.Shave(f.Pixels(), bw, bh)
			return out, missed(err, arg)
		}),
	}
}

// simpleOperator applies op to every image of the list in order. The
// results of each image are spliced in at its position.
func (c *CLI) simpleOperator(name, option string, p registry.Polarity, arg1, arg2 string) {
	op, ok := simpleOps[name]
	if !ok {
		return
	}
	if op.check != nil {
		if err := op.check(p, arg1, arg2); err != nil {
			c.record(exception.OptionError, err, option, arg1)
			return
		}
	}
	handles := c.list.Handles()
	out := make([]imagelist.Handle, 0, len(handles))
	for i, h := range handles {
		img := c.arena.Get(h)
		if img == nil {
			continue
		}
		if img.Empty() || img.Pinged {
			c.sink.Throwf(exception.CorruptImageError, exception.NoPixelsDefined, option, arg1,
				"image %d has no pixels", i)
			out = append(out, handles[i:]...)
			break
		}
		results, err := op.apply(c, frame{Image: img, index: i, count: len(handles)}, p, arg1, arg2)
		switch {
		case err != nil:
			c.record(exception.OptionError, err, option, arg1)
			out = append(out, h)
		case results == nil:
			out = append(out, h)
		default:
			c.arena.Destroy(h)
			out = append(out, c.arena.AddAll(results)...)
		}
		if !c.tick(option, i+1, len(handles)) {
			out = append(out, handles[i+1:]...)
			break
		}
	}
	c.list.Set(out)
}

func resizeOp(fn func(c *CLI, pix *image.NRGBA, w, h int, filter string) *image.NRGBA) simpleOp {
	return pixels(checkGeometry, func(c *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
		w, h := geometry.Resize(f.Width(), f.Height(), geom(arg))
		if w == f.Width() && h == f.Height() {
			return nil, nil
		}
		return fn(c, f.Pixels(), w, h, c.settings.Image.Filter), nil
	})
}

// borderSize reads a "WxH" edge size. A lone width applies to both
// sides; percentages are of the image size.
func borderSize(f frame, arg string) (int, int) {
	g := geom(arg)
	bw, bh := g.Width, g.Height
	if g.Flags.Has(geometry.PercentValue) {
		bw = bw * float64(f.Width()) / 100
		bh = bh * float64(f.Height()) / 100
	}
	return int(math.Round(bw)), int(math.Round(bh))
}

func checkLevels(p registry.Polarity, arg, _ string) error {
	if p == registry.Disable && arg == "" {
		return nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return invalidArg(arg, nil)
	}
	return nil
}

func checkDepth(p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		return nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > 16 {
		return invalidArg(arg, nil)
	}
	return nil
}

func depth(_ *CLI, f frame, p registry.Polarity, arg, _ string) ([]*imagelist.Image, error) {
	if p == registry.Disable {
		f.Depth = 8
		return nil, nil
	}
	n, _ := strconv.Atoi(arg)
	f.Depth = n
	if n < 8 {
		f.SetPixels(ops.Depth(f.Pixels(), n))
	}
	return nil, nil
}

var intensities = []string{"Rec601Luma", "Rec709Luma", "Average", "Brightness", "Lightness"}

func canonicalIntensity(arg string) string {
	for _, m := range intensities {
		if strings.EqualFold(m, arg) {
			return m
		}
	}
	return ""
}

func checkIntensity(_ registry.Polarity, arg, _ string) error {
	if canonicalIntensity(arg) == "" {
		return badKeyword("intensity", arg)
	}
	return nil
}

func levelOp(c *CLI, f frame, p registry.Polarity, arg, _ string) (*image.NRGBA, error) {
	v := info(arg)
	black := level(v, v.Rho)
	white := quantumRange - black
	if v.Flags.Has(geometry.SigmaValue) {
		white = level(v, v.Sigma)
	}
	gamma := 1.0
	if v.Flags.Has(geometry.XiValue) {
		gamma = v.Xi
	}
	return ops.Level(f.Pixels(), black, white, gamma, p == registry.Disable, c.settings.Image.Channel), nil
}

// contrastStretch takes pixel counts or percentages of the image area.
// A missing white point equals the black point.
func contrastStretch(c *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
	v := info(arg)
	black := v.Rho
	white := black
	if v.Flags.Has(geometry.SigmaValue) {
		white = v.Sigma
	}
	if !v.Flags.Has(geometry.PercentValue) {
		area := float64(f.Width() * f.Height())
		black = black * 100 / area
		white = white * 100 / area
	}
	return ops.ContrastStretch(f.Pixels(), black, white, c.settings.Image.Channel), nil
}

func gamma(c *CLI, f frame, p registry.Polarity, arg, _ string) ([]*imagelist.Image, error) {
	g := info(arg).Rho
	if g <= 0 {
		return nil, invalidArg(arg, nil)
	}
	if p == registry.Disable {
		f.Gamma = g
		return nil, nil
	}
	f.SetPixels(ops.Gamma(f.Pixels(), g, c.settings.Image.Channel))
	f.Gamma *= g
	return nil, nil
}

func checkNoise(p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		return checkKeyword("noise")(p, arg, "")
	}
	return checkInfo(p, arg, "")
}

// noise applies a median filter, or with "+noise" adds noise of a type.
func noise(c *CLI, f frame, p registry.Polarity, arg, _ string) ([]*imagelist.Image, error) {
	if p == registry.Enable {
		f.SetPixels(ops.Median(f.Pixels(), info(arg).Rho))
		return nil, nil
	}
	kind, _ := registry.Parse("noise", arg)
	out, err := ops.AddNoise(f.Pixels(), kind, c.settings.Image.Attenuate, c.rng)
	if err != nil {
		return nil, err
	}
	f.SetPixels(out)
	return nil, nil
}

// morphologyArgs splits "Method[:iterations]" and "Kernel[:radius]".
func morphologyArgs(method, kernel string) (string, int, float64, error) {
	name, iter, hasIter := strings.Cut(method, ":")
	canonical, ok := registry.Parse("morphology", name)
	if !ok {
		return "", 0, 0, badKeyword("morphology", method)
	}
	iterations := 1
	if hasIter {
		n, err := strconv.Atoi(iter)
		if err != nil {
			return "", 0, 0, invalidArg(method, err)
		}
		iterations = n
	}
	radius := 1.0
	_, r, hasRadius := strings.Cut(kernel, ":")
	if !hasRadius {
		r = kernel
	}
	if v, err := strconv.ParseFloat(strings.SplitN(r, ",", 2)[0], 64); err == nil {
		radius = v
	} else if hasRadius {
		return "", 0, 0, invalidArg(kernel, err)
	}
	return canonical, iterations, radius, nil
}

func checkMorphology(_ registry.Polarity, method, kernel string) error {
	_, _, _, err := morphologyArgs(method, kernel)
	return err
}

func morphology(_ *CLI, f frame, _ registry.Polarity, method, kernel string) ([]*imagelist.Image, error) {
	name, iterations, radius, _ := morphologyArgs(method, kernel)
	out, err := ops.Morphology(f.Pixels(), name, radius, iterations)
	if err != nil {
		return nil, err
	}
	f.SetPixels(out)
	return nil, nil
}

func rotate(_ *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
	v := info(arg)
	w, h := f.Width(), f.Height()
	if v.Flags.Has(geometry.GreaterValue) && w <= h {
		return nil, nil
	}
	if v.Flags.Has(geometry.LessValue) && w >= h {
		return nil, nil
	}
	return ops.Rotate(f.Pixels(), v.Rho, f.Background), nil
}

// orientations maps each orientation to the transform that brings the
// image to TopLeft.
var orientations = map[string]func(*image.NRGBA) *image.NRGBA{
	"TopRight":    ops.Flop,
	"BottomRight": func(p *image.NRGBA) *image.NRGBA { return ops.Flip(ops.Flop(p)) },
	"BottomLeft":  ops.Flip,
	"LeftTop":     ops.Transpose,
	"RightTop":    func(p *image.NRGBA) *image.NRGBA { return ops.Rotate(p, 90, ops.Transparent) },
	"RightBottom": ops.Transverse,
	"LeftBottom":  func(p *image.NRGBA) *image.NRGBA { return ops.Rotate(p, 270, ops.Transparent) },
}

func autoOrient(_ *CLI, f frame, _ registry.Polarity, _, _ string) ([]*imagelist.Image, error) {
	v, ok := f.Properties["orientation"]
	if !ok {
		return nil, nil
	}
	name, _ := registry.Parse("orientation", v)
	if fn := orientations[name]; fn != nil {
		f.SetPixels(fn(f.Pixels()))
	}
	f.Properties["orientation"] = "TopLeft"
	return nil, nil
}

// alpha switches the alpha channel. Opaque and Transparent rewrite the
// pixels in place.
func alpha(_ *CLI, f frame, _ registry.Polarity, arg, _ string) ([]*imagelist.Image, error) {
	method, _ := registry.Parse("alpha", arg)
	switch method {
	case "Opaque", "Transparent":
		a := uint8(0)
		if method == "Opaque" {
			a = 255
		}
		pix := f.Mutable()
		for i := 3; i < len(pix.Pix); i += 4 {
			pix.Pix[i] = a
		}
		f.AlphaEnabled = true
		return nil, nil
	}
	out, active, err := ops.AlphaMode(f.Pixels(), method, f.Background)
	if err != nil {
		return nil, err
	}
	f.SetPixels(out)
	f.AlphaEnabled = active
	return nil, nil
}

// crop cuts one region, or tiles the image when the geometry has a size
// but no offset.
func crop(_ *CLI, f frame, _ registry.Polarity, arg, _ string) ([]*imagelist.Image, error) {
	g := geom(arg)
	w, h := f.Width(), f.Height()
	tiled := !g.Flags.Has(geometry.XValue) && !g.Flags.Has(geometry.YValue) && f.Gravity == geometry.UndefinedGravity
	if tiled {
		r := geometry.Region(w, h, g, geometry.UndefinedGravity)
		if r.Width >= w && r.Height >= h {
			return nil, nil
		}
		var out []*imagelist.Image
		for _, tile := range ops.CropTiles(f.Pixels(), r.Width, r.Height) {
			out = append(out, f.Derive(tile))
		}
		return out, nil
	}
	r := geometry.Region(w, h, g, f.Gravity)
	pix, err := ops.Crop(f.Pixels(), rect(r))
	if err != nil {
		return nil, missed(err, arg)
	}
	page := f.Page
	f.SetPixels(pix)
	f.Page = imagelist.Page{
		Width:  page.Width,
		Height: page.Height,
		X:      page.X + max(r.X, 0),
		Y:      page.Y + max(r.Y, 0),
	}
	return nil, nil
}

func trim(_ *CLI, f frame, _ registry.Polarity, _, _ string) ([]*imagelist.Image, error) {
	r := ops.Trim(f.Pixels(), f.Fuzz)
	if r == f.Pixels().Bounds() {
		return nil, nil
	}
	pix, err := ops.Crop(f.Pixels(), r)
	if err != nil {
		return nil, err
	}
	page := f.Page
	f.SetPixels(pix)
	f.Page = imagelist.Page{Width: page.Width, Height: page.Height, X: page.X + r.Min.X, Y: page.Y + r.Min.Y}
	return nil, nil
}

func checkRepage(p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		return nil
	}
	return checkGeometry(p, arg, "")
}

// repage sets the virtual canvas; "+repage" resets it to the image.
func repage(_ *CLI, f frame, p registry.Polarity, arg, _ string) ([]*imagelist.Image, error) {
	if p == registry.Disable {
		f.Page = imagelist.Page{Width: f.Width(), Height: f.Height()}
		return nil, nil
	}
	g := geom(arg)
	if g.Flags.Has(geometry.WidthValue) {
		f.Page.Width = int(g.Width)
		f.Page.Height = int(g.Height)
	}
	if g.Flags.Has(geometry.XValue) {
		f.Page.X = int(g.X)
	}
	if g.Flags.Has(geometry.YValue) {
		f.Page.Y = int(g.Y)
	}
	return nil, nil
}

func colorspace(_ *CLI, f frame, p registry.Polarity, arg, _ string) ([]*imagelist.Image, error) {
	target := "sRGB"
	if p == registry.Enable {
		target, _ = registry.Parse("colorspace", arg)
	}
	if target == f.Colorspace {
		return nil, nil
	}
	out, err := ops.TransformColorspace(f.Pixels(), f.Colorspace, target)
	if err != nil {
		return nil, err
	}
	f.SetPixels(out)
	f.Colorspace = target
	return nil, nil
}

// resample resizes to a new resolution given in the density units.
func resample(c *CLI, f frame, _ registry.Polarity, arg, _ string) ([]*imagelist.Image, error) {
	g := geom(arg)
	x, y := density(f.Density)
	tx := g.Width
	ty := tx
	if g.Flags.Has(geometry.HeightValue) {
		ty = g.Height
	}
	if tx <= 0 || ty <= 0 {
		return nil, invalidArg(arg, nil)
	}
	w := int(math.Round(float64(f.Width()) * tx / x))
	h := int(math.Round(float64(f.Height()) * ty / y))
	f.SetPixels(ops.Resize(f.Pixels(), max(w, 1), max(h, 1), c.settings.Image.Filter))
	f.Density = fmt.Sprintf("%gx%g", tx, ty)
	return nil, nil
}

func separate(c *CLI, f frame, _ registry.Polarity, _, _ string) ([]*imagelist.Image, error) {
	var out []*imagelist.Image
	for _, pix := range ops.Separate(f.Pixels(), c.settings.Image.Channel) {
		img := f.Derive(pix)
		img.Colorspace = "Gray"
		out = append(out, img)
	}
	return out, nil
}

// strip removes comments and namespaced properties such as exif:*.
func strip(_ *CLI, f frame, _ registry.Polarity, _, _ string) ([]*imagelist.Image, error) {
	for k := range f.Properties {
		if k == "comment" || strings.Contains(k, ":") {
			delete(f.Properties, k)
		}
	}
	return nil, nil
}

// identify prints the -format template for the image when one is set,
// a one-line description otherwise, or JSON under -verbose.
func identify(c *CLI, f frame, _ registry.Polarity, _, _ string) ([]*imagelist.Image, error) {
	info := &c.settings.Image
	switch {
	case info.Format != "":
		text, err := c.Interpret(info.Format, f.Image, f.index, f.count)
		if err != nil {
			return nil, fail(exception.OptionWarning, exception.InterpretPropertyFailure, "%v", err)
		}
		fmt.Fprint(c.stdout, text)
	case info.Verbose:
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(codec.InfoOf(f.Image)); err != nil {
			return nil, err
		}
	default:
		fmt.Fprintln(c.stdout, codec.Describe(f.Image))
	}
	return nil, nil
}

func houghLines(c *CLI, f frame, _ registry.Polarity, arg, _ string) (*image.NRGBA, error) {
	g := geom(arg)
	threshold := 40
	if g.Flags.Has(geometry.XValue) {
		threshold = int(g.X)
	}
	w, h := int(g.Width), int(g.Height)
	if w <= 0 || h <= 0 {
		return nil, invalidArg(arg, nil)
	}
	lines := detection.HoughLines(f.Pixels(), w, h, threshold)
	f.Properties["hough:lines"] = strconv.Itoa(len(lines))
	stroke := c.settings.Draw.Stroke
	if !c.settings.Draw.StrokeActive {
		stroke = c.settings.Draw.Fill
	}
	return detection.DrawLines(f.Width(), f.Height(), lines, stroke, f.Background), nil
}

func checkAnnotate(_ registry.Polarity, arg, _ string) error {
	if _, err := annotateGeometry(arg); err != nil {
		return invalidArg(arg, err)
	}
	return nil
}

// annotateGeometry reads "degrees{+-}x{+-}y"; a lone number is the angle.
func annotateGeometry(arg string) (geometry.Geometry, error) {
	return geometry.Parse(arg)
}

// annotate draws text with the fill color, or through the fill pattern
// when one is active.
func annotate(c *CLI, f frame, _ registry.Polarity, arg, text string) ([]*imagelist.Image, error) {
	g, _ := annotateGeometry(arg)
	deg := 0.0
	if g.Flags.Has(geometry.WidthValue) {
		deg = g.Width
	}
	x, y := int(g.X), int(g.Y)
	opts := c.settings.textOptions()
	d := &c.settings.Draw
	if !d.FillPatternActive || d.FillPattern == nil {
		f.SetPixels(ops.Annotate(f.Pixels(), text, x, y, deg, opts))
		return nil, nil
	}
	w, h := f.Width(), f.Height()
	opts.Fill = white
	opts.Undercolor = ops.Transparent
	mask := ops.Annotate(ops.Canvas(w, h, defaultFill), text, x, y, deg, opts)
	pattern := ops.Tile(d.FillPattern.Pixels(), w, h)
	out, err := ops.CompositeMasked(f.Pixels(), pattern, mask, "Over", image.Point{})
	if err != nil {
		return nil, err
	}
	f.SetPixels(out)
	return nil, nil
}
