package imaging

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/image-pipeline/internal/geometry"
)

// nativeSize is the pixel height of the built-in face.
const nativeSize = 13

// TextOptions carries the draw settings that affect text.
type TextOptions struct {
	Fill             color.NRGBA
	Undercolor       color.NRGBA
	Pointsize        float64
	Gravity          geometry.Gravity
	InterlineSpacing float64
	InterwordSpacing float64
	Kerning          float64
}

func (o TextOptions) scale() float64 {
	if o.Pointsize <= 0 {
		return 1
	}
	return o.Pointsize / nativeSize
}

// lineWidth measures a line at native size.
func (o TextOptions) lineWidth(s string) int {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	if n := len([]rune(s)); n > 1 {
		w += int(math.Round(o.Kerning/o.scale())) * (n - 1)
	}
	w += int(math.Round(o.InterwordSpacing/o.scale())) * strings.Count(s, " ")
	return w
}

// drawLine renders one line at native size with its baseline at dot.
func (o TextOptions) drawLine(dst *image.NRGBA, s string, dot fixed.Point26_6) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(o.Fill),
		Face: basicfont.Face7x13,
		Dot:  dot,
	}
	if o.Kerning == 0 && o.InterwordSpacing == 0 {
		d.DrawString(s)
		return
	}
	kern := fixed.I(int(math.Round(o.Kerning / o.scale())))
	word := fixed.I(int(math.Round(o.InterwordSpacing / o.scale())))
	for _, r := range s {
		d.DrawString(string(r))
		d.Dot.X += kern
		if r == ' ' {
			d.Dot.X += word
		}
	}
}

// RenderText draws text on a canvas sized to fit it. Lines are separated
// by newlines and aligned according to the gravity's horizontal part.
func RenderText(text string, opts TextOptions) *image.NRGBA {
	lines := strings.Split(text, "\n")
	face := basicfont.Face7x13
	lead := int(math.Round(opts.InterlineSpacing / opts.scale()))
	lineHeight := face.Height + lead
	width := 1
	for _, l := range lines {
		if w := opts.lineWidth(l); w > width {
			width = w
		}
	}
	height := lineHeight*len(lines) - lead
	if height < 1 {
		height = 1
	}
	canvas := imaging.New(width, height, opts.Undercolor)
	for i, l := range lines {
		x := 0
		switch opts.Gravity {
		case geometry.North, geometry.Center, geometry.South:
			x = (width - opts.lineWidth(l)) / 2
		case geometry.NorthEast, geometry.East, geometry.SouthEast:
			x = width - opts.lineWidth(l)
		}
		opts.drawLine(canvas, l, fixed.P(x, i*lineHeight+face.Ascent))
	}
	s := opts.scale()
	if s == 1 {
		return canvas
	}
	w := int(math.Max(1, math.Round(float64(width)*s)))
	h := int(math.Max(1, math.Round(float64(height)*s)))
	return imaging.Resize(canvas, w, h, imaging.Linear)
}

// Wrap breaks text into lines no wider than width pixels at the given
// options. Words longer than a line are split by character.
func Wrap(text string, width int, opts TextOptions) string {
	if width <= 0 {
		return text
	}
	native := int(float64(width) / opts.scale())
	var out []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if opts.lineWidth(candidate) <= native {
				line = candidate
				continue
			}
			if line != "" {
				out = append(out, line)
			}
			line = ""
			for _, r := range word {
				if line != "" && opts.lineWidth(line+string(r)) > native {
					out = append(out, line)
					line = ""
				}
				line += string(r)
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Caption renders text word-wrapped to width. A zero height sizes the
// canvas to the text; otherwise the text is placed in a w×h canvas by
// gravity.
func Caption(text string, width, height int, opts TextOptions) *image.NRGBA {
	rendered := RenderText(Wrap(text, width, opts), opts)
	if width <= 0 {
		return rendered
	}
	b := rendered.Bounds()
	if height <= 0 {
		height = b.Dy()
	}
	canvas := imaging.New(width, height, opts.Undercolor)
	r := opts.Gravity.Adjust(width, height, geometry.Rect{Width: b.Dx(), Height: b.Dy()})
	return imaging.Overlay(canvas, rendered, image.Pt(r.X, r.Y), 1.0)
}

// Annotate draws text on img. The offset is relative to the gravity
// point; degrees rotates the text clockwise about its origin.
func Annotate(img *image.NRGBA, text string, x, y int, degrees float64, opts TextOptions) *image.NRGBA {
	rendered := RenderText(text, opts)
	if degrees != 0 {
		rendered = imaging.Rotate(rendered, -degrees, color.NRGBA{})
	}
	b := img.Bounds()
	rb := rendered.Bounds()
	r := geometry.Rect{Width: rb.Dx(), Height: rb.Dy(), X: x, Y: y}
	if opts.Gravity == geometry.UndefinedGravity {
		// without gravity the offset names the baseline origin
		r.Y -= int(math.Round(float64(basicfont.Face7x13.Ascent) * opts.scale()))
	} else {
		r = opts.Gravity.Adjust(b.Dx(), b.Dy(), r)
	}
	return imaging.Overlay(img, rendered, image.Pt(r.X, r.Y), 1.0)
}
