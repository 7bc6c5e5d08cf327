package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/fcolor"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-pipeline/internal/geometry"
)

// porterDuff gives the source and destination factors of each Porter-Duff
// operator as functions of source and destination alpha.
var porterDuff = map[string]func(sa, da float64) (fs, fd float64){
	"Clear":   func(sa, da float64) (float64, float64) { return 0, 0 },
	"Src":     func(sa, da float64) (float64, float64) { return 1, 0 },
	"Copy":    func(sa, da float64) (float64, float64) { return 1, 0 },
	"Dst":     func(sa, da float64) (float64, float64) { return 0, 1 },
	"Over":    func(sa, da float64) (float64, float64) { return 1, 1 - sa },
	"DstOver": func(sa, da float64) (float64, float64) { return 1 - da, 1 },
	"In":      func(sa, da float64) (float64, float64) { return da, 0 },
	"DstIn":   func(sa, da float64) (float64, float64) { return 0, sa },
	"Out":     func(sa, da float64) (float64, float64) { return 1 - da, 0 },
	"DstOut":  func(sa, da float64) (float64, float64) { return 0, 1 - sa },
	"Atop":    func(sa, da float64) (float64, float64) { return da, 1 - sa },
	"DstAtop": func(sa, da float64) (float64, float64) { return 1 - da, sa },
	"Xor":     func(sa, da float64) (float64, float64) { return 1 - da, 1 - sa },
	"Plus":    func(sa, da float64) (float64, float64) { return 1, 1 },
}

// blendModes are the separable blend modes bild implements directly.
// Each takes the destination first.
var blendModes = map[string]func(bg, fg image.Image) *image.RGBA{
	"Multiply":    blend.Multiply,
	"Screen":      blend.Screen,
	"Overlay":     blend.Overlay,
	"SoftLight":   blend.SoftLight,
	"HardLight":   func(bg, fg image.Image) *image.RGBA { return blend.Overlay(fg, bg) },
	"Darken":      blend.Darken,
	"Lighten":     blend.Lighten,
	"ColorBurn":   blend.ColorBurn,
	"ColorDodge":  blend.ColorDodge,
	"LinearBurn":  blend.LinearBurn,
	"LinearLight": blend.LinearLight,
	"Difference":  blend.Difference,
	"Exclusion":   blend.Exclusion,
	"Divide":      blend.Divide,
}

// colorModes mix unpremultiplied source and destination colors.
var colorModes = map[string]func(s, d colorful.Color) colorful.Color{
	"Hue": func(s, d colorful.Color) colorful.Color {
		sh, _, _ := s.Hsl()
		_, ds, dl := d.Hsl()
		return colorful.Hsl(sh, ds, dl)
	},
	"Saturate": func(s, d colorful.Color) colorful.Color {
		_, ss, _ := s.Hsl()
		dh, _, dl := d.Hsl()
		return colorful.Hsl(dh, ss, dl)
	},
	"Luminize": func(s, d colorful.Color) colorful.Color {
		_, _, sl := s.Hsl()
		dh, ds, _ := d.Hsl()
		return colorful.Hsl(dh, ds, sl)
	},
	"Colorize": func(s, d colorful.Color) colorful.Color {
		sh, ss, _ := s.Hsl()
		_, _, dl := d.Hsl()
		return colorful.Hsl(sh, ss, dl)
	},
	"Minus": func(s, d colorful.Color) colorful.Color {
		return colorful.Color{R: d.R - s.R, G: d.G - s.G, B: d.B - s.B}.Clamped()
	},
}

// ComposeOperators returns every operator Composite understands.
func ComposeOperators() []string {
	var names []string
	for n := range porterDuff {
		names = append(names, n)
	}
	for n := range blendModes {
		names = append(names, n)
	}
	for n := range colorModes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Composite draws src onto dst with its top-left corner at pt using the
// named operator. Only the overlapping area is affected.
func Composite(dst, src *image.NRGBA, op string, pt image.Point) (*image.NRGBA, error) {
	if op == "" || op == "Over" {
		return imaging.Overlay(dst, src, pt, 1.0), nil
	}
	sb := src.Bounds()
	region := image.Rect(pt.X, pt.Y, pt.X+sb.Dx(), pt.Y+sb.Dy()).Intersect(dst.Bounds())
	if region.Empty() {
		return imaging.Clone(dst), nil
	}
	bg := imaging.Crop(dst, region)
	fg := imaging.Crop(src, region.Sub(pt).Add(sb.Min))

	var part image.Image
	if fn, ok := porterDuff[op]; ok {
		part = blend.Blend(bg, fg, func(d, s fcolor.RGBAF64) fcolor.RGBAF64 {
			fs, fd := fn(s.A, d.A)
			return fcolor.RGBAF64{
				R: s.R*fs + d.R*fd,
				G: s.G*fs + d.G*fd,
				B: s.B*fs + d.B*fd,
				A: s.A*fs + d.A*fd,
			}
		})
	} else if fn, ok := blendModes[op]; ok {
		part = fn(bg, fg)
	} else if fn, ok := colorModes[op]; ok {
		part = blend.Blend(bg, fg, func(d, s fcolor.RGBAF64) fcolor.RGBAF64 {
			return separable(d, s, fn)
		})
	} else {
		return nil, fmt.Errorf("unrecognized compose operator %q", op)
	}
	return imaging.Paste(dst, part, region.Min), nil
}

// separable applies a blend function to premultiplied colors following the
// usual source-over weighting.
func separable(d, s fcolor.RGBAF64, fn func(s, d colorful.Color) colorful.Color) fcolor.RGBAF64 {
	unpre := func(c fcolor.RGBAF64) colorful.Color {
		if c.A == 0 {
			return colorful.Color{}
		}
		return colorful.Color{R: c.R / c.A, G: c.G / c.A, B: c.B / c.A}
	}
	b := fn(unpre(s), unpre(d)).Clamped()
	both := s.A * d.A
	return fcolor.RGBAF64{
		R: b.R*both + s.R*(1-d.A) + d.R*(1-s.A),
		G: b.G*both + s.G*(1-d.A) + d.G*(1-s.A),
		B: b.B*both + s.B*(1-d.A) + d.B*(1-s.A),
		A: s.A + d.A - both,
	}
}

// CompositeMasked composites src over dst, but only where mask is light.
func CompositeMasked(dst, src, mask *image.NRGBA, op string, pt image.Point) (*image.NRGBA, error) {
	full, err := Composite(dst, src, op, pt)
	if err != nil {
		return nil, err
	}
	mb := mask.Bounds()
	out := imaging.Clone(dst)
	for y := 0; y < out.Bounds().Dy(); y++ {
		for x := 0; x < out.Bounds().Dx(); x++ {
			mx, my := x-pt.X, y-pt.Y
			if mx < 0 || my < 0 || mx >= mb.Dx() || my >= mb.Dy() {
				continue
			}
			t := float64(luma(mask.NRGBAAt(mb.Min.X+mx, mb.Min.Y+my))) / 255
			i := out.PixOffset(x, y)
			for k := 0; k < 4; k++ {
				out.Pix[i+k] = clampUint8(float64(out.Pix[i+k])*(1-t) + float64(full.Pix[i+k])*t)
			}
		}
	}
	return out, nil
}

// Append joins images left to right, or top to bottom when vertical is
// set. Narrower images are aligned by gravity on the bg canvas.
func Append(imgs []*image.NRGBA, vertical bool, bg color.NRGBA, gravity geometry.Gravity) *image.NRGBA {
	return Smush(imgs, vertical, 0, bg, gravity)
}

// Smush joins images like Append with offset pixels between neighbours;
// a negative offset overlaps them.
func Smush(imgs []*image.NRGBA, vertical bool, offset int, bg color.NRGBA, gravity geometry.Gravity) *image.NRGBA {
	if len(imgs) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	along, across := 0, 0
	for i, img := range imgs {
		w, h := img.Bounds().Dx(), img.Bounds().Dy()
		if vertical {
			w, h = h, w
		}
		along += w
		if i > 0 {
			along += offset
		}
		if h > across {
			across = h
		}
	}
	if along < 0 {
		along = 0
	}
	cw, ch := along, across
	if vertical {
		cw, ch = across, along
	}
	canvas := imaging.New(cw, ch, bg)
	pos := 0
	for _, img := range imgs {
		w, h := img.Bounds().Dx(), img.Bounds().Dy()
		var pt image.Point
		if vertical {
			pt = image.Pt(alignAcross(cw, w, gravity, false), pos)
			pos += h + offset
		} else {
			pt = image.Pt(pos, alignAcross(ch, h, gravity, true))
			pos += w + offset
		}
		canvas = imaging.Overlay(canvas, img, pt, 1.0)
	}
	return canvas
}

// alignAcross offsets a size within total according to gravity. A
// horizontal append aligns on the vertical component of gravity, a
// vertical append on the horizontal one. Undefined gravity aligns to the
// start.
func alignAcross(total, size int, g geometry.Gravity, horizontal bool) int {
	var mid, end []geometry.Gravity
	if horizontal {
		mid = []geometry.Gravity{geometry.West, geometry.Center, geometry.East}
		end = []geometry.Gravity{geometry.SouthWest, geometry.South, geometry.SouthEast}
	} else {
		mid = []geometry.Gravity{geometry.North, geometry.Center, geometry.South}
		end = []geometry.Gravity{geometry.NorthEast, geometry.East, geometry.SouthEast}
	}
	for _, m := range mid {
		if g == m {
			return (total - size) / 2
		}
	}
	for _, e := range end {
		if g == e {
			return total - size
		}
	}
	return 0
}

// Layer is a frame positioned on a virtual canvas.
type Layer struct {
	Pix     *image.NRGBA
	X, Y    int
	Compose string
	Dispose string
}

func (l Layer) bounds() image.Rectangle {
	return image.Rect(l.X, l.Y, l.X+l.Pix.Bounds().Dx(), l.Y+l.Pix.Bounds().Dy())
}

// Flatten composes the layers in order onto a w×h canvas of bg.
func Flatten(layers []Layer, w, h int, bg color.NRGBA) (*image.NRGBA, error) {
	return flattenAt(layers, image.Rect(0, 0, w, h), bg)
}

// Mosaic is Flatten on a canvas just large enough to hold every layer
// measured from the origin.
func Mosaic(layers []Layer, bg color.NRGBA) (*image.NRGBA, error) {
	var r image.Rectangle
	for _, l := range layers {
		r = r.Union(l.bounds())
	}
	return flattenAt(layers, image.Rect(0, 0, r.Max.X, r.Max.Y), bg)
}

// Merge is Flatten on the union of the layer bounds, which may have a
// negative origin. The canvas origin is returned.
func Merge(layers []Layer, bg color.NRGBA) (*image.NRGBA, image.Point, error) {
	if len(layers) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0)), image.Point{}, nil
	}
	r := layers[0].bounds()
	for _, l := range layers[1:] {
		r = r.Union(l.bounds())
	}
	out, err := flattenAt(layers, r, bg)
	return out, r.Min, err
}

func flattenAt(layers []Layer, r image.Rectangle, bg color.NRGBA) (*image.NRGBA, error) {
	canvas := imaging.New(r.Dx(), r.Dy(), bg)
	var err error
	for _, l := range layers {
		canvas, err = Composite(canvas, l.Pix, l.Compose, image.Pt(l.X-r.Min.X, l.Y-r.Min.Y))
		if err != nil {
			return nil, err
		}
	}
	return canvas, nil
}

// Coalesce renders each frame as it appears when the sequence is played
// on a w×h canvas, honouring each frame's dispose method.
func Coalesce(layers []Layer, w, h int) ([]*image.NRGBA, error) {
	out := make([]*image.NRGBA, 0, len(layers))
	canvas := imaging.New(w, h, color.NRGBA{})
	for _, l := range layers {
		previous := canvas
		frame, err := Composite(canvas, l.Pix, l.Compose, image.Pt(l.X, l.Y))
		if err != nil {
			return nil, err
		}
		out = append(out, frame)
		switch l.Dispose {
		case "Background":
			canvas = imaging.Paste(frame, image.NewNRGBA(image.Rect(0, 0, l.Pix.Bounds().Dx(), l.Pix.Bounds().Dy())), image.Pt(l.X, l.Y))
		case "Previous":
			canvas = previous
		default:
			canvas = frame
		}
	}
	return out, nil
}

// DiffBounds returns the bounding box of the pixels that differ between
// two equally sized frames. Mode "CompareClear" only counts pixels that
// became more transparent, "CompareOverlay" only those that changed and
// are not transparent in b. An empty result means the frames match.
func DiffBounds(a, b *image.NRGBA, mode string) image.Rectangle {
	var r image.Rectangle
	bb := a.Bounds().Intersect(b.Bounds())
	for y := bb.Min.Y; y < bb.Max.Y; y++ {
		for x := bb.Min.X; x < bb.Max.X; x++ {
			ca, cb := a.NRGBAAt(x, y), b.NRGBAAt(x, y)
			if ca == cb {
				continue
			}
			switch mode {
			case "CompareClear":
				if cb.A >= ca.A {
					continue
				}
			case "CompareOverlay":
				if cb.A == 0 {
					continue
				}
			}
			r = r.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return r
}

// Clut replaces each selected channel value by looking it up along the
// longer axis of the clut image.
func Clut(img, clut *image.NRGBA, ch Channels) *image.NRGBA {
	cb := clut.Bounds()
	n := cb.Dx()
	if cb.Dy() > n {
		n = cb.Dy()
	}
	var table [256]color.NRGBA
	for i := range table {
		p := int(math.Round(float64(i) / 255 * float64(n-1)))
		if cb.Dx() >= cb.Dy() {
			table[i] = clut.NRGBAAt(cb.Min.X+p, cb.Min.Y+cb.Dy()/2)
		} else {
			table[i] = clut.NRGBAAt(cb.Min.X+cb.Dx()/2, cb.Min.Y+p)
		}
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if ch&Red != 0 {
			c.R = table[c.R].R
		}
		if ch&Green != 0 {
			c.G = table[c.G].G
		}
		if ch&Blue != 0 {
			c.B = table[c.B].B
		}
		if ch&Alpha != 0 {
			c.A = table[c.A].A
		}
		return c
	})
}

// HaldClut maps colors through a Hald color lookup image, a square of
// side level³ holding a level²-sized color cube.
func HaldClut(img, hald *image.NRGBA) (*image.NRGBA, error) {
	hb := hald.Bounds()
	side := hb.Dx()
	if side != hb.Dy() || side < 8 {
		return nil, fmt.Errorf("hald clut must be square, got %dx%d", hb.Dx(), hb.Dy())
	}
	level := int(math.Round(math.Cbrt(float64(side))))
	cube := level * level
	if level*level*level != side {
		return nil, fmt.Errorf("hald clut side %d is not a cube", side)
	}
	at := func(r, g, b int) color.NRGBA {
		i := r + g*cube + b*cube*cube
		return hald.NRGBAAt(hb.Min.X+i%side, hb.Min.Y+i/side)
	}
	scale := float64(cube-1) / 255
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r := int(math.Round(float64(c.R) * scale))
		g := int(math.Round(float64(c.G) * scale))
		b := int(math.Round(float64(c.B) * scale))
		out := at(r, g, b)
		out.A = c.A
		return out
	}), nil
}

// EvaluateSequence combines equally positioned pixels of every image with
// the named operator. The result has the size of the first image.
func EvaluateSequence(imgs []*image.NRGBA, op string) (*image.NRGBA, error) {
	if len(imgs) == 0 {
		return nil, fmt.Errorf("no images to evaluate")
	}
	var fold func(vals []float64) float64
	switch op {
	case "Add":
		fold = func(v []float64) float64 { return sum(v) }
	case "Mean":
		fold = func(v []float64) float64 { return sum(v) / float64(len(v)) }
	case "Max":
		fold = func(v []float64) float64 { return pick(v, func(a, b float64) bool { return a > b }) }
	case "Min":
		fold = func(v []float64) float64 { return pick(v, func(a, b float64) bool { return a < b }) }
	case "Median":
		fold = median
	case "Multiply":
		fold = func(v []float64) float64 {
			p := 1.0
			for _, x := range v {
				p *= x / 255
			}
			return p * 255
		}
	default:
		return nil, fmt.Errorf("unrecognized evaluate operator %q", op)
	}
	b := imgs[0].Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	vals := make([]float64, 0, len(imgs))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			for k := 0; k < 4; k++ {
				vals = vals[:0]
				for _, img := range imgs {
					ib := img.Bounds()
					if x >= ib.Dx() || y >= ib.Dy() {
						continue
					}
					vals = append(vals, float64(img.Pix[img.PixOffset(ib.Min.X+x, ib.Min.Y+y)+k]))
				}
				dst.Pix[dst.PixOffset(x, y)+k] = clampUint8(fold(vals))
			}
		}
	}
	return dst, nil
}

func sum(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s
}

func pick(v []float64, better func(a, b float64) bool) float64 {
	best := v[0]
	for _, x := range v[1:] {
		if better(x, best) {
			best = x
		}
	}
	return best
}

func median(v []float64) float64 {
	s := append([]float64(nil), v...)
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
	return s[len(s)/2]
}

// Morph returns frames in-between images a and b. Sizes are interpolated
// and colors are blended in RGB.
func Morph(a, b *image.NRGBA, frames int) []*image.NRGBA {
	out := make([]*image.NRGBA, 0, frames)
	ab, bb := a.Bounds(), b.Bounds()
	for i := 1; i <= frames; i++ {
		t := float64(i) / float64(frames+1)
		w := int(math.Round(float64(ab.Dx())*(1-t) + float64(bb.Dx())*t))
		h := int(math.Round(float64(ab.Dy())*(1-t) + float64(bb.Dy())*t))
		ra := imaging.Resize(a, w, h, imaging.Linear)
		rb := imaging.Resize(b, w, h, imaging.Linear)
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				ca, cb := ra.NRGBAAt(x, y), rb.NRGBAAt(x, y)
				fa, _ := colorful.MakeColor(opaque(ca))
				fb, _ := colorful.MakeColor(opaque(cb))
				r, g, bl := fa.BlendRgb(fb, t).Clamped().RGB255()
				alpha := clampUint8(float64(ca.A)*(1-t) + float64(cb.A)*t)
				dst.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: bl, A: alpha})
			}
		}
		out = append(out, dst)
	}
	return out
}

func opaque(c color.NRGBA) color.NRGBA {
	c.A = 255
	return c
}
