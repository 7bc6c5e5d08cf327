// Package geometry parses the geometry and numeric-list arguments taken by
// pipeline options ("100x50+10+5", "50%", "3x1.5", "10,20,30").
package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Flags records which parts of a geometry string were present and which
// modifier characters were attached to it.
type Flags uint32

const (
	NoValue     Flags = 0
	WidthValue  Flags = 1 << iota
	HeightValue
	XValue
	YValue
	XNegative
	YNegative
	PercentValue // '%'
	AspectValue  // '!'
	LessValue    // '<'
	GreaterValue // '>'
	MinimumValue // '^'
	AreaValue    // '@'
	SeparatorValue
	RhoValue
	SigmaValue
	XiValue
	PsiValue
	ChiValue
)

// Has reports whether every bit of f2 is set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Geometry is a parsed "WxH+X+Y" specification.
type Geometry struct {
	Width  float64
	Height float64
	X      float64
	Y      float64
	Flags  Flags
}

// Info is a parsed list of up to five numbers, as used by options such as
// -blur (radius x sigma) or -level (black,white,gamma).
type Info struct {
	Rho   float64
	Sigma float64
	Xi    float64
	Psi   float64
	Chi   float64
	Flags Flags
}

// Rect is an integer region with offset.
type Rect struct {
	Width  int
	Height int
	X      int
	Y      int
}

func extractModifiers(s string) (string, Flags) {
	var f Flags
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '%':
			f |= PercentValue
		case '!':
			f |= AspectValue
		case '<':
			f |= LessValue
		case '>':
			f |= GreaterValue
		case '^':
			f |= MinimumValue
		case '@':
			f |= AreaValue
		case ' ', '\t', '=':
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), f
}

// readNumber reads an unsigned decimal number at s[i:].
func readNumber(s string, i int) (float64, int, bool) {
	j := i
	for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
		j++
	}
	// exponent
	if j < len(s) && j > i && (s[j] == 'e' || s[j] == 'E') {
		k := j + 1
		if k < len(s) && (s[k] == '+' || s[k] == '-') {
			k++
		}
		if k < len(s) && s[k] >= '0' && s[k] <= '9' {
			for k < len(s) && s[k] >= '0' && s[k] <= '9' {
				k++
			}
			j = k
		}
	}
	if j == i {
		return 0, i, false
	}
	v, err := strconv.ParseFloat(s[i:j], 64)
	if err != nil {
		return 0, i, false
	}
	return v, j, true
}

// Parse parses a "WxH{+-}X{+-}Y" geometry with optional modifiers.
// A lone width also sets the height, as in "100" meaning 100x100.
func Parse(s string) (Geometry, error) {
	var g Geometry
	body, flags := extractModifiers(s)
	g.Flags = flags
	if body == "" {
		if flags == NoValue {
			return g, fmt.Errorf("invalid geometry %q: empty", s)
		}
		return g, nil
	}
	i := 0
	if v, j, ok := readNumber(body, i); ok {
		g.Width = v
		g.Flags |= WidthValue
		i = j
	}
	if i < len(body) && (body[i] == 'x' || body[i] == 'X') {
		g.Flags |= SeparatorValue
		i++
		if v, j, ok := readNumber(body, i); ok {
			g.Height = v
			g.Flags |= HeightValue
			i = j
		}
	}
	for n := 0; n < 2 && i < len(body); n++ {
		if body[i] != '+' && body[i] != '-' {
			break
		}
		neg := body[i] == '-'
		v, j, ok := readNumber(body, i+1)
		if !ok {
			return g, fmt.Errorf("invalid geometry %q: bad offset", s)
		}
		if neg {
			v = -v
		}
		i = j
		if n == 0 {
			g.X = v
			g.Flags |= XValue
			if neg {
				g.Flags |= XNegative
			}
		} else {
			g.Y = v
			g.Flags |= YValue
			if neg {
				g.Flags |= YNegative
			}
		}
	}
	if i != len(body) {
		return g, fmt.Errorf("invalid geometry %q: unexpected %q", s, body[i:])
	}
	if g.Flags&(WidthValue|HeightValue|XValue|YValue) == 0 && flags == NoValue {
		return g, fmt.Errorf("invalid geometry %q", s)
	}
	if g.Flags.Has(WidthValue) && !g.Flags.Has(HeightValue) && !g.Flags.Has(SeparatorValue) {
		g.Height = g.Width
	}
	return g, nil
}

// IsGeometry reports whether s parses as a geometry.
func IsGeometry(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// ParseInfo parses a numeric list. Both "rho x sigma + xi + psi" and
// comma separated "rho,sigma,xi,psi,chi" forms are accepted. A missing
// sigma is reported through Flags, never defaulted here.
func ParseInfo(s string) (Info, error) {
	var info Info
	body, flags := extractModifiers(s)
	info.Flags = flags
	body = strings.TrimSpace(body)
	if body == "" {
		return info, fmt.Errorf("invalid argument %q: empty", s)
	}
	if strings.ContainsAny(body, ",") {
		slots := []*float64{&info.Rho, &info.Sigma, &info.Xi, &info.Psi, &info.Chi}
		bits := []Flags{RhoValue, SigmaValue, XiValue, PsiValue, ChiValue}
		parts := strings.Split(body, ",")
		if len(parts) > len(slots) {
			return info, fmt.Errorf("invalid argument %q: too many values", s)
		}
		for k, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return info, fmt.Errorf("invalid argument %q: %w", s, err)
			}
			*slots[k] = v
			info.Flags |= bits[k]
		}
		return info, nil
	}

	i := 0
	readSigned := func() (float64, bool) {
		neg := false
		if i < len(body) && (body[i] == '+' || body[i] == '-') {
			neg = body[i] == '-'
			i++
		}
		v, j, ok := readNumber(body, i)
		if !ok {
			return 0, false
		}
		i = j
		if neg {
			v = -v
		}
		return v, true
	}
	if i < len(body) && body[i] != 'x' && body[i] != 'X' && body[i] != '/' {
		v, ok := readSigned()
		if !ok {
			return info, fmt.Errorf("invalid argument %q", s)
		}
		info.Rho = v
		info.Flags |= RhoValue
	}
	if i < len(body) && (body[i] == 'x' || body[i] == 'X' || body[i] == '/') {
		i++
		info.Flags |= SeparatorValue
		if v, ok := readSigned(); ok {
			info.Sigma = v
			info.Flags |= SigmaValue
		}
	}
	for _, bit := range []Flags{XiValue, PsiValue} {
		if i >= len(body) || (body[i] != '+' && body[i] != '-') {
			break
		}
		v, ok := readSigned()
		if !ok {
			return info, fmt.Errorf("invalid argument %q", s)
		}
		if bit == XiValue {
			info.Xi = v
		} else {
			info.Psi = v
		}
		info.Flags |= bit
	}
	if i != len(body) {
		return info, fmt.Errorf("invalid argument %q: unexpected %q", s, body[i:])
	}
	return info, nil
}

// RadiusSigma parses a "radius x sigma" argument. Sigma defaults to 1.0
// when it is not given.
func RadiusSigma(s string) (radius, sigma float64, err error) {
	info, err := ParseInfo(s)
	if err != nil {
		return 0, 0, err
	}
	sigma = 1.0
	if info.Flags.Has(SigmaValue) {
		sigma = info.Sigma
	}
	return info.Rho, sigma, nil
}

// Scale returns v scaled as a percentage of rangeMax when percent is set,
// and v unchanged otherwise.
func Scale(v float64, percent bool, rangeMax float64) float64 {
	if percent {
		return v * rangeMax / 100.0
	}
	return v
}

// Resize computes the target size of an image of w×h pixels for a resize
// geometry, honoring the %, !, <, >, ^ and @ modifiers.
func Resize(w, h int, g Geometry) (int, int) {
	fw, fh := float64(w), float64(h)
	if w == 0 || h == 0 {
		return w, h
	}
	if g.Flags.Has(AreaValue) {
		area := g.Width
		if g.Flags.Has(HeightValue) {
			area = g.Width * g.Height
		}
		if g.Flags.Has(PercentValue) {
			area = fw * fh * g.Width / 100.0
		}
		scale := math.Sqrt(area / (fw * fh))
		if (g.Flags.Has(GreaterValue) && scale >= 1) || (g.Flags.Has(LessValue) && scale <= 1) {
			return w, h
		}
		return atLeastOne(fw * scale), atLeastOne(fh * scale)
	}
	tw, th := g.Width, g.Height
	if g.Flags.Has(PercentValue) {
		sx := g.Width
		sy := g.Height
		if !g.Flags.Has(HeightValue) {
			sy = sx
		}
		return atLeastOne(fw * sx / 100.0), atLeastOne(fh * sy / 100.0)
	}
	hasW := g.Flags.Has(WidthValue) && g.Width > 0
	hasH := g.Flags.Has(HeightValue) && g.Height > 0
	if !hasW && !hasH {
		return w, h
	}
	var nw, nh float64
	switch {
	case g.Flags.Has(AspectValue) && hasW && hasH:
		nw, nh = tw, th
	case !hasH || (!g.Flags.Has(HeightValue) && !g.Flags.Has(SeparatorValue)):
		if !g.Flags.Has(SeparatorValue) {
			// "100" behaves as "100x100"
			s := math.Min(tw/fw, tw/fh)
			if g.Flags.Has(MinimumValue) {
				s = math.Max(tw/fw, tw/fh)
			}
			nw, nh = fw*s, fh*s
		} else {
			nw, nh = tw, fh*tw/fw
		}
	case !hasW:
		nw, nh = fw*th/fh, th
	default:
		sx, sy := tw/fw, th/fh
		s := math.Min(sx, sy)
		if g.Flags.Has(MinimumValue) {
			s = math.Max(sx, sy)
		}
		nw, nh = fw*s, fh*s
	}
	if g.Flags.Has(GreaterValue) && fw <= tw && fh <= th {
		return w, h
	}
	if g.Flags.Has(GreaterValue) && !hasH && fw <= tw {
		return w, h
	}
	if g.Flags.Has(LessValue) && (fw >= tw || fh >= th) {
		return w, h
	}
	return atLeastOne(nw), atLeastOne(nh)
}

func atLeastOne(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	return n
}

// Region resolves a geometry against an image of w×h pixels, applying
// percentages and gravity. A missing width or height takes the image's.
func Region(w, h int, g Geometry, gravity Gravity) Rect {
	rw, rh := g.Width, g.Height
	if g.Flags.Has(PercentValue) {
		rw = float64(w) * g.Width / 100.0
		rh = rw
		if g.Flags.Has(HeightValue) {
			rh = float64(h) * g.Height / 100.0
		} else {
			rh = float64(h) * g.Width / 100.0
		}
	}
	r := Rect{Width: int(math.Round(rw)), Height: int(math.Round(rh)), X: int(g.X), Y: int(g.Y)}
	if !g.Flags.Has(WidthValue) || r.Width == 0 {
		r.Width = w
	}
	if (!g.Flags.Has(HeightValue) && g.Flags.Has(SeparatorValue)) || r.Height == 0 {
		r.Height = h
	}
	return gravity.Adjust(w, h, r)
}

func (g Geometry) String() string {
	var b strings.Builder
	if g.Flags.Has(WidthValue) {
		b.WriteString(strconv.FormatFloat(g.Width, 'g', -1, 64))
	}
	if g.Flags.Has(HeightValue) {
		b.WriteByte('x')
		b.WriteString(strconv.FormatFloat(g.Height, 'g', -1, 64))
	}
	if g.Flags.Has(XValue) || g.Flags.Has(YValue) {
		fmt.Fprintf(&b, "%+g%+g", g.X, g.Y)
	}
	return b.String()
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d%+d%+d", r.Width, r.Height, r.X, r.Y)
}
