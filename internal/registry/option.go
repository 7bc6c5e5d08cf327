// Package registry is the operation table of the pipeline. It maps an
// option name to its argument arity and classification flags; it holds no
// behavior, so classifying an option is a pure lookup.
package registry

import (
	"sort"
	"strings"
)

// Flags classifies an option.
type Flags uint16

const (
	// Setting options mutate the execution context only.
	Setting Flags = 1 << iota
	// NoImageOperator options may run with an empty image list.
	NoImageOperator
	// SimpleOperator options apply to every image independently.
	SimpleOperator
	// ListOperator options apply once to the list as a whole.
	ListOperator
	// Deprecated options are rejected.
	Deprecated
	// Genesis options are only meaningful to the outer command and are
	// invalid inside a pipeline.
	Genesis
	// Special options are handled by the command or script processor.
	Special
	// FatalIfUnused marks operators that make no sense without images.
	FatalIfUnused
	// NeverInterpolate options receive their arguments verbatim.
	NeverInterpolate
	// AlwaysInterpolate options are interpolated even when the pipeline
	// has interpolation turned off.
	AlwaysInterpolate
)

// Has reports whether every bit of f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Any reports whether any bit of f2 is set in f.
func (f Flags) Any(f2 Flags) bool {
	return f&f2 != 0
}

func (f Flags) String() string {
	names := []struct {
		bit  Flags
		name string
	}{
		{Setting, "Setting"},
		{NoImageOperator, "NoImage"},
		{SimpleOperator, "Simple"},
		{ListOperator, "List"},
		{Deprecated, "Deprecated"},
		{Genesis, "Genesis"},
		{Special, "Special"},
		{FatalIfUnused, "FatalIfUnused"},
		{NeverInterpolate, "NeverInterpolate"},
		{AlwaysInterpolate, "AlwaysInterpolate"},
	}
	var parts []string
	for _, n := range names {
		if f.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ",")
}

// Polarity distinguishes the "-name" and "+name" forms of an option.
type Polarity int

const (
	// Enable is the "-name" form.
	Enable Polarity = iota
	// Disable is the "+name" form.
	Disable
)

func (p Polarity) String() string {
	if p == Disable {
		return "+"
	}
	return "-"
}

// Option is one registry entry. Arity counts the arguments of the
// "-name" form; the "+name" form may take fewer.
type Option struct {
	Name      string
	Arity     int
	PlusArity int
	Flags     Flags

	// PlusDeprecated rejects the "+name" form.
	PlusDeprecated bool
}

// ArityOf returns the number of arguments the form p of o takes.
func (o *Option) ArityOf(p Polarity) int {
	if p == Disable {
		return o.PlusArity
	}
	return o.Arity
}

const (
	s   = Setting
	ni  = NoImageOperator
	so  = SimpleOperator | FatalIfUnused
	lo  = ListOperator | FatalIfUnused
	dep = Deprecated
	nv  = NeverInterpolate
	ai  = AlwaysInterpolate
)

var table = map[string]*Option{}

func def(flags Flags, arity int, names ...string) {
	for _, n := range names {
		table[n] = &Option{Name: n, Arity: arity, PlusArity: arity, Flags: flags}
	}
}

// plus sets the arity of the "+name" form.
func plus(arity int, names ...string) {
	for _, n := range names {
		table[n].PlusArity = arity
	}
}

// noPlus rejects the "+name" form, which takes no argument.
func noPlus(names ...string) {
	for _, n := range names {
		table[n].PlusArity = 0
		table[n].PlusDeprecated = true
	}
}

func init() {
	// settings without an argument
	def(s, 0, "adjoin", "antialias", "black-point-compensation", "ping",
		"quiet", "regard-warnings", "respect-parentheses", "synchronize",
		"taint", "verbose")
	// settings with one argument
	def(s, 1, "affine", "attenuate", "authenticate", "background", "bias",
		"blue-primary", "bordercolor", "channel", "compose", "compress",
		"debug", "define", "delay", "density", "direction", "dispose",
		"dither", "encoding", "endian", "extract", "family", "filter",
		"font", "fuzz", "gravity", "green-primary", "intent", "interlace",
		"interline-spacing", "interpolate", "interword-spacing", "kerning",
		"log", "loop", "mattecolor", "metric", "orient", "page",
		"pointsize", "precision", "quality", "red-primary", "sampling-factor",
		"scene", "seed", "size", "strokewidth", "style", "tile-offset",
		"transparent-color", "treedepth", "type", "undercolor", "units",
		"virtual-pixel", "weight", "white-point")
	def(s|nv, 1, "caption", "comment", "label", "fill", "stroke", "format",
		"texture", "tile")
	def(s, 2, "limit")

	// settings that are also per-image operators
	def(s|so, 0, "monitor")
	def(s|so, 1, "depth", "colorspace", "colors")

	// per-image operators
	def(so, 0, "auto-gamma", "auto-level", "auto-orient", "clamp",
		"contrast", "despeckle", "equalize", "flip", "flop", "identify",
		"monochrome", "negate", "normalize", "separate", "strip",
		"transpose", "transverse", "trim")
	def(so, 1, "adaptive-blur", "adaptive-resize", "adaptive-sharpen",
		"alpha", "black-threshold", "blur", "border", "brightness-contrast",
		"canny", "charcoal", "chop", "colorize", "contrast-stretch", "crop",
		"edge", "emboss", "extent", "frame", "gamma", "gaussian-blur",
		"grayscale", "hough-lines", "implode", "level", "median", "modulate",
		"motion-blur", "noise",
		"opaque", "posterize", "raise", "repage", "resample", "resize",
		"roll", "rotate", "sample", "scale", "sepia-tone", "sharpen",
		"shave", "shear", "sigmoidal-contrast", "solarize", "splice",
		"spread", "swirl", "threshold", "thumbnail", "tint", "transparent",
		"unsharp", "wave", "white-threshold")
	def(so|ai, 2, "annotate")
	def(so, 2, "morphology")

	// list operators
	def(lo, 0, "append", "clut", "coalesce", "combine", "compare",
		"composite", "flatten", "hald-clut", "mosaic", "reverse")
	def(lo, 1, "delete", "duplicate", "evaluate-sequence", "insert",
		"layers", "morph", "smush", "swap")
	def(lo|nv, 1, "process")

	// no-image operators
	def(ni|nv, 1, "read", "write", "clone")
	def(ni|nv, 0, "(", ")", "{", "}")
	def(ni|nv, 2, "set")
	def(ni|nv, 1, "print")
	def(ni, 1, "list")

	def(dep, 0, "average", "deconstruct", "matte", "maximum", "minimum")
	def(dep, 1, "affinity", "box", "gaussian", "linewidth", "map", "pen",
		"recolor")

	def(Genesis, 1, "bench", "duration")
	def(Genesis, 0, "concurrent")
	def(Special|nv, 1, "script")
	def(Special, 0, "exit")

	// "+setting" resets without an argument
	plus(0, "affine", "affinity", "attenuate", "authenticate", "background",
		"bias", "blue-primary", "bordercolor", "box", "caption", "channel",
		"colorspace", "comment", "compose", "compress", "debug", "delay",
		"density", "depth", "direction", "dispose", "dither", "encoding",
		"endian", "extract", "family", "fill", "filter", "font", "format",
		"fuzz", "gravity", "green-primary", "intent", "interlace",
		"interline-spacing", "interpolate", "interword-spacing", "kerning",
		"label", "log", "loop", "map", "mattecolor", "metric", "orient",
		"page", "pointsize", "precision", "quality", "red-primary",
		"sampling-factor", "scene", "seed", "size", "stroke", "style",
		"texture", "tile", "tile-offset", "transparent-color", "type",
		"undercolor", "units", "virtual-pixel", "white-point")
	plus(0, "clone", "delete", "duplicate", "insert", "swap", "repage",
		"threshold")
	plus(1, "set")
	noPlus("annotate", "black-threshold", "blur", "brightness-contrast",
		"implode", "limit", "list")
}

// Arity returns the number of arguments option takes in the form it is
// given; unknown options take none.
func Arity(option string) int {
	opt, ok := Lookup(option)
	if !ok {
		return 0
	}
	return opt.ArityOf(PolarityOf(option))
}

// Lookup classifies option. One leading '-' or '+' is stripped; the scope
// symbols "(", ")", "{" and "}" are looked up as they are.
func Lookup(option string) (*Option, bool) {
	name := Name(option)
	if name == "" {
		return nil, false
	}
	opt, ok := table[name]
	return opt, ok
}

// Name returns option without its polarity prefix, lower-cased.
func Name(option string) string {
	if len(option) > 1 && (option[0] == '-' || option[0] == '+') {
		option = option[1:]
	}
	return strings.ToLower(option)
}

// PolarityOf returns Disable for "+name" and Enable otherwise.
func PolarityOf(option string) Polarity {
	if len(option) > 1 && option[0] == '+' {
		return Disable
	}
	return Enable
}

// IsOption reports whether token looks like an option rather than a
// filename. Lone "-" (stdin) is a filename.
func IsOption(token string) bool {
	if len(token) < 2 {
		return token == "(" || token == ")" || token == "{" || token == "}"
	}
	if token[0] != '-' && token[0] != '+' {
		return false
	}
	c := token[1]
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '-' && len(token) == 2
}

// All returns every option sorted by name.
func All() []*Option {
	out := make([]*Option, 0, len(table))
	for _, o := range table {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
