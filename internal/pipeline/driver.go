package pipeline

import (
	"strings"
	"unicode"

	"github.com/ironsheep/image-pipeline/internal/exception"
	"github.com/ironsheep/image-pipeline/internal/geometry"
	"github.com/ironsheep/image-pipeline/internal/registry"
)

// Option applies one option with up to two arguments. Arguments beyond
// the option's arity are ignored.
//
// It returns false when the option failed with an error or when an
// earlier fatal exception already stopped the pipeline.
func (c *CLI) Option(option, arg1, arg2 string) bool {
	if c.sink.Fatal() {
		return false
	}
	start := c.sink.Len()

	opt, ok := registry.Lookup(option)
	if !ok {
		c.sink.Throw(exception.OptionFatalError, exception.UnrecognizedOption, option, arg1)
		return false
	}
	p := registry.PolarityOf(option)
	if opt.Flags.Has(registry.Deprecated) || p == registry.Disable && opt.PlusDeprecated {
		c.sink.Throw(exception.OptionFatalError, exception.DeprecatedOptionNoCode, option, arg1)
		return false
	}
	if opt.Flags.Any(registry.Genesis | registry.Special) {
		c.sink.Throw(exception.OptionFatalError, exception.InvalidUseOfOption, option, arg1)
		return false
	}
	arity := opt.ArityOf(p)
	if arity < 2 {
		arg2 = ""
	}
	if arity < 1 {
		arg1 = ""
	}
	c.log.Debugf("option %s %q %q (%s)", option, arg1, arg2, opt.Flags)

	if !c.list.Empty() {
		c.syncImagesToSettings()
	}
	arg1, arg2 = c.interpolateArgs(opt, option, arg1, arg2)

	if opt.Flags.Has(registry.Setting) {
		if err := c.applySetting(opt, p, arg1, arg2); err != nil {
			c.record(exception.OptionError, err, option, arg1)
			return false
		}
	}
	if opt.Flags.Has(registry.NoImageOperator) {
		if err := c.noImageOperator(opt.Name, p, arg1, arg2); err != nil {
			c.record(exception.OptionError, err, option, arg1)
		}
		return !c.failedSince(start)
	}
	if c.list.Empty() && opt.Flags.Any(registry.SimpleOperator|registry.ListOperator) {
		if opt.Flags.Has(registry.Setting) {
			return true
		}
		c.sink.Throw(exception.OptionFatalError, exception.NoImagesFound, option, arg1)
		return false
	}
	if opt.Flags.Has(registry.SimpleOperator) {
		c.simpleOperator(opt.Name, option, p, arg1, arg2)
	}
	if opt.Flags.Has(registry.ListOperator) {
		c.listOperator(opt.Name, option, p, arg1, arg2)
	}
	return !c.failedSince(start)
}

// failedSince reports whether an error or worse was recorded after the
// first start entries.
func (c *CLI) failedSince(start int) bool {
	entries := c.sink.Entries()
	if start > len(entries) {
		start = 0
	}
	for _, e := range entries[start:] {
		if e.Severity >= exception.Error {
			return true
		}
	}
	return false
}

// syncImagesToSettings copies the image-level settings the user gave
// explicitly onto every image of the current list. Defines are not
// copied; artifact lookups fall back to the options instead.
func (c *CLI) syncImagesToSettings() {
	info := &c.settings.Image
	set := func(key string) bool {
		_, ok := info.Options[key]
		return ok
	}
	for _, img := range c.Images() {
		if set("background") {
			img.Background = info.Background
		}
		if set("bordercolor") {
			img.BorderColor = info.BorderColor
		}
		if set("mattecolor") {
			img.MatteColor = info.MatteColor
		}
		if set("compose") {
			img.Compose = info.Compose
		}
		if set("gravity") {
			img.Gravity = info.Gravity
		}
		if set("delay") {
			img.Delay = info.Delay
		}
		if set("dispose") {
			img.Dispose = info.Dispose
		}
		if set("loop") {
			img.Iterations = info.Loop
		}
		if set("fuzz") {
			img.Fuzz = info.Fuzz
		}
		if set("density") {
			img.Density = info.Density
		}
		if set("units") {
			img.Units = info.Units
		}
		if set("quality") {
			img.Quality = info.Quality
		}
		if v, ok := info.Options["orient"]; ok {
			img.Properties["orientation"] = v
		}
	}
}

// interpolateArgs expands percent escapes against the first image. A
// failure is a warning and the raw argument is kept.
func (c *CLI) interpolateArgs(opt *registry.Option, option, arg1, arg2 string) (string, string) {
	if opt.Flags.Has(registry.NeverInterpolate) {
		return arg1, arg2
	}
	if !c.interpolate && !opt.Flags.Has(registry.AlwaysInterpolate) {
		return arg1, arg2
	}
	imgs := c.Images()
	if len(imgs) == 0 {
		return arg1, arg2
	}
	expand := func(arg string) string {
		if !strings.Contains(arg, "%") || literalPercent(arg) {
			return arg
		}
		v, err := c.Interpret(arg, imgs[0], 0, len(imgs))
		if err != nil {
			c.sink.Throwf(exception.OptionWarning, exception.InterpretPropertyFailure, option, arg, "%v", err)
			return arg
		}
		return v
	}
	return expand(arg1), expand(arg2)
}

// literalPercent reports whether the '%' of arg belongs to a geometry or
// a numeric list ("50%", "10x20%", "2,30%") rather than an escape.
func literalPercent(arg string) bool {
	if !strings.ContainsFunc(arg, unicode.IsDigit) {
		return false
	}
	if geometry.IsGeometry(arg) {
		return true
	}
	_, err := geometry.ParseInfo(arg)
	return err == nil
}
