package pipeline

import (
	"image/color"
	"maps"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/image-pipeline/internal/codec"
	"github.com/ironsheep/image-pipeline/internal/exception"
	"github.com/ironsheep/image-pipeline/internal/geometry"
	"github.com/ironsheep/image-pipeline/internal/imagelist"
	ops "github.com/ironsheep/image-pipeline/internal/imaging"
	"github.com/ironsheep/image-pipeline/internal/registry"
)

// settingFunc validates and applies one setting. "+name" arrives with
// registry.Disable and usually resets the default.
type settingFunc func(c *CLI, p registry.Polarity, arg1, arg2 string) error

var settingHandlers map[string]settingFunc

// ownOptions lists settings that maintain ImageInfo.Options themselves.
var ownOptions = map[string]bool{"define": true, "limit": true}

// resources are the names accepted by -limit.
var resources = []string{"area", "disk", "file", "height", "list-length",
	"map", "memory", "thread", "throttle", "time", "width"}

func init() {
	settingHandlers = map[string]settingFunc{
		"adjoin":              boolSetting(func(i *ImageInfo) *bool { return &i.Adjoin }),
		"antialias":           setAntialias,
		"affine":              setAffine,
		"attenuate":           setAttenuate,
		"background":          colorSetting(func(s *Settings) *color.NRGBA { return &s.Image.Background }, white),
		"bordercolor":         colorSetting(func(s *Settings) *color.NRGBA { return &s.Image.BorderColor }, defaultBorder),
		"mattecolor":          colorSetting(func(s *Settings) *color.NRGBA { return &s.Image.MatteColor }, defaultMatte),
		"transparent-color":   colorSetting(func(s *Settings) *color.NRGBA { return &s.Image.TransparentColor }, ops.Transparent),
		"undercolor":          colorSetting(func(s *Settings) *color.NRGBA { return &s.Draw.Undercolor }, ops.Transparent),
		"channel":             setChannel,
		"colors":              setColors,
		"colorspace":          keywordSetting("colorspace", "sRGB", func(s *Settings) *string { return &s.Image.Colorspace }),
		"compose":             keywordSetting("compose", "Over", func(s *Settings) *string { return &s.Image.Compose }),
		"compress":            keywordSetting("compress", "", func(s *Settings) *string { return &s.Image.Compression }),
		"direction":           keywordSetting("direction", "", func(s *Settings) *string { return &s.Draw.Direction }),
		"dispose":             keywordSetting("dispose", "Undefined", func(s *Settings) *string { return &s.Image.Dispose }),
		"endian":              keywordSetting("endian", "", func(s *Settings) *string { return &s.Image.Endian }),
		"filter":              keywordSetting("filter", "", func(s *Settings) *string { return &s.Image.Filter }),
		"interlace":           keywordSetting("interlace", "", func(s *Settings) *string { return &s.Image.Interlace }),
		"interpolate":         keywordSetting("interpolate", "", func(s *Settings) *string { return &s.Image.Interpolate }),
		"metric":              keywordSetting("metric", "RMSE", func(s *Settings) *string { return &s.Image.Metric }),
		"style":               keywordSetting("style", "", func(s *Settings) *string { return &s.Draw.Style }),
		"type":                keywordSetting("type", "", func(s *Settings) *string { return &s.Image.Type }),
		"units":               keywordSetting("units", "", func(s *Settings) *string { return &s.Image.Units }),
		"virtual-pixel":       keywordSetting("virtual-pixel", "", func(s *Settings) *string { return &s.Image.VirtualPixel }),
		"weight":              keywordSetting("weight", "", func(s *Settings) *string { return &s.Draw.Weight }),
		"intent":              keywordSetting("intent", "", func(s *Settings) *string { return new(string) }),
		"orient":              keywordSetting("orientation", "", func(s *Settings) *string { return new(string) }),
		"debug":               setDebug,
		"define":              setDefine,
		"delay":               setDelay,
		"density":             geometrySetting(func(i *ImageInfo) *string { return &i.Density }),
		"extract":             geometrySetting(func(i *ImageInfo) *string { return &i.Extract }),
		"page":                geometrySetting(func(i *ImageInfo) *string { return &i.Page }),
		"size":                geometrySetting(func(i *ImageInfo) *string { return &i.Size }),
		"depth":               setDepth,
		"dither":              setDither,
		"encoding":            stringSetting(func(s *Settings) *string { return new(string) }),
		"family":              stringSetting(func(s *Settings) *string { return &s.Draw.Family }),
		"font":                stringSetting(func(s *Settings) *string { return &s.Draw.Font }),
		"format":              stringSetting(func(s *Settings) *string { return &s.Image.Format }),
		"sampling-factor":     stringSetting(func(s *Settings) *string { return &s.Image.SamplingFactor }),
		"fill":                setFill,
		"stroke":              setStroke,
		"fuzz":                setFuzz,
		"gravity":             setGravity,
		"interline-spacing":   floatSetting(func(s *Settings) *float64 { return &s.Draw.InterlineSpacing }, 0),
		"interword-spacing":   floatSetting(func(s *Settings) *float64 { return &s.Draw.InterwordSpacing }, 0),
		"kerning":             floatSetting(func(s *Settings) *float64 { return &s.Draw.Kerning }, 0),
		"pointsize":           setPointsize,
		"strokewidth":         floatSetting(func(s *Settings) *float64 { return &s.Draw.StrokeWidth }, 1),
		"limit":               setLimit,
		"loop":                intSetting(func(i *ImageInfo) *int { return &i.Loop }, 0),
		"quality":             intSetting(func(i *ImageInfo) *int { return &i.Quality }, 0),
		"scene":               intSetting(func(i *ImageInfo) *int { return &i.Scene }, 0),
		"treedepth":           setTreeDepth,
		"monitor":             setMonitorSetting,
		"ping":                boolSetting(func(i *ImageInfo) *bool { return &i.Ping }),
		"quiet":               setQuietSetting,
		"regard-warnings":     boolSetting(func(i *ImageInfo) *bool { return &i.RegardWarnings }),
		"respect-parentheses": boolSetting(func(i *ImageInfo) *bool { return &i.RespectParentheses }),
		"verbose":             boolSetting(func(i *ImageInfo) *bool { return &i.Verbose }),
		"seed":                setSeed,
	}
}

// applySetting runs the handler of a setting and then records its raw
// argument in the options map. A handler error leaves both untouched.
func (c *CLI) applySetting(opt *registry.Option, p registry.Polarity, arg1, arg2 string) error {
	if fn := settingHandlers[opt.Name]; fn != nil {
		if err := fn(c, p, arg1, arg2); err != nil {
			return err
		}
	}
	if ownOptions[opt.Name] {
		return nil
	}
	options := c.settings.Image.Options
	switch {
	case opt.Arity == 0:
		options[opt.Name] = strconv.FormatBool(p == registry.Enable)
	case p == registry.Enable:
		options[opt.Name] = arg1
	default:
		delete(options, opt.Name)
	}
	return nil
}

// codecOptions is the option map handed to Decode and Encode.
func (c *CLI) codecOptions() codec.Options {
	return codec.Options(maps.Clone(c.settings.Image.Options))
}

// applyRuntimeSettings brings the state living outside the settings
// snapshot back in line after a "}" or ")" restored an older snapshot.
func (c *CLI) applyRuntimeSettings() {
	info := &c.settings.Image
	c.setQuiet(info.Quiet)
	if info.Monitor != c.monitoring {
		c.setMonitor(info.Monitor)
	}
	c.log.SetDebug(debugEnabled(info.Options["debug"]))
}

func boolSetting(field func(*ImageInfo) *bool) settingFunc {
	return func(c *CLI, p registry.Polarity, _, _ string) error {
		*field(&c.settings.Image) = p == registry.Enable
		return nil
	}
}

func stringSetting(field func(*Settings) *string) settingFunc {
	return func(c *CLI, p registry.Polarity, arg, _ string) error {
		if p == registry.Disable {
			arg = ""
		}
		*field(c.settings) = arg
		return nil
	}
}

func keywordSetting(vocab, def string, field func(*Settings) *string) settingFunc {
	return func(c *CLI, p registry.Polarity, arg, _ string) error {
		if p == registry.Disable {
			*field(c.settings) = def
			return nil
		}
		v, ok := registry.Parse(vocab, arg)
		if !ok {
			return badKeyword(vocab, arg)
		}
		*field(c.settings) = v
		return nil
	}
}

func colorSetting(field func(*Settings) *color.NRGBA, def color.NRGBA) settingFunc {
	return func(c *CLI, p registry.Polarity, arg, _ string) error {
		if p == registry.Disable {
			*field(c.settings) = def
			return nil
		}
		col, err := ops.ParseColor(arg)
		if err != nil {
			return fail(exception.OptionError, exception.UnrecognizedOptionValue, "unrecognized color %q", arg)
		}
		*field(c.settings) = col
		return nil
	}
}

func floatSetting(field func(*Settings) *float64, def float64) settingFunc {
	return func(c *CLI, p registry.Polarity, arg, _ string) error {
		if p == registry.Disable {
			*field(c.settings) = def
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil {
			return invalidArg(arg, nil)
		}
		*field(c.settings) = v
		return nil
	}
}

func intSetting(field func(*ImageInfo) *int, def int) settingFunc {
	return func(c *CLI, p registry.Polarity, arg, _ string) error {
		if p == registry.Disable {
			*field(&c.settings.Image) = def
			return nil
		}
		v, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return invalidArg(arg, nil)
		}
		*field(&c.settings.Image) = v
		return nil
	}
}

func geometrySetting(field func(*ImageInfo) *string) settingFunc {
	return func(c *CLI, p registry.Polarity, arg, _ string) error {
		if p == registry.Disable {
			*field(&c.settings.Image) = ""
			return nil
		}
		if _, err := geometry.Parse(arg); err != nil {
			return invalidArg(arg, err)
		}
		*field(&c.settings.Image) = arg
		return nil
	}
}

func setAntialias(c *CLI, p registry.Polarity, _, _ string) error {
	c.settings.Image.Antialias = p == registry.Enable
	c.settings.Draw.Antialias = p == registry.Enable
	return nil
}

func setAffine(c *CLI, p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		c.settings.Draw.Affine = identity
		return nil
	}
	fields := strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) != 6 {
		return invalidArg(arg, nil)
	}
	var m [6]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return invalidArg(arg, err)
		}
		m[i] = v
	}
	c.settings.Draw.Affine = m
	return nil
}

func setAttenuate(c *CLI, p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		c.settings.Image.Attenuate = 1
		return nil
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil || v < 0 {
		return invalidArg(arg, nil)
	}
	c.settings.Image.Attenuate = v
	return nil
}

func setChannel(c *CLI, p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		c.settings.Image.Channel = ops.RGB
		return nil
	}
	ch, err := ops.ParseChannels(arg)
	if err != nil {
		return badKeyword("channel", arg)
	}
	c.settings.Image.Channel = ch
	return nil
}

func setColors(c *CLI, p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		c.settings.Quantize.NumberColors = 0
		return nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return invalidArg(arg, nil)
	}
	c.settings.Quantize.NumberColors = n
	return nil
}

func setTreeDepth(c *CLI, p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		c.settings.Quantize.TreeDepth = 0
		return nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n > 8 {
		return invalidArg(arg, nil)
	}
	c.settings.Quantize.TreeDepth = n
	return nil
}

func setDepth(c *CLI, p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		c.settings.Image.Depth = 8
		return nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > 16 {
		return invalidArg(arg, nil)
	}
	c.settings.Image.Depth = n
	return nil
}

func setDither(c *CLI, p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		c.settings.Quantize.Dither = "None"
		return nil
	}
	v, ok := registry.Parse("dither", arg)
	if !ok {
		return badKeyword("dither", arg)
	}
	c.settings.Quantize.Dither = v
	return nil
}

func debugEnabled(v string) bool {
	return v != "" && !strings.EqualFold(v, "none")
}

func setDebug(c *CLI, p registry.Polarity, arg, _ string) error {
	c.log.SetDebug(p == registry.Enable && debugEnabled(arg))
	return nil
}

// setDefine handles "-define key=value" and "+define key". Keys under
// "registry:" go to the process registry instead of the options.
func setDefine(c *CLI, p registry.Polarity, arg, _ string) error {
	key, value, _ := strings.Cut(arg, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return invalidArg(arg, nil)
	}
	if name, ok := strings.CutPrefix(key, "registry:"); ok {
		if p == registry.Disable {
			c.codec.Registry.Delete(name)
		} else {
			c.codec.Registry.Set(name, value)
		}
		return nil
	}
	if p == registry.Disable {
		delete(c.settings.Image.Options, key)
		return nil
	}
	c.settings.Image.Options[key] = value
	return nil
}

func setDelay(c *CLI, p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		c.settings.Image.Delay = 0
		return nil
	}
	info, err := geometry.ParseInfo(arg)
	if err != nil {
		return invalidArg(arg, err)
	}
	c.settings.Image.Delay = int(info.Rho)
	return nil
}

// setFuzz accepts an absolute distance on the 0-255 scale or a
// percentage, and stores it as a fraction of the full range.
func setFuzz(c *CLI, p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		c.settings.Image.Fuzz = 0
		return nil
	}
	info, err := geometry.ParseInfo(arg)
	if err != nil || info.Rho < 0 {
		return invalidArg(arg, err)
	}
	v := geometry.Scale(info.Rho, info.Flags.Has(geometry.PercentValue), quantumRange) / quantumRange
	if v > 1 {
		v = 1
	}
	c.settings.Image.Fuzz = v
	return nil
}

func setGravity(c *CLI, p registry.Polarity, arg, _ string) error {
	g := geometry.UndefinedGravity
	if p == registry.Enable {
		var ok bool
		if g, ok = geometry.ParseGravity(arg); !ok {
			return badKeyword("gravity", arg)
		}
	}
	c.settings.Image.Gravity = g
	c.settings.Draw.Gravity = g
	return nil
}

func setPointsize(c *CLI, p registry.Polarity, arg, _ string) error {
	if p == registry.Disable {
		c.settings.Draw.Pointsize = 12
		return nil
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil || v <= 0 {
		return invalidArg(arg, nil)
	}
	c.settings.Draw.Pointsize = v
	return nil
}

// loadPattern resolves a fill or stroke argument that is not a color as
// an image, through the process registry so repeated uses decode once.
func (c *CLI) loadPattern(arg string) (*imagelist.Image, error) {
	imgs, err := c.codec.Registry.Load(c.ctx, c.codec, arg, c.codecOptions())
	if err != nil {
		return nil, fail(exception.OptionError, exception.UnrecognizedOptionValue, "unrecognized color or pattern %q: %v", arg, err)
	}
	if len(imgs) == 0 {
		return nil, fail(exception.OptionError, exception.UnrecognizedOptionValue, "pattern %q has no images", arg)
	}
	for _, extra := range imgs[1:] {
		extra.Release()
	}
	return imgs[0], nil
}

// setFill takes a color or a pattern image. "+fill" restores black and
// drops the pattern; repeating it changes nothing.
func setFill(c *CLI, p registry.Polarity, arg, _ string) error {
	d := &c.settings.Draw
	if p == registry.Disable {
		releasePattern(&d.FillPattern)
		d.FillPatternActive = false
		d.Fill = defaultFill
		return nil
	}
	if col, err := ops.ParseColor(arg); err == nil {
		releasePattern(&d.FillPattern)
		d.FillPatternActive = false
		d.Fill = col
		return nil
	}
	pattern, err := c.loadPattern(arg)
	if err != nil {
		return err
	}
	releasePattern(&d.FillPattern)
	d.FillPattern = pattern
	d.FillPatternActive = true
	return nil
}

// setStroke works like setFill; "+stroke" means no stroke at all.
func setStroke(c *CLI, p registry.Polarity, arg, _ string) error {
	d := &c.settings.Draw
	if p == registry.Disable {
		releasePattern(&d.StrokePattern)
		d.Stroke = ops.Transparent
		d.StrokeActive = false
		return nil
	}
	if col, err := ops.ParseColor(arg); err == nil {
		releasePattern(&d.StrokePattern)
		d.Stroke = col
		d.StrokeActive = col.A != 0
		return nil
	}
	pattern, err := c.loadPattern(arg)
	if err != nil {
		return err
	}
	releasePattern(&d.StrokePattern)
	d.StrokePattern = pattern
	d.StrokeActive = true
	return nil
}

// setLimit records a resource limit. Values are a number with an
// optional binary suffix, or "unlimited".
func setLimit(c *CLI, p registry.Polarity, resource, value string) error {
	name := strings.ToLower(strings.TrimSpace(resource))
	known := false
	for _, r := range resources {
		if r == name {
			known = true
			break
		}
	}
	if !known {
		return badKeyword("resource", resource)
	}
	if p == registry.Disable {
		delete(c.settings.Image.Limits, name)
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(value))
	if v != "unlimited" {
		num := strings.TrimRight(v, "kmgtpeib%")
		if _, err := strconv.ParseFloat(num, 64); err != nil || num == "" {
			return invalidArg(value, nil)
		}
	}
	c.settings.Image.Limits[name] = v
	return nil
}

// listLengthLimit returns the -limit list-length value, or 0 when unset.
func (c *CLI) listLengthLimit() int {
	v, ok := c.settings.Image.Limits["list-length"]
	if !ok || v == "unlimited" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func setMonitorSetting(c *CLI, p registry.Polarity, _, _ string) error {
	c.setMonitor(p == registry.Enable)
	return nil
}

func setQuietSetting(c *CLI, p registry.Polarity, _, _ string) error {
	c.setQuiet(p == registry.Enable)
	return nil
}

// setQuiet installs a handler that drops warnings, keeping the previous
// one in savedWarningHandler until quiet is switched off again.
func (c *CLI) setQuiet(on bool) {
	c.settings.Image.Quiet = on
	if on == c.quiet {
		return
	}
	c.quiet = on
	if !on {
		c.sink.SetHandler(c.savedWarningHandler)
		c.savedWarningHandler = nil
		return
	}
	prev := c.sink.Handler()
	c.savedWarningHandler = prev
	c.sink.SetHandler(func(e exception.Exception) {
		if e.Severity > exception.Warning && prev != nil {
			prev(e)
		}
	})
}

func setSeed(c *CLI, p registry.Polarity, arg, _ string) error {
	info := &c.settings.Image
	if p == registry.Disable {
		info.Seed = 0
		info.SeedSet = false
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		return nil
	}
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return invalidArg(arg, err)
	}
	info.Seed = n
	info.SeedSet = true
	c.rng = rand.New(rand.NewSource(n))
	return nil
}
