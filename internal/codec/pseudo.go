package codec

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	"github.com/ironsheep/image-pipeline/internal/geometry"
	"github.com/ironsheep/image-pipeline/internal/imagelist"
	ops "github.com/ironsheep/image-pipeline/internal/imaging"
)

type pseudoFormat struct {
	name        string
	description string
	read        func(ctx context.Context, c *Codec, arg string, opts Options) ([]*imagelist.Image, error)
	write       func(ctx context.Context, c *Codec, imgs []*imagelist.Image, arg string, opts Options) error
}

var pseudoFormats = []pseudoFormat{
	{name: "XC", description: "Constant image uniform color", read: readCanvas},
	{name: "CANVAS", description: "Constant image uniform color", read: readCanvas},
	{name: "GRADIENT", description: "Gradual linear passing from one shade to another", read: readGradient},
	{name: "PATTERN", description: "Predefined pattern", read: readPattern},
	{name: "ROSE", description: "Built-in sample image", read: readRose},
	{name: "LABEL", description: "Image text", read: readLabel},
	{name: "CAPTION", description: "Word-wrapped image text", read: readCaption},
	{name: "NULL", description: "Constant image of transparent pixels", read: readNull, write: writeNull},
	{name: "INFO", description: "Image description", write: writeInfo},
	{name: "CACHE", description: "Process registry image", read: readCache, write: writeCache},
}

var pseudoByName = map[string]*pseudoFormat{}

func init() {
	for i := range pseudoFormats {
		pseudoByName[pseudoFormats[i].name] = &pseudoFormats[i]
	}
}

// size returns the -size option or the given default.
func (o Options) size(defW, defH int) (int, int, error) {
	v := o[OptSize]
	if v == "" {
		return defW, defH, nil
	}
	g, err := geometry.Parse(v)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", v, err)
	}
	w, h := int(g.Width), int(g.Height)
	if !g.Flags.Has(geometry.WidthValue) || w <= 0 {
		w = defW
	}
	if h <= 0 {
		h = defH
	}
	return w, h, nil
}

func (o Options) color(key string, def color.NRGBA) color.NRGBA {
	if v := o[key]; v != "" {
		if c, err := ops.ParseColor(v); err == nil {
			return c
		}
	}
	return def
}

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.NRGBA{A: 255}
)

func readCanvas(ctx context.Context, c *Codec, arg string, opts Options) ([]*imagelist.Image, error) {
	fill := opts.color(OptBackground, white)
	if arg != "" {
		var err error
		if fill, err = ops.ParseColor(arg); err != nil {
			return nil, err
		}
	}
	w, h, err := opts.size(1, 1)
	if err != nil {
		return nil, err
	}
	img := imagelist.New(ops.Canvas(w, h, fill))
	img.AlphaEnabled = fill.A != 255
	return []*imagelist.Image{img}, nil
}

func readGradient(ctx context.Context, c *Codec, arg string, opts Options) ([]*imagelist.Image, error) {
	top, bottom := white, black
	if arg != "" {
		from, to, found := strings.Cut(arg, "-")
		var err error
		if top, err = ops.ParseColor(from); err != nil {
			return nil, err
		}
		if found {
			if bottom, err = ops.ParseColor(to); err != nil {
				return nil, err
			}
		} else {
			bottom = ops.Negate(ops.Canvas(1, 1, top), false, ops.RGB).NRGBAAt(0, 0)
		}
	}
	w, h, err := opts.size(100, 100)
	if err != nil {
		return nil, err
	}
	return []*imagelist.Image{imagelist.New(ops.Gradient(w, h, top, bottom))}, nil
}

func readPattern(ctx context.Context, c *Codec, arg string, opts Options) ([]*imagelist.Image, error) {
	switch strings.ToLower(arg) {
	case "checkerboard":
		w, h, err := opts.size(30, 30)
		if err != nil {
			return nil, err
		}
		return []*imagelist.Image{imagelist.New(ops.Checkerboard(w, h))}, nil
	}
	return nil, fmt.Errorf("unrecognized pattern %q", arg)
}

func readRose(ctx context.Context, c *Codec, arg string, opts Options) ([]*imagelist.Image, error) {
	return []*imagelist.Image{imagelist.New(ops.Rose())}, nil
}

func (o Options) textOptions() ops.TextOptions {
	g, _ := geometry.ParseGravity(o[OptGravity])
	return ops.TextOptions{
		Fill:             o.color(OptFill, black),
		Undercolor:       o.color(OptUndercolor, o.color(OptBackground, white)),
		Pointsize:        o.float(OptPointsize, 12),
		Gravity:          g,
		InterlineSpacing: o.float(OptInterlineSpacing, 0),
		InterwordSpacing: o.float(OptInterwordSpacing, 0),
		Kerning:          o.float(OptKerning, 0),
	}
}

func labelText(arg string) string {
	return strings.ReplaceAll(arg, `\n`, "\n")
}

func readLabel(ctx context.Context, c *Codec, arg string, opts Options) ([]*imagelist.Image, error) {
	text := labelText(arg)
	pix := ops.RenderText(text, opts.textOptions())
	if w, h, err := opts.size(0, 0); err == nil && w > 0 {
		pix = ops.Caption(text, w, h, opts.textOptions())
	}
	img := imagelist.New(pix)
	img.Properties["label"] = text
	return []*imagelist.Image{img}, nil
}

func readCaption(ctx context.Context, c *Codec, arg string, opts Options) ([]*imagelist.Image, error) {
	w, h, err := opts.size(0, 0)
	if err != nil {
		return nil, err
	}
	if w <= 0 {
		return nil, fmt.Errorf("caption requires a width: %w", ErrNoDelegate)
	}
	text := labelText(arg)
	img := imagelist.New(ops.Caption(text, w, h, opts.textOptions()))
	img.Properties["caption"] = text
	return []*imagelist.Image{img}, nil
}

func readNull(ctx context.Context, c *Codec, arg string, opts Options) ([]*imagelist.Image, error) {
	img := imagelist.New(ops.Canvas(1, 1, ops.Transparent))
	img.AlphaEnabled = true
	return []*imagelist.Image{img}, nil
}

func writeNull(ctx context.Context, c *Codec, imgs []*imagelist.Image, arg string, opts Options) error {
	return nil
}

func writeInfo(ctx context.Context, c *Codec, imgs []*imagelist.Image, arg string, opts Options) error {
	for _, img := range imgs {
		if _, err := fmt.Fprintln(c.Stdout, Describe(img)); err != nil {
			return err
		}
	}
	return nil
}

func readCache(ctx context.Context, c *Codec, arg string, opts Options) ([]*imagelist.Image, error) {
	imgs, ok := c.Registry.Images(arg)
	if !ok {
		return nil, fmt.Errorf("unable to open image %q: not in registry", "cache:"+arg)
	}
	return imgs, nil
}

func writeCache(ctx context.Context, c *Codec, imgs []*imagelist.Image, arg string, opts Options) error {
	c.Registry.SetImages(arg, imgs)
	return nil
}
