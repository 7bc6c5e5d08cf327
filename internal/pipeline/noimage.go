package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ironsheep/image-pipeline/internal/codec"
	"github.com/ironsheep/image-pipeline/internal/exception"
	"github.com/ironsheep/image-pipeline/internal/geometry"
	"github.com/ironsheep/image-pipeline/internal/imagelist"
	"github.com/ironsheep/image-pipeline/internal/registry"
)

type noImageFunc func(c *CLI, p registry.Polarity, arg1, arg2 string) error

var noImageOps map[string]noImageFunc

func init() {
	noImageOps = map[string]noImageFunc{
		"read":  readImages,
		"write": writeImages,
		"(":     func(c *CLI, _ registry.Polarity, _, _ string) error { return c.pushImages() },
		")":     func(c *CLI, _ registry.Polarity, _, _ string) error { return c.popImages() },
		"{":     func(c *CLI, _ registry.Polarity, _, _ string) error { return c.pushSettings() },
		"}":     func(c *CLI, _ registry.Polarity, _, _ string) error { return c.popSettings() },
		"clone": cloneImages,
		"set":   setProperty,
		"print": printText,
		"list":  listCategory,
	}
}

// noImageOperator runs an operator that does not need images.
func (c *CLI) noImageOperator(name string, p registry.Polarity, arg1, arg2 string) error {
	fn, ok := noImageOps[name]
	if !ok {
		return nil
	}
	return fn(c, p, arg1, arg2)
}

// readImages decodes arg and appends the images to the current list.
// Images decoded before a failure are kept.
func readImages(c *CLI, _ registry.Polarity, arg, _ string) error {
	if arg == "" {
		return fail(exception.OptionError, exception.MissingArgument, "missing filename")
	}
	imgs, err := c.codec.Decode(c.ctx, arg, c.codecOptions())
	info := &c.settings.Image
	for _, img := range imgs {
		for _, key := range []string{"label", "comment"} {
			if v, ok := info.Options[key]; ok {
				img.Properties[key] = v
			}
		}
	}
	if limit := c.listLengthLimit(); limit > 0 && c.list.Len()+len(imgs) > limit {
		for _, img := range imgs {
			img.Release()
		}
		return fail(exception.ResourceLimitFatalError, exception.ListLengthExceedsLimit,
			"list length %d exceeds limit %d", c.list.Len()+len(imgs), limit)
	}
	c.list.Append(c.arena.AddAll(imgs)...)
	c.log.Debugf("read %q: %d images", arg, len(imgs))
	if err != nil {
		return readError(arg, err)
	}
	return nil
}

func readError(arg string, err error) error {
	if errors.Is(err, codec.ErrNoDelegate) {
		return failRead(exception.CoderError, exception.NoDecodeDelegate, "%v", err)
	}
	return fail(exception.ImageError, exception.UnableToReadImage, "unable to read %q: %v", arg, err)
}

// writeImages encodes the current list. "-write" writes the list as is
// and "+write" a clone of it; either way the list stays current.
func writeImages(c *CLI, p registry.Polarity, arg, _ string) error {
	if arg == "" {
		return fail(exception.OptionError, exception.MissingOutputFilename, "missing output filename")
	}
	if c.list.Empty() {
		if magick, _ := codec.SplitMagick(arg); magick != "NULL" {
			return fail(exception.OptionError, exception.NoImagesDefined, "no images defined for %q", arg)
		}
		return nil
	}
	imgs := c.Images()
	if p == registry.Disable {
		clones := make([]*imagelist.Image, len(imgs))
		for i, img := range imgs {
			clones[i] = img.Clone()
		}
		defer func() {
			for _, img := range clones {
				img.Release()
			}
		}()
		imgs = clones
	}
	c.codec.Registry.Evict(codec.CacheKey(arg))
	if err := c.codec.Encode(c.ctx, imgs, arg, c.codecOptions()); err != nil {
		if errors.Is(err, codec.ErrNoDelegate) {
			return fail(exception.CoderError, exception.NoEncodeDelegate, "%v", err)
		}
		return fail(exception.ImageError, exception.UnableToWriteImage, "unable to write %q: %v", arg, err)
	}
	c.log.Debugf("wrote %q: %d images", arg, len(imgs))
	return nil
}

// cloneImages appends copies of images of the enclosing scope's list.
// "+clone" copies its last image.
func cloneImages(c *CLI, p registry.Polarity, arg, _ string) error {
	parent, ok := c.scopeParent()
	if !ok || parent.Empty() {
		return fail(exception.OptionError, exception.UnableToCloneImage, "no image list to clone from")
	}
	if p == registry.Disable {
		arg = "-1"
	}
	idx, err := parseIndexList(arg, parent.Len())
	if err != nil {
		return err
	}
	for _, i := range idx {
		c.list.Append(c.arena.Add(c.arena.Get(parent.At(i)).Clone()))
	}
	return nil
}

// setProperty handles -set key value. A "registry:" key goes to the
// process registry and an "option:" key to the options; anything else is
// a property of every image, interpolated against that image.
func setProperty(c *CLI, p registry.Polarity, key, value string) error {
	if key == "" {
		return fail(exception.OptionError, exception.MissingArgument, "missing property name")
	}
	options := c.settings.Image.Options
	imgs := c.Images()
	switch {
	case strings.HasPrefix(key, "registry:"):
		name := strings.TrimPrefix(key, "registry:")
		if p == registry.Disable {
			c.codec.Registry.Delete(name)
			return nil
		}
		v := value
		if len(imgs) > 0 {
			v = c.interpretOrWarn(value, imgs[0], 0, len(imgs))
		}
		c.codec.Registry.Set(name, v)
		return nil
	case strings.HasPrefix(key, "option:"):
		name := strings.TrimPrefix(key, "option:")
		if p == registry.Disable {
			delete(options, name)
			for _, img := range imgs {
				delete(img.Artifacts, name)
			}
			return nil
		}
		options[name] = value
		for i, img := range imgs {
			img.Artifacts[name] = c.interpretOrWarn(value, img, i, len(imgs))
		}
		return nil
	}
	for i, img := range imgs {
		if p == registry.Disable {
			delete(img.Properties, key)
			continue
		}
		if err := setImageProperty(img, key, c.interpretOrWarn(value, img, i, len(imgs))); err != nil {
			return err
		}
	}
	return nil
}

// setImageProperty stores value under key. A few keys are attributes
// rather than free-form properties.
func setImageProperty(img *imagelist.Image, key, value string) error {
	switch strings.ToLower(key) {
	case "delay":
		n, err := strconv.Atoi(value)
		if err != nil {
			return invalidArg(value, err)
		}
		img.Delay = n
	case "dispose":
		v, ok := registry.Parse("dispose", value)
		if !ok {
			return badKeyword("dispose", value)
		}
		img.Dispose = v
	case "page":
		g, err := geometry.Parse(value)
		if err != nil {
			return invalidArg(value, err)
		}
		if g.Flags.Has(geometry.WidthValue) {
			img.Page.Width, img.Page.Height = int(g.Width), int(g.Height)
		}
		img.Page.X, img.Page.Y = int(g.X), int(g.Y)
	default:
		img.Properties[key] = value
	}
	return nil
}

// interpretOrWarn expands text against img, recording a warning and
// returning text unchanged on failure.
func (c *CLI) interpretOrWarn(text string, img *imagelist.Image, index, n int) string {
	v, err := c.Interpret(text, img, index, n)
	if err != nil {
		c.sink.Throwf(exception.OptionWarning, exception.InterpretPropertyFailure, "-set", text, "%v", err)
		return text
	}
	return v
}

// printText writes arg, interpolated against the first image, to stdout.
func printText(c *CLI, _ registry.Polarity, arg, _ string) error {
	text := arg
	if imgs := c.Images(); len(imgs) > 0 {
		v, err := c.Interpret(arg, imgs[0], 0, len(imgs))
		if err != nil {
			return fail(exception.OptionWarning, exception.InterpretPropertyFailure, "%v", err)
		}
		text = v
	}
	_, err := fmt.Fprint(c.stdout, text)
	return err
}

func listCategory(c *CLI, _ registry.Polarity, arg, _ string) error {
	return ListCategory(c.stdout, arg)
}
