package pipeline

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/ironsheep/image-pipeline/internal/exception"
	"github.com/ironsheep/image-pipeline/internal/geometry"
	"github.com/ironsheep/image-pipeline/internal/imagelist"
	ops "github.com/ironsheep/image-pipeline/internal/imaging"
	"github.com/ironsheep/image-pipeline/internal/registry"
)

// listFunc builds the replacement for the current list. It must not
// modify c.list; returning nil keeps the list as it is.
type listFunc func(c *CLI, p registry.Polarity, arg1, arg2 string) (*imagelist.List, error)

var listOps map[string]listFunc

func init() {
	listOps = map[string]listFunc{
		"append":            appendImages,
		"smush":             smush,
		"clut":              clut,
		"hald-clut":         haldClut,
		"coalesce":          func(c *CLI, _ registry.Polarity, _, _ string) (*imagelist.List, error) { return c.coalesce() },
		"combine":           combine,
		"compare":           compare,
		"composite":         composite,
		"delete":            deleteImages,
		"duplicate":         duplicate,
		"evaluate-sequence": evaluateSequence,
		"flatten":           func(c *CLI, _ registry.Polarity, _, _ string) (*imagelist.List, error) { return c.flatten("Flatten") },
		"mosaic":            func(c *CLI, _ registry.Polarity, _, _ string) (*imagelist.List, error) { return c.flatten("Mosaic") },
		"insert":            insert,
		"layers":            layers,
		"morph":             morph,
		"process":           process,
		"reverse":           reverse,
		"swap":              swap,
	}
}

// listOperator runs a list operator and swaps in its result as a whole.
// Images of the old list missing from the new one are destroyed, and so
// are scratch images the operator created but did not keep. On failure
// the old list is left untouched.
func (c *CLI) listOperator(name, option string, p registry.Polarity, arg1, arg2 string) {
	fn, ok := listOps[name]
	if !ok {
		return
	}
	mark := c.arena.Mark()
	next, err := fn(c, p, arg1, arg2)
	if err != nil {
		c.record(exception.OptionError, err, option, arg1)
	}
	if err != nil || next == nil {
		c.arena.DestroySince(mark, c.list)
		return
	}
	for _, h := range c.list.Handles() {
		if !next.Contains(h) {
			c.arena.Destroy(h)
		}
	}
	c.arena.DestroySince(mark, next)
	c.list = next
	c.tick(option, 1, 1)
}

// pix returns the pixel buffers of the current list.
func (c *CLI) pix() []*image.NRGBA {
	imgs := c.Images()
	out := make([]*image.NRGBA, len(imgs))
	for i, img := range imgs {
		out[i] = img.Pixels()
	}
	return out
}

// front replaces the first n images of the current list with imgs.
func (c *CLI) front(n int, imgs ...*imagelist.Image) *imagelist.List {
	rest := c.list.Handles()[n:]
	next := imagelist.NewList(c.arena.AddAll(imgs)...)
	next.Append(rest...)
	return next
}

func atLeast(c *CLI, n int) error {
	if c.list.Len() < n {
		return fail(exception.OptionError, exception.TwoOrMoreImagesRequired, "%d images required, %d in list", n, c.list.Len())
	}
	return nil
}

func appendImages(c *CLI, p registry.Polarity, _, _ string) (*imagelist.List, error) {
	imgs := c.Images()
	out := ops.Append(c.pix(), p == registry.Enable, imgs[0].Background, c.settings.Image.Gravity)
	return imagelist.NewList(c.arena.Add(imgs[0].Derive(out))), nil
}

func smush(c *CLI, p registry.Polarity, arg, _ string) (*imagelist.List, error) {
	offset, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return nil, invalidArg(arg, err)
	}
	imgs := c.Images()
	out := ops.Smush(c.pix(), p == registry.Enable, offset, imgs[0].Background, c.settings.Image.Gravity)
	return imagelist.NewList(c.arena.Add(imgs[0].Derive(out))), nil
}

// clut maps the first image through the color lookup table in the second.
func clut(c *CLI, _ registry.Polarity, _, _ string) (*imagelist.List, error) {
	if err := atLeast(c, 2); err != nil {
		return nil, err
	}
	imgs := c.Images()
	out := ops.Clut(imgs[0].Pixels(), imgs[1].Pixels(), c.settings.Image.Channel)
	return c.front(2, imgs[0].Derive(out)), nil
}

func haldClut(c *CLI, _ registry.Polarity, _, _ string) (*imagelist.List, error) {
	if err := atLeast(c, 2); err != nil {
		return nil, err
	}
	imgs := c.Images()
	out, err := ops.HaldClut(imgs[0].Pixels(), imgs[1].Pixels())
	if err != nil {
		return nil, err
	}
	return c.front(2, imgs[0].Derive(out)), nil
}

func combine(c *CLI, _ registry.Polarity, _, _ string) (*imagelist.List, error) {
	out, err := ops.Combine(c.pix(), c.settings.Image.Channel)
	if err != nil {
		return nil, fail(exception.OptionError, exception.ImageSizeDiffers, "%v", err)
	}
	img := c.Images()[0].Derive(out)
	img.Colorspace = "sRGB"
	return imagelist.NewList(c.arena.Add(img)), nil
}

// compare replaces the first two images by their difference image. The
// distortion under -metric is kept in its "distortion" property.
func compare(c *CLI, _ registry.Polarity, _, _ string) (*imagelist.List, error) {
	if err := atLeast(c, 2); err != nil {
		return nil, err
	}
	imgs := c.Images()
	info := &c.settings.Image
	highlight := color.NRGBA{R: 0xf1, G: 0x00, B: 0x1e, A: 0xff}
	if v, ok := info.Options["highlight-color"]; ok {
		if col, err := ops.ParseColor(v); err == nil {
			highlight = col
		}
	}
	res, err := ops.Compare(imgs[0].Pixels(), imgs[1].Pixels(), info.Metric, imgs[0].Fuzz, highlight)
	if err != nil {
		return nil, fail(exception.ImageError, exception.ImageSizeDiffers, "%v", err)
	}
	diff := imgs[0].Derive(res.Difference)
	diff.Properties["distortion"] = strconv.FormatFloat(res.Distortion, 'g', -1, 64)
	diff.Properties["metric"] = res.Metric
	return c.front(2, diff), nil
}

// composite draws the second image over the first, through the third as
// a mask when present. The source offset comes from its page and the
// gravity setting.
func composite(c *CLI, _ registry.Polarity, _, _ string) (*imagelist.List, error) {
	if err := atLeast(c, 2); err != nil {
		return nil, err
	}
	imgs := c.Images()
	dst, src := imgs[0], imgs[1]
	r := geometry.Rect{Width: src.Width(), Height: src.Height(), X: src.Page.X, Y: src.Page.Y}
	r = c.settings.Image.Gravity.Adjust(dst.Width(), dst.Height(), r)
	pt := image.Pt(r.X, r.Y)
	compose := c.settings.Image.Compose
	var (
		out *image.NRGBA
		err error
		n   = 2
	)
	if len(imgs) >= 3 {
		out, err = ops.CompositeMasked(dst.Pixels(), src.Pixels(), imgs[2].Pixels(), compose, pt)
		n = 3
	} else {
		out, err = ops.Composite(dst.Pixels(), src.Pixels(), compose, pt)
	}
	if err != nil {
		return nil, err
	}
	return c.front(n, dst.Derive(out)), nil
}

func evaluateSequence(c *CLI, _ registry.Polarity, arg, _ string) (*imagelist.List, error) {
	op, ok := registry.Parse("evaluate", arg)
	if !ok {
		return nil, badKeyword("evaluate", arg)
	}
	out, err := ops.EvaluateSequence(c.pix(), op)
	if err != nil {
		return nil, err
	}
	return imagelist.NewList(c.arena.Add(c.Images()[0].Derive(out))), nil
}

// morph inserts frames between each pair of neighbouring images.
func morph(c *CLI, _ registry.Polarity, arg, _ string) (*imagelist.List, error) {
	frames, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || frames < 0 {
		return nil, invalidArg(arg, err)
	}
	if err := atLeast(c, 2); err != nil {
		return nil, err
	}
	imgs := c.Images()
	handles := c.list.Handles()
	next := imagelist.NewList()
	for i, img := range imgs {
		next.Append(handles[i])
		if i+1 == len(imgs) {
			break
		}
		for _, pix := range ops.Morph(img.Pixels(), imgs[i+1].Pixels(), frames) {
			next.Append(c.arena.Add(img.Derive(pix)))
		}
	}
	return next, nil
}

func reverse(c *CLI, _ registry.Polarity, _, _ string) (*imagelist.List, error) {
	next := c.list.Clone()
	next.Reverse()
	return next, nil
}

// parseIndexList reads "0,2,-1" or ranges like "1-3" against a list of n
// images. Negative indices count from the end.
func parseIndexList(arg string, n int) ([]int, error) {
	var out []int
	resolve := func(s string) (int, error) {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, invalidArg(arg, err)
		}
		if v < 0 {
			v += n
		}
		if v < 0 || v >= n {
			return 0, fail(exception.OptionError, exception.InvalidImageIndex, "invalid image index %q", s)
		}
		return v, nil
	}
	for _, part := range strings.Split(arg, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// a range needs a '-' that is not a leading sign
		if k := strings.Index(part[1:], "-"); k >= 0 {
			from, err := resolve(part[:k+1])
			if err != nil {
				return nil, err
			}
			to, err := resolve(part[k+2:])
			if err != nil {
				return nil, err
			}
			step := 1
			if to < from {
				step = -1
			}
			for i := from; i != to+step; i += step {
				out = append(out, i)
			}
			continue
		}
		v, err := resolve(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, invalidArg(arg, nil)
	}
	return out, nil
}

// deleteImages removes the listed images; "+delete" removes the last.
func deleteImages(c *CLI, p registry.Polarity, arg, _ string) (*imagelist.List, error) {
	if p == registry.Disable {
		arg = "-1"
	}
	idx, err := parseIndexList(arg, c.list.Len())
	if err != nil {
		return nil, err
	}
	doomed := map[int]bool{}
	for _, i := range idx {
		doomed[i] = true
	}
	next := imagelist.NewList()
	for i, h := range c.list.Handles() {
		if !doomed[i] {
			next.Append(h)
		}
	}
	return next, nil
}

// duplicate appends count copies of the listed images, the last by
// default. "+duplicate" copies the last image once.
func duplicate(c *CLI, p registry.Polarity, arg, _ string) (*imagelist.List, error) {
	count, which := 1, "-1"
	if p == registry.Enable {
		n, rest, hasList := strings.Cut(arg, ",")
		v, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || v < 0 {
			return nil, invalidArg(arg, err)
		}
		count = v
		if hasList {
			which = rest
		}
	}
	idx, err := parseIndexList(which, c.list.Len())
	if err != nil {
		return nil, err
	}
	next := c.list.Clone()
	for k := 0; k < count; k++ {
		for _, i := range idx {
			next.Append(c.arena.Add(c.arena.Get(c.list.At(i)).Clone()))
		}
	}
	return next, nil
}

// insert moves the last image to index; "+insert" moves it to the front.
func insert(c *CLI, p registry.Polarity, arg, _ string) (*imagelist.List, error) {
	index := 0
	if p == registry.Enable {
		v, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return nil, invalidArg(arg, err)
		}
		index = v
	}
	next := c.list.Clone()
	last, err := next.RemoveAt(next.Len() - 1)
	if err != nil {
		return nil, fail(exception.OptionError, exception.InvalidImageIndex, "no image to insert")
	}
	if index < 0 {
		index += next.Len() + 1
	}
	if err := next.InsertAt(index, last); err != nil {
		return nil, fail(exception.OptionError, exception.InvalidImageIndex, "invalid image index %q", arg)
	}
	return next, nil
}

// swap exchanges two images, the last two by default. A single index is
// swapped with the last image.
func swap(c *CLI, p registry.Polarity, arg, _ string) (*imagelist.List, error) {
	n := c.list.Len()
	if n < 2 {
		return nil, fail(exception.OptionError, exception.TwoOrMoreImagesRequired, "swap needs two images, %d in list", n)
	}
	a, b := -1, -2
	if p == registry.Enable {
		v, err := geometry.ParseInfo(arg)
		if err != nil {
			return nil, invalidArg(arg, err)
		}
		a, b = int(v.Rho), -1
		if v.Flags.Has(geometry.SigmaValue) {
			b = int(v.Sigma)
		}
	}
	i, ok := c.list.Index(a)
	j, ok2 := c.list.Index(b)
	if !ok || !ok2 {
		return nil, fail(exception.OptionError, exception.InvalidImageIndex, "invalid image index %q", arg)
	}
	next := c.list.Clone()
	if i != j {
		_ = next.Swap(i, j)
	}
	return next, nil
}

// process runs a named image filter. The filter and its arguments are
// separated by a space, or by the first '=' in the old form.
func process(c *CLI, _ registry.Polarity, arg, _ string) (*imagelist.List, error) {
	name, args := splitProcess(arg)
	fn, ok := filters[strings.ToLower(name)]
	if !ok {
		return nil, fail(exception.OptionError, exception.NoSuchFilter, "no such filter %q", name)
	}
	if err := fn(c, args); err != nil {
		return nil, err
	}
	return c.list.Clone(), nil
}

func splitProcess(arg string) (string, string) {
	arg = strings.TrimSpace(arg)
	i := strings.IndexAny(arg, " =")
	if i < 0 {
		return arg, ""
	}
	return arg[:i], strings.TrimSpace(arg[i+1:])
}
