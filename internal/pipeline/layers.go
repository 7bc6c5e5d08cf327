package pipeline

import (
	"bytes"
	"image"

	"github.com/ironsheep/image-pipeline/internal/exception"
	"github.com/ironsheep/image-pipeline/internal/imagelist"
	ops "github.com/ironsheep/image-pipeline/internal/imaging"
	"github.com/ironsheep/image-pipeline/internal/registry"
)

// layerStack describes the current list as positioned layers.
func (c *CLI) layerStack(imgs []*imagelist.Image) []ops.Layer {
	out := make([]ops.Layer, len(imgs))
	for i, img := range imgs {
		out[i] = ops.Layer{
			Pix:     img.Pixels(),
			X:       img.Page.X,
			Y:       img.Page.Y,
			Compose: img.Compose,
			Dispose: img.Dispose,
		}
	}
	return out
}

// canvasSize is the virtual canvas of img, or its pixel size without one.
func canvasSize(img *imagelist.Image) (int, int) {
	w, h := img.Page.Width, img.Page.Height
	if w <= 0 || h <= 0 {
		return img.Width(), img.Height()
	}
	return w, h
}

func (c *CLI) coalesce() (*imagelist.List, error) {
	imgs := c.Images()
	frames, err := c.coalesced(imgs)
	if err != nil {
		return nil, err
	}
	next := imagelist.NewList()
	for i, pix := range frames {
		next.Append(c.arena.Add(imgs[i].Derive(pix)))
	}
	return next, nil
}

func (c *CLI) coalesced(imgs []*imagelist.Image) ([]*image.NRGBA, error) {
	w, h := canvasSize(imgs[0])
	frames, err := ops.Coalesce(c.layerStack(imgs), w, h)
	if err != nil {
		return nil, fail(exception.OptionError, exception.OperationFailed, "%v", err)
	}
	return frames, nil
}

// flatten merges every layer into one image. Flatten uses the canvas of
// the first image, Mosaic grows it to fit every layer and Merge uses the
// union of the layers, keeping its origin as the page offset.
func (c *CLI) flatten(method string) (*imagelist.List, error) {
	imgs := c.Images()
	first := imgs[0]
	layers := c.layerStack(imgs)
	var (
		out    *image.NRGBA
		origin image.Point
		err    error
	)
	switch method {
	case "Mosaic":
		out, err = ops.Mosaic(layers, first.Background)
	case "Merge":
		out, origin, err = ops.Merge(layers, first.Background)
	default:
		w, h := canvasSize(first)
		out, err = ops.Flatten(layers, w, h, first.Background)
	}
	if err != nil {
		return nil, fail(exception.OptionError, exception.OperationFailed, "%v", err)
	}
	img := first.Derive(out)
	img.Page.X, img.Page.Y = origin.X, origin.Y
	return imagelist.NewList(c.arena.Add(img)), nil
}

// layers runs one -layers method.
func layers(c *CLI, _ registry.Polarity, arg, _ string) (*imagelist.List, error) {
	method, ok := registry.Parse("layers", arg)
	if !ok {
		return nil, badKeyword("layers", arg)
	}
	switch method {
	case "Coalesce":
		return c.coalesce()
	case "Flatten", "Mosaic", "Merge":
		return c.flatten(method)
	case "CompareAny", "CompareClear", "CompareOverlay", "Optimize":
		if method == "Optimize" {
			method = "CompareAny"
		}
		return c.compareLayers(method)
	case "Composite":
		return c.compositeLayers()
	case "Dispose":
		return c.disposeLayers()
	case "RemoveDups":
		return c.removeDups(), nil
	case "RemoveZero":
		return c.removeZero()
	case "TrimBounds":
		c.trimBounds()
		return c.list.Clone(), nil
	}
	return nil, badKeyword("layers", arg)
}

// compareLayers keeps the first frame whole and reduces every later
// frame to the area that changed from the frame before it.
func (c *CLI) compareLayers(mode string) (*imagelist.List, error) {
	imgs := c.Images()
	frames, err := c.coalesced(imgs)
	if err != nil {
		return nil, err
	}
	w, h := canvasSize(imgs[0])
	next := imagelist.NewList(c.arena.Add(imgs[0].Derive(frames[0])))
	for i := 1; i < len(frames); i++ {
		r := ops.DiffBounds(frames[i-1], frames[i], mode)
		if r.Empty() {
			r = image.Rect(0, 0, 1, 1)
		}
		pix, err := ops.Crop(frames[i], r)
		if err != nil {
			return nil, err
		}
		img := imgs[i].Derive(pix)
		img.Page = imagelist.Page{Width: w, Height: h, X: r.Min.X, Y: r.Min.Y}
		next.Append(c.arena.Add(img))
	}
	return next, nil
}

// compositeLayers composes the images after a null: separator onto the
// images before it, pairwise. A lone source or destination is reused for
// every pair.
func (c *CLI) compositeLayers() (*imagelist.List, error) {
	imgs := c.Images()
	sep := -1
	for i, img := range imgs {
		if img.Magick == "NULL" {
			sep = i
			break
		}
	}
	if sep < 0 {
		return nil, fail(exception.OptionError, exception.MissingNullSeparator, "missing null: separator")
	}
	dst, src := imgs[:sep], imgs[sep+1:]
	if len(dst) == 0 || len(src) == 0 {
		return nil, fail(exception.OptionError, exception.ImageSequenceRequired, "image sequence required on both sides of null:")
	}
	n := max(len(dst), len(src))
	next := imagelist.NewList()
	compose := c.settings.Image.Compose
	for i := 0; i < n; i++ {
		d := dst[min(i, len(dst)-1)]
		s := src[min(i, len(src)-1)]
		out, err := ops.Composite(d.Pixels(), s.Pixels(), compose, image.Pt(s.Page.X-d.Page.X, s.Page.Y-d.Page.Y))
		if err != nil {
			return nil, err
		}
		img := d.Derive(out)
		img.Page = d.Page
		next.Append(c.arena.Add(img))
	}
	return next, nil
}

// disposeLayers shows each frame as the canvas looks after its dispose
// method ran.
func (c *CLI) disposeLayers() (*imagelist.List, error) {
	imgs := c.Images()
	frames, err := c.coalesced(imgs)
	if err != nil {
		return nil, err
	}
	w, h := canvasSize(imgs[0])
	next := imagelist.NewList()
	for i, img := range imgs {
		pix := frames[i]
		switch img.Dispose {
		case "Background":
			pix, err = ops.Composite(pix, img.Pixels(), "Clear", image.Pt(img.Page.X, img.Page.Y))
			if err != nil {
				return nil, err
			}
		case "Previous":
			if i > 0 {
				pix = frames[i-1]
			} else {
				pix = ops.Canvas(w, h, ops.Transparent)
			}
		}
		next.Append(c.arena.Add(img.Derive(pix)))
	}
	return next, nil
}

// removeDups drops frames identical to the frame before them.
func (c *CLI) removeDups() *imagelist.List {
	imgs := c.Images()
	handles := c.list.Handles()
	next := imagelist.NewList(handles[0])
	for i := 1; i < len(imgs); i++ {
		a, b := imgs[i-1], imgs[i]
		if a.Page == b.Page && a.Pixels().Rect == b.Pixels().Rect && bytes.Equal(a.Pixels().Pix, b.Pixels().Pix) {
			continue
		}
		next.Append(handles[i])
	}
	return next
}

// removeZero drops frames without delay unless every frame has none.
func (c *CLI) removeZero() (*imagelist.List, error) {
	next := imagelist.NewList()
	for i, img := range c.Images() {
		if img.Delay != 0 {
			next.Append(c.list.At(i))
		}
	}
	if next.Empty() {
		return nil, fail(exception.OptionWarning, exception.OperationFailed, "every frame has zero delay")
	}
	return next, nil
}

// trimBounds moves the layers so the smallest offset is the origin and
// sizes the canvas to hold every layer.
func (c *CLI) trimBounds() {
	imgs := c.Images()
	var r image.Rectangle
	for i, img := range imgs {
		b := image.Rect(img.Page.X, img.Page.Y, img.Page.X+img.Width(), img.Page.Y+img.Height())
		if i == 0 {
			r = b
			continue
		}
		r = r.Union(b)
	}
	for _, img := range imgs {
		img.Page = imagelist.Page{
			Width:  r.Dx(),
			Height: r.Dy(),
			X:      img.Page.X - r.Min.X,
			Y:      img.Page.Y - r.Min.Y,
		}
	}
}
