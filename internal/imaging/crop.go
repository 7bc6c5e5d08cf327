package imaging

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// ErrNoOverlap reports a region that lies entirely outside the image.
var ErrNoOverlap = errors.New("geometry does not contain image")

// Crop extracts a rectangular region. The region is clipped to the image;
// a region with no overlap at all returns ErrNoOverlap.
func Crop(img *image.NRGBA, r image.Rectangle) (*image.NRGBA, error) {
	clipped := r.Intersect(img.Bounds())
	if clipped.Empty() {
		return nil, ErrNoOverlap
	}
	return imaging.Crop(img, clipped), nil
}

// CropTiles cuts the image into w×h tiles, left to right and top to
// bottom. Edge tiles are smaller when the size does not divide evenly.
func CropTiles(img *image.NRGBA, w, h int) []*image.NRGBA {
	b := img.Bounds()
	if w <= 0 {
		w = b.Dx()
	}
	if h <= 0 {
		h = b.Dy()
	}
	var tiles []*image.NRGBA
	for y := b.Min.Y; y < b.Max.Y; y += h {
		for x := b.Min.X; x < b.Max.X; x += w {
			tiles = append(tiles, imaging.Crop(img, image.Rect(x, y, x+w, y+h).Intersect(b)))
		}
	}
	return tiles
}

// Shave removes w columns from each side and h rows from top and bottom.
func Shave(img *image.NRGBA, w, h int) (*image.NRGBA, error) {
	b := img.Bounds()
	return Crop(img, image.Rect(b.Min.X+w, b.Min.Y+h, b.Max.X-w, b.Max.Y-h))
}

// Chop removes a region and closes the gap: the columns of the region are
// removed across the full height and its rows across the full width.
func Chop(img *image.NRGBA, r image.Rectangle) (*image.NRGBA, error) {
	b := img.Bounds()
	r = r.Intersect(b)
	if r.Empty() {
		return nil, ErrNoOverlap
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()-r.Dx(), b.Dy()-r.Dy()))
	dy := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		if y >= r.Min.Y && y < r.Max.Y {
			continue
		}
		dx := 0
		for x := b.Min.X; x < b.Max.X; x++ {
			if x >= r.Min.X && x < r.Max.X {
				continue
			}
			dst.SetNRGBA(dx, dy, img.NRGBAAt(x, y))
			dx++
		}
		dy++
	}
	return dst, nil
}

// Trim returns the bounding box of pixels that differ from the corner
// color by more than fuzz. A uniform image trims to a single pixel.
func Trim(img *image.NRGBA, fuzz float64) image.Rectangle {
	b := img.Bounds()
	if b.Empty() {
		return b
	}
	bg := img.NRGBAAt(b.Min.X, b.Min.Y)
	box := image.Rectangle{Min: b.Max, Max: b.Min}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if FuzzyEqual(img.NRGBAAt(x, y), bg, fuzz) {
				continue
			}
			if x < box.Min.X {
				box.Min.X = x
			}
			if y < box.Min.Y {
				box.Min.Y = y
			}
			if x+1 > box.Max.X {
				box.Max.X = x + 1
			}
			if y+1 > box.Max.Y {
				box.Max.Y = y + 1
			}
		}
	}
	if box.Empty() {
		return image.Rect(b.Min.X, b.Min.Y, b.Min.X+1, b.Min.Y+1)
	}
	return box
}
