// Package imagelist holds images in an arena addressed by stable handles
// and orders them with handle lists.
//
// Pixel data lives in a reference-counted Blob. Cloning an image shares
// its blob; the first write through Mutable gives the writer a private
// copy, so two list entries never observe each other's pixel edits.
package imagelist

import (
	"image"
	"image/color"
	"image/draw"
	"sync/atomic"

	"github.com/ironsheep/image-pipeline/internal/geometry"
)

// Blob is the shared pixel buffer behind one or more images.
type Blob struct {
	pix  *image.NRGBA
	refs int32
}

func newBlob(pix *image.NRGBA) *Blob {
	return &Blob{pix: pix, refs: 1}
}

// Refs returns the number of images sharing the blob.
func (b *Blob) Refs() int {
	return int(atomic.LoadInt32(&b.refs))
}

func (b *Blob) retain() *Blob {
	atomic.AddInt32(&b.refs, 1)
	return b
}

func (b *Blob) release() {
	if atomic.AddInt32(&b.refs, -1) == 0 {
		b.pix = nil
	}
}

// Page is the virtual canvas of an image: its size and the offset of the
// image on it.
type Page struct {
	Width  int
	Height int
	X      int
	Y      int
}

// Image is one frame plus the attributes the pipeline reads and writes.
type Image struct {
	blob *Blob

	Page         Page
	Colorspace   string
	Compression  string
	Quality      int
	Depth        int
	AlphaEnabled bool
	Compose      string
	Gravity      geometry.Gravity
	Delay        int
	Dispose      string
	Iterations   int
	Background   color.NRGBA
	BorderColor  color.NRGBA
	MatteColor   color.NRGBA
	Fuzz         float64
	Gamma        float64
	Density      string
	Units        string
	Filename     string
	Magick       string
	Scene        int
	Taint        bool

	// Pinged images carry attributes only; Page holds the real size.
	Pinged bool

	Properties map[string]string
	Artifacts  map[string]string
}

// New wraps pix in a fresh image with default attributes.
func New(pix *image.NRGBA) *Image {
	if pix == nil {
		pix = image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	b := pix.Bounds()
	return &Image{
		blob:        newBlob(pix),
		Page:        Page{Width: b.Dx(), Height: b.Dy()},
		Colorspace:  "sRGB",
		Depth:       8,
		Compose:     "Over",
		Dispose:     "Undefined",
		Background:  color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		BorderColor: color.NRGBA{R: 0xdf, G: 0xdf, B: 0xdf, A: 0xff},
		MatteColor:  color.NRGBA{R: 0xbd, G: 0xbd, B: 0xbd, A: 0xff},
		Gamma:       1 / 2.2,
		Properties:  map[string]string{},
		Artifacts:   map[string]string{},
	}
}

// FromImage converts any image.Image into a new Image with zero-origin
// NRGBA pixels.
func FromImage(src image.Image) *Image {
	return New(ToNRGBA(src))
}

// ToNRGBA returns src as a zero-origin *image.NRGBA, copying when needed.
func ToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Pixels returns the pixel buffer for reading. Callers must not write to
// it; use Mutable for that.
func (img *Image) Pixels() *image.NRGBA {
	return img.blob.pix
}

// Mutable returns a pixel buffer owned by img alone, copying the shared
// blob first when other images still reference it.
func (img *Image) Mutable() *image.NRGBA {
	if img.blob.Refs() > 1 {
		src := img.blob.pix
		cp := image.NewNRGBA(src.Rect)
		copy(cp.Pix, src.Pix)
		img.blob.release()
		img.blob = newBlob(cp)
	}
	return img.blob.pix
}

// SetPixels replaces the pixel buffer, releasing the old blob. The page
// size follows the new buffer when it was equal to the old image size.
func (img *Image) SetPixels(pix *image.NRGBA) {
	old := img.blob.pix.Bounds()
	if img.Page.Width == old.Dx() && img.Page.Height == old.Dy() {
		img.Page.Width = pix.Bounds().Dx()
		img.Page.Height = pix.Bounds().Dy()
	}
	img.blob.release()
	img.blob = newBlob(pix)
}

// Blob exposes the shared buffer, mainly for tests and diagnostics.
func (img *Image) Blob() *Blob {
	return img.blob
}

// Width returns the pixel width.
func (img *Image) Width() int {
	return img.blob.pix.Bounds().Dx()
}

// Height returns the pixel height.
func (img *Image) Height() int {
	return img.blob.pix.Bounds().Dy()
}

// Empty reports whether the image has no pixels.
func (img *Image) Empty() bool {
	return img.blob == nil || img.blob.pix == nil || img.Width() == 0 || img.Height() == 0
}

// Clone returns a copy sharing the pixel blob. Attribute maps are copied.
func (img *Image) Clone() *Image {
	cp := *img
	cp.blob = img.blob.retain()
	cp.Properties = copyMap(img.Properties)
	cp.Artifacts = copyMap(img.Artifacts)
	return &cp
}

// Derive returns a new image carrying img's attributes around pix.
func (img *Image) Derive(pix *image.NRGBA) *Image {
	cp := *img
	cp.blob = newBlob(pix)
	cp.Properties = copyMap(img.Properties)
	cp.Artifacts = copyMap(img.Artifacts)
	cp.Page = Page{Width: pix.Bounds().Dx(), Height: pix.Bounds().Dy()}
	return &cp
}

// Release drops img's reference to its blob.
func (img *Image) Release() {
	if img.blob != nil {
		img.blob.release()
		img.blob = nil
	}
}

// Property returns a property, falling back to an artifact.
func (img *Image) Property(key string) (string, bool) {
	if v, ok := img.Properties[key]; ok {
		return v, true
	}
	v, ok := img.Artifacts[key]
	return v, ok
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
