package codec

import (
	"image"
	"image/color"
	"image/gif"
	"io"

	xdraw "golang.org/x/image/draw"

	"github.com/ironsheep/image-pipeline/internal/imagelist"
	ops "github.com/ironsheep/image-pipeline/internal/imaging"
)

// encodeGIF writes every image as a frame, each with its own palette of
// its most frequent colors plus a transparent entry.
func encodeGIF(c *Codec, w io.Writer, f *Format, imgs []*imagelist.Image, opts Options) error {
	out := &gif.GIF{LoopCount: imgs[0].Iterations}
	canvasW, canvasH := 0, 0
	for _, img := range imgs {
		pix := img.Pixels()
		palette := color.Palette{color.NRGBA{}}
		for _, pc := range ops.Palette(pix, 255) {
			palette = append(palette, pc)
		}
		b := pix.Bounds()
		r := b.Add(image.Pt(img.Page.X, img.Page.Y))
		frame := image.NewPaletted(r, palette)
		xdraw.FloydSteinberg.Draw(frame, r, pix, b.Min)
		out.Image = append(out.Image, frame)
		out.Delay = append(out.Delay, img.Delay)
		out.Disposal = append(out.Disposal, gifDisposal(img.Dispose))
		if pw := max(img.Page.Width, r.Max.X); pw > canvasW {
			canvasW = pw
		}
		if ph := max(img.Page.Height, r.Max.Y); ph > canvasH {
			canvasH = ph
		}
	}
	out.Config = image.Config{Width: canvasW, Height: canvasH}
	return gif.EncodeAll(w, out)
}

func gifDisposal(d string) byte {
	switch d {
	case "None":
		return gif.DisposalNone
	case "Background":
		return gif.DisposalBackground
	case "Previous":
		return gif.DisposalPrevious
	}
	return 0
}
