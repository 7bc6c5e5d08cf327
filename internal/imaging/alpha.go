package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// AlphaMode applies an -alpha method and reports whether the alpha
// channel is active afterwards. Methods that only toggle the channel
// return a clone with unchanged pixels.
func AlphaMode(img *image.NRGBA, method string, bg color.NRGBA) (*image.NRGBA, bool, error) {
	switch method {
	case "On", "Activate", "Set":
		return imaging.Clone(img), true, nil
	case "Off", "Deactivate":
		return imaging.Clone(img), false, nil
	case "Opaque":
		return removeAlpha(img), true, nil
	case "Transparent":
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.A = 0
			return c
		}), true, nil
	case "Extract":
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{R: c.A, G: c.A, B: c.A, A: 255}
		}), false, nil
	case "Copy":
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			c.A = luma(c)
			return c
		}), true, nil
	case "Remove":
		canvas := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), bg)
		return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0), false, nil
	case "Background":
		return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			if c.A == 0 {
				return color.NRGBA{R: bg.R, G: bg.G, B: bg.B}
			}
			return c
		}), true, nil
	}
	return nil, false, fmt.Errorf("unrecognized alpha method %q", method)
}

// OpaquePaint replaces colors within fuzz of target with fill. With
// invert set, colors not matching target are replaced.
func OpaquePaint(img *image.NRGBA, target, fill color.NRGBA, fuzz float64, invert bool) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if FuzzyEqual(c, target, fuzz) != invert {
			return fill
		}
		return c
	})
}

// TransparentPaint makes colors within fuzz of target transparent. With
// invert set, colors not matching target become transparent.
func TransparentPaint(img *image.NRGBA, target color.NRGBA, fuzz float64, invert bool) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if FuzzyEqual(opaque(c), opaque(target), fuzz) != invert {
			c.A = 0
		}
		return c
	})
}
