package codec

import (
	"fmt"
	"strings"

	"github.com/ironsheep/image-pipeline/internal/imagelist"
	ops "github.com/ironsheep/image-pipeline/internal/imaging"
)

// Info summarizes one image for identify-style reports.
type Info struct {
	// Filename is the name the image was read from.
	Filename string `json:"filename"`

	// Scene is the frame index within its file.
	Scene int `json:"scene"`

	// Format is the upper-case magick, e.g. "PNG".
	Format string `json:"format"`

	// Width and Height are the pixel size. For pinged images they come
	// from the page.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Page is the virtual canvas geometry, e.g. "70x46+0+0".
	Page string `json:"page"`

	// Depth is the bits per channel.
	Depth int `json:"depth"`

	// Colorspace is the image colorspace name.
	Colorspace string `json:"colorspace"`

	// Type is Bilevel, Grayscale, Palette, TrueColor or a *Alpha variant.
	// Empty for pinged images.
	Type string `json:"type,omitempty"`

	// HasAlpha reports whether the alpha channel is enabled.
	HasAlpha bool `json:"has_alpha"`

	// Colors is the number of distinct colors. Zero for pinged images.
	Colors int `json:"colors,omitempty"`

	// Properties holds the image properties.
	Properties map[string]string `json:"properties,omitempty"`
}

// InfoOf collects the Info for img.
func InfoOf(img *imagelist.Image) Info {
	info := Info{
		Filename:   img.Filename,
		Scene:      img.Scene,
		Format:     img.Magick,
		Width:      img.Width(),
		Height:     img.Height(),
		Page:       fmt.Sprintf("%dx%d%+d%+d", img.Page.Width, img.Page.Height, img.Page.X, img.Page.Y),
		Depth:      img.Depth,
		Colorspace: img.Colorspace,
		HasAlpha:   img.AlphaEnabled,
		Properties: img.Properties,
	}
	if img.Pinged {
		info.Width, info.Height = img.Page.Width, img.Page.Height
		return info
	}
	info.Type = ops.ImageType(img.Pixels())
	info.Colors = ops.CountColors(img.Pixels())
	return info
}

// Describe returns the one-line identify summary of img:
//
//	rose.png[0] PNG 70x46 70x46+0+0 8-bit sRGB
func Describe(img *imagelist.Image) string {
	info := InfoOf(img)
	var b strings.Builder
	b.WriteString(info.Filename)
	if img.Scene > 0 {
		fmt.Fprintf(&b, "[%d]", info.Scene)
	}
	format := info.Format
	if format == "" {
		format = "MIFF"
	}
	fmt.Fprintf(&b, " %s %dx%d %s %d-bit %s", format, info.Width, info.Height, info.Page, info.Depth, info.Colorspace)
	if info.HasAlpha {
		b.WriteString(" alpha")
	}
	return b.String()
}
