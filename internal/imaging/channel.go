package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/anthonynsimon/bild/channel"
)

// Channels selects which channels an operation touches.
type Channels uint8

const (
	Red Channels = 1 << iota
	Green
	Blue
	Alpha

	RGB         = Red | Green | Blue
	AllChannels = RGB | Alpha
)

// ParseChannels parses a -channel argument: a keyword such as "Red",
// "RGB" or "All", a comma separated list of keywords, or a run of channel
// letters like "RGBA".
func ParseChannels(s string) (Channels, error) {
	var ch Channels
	for _, part := range strings.Split(s, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		switch key {
		case "all", "default":
			ch |= AllChannels
			continue
		case "red", "cyan", "r", "c":
			ch |= Red
			continue
		case "green", "magenta", "g", "m":
			ch |= Green
			continue
		case "blue", "yellow", "b", "y":
			ch |= Blue
			continue
		case "alpha", "opacity", "matte", "a", "o":
			ch |= Alpha
			continue
		case "gray", "grey", "intensity":
			ch |= RGB
			continue
		}
		for _, r := range key {
			switch r {
			case 'r', 'c':
				ch |= Red
			case 'g', 'm':
				ch |= Green
			case 'b', 'y':
				ch |= Blue
			case 'a', 'o':
				ch |= Alpha
			case 'k':
				// black channel only exists in CMYK
			default:
				return 0, fmt.Errorf("unrecognized channel type %q", part)
			}
		}
	}
	if ch == 0 {
		return 0, fmt.Errorf("unrecognized channel type %q", s)
	}
	return ch, nil
}

func (c Channels) String() string {
	var b strings.Builder
	for _, x := range []struct {
		bit Channels
		r   byte
	}{{Red, 'R'}, {Green, 'G'}, {Blue, 'B'}, {Alpha, 'A'}} {
		if c&x.bit != 0 {
			b.WriteByte(x.r)
		}
	}
	return b.String()
}

// Separate splits the selected channels into opaque grayscale images.
func Separate(img *image.NRGBA, ch Channels) []*image.NRGBA {
	var out []*image.NRGBA
	for _, x := range []struct {
		bit Channels
		c   channel.Channel
	}{{Red, channel.Red}, {Green, channel.Green}, {Blue, channel.Blue}, {Alpha, channel.Alpha}} {
		if ch&x.bit == 0 {
			continue
		}
		// NRGBA pixels are read straight so premultiplication does not
		// darken translucent channels.
		gray := channel.Extract(straightRGBA(img), x.c)
		out = append(out, grayToNRGBA(gray))
	}
	return out
}

// Combine builds one image from grayscale channel images, assigned in
// order to the selected channels. Missing color channels are zero and a
// missing alpha channel is opaque.
func Combine(imgs []*image.NRGBA, ch Channels) (*image.NRGBA, error) {
	if len(imgs) == 0 {
		return nil, fmt.Errorf("no images to combine")
	}
	b := imgs[0].Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 255
	}
	next := 0
	for offset, bit := range []Channels{Red, Green, Blue, Alpha} {
		if ch&bit == 0 || next >= len(imgs) {
			continue
		}
		src := imgs[next]
		next++
		sb := src.Bounds()
		for y := 0; y < b.Dy() && y < sb.Dy(); y++ {
			for x := 0; x < b.Dx() && x < sb.Dx(); x++ {
				c := src.NRGBAAt(sb.Min.X+x, sb.Min.Y+y)
				dst.Pix[dst.PixOffset(x, y)+offset] = luma(c)
			}
		}
	}
	return dst, nil
}

// straightRGBA copies NRGBA bytes into an RGBA without premultiplying.
func straightRGBA(img *image.NRGBA) *image.RGBA {
	return &image.RGBA{Pix: img.Pix, Stride: img.Stride, Rect: img.Rect}
}

func grayToNRGBA(g *image.Gray) *image.NRGBA {
	b := g.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := g.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			dst.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return dst
}

// luma returns the Rec. 601 luma of c.
func luma(c color.NRGBA) uint8 {
	return clampUint8(0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B))
}
