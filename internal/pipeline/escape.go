package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/image-pipeline/internal/codec"
	"github.com/ironsheep/image-pipeline/internal/imagelist"
	ops "github.com/ironsheep/image-pipeline/internal/imaging"
)

// Interpret expands the percent escapes of text against img, the image at
// position index of a list of n images.
//
// Single letter escapes (%w, %h, %f, ...) and bracketed keys (%[label],
// %[pixel:x,y], %[fx:w/2], %[option:key]) are supported. A malformed
// escape is an error and the caller keeps the raw text.
func (c *CLI) Interpret(text string, img *imagelist.Image, index, n int) (string, error) {
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch == '\\' && i+1 < len(text) && text[i+1] == 'n' {
			b.WriteByte('\n')
			i++
			continue
		}
		if ch != '%' {
			b.WriteByte(ch)
			continue
		}
		if i+1 >= len(text) {
			b.WriteByte('%')
			break
		}
		i++
		if text[i] == '[' {
			end := matchBracket(text, i)
			if end < 0 {
				return text, fmt.Errorf("unterminated escape in %q", text)
			}
			v, err := c.bracketEscape(text[i+1:end], img, index, n)
			if err != nil {
				return text, err
			}
			b.WriteString(v)
			i = end
			continue
		}
		v, err := c.letterEscape(text[i], img, index, n)
		if err != nil {
			return text, err
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// matchBracket returns the index of the ']' closing the '[' at open.
func matchBracket(s string, open int) int {
	depth := 0
	for j := open; j < len(s); j++ {
		switch s[j] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func size(img *imagelist.Image) (int, int) {
	if img.Pinged || img.Empty() {
		return img.Page.Width, img.Page.Height
	}
	return img.Width(), img.Height()
}

func signed(v int) string {
	return fmt.Sprintf("%+d", v)
}

func (c *CLI) letterEscape(ch byte, img *imagelist.Image, index, n int) (string, error) {
	w, h := size(img)
	base := filepath.Base(img.Filename)
	switch ch {
	case '%':
		return "%", nil
	case 'b':
		if fi, err := os.Stat(img.Filename); err == nil {
			return fmt.Sprintf("%dB", fi.Size()), nil
		}
		return "0B", nil
	case 'c':
		return img.Properties["comment"], nil
	case 'd':
		if dir := filepath.Dir(img.Filename); img.Filename != "" && dir != "." {
			return dir, nil
		}
		return "", nil
	case 'e':
		return strings.TrimPrefix(filepath.Ext(img.Filename), "."), nil
	case 'f':
		if img.Filename == "" {
			return "", nil
		}
		return base, nil
	case 'g':
		return fmt.Sprintf("%dx%d%+d%+d", img.Page.Width, img.Page.Height, img.Page.X, img.Page.Y), nil
	case 'h':
		return strconv.Itoa(h), nil
	case 'i', 'M':
		return img.Filename, nil
	case 'k':
		if img.Empty() {
			return "0", nil
		}
		return strconv.Itoa(ops.CountColors(img.Pixels())), nil
	case 'l':
		return img.Properties["label"], nil
	case 'm':
		return img.Magick, nil
	case 'n':
		return strconv.Itoa(n), nil
	case 'o':
		return c.settings.Image.Options["filename"], nil
	case 'p':
		return strconv.Itoa(index), nil
	case 'q', 'z':
		return strconv.Itoa(img.Depth), nil
	case 'r':
		s := "DirectClass " + img.Colorspace
		if img.AlphaEnabled {
			s += " Alpha"
		}
		return s, nil
	case 's':
		return strconv.Itoa(img.Scene), nil
	case 't':
		return strings.TrimSuffix(base, filepath.Ext(base)), nil
	case 'w':
		return strconv.Itoa(w), nil
	case 'x', 'y':
		x, y := density(img.Density)
		if ch == 'x' {
			return strconv.FormatFloat(x, 'g', -1, 64), nil
		}
		return strconv.FormatFloat(y, 'g', -1, 64), nil
	case 'C':
		if img.Compression == "" {
			return "Undefined", nil
		}
		return img.Compression, nil
	case 'D':
		return img.Dispose, nil
	case 'G', 'P':
		return fmt.Sprintf("%dx%d", img.Page.Width, img.Page.Height), nil
	case 'H':
		return strconv.Itoa(img.Page.Height), nil
	case 'O':
		return fmt.Sprintf("%+d%+d", img.Page.X, img.Page.Y), nil
	case 'Q':
		return strconv.Itoa(img.Quality), nil
	case 'T':
		return strconv.Itoa(img.Delay), nil
	case 'U':
		if img.Units == "" {
			return "Undefined", nil
		}
		return img.Units, nil
	case 'W':
		return strconv.Itoa(img.Page.Width), nil
	case 'X':
		return signed(img.Page.X), nil
	case 'Y':
		return signed(img.Page.Y), nil
	}
	return "", fmt.Errorf("unknown escape %%%c", ch)
}

// density parses an "XxY" resolution, 72 when unset.
func density(s string) (float64, float64) {
	x, y := 72.0, 72.0
	if s == "" {
		return x, y
	}
	xs, ys, found := strings.Cut(s, "x")
	if v, err := strconv.ParseFloat(xs, 64); err == nil {
		x, y = v, v
	}
	if found {
		if v, err := strconv.ParseFloat(ys, 64); err == nil {
			y = v
		}
	}
	return x, y
}

func (c *CLI) bracketEscape(key string, img *imagelist.Image, index, n int) (string, error) {
	prefix, rest, hasPrefix := strings.Cut(key, ":")
	if hasPrefix {
		switch strings.ToLower(prefix) {
		case "pixel", "hex":
			x, y, err := point(rest)
			if err != nil {
				return "", err
			}
			if img.Empty() {
				return "", fmt.Errorf("image has no pixels for %%[%s]", key)
			}
			res, err := ops.SampleColor(img.Pixels(), x, y)
			if err != nil {
				return "", err
			}
			if strings.EqualFold(prefix, "hex") {
				return res.Hex, nil
			}
			return res.Pixel, nil
		case "fx":
			w, h := size(img)
			v, err := evalFx(rest, map[string]float64{
				"w": float64(w), "h": float64(h), "n": float64(n), "t": float64(index),
			})
			if err != nil {
				return "", err
			}
			return strconv.FormatFloat(v, 'g', -1, 64), nil
		case "option":
			return c.settings.Image.Options[rest], nil
		case "artifact":
			return img.Artifacts[rest], nil
		case "property":
			return img.Properties[rest], nil
		case "registry":
			v, _ := c.codec.Registry.Get(rest)
			return v, nil
		}
	}
	w, h := size(img)
	switch strings.ToLower(key) {
	case "width":
		return strconv.Itoa(w), nil
	case "height":
		return strconv.Itoa(h), nil
	case "scene":
		return strconv.Itoa(img.Scene), nil
	case "colorspace":
		return img.Colorspace, nil
	case "magick":
		return img.Magick, nil
	case "type":
		if img.Empty() {
			return "", nil
		}
		return ops.ImageType(img.Pixels()), nil
	case "channels":
		if img.AlphaEnabled {
			return "srgba", nil
		}
		return "srgb", nil
	case "describe":
		return codec.Describe(img), nil
	}
	if v, ok := img.Property(key); ok {
		return v, nil
	}
	return c.settings.Image.Options[key], nil
}

func point(s string) (int, int, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid point %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return x, y, nil
}
