package imaging

import (
	"image/color"
	"strings"
	"testing"

	"github.com/ironsheep/image-pipeline/internal/geometry"
)

func textOpts(pointsize float64) TextOptions {
	return TextOptions{Fill: black, Undercolor: white, Pointsize: pointsize}
}

func TestRenderText_Size(t *testing.T) {
	got := RenderText("Hello", textOpts(13))
	if got.Bounds().Dx() != 35 || got.Bounds().Dy() != 13 {
		t.Errorf("size = %v, want 35x13", got.Bounds())
	}
	if CountColors(got) < 2 {
		t.Error("no glyphs drawn")
	}

	big := RenderText("Hello", textOpts(26))
	if big.Bounds().Dx() != 70 || big.Bounds().Dy() != 26 {
		t.Errorf("scaled size = %v, want 70x26", big.Bounds())
	}

	two := RenderText("a\nbb", textOpts(13))
	if two.Bounds().Dy() != 26 || two.Bounds().Dx() != 14 {
		t.Errorf("two-line size = %v, want 14x26", two.Bounds())
	}
}

func TestRenderText_Spacing(t *testing.T) {
	opts := textOpts(13)
	opts.Kerning = 2
	if got := RenderText("abc", opts); got.Bounds().Dx() != 25 {
		t.Errorf("kerned width = %d, want 25", got.Bounds().Dx())
	}
	opts = textOpts(13)
	opts.InterwordSpacing = 5
	if got := RenderText("a b", opts); got.Bounds().Dx() != 26 {
		t.Errorf("word-spaced width = %d, want 26", got.Bounds().Dx())
	}
	opts = textOpts(13)
	opts.InterlineSpacing = 4
	if got := RenderText("a\nb", opts); got.Bounds().Dy() != 30 {
		t.Errorf("line-spaced height = %d, want 30", got.Bounds().Dy())
	}
}

func TestWrap(t *testing.T) {
	opts := textOpts(13)
	if got := Wrap("aa bb cc", 35, opts); got != "aa bb\ncc" {
		t.Errorf("Wrap = %q", got)
	}
	if got := Wrap("abcdefgh", 21, opts); got != "abc\ndef\ngh" {
		t.Errorf("long word = %q", got)
	}
	if got := Wrap("keep\nlines", 0, opts); got != "keep\nlines" {
		t.Errorf("zero width = %q", got)
	}
}

func TestCaption(t *testing.T) {
	opts := textOpts(13)
	opts.Gravity = geometry.Center
	got := Caption("one two three", 40, 60, opts)
	if got.Bounds().Dx() != 40 || got.Bounds().Dy() != 60 {
		t.Fatalf("size = %v, want 40x60", got.Bounds())
	}
	if got.NRGBAAt(0, 0) != white {
		t.Error("corner should be undercolor")
	}
	auto := Caption("one two three", 40, 0, opts)
	if lines := strings.Count(Wrap("one two three", 40, opts), "\n") + 1; auto.Bounds().Dy() != 13*lines {
		t.Errorf("auto height = %d for %d lines", auto.Bounds().Dy(), lines)
	}
}

func TestAnnotate(t *testing.T) {
	img := solidImage(40, 30, white)
	opts := TextOptions{Fill: red, Undercolor: Transparent, Pointsize: 13}
	got := Annotate(img, "X", 5, 15, 0, opts)
	if got.Bounds() != img.Bounds() {
		t.Fatalf("bounds changed to %v", got.Bounds())
	}
	found := false
	for y := 0; y < 30 && !found; y++ {
		for x := 0; x < 40; x++ {
			if c := got.NRGBAAt(x, y); c.G < 200 {
				found = true
				if x < 5 || y >= 17 {
					t.Errorf("glyph pixel at (%d,%d) is outside the text box", x, y)
				}
				break
			}
		}
	}
	if !found {
		t.Error("annotation drew nothing")
	}
	if img.NRGBAAt(7, 10) != (color.NRGBA{255, 255, 255, 255}) {
		t.Error("source image modified")
	}
}
