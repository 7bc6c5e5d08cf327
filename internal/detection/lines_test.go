package detection

import (
	"image"
	"image/color"
	"testing"
)

// createTestImage returns a w×h image filled with c.
func createTestImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// createVerticalEdgeImage draws a white vertical line on black.
func createVerticalEdgeImage(width, height, x int) *image.NRGBA {
	img := createTestImage(width, height, color.NRGBA{A: 255})
	for y := 0; y < height; y++ {
		img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return img
}

func TestHoughLines_Vertical(t *testing.T) {
	img := createVerticalEdgeImage(40, 30, 10)

	lines := HoughLines(img, 9, 9, 20)
	if len(lines) == 0 {
		t.Fatal("expected at least one line")
	}
	got := lines[0]
	if got.Start.X != 10 || got.End.X != 10 {
		t.Errorf("expected vertical line at x=10, got %+v", got)
	}
	if got.Votes != 30 {
		t.Errorf("expected 30 votes, got %d", got.Votes)
	}
	if got.AngleDegrees != 90 {
		t.Errorf("expected angle 90, got %v", got.AngleDegrees)
	}
}

func TestHoughLines_NoEdges(t *testing.T) {
	img := createTestImage(20, 20, color.NRGBA{A: 255})
	if lines := HoughLines(img, 3, 3, 1); len(lines) != 0 {
		t.Errorf("expected no lines in a black image, got %d", len(lines))
	}
}

func TestHoughLines_ThresholdFilters(t *testing.T) {
	img := createVerticalEdgeImage(40, 30, 10)
	if lines := HoughLines(img, 9, 9, 31); len(lines) != 0 {
		t.Errorf("expected threshold above the vote count to drop every line, got %d", len(lines))
	}
}

func TestHoughLines_EmptyImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	if lines := HoughLines(img, 3, 3, 1); lines != nil {
		t.Errorf("expected nil for an empty image, got %v", lines)
	}
}

func TestDrawLines(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	bg := color.NRGBA{A: 255}
	out := DrawLines(5, 5, []Line{{Start: Point{0, 0}, End: Point{4, 4}}}, red, bg)

	for i := 0; i < 5; i++ {
		if got := out.NRGBAAt(i, i); got != red {
			t.Errorf("pixel (%d,%d) = %v, want stroke", i, i, got)
		}
	}
	if got := out.NRGBAAt(4, 0); got != bg {
		t.Errorf("pixel (4,0) = %v, want background", got)
	}
}

func TestClipLine(t *testing.T) {
	tests := []struct {
		name       string
		rho        float64
		cos, sin   float64
		start, end Point
	}{
		{"vertical", 3, 1, 0, Point{3, 0}, Point{3, 9}},
		{"horizontal", 4, 0, 1, Point{0, 4}, Point{9, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e, ok := clipLine(tt.rho, tt.cos, tt.sin, 10, 10)
			if !ok {
				t.Fatal("expected the line to cross the image")
			}
			if s != tt.start || e != tt.end {
				t.Errorf("got %v-%v, want %v-%v", s, e, tt.start, tt.end)
			}
		})
	}
}
