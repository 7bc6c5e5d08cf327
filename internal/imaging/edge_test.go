package imaging

import (
	"image"
	"testing"
)

// splitImage is black on the left half and white on the right.
func splitImage(width, height int) *image.NRGBA {
	img := solidImage(width, height, black)
	for y := 0; y < height; y++ {
		for x := width / 2; x < width; x++ {
			img.SetNRGBA(x, y, white)
		}
	}
	return img
}

func countWhite(img *image.NRGBA) int {
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] == 255 {
			n++
		}
	}
	return n
}

func TestCanny_StrongEdge(t *testing.T) {
	got := Canny(splitImage(20, 20), 0, 0.1, 0.3)
	if got.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	if countWhite(got) == 0 {
		t.Fatal("no edges found on a hard boundary")
	}
	for y := 1; y < 19; y++ {
		if got.NRGBAAt(2, y).R != 0 || got.NRGBAAt(17, y).R != 0 {
			t.Errorf("edge reported away from the boundary on row %d", y)
		}
	}
	if a := got.NRGBAAt(0, 0).A; a != 255 {
		t.Errorf("alpha = %d, want opaque", a)
	}
}

func TestCanny_UniformImage(t *testing.T) {
	if n := countWhite(Canny(solidImage(16, 16, red), 1, 0.1, 0.3)); n != 0 {
		t.Errorf("uniform image produced %d edge pixels", n)
	}
}

func TestCanny_Thresholds(t *testing.T) {
	img := quadrantImage(30, 30)
	loose := countWhite(Canny(img, 1, 0.05, 0.1))
	strict := countWhite(Canny(img, 1, 0.5, 0.9))
	if strict > loose {
		t.Errorf("strict thresholds found more edges (%d) than loose (%d)", strict, loose)
	}
}

func TestCanny_SmallImage(t *testing.T) {
	got := Canny(solidImage(2, 2, white), 0, 0.1, 0.3)
	if got.Bounds().Dx() != 2 || countWhite(got) != 0 {
		t.Errorf("small image: bounds %v, %d edges", got.Bounds(), countWhite(got))
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := clamp(tt.val, tt.min, tt.max); got != tt.want {
			t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}
