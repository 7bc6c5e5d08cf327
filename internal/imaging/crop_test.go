package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestCrop(t *testing.T) {
	img := quadrantImage(100, 100)

	tests := []struct {
		name          string
		rect          image.Rectangle
		width, height int
		topLeft       color.NRGBA
	}{
		{"inside", image.Rect(10, 10, 60, 40), 50, 30, red},
		{"bottom-right quadrant", image.Rect(50, 50, 100, 100), 50, 50, white},
		{"clipped", image.Rect(80, -10, 200, 20), 20, 20, green},
		{"full image", image.Rect(0, 0, 100, 100), 100, 100, red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Crop(img, tt.rect)
			if err != nil {
				t.Fatalf("Crop failed: %v", err)
			}
			if got.Bounds().Dx() != tt.width || got.Bounds().Dy() != tt.height {
				t.Errorf("size = %dx%d, want %dx%d", got.Bounds().Dx(), got.Bounds().Dy(), tt.width, tt.height)
			}
			if c := got.NRGBAAt(0, 0); c != tt.topLeft {
				t.Errorf("top-left = %v, want %v", c, tt.topLeft)
			}
		})
	}
}

func TestCrop_NoOverlap(t *testing.T) {
	_, err := Crop(quadrantImage(10, 10), image.Rect(20, 20, 30, 30))
	if !errors.Is(err, ErrNoOverlap) {
		t.Errorf("err = %v, want ErrNoOverlap", err)
	}
}

func TestCropTiles(t *testing.T) {
	tiles := CropTiles(quadrantImage(10, 10), 4, 5)
	if len(tiles) != 6 {
		t.Fatalf("got %d tiles, want 6", len(tiles))
	}
	if tiles[2].Bounds().Dx() != 2 {
		t.Errorf("edge tile width = %d, want 2", tiles[2].Bounds().Dx())
	}
	if c := tiles[5].NRGBAAt(1, 4); c != white {
		t.Errorf("last tile corner = %v, want white", c)
	}
}

func TestShave(t *testing.T) {
	got, err := Shave(quadrantImage(10, 10), 2, 3)
	if err != nil {
		t.Fatalf("Shave failed: %v", err)
	}
	if got.Bounds().Dx() != 6 || got.Bounds().Dy() != 4 {
		t.Errorf("size = %v, want 6x4", got.Bounds())
	}
	if _, err := Shave(quadrantImage(4, 4), 2, 2); !errors.Is(err, ErrNoOverlap) {
		t.Errorf("shaving everything: err = %v, want ErrNoOverlap", err)
	}
}

func TestChop(t *testing.T) {
	img := quadrantImage(10, 10)
	if _, err := Chop(img, image.Rect(0, 0, 5, 0)); !errors.Is(err, ErrNoOverlap) {
		t.Errorf("empty region: err = %v, want ErrNoOverlap", err)
	}

	got, err := Chop(img, image.Rect(0, 0, 5, 10))
	if err != nil {
		t.Fatalf("Chop failed: %v", err)
	}
	if got.Bounds().Dx() != 5 || got.Bounds().Dy() != 0 {
		t.Errorf("size = %v, want 5x0", got.Bounds())
	}

	got, err = Chop(img, image.Rect(0, 0, 5, 1))
	if err != nil {
		t.Fatalf("Chop failed: %v", err)
	}
	if got.Bounds().Dx() != 5 || got.Bounds().Dy() != 9 {
		t.Errorf("size = %v, want 5x9", got.Bounds())
	}
	if c := got.NRGBAAt(0, 0); c != green {
		t.Errorf("top-left after chop = %v, want green", c)
	}
}

func TestTrim(t *testing.T) {
	img := solidImage(20, 10, white)
	img.SetNRGBA(5, 3, red)
	img.SetNRGBA(12, 7, blue)

	if got, want := Trim(img, 0), image.Rect(5, 3, 13, 8); got != want {
		t.Errorf("Trim = %v, want %v", got, want)
	}
	if got := Trim(solidImage(4, 4, black), 0); got != image.Rect(0, 0, 1, 1) {
		t.Errorf("uniform Trim = %v, want single pixel", got)
	}

	near := solidImage(6, 6, white)
	near.SetNRGBA(2, 2, color.NRGBA{250, 250, 250, 255})
	if got := Trim(near, 0.05); got != image.Rect(0, 0, 1, 1) {
		t.Errorf("fuzzy Trim = %v, want single pixel", got)
	}
}
