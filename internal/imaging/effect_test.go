package imaging

import (
	"image"
	"image/color"
	"math/rand"
	"testing"
)

// dotImage is black with a single white pixel in the middle.
func dotImage(size int) *image.NRGBA {
	img := solidImage(size, size, black)
	img.SetNRGBA(size/2, size/2, white)
	return img
}

func TestBlurs_SpreadADot(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*image.NRGBA) *image.NRGBA
	}{
		{"blur", func(i *image.NRGBA) *image.NRGBA { return Blur(i, 1.5) }},
		{"gaussian", func(i *image.NRGBA) *image.NRGBA { return GaussianBlur(i, 0, 1.5) }},
		{"motion", func(i *image.NRGBA) *image.NRGBA { return MotionBlur(i, 3, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(dotImage(9))
			center := got.NRGBAAt(4, 4).R
			if center == 255 {
				t.Error("center unchanged")
			}
			if got.NRGBAAt(5, 4).R == 0 {
				t.Error("neighbour received nothing")
			}
			if got.NRGBAAt(4, 4).A != 255 {
				t.Error("alpha changed")
			}
		})
	}
}

func TestBlur_ZeroIsCopy(t *testing.T) {
	img := dotImage(5)
	got := Blur(img, 0)
	if got == img || got.NRGBAAt(2, 2) != white {
		t.Error("zero sigma should return an unchanged copy")
	}
}

func TestMotionBlur_Direction(t *testing.T) {
	got := MotionBlur(dotImage(9), 3, 0)
	// smear trails toward +x
	if got.NRGBAAt(6, 4).R == 0 {
		t.Error("no trail to the right")
	}
	if got.NRGBAAt(3, 4).R != 0 {
		t.Error("trail leaked to the left")
	}
}

func TestSharpenFamily_KeepsSize(t *testing.T) {
	img := quadrantImage(12, 12)
	for name, got := range map[string]*image.NRGBA{
		"sharpen":          Sharpen(img, 1),
		"sharpen kernel":   Sharpen(img, 0),
		"unsharp":          Unsharp(img, 1, 1),
		"adaptive-sharpen": AdaptiveSharpen(img, 1),
		"adaptive-blur":    AdaptiveBlur(img, 1),
		"emboss":           Emboss(img),
		"edge":             Edge(img, 1),
		"charcoal":         Charcoal(img, 1, 0.5),
		"median":           Median(img, 1),
		"despeckle":        Despeckle(img),
	} {
		if got.Bounds() != img.Bounds() {
			t.Errorf("%s: bounds %v, want %v", name, got.Bounds(), img.Bounds())
		}
	}
}

func TestDespeckle_RemovesIsolatedPixel(t *testing.T) {
	got := Despeckle(dotImage(7))
	if c := got.NRGBAAt(3, 3); c.R != 0 {
		t.Errorf("speckle survived: %v", c)
	}
}

func TestWarps(t *testing.T) {
	img := quadrantImage(20, 20)
	bg := color.NRGBA{1, 2, 3, 255}

	if got := Swirl(img, 0, bg); got.NRGBAAt(3, 3) != red {
		t.Error("zero swirl changed the image")
	}
	swirled := Swirl(img, 180, bg)
	if swirled.NRGBAAt(0, 0) != red {
		t.Error("swirl moved a corner outside the radius")
	}
	if swirled.NRGBAAt(9, 9) == red {
		t.Error("swirl left the center quadrant in place")
	}

	imploded := Implode(img, 0.5, bg)
	if imploded.Bounds() != img.Bounds() {
		t.Errorf("implode bounds = %v", imploded.Bounds())
	}

	waved := Wave(img, 3, 10, bg)
	if waved.Bounds().Dy() != 26 {
		t.Errorf("wave height = %d, want 26", waved.Bounds().Dy())
	}
	if waved.NRGBAAt(0, 0) != bg {
		t.Errorf("wave padding = %v, want background", waved.NRGBAAt(0, 0))
	}
}

func TestSpread_UsesSeed(t *testing.T) {
	img := quadrantImage(16, 16)
	a := Spread(img, 2, rand.New(rand.NewSource(7)))
	b := Spread(img, 2, rand.New(rand.NewSource(7)))
	if string(a.Pix) != string(b.Pix) {
		t.Error("same seed gave different results")
	}
	if got := Spread(img, 0, rand.New(rand.NewSource(7))); string(got.Pix) != string(img.Pix) {
		t.Error("zero radius changed the image")
	}
}

func TestAddNoise(t *testing.T) {
	img := solidImage(16, 16, color.NRGBA{128, 128, 128, 200})
	for _, kind := range NoiseTypes {
		t.Run(kind, func(t *testing.T) {
			got, err := AddNoise(img, kind, 1, rand.New(rand.NewSource(1)))
			if err != nil {
				t.Fatalf("AddNoise failed: %v", err)
			}
			if got.Bounds() != img.Bounds() {
				t.Errorf("bounds = %v", got.Bounds())
			}
			if got.NRGBAAt(0, 0).A != 200 {
				t.Errorf("alpha changed to %d", got.NRGBAAt(0, 0).A)
			}
		})
	}
	if _, err := AddNoise(img, "Pink", 1, rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected error for unknown noise type")
	}
}

func TestAddNoise_ZeroAttenuate(t *testing.T) {
	img := solidImage(8, 8, color.NRGBA{90, 90, 90, 255})
	got, err := AddNoise(img, "Gaussian", 0, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("AddNoise failed: %v", err)
	}
	if string(got.Pix) != string(img.Pix) {
		t.Error("zero attenuation changed pixels")
	}
}

func TestMorphology(t *testing.T) {
	dot := dotImage(9)
	dilated, err := Morphology(dot, "Dilate", 1, 1)
	if err != nil {
		t.Fatalf("Dilate failed: %v", err)
	}
	if dilated.NRGBAAt(5, 4).R != 255 {
		t.Error("dilate did not grow the dot")
	}

	eroded, err := Morphology(dot, "Erode", 1, 1)
	if err != nil {
		t.Fatalf("Erode failed: %v", err)
	}
	if eroded.NRGBAAt(4, 4).R != 0 {
		t.Error("erode did not remove the dot")
	}

	opened, err := Morphology(dot, "Open", 1, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if CountColors(opened) != 1 {
		t.Error("open kept an isolated pixel")
	}

	edge, err := Morphology(dot, "EdgeOut", 1, 1)
	if err != nil {
		t.Fatalf("EdgeOut failed: %v", err)
	}
	if edge.NRGBAAt(4, 4).R != 0 || edge.NRGBAAt(5, 4).R != 255 {
		t.Errorf("edgeout center %v ring %v", edge.NRGBAAt(4, 4), edge.NRGBAAt(5, 4))
	}

	for _, m := range MorphologyMethods {
		if _, err := Morphology(dot, m, 1, 1); err != nil {
			t.Errorf("%s: %v", m, err)
		}
	}
	if _, err := Morphology(dot, "Thicken", 1, 1); err == nil {
		t.Error("expected error for unsupported method")
	}
	same, err := Morphology(dot, "Dilate", 1, 0)
	if err != nil || string(same.Pix) != string(dot.Pix) {
		t.Error("zero iterations should be a copy")
	}
}
