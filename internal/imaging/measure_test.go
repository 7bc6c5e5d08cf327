package imaging

import (
	"image/color"
	"math"
	"testing"
)

var highlight = color.NRGBA{241, 0, 30, 255}

func TestCompare_Identical(t *testing.T) {
	img := quadrantImage(10, 10)
	for _, metric := range []string{"AE", "MAE", "MSE", "RMSE", "Fuzz"} {
		t.Run(metric, func(t *testing.T) {
			res, err := Compare(img, img, metric, 0, highlight)
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			if res.Distortion != 0 {
				t.Errorf("distortion = %v, want 0", res.Distortion)
			}
			if res.PixelsDifferent != 0 || res.TotalPixels != 100 {
				t.Errorf("pixels = %d/%d, want 0/100", res.PixelsDifferent, res.TotalPixels)
			}
		})
	}
	res, err := Compare(img, img, "PSNR", 0, highlight)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !math.IsInf(res.Distortion, 1) {
		t.Errorf("PSNR of identical images = %v, want +Inf", res.Distortion)
	}
}

func TestCompare_Metrics(t *testing.T) {
	ref := solidImage(2, 2, black)
	cand := solidImage(2, 2, black)
	cand.SetNRGBA(0, 0, white)

	tests := []struct {
		metric string
		want   float64
	}{
		// one pixel of four differs by 255 in three of four channels
		{"AE", 1},
		{"MAE", 3.0 / 16},
		{"MSE", 3.0 / 16},
		{"RMSE", math.Sqrt(3.0 / 16)},
		{"", math.Sqrt(3.0 / 16)},
		{"PSNR", 10 * math.Log10(16.0/3)},
	}
	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			res, err := Compare(ref, cand, tt.metric, 0, highlight)
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			if math.Abs(res.Distortion-tt.want) > 1e-9 {
				t.Errorf("distortion = %v, want %v", res.Distortion, tt.want)
			}
		})
	}
}

func TestCompare_DifferenceImage(t *testing.T) {
	ref := solidImage(3, 3, black)
	cand := solidImage(3, 3, black)
	cand.SetNRGBA(1, 1, white)

	res, err := Compare(ref, cand, "AE", 0, highlight)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if c := res.Difference.NRGBAAt(1, 1); c != highlight {
		t.Errorf("differing pixel = %v, want highlight", c)
	}
	if c := res.Difference.NRGBAAt(0, 0); c == highlight {
		t.Error("matching pixel painted with highlight")
	}
}

func TestCompare_Fuzz(t *testing.T) {
	ref := solidImage(2, 2, color.NRGBA{100, 100, 100, 255})
	cand := solidImage(2, 2, color.NRGBA{102, 100, 100, 255})
	res, err := Compare(ref, cand, "AE", 0.05, highlight)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if res.Distortion != 0 {
		t.Errorf("AE within fuzz = %v, want 0", res.Distortion)
	}
}

func TestCompare_Errors(t *testing.T) {
	if _, err := Compare(solidImage(2, 2, red), solidImage(3, 2, red), "AE", 0, highlight); err == nil {
		t.Error("expected error for size mismatch")
	}
	if _, err := Compare(solidImage(2, 2, red), solidImage(2, 2, red), "Bogus", 0, highlight); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestAbsDiff(t *testing.T) {
	if absDiff(10, 3) != 7 || absDiff(3, 10) != 7 || absDiff(5, 5) != 0 {
		t.Error("absDiff mismatch")
	}
}
