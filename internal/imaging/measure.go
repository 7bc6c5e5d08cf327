package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// CompareResult holds the distortion between two images and a difference
// image highlighting the pixels that differ.
type CompareResult struct {
	Metric          string       `json:"metric"`
	Distortion      float64      `json:"distortion"`
	PixelsDifferent int          `json:"pixels_different"`
	TotalPixels     int          `json:"total_pixels"`
	Difference      *image.NRGBA `json:"-"`
}

// Compare measures how far candidate is from reference.
//
// Metrics:
//   - AE: number of pixels differing by more than fuzz
//   - MAE: mean absolute channel error (0-1)
//   - MSE: mean squared channel error (0-1)
//   - RMSE: square root of MSE
//   - PSNR: peak signal to noise ratio in dB (Inf for identical images)
//   - Fuzz: RMSE of the per-pixel color distance
//
// The images must have the same size. The difference image is a faded copy
// of the reference with differing pixels painted in highlight.
func Compare(reference, candidate *image.NRGBA, metric string, fuzz float64, highlight color.NRGBA) (*CompareResult, error) {
	rb, cb := reference.Bounds(), candidate.Bounds()
	if rb.Dx() != cb.Dx() || rb.Dy() != cb.Dy() {
		return nil, fmt.Errorf("image sizes differ: %dx%d vs %dx%d", rb.Dx(), rb.Dy(), cb.Dx(), cb.Dy())
	}

	w, h := rb.Dx(), rb.Dy()
	diff := image.NewNRGBA(image.Rect(0, 0, w, h))
	total := w * h
	different := 0
	var absSum, sqSum, distSq float64

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := reference.NRGBAAt(rb.Min.X+x, rb.Min.Y+y)
			b := candidate.NRGBAAt(cb.Min.X+x, cb.Min.Y+y)
			for _, d := range [4]float64{
				absDiff(a.R, b.R), absDiff(a.G, b.G), absDiff(a.B, b.B), absDiff(a.A, b.A),
			} {
				absSum += d / 255
				sqSum += (d / 255) * (d / 255)
			}
			dist := ColorDistance(a, b)
			distSq += dist * dist
			if FuzzyEqual(a, b, fuzz) {
				// faded reference pixel
				diff.SetNRGBA(x, y, color.NRGBA{R: a.R/4 + 191, G: a.G/4 + 191, B: a.B/4 + 191, A: 255})
				continue
			}
			different++
			diff.SetNRGBA(x, y, highlight)
		}
	}

	res := &CompareResult{
		Metric:          metric,
		PixelsDifferent: different,
		TotalPixels:     total,
		Difference:      diff,
	}
	if total == 0 {
		return res, nil
	}
	channels := float64(total * 4)
	mse := sqSum / channels
	switch metric {
	case "AE":
		res.Distortion = float64(different)
	case "MAE":
		res.Distortion = absSum / channels
	case "MSE":
		res.Distortion = mse
	case "", "RMSE":
		res.Metric = "RMSE"
		res.Distortion = math.Sqrt(mse)
	case "PSNR":
		if mse == 0 {
			res.Distortion = math.Inf(1)
		} else {
			res.Distortion = 10 * math.Log10(1/mse)
		}
	case "Fuzz":
		res.Distortion = math.Sqrt(distSq / float64(total))
	default:
		return nil, fmt.Errorf("unsupported metric %q", metric)
	}
	return res, nil
}

func absDiff(a, b uint8) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}
