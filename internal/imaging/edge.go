package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Canny performs Canny edge detection and returns a black image with the
// edges in white.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - sigma: Gaussian smoothing applied before the gradient is computed.
//     Zero skips smoothing.
//   - low, high: Hysteresis thresholds as fractions (0-1) of the maximum
//     gradient magnitude. Pixels above high are strong edges; pixels
//     between low and high are kept only when touching a strong edge.
//
// # Algorithm
//
//  1. Grayscale conversion using ITU-R BT.601 weights
//  2. Gaussian blur to reduce noise
//  3. Sobel gradients, magnitude and direction
//  4. Non-maximum suppression in the gradient direction
//  5. Hysteresis thresholding
func Canny(img *image.NRGBA, sigma, low, high float64) *image.NRGBA {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	if width < 3 || height < 3 {
		return out
	}

	var src image.Image = effect.Grayscale(img)
	if sigma > 0 {
		// edge-clamped, so a flat border stays flat
		src = imaging.Blur(src, sigma)
	}
	lum := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := src.At(x+src.Bounds().Min.X, y+src.Bounds().Min.Y).RGBA()
			lum[y*width+x] = float64(r>>8) / 255.0
		}
	}
	at := func(x, y int) float64 {
		return lum[clamp(y, 0, height-1)*width+clamp(x, 0, width-1)]
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	maxMag := 0.0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) - 2*at(x-1, y) + 2*at(x+1, y) - at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) + at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			m := math.Sqrt(gx*gx + gy*gy)
			magnitude[y*width+x] = m
			direction[y*width+x] = math.Atan2(gy, gx)
			if m > maxMag {
				maxMag = m
			}
		}
	}
	if maxMag == 0 {
		return out
	}

	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			angle := direction[y*width+x]
			mag := magnitude[y*width+x]
			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = magnitude[y*width+x-1], magnitude[y*width+x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = magnitude[(y-1)*width+x+1], magnitude[(y+1)*width+x-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = magnitude[(y-1)*width+x], magnitude[(y+1)*width+x]
			default:
				n1, n2 = magnitude[(y-1)*width+x-1], magnitude[(y+1)*width+x+1]
			}
			if mag >= n1 && mag >= n2 {
				suppressed[y*width+x] = mag / maxMag
			}
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := suppressed[y*width+x]
			keep := v >= high
			if !keep && v >= low {
				for ky := -1; ky <= 1 && !keep; ky++ {
					for kx := -1; kx <= 1 && !keep; kx++ {
						py, px := clamp(y+ky, 0, height-1), clamp(x+kx, 0, width-1)
						keep = suppressed[py*width+px] >= high
					}
				}
			}
			if keep {
				i := out.PixOffset(x, y)
				out.Pix[i], out.Pix[i+1], out.Pix[i+2] = 255, 255, 255
			}
		}
	}
	return out
}
