package pipeline

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-pipeline/internal/imagelist"
)

// filterFunc is an in-process -process module. It edits the current
// images in place.
type filterFunc func(c *CLI, args string) error

var filters map[string]filterFunc

func init() {
	filters = map[string]filterFunc{
		"analyze": analyze,
	}
}

// moments holds the first four statistics of a sample.
type moments struct {
	mean, stddev, kurtosis, skewness float64
}

func momentsOf(v []float64) moments {
	n := float64(len(v))
	if n == 0 {
		return moments{}
	}
	var sum, sum2, sum3, sum4 float64
	for _, x := range v {
		sum += x
		sum2 += x * x
		sum3 += x * x * x
		sum4 += x * x * x * x
	}
	m := moments{mean: sum / n}
	variance := sum2/n - m.mean*m.mean
	if variance <= 0 {
		return m
	}
	m.stddev = math.Sqrt(variance)
	mu3 := sum3/n - 3*m.mean*sum2/n + 2*m.mean*m.mean*m.mean
	mu4 := sum4/n - 4*m.mean*sum3/n + 6*m.mean*m.mean*sum2/n - 3*math.Pow(m.mean, 4)
	m.skewness = mu3 / math.Pow(m.stddev, 3)
	m.kurtosis = mu4/(variance*variance) - 3
	return m
}

// analyze stores the brightness and saturation statistics of every image
// as filter:* properties.
func analyze(c *CLI, _ string) error {
	for _, img := range c.Images() {
		brightness, saturation := hslChannels(img)
		setMoments(img, "brightness", momentsOf(brightness))
		setMoments(img, "saturation", momentsOf(saturation))
	}
	return nil
}

func hslChannels(img *imagelist.Image) ([]float64, []float64) {
	pix := img.Pixels()
	n := len(pix.Pix) / 4
	light := make([]float64, 0, n)
	sat := make([]float64, 0, n)
	for i := 0; i+3 < len(pix.Pix); i += 4 {
		col := colorful.Color{
			R: float64(pix.Pix[i]) / 255,
			G: float64(pix.Pix[i+1]) / 255,
			B: float64(pix.Pix[i+2]) / 255,
		}
		_, s, l := col.Hsl()
		light = append(light, l*quantumRange)
		sat = append(sat, s*quantumRange)
	}
	return light, sat
}

func setMoments(img *imagelist.Image, name string, m moments) {
	set := func(stat string, v float64) {
		img.Properties[fmt.Sprintf("filter:%s:%s", name, stat)] = fmt.Sprintf("%g", v)
	}
	set("mean", m.mean)
	set("standard-deviation", m.stddev)
	set("kurtosis", m.kurtosis)
	set("skewness", m.skewness)
}
