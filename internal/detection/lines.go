package detection

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Line is a detected line clipped to the image.
type Line struct {
	Start        Point   `json:"start"`
	End          Point   `json:"end"`
	Votes        int     `json:"votes"`
	Length       float64 `json:"length"`
	AngleDegrees float64 `json:"angle_degrees"`
}

// HoughLines finds straight lines in an edge image, typically the output
// of a Canny pass. A pixel counts as an edge when its luma is above half
// intensity.
//
// Parameters:
//   - winW, winH: the neighbourhood in Hough space (rho by theta) within
//     which a peak must be the maximum.
//   - threshold: minimum number of edge pixels voting for a line.
//
// Lines are returned strongest first.
func HoughLines(img *image.NRGBA, winW, winH, threshold int) []Line {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}
	if winW < 1 {
		winW = 1
	}
	if winH < 1 {
		winH = 1
	}

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			edges[y][x] = c.A > 0 && (299*int(c.R)+587*int(c.G)+114*int(c.B))/1000 > 127
		}
	}

	maxDist := int(math.Ceil(math.Hypot(float64(width), float64(height))))
	numAngles := 180
	accumulator := make([][]int, maxDist*2+1)
	for i := range accumulator {
		accumulator[i] = make([]int, numAngles)
	}
	sines := make([]float64, numAngles)
	cosines := make([]float64, numAngles)
	for t := 0; t < numAngles; t++ {
		angle := float64(t) * math.Pi / 180.0
		sines[t], cosines[t] = math.Sin(angle), math.Cos(angle)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !edges[y][x] {
				continue
			}
			for t := 0; t < numAngles; t++ {
				rho := float64(x)*cosines[t] + float64(y)*sines[t]
				accumulator[int(math.Round(rho))+maxDist][t]++
			}
		}
	}

	type peak struct {
		rho, theta, votes int
	}
	var peaks []peak
	for r := range accumulator {
		for t := 0; t < numAngles; t++ {
			v := accumulator[r][t]
			if v < threshold || v == 0 {
				continue
			}
			isMax := true
			for dr := -winW / 2; dr <= winW/2 && isMax; dr++ {
				for dt := -winH / 2; dt <= winH/2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr := r + dr
					nt := (t + dt + numAngles) % numAngles
					if nr < 0 || nr >= len(accumulator) {
						continue
					}
					n := accumulator[nr][nt]
					// ties go to the earlier cell so plateaus yield one peak
					if n > v || (n == v && (nr < r || (nr == r && nt < t))) {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{rho: r - maxDist, theta: t, votes: v})
			}
		}
	}
	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})

	lines := make([]Line, 0, len(peaks))
	for _, p := range peaks {
		start, end, ok := clipLine(float64(p.rho), cosines[p.theta], sines[p.theta], width, height)
		if !ok {
			continue
		}
		dx, dy := float64(end.X-start.X), float64(end.Y-start.Y)
		lines = append(lines, Line{
			Start:        Point{X: start.X + b.Min.X, Y: start.Y + b.Min.Y},
			End:          Point{X: end.X + b.Min.X, Y: end.Y + b.Min.Y},
			Votes:        p.votes,
			Length:       math.Round(math.Hypot(dx, dy)*10) / 10,
			AngleDegrees: math.Round(math.Atan2(dy, dx)*180/math.Pi*10) / 10,
		})
	}
	return lines
}

// clipLine intersects x·cos + y·sin = rho with the image rectangle.
func clipLine(rho, cos, sin float64, width, height int) (Point, Point, bool) {
	w, h := float64(width-1), float64(height-1)
	var pts []Point
	add := func(x, y float64) {
		if x < -0.5 || y < -0.5 || x > w+0.5 || y > h+0.5 {
			return
		}
		p := Point{X: int(math.Round(x)), Y: int(math.Round(y))}
		for _, q := range pts {
			if q == p {
				return
			}
		}
		pts = append(pts, p)
	}
	if math.Abs(sin) > 1e-9 {
		add(0, rho/sin)
		add(w, (rho-w*cos)/sin)
	}
	if math.Abs(cos) > 1e-9 {
		add(rho/cos, 0)
		add((rho-h*sin)/cos, h)
	}
	if len(pts) < 2 {
		return Point{}, Point{}, false
	}
	return pts[0], pts[1], true
}

// DrawLines renders lines on a w×h canvas of bg using stroke.
func DrawLines(w, h int, lines []Line, stroke, bg color.NRGBA) *image.NRGBA {
	canvas := imaging.New(w, h, bg)
	for _, l := range lines {
		drawSegment(canvas, l.Start, l.End, stroke)
	}
	return canvas
}

// drawSegment plots a line with Bresenham's algorithm.
func drawSegment(img *image.NRGBA, a, b Point, c color.NRGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		if (image.Point{X: x, Y: y}).In(img.Bounds()) {
			img.SetNRGBA(x, y, c)
		}
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
