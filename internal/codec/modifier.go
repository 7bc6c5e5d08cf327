package codec

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-pipeline/internal/geometry"
	"github.com/ironsheep/image-pipeline/internal/imagelist"
)

// splitModifier separates a trailing "[...]" read modifier from a
// filename. The filename keeps any brackets that are part of a glob.
func splitModifier(spec string) (string, string) {
	if !strings.HasSuffix(spec, "]") {
		return spec, ""
	}
	i := strings.LastIndexByte(spec, '[')
	if i <= 0 {
		return spec, ""
	}
	mod := spec[i+1 : len(spec)-1]
	if !isSceneList(mod) && !geometry.IsGeometry(mod) {
		return spec, ""
	}
	return spec[:i], mod
}

func isSceneList(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != ',' && r != '-' {
			return false
		}
	}
	return true
}

// parseScenes expands "2", "0-3", "3-1" and "1,3" into scene indices.
func parseScenes(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid scene %q", part)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(hi); err != nil {
				return nil, fmt.Errorf("invalid scene range %q", part)
			}
		}
		step := 1
		if last < first {
			step = -1
		}
		for i := first; ; i += step {
			out = append(out, i)
			if i == last {
				break
			}
		}
	}
	return out, nil
}

// applyModifier selects scenes or resizes/crops each image according to
// a read modifier.
func applyModifier(imgs []*imagelist.Image, mod string) ([]*imagelist.Image, error) {
	if mod == "" {
		return imgs, nil
	}
	if isSceneList(mod) {
		scenes, err := parseScenes(mod)
		if err != nil {
			return nil, err
		}
		var out []*imagelist.Image
		for _, s := range scenes {
			if s >= 0 && s < len(imgs) {
				out = append(out, imgs[s].Clone())
			}
		}
		for _, img := range imgs {
			img.Release()
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("no scenes match %q", mod)
		}
		return out, nil
	}
	g, err := geometry.Parse(mod)
	if err != nil {
		return nil, err
	}
	for _, img := range imgs {
		if img.Pinged {
			continue
		}
		pix := img.Pixels()
		if g.Flags.Has(geometry.XValue) || g.Flags.Has(geometry.YValue) {
			r := geometry.Region(img.Width(), img.Height(), g, geometry.UndefinedGravity)
			rect := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Intersect(pix.Bounds())
			if rect.Empty() {
				return nil, fmt.Errorf("read modifier %q does not overlap the image", mod)
			}
			img.SetPixels(imaging.Crop(pix, rect))
			continue
		}
		w, h := geometry.Resize(img.Width(), img.Height(), g)
		if w != img.Width() || h != img.Height() {
			img.SetPixels(imaging.Resize(pix, w, h, imaging.Lanczos))
		}
	}
	return imgs, nil
}
