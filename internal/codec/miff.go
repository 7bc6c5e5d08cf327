package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ironsheep/image-pipeline/internal/geometry"
	"github.com/ironsheep/image-pipeline/internal/imagelist"
	ops "github.com/ironsheep/image-pipeline/internal/imaging"
)

// miffTerminator ends every MIFF header.
const miffTerminator = "\f\n:\x1a"

// encodeMIFF writes each image as a text header followed by raw 8-bit
// RGBA pixels. Output depends only on the image, so reading a file and
// writing it again reproduces it byte for byte.
func encodeMIFF(c *Codec, w io.Writer, f *Format, imgs []*imagelist.Image, opts Options) error {
	bw := bufio.NewWriter(w)
	for _, img := range imgs {
		if _, err := bw.Write(miffHeader(img)); err != nil {
			return err
		}
		if _, err := bw.Write(img.Pixels().Pix); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func miffHeader(img *imagelist.Image) []byte {
	var b bytes.Buffer
	alpha := "Undefined"
	if img.AlphaEnabled {
		alpha = "Blend"
	}
	compression := img.Compression
	if compression == "" {
		compression = "None"
	}
	fmt.Fprintf(&b, "id=ImageMagick  version=1.0\n")
	fmt.Fprintf(&b, "class=DirectClass  colorspace=%s  alpha-trait=%s\n", img.Colorspace, alpha)
	fmt.Fprintf(&b, "columns=%d  rows=%d  depth=%d\n", img.Width(), img.Height(), img.Depth)
	fmt.Fprintf(&b, "compression=%s  quality=%d\n", compression, img.Quality)
	fmt.Fprintf(&b, "page=%dx%d%+d%+d  scene=%d\n", img.Page.Width, img.Page.Height, img.Page.X, img.Page.Y, img.Scene)
	fmt.Fprintf(&b, "delay=%d  iterations=%d  dispose=%s\n", img.Delay, img.Iterations, img.Dispose)
	fmt.Fprintf(&b, "gravity=%s  compose=%s\n", img.Gravity, img.Compose)
	fmt.Fprintf(&b, "background-color=%s  border-color=%s  matte-color=%s\n",
		ops.FormatColor(img.Background), ops.FormatColor(img.BorderColor), ops.FormatColor(img.MatteColor))
	fmt.Fprintf(&b, "fuzz=%s  gamma=%s\n", formatFloat(img.Fuzz), formatFloat(img.Gamma))
	if img.Density != "" {
		fmt.Fprintf(&b, "resolution=%s  units=%s\n", img.Density, orUndefined(img.Units))
	}
	keys := make([]string, 0, len(img.Properties))
	for k := range img.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "property:%s={%s}\n", k, escapeBraces(img.Properties[k]))
	}
	b.WriteString(miffTerminator)
	return b.Bytes()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func orUndefined(s string) string {
	if s == "" {
		return "Undefined"
	}
	return s
}

func escapeBraces(s string) string {
	return strings.NewReplacer(`\`, `\\`, `}`, `\}`).Replace(s)
}

// decodeMIFF reads every frame of a MIFF stream.
func decodeMIFF(r io.Reader, ping bool) ([]*imagelist.Image, error) {
	br := bufio.NewReader(r)
	var out []*imagelist.Image
	for {
		if _, err := br.Peek(1); errors.Is(err, io.EOF) {
			break
		}
		header, err := br.ReadString(miffTerminator[len(miffTerminator)-1])
		if err != nil {
			return nil, fmt.Errorf("truncated MIFF header: %w", err)
		}
		if !strings.HasSuffix(header, miffTerminator) {
			return nil, errors.New("improper MIFF header terminator")
		}
		fields, err := parseMIFFHeader(strings.TrimSuffix(header, miffTerminator))
		if err != nil {
			return nil, err
		}
		if fields["id"] != "ImageMagick" {
			return nil, errors.New("not a MIFF image")
		}
		img, err := miffImage(fields)
		if err != nil {
			return nil, err
		}
		cols, _ := strconv.Atoi(fields["columns"])
		rows, _ := strconv.Atoi(fields["rows"])
		size := int64(cols) * int64(rows) * 4
		if ping {
			if _, err := io.CopyN(io.Discard, br, size); err != nil {
				return nil, fmt.Errorf("truncated MIFF pixels: %w", err)
			}
			img.Pinged = true
			out = append(out, img)
			continue
		}
		pix := image.NewNRGBA(image.Rect(0, 0, cols, rows))
		if _, err := io.ReadFull(br, pix.Pix); err != nil {
			return nil, fmt.Errorf("truncated MIFF pixels: %w", err)
		}
		page := img.Page
		img.SetPixels(pix)
		img.Page = page
		out = append(out, img)
	}
	if len(out) == 0 {
		return nil, errors.New("empty MIFF stream")
	}
	return out, nil
}

func parseMIFFHeader(s string) (map[string]string, error) {
	fields := map[string]string{}
	i := 0
	for {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			return fields, nil
		}
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			return nil, fmt.Errorf("malformed MIFF header near %q", s[i:])
		}
		key := s[i : i+eq]
		i += eq + 1
		var val strings.Builder
		if i < len(s) && s[i] == '{' {
			i++
			for ; i < len(s) && s[i] != '}'; i++ {
				if s[i] == '\\' && i+1 < len(s) {
					i++
				}
				val.WriteByte(s[i])
			}
			if i >= len(s) {
				return nil, fmt.Errorf("unterminated value for %q", key)
			}
			i++
		} else {
			for ; i < len(s) && !isSpace(s[i]); i++ {
				val.WriteByte(s[i])
			}
		}
		fields[key] = val.String()
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func miffImage(fields map[string]string) (*imagelist.Image, error) {
	img := imagelist.New(nil)
	atoi := func(key string) int {
		v, _ := strconv.Atoi(fields[key])
		return v
	}
	img.Colorspace = fields["colorspace"]
	img.AlphaEnabled = fields["alpha-trait"] == "Blend"
	img.Depth = atoi("depth")
	img.Compression = fields["compression"]
	img.Quality = atoi("quality")
	img.Scene = atoi("scene")
	img.Delay = atoi("delay")
	img.Iterations = atoi("iterations")
	img.Dispose = fields["dispose"]
	img.Compose = fields["compose"]
	if g, ok := geometry.ParseGravity(fields["gravity"]); ok {
		img.Gravity = g
	}
	g, err := geometry.Parse(fields["page"])
	if err != nil {
		return nil, fmt.Errorf("invalid MIFF page: %w", err)
	}
	img.Page = imagelist.Page{Width: int(g.Width), Height: int(g.Height), X: int(g.X), Y: int(g.Y)}
	if img.Background, err = ops.ParseColor(fields["background-color"]); err != nil {
		return nil, err
	}
	if img.BorderColor, err = ops.ParseColor(fields["border-color"]); err != nil {
		return nil, err
	}
	if img.MatteColor, err = ops.ParseColor(fields["matte-color"]); err != nil {
		return nil, err
	}
	img.Fuzz, _ = strconv.ParseFloat(fields["fuzz"], 64)
	img.Gamma, _ = strconv.ParseFloat(fields["gamma"], 64)
	if v, ok := fields["resolution"]; ok {
		img.Density = v
		img.Units = fields["units"]
		if img.Units == "Undefined" {
			img.Units = ""
		}
	}
	for k, v := range fields {
		if name, ok := strings.CutPrefix(k, "property:"); ok {
			img.Properties[name] = v
		}
	}
	return img, nil
}
