// Package codec reads and writes image lists.
//
// File formats are handled by github.com/disintegration/imaging and the
// golang.org/x/image decoders; pseudo formats such as xc:, gradient: and
// label: generate images in memory. A process-wide Registry backs the
// cache: pseudo format and string registry entries.
package codec

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WEBP decoder

	"github.com/ironsheep/image-pipeline/internal/imagelist"
)

// Option keys understood by Decode and Encode.
const (
	OptSize             = "size"
	OptPage             = "page"
	OptDensity          = "density"
	OptUnits            = "units"
	OptQuality          = "quality"
	OptCompress         = "compress"
	OptBackground       = "background"
	OptFill             = "fill"
	OptUndercolor       = "undercolor"
	OptPointsize        = "pointsize"
	OptGravity          = "gravity"
	OptInterlineSpacing = "interline-spacing"
	OptInterwordSpacing = "interword-spacing"
	OptKerning          = "kerning"
	OptPing             = "ping"
	OptAdjoin           = "adjoin"
	OptFormat           = "format"
	OptExtract          = "extract"
	OptScene            = "scene"
	OptFilter           = "filter"
)

// Options is the opaque key/value map passed across the codec boundary.
type Options map[string]string

func (o Options) bool(key string) bool {
	v, ok := o[key]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func (o Options) int(key string, def int) int {
	if v, err := strconv.Atoi(o[key]); err == nil {
		return v
	}
	return def
}

func (o Options) float(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(o[key], 64); err == nil {
		return v
	}
	return def
}

// ErrNoDelegate reports a format that cannot be read or written.
var ErrNoDelegate = errors.New("no delegate for this image format")

// Format describes one supported format.
type Format struct {
	Name        string
	Description string
	Read        bool
	Write       bool
	Multi       bool
	Pseudo      bool

	encoding imaging.Format
	encode   func(c *Codec, w io.Writer, f *Format, imgs []*imagelist.Image, opts Options) error
}

var formats = map[string]*Format{}

func register(f *Format, aliases ...string) {
	formats[strings.ToUpper(f.Name)] = f
	for _, a := range aliases {
		formats[strings.ToUpper(a)] = f
	}
}

func init() {
	register(&Format{Name: "PNG", Description: "Portable Network Graphics", Read: true, Write: true, encoding: imaging.PNG, encode: encodeSingle})
	register(&Format{Name: "JPEG", Description: "Joint Photographic Experts Group JFIF", Read: true, Write: true, encoding: imaging.JPEG, encode: encodeSingle}, "JPG")
	register(&Format{Name: "GIF", Description: "CompuServe Graphics Interchange Format", Read: true, Write: true, Multi: true, encode: encodeGIF})
	register(&Format{Name: "BMP", Description: "Microsoft Windows bitmap", Read: true, Write: true, encoding: imaging.BMP, encode: encodeSingle})
	register(&Format{Name: "TIFF", Description: "Tagged Image File Format", Read: true, Write: true, encoding: imaging.TIFF, encode: encodeSingle}, "TIF")
	register(&Format{Name: "WEBP", Description: "WebP Image Format", Read: true})
	register(&Format{Name: "MIFF", Description: "Magick Image File Format", Read: true, Write: true, Multi: true, encode: encodeMIFF})
	for _, p := range pseudoFormats {
		register(&Format{Name: p.name, Description: p.description, Read: p.read != nil, Write: p.write != nil, Multi: p.write != nil, Pseudo: true})
	}
}

// Formats lists the supported formats sorted by name.
func Formats() []Format {
	seen := map[*Format]bool{}
	var out []Format
	for _, f := range formats {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupFormat returns the format registered under name or alias.
func LookupFormat(name string) (*Format, bool) {
	f, ok := formats[strings.ToUpper(name)]
	return f, ok
}

// Codec decodes and encodes image lists. Standard input and output are
// reached through the "-" filename.
type Codec struct {
	Stdin    io.Reader
	Stdout   io.Writer
	Registry *Registry
}

// New returns a codec on the process streams and the given registry. A
// nil registry selects the process-wide one.
func New(reg *Registry) *Codec {
	if reg == nil {
		reg = Default
	}
	return &Codec{Stdin: os.Stdin, Stdout: os.Stdout, Registry: reg}
}

// SplitMagick splits an explicit "fmt:" prefix from a filename. Single
// letter prefixes are left alone so drive letters survive.
func SplitMagick(spec string) (magick, name string) {
	i := strings.IndexByte(spec, ':')
	if i < 2 {
		return "", spec
	}
	prefix := spec[:i]
	if _, ok := formats[strings.ToUpper(prefix)]; !ok {
		return "", spec
	}
	return strings.ToUpper(prefix), spec[i+1:]
}

// magickFor picks a format from an explicit prefix, the extension or the
// format option, in that order.
func magickFor(magick, name string, opts Options) string {
	if magick != "" {
		return magick
	}
	ext := strings.TrimPrefix(strings.ToUpper(filepath.Ext(name)), ".")
	if f, ok := formats[ext]; ok && !f.Pseudo {
		return f.Name
	}
	if v := opts[OptFormat]; v != "" {
		if f, ok := formats[strings.ToUpper(v)]; ok {
			return f.Name
		}
	}
	return ""
}

// Decode reads the images named by spec. The spec may carry a format
// prefix ("png:-"), name a pseudo format ("xc:red") and end in a read
// modifier ("[0-2]", "[64x64]"). Glob patterns are expanded; a decode
// failure stops the expansion and returns the images read so far
// together with the error.
func (c *Codec) Decode(ctx context.Context, spec string, opts Options) ([]*imagelist.Image, error) {
	base, mod := splitModifier(spec)
	magick, name := SplitMagick(base)
	if p, ok := pseudoByName[magick]; ok {
		if p.read == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoDelegate, magick)
		}
		imgs, err := p.read(ctx, c, name, opts)
		if err != nil {
			return nil, err
		}
		for _, img := range imgs {
			img.Magick = magick
			img.Filename = spec
		}
		return applyModifier(imgs, mod)
	}

	paths := []string{name}
	if name != "-" && strings.ContainsAny(name, "*?[") {
		matches, err := filepath.Glob(name)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", name, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("unable to open image %q: %w", name, os.ErrNotExist)
		}
		sort.Strings(matches)
		paths = matches
	}

	var out []*imagelist.Image
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		imgs, err := c.decodeFile(path, magickFor(magick, path, opts), opts)
		if err != nil {
			return out, err
		}
		imgs, err = applyModifier(imgs, mod)
		if err != nil {
			return out, err
		}
		out = append(out, imgs...)
	}
	return out, nil
}

func (c *Codec) open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(c.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open image %q: %w", path, err)
	}
	return f, nil
}

func (c *Codec) decodeFile(path, magick string, opts Options) ([]*imagelist.Image, error) {
	r, err := c.open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var imgs []*imagelist.Image
	switch {
	case magick == "MIFF":
		imgs, err = decodeMIFF(r, opts.bool(OptPing))
	case magick == "GIF":
		imgs, err = decodeGIF(r, opts.bool(OptPing))
	case opts.bool(OptPing):
		var cfg image.Config
		cfg, magick, err = image.DecodeConfig(r)
		if err == nil {
			img := imagelist.New(nil)
			img.Page = imagelist.Page{Width: cfg.Width, Height: cfg.Height}
			img.Pinged = true
			imgs = []*imagelist.Image{img}
		}
	default:
		var src image.Image
		src, err = imaging.Decode(r, imaging.AutoOrientation(false))
		if err == nil {
			imgs = []*imagelist.Image{imagelist.FromImage(src)}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %q: %w", path, err)
	}
	if magick == "" {
		magick = strings.TrimPrefix(strings.ToUpper(filepath.Ext(path)), ".")
	}
	for i, img := range imgs {
		img.Filename = path
		img.Magick = strings.ToUpper(magick)
		if img.Magick == "JPG" {
			img.Magick = "JPEG"
		}
		if img.Scene == 0 {
			img.Scene = i
		}
		if q := opts.int(OptQuality, 0); q > 0 && img.Quality == 0 {
			img.Quality = q
		}
	}
	return imgs, nil
}

func decodeGIF(r io.Reader, ping bool) ([]*imagelist.Image, error) {
	if ping {
		cfg, err := gif.DecodeConfig(r)
		if err != nil {
			return nil, err
		}
		img := imagelist.New(nil)
		img.Page = imagelist.Page{Width: cfg.Width, Height: cfg.Height}
		img.Pinged = true
		return []*imagelist.Image{img}, nil
	}
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, err
	}
	imgs := make([]*imagelist.Image, 0, len(g.Image))
	for i, frame := range g.Image {
		img := imagelist.FromImage(frame)
		b := frame.Bounds()
		img.Page = imagelist.Page{Width: g.Config.Width, Height: g.Config.Height, X: b.Min.X, Y: b.Min.Y}
		img.AlphaEnabled = true
		if i < len(g.Delay) {
			img.Delay = g.Delay[i]
		}
		if i < len(g.Disposal) {
			img.Dispose = gifDispose(g.Disposal[i])
		}
		img.Iterations = g.LoopCount
		img.Scene = i
		imgs = append(imgs, img)
	}
	return imgs, nil
}

func gifDispose(d byte) string {
	switch d {
	case gif.DisposalNone:
		return "None"
	case gif.DisposalBackground:
		return "Background"
	case gif.DisposalPrevious:
		return "Previous"
	}
	return "Undefined"
}

// Encode writes images to target. A list longer than one is written as a
// single multi-frame file when the format allows it and adjoin is not
// disabled; otherwise each image goes to its own numbered file.
func (c *Codec) Encode(ctx context.Context, images []*imagelist.Image, target string, opts Options) error {
	magick, name := SplitMagick(target)
	if p, ok := pseudoByName[magick]; ok {
		if p.write == nil {
			return fmt.Errorf("%w: %s", ErrNoDelegate, magick)
		}
		return p.write(ctx, c, images, name, opts)
	}
	if len(images) == 0 {
		return fmt.Errorf("no images to write to %q", target)
	}
	magick = magickFor(magick, name, opts)
	if magick == "" {
		magick = images[0].Magick
	}
	f, ok := formats[magick]
	if !ok || f.encode == nil {
		return fmt.Errorf("%w: %q", ErrNoDelegate, target)
	}
	for _, img := range images {
		if img.Empty() {
			return fmt.Errorf("image %q has no pixels to write", img.Filename)
		}
	}

	adjoin := true
	if v, set := opts[OptAdjoin]; set {
		adjoin, _ = strconv.ParseBool(v)
	}
	if len(images) == 1 || (f.Multi && adjoin) {
		return c.writeFile(name, func(w io.Writer) error { return f.encode(c, w, f, images, opts) })
	}
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := sceneFilename(name, i)
		one := []*imagelist.Image{img}
		if err := c.writeFile(path, func(w io.Writer) error { return f.encode(c, w, f, one, opts) }); err != nil {
			return err
		}
	}
	return nil
}

// sceneFilename numbers the i-th output file: a printf verb in the name
// is expanded, otherwise "-i" goes before the extension.
func sceneFilename(name string, i int) string {
	if name == "-" {
		return name
	}
	if strings.Contains(name, "%") {
		return fmt.Sprintf(name, i)
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), i, ext)
}

func (c *Codec) writeFile(path string, fn func(w io.Writer) error) error {
	if path == "-" {
		return fn(c.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to open image %q: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image %q: %w", path, err)
	}
	return f.Close()
}

func encodeSingle(c *Codec, w io.Writer, f *Format, imgs []*imagelist.Image, opts Options) error {
	img := imgs[0]
	quality := img.Quality
	if q := opts.int(OptQuality, 0); q > 0 {
		quality = q
	}
	var encOpts []imaging.EncodeOption
	if quality > 0 {
		encOpts = append(encOpts, imaging.JPEGQuality(quality), imaging.PNGCompressionLevel(pngLevel(quality)))
	}
	return imaging.Encode(w, img.Pixels(), f.encoding, encOpts...)
}

// pngLevel maps a quality value to a zlib level the way the tens digit
// of -quality does for PNG.
func pngLevel(quality int) png.CompressionLevel {
	switch level := quality / 10; {
	case level == 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level >= 8:
		return png.BestCompression
	}
	return png.DefaultCompression
}
