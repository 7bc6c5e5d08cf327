package pipeline

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-pipeline/internal/codec"
	"github.com/ironsheep/image-pipeline/internal/exception"
)

func TestSetAndPrint(t *testing.T) {
	c, out := newTestCLI(t)
	run(t, c, "-size", "4x2", "xc:red", "-set", "label", "%wx%h", "-print", `%[label] %n\n`)
	require.Equal(t, "4x2 1\n", out.String())
	require.Equal(t, "4x2", c.Images()[0].Properties["label"])

	run(t, c, "+set", "label", "")
	_, ok := c.Images()[0].Properties["label"]
	require.False(t, ok)
}

func TestSet_PrefixedKeys(t *testing.T) {
	c, out := newTestCLI(t)
	run(t, c, "-size", "3x1", "xc:red",
		"-set", "option:tag", "w%w",
		"-set", "registry:shared", "%h",
		"-print", "%[option:tag] %[artifact:tag] %[registry:shared]")
	require.Equal(t, "w%w w3 1", out.String())

	v, ok := c.codec.Registry.Get("shared")
	require.True(t, ok)
	require.Equal(t, "1", v)

	run(t, c, "+set", "registry:shared", "", "+set", "option:tag", "")
	_, ok = c.codec.Registry.Get("shared")
	require.False(t, ok)
	_, ok = c.Images()[0].Artifacts["tag"]
	require.False(t, ok)
}

func TestSet_Attributes(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "xc:red", "-set", "delay", "7", "-set", "dispose", "background", "-set", "page", "10x10+2+3")
	require.Empty(t, c.Sink().Errors())
	img := c.Images()[0]
	require.Equal(t, 7, img.Delay)
	require.Equal(t, "Background", img.Dispose)
	require.Equal(t, 2, img.Page.X)
	require.Equal(t, 3, img.Page.Y)
	require.Equal(t, 10, img.Page.Width)

	require.False(t, c.Option("-set", "delay", "soon"))
	require.True(t, c.Sink().Has(exception.InvalidArgument))
}

func TestPrint_WithoutImages(t *testing.T) {
	c, out := newTestCLI(t)
	require.True(t, c.Option("-print", "plain %w", ""))
	require.Equal(t, "plain %w", out.String())
}

func TestClone(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "xc:red")
	require.False(t, c.Option("-clone", "0", ""))
	require.True(t, c.Sink().Has(exception.UnableToCloneImage))
	require.False(t, c.Sink().Fatal())

	run(t, c, "xc:blue", "(", "-clone", "0", "+clone", ")")
	imgs := c.Images()
	require.Len(t, imgs, 4)
	require.Equal(t, red, imgs[2].Pixels().NRGBAAt(0, 0))
	require.Equal(t, blue, imgs[3].Pixels().NRGBAAt(0, 0))
	// clones share pixels until one of them is written
	require.Same(t, imgs[0].Blob(), imgs[2].Blob())

	require.True(t, c.Option("(", "", ""))
	require.False(t, c.Option("-clone", "9", ""))
	require.True(t, c.Sink().Has(exception.InvalidImageIndex))
}

func TestWrite(t *testing.T) {
	t.Run("null without images", func(t *testing.T) {
		c, _ := newTestCLI(t)
		require.True(t, c.Option("-write", "null:", ""))
		require.Empty(t, c.Sink().Entries())
	})

	t.Run("file without images", func(t *testing.T) {
		c, _ := newTestCLI(t)
		require.False(t, c.Option("-write", filepath.Join(t.TempDir(), "x.miff"), ""))
		require.True(t, c.Sink().Has(exception.NoImagesDefined))
	})

	t.Run("plus write keeps the list", func(t *testing.T) {
		c, _ := newTestCLI(t)
		run(t, c, "xc:red")
		before := c.List().Handles()
		require.True(t, c.Option("+write", filepath.Join(t.TempDir(), "x.miff"), ""))
		require.Equal(t, before, c.List().Handles())
		require.Equal(t, 1, c.Arena().Len())
	})

	t.Run("round trip", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), "pair.miff")
		c, _ := newTestCLI(t)
		run(t, c, "-size", "3x2", "xc:red", "xc:blue", "-write", name)

		d, _ := newTestCLI(t)
		run(t, d, name)
		require.Empty(t, d.Sink().Errors())
		require.Equal(t, []int{3, 3}, widths(d))
		require.Equal(t, blue, d.Images()[1].Pixels().NRGBAAt(2, 1))
	})

	t.Run("prefixed write evicts the cached file", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), "tile.png")
		c, _ := newTestCLI(t)
		run(t, c, "-size", "2x2", "xc:red", "-write", name, "-fill", name)
		require.Empty(t, c.Sink().Entries())
		_, ok := c.codec.Registry.Images(codec.CacheKey(name))
		require.True(t, ok)

		run(t, c, "-write", "png:"+name)
		_, ok = c.codec.Registry.Images(codec.CacheKey(name))
		require.False(t, ok)
	})
}

func TestRead(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		c, _ := newTestCLI(t)
		require.False(t, c.Option("-read", filepath.Join(t.TempDir(), "absent.miff"), ""))
		require.NotEmpty(t, c.Sink().Errors())
		require.False(t, c.Sink().Fatal())
	})

	t.Run("no decode delegate ends only that read", func(t *testing.T) {
		c, _ := newTestCLI(t)
		run(t, c, "-size", "1x1", "xc:red", "info:", "xc:blue", "-flip")
		require.True(t, c.Sink().Has(exception.NoDecodeDelegate))
		require.False(t, c.Sink().Fatal())
		require.Len(t, c.Images(), 2)

		e, ok := c.Sink().Last()
		require.True(t, ok)
		require.Equal(t, exception.CoderError, e.Kind)
		require.Equal(t, exception.Error, e.Severity)
	})

	t.Run("list length limit", func(t *testing.T) {
		c, _ := newTestCLI(t)
		run(t, c, "-limit", "list-length", "1", "xc:red")
		require.Len(t, c.Images(), 1)
		require.False(t, c.Option("-read", "xc:blue", ""))
		require.True(t, c.Sink().Has(exception.ListLengthExceedsLimit))
		require.Len(t, c.Images(), 1)
		require.Equal(t, 1, c.Arena().Len())
	})

	t.Run("label option", func(t *testing.T) {
		c, _ := newTestCLI(t)
		run(t, c, "-label", "first", "xc:red")
		require.Equal(t, "first", c.Images()[0].Properties["label"])
	})
}

func TestListCategory(t *testing.T) {
	tests := []struct {
		category string
		contains []string
		wantErr  bool
	}{
		{category: "gravity", contains: []string{"Center", "NorthWest"}},
		{category: "Format", contains: []string{"MIFF", "rw+"}},
		{category: "list", contains: []string{"color", "gravity", "option"}},
		{category: "option", contains: []string{"resize", "1/+0"}},
		{category: "color", contains: []string{"red"}},
		{category: "compose", contains: []string{"Over"}},
		{category: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			var b bytes.Buffer
			err := ListCategory(&b, tt.category)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.contains {
				require.Contains(t, b.String(), want)
			}
		})
	}
}

func TestListOption(t *testing.T) {
	c, out := newTestCLI(t)
	require.True(t, c.Option("-list", "dispose", ""))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Contains(t, lines, "Background")

	require.False(t, c.Option("-list", "bogus", ""))
	require.True(t, c.Sink().Has(exception.UnrecognizedOptionValue))
}
