package pipeline

import (
	"image/color"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-pipeline/internal/exception"
)

// sized reads one red canvas per width, each one pixel high.
func sized(t *testing.T, c *CLI, ws ...int) {
	t.Helper()
	for _, w := range ws {
		require.True(t, c.Option("-size", strconv.Itoa(w)+"x1", ""))
		require.True(t, c.Option("-read", "xc:red", ""))
	}
}

func TestListOperator_SequenceEditing(t *testing.T) {
	c, _ := newTestCLI(t)
	sized(t, c, 1, 2, 3)

	steps := []struct {
		option string
		arg    string
		want   []int
	}{
		{"+duplicate", "", []int{1, 2, 3, 3}},
		{"-delete", "0", []int{2, 3, 3}},
		{"-reverse", "", []int{3, 3, 2}},
		{"-reverse", "", []int{2, 3, 3}},
	}
	for _, s := range steps {
		require.True(t, c.Option(s.option, s.arg, ""), s.option)
		require.Equal(t, s.want, widths(c), s.option)
	}

	sized(t, c, 4)
	require.Equal(t, []int{2, 3, 3, 4}, widths(c))

	more := []struct {
		option string
		arg    string
		want   []int
	}{
		{"+insert", "", []int{4, 2, 3, 3}},
		{"-delete", "1-2", []int{4, 3}},
		{"-duplicate", "2,0", []int{4, 3, 4, 4}},
		{"-insert", "1", []int{4, 4, 3, 4}},
		{"+delete", "", []int{4, 4, 3}},
	}
	for _, s := range more {
		require.True(t, c.Option(s.option, s.arg, ""), s.option)
		require.Equal(t, s.want, widths(c), s.option)
	}
	require.Equal(t, 3, c.Arena().Len())
}

func TestListOperator_Swap(t *testing.T) {
	tests := []struct {
		name   string
		option string
		arg    string
		want   []int
		reason string
	}{
		{name: "last two", option: "+swap", want: []int{1, 3, 2}},
		{name: "pair", option: "-swap", arg: "0,1", want: []int{2, 1, 3}},
		{name: "with last", option: "-swap", arg: "0", want: []int{3, 2, 1}},
		{name: "negative", option: "-swap", arg: "-3,-1", want: []int{3, 2, 1}},
		{name: "out of range", option: "-swap", arg: "5", want: []int{1, 2, 3}, reason: string(exception.InvalidImageIndex)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCLI(t)
			sized(t, c, 1, 2, 3)
			ok := c.Option(tt.option, tt.arg, "")
			require.Equal(t, tt.reason == "", ok)
			require.Equal(t, tt.want, widths(c))
			if tt.reason != "" {
				last, _ := c.Sink().Last()
				require.Equal(t, tt.reason, string(last.Reason()))
				require.False(t, c.Sink().Fatal())
			}
		})
	}

	t.Run("single image", func(t *testing.T) {
		c, _ := newTestCLI(t)
		sized(t, c, 1)
		require.False(t, c.Option("+swap", "", ""))
		require.True(t, c.Sink().Has(exception.TwoOrMoreImagesRequired))
		require.Equal(t, []int{1}, widths(c))
	})
}

func TestListOperator_FailureLeavesList(t *testing.T) {
	c, _ := newTestCLI(t)
	sized(t, c, 3)
	before := c.List().Handles()
	arena := c.Arena().Len()

	require.False(t, c.Option("-compare", "", ""))
	require.True(t, c.Sink().Has(exception.TwoOrMoreImagesRequired))
	require.Equal(t, before, c.List().Handles())
	require.Equal(t, arena, c.Arena().Len())

	require.False(t, c.Option("-delete", "7", ""))
	require.True(t, c.Sink().Has(exception.InvalidImageIndex))
	require.Equal(t, before, c.List().Handles())
}

func TestListOperator_Append(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-size", "2x2", "xc:red", "-size", "3x1", "xc:blue")

	require.True(t, c.Option("-append", "", ""))
	imgs := c.Images()
	require.Len(t, imgs, 1)
	require.Equal(t, 3, imgs[0].Width())
	require.Equal(t, 3, imgs[0].Height())
	require.Equal(t, red, imgs[0].Pixels().NRGBAAt(0, 0))
	require.Equal(t, blue, imgs[0].Pixels().NRGBAAt(2, 2))
	require.Equal(t, 1, c.Arena().Len())
}

func TestListOperator_Compare(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-size", "2x2", "xc:red", "xc:red", "-metric", "AE", "-compare")
	imgs := c.Images()
	require.Len(t, imgs, 1)
	require.Equal(t, "0", imgs[0].Properties["distortion"])
}

func TestLayers(t *testing.T) {
	t.Run("flatten", func(t *testing.T) {
		c, _ := newTestCLI(t)
		run(t, c, "-size", "4x4", "xc:red", "(", "-size", "2x2", "xc:blue", "-repage", "+2+2", ")", "-flatten")
		imgs := c.Images()
		require.Len(t, imgs, 1)
		pix := imgs[0].Pixels()
		require.Equal(t, 4, pix.Bounds().Dx())
		require.Equal(t, red, pix.NRGBAAt(0, 0))
		require.Equal(t, blue, pix.NRGBAAt(3, 3))
		require.Equal(t, red, pix.NRGBAAt(1, 3))
	})

	t.Run("trim bounds", func(t *testing.T) {
		c, _ := newTestCLI(t)
		run(t, c, "-size", "2x2", "xc:red", "-repage", "+5+5",
			"(", "-size", "2x2", "xc:blue", "-repage", "+8+6", ")", "-layers", "TrimBounds")
		imgs := c.Images()
		require.Len(t, imgs, 2)
		require.Equal(t, 0, imgs[0].Page.X)
		require.Equal(t, 0, imgs[0].Page.Y)
		require.Equal(t, 3, imgs[1].Page.X)
		require.Equal(t, 1, imgs[1].Page.Y)
		require.Equal(t, 5, imgs[0].Page.Width)
		require.Equal(t, 3, imgs[1].Page.Height)
	})

	t.Run("remove zero", func(t *testing.T) {
		c, _ := newTestCLI(t)
		run(t, c, "xc:red", "(", "xc:blue", "-set", "delay", "5", ")", "-layers", "RemoveZero")
		imgs := c.Images()
		require.Len(t, imgs, 1)
		require.Equal(t, blue, imgs[0].Pixels().NRGBAAt(0, 0))
	})

	t.Run("remove zero keeps all-zero list", func(t *testing.T) {
		c, _ := newTestCLI(t)
		run(t, c, "xc:red", "xc:blue", "-layers", "RemoveZero")
		require.Len(t, c.Images(), 2)
		require.True(t, c.Sink().Has(exception.OperationFailed))
		require.Empty(t, c.Sink().Errors())
	})

	t.Run("remove dups", func(t *testing.T) {
		c, _ := newTestCLI(t)
		run(t, c, "xc:red", "xc:red", "xc:blue", "-layers", "RemoveDups")
		require.Len(t, c.Images(), 2)
	})

	t.Run("composite", func(t *testing.T) {
		c, _ := newTestCLI(t)
		run(t, c, "-size", "3x3", "xc:red", "null:", "(", "-size", "1x1", "xc:blue", "-repage", "+1+1", ")", "-layers", "Composite")
		imgs := c.Images()
		require.Len(t, imgs, 1)
		pix := imgs[0].Pixels()
		require.Equal(t, red, pix.NRGBAAt(0, 0))
		require.Equal(t, blue, pix.NRGBAAt(1, 1))
	})

	t.Run("composite without separator", func(t *testing.T) {
		c, _ := newTestCLI(t)
		run(t, c, "xc:red", "xc:blue", "-layers", "Composite")
		require.True(t, c.Sink().Has(exception.MissingNullSeparator))
		require.Len(t, c.Images(), 2)
	})

	t.Run("unknown method", func(t *testing.T) {
		c, _ := newTestCLI(t)
		run(t, c, "xc:red", "-layers", "sideways")
		require.True(t, c.Sink().Has(exception.UnrecognizedOptionValue))
	})
}

func TestProcess_Analyze(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-size", "2x2", "xc:red", "-process", "analyze")
	require.Empty(t, c.Sink().Errors())
	props := c.Images()[0].Properties
	require.Equal(t, "127.5", props["filter:brightness:mean"])
	require.Equal(t, "255", props["filter:saturation:mean"])
	require.Equal(t, "0", props["filter:brightness:standard-deviation"])

	require.False(t, c.Option("-process", "nosuch", ""))
	require.True(t, c.Sink().Has(exception.NoSuchFilter))
}

func TestSplitProcess(t *testing.T) {
	tests := []struct {
		in, name, args string
	}{
		{"analyze", "analyze", ""},
		{" analyze  -x 1 ", "analyze", "-x 1"},
		{"analyze=a=b", "analyze", "a=b"},
	}
	for _, tt := range tests {
		name, args := splitProcess(tt.in)
		require.Equal(t, tt.name, name)
		require.Equal(t, tt.args, args)
	}
}

func TestParseIndexList(t *testing.T) {
	tests := []struct {
		arg     string
		want    []int
		wantErr bool
	}{
		{arg: "0", want: []int{0}},
		{arg: "-1", want: []int{4}},
		{arg: "1-3", want: []int{1, 2, 3}},
		{arg: "3-1", want: []int{3, 2, 1}},
		{arg: "0,-2", want: []int{0, 3}},
		{arg: "5", wantErr: true},
		{arg: "x", wantErr: true},
		{arg: ",", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseIndexList(tt.arg, 5)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestListOperator_Coalesce(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-size", "3x3", "xc:red", "(", "-size", "1x1", "xc:blue", "-repage", "3x3+2+2", ")", "-coalesce")
	imgs := c.Images()
	require.Len(t, imgs, 2)
	second := imgs[1].Pixels()
	require.Equal(t, 3, second.Bounds().Dx())
	require.Equal(t, red, second.NRGBAAt(0, 0))
	require.Equal(t, blue, second.NRGBAAt(2, 2))
	require.Equal(t, color.NRGBA{R: 255, A: 255}, imgs[0].Pixels().NRGBAAt(1, 1))
}
