package pipeline

import (
	"bytes"
	"context"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-pipeline/internal/codec"
	"github.com/ironsheep/image-pipeline/internal/exception"
	ops "github.com/ironsheep/image-pipeline/internal/imaging"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

// newTestCLI returns a CLI on a private registry whose stdout is captured.
func newTestCLI(t *testing.T, opts ...func(*Options)) (*CLI, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	cd := codec.New(codec.NewRegistry())
	cd.Stdin = strings.NewReader("")
	cd.Stdout = out
	o := Options{
		Codec:  cd,
		Logger: NewLogger(io.Discard),
		Stdout: out,
		Stderr: io.Discard,
	}
	for _, fn := range opts {
		fn(&o)
	}
	c := New(context.Background(), o)
	t.Cleanup(c.Close)
	return c, out
}

// run feeds args through the command processor with implicit reads.
func run(t *testing.T, c *CLI, args ...string) {
	t.Helper()
	c.ProcessCommandOptions(args, ProcessImplicitRead)
}

func widths(c *CLI) []int {
	var out []int
	for _, img := range c.Images() {
		out = append(out, img.Width())
	}
	return out
}

func TestOption_UnmatchedCloseParenthesis(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-size", "4x4", "xc:red")
	before := c.List().Handles()

	require.False(t, c.Option(")", "", ""))
	require.True(t, c.Sink().Has(exception.UnbalancedParenthesis))
	require.True(t, c.Sink().Fatal())
	require.Equal(t, before, c.List().Handles())
	require.Equal(t, red, c.Images()[0].Pixels().NRGBAAt(0, 0))
}

func TestOption_BalancedScopes(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "xc:red", "(", "xc:blue", "{", "-pointsize", "30", "}", ")")

	images, settings := c.Depth()
	require.Zero(t, images)
	require.Zero(t, settings)
	require.True(t, c.CheckBalanced())
	require.Len(t, c.Images(), 2)
	require.Equal(t, blue, c.Images()[1].Pixels().NRGBAAt(0, 0))
	require.Equal(t, NewSettings().Draw.Pointsize, c.Settings().Draw.Pointsize)
}

func TestOption_OpenScopesAreUnbalanced(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "{", "xc:red")
	require.False(t, c.CheckBalanced())
	require.True(t, c.Sink().Has(exception.UnbalancedCurlyBraces))
	require.False(t, c.Sink().Has(exception.UnbalancedParenthesis))
}

func TestOption_NestingLimit(t *testing.T) {
	c, _ := newTestCLI(t, func(o *Options) { o.MaxStackDepth = 2 })
	require.True(t, c.Option("(", "", ""))
	require.True(t, c.Option("(", "", ""))
	require.False(t, c.Option("(", "", ""))
	require.True(t, c.Sink().Has(exception.ParenthesisNestedTooDeeply))
}

func TestOption_RespectParenthesesScopesRestoreOnClose(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-respect-parentheses", "(", ")")
	require.True(t, c.CheckBalanced())
}

func TestOption_ClassificationFailures(t *testing.T) {
	tests := []struct {
		option string
		arg    string
		reason string
	}{
		{"-nosuch", "", string(exception.UnrecognizedOption)},
		{"-average", "", string(exception.DeprecatedOptionNoCode)},
		{"-bench", "3", string(exception.InvalidUseOfOption)},
		{"-blur", "2", string(exception.NoImagesFound)},
	}
	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			c, _ := newTestCLI(t)
			require.False(t, c.Option(tt.option, tt.arg, ""))
			last, ok := c.Sink().Last()
			require.True(t, ok)
			require.Equal(t, tt.reason, string(last.Reason()))
			require.True(t, c.Sink().Fatal())

			// a fatal exception stops every later option
			require.False(t, c.Option("-read", "xc:red", ""))
			require.True(t, c.List().Empty())
		})
	}
}

func TestOption_SettingOperatorWithoutImages(t *testing.T) {
	c, _ := newTestCLI(t)
	require.True(t, c.Option("-colorspace", "gray", ""))
	require.Equal(t, "Gray", c.Settings().Image.Colorspace)
	require.False(t, c.Sink().Fatal())
}

func TestOption_ExtraArgumentsIgnored(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-size", "3x2", "xc:red")
	require.True(t, c.Option("-flip", "junk", "more"))
	require.Equal(t, []int{3}, widths(c))
}

func TestSetting_PointsizePersistsAcrossRead(t *testing.T) {
	c, _ := newTestCLI(t)
	require.True(t, c.Option("-pointsize", "24", ""))
	require.True(t, c.Option("-read", "xc:red", ""))
	require.Equal(t, 24.0, c.Settings().Draw.Pointsize)
	require.Len(t, c.Images(), 1)
}

func TestSetting_InvalidValueLeavesContext(t *testing.T) {
	c, _ := newTestCLI(t)
	require.False(t, c.Option("-gravity", "sideways", ""))
	require.True(t, c.Sink().Has(exception.UnrecognizedOptionValue))
	require.False(t, c.Sink().Fatal())
	_, stored := c.Settings().Image.Options["gravity"]
	require.False(t, stored)
}

func TestSetting_FillScopedByParentheses(t *testing.T) {
	tests := []struct {
		name    string
		respect bool
		want    color.NRGBA
	}{
		{"respected", true, red},
		{"ignored", false, blue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCLI(t)
			args := []string{"-fill", "red", "(", "-fill", "blue", ")"}
			if tt.respect {
				args = append([]string{"-respect-parentheses"}, args...)
			}
			run(t, c, args...)
			require.Equal(t, tt.want, c.Settings().Draw.Fill)
			require.True(t, c.CheckBalanced())
		})
	}
}

func TestSetting_PlusFillTwice(t *testing.T) {
	c, _ := newTestCLI(t)
	require.True(t, c.Option("-fill", "pattern:checkerboard", ""))
	require.True(t, c.Settings().Draw.FillPatternActive)
	require.NotNil(t, c.Settings().Draw.FillPattern)

	for i := 0; i < 2; i++ {
		require.True(t, c.Option("+fill", "", ""))
		d := c.Settings().Draw
		require.False(t, d.FillPatternActive)
		require.Nil(t, d.FillPattern)
		require.Equal(t, defaultFill, d.Fill)
	}
	require.Empty(t, c.Sink().Errors())
}

func TestSetting_PlusRemovesOption(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "xc:red", "-background", "blue", "+background", "-flip")

	_, stored := c.Settings().Image.Options["background"]
	require.False(t, stored)
	require.Equal(t, white, c.Settings().Image.Background)
	// the image keeps what it was last synchronised to
	require.Equal(t, blue, c.Images()[0].Background)
}

func TestSetting_SyncedBeforeEachOption(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "xc:red", "xc:blue", "-delay", "20", "-gravity", "center", "-flip")
	for _, img := range c.Images() {
		require.Equal(t, 20, img.Delay)
	}
}

func TestSetting_QuietDropsWarnings(t *testing.T) {
	var seen []exception.Exception
	c, _ := newTestCLI(t)
	c.Sink().SetHandler(func(e exception.Exception) { seen = append(seen, e) })

	run(t, c, "-quiet", "xc:red", "-font", "%[")
	require.Empty(t, seen)
	require.Len(t, c.Sink().Warnings(), 1)

	run(t, c, "+quiet", "-font", "%[")
	require.Len(t, seen, 1)
}

func TestInterpolation(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-size", "10x20", "xc:red", "-density", "%w")
	require.Equal(t, "10", c.Settings().Image.Options["density"])

	require.True(t, c.Option("-font", "%[", ""))
	require.True(t, c.Sink().Has(exception.InterpretPropertyFailure))
	require.Equal(t, "%[", c.Settings().Image.Options["font"])

	// a percent that belongs to the geometry is left alone
	require.True(t, c.Option("-resize", "50%", ""))
	require.Equal(t, []int{5}, widths(c))
	require.Equal(t, 10, c.Images()[0].Height())
}

func TestInterpolation_Disabled(t *testing.T) {
	c, _ := newTestCLI(t, func(o *Options) { o.NoInterpolate = true })
	run(t, c, "-size", "10x20", "xc:red", "-font", "%w")
	require.Equal(t, "%w", c.Settings().Image.Options["font"])
}

func TestSimpleOperator_CropDifferentSizes(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-size", "10x10", "xc:red", "-size", "20x30", "xc:blue", "-crop", "5x5+0+0")
	for _, img := range c.Images() {
		require.Equal(t, 5, img.Width())
		require.Equal(t, 5, img.Height())
	}
	require.Equal(t, red, c.Images()[0].Pixels().NRGBAAt(0, 0))
	require.Equal(t, blue, c.Images()[1].Pixels().NRGBAAt(4, 4))
}

func TestSimpleOperator_FailingImageLeavesOthers(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-size", "30x30", "xc:red", "-size", "10x10", "xc:blue", "-size", "30x30", "xc:red", "-crop", "5x5+20+20")

	require.Equal(t, []int{5, 10, 5}, widths(c))
	require.Equal(t, 10, c.Images()[1].Height())
	require.Equal(t, blue, c.Images()[1].Pixels().NRGBAAt(9, 9))

	warnings := c.Sink().Warnings()
	require.Len(t, warnings, 1)
	require.Equal(t, exception.GeometryDoesNotContainImage, warnings[0].Reason())
	require.Equal(t, "-crop", warnings[0].Option)
	require.False(t, c.Sink().Fatal())
}

func TestSimpleOperator_CropTiles(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-size", "4x2", "xc:red", "-crop", "2x2")
	require.Equal(t, []int{2, 2}, widths(c))
}

func TestSimpleOperator_BadArgumentKeepsImages(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-size", "3x3", "xc:red")
	before := c.List().Handles()

	require.False(t, c.Option("-blur", "bogus", ""))
	require.True(t, c.Sink().Has(exception.InvalidArgument))
	require.False(t, c.Sink().Fatal())
	require.Equal(t, before, c.List().Handles())
}

func TestSimpleOperator_CopyOnWrite(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "-size", "2x2", "xc:red", "(", "+clone", ")", "-alpha", "transparent")
	imgs := c.Images()
	require.Len(t, imgs, 2)
	require.Zero(t, imgs[0].Pixels().NRGBAAt(0, 0).A)
	require.Zero(t, imgs[1].Pixels().NRGBAAt(0, 0).A)

	run(t, c, "(", "-size", "2x2", "xc:red", "+clone", "-delete", "1", ")")
	require.Len(t, c.Images(), 3)
	require.Equal(t, red, c.Images()[2].Pixels().NRGBAAt(1, 1))
}

func TestSimpleOperator_Progress(t *testing.T) {
	c, _ := newTestCLI(t)
	var calls []string
	c.SetProgress(func(option string, done, total int) bool {
		calls = append(calls, option)
		return done < 2
	})
	run(t, c, "xc:red", "xc:blue", "xc:red", "-negate")
	// stopping after the second image leaves the third untouched
	require.Equal(t, []string{"-negate", "-negate"}, calls)
	require.Equal(t, color.NRGBA{G: 255, B: 255, A: 255}, c.Images()[0].Pixels().NRGBAAt(0, 0))
	require.Equal(t, red, c.Images()[2].Pixels().NRGBAAt(0, 0))
}

func TestRoundTrip_AppendWriteTwice(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "out.miff")
	second := filepath.Join(dir, "out2.miff")

	c, _ := newTestCLI(t)
	run(t, c, "-size", "100x100", "xc:red", "(", "rose:", "-rotate", "-90", ")", "+append",
		"-write", first, "-write", second)
	require.Empty(t, c.Sink().Errors())

	imgs := c.Images()
	require.Len(t, imgs, 1)
	got := imgs[0].Pixels()
	rose := ops.Rotate(ops.Rose(), -90, white)
	require.Equal(t, 100+rose.Bounds().Dx(), got.Bounds().Dx())
	require.Equal(t, 100, got.Bounds().Dy())
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			require.Equal(t, red, got.NRGBAAt(x, y))
		}
	}
	for y := 0; y < rose.Bounds().Dy(); y++ {
		for x := 0; x < rose.Bounds().Dx(); x++ {
			require.Equal(t, rose.NRGBAAt(x, y), got.NRGBAAt(100+x, y))
		}
	}

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("second write differs (-first +second):\n%s", diff)
	}
}

func TestExitStatus(t *testing.T) {
	c, _ := newTestCLI(t)
	run(t, c, "xc:red", "-font", "%[")
	require.Zero(t, c.ExitStatus())

	c, _ = newTestCLI(t, func(o *Options) { o.RegardWarnings = true })
	run(t, c, "xc:red", "-font", "%[")
	require.Equal(t, 1, c.ExitStatus())
}
