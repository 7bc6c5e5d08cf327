// Package pipeline interprets a flat sequence of command-line options as
// image operations.
//
// A CLI owns the execution context (image defaults, draw and quantize
// attributes), the current image list and the two scope stacks. Each call
// to Option classifies one option through the registry and applies it as
// a setting, a no-image operator, a per-image operator or a list
// operator, in that order. Exceptions accumulate in one sink; a fatal one
// stops every later option.
package pipeline

import (
	"context"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/ironsheep/image-pipeline/internal/codec"
	"github.com/ironsheep/image-pipeline/internal/exception"
	"github.com/ironsheep/image-pipeline/internal/imagelist"
)

// MaxStackDepth bounds both scope stacks.
const MaxStackDepth = 32

// Options configures a CLI.
type Options struct {
	// Codec reads and writes images. Nil selects a codec on the process
	// streams and the process-wide registry.
	Codec *codec.Codec

	// Logger receives debug traces and exception reports.
	Logger *Logger

	// Stdout receives -print, -list and identify output.
	Stdout io.Writer

	// Stderr receives -monitor progress.
	Stderr io.Writer

	// NoInterpolate turns percent escapes off for options that do not
	// force them.
	NoInterpolate bool

	RespectParentheses bool
	RegardWarnings     bool
	Monitor            bool

	// MaxStackDepth overrides the scope nesting limit when positive.
	MaxStackDepth int

	// Defines are applied as -define key=value before the first option.
	Defines map[string]string

	// Limits are applied as -limit resource value.
	Limits map[string]string
}

// CLI is one pipeline run.
type CLI struct {
	ctx      context.Context
	arena    *imagelist.Arena
	list     *imagelist.List
	settings *Settings
	stacks   stacks
	sink     *exception.Sink
	codec    *codec.Codec
	log      *Logger
	stdout   io.Writer
	stderr   io.Writer
	rng      *rand.Rand
	progress ProgressFunc

	// monitoring records that progress is the -monitor printer.
	monitoring bool

	interpolate bool
	maxDepth    int

	// savedWarningHandler holds the handler replaced by -quiet.
	savedWarningHandler exception.Handler
	quiet               bool
}

// New returns a CLI with default settings and an empty image list.
func New(ctx context.Context, opts Options) *CLI {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &CLI{
		ctx:         ctx,
		arena:       imagelist.NewArena(),
		list:        imagelist.NewList(),
		settings:    NewSettings(),
		sink:        exception.NewSink(),
		codec:       opts.Codec,
		log:         opts.Logger,
		stdout:      opts.Stdout,
		stderr:      opts.Stderr,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		interpolate: !opts.NoInterpolate,
		maxDepth:    MaxStackDepth,
	}
	if c.codec == nil {
		c.codec = codec.New(nil)
	}
	if c.log == nil {
		c.log = NewLogger(os.Stderr)
	}
	if c.stdout == nil {
		c.stdout = os.Stdout
	}
	if c.stderr == nil {
		c.stderr = os.Stderr
	}
	if opts.MaxStackDepth > 0 {
		c.maxDepth = opts.MaxStackDepth
	}
	c.sink.SetHandler(c.report)
	info := &c.settings.Image
	info.RespectParentheses = opts.RespectParentheses
	info.RegardWarnings = opts.RegardWarnings
	for k, v := range opts.Defines {
		info.Options[k] = v
	}
	for k, v := range opts.Limits {
		info.Limits[k] = v
	}
	if opts.Monitor {
		c.setMonitor(true)
	}
	return c
}

// report is the default exception handler: every exception is logged.
func (c *CLI) report(e exception.Exception) {
	c.log.Printf("%s", e)
}

// Sink returns the exception sink.
func (c *CLI) Sink() *exception.Sink {
	return c.sink
}

// Settings returns the live execution context.
func (c *CLI) Settings() *Settings {
	return c.settings
}

// Arena returns the image arena.
func (c *CLI) Arena() *imagelist.Arena {
	return c.arena
}

// List returns the current image list.
func (c *CLI) List() *imagelist.List {
	return c.list
}

// Images resolves the current image list.
func (c *CLI) Images() []*imagelist.Image {
	return c.arena.Images(c.list)
}

// Depth returns the depth of the image list stack and the settings stack.
func (c *CLI) Depth() (images, settings int) {
	return len(c.stacks.images), len(c.stacks.settings)
}

// Close destroys every image still held, including those saved on the
// image list stack, and releases the settings snapshots.
func (c *CLI) Close() {
	c.arena.DestroyList(c.list)
	c.list = imagelist.NewList()
	for _, e := range c.stacks.images {
		c.arena.DestroyList(e.list)
	}
	c.stacks.images = nil
	for _, s := range c.stacks.settings {
		s.Release()
	}
	c.stacks.settings = nil
	c.settings.Release()
}

// ExitStatus is 1 when an error was recorded, or a warning under
// -regard-warnings, and 0 otherwise.
func (c *CLI) ExitStatus() int {
	switch sev := c.sink.Severity(); {
	case sev >= exception.Error:
		return 1
	case sev == exception.Warning && c.settings.Image.RegardWarnings:
		return 1
	}
	return 0
}
