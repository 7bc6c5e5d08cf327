package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/image-pipeline/internal/exception"
	"github.com/ironsheep/image-pipeline/internal/registry"
)

// ProcessFlags select the conveniences of ProcessCommandOptions.
type ProcessFlags uint8

const (
	// ProcessImplicitRead reads every argument that is not an option.
	ProcessImplicitRead ProcessFlags = 1 << iota

	// ProcessImplicitWrite writes the final list to the last argument.
	ProcessImplicitWrite
)

// ProcessCommandOptions runs args as a command line and returns the index
// of the first argument it did not consume.
//
// "-exit" stops processing and "-script file" hands the rest of the run
// to ProcessScriptFile. After "--" every argument is a filename.
func (c *CLI) ProcessCommandOptions(args []string, flags ProcessFlags) int {
	end := len(args)
	if flags&ProcessImplicitWrite != 0 {
		end--
	}
	var current int
	c.sink.SetLocator(func() string { return fmt.Sprintf("at CLI arg %d", current) })
	defer c.sink.SetLocator(nil)

	filenames := false
	i := 0
	for ; i < end; i++ {
		current = i
		arg := args[i]
		if !filenames && arg == "--" {
			filenames = true
			continue
		}
		opt, known := registry.Lookup(arg)
		if filenames || !registry.IsOption(arg) {
			if flags&ProcessImplicitRead == 0 {
				c.sink.Throw(exception.OptionFatalError, exception.UnrecognizedOption, arg, "")
				return i
			}
			c.Option("-read", arg, "")
			if c.sink.Fatal() {
				return i + 1
			}
			continue
		}
		if !known {
			c.sink.Throw(exception.OptionFatalError, exception.UnrecognizedOption, arg, "")
			return i + 1
		}

		arity := opt.ArityOf(registry.PolarityOf(arg))
		switch {
		case opt.Name == "exit":
			return i + 1
		case opt.Name == "script":
			if i+1 >= len(args) {
				c.sink.Throw(exception.OptionFatalError, exception.MissingArgument, arg, "")
				return len(args)
			}
			c.ProcessScriptFile(args[i+1])
			return len(args)
		case opt.Flags.Has(registry.Genesis):
			i += arity
			continue
		}

		if i+arity >= end {
			c.sink.Throw(exception.OptionFatalError, exception.MissingArgument, arg, "")
			return end
		}
		var arg1, arg2 string
		if arity >= 1 {
			arg1 = args[i+1]
		}
		if arity >= 2 {
			arg2 = args[i+2]
		}
		c.Option(arg, arg1, arg2)
		i += arity
		if c.sink.Fatal() {
			return i + 1
		}
	}

	if flags&ProcessImplicitWrite == 0 {
		return end
	}
	current = end
	if !c.CheckBalanced() {
		return len(args)
	}
	target := args[end]
	if target == "-exit" {
		return len(args)
	}
	if registry.IsOption(target) || target == " " {
		c.sink.Throw(exception.OptionError, exception.MissingOutputFilename, target, "")
		return len(args)
	}
	c.Option("-write", target, "")
	return len(args)
}

// ProcessScriptFile runs the script in the named file; "-" is standard
// input.
func (c *CLI) ProcessScriptFile(name string) {
	if name == "-" {
		c.ProcessScript(c.codec.Stdin, "stdin")
		return
	}
	f, err := os.Open(name)
	if err != nil {
		c.sink.Throwf(exception.OptionFatalError, exception.UnableToOpenFile, "-script", name, "%v", err)
		return
	}
	defer f.Close()
	c.ProcessScript(f, name)
}

// ProcessScript runs the options of a script read from r. Words that are
// not options are read as images. At the end both scope stacks must be
// empty.
func (c *CLI) ProcessScript(r io.Reader, name string) {
	t := NewTokenizer(r)
	var at Token
	c.sink.SetLocator(func() string {
		return fmt.Sprintf("in %q at line %d,column %d", name, at.Line, at.Column)
	})
	defer c.sink.SetLocator(nil)
	c.log.Debugf("processing script %q", name)

	for !c.sink.Fatal() {
		tok, err := t.Next()
		if err != nil {
			c.scriptEnd(err)
			return
		}
		at = tok
		option := tok.Text

		opt, known := registry.Lookup(option)
		if !registry.IsOption(option) {
			c.Option("-read", option, "")
			continue
		}
		if !known {
			c.sink.Throw(exception.OptionFatalError, exception.UnrecognizedOption, option, "")
			continue
		}
		args := make([]string, 0, 2)
		for len(args) < opt.ArityOf(registry.PolarityOf(option)) {
			a, err := t.Next()
			if errors.Is(err, io.EOF) {
				c.sink.Throw(exception.OptionFatalError, exception.MissingArgument, option, "")
				return
			}
			if err != nil {
				c.scriptEnd(err)
				return
			}
			args = append(args, a.Text)
		}
		args = append(args, "", "")

		switch {
		case opt.Name == "exit":
			c.log.Debugf("script %q exited", name)
			return
		case opt.Flags.Any(registry.Genesis | registry.Special):
			c.sink.Throw(exception.OptionError, exception.InvalidUseOfOption, option, args[0])
			continue
		}
		c.Option(option, args[0], args[1])
	}
}

// scriptEnd reports how the tokenizer stopped.
func (c *CLI) scriptEnd(err error) {
	var te *TokenError
	if errors.As(err, &te) {
		c.sink.Throwf(exception.OptionFatalError, te.Reason, "-script", "", "%v", te)
		return
	}
	if !errors.Is(err, io.EOF) {
		c.sink.Throwf(exception.OptionFatalError, exception.UnableToOpenFile, "-script", "", "%v", err)
		return
	}
	c.CheckBalanced()
}
