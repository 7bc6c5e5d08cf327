package pipeline

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ProgressFunc is told after each unit of work of an option. Returning
// false asks the operator to stop early; operators treat it as advice.
type ProgressFunc func(option string, done, total int) bool

// terminalProgress prints "option: n of m, p% complete". On a terminal
// the line is rewritten in place; elsewhere each step gets its own line.
func terminalProgress(w io.Writer) ProgressFunc {
	tty := false
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		tty = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return func(option string, done, total int) bool {
		pct := 100
		if total > 0 {
			pct = done * 100 / total
		}
		if tty {
			fmt.Fprintf(w, "\r%s: %d of %d, %02d%% complete", option, done, total, pct)
			if done >= total {
				fmt.Fprintln(w)
			}
			return true
		}
		fmt.Fprintf(w, "%s: %d of %d, %02d%% complete\n", option, done, total, pct)
		return true
	}
}

func (c *CLI) setMonitor(on bool) {
	c.settings.Image.Monitor = on
	switch {
	case on && !c.monitoring:
		c.progress = terminalProgress(c.stderr)
	case !on && c.monitoring:
		c.progress = nil
	}
	c.monitoring = on
}

// SetProgress installs fn as the progress callback regardless of -monitor.
func (c *CLI) SetProgress(fn ProgressFunc) {
	c.progress = fn
	c.monitoring = false
}

func (c *CLI) tick(option string, done, total int) bool {
	if c.progress == nil {
		return true
	}
	return c.progress(option, done, total)
}
