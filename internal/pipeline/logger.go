package pipeline

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger writes pipeline traces. Debug output is only produced once
// enabled, either from the environment or by the -debug setting.
type Logger struct {
	*log.Logger
	debug bool
}

// NewLogger returns a logger on w in the format used by the commands.
func NewLogger(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{Logger: log.New(w, "", log.Ldate|log.Ltime|log.Lshortfile)}
}

// SetDebug switches debug tracing.
func (l *Logger) SetDebug(on bool) {
	l.debug = on
}

// Debugging reports whether debug tracing is on.
func (l *Logger) Debugging() bool {
	return l.debug
}

// Debugf logs only when debugging.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.debug {
		l.Output(2, "[DEBUG] "+fmt.Sprintf(format, args...))
	}
}
