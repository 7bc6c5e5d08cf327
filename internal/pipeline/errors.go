package pipeline

import (
	"errors"
	"fmt"

	perrors "github.com/jmgilman/go/errors"

	"github.com/ironsheep/image-pipeline/internal/exception"
)

// opError is a handler failure that already knows how the sink should
// classify it.
type opError struct {
	kind   exception.Kind
	reason perrors.ErrorCode
	msg    string

	// severity overrides the severity of kind when set.
	severity exception.Severity
}

func (e *opError) Error() string {
	if e.msg == "" {
		return string(e.reason)
	}
	return e.msg
}

func fail(kind exception.Kind, reason perrors.ErrorCode, format string, args ...interface{}) error {
	return &opError{kind: kind, reason: reason, msg: fmt.Sprintf(format, args...)}
}

// failRead reports a decode failure. It ends the one read that hit it,
// whatever the kind's own severity.
func failRead(kind exception.Kind, reason perrors.ErrorCode, format string, args ...interface{}) error {
	return &opError{kind: kind, reason: reason, msg: fmt.Sprintf(format, args...), severity: exception.Error}
}

// invalidArg reports an argument that does not parse.
func invalidArg(arg string, err error) error {
	if err == nil {
		return fail(exception.OptionError, exception.InvalidArgument, "invalid argument %q", arg)
	}
	return fail(exception.OptionError, exception.InvalidArgument, "invalid argument %q: %v", arg, err)
}

// badKeyword reports an argument missing from an enumerated vocabulary.
func badKeyword(vocab, arg string) error {
	return fail(exception.OptionError, exception.UnrecognizedOptionValue, "unrecognized %s type %q", vocab, arg)
}

// record turns err into an exception on the sink. kind is used when err
// does not carry its own classification.
func (c *CLI) record(kind exception.Kind, err error, option, arg string) {
	var oe *opError
	if errors.As(err, &oe) {
		if oe.severity != exception.Undefined {
			c.sink.Add(exception.NewWithSeverity(oe.severity, oe.kind, oe.reason, option, arg, oe.msg))
			return
		}
		c.sink.Add(exception.New(oe.kind, oe.reason, option, arg, oe.msg))
		return
	}
	c.sink.Add(exception.FromError(kind, err, option, arg))
}
