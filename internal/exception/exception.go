// Package exception implements the single exception sink shared by every
// stage of the operation pipeline.
//
// Each recorded exception is a structured error from
// github.com/jmgilman/go/errors. The error code carries the reason tag
// (for example "UnbalancedParenthesis") and the context map carries the
// option, its argument, the exception kind and its severity. The sink
// decides nothing on its own; the pipeline driver reads the highest
// severity after each option to choose between continuing and aborting.
package exception

import (
	stderrors "errors"
	"fmt"
	"strings"

	perrors "github.com/jmgilman/go/errors"
)

// Severity orders exceptions from recoverable to pipeline-aborting.
type Severity int

const (
	// Undefined is the severity of an empty sink.
	Undefined Severity = iota
	// Warning is logged and processing continues with a fallback value.
	Warning
	// Error aborts the current option (or image) only.
	Error
	// Fatal aborts the remaining pipeline.
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "undefined"
	}
}

// Kind is the exception family reported alongside the reason.
type Kind string

const (
	OptionWarning           Kind = "OptionWarning"
	OptionError             Kind = "OptionError"
	OptionFatalError        Kind = "OptionFatalError"
	ResourceLimitError      Kind = "ResourceLimitError"
	ResourceLimitFatalError Kind = "ResourceLimitFatalError"
	CorruptImageError       Kind = "CorruptImageError"
	CoderError              Kind = "CoderError"
	ImageError              Kind = "ImageError"
)

// severityOf maps each kind to the severity it carries unless a caller
// overrides it.
var severityOf = map[Kind]Severity{
	OptionWarning:           Warning,
	OptionError:             Error,
	OptionFatalError:        Fatal,
	ResourceLimitError:      Fatal,
	ResourceLimitFatalError: Fatal,
	CorruptImageError:       Fatal,
	CoderError:              Fatal,
	ImageError:              Error,
}

// Reason tags. They double as the error code of the recorded PlatformError.
const (
	UnrecognizedOption          perrors.ErrorCode = "UnrecognizedOption"
	DeprecatedOptionNoCode      perrors.ErrorCode = "DeprecatedOptionNoCode"
	InvalidUseOfOption          perrors.ErrorCode = "InvalidUseOfOption"
	MissingArgument             perrors.ErrorCode = "MissingArgument"
	InvalidArgument             perrors.ErrorCode = "InvalidArgument"
	UnrecognizedOptionValue     perrors.ErrorCode = "UnrecognizedOptionValue"
	InterpretPropertyFailure    perrors.ErrorCode = "InterpretPropertyFailure"
	UnbalancedParenthesis       perrors.ErrorCode = "UnbalancedParenthesis"
	UnbalancedCurlyBraces       perrors.ErrorCode = "UnbalancedCurlyBraces"
	ParenthesisNestedTooDeeply  perrors.ErrorCode = "ParenthesisNestedTooDeeply"
	CurlyBracesNestedTooDeeply  perrors.ErrorCode = "CurlyBracesNestedTooDeeply"
	InvalidImageIndex           perrors.ErrorCode = "InvalidImageIndex"
	TwoOrMoreImagesRequired     perrors.ErrorCode = "TwoOrMoreImagesRequired"
	NoImagesFound               perrors.ErrorCode = "NoImagesFound"
	NoImagesDefined             perrors.ErrorCode = "NoImagesDefined"
	MissingNullSeparator        perrors.ErrorCode = "MissingNullSeparator"
	MissingOutputFilename       perrors.ErrorCode = "MissingOutputFilename"
	UnableToCloneImage          perrors.ErrorCode = "UnableToCloneImage"
	UnableToOpenFile            perrors.ErrorCode = "UnableToOpenFile"
	UnableToReadImage           perrors.ErrorCode = "UnableToReadImage"
	UnableToWriteImage          perrors.ErrorCode = "UnableToWriteImage"
	NoDecodeDelegate            perrors.ErrorCode = "NoDecodeDelegateForThisImageFormat"
	NoEncodeDelegate            perrors.ErrorCode = "NoEncodeDelegateForThisImageFormat"
	GeometryDoesNotContainImage perrors.ErrorCode = "GeometryDoesNotContainImage"
	ImageSequenceRequired       perrors.ErrorCode = "ImageSequenceRequired"
	ImageSizeDiffers            perrors.ErrorCode = "ImageWidthsOrHeightsDiffer"
	NoSuchFilter                perrors.ErrorCode = "NoSuchFilter"
	ListLengthExceedsLimit      perrors.ErrorCode = "ListLengthExceedsLimit"
	OperationFailed             perrors.ErrorCode = "OperationFailed"
	NoPixelsDefined             perrors.ErrorCode = "NoPixelsDefinedInCache"
	ScriptUnbalancedQuotes      perrors.ErrorCode = "ScriptUnbalancedQuotes"
	ScriptIsBinary              perrors.ErrorCode = "ScriptIsBinary"
	ScriptTokenTooLong          perrors.ErrorCode = "ScriptTokenTooLong"
)

// Exception is one entry of the sink.
type Exception struct {
	Kind     Kind
	Severity Severity
	Option   string
	Argument string
	Location string
	Err      perrors.PlatformError
}

// Reason returns the reason tag of the exception.
func (e Exception) Reason() perrors.ErrorCode {
	return e.Err.Code()
}

func (e Exception) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Err.Code())
	if msg := e.Err.Message(); msg != "" && msg != string(e.Err.Code()) {
		fmt.Fprintf(&b, " (%s)", msg)
	}
	if e.Option != "" {
		fmt.Fprintf(&b, " `%s'", e.Option)
	}
	if e.Argument != "" {
		fmt.Fprintf(&b, " `%s'", e.Argument)
	}
	if e.Location != "" {
		fmt.Fprintf(&b, " %s", e.Location)
	}
	return b.String()
}

// New builds an exception with the default severity of its kind.
func New(kind Kind, reason perrors.ErrorCode, option, argument, message string) Exception {
	sev, ok := severityOf[kind]
	if !ok {
		sev = Error
	}
	return NewWithSeverity(sev, kind, reason, option, argument, message)
}

// NewWithSeverity builds an exception whose severity is sev rather than
// the default of kind.
func NewWithSeverity(sev Severity, kind Kind, reason perrors.ErrorCode, option, argument, message string) Exception {
	if message == "" {
		message = string(reason)
	}
	err := perrors.WithContextMap(perrors.New(reason, message), map[string]interface{}{
		"kind":     string(kind),
		"severity": sev.String(),
		"option":   option,
		"argument": argument,
	})
	return Exception{
		Kind:     kind,
		Severity: sev,
		Option:   option,
		Argument: argument,
		Err:      err,
	}
}

// FromError converts a collaborator error into an exception. If err
// already carries a PlatformError its code is kept.
func FromError(kind Kind, err error, option, argument string) Exception {
	reason := perrors.GetCode(err)
	if reason == perrors.CodeUnknown {
		reason = OperationFailed
	}
	e := New(kind, reason, option, argument, err.Error())
	e.Err = perrors.WithContextMap(perrors.Wrap(err, reason, err.Error()), e.Err.Context())
	return e
}

// Handler receives every exception as it is recorded. A nil handler on the
// sink drops the notification but still records the exception.
type Handler func(Exception)

// Sink accumulates exceptions for one pipeline run.
type Sink struct {
	entries  []Exception
	handler  Handler
	location func() string
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// SetHandler installs h and returns the previous handler.
func (s *Sink) SetHandler(h Handler) Handler {
	prev := s.handler
	s.handler = h
	return prev
}

// Handler returns the installed handler.
func (s *Sink) Handler() Handler {
	return s.handler
}

// SetLocator installs a function that describes where in the input the
// pipeline currently is (for example "at script.txt line 4 column 2").
func (s *Sink) SetLocator(fn func() string) {
	s.location = fn
}

// Add records e.
func (s *Sink) Add(e Exception) {
	if e.Location == "" && s.location != nil {
		e.Location = s.location()
	}
	s.entries = append(s.entries, e)
	if s.handler != nil {
		s.handler(e)
	}
}

// Throw is a shorthand for Add(New(...)).
func (s *Sink) Throw(kind Kind, reason perrors.ErrorCode, option, argument string) {
	s.Add(New(kind, reason, option, argument, ""))
}

// Throwf records an exception with a formatted message.
func (s *Sink) Throwf(kind Kind, reason perrors.ErrorCode, option, argument, format string, args ...interface{}) {
	s.Add(New(kind, reason, option, argument, fmt.Sprintf(format, args...)))
}

// Entries returns a copy of every recorded exception.
func (s *Sink) Entries() []Exception {
	out := make([]Exception, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of recorded exceptions.
func (s *Sink) Len() int {
	return len(s.entries)
}

// Severity returns the highest recorded severity.
func (s *Sink) Severity() Severity {
	max := Undefined
	for _, e := range s.entries {
		if e.Severity > max {
			max = e.Severity
		}
	}
	return max
}

// Fatal reports whether a fatal exception has been recorded.
func (s *Sink) Fatal() bool {
	return s.Severity() >= Fatal
}

// Has reports whether an exception with the given reason was recorded.
func (s *Sink) Has(reason perrors.ErrorCode) bool {
	for _, e := range s.entries {
		if e.Err.Code() == reason {
			return true
		}
	}
	return false
}

// Last returns the most recent exception.
func (s *Sink) Last() (Exception, bool) {
	if len(s.entries) == 0 {
		return Exception{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Warnings returns the recorded warnings.
func (s *Sink) Warnings() []Exception {
	return s.filter(func(e Exception) bool { return e.Severity == Warning })
}

// Errors returns the recorded errors and fatal errors.
func (s *Sink) Errors() []Exception {
	return s.filter(func(e Exception) bool { return e.Severity >= Error })
}

func (s *Sink) filter(keep func(Exception) bool) []Exception {
	var out []Exception
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops every recorded exception.
func (s *Sink) Clear() {
	s.entries = nil
}

// Err joins every exception of at least min severity into one error, or
// returns nil when there are none.
func (s *Sink) Err(min Severity) error {
	var errs []error
	for _, e := range s.entries {
		if e.Severity >= min {
			errs = append(errs, e.Err)
		}
	}
	return stderrors.Join(errs...)
}
