package exception

import (
	"errors"
	"testing"

	perrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultSeverity(t *testing.T) {
	tests := []struct {
		kind Kind
		want Severity
	}{
		{OptionWarning, Warning},
		{OptionError, Error},
		{OptionFatalError, Fatal},
		{ResourceLimitError, Fatal},
		{CorruptImageError, Fatal},
		{CoderError, Fatal},
		{Kind("Unlisted"), Error},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e := New(tt.kind, InvalidArgument, "-resize", "bogus", "")
			require.Equal(t, tt.want, e.Severity)
			require.Equal(t, InvalidArgument, e.Reason())
			ctx := e.Err.Context()
			require.Equal(t, "-resize", ctx["option"])
			require.Equal(t, "bogus", ctx["argument"])
			require.Equal(t, tt.want.String(), ctx["severity"])
		})
	}
}

func TestSink_SeverityAndFilters(t *testing.T) {
	s := NewSink()
	require.Equal(t, Undefined, s.Severity())
	require.False(t, s.Fatal())
	require.NoError(t, s.Err(Warning))

	s.Throw(OptionWarning, InterpretPropertyFailure, "-annotate", "%[")
	require.Equal(t, Warning, s.Severity())

	s.Throw(OptionError, InvalidArgument, "-blur", "x")
	require.Equal(t, Error, s.Severity())
	require.Len(t, s.Warnings(), 1)
	require.Len(t, s.Errors(), 1)

	s.Throw(OptionFatalError, UnbalancedParenthesis, ")", "")
	require.True(t, s.Fatal())
	require.True(t, s.Has(UnbalancedParenthesis))
	require.False(t, s.Has(NoImagesFound))

	last, ok := s.Last()
	require.True(t, ok)
	require.Equal(t, UnbalancedParenthesis, last.Reason())

	err := s.Err(Error)
	require.Error(t, err)
	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	require.Len(t, joined.Unwrap(), 2)
	require.Equal(t, UnbalancedParenthesis, perrors.GetCode(joined.Unwrap()[1]))

	s.Clear()
	require.Zero(t, s.Len())
}

func TestSink_HandlerAndLocator(t *testing.T) {
	s := NewSink()
	s.SetLocator(func() string { return "at CLI arg 3" })

	var seen []Exception
	prev := s.SetHandler(func(e Exception) { seen = append(seen, e) })
	require.Nil(t, prev)

	s.Throwf(OptionError, InvalidArgument, "-resize", "abc", "invalid geometry %q", "abc")
	require.Len(t, seen, 1)
	require.Equal(t, "at CLI arg 3", seen[0].Location)
	require.Contains(t, seen[0].String(), "`-resize'")
	require.Contains(t, seen[0].String(), "invalid geometry")

	restored := s.SetHandler(nil)
	require.NotNil(t, restored)
	s.Throw(OptionWarning, InvalidArgument, "-x", "")
	require.Len(t, seen, 1)
	require.Equal(t, 2, s.Len())
}

func TestFromError_KeepsPlatformCode(t *testing.T) {
	cause := perrors.New(UnableToReadImage, "decode failed")
	e := FromError(CoderError, cause, "-read", "a.png")
	require.Equal(t, UnableToReadImage, e.Reason())
	require.Equal(t, Fatal, e.Severity)
	require.ErrorIs(t, e.Err, cause)

	plain := FromError(OptionError, errors.New("boom"), "-blur", "1")
	require.Equal(t, OperationFailed, plain.Reason())
}

func TestNewWithSeverity(t *testing.T) {
	e := NewWithSeverity(Error, CoderError, NoDecodeDelegate, "-read", "info:", "")
	require.Equal(t, CoderError, e.Kind)
	require.Equal(t, Error, e.Severity)
	require.Equal(t, "error", e.Err.Context()["severity"])

	s := NewSink()
	s.Add(e)
	require.False(t, s.Fatal())
	require.Len(t, s.Errors(), 1)
}
