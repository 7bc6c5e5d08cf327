package pipeline

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-pipeline/internal/exception"
)

func texts(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"words", "-size 10x10   xc:red\n-flip", []string{"-size", "10x10", "xc:red", "-flip"}},
		{"double quotes", `-set label "a b"`, []string{"-set", "label", "a b"}},
		{"single quotes keep backslash", `'c\d'`, []string{`c\d`}},
		{"quote inside word", `ab"c d"e`, []string{"abc de"}},
		{"escapes in double quotes", `"a\"b\\c\d"`, []string{`a"b\c\d`}},
		{"escaped blank", `a\ b`, []string{"a b"}},
		{"line continuation", "-resize \\\n 50%", []string{"-resize", "50%"}},
		{"continuation inside word", "ab\\\ncd", []string{"abcd"}},
		{"comment", "# header\n-flip # trailing\n-flop", []string{"-flip", "-flop"}},
		{"hash inside word", "a#b", []string{"a#b"}},
		{"colon comment in first column", ":: note\n-flip", []string{"-flip"}},
		{"at comment in first column", "@ note\n-flip", []string{"-flip"}},
		{"colon later is text", " xc:red", []string{"xc:red"}},
		{"crlf", "a\r\nb\rc", []string{"a", "b", "c"}},
		{"trailing backslash", `ab\`, []string{`ab\`}},
		{"empty quotes", `'' x`, []string{"", "x"}},
		{"empty", "  \n\t ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(strings.NewReader(tt.in))
			require.NoError(t, err)
			if tt.want == nil {
				require.Empty(t, toks)
				return
			}
			require.Equal(t, tt.want, texts(toks))
		})
	}
}

func TestTokenize_Positions(t *testing.T) {
	toks, err := Tokenize(strings.NewReader("-size 4x4\r\n  xc:red \"q w\"\n"))
	require.NoError(t, err)
	want := []Token{
		{Text: "-size", Line: 1, Column: 1},
		{Text: "4x4", Line: 1, Column: 7},
		{Text: "xc:red", Line: 2, Column: 3},
		{Text: "q w", Line: 2, Column: 10},
	}
	require.Equal(t, want, toks)
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		reason string
		before []string
	}{
		{"binary", "-flip a\x01b", string(exception.ScriptIsBinary), []string{"-flip"}},
		{"unbalanced double", `-flip "abc`, string(exception.ScriptUnbalancedQuotes), []string{"-flip"}},
		{"unbalanced single", `'abc def`, string(exception.ScriptUnbalancedQuotes), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(strings.NewReader(tt.in))
			var te *TokenError
			require.True(t, errors.As(err, &te))
			require.Equal(t, tt.reason, string(te.Reason))
			require.Equal(t, len(tt.before), len(toks))
			if tt.before != nil {
				require.Equal(t, tt.before, texts(toks))
			}
		})
	}
}

func TestTokenizer_ErrorIsSticky(t *testing.T) {
	tk := NewTokenizer(strings.NewReader("\x02 ok"))
	_, first := tk.Next()
	require.Error(t, first)
	_, second := tk.Next()
	require.Equal(t, first, second)

	tk = NewTokenizer(strings.NewReader("one"))
	tok, err := tk.Next()
	require.NoError(t, err)
	require.Equal(t, "one", tok.Text)
	_, err = tk.Next()
	require.ErrorIs(t, err, io.EOF)
	_, err = tk.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestTokenize_TooLong(t *testing.T) {
	_, err := Tokenize(strings.NewReader(strings.Repeat("a", MaxTokenLength+1)))
	var te *TokenError
	require.True(t, errors.As(err, &te))
	require.Equal(t, string(exception.ScriptTokenTooLong), string(te.Reason))
	require.Equal(t, 1, te.Line)
	require.Equal(t, 1, te.Column)
}
