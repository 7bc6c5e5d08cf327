package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	perrors "github.com/jmgilman/go/errors"

	"github.com/ironsheep/image-pipeline/internal/exception"
)

// MaxTokenLength bounds a single script token.
const MaxTokenLength = 1 << 20

// Token is one word of a script with the position of its first
// character. Lines and columns count from 1.
type Token struct {
	Text   string
	Line   int
	Column int
}

// TokenError is a tokenizer failure at a script position.
type TokenError struct {
	Reason perrors.ErrorCode
	Line   int
	Column int
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s at line %d column %d", e.Reason, e.Line, e.Column)
}

type tokenState int

const (
	inWhite tokenState = iota
	inToken
	inQuote
	inComment
)

// Tokenizer splits a script into shell-like words.
//
// Words are separated by blanks. Single and double quotes group blanks
// into a word and may start or end in the middle of one. A backslash
// escapes the next character except inside single quotes, and a
// backslash before a newline continues the line. '#' starts a comment
// between words; ':' and '@' start one in the first column.
type Tokenizer struct {
	r      *bufio.Reader
	line   int
	column int
	err    error
}

// NewTokenizer reads a script from r.
func NewTokenizer(r io.Reader) *Tokenizer {
	return &Tokenizer{r: bufio.NewReader(r), line: 1}
}

// Position returns the line and column of the last character read.
func (t *Tokenizer) Position() (int, int) {
	return t.line, t.column
}

// read returns the next character with "\r\n" and a lone '\r' read as a
// newline. Control characters other than blanks and escape mark the
// input as binary.
func (t *Tokenizer) read() (byte, error) {
	c, err := t.r.ReadByte()
	if err != nil {
		return 0, err
	}
	t.column++
	if c == '\r' {
		if next, err := t.r.ReadByte(); err == nil && next != '\n' {
			_ = t.r.UnreadByte()
		}
		c = '\n'
	}
	if c == '\n' {
		t.line++
		t.column = 0
		return c, nil
	}
	if c < '\a' || (c > '\r' && c < ' ' && c != '\033') {
		return 0, &TokenError{Reason: exception.ScriptIsBinary, Line: t.line, Column: t.column}
	}
	return c, nil
}

// Next returns the next token, or io.EOF once the script is exhausted.
// After an error every later call returns the same error.
func (t *Tokenizer) Next() (Token, error) {
	if t.err != nil {
		return Token{}, t.err
	}
	tok, err := t.next()
	if err != nil {
		t.err = err
	}
	return tok, err
}

func (t *Tokenizer) next() (Token, error) {
	var (
		b     strings.Builder
		tok   Token
		state = inWhite
		quote byte
	)
	start := func() {
		tok.Line, tok.Column = t.line, t.column
		state = inToken
	}
	save := func(c byte) error {
		if b.Len() >= MaxTokenLength {
			return &TokenError{Reason: exception.ScriptTokenTooLong, Line: tok.Line, Column: tok.Column}
		}
		b.WriteByte(c)
		return nil
	}
	for {
		c, err := t.read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Token{}, err
			}
			switch state {
			case inToken:
				tok.Text = b.String()
				return tok, nil
			case inQuote:
				return Token{}, &TokenError{Reason: exception.ScriptUnbalancedQuotes, Line: tok.Line, Column: tok.Column}
			}
			return Token{}, io.EOF
		}

		if state == inComment {
			if c == '\n' {
				state = inWhite
			}
			continue
		}
		if state == inWhite && (c == '#' || (t.column == 1 && (c == ':' || c == '@'))) {
			state = inComment
			continue
		}

		switch {
		case c == ' ' || c == '\t' || c == '\n':
			switch state {
			case inToken:
				tok.Text = b.String()
				return tok, nil
			case inQuote:
				if err := save(c); err != nil {
					return Token{}, err
				}
			}

		case c == '\'' || c == '"':
			switch state {
			case inWhite:
				tok.Line, tok.Column = t.line, t.column
				state, quote = inQuote, c
			case inToken:
				state, quote = inQuote, c
			case inQuote:
				if c == quote {
					state, quote = inToken, 0
				} else if err := save(c); err != nil {
					return Token{}, err
				}
			}

		case c == '\\':
			if state == inQuote && quote == '\'' {
				if err := save(c); err != nil {
					return Token{}, err
				}
				continue
			}
			next, err := t.read()
			if errors.Is(err, io.EOF) {
				if state == inWhite {
					start()
				}
				if err := save('\\'); err != nil {
					return Token{}, err
				}
				continue
			}
			if err != nil {
				return Token{}, err
			}
			if next == '\n' {
				// line continuation
				continue
			}
			switch state {
			case inWhite:
				start()
			case inQuote:
				if next != quote && next != '\\' {
					if err := save('\\'); err != nil {
						return Token{}, err
					}
				}
			}
			if err := save(next); err != nil {
				return Token{}, err
			}

		default:
			if state == inWhite {
				start()
			}
			if err := save(c); err != nil {
				return Token{}, err
			}
		}
	}
}

// Tokenize splits a whole script.
func Tokenize(r io.Reader) ([]Token, error) {
	t := NewTokenizer(r)
	var out []Token
	for {
		tok, err := t.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, tok)
	}
}
