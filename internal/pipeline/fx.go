package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// evalFx evaluates the small arithmetic subset accepted by %[fx:...]:
// numbers, the symbols in vars, + - * / and parentheses.
func evalFx(expr string, vars map[string]float64) (float64, error) {
	p := &fxParser{s: strings.ReplaceAll(expr, " ", ""), vars: vars}
	v, err := p.sum()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.s) {
		return 0, fmt.Errorf("unexpected %q in fx expression %q", p.s[p.pos:], expr)
	}
	return v, nil
}

type fxParser struct {
	s    string
	pos  int
	vars map[string]float64
}

func (p *fxParser) peek() byte {
	if p.pos < len(p.s) {
		return p.s[p.pos]
	}
	return 0
}

func (p *fxParser) sum() (float64, error) {
	v, err := p.product()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return v, nil
		}
		p.pos++
		r, err := p.product()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			v += r
		} else {
			v -= r
		}
	}
}

func (p *fxParser) product() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return v, nil
		}
		p.pos++
		r, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			v *= r
		} else {
			if r == 0 {
				return 0, fmt.Errorf("division by zero in fx expression")
			}
			v /= r
		}
	}
}

func (p *fxParser) unary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	case '+':
		p.pos++
		return p.unary()
	case '(':
		p.pos++
		v, err := p.sum()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing ) in fx expression")
		}
		p.pos++
		return v, nil
	}
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '+' || c == '-' || c == '*' || c == '/' || c == '(' || c == ')' {
			break
		}
		p.pos++
	}
	tok := p.s[start:p.pos]
	if tok == "" {
		return 0, fmt.Errorf("missing operand in fx expression")
	}
	if v, ok := p.vars[tok]; ok {
		return v, nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown symbol %q in fx expression", tok)
	}
	return v, nil
}
