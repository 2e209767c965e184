package tools

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/chris/copiloto/internal/llm"
)

func CalcTool() Tool {
	return Tool{
		Name:        "calc",
		Description: "Evalúa una expresión aritmética con + - * / y paréntesis.",
		Parameters: llm.ObjReq(map[string]any{
			"expression": llm.Prop("string", "Expresión aritmética, por ejemplo (2+3)*4"),
		}, "expression"),
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			expr, _ := getString(args, "expression")
			v, err := Calc(expr)
			if err != nil {
				return nil, err
			}
			return map[string]any{"expression": expr, "result": v}, nil
		},
	}
}

// Calc evaluates an arithmetic expression. Input is checked against the
// allow-list before any parsing happens.
func Calc(expr string) (float64, error) {
	if !allowedExpression(expr) {
		return 0, ErrInvalidExpression
	}
	p := &parser{src: expr}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return 0, ErrInvalidExpression
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrNonFiniteResult
	}
	return v, nil
}

func allowedExpression(expr string) bool {
	if strings.TrimSpace(expr) == "" {
		return false
	}
	for _, r := range expr {
		switch {
		case r >= '0' && r <= '9':
		case strings.ContainsRune("+-*/().", r):
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		default:
			return false
		}
	}
	return true
}

// parser is a recursive-descent evaluator over
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = ("+" | "-") unary | primary
//	primary = number | "(" expr ")"
type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && strings.IndexByte(" \t\n\r", p.src[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v += r
		case '-':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (p *parser) term() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			v *= r
		case '/':
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			if r == 0 {
				return 0, ErrNonFiniteResult
			}
			v /= r
		default:
			return v, nil
		}
	}
}

func (p *parser) unary() (float64, error) {
	switch p.peek() {
	case '+':
		p.pos++
		return p.unary()
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	}
	return p.primary()
}

func (p *parser) primary() (float64, error) {
	c := p.peek()
	if c == '(' {
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, ErrInvalidExpression
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] == '.' || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
		p.pos++
	}
	if start == p.pos {
		return 0, ErrInvalidExpression
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, ErrInvalidExpression
	}
	return v, nil
}
