package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gyaneshwarpardhi/moviegraph/internal/graph"
)

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) keyword(kw string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.val, kw)
}

// or_expr = and_expr ( "OR" and_expr )*
func (p *parser) parseOr() (expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orExpr{left, right}
	}
	return left, nil
}

// and_expr = unary ( "AND" unary )*
func (p *parser) parseAnd() (expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &andExpr{left, right}
	}
	return left, nil
}

// unary = "NOT" unary | "(" or_expr ")" | comparison
func (p *parser) parseUnary() (expr, error) {
	switch {
	case p.keyword("NOT"):
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notExpr{inner}, nil
	case p.peek().kind == tokLParen:
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, fmt.Errorf("position %d: expected ')', got %q", t.pos, t.val)
		}
		return inner, nil
	}
	return p.parseComparison()
}

// comparison = attribute operator literal
func (p *parser) parseComparison() (expr, error) {
	attr := p.next()
	if attr.kind != tokWord {
		return nil, fmt.Errorf("position %d: expected attribute name, got %q", attr.pos, attr.val)
	}
	if !graph.IsAttribute(attr.val) {
		return nil, fmt.Errorf("position %d: unknown attribute %q", attr.pos, attr.val)
	}

	t := p.next()
	var op Operator
	switch {
	case t.kind == tokOp:
		op = Operator(t.val)
	case t.kind == tokWord && strings.EqualFold(t.val, string(OpContains)):
		op = OpContains
	case t.kind == tokWord && strings.EqualFold(t.val, string(OpMatches)):
		op = OpMatches
	default:
		return nil, fmt.Errorf("position %d: expected comparison operator, got %q", t.pos, t.val)
	}

	lit := p.next()
	c := &cmpExpr{attr: attr.val, op: op}
	switch lit.kind {
	case tokString:
		c.value = lit.val
	case tokNumber:
		f, err := strconv.ParseFloat(lit.val, 64)
		if err != nil {
			return nil, fmt.Errorf("position %d: invalid number %q", lit.pos, lit.val)
		}
		c.value = f
	default:
		return nil, fmt.Errorf("position %d: expected a literal, got %q", lit.pos, lit.val)
	}

	switch op {
	case OpGt, OpGte, OpLt, OpLte:
		if _, ok := c.value.(float64); !ok {
			return nil, fmt.Errorf("position %d: %s needs a number", lit.pos, op)
		}
	case OpContains:
		if _, ok := c.value.(string); !ok {
			return nil, fmt.Errorf("position %d: contains needs a string", lit.pos)
		}
	case OpMatches:
		pattern, ok := c.value.(string)
		if !ok {
			return nil, fmt.Errorf("position %d: matches needs a string pattern", lit.pos)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("position %d: invalid pattern: %w", lit.pos, err)
		}
		c.re = re
	}
	return c, nil
}
