// Package filter compiles boolean expressions over node attributes, e.g.
//
//	type == "Actor" AND (age >= 60 OR name contains "Kate")
//
// Comparisons take an attribute on the left and a literal on the right.
// A node whose variant lacks the attribute does not match.
package filter

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/gyaneshwarpardhi/moviegraph/internal/graph"
)

// Operator is a comparison operator.
type Operator string

const (
	OpEq       Operator = "=="
	OpNeq      Operator = "!="
	OpGt       Operator = ">"
	OpGte      Operator = ">="
	OpLt       Operator = "<"
	OpLte      Operator = "<="
	OpContains Operator = "contains"
	OpMatches  Operator = "matches"
)

// Filter is a compiled expression. It is safe for concurrent use.
type Filter struct {
	src  string
	root expr
}

// Compile parses src. Attribute names are checked against the graph's
// queryable attributes and regular expressions are compiled up front.
func Compile(src string) (*Filter, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("filter: position %d: unexpected %q after expression", t.pos, t.val)
	}
	return &Filter{src: src, root: root}, nil
}

func (f *Filter) String() string { return f.src }

// Match evaluates the filter against one node of g.
func (f *Filter) Match(g *graph.Graph, n graph.Node) (bool, error) {
	return f.root.eval(func(name string) (any, bool) { return g.Attribute(n, name) })
}

// Apply returns the nodes that match, keeping their order.
func (f *Filter) Apply(g *graph.Graph, nodes []graph.Node) ([]graph.Node, error) {
	var out []graph.Node
	for _, n := range nodes {
		ok, err := f.Match(g, n)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, n)
		}
	}
	return out, nil
}

type resolver func(attr string) (any, bool)

type expr interface {
	eval(r resolver) (bool, error)
}

type andExpr struct{ left, right expr }

func (e *andExpr) eval(r resolver) (bool, error) {
	ok, err := e.left.eval(r)
	if err != nil || !ok {
		return false, err
	}
	return e.right.eval(r)
}

type orExpr struct{ left, right expr }

func (e *orExpr) eval(r resolver) (bool, error) {
	ok, err := e.left.eval(r)
	if err != nil || ok {
		return ok, err
	}
	return e.right.eval(r)
}

type notExpr struct{ inner expr }

func (e *notExpr) eval(r resolver) (bool, error) {
	ok, err := e.inner.eval(r)
	return !ok && err == nil, err
}

type cmpExpr struct {
	attr  string
	op    Operator
	value any // string or float64
	re    *regexp.Regexp
}

func (e *cmpExpr) eval(r resolver) (bool, error) {
	got, ok := r(e.attr)
	if !ok {
		return false, nil
	}
	switch e.op {
	case OpEq:
		return equal(got, e.value), nil
	case OpNeq:
		return !equal(got, e.value), nil
	case OpGt, OpGte, OpLt, OpLte:
		gf, ok := number(got)
		if !ok {
			return false, fmt.Errorf("filter: %s %s needs a numeric attribute, %s is %T", e.attr, e.op, e.attr, got)
		}
		want := e.value.(float64)
		switch e.op {
		case OpGt:
			return gf > want, nil
		case OpGte:
			return gf >= want, nil
		case OpLt:
			return gf < want, nil
		}
		return gf <= want, nil
	case OpContains:
		return strings.Contains(fmt.Sprint(got), e.value.(string)), nil
	case OpMatches:
		return e.re.MatchString(fmt.Sprint(got)), nil
	}
	return false, fmt.Errorf("filter: unknown operator %q", e.op)
}

// equal compares numbers by value and everything else by its text.
func equal(got, want any) bool {
	gf, gok := number(got)
	wf, wok := number(want)
	if gok && wok {
		return math.Abs(gf-wf) < 1e-9
	}
	return fmt.Sprint(got) == fmt.Sprint(want)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
