package graph

import (
	"strconv"
)

// accessor extracts one attribute from a node. It runs under the graph's read lock.
type accessor func(g *Graph, n Node) any

var commonAttrs = map[string]accessor{
	"type":    func(_ *Graph, n Node) any { return n.Type() },
	"node_id": func(_ *Graph, n Node) any { return n.ID() },
	"name":    func(_ *Graph, n Node) any { return n.Name() },
	"url":     func(_ *Graph, n Node) any { return n.URL() },
}

// attrs maps each variant to the attributes a query may constrain.
var attrs = map[NodeType]map[string]accessor{
	TypeMovie: withCommon(map[string]accessor{
		"year":           func(_ *Graph, n Node) any { return n.(*Movie).Year },
		"total_grossing": func(_ *Graph, n Node) any { return n.(*Movie).TotalGrossing },
	}),
	TypeActor: withCommon(map[string]accessor{
		"age":      func(_ *Graph, n Node) any { return n.(*Actor).Age },
		"grossing": func(g *Graph, n Node) any { return g.grossingLocked(n.ID()) },
	}),
}

func withCommon(m map[string]accessor) map[string]accessor {
	for k, fn := range commonAttrs {
		m[k] = fn
	}
	return m
}

// QueryNodes returns every node whose named attributes all equal the expected
// values, in insertion order. An attribute the node's variant does not have
// excludes the node. No constraints returns all nodes.
func (g *Graph) QueryNodes(constraints map[string]any) []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Node
	for _, n := range g.nodes {
		if g.matchLocked(n, constraints) {
			out = append(out, n)
		}
	}
	return out
}

func (g *Graph) matchLocked(n Node, constraints map[string]any) bool {
	table := attrs[n.Type()]
	for name, want := range constraints {
		get, ok := table[name]
		if !ok {
			return false
		}
		if !equalValue(get(g, n), want) {
			return false
		}
	}
	return true
}

// equalValue compares an attribute value with an expected value.
// Numbers compare across kinds and strings are parsed when the attribute is numeric.
func equalValue(got, want any) bool {
	if gf, ok := toFloat(got); ok {
		if wf, ok := toFloat(want); ok {
			return gf == wf
		}
		if ws, ok := want.(string); ok {
			wf, err := strconv.ParseFloat(ws, 64)
			return err == nil && gf == wf
		}
		return false
	}
	gs, ok := toString(got)
	if !ok {
		return false
	}
	ws, ok := toString(want)
	return ok && gs == ws
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case NodeType:
		return string(x), true
	}
	return "", false
}

// IsAttribute reports whether name is a queryable attribute of any variant.
func IsAttribute(name string) bool {
	for _, table := range attrs {
		if _, ok := table[name]; ok {
			return true
		}
	}
	return false
}

// Attribute returns the named attribute of n. ok is false when n's variant
// has no such attribute.
func (g *Graph) Attribute(n Node, name string) (any, bool) {
	get, ok := attrs[n.Type()][name]
	if !ok {
		return nil, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return get(g, n), true
}
