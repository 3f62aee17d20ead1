package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedGraph is wrapped by every Deserialize failure.
var ErrMalformedGraph = errors.New("malformed graph document")

type document struct {
	Nodes []any       `json:"nodes"`
	Edges []edgeEntry `json:"edges"`
}

type edgeEntry struct {
	Ends   []int    `json:"ends"`
	Weight *float64 `json:"weight,omitempty"`
}

type rawDocument struct {
	Nodes *[]json.RawMessage `json:"nodes"`
	Edges *[]json.RawMessage `json:"edges"`
}

// Serialize encodes the graph as a JSON document with "nodes" and "edges"
// lists. The output depends only on node and edge insertion order.
func (g *Graph) Serialize() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	doc := document{
		Nodes: make([]any, 0, len(g.nodes)),
		Edges: make([]edgeEntry, 0, len(g.edges)),
	}
	for _, n := range g.nodes {
		v, ok := variants[n.Type()]
		if !ok {
			return nil, fmt.Errorf("serialize node %d: unregistered type %q", n.ID(), n.Type())
		}
		doc.Nodes = append(doc.Nodes, v.encode(n))
	}
	for _, e := range g.edges {
		w := e.Weight
		doc.Edges = append(doc.Edges, edgeEntry{Ends: []int{e.Ends[0], e.Ends[1]}, Weight: &w})
	}
	return json.Marshal(doc)
}

// Deserialize replaces the graph's contents with the document in data.
// Loading is all-or-nothing: on any error the receiver is left unchanged and
// the error wraps ErrMalformedGraph.
func (g *Graph) Deserialize(data []byte) error {
	scratch, err := decode(data)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes, g.edges, g.byURL = scratch.nodes, scratch.edges, scratch.byURL
	return nil
}

// Parse builds a new Graph from a serialized document.
func Parse(data []byte) (*Graph, error) {
	return decode(data)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedGraph, fmt.Sprintf(format, args...))
}

type decodedNode struct {
	id   int
	node Node
}

func decode(data []byte) (*Graph, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, malformed("%v", err)
	}
	if raw.Nodes == nil || raw.Edges == nil {
		return nil, malformed("document must contain nodes and edges")
	}

	decoded := make([]decodedNode, 0, len(*raw.Nodes))
	for i, entry := range *raw.Nodes {
		dn, err := decodeNode(entry)
		if err != nil {
			return nil, malformed("nodes[%d]: %v", i, err)
		}
		decoded = append(decoded, dn)
	}

	// Persisted ids are kept, so after sorting they must be exactly 0..N-1.
	sort.SliceStable(decoded, func(i, j int) bool { return decoded[i].id < decoded[j].id })
	g := New()
	for i, dn := range decoded {
		if dn.id != i {
			return nil, malformed("node ids are not dense: position %d holds id %d", i, dn.id)
		}
		if !g.addNodeLocked(dn.node) {
			return nil, malformed("node %d: duplicate url %q", dn.id, dn.node.URL())
		}
	}

	for i, entry := range *raw.Edges {
		var e edgeEntry
		if err := json.Unmarshal(entry, &e); err != nil {
			return nil, malformed("edges[%d]: %v", i, err)
		}
		if len(e.Ends) != 2 {
			return nil, malformed("edges[%d]: ends must hold two node ids, got %d", i, len(e.Ends))
		}
		edge := g.addRelationshipLocked(e.Ends[0], e.Ends[1])
		if edge == nil {
			return nil, malformed("edges[%d]: invalid or duplicate relationship %v", i, e.Ends)
		}
		if e.Weight != nil {
			edge.Weight = *e.Weight
		}
	}
	return g, nil
}

func decodeNode(entry json.RawMessage) (decodedNode, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return decodedNode{}, err
	}
	rawType, ok := fields["type"]
	if !ok {
		return decodedNode{}, errors.New("missing type")
	}
	var typ NodeType
	if err := json.Unmarshal(rawType, &typ); err != nil {
		return decodedNode{}, fmt.Errorf("type: %w", err)
	}
	v, ok := variants[typ]
	if !ok {
		return decodedNode{}, fmt.Errorf("unknown type %q", typ)
	}
	for key := range fields {
		if _, ok := v.keys[key]; !ok {
			return decodedNode{}, fmt.Errorf("unrecognized %s attribute %q", typ, key)
		}
	}
	if _, ok := fields["node_id"]; !ok {
		return decodedNode{}, errors.New("missing node_id")
	}
	n, id, err := v.decode(entry)
	if err != nil {
		return decodedNode{}, err
	}
	return decodedNode{id: id, node: n}, nil
}
