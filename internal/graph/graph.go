package graph

import (
	"sync"
)

// Edge is an undirected, weighted relationship between two distinct nodes.
// Weight starts at zero so callers can link first and assign the weight after.
type Edge struct {
	ID     int
	Ends   [2]int
	Weight float64
}

// Other returns the end of e that is not id.
func (e *Edge) Other(id int) int {
	if e.Ends[0] == id {
		return e.Ends[1]
	}
	return e.Ends[0]
}

// Has reports whether id is one of the ends of e.
func (e *Edge) Has(id int) bool {
	return e.Ends[0] == id || e.Ends[1] == id
}

// Graph owns nodes and edges. It is append-only: nodes and edges are never removed.
//
// Node ids are dense (0..N-1) and equal the node's position. Identity keys
// (page URLs) are unique and each unordered pair of nodes has at most one edge.
// All Graph methods are safe for concurrent use; the Node values it hands out
// are not, so read them only once mutation has stopped.
type Graph struct {
	mu    sync.RWMutex
	nodes []Node
	edges []*Edge
	byURL map[string]Node
}

// New allocates an empty Graph.
func New() *Graph {
	return &Graph{byURL: make(map[string]Node)}
}

// NodeExists reports whether a node with the given identity key is present.
func (g *Graph) NodeExists(url string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.byURL[url]
	return ok
}

// AddNode inserts n and assigns it the next id. It returns false, leaving the
// graph untouched, when a node with the same identity key already exists or
// when n already belongs to a graph.
func (g *Graph) AddNode(n Node) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addNodeLocked(n)
}

func (g *Graph) addNodeLocked(n Node) bool {
	if b := n.base(); b.id != unassigned || len(b.edges) > 0 {
		return false
	}
	if _, ok := g.byURL[n.URL()]; ok {
		return false
	}
	n.base().id = len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.byURL[n.URL()] = n
	return true
}

// AddRelationship creates a zero-weight edge between id1 and id2.
// It returns nil if either id is out of range, the ids are equal, or the two
// nodes are already connected.
func (g *Graph) AddRelationship(id1, id2 int) *Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addRelationshipLocked(id1, id2)
}

// Link creates the edge and sets its weight in one step.
func (g *Graph) Link(id1, id2 int, weight float64) (*Edge, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := g.addRelationshipLocked(id1, id2)
	if e == nil {
		return nil, false
	}
	e.Weight = weight
	return e, true
}

func (g *Graph) addRelationshipLocked(id1, id2 int) *Edge {
	if !g.validID(id1) || !g.validID(id2) || id1 == id2 {
		return nil
	}
	n1, n2 := g.nodes[id1].base(), g.nodes[id2].base()
	for _, eid := range n1.edges {
		if g.edges[eid].Has(id2) {
			return nil
		}
	}
	e := &Edge{ID: len(g.edges), Ends: [2]int{id1, id2}}
	g.edges = append(g.edges, e)
	n1.edges = append(n1.edges, e.ID)
	n2.edges = append(n2.edges, e.ID)
	return e
}

func (g *Graph) validID(id int) bool {
	return id >= 0 && id < len(g.nodes)
}

// Node returns the node with the given id (nil if out of range).
func (g *Graph) Node(id int) Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.validID(id) {
		return nil
	}
	return g.nodes[id]
}

// NodeByURL returns the node with the given identity key (nil if absent).
func (g *Graph) NodeByURL(url string) Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.byURL[url]
}

// Nodes returns all nodes in id order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns all edges in creation order.
func (g *Graph) Edges() []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Edge returns the edge with the given id (nil if out of range).
func (g *Graph) Edge(id int) *Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if id < 0 || id >= len(g.edges) {
		return nil
	}
	return g.edges[id]
}

// NodeCount returns the total number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the total number of edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// CountNodes returns how many nodes have the given type.
func (g *Graph) CountNodes(t NodeType) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, node := range g.nodes {
		if node.Type() == t {
			n++
		}
	}
	return n
}

// HasPeer reports whether id1 and id2 share an edge.
func (g *Graph) HasPeer(id1, id2 int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.validID(id1) || !g.validID(id2) {
		return false
	}
	for _, eid := range g.nodes[id1].base().edges {
		if g.edges[eid].Has(id2) {
			return true
		}
	}
	return false
}

// Peers returns the nodes adjacent to id, in edge creation order.
func (g *Graph) Peers(id int) []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.validID(id) {
		return nil
	}
	edges := g.nodes[id].base().edges
	out := make([]Node, 0, len(edges))
	for _, eid := range edges {
		out = append(out, g.nodes[g.edges[eid].Other(id)])
	}
	return out
}

// Grossing returns the weighted box-office share of an actor: the sum over
// incident edges of the peer movie's total grossing times the edge weight.
// It is recomputed on every call because weights may change after linking.
func (g *Graph) Grossing(actorID int) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.grossingLocked(actorID)
}

func (g *Graph) grossingLocked(actorID int) float64 {
	if !g.validID(actorID) {
		return 0
	}
	var total float64
	for _, eid := range g.nodes[actorID].base().edges {
		e := g.edges[eid]
		if m, ok := g.nodes[e.Other(actorID)].(*Movie); ok {
			total += m.TotalGrossing * e.Weight
		}
	}
	return total
}
