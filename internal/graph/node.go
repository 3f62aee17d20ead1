package graph

// NodeType discriminates the entity variants stored in a Graph.
type NodeType string

const (
	TypeMovie NodeType = "Movie"
	TypeActor NodeType = "Actor"
)

// unassigned is the id carried by a node that has not been inserted yet.
const unassigned = -1

// Node is the common interface for all graph nodes.
// The variant set is closed: only *Movie and *Actor implement it.
type Node interface {
	ID() int
	Name() string
	URL() string
	Type() NodeType
	// Edges returns the ids of incident edges, in creation order.
	Edges() []int

	base() *nodeBase
}

// nodeBase holds the fields shared by every variant.
type nodeBase struct {
	id    int
	name  string
	url   string
	edges []int
}

func newBase(name, url string) nodeBase {
	return nodeBase{id: unassigned, name: name, url: url}
}

func (b *nodeBase) ID() int      { return b.id }
func (b *nodeBase) Name() string { return b.name }
func (b *nodeBase) URL() string  { return b.url }

func (b *nodeBase) Edges() []int {
	out := make([]int, len(b.edges))
	copy(out, b.edges)
	return out
}

func (b *nodeBase) base() *nodeBase { return b }

// -----------------------------------------------------------------------
// Movie
// -----------------------------------------------------------------------

// Movie is a film page. Year and TotalGrossing are zero when unknown;
// TotalGrossing is in US dollars.
type Movie struct {
	nodeBase
	Year          int
	TotalGrossing float64
}

func NewMovie(name, url string, year int, totalGrossing float64) *Movie {
	return &Movie{nodeBase: newBase(name, url), Year: year, TotalGrossing: totalGrossing}
}

func (m *Movie) Type() NodeType { return TypeMovie }

// -----------------------------------------------------------------------
// Actor
// -----------------------------------------------------------------------

// Actor is a performer page. Age is zero when unknown.
// The grossing aggregate is derived from edges; see Graph.Grossing.
type Actor struct {
	nodeBase
	Age int
}

func NewActor(name, url string, age int) *Actor {
	return &Actor{nodeBase: newBase(name, url), Age: age}
}

func (a *Actor) Type() NodeType { return TypeActor }

// Same reports whether a and b denote the same entity: equal ids once both
// are inserted, equal identity keys otherwise.
func Same(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID() != unassigned && b.ID() != unassigned {
		return a.ID() == b.ID()
	}
	return a.URL() == b.URL()
}
