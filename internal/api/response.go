package api

import (
	"encoding/json"
	"net/http"

	"github.com/gyaneshwarpardhi/moviegraph/internal/graph"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// nodeView is the wire form of a node. Variant fields are omitted on the other variant.
type nodeView struct {
	ID            int            `json:"id"`
	Type          graph.NodeType `json:"type"`
	Name          string         `json:"name"`
	URL           string         `json:"url"`
	Year          *int           `json:"year,omitempty"`
	TotalGrossing *float64       `json:"total_grossing,omitempty"`
	Age           *int           `json:"age,omitempty"`
	Grossing      *float64       `json:"grossing,omitempty"`
}

func viewOf(g *graph.Graph, n graph.Node) nodeView {
	v := nodeView{ID: n.ID(), Type: n.Type(), Name: n.Name(), URL: n.URL()}
	switch x := n.(type) {
	case *graph.Movie:
		v.Year, v.TotalGrossing = &x.Year, &x.TotalGrossing
	case *graph.Actor:
		gross := g.Grossing(x.ID())
		v.Age, v.Grossing = &x.Age, &gross
	}
	return v
}

func nodeViews[T graph.Node](g *graph.Graph, nodes []T) []nodeView {
	out := make([]nodeView, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, viewOf(g, n))
	}
	return out
}

func writeNodes[T graph.Node](w http.ResponseWriter, g *graph.Graph, nodes []T) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(nodes),
		"nodes": nodeViews(g, nodes),
	})
}
