package graph

import (
	"encoding/json"
	"fmt"
)

// variant describes how one node type is persisted.
type variant struct {
	typ NodeType
	// keys lists every attribute a persisted entry of this type may carry.
	keys map[string]struct{}
	// encode returns the entry written for n.
	encode func(n Node) any
	// decode builds a detached node from a schema-checked entry.
	decode func(raw []byte) (Node, int, error)
}

// variants maps discriminator values to their codec. It is closed over
// {Movie, Actor} and filled once at init.
var variants = make(map[NodeType]*variant)

func register(v *variant) {
	if _, exists := variants[v.typ]; exists {
		panic(fmt.Sprintf("graph registry: duplicate node type %q", v.typ))
	}
	variants[v.typ] = v
}

func keySet(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

type movieEntry struct {
	Type          NodeType `json:"type"`
	NodeID        int      `json:"node_id"`
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	Year          int      `json:"year"`
	TotalGrossing float64  `json:"total_grossing"`
}

type actorEntry struct {
	Type   NodeType `json:"type"`
	NodeID int      `json:"node_id"`
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Age    int      `json:"age"`
}

func init() {
	register(&variant{
		typ:  TypeMovie,
		keys: keySet("type", "node_id", "name", "url", "year", "total_grossing"),
		encode: func(n Node) any {
			m := n.(*Movie)
			return movieEntry{
				Type:          TypeMovie,
				NodeID:        m.id,
				Name:          m.name,
				URL:           m.url,
				Year:          m.Year,
				TotalGrossing: m.TotalGrossing,
			}
		},
		decode: func(raw []byte) (Node, int, error) {
			var e movieEntry
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, 0, err
			}
			return NewMovie(e.Name, e.URL, e.Year, e.TotalGrossing), e.NodeID, nil
		},
	})
	register(&variant{
		typ:  TypeActor,
		keys: keySet("type", "node_id", "name", "url", "age"),
		encode: func(n Node) any {
			a := n.(*Actor)
			return actorEntry{
				Type:   TypeActor,
				NodeID: a.id,
				Name:   a.name,
				URL:    a.url,
				Age:    a.Age,
			}
		},
		decode: func(raw []byte) (Node, int, error) {
			var e actorEntry
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, 0, err
			}
			return NewActor(e.Name, e.URL, e.Age), e.NodeID, nil
		},
	})
}
