// Package query answers the questions the crawled graph is built for:
// who acted in what, how much a movie made, and which actors rank highest.
package query

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gyaneshwarpardhi/moviegraph/internal/filter"
	"github.com/gyaneshwarpardhi/moviegraph/internal/graph"
)

var (
	ErrNotFound    = errors.New("query: not found")
	ErrAmbiguous   = errors.New("query: name matches more than one node")
	ErrInvalidArgs = errors.New("query: invalid argument")
)

// ActorGrossing pairs an actor with its weighted box-office share.
type ActorGrossing struct {
	Actor    *graph.Actor
	Grossing float64
}

// Service runs read-only queries over a graph.
type Service struct {
	g *graph.Graph
}

// New returns a Service reading from g.
func New(g *graph.Graph) *Service {
	return &Service{g: g}
}

// Graph returns the graph the service reads.
func (s *Service) Graph() *graph.Graph { return s.g }

// ListNodes returns every node of the given type in insertion order.
func (s *Service) ListNodes(t graph.NodeType) ([]graph.Node, error) {
	if t != graph.TypeMovie && t != graph.TypeActor {
		return nil, fmt.Errorf("%w: node type %q", ErrInvalidArgs, t)
	}
	return s.g.QueryNodes(map[string]any{"type": t}), nil
}

// Search returns the nodes matching every equality constraint and, when where
// is not empty, the filter expression in where.
func (s *Service) Search(constraints map[string]any, where string) ([]graph.Node, error) {
	nodes := s.g.QueryNodes(constraints)
	if where == "" {
		return nodes, nil
	}
	f, err := filter.Compile(where)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	matched, err := f.Apply(s.g, nodes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	return matched, nil
}

// MovieGross returns the total grossing of the movie with the given name.
func (s *Service) MovieGross(name string) (float64, error) {
	m, err := s.movie(name)
	if err != nil {
		return 0, err
	}
	return m.TotalGrossing, nil
}

// MoviesOfActor lists the movies linked to the named actor.
func (s *Service) MoviesOfActor(name string) ([]*graph.Movie, error) {
	a, err := s.actor(name)
	if err != nil {
		return nil, err
	}
	return peersOf[*graph.Movie](s.g, a.ID()), nil
}

// ActorsInMovie lists the actors linked to the named movie.
func (s *Service) ActorsInMovie(name string) ([]*graph.Actor, error) {
	m, err := s.movie(name)
	if err != nil {
		return nil, err
	}
	return peersOf[*graph.Actor](s.g, m.ID()), nil
}

// TopActorsByGrossing returns up to n actors ordered by grossing, highest first.
// Ties keep insertion order.
func (s *Service) TopActorsByGrossing(n int) ([]ActorGrossing, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: n must not be negative", ErrInvalidArgs)
	}
	actors := nodesOf[*graph.Actor](s.g, graph.TypeActor)
	ranked := make([]ActorGrossing, len(actors))
	for i, a := range actors {
		ranked[i] = ActorGrossing{Actor: a, Grossing: s.g.Grossing(a.ID())}
	}
	slices.SortStableFunc(ranked, func(a, b ActorGrossing) int {
		switch {
		case a.Grossing > b.Grossing:
			return -1
		case a.Grossing < b.Grossing:
			return 1
		}
		return 0
	})
	return ranked[:min(n, len(ranked))], nil
}

// OldestActors returns up to n actors ordered by age, oldest first.
func (s *Service) OldestActors(n int) ([]*graph.Actor, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: n must not be negative", ErrInvalidArgs)
	}
	actors := nodesOf[*graph.Actor](s.g, graph.TypeActor)
	slices.SortStableFunc(actors, func(a, b *graph.Actor) int { return b.Age - a.Age })
	return actors[:min(n, len(actors))], nil
}

// MoviesOfYear lists the movies released in year.
func (s *Service) MoviesOfYear(year int) []*graph.Movie {
	return nodesOf[*graph.Movie](s.g, graph.TypeMovie, "year", year)
}

// ActorsOfYear lists the actors of every movie released in year. An actor in
// several of those movies is listed once, at its first appearance.
func (s *Service) ActorsOfYear(year int) []*graph.Actor {
	var out []*graph.Actor
	seen := make(map[int]struct{})
	for _, m := range s.MoviesOfYear(year) {
		for _, a := range peersOf[*graph.Actor](s.g, m.ID()) {
			if _, ok := seen[a.ID()]; ok {
				continue
			}
			seen[a.ID()] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

func (s *Service) movie(name string) (*graph.Movie, error) {
	return unique[*graph.Movie](s.g, graph.TypeMovie, name)
}

func (s *Service) actor(name string) (*graph.Actor, error) {
	return unique[*graph.Actor](s.g, graph.TypeActor, name)
}

func unique[T graph.Node](g *graph.Graph, t graph.NodeType, name string) (T, error) {
	var zero T
	found := nodesOf[T](g, t, "name", name)
	switch len(found) {
	case 0:
		return zero, fmt.Errorf("%w: %s %q", ErrNotFound, t, name)
	case 1:
		return found[0], nil
	}
	return zero, fmt.Errorf("%w: %d of type %s are named %q", ErrAmbiguous, len(found), t, name)
}

// nodesOf queries nodes of type t plus optional attribute/value pairs.
func nodesOf[T graph.Node](g *graph.Graph, t graph.NodeType, kv ...any) []T {
	constraints := map[string]any{"type": t}
	for i := 0; i+1 < len(kv); i += 2 {
		constraints[kv[i].(string)] = kv[i+1]
	}
	var out []T
	for _, n := range g.QueryNodes(constraints) {
		if v, ok := n.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func peersOf[T graph.Node](g *graph.Graph, id int) []T {
	var out []T
	for _, n := range g.Peers(id) {
		if v, ok := n.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
