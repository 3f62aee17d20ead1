package filter_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/moviegraph/internal/filter"
	"github.com/gyaneshwarpardhi/moviegraph/internal/graph"
)

// newGraph holds two actors and three movies; Actor 2 grosses 130.
func newGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	a1 := graph.NewActor("Kate Winslet", "/a1", 49)
	a2 := graph.NewActor("Leonardo DiCaprio", "/a2", 50)
	m1 := graph.NewMovie("Titanic", "/m1", 1997, 100)
	m2 := graph.NewMovie("The Revenant", "/m2", 2015, 500)
	m3 := graph.NewMovie("Inception", "/m3", 2010, 100)
	for _, n := range []graph.Node{a1, a2, m1, m2, m3} {
		g.AddNode(n)
	}
	g.Link(m1.ID(), a1.ID(), 0.1)
	g.Link(m2.ID(), a2.ID(), 0.2)
	g.Link(m1.ID(), a2.ID(), 0.3)
	return g
}

func TestApply(t *testing.T) {
	g := newGraph(t)
	cases := []struct {
		name string
		expr string
		want []string
	}{
		{"type equality", `type == "Movie"`, []string{"Titanic", "The Revenant", "Inception"}},
		{"numeric range", `year >= 2010 AND year < 2015`, []string{"Inception"}},
		{"missing attribute never matches", `age > 0`, []string{"Kate Winslet", "Leonardo DiCaprio"}},
		{"derived grossing", `grossing > 100`, []string{"Leonardo DiCaprio"}},
		{"or", `year == 1997 OR age == 49`, []string{"Kate Winslet", "Titanic"}},
		{"not", `type == "Actor" AND NOT name contains "Kate"`, []string{"Leonardo DiCaprio"}},
		{"parentheses", `(year > 2000 OR age > 49) AND total_grossing != 100`, []string{"The Revenant"}},
		{"matches", `name matches "^The "`, []string{"The Revenant"}},
		{"keywords any case", `type == 'Movie' and not year == 1997`, []string{"The Revenant", "Inception"}},
		{"string escapes", `name == "Kate \"K\" Winslet" OR node_id == 0`, []string{"Kate Winslet"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, err := filter.Compile(c.expr)
			if err != nil {
				t.Fatalf("Compile(%q): %v", c.expr, err)
			}
			nodes, err := f.Apply(g, g.Nodes())
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			var got []string
			for _, n := range nodes {
				got = append(got, n.Name())
			}
			if !slices.Equal(got, c.want) {
				t.Errorf("%s matched %v, want %v", c.expr, got, c.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	cases := []struct {
		expr    string
		wantErr string
	}{
		{`budget > 3`, "unknown attribute"},
		{`year > "soon"`, "needs a number"},
		{`name contains 3`, "needs a string"},
		{`name matches "("`, "invalid pattern"},
		{`year = 1997`, "unknown operator"},
		{`(year > 1`, "expected ')'"},
		{`year > 1 year`, "unexpected"},
		{`name == "open`, "unterminated"},
		{`year >`, "expected a literal"},
		{`> 3`, "expected attribute name"},
		{`year ~ 3`, "unexpected character"},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			_, err := filter.Compile(c.expr)
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Errorf("Compile(%q) error = %v, want it to mention %q", c.expr, err, c.wantErr)
			}
		})
	}
}

func TestMatch_TypeMismatch(t *testing.T) {
	g := newGraph(t)
	f, err := filter.Compile(`name > 3`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Match(g, g.Node(0)); err == nil {
		t.Error("expected an error comparing a name numerically")
	}
	if f.String() != `name > 3` {
		t.Errorf("String() = %q", f.String())
	}
}
