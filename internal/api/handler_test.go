package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/moviegraph/internal/api"
	"github.com/gyaneshwarpardhi/moviegraph/internal/config"
	"github.com/gyaneshwarpardhi/moviegraph/internal/crawl"
	"github.com/gyaneshwarpardhi/moviegraph/internal/graph"
	"github.com/gyaneshwarpardhi/moviegraph/internal/query"
)

type fixedStats crawl.Stats

func (s fixedStats) Stats() crawl.Stats { return crawl.Stats(s) }

func newGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	a1 := graph.NewActor("Actor 1", "/a1", 10)
	a2 := graph.NewActor("Actor 2", "/a2", 12)
	m1 := graph.NewMovie("Movie 1", "/m1", 2019, 100)
	m2 := graph.NewMovie("Movie 2", "/m2", 2018, 500)
	for _, n := range []graph.Node{a1, a2, m1, m2} {
		g.AddNode(n)
	}
	g.Link(m1.ID(), a1.ID(), 0.1)
	g.Link(m2.ID(), a2.ID(), 0.2)
	g.Link(m1.ID(), a2.ID(), 0.3)
	return g
}

type listResponse struct {
	Count int `json:"count"`
	Nodes []struct {
		ID       int      `json:"id"`
		Type     string   `json:"type"`
		Name     string   `json:"name"`
		Year     *int     `json:"year"`
		Age      *int     `json:"age"`
		Grossing *float64 `json:"grossing"`
	} `json:"nodes"`
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestRoutes_Status(t *testing.T) {
	h := api.New(query.New(newGraph(t)), nil, nil)
	cases := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"nodes", "GET", "/v1/nodes", http.StatusOK},
		{"unknown attribute", "GET", "/v1/nodes?budget=1", http.StatusBadRequest},
		{"where", "GET", "/v1/nodes?where=age%20%3E%2011", http.StatusOK},
		{"bad where", "GET", "/v1/nodes?where=age%20%3E", http.StatusBadRequest},
		{"gross", "GET", "/v1/movies/Movie%202/gross", http.StatusOK},
		{"gross missing", "GET", "/v1/movies/Nope/gross", http.StatusNotFound},
		{"cast", "GET", "/v1/movies/Movie%201/actors", http.StatusOK},
		{"filmography", "GET", "/v1/actors/Actor%202/movies", http.StatusOK},
		{"top", "GET", "/v1/actors/top?n=1", http.StatusOK},
		{"top bad n", "GET", "/v1/actors/top?n=-3", http.StatusBadRequest},
		{"oldest", "GET", "/v1/actors/oldest", http.StatusOK},
		{"year movies", "GET", "/v1/years/2018/movies", http.StatusOK},
		{"year not a number", "GET", "/v1/years/next/actors", http.StatusBadRequest},
		{"graph", "GET", "/v1/graph", http.StatusOK},
		{"no crawl", "GET", "/v1/crawl", http.StatusNotFound},
		{"no config", "POST", "/v1/config/reload", http.StatusNotFound},
		{"health", "GET", "/healthz", http.StatusOK},
		{"metrics", "GET", "/metrics", http.StatusOK},
		{"wrong method", "POST", "/v1/nodes", http.StatusMethodNotAllowed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := do(t, h, c.method, c.target)
			if rec.Code != c.want {
				t.Errorf("%s %s = %d, want %d (%s)", c.method, c.target, rec.Code, c.want, rec.Body.String())
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("missing request id")
			}
		})
	}
}

func TestListNodes_Filters(t *testing.T) {
	h := api.New(query.New(newGraph(t)), nil, nil)
	resp := decode[listResponse](t, do(t, h, "GET", "/v1/nodes?type=Movie&year=2018"))
	if resp.Count != 1 || len(resp.Nodes) != 1 {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Nodes[0].Name != "Movie 2" || resp.Nodes[0].Year == nil || *resp.Nodes[0].Year != 2018 {
		t.Errorf("node = %+v", resp.Nodes[0])
	}
	if resp.Nodes[0].Age != nil {
		t.Error("movie carries an age")
	}
}

func TestListNodes_Where(t *testing.T) {
	h := api.New(query.New(newGraph(t)), nil, nil)
	resp := decode[listResponse](t, do(t, h, "GET", "/v1/nodes?type=Actor&where=grossing%20%3E%20100"))
	if resp.Count != 1 || len(resp.Nodes) != 1 || resp.Nodes[0].Name != "Actor 2" {
		t.Errorf("response = %+v", resp)
	}
}

func TestActorsInMovie_Grossing(t *testing.T) {
	h := api.New(query.New(newGraph(t)), nil, nil)
	resp := decode[listResponse](t, do(t, h, "GET", "/v1/movies/Movie%201/actors"))
	if resp.Count != 2 || len(resp.Nodes) != 2 || resp.Nodes[1].Grossing == nil {
		t.Fatalf("response = %+v", resp)
	}
	// Actor 2: 500*0.2 + 100*0.3
	if got := *resp.Nodes[1].Grossing; got < 129.999 || got > 130.001 {
		t.Errorf("Actor 2 grossing = %v, want 130", got)
	}
}

type topResponse struct {
	Count  int `json:"count"`
	Actors []struct {
		Name     string  `json:"name"`
		Grossing float64 `json:"grossing"`
	} `json:"actors"`
}

func TestTopActors(t *testing.T) {
	h := api.New(query.New(newGraph(t)), nil, nil)
	resp := decode[topResponse](t, do(t, h, "GET", "/v1/actors/top?n=1"))
	if resp.Count != 1 || len(resp.Actors) != 1 || resp.Actors[0].Name != "Actor 2" {
		t.Errorf("response = %+v", resp)
	}
}

func TestGraphDump(t *testing.T) {
	g := newGraph(t)
	h := api.New(query.New(g), nil, nil)
	rec := do(t, h, "GET", "/v1/graph")
	loaded, err := graph.Parse(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if loaded.NodeCount() != g.NodeCount() || loaded.EdgeCount() != g.EdgeCount() {
		t.Errorf("dump has %d nodes, %d edges", loaded.NodeCount(), loaded.EdgeCount())
	}
}

func TestCrawlStats(t *testing.T) {
	stats := fixedStats{RunID: "run-1", Reason: crawl.ReasonLimitsReached, Actors: 3}
	h := api.New(query.New(newGraph(t)), stats, nil)
	got := decode[crawl.Stats](t, do(t, h, "GET", "/v1/crawl"))
	if got.RunID != "run-1" || got.Reason != crawl.ReasonLimitsReached || got.Actors != 3 {
		t.Errorf("stats = %+v", got)
	}
}

func TestReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moviegraph.yaml")
	if err := os.WriteFile(path, []byte("version: v1\ncrawl:\n  actor_limit: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	loader, err := config.NewLoader(path)
	if err != nil {
		t.Fatal(err)
	}
	var applied int
	loader.OnChange(func(c *config.Config) { applied = c.Crawl.ActorLimit })

	if err := os.WriteFile(path, []byte("version: v1\ncrawl:\n  actor_limit: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := api.New(query.New(newGraph(t)), nil, loader)
	rec := do(t, h, "POST", "/v1/config/reload")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"actor_limit":9`) {
		t.Errorf("reload = %d %s", rec.Code, rec.Body.String())
	}
	if applied != 9 {
		t.Errorf("OnChange saw %d, want 9", applied)
	}

	if err := os.WriteFile(path, []byte("version: v1\ncrawl:\n  actor_limit: 3\n  frontier: random\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec = do(t, h, "POST", "/v1/config/reload")
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "frontier") {
		t.Errorf("invalid reload = %d %s", rec.Code, rec.Body.String())
	}
	if applied != 9 || loader.Config().Crawl.ActorLimit != 9 {
		t.Errorf("invalid reload applied: OnChange saw %d, config has %d", applied, loader.Config().Crawl.ActorLimit)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	h := api.New(query.New(graph.New()), nil, nil)
	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("request id = %q", got)
	}
}
