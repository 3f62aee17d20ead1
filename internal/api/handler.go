package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/moviegraph/internal/config"
	"github.com/gyaneshwarpardhi/moviegraph/internal/crawl"
	"github.com/gyaneshwarpardhi/moviegraph/internal/graph"
	"github.com/gyaneshwarpardhi/moviegraph/internal/query"
)

const defaultTopN = 10

// StatsSource reports the progress of the crawl that built the graph.
type StatsSource interface {
	Stats() crawl.Stats
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	q      *query.Service
	stats  StatsSource    // nil when the graph was loaded from disk
	loader *config.Loader // nil when running without a config file
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(q *query.Service, stats StatsSource, loader *config.Loader) http.Handler {
	h := &Handler{q: q, stats: stats, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/nodes", h.listNodes)
	h.mux.HandleFunc("GET /v1/movies/{name}/gross", h.movieGross)
	h.mux.HandleFunc("GET /v1/movies/{name}/actors", h.movieActors)
	h.mux.HandleFunc("GET /v1/actors/{name}/movies", h.actorMovies)
	h.mux.HandleFunc("GET /v1/actors/top", h.topActors)
	h.mux.HandleFunc("GET /v1/actors/oldest", h.oldestActors)
	h.mux.HandleFunc("GET /v1/years/{year}/movies", h.yearMovies)
	h.mux.HandleFunc("GET /v1/years/{year}/actors", h.yearActors)
	h.mux.HandleFunc("GET /v1/graph", h.dump)
	h.mux.HandleFunc("GET /v1/crawl", h.crawlStats)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// GET /v1/nodes?type=Movie&year=2018&where=age>60 lists nodes matching every
// attribute parameter and the optional filter expression.
func (h *Handler) listNodes(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	constraints := make(map[string]any)
	for key, values := range params {
		if key == "where" {
			continue
		}
		if !graph.IsAttribute(key) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown attribute %q", key))
			return
		}
		constraints[key] = values[0]
	}
	nodes, err := h.q.Search(constraints, params.Get("where"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeNodes(w, h.q.Graph(), nodes)
}

// GET /v1/movies/{name}/gross
func (h *Handler) movieGross(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	gross, err := h.q.MovieGross(name)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"movie":          name,
		"total_grossing": gross,
	})
}

// GET /v1/movies/{name}/actors
func (h *Handler) movieActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.q.ActorsInMovie(r.PathValue("name"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeNodes(w, h.q.Graph(), actors)
}

// GET /v1/actors/{name}/movies
func (h *Handler) actorMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.q.MoviesOfActor(r.PathValue("name"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeNodes(w, h.q.Graph(), movies)
}

// GET /v1/actors/top?n=10: actors ranked by weighted grossing.
func (h *Handler) topActors(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r.URL.Query().Get("n"), defaultTopN)
	if !ok {
		return
	}
	ranked, err := h.q.TopActorsByGrossing(n)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(ranked))
	for _, ag := range ranked {
		out = append(out, map[string]interface{}{
			"id":       ag.Actor.ID(),
			"name":     ag.Actor.Name(),
			"url":      ag.Actor.URL(),
			"grossing": ag.Grossing,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(out), "actors": out})
}

// GET /v1/actors/oldest?n=10
func (h *Handler) oldestActors(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r.URL.Query().Get("n"), defaultTopN)
	if !ok {
		return
	}
	actors, err := h.q.OldestActors(n)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeNodes(w, h.q.Graph(), actors)
}

// GET /v1/years/{year}/movies
func (h *Handler) yearMovies(w http.ResponseWriter, r *http.Request) {
	year, ok := intParam(w, r.PathValue("year"), 0)
	if !ok {
		return
	}
	writeNodes(w, h.q.Graph(), h.q.MoviesOfYear(year))
}

// GET /v1/years/{year}/actors
func (h *Handler) yearActors(w http.ResponseWriter, r *http.Request) {
	year, ok := intParam(w, r.PathValue("year"), 0)
	if !ok {
		return
	}
	writeNodes(w, h.q.Graph(), h.q.ActorsOfYear(year))
}

// GET /v1/graph: the full serialized document.
func (h *Handler) dump(w http.ResponseWriter, r *http.Request) {
	data, err := h.q.Graph().Serialize()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GET /v1/crawl: stats of the crawl run that built the graph.
func (h *Handler) crawlStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		writeError(w, http.StatusNotFound, "graph was loaded from disk, no crawl ran")
		return
	}
	writeJSON(w, http.StatusOK, h.stats.Stats())
}

// POST /v1/config/reload: re-read the config file; OnChange hooks apply new limits.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusNotFound, "no config file in use")
		return
	}
	cfg, err := h.loader.Reload()
	switch {
	case errors.Is(err, config.ErrInvalid):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":     true,
		"actor_limit":  cfg.Crawl.ActorLimit,
		"movie_limit":  cfg.Crawl.MovieLimit,
		"limit_policy": cfg.Crawl.LimitPolicy,
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"nodes":  h.q.Graph().NodeCount(),
		"edges":  h.q.Graph().EdgeCount(),
	})
}

// intParam parses raw as a non-negative integer, writing a 400 on failure.
// An empty raw yields def.
func intParam(w http.ResponseWriter, raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%q is not a valid number", raw))
		return 0, false
	}
	return n, true
}

func writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, query.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, query.ErrAmbiguous):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, query.ErrInvalidArgs):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
