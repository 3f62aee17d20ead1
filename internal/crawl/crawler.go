package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/moviegraph/internal/config"
	"github.com/gyaneshwarpardhi/moviegraph/internal/extract"
	"github.com/gyaneshwarpardhi/moviegraph/internal/graph"
	"github.com/gyaneshwarpardhi/moviegraph/internal/metrics"
)

// ErrDeadlineExceeded is returned by Run when the overall crawl deadline
// expires. The graph built so far stays valid.
var ErrDeadlineExceeded = errors.New("crawl deadline exceeded")

// Extractor fetches a reference and classifies it.
type Extractor interface {
	Extract(ctx context.Context, ref string) (*extract.Page, error)
}

// Reason records why a crawl stopped.
type Reason string

const (
	ReasonRunning           Reason = "running"
	ReasonFrontierExhausted Reason = "frontier_exhausted"
	ReasonLimitsReached     Reason = "limits_reached"
	ReasonDeadlineExceeded  Reason = "deadline_exceeded"
	ReasonCancelled         Reason = "cancelled"
)

// Stats summarises a crawl run.
type Stats struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Fetched    int       `json:"pages_fetched"`
	Skipped    int       `json:"pages_skipped"`
	Failed     int       `json:"pages_failed"`
	Dropped    int       `json:"pages_dropped"`
	Actors     int       `json:"actors"`
	Movies     int       `json:"movies"`
	Edges      int       `json:"edges"`
	Frontier   int       `json:"frontier"`
	Reason     Reason    `json:"reason"`
}

// Crawler drives the frontier and grows the graph.
type Crawler struct {
	graph      *graph.Graph
	extractor  Extractor
	frontier   *Frontier
	discipline Discipline
	conf       config.CrawlConf
	limits     atomic.Pointer[Limits]

	mu    sync.Mutex
	stats Stats
}

// batchItem carries an item's position so fetched results can be applied in pop order.
type batchItem struct {
	index int
	item  Item
}

type fetchResult struct {
	page *extract.Page
	err  error
}

// New creates a Crawler over g, seeded with conf.Start.
func New(g *graph.Graph, ex Extractor, conf config.CrawlConf) (*Crawler, error) {
	d := LIFO
	if conf.Frontier != "" {
		var err error
		if d, err = ParseDiscipline(conf.Frontier); err != nil {
			return nil, fmt.Errorf("crawl: %w", err)
		}
	}
	limits, err := LimitsFrom(conf)
	if err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}
	c := &Crawler{
		graph:      g,
		extractor:  ex,
		frontier:   NewFrontier(d),
		discipline: d,
		conf:       conf,
		stats:      Stats{Reason: ReasonRunning},
	}
	c.limits.Store(&limits)
	c.frontier.Push(Item{Ref: conf.Start, Predecessor: NoPredecessor})
	return c, nil
}

// SetLimits replaces the limits; a running crawl observes them after the current item.
func (c *Crawler) SetLimits(l Limits) {
	c.limits.Store(&l)
	slog.Info("crawl limits updated", "actors", l.Actors, "movies", l.Movies, "policy", l.Policy)
}

// Limits returns the limits currently in force.
func (c *Crawler) Limits() Limits {
	return *c.limits.Load()
}

// Stats returns a snapshot of the current (or last) run.
func (c *Crawler) Stats() Stats {
	c.mu.Lock()
	s := c.stats
	c.mu.Unlock()
	s.Actors = c.graph.CountNodes(graph.TypeActor)
	s.Movies = c.graph.CountNodes(graph.TypeMovie)
	s.Edges = c.graph.EdgeCount()
	s.Frontier = c.frontier.Len()
	if s.FinishedAt.IsZero() && !s.StartedAt.IsZero() {
		s.DurationMs = time.Since(s.StartedAt).Milliseconds()
	}
	return s
}

func (c *Crawler) record(fn func(*Stats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}

// Run processes the frontier until it is empty, the limits are reached, or
// ctx ends. Fetch failures abandon the single item and never abort the run.
// On deadline expiry the returned error wraps ErrDeadlineExceeded.
func (c *Crawler) Run(ctx context.Context) (*Stats, error) {
	if c.conf.DeadlineMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.conf.DeadlineMs)*time.Millisecond)
		defer cancel()
	}
	workers := max(c.conf.Workers, 1)

	runID := uuid.NewString()
	c.record(func(s *Stats) {
		*s = Stats{RunID: runID, StartedAt: time.Now(), Reason: ReasonRunning}
	})
	slog.Info("crawl started", "run_id", runID, "start", c.conf.Start,
		"frontier", c.discipline, "workers", workers, "limits", c.Limits())

	poolCtx, stopPool := context.WithCancel(ctx)
	pool := newWorkerPool[batchItem, fetchResult](poolCtx, workers, workers, c.fetch)
	reason := c.loop(ctx, pool, workers)
	stopPool()
	pool.Drain()

	c.record(func(s *Stats) {
		s.FinishedAt = time.Now()
		s.DurationMs = s.FinishedAt.Sub(s.StartedAt).Milliseconds()
		s.Reason = reason
	})
	stats := c.Stats()
	metrics.CrawlsCompleted.WithLabelValues(string(reason)).Inc()
	slog.Info("crawl finished", "run_id", runID, "reason", reason,
		"actors", stats.Actors, "movies", stats.Movies, "edges", stats.Edges,
		"fetched", stats.Fetched, "failed", stats.Failed, "duration_ms", stats.DurationMs)

	switch reason {
	case ReasonDeadlineExceeded:
		return &stats, fmt.Errorf("%w after %dms", ErrDeadlineExceeded, stats.DurationMs)
	case ReasonCancelled:
		return &stats, fmt.Errorf("crawl cancelled: %w", context.Canceled)
	}
	return &stats, nil
}

func (c *Crawler) loop(ctx context.Context, pool *workerPool[batchItem, fetchResult], size int) Reason {
	for {
		if err := ctx.Err(); err != nil {
			return reasonFor(err)
		}
		batch := c.nextBatch(size)
		if len(batch) == 0 {
			return ReasonFrontierExhausted
		}
		results, err := c.fetchBatch(ctx, pool, batch)
		if err != nil {
			return reasonFor(err)
		}
		for i, it := range batch {
			c.apply(it, results[i])
			if c.limitsReached() {
				return ReasonLimitsReached
			}
		}
	}
}

func reasonFor(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonDeadlineExceeded
	}
	return ReasonCancelled
}

// nextBatch pops up to size items that are not in the graph yet.
// Items already present are consumed and counted as skipped.
func (c *Crawler) nextBatch(size int) []Item {
	batch := make([]Item, 0, size)
	inBatch := make(map[string]struct{}, size)
	for len(batch) < size {
		it, ok := c.frontier.Pop()
		if !ok {
			break
		}
		_, dup := inBatch[it.Ref]
		if dup || c.graph.NodeExists(it.Ref) {
			metrics.FrontierSkipped.Inc()
			c.record(func(s *Stats) { s.Skipped++ })
			continue
		}
		inBatch[it.Ref] = struct{}{}
		batch = append(batch, it)
	}
	return batch
}

// fetchBatch extracts every item concurrently and returns results in batch order.
func (c *Crawler) fetchBatch(ctx context.Context, pool *workerPool[batchItem, fetchResult], batch []Item) ([]fetchResult, error) {
	replies := make(chan jobResult[batchItem, fetchResult], len(batch))
	for i, it := range batch {
		if !pool.Submit(ctx, batchItem{index: i, item: it}, replies) {
			return nil, ctx.Err()
		}
	}
	results := make([]fetchResult, len(batch))
	for range batch {
		select {
		case r := <-replies:
			results[r.payload.index] = r.value
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return results, nil
}

func (c *Crawler) fetch(ctx context.Context, b batchItem) (fetchResult, error) {
	if c.conf.FetchTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.conf.FetchTimeoutMs)*time.Millisecond)
		defer cancel()
	}
	start := time.Now()
	page, err := c.extractor.Extract(ctx, b.item.Ref)
	metrics.FetchDuration.Observe(float64(time.Since(start).Milliseconds()))
	return fetchResult{page: page, err: err}, nil
}

func (c *Crawler) apply(it Item, r fetchResult) {
	if r.err != nil {
		reason := "error"
		if errors.Is(r.err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		c.fail(it, reason, r.err)
		return
	}
	page := r.page
	switch {
	case page == nil:
		c.fail(it, "malformed", errors.New("extractor returned no page"))
	case page.Type == extract.PageMovie && page.Movie != nil:
		c.fetched(page.Type)
		c.addMovie(it, page.Movie)
	case page.Type == extract.PageActor && page.Actor != nil:
		c.fetched(page.Type)
		c.addActor(it, page.Actor)
	case page.Type == extract.PageOther:
		c.fetched(page.Type)
		c.record(func(s *Stats) { s.Dropped++ })
	default:
		c.fail(it, "malformed", fmt.Errorf("%s page without a %s record", page.Type, page.Type))
	}
}

func (c *Crawler) fetched(t extract.PageType) {
	metrics.PagesFetched.WithLabelValues(t.String()).Inc()
	c.record(func(s *Stats) { s.Fetched++ })
}

func (c *Crawler) fail(it Item, reason string, err error) {
	metrics.FetchFailures.WithLabelValues(reason).Inc()
	c.record(func(s *Stats) { s.Failed++ })
	slog.Warn("frontier item abandoned", "ref", it.Ref, "reason", reason, "err", err)
}

func (c *Crawler) addMovie(it Item, rec *extract.MovieRecord) {
	movie := graph.NewMovie(rec.Name, it.Ref, rec.Year, rec.TotalGrossing)
	if !c.graph.AddNode(movie) {
		return
	}
	metrics.NodesAdded.WithLabelValues(string(graph.TypeMovie)).Inc()
	cast := MergeCast(rec.Starring, rec.Cast)
	for _, next := range castItems(cast, movie.ID()) {
		c.frontier.Push(next)
	}
	slog.Debug("movie added", "id", movie.ID(), "name", movie.Name(), "cast", len(cast))
}

func (c *Crawler) addActor(it Item, rec *extract.ActorRecord) {
	actor := graph.NewActor(rec.Name, it.Ref, rec.Age)
	if !c.graph.AddNode(actor) {
		return
	}
	metrics.NodesAdded.WithLabelValues(string(graph.TypeActor)).Inc()
	if it.Predecessor != NoPredecessor {
		// A pair that is already linked is expected here and not an error.
		if _, ok := c.graph.Link(it.Predecessor, actor.ID(), it.Weight); ok {
			metrics.EdgesAdded.Inc()
		}
	}
	for _, ref := range rec.Movies {
		c.frontier.Push(Item{Ref: ref, Predecessor: NoPredecessor})
	}
	slog.Debug("actor added", "id", actor.ID(), "name", actor.Name(), "movies", len(rec.Movies))
}

func (c *Crawler) limitsReached() bool {
	return c.Limits().Reached(c.graph.CountNodes(graph.TypeActor), c.graph.CountNodes(graph.TypeMovie))
}
