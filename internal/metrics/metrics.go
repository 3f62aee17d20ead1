package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_pages_fetched_total",
		Help: "Total number of pages fetched, labelled by page type (movie, actor, other).",
	}, []string{"page_type"})

	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_fetch_failures_total",
		Help: "Total number of frontier items abandoned, labelled by reason (timeout, error, malformed).",
	}, []string{"reason"})

	FrontierSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moviegraph_frontier_skipped_total",
		Help: "Total number of frontier items skipped because the page was already in the graph.",
	})

	NodesAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_nodes_added_total",
		Help: "Total number of nodes inserted by the crawler, labelled by node type.",
	}, []string{"node_type"})

	EdgesAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moviegraph_edges_added_total",
		Help: "Total number of movie/actor relationships created by the crawler.",
	})

	FrontierSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moviegraph_frontier_size",
		Help: "Current number of pending references on the crawl frontier.",
	})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moviegraph_fetch_duration_ms",
		Help:    "Page fetch and extraction latency in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	PageCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moviegraph_page_cache_hits_total",
		Help: "Total number of extractions served from the page cache.",
	})

	CrawlsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_crawls_completed_total",
		Help: "Total number of crawl runs, labelled by termination reason.",
	}, []string{"reason"})
)
