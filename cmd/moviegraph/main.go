package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/moviegraph/internal/api"
	"github.com/gyaneshwarpardhi/moviegraph/internal/config"
	"github.com/gyaneshwarpardhi/moviegraph/internal/crawl"
	"github.com/gyaneshwarpardhi/moviegraph/internal/extract"
	"github.com/gyaneshwarpardhi/moviegraph/internal/graph"
	"github.com/gyaneshwarpardhi/moviegraph/internal/query"
	"github.com/gyaneshwarpardhi/moviegraph/internal/store"
)

func main() {
	def := config.Default()
	start := flag.String("s", def.Crawl.Start, "Start page reference")
	actors := flag.Int("a", def.Crawl.ActorLimit, "Actor limit (<= 0 for none)")
	movies := flag.Int("m", def.Crawl.MovieLimit, "Movie limit (<= 0 for none)")
	out := flag.String("o", def.Output.Path, "Where to save a fresh crawl")
	load := flag.String("f", "", "Load a saved graph instead of crawling")
	cfgPath := flag.String("config", "", "Path to YAML config")
	addr := flag.String("addr", "", "Serve the query API on this address after the graph is ready")
	workers := flag.Int("workers", def.Crawl.Workers, "Concurrent page fetches")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	config.LoadEnv()
	var loader *config.Loader
	cfg := def
	if *cfgPath != "" {
		var err error
		loader, err = config.NewLoader(*cfgPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loader.Config()
	} else {
		config.ApplyEnv(cfg)
	}

	// Flags given explicitly win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			cfg.Crawl.Start = *start
		case "a":
			cfg.Crawl.ActorLimit = *actors
		case "m":
			cfg.Crawl.MovieLimit = *movies
		case "o":
			cfg.Output.Path = *out
		case "addr":
			cfg.Server.Addr = *addr
		case "workers":
			cfg.Crawl.Workers = *workers
		}
	})
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Build or load the graph ──────────────────────────────────────────────
	var (
		g     *graph.Graph
		stats api.StatsSource
	)
	if *load != "" {
		var err error
		if g, err = store.Load(*load); err != nil {
			slog.Error("failed to load graph", "err", err)
			os.Exit(1)
		}
	} else {
		g = graph.New()
		crawler, err := buildCrawler(g, cfg)
		if err != nil {
			slog.Error("failed to set up crawl", "err", err)
			os.Exit(1)
		}
		stats = crawler
		if loader != nil {
			if stopWatch := watchLimits(loader, crawler); stopWatch != nil {
				defer stopWatch()
			}
		}
		if err := runCrawl(ctx, crawler, g, cfg.Output.Path); err != nil {
			slog.Error("crawl failed", "err", err)
			os.Exit(1)
		}
	}
	slog.Info("graph ready",
		"nodes", g.NodeCount(),
		"movies", g.CountNodes(graph.TypeMovie),
		"actors", g.CountNodes(graph.TypeActor),
		"edges", g.EdgeCount(),
	)

	if cfg.Server.Addr == "" || ctx.Err() != nil {
		return
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	if err := serve(ctx, cfg.Server.Addr, api.New(query.New(g), stats, loader)); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
	slog.Info("goodbye")
}

func buildCrawler(g *graph.Graph, cfg *config.Config) (*crawl.Crawler, error) {
	client, err := extract.NewClient(extract.Options{
		BaseURL:   cfg.Crawl.BaseURL,
		UserAgent: cfg.Crawl.UserAgent,
		CacheSize: cfg.Crawl.PageCacheSize,
	})
	if err != nil {
		return nil, err
	}
	return crawl.New(g, client, cfg.Crawl)
}

// watchLimits hot-reloads crawl limits from the config file. The loader only
// fires OnChange for configs that pass Validate.
func watchLimits(loader *config.Loader, crawler *crawl.Crawler) (stop func()) {
	loader.OnChange(func(newCfg *config.Config) {
		limits, err := crawl.LimitsFrom(newCfg.Crawl)
		if err != nil {
			slog.Warn("hot-reload skipped", "err", err)
			return
		}
		crawler.SetLimits(limits)
	})
	stop, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		return nil
	}
	return stop
}

// runCrawl crawls and saves the result. A crawl cut short by its deadline or
// a signal still saves what it found.
func runCrawl(ctx context.Context, crawler *crawl.Crawler, g *graph.Graph, path string) error {
	_, err := crawler.Run(ctx)
	switch {
	case errors.Is(err, crawl.ErrDeadlineExceeded), errors.Is(err, context.Canceled):
		slog.Warn("crawl stopped early, saving partial graph", "err", err)
	case err != nil:
		return err
	}
	return store.Save(path, g)
}

func serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	grp.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down…")
		shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	return grp.Wait()
}
