package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/moviegraph/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moviegraph.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader_Defaults(t *testing.T) {
	path := writeConfig(t, "version: v1\ncrawl:\n  actor_limit: 10\n")
	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()
	if cfg.Crawl.ActorLimit != 10 || cfg.Crawl.MovieLimit != 125 {
		t.Errorf("limits = %d/%d, want 10/125", cfg.Crawl.ActorLimit, cfg.Crawl.MovieLimit)
	}
	if cfg.Output.Path != "out.json" {
		t.Errorf("output = %q, want out.json", cfg.Output.Path)
	}
	if cfg.Crawl.Start != config.DefaultStart || cfg.Crawl.BaseURL != config.DefaultBaseURL {
		t.Errorf("start/base = %q/%q", cfg.Crawl.Start, cfg.Crawl.BaseURL)
	}
	if cfg.Crawl.Frontier != "lifo" || cfg.Crawl.LimitPolicy != "both" || cfg.Crawl.Workers != 1 {
		t.Errorf("unexpected defaults %+v", cfg.Crawl)
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoader_PartialFile(t *testing.T) {
	cases := []struct {
		name           string
		body           string
		actors, movies int
	}{
		{"limits omitted", "version: v1\ncrawl:\n  workers: 2\n", 250, 125},
		{"explicit unbounded", "version: v1\ncrawl:\n  actor_limit: 0\n", 0, 125},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l, err := config.NewLoader(writeConfig(t, c.body))
			if err != nil {
				t.Fatalf("NewLoader: %v", err)
			}
			cfg := l.Config()
			if cfg.Crawl.ActorLimit != c.actors || cfg.Crawl.MovieLimit != c.movies {
				t.Errorf("limits = %d/%d, want %d/%d", cfg.Crawl.ActorLimit, cfg.Crawl.MovieLimit, c.actors, c.movies)
			}
			if cfg.Output.Path != "out.json" {
				t.Errorf("output = %q, want out.json", cfg.Output.Path)
			}
			if err := config.Validate(cfg); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}

	l, err := config.NewLoader(writeConfig(t, "crawl:\n  workers: 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := config.Validate(l.Config()); err == nil {
		t.Error("a file without a version should not validate")
	}
}

func TestLoader_ReloadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "version: v1\ncrawl:\n  actor_limit: 4\n")
	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatal(err)
	}
	calls := 0
	l.OnChange(func(*config.Config) { calls++ })

	if err := os.WriteFile(path, []byte("version: v1\ncrawl:\n  actor_limit: 8\n  frontier: random\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = l.Reload()
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("Reload error = %v, want ErrInvalid", err)
	}
	if calls != 0 || l.Config().Crawl.ActorLimit != 4 || l.Config().Crawl.Frontier != "lifo" {
		t.Errorf("invalid reload leaked: %d callbacks, config %+v", calls, l.Config().Crawl)
	}
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Setenv("MOVIEGRAPH_MOVIE_LIMIT", "7")
	t.Setenv("MOVIEGRAPH_FRONTIER", "fifo")
	l, err := config.NewLoader(writeConfig(t, "version: v1\ncrawl:\n  movie_limit: 3\n"))
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if got := l.Config().Crawl.MovieLimit; got != 7 {
		t.Errorf("movie_limit = %d, want 7", got)
	}
	if got := l.Config().Crawl.Frontier; got != "fifo" {
		t.Errorf("frontier = %q, want fifo", got)
	}
}

func TestLoader_ReloadCallbacks(t *testing.T) {
	path := writeConfig(t, "version: v1\ncrawl:\n  actor_limit: 1\n")
	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatal(err)
	}
	var seen []int
	l.OnChange(func(c *config.Config) { seen = append(seen, c.Crawl.ActorLimit) })

	if err := os.WriteFile(path, []byte("version: v1\ncrawl:\n  actor_limit: 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(seen) != 1 || seen[0] != 42 || l.Config().Crawl.ActorLimit != 42 {
		t.Errorf("callbacks saw %v, config has %d", seen, l.Config().Crawl.ActorLimit)
	}

	if err := os.WriteFile(path, []byte("crawl: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err == nil {
		t.Error("expected a parse error")
	}
	if l.Config().Crawl.ActorLimit != 42 {
		t.Error("failed reload replaced the config")
	}
}

func TestLoader_MissingFile(t *testing.T) {
	if _, err := config.NewLoader(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"default is valid", func(*config.Config) {}, ""},
		{"missing version", func(c *config.Config) { c.Version = "" }, "version is required"},
		{"relative base", func(c *config.Config) { c.Crawl.BaseURL = "/wiki" }, "base_url"},
		{"bad policy", func(c *config.Config) { c.Crawl.LimitPolicy = "any" }, "limit_policy"},
		{"bad frontier", func(c *config.Config) { c.Crawl.Frontier = "random" }, "frontier"},
		{"no workers", func(c *config.Config) { c.Crawl.Workers = 0 }, "workers"},
		{"negative deadline", func(c *config.Config) { c.Crawl.DeadlineMs = -1 }, "deadline_ms"},
		{"empty output", func(c *config.Config) { c.Output.Path = " " }, "output.path"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := config.Default()
			c.mutate(cfg)
			err := config.Validate(cfg)
			if c.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, c.wantErr)
			}
		})
	}
}
