package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStart     = "/wiki/Titanic_(1997_film)"
	DefaultBaseURL   = "https://en.wikipedia.org"
	DefaultUserAgent = "moviegraph/1.0 (+https://github.com/gyaneshwarpardhi/moviegraph)"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Version: "v1"}
	cfg.Crawl.ActorLimit = 250
	cfg.Crawl.MovieLimit = 125
	cfg.Output.Path = "out.json"
	applyDefaults(cfg)
	return cfg
}

// LoadEnv reads a .env file if present. Missing files are not an error.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}
}

// ApplyEnv overrides cfg with MOVIEGRAPH_* environment variables.
func ApplyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		v, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			slog.Warn("ignoring non-numeric environment override", "key", key, "value", v)
			return
		}
		*dst = n
	}
	str("MOVIEGRAPH_START", &cfg.Crawl.Start)
	str("MOVIEGRAPH_BASE_URL", &cfg.Crawl.BaseURL)
	str("MOVIEGRAPH_USER_AGENT", &cfg.Crawl.UserAgent)
	str("MOVIEGRAPH_LIMIT_POLICY", &cfg.Crawl.LimitPolicy)
	str("MOVIEGRAPH_FRONTIER", &cfg.Crawl.Frontier)
	num("MOVIEGRAPH_ACTOR_LIMIT", &cfg.Crawl.ActorLimit)
	num("MOVIEGRAPH_MOVIE_LIMIT", &cfg.Crawl.MovieLimit)
	num("MOVIEGRAPH_WORKERS", &cfg.Crawl.Workers)
	num("MOVIEGRAPH_FETCH_TIMEOUT_MS", &cfg.Crawl.FetchTimeoutMs)
	num("MOVIEGRAPH_DEADLINE_MS", &cfg.Crawl.DeadlineMs)
	str("MOVIEGRAPH_OUTPUT", &cfg.Output.Path)
	str("MOVIEGRAPH_ADDR", &cfg.Server.Addr)
}

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload failed, keeping previous config", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the config file. A file that fails
// Validate is rejected and the previous config stays current.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", l.path, err)
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	// Keys the file omits keep the built-in values; an explicit 0 limit stays unbounded.
	cfg := Default()
	cfg.Version = ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	ApplyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Crawl.Start == "" {
		cfg.Crawl.Start = DefaultStart
	}
	if cfg.Crawl.BaseURL == "" {
		cfg.Crawl.BaseURL = DefaultBaseURL
	}
	if cfg.Crawl.UserAgent == "" {
		cfg.Crawl.UserAgent = DefaultUserAgent
	}
	if cfg.Crawl.LimitPolicy == "" {
		cfg.Crawl.LimitPolicy = "both"
	}
	if cfg.Crawl.Frontier == "" {
		cfg.Crawl.Frontier = "lifo"
	}
	if cfg.Crawl.Workers == 0 {
		cfg.Crawl.Workers = 1
	}
	if cfg.Crawl.FetchTimeoutMs == 0 {
		cfg.Crawl.FetchTimeoutMs = 15000
	}
	if cfg.Crawl.PageCacheSize == 0 {
		cfg.Crawl.PageCacheSize = 1024
	}
}
