package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalid is wrapped by every error Validate returns.
var ErrInvalid = errors.New("invalid config")

// Validate checks the config for:
//   - Required fields (version, start reference, absolute base URL, output path)
//   - Known enum values for limit_policy and frontier
//   - Non-negative sizes and timeouts
func Validate(cfg *Config) error {
	var errs []string
	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}

	c := cfg.Crawl
	if strings.TrimSpace(c.Start) == "" {
		errs = append(errs, "crawl.start is required")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("crawl.base_url %q must be an absolute URL", c.BaseURL))
	}
	switch c.LimitPolicy {
	case "both", "either":
	default:
		errs = append(errs, fmt.Sprintf("crawl.limit_policy %q must be one of both, either", c.LimitPolicy))
	}
	switch c.Frontier {
	case "lifo", "fifo":
	default:
		errs = append(errs, fmt.Sprintf("crawl.frontier %q must be one of lifo, fifo", c.Frontier))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Sprintf("crawl.workers must be at least 1, got %d", c.Workers))
	}
	if c.FetchTimeoutMs < 0 {
		errs = append(errs, "crawl.fetch_timeout_ms must not be negative")
	}
	if c.DeadlineMs < 0 {
		errs = append(errs, "crawl.deadline_ms must not be negative")
	}
	if c.PageCacheSize < 0 {
		errs = append(errs, "crawl.page_cache_size must not be negative")
	}
	if strings.TrimSpace(cfg.Output.Path) == "" {
		errs = append(errs, "output.path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalid, strings.Join(errs, "\n  - "))
	}
	return nil
}
