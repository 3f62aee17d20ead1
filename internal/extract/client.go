package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/gyaneshwarpardhi/moviegraph/internal/metrics"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the origin relative references are resolved against.
	BaseURL   string
	UserAgent string
	// CacheSize bounds the number of extracted pages kept in memory. 0 disables caching.
	CacheSize  int
	HTTPClient *http.Client
}

// Client fetches articles over HTTP and extracts their records.
// It is safe for concurrent use.
type Client struct {
	base      *url.URL
	userAgent string
	http      *http.Client
	cache     *lru.Cache[string, *Page]
	group     singleflight.Group
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("extract: base url %q: %w", opts.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("extract: base url %q must be absolute", opts.BaseURL)
	}
	c := &Client{
		base:      base,
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if opts.CacheSize > 0 {
		c.cache, err = lru.New[string, *Page](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("extract: page cache: %w", err)
		}
	}
	return c, nil
}

// Resolve turns a (possibly relative) reference into an absolute URL.
func (c *Client) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", ref, err)
	}
	return c.base.ResolveReference(u).String(), nil
}

// Extract fetches ref and returns its classified record.
// Concurrent calls for the same ref share one request.
func (c *Client) Extract(ctx context.Context, ref string) (*Page, error) {
	if c.cache != nil {
		if page, ok := c.cache.Get(ref); ok {
			metrics.PageCacheHits.Inc()
			return page, nil
		}
	}
	result, err, _ := c.group.Do(ref, func() (any, error) {
		if c.cache != nil {
			if page, ok := c.cache.Peek(ref); ok {
				return page, nil
			}
		}
		page, err := c.fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			c.cache.Add(ref, page)
		}
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Page), nil
}

func (c *Client) fetch(ctx context.Context, ref string) (*Page, error) {
	target, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
	}
	return Parse(ref, resp.Body)
}
