package config

// Config is the top-level YAML structure.
type Config struct {
	Version string     `yaml:"version"`
	Crawl   CrawlConf  `yaml:"crawl"`
	Output  OutputConf `yaml:"output"`
	Server  ServerConf `yaml:"server"`
}

// CrawlConf holds the traversal settings.
type CrawlConf struct {
	Start     string `yaml:"start"`    // seed movie reference
	BaseURL   string `yaml:"base_url"` // origin relative references resolve against
	UserAgent string `yaml:"user_agent"`

	ActorLimit  int    `yaml:"actor_limit"`  // <= 0 = unbounded
	MovieLimit  int    `yaml:"movie_limit"`  // <= 0 = unbounded
	LimitPolicy string `yaml:"limit_policy"` // "both" or "either"
	Frontier    string `yaml:"frontier"`     // "lifo" or "fifo"

	Workers        int `yaml:"workers"`
	FetchTimeoutMs int `yaml:"fetch_timeout_ms"`
	DeadlineMs     int `yaml:"deadline_ms"` // 0 = no overall deadline
	PageCacheSize  int `yaml:"page_cache_size"`
}

// OutputConf controls where a fresh crawl is saved.
type OutputConf struct {
	Path string `yaml:"path"`
}

// ServerConf configures the query API. An empty Addr disables it.
type ServerConf struct {
	Addr string `yaml:"addr"`
}
