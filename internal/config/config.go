package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for newsflow.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler" yaml:"crawler"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Naver   NaverConfig   `mapstructure:"naver"   yaml:"naver"`
	Store   StoreConfig   `mapstructure:"store"   yaml:"store"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Watch   WatchConfig   `mapstructure:"watch"   yaml:"watch"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// CrawlerConfig controls the listing crawl.
type CrawlerConfig struct {
	ListURL        string        `mapstructure:"list_url"        yaml:"list_url"`
	Limit          int           `mapstructure:"limit"           yaml:"limit"`
	Workers        int           `mapstructure:"workers"         yaml:"workers"` // 0 = min(8, GOMAXPROCS)
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// FetcherConfig controls the plain HTTP fetcher used for detail pages.
type FetcherConfig struct {
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	MaxRetries      int           `mapstructure:"max_retries"       yaml:"max_retries"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
}

// BrowserConfig controls the shared Chromium session.
type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"        yaml:"headless"`
	NavTimeout     time.Duration `mapstructure:"nav_timeout"     yaml:"nav_timeout"`
	StepTimeout    time.Duration `mapstructure:"step_timeout"    yaml:"step_timeout"`
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout" yaml:"resolve_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"   yaml:"poll_interval"`
}

// NaverConfig holds destination-platform credentials and limits.
type NaverConfig struct {
	ID       string `mapstructure:"id"        yaml:"id"`
	Password string `mapstructure:"password"  yaml:"password"`
	BatchMax int    `mapstructure:"batch_max" yaml:"batch_max"`
}

// StoreConfig controls the record store.
type StoreConfig struct {
	Type       string `mapstructure:"type"       yaml:"type"` // mongo, memory
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// APIConfig controls the REST facade.
type APIConfig struct {
	Port      int `mapstructure:"port"       yaml:"port"`
	ListLimit int `mapstructure:"list_limit" yaml:"list_limit"`
}

// WatchConfig controls the scheduled crawl loop.
type WatchConfig struct {
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			ListURL:        "https://www.ytn.co.kr/news/list.php?mcd=0102",
			Limit:          10,
			Workers:        0,
			RequestTimeout: 12 * time.Second,
		},
		Fetcher: FetcherConfig{
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			MaxRetries:      2,
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Browser: BrowserConfig{
			Headless:       true,
			NavTimeout:     60 * time.Second,
			StepTimeout:    10 * time.Second,
			ResolveTimeout: 75 * time.Second,
			PollInterval:   500 * time.Millisecond,
		},
		Naver: NaverConfig{
			BatchMax: 3,
		},
		Store: StoreConfig{
			Type:       "mongo",
			URI:        "mongodb://localhost:27017",
			Database:   "newsflow",
			Collection: "news",
		},
		API: APIConfig{
			Port:      8000,
			ListLimit: 200,
		},
		Watch: WatchConfig{
			Schedule: "*/10 * * * *",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
