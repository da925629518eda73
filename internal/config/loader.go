package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from .env files, environment, and an optional
// YAML config file. Priority (highest to lowest): env vars > config file >
// defaults. .env files never override variables already set in the
// environment.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	loadDotEnv()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("NEWSFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy env names carried over from earlier deployments.
	_ = v.BindEnv("crawler.list_url", "NEWSFLOW_CRAWLER_LIST_URL", "YTN_LIST_URL")
	_ = v.BindEnv("naver.id", "NEWSFLOW_NAVER_ID", "NAVER_ID")
	_ = v.BindEnv("naver.password", "NEWSFLOW_NAVER_PASSWORD", "NAVER_PW")
	_ = v.BindEnv("store.uri", "NEWSFLOW_STORE_URI", "MONGO_URI")
	_ = v.BindEnv("store.collection", "NEWSFLOW_STORE_COLLECTION", "NEWS_COLLECTION")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("newsflow")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".newsflow"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads layered .env files: config/.env first, then the project
// root .env. Existing environment variables win.
func loadDotEnv() {
	for _, path := range []string{filepath.Join("config", ".env"), ".env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("crawler.list_url", cfg.Crawler.ListURL)
	v.SetDefault("crawler.limit", cfg.Crawler.Limit)
	v.SetDefault("crawler.workers", cfg.Crawler.Workers)
	v.SetDefault("crawler.request_timeout", cfg.Crawler.RequestTimeout)

	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.nav_timeout", cfg.Browser.NavTimeout)
	v.SetDefault("browser.step_timeout", cfg.Browser.StepTimeout)
	v.SetDefault("browser.resolve_timeout", cfg.Browser.ResolveTimeout)
	v.SetDefault("browser.poll_interval", cfg.Browser.PollInterval)

	v.SetDefault("naver.batch_max", cfg.Naver.BatchMax)

	v.SetDefault("store.type", cfg.Store.Type)
	v.SetDefault("store.uri", cfg.Store.URI)
	v.SetDefault("store.database", cfg.Store.Database)
	v.SetDefault("store.collection", cfg.Store.Collection)

	v.SetDefault("api.port", cfg.API.Port)
	v.SetDefault("api.list_limit", cfg.API.ListLimit)

	v.SetDefault("watch.schedule", cfg.Watch.Schedule)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
