package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Crawler.ListURL == "" {
		return fmt.Errorf("crawler.list_url must not be empty")
	}
	if u, err := url.Parse(cfg.Crawler.ListURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("crawler.list_url %q is not a valid http(s) URL", cfg.Crawler.ListURL)
	}
	if cfg.Crawler.Limit < 1 {
		return fmt.Errorf("crawler.limit must be >= 1, got %d", cfg.Crawler.Limit)
	}
	if cfg.Crawler.Workers < 0 {
		return fmt.Errorf("crawler.workers must be >= 0, got %d", cfg.Crawler.Workers)
	}
	if cfg.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}

	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("fetcher.max_retries must be >= 0")
	}

	if cfg.Browser.ResolveTimeout <= 0 {
		return fmt.Errorf("browser.resolve_timeout must be > 0")
	}
	if cfg.Browser.PollInterval <= 0 {
		return fmt.Errorf("browser.poll_interval must be > 0")
	}

	if cfg.Naver.BatchMax < 1 {
		return fmt.Errorf("naver.batch_max must be >= 1, got %d", cfg.Naver.BatchMax)
	}

	if cfg.Store.Type != "mongo" && cfg.Store.Type != "memory" {
		return fmt.Errorf("store.type must be 'mongo' or 'memory', got %q", cfg.Store.Type)
	}
	if cfg.Store.Type == "mongo" {
		if cfg.Store.URI == "" {
			return fmt.Errorf("store.uri must not be empty")
		}
		if cfg.Store.Database == "" || cfg.Store.Collection == "" {
			return fmt.Errorf("store.database and store.collection must not be empty")
		}
	}

	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("api.port %d is out of range", cfg.API.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level %q is not supported (valid: debug, info, warn, error)", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}
