package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters across the crawl/publish pipeline.
type Metrics struct {
	// Crawl metrics
	CrawlsTotal        atomic.Int64
	LinksDiscovered    atomic.Int64
	DetailsFetched     atomic.Int64
	DetailFetchFailed  atomic.Int64

	// Store metrics
	RecordsUpserted atomic.Int64
	RecordsCreated  atomic.Int64

	// Publish metrics
	PublishAttempts  atomic.Int64
	PublishConfirmed atomic.Int64
	ResolveTimeouts  atomic.Int64

	// Scheduler metrics
	WatchTicks   atomic.Int64
	WatchSkipped atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"newsflow_crawls_total", "Total crawl runs", m.CrawlsTotal.Load()},
		{"newsflow_links_discovered_total", "Total article links discovered", m.LinksDiscovered.Load()},
		{"newsflow_details_fetched_total", "Total article detail pages fetched", m.DetailsFetched.Load()},
		{"newsflow_detail_fetch_failed_total", "Total article detail fetch failures", m.DetailFetchFailed.Load()},
		{"newsflow_records_upserted_total", "Total records written to the store", m.RecordsUpserted.Load()},
		{"newsflow_records_created_total", "Total newly created records", m.RecordsCreated.Load()},
		{"newsflow_publish_attempts_total", "Total blog publish attempts", m.PublishAttempts.Load()},
		{"newsflow_publish_confirmed_total", "Total publishes with a confirmed URL", m.PublishConfirmed.Load()},
		{"newsflow_resolve_timeouts_total", "Total canonical URL resolution timeouts", m.ResolveTimeouts.Load()},
		{"newsflow_watch_ticks_total", "Total scheduler ticks", m.WatchTicks.Load()},
		{"newsflow_watch_skipped_total", "Total scheduler ticks skipped while busy", m.WatchSkipped.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all counters as a map for the end-of-run summary log.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"crawls_total":      m.CrawlsTotal.Load(),
		"links_discovered":  m.LinksDiscovered.Load(),
		"details_fetched":   m.DetailsFetched.Load(),
		"detail_failures":   m.DetailFetchFailed.Load(),
		"records_upserted":  m.RecordsUpserted.Load(),
		"records_created":   m.RecordsCreated.Load(),
		"publish_attempts":  m.PublishAttempts.Load(),
		"publish_confirmed": m.PublishConfirmed.Load(),
		"resolve_timeouts":  m.ResolveTimeouts.Load(),
		"watch_ticks":       m.WatchTicks.Load(),
		"watch_skipped":     m.WatchSkipped.Load(),
	}
}
