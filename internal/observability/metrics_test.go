package observability

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestMetrics() *Metrics {
	return NewMetrics(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSnapshotCoversEveryCounter(t *testing.T) {
	m := newTestMetrics()
	m.CrawlsTotal.Add(1)
	m.PublishConfirmed.Add(2)
	m.WatchTicks.Add(3)
	m.WatchSkipped.Add(1)

	snap := m.Snapshot()

	if snap["crawls_total"] != 1 {
		t.Errorf("crawls_total: got %d", snap["crawls_total"])
	}
	if snap["publish_confirmed"] != 2 {
		t.Errorf("publish_confirmed: got %d", snap["publish_confirmed"])
	}
	if snap["watch_ticks"] != 3 {
		t.Errorf("watch_ticks: got %d", snap["watch_ticks"])
	}
	if snap["watch_skipped"] != 1 {
		t.Errorf("watch_skipped: got %d", snap["watch_skipped"])
	}
}

func TestServeHTTPExposition(t *testing.T) {
	m := newTestMetrics()
	m.ResolveTimeouts.Add(4)

	rr := httptest.NewRecorder()
	m.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	body := rr.Body.String()
	if !strings.Contains(body, "newsflow_resolve_timeouts_total 4") {
		t.Errorf("missing resolve timeout counter in:\n%s", body)
	}
	if !strings.Contains(body, "# TYPE newsflow_watch_ticks_total counter") {
		t.Errorf("missing watch tick type line in:\n%s", body)
	}
}
