package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/newsflow-kr/newsflow/internal/observability"
)

// Job is one scheduled pipeline run.
type Job func(ctx context.Context)

// Watcher runs a job on a cron schedule. A tick that fires while the
// previous run is still going is skipped rather than queued: crawl and
// publish runs share one browser and must never overlap.
type Watcher struct {
	cron     *cron.Cron
	schedule string
	job      Job
	busy     atomic.Bool
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewWatcher creates a Watcher from a standard five-field cron expression.
func NewWatcher(schedule string, job Job, metrics *observability.Metrics, logger *slog.Logger) *Watcher {
	return &Watcher{
		cron:     cron.New(),
		schedule: schedule,
		job:      job,
		metrics:  metrics,
		logger:   logger.With("component", "watcher"),
	}
}

// Start validates the schedule, registers the job and starts ticking.
func (w *Watcher) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.schedule, func() { w.tick(ctx) })
	if err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("watch schedule active", "schedule", w.schedule)
	return nil
}

// RunNow fires the job immediately, through the same overlap guard the
// schedule uses.
func (w *Watcher) RunNow(ctx context.Context) {
	w.tick(ctx)
}

// Stop stops ticking and waits for an in-flight run to finish.
func (w *Watcher) Stop() {
	<-w.cron.Stop().Done()
	w.logger.Info("watcher stopped")
}

func (w *Watcher) tick(ctx context.Context) {
	w.metrics.WatchTicks.Add(1)

	if !w.busy.CompareAndSwap(false, true) {
		w.metrics.WatchSkipped.Add(1)
		w.logger.Warn("previous run still going, tick skipped")
		return
	}
	defer w.busy.Store(false)

	if ctx.Err() != nil {
		return
	}
	w.job(ctx)
}
