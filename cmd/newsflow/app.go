package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/newsflow-kr/newsflow/internal/api"
	"github.com/newsflow-kr/newsflow/internal/config"
	"github.com/newsflow-kr/newsflow/internal/crawler"
	"github.com/newsflow-kr/newsflow/internal/fetcher"
	"github.com/newsflow-kr/newsflow/internal/observability"
	"github.com/newsflow-kr/newsflow/internal/publisher"
	"github.com/newsflow-kr/newsflow/internal/scheduler"
	"github.com/newsflow-kr/newsflow/internal/store"
)

// app wires the long-lived dependencies: config, store, metrics. Browser
// sessions are opened per run so a crashed Chromium never poisons the
// next tick.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	store   store.Store
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	st, err := store.Open(ctx, &cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		store:   st,
	}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.Close(ctx); err != nil {
		a.logger.Warn("store close failed", "error", err)
	}
}

// crawlOnce renders the listing, fetches details and upserts the results.
func (a *app) crawlOnce(ctx context.Context) error {
	session, err := fetcher.NewBrowserSession(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer session.Close()

	httpFetcher, err := fetcher.NewHTTPFetcher(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer httpFetcher.Close()

	start := time.Now()
	c := crawler.New(a.cfg, session, httpFetcher, a.logger)
	details := c.FetchLatest(ctx, a.cfg.Crawler.Limit)

	a.metrics.CrawlsTotal.Add(1)
	a.metrics.LinksDiscovered.Add(int64(len(details)))
	for _, d := range details {
		if d.Content == "" {
			a.metrics.DetailFetchFailed.Add(1)
		} else {
			a.metrics.DetailsFetched.Add(1)
		}
	}

	created, err := store.SaveCrawl(ctx, a.store, a.logger, details)
	a.metrics.RecordsUpserted.Add(int64(len(details)))
	a.metrics.RecordsCreated.Add(int64(created))

	a.logger.Info("crawl complete",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"articles", len(details),
		"created", created,
	)
	return err
}

// postOnce publishes stored records still marked new, then flips the
// status of everyone that came back with a confirmed URL.
func (a *app) postOnce(ctx context.Context) error {
	records, err := a.store.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	pending := store.PendingPublish(records)
	if len(pending) == 0 {
		a.logger.Info("nothing to publish")
		return nil
	}

	session, err := fetcher.NewBrowserSession(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer session.Close()

	attempted := len(pending)
	if max := a.cfg.Naver.BatchMax; attempted > max {
		attempted = max
	}

	pub := publisher.New(session, a.cfg, a.logger)
	results, err := pub.PostBatch(ctx, pending)
	if err != nil {
		return fmt.Errorf("publish batch: %w", err)
	}

	a.metrics.PublishAttempts.Add(int64(attempted))
	a.metrics.PublishConfirmed.Add(int64(len(results)))
	a.metrics.ResolveTimeouts.Add(int64(attempted - len(results)))

	if err := store.MarkPosted(ctx, a.store, a.logger, results); err != nil {
		return err
	}

	a.logger.Info("publish complete", "attempted", attempted, "confirmed", len(results))
	return nil
}

// serve runs the REST API until the context is cancelled.
func (a *app) serve(ctx context.Context) error {
	srv := api.NewServer(&a.cfg.API, a.store, a.logger)
	srv.Start()

	<-ctx.Done()
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// watch runs crawl+post on the configured cron schedule until the
// context is cancelled. The first run fires immediately.
func (a *app) watch(ctx context.Context) error {
	job := func(ctx context.Context) {
		if err := a.crawlOnce(ctx); err != nil {
			a.logger.Error("crawl run failed", "error", err)
		}
		if err := a.postOnce(ctx); err != nil {
			a.logger.Error("publish run failed", "error", err)
		}
		a.logger.Info("run summary", "metrics", a.metrics.Snapshot())
	}

	w := scheduler.NewWatcher(a.cfg.Watch.Schedule, job, a.metrics, a.logger)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	w.RunNow(ctx)

	<-ctx.Done()
	a.logger.Info("shutting down")
	w.Stop()
	return nil
}
