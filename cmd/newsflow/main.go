package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newsflow-kr/newsflow/internal/config"
)

var (
	cfgFile    string
	verbose    bool
	crawlLimit int
	headful    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newsflow",
		Short: "newsflow — YTN news crawler and Naver blog republisher",
		Long: `newsflow crawls the YTN economy news listing, extracts article fields
(body, reporter, contact details), stores them in MongoDB, and republishes
new records to a Naver blog through a real browser session.

Commands:
  crawl   fetch the latest articles and store them
  post    publish stored records that have not been posted yet
  serve   run the REST API over the record store
  watch   run crawl+post on a cron schedule`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(postCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the news listing and store new articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, cleanup, err := setupApp()
			if err != nil {
				return err
			}
			defer cleanup()
			return app.crawlOnce(ctx)
		},
	}
	cmd.Flags().IntVarP(&crawlLimit, "limit", "n", 0, "max articles per crawl (0 = config default)")
	cmd.Flags().BoolVar(&headful, "headful", false, "show the browser window")
	return cmd
}

func postCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish unposted records to the blog",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, cleanup, err := setupApp()
			if err != nil {
				return err
			}
			defer cleanup()
			return app.postOnce(ctx)
		},
	}
	cmd.Flags().BoolVar(&headful, "headful", false, "show the browser window")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API over the record store",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, cleanup, err := setupApp()
			if err != nil {
				return err
			}
			defer cleanup()
			return app.serve(ctx)
		},
	}
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run crawl and post on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, cleanup, err := setupApp()
			if err != nil {
				return err
			}
			defer cleanup()
			return app.watch(ctx)
		},
	}
	cmd.Flags().IntVarP(&crawlLimit, "limit", "n", 0, "max articles per crawl (0 = config default)")
	cmd.Flags().BoolVar(&headful, "headful", false, "show the browser window")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("newsflow %s\n", config.Version)
		},
	}
}

// setupApp loads configuration, opens the store, and installs signal
// handling. The returned cleanup closes everything in reverse order.
func setupApp() (*app, context.Context, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(&cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}

	cleanup := func() {
		a.close()
		stop()
	}
	return a, ctx, cleanup, nil
}

func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func applyCLIOverrides(cfg *config.Config) {
	if crawlLimit > 0 {
		cfg.Crawler.Limit = crawlLimit
	}
	if headful {
		cfg.Browser.Headless = false
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
}
