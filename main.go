package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/carlistingworker/config"
	"sjsage522/carlistingworker/internal"
	"sjsage522/carlistingworker/internal/crawler"
	"sjsage522/carlistingworker/logger"
	"sjsage522/carlistingworker/pkg/errors"
	"sjsage522/carlistingworker/services/store"
	"sjsage522/carlistingworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	if err := run(); err != nil {
		if ce, ok := errors.As(err); ok && ce.IsFatal() {
			logger.LogError("main", err, "Run aborted by %s error", ce.Type)
		} else {
			logger.LogError("main", err, "Run failed")
		}
		os.Exit(1)
	}
}

func run() error {
	log := logger.Default

	// Load and validate configuration before any network activity
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	adapter, err := crawler.NewAdapter(cfg.Site, cfg)
	if err != nil {
		return err
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("site", adapter.Name()).
		Str("brand", cfg.Brand).
		Int("target", cfg.TargetCount).
		Int("max_pages", cfg.MaxPages).
		Int("max_workers", cfg.MaxWorkers).
		Msg("Starting listing crawl")

	// Cancel between pages on SIGINT/SIGTERM; collected records are still merged
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := internal.NewDependencies(ctx, cfg)
	defer deps.Cleanup()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := deps.Metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Warn().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics server stopped")
			}
		}()
	}

	fetcher := crawler.NewFetcher(adapter, cfg.RequestTimeout, deps.Cache, cfg.RateLimitBlock)
	baseURL, firstPage := worker.ResolveBaseURL(ctx, adapter, fetcher, crawler.FilterFromConfig(cfg))

	w := worker.NewWorker(adapter, fetcher, deps.Journal, deps.Metrics, worker.Options{
		BaseURL:          baseURL,
		TargetCount:      cfg.TargetCount,
		MaxPages:         cfg.MaxPages,
		MaxWorkers:       cfg.MaxWorkers,
		PageDelay:        cfg.PageDelay,
		FirstPage:        firstPage,
		StopOnBarrenPage: cfg.StopOnBarrenPage,
	})

	result, err := w.Run(ctx)
	if err != nil {
		return err
	}

	csvStore := store.NewCSVStore(cfg.StorePath(), adapter.RecordsEngine())
	stats, err := csvStore.MergeAndSave(result.Records)
	if err != nil {
		log.Error().
			Int("unsaved_records", len(result.Records)).
			Str("stop_reason", string(result.State)).
			Msg("Crawl results were not persisted")
		return err
	}
	deps.Metrics.Stored(adapter.Name(), stats.Total)

	published := 0
	if deps.Publisher != nil && stats.Added > 0 {
		published = worker.PublishAdded(deps.Publisher, adapter.Name(), stats.New, deps.Journal, deps.Metrics)
	}

	log.Info().
		Str("stop_reason", string(result.State)).
		Int("collected", len(result.Records)).
		Int("pages", result.Pages).
		Int("failed_details", result.Failed).
		Int("added", stats.Added).
		Int("total", stats.Total).
		Int("published", published).
		Str("store", csvStore.Path()).
		Msg("Run complete")

	return nil
}
