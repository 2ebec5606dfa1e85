package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"sjsage522/carlistingworker/helpers"
	"sjsage522/carlistingworker/internal/crawler"
	"sjsage522/carlistingworker/logger"
	"sjsage522/carlistingworker/pkg/errors"
	"sjsage522/carlistingworker/services/metrics"
)

// State is the pagination controller state
type State string

const (
	StateRunning         State = "running"
	StoppedTargetReached State = "target_reached"
	StoppedPageLimit     State = "page_limit"
	StoppedEmptyPage     State = "empty_page"
	StoppedCancelled     State = "cancelled"
)

// Options bound one crawl run
type Options struct {
	BaseURL     string
	TargetCount int
	MaxPages    int
	MaxWorkers  int
	PageDelay   time.Duration

	// FirstPage is an already fetched body of page 1, used instead of a
	// second download when set
	FirstPage []byte

	// StopOnBarrenPage ends the crawl when a page had links but none of
	// them produced a new record. Off unless asked for.
	StopOnBarrenPage bool
}

// DefaultOptions returns the limits used when nothing is configured
func DefaultOptions() Options {
	return Options{
		TargetCount: 50,
		MaxPages:    5,
		MaxWorkers:  10,
		PageDelay:   2 * time.Second,
	}
}

// CrawlResult is what a finished run hands to the store
type CrawlResult struct {
	Records   []crawler.ListingRecord
	State     State
	Pages     int
	Attempted int
	Failed    int
	Duration  time.Duration
}

// Worker walks listing pages of one site until a stop condition holds
type Worker struct {
	adapter crawler.Adapter
	fetcher PageFetcher
	pool    *Pool
	journal helpers.LoggerInterface
	metrics *metrics.Metrics
	opts    Options
	log     *logger.Logger

	// sleep waits between pages, replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWorker creates a new worker
func NewWorker(
	adapter crawler.Adapter,
	fetcher PageFetcher,
	journal helpers.LoggerInterface,
	m *metrics.Metrics,
	opts Options,
) *Worker {
	return &Worker{
		adapter: adapter,
		fetcher: fetcher,
		pool:    NewPool(adapter, fetcher),
		journal: journal,
		metrics: m,
		opts:    opts,
		log:     logger.ForWorker().WithField("provider", adapter.Provider()),
		sleep:   sleepContext,
	}
}

// Run crawls page by page. Per-URL failures are absorbed; only invalid
// options are returned as an error.
func (w *Worker) Run(ctx context.Context) (CrawlResult, error) {
	if err := w.validate(); err != nil {
		return CrawlResult{}, err
	}

	start := time.Now()
	result := CrawlResult{State: StateRunning}
	seen := make(map[crawler.IdentityKey]struct{})

	for page := 1; result.State == StateRunning; page++ {
		if ctx.Err() != nil {
			result.State = StoppedCancelled
			break
		}

		url := w.adapter.BuildListingURL(w.opts.BaseURL, page)
		result.Pages = page
		w.log.Info().Int("page", page).Str("url", url).Msg("Crawling listing page")

		links := w.listing(ctx, url, page)
		w.log.Info().Int("page", page).Int("links", len(links)).Msg("Detail links found")
		if len(links) == 0 {
			result.State = StoppedEmptyPage
			break
		}

		records := w.collect(w.pool.ExtractAll(ctx, links, w.opts.MaxWorkers), &result)
		kept := Filter(records, seen)
		result.Records = append(result.Records, kept...)
		w.metrics.Kept(w.adapter.Name(), len(kept))
		w.log.Info().
			Int("page", page).
			Int("kept", len(kept)).
			Int("total", len(result.Records)).
			Msg("Page absorbed")

		switch {
		case len(kept) == 0 && w.opts.StopOnBarrenPage:
			result.State = StoppedEmptyPage
		case len(result.Records) >= w.opts.TargetCount:
			result.State = StoppedTargetReached
		case page >= w.opts.MaxPages:
			result.State = StoppedPageLimit
		default:
			if err := w.sleep(ctx, w.opts.PageDelay); err != nil {
				result.State = StoppedCancelled
			}
		}
	}

	result.Duration = time.Since(start)
	w.metrics.Duration(w.adapter.Name(), string(result.State), result.Duration)
	w.log.Info().
		Str("stop_reason", string(result.State)).
		Int("records", len(result.Records)).
		Int("pages", result.Pages).
		Int("failed", result.Failed).
		Dur("elapsed", result.Duration).
		Msg("Crawl finished")

	return result, nil
}

// listing fetches one listing page; a failed fetch counts as an empty page
func (w *Worker) listing(ctx context.Context, url string, page int) []string {
	var body io.Reader
	var err error
	if page == 1 && w.opts.FirstPage != nil {
		body = bytes.NewReader(w.opts.FirstPage)
	} else {
		body, err = w.fetcher.Fetch(ctx, url)
	}
	if err != nil {
		w.metrics.Page(w.adapter.Name(), "fetch_error")
		w.journal.LogError(w.adapter.Provider(), err)
		event := w.log.Warn().Err(err).Str("url", url)
		if ce, ok := errors.As(err); ok {
			event = event.Str("type", string(ce.Type)).Bool("retryable", ce.IsRetryable())
		}
		event.Msg("Listing page fetch failed")
		return nil
	}

	links, err := w.adapter.ExtractDetailLinks(body)
	if err != nil {
		w.metrics.Page(w.adapter.Name(), "fetch_error")
		w.journal.LogError(w.adapter.Provider(), err)
		return nil
	}

	if len(links) == 0 {
		w.metrics.Page(w.adapter.Name(), "empty")
	} else {
		w.metrics.Page(w.adapter.Name(), "ok")
	}
	return links
}

// collect splits pool results into records, logging each failure with its URL
func (w *Worker) collect(results []Result, result *CrawlResult) []crawler.ListingRecord {
	records := make([]crawler.ListingRecord, 0, len(results))
	for _, r := range results {
		result.Attempted++
		if r.Err != nil {
			result.Failed++
			reason := errors.ReasonOf(r.Err)
			w.metrics.Detail(w.adapter.Name(), "failed", string(reason))
			w.journal.LogError(w.adapter.Provider(), r.Err)
			w.log.Debug().Err(r.Err).Str("url", r.URL).Msg("Detail skipped")
			continue
		}

		w.metrics.Detail(w.adapter.Name(), "extracted", "")
		records = append(records, r.Record)
		if logger.IsDebugEnabled() {
			w.log.Debug().Interface("record", r.Record).Msg("Listing extracted")
		}
	}
	return records
}

func (w *Worker) validate() error {
	var problems []string
	if w.opts.BaseURL == "" {
		problems = append(problems, "base URL is empty")
	}
	if w.opts.TargetCount < 1 {
		problems = append(problems, fmt.Sprintf("target count must be positive, got %d", w.opts.TargetCount))
	}
	if w.opts.MaxPages < 1 {
		problems = append(problems, fmt.Sprintf("page cap must be positive, got %d", w.opts.MaxPages))
	}
	if w.opts.MaxWorkers < 1 {
		problems = append(problems, fmt.Sprintf("worker count must be positive, got %d", w.opts.MaxWorkers))
	}
	if len(problems) > 0 {
		return errors.NewConfiguration(fmt.Sprintf("invalid crawl options: %v", problems), nil)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ResolveBaseURL probes the filtered first listing page and falls back to the
// unfiltered one when the site does not answer it. On success the probed body
// is returned so page 1 is not downloaded twice; it is nil after a fallback.
func ResolveBaseURL(ctx context.Context, adapter crawler.Adapter, fetcher PageFetcher, filter crawler.Filter) (string, []byte) {
	base := adapter.BaseURL(filter)
	body, err := fetcher.Fetch(ctx, base)
	var page []byte
	if err == nil {
		page, err = io.ReadAll(body)
	}
	if err != nil {
		fallback := adapter.FallbackURL(filter)
		logger.ForWorker().Warn().
			Err(err).
			Str("url", base).
			Str("fallback", fallback).
			Msg("Filtered listing URL unavailable, using fallback")
		return fallback, nil
	}
	return base, page
}
