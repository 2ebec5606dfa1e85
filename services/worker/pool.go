package worker

import (
	"context"
	"fmt"
	"io"
	"sync"

	"sjsage522/carlistingworker/internal/crawler"
	"sjsage522/carlistingworker/pkg/errors"

	"golang.org/x/sync/semaphore"
)

// PageFetcher retrieves one page as UTF-8 HTML
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}

// Result is the outcome of one detail URL: a record or an error, never both
type Result struct {
	URL    string
	Record crawler.ListingRecord
	Err    error
}

// Pool runs fetch+extract for detail pages with bounded concurrency
type Pool struct {
	adapter crawler.Adapter
	fetcher PageFetcher
}

// NewPool creates a detail pool for adapter
func NewPool(adapter crawler.Adapter, fetcher PageFetcher) *Pool {
	return &Pool{adapter: adapter, fetcher: fetcher}
}

// ExtractAll processes every url with at most limit tasks in flight and returns
// once each url has a result. Results are in completion order.
func (p *Pool) ExtractAll(ctx context.Context, urls []string, limit int) []Result {
	if limit < 1 {
		limit = 1
	}

	sem := semaphore.NewWeighted(int64(limit))
	results := make(chan Result, len(urls))
	var wg sync.WaitGroup

	for _, url := range urls {
		if err := sem.Acquire(ctx, 1); err != nil {
			results <- Result{URL: url, Err: errors.NewPageUnreachable(p.adapter.Provider(), err).WithURL(url)}
			continue
		}

		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			defer sem.Release(1)
			results <- p.extractOne(ctx, url)
		}(url)
	}

	wg.Wait()
	close(results)

	out := make([]Result, 0, len(urls))
	for r := range results {
		out = append(out, r)
	}
	return out
}

// extractOne never lets a panic escape the task
func (p *Pool) extractOne(ctx context.Context, url string) (result Result) {
	result.URL = url
	defer func() {
		if r := recover(); r != nil {
			e := errors.New(errors.ErrorTypeExtraction, p.adapter.Provider(), fmt.Sprintf("panic: %v", r), nil)
			e.Reason = errors.ReasonPanic
			result = Result{URL: url, Err: e.WithURL(url)}
		}
	}()

	body, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		result.Err = errors.NewPageUnreachable(p.adapter.Provider(), err).WithURL(url)
		return result
	}

	record, err := p.adapter.ExtractRecord(body, url)
	if err != nil {
		result.Err = err
		return result
	}
	result.Record = record
	return result
}
