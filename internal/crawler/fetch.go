package crawler

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"sjsage522/carlistingworker/helpers"
	"sjsage522/carlistingworker/logger"
	"sjsage522/carlistingworker/pkg/errors"
	"sjsage522/carlistingworker/services/cache"
)

// Fetcher retrieves pages of one site with a fixed identity and timeout.
// When a cache is configured, a 429 answer blocks the site for BlockTime.
type Fetcher struct {
	Provider  string
	Client    *http.Client
	Identity  helpers.Identity
	CacheSvc  cache.CacheService
	CacheKey  string
	BlockTime time.Duration
}

// NewFetcher creates a fetcher for adapter a
func NewFetcher(a Adapter, timeout time.Duration, cacheSvc cache.CacheService, blockTime time.Duration) *Fetcher {
	return &Fetcher{
		Provider:  a.Provider(),
		Client:    helpers.NewClient(timeout),
		Identity:  helpers.DefaultIdentity(),
		CacheSvc:  cacheSvc,
		CacheKey:  RateLimitKey(a),
		BlockTime: blockTime,
	}
}

// Fetch returns the UTF-8 body of url or a classified network or rate-limit error
func (f *Fetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	if f.blocked() {
		return nil, errors.NewRateLimit(f.Provider, f.BlockTime).WithURL(url)
	}

	body, err := helpers.FetchWithIdentity(ctx, f.Client, url, f.Identity)
	if err != nil {
		return nil, f.classify(err).WithURL(url)
	}
	return body, nil
}

// blocked checks the rate-limit key; cache failures never block a fetch
func (f *Fetcher) blocked() bool {
	if f.CacheSvc == nil || f.CacheKey == "" {
		return false
	}
	_, err := f.CacheSvc.Get(f.CacheKey)
	return err == nil
}

func (f *Fetcher) block() {
	if f.CacheSvc == nil || f.CacheKey == "" || f.BlockTime <= 0 {
		return
	}
	seconds := strconv.Itoa(int(f.BlockTime / time.Second))
	if err := f.CacheSvc.Set(f.CacheKey, []byte(seconds), f.BlockTime); err != nil {
		logger.ForCache().Warn().Err(err).Str("key", f.CacheKey).Msg("Failed to set rate limit block")
	}
}

func (f *Fetcher) classify(err error) *errors.CrawlerError {
	var statusErr *helpers.StatusError
	if stderrors.As(err, &statusErr) {
		if statusErr.RateLimited() {
			f.block()
			e := errors.NewRateLimit(f.Provider, f.BlockTime)
			e.StatusCode = statusErr.StatusCode
			e.Err = statusErr
			return e
		}
		return errors.NewStatus(f.Provider, statusErr.StatusCode)
	}

	if isTimeout(err) {
		return errors.NewNetwork(f.Provider, "request timed out", errors.ReasonTimeout, err)
	}
	return errors.NewNetwork(f.Provider, "connection failed", errors.ReasonConnection, err)
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
