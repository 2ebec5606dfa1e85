package crawler

import (
	"fmt"

	"sjsage522/carlistingworker/config"
	"sjsage522/carlistingworker/pkg/errors"
)

// FilterFromConfig builds the crawl filter from the configured brand and price range
func FilterFromConfig(cfg *config.Config) Filter {
	return Filter{
		Brand:    cfg.Brand,
		MinPrice: cfg.MinPrice,
		MaxPrice: cfg.MaxPrice,
	}
}

// NewAdapter returns the adapter registered under name
func NewAdapter(name string, cfg *config.Config) (Adapter, error) {
	filter := FilterFromConfig(cfg)

	switch name {
	case config.SiteAutoESA:
		return NewAutoESAAdapter(AutoESAOrigin, filter), nil
	case config.SiteSauto:
		return NewSautoAdapter(SautoOrigin, filter), nil
	default:
		return nil, errors.NewConfiguration(fmt.Sprintf("unknown site %q", name), nil)
	}
}

// RateLimitKey is the cache key blocking a site after it answered 429
func RateLimitKey(a Adapter) string {
	return a.Name() + "_rate_limited"
}
