package internal

import (
	"context"

	"sjsage522/carlistingworker/config"
	"sjsage522/carlistingworker/helpers"
	"sjsage522/carlistingworker/logger"
	"sjsage522/carlistingworker/services/cache"
	"sjsage522/carlistingworker/services/metrics"
	"sjsage522/carlistingworker/services/publisher"
)

// Dependencies holds all service dependencies of one run.
// Cache and Publisher are nil when their address is not configured.
type Dependencies struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Metrics   *metrics.Metrics
	Journal   helpers.LoggerInterface
}

// NewDependencies connects the optional services named in cfg. An unreachable
// service is logged and left out; the crawl itself does not need it.
func NewDependencies(ctx context.Context, cfg *config.Config) *Dependencies {
	deps := &Dependencies{
		Metrics: metrics.New(),
		Journal: helpers.NewLogger(cfg.ErrorLogFile),
	}

	if cfg.MemcacheAddr != "" {
		memcache := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcache.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unavailable, rate limit block disabled")
		} else {
			deps.Cache = memcache
			logger.ForCache().Info().Str("addr", cfg.MemcacheAddr).Msg("Connected to Memcache")
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			logger.ForPublisher().Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, publishing disabled")
			redisPublisher.Close()
		} else {
			deps.Publisher = redisPublisher
			logger.ForPublisher().Info().
				Str("addr", cfg.RedisAddr).
				Int("db", cfg.RedisDB).
				Str("stream", cfg.RedisStream).
				Msg("Connected to Redis")
		}
	}

	return deps
}

// Cleanup closes the connections held by the dependencies
func (d *Dependencies) Cleanup() {
	if d.Publisher != nil {
		d.Publisher.Close()
	}
}
