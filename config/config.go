package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sjsage522/carlistingworker/pkg/errors"
)

// Supported source sites
const (
	SiteAutoESA = "autoesa"
	SiteSauto   = "sauto"
)

// Config represents the application configuration
type Config struct {
	// Source selection
	Site  string
	Brand string

	// Crawl limits
	TargetCount int
	MaxPages    int
	MaxWorkers  int

	// Optional price range, nil when unbounded
	MinPrice *int
	MaxPrice *int

	// Fetch behaviour
	RequestTimeout time.Duration
	PageDelay      time.Duration

	// Stop as soon as a listing page yields no new record
	StopOnBarrenPage bool

	// Output
	OutputDir    string
	ErrorLogFile string

	// Memcache configuration
	MemcacheAddr   string
	RateLimitBlock time.Duration

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Metrics listener, empty disables it
	MetricsAddr string

	// Environment
	Environment string

	// raw values that failed to parse, reported by Validate
	invalid []string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	cfg := &Config{
		Site:         strings.ToLower(getEnv("SITE", SiteAutoESA)),
		Brand:        strings.ToLower(strings.TrimSpace(os.Getenv("BRAND"))),
		OutputDir:    getEnv("OUTPUT_DIR", "./raw_data"),
		ErrorLogFile: getEnv("ERROR_LOG_FILE", "./error.log"),
		MemcacheAddr: os.Getenv("MEMCACHE_ADDR"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisStream:  getEnv("REDIS_STREAM", "listings"),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
		Environment:  getEnv("LISTING_ENVIRONMENT", "development"),
	}

	cfg.TargetCount = cfg.getEnvInt("NUM_LISTINGS", 50)
	cfg.MaxPages = cfg.getEnvInt("MAX_PAGES", 5)
	cfg.MaxWorkers = cfg.getEnvInt("MAX_WORKERS", 10)
	cfg.MinPrice = cfg.getEnvOptionalInt("MIN_PRICE")
	cfg.MaxPrice = cfg.getEnvOptionalInt("MAX_PRICE")
	cfg.RequestTimeout = time.Duration(cfg.getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second
	cfg.PageDelay = time.Duration(cfg.getEnvInt("PAGE_DELAY_SECONDS", 2)) * time.Second
	cfg.RateLimitBlock = time.Duration(cfg.getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 500)) * time.Second
	cfg.StopOnBarrenPage = cfg.getEnvBool("STOP_ON_BARREN_PAGE", false)
	cfg.RedisDB = cfg.getEnvInt("REDIS_DB", 0)
	cfg.RedisStreamMaxLength = cfg.getEnvInt("REDIS_STREAM_MAX_LENGTH", 10000)

	return cfg
}

// Validate checks every setting and reports all problems at once
func (c *Config) Validate() error {
	var problems []string
	problems = append(problems, c.invalid...)

	if c.Site != SiteAutoESA && c.Site != SiteSauto {
		problems = append(problems, fmt.Sprintf("SITE must be %q or %q, got %q", SiteAutoESA, SiteSauto, c.Site))
	}
	if c.TargetCount <= 0 {
		problems = append(problems, "NUM_LISTINGS must be positive")
	}
	if c.MaxPages <= 0 {
		problems = append(problems, "MAX_PAGES must be positive")
	}
	if c.MaxWorkers <= 0 {
		problems = append(problems, "MAX_WORKERS must be positive")
	}
	if c.MinPrice != nil && *c.MinPrice < 0 {
		problems = append(problems, "MIN_PRICE must not be negative")
	}
	if c.MinPrice != nil && c.MaxPrice != nil && *c.MinPrice >= *c.MaxPrice {
		problems = append(problems, "MIN_PRICE must be lower than MAX_PRICE")
	}
	if c.RequestTimeout <= 0 {
		problems = append(problems, "REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.PageDelay < 0 {
		problems = append(problems, "PAGE_DELAY_SECONDS must not be negative")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		problems = append(problems, "OUTPUT_DIR must not be empty")
	}

	if len(problems) > 0 {
		return errors.NewConfiguration(strings.Join(problems, "; "), nil)
	}
	return nil
}

// StorePath returns the CSV store location for the configured site
func (c *Config) StorePath() string {
	return filepath.Join(c.OutputDir, "auta_"+c.Site+".csv")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (c *Config) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		c.invalid = append(c.invalid, fmt.Sprintf("%s must be an integer, got %q", key, value))
		return defaultValue
	}
	return n
}

func (c *Config) getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		c.invalid = append(c.invalid, fmt.Sprintf("%s must be a boolean, got %q", key, value))
		return defaultValue
	}
	return b
}

func (c *Config) getEnvOptionalInt(key string) *int {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		c.invalid = append(c.invalid, fmt.Sprintf("%s must be an integer, got %q", key, value))
		return nil
	}
	return &n
}
