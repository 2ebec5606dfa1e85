package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents fetch failures: timeouts, refused connections, non-2xx answers
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeExtraction represents a detail page that did not yield a complete record
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeStore represents persisted store read/write errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// Reason classifies an error inside its type
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonTimeout         Reason = "timeout"
	ReasonBadStatus       Reason = "bad_status"
	ReasonConnection      Reason = "connection"
	ReasonPageUnreachable Reason = "page_unreachable"
	ReasonFieldNotFound   Reason = "field_not_found"
	ReasonMalformedValue  Reason = "malformed_value"
	ReasonPriceOutOfRange Reason = "price_out_of_range"
	ReasonPanic           Reason = "panic"
)

// CrawlerError represents a crawler-specific error
type CrawlerError struct {
	Type       ErrorType
	Reason     Reason
	Provider   string
	Message    string
	Field      string
	URL        string
	StatusCode int
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	head := fmt.Sprintf("[%s] %s: %s", e.Type, e.Provider, e.Message)
	if e.Field != "" {
		head += " (field " + e.Field + ")"
	}
	if e.URL != "" {
		head += " <" + e.URL + ">"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s - %v", head, e.Err)
	}
	return head
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *CrawlerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return e.Reason != ReasonBadStatus || e.StatusCode >= 500
	default:
		return false
	}
}

// IsFatal reports whether the error must stop the run instead of being absorbed per URL
func (e *CrawlerError) IsFatal() bool {
	return e.Type == ErrorTypeConfiguration || e.Type == ErrorTypeStore
}

// WithURL returns the error annotated with the URL it happened on
func (e *CrawlerError) WithURL(url string) *CrawlerError {
	e.URL = url
	return e
}

// New creates a new CrawlerError
func New(errType ErrorType, provider, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(provider, message string, reason Reason, err error) *CrawlerError {
	e := New(ErrorTypeNetwork, provider, message, err)
	e.Reason = reason
	return e
}

// NewStatus creates a network error for a non-2xx answer
func NewStatus(provider string, status int) *CrawlerError {
	e := New(ErrorTypeNetwork, provider, fmt.Sprintf("unexpected status code: %d", status), nil)
	e.Reason = ReasonBadStatus
	e.StatusCode = status
	return e
}

// NewParsing creates a new parsing error
func NewParsing(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeParsing, provider, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(provider string, duration time.Duration) *CrawlerError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, provider, message, nil)
}

// NewFieldNotFound reports a mandatory field that is missing from a detail page
func NewFieldNotFound(provider, field string) *CrawlerError {
	e := New(ErrorTypeExtraction, provider, "mandatory field not found", nil)
	e.Reason = ReasonFieldNotFound
	e.Field = field
	return e
}

// NewMalformedValue reports a mandatory field whose text could not be normalized
func NewMalformedValue(provider, field, raw string) *CrawlerError {
	e := New(ErrorTypeExtraction, provider, fmt.Sprintf("malformed value %q", raw), nil)
	e.Reason = ReasonMalformedValue
	e.Field = field
	return e
}

// NewPriceOutOfRange reports a parsed price outside the configured bounds
func NewPriceOutOfRange(provider string, price int) *CrawlerError {
	e := New(ErrorTypeExtraction, provider, fmt.Sprintf("price %d outside configured range", price), nil)
	e.Reason = ReasonPriceOutOfRange
	e.Field = "price"
	return e
}

// NewPageUnreachable wraps a fetch failure of a detail page as an extraction outcome
func NewPageUnreachable(provider string, err error) *CrawlerError {
	e := New(ErrorTypeExtraction, provider, "detail page unreachable", err)
	e.Reason = ReasonPageUnreachable
	return e
}

// NewCache creates a new cache error
func NewCache(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeCache, provider, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(provider, message string, err error) *CrawlerError {
	return New(ErrorTypePublisher, provider, message, err)
}

// NewStore creates a new store error
func NewStore(path, message string, err error) *CrawlerError {
	e := New(ErrorTypeStore, "", message, err)
	e.URL = path
	return e
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// As unwraps err to a *CrawlerError
func As(err error) (*CrawlerError, bool) {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsType reports whether err carries a CrawlerError of the given type
func IsType(err error, t ErrorType) bool {
	ce, ok := As(err)
	return ok && ce.Type == t
}

// ReasonOf returns the classification reason of err, if any
func ReasonOf(err error) Reason {
	if ce, ok := As(err); ok {
		return ce.Reason
	}
	return ReasonNone
}
