package clover

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Option configures optional Client settings.
type Option func(*options) error

// options holds optional configuration for creating a Client.
type options struct {
	// baseURL is the base URL for API requests, up to and excluding the merchant ID.
	baseURL string

	// enrichOrders enables the per-order customer lookup.
	enrichOrders bool

	// enrichmentConcurrency bounds concurrent customer lookups for one page.
	enrichmentConcurrency int

	// httpClient is a custom HTTP client.
	httpClient *http.Client

	// logger is the structured logger.
	logger *slog.Logger

	// timeout is the HTTP client timeout.
	timeout time.Duration
}

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(o *options) error {
		baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if baseURL == "" {
			return fmt.Errorf("base URL cannot be empty")
		}
		o.baseURL = baseURL
		return nil
	}
}

// WithEnrichmentConcurrency sets how many customer lookups may run at once while enriching orders.
func WithEnrichmentConcurrency(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("enrichment concurrency must be positive, got %d", n)
		}
		o.enrichmentConcurrency = n
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client. Overrides WithTimeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) error {
		if httpClient == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		o.httpClient = httpClient
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithOrderEnrichment toggles resolving each order's customer with an extra request.
func WithOrderEnrichment(enabled bool) Option {
	return func(o *options) error {
		o.enrichOrders = enabled
		return nil
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", timeout)
		}
		o.timeout = timeout
		return nil
	}
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() *options {
	return &options{
		baseURL:               "https://api.clover.com/v3/merchants",
		enrichOrders:          true,
		enrichmentConcurrency: 8,
		timeout:               30 * time.Second,
	}
}
