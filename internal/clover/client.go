package clover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/sjson"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/peteski22/cloverbridge/internal/entity"
	"github.com/peteski22/cloverbridge/internal/upstream"
)

// Client is a Clover REST API client scoped to one merchant.
type Client struct {
	// baseURL is the base URL for API requests.
	baseURL string

	// enrichOrders enables the per-order customer lookup.
	enrichOrders bool

	// enrichmentConcurrency bounds concurrent customer lookups.
	enrichmentConcurrency int

	// httpClient is the authorized HTTP client for making requests.
	httpClient *http.Client

	// logger is the structured logger.
	logger *slog.Logger

	// merchantID is the Clover merchant the client reads from.
	merchantID string
}

// Config holds the required configuration for creating a Client.
type Config struct {
	// MerchantID is the Clover merchant identifier.
	MerchantID string

	// TokenSource supplies the API access token.
	TokenSource oauth2.TokenSource
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.MerchantID == "" {
		errs = append(errs, errors.New("merchant ID is required"))
	}
	if c.TokenSource == nil {
		errs = append(errs, errors.New("token source is required"))
	}
	return errors.Join(errs...)
}

// FetchPage fetches one page of up to limit elements of entity type t.
// When cursor is non-empty and t has a timestamp field, only elements newer
// than cursor are requested. Orders are enriched with their customer when
// enrichment is enabled.
func (c *Client) FetchPage(ctx context.Context, t entity.Type, cursor string, limit int) ([]Record, error) {
	resource, err := Resource(t)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	builder := c.request(resource).Param("limit", strconv.Itoa(limit))
	if t == entity.Customers {
		builder.Param("expand", "emailAddresses")
	}
	if field := CursorField(t); field != "" && cursor != "" {
		builder.Param("filter", field+">"+cursor)
	}

	var body string
	if err := builder.ToString(&body).Fetch(ctx); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", t, err)
	}

	records, err := parsePage(body)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", t, err)
	}

	if t == entity.Orders && c.enrichOrders {
		c.enrichOrderCustomers(ctx, records)
	}

	return records, nil
}

// Customer fetches a single customer, including email addresses.
func (c *Client) Customer(ctx context.Context, customerID string) (Record, error) {
	if customerID == "" {
		return Record{}, errors.New("customer ID is required")
	}

	var body string
	err := c.request("customers", url.PathEscape(customerID)).
		Param("expand", "emailAddresses").
		ToString(&body).
		Fetch(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("fetching customer %s: %w", customerID, err)
	}

	record, err := NewRecord(body)
	if err != nil {
		return Record{}, fmt.Errorf("fetching customer %s: %w", customerID, err)
	}

	return record, nil
}

// enrichOrderCustomers replaces each order's customer reference with the full
// customer. Lookups run concurrently and all finish before it returns. A
// failed lookup leaves that order's reference untouched.
func (c *Client) enrichOrderCustomers(ctx context.Context, orders []Record) {
	var g errgroup.Group
	g.SetLimit(c.enrichmentConcurrency)

	for i := range orders {
		customerID, ok := orders[i].CustomerID()
		if !ok {
			continue
		}

		g.Go(func() error {
			customer, err := c.Customer(ctx, customerID)
			if err != nil {
				c.logger.WarnContext(ctx, "failed to enrich order with customer",
					"order_id", orders[i].ID(),
					"customer_id", customerID,
					"error", err)
				return nil
			}

			enriched, err := orders[i].withCustomer(customer)
			if err != nil {
				c.logger.WarnContext(ctx, "failed to embed customer in order",
					"order_id", orders[i].ID(),
					"customer_id", customerID,
					"error", err)
				return nil
			}
			orders[i] = enriched
			return nil
		})
	}

	_ = g.Wait()
}

// withCustomer returns a copy of the order with customer embedded as its first customer.
func (r Record) withCustomer(customer Record) (Record, error) {
	raw, err := sjson.SetRaw(r.Raw(), "customers.elements.0", customer.Raw())
	if err != nil {
		return Record{}, fmt.Errorf("setting customer: %w", err)
	}
	return NewRecord(raw)
}

// request starts a GET request against {base}/{merchant}/{segments...}.
func (c *Client) request(segments ...string) *requests.Builder {
	reqURL := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(c.merchantID))
	for _, s := range segments {
		reqURL += "/" + s
	}

	return requests.
		URL(reqURL).
		Client(c.httpClient).
		Accept("application/json").
		AddValidator(upstream.CheckStatus)
}

// NewClient creates a new Clover API client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:               o.baseURL,
		enrichOrders:          o.enrichOrders,
		enrichmentConcurrency: o.enrichmentConcurrency,
		httpClient:            upstream.NewAuthorizedClient(httpClient, cfg.TokenSource),
		logger:                logger,
		merchantID:            cfg.MerchantID,
	}, nil
}
