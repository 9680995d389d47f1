package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/sjson"
	"golang.org/x/oauth2"

	"github.com/peteski22/cloverbridge/internal/upstream"
)

// Client is a HubSpot CRM v3 objects API client.
type Client struct {
	// baseURL is the objects API base URL.
	baseURL string

	// httpClient is the authorized HTTP client for making requests.
	httpClient *http.Client

	// logger is the structured logger.
	logger *slog.Logger
}

// Config holds the required configuration for creating a Client.
type Config struct {
	// TokenSource supplies the private app access token.
	TokenSource oauth2.TokenSource
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.TokenSource == nil {
		errs = append(errs, errors.New("token source is required"))
	}
	return errors.Join(errs...)
}

// Search returns the objects of type obj whose key property equals the key value.
func (c *Client) Search(ctx context.Context, obj ObjectType, key NaturalKey) ([]Object, error) {
	body, err := searchBody(key)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", obj, err)
	}

	var result searchResponse
	reqURL := fmt.Sprintf("%s/%s/search", c.baseURL, obj)
	if err := c.do(ctx, http.MethodPost, reqURL, []byte(body), &result); err != nil {
		return nil, fmt.Errorf("searching %s by %s: %w", obj, key.Property, err)
	}

	return result.Results, nil
}

// Create creates an object of type obj and returns its ID.
func (c *Client) Create(ctx context.Context, obj ObjectType, props Properties) (string, error) {
	reqURL := fmt.Sprintf("%s/%s", c.baseURL, obj)

	id, err := c.write(ctx, http.MethodPost, reqURL, props)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", obj, err)
	}

	return id, nil
}

// Update replaces the given properties on an existing object and returns its ID.
func (c *Client) Update(ctx context.Context, obj ObjectType, id string, props Properties) (string, error) {
	if id == "" {
		return "", fmt.Errorf("updating %s: object ID is required", obj)
	}
	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, obj, url.PathEscape(id))

	updatedID, err := c.write(ctx, http.MethodPatch, reqURL, props)
	if err != nil {
		return "", fmt.Errorf("updating %s %s: %w", obj, id, err)
	}

	return updatedID, nil
}

// Associate links a deal to a contact with the default deal-to-contact association type.
func (c *Client) Associate(ctx context.Context, dealID string, contactID string) error {
	if dealID == "" || contactID == "" {
		return errors.New("associating deal with contact: deal ID and contact ID are required")
	}

	reqURL := fmt.Sprintf("%s/%s/%s/associations/%s/%s/%d",
		c.baseURL,
		ObjectDeals,
		url.PathEscape(dealID),
		ObjectContacts,
		url.PathEscape(contactID),
		DealToContactAssociationTypeID,
	)

	if err := c.do(ctx, http.MethodPut, reqURL, nil, nil); err != nil {
		return fmt.Errorf("associating deal %s with contact %s: %w", dealID, contactID, err)
	}

	return nil
}

// write sends a create or update body and returns the ID of the resulting object.
func (c *Client) write(ctx context.Context, method string, reqURL string, props Properties) (string, error) {
	body, err := json.Marshal(objectWriteRequest{Properties: props})
	if err != nil {
		return "", fmt.Errorf("marshaling request body: %w", err)
	}

	var result Object
	if err := c.do(ctx, method, reqURL, body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", &upstream.DecodeError{Reason: "response has no object id"}
	}

	return result.ID, nil
}

// do executes a request with an optional JSON body, decoding a JSON response into result when non-nil.
func (c *Client) do(ctx context.Context, method string, reqURL string, body []byte, result any) error {
	c.logger.DebugContext(ctx, "sending HubSpot request", "method", method, "url", reqURL)

	var raw string
	builder := requests.
		URL(reqURL).
		Client(c.httpClient).
		Method(method).
		Accept("application/json").
		AddValidator(upstream.CheckStatus).
		ToString(&raw)
	if body != nil {
		builder.BodyBytes(body).ContentType("application/json")
	}

	if err := builder.Fetch(ctx); err != nil {
		return err
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), result); err != nil {
		return &upstream.DecodeError{Reason: "invalid json", Err: err}
	}

	return nil
}

// searchBody builds an EQ filter on a single property.
func searchBody(key NaturalKey) (string, error) {
	body := `{"filterGroups":[{"filters":[{"operator":"EQ"}]}]}`

	body, err := sjson.Set(body, "filterGroups.0.filters.0.propertyName", key.Property)
	if err != nil {
		return "", fmt.Errorf("building search body: %w", err)
	}
	body, err = sjson.Set(body, "filterGroups.0.filters.0.value", key.Value)
	if err != nil {
		return "", fmt.Errorf("building search body: %w", err)
	}
	body, err = sjson.Set(body, "limit", searchLimit)
	if err != nil {
		return "", fmt.Errorf("building search body: %w", err)
	}

	return body, nil
}

// searchLimit caps search results. Only the first match is used; the rest are
// counted as pre-existing duplicates.
const searchLimit = 10

// NewClient creates a new HubSpot API client.
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
		baseURL:    o.baseURL,
		httpClient: upstream.NewAuthorizedClient(httpClient, cfg.TokenSource),
		logger:     logger,
	}, nil
}
