// Package config provides configuration loading from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/peteski22/cloverbridge/internal/entity"
)

const (
	// EnvCloverBaseURL is the base URL for the Clover merchants API.
	EnvCloverBaseURL = "CLOVER_BASE_URL"

	// EnvCloverEnrichOrders toggles the per-order customer lookup.
	EnvCloverEnrichOrders = "CLOVER_ENRICH_ORDERS"

	// EnvCloverMerchantID is the Clover merchant to sync.
	EnvCloverMerchantID = "CLOVER_MERCHANT_ID"

	// EnvDealPaidStage is the HubSpot deal stage for paid orders.
	EnvDealPaidStage = "DEAL_PAID_STAGE"

	// EnvDealPipeline is the HubSpot pipeline deals are created in.
	EnvDealPipeline = "DEAL_PIPELINE"

	// EnvDealStage is the HubSpot deal stage for open orders.
	EnvDealStage = "DEAL_STAGE"

	// EnvDynamoDBReportsTable is the optional DynamoDB table for cycle report history.
	EnvDynamoDBReportsTable = "DYNAMODB_REPORTS_TABLE"

	// EnvHubSpotAPIBaseURL is the base URL for the HubSpot CRM objects API.
	EnvHubSpotAPIBaseURL = "HUBSPOT_API_BASE_URL"

	// EnvSyncConcurrency bounds concurrent destination calls per entity type.
	EnvSyncConcurrency = "SYNC_CONCURRENCY"

	// EnvSyncCycleInterval is the time between cycles when running as a daemon.
	EnvSyncCycleInterval = "SYNC_CYCLE_INTERVAL"

	// EnvSyncCycleTimeout bounds the duration of one cycle.
	EnvSyncCycleTimeout = "SYNC_CYCLE_TIMEOUT"

	// EnvSyncDryRun disables writes to HubSpot.
	EnvSyncDryRun = "SYNC_DRY_RUN"

	// EnvSyncInventoryResync re-fetches inventory every cycle.
	EnvSyncInventoryResync = "SYNC_INVENTORY_RESYNC"

	// EnvSyncPageLimit is the page size for every entity type.
	EnvSyncPageLimit = "SYNC_PAGE_LIMIT"
)

// Credential environment variable suffixes. Each platform reads
// <PREFIX>_ACCESS_TOKEN, <PREFIX>_ACCESS_TOKEN_SECRET_ARN and so on.
const (
	suffixAccessToken = "_ACCESS_TOKEN"
	suffixFile        = "_ACCESS_TOKEN_FILE"
	suffixParameter   = "_ACCESS_TOKEN_PARAMETER"
	suffixSecretARN   = "_ACCESS_TOKEN_SECRET_ARN"
)

// Platform environment variable prefixes.
const (
	PrefixClover  = "CLOVER"
	PrefixHubSpot = "HUBSPOT"
)

const (
	defaultCloverBaseURL  = "https://api.clover.com/v3/merchants"
	defaultConcurrency    = 8
	defaultCycleInterval  = time.Minute
	defaultCycleTimeout   = 50 * time.Second
	defaultDealPaidStage  = "closedwon"
	defaultDealPipeline   = "default"
	defaultDealStage      = "appointmentscheduled"
	defaultHubSpotBaseURL = "https://api.hubapi.com/crm/v3/objects"
	defaultPageLimit      = 100
)

// Error reports missing or invalid configuration.
type Error struct {
	// Err holds every problem found, joined.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	return "invalid configuration: " + e.Err.Error()
}

// Unwrap returns the joined problems.
func (e *Error) Unwrap() error {
	return e.Err
}

// CredentialKind identifies where an access token is read from.
type CredentialKind string

const (
	// CredentialNone means no credential was configured.
	CredentialNone CredentialKind = ""

	// CredentialFile reads the token from a local file.
	CredentialFile CredentialKind = "file"

	// CredentialParameter reads the token from an SSM SecureString parameter.
	CredentialParameter CredentialKind = "parameter"

	// CredentialSecret reads the token from a Secrets Manager secret.
	CredentialSecret CredentialKind = "secret"

	// CredentialToken uses the token value directly.
	CredentialToken CredentialKind = "token"
)

// Credential locates an API access token. Exactly one field should be set.
type Credential struct {
	// AccessToken is the token itself.
	AccessToken string

	// File is a path to a file containing the token.
	File string

	// ParameterName is an SSM parameter holding the token.
	ParameterName string

	// SecretARN is a Secrets Manager secret holding the token.
	SecretARN string
}

// Kind returns which field is set, or CredentialNone if none is.
// When more than one is set the result is undefined; validate rejects that case.
func (c Credential) Kind() CredentialKind {
	switch {
	case c.AccessToken != "":
		return CredentialToken
	case c.SecretARN != "":
		return CredentialSecret
	case c.ParameterName != "":
		return CredentialParameter
	case c.File != "":
		return CredentialFile
	default:
		return CredentialNone
	}
}

// validate checks that exactly one credential location is set.
func (c Credential) validate(prefix string) error {
	set := 0
	for _, v := range []string{c.AccessToken, c.File, c.ParameterName, c.SecretARN} {
		if v != "" {
			set++
		}
	}

	switch set {
	case 0:
		return fmt.Errorf("one of %s, %s, %s or %s is required",
			prefix+suffixAccessToken, prefix+suffixSecretARN, prefix+suffixParameter, prefix+suffixFile)
	case 1:
		return nil
	default:
		return fmt.Errorf("only one %s credential may be set, got %d", prefix, set)
	}
}

// Clover holds Clover API configuration.
type Clover struct {
	// BaseURL is the merchants API base URL.
	BaseURL string

	// Credential locates the API access token.
	Credential Credential

	// EnrichOrders enables fetching each order's customer.
	EnrichOrders bool

	// MerchantID is the merchant to sync.
	MerchantID string
}

// DealDefaults holds values applied to every deal created from an order.
type DealDefaults struct {
	// PaidStage is the deal stage for orders that are paid in full.
	PaidStage string

	// Pipeline is the HubSpot pipeline ID.
	Pipeline string

	// Stage is the deal stage for open orders.
	Stage string
}

// DynamoDB holds AWS DynamoDB configuration.
type DynamoDB struct {
	// ReportsTable is the table storing cycle reports. Empty disables report history.
	ReportsTable string
}

// HubSpot holds HubSpot API configuration.
type HubSpot struct {
	// APIBaseURL is the CRM objects API base URL.
	APIBaseURL string

	// Credential locates the private app access token.
	Credential Credential
}

// Sync holds pipeline tuning.
type Sync struct {
	// Concurrency bounds concurrent destination calls per entity type.
	Concurrency int

	// CycleInterval is the time between cycles when running as a daemon.
	CycleInterval time.Duration

	// CycleTimeout bounds one cycle, including every network call it makes.
	CycleTimeout time.Duration

	// DryRun disables writes to HubSpot.
	DryRun bool

	// InventoryResync re-fetches inventory on every cycle instead of once.
	InventoryResync bool

	// PageLimit is the default page size.
	PageLimit int

	// PageLimits overrides PageLimit per entity type.
	PageLimits map[entity.Type]int
}

// PageLimitFor returns the page size for t.
func (s Sync) PageLimitFor(t entity.Type) int {
	if limit, ok := s.PageLimits[t]; ok && limit > 0 {
		return limit
	}
	return s.PageLimit
}

// Settings holds all configuration for the application.
type Settings struct {
	// Clover contains Clover API settings.
	Clover Clover

	// DealDefaults contains default values for deals.
	DealDefaults DealDefaults

	// DynamoDB contains AWS DynamoDB settings.
	DynamoDB DynamoDB

	// HubSpot contains HubSpot API settings.
	HubSpot HubSpot

	// Sync contains pipeline settings.
	Sync Sync
}

// Validate checks that all required settings are present and consistent.
func (s *Settings) Validate() error {
	var errs []error

	if s.Clover.MerchantID == "" {
		errs = append(errs, requiredError(EnvCloverMerchantID))
	}
	if err := s.Clover.Credential.validate(PrefixClover); err != nil {
		errs = append(errs, err)
	}
	if err := s.HubSpot.Credential.validate(PrefixHubSpot); err != nil {
		errs = append(errs, err)
	}
	if s.Sync.Concurrency <= 0 {
		errs = append(errs, positiveError(EnvSyncConcurrency))
	}
	if s.Sync.CycleInterval <= 0 {
		errs = append(errs, positiveError(EnvSyncCycleInterval))
	}
	if s.Sync.CycleTimeout <= 0 {
		errs = append(errs, positiveError(EnvSyncCycleTimeout))
	}
	if s.Sync.PageLimit <= 0 {
		errs = append(errs, positiveError(EnvSyncPageLimit))
	}
	for _, t := range entity.All() {
		if limit, ok := s.Sync.PageLimits[t]; ok && limit <= 0 {
			errs = append(errs, positiveError(pageLimitEnv(t)))
		}
	}
	if s.DealDefaults.Pipeline == "" {
		errs = append(errs, requiredError(EnvDealPipeline))
	}
	if s.DealDefaults.Stage == "" {
		errs = append(errs, requiredError(EnvDealStage))
	}

	if len(errs) == 0 {
		return nil
	}
	return &Error{Err: errors.Join(errs...)}
}

// Load reads configuration from environment variables.
func Load() (*Settings, error) {
	p := &envParser{}

	cfg := &Settings{
		Clover: Clover{
			BaseURL:      envOrDefault(EnvCloverBaseURL, defaultCloverBaseURL),
			Credential:   credentialFromEnv(PrefixClover),
			EnrichOrders: p.bool(EnvCloverEnrichOrders, true),
			MerchantID:   strings.TrimSpace(os.Getenv(EnvCloverMerchantID)),
		},
		DealDefaults: DealDefaults{
			PaidStage: envOrDefault(EnvDealPaidStage, defaultDealPaidStage),
			Pipeline:  envOrDefault(EnvDealPipeline, defaultDealPipeline),
			Stage:     envOrDefault(EnvDealStage, defaultDealStage),
		},
		DynamoDB: DynamoDB{
			ReportsTable: strings.TrimSpace(os.Getenv(EnvDynamoDBReportsTable)),
		},
		HubSpot: HubSpot{
			APIBaseURL: envOrDefault(EnvHubSpotAPIBaseURL, defaultHubSpotBaseURL),
			Credential: credentialFromEnv(PrefixHubSpot),
		},
		Sync: Sync{
			Concurrency:     p.int(EnvSyncConcurrency, defaultConcurrency),
			CycleInterval:   p.duration(EnvSyncCycleInterval, defaultCycleInterval),
			CycleTimeout:    p.duration(EnvSyncCycleTimeout, defaultCycleTimeout),
			DryRun:          p.bool(EnvSyncDryRun, false),
			InventoryResync: p.bool(EnvSyncInventoryResync, false),
			PageLimit:       p.int(EnvSyncPageLimit, defaultPageLimit),
			PageLimits:      map[entity.Type]int{},
		},
	}

	for _, t := range entity.All() {
		key := pageLimitEnv(t)
		if strings.TrimSpace(os.Getenv(key)) != "" {
			cfg.Sync.PageLimits[t] = p.int(key, 0)
		}
	}

	if len(p.errs) > 0 {
		return nil, &Error{Err: errors.Join(p.errs...)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envParser reads typed environment variables, collecting parse errors.
type envParser struct {
	errs []error
}

func (p *envParser) bool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s must be a boolean, got %q", key, value))
		return defaultValue
	}
	return b
}

func (p *envParser) duration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s must be a duration, got %q", key, value))
		return defaultValue
	}
	return d
}

func (p *envParser) int(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s must be an integer, got %q", key, value))
		return defaultValue
	}
	return n
}

func credentialFromEnv(prefix string) Credential {
	return Credential{
		AccessToken:   strings.TrimSpace(os.Getenv(prefix + suffixAccessToken)),
		File:          strings.TrimSpace(os.Getenv(prefix + suffixFile)),
		ParameterName: strings.TrimSpace(os.Getenv(prefix + suffixParameter)),
		SecretARN:     strings.TrimSpace(os.Getenv(prefix + suffixSecretARN)),
	}
}

// pageLimitEnv returns the per-type page limit variable, e.g. SYNC_PAGE_LIMIT_ORDERS.
func pageLimitEnv(t entity.Type) string {
	return EnvSyncPageLimit + "_" + strings.ToUpper(string(t))
}

func envOrDefault(key string, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func positiveError(envVar string) error {
	return fmt.Errorf("%s must be positive", envVar)
}

func requiredError(envVar string) error {
	return fmt.Errorf("%s is required", envVar)
}
