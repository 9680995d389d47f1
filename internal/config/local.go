package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	uberconfig "go.uber.org/config"

	"github.com/peteski22/cloverbridge/internal/entity"
)

const (
	appDirName     = "cloverbridge"
	configFileName = "config.yaml"
)

// localConfig represents the local configuration file structure.
type localConfig struct {
	Clover   localClover   `yaml:"clover"`
	Deal     localDeal     `yaml:"deal"`
	DynamoDB localDynamoDB `yaml:"dynamodb"`
	HubSpot  localHubSpot  `yaml:"hubspot"`
	Sync     localSync     `yaml:"sync"`
}

// localCredential is the credential block shared by both platforms.
type localCredential struct {
	AccessToken       string `yaml:"access_token"`
	AccessTokenFile   string `yaml:"access_token_file"`
	ParameterName     string `yaml:"access_token_parameter"`
	AccessTokenSecret string `yaml:"access_token_secret_arn"`
}

// localClover represents the clover section of the config file.
type localClover struct {
	localCredential `yaml:",inline"`

	BaseURL      string `yaml:"base_url"`
	EnrichOrders *bool  `yaml:"enrich_orders"`
	MerchantID   string `yaml:"merchant_id"`
}

// localDeal represents the deal section of the config file.
type localDeal struct {
	PaidStage string `yaml:"paid_stage"`
	Pipeline  string `yaml:"pipeline"`
	Stage     string `yaml:"stage"`
}

// localDynamoDB represents the dynamodb section of the config file.
type localDynamoDB struct {
	ReportsTable string `yaml:"reports_table"`
}

// localHubSpot represents the hubspot section of the config file.
type localHubSpot struct {
	localCredential `yaml:",inline"`

	BaseURL string `yaml:"base_url"`
}

// localSync represents the sync section of the config file.
type localSync struct {
	Concurrency     int            `yaml:"concurrency"`
	CycleInterval   string         `yaml:"cycle_interval"`
	CycleTimeout    string         `yaml:"cycle_timeout"`
	DryRun          bool           `yaml:"dry_run"`
	InventoryResync bool           `yaml:"inventory_resync"`
	PageLimit       int            `yaml:"page_limit"`
	PageLimits      map[string]int `yaml:"page_limits"`
}

// ConfigDir returns the cloverbridge configuration directory path.
func ConfigDir() (string, error) {
	if xdg.ConfigHome == "" {
		return "", fmt.Errorf("no user config directory")
	}
	return filepath.Join(xdg.ConfigHome, appDirName), nil
}

// ConfigFilePath returns the path to the local config file.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LocalConfigExists checks if a local config file exists.
func LocalConfigExists() bool {
	configPath, err := ConfigFilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(configPath)
	return err == nil
}

// LoadLocal loads configuration from the local config file.
func LoadLocal() (*Settings, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a YAML file. ${VAR} references in the
// file are expanded from the environment.
func LoadFile(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run 'cloverbridge init' to create)", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	provider, err := uberconfig.NewYAML(uberconfig.Source(f), uberconfig.Expand(os.LookupEnv))
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	var local localConfig
	if err := provider.Get(uberconfig.Root).Populate(&local); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg, err := local.settings()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// settings converts the file structure to Settings, applying defaults.
func (l localConfig) settings() (*Settings, error) {
	var errs []error

	cfg := &Settings{
		Clover: Clover{
			BaseURL:      orDefault(l.Clover.BaseURL, defaultCloverBaseURL),
			Credential:   l.Clover.credential(),
			EnrichOrders: l.Clover.EnrichOrders == nil || *l.Clover.EnrichOrders,
			MerchantID:   strings.TrimSpace(l.Clover.MerchantID),
		},
		DealDefaults: DealDefaults{
			PaidStage: orDefault(l.Deal.PaidStage, defaultDealPaidStage),
			Pipeline:  orDefault(l.Deal.Pipeline, defaultDealPipeline),
			Stage:     orDefault(l.Deal.Stage, defaultDealStage),
		},
		DynamoDB: DynamoDB{
			ReportsTable: strings.TrimSpace(l.DynamoDB.ReportsTable),
		},
		HubSpot: HubSpot{
			APIBaseURL: orDefault(l.HubSpot.BaseURL, defaultHubSpotBaseURL),
			Credential: l.HubSpot.credential(),
		},
		Sync: Sync{
			Concurrency:     l.Sync.Concurrency,
			DryRun:          l.Sync.DryRun,
			InventoryResync: l.Sync.InventoryResync,
			PageLimit:       l.Sync.PageLimit,
			PageLimits:      map[entity.Type]int{},
		},
	}

	if cfg.Sync.Concurrency == 0 {
		cfg.Sync.Concurrency = defaultConcurrency
	}
	if cfg.Sync.PageLimit == 0 {
		cfg.Sync.PageLimit = defaultPageLimit
	}

	var err error
	if cfg.Sync.CycleInterval, err = parseDuration("sync.cycle_interval", l.Sync.CycleInterval, defaultCycleInterval); err != nil {
		errs = append(errs, err)
	}
	if cfg.Sync.CycleTimeout, err = parseDuration("sync.cycle_timeout", l.Sync.CycleTimeout, defaultCycleTimeout); err != nil {
		errs = append(errs, err)
	}

	for name, limit := range l.Sync.PageLimits {
		t, ok := entity.ParseType(name)
		if !ok {
			errs = append(errs, fmt.Errorf("sync.page_limits: unknown entity type %q", name))
			continue
		}
		cfg.Sync.PageLimits[t] = limit
	}

	if len(errs) > 0 {
		return nil, &Error{Err: errors.Join(errs...)}
	}
	return cfg, nil
}

func (c localCredential) credential() Credential {
	return Credential{
		AccessToken:   strings.TrimSpace(c.AccessToken),
		File:          strings.TrimSpace(c.AccessTokenFile),
		ParameterName: strings.TrimSpace(c.ParameterName),
		SecretARN:     strings.TrimSpace(c.AccessTokenSecret),
	}
}

func parseDuration(key string, value string, defaultValue time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s must be a duration, got %q", key, value)
	}
	return d, nil
}

func orDefault(value string, defaultValue string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return defaultValue
}
