package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/cloverbridge/internal/entity"
)

// requiredEnv is the minimal environment for a valid configuration.
func requiredEnv() map[string]string {
	return map[string]string{
		EnvCloverMerchantID:               "MERCHANT1",
		PrefixClover + suffixAccessToken:  "clover-token",
		PrefixHubSpot + suffixAccessToken: "hubspot-token",
	}
}

func TestLoad(t *testing.T) {
	// Cannot use t.Parallel() with t.Setenv().
	tests := map[string]struct {
		envVars      map[string]string
		errFragments []string
		wantSettings *Settings
		wantErr      bool
	}{
		"defaults": {
			envVars: requiredEnv(),
			wantSettings: &Settings{
				Clover: Clover{
					BaseURL:      "https://api.clover.com/v3/merchants",
					Credential:   Credential{AccessToken: "clover-token"},
					EnrichOrders: true,
					MerchantID:   "MERCHANT1",
				},
				DealDefaults: DealDefaults{
					PaidStage: "closedwon",
					Pipeline:  "default",
					Stage:     "appointmentscheduled",
				},
				HubSpot: HubSpot{
					APIBaseURL: "https://api.hubapi.com/crm/v3/objects",
					Credential: Credential{AccessToken: "hubspot-token"},
				},
				Sync: Sync{
					Concurrency:   8,
					CycleInterval: time.Minute,
					CycleTimeout:  50 * time.Second,
					PageLimit:     100,
					PageLimits:    map[entity.Type]int{},
				},
			},
		},
		"overrides": {
			envVars: map[string]string{
				EnvCloverMerchantID:                "MERCHANT1",
				EnvCloverBaseURL:                   "https://sandbox.dev.clover.com/v3/merchants",
				EnvCloverEnrichOrders:              "false",
				PrefixClover + suffixSecretARN:     "arn:aws:secretsmanager:us-east-1:123456789012:secret:clover",
				PrefixHubSpot + suffixParameter:    "/cloverbridge/hubspot",
				EnvDealPipeline:                    "retail",
				EnvDealStage:                       "open",
				EnvDealPaidStage:                   "paid",
				EnvDynamoDBReportsTable:            "reports",
				EnvSyncConcurrency:                 "4",
				EnvSyncCycleInterval:               "5m",
				EnvSyncCycleTimeout:                "2m",
				EnvSyncDryRun:                      "true",
				EnvSyncInventoryResync:             "1",
				EnvSyncPageLimit:                   "50",
				EnvSyncPageLimit + "_ORDERS":       "25",
				EnvHubSpotAPIBaseURL:               "http://localhost:9000",
			},
			wantSettings: &Settings{
				Clover: Clover{
					BaseURL:    "https://sandbox.dev.clover.com/v3/merchants",
					Credential: Credential{SecretARN: "arn:aws:secretsmanager:us-east-1:123456789012:secret:clover"},
					MerchantID: "MERCHANT1",
				},
				DealDefaults: DealDefaults{
					PaidStage: "paid",
					Pipeline:  "retail",
					Stage:     "open",
				},
				DynamoDB: DynamoDB{ReportsTable: "reports"},
				HubSpot: HubSpot{
					APIBaseURL: "http://localhost:9000",
					Credential: Credential{ParameterName: "/cloverbridge/hubspot"},
				},
				Sync: Sync{
					Concurrency:     4,
					CycleInterval:   5 * time.Minute,
					CycleTimeout:    2 * time.Minute,
					DryRun:          true,
					InventoryResync: true,
					PageLimit:       50,
					PageLimits:      map[entity.Type]int{entity.Orders: 25},
				},
			},
		},
		"missing everything": {
			envVars: map[string]string{},
			wantErr: true,
			errFragments: []string{
				EnvCloverMerchantID + " is required",
				"one of CLOVER_ACCESS_TOKEN",
				"one of HUBSPOT_ACCESS_TOKEN",
			},
		},
		"two credentials for one platform": {
			envVars: func() map[string]string {
				env := requiredEnv()
				env[PrefixClover+suffixFile] = "/tmp/token"
				return env
			}(),
			wantErr:      true,
			errFragments: []string{"only one CLOVER credential may be set, got 2"},
		},
		"unparseable values": {
			envVars: func() map[string]string {
				env := requiredEnv()
				env[EnvSyncConcurrency] = "many"
				env[EnvSyncCycleTimeout] = "soon"
				env[EnvSyncDryRun] = "maybe"
				return env
			}(),
			wantErr: true,
			errFragments: []string{
				"SYNC_CONCURRENCY must be an integer",
				"SYNC_CYCLE_TIMEOUT must be a duration",
				"SYNC_DRY_RUN must be a boolean",
			},
		},
		"non-positive values": {
			envVars: func() map[string]string {
				env := requiredEnv()
				env[EnvSyncPageLimit] = "0"
				env[EnvSyncPageLimit+"_CUSTOMERS"] = "-1"
				return env
			}(),
			wantErr: true,
			errFragments: []string{
				"SYNC_PAGE_LIMIT must be positive",
				"SYNC_PAGE_LIMIT_CUSTOMERS must be positive",
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.envVars {
				t.Setenv(k, v)
			}

			settings, err := Load()

			if tc.wantErr {
				require.Error(t, err)
				var cfgErr *Error
				require.True(t, errors.As(err, &cfgErr))
				for _, fragment := range tc.errFragments {
					require.Contains(t, err.Error(), fragment)
				}
				require.Nil(t, settings)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.wantSettings, settings)
			}
		})
	}
}

func TestSync_PageLimitFor(t *testing.T) {
	t.Parallel()

	s := Sync{PageLimit: 100, PageLimits: map[entity.Type]int{entity.Orders: 10}}

	require.Equal(t, 10, s.PageLimitFor(entity.Orders))
	require.Equal(t, 100, s.PageLimitFor(entity.Customers))
}

func TestCredential_Kind(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		credential Credential
		want       CredentialKind
	}{
		"none":      {want: CredentialNone},
		"token":     {credential: Credential{AccessToken: "x"}, want: CredentialToken},
		"secret":    {credential: Credential{SecretARN: "arn"}, want: CredentialSecret},
		"parameter": {credential: Credential{ParameterName: "/p"}, want: CredentialParameter},
		"file":      {credential: Credential{File: "/f"}, want: CredentialFile},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, tc.credential.Kind())
		})
	}
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()

	keys := []string{
		EnvCloverBaseURL, EnvCloverEnrichOrders, EnvCloverMerchantID,
		EnvDealPaidStage, EnvDealPipeline, EnvDealStage,
		EnvDynamoDBReportsTable, EnvHubSpotAPIBaseURL,
		EnvSyncConcurrency, EnvSyncCycleInterval, EnvSyncCycleTimeout,
		EnvSyncDryRun, EnvSyncInventoryResync, EnvSyncPageLimit,
	}
	for _, prefix := range []string{PrefixClover, PrefixHubSpot} {
		keys = append(keys, prefix+suffixAccessToken, prefix+suffixFile, prefix+suffixParameter, prefix+suffixSecretARN)
	}
	for _, typ := range entity.All() {
		keys = append(keys, pageLimitEnv(typ))
	}

	for _, k := range keys {
		t.Setenv(k, "")
	}
}
