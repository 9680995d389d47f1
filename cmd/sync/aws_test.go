package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/cloverbridge/internal/config"
)

func TestNeedsAWS(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		settings config.Settings
		want     bool
	}{
		"static tokens only": {
			settings: config.Settings{
				Clover:  config.Clover{Credential: config.Credential{AccessToken: "a"}},
				HubSpot: config.HubSpot{Credential: config.Credential{File: "/run/token"}},
			},
		},
		"clover secret": {
			settings: config.Settings{
				Clover:  config.Clover{Credential: config.Credential{SecretARN: "arn"}},
				HubSpot: config.HubSpot{Credential: config.Credential{AccessToken: "b"}},
			},
			want: true,
		},
		"hubspot parameter": {
			settings: config.Settings{
				Clover:  config.Clover{Credential: config.Credential{AccessToken: "a"}},
				HubSpot: config.HubSpot{Credential: config.Credential{ParameterName: "/p"}},
			},
			want: true,
		},
		"reports table": {
			settings: config.Settings{
				Clover:   config.Clover{Credential: config.Credential{AccessToken: "a"}},
				DynamoDB: config.DynamoDB{ReportsTable: "cloverbridge-reports"},
				HubSpot:  config.HubSpot{Credential: config.Credential{AccessToken: "b"}},
			},
			want: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, needsAWS(&tc.settings))
		})
	}
}

func TestNewAWSClients_notNeeded(t *testing.T) {
	t.Parallel()

	clients, err := newAWSClients(context.Background(), &config.Settings{})
	require.NoError(t, err)
	require.Nil(t, clients)
}
