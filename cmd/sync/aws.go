package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/peteski22/cloverbridge/internal/config"
	"github.com/peteski22/cloverbridge/internal/storage"
)

// awsClients holds the AWS service clients the process needs.
type awsClients struct {
	dynamodb   storage.DynamoDBAPI
	parameters storage.SSMAPI
	secrets    storage.SecretsManagerAPI
}

// needsAWS reports whether any configured feature is backed by AWS.
func needsAWS(settings *config.Settings) bool {
	if settings.DynamoDB.ReportsTable != "" {
		return true
	}
	for _, cred := range []config.Credential{settings.Clover.Credential, settings.HubSpot.Credential} {
		switch cred.Kind() {
		case config.CredentialParameter, config.CredentialSecret:
			return true
		}
	}
	return false
}

// newAWSClients loads the default AWS configuration when settings need it.
// It returns nil when nothing is backed by AWS.
func newAWSClients(ctx context.Context, settings *config.Settings) (*awsClients, error) {
	if !needsAWS(settings) {
		return nil, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &awsClients{
		dynamodb:   dynamodb.NewFromConfig(cfg),
		parameters: ssm.NewFromConfig(cfg),
		secrets:    secretsmanager.NewFromConfig(cfg),
	}, nil
}
