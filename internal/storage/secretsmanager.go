package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"golang.org/x/oauth2"
)

// fetchTimeout bounds a single credential read, since oauth2.TokenSource carries no context.
const fetchTimeout = 10 * time.Second

// SecretsManagerAPI defines the Secrets Manager operations used by the token source.
type SecretsManagerAPI interface {
	// GetSecretValue retrieves a secret value.
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretTokenSource reads an API access token from AWS Secrets Manager.
type SecretTokenSource struct {
	// client is the Secrets Manager API client.
	client SecretsManagerAPI

	// options holds TTL and clock settings.
	options *tokenSourceOptions

	// secretARN is the ARN of the secret storing the access token.
	secretARN string
}

// Token implements oauth2.TokenSource.
func (s *SecretTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	output, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretARN),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
			return nil, fmt.Errorf("secret %s: %w", s.secretARN, ErrCredentialNotFound)
		}
		return nil, fmt.Errorf("getting secret from Secrets Manager: %w", err)
	}

	if output.SecretString == nil {
		return nil, errors.New("secret has no string value")
	}

	return s.options.newToken(*output.SecretString)
}

// NewSecretTokenSource creates a new Secrets Manager-backed token source.
func NewSecretTokenSource(client SecretsManagerAPI, secretARN string, opts ...TokenSourceOption) (*SecretTokenSource, error) {
	if client == nil {
		return nil, errors.New("secrets manager client is required")
	}
	if secretARN == "" {
		return nil, errors.New("secret ARN is required")
	}

	return &SecretTokenSource{
		client:    client,
		options:   applyTokenSourceOptions(opts),
		secretARN: secretARN,
	}, nil
}
