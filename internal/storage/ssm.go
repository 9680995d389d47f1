package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"golang.org/x/oauth2"
)

// SSMAPI defines the SSM operations used by the token source.
type SSMAPI interface {
	// GetParameter retrieves a parameter from SSM.
	GetParameter(
		ctx context.Context,
		params *ssm.GetParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.GetParameterOutput, error)
}

// ParameterTokenSource reads an API access token from an SSM SecureString parameter.
type ParameterTokenSource struct {
	// client is the SSM API client.
	client SSMAPI

	// options holds TTL and clock settings.
	options *tokenSourceOptions

	// parameterName is the SSM parameter holding the token.
	parameterName string
}

// Token implements oauth2.TokenSource.
func (s *ParameterTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	output, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.parameterName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFoundErr *types.ParameterNotFound
		if errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("parameter %s: %w", s.parameterName, ErrCredentialNotFound)
		}
		return nil, fmt.Errorf("getting parameter from SSM: %w", err)
	}

	if output.Parameter == nil || output.Parameter.Value == nil {
		return nil, errors.New("parameter has no value")
	}

	return s.options.newToken(*output.Parameter.Value)
}

// NewParameterTokenSource creates a new SSM-backed token source.
func NewParameterTokenSource(client SSMAPI, parameterName string, opts ...TokenSourceOption) (*ParameterTokenSource, error) {
	if client == nil {
		return nil, errors.New("ssm client is required")
	}
	if parameterName == "" {
		return nil, errors.New("parameter name is required")
	}

	return &ParameterTokenSource{
		client:        client,
		options:       applyTokenSourceOptions(opts),
		parameterName: parameterName,
	}, nil
}
