package main

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/peteski22/cloverbridge/internal/config"
	"github.com/peteski22/cloverbridge/internal/storage"
)

// errNoAWS is returned when a credential lives in AWS but no AWS clients were configured.
var errNoAWS = errors.New("AWS clients are required for this credential")

// tokenSource resolves a platform credential into a token source. Tokens read
// from files, secrets or parameters are cached until their TTL expires, so
// rotated credentials are picked up without a restart.
func tokenSource(platform string, cred config.Credential, clients *awsClients) (oauth2.TokenSource, error) {
	var (
		src oauth2.TokenSource
		err error
	)

	switch cred.Kind() {
	case config.CredentialToken:
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.AccessToken, TokenType: "Bearer"}), nil
	case config.CredentialFile:
		src, err = storage.NewFileTokenSource(cred.File)
	case config.CredentialParameter:
		if clients == nil || clients.parameters == nil {
			return nil, fmt.Errorf("%s access token parameter: %w", platform, errNoAWS)
		}
		src, err = storage.NewParameterTokenSource(clients.parameters, cred.ParameterName)
	case config.CredentialSecret:
		if clients == nil || clients.secrets == nil {
			return nil, fmt.Errorf("%s access token secret: %w", platform, errNoAWS)
		}
		src, err = storage.NewSecretTokenSource(clients.secrets, cred.SecretARN)
	default:
		return nil, fmt.Errorf("no %s access token configured", platform)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s token source: %w", platform, err)
	}

	return oauth2.ReuseTokenSource(nil, src), nil
}
