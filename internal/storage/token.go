package storage

import (
	"errors"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

// ErrCredentialNotFound is returned when the configured secret, parameter or file does not exist.
var ErrCredentialNotFound = errors.New("credential not found")

// defaultTokenTTL is how long a fetched access token is reused before it is read again.
const defaultTokenTTL = 5 * time.Minute

// TokenSourceOption configures a credential-backed token source.
type TokenSourceOption func(*tokenSourceOptions)

// tokenSourceOptions holds optional settings shared by the token sources.
type tokenSourceOptions struct {
	// now returns the current time.
	now func() time.Time

	// ttl is how long a token is considered valid after it is read.
	ttl time.Duration
}

// WithTokenTTL sets how long a token is reused before the backing store is read again.
// Rotated credentials are picked up within one TTL.
func WithTokenTTL(ttl time.Duration) TokenSourceOption {
	return func(o *tokenSourceOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

func defaultTokenSourceOptions() *tokenSourceOptions {
	return &tokenSourceOptions{
		now: time.Now,
		ttl: defaultTokenTTL,
	}
}

func applyTokenSourceOptions(opts []TokenSourceOption) *tokenSourceOptions {
	o := defaultTokenSourceOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// newToken builds a bearer token from a stored credential value. The value
// is either the bare token or a JSON object with an "access_token" field.
func (o *tokenSourceOptions) newToken(value string) (*oauth2.Token, error) {
	access := strings.TrimSpace(value)
	if gjson.Valid(access) {
		if parsed := gjson.Parse(access); parsed.IsObject() {
			access = strings.TrimSpace(parsed.Get("access_token").String())
		}
	}
	if access == "" {
		return nil, errors.New("credential has no access token")
	}

	return &oauth2.Token{
		AccessToken: access,
		Expiry:      o.now().Add(o.ttl),
		TokenType:   "Bearer",
	}, nil
}
