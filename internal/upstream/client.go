package upstream

import (
	"net/http"

	"golang.org/x/oauth2"
)

// NewAuthorizedClient returns a copy of base whose requests carry
// "Authorization: Bearer <token>" from ts. Tokens are cached until they expire.
func NewAuthorizedClient(base *http.Client, ts oauth2.TokenSource) *http.Client {
	if base == nil {
		base = &http.Client{}
	}

	return &http.Client{
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       base.Timeout,
		Transport: &oauth2.Transport{
			Base:   base.Transport,
			Source: oauth2.ReuseTokenSource(nil, ts),
		},
	}
}
