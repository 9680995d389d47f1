package clover

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := defaultOptions()

	require.Equal(t, "https://api.clover.com/v3/merchants", opts.baseURL)
	require.True(t, opts.enrichOrders)
	require.Equal(t, 8, opts.enrichmentConcurrency)
	require.Equal(t, 30*time.Second, opts.timeout)
	require.Nil(t, opts.httpClient)
	require.Nil(t, opts.logger)
}

func TestWithBaseURL(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		baseURL  string
		expected string
		wantErr  bool
	}{
		"valid URL": {
			baseURL:  "https://sandbox.dev.clover.com/v3/merchants",
			expected: "https://sandbox.dev.clover.com/v3/merchants",
		},
		"trailing slash trimmed": {
			baseURL:  " https://sandbox.dev.clover.com/v3/merchants/ ",
			expected: "https://sandbox.dev.clover.com/v3/merchants",
		},
		"empty URL": {
			baseURL: "",
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			opts := defaultOptions()
			err := WithBaseURL(tc.baseURL)(opts)

			if tc.wantErr {
				require.ErrorContains(t, err, "base URL cannot be empty")
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.expected, opts.baseURL)
			}
		})
	}
}

func TestOptions_validation(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opt    Option
		errMsg string
	}{
		"nil HTTP client": {
			opt:    WithHTTPClient(nil),
			errMsg: "HTTP client cannot be nil",
		},
		"nil logger": {
			opt:    WithLogger(nil),
			errMsg: "logger cannot be nil",
		},
		"zero timeout": {
			opt:    WithTimeout(0),
			errMsg: "timeout must be positive",
		},
		"negative concurrency": {
			opt:    WithEnrichmentConcurrency(-1),
			errMsg: "enrichment concurrency must be positive",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.ErrorContains(t, tc.opt(defaultOptions()), tc.errMsg)
		})
	}
}

func TestWithOrderEnrichment(t *testing.T) {
	t.Parallel()

	opts := defaultOptions()
	require.NoError(t, WithOrderEnrichment(false)(opts))
	require.False(t, opts.enrichOrders)

	require.NoError(t, WithHTTPClient(&http.Client{})(opts))
	require.NotNil(t, opts.httpClient)
}
