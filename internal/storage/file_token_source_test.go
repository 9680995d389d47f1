package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFileTokenSource(t *testing.T) {
	t.Parallel()

	_, err := NewFileTokenSource("")
	require.ErrorContains(t, err, "token file path is required")

	source, err := NewFileTokenSource("/tmp/token")
	require.NoError(t, err)
	require.NotNil(t, source)
}

func TestFileTokenSource_Token(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content  *string
		want     string
		errMsg   string
		notFound bool
	}{
		"token with trailing newline": {
			content: ptr("clover-token\n"),
			want:    "clover-token",
		},
		"json content": {
			content: ptr(`{"access_token": "from-json"}`),
			want:    "from-json",
		},
		"empty file": {
			content: ptr("  \n"),
			errMsg:  "credential has no access token",
		},
		"missing file": {
			notFound: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "token")
			if tc.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tc.content), 0o600))
			}

			source, err := NewFileTokenSource(path)
			require.NoError(t, err)

			token, err := source.Token()
			switch {
			case tc.notFound:
				require.True(t, errors.Is(err, ErrCredentialNotFound))
			case tc.errMsg != "":
				require.ErrorContains(t, err, tc.errMsg)
			default:
				require.NoError(t, err)
				require.Equal(t, tc.want, token.AccessToken)
				require.False(t, token.Expiry.IsZero())
			}
		})
	}
}

func ptr(s string) *string {
	return &s
}
