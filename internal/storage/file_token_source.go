package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// FileTokenSource reads an API access token from a local file.
type FileTokenSource struct {
	// options holds TTL and clock settings.
	options *tokenSourceOptions

	// path is the token file location.
	path string
}

// NewFileTokenSource creates a new FileTokenSource that reads the given path.
func NewFileTokenSource(path string, opts ...TokenSourceOption) (*FileTokenSource, error) {
	if path == "" {
		return nil, fmt.Errorf("token file path is required")
	}
	return &FileTokenSource{options: applyTokenSourceOptions(opts), path: filepath.Clean(path)}, nil
}

// Token implements oauth2.TokenSource.
func (s *FileTokenSource) Token() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("token file %s: %w", s.path, ErrCredentialNotFound)
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	token, err := s.options.newToken(string(data))
	if err != nil {
		return nil, fmt.Errorf("token file %s: %w", s.path, err)
	}

	return token, nil
}
