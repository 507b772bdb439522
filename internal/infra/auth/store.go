// Package auth owns the bearer-token lifecycle: file persistence, refresh via
// the external login helper, and expiry inspection. The login flow itself
// (browser-driven) is an opaque collaborator living outside this process.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoToken is returned when no token has been persisted yet.
var ErrNoToken = errors.New("auth: no token persisted")

// FileStore persists the bearer token to a plain text file, matching the
// format the external login helper writes.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted token. Returns ErrNoToken when the file is absent
// or empty.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Save writes the token, replacing any previous one. Mode 0600: the token
// grants full portal access.
func (s *FileStore) Save(token string) error {
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}
