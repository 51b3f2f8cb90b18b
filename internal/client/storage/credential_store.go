// Package storage persists the session credentials between process runs.
// The token and the profile live in one file and are always written and
// cleared together: there is no state where one exists without the other.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	authmodel "lungscreen/internal/auth/domain/model"
)

// ErrNoCredentials is returned when nothing has been persisted yet.
var ErrNoCredentials = errors.New("no persisted credentials")

// Credentials is the persisted session snapshot.
type Credentials struct {
	Token string            `json:"token"`
	User  authmodel.Profile `json:"user"`
}

// CredentialStore persists and restores session credentials.
type CredentialStore interface {
	Load() (*Credentials, error)
	Save(creds *Credentials) error
	Clear() error
}

// FileCredentialStore stores credentials in a single JSON file.
type FileCredentialStore struct {
	path string
}

// NewFileCredentialStore creates a store backed by the given file path.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

// Load reads the persisted credentials. A missing file, malformed content or
// an entry missing either half is reported as ErrNoCredentials.
func (s *FileCredentialStore) Load() (*Credentials, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, ErrNoCredentials
	}
	if creds.Token == "" || creds.User.Email == "" {
		return nil, ErrNoCredentials
	}
	return &creds, nil
}

// Save writes the token and profile together, atomically via a rename.
func (s *FileCredentialStore) Save(creds *Credentials) error {
	if creds == nil || creds.Token == "" || creds.User.Email == "" {
		return errors.New("credentials must carry both token and profile")
	}

	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	return nil
}

// Clear removes the persisted credentials. Clearing an empty store is not an
// error.
func (s *FileCredentialStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
