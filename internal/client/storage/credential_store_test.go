package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmodel "lungscreen/internal/auth/domain/model"
)

func tempStore(t *testing.T) *FileCredentialStore {
	t.Helper()
	return NewFileCredentialStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestSaveAndLoad(t *testing.T) {
	store := tempStore(t)

	creds := &Credentials{
		Token: "token-123",
		User:  authmodel.Profile{Email: "doc@hospital.org", Name: "Dr. Doe"},
	}
	require.NoError(t, store.Save(creds))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, creds, loaded)
}

func TestLoad_MissingFile(t *testing.T) {
	store := tempStore(t)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not-json"), 0o600))

	_, err := NewFileCredentialStore(path).Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestSave_RejectsPartialCredentials(t *testing.T) {
	store := tempStore(t)

	// Token without profile and profile without token are both invalid:
	// the two halves are only ever persisted together.
	assert.Error(t, store.Save(&Credentials{Token: "token-123"}))
	assert.Error(t, store.Save(&Credentials{User: authmodel.Profile{Email: "doc@hospital.org"}}))
	assert.Error(t, store.Save(nil))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestLoad_RejectsPartialEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token": "orphan-token"}`), 0o600))

	_, err := NewFileCredentialStore(path).Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestClear(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save(&Credentials{
		Token: "token-123",
		User:  authmodel.Profile{Email: "doc@hospital.org", Name: "Dr. Doe"},
	}))

	require.NoError(t, store.Clear())
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)

	// Clearing again is a no-op, not an error.
	assert.NoError(t, store.Clear())
}
