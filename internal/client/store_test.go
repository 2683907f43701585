package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SetAccess("tok-1"))
	require.NoError(t, s.SetRefresh("ref-1"))
	require.NoError(t, s.SetProfile([]byte(`{"id":"u1"}`)))

	// A fresh store reads the same file, like a new process would.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", reopened.Access())
	assert.Equal(t, "ref-1", reopened.Refresh())
	assert.JSONEq(t, `{"id":"u1"}`, string(reopened.Profile()))
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SetAccess("tok-1"))
	require.NoError(t, s.Clear())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Empty(t, reopened.Access())
	assert.Empty(t, reopened.Refresh())
	assert.Empty(t, reopened.Profile())
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, s.Access())
}

func TestFileStoreCorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Empty(t, s.Access())
}

func TestMemoryStoreIndependentSlots(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.SetAccess("a"))
	require.NoError(t, s.SetRefresh("r"))

	require.NoError(t, s.SetAccess(""))
	assert.Empty(t, s.Access())
	assert.Equal(t, "r", s.Refresh(), "clearing one slot leaves others intact")
}
