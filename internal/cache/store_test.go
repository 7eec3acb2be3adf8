package cache

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories builds each backend over a fresh temp directory so every
// test exercises both implementations against the same contract.
func storeFactories() map[string]func(t *testing.T) BlobStore {
	return map[string]func(t *testing.T) BlobStore{
		"fs": func(t *testing.T) BlobStore {
			s, err := NewFSStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) BlobStore {
			s, err := NewSQLiteStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreRoundtrip(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			require.NoError(t, s.Write("k1", []byte(`{"a":1}`)))

			got, err := s.Read("k1")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"a":1}`), got)
		})
	}
}

func TestStoreOverwrite(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			require.NoError(t, s.Write("k", []byte("old")))
			require.NoError(t, s.Write("k", []byte("new")))

			got, err := s.Read("k")
			require.NoError(t, err)
			assert.Equal(t, []byte("new"), got)
		})
	}
}

func TestStoreReadMissing(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			_, err := s.Read("absent")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			require.NoError(t, s.Write("k", []byte("v")))
			require.NoError(t, s.Delete("k"))

			_, err := s.Read("k")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing key is not an error.
			assert.NoError(t, s.Delete("k"))
		})
	}
}

func TestStoreKeys(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			keys, err := s.Keys()
			require.NoError(t, err)
			assert.Empty(t, keys)

			require.NoError(t, s.Write("a", []byte("1")))
			require.NoError(t, s.Write("b", []byte("2")))

			keys, err = s.Keys()
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"a", "b"}, keys)
		})
	}
}

func TestFSStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Write("k", []byte("payload")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k.json", entries[0].Name())
}
