package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	return s
}

func TestStoreSetGet(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Set("greeting", "hello"))

	v, ok := s.Get("greeting")
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	_, ok = s.Get("absent")
	assert.False(t, ok)
}

func TestStoreRemove(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Remove("k"))

	_, ok := s.Get("k")
	assert.False(t, ok)

	// Removing an absent key is not an error.
	require.NoError(t, s.Remove("k"))
}

func TestStoreKeysSorted(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Set("b", "2"))
	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("c", "3"))

	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.SeedEnv(map[string]string{"ENGINE_API": "http://engine"}))

	reopened, err := OpenStore(path)
	require.NoError(t, err)

	v, ok := reopened.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, map[string]string{"ENGINE_API": "http://engine"}, reopened.Snapshot())
}

func TestStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := OpenStore(path)
	assert.Error(t, err)
}

func TestSnapshotIsCopy(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.SeedEnv(map[string]string{"A": "1"}))

	snap := s.Snapshot()
	snap["A"] = "mutated"

	assert.Equal(t, map[string]string{"A": "1"}, s.Snapshot())
}
