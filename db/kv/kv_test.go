package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// setupDB instantiates and returns a Store instance backed by a temp
// directory that is removed when the test finishes.
func setupDB(t *testing.T) *Store {
	db, err := NewKVStore(t.TempDir(), &Config{})
	require.NoError(t, err, "failed to instantiate DB")
	t.Cleanup(func() {
		require.NoError(t, db.Close(), "failed to close database")
	})
	return db
}

func TestClearDB(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.ClearDB())
	require.NoError(t, db.ClearDB(), "clearing twice should be a no-op")
}

func TestStoreSize(t *testing.T) {
	db := setupDB(t)
	size, err := db.Size()
	require.NoError(t, err)
	require.Greater(t, size, int64(0))
}
