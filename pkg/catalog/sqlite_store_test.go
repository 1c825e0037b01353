/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	store, err := OpenSqliteStore(path)
	require.NoError(t, err)
	defer store.Close()

	cat := New()
	cat.Add("ERROR <*> failed", []string{"ERROR", "failed"}, "ERROR: task-1 failed", []string{"task"})
	cat.Add("connected to <*>", []string{"connected to"}, "", nil)

	require.NoError(t, cat.SaveToStore(store))

	reloaded, err := LoadFromStore(store)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
	assert.True(t, reloaded.HasPattern("ERROR <*> failed"))
	assert.True(t, reloaded.HasPattern("connected to <*>"))

	// ids continue monotonically after reload, matching catalog.Load's
	// JSON-file round trip behavior.
	id, added := reloaded.Add("new pattern <*>", []string{"new pattern"}, "", nil)
	assert.True(t, added)
	assert.Equal(t, uint64(2), id)
}

func TestSqliteStoreLoadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	store, err := OpenSqliteStore(path)
	require.NoError(t, err)
	defer store.Close()

	cat, err := LoadFromStore(store)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())
}
