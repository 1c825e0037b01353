/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddDedupesByPattern(t *testing.T) {
	c := New()
	id1, added1 := c.Add("ERROR <*> failed", []string{"ERROR ", " failed"}, "ERROR: task-42 failed", nil)
	assert.True(t, added1)

	id2, added2 := c.Add("ERROR <*> failed", []string{"ERROR ", " failed"}, "ERROR: task-7 failed", nil)
	assert.False(t, added2)
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, c.Len())
}

func TestAddAssignsMonotonicIDs(t *testing.T) {
	c := New()
	id1, _ := c.Add("a <*>", []string{"a "}, "", nil)
	id2, _ := c.Add("b <*>", []string{"b "}, "", nil)
	assert.Less(t, id1, id2)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	c := New()
	c.Add("ERROR <*> failed", []string{"ERROR ", " failed"}, "ERROR: task-42 failed", nil)
	c.Add("cpu_usage: <*>%", []string{"cpu_usage: ", "%"}, "cpu_usage: 67.8%", nil)
	assert.NoError(t, c.Save(path))

	loaded, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, c.Templates(), loaded.Templates())

	// appending to the loaded catalog must continue the id sequence, not
	// restart it.
	nextID, added := loaded.Add("new pattern <*>", []string{"new pattern "}, "", nil)
	assert.True(t, added)
	assert.Equal(t, uint64(2), nextID)
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}
