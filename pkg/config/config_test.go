/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.MinFragmentLength)
	assert.Equal(t, 0.3, cfg.FragmentMatchThreshold)
	assert.Equal(t, 1000, cfg.OptimalBatchSize)
	assert.Equal(t, 1000, cfg.BufferSize)
	assert.NoError(t, cfg.Validate())
}

func TestApplyPreset(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.ApplyPreset(PresetStreaming))
	assert.Equal(t, 100, cfg.OptimalBatchSize)

	assert.NoError(t, cfg.ApplyPreset(PresetBulkProcessing))
	assert.Equal(t, 10000, cfg.OptimalBatchSize)
	assert.Equal(t, 5000, cfg.BufferSize)

	assert.Error(t, cfg.ApplyPreset("unknown"))
}

func TestEnvOverride(t *testing.T) {
	os.Setenv("LOGMATCHER_FRAGMENT_MATCH_THRESHOLD", "0.5")
	defer os.Unsetenv("LOGMATCHER_FRAGMENT_MATCH_THRESHOLD")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 0.5, cfg.FragmentMatchThreshold)
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := Default()
	cfg.FragmentMatchThreshold = 1.5
	assert.Error(t, cfg.Validate())
}
