/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package config is the process-wide configuration, loaded first and depended
// on by everything else. It follows the teacher's appconfig load order: start
// from the defaults, overlay a YAML file, then a TOML file, then apply
// environment overrides, then validate.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Config holds every recognised option from the matcher's external-interface
// contract (§6 "Configuration (recognised options)").
type Config struct {
	// Matcher (C4)
	MinFragmentLength      int     `json:"minFragmentLength" yaml:"minFragmentLength" toml:"minFragmentLength"`
	FragmentMatchThreshold float64 `json:"fragmentMatchThreshold" yaml:"fragmentMatchThreshold" toml:"fragmentMatchThreshold"`

	// Batch driver (C6)
	OptimalBatchSize int `json:"optimalBatchSize" yaml:"optimalBatchSize" toml:"optimalBatchSize"`

	// Buffered sink (C8)
	BufferSize    int           `json:"bufferSize" yaml:"bufferSize" toml:"bufferSize"`
	FlushInterval time.Duration `json:"flushInterval" yaml:"flushInterval" toml:"flushInterval"`

	// Generation pipeline (C7)
	GenBatchSize      int           `json:"genBatchSize" yaml:"genBatchSize" toml:"genBatchSize"`
	GenBatchTimeout   time.Duration `json:"genBatchTimeout" yaml:"genBatchTimeout" toml:"genBatchTimeout"`
	MaxConcurrentGen  int           `json:"maxConcurrentGen" yaml:"maxConcurrentGen" toml:"maxConcurrentGen"`
	MaxRetries        int           `json:"maxRetries" yaml:"maxRetries" toml:"maxRetries"`
	InitialBackoffMs  int           `json:"initialBackoffMs" yaml:"initialBackoffMs" toml:"initialBackoffMs"`
	MaxPendingInstall int           `json:"maxPendingInstalls" yaml:"maxPendingInstalls" toml:"maxPendingInstalls"`

	// Histogram & divergence (C9)
	BaselineWindow time.Duration `json:"baselineWindow" yaml:"baselineWindow" toml:"baselineWindow"`

	// Ambient: where the catalog cache is persisted, where the generator/store
	// endpoints live. Not part of the matcher algorithm itself but required to
	// wire C1/C7/C8 to real collaborators.
	CatalogCachePath string `json:"catalogCachePath" yaml:"catalogCachePath" toml:"catalogCachePath"`
	CatalogSqlitePath string `json:"catalogSqlitePath" yaml:"catalogSqlitePath" toml:"catalogSqlitePath"`

	GeneratorAPIKey   string `json:"generatorApiKey" yaml:"generatorApiKey" toml:"generatorApiKey"`
	GeneratorModel    string `json:"generatorModel" yaml:"generatorModel" toml:"generatorModel"`
	GeneratorBaseURL  string `json:"generatorBaseUrl" yaml:"generatorBaseUrl" toml:"generatorBaseUrl"`

	StoreURL    string `json:"storeUrl" yaml:"storeUrl" toml:"storeUrl"`
	StoreToken  string `json:"storeToken" yaml:"storeToken" toml:"storeToken"`
	StoreOrg    string `json:"storeOrg" yaml:"storeOrg" toml:"storeOrg"`
	StoreBucket string `json:"storeBucket" yaml:"storeBucket" toml:"storeBucket"`

	UnmatchedQueueSize int `json:"unmatchedQueueSize" yaml:"unmatchedQueueSize" toml:"unmatchedQueueSize"`

	// Ambient: logging.
	LogDir  string `json:"logDir" yaml:"logDir" toml:"logDir"`
	DevMode bool   `json:"devMode" yaml:"devMode" toml:"devMode"`
}

// Default returns the defaults from spec §6, unchanged.
func Default() Config {
	return Config{
		MinFragmentLength:      1,
		FragmentMatchThreshold: 0.3,
		OptimalBatchSize:       1000,
		BufferSize:             1000,
		FlushInterval:          5 * time.Second,
		GenBatchSize:           10,
		GenBatchTimeout:        2 * time.Second,
		MaxConcurrentGen:       5,
		MaxRetries:             3,
		InitialBackoffMs:       1000,
		MaxPendingInstall:      1,
		BaselineWindow:         3 * time.Hour,
		CatalogCachePath:       "data/catalog.json",
		CatalogSqlitePath:      "data/catalog.db",
		UnmatchedQueueSize:     10000,
		LogDir:                 "logs",
	}
}

// Preset mirrors matcher_config.rs's named presets from the original Rust
// implementation: different optimal_batch_size defaults tuned for different
// call patterns. Supplemented from original_source since it is a cheap,
// in-scope enrichment over the distilled spec's single default.
type Preset string

const (
	PresetStreaming        Preset = "streaming"
	PresetBatchProcessing  Preset = "batch_processing"
	PresetBulkProcessing   Preset = "bulk_processing"
)

// ApplyPreset overrides OptimalBatchSize (and, for bulk processing, the sink
// buffer size) to values appropriate for the named call pattern.
func (c *Config) ApplyPreset(p Preset) error {
	switch p {
	case PresetStreaming:
		c.OptimalBatchSize = 100
	case PresetBatchProcessing:
		c.OptimalBatchSize = 1000
	case PresetBulkProcessing:
		c.OptimalBatchSize = 10000
		c.BufferSize = 5000
	default:
		return fmt.Errorf("config: unknown preset %q", p)
	}
	return nil
}

// Load builds a Config by starting from Default(), overlaying a YAML file,
// then a TOML file, then environment variables, in that order — the same
// file-then-env precedence the teacher's SetupAppConfig used, generalised to
// this service's own file names and env prefix.
func Load() (Config, error) {
	cfg := Default()

	if b, err := readFirst("logmatcher.yaml", "conf/logmatcher.yaml"); err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse logmatcher.yaml: %w", err)
		}
	}
	if b, err := readFirst("logmatcher.toml", "conf/logmatcher.toml"); err == nil {
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse logmatcher.toml: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func readFirst(paths ...string) ([]byte, error) {
	var lastErr error
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func applyEnvOverrides(cfg *Config) {
	if s := os.Getenv("LOGMATCHER_MIN_FRAGMENT_LENGTH"); s != "" {
		cfg.MinFragmentLength = cast.ToInt(s)
	}
	if s := os.Getenv("LOGMATCHER_FRAGMENT_MATCH_THRESHOLD"); s != "" {
		cfg.FragmentMatchThreshold = cast.ToFloat64(s)
	}
	if s := os.Getenv("LOGMATCHER_OPTIMAL_BATCH_SIZE"); s != "" {
		cfg.OptimalBatchSize = cast.ToInt(s)
	}
	if s := os.Getenv("LOGMATCHER_BUFFER_SIZE"); s != "" {
		cfg.BufferSize = cast.ToInt(s)
	}
	if s := os.Getenv("LOGMATCHER_FLUSH_INTERVAL"); s != "" {
		cfg.FlushInterval = cast.ToDuration(s)
	}
	if s := os.Getenv("LOGMATCHER_GEN_BATCH_SIZE"); s != "" {
		cfg.GenBatchSize = cast.ToInt(s)
	}
	if s := os.Getenv("LOGMATCHER_GEN_BATCH_TIMEOUT"); s != "" {
		cfg.GenBatchTimeout = cast.ToDuration(s)
	}
	if s := os.Getenv("LOGMATCHER_MAX_CONCURRENT_GEN"); s != "" {
		cfg.MaxConcurrentGen = cast.ToInt(s)
	}
	if s := os.Getenv("LOGMATCHER_MAX_RETRIES"); s != "" {
		cfg.MaxRetries = cast.ToInt(s)
	}
	if s := os.Getenv("LOGMATCHER_INITIAL_BACKOFF_MS"); s != "" {
		cfg.InitialBackoffMs = cast.ToInt(s)
	}
	if s := os.Getenv("LOGMATCHER_BASELINE_WINDOW"); s != "" {
		cfg.BaselineWindow = cast.ToDuration(s)
	}
	if s := os.Getenv("LOGMATCHER_CATALOG_CACHE_PATH"); s != "" {
		cfg.CatalogCachePath = s
	}
	if s := os.Getenv("LOGMATCHER_GENERATOR_API_KEY"); s != "" {
		cfg.GeneratorAPIKey = s
	}
	if s := os.Getenv("LOGMATCHER_GENERATOR_MODEL"); s != "" {
		cfg.GeneratorModel = s
	}
	if s := os.Getenv("LOGMATCHER_GENERATOR_BASE_URL"); s != "" {
		cfg.GeneratorBaseURL = s
	}
	if s := os.Getenv("LOGMATCHER_STORE_URL"); s != "" {
		cfg.StoreURL = s
	}
	if s := os.Getenv("LOGMATCHER_STORE_TOKEN"); s != "" {
		cfg.StoreToken = s
	}
	if s := os.Getenv("LOGMATCHER_STORE_ORG"); s != "" {
		cfg.StoreOrg = s
	}
	if s := os.Getenv("LOGMATCHER_STORE_BUCKET"); s != "" {
		cfg.StoreBucket = s
	}
	if s := os.Getenv("LOGMATCHER_LOG_DIR"); s != "" {
		cfg.LogDir = s
	}
	if s := os.Getenv("LOGMATCHER_DEV_MODE"); s != "" {
		cfg.DevMode = cast.ToBool(s)
	}
}

// Validate reports a ConfigurationError (§7): the process refuses to start
// rather than run with a nonsensical option.
func (c Config) Validate() error {
	if c.MinFragmentLength < 1 {
		return fmt.Errorf("config: minFragmentLength must be >= 1, got %d", c.MinFragmentLength)
	}
	if c.FragmentMatchThreshold < 0 || c.FragmentMatchThreshold > 1 {
		return fmt.Errorf("config: fragmentMatchThreshold must be in [0,1], got %f", c.FragmentMatchThreshold)
	}
	if c.BufferSize < 1 {
		return fmt.Errorf("config: bufferSize must be >= 1, got %d", c.BufferSize)
	}
	if c.GenBatchSize < 1 {
		return fmt.Errorf("config: genBatchSize must be >= 1, got %d", c.GenBatchSize)
	}
	if c.MaxConcurrentGen < 1 {
		return fmt.Errorf("config: maxConcurrentGen must be >= 1, got %d", c.MaxConcurrentGen)
	}
	return nil
}
