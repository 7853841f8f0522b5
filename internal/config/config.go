// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config carrying the defaults; Load layers file and env on top.
// - Validation failures wrap ErrInvalidConfig, load failures wrap ErrLoadConfig.
package config

import (
	"fmt"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Model names the manifest entry to serve when no local artifact exists.
	Model string `koanf:"model"`

	// Artifact points at a local artifact file. When the file exists it is
	// served directly and the hub is never consulted.
	Artifact string `koanf:"artifact"`

	// Manifest points at the hub manifest JSON describing downloadable models.
	Manifest string `koanf:"manifest"`

	// HubBaseURL resolves relative manifest URLs.
	HubBaseURL string `koanf:"hub_base_url"`

	// CacheDir overrides the hub download cache location.
	CacheDir string `koanf:"cache_dir"`

	// Device selects the execution device for the compiled engine.
	Device string `koanf:"device"`

	// AnswerThreshold is the relevance probability a cell needs to be part
	// of an answer. Must stay within [0, 1].
	AnswerThreshold float64 `koanf:"answer_threshold"`

	// RunsDB is the SQLite file recording run history. Empty keeps history
	// in memory only.
	RunsDB string `koanf:"runs_db"`

	// MaxTableBytes caps the size of an uploaded table.
	MaxTableBytes int64 `koanf:"max_table_bytes"`
}

// New creates a Config carrying the service defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		Model:           "quench-mini",
		Artifact:        "quench.qir",
		Device:          "cpu",
		AnswerThreshold: 0.5,
		RunsDB:          "quench.db",
		MaxTableBytes:   1 << 20,
	}
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.AnswerThreshold < 0 || c.AnswerThreshold > 1 {
		return fmt.Errorf("%w: answer_threshold %v out of [0, 1]", ErrInvalidConfig, c.AnswerThreshold)
	}
	if c.MaxTableBytes <= 0 {
		return fmt.Errorf("%w: max_table_bytes must be positive", ErrInvalidConfig)
	}
	return nil
}
