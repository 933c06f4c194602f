// Package config holds the generate and query settings of the dirwalk CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bsm/dirwalk"
	"github.com/bsm/dirwalk/store"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds all settings. Command line flags override file values.
type Config struct {
	// Storage
	BaseDir     string `yaml:"base_dir"`    // stores live in <base_dir>/<layout>
	Store       string `yaml:"store"`       // backend kind (default leveldb)
	CacheMB     int    `yaml:"cache_mb"`    // block cache (default 8)
	Compression bool   `yaml:"compression"` // snappy blocks where supported

	// Tree
	Layout         string `yaml:"layout"`          // value layout (default long)
	DirsPerLevel   int    `yaml:"dirs_per_level"`  // default 5
	Levels         int    `yaml:"levels"`          // default 10
	NamePrefix     string `yaml:"name_prefix"`     // default /abcdefghijklmno
	FlushThreshold int    `yaml:"flush_threshold"` // bytes (default 10 MiB)

	// Queries
	Seed    int64 `yaml:"seed"`    // 0 seeds from the clock
	Workers int   `yaml:"workers"` // concurrent walkers (default 1)
	Walks   int   `yaml:"walks"`   // walks per worker, 0 runs until interrupted

	// Observability
	MetricsAddr string `yaml:"metrics_addr"` // e.g. "127.0.0.1:9090", empty disables
	LogLevel    string `yaml:"log_level"`    // default info
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseDir:        "./data",
		Store:          string(store.KindLevelDB),
		CacheMB:        8,
		Layout:         dirwalk.Layout{Format: dirwalk.FormatLong}.String(),
		DirsPerLevel:   5,
		Levels:         10,
		NamePrefix:     dirwalk.DefaultNamePrefix,
		FlushThreshold: dirwalk.DefaultFlushThreshold,
		Workers:        1,
		Walks:          1000,
		LogLevel:       "info",
	}
}

// LoadConfig loads a configuration from a YAML (or JSON) file on top of
// the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("%w: base_dir is required", dirwalk.ErrConfig)
	}
	if _, err := store.ParseKind(c.Store); err != nil {
		return err
	}
	if _, err := dirwalk.ParseLayout(c.Layout); err != nil {
		return err
	}
	if c.DirsPerLevel < 1 {
		return fmt.Errorf("%w: dirs_per_level must be >= 1", dirwalk.ErrConfig)
	}
	if c.Levels < 0 {
		return fmt.Errorf("%w: levels must be >= 0", dirwalk.ErrConfig)
	}
	if err := dirwalk.CheckShape(c.DirsPerLevel, c.Levels); err != nil {
		return err
	}
	if c.CacheMB < 0 {
		return fmt.Errorf("%w: cache_mb must be >= 0", dirwalk.ErrConfig)
	}
	if c.FlushThreshold < 0 {
		return fmt.Errorf("%w: flush_threshold must be >= 0", dirwalk.ErrConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1", dirwalk.ErrConfig)
	}
	if c.Walks < 0 {
		return fmt.Errorf("%w: walks must be >= 0", dirwalk.ErrConfig)
	}
	if _, err := c.ParseLogLevel(); err != nil {
		return err
	}
	return nil
}

// StoreKind returns the parsed store kind.
func (c *Config) StoreKind() store.Kind {
	kind, _ := store.ParseKind(c.Store)
	return kind
}

// StoreDir returns the directory of the store holding the given layout.
func (c *Config) StoreDir(l dirwalk.Layout) string {
	return filepath.Join(c.BaseDir, l.String())
}

// StoreOptions returns the backend options.
func (c *Config) StoreOptions() *store.Options {
	return &store.Options{
		CacheMB:     c.CacheMB,
		Compression: c.Compression,
	}
}

// ParseLogLevel parses the log level.
func (c *Config) ParseLogLevel() (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("%w: log_level: %v", dirwalk.ErrConfig, err)
	}
	return lvl, nil
}
