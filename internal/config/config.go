// Package config loads aptitude settings from .aptitude/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Dir is the per-project state directory.
const Dir = ".aptitude"

// FileName is the config file inside Dir.
const FileName = "config.yaml"

// Config is the root config structure.
type Config struct {
	Test        TestConfig        `yaml:"test"`
	WaitingRoom WaitingRoomConfig `yaml:"waiting_room"`
	Store       StoreConfig       `yaml:"store"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// TestConfig configures the timed test.
type TestConfig struct {
	// Bank is the default question bank ID.
	Bank string `yaml:"bank"`

	// Duration overrides the bank's own time limit when set (e.g. "20m").
	Duration string `yaml:"duration"`

	Warning  string `yaml:"warning"`
	Critical string `yaml:"critical"`

	// ResultsDir is where finished sessions are written.
	ResultsDir string `yaml:"results_dir"`
}

// WaitingRoomConfig configures the pre-test countdown. A zero duration skips it.
type WaitingRoomConfig struct {
	Duration            string `yaml:"duration"`
	SecondsPerCandidate int    `yaml:"seconds_per_candidate"`
}

// StoreConfig selects the profile store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // file, sqlite
	Path    string `yaml:"path"`
}

// LoggingConfig configures logrus.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Test: TestConfig{
			Bank:       "quantitative",
			Warning:    "5m",
			Critical:   "1m",
			ResultsDir: filepath.Join(Dir, "results"),
		},
		WaitingRoom: WaitingRoomConfig{
			Duration:            "10s",
			SecondsPerCandidate: 2,
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    Dir,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(Dir, "aptitude.log"),
		},
	}
}

// Load reads .aptitude/config.yaml under dir, layered over Default.
// A missing file is not an error; malformed YAML or invalid values are.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, Dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that durations parse and are consistent.
func (c *Config) Validate() error {
	if _, err := Seconds(c.Test.Duration); err != nil {
		return fmt.Errorf("test.duration: %w", err)
	}
	warning, err := Seconds(c.Test.Warning)
	if err != nil {
		return fmt.Errorf("test.warning: %w", err)
	}
	critical, err := Seconds(c.Test.Critical)
	if err != nil {
		return fmt.Errorf("test.critical: %w", err)
	}
	if critical > warning {
		return fmt.Errorf("test.critical (%ds) exceeds test.warning (%ds)", critical, warning)
	}
	if _, err := Seconds(c.WaitingRoom.Duration); err != nil {
		return fmt.Errorf("waiting_room.duration: %w", err)
	}
	if c.WaitingRoom.SecondsPerCandidate < 0 {
		return fmt.Errorf("waiting_room.seconds_per_candidate must not be negative")
	}
	switch c.Store.Backend {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}
	return nil
}

// Seconds parses a duration string into whole seconds. Empty means zero.
func Seconds(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q is negative", s)
	}
	return int(d / time.Second), nil
}

// Save writes the config to .aptitude/config.yaml under dir.
func (c *Config) Save(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	stateDir := filepath.Join(dir, Dir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", stateDir, err)
	}
	return os.WriteFile(filepath.Join(stateDir, FileName), data, 0644)
}
