// Package config loads tally's TOML configuration and resolves the
// state directory. Missing files fall back to defaults; TALLY_* env
// vars override individual paths.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"tally/pkg/classifier"
	"tally/pkg/protocol"

	"github.com/pelletier/go-toml/v2"
)

// Config is the daemon configuration, stored at ~/.tally/config.toml.
type Config struct {
	DBPath     string `toml:"db_path"`
	ListenAddr string `toml:"listen_addr"`
	PIDPath    string `toml:"pid_path"`

	SampleIntervalSeconds         int64 `toml:"sample_interval_seconds"`
	IdleThresholdSeconds          int64 `toml:"idle_threshold_seconds"`
	EffectiveIdleThresholdSeconds int64 `toml:"effective_idle_threshold_seconds"`
	SleepGapSeconds               int64 `toml:"sleep_gap_seconds"`
}

// DefaultListenAddr binds the HTTP API to localhost only.
const DefaultListenAddr = "127.0.0.1:5634"

// Dir returns the tally state directory, creating it if needed.
// TALLY_DIR overrides the default ~/.tally.
func Dir() (string, error) {
	if dir := os.Getenv("TALLY_DIR"); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create state dir %s: %w", dir, err)
		}
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, protocol.TallyDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir %s: %w", dir, err)
	}
	return dir, nil
}

// DefaultPath returns the config file location, honoring
// TALLY_CONFIG_PATH.
func DefaultPath() (string, error) {
	if p := os.Getenv("TALLY_CONFIG_PATH"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns the built-in configuration rooted at the state dir.
func Default() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		DBPath:                        filepath.Join(dir, "tally.db"),
		ListenAddr:                    DefaultListenAddr,
		PIDPath:                       filepath.Join(dir, "tally.pid"),
		SampleIntervalSeconds:         protocol.DefaultSampleInterval,
		IdleThresholdSeconds:          protocol.DefaultIdleThreshold,
		EffectiveIdleThresholdSeconds: protocol.DefaultEffectiveIdleThreshold,
		SleepGapSeconds:               protocol.DefaultSleepGap,
	}, nil
}

// Load reads the config file at path, overlaying it onto the defaults
// and applying env overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user's own config location
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("TALLY_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TALLY_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TALLY_PID_PATH"); v != "" {
		cfg.PIDPath = v
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.SampleIntervalSeconds <= 0 {
		return fmt.Errorf("sample_interval_seconds must be positive, got %d", c.SampleIntervalSeconds)
	}
	if c.IdleThresholdSeconds <= 0 {
		return fmt.Errorf("idle_threshold_seconds must be positive, got %d", c.IdleThresholdSeconds)
	}
	if c.SleepGapSeconds <= c.IdleThresholdSeconds {
		return fmt.Errorf("sleep_gap_seconds (%d) must exceed idle_threshold_seconds (%d)",
			c.SleepGapSeconds, c.IdleThresholdSeconds)
	}
	return nil
}

// Classifier returns the classifier thresholds from this config.
func (c Config) Classifier() classifier.Config {
	return classifier.Config{
		IdleThreshold:          c.IdleThresholdSeconds,
		EffectiveIdleThreshold: c.EffectiveIdleThresholdSeconds,
		SleepGap:               c.SleepGapSeconds,
	}
}

// Interval returns the sampling cadence.
func (c Config) Interval() time.Duration {
	return time.Duration(c.SampleIntervalSeconds) * time.Second
}
