package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tally/pkg/protocol"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TALLY_DIR", dir)
	t.Setenv("TALLY_DB_PATH", "")
	t.Setenv("TALLY_LISTEN_ADDR", "")
	t.Setenv("TALLY_PID_PATH", "")
	t.Setenv("TALLY_CONFIG_PATH", "")
	return dir
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := isolateEnv(t)

	cfg, err := Load(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != filepath.Join(dir, "tally.db") {
		t.Errorf("db path = %s", cfg.DBPath)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("listen addr = %s", cfg.ListenAddr)
	}
	if cfg.IdleThresholdSeconds != protocol.DefaultIdleThreshold {
		t.Errorf("idle threshold = %d", cfg.IdleThresholdSeconds)
	}
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "config.toml")

	content := "listen_addr = \"127.0.0.1:9999\"\nidle_threshold_seconds = 120\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("listen addr = %s", cfg.ListenAddr)
	}
	if cfg.IdleThresholdSeconds != 120 {
		t.Errorf("idle threshold = %d", cfg.IdleThresholdSeconds)
	}
	// Untouched keys keep their defaults.
	if cfg.SleepGapSeconds != protocol.DefaultSleepGap {
		t.Errorf("sleep gap = %d", cfg.SleepGapSeconds)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "config.toml")

	if err := os.WriteFile(path, []byte("db_path = \"/from/file.db\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TALLY_DB_PATH", "/from/env.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/from/env.db" {
		t.Errorf("db path = %s, env must win", cfg.DBPath)
	}
}

func TestLoad_RejectsMalformedTOML(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "config.toml")

	if err := os.WriteFile(path, []byte("listen_addr = [unclosed\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_RejectsInvalidThresholds(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "config.toml")

	cases := []string{
		"sample_interval_seconds = 0\n",
		"idle_threshold_seconds = -5\n",
		"sleep_gap_seconds = 10\n", // must exceed idle threshold
	}
	for _, content := range cases {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("config %q should be rejected", content)
		}
	}
}

func TestClassifierMapping(t *testing.T) {
	cfg := Config{
		IdleThresholdSeconds:          90,
		EffectiveIdleThresholdSeconds: 5,
		SleepGapSeconds:               600,
		SampleIntervalSeconds:         3,
	}
	cc := cfg.Classifier()
	if cc.IdleThreshold != 90 || cc.EffectiveIdleThreshold != 5 || cc.SleepGap != 600 {
		t.Errorf("classifier config = %+v", cc)
	}
	if cfg.Interval() != 3*time.Second {
		t.Errorf("interval = %s", cfg.Interval())
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("idle_threshold_seconds = 60\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := Watch(ctx, path, logger, func(c Config) {
		select {
		case got <- c:
		default:
		}
	}); err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("idle_threshold_seconds = 90\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case cfg := <-got:
		if cfg.IdleThresholdSeconds != 90 {
			t.Errorf("reloaded idle threshold = %d, want 90", cfg.IdleThresholdSeconds)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestWatch_SkipsInvalidConfig(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("idle_threshold_seconds = 60\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := Watch(ctx, path, logger, func(c Config) { got <- c }); err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("idle_threshold_seconds = [broken\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case cfg := <-got:
		t.Errorf("invalid config delivered: %+v", cfg)
	case <-time.After(500 * time.Millisecond):
		// No callback: the broken config was skipped.
	}
}
