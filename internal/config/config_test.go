package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	stateDir := filepath.Join(dir, Dir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatalf("failed to create state dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stateDir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
test:
  bank: verbal
  duration: 20m
  critical: 30s
waiting_room:
  duration: 0s
store:
  backend: sqlite
  path: /tmp/aptitude.db
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Test.Bank != "verbal" {
		t.Errorf("Test.Bank = %q, want %q", cfg.Test.Bank, "verbal")
	}
	if cfg.Test.Duration != "20m" {
		t.Errorf("Test.Duration = %q, want %q", cfg.Test.Duration, "20m")
	}
	// Unset keys keep their defaults.
	if cfg.Test.Warning != "5m" {
		t.Errorf("Test.Warning = %q, want %q", cfg.Test.Warning, "5m")
	}
	if cfg.WaitingRoom.SecondsPerCandidate != 2 {
		t.Errorf("WaitingRoom.SecondsPerCandidate = %d, want 2", cfg.WaitingRoom.SecondsPerCandidate)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, "sqlite")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "test: [unclosed"},
		{"bad duration", "test:\n  duration: soon\n"},
		{"critical above warning", "test:\n  warning: 1m\n  critical: 2m\n"},
		{"negative duration", "waiting_room:\n  duration: -5s\n"},
		{"unknown backend", "store:\n  backend: redis\n"},
		{"negative candidates", "waiting_room:\n  seconds_per_candidate: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			if _, err := Load(dir); err == nil {
				t.Error("Load() should error")
			}
		})
	}
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"90s", 90, false},
		{"5m", 300, false},
		{"1h30m", 5400, false},
		{"1500ms", 1, false},
		{"nope", 0, true},
		{"-1s", 0, true},
	}

	for _, tt := range tests {
		got, err := Seconds(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Seconds(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Seconds(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Test.Bank = "logical"

	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("loaded config mismatch (-want +got):\n%s", diff)
	}
}
