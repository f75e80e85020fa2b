package update

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1.2.3", "1.2.2", true},
		{"1.3.0", "1.2.9", true},
		{"2.0.0", "1.9.9", true},
		{"v1.2.3", "1.2.3", false},
		{"1.2.3", "1.2.4", false},
		{"1.10.0", "1.9.0", true},
		{"1", "0.9.9", true},
	}
	for _, tt := range tests {
		if got := isNewerVersion(tt.a, tt.b); got != tt.want {
			t.Errorf("isNewerVersion(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestInstallMethodForPath(t *testing.T) {
	tests := []struct {
		path string
		want InstallMethod
	}{
		{"/opt/homebrew/Cellar/aptitude/1.0.0/bin/aptitude", InstallHomebrew},
		{"/usr/local/Cellar/aptitude/1.0.0/bin/aptitude", InstallHomebrew},
		{"/home/linuxbrew/.linuxbrew/bin/aptitude", InstallHomebrew},
		{"/usr/local/bin/aptitude", InstallScript},
		{"", InstallUnknown},
	}
	for _, tt := range tests {
		if got := installMethodForPath(tt.path); got != tt.want {
			t.Errorf("installMethodForPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestInstallMethodString(t *testing.T) {
	if InstallHomebrew.String() != "homebrew" || InstallScript.String() != "script" || InstallUnknown.String() != "unknown" {
		t.Error("unexpected InstallMethod strings")
	}
}

func TestFormatNotice(t *testing.T) {
	got := formatNotice("1.0.0", "v1.1.0", InstallScript)
	want := "Update available: 1.0.0 -> 1.1.0 (run: aptitude upgrade)"
	if got != want {
		t.Errorf("formatNotice = %q, want %q", got, want)
	}
	if got := formatNotice("1.0.0", "1.1.0", InstallHomebrew); !strings.Contains(got, "brew upgrade pengelbrecht/tap/aptitude") {
		t.Errorf("homebrew notice = %q", got)
	}
}

func writeCache(t *testing.T, dir string, cc cache) {
	t.Helper()
	data, err := json.Marshal(cc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "update-cache.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNotice_UsesFreshCache(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	writeCache(t, dir, cache{
		LastCheck:       now.Add(-time.Hour),
		LatestVersion:   "v1.4.0",
		UpdateAvailable: true,
	})

	c := &Checker{current: "1.3.0", cacheDir: dir, now: func() time.Time { return now }}
	got := c.Notice(context.Background())
	if !strings.Contains(got, "1.3.0 -> 1.4.0") {
		t.Errorf("Notice = %q, want update notice", got)
	}
}

func TestNotice_CachedVersionAlreadyInstalled(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	writeCache(t, dir, cache{
		LastCheck:       now.Add(-time.Hour),
		LatestVersion:   "v1.4.0",
		UpdateAvailable: true,
	})

	c := &Checker{current: "1.4.0", cacheDir: dir, now: func() time.Time { return now }}
	if got := c.Notice(context.Background()); got != "" {
		t.Errorf("Notice = %q, want empty", got)
	}
}

func TestDevBuildsNeverCheck(t *testing.T) {
	c := NewChecker("dev")
	if got := c.Notice(context.Background()); got != "" {
		t.Errorf("Notice = %q, want empty", got)
	}
	release, ok, err := c.Check(context.Background())
	if release != nil || ok || err != nil {
		t.Errorf("Check = %v, %v, %v; want nil, false, nil", release, ok, err)
	}
	if _, err := c.Apply(context.Background()); err == nil {
		t.Error("Apply on dev build should fail")
	}
}
