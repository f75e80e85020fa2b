// Package update checks GitHub releases for newer aptitude builds and
// replaces the running binary in place.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/sirupsen/logrus"
)

const (
	repoOwner     = "pengelbrecht"
	repoName      = "aptitude"
	brewFormula   = "pengelbrecht/tap/aptitude"
	checkInterval = 24 * time.Hour
)

// InstallMethod represents how aptitude was installed.
type InstallMethod int

const (
	InstallUnknown InstallMethod = iota
	InstallHomebrew
	InstallScript
)

func (m InstallMethod) String() string {
	switch m {
	case InstallHomebrew:
		return "homebrew"
	case InstallScript:
		return "script"
	default:
		return "unknown"
	}
}

// DetectInstallMethod inspects the resolved executable path.
func DetectInstallMethod() InstallMethod {
	exe, err := os.Executable()
	if err != nil {
		return InstallUnknown
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return InstallUnknown
	}
	return installMethodForPath(exe)
}

func installMethodForPath(exe string) InstallMethod {
	switch {
	case exe == "":
		return InstallUnknown
	case strings.Contains(exe, "/Cellar/"),
		strings.HasPrefix(exe, "/opt/homebrew/"),
		strings.HasPrefix(exe, "/usr/local/Homebrew/"),
		strings.Contains(exe, "linuxbrew"):
		return InstallHomebrew
	default:
		return InstallScript
	}
}

// Release describes the newest published release.
type Release struct {
	Version    string
	ReleaseURL string
}

// cache records the last remote check so commands hit GitHub at most daily.
type cache struct {
	LastCheck       time.Time `json:"last_check"`
	LatestVersion   string    `json:"latest_version,omitempty"`
	UpdateAvailable bool      `json:"update_available"`
}

// Checker checks for and applies updates for one running version.
type Checker struct {
	current  string
	cacheDir string
	now      func() time.Time
}

// NewChecker returns a checker for the given version. The cache lives under
// $XDG_CONFIG_HOME/aptitude or ~/.config/aptitude.
func NewChecker(currentVersion string) *Checker {
	return &Checker{
		current:  strings.TrimPrefix(currentVersion, "v"),
		cacheDir: defaultCacheDir(),
		now:      time.Now,
	}
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, repoName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", repoName)
}

// isDev reports whether the version is a local build that never updates.
func (c *Checker) isDev() bool {
	return c.current == "" || c.current == "dev"
}

func (c *Checker) cachePath() string {
	if c.cacheDir == "" {
		return ""
	}
	return filepath.Join(c.cacheDir, "update-cache.json")
}

func (c *Checker) loadCache() *cache {
	path := c.cachePath()
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var cc cache
	if err := json.Unmarshal(data, &cc); err != nil {
		logrus.WithError(err).Debug("ignoring corrupt update cache")
		return nil
	}
	return &cc
}

func (c *Checker) saveCache(cc *cache) {
	path := c.cachePath()
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	data, err := json.Marshal(cc)
	if err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logrus.WithError(err).Debug("writing update cache")
	}
}

func detectLatest(ctx context.Context) (*selfupdate.Updater, *selfupdate.Release, bool, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to create GitHub source: %w", err)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{Source: source})
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to create updater: %w", err)
	}
	latest, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to detect latest version: %w", err)
	}
	return updater, latest, found, nil
}

// Check asks GitHub for the latest release.
func (c *Checker) Check(ctx context.Context) (*Release, bool, error) {
	if c.isDev() {
		return nil, false, nil
	}
	_, latest, found, err := detectLatest(ctx)
	if err != nil || !found {
		return nil, false, err
	}
	release := &Release{
		Version:    latest.Version(),
		ReleaseURL: latest.URL,
	}
	return release, latest.GreaterThan(c.current), nil
}

// Apply downloads the latest release over the running binary. Homebrew
// installs are refused.
func (c *Checker) Apply(ctx context.Context) (string, error) {
	if DetectInstallMethod() == InstallHomebrew {
		return "", fmt.Errorf("aptitude was installed via Homebrew. Please run: brew upgrade %s", brewFormula)
	}
	if c.isDev() {
		return "", fmt.Errorf("cannot update dev builds")
	}

	updater, latest, found, err := detectLatest(ctx)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("no releases found")
	}
	if !latest.GreaterThan(c.current) {
		return "", fmt.Errorf("already at latest version (%s)", c.current)
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return "", fmt.Errorf("failed to update: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"from": c.current,
		"to":   latest.Version(),
	}).Info("updated")
	return latest.Version(), nil
}

// Notice returns a one-line update notice, or "" when up to date. Remote
// checks happen at most once per checkInterval; failures are silent.
func (c *Checker) Notice(ctx context.Context) string {
	if c.isDev() {
		return ""
	}

	if cc := c.loadCache(); cc != nil && c.now().Sub(cc.LastCheck) < checkInterval {
		// The cached latest may predate an upgrade.
		if cc.UpdateAvailable && isNewerVersion(cc.LatestVersion, c.current) {
			return formatNotice(c.current, cc.LatestVersion, DetectInstallMethod())
		}
		return ""
	}

	release, hasUpdate, err := c.Check(ctx)
	cc := &cache{
		LastCheck:       c.now(),
		UpdateAvailable: hasUpdate && err == nil,
	}
	if release != nil {
		cc.LatestVersion = release.Version
	}
	c.saveCache(cc)

	if err != nil {
		logrus.WithError(err).Debug("update check failed")
		return ""
	}
	if !hasUpdate {
		return ""
	}
	return formatNotice(c.current, release.Version, DetectInstallMethod())
}

// isNewerVersion compares major.minor.patch numerically.
func isNewerVersion(a, b string) bool {
	parse := func(v string) [3]int {
		var out [3]int
		parts := strings.Split(strings.TrimPrefix(v, "v"), ".")
		for i := 0; i < len(parts) && i < 3; i++ {
			_, _ = fmt.Sscanf(parts[i], "%d", &out[i])
		}
		return out
	}
	av, bv := parse(a), parse(b)
	for i := range av {
		if av[i] != bv[i] {
			return av[i] > bv[i]
		}
	}
	return false
}

func formatNotice(current, latest string, method InstallMethod) string {
	cmd := "aptitude upgrade"
	if method == InstallHomebrew {
		cmd = "brew upgrade " + brewFormula
	}
	return fmt.Sprintf("Update available: %s -> %s (run: %s)", current, strings.TrimPrefix(latest, "v"), cmd)
}
