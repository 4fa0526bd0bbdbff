// Package paths provides XDG-compliant path resolution for scout.
//
// Resolution order:
// 1. SCOUT_HOME (portable root) → $SCOUT_HOME/{config,cache,state}
// 2. XDG env vars → $XDG_*_HOME/scout
// 3. Platform defaults → ~/.config/scout, ~/.cache/scout, etc.
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if scoutHome := os.Getenv("SCOUT_HOME"); scoutHome != "" {
		return filepath.Join(scoutHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getCacheHome returns the base cache home directory.
func getCacheHome() string {
	if scoutHome := os.Getenv("SCOUT_HOME"); scoutHome != "" {
		return filepath.Join(scoutHome, "cache")
	}
	if xdgCacheHome := os.Getenv("XDG_CACHE_HOME"); xdgCacheHome != "" {
		return xdgCacheHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".cache")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if scoutHome := os.Getenv("SCOUT_HOME"); scoutHome != "" {
		return filepath.Join(scoutHome, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the scout configuration directory.
// Used for config files like scout.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "scout")
}

// CacheDir returns the scout cache directory.
// Used for downloaded artifacts and other regenerable data.
func CacheDir() string {
	base := getCacheHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "scout")
}

// StateDir returns the scout state directory.
// Used for logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "scout")
}

// ArtifactCacheDir returns the directory where fetched artifacts are stored.
func ArtifactCacheDir() string {
	cache := CacheDir()
	if cache == "" {
		return ""
	}
	return filepath.Join(cache, "artifacts")
}

// EnsureDirs creates all scout directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		CacheDir(),
		StateDir(),
		ArtifactCacheDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
