package config

import (
	"os"
	"path/filepath"
	goruntime "runtime"
)

// DefaultDataDir returns the per-user data directory for the Pebble store.
// Without a home directory it falls back to ./data.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	return dataDirFor(goruntime.GOOS, home, os.Getenv)
}

func dataDirFor(goos, home string, getenv func(string) string) string {
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Relay")
	case "windows":
		if local := getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "Relay")
		}
		return filepath.Join(home, "AppData", "Local", "Relay")
	default:
		if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "relay")
		}
		return filepath.Join(home, ".local", "share", "relay")
	}
}
