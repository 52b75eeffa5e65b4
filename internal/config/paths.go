package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// GetCellarRoot returns the per-user root directory based on OS conventions.
// Kegs, taps, links, and state all live under this root.
func GetCellarRoot() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(appData, "Cellar")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Cellar")
	default: // Linux
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, _ := os.UserHomeDir()
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "cellar")
	}
}

// GetCacheDir returns the directory for downloaded artifacts.
// Linux: $XDG_CACHE_HOME/cellar
// macOS: ~/Library/Caches/Cellar
// Windows: %LOCALAPPDATA%/Cellar/cache
func GetCacheDir() string {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, "Cellar", "cache")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Caches", "Cellar")
	default: // Linux
		cacheHome := os.Getenv("XDG_CACHE_HOME")
		if cacheHome == "" {
			home, _ := os.UserHomeDir()
			cacheHome = filepath.Join(home, ".cache")
		}
		return filepath.Join(cacheHome, "cellar")
	}
}

// GetRuntimeDir returns the directory for runtime files (pid, port, lock).
// Linux: $XDG_RUNTIME_DIR/cellar or fallback to GetStateDir() if unset
// macOS: $TMPDIR/cellar-runtime
// Windows: %TEMP%/Cellar
func GetRuntimeDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.TempDir(), "Cellar")
	case "darwin":
		return filepath.Join(os.TempDir(), "cellar-runtime")
	default: // Linux
		runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
		if runtimeDir != "" {
			return filepath.Join(runtimeDir, "cellar")
		}
		// Fallback to state dir if XDG_RUNTIME_DIR is not set (e.g. docker, headless)
		return GetStateDir()
	}
}

// GetStateDir returns the directory for persistent state (DB, tokens).
func GetStateDir() string {
	return filepath.Join(GetCellarRoot(), "state")
}

// GetLogsDir returns the directory for logs.
func GetLogsDir() string {
	return filepath.Join(GetCellarRoot(), "logs")
}

// GetTapsDir returns the directory holding formula and cask definitions.
func GetTapsDir() string {
	return filepath.Join(GetCellarRoot(), "taps")
}

// GetKegsDir returns the directory packages are unpacked into,
// one keg per name/version pair.
func GetKegsDir() string {
	return filepath.Join(GetCellarRoot(), "kegs")
}

// GetOptDir returns the directory of stable per-package links,
// each pointing at the currently installed keg.
func GetOptDir() string {
	return filepath.Join(GetCellarRoot(), "opt")
}

// EnsureDirs creates all required directories.
func EnsureDirs() error {
	dirs := []string{
		GetCellarRoot(), GetCacheDir(), GetStateDir(), GetLogsDir(),
		GetRuntimeDir(), GetTapsDir(), GetKegsDir(), GetOptDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
