package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "VOICESCOUT_CONFIG"
	// ConfigFileName is the default config file name
	ConfigFileName = "voicescout.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "voicescout"
	// DatabaseFileName is the discovery history file name
	DatabaseFileName = "history.db"
)

// FindConfigPath searches for config file in priority order:
// 1. $VOICESCOUT_CONFIG (explicit path)
// 2. ./voicescout.yaml (working directory)
// 3. $XDG_CONFIG_HOME/voicescout/config.yaml
// 4. ~/.config/voicescout/config.yaml
// 5. /etc/voicescout/config.yaml
//
// Returns empty string if no config file found
func FindConfigPath() string {
	// 1. Explicit environment variable
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	// 2. Working directory
	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	// 3. XDG config home
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		path := filepath.Join(xdgHome, ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	// 4. Default XDG location (~/.config)
	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	// 5. System-wide
	systemPath := filepath.Join("/etc", ConfigDirName, "config.yaml")
	if fileExists(systemPath) {
		return systemPath
	}

	return ""
}

// DefaultConfigPath returns the preferred location for a new config file
// Prefers XDG config home, falls back to working directory
func DefaultConfigPath() string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, ConfigDirName, "config.yaml")
	}

	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName, "config.yaml")
	}

	return ConfigFileName
}

// DefaultDatabasePath returns where discovery history lives when not configured:
// $XDG_DATA_HOME/voicescout, then ~/.local/share/voicescout, then the working directory.
func DefaultDatabasePath() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, ConfigDirName, DatabaseFileName)
	}

	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".local", "share", ConfigDirName, DatabaseFileName)
	}

	return "./voicescout.db"
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir(configPath string) error {
	dir := filepath.Dir(configPath)
	return os.MkdirAll(dir, 0755)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
