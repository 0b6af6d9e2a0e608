package config

import (
	"os"
	"path/filepath"
)

const appName = "serpref"

// GetConfigDir returns the XDG config directory for serpref:
// $XDG_CONFIG_HOME/serpref, defaulting to ~/.config/serpref.
func GetConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, appName), nil
}
