package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// ConfigDir returns the XDG-compliant config directory for tasq
// Typically ~/.config/tasq/ on Linux
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "tasq")
}

// ConfigPath returns the full path to the config file
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json5")
}
