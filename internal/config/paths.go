package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the devbridge config directory under the user config base.
// On Linux, this typically resolves to $XDG_CONFIG_HOME/devbridge; on macOS
// to ~/Library/Application Support/devbridge.
// Falls back to HOME when UserConfigDir is unavailable.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(base) == "" {
		if home, herr := os.UserHomeDir(); herr == nil {
			base = home
		} else {
			return "", errors.New("cannot determine config directory")
		}
	}
	return filepath.Join(base, "devbridge"), nil
}

// File returns the default config file path.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Resolve returns p when set, otherwise the default config file path.
func Resolve(p string) (string, error) {
	if strings.TrimSpace(p) != "" {
		return p, nil
	}
	return File()
}
