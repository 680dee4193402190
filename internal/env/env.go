// Package env locates the per-user directories rdbuild works in.
package env

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "rdbuild"

// CacheDir returns the download cache, creating it if needed.
func CacheDir() (string, error) {
	return ensure(filepath.Join(xdg.CacheHome, appName))
}

// SourceDir returns the directory unpacked source trees live under,
// creating it if needed.
func SourceDir() (string, error) {
	return ensure(filepath.Join(xdg.CacheHome, appName, "src"))
}

// DefaultPrefix is the installation prefix used when none is configured.
func DefaultPrefix() string {
	return filepath.Join(xdg.DataHome, appName)
}

// ConfigFile returns the path of the optional YAML configuration file.
// The file may not exist.
func ConfigFile() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

func ensure(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
