// Package platform enumerates scan roots and platform directories.
package platform

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Windows Platform = "windows"
	Unknown Platform = "unknown"
)

// ErrUnsupportedPlatform is returned for platforms without a known layout
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	case "windows":
		return Windows
	default:
		return Unknown
	}
}

// GetUserConfigDir returns the user's config directory. Linux honours
// XDG_CONFIG_HOME and falls back to ~/.config.
func GetUserConfigDir() (string, error) {
	switch Detect() {
	case Linux:
		if configDir := os.Getenv("XDG_CONFIG_HOME"); configDir != "" {
			return configDir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config"), nil
	case MacOS, Windows:
		return os.UserConfigDir()
	default:
		return "", ErrUnsupportedPlatform
	}
}
