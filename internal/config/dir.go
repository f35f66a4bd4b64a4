// Package config provides the repository registry and configuration directory for sidecar.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Dir returns the sidecar configuration directory.
//
// Resolution:
//   - $SIDECAR_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/sidecar if set (respects XDG on any platform)
//   - %AppData%/sidecar on Windows
//   - ~/.config/sidecar on macOS and Linux
func Dir() string {
	if dir := os.Getenv("SIDECAR_CONFIG_HOME"); dir != "" {
		return dir
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sidecar")
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "sidecar")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sidecar")
}

// Path returns the path of the registry file inside the configuration directory.
func Path() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}
