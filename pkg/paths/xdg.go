// Package paths provides XDG-compliant path resolution for nig-upload.
//
// Resolution order:
// 1. NIG_HOME (portable root) → $NIG_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/nig-upload
// 3. Platform defaults → ~/.config/nig-upload, ~/.local/state/nig-upload
package paths

import (
	"os"
	"path/filepath"
)

const appName = "nig-upload"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if nigHome := os.Getenv("NIG_HOME"); nigHome != "" {
		return filepath.Join(nigHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if nigHome := os.Getenv("NIG_HOME"); nigHome != "" {
		return filepath.Join(nigHome, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the directory holding the global nig-upload.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	if os.Getenv("NIG_HOME") != "" {
		return base
	}
	return filepath.Join(base, appName)
}

// StateDir returns the nig-upload state directory.
// Used for log files.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	if os.Getenv("NIG_HOME") != "" {
		return base
	}
	return filepath.Join(base, appName)
}

// LogsDir returns the directory for file log sinks.
func LogsDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}
