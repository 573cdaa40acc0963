package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/tinyland-inc/tsclaw/pkg/config"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
)

func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tsclaw", "config.json")
}

// LoadConfig loads the configuration from path, falling back to the
// default location when path is empty.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = GetConfigPath()
	}
	return config.LoadConfig(path)
}

// GetVersion returns the version string.
func GetVersion() string {
	return version
}

// FormatVersion returns the version string with optional git commit.
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info.
func FormatBuildInfo() (string, string) {
	return buildTime, runtime.Version()
}
