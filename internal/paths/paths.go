// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDirName is the data directory created in the working directory
// when nothing else names one.
const DefaultDataDirName = ".notechain-db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "NOTECHAIN_CONFIG_DIR"
	EnvDataDir   = "NOTECHAIN_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/notechain (fallback ~/.config/notechain)
// macOS:   ~/Library/Application Support/notechain
// Windows: %APPDATA%/notechain
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "notechain"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "notechain"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "notechain"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > NOTECHAIN_CONFIG_DIR env > DefaultConfigDir().
//
// If flag is non-empty it wins. Otherwise the NOTECHAIN_CONFIG_DIR environment
// variable is checked. If neither is set, the platform default is returned.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > NOTECHAIN_DATA_DIR env > $CWD/.notechain-db.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveLogFile returns the log file path for a log.file config value.
// Relative paths are taken relative to dataDir. An empty value means no log
// file.
func ResolveLogFile(configValue, dataDir string) string {
	if configValue == "" {
		return ""
	}
	if filepath.IsAbs(configValue) {
		return configValue
	}
	return filepath.Join(dataDir, configValue)
}
