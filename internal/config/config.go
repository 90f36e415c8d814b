// Package config loads sqldevcfg settings from a TOML file with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/DeprecatedLuar/sqldevcfg/internal/discovery"
)

const (
	appName        = "sqldevcfg"
	configFileName = "config.toml"

	xdgConfigHomeEnv = "XDG_CONFIG_HOME"

	// Environment overrides
	envRoot   = "SQLDEVCFG_ROOT"
	envFormat = "SQLDEVCFG_FORMAT"
	envBackup = "SQLDEVCFG_BACKUP"
	envEditor = "SQLDEVCFG_EDITOR"
)

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds the resolved settings.
type Config struct {
	// Root is the directory searched for system*/ installation directories.
	Root string `toml:"root"`
	// Backup snapshots both files before every write so `undo` can restore them.
	Backup bool `toml:"backup"`
	// Format selects structured output: json or yaml.
	Format string `toml:"format"`
	// Editor overrides $EDITOR for `edit`.
	Editor string `toml:"editor"`
}

// Default returns the built-in settings.
func Default() (*Config, error) {
	root, err := discovery.DefaultRoot()
	if err != nil {
		return nil, err
	}
	return &Config{Root: root, Backup: true, Format: FormatJSON}, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/sqldevcfg/config.toml.
func DefaultPath() (string, error) {
	baseDir := os.Getenv(xdgConfigHomeEnv)
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(baseDir, appName, configFileName), nil
}

// Load reads the config file at path on top of the defaults, then applies
// SQLDEVCFG_* environment overrides. A missing file is not an error.
// An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if v, ok := os.LookupEnv(envRoot); ok && v != "" {
		cfg.Root = v
	}
	if v, ok := os.LookupEnv(envFormat); ok && v != "" {
		cfg.Format = v
	}
	if v, ok := os.LookupEnv(envEditor); ok && v != "" {
		cfg.Editor = v
	}
	if v, ok := os.LookupEnv(envBackup); ok && v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s has invalid boolean %q: %w", envBackup, v, err)
		}
		cfg.Backup = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have a fixed set of values.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want %s or %s)", c.Format, FormatJSON, FormatYAML)
}
