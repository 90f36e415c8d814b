package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// Application
	appName = "sqldevcfg"

	// Environment variables
	xdgDataHomeEnv = "XDG_DATA_HOME"

	// Default paths
	defaultLocalDir = ".local"
	defaultShareDir = "share"

	// Directory names
	backupsDirName = "backups"

	// Permissions
	dirPermissions      = 0700 // rwx------
	dataFilePermissions = 0600 // rw-------
	xmlFilePermissions  = 0644 // rw-r--r--, what SQL Developer itself writes
)

// GetDataDir returns the sqldevcfg data directory ($XDG_DATA_HOME/sqldevcfg).
func GetDataDir() (string, error) {
	baseDir := os.Getenv(xdgDataHomeEnv)
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, defaultLocalDir, defaultShareDir)
	}
	return filepath.Join(baseDir, appName), nil
}

// GetBackupsDir returns the directory holding pre-write snapshots.
func GetBackupsDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, backupsDirName), nil
}

// ReadFileIfExists returns the file content, or nil when the file does not exist.
func ReadFileIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
