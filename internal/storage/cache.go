package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// Cache file names (no PID needed, stored in session dir)
	resultsCacheFile = "results"
)

// CachedResult identifies one connection of a previous listing.
type CachedResult struct {
	ConnectionsPath string `json:"connections_path"`
	Name            string `json:"name"`
}

// getSessionDir returns the session-specific directory path
func getSessionDir() string {
	return filepath.Join(os.TempDir(), appName, fmt.Sprintf("%d", os.Getppid()))
}

// ensureSessionDir creates $TMPDIR/sqldevcfg/$PPID if it doesn't exist
func ensureSessionDir() error {
	return os.MkdirAll(getSessionDir(), dirPermissions)
}

// ============================================================================
// Results Cache (for find numbered access)
// ============================================================================

// CacheResults saves connection references for numbered access
func CacheResults(results []CachedResult) error {
	if err := ensureSessionDir(); err != nil {
		return err
	}

	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	cachePath := filepath.Join(getSessionDir(), resultsCacheFile)
	return os.WriteFile(cachePath, data, dataFilePermissions)
}

// GetCachedResult retrieves a single result by number (1-indexed)
func GetCachedResult(num int) (CachedResult, error) {
	cachePath := filepath.Join(getSessionDir(), resultsCacheFile)

	data, err := os.ReadFile(cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return CachedResult{}, fmt.Errorf("no recent search results")
		}
		return CachedResult{}, fmt.Errorf("failed to read cache: %w", err)
	}

	var results []CachedResult
	if err := json.Unmarshal(data, &results); err != nil {
		return CachedResult{}, fmt.Errorf("invalid cache format")
	}

	if num < 1 || num > len(results) {
		return CachedResult{}, fmt.Errorf("result number out of range (1-%d)", len(results))
	}

	return results[num-1], nil
}
