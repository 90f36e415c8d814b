// Package discovery locates SQL Developer installations on disk and pairs each
// connections file with the preferences file of the same installation.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
)

// File patterns relative to an installation's system directory.
const (
	connectionsPattern = "o.jdeveloper.db.connection*/connections.xml"
	preferencesPattern = "o.sqldeveloper.[0-9]*/product-preferences.xml"
	systemDirPattern   = "system*"

	defaultRootDir = ".sqldeveloper"
)

// Installation is one system* directory: its connections file and the paired
// preferences file. Err is set when the pairing failed; the connections path
// is still reported.
type Installation struct {
	ConnectionsPath string
	PreferencesPath string
	Err             error
}

// Discoverer lists the installations to operate on.
type Discoverer interface {
	Installations() ([]Installation, error)
}

// FS discovers installations under a root directory, normally ~/.sqldeveloper.
type FS struct {
	Root string
}

// DefaultRoot returns ~/.sqldeveloper.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, defaultRootDir), nil
}

// Installations returns every installation under Root in path order.
// It fails only when no connections file exists at all; an installation whose
// preferences file cannot be paired is returned with Err set.
func (d FS) Installations() ([]Installation, error) {
	pattern := systemDirPattern + "/" + connectionsPattern
	matches, err := glob(d.Root, pattern)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %s", errors.ErrNoInstallations, filepath.Join(d.Root, pattern))
	}

	installations := make([]Installation, 0, len(matches))
	for _, conn := range matches {
		inst := Installation{ConnectionsPath: conn}
		inst.PreferencesPath, inst.Err = FindPreferences(conn)
		installations = append(installations, inst)
	}
	return installations, nil
}

// FindPreferences returns the preferences file paired with a connections file.
// Exactly one match is required.
func FindPreferences(connectionsPath string) (string, error) {
	systemDir := filepath.Dir(filepath.Dir(connectionsPath))
	return single(systemDir, preferencesPattern)
}

// FindConnections returns the connections file paired with a preferences file.
// Exactly one match is required.
func FindConnections(preferencesPath string) (string, error) {
	systemDir := filepath.Dir(filepath.Dir(preferencesPath))
	return single(systemDir, connectionsPattern)
}

// Static is a fixed installation list, used when the paths are given explicitly.
type Static []Installation

// Installations returns the list as is.
func (s Static) Installations() ([]Installation, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: no paths given", errors.ErrNoInstallations)
	}
	return s, nil
}

func single(dir, pattern string) (string, error) {
	matches, err := glob(dir, pattern)
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("%w: expected exactly one file matching %s, found %d",
			errors.ErrAmbiguousInstallation, filepath.Join(dir, pattern), len(matches))
	}
	return matches[0], nil
}

// glob matches pattern below dir. dir is opened as a file system rather than
// joined into the pattern, so glob characters in it are taken literally.
func glob(dir, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		m = filepath.Join(dir, filepath.FromSlash(m))
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
