package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
)

const (
	// Backup naming
	backupManifestFile = "backup.toml"
	backupStampLayout  = "20060102T150405.000000000"

	// Oldest backups beyond this count are pruned after each new backup.
	maxBackups = 20
)

// BackupFile records where one snapshotted file came from.
type BackupFile struct {
	Original string `toml:"original"`
	Stored   string `toml:"stored"`
}

// BackupManifest describes one backup set.
type BackupManifest struct {
	Created time.Time    `toml:"created"`
	Reason  string       `toml:"reason"`
	Files   []BackupFile `toml:"files"`
	Dir     string       `toml:"-"`
}

// Backup snapshots the given files into a new backup set before they are
// rewritten. Files that do not exist are skipped.
func Backup(reason string, paths ...string) (*BackupManifest, error) {
	backupsDir, err := GetBackupsDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get backups directory: %w", err)
	}

	now := time.Now()
	dir := filepath.Join(backupsDir, now.UTC().Format(backupStampLayout))
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	manifest := &BackupManifest{Created: now, Reason: reason, Dir: dir}
	for i, path := range paths {
		data, err := ReadFileIfExists(path)
		if err != nil {
			os.RemoveAll(dir)
			return nil, err
		}
		if data == nil {
			continue
		}

		stored := strconv.Itoa(i) + "-" + filepath.Base(path)
		if err := os.WriteFile(filepath.Join(dir, stored), data, dataFilePermissions); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("failed to back up %s: %w", path, err)
		}
		manifest.Files = append(manifest.Files, BackupFile{Original: path, Stored: stored})
	}

	if err := writeManifest(manifest); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	if err := pruneBackups(backupsDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to prune old backups: %v\n", err)
	}

	return manifest, nil
}

// LatestBackup returns the most recent backup set.
func LatestBackup() (*BackupManifest, error) {
	backupsDir, err := GetBackupsDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get backups directory: %w", err)
	}

	dirs, err := listBackupDirs(backupsDir)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w in %s", errors.ErrNoBackup, backupsDir)
	}

	return readManifest(filepath.Join(backupsDir, dirs[len(dirs)-1]))
}

// RestoreLatest writes the most recent backup set back over its original files
// and removes the set.
func RestoreLatest() (*BackupManifest, error) {
	manifest, err := LatestBackup()
	if err != nil {
		return nil, err
	}

	writes := make([]PendingWrite, 0, len(manifest.Files))
	for _, f := range manifest.Files {
		data, err := os.ReadFile(filepath.Join(manifest.Dir, f.Stored))
		if err != nil {
			return nil, fmt.Errorf("failed to read backup of %s: %w", f.Original, err)
		}
		writes = append(writes, PendingWrite{Path: f.Original, Data: data})
	}

	if err := CommitFiles(writes...); err != nil {
		return nil, fmt.Errorf("failed to restore backup: %w", err)
	}

	if err := os.RemoveAll(manifest.Dir); err != nil {
		// Non-fatal, files are already restored
		fmt.Fprintf(os.Stderr, "Warning: failed to remove backup directory: %v\n", err)
	}

	return manifest, nil
}

func writeManifest(m *BackupManifest) error {
	f, err := os.OpenFile(filepath.Join(m.Dir, backupManifestFile), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, dataFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to create backup manifest: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("failed to encode backup manifest: %w", err)
	}
	return nil
}

func readManifest(dir string) (*BackupManifest, error) {
	var m BackupManifest
	if _, err := toml.DecodeFile(filepath.Join(dir, backupManifestFile), &m); err != nil {
		return nil, fmt.Errorf("failed to read backup manifest in %s: %w", dir, err)
	}
	m.Dir = dir
	return &m, nil
}

func listBackupDirs(backupsDir string) ([]string, error) {
	entries, err := os.ReadDir(backupsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backups directory: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func pruneBackups(backupsDir string) error {
	dirs, err := listBackupDirs(backupsDir)
	if err != nil {
		return err
	}
	for len(dirs) > maxBackups {
		if err := os.RemoveAll(filepath.Join(backupsDir, dirs[0])); err != nil {
			return err
		}
		dirs = dirs[1:]
	}
	return nil
}
