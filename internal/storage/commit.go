package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// renameFile is swapped in tests to simulate a failing replace.
var renameFile = os.Rename

// PendingWrite is one file of a multi-file commit.
type PendingWrite struct {
	Path string
	Data []byte
}

type stagedWrite struct {
	PendingWrite
	tempPath string
	previous []byte // nil when the target did not exist
	existed  bool
	perm     os.FileMode
}

// CommitFiles replaces every target file or none of them.
//
// All data is staged to temp files next to its target first, so a failure to
// write any of them leaves every target untouched. Targets are then replaced by
// rename; if a rename fails, targets already replaced are restored from the
// content they had before the commit.
func CommitFiles(writes ...PendingWrite) error {
	staged := make([]*stagedWrite, 0, len(writes))
	cleanup := func() {
		for _, s := range staged {
			_ = os.Remove(s.tempPath)
		}
	}

	for _, w := range writes {
		s, err := stage(w)
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, s)
	}

	for i, s := range staged {
		if err := renameFile(s.tempPath, s.Path); err != nil {
			cleanup()
			if rbErr := rollback(staged[:i]); rbErr != nil {
				return fmt.Errorf("failed to replace %s: %w (rollback also failed: %v)", s.Path, err, rbErr)
			}
			return fmt.Errorf("failed to replace %s: %w", s.Path, err)
		}
	}

	return nil
}

func stage(w PendingWrite) (*stagedWrite, error) {
	s := &stagedWrite{PendingWrite: w, perm: xmlFilePermissions}

	info, err := os.Stat(w.Path)
	switch {
	case err == nil:
		s.existed = true
		s.perm = info.Mode().Perm()
		if s.previous, err = os.ReadFile(w.Path); err != nil {
			return nil, fmt.Errorf("failed to snapshot %s: %w", w.Path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to stat %s: %w", w.Path, err)
	}

	dir := filepath.Dir(w.Path)
	temp, err := os.CreateTemp(dir, stagingPrefix(w.Path)+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file for %s: %w", w.Path, err)
	}
	s.tempPath = temp.Name()

	if _, err := temp.Write(w.Data); err != nil {
		_ = temp.Close()
		_ = os.Remove(s.tempPath)
		return nil, fmt.Errorf("failed to write temp file for %s: %w", w.Path, err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(s.tempPath)
		return nil, fmt.Errorf("failed to close temp file for %s: %w", w.Path, err)
	}
	if err := os.Chmod(s.tempPath, s.perm); err != nil {
		_ = os.Remove(s.tempPath)
		return nil, fmt.Errorf("failed to set permissions for %s: %w", w.Path, err)
	}

	return s, nil
}

func rollback(done []*stagedWrite) error {
	var firstErr error
	for _, s := range done {
		var err error
		if s.existed {
			err = os.WriteFile(s.Path, s.previous, s.perm)
		} else {
			err = os.Remove(s.Path)
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to restore %s: %w", s.Path, err)
		}
	}
	return firstErr
}

// stagingPattern matches every staging file in a directory; the owning file
// is picked out by prefix so its name never needs escaping.
const stagingPattern = ".*.tmp.*"

func stagingPrefix(path string) string {
	return "." + filepath.Base(path) + ".tmp."
}

// StaleStagingFiles returns staging files left next to path by an
// interrupted commit and last modified more than minAge ago.
func StaleStagingFiles(path string, minAge time.Duration) ([]string, error) {
	dir := filepath.Dir(path)
	matches, err := doublestar.Glob(os.DirFS(dir), stagingPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid staging pattern %s: %w", stagingPattern, err)
	}

	prefix := stagingPrefix(path)
	cutoff := time.Now().Add(-minAge)
	var stale []string
	for _, m := range matches {
		if !strings.HasPrefix(m, prefix) {
			continue
		}
		m = filepath.Join(dir, m)
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, m)
		}
	}
	return stale, nil
}
