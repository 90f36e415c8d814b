package selfheal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("<x/>"), 0600))
	when := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, when, when))
}

func TestRun_RemovesStaleStagingFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "connections.xml")
	writeAged(t, target, time.Hour)

	stale := filepath.Join(dir, ".connections.xml.tmp.123")
	fresh := filepath.Join(dir, ".connections.xml.tmp.456")
	other := filepath.Join(dir, ".product-preferences.xml.tmp.789")
	writeAged(t, stale, time.Hour)
	writeAged(t, fresh, 0)
	writeAged(t, other, time.Hour)

	removed := Run(target, "")

	assert.Equal(t, []string{stale}, removed)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
	assert.FileExists(t, target)
}

func TestRun_MissingDirectory(t *testing.T) {
	removed := Run(filepath.Join(t.TempDir(), "missing", "connections.xml"))
	assert.Empty(t, removed)
}

func TestRun_DirectoryWithGlobCharacters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conn[1]{a}")
	require.NoError(t, os.MkdirAll(dir, 0755))
	target := filepath.Join(dir, "connections.xml")
	stale := filepath.Join(dir, ".connections.xml.tmp.42")
	writeAged(t, stale, time.Hour)

	assert.Equal(t, []string{stale}, Run(target))
	assert.NoFileExists(t, stale)
}
