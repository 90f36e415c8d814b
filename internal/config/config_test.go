package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateConfigEnv clears every SQLDEVCFG_* variable and points HOME and
// XDG_CONFIG_HOME at a temp directory for the duration of the test.
func isolateConfigEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(xdgConfigHomeEnv, filepath.Join(home, ".config"))
	for _, key := range []string{envRoot, envFormat, envBackup, envEditor} {
		t.Setenv(key, "")
	}
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolateConfigEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".sqldeveloper"), cfg.Root)
	assert.True(t, cfg.Backup)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Empty(t, cfg.Editor)
}

func TestLoad_File(t *testing.T) {
	home := isolateConfigEnv(t)
	path := filepath.Join(home, ".config", "sqldevcfg", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`
root = "/opt/sqldeveloper-home"
backup = false
format = "yaml"
`), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/opt/sqldeveloper-home", cfg.Root)
	assert.False(t, cfg.Backup)
	assert.Equal(t, FormatYAML, cfg.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := isolateConfigEnv(t)
	path := filepath.Join(home, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`root = "/from/file"`), 0644))

	t.Setenv(envRoot, "/from/env")
	t.Setenv(envBackup, "false")
	t.Setenv(envEditor, "nano")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Root)
	assert.False(t, cfg.Backup)
	assert.Equal(t, "nano", cfg.Editor)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, home string) string
	}{
		{
			name: "bad backup env",
			setup: func(t *testing.T, home string) string {
				t.Setenv(envBackup, "sometimes")
				return ""
			},
		},
		{
			name: "bad format",
			setup: func(t *testing.T, home string) string {
				t.Setenv(envFormat, "xml")
				return ""
			},
		},
		{
			name: "malformed file",
			setup: func(t *testing.T, home string) string {
				path := filepath.Join(home, "broken.toml")
				require.NoError(t, os.WriteFile(path, []byte("root = "), 0644))
				return path
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolateConfigEnv(t)
			_, err := Load(tt.setup(t, home))
			assert.Error(t, err)
		})
	}
}
