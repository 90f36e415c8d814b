package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMachineID = "1d5dbbd1-a91e-4298-9a5d-e13b55030b8f"

// setupRoot writes one empty installation under a temporary root and isolates
// config, backups and the session cache.
func setupRoot(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("TMPDIR", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	root := t.TempDir()
	system := filepath.Join(root, "system24.2.0")
	files := map[string]string{
		filepath.Join(system, "o.jdeveloper.db.connection.24.2.0", "connections.xml"): `<?xml version = '1.0' encoding = 'UTF-8'?>
<References xmlns="http://xmlns.oracle.com/adf/jndi" />
`,
		filepath.Join(system, "o.sqldeveloper.24.2.0", "product-preferences.xml"): `<?xml version = '1.0' encoding = 'UTF-8'?>
<ide:preferences xmlns:ide="http://xmlns.oracle.com/ide">
  <value n="db.system.id" v="` + testMachineID + `" />
</ide:preferences>
`,
	}
	for path, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"sqldevcfg"}, args...))
	return out.String(), err
}

func listConnections(t *testing.T, root string) []map[string]string {
	t.Helper()
	out, err := runApp(t, "--root", root, "list")
	require.NoError(t, err)

	var envelope struct {
		Result []struct {
			Connections []map[string]string `json:"connections"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &envelope), out)
	require.Len(t, envelope.Result, 1)
	return envelope.Result[0].Connections
}

func TestAdd_JSONWithSeveralKeys(t *testing.T) {
	root := setupRoot(t)

	_, err := runApp(t, "--root", root, "--no-backup", "add",
		"--json", `{"ConnName":"a","user":"scott","plaintext_password":"tiger"}`,
		"--json", `{"ConnName":"b","user":"hr"}`)
	require.NoError(t, err)

	conns := listConnections(t, root)
	require.Len(t, conns, 2)
	assert.Equal(t, "a", conns[0]["ConnName"])
	assert.Equal(t, "scott", conns[0]["user"])
	assert.Equal(t, "tiger", conns[0]["plaintext_password"])
	assert.Equal(t, "b", conns[1]["ConnName"])
	assert.Equal(t, "hr", conns[1]["user"])
}

func TestAdd_OriginalAlias(t *testing.T) {
	root := setupRoot(t)

	_, err := runApp(t, "--root", root, "--no-backup", "add_connection", "ConnName=c", "user=x,y")
	require.NoError(t, err)

	conns := listConnections(t, root)
	require.Len(t, conns, 1)
	assert.Equal(t, "x,y", conns[0]["user"])
}

func TestDecrypt(t *testing.T) {
	setupRoot(t)

	out, err := runApp(t, "decrypt", "-p", "mbAyyEhL9pY=", "-d", testMachineID)
	require.NoError(t, err)
	assert.Contains(t, out, `"password": "oracle"`)
}

func TestDecrypt_RequiresEncryptedPassword(t *testing.T) {
	setupRoot(t)

	out, err := runApp(t, "manual", "-d", testMachineID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
	assert.NotContains(t, out, `"status"`)
}
