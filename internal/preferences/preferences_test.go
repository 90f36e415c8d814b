package preferences

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
)

const testMachineID = "1d5dbbd1-a91e-4298-9a5d-e13b55030b8f"

const fixture = `<?xml version = '1.0' encoding = 'UTF-8'?>
<ide:preferences xmlns:ide="http://xmlns.oracle.com/ide">
  <value n="db.system.id" v="1d5dbbd1-a91e-4298-9a5d-e13b55030b8f" />
  <hash n="DatabaseFoldersCache">
    <hash n="Folders">
      <hash n="IdeConnections">
        <list n="Prod">
          <string v="prod-db" />
          <string v="prod-replica" />
        </list>
        <list n="Staging">
          <string v="stage-db" />
        </list>
      </hash>
    </hash>
  </hash>
  <hash n="Unrelated">
    <value n="keep" v="me" />
  </hash>
</ide:preferences>
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_NotInitialized(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotInitialized))
	assert.Contains(t, err.Error(), path)
}

func TestIdentifier(t *testing.T) {
	store, err := Load(writeFixture(t, fixture))
	require.NoError(t, err)

	id, err := store.Identifier()
	require.NoError(t, err)
	assert.Equal(t, testMachineID, id)
}

func TestIdentifier_Missing(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no value element", `<ide:preferences xmlns:ide="http://xmlns.oracle.com/ide"><value n="other" v="x"/></ide:preferences>`},
		{"empty value", `<ide:preferences xmlns:ide="http://xmlns.oracle.com/ide"><value n="db.system.id"/></ide:preferences>`},
		{"empty file", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFixture(t, tt.content)
			store, err := Load(path)
			require.NoError(t, err)

			_, err = store.Identifier()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrMissingIdentifier))
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestFolderIndex(t *testing.T) {
	store, err := Load(writeFixture(t, fixture))
	require.NoError(t, err)

	idx := store.FolderIndex()
	assert.Equal(t, FolderIndex{
		{Name: "Prod", Connections: []string{"prod-db", "prod-replica"}},
		{Name: "Staging", Connections: []string{"stage-db"}},
	}, idx)

	folder, ok := idx.FolderOf("stage-db")
	assert.True(t, ok)
	assert.Equal(t, "Staging", folder)

	_, ok = idx.FolderOf("unfiled")
	assert.False(t, ok)
}

func TestFolderOf_LastFolderWins(t *testing.T) {
	idx := FolderIndex{
		{Name: "Old", Connections: []string{"prod-hr", "dev-scott"}},
		{Name: "Empty", Connections: []string{}},
		{Name: "New", Connections: []string{"prod-hr"}},
	}

	folder, ok := idx.FolderOf("prod-hr")
	assert.True(t, ok)
	assert.Equal(t, "New", folder)

	folder, _ = idx.FolderOf("dev-scott")
	assert.Equal(t, "Old", folder)
}

func TestFolderIndex_NoContainer(t *testing.T) {
	store, err := Load(writeFixture(t, `<ide:preferences xmlns:ide="http://xmlns.oracle.com/ide"/>`))
	require.NoError(t, err)

	assert.Empty(t, store.FolderIndex())
}

func TestUpdateFolderIndex_ReplaceInPlace(t *testing.T) {
	path := writeFixture(t, fixture)
	store, err := Load(path)
	require.NoError(t, err)

	store.UpdateFolderIndex(FolderIndex{
		{Name: "Prod", Connections: []string{"prod-db"}},
		{Name: "Dev", Connections: []string{"dev-db"}},
	})
	require.NoError(t, store.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FolderIndex{
		{Name: "Staging", Connections: []string{"stage-db"}},
		{Name: "Prod", Connections: []string{"prod-db"}},
		{Name: "Dev", Connections: []string{"dev-db"}},
	}, reloaded.FolderIndex())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<value n="keep" v="me" />`)

	id, err := reloaded.Identifier()
	require.NoError(t, err)
	assert.Equal(t, testMachineID, id)
}

func TestUpdateFolderIndex_CreatesContainers(t *testing.T) {
	path := writeFixture(t, `<ide:preferences xmlns:ide="http://xmlns.oracle.com/ide">
  <value n="db.system.id" v="abc" />
</ide:preferences>`)
	store, err := Load(path)
	require.NoError(t, err)

	store.UpdateFolderIndex(FolderIndex{{Name: "Новая", Connections: []string{"a"}}})

	data, err := store.Render()
	require.NoError(t, err)

	want := `<?xml version = '1.0' encoding = 'UTF-8'?>
<ide:preferences xmlns:ide="http://xmlns.oracle.com/ide">
  <value n="db.system.id" v="abc" />
  <hash n="DatabaseFoldersCache">
    <hash n="Folders">
      <hash n="IdeConnections">
        <list n="&#1053;&#1086;&#1074;&#1072;&#1103;">
          <string v="a" />
        </list>
      </hash>
    </hash>
  </hash>
</ide:preferences>
`
	assert.Equal(t, want, string(data))
}

func TestUpdateFolderIndex_EmptyFolderClears(t *testing.T) {
	store, err := Load(writeFixture(t, fixture))
	require.NoError(t, err)

	store.UpdateFolderIndex(FolderIndex{{Name: "Staging", Connections: []string{}}})

	data, err := store.Render()
	require.NoError(t, err)
	assert.Contains(t, string(data), `<list n="Staging" />`)
	assert.NotContains(t, string(data), "stage-db")
}

func TestRender_Unchanged(t *testing.T) {
	store, err := Load(writeFixture(t, fixture))
	require.NoError(t, err)

	data, err := store.Render()
	require.NoError(t, err)
	assert.Equal(t, fixture, string(data))
	assert.True(t, strings.HasPrefix(string(data), "<?xml version = '1.0'"))
}
