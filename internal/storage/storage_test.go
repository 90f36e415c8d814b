package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/beevik/etree"

	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
)

// setupTestEnv points XDG_DATA_HOME at a temporary directory
func setupTestEnv(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmpDir)
	return tmpDir
}

func TestGetDataDir(t *testing.T) {
	tmpDir := setupTestEnv(t)

	dir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir() failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "sqldevcfg")
	if dir != expected {
		t.Errorf("GetDataDir() = %q, want %q", dir, expected)
	}
}

// ============================================================================
// XML rendering
// ============================================================================

func TestRenderXML_ParentChild(t *testing.T) {
	parent := etree.NewElement("Parent")
	parent.CreateAttr("a", "b")
	parent.CreateElement("Child").CreateAttr("is_baby", "true")

	got, err := RenderXML(parent)
	if err != nil {
		t.Fatalf("RenderXML failed: %v", err)
	}

	want := XMLHeader + "<Parent a=\"b\">\n  <Child is_baby=\"true\" />\n</Parent>\n"
	if string(got) != want {
		t.Errorf("RenderXML() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderXML_ConnectionLayout(t *testing.T) {
	root := etree.NewElement("References")
	root.CreateAttr("xmlns", "http://xmlns.oracle.com/adf/jndi")
	ref := root.CreateElement("Reference")
	ref.CreateAttr("name", "Тест")
	ref.CreateAttr("className", "x")
	ref.CreateAttr("xmlns", "")
	ref.CreateElement("Factory").CreateAttr("className", "f")
	addrs := ref.CreateElement("RefAddresses")
	user := addrs.CreateElement("StringRefAddr")
	user.CreateAttr("addrType", "user")
	user.CreateElement("Contents").SetText("scott")
	role := addrs.CreateElement("StringRefAddr")
	role.CreateAttr("addrType", "role")
	role.CreateElement("Contents")

	got, err := RenderXML(root)
	if err != nil {
		t.Fatalf("RenderXML failed: %v", err)
	}

	want := XMLHeader +
		`<References xmlns="http://xmlns.oracle.com/adf/jndi">
  <Reference name="&#1058;&#1077;&#1089;&#1090;" className="x" xmlns="">
    <Factory className="f" />
    <RefAddresses>
      <StringRefAddr addrType="user">
        <Contents>scott</Contents>
      </StringRefAddr>
      <StringRefAddr addrType="role">
        <Contents />
      </StringRefAddr>
    </RefAddresses>
  </Reference>
</References>
`
	if string(got) != want {
		t.Errorf("RenderXML() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderXML_Escaping(t *testing.T) {
	e := etree.NewElement("value")
	e.CreateAttr("v", "a\"b\n<&>\t")
	e.SetText(`x < y & "z" > ü`)

	got, err := RenderXML(e)
	if err != nil {
		t.Fatalf("RenderXML failed: %v", err)
	}

	want := XMLHeader + `<value v="a&quot;b&#10;&lt;&amp;&gt;&#09;">x &lt; y &amp; "z" &gt; &#252;</value>` + "\n"
	if string(got) != want {
		t.Errorf("RenderXML() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderXML_NotRepresentable(t *testing.T) {
	e := etree.NewElement("Contents")
	e.SetText("bell\x07")

	_, err := RenderXML(e)
	if !errors.Is(err, errors.ErrSerialization) {
		t.Errorf("RenderXML() error = %v, want ErrSerialization", err)
	}
}

func TestLoadXML_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.xml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadXML(path)
	if err != nil {
		t.Fatalf("LoadXML failed: %v", err)
	}
	if doc.Root() != nil {
		t.Error("empty file should have no root")
	}
}

func TestLoadXML_RoundTrip(t *testing.T) {
	input := XMLHeader + `<ide:preferences xmlns:ide="http://xmlns.oracle.com/ide">
  <value n="db.system.id" v="1d5dbbd1" />
  <hash n="x">
    <list n="&#1055;">
      <string v="a&amp;b" />
    </list>
  </hash>
</ide:preferences>
`
	path := filepath.Join(t.TempDir(), "product-preferences.xml")
	if err := os.WriteFile(path, []byte(input), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadXML(path)
	if err != nil {
		t.Fatalf("LoadXML failed: %v", err)
	}

	got, err := RenderXML(doc.Root())
	if err != nil {
		t.Fatalf("RenderXML failed: %v", err)
	}
	if string(got) != input {
		t.Errorf("round trip =\n%s\nwant\n%s", got, input)
	}
}

// ============================================================================
// Commit
// ============================================================================

func TestCommitFiles_WritesAll(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xml")
	b := filepath.Join(dir, "b.xml")
	if err := os.WriteFile(a, []byte("old a"), 0644); err != nil {
		t.Fatal(err)
	}

	err := CommitFiles(
		PendingWrite{Path: a, Data: []byte("new a")},
		PendingWrite{Path: b, Data: []byte("new b")},
	)
	if err != nil {
		t.Fatalf("CommitFiles failed: %v", err)
	}

	assertFile(t, a, "new a")
	assertFile(t, b, "new b")
	assertNoTempFiles(t, dir)
}

func TestCommitFiles_RollbackOnReplaceFailure(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "connections.xml")
	b := filepath.Join(dir, "product-preferences.xml")
	if err := os.WriteFile(a, []byte("old a"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("old b"), 0644); err != nil {
		t.Fatal(err)
	}

	calls := 0
	renameFile = func(oldpath, newpath string) error {
		calls++
		if calls == 2 {
			return os.ErrPermission
		}
		return os.Rename(oldpath, newpath)
	}
	t.Cleanup(func() { renameFile = os.Rename })

	err := CommitFiles(
		PendingWrite{Path: a, Data: []byte("new a")},
		PendingWrite{Path: b, Data: []byte("new b")},
	)
	if err == nil {
		t.Fatal("CommitFiles should fail when a replace fails")
	}

	assertFile(t, a, "old a")
	assertFile(t, b, "old b")
	assertNoTempFiles(t, dir)
}

func TestCommitFiles_StagingFailureLeavesTargets(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xml")
	if err := os.WriteFile(a, []byte("old a"), 0644); err != nil {
		t.Fatal(err)
	}

	err := CommitFiles(
		PendingWrite{Path: a, Data: []byte("new a")},
		PendingWrite{Path: filepath.Join(dir, "missing", "b.xml"), Data: []byte("new b")},
	)
	if err == nil {
		t.Fatal("CommitFiles should fail when a target directory is missing")
	}

	assertFile(t, a, "old a")
	assertNoTempFiles(t, dir)
}

// ============================================================================
// Backups
// ============================================================================

func TestBackupAndRestoreLatest(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()
	conns := filepath.Join(dir, "connections.xml")
	prefs := filepath.Join(dir, "product-preferences.xml")
	if err := os.WriteFile(conns, []byte("conns v1"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(prefs, []byte("prefs v1"), 0644); err != nil {
		t.Fatal(err)
	}

	manifest, err := Backup("add", conns, prefs)
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if len(manifest.Files) != 2 {
		t.Fatalf("Backup stored %d files, want 2", len(manifest.Files))
	}

	if err := os.WriteFile(conns, []byte("conns v2"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(prefs, []byte("prefs v2"), 0644); err != nil {
		t.Fatal(err)
	}

	restored, err := RestoreLatest()
	if err != nil {
		t.Fatalf("RestoreLatest failed: %v", err)
	}
	if restored.Reason != "add" {
		t.Errorf("restored reason = %q, want %q", restored.Reason, "add")
	}

	assertFile(t, conns, "conns v1")
	assertFile(t, prefs, "prefs v1")

	if _, err := RestoreLatest(); !errors.Is(err, errors.ErrNoBackup) {
		t.Errorf("second RestoreLatest error = %v, want ErrNoBackup", err)
	}
}

func TestBackup_SkipsMissingFiles(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()

	manifest, err := Backup("test", filepath.Join(dir, "absent.xml"))
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if len(manifest.Files) != 0 {
		t.Errorf("Backup stored %d files, want 0", len(manifest.Files))
	}
}

// ============================================================================
// Diff
// ============================================================================

func TestDiffLines(t *testing.T) {
	lines := DiffLines("a\nb\nc\n", "a\nB\nc\n")
	if !HasChanges(lines) {
		t.Fatal("expected changes")
	}

	var inserted, deleted []string
	for _, l := range lines {
		switch l.Op {
		case DiffInsert:
			inserted = append(inserted, l.Text)
		case DiffDelete:
			deleted = append(deleted, l.Text)
		}
	}
	if len(inserted) != 1 || inserted[0] != "B" {
		t.Errorf("inserted = %v, want [B]", inserted)
	}
	if len(deleted) != 1 || deleted[0] != "b" {
		t.Errorf("deleted = %v, want [b]", deleted)
	}

	if HasChanges(DiffLines("same\n", "same\n")) {
		t.Error("identical documents should have no changes")
	}
}

func TestTrimContext(t *testing.T) {
	lines := []DiffLine{
		{DiffEqual, "1"}, {DiffEqual, "2"}, {DiffEqual, "3"},
		{DiffDelete, "4"}, {DiffInsert, "4'"},
		{DiffEqual, "5"}, {DiffEqual, "6"}, {DiffEqual, "7"},
	}

	got := TrimContext(lines, 1)
	want := []string{"...", "3", "4", "4'", "5", "..."}
	if len(got) != len(want) {
		t.Fatalf("TrimContext() returned %d lines, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i].Text, want[i])
		}
	}
}

// ============================================================================
// Results cache
// ============================================================================

func TestCacheResults(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	if _, err := GetCachedResult(1); err == nil {
		t.Error("GetCachedResult without a cache should fail")
	}

	results := []CachedResult{
		{ConnectionsPath: "/a/connections.xml", Name: "prod"},
		{ConnectionsPath: "/b/connections.xml", Name: "dev"},
	}
	if err := CacheResults(results); err != nil {
		t.Fatalf("CacheResults failed: %v", err)
	}

	got, err := GetCachedResult(2)
	if err != nil {
		t.Fatalf("GetCachedResult failed: %v", err)
	}
	if got != results[1] {
		t.Errorf("GetCachedResult(2) = %+v, want %+v", got, results[1])
	}

	for _, n := range []int{0, 3} {
		if _, err := GetCachedResult(n); err == nil {
			t.Errorf("GetCachedResult(%d) should be out of range", n)
		}
	}
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if string(data) != want {
		t.Errorf("%s = %q, want %q", filepath.Base(path), data, want)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, _ := filepath.Glob(filepath.Join(dir, ".*.tmp.*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}
