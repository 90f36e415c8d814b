package editor

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
)

func stubEditor(t *testing.T, edit func(content string) string) *[]string {
	t.Helper()
	t.Setenv("TMPDIR", t.TempDir())

	var used []string
	orig := runEditor
	runEditor = func(command []string, path string) error {
		used = command
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(edit(string(data))), 0600)
	}
	t.Cleanup(func() { runEditor = orig })
	return &used
}

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKeys []string
		wantErr  bool
	}{
		{
			name:     "attributes in order",
			input:    "# comment\n\nConnName = \"prod\"\nuser = \"hr\"\nport = 1521\n",
			wantKeys: []string{"ConnName", "user", "port"},
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "comments only",
			input:   templateHeader,
			wantErr: true,
		},
		{
			name:    "missing name",
			input:   "user = \"hr\"\n",
			wantErr: true,
		},
		{
			name:    "blank name",
			input:   "ConnName = \"  \"\n",
			wantErr: true,
		},
		{
			name:    "invalid toml",
			input:   "ConnName = \n",
			wantErr: true,
		},
		{
			name:    "several connections",
			input:   "[[connections]]\nConnName = \"a\"\n[[connections]]\nConnName = \"b\"\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTemplate(tt.input)

			if (err != nil) != tt.wantErr {
				t.Errorf("parseTemplate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				return
			}

			keys := got.Keys()
			if strings.Join(keys, ",") != strings.Join(tt.wantKeys, ",") {
				t.Errorf("parseTemplate() keys = %v, want %v", keys, tt.wantKeys)
			}
		})
	}
}

func TestCreateTemplate_RoundTrip(t *testing.T) {
	data := connections.Attributes{
		{Key: "folder", Value: "Prod"},
		{Key: "plaintext_password", Value: "Ростов"},
		{Key: "ConnName", Value: "prod \"main\""},
		{Key: "customUrl", Value: "jdbc:oracle:thin:@db:1521:orcl"},
	}

	content, err := createTemplate(data)
	if err != nil {
		t.Fatalf("createTemplate failed: %v", err)
	}
	if !strings.HasPrefix(content, templateHeader) {
		t.Errorf("template should start with the header, got %q", content)
	}

	got, err := parseTemplate(content)
	if err != nil {
		t.Fatalf("parseTemplate failed: %v", err)
	}
	if len(got) != len(data) {
		t.Fatalf("got %d attributes, want %d", len(got), len(data))
	}
	for i := range data {
		if got[i] != data[i] {
			t.Errorf("attribute %d = %+v, want %+v", i, got[i], data[i])
		}
	}
}

func TestOpenForRecord(t *testing.T) {
	used := stubEditor(t, func(content string) string {
		return strings.Replace(content, `user = "hr"`, `user = "scott"`, 1)
	})

	data := connections.Attributes{
		{Key: "ConnName", Value: "prod"},
		{Key: "user", Value: "hr"},
	}

	got, err := OpenForRecord("code --wait", data)
	if err != nil {
		t.Fatalf("OpenForRecord failed: %v", err)
	}
	if user, _ := got.Get("user"); user != "scott" {
		t.Errorf("user = %q, want %q", user, "scott")
	}
	if strings.Join(*used, " ") != "code --wait" {
		t.Errorf("editor command = %v, want [code --wait]", *used)
	}
}

func TestOpenForRecord_Aborted(t *testing.T) {
	stubEditor(t, func(string) string { return "" })

	_, err := OpenForRecord("", connections.Attributes{{Key: "ConnName", Value: "prod"}})
	if err == nil {
		t.Fatal("emptied file should abort the edit")
	}
}

func TestOpenForRecord_EditorFails(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	orig := runEditor
	runEditor = func([]string, string) error { return errors.New("exit status 1") }
	t.Cleanup(func() { runEditor = orig })

	_, err := OpenForRecord("", connections.Attributes{{Key: "ConnName", Value: "prod"}})
	if err == nil || !strings.Contains(err.Error(), "editor exited with error") {
		t.Errorf("error = %v, want editor failure", err)
	}
}

func TestEditorCommand(t *testing.T) {
	t.Setenv("EDITOR", "nano -w")

	if got := editorCommand("hx"); strings.Join(got, " ") != "hx" {
		t.Errorf("configured editor = %v, want [hx]", got)
	}
	if got := editorCommand(""); strings.Join(got, " ") != "nano -w" {
		t.Errorf("$EDITOR = %v, want [nano -w]", got)
	}

	t.Setenv("EDITOR", "")
	if got := editorCommand(""); strings.Join(got, " ") != defaultEditor {
		t.Errorf("fallback = %v, want [%s]", got, defaultEditor)
	}
}
