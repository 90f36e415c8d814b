package editor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
)

const (
	defaultEditor  = "vim"
	tempFilePrefix = "sqldevcfg-"
	tempFileSuffix = ".toml"
)

const templateHeader = `# Connection attributes, one per line. Save and quit to apply.
# An empty folder or plaintext_password keeps the current one; use
# "sqldevcfg mv" to clear the folder and SavePassword = "false" to stop
# saving the password. Delete everything to abort.
`

// runEditor launches the editor on path and waits for it. Tests replace it.
var runEditor = func(command []string, path string) error {
	cmd := exec.Command(command[0], append(command[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// getSessionDir returns the session-specific temp directory
func getSessionDir() string {
	ppid := os.Getppid()
	return filepath.Join(os.TempDir(), "sqldevcfg", fmt.Sprintf("%d", ppid))
}

// OpenForRecord opens the editor on a connection's data form and returns the
// edited attributes. editorCmd overrides $EDITOR when set.
func OpenForRecord(editorCmd string, data connections.Attributes) (connections.Attributes, error) {
	templateContent, err := createTemplate(data)
	if err != nil {
		return nil, err
	}

	editedContent, err := openEditor(editorCmd, templateContent)
	if err != nil {
		return nil, err
	}

	return parseTemplate(editedContent)
}

// createTemplate renders the attributes as a commented TOML table.
func createTemplate(data connections.Attributes) (string, error) {
	body, err := connections.EncodeTOML(data)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(templateHeader)
	sb.WriteString("\n")
	sb.Write(body)
	return sb.String(), nil
}

// parseTemplate reads the edited TOML back. An emptied file aborts the edit;
// the connection must keep a name.
func parseTemplate(content string) (connections.Attributes, error) {
	if isBlank(content) {
		return nil, fmt.Errorf("empty template, edit aborted")
	}

	entries, err := connections.DecodeTOML([]byte(content))
	if err != nil {
		return nil, err
	}
	if len(entries) != 1 {
		return nil, fmt.Errorf("expected one connection, found %d", len(entries))
	}

	attrs := entries[0]
	if name, _ := attrs.Get(connections.KeyName); strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%s cannot be empty", connections.KeyName)
	}
	return attrs, nil
}

// isBlank reports whether content has nothing but comments and whitespace.
func isBlank(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return false
		}
	}
	return true
}

// editorCommand picks the configured editor, then $EDITOR, then vim.
func editorCommand(editorCmd string) []string {
	if fields := strings.Fields(editorCmd); len(fields) > 0 {
		return fields
	}
	if fields := strings.Fields(os.Getenv("EDITOR")); len(fields) > 0 {
		return fields
	}
	return []string{defaultEditor}
}

// openEditor creates temp file, opens editor, returns edited content
func openEditor(editorCmd, initialContent string) (string, error) {
	// Ensure session directory exists
	sessionDir := getSessionDir()
	if err := os.MkdirAll(sessionDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}

	// The file may hold a plaintext password
	tmpFile, err := os.CreateTemp(sessionDir, tempFilePrefix+"*"+tempFileSuffix)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.WriteString(initialContent); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	tmpFile.Close()

	if err := runEditor(editorCommand(editorCmd), tmpPath); err != nil {
		return "", fmt.Errorf("editor exited with error: %w", err)
	}

	editedBytes, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to read edited content: %w", err)
	}

	return string(editedBytes), nil
}
