package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/DeprecatedLuar/sqldevcfg/internal/storage"
)

// Terminal defaults
const (
	DefaultTermWidth = 80
	spinnerDelay     = 100 * time.Millisecond
)

// ============================================================================
// Semantic formatters
// ============================================================================

// Formatter applies semantic formatting to text.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments and returns the resulting string.
func (f Formatter) Sprint(a ...interface{}) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// Sprintf formats according to a format specifier and returns the resulting string.
func (f Formatter) Sprintf(format string, a ...interface{}) string {
	return f.Sprint(fmt.Sprintf(format, a...))
}

var (
	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Key     = Formatter{color.New(color.FgCyan), "", ""}
	Path    = Formatter{color.New(color.FgYellow), "", ""}
	Muted   = Formatter{color.New(color.FgHiBlack), "(", ")"}
	Folder  = Formatter{color.New(color.FgHiBlack), "#", ""}
)

// noColor returns true if color output should be disabled.
func noColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

// ============================================================================
// Password Prompting
// ============================================================================

// PromptPasswordCustom prompts with a custom message for password with hidden input.
func PromptPasswordCustom(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return strings.TrimSpace(string(password)), nil
}

// ============================================================================
// Terminal Utilities
// ============================================================================

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// GetTerminalWidth returns the current terminal width, or DefaultTermWidth if unavailable.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTermWidth
	}
	return width
}

// TruncateString truncates a string to maxLen runes (Unicode-safe).
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

// StartSpinner shows a spinner on stderr while a scan runs and returns the
// function that stops it. Nothing is shown when stderr is not a terminal.
func StartSpinner(suffix string) (stop func()) {
	if !IsTerminal(os.Stderr) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], spinnerDelay, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}

// ============================================================================
// Formatting Helpers
// ============================================================================

// FormatConnection formats one connection line: "[n] name #folder user@host".
// n <= 0 omits the number.
func FormatConnection(n int, name, folder, user, host string) string {
	var parts []string
	if n > 0 {
		parts = append(parts, fmt.Sprintf("[%d]", n))
	}
	parts = append(parts, name)
	if folder != "" {
		parts = append(parts, Folder.Sprint(folder))
	}
	if user != "" || host != "" {
		parts = append(parts, Muted.Sprint(user+"@"+host))
	}
	return strings.Join(parts, " ")
}

// FormatDiff renders diff lines with +/- markers, colored when supported.
func FormatDiff(lines []storage.DiffLine) string {
	var sb strings.Builder
	for _, l := range lines {
		switch l.Op {
		case storage.DiffInsert:
			sb.WriteString(Success.Sprint("+ " + l.Text))
		case storage.DiffDelete:
			sb.WriteString(Error.Sprint("- " + l.Text))
		default:
			sb.WriteString("  " + l.Text)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
