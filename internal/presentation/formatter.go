// Package presentation writes command results as structured JSON or YAML.
package presentation

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/DeprecatedLuar/sqldevcfg/internal/config"
)

// StatusOK marks a successful result envelope.
const StatusOK = "ok"

// Envelope wraps every structured result.
type Envelope struct {
	Result any    `json:"result" yaml:"result"`
	Status string `json:"status" yaml:"status"`
}

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	format string
}

// NewFormatter creates a formatter for config.FormatJSON or config.FormatYAML.
func NewFormatter(writer io.Writer, format string) *Formatter {
	return &Formatter{
		writer: writer,
		format: format,
	}
}

// FormatResult writes result wrapped in an ok envelope.
func (f *Formatter) FormatResult(result any) error {
	return f.encode(Envelope{Result: result, Status: StatusOK})
}

func (f *Formatter) encode(v any) error {
	switch f.format {
	case config.FormatYAML:
		encoder := yaml.NewEncoder(f.writer)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	default:
		encoder := json.NewEncoder(f.writer)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(v)
	}
}
