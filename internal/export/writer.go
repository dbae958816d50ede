// Package export writes a converted catalog to CSV, JSON or YAML.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/skoobtools/estante/internal/catalog"
)

// Format selects an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
}

// Writer serializes a full book list to one output.
type Writer interface {
	// WriteAll writes every book plus any header or framing.
	WriteAll(books []catalog.Book) error

	// Close flushes buffered output. It does not close the underlying
	// io.Writer.
	Close() error
}

// NewWriter creates a writer for the given format.
func NewWriter(format Format, w io.Writer) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}

// DefaultFilename returns a timestamped output filename of the form
// skoob_estante_<yyyymmdd_hhmmss>.<ext>.
func DefaultFilename(format Format) string {
	return fmt.Sprintf("skoob_estante_%s.%s", time.Now().Format("20060102_150405"), format)
}
