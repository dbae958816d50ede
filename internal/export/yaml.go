package export

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/skoobtools/estante/internal/catalog"
)

// YAMLWriter writes books as a YAML document list.
type YAMLWriter struct {
	w *bufio.Writer
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{w: bufio.NewWriter(w)}
}

// WriteAll encodes the full list as one YAML document.
func (w *YAMLWriter) WriteAll(books []catalog.Book) error {
	if books == nil {
		books = []catalog.Book{}
	}
	enc := yaml.NewEncoder(w.w)
	enc.SetIndent(2)
	if err := enc.Encode(books); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes buffered output.
func (w *YAMLWriter) Close() error {
	return w.w.Flush()
}
