package export

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/skoobtools/estante/internal/catalog"
)

// JSONWriter writes books as one indented JSON array.
type JSONWriter struct {
	w *bufio.Writer
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: bufio.NewWriter(w)}
}

// WriteAll writes the full list as an indented array. An empty list
// serializes as [] rather than null.
func (w *JSONWriter) WriteAll(books []catalog.Book) error {
	if books == nil {
		books = []catalog.Book{}
	}
	out, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return err
	}
	if _, err := w.w.Write(out); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes buffered output.
func (w *JSONWriter) Close() error {
	return w.w.Flush()
}
