package export

import (
	"encoding/csv"
	"io"

	"github.com/skoobtools/estante/internal/catalog"
)

// csvColumns is the fixed column order, matching the Goodreads import
// shape. The cover URL stays out of CSV.
var csvColumns = []string{
	"title", "author", "isbn", "rating", "average_rating", "publisher",
	"binding", "year_published", "original_publication_year", "date_read",
	"date_added", "shelves", "bookshelves", "review", "pages", "book_url",
}

// CSVWriter writes books as CSV with a fixed header.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// WriteAll writes the header and one row per book.
func (w *CSVWriter) WriteAll(books []catalog.Book) error {
	if err := w.w.Write(csvColumns); err != nil {
		return err
	}
	for _, b := range books {
		if err := w.w.Write(record(b)); err != nil {
			return err
		}
	}
	w.w.Flush()
	return w.w.Error()
}

// Close flushes buffered rows.
func (w *CSVWriter) Close() error {
	w.w.Flush()
	return w.w.Error()
}

func record(b catalog.Book) []string {
	return []string{
		b.Title, b.Author, b.ISBN, b.Rating, b.AverageRating, b.Publisher,
		b.Binding, b.YearPublished, b.OriginalPublicationYear, b.DateRead,
		b.DateAdded, b.Shelves, b.Bookshelves, b.Review, b.Pages, b.BookURL,
	}
}
