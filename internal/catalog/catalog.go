// Package catalog turns raw bookshelf API items into export-shaped
// book records and folds in details scraped from individual book
// pages. Every field is a string; empty means no source ever provided
// a value, which is what the merge logic keys on.
package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/skoobtools/estante/internal/bookinfo"
	"github.com/skoobtools/estante/internal/harvest"
	"github.com/skoobtools/estante/internal/skoob"
)

// Book is one shelf entry in export shape. The csv tags give the
// column names of the CSV export; CoverURL is carried for the JSON and
// YAML outputs but excluded from CSV.
type Book struct {
	Title                   string `csv:"title" json:"title" yaml:"title"`
	Author                  string `csv:"author" json:"author" yaml:"author"`
	ISBN                    string `csv:"isbn" json:"isbn" yaml:"isbn"`
	Rating                  string `csv:"rating" json:"rating" yaml:"rating"`
	AverageRating           string `csv:"average_rating" json:"average_rating" yaml:"average_rating"`
	Publisher               string `csv:"publisher" json:"publisher" yaml:"publisher"`
	Binding                 string `csv:"binding" json:"binding" yaml:"binding"`
	YearPublished           string `csv:"year_published" json:"year_published" yaml:"year_published"`
	OriginalPublicationYear string `csv:"original_publication_year" json:"original_publication_year" yaml:"original_publication_year"`
	DateRead                string `csv:"date_read" json:"date_read" yaml:"date_read"`
	DateAdded               string `csv:"date_added" json:"date_added" yaml:"date_added"`
	Shelves                 string `csv:"shelves" json:"shelves" yaml:"shelves"`
	Bookshelves             string `csv:"bookshelves" json:"bookshelves" yaml:"bookshelves"`
	Review                  string `csv:"review" json:"review" yaml:"review"`
	Pages                   string `csv:"pages" json:"pages" yaml:"pages"`
	BookURL                 string `csv:"book_url" json:"book_url" yaml:"book_url"`
	CoverURL                string `csv:"-" json:"cover_url" yaml:"cover_url"`
}

// FromItem maps one raw API item into a Book. Missing fields stay
// empty, numbers render without a decimal point when whole, and the
// item slug resolves to an absolute book page URL.
func FromItem(it harvest.Item) Book {
	b := Book{
		Title:         itemString(it["title"]),
		Author:        itemString(it["author"]),
		Rating:        itemString(it["rating"]),
		YearPublished: itemString(it["year"]),
		Pages:         itemString(it["pages"]),
		Publisher:     itemString(it["publisher"]),
		CoverURL:      itemString(it["cover_filename"]),
	}
	if raw := itemString(it["finished_at"]); raw != "" {
		b.DateRead = readDate(raw)
	}
	if slug := itemString(it["slug"]); slug != "" {
		b.BookURL = skoob.BookURL(slug)
	}
	return b
}

// MergeDetails fills fields the API left empty from a scraped details
// record. Values already present are never overwritten.
func (b *Book) MergeDetails(d bookinfo.Details) {
	fill(&b.ISBN, d.ISBN)
	fill(&b.AverageRating, d.AverageRating)
	fill(&b.Binding, d.Binding)
	fill(&b.Publisher, d.Publisher)
	fill(&b.YearPublished, d.YearPublished)
	fill(&b.Pages, d.Pages)
}

func fill(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// Layouts accepted for finished_at. Current responses are RFC 3339;
// zoneless and date-only forms parse too.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// readDate normalizes a finished_at timestamp to YYYY-MM-DD, keeping
// the raw value when it parses under none of the known layouts.
func readDate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}

func itemString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return fmt.Sprint(s)
	}
}
