package catalog

import (
	"encoding/json"
	"testing"

	"github.com/skoobtools/estante/internal/bookinfo"
	"github.com/skoobtools/estante/internal/harvest"
)

func TestFromItem_DirectMappings(t *testing.T) {
	it := harvest.Item{
		"title":          "Grande Sertão: Veredas",
		"author":         "João Guimarães Rosa",
		"rating":         float64(4.5),
		"year":           float64(1956),
		"pages":          float64(608),
		"publisher":      "Companhia das Letras",
		"finished_at":    "2023-08-15T10:30:00Z",
		"cover_filename": "grande_sertao.jpg",
		"slug":           "livro/1234-grande-sertao-veredas",
	}

	b := FromItem(it)

	if b.Title != "Grande Sertão: Veredas" {
		t.Errorf("Title = %q", b.Title)
	}
	if b.Author != "João Guimarães Rosa" {
		t.Errorf("Author = %q", b.Author)
	}
	if b.Rating != "4.5" {
		t.Errorf("Rating = %q, want 4.5", b.Rating)
	}
	if b.YearPublished != "1956" {
		t.Errorf("YearPublished = %q, want 1956", b.YearPublished)
	}
	if b.Pages != "608" {
		t.Errorf("Pages = %q, want 608", b.Pages)
	}
	if b.Publisher != "Companhia das Letras" {
		t.Errorf("Publisher = %q", b.Publisher)
	}
	if b.DateRead != "2023-08-15" {
		t.Errorf("DateRead = %q, want 2023-08-15", b.DateRead)
	}
	if b.CoverURL != "grande_sertao.jpg" {
		t.Errorf("CoverURL = %q", b.CoverURL)
	}
	if b.BookURL != "https://www.skoob.com.br/livro/1234-grande-sertao-veredas" {
		t.Errorf("BookURL = %q", b.BookURL)
	}
}

func TestFromItem_WholeNumberRatingHasNoDecimalPoint(t *testing.T) {
	b := FromItem(harvest.Item{"rating": float64(5)})
	if b.Rating != "5" {
		t.Errorf("Rating = %q, want 5", b.Rating)
	}
}

func TestFromItem_NumberValues(t *testing.T) {
	b := FromItem(harvest.Item{"rating": json.Number("4"), "pages": 320})
	if b.Rating != "4" {
		t.Errorf("Rating = %q, want 4", b.Rating)
	}
	if b.Pages != "320" {
		t.Errorf("Pages = %q, want 320", b.Pages)
	}
}

func TestFromItem_AbsoluteSlugKeptVerbatim(t *testing.T) {
	b := FromItem(harvest.Item{"slug": "https://www.skoob.com.br/pt/book/99"})
	if b.BookURL != "https://www.skoob.com.br/pt/book/99" {
		t.Errorf("BookURL = %q", b.BookURL)
	}
}

func TestFromItem_DateForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"rfc3339 utc", "2023-08-15T10:30:00Z", "2023-08-15"},
		{"rfc3339 offset", "2023-08-15T22:30:00-03:00", "2023-08-15"},
		{"zoneless", "2021-02-03T04:05:06", "2021-02-03"},
		{"date only", "2020-01-02", "2020-01-02"},
		{"unparsable kept raw", "15/08/2023", "15/08/2023"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := FromItem(harvest.Item{"finished_at": tt.raw})
			if b.DateRead != tt.want {
				t.Errorf("DateRead = %q, want %q", b.DateRead, tt.want)
			}
		})
	}
}

func TestFromItem_MissingFieldsStayEmpty(t *testing.T) {
	b := FromItem(harvest.Item{})
	if b != (Book{}) {
		t.Errorf("FromItem(empty) = %+v, want zero Book", b)
	}
}

func TestBook_MergeDetails_FillsOnlyEmptyFields(t *testing.T) {
	b := Book{
		Publisher:     "Companhia das Letras",
		YearPublished: "2001",
		Pages:         "608",
	}
	b.MergeDetails(bookinfo.Details{
		ISBN:          "9788535902775",
		AverageRating: "4.4",
		Binding:       "Capa dura",
		Publisher:     "Editora Errada",
		YearPublished: "1999",
		Pages:         "100",
	})

	if b.ISBN != "9788535902775" {
		t.Errorf("ISBN = %q", b.ISBN)
	}
	if b.AverageRating != "4.4" {
		t.Errorf("AverageRating = %q", b.AverageRating)
	}
	if b.Binding != "Capa dura" {
		t.Errorf("Binding = %q", b.Binding)
	}
	if b.Publisher != "Companhia das Letras" {
		t.Errorf("Publisher overwritten: %q", b.Publisher)
	}
	if b.YearPublished != "2001" {
		t.Errorf("YearPublished overwritten: %q", b.YearPublished)
	}
	if b.Pages != "608" {
		t.Errorf("Pages overwritten: %q", b.Pages)
	}
}

func TestBook_MergeDetails_EmptyDetailsChangesNothing(t *testing.T) {
	b := Book{Title: "Vidas Secas", ISBN: "8501009059"}
	before := b
	b.MergeDetails(bookinfo.Details{})
	if b != before {
		t.Errorf("MergeDetails(empty) changed book: %+v", b)
	}
}
