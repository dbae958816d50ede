package bookinfo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseDetails_ConcatenatedEditionBlock(t *testing.T) {
	// Skoob renders publisher, year and page count as one text run.
	text := "O Menino do Pijama Listrado Editora Salamandra201340 páginas Avaliações 4.4 / 153"

	d := parseDetails(text)

	if d.Publisher != "Salamandra" {
		t.Errorf("Publisher = %q, want Salamandra", d.Publisher)
	}
	if d.YearPublished != "2013" {
		t.Errorf("YearPublished = %q, want 2013", d.YearPublished)
	}
	if d.Pages != "40" {
		t.Errorf("Pages = %q, want 40", d.Pages)
	}
	if d.AverageRating != "4.4" {
		t.Errorf("AverageRating = %q, want 4.4", d.AverageRating)
	}
}

func TestParseDetails_ISBN(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"ISBN-13: 9788516085773", "9788516085773"},
		{"ISBN: 85-359-0277-5", "85-359-0277-5"},
		{"ISBN:9788535902775", "9788535902775"},
		{"sem registro", ""},
	}
	for _, tt := range tests {
		if got := parseDetails(tt.text).ISBN; got != tt.want {
			t.Errorf("ISBN from %q = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParseDetails_YearAndPagesWithoutPublisher(t *testing.T) {
	d := parseDetails("lançamento 201340 páginas")

	if d.YearPublished != "2013" {
		t.Errorf("YearPublished = %q, want the fallback 2013", d.YearPublished)
	}
	if d.Pages != "40" {
		t.Errorf("Pages = %q, want 40", d.Pages)
	}
	if d.Publisher != "" {
		t.Errorf("Publisher = %q, want empty", d.Publisher)
	}
}

func TestParseDetails_PlainPageCount(t *testing.T) {
	d := parseDetails("Brochura com 350 páginas ao todo")

	if d.Pages != "350" {
		t.Errorf("Pages = %q, want 350", d.Pages)
	}
	if d.YearPublished != "" {
		t.Errorf("YearPublished = %q, want empty without a year-page blob", d.YearPublished)
	}
}

func TestParseDetails_RatingFallbackRejectsImplausible(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"nota média 4.2 / 1530 leituras", "4.2"},
		{"placar 7.5 / 10 no site parceiro", ""},
		{"lido em 19/02/2023", ""},
	}
	for _, tt := range tests {
		if got := parseDetails(tt.text).AverageRating; got != tt.want {
			t.Errorf("AverageRating from %q = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParseDetails_Binding(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Edição em Capa dura, conservada", "Capa dura"},
		{"capa mole comum", "capa mole"},
		{"Paperback edition", "Paperback"},
		{"e-book", ""},
	}
	for _, tt := range tests {
		if got := parseDetails(tt.text).Binding; got != tt.want {
			t.Errorf("Binding from %q = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParseDetails_NothingFound(t *testing.T) {
	if d := parseDetails("uma página sem nenhum dado de edição"); d != (Details{}) {
		t.Errorf("parseDetails() = %+v, want zero details", d)
	}
}

func TestFetchBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/livro/1-bom":
			fmt.Fprint(w, `<html><body><h1>Livro Bom</h1>
				<div>ISBN-13: 9788516085773 Editora Salamandra201340 páginas</div>
				<div>Avaliações 4.4 / 153</div></body></html>`)
		case "/livro/2-quebrado":
			http.NotFound(w, r)
		default:
			fmt.Fprint(w, "<html><body>robots ok</body></html>")
		}
	}))
	defer srv.Close()

	good := srv.URL + "/livro/1-bom"
	broken := srv.URL + "/livro/2-quebrado"

	s := NewScraper(Options{Workers: 2})
	results := s.FetchBatch(context.Background(), []string{good, broken})

	if len(results) != 2 {
		t.Fatalf("results = %d entries, want one per URL", len(results))
	}

	d, ok := results[good]
	if !ok {
		t.Fatal("no entry for the good URL")
	}
	if d.ISBN != "9788516085773" || d.Publisher != "Salamandra" || d.AverageRating != "4.4" {
		t.Errorf("details = %+v, want the scraped edition block", d)
	}

	if d, ok := results[broken]; !ok {
		t.Error("no entry for the failing URL")
	} else if d != (Details{}) {
		t.Errorf("failing URL details = %+v, want empty", d)
	}
}
