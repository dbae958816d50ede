package skoob

import (
	"strings"
	"testing"
)

func TestIsAPIRequest(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"primary api host", "https://prd-api.skoob.com.br/api/v1/bookshelf?page=1", true},
		{"bare api host", "https://api.skoob.com.br/api/v1/bookshelf", true},
		{"subdomain of api host", "https://v2.api.skoob.com.br/anything", true},
		{"site frontend", "https://www.skoob.com.br/login", false},
		{"lookalike host", "https://api.skoob.com.br.evil.example/steal", false},
		{"host without scheme", "prd-api.skoob.com.br/api/v1/bookshelf", true},
		{"uppercase host", "https://PRD-API.skoob.com.br/api/v1/bookshelf", true},
		{"empty", "", false},
		{"unrelated", "https://fonts.gstatic.com/x.woff", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAPIRequest(tt.url); got != tt.want {
				t.Errorf("IsAPIRequest(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestBookshelfPageURL(t *testing.T) {
	got := BookshelfPageURL("67bd0d5270c4abc337699ac9", "read")
	want := "https://www.skoob.com.br/pt/user/67bd0d5270c4abc337699ac9/bookshelf?filter=read"
	if got != want {
		t.Errorf("BookshelfPageURL() = %q, want %q", got, want)
	}
}

func TestBookURL(t *testing.T) {
	tests := []struct {
		name string
		slug string
		want string
	}{
		{"relative slug", "livro/123ed456.html", "https://www.skoob.com.br/livro/123ed456.html"},
		{"leading slash slug", "/livro/123ed456.html", "https://www.skoob.com.br/livro/123ed456.html"},
		{"absolute url passes through", "https://www.skoob.com.br/livro/1.html", "https://www.skoob.com.br/livro/1.html"},
		{"empty slug", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BookURL(tt.slug); got != tt.want {
				t.Errorf("BookURL(%q) = %q, want %q", tt.slug, got, tt.want)
			}
		})
	}
}

func TestBrowserHeaders(t *testing.T) {
	h := BrowserHeaders("eyJtoken")

	if h["authorization"] != "eyJtoken" {
		t.Errorf("authorization = %q, want the credential verbatim", h["authorization"])
	}
	if h["accept-encoding"] != "gzip, deflate, br, zstd" {
		t.Errorf("accept-encoding = %q", h["accept-encoding"])
	}
	if h["origin"] != BaseURL {
		t.Errorf("origin = %q, want %q", h["origin"], BaseURL)
	}
	if !strings.Contains(h["user-agent"], "Chrome/") {
		t.Errorf("user-agent should claim Chrome, got %q", h["user-agent"])
	}
}
