package auth

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/skoobtools/estante/internal/skoob"
)

// AccountID identifies the catalog owner. Current profiles carry a
// 24-character hex id under /pt/user/, legacy profiles a numeric id
// under /usuario/. Once resolved it never changes for the run.
//
// Resolution precedence: explicit input, then the API response body
// (adopted by the harvest engine when nothing else resolved), then page
// link inspection, then the current page URL.
type AccountID string

// AccountIDFromURL extracts the account identifier from a URL or href,
// taking the path segment after the known profile prefixes. Legacy
// /usuario/ ids must be purely numeric; /pt/user/ ids are opaque.
func AccountIDFromURL(rawURL string) AccountID {
	if id := segmentAfter(rawURL, skoob.UserPathPrefix); id != "" {
		return AccountID(id)
	}
	if id := segmentAfter(rawURL, skoob.LegacyUserPathPrefix); isDigits(id) {
		return AccountID(id)
	}
	return ""
}

// AccountIDFromHTML inspects rendered page markup for profile links.
// Links pointing straight at the user's shelf are preferred; any other
// profile link is a fallback.
func AccountIDFromHTML(html string) AccountID {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var found AccountID
	for _, selector := range []string{skoob.ShelfLinkSelector, skoob.AuthMarkerSelector} {
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, ok := sel.Attr("href")
			if !ok || href == "" {
				return true
			}
			if id := AccountIDFromURL(href); id != "" {
				found = id
				return false
			}
			return true
		})
		if found != "" {
			break
		}
	}
	return found
}

// segmentAfter returns the path segment that follows prefix in rawURL,
// stopping at the next separator.
func segmentAfter(rawURL, prefix string) string {
	_, rest, ok := strings.Cut(rawURL, prefix)
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
