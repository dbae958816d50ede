// Package bookinfo enriches harvested items with fields the bookshelf
// API omits, by scraping each book's public page. Skoob renders the
// edition block as one concatenated text run ("Editora Salamandra201340
// páginas"), so extraction works on the page's visible text with
// position-aware patterns rather than on DOM structure.
package bookinfo

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/skoobtools/estante/internal/logger"
	"github.com/skoobtools/estante/internal/skoob"
)

// Details holds the fields scraped from one book page. Values stay as
// written on the page; empty means not found.
type Details struct {
	ISBN          string
	Publisher     string
	YearPublished string
	Pages         string
	AverageRating string
	Binding       string
}

var (
	isbnRe      = regexp.MustCompile(`(?i)ISBN[^:]*:?\s*([0-9-]+)`)
	publisherRe = regexp.MustCompile(`(?i)Editora\s+([A-Za-z][A-Za-z\s]+?)\d{4}`)
	yearRe      = regexp.MustCompile(`(?i)Editora[^\d]*(\d{4})\d+\s*páginas`)
	yearAltRe   = regexp.MustCompile(`(?i)(\d{4})\d+\s*páginas`)
	pagesRe     = regexp.MustCompile(`(?i)(\d{4})(\d{1,4})\s*páginas`)
	pagesAltRe  = regexp.MustCompile(`(?i)(\d{1,4})\s*páginas`)
	ratingRe    = regexp.MustCompile(`(?i)Avaliações\s+(\d+\.?\d*)\s*/\s*\d+`)
	ratingAltRe = regexp.MustCompile(`(\d+\.\d+)\s*/\s*\d{2,}`)
	bindingRe   = regexp.MustCompile(`(?i)(Capa\s+(?:dura|mole|flexível)|Hardcover|Paperback)`)
)

// parseDetails extracts edition details from a page's visible text.
// Pure; every field is independently optional.
func parseDetails(pageText string) Details {
	var d Details

	if m := isbnRe.FindStringSubmatch(pageText); m != nil {
		d.ISBN = strings.TrimSpace(m[1])
	}
	if m := publisherRe.FindStringSubmatch(pageText); m != nil {
		d.Publisher = strings.TrimSpace(m[1])
	}
	if m := yearRe.FindStringSubmatch(pageText); m != nil {
		d.YearPublished = m[1]
	} else if m := yearAltRe.FindStringSubmatch(pageText); m != nil {
		d.YearPublished = m[1]
	}
	if m := pagesRe.FindStringSubmatch(pageText); m != nil {
		d.Pages = m[2]
	} else if m := pagesAltRe.FindStringSubmatch(pageText); m != nil {
		// the loose pattern can catch year-page digit blobs, cap it
		if n, err := strconv.Atoi(m[1]); err == nil && n < 10000 {
			d.Pages = m[1]
		}
	}
	if m := ratingRe.FindStringSubmatch(pageText); m != nil {
		d.AverageRating = m[1]
	} else if m := ratingAltRe.FindStringSubmatch(pageText); m != nil {
		// a bare "x.y / nn" also matches dates and fractions, accept
		// only plausible 5-point ratings
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v <= 5.0 {
			d.AverageRating = m[1]
		}
	}
	if m := bindingRe.FindStringSubmatch(pageText); m != nil {
		d.Binding = strings.TrimSpace(m[1])
	}

	return d
}

// Options configures the batch scraper.
type Options struct {
	Workers int           // concurrent page fetches (default 15)
	Timeout time.Duration // per-request bound (default 10s)
}

// DefaultOptions returns the stock scraper configuration.
func DefaultOptions() Options {
	return Options{
		Workers: 15,
		Timeout: 10 * time.Second,
	}
}

// Scraper fetches book pages concurrently and parses their details.
type Scraper struct {
	opts Options
}

// NewScraper builds a scraper. Zero option fields take defaults.
func NewScraper(opts Options) *Scraper {
	defaults := DefaultOptions()
	if opts.Workers == 0 {
		opts.Workers = defaults.Workers
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaults.Timeout
	}
	return &Scraper{opts: opts}
}

// request context key carrying the caller's URL, so results are keyed
// by exactly the string that was passed in.
const urlKey = "bookinfo_url"

// FetchBatch scrapes details for every URL and returns them keyed by
// URL. Individual failures are logged and yield an empty Details; the
// batch itself never fails.
func (s *Scraper) FetchBatch(ctx context.Context, urls []string) map[string]Details {
	results := make(map[string]Details, len(urls))
	if len(urls) == 0 {
		return results
	}

	var mu sync.Mutex

	c := colly.NewCollector(
		colly.UserAgent(skoob.UserAgent),
		colly.Async(true),
	)
	c.SetRequestTimeout(s.opts.Timeout)
	if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: s.opts.Workers}); err != nil {
		logger.Warn("could not apply scrape parallelism limit", "error", err)
	}

	c.OnResponse(func(r *colly.Response) {
		key := r.Ctx.Get(urlKey)
		if key == "" {
			key = r.Request.URL.String()
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			logger.Warn("could not parse book page", "url", key, "error", err)
			mu.Lock()
			results[key] = Details{}
			mu.Unlock()
			return
		}
		details := parseDetails(doc.Text())
		mu.Lock()
		results[key] = details
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		key := r.Request.Ctx.Get(urlKey)
		if key == "" {
			key = r.Request.URL.String()
		}
		logger.Warn("could not fetch book page", "url", key, "error", err)
		mu.Lock()
		results[key] = Details{}
		mu.Unlock()
	})

	logger.Info("fetching book details", "books", len(urls), "workers", s.opts.Workers)
	for _, u := range urls {
		if ctx.Err() != nil {
			mu.Lock()
			done := len(results)
			mu.Unlock()
			logger.Warn("detail fetch cancelled", "remaining", len(urls)-done)
			break
		}
		rctx := colly.NewContext()
		rctx.Put(urlKey, u)
		if err := c.Request(http.MethodGet, u, nil, rctx, nil); err != nil {
			logger.Warn("could not request book page", "url", u, "error", err)
			mu.Lock()
			results[u] = Details{}
			mu.Unlock()
		}
	}
	c.Wait()

	logger.Info("book details fetched", "books", len(results))
	return results
}
