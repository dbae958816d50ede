// Package harvest walks the Skoob bookshelf API page by page and
// accumulates every item it returns. The API misbehaves in specific
// ways: the totals advised on the first page may be absent or wrong,
// bodies are sometimes compressed with a mismatched declaration, and
// late pages occasionally fail to decode. The engine recovers from all
// of these locally and never fetches a page twice, except for a single
// delayed retry of the last expected page.
package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/skoobtools/estante/internal/auth"
	"github.com/skoobtools/estante/internal/logger"
	"github.com/skoobtools/estante/internal/skoob"
)

// ErrFirstPage marks a harvest whose first page could not be fetched or
// decoded. Nothing advisory is known without it, so the failure is
// fatal and no partial result is returned.
var ErrFirstPage = errors.New("first bookshelf page failed")

// Options fixes the query configuration for one harvest.
type Options struct {
	Endpoint   string        // bookshelf API endpoint
	Filter     string        // shelf filter (default "read")
	SearchType string        // search mode (default "title")
	PageSize   int           // items requested per page (default 30)
	MaxPages   int           // hard page ceiling (default 100)
	Delay      time.Duration // minimum spacing between page requests, 0 disables
	RetryDelay time.Duration // wait before the single last-page retry (default 2s)
}

// DefaultOptions returns the stock harvest configuration.
func DefaultOptions() Options {
	return Options{
		Endpoint:   skoob.BookshelfEndpoint,
		Filter:     "read",
		SearchType: "title",
		PageSize:   30,
		MaxPages:   100,
		Delay:      500 * time.Millisecond,
		RetryDelay: 2 * time.Second,
	}
}

// Engine fetches bookshelf pages strictly in ascending order from 1.
// Pages are never fetched concurrently: item order must follow page
// order, and the first page's advisory totals gate every later page.
type Engine struct {
	opts  Options
	sleep func(time.Duration)
}

// New builds an engine. Zero option fields take defaults, except Delay,
// whose zero value means unthrottled.
func New(opts Options) *Engine {
	defaults := DefaultOptions()
	if opts.Endpoint == "" {
		opts.Endpoint = defaults.Endpoint
	}
	if opts.Filter == "" {
		opts.Filter = defaults.Filter
	}
	if opts.SearchType == "" {
		opts.SearchType = defaults.SearchType
	}
	if opts.PageSize == 0 {
		opts.PageSize = defaults.PageSize
	}
	if opts.MaxPages == 0 {
		opts.MaxPages = defaults.MaxPages
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = defaults.RetryDelay
	}
	return &Engine{opts: opts, sleep: time.Sleep}
}

// pageEnvelope is the bookshelf response shape. Every field is
// optional; absent totals stay zero and are treated as unknown.
type pageEnvelope struct {
	TotalPages  int            `json:"total_pages"`
	TotalItems  int            `json:"total_items"`
	YearsFilter any            `json:"years_filter"`
	User        map[string]any `json:"user"`
	Items       []Item         `json:"items"`
}

// Harvest retrieves the complete shelf for one filter configuration.
// accountID may be empty; the first page response supplies it then. A
// first-page failure returns a nil result wrapping ErrFirstPage; any
// later failure degrades to a partial result instead.
func (e *Engine) Harvest(ctx context.Context, credential auth.Credential, accountID auth.AccountID) (*Result, error) {
	httpc := newHTTPClient(string(credential), e.opts.Delay)

	res := &Result{}
	var (
		totalPages int // advisory, 0 until page 1 supplies it
		totalItems int
		lastPage   int
	)

	logger.Info("starting bookshelf harvest",
		"account_id", string(accountID),
		"filter", e.opts.Filter,
		"page_size", e.opts.PageSize)

	for page := 1; page <= e.opts.MaxPages; page++ {
		lastPage = page
		logger.Info("fetching bookshelf page", "page", page)

		status, encoding, raw, err := e.fetchPage(ctx, httpc, page, accountID)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("%w: %w", ErrFirstPage, err)
			}
			res.FailedPage, res.PageErr = page, err
			logger.Warn("page request failed, stopping with what was collected",
				"page", page, "items", len(res.Items), "error", err)
			break
		}

		if status != http.StatusOK {
			statusErr := fmt.Errorf("bookshelf page %d returned status %d", page, status)
			logger.Error("bookshelf request rejected",
				"page", page, "status", status, "body", snippet(raw, 200))
			if page == 1 {
				return nil, fmt.Errorf("%w: %w", ErrFirstPage, statusErr)
			}
			res.FailedPage, res.PageErr = page, statusErr
			if totalItems > 0 && len(res.Items) >= totalItems {
				logger.Info("page failed after the advisory total was reached, stopping", "page", page)
			} else {
				logger.Warn("page failed, stopping with what was collected",
					"page", page, "items", len(res.Items))
			}
			break
		}

		text, decErr := decodeText(raw, encoding)
		if decErr == nil && strings.TrimSpace(text) == "" {
			logger.Warn("empty response body", "page", page)
			if totalItems > 0 && len(res.Items) >= totalItems {
				break
			}
			if totalPages > 0 && page > totalPages {
				break
			}
			continue
		}

		var envelope pageEnvelope
		parseErr := decErr
		if parseErr == nil {
			parseErr = json.Unmarshal([]byte(text), &envelope)
		}
		if parseErr != nil {
			// the declared encoding already proved useless, sniff the
			// real one from the raw bytes
			if out, ok := sniffDecompress(raw); ok {
				parseErr = json.Unmarshal(out, &envelope)
			}
		}
		if parseErr != nil {
			if page == 1 {
				return nil, fmt.Errorf("%w: body not decodable: %w", ErrFirstPage, parseErr)
			}
			res.FailedPage, res.PageErr = page, parseErr
			logger.Error("could not decode bookshelf page", "page", page, "error", parseErr)

			if totalPages > 0 && page == totalPages && totalItems > 0 && len(res.Items) < totalItems {
				logger.Warn("last expected page failed short of the advisory total, retrying once",
					"have", len(res.Items), "want", totalItems)
				e.sleep(e.opts.RetryDelay)
				if items, ok := e.retryPage(ctx, httpc, page, accountID); ok {
					res.Items = append(res.Items, items...)
					logger.Info("retry recovered the last page",
						"items", len(items), "total", len(res.Items))
					break
				}
			}
			if totalItems > 0 && len(res.Items) >= totalItems {
				break
			}
			if totalPages > 0 && page > totalPages {
				break
			}
			continue
		}

		if page == 1 {
			totalPages, totalItems = envelope.TotalPages, envelope.TotalItems
			res.YearsFilter = envelope.YearsFilter
			res.User = envelope.User
			if accountID == "" {
				if id := UserAccountID(envelope.User); id != "" {
					accountID = id
					logger.Info("adopted account id from the API response", "account_id", string(id))
				}
			}
			logger.Info("first page metadata", "total_pages", totalPages, "total_items", totalItems)
		}

		if len(envelope.Items) == 0 {
			logger.Info("no items on page", "page", page)
			if totalItems > 0 && len(res.Items) >= totalItems {
				break
			}
			if totalPages > 0 && page >= totalPages {
				break
			}
			logger.Warn("empty page before the advisory total, trying the next one", "page", page)
			continue
		}

		res.Items = append(res.Items, envelope.Items...)
		logger.Info("page harvested", "page", page, "items", len(envelope.Items), "total", len(res.Items))

		if totalItems > 0 && len(res.Items) >= totalItems {
			logger.Info("advisory item total reached", "total", len(res.Items))
			break
		}
		if totalPages > 0 && page >= totalPages {
			logger.Info("advisory page total reached", "pages", page)
			break
		}
		if len(envelope.Items) < e.opts.PageSize {
			logger.Info("short page, assuming the shelf is exhausted",
				"items", len(envelope.Items), "page_size", e.opts.PageSize)
			break
		}
	}

	res.Truncated = res.PageErr != nil && totalItems > 0 && len(res.Items) < totalItems

	res.TotalPages, res.TotalItems = totalPages, totalItems
	if res.TotalPages == 0 {
		res.TotalPages = lastPage
	}
	if res.TotalItems == 0 {
		res.TotalItems = len(res.Items)
	}

	logger.Info("bookshelf harvest finished",
		"items", len(res.Items), "pages", lastPage, "truncated", res.Truncated)
	return res, nil
}

// fetchPage issues one page request with the harvest's fixed query
// configuration and reads the raw body. Parsing is disabled on the
// client, so the body arrives exactly as the server sent it.
func (e *Engine) fetchPage(ctx context.Context, httpc *resty.Client, page int, accountID auth.AccountID) (status int, encoding string, raw []byte, err error) {
	resp, err := httpc.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":           strconv.Itoa(page),
			"limit":          strconv.Itoa(e.opts.PageSize),
			"bookshelf_type": "book",
			"user_id":        string(accountID),
			"filter":         e.opts.Filter,
			"search_type":    e.opts.SearchType,
		}).
		Get(e.opts.Endpoint)
	if err != nil {
		return 0, "", nil, err
	}

	body := resp.RawBody()
	if body != nil {
		defer body.Close()
		raw, err = io.ReadAll(body)
		if err != nil {
			return 0, "", nil, fmt.Errorf("reading page %d body: %w", page, err)
		}
	}
	return resp.StatusCode(), strings.ToLower(resp.Header().Get("Content-Encoding")), raw, nil
}

// retryPage refetches one page and reports its items. Called at most
// once per harvest, for the last expected page when the advisory total
// has not been reached.
func (e *Engine) retryPage(ctx context.Context, httpc *resty.Client, page int, accountID auth.AccountID) ([]Item, bool) {
	status, encoding, raw, err := e.fetchPage(ctx, httpc, page, accountID)
	if err != nil || status != http.StatusOK {
		logger.Error("last page retry failed", "page", page, "status", status, "error", err)
		return nil, false
	}
	text, err := decodeText(raw, encoding)
	if err != nil {
		logger.Error("last page retry not decodable", "page", page, "error", err)
		return nil, false
	}
	var envelope pageEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		logger.Error("last page retry not decodable", "page", page, "error", err)
		return nil, false
	}
	return envelope.Items, len(envelope.Items) > 0
}

// snippet trims b for log output.
func snippet(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
