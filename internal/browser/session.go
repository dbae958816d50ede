// Package browser drives a Chrome session through chromedp. The session
// is deliberately headful by default: login on skoob.com.br is completed
// by a human in the opened window, and the rest of the program only
// observes what that session does.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/skoobtools/estante/internal/logger"
)

// Readiness selects how Navigate decides a navigation has completed.
type Readiness int

const (
	// ReadyDocument waits until the document body is ready.
	ReadyDocument Readiness = iota
	// ReadyNavigation returns once the navigation itself finishes,
	// without waiting for content. Used as the looser retry criterion.
	ReadyNavigation
)

// Namespace identifies a browser key/value store.
type Namespace string

const (
	LocalStorage   Namespace = "localStorage"
	SessionStorage Namespace = "sessionStorage"
)

// Request carries the metadata of one outbound browser request.
type Request struct {
	URL     string
	headers map[string]string
}

// Header returns a request header by name, case-insensitively.
func (r Request) Header(name string) string {
	return r.headers[strings.ToLower(name)]
}

// NewRequest builds a Request from a URL and raw header map. Header
// names are normalized to lower case.
func NewRequest(url string, headers map[string]string) Request {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[strings.ToLower(k)] = v
	}
	return Request{URL: url, headers: h}
}

// Session is the browser capability set the acquisition flow needs. A
// fake implementation stands in for Chrome in tests.
type Session interface {
	// Navigate loads url and waits according to the readiness criterion,
	// bounded by timeout.
	Navigate(url string, r Readiness, timeout time.Duration) error
	// CurrentURL returns the tab's current location.
	CurrentURL() (string, error)
	// HTML returns the rendered document markup.
	HTML() (string, error)
	// StorageItem reads one key from a storage namespace. A missing key
	// yields an empty string, not an error.
	StorageItem(ns Namespace, key string) (string, error)
	// StorageKeys enumerates the keys of a storage namespace.
	StorageKeys(ns Namespace) ([]string, error)
	// ListenRequests registers fn for every outbound request until the
	// returned detach function is called.
	ListenRequests(fn func(Request)) (detach func())
	// WaitSelector blocks until selector matches a visible element or
	// the timeout elapses.
	WaitSelector(selector string, timeout time.Duration) error
	// Close releases the tab and the browser process.
	Close() error
}

// Config controls how the Chrome session is launched.
type Config struct {
	// Headless hides the browser window. Interactive login needs a
	// visible window, so this is off unless a caller knows better.
	Headless bool
	// ChromePath overrides binary discovery.
	ChromePath string
}

// ChromeSession is the chromedp-backed Session implementation. One
// session owns one browser process with one tab; the tab survives
// across calls so login state and storage persist.
type ChromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewChromeSession launches Chrome and opens the tab. Network events
// are enabled immediately so request listeners never miss traffic.
func NewChromeSession(cfg Config) (*ChromeSession, error) {
	path := cfg.ChromePath
	if path == "" {
		path = FindChromePath()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1280, 900),
	)
	if path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	logger.Debug("launching browser", "headless", cfg.Headless, "chrome_path", path)

	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &ChromeSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

// Navigate loads url under the given readiness criterion.
func (s *ChromeSession) Navigate(url string, r Readiness, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	if r == ReadyDocument {
		actions = append(actions, chromedp.WaitReady("body", chromedp.ByQuery))
	}

	logger.Debug("navigating", "url", url, "readiness", r)
	if err := chromedp.Run(ctx, actions...); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// CurrentURL returns the tab's location.
func (s *ChromeSession) CurrentURL() (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	var u string
	if err := chromedp.Run(ctx, chromedp.Location(&u)); err != nil {
		return "", fmt.Errorf("failed to read current URL: %w", err)
	}
	return u, nil
}

// HTML returns the rendered document.
func (s *ChromeSession) HTML() (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, 15*time.Second)
	defer cancel()

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

// StorageItem reads one storage key via script evaluation.
func (s *ChromeSession) StorageItem(ns Namespace, key string) (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	var value string
	script := fmt.Sprintf("window[%q].getItem(%q) || ''", ns, key)
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &value)); err != nil {
		return "", fmt.Errorf("failed to read %s[%s]: %w", ns, key, err)
	}
	return value, nil
}

// StorageKeys enumerates the keys of a storage namespace.
func (s *ChromeSession) StorageKeys(ns Namespace) ([]string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	var keys []string
	script := fmt.Sprintf("Object.keys(window[%q])", ns)
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &keys)); err != nil {
		return nil, fmt.Errorf("failed to enumerate %s keys: %w", ns, err)
	}
	return keys, nil
}

// ListenRequests delivers outbound request metadata to fn. The handler
// runs on the chromedp event goroutine; detaching cancels the listener
// context, after which no further calls are made.
func (s *ChromeSession) ListenRequests(fn func(Request)) func() {
	listenCtx, cancel := context.WithCancel(s.ctx)
	chromedp.ListenTarget(listenCtx, func(ev any) {
		e, ok := ev.(*network.EventRequestWillBeSent)
		if !ok || e.Request == nil {
			return
		}
		fn(NewRequest(e.Request.URL, flattenHeaders(e.Request.Headers)))
	})
	return cancel
}

func flattenHeaders(h network.Headers) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// WaitSelector blocks until selector matches a visible element.
func (s *ChromeSession) WaitSelector(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("selector %q not found: %w", selector, err)
	}
	return nil
}

// Close shuts the tab and the browser process down.
func (s *ChromeSession) Close() error {
	logger.Debug("closing browser session")
	if s.cancelTab != nil {
		s.cancelTab()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
	return nil
}
