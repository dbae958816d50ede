package auth

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skoobtools/estante/internal/browser"
)

// fakeSession is an in-memory browser.Session so the acquisition flow
// can be exercised without Chrome.
type fakeSession struct {
	mu sync.Mutex

	html       string
	currentURL string

	local   map[string]string
	session map[string]string

	// navErr scripts navigation failures.
	navErr func(url string, r browser.Readiness) error
	// onListen runs when a request listener attaches; tests use it to
	// emit requests the moment an observer subscribes. attach counts
	// subscriptions, starting at 1.
	onListen func(attach int, emit func(browser.Request))
	// storageReadErr scripts per-key read failures in any namespace.
	storageReadErr map[string]error

	markerErr error

	navigations []string
	attaches    int
	detaches    int
	closes      int
}

var _ browser.Session = (*fakeSession)(nil)

func newFakeSession() *fakeSession {
	return &fakeSession{
		local:          map[string]string{},
		session:        map[string]string{},
		storageReadErr: map[string]error{},
	}
}

func (f *fakeSession) Navigate(url string, r browser.Readiness, _ time.Duration) error {
	f.mu.Lock()
	f.navigations = append(f.navigations, url)
	f.mu.Unlock()
	if f.navErr != nil {
		return f.navErr(url, r)
	}
	return nil
}

func (f *fakeSession) CurrentURL() (string, error) {
	return f.currentURL, nil
}

func (f *fakeSession) HTML() (string, error) {
	return f.html, nil
}

func (f *fakeSession) storageFor(ns browser.Namespace) map[string]string {
	if ns == browser.SessionStorage {
		return f.session
	}
	return f.local
}

func (f *fakeSession) StorageItem(ns browser.Namespace, key string) (string, error) {
	if err, ok := f.storageReadErr[key]; ok {
		return "", err
	}
	return f.storageFor(ns)[key], nil
}

func (f *fakeSession) StorageKeys(ns browser.Namespace) ([]string, error) {
	m := f.storageFor(ns)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeSession) ListenRequests(fn func(browser.Request)) func() {
	f.mu.Lock()
	f.attaches++
	attach := f.attaches
	f.mu.Unlock()

	if f.onListen != nil {
		f.onListen(attach, fn)
	}
	return func() {
		f.mu.Lock()
		f.detaches++
		f.mu.Unlock()
	}
}

func (f *fakeSession) WaitSelector(string, time.Duration) error {
	return f.markerErr
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	return nil
}

func (f *fakeSession) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *fakeSession) detachCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detaches
}

func (f *fakeSession) navigatedTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.navigations...)
}

// testToken builds a structurally valid credential carrying tag so
// tests can tell tokens from different channels apart.
func testToken(tag string) string {
	return "eyJ" + tag + strings.Repeat("a", 40) + ".payload.signature"
}

// apiRequest shapes an outbound request to the bookshelf API. The mixed
// header casing doubles as a case-insensitivity check.
func apiRequest(credential string) browser.Request {
	return browser.NewRequest(
		"https://prd-api.skoob.com.br/api/v1/bookshelf?page=1",
		map[string]string{"Authorization": credential},
	)
}
