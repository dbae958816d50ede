package auth

import (
	"context"
	"time"

	"github.com/skoobtools/estante/internal/browser"
	"github.com/skoobtools/estante/internal/logger"
	"github.com/skoobtools/estante/internal/skoob"
)

// Observer watches outbound browser traffic for a bearer credential on
// requests to the Skoob API hosts. At most one credential is ever
// delivered: the first one that validates wins and later observations
// are dropped, never overwritten.
type Observer struct {
	found  chan Credential
	detach func()
}

// Observe attaches a request listener to the session. Attach before
// triggering any navigation that might call the API, otherwise the very
// request being waited for can slip past unobserved.
func Observe(s browser.Session) *Observer {
	o := &Observer{found: make(chan Credential, 1)}
	o.detach = s.ListenRequests(o.inspect)
	return o
}

// inspect runs on the browser event goroutine for every outbound
// request. The buffered channel plus non-blocking send is the
// first-writer-wins cell; inspect must never block that goroutine.
func (o *Observer) inspect(r browser.Request) {
	if !skoob.IsAPIRequest(r.URL) {
		return
	}
	cred := Credential(r.Header("authorization"))
	if !cred.Valid() {
		return
	}
	select {
	case o.found <- cred:
		logger.Info("observed valid authorization header", "url", r.URL)
	default:
	}
}

// Wait blocks until a credential arrives, the window elapses, or ctx is
// cancelled. The listener is detached on every path. An absent
// credential is an expected outcome that triggers fallback, not an
// error.
func (o *Observer) Wait(ctx context.Context, window time.Duration) (Credential, bool) {
	defer o.Detach()

	timer := time.NewTimer(window)
	defer timer.Stop()

	select {
	case cred := <-o.found:
		return cred, true
	case <-timer.C:
		logger.Debug("observation window elapsed without a credential", "window", window)
		return "", false
	case <-ctx.Done():
		logger.Debug("observation cancelled", "error", ctx.Err())
		return "", false
	}
}

// Detach removes the request listener. Safe to call more than once.
func (o *Observer) Detach() {
	if o.detach != nil {
		o.detach()
		o.detach = nil
	}
}
