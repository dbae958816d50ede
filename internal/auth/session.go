package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/skoobtools/estante/internal/browser"
	"github.com/skoobtools/estante/internal/logger"
	"github.com/skoobtools/estante/internal/skoob"
)

// ErrNoCredential is returned when every observation channel came up
// empty, including the manual-navigation retry.
var ErrNoCredential = errors.New("no credential observed on any channel")

// State identifies where the acquisition flow currently is.
type State int

const (
	StateNotStarted State = iota
	StateAwaitingLogin
	StateObservingTraffic
	StateFallbackStorage
	StateAwaitingManualNavigation
	StateAcquired
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateAwaitingLogin:
		return "awaiting_login"
	case StateObservingTraffic:
		return "observing_traffic"
	case StateFallbackStorage:
		return "fallback_storage"
	case StateAwaitingManualNavigation:
		return "awaiting_manual_navigation"
	case StateAcquired:
		return "acquired"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures the acquisition flow. Zero fields take the
// defaults below.
type Options struct {
	LoginURL      string        // login page (default: skoob login)
	Filter        string        // shelf filter for the traffic-trigger page (default "read")
	AccountID     AccountID     // known account identifier, skips discovery
	NavTimeout    time.Duration // per-navigation bound (default 60s)
	ObserveWindow time.Duration // network observation window (default 30s)
	MarkerTimeout time.Duration // authenticated-marker wait (default 5s)
	SettleDelay   time.Duration // post-login redirect settle (default 2s)
	TriggerDelay  time.Duration // wait after trigger navigation (default 5s)
	Prompt        io.Reader     // human continuation input (default stdin)
	PromptOut     io.Writer     // prompt destination (default stderr)
}

// DefaultOptions returns the stock acquisition options.
func DefaultOptions() Options {
	return Options{
		LoginURL:      skoob.LoginURL,
		Filter:        "read",
		NavTimeout:    60 * time.Second,
		ObserveWindow: 30 * time.Second,
		MarkerTimeout: 5 * time.Second,
		SettleDelay:   2 * time.Second,
		TriggerDelay:  5 * time.Second,
		Prompt:        os.Stdin,
		PromptOut:     os.Stderr,
	}
}

// Result is a successful acquisition outcome. AccountID may be empty:
// the harvest engine recovers it from the first page response.
type Result struct {
	Credential Credential
	AccountID  AccountID
}

// Acquirer runs the token acquisition state machine over one browser
// session. The flow is single threaded and blocking: it suspends on
// human input and on bounded observation windows.
type Acquirer struct {
	session browser.Session
	opts    Options
	state   State
	prompt  *bufio.Reader
	sleep   func(time.Duration)
}

// NewAcquirer wires an acquirer to a browser session. The acquirer
// takes ownership of the session: Acquire closes it on every exit path.
func NewAcquirer(session browser.Session, opts Options) *Acquirer {
	defaults := DefaultOptions()
	if opts.LoginURL == "" {
		opts.LoginURL = defaults.LoginURL
	}
	if opts.Filter == "" {
		opts.Filter = defaults.Filter
	}
	if opts.NavTimeout == 0 {
		opts.NavTimeout = defaults.NavTimeout
	}
	if opts.ObserveWindow == 0 {
		opts.ObserveWindow = defaults.ObserveWindow
	}
	if opts.MarkerTimeout == 0 {
		opts.MarkerTimeout = defaults.MarkerTimeout
	}
	if opts.SettleDelay == 0 {
		opts.SettleDelay = defaults.SettleDelay
	}
	if opts.TriggerDelay == 0 {
		opts.TriggerDelay = defaults.TriggerDelay
	}
	if opts.Prompt == nil {
		opts.Prompt = defaults.Prompt
	}
	if opts.PromptOut == nil {
		opts.PromptOut = defaults.PromptOut
	}

	return &Acquirer{
		session: session,
		opts:    opts,
		state:   StateNotStarted,
		prompt:  bufio.NewReader(opts.Prompt),
		sleep:   time.Sleep,
	}
}

// State returns the flow's current state.
func (a *Acquirer) State() State {
	return a.state
}

// Acquire drives the browser through login and recovers a credential.
// The browser session is closed before returning, on success, failure
// and error alike.
func (a *Acquirer) Acquire(ctx context.Context) (Result, error) {
	defer func() {
		if err := a.session.Close(); err != nil {
			logger.Warn("failed to close browser session", "error", err)
		}
	}()

	if err := a.openLoginPage(); err != nil {
		a.state = StateFailed
		return Result{}, err
	}

	if err := a.awaitLogin(); err != nil {
		a.state = StateFailed
		return Result{}, err
	}

	// The listener must exist before the trigger navigations below,
	// otherwise the request being waited for can fire unobserved.
	a.state = StateObservingTraffic
	observer := Observe(a.session)

	accountID := a.opts.AccountID
	if accountID == "" {
		accountID = a.resolveAccountID()
	}
	accountID = a.triggerAPITraffic(accountID)

	cred, ok := observer.Wait(ctx, a.opts.ObserveWindow)
	if !ok {
		a.state = StateFallbackStorage
		logger.Info("no credential on the wire, scanning browser storage")
		cred, ok = ScanStorage(a.session)
	}

	if !ok {
		a.state = StateAwaitingManualNavigation
		cred, ok = a.manualNavigationRetry(ctx)
	}

	if !ok {
		a.state = StateFailed
		return Result{}, fmt.Errorf("token acquisition failed: %w", ErrNoCredential)
	}

	if accountID == "" {
		accountID = a.resolveAccountID()
	}
	if accountID == "" {
		logger.Warn("credential acquired but account identifier unresolved, the first shelf page will supply it")
	}

	a.state = StateAcquired
	logger.Info("credential acquired", "account_id", string(accountID))
	return Result{Credential: cred, AccountID: accountID}, nil
}

// openLoginPage navigates to the login surface. A strict readiness
// timeout is retried once with the looser criterion before the failure
// is treated as fatal.
func (a *Acquirer) openLoginPage() error {
	a.state = StateAwaitingLogin
	logger.Info("opening login page", "url", a.opts.LoginURL)

	err := a.session.Navigate(a.opts.LoginURL, browser.ReadyDocument, a.opts.NavTimeout)
	if err == nil {
		return nil
	}
	logger.Warn("login page load did not complete, retrying with loose readiness", "error", err)

	if err := a.session.Navigate(a.opts.LoginURL, browser.ReadyNavigation, a.opts.NavTimeout); err != nil {
		return fmt.Errorf("could not open login page: %w", err)
	}
	return nil
}

// awaitLogin blocks on the human continuation signal, lets redirects
// settle, and probes for the authenticated marker. A missing marker is
// logged and ignored: login is assumed to have happened.
func (a *Acquirer) awaitLogin() error {
	logger.Info("waiting for manual login in the browser window")
	if err := a.waitForContinue("Log in to Skoob in the opened browser window, then press Enter to continue..."); err != nil {
		return err
	}

	a.sleep(a.opts.SettleDelay)

	if err := a.session.WaitSelector(skoob.AuthMarkerSelector, a.opts.MarkerTimeout); err != nil {
		logger.Warn("could not confirm authentication, proceeding anyway", "error", err)
	} else {
		logger.Info("authentication detected")
	}
	return nil
}

// triggerAPITraffic provokes the frontend into calling the bookshelf
// API: home page first, then the user's shelf page once an account id
// is known. Navigation errors here are warnings, the goal is only to
// generate network activity.
func (a *Acquirer) triggerAPITraffic(accountID AccountID) AccountID {
	if err := a.session.Navigate(skoob.BaseURL+"/", browser.ReadyDocument, a.opts.NavTimeout); err != nil {
		logger.Warn("home page navigation had issues, continuing", "error", err)
	}
	a.sleep(a.opts.SettleDelay)

	if accountID == "" {
		accountID = a.resolveAccountID()
	}

	if accountID != "" {
		shelfURL := skoob.BookshelfPageURL(string(accountID), a.opts.Filter)
		logger.Info("navigating to shelf to trigger API requests", "url", shelfURL)
		if err := a.session.Navigate(shelfURL, browser.ReadyDocument, a.opts.NavTimeout); err != nil {
			logger.Warn("shelf navigation had issues, continuing", "error", err)
		}
	} else {
		logger.Warn("account identifier still unknown, waiting on organic API traffic")
	}
	a.sleep(a.opts.TriggerDelay)

	return accountID
}

// manualNavigationRetry asks the human for one more navigation and
// re-runs both channels, network first.
func (a *Acquirer) manualNavigationRetry(ctx context.Context) (Credential, bool) {
	logger.Info("no credential found yet, one more attempt after manual navigation")
	if err := a.waitForContinue("Navigate to a page that loads your books (e.g. your shelf), then press Enter..."); err != nil {
		logger.Warn("continuation input unavailable", "error", err)
		return "", false
	}

	observer := Observe(a.session)
	if cred, ok := observer.Wait(ctx, a.opts.ObserveWindow); ok {
		return cred, true
	}
	return ScanStorage(a.session)
}

// resolveAccountID is best effort: page links first, current URL next.
func (a *Acquirer) resolveAccountID() AccountID {
	if html, err := a.session.HTML(); err == nil {
		if id := AccountIDFromHTML(html); id != "" {
			logger.Info("account identifier resolved from page links", "account_id", string(id))
			return id
		}
	} else {
		logger.Debug("could not read page markup", "error", err)
	}

	if current, err := a.session.CurrentURL(); err == nil {
		if id := AccountIDFromURL(current); id != "" {
			logger.Info("account identifier resolved from current URL", "account_id", string(id))
			return id
		}
	} else {
		logger.Debug("could not read current URL", "error", err)
	}

	return ""
}

// waitForContinue prints msg and blocks until the human sends a line.
func (a *Acquirer) waitForContinue(msg string) error {
	fmt.Fprintln(a.opts.PromptOut, msg)
	line, err := a.prompt.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("continuation input unavailable: %w", err)
	}
	return nil
}
