// Package loginpage drives the login form of the accounting frontend.
//
// A Page only holds locators over a playwright.Page owned by the caller; it
// never closes anything. Input is typed with human-like pacing because the
// target scores the interaction pattern before accepting a submission.
package loginpage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/login-e2e/internal/config"
	"github.com/kuitang/login-e2e/internal/errs"
	"github.com/kuitang/login-e2e/internal/logutil"
	"github.com/kuitang/login-e2e/internal/obs"
	"github.com/kuitang/login-e2e/internal/pacing"
)

// DefaultLoginURL is the hosted frontend's login page.
const DefaultLoginURL = config.DefaultLoginURL

// DefaultSuccessURL is where a successful login lands on the hosted target.
var DefaultSuccessURL = config.SuccessURLFor(DefaultLoginURL)

// Selectors for the form elements.
const (
	EmailSelector    = "input[name='email']"
	PasswordSelector = "input[name='password']"
	SubmitSelector   = "button[type='submit']"
	ToggleSelector   = "button[aria-label='Show password'], button[aria-label='Hide password']"
	// The frontend keeps an always-mounted, empty role=alert route announcer,
	// so only visible matches count.
	ErrorSelector = "[role='alert']:visible, .chakra-form__error-message:visible"
)

// Targets are the two URLs the page object compares against.
type Targets struct {
	LoginURL   string
	SuccessURL string
}

// DefaultTargets points at the hosted frontend.
func DefaultTargets() Targets {
	return Targets{LoginURL: DefaultLoginURL, SuccessURL: DefaultSuccessURL}
}

// Option configures a Page.
type Option func(*Page)

// WithTargets overrides the login and success URLs.
func WithTargets(targets Targets) Option {
	return func(p *Page) {
		if targets.LoginURL != "" {
			p.targets.LoginURL = targets.LoginURL
		}
		if targets.SuccessURL != "" {
			p.targets.SuccessURL = targets.SuccessURL
		} else if targets.LoginURL != "" {
			p.targets.SuccessURL = config.SuccessURLFor(targets.LoginURL)
		}
	}
}

// WithTiming overrides the typing and wait timings.
func WithTiming(timing pacing.Timing) Option {
	return func(p *Page) { p.timing = timing }
}

// WithThrottle shares a submit throttle across pages.
func WithThrottle(throttle *pacing.Throttle) Option {
	return func(p *Page) { p.throttle = throttle }
}

// WithLogger sets the logger, usually the test page's correlated logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Page) {
		if log != nil {
			p.log = log
		}
	}
}

// Page is the login form of one browser page.
type Page struct {
	page     playwright.Page
	targets  Targets
	timing   pacing.Timing
	throttle *pacing.Throttle
	log      *slog.Logger

	usernameInput  playwright.Locator
	passwordInput  playwright.Locator
	loginButton    playwright.Locator
	passwordToggle playwright.Locator
	errorMessage   playwright.Locator
}

// New caches the form locators on page.
func New(page playwright.Page, opts ...Option) *Page {
	p := &Page{
		page:    page,
		targets: DefaultTargets(),
		timing:  pacing.Default,
		log:     obs.Pkg("loginpage"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.usernameInput = page.Locator(EmailSelector)
	p.passwordInput = page.Locator(PasswordSelector)
	p.loginButton = page.Locator(SubmitSelector)
	p.passwordToggle = page.Locator(ToggleSelector)
	p.errorMessage = page.Locator(ErrorSelector).First()
	return p
}

// Targets returns the URLs this page object uses.
func (p *Page) Targets() Targets {
	return p.targets
}

// LoginURL is the URL Navigate loads.
func (p *Page) LoginURL() string {
	return p.targets.LoginURL
}

// SuccessURL is the URL a successful login lands on.
func (p *Page) SuccessURL() string {
	return p.targets.SuccessURL
}

// Navigate loads the login page and waits for DOMContentLoaded.
func (p *Page) Navigate() error {
	_, err := p.page.Goto(p.targets.LoginURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return errs.FromBrowser("navigate to login page", err)
	}
	return nil
}

// Login types username and password with per-character delay, pausing
// between fields and before the click, then submits. It does not wait for
// navigation; callers check the outcome.
func (p *Page) Login(ctx context.Context, username, password string) error {
	log := p.log.With(
		"email", logutil.MaskEmail(username),
		"password", logutil.RedactValue("password", password),
	)

	if err := p.throttle.Wait(ctx); err != nil {
		return err
	}

	typing := playwright.LocatorPressSequentiallyOptions{Delay: playwright.Float(pacing.Millis(p.timing.KeyDelay))}
	if err := p.usernameInput.PressSequentially(username, typing); err != nil {
		return errs.FromBrowser("type email", err)
	}
	if err := pacing.Pause(ctx, p.timing.FieldPause); err != nil {
		return err
	}
	if err := p.passwordInput.PressSequentially(password, typing); err != nil {
		return errs.FromBrowser("type password", err)
	}

	if err := p.loginButton.WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	}); err != nil {
		return errs.FromBrowser("wait for submit button", err)
	}
	if err := pacing.Pause(ctx, p.timing.PreSubmitPause); err != nil {
		return err
	}
	if err := p.loginButton.Click(); err != nil {
		return errs.FromBrowser("click submit", err)
	}

	log.Info("login submitted")
	return nil
}

// ErrorState says what an error lookup observed.
type ErrorState int

const (
	// NoError means no error element became visible within the wait.
	NoError ErrorState = iota
	// ErrorFound means an error element was visible and its text was read.
	ErrorFound
	// LookupFailed means the lookup itself broke, for example because the
	// page closed or the selector was rejected.
	LookupFailed
)

func (s ErrorState) String() string {
	switch s {
	case NoError:
		return "no_error"
	case ErrorFound:
		return "error_found"
	case LookupFailed:
		return "lookup_failed"
	default:
		return fmt.Sprintf("ErrorState(%d)", int(s))
	}
}

// ErrorResult is the outcome of ErrorMessage.
type ErrorResult struct {
	State ErrorState
	Text  string
	Err   error
}

// Present reports whether an error message was shown.
func (r ErrorResult) Present() bool {
	return r.State == ErrorFound
}

// ErrorMessage waits up to the configured error wait for the first visible
// error element and returns its text.
func (p *Page) ErrorMessage() ErrorResult {
	err := p.errorMessage.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(pacing.Millis(p.timing.ErrorWait)),
	})
	if err != nil {
		if errs.IsTimeout(err) {
			return ErrorResult{State: NoError}
		}
		p.log.Warn("error lookup failed", "error", err)
		return ErrorResult{State: LookupFailed, Err: errs.FromBrowser("wait for error message", err)}
	}

	text, err := p.errorMessage.InnerText()
	if err != nil {
		p.log.Warn("error text unreadable", "error", err)
		return ErrorResult{State: LookupFailed, Err: errs.FromBrowser("read error message", err)}
	}
	text = strings.TrimSpace(text)
	p.log.Debug("error message shown", "text", text)
	return ErrorResult{State: ErrorFound, Text: text}
}

// GetErrorMessage returns the error text and whether one was shown. A failed
// lookup also reports false; use ErrorMessage to tell the two apart.
func (p *Page) GetErrorMessage() (string, bool) {
	r := p.ErrorMessage()
	return r.Text, r.Present()
}

// TogglePasswordVisibility clicks the show/hide control without checking its
// state.
func (p *Page) TogglePasswordVisibility() error {
	if err := p.passwordToggle.Click(); err != nil {
		return errs.FromBrowser("click password toggle", err)
	}
	return nil
}

// PasswordInputType returns the password input's type attribute, "password"
// when masked and "text" when revealed.
func (p *Page) PasswordInputType() (string, error) {
	typ, err := p.passwordInput.GetAttribute("type")
	if err != nil {
		return "", errs.FromBrowser("read password input type", err)
	}
	return typ, nil
}

// WaitForSuccess waits for the success URL. A zero timeout uses the
// configured success wait.
func (p *Page) WaitForSuccess(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.timing.SuccessWait
	}
	err := p.page.WaitForURL(p.targets.SuccessURL, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(pacing.Millis(timeout)),
	})
	if err != nil {
		return errs.FromBrowser(fmt.Sprintf("wait for %s", p.targets.SuccessURL), err)
	}
	return nil
}

// CurrentURL is the page's URL right now.
func (p *Page) CurrentURL() string {
	return p.page.URL()
}

// IsOnSuccessURL compares the current URL with the success URL exactly.
func (p *Page) IsOnSuccessURL() bool {
	return p.page.URL() == p.targets.SuccessURL
}

// Settle lets the page react to a submission for the configured settle wait.
func (p *Page) Settle(ctx context.Context) error {
	return pacing.Pause(ctx, p.timing.SettleWait)
}
