// Package fakeapp is a local stand-in for the hosted login frontend. It keeps
// the markup contract the page object relies on (field names, submit button,
// labelled password toggle, alert-role error region, dashboard redirect) so
// the suite can run without network access or real credentials.
package fakeapp

import (
	"html"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/kuitang/login-e2e/internal/logutil"
	"github.com/kuitang/login-e2e/internal/obs"
	"github.com/kuitang/login-e2e/internal/ratelimit"
)

const (
	LoginPath     = "/"
	SubmitPath    = "/login"
	DashboardPath = "/founder/dashboard"
	LogoutPath    = "/logout"

	SessionCookieName = "fakeapp_session"
)

// Account is a seeded login.
type Account struct {
	Email    string
	Password string
}

// Options configures the stand-in app.
type Options struct {
	Accounts []Account
	// ResponseDelay is added before every login response to mimic a slow backend.
	ResponseDelay time.Duration
	// WelcomeMarkdown is rendered on the dashboard.
	WelcomeMarkdown string
	// LoginLimit bounds submissions per email; nil uses ratelimit.DefaultConfig.
	LoginLimit *ratelimit.Config
}

// App serves the login form and dashboard.
type App struct {
	opts     Options
	accounts map[string]string // normalized email -> password

	mu       sync.Mutex
	sessions map[string]string // session id -> normalized email
	attempts int

	limiter *ratelimit.RateLimiter
	strict  *bluemonday.Policy
	ugc     *bluemonday.Policy
	pages   *template.Template
	welcome template.HTML
	log     *slog.Logger
}

// New creates the app with the given seeded accounts.
func New(opts Options) *App {
	a := &App{
		opts:     opts,
		accounts: make(map[string]string, len(opts.Accounts)),
		sessions: make(map[string]string),
		strict:   bluemonday.StrictPolicy(),
		ugc:      bluemonday.UGCPolicy(),
		pages:    template.Must(template.New("pages").Parse(pageTemplates)),
		log:      obs.Pkg("fakeapp"),
	}
	limit := ratelimit.DefaultConfig
	if opts.LoginLimit != nil {
		limit = *opts.LoginLimit
	}
	a.limiter = ratelimit.NewRateLimiter(limit)

	for _, acct := range opts.Accounts {
		a.accounts[normalizeEmail(acct.Email)] = acct.Password
	}
	welcome := opts.WelcomeMarkdown
	if welcome == "" {
		welcome = defaultWelcome
	}
	a.welcome = a.renderMarkdown(welcome)
	return a
}

const defaultWelcome = `# Founder dashboard

Signed in. This page is served by the **local stand-in** of the accounting frontend.

- Invoices
- Expenses
- Reports
`

// RegisterRoutes registers all routes on mux.
func (a *App) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+LoginPath+"{$}", a.handleLoginPage)
	limited := ratelimit.Middleware(a.limiter, a.attemptKey, a.handleLimited)
	mux.Handle("POST "+SubmitPath, limited(http.HandlerFunc(a.handleLogin)))
	mux.HandleFunc("GET "+DashboardPath, a.handleDashboard)
	mux.HandleFunc("POST "+LogoutPath, a.handleLogout)
}

// Handler returns a mux with every route registered.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	a.RegisterRoutes(mux)
	return mux
}

// Close stops the login limiter's background cleanup.
func (a *App) Close() {
	a.limiter.Stop()
}

// Attempts returns how many login submissions the app has received.
func (a *App) Attempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempts
}

type loginView struct {
	Email      string
	Error      string
	EmailError bool
	SubmitPath string
}

type dashboardView struct {
	Email   string
	Welcome template.HTML
}

func (a *App) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "login", loginView{SubmitPath: SubmitPath})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.attempts++
	a.mu.Unlock()

	if a.opts.ResponseDelay > 0 {
		select {
		case <-time.After(a.opts.ResponseDelay):
		case <-r.Context().Done():
			return
		}
	}

	if err := r.ParseForm(); err != nil {
		a.render(w, http.StatusBadRequest, "login", loginView{SubmitPath: SubmitPath, Error: "Malformed request"})
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	log := a.log.With("email", logutil.MaskEmail(email))

	if msg := ValidateEmail(email); msg != "" {
		log.Info("login rejected", "reason", msg)
		a.render(w, http.StatusUnprocessableEntity, "login", loginView{
			SubmitPath: SubmitPath,
			Email:      a.stripMarkup(email),
			Error:      msg,
			EmailError: true,
		})
		return
	}
	if password == "" {
		log.Info("login rejected", "reason", MsgPasswordRequired)
		a.render(w, http.StatusUnprocessableEntity, "login", loginView{
			SubmitPath: SubmitPath,
			Email:      email,
			Error:      MsgPasswordRequired,
		})
		return
	}

	key := normalizeEmail(email)
	want, ok := a.accounts[key]
	if !ok || want != password {
		log.Info("login rejected", "reason", MsgInvalidCredentials)
		a.render(w, http.StatusUnauthorized, "login", loginView{
			SubmitPath: SubmitPath,
			Email:      email,
			Error:      MsgInvalidCredentials,
		})
		return
	}

	sessionID := uuid.NewString()
	a.mu.Lock()
	a.sessions[sessionID] = key
	a.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	log.Info("login accepted")
	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}

// attemptKey limits per account; submissions without an email are not keyed.
func (a *App) attemptKey(r *http.Request) string {
	return normalizeEmail(r.PostFormValue("email"))
}

func (a *App) handleLimited(w http.ResponseWriter, r *http.Request) {
	a.log.Warn("login rate limited", "email", logutil.MaskEmail(r.PostFormValue("email")))
	a.render(w, http.StatusTooManyRequests, "login", loginView{
		SubmitPath: SubmitPath,
		Error:      MsgTooManyAttempts,
	})
}

func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	email, ok := a.sessionEmail(r)
	if !ok {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}
	a.render(w, http.StatusOK, "dashboard", dashboardView{Email: email, Welcome: a.welcome})
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		a.mu.Lock()
		delete(a.sessions, cookie.Value)
		a.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func (a *App) sessionEmail(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	email, ok := a.sessions[cookie.Value]
	return email, ok
}

func (a *App) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := a.pages.ExecuteTemplate(w, name, data); err != nil {
		a.log.Error("render failed", "template", name, "error", err)
	}
}

// stripMarkup removes every tag from s and returns plain text; the template
// escapes it again on output.
func (a *App) stripMarkup(s string) string {
	return html.UnescapeString(a.strict.Sanitize(s))
}

// renderMarkdown converts markdown to sanitized HTML for the dashboard.
func (a *App) renderMarkdown(s string) template.HTML {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(s))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank})
	htmlContent := markdown.Render(doc, renderer)

	return template.HTML(a.ugc.SanitizeBytes(htmlContent))
}
