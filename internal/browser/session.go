// Package browser owns the browser process for a run and hands each test an
// isolated, recorded, stealth-instrumented page.
//
// A Session is launched once per run (usually from TestMain) and passed to
// tests explicitly. Each test calls AcquirePage, which creates a fresh browser
// context with video recording and registers an unconditional teardown that
// captures a screenshot, finalizes the video under the test's name and closes
// the page and context.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/login-e2e/internal/errs"
	"github.com/kuitang/login-e2e/internal/obs"
	"github.com/kuitang/login-e2e/internal/pacing"
)

// AutomationControlledArg hides the Blink AutomationControlled feature that
// sets navigator.webdriver.
const AutomationControlledArg = "--disable-blink-features=AutomationControlled"

// DefaultUploadTimeout bounds a single artifact upload.
const DefaultUploadTimeout = 2 * time.Minute

// Uploader copies finished artifacts somewhere durable. *s3client.Client satisfies it.
type Uploader interface {
	Key(parts ...string) string
	UploadFile(ctx context.Context, key, localPath, contentType string) error
}

// Options configures a Session.
type Options struct {
	Headless bool
	Args     []string // appended after AutomationControlledArg
	SlowMo   time.Duration

	VideoRoot      string // parent of videos/<test_file>
	ScreenshotRoot string // parent of screenshots/<test_file>

	// DefaultTimeout applies to every action on pages of this session; zero
	// keeps Playwright's default.
	DefaultTimeout time.Duration
	Viewport       *playwright.Size
	UserAgent      string
	Locale         string

	// Uploader is optional. Each upload is bounded by UploadTimeout.
	Uploader      Uploader
	UploadTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.VideoRoot == "" {
		o.VideoRoot = "videos"
	}
	if o.ScreenshotRoot == "" {
		o.ScreenshotRoot = "screenshots"
	}
	if o.Viewport == nil {
		o.Viewport = &playwright.Size{Width: 1280, Height: 720}
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Locale == "" {
		o.Locale = "en-US"
	}
	if o.UploadTimeout <= 0 {
		o.UploadTimeout = DefaultUploadTimeout
	}
	return o
}

// LaunchArgs returns the Chromium command line for the given extra args.
func LaunchArgs(extra []string) []string {
	args := []string{AutomationControlledArg}
	for _, a := range extra {
		if a != "" && a != AutomationControlledArg {
			args = append(args, a)
		}
	}
	return args
}

// Session is one browser process shared by every test of a run.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
	log     *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Launch starts the Playwright driver and Chromium. Failures are errs.Unavailable
// so callers can skip rather than fail when no browser is installed.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	log := obs.From(ctx).With("pkg", "browser")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "start playwright driver", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless:          playwright.Bool(opts.Headless),
		Args:              LaunchArgs(opts.Args),
		IgnoreDefaultArgs: []string{"--enable-automation"},
	}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(pacing.Millis(opts.SlowMo))
	}

	b, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, errs.Wrap(errs.Unavailable, "launch chromium", err)
	}

	log.Info("browser session started",
		"headless", opts.Headless,
		"version", b.Version(),
		"args", launch.Args,
	)
	return &Session{pw: pw, browser: b, opts: opts, log: log}, nil
}

// Close closes the browser and stops the driver. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var browserErr, driverErr error
		if s.browser != nil {
			browserErr = s.browser.Close()
		}
		if s.pw != nil {
			driverErr = s.pw.Stop()
		}
		switch {
		case browserErr != nil:
			s.closeErr = fmt.Errorf("close browser: %w", browserErr)
		case driverErr != nil:
			s.closeErr = fmt.Errorf("stop playwright: %w", driverErr)
		}
		if s.log != nil {
			s.log.Info("browser session closed", "error", s.closeErr)
		}
	})
	return s.closeErr
}
