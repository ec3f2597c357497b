package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/login-e2e/internal/artifacts"
	"github.com/kuitang/login-e2e/internal/errs"
	"github.com/kuitang/login-e2e/internal/obs"
	"github.com/kuitang/login-e2e/internal/pacing"
)

// TestPage is one test's isolated context and page plus where its artifacts go.
// It owns both; the page never outlives Release.
type TestPage struct {
	ID      TestIdentity
	Paths   artifacts.Paths
	Context playwright.BrowserContext
	Page    playwright.Page

	ctx      context.Context
	log      *slog.Logger
	uploader Uploader

	uploadTimeout time.Duration

	releaseOnce sync.Once
	failures    []error
}

// AcquirePage creates the test's page and registers Release with t.Cleanup, so
// artifacts are captured whether the test passes, fails or panics. Setup
// failures are fatal to the test.
func (s *Session) AcquirePage(t testing.TB) *TestPage {
	t.Helper()

	tp, err := s.AcquirePageFor(context.Background(), IdentityOf(t))
	if err != nil {
		t.Fatalf("acquire page: %v", err)
	}
	t.Cleanup(func() {
		for _, failure := range tp.Release() {
			t.Logf("teardown: %v", failure)
		}
	})
	return tp
}

// AcquirePageFor creates a page for id. The caller must call Release.
func (s *Session) AcquirePageFor(ctx context.Context, id TestIdentity) (*TestPage, error) {
	if s == nil || s.browser == nil {
		return nil, errs.New(errs.Unavailable, "browser session is not running")
	}
	if id.Name == "" {
		return nil, errs.New(errs.InvalidArgument, "test identity has no name")
	}

	ctx = obs.WithCorrelation(ctx, obs.Correlation{RunID: obs.RunID(), TestFile: id.File, Test: id.Name})
	log := obs.From(ctx).With("pkg", "browser")

	paths := artifacts.For(s.opts.VideoRoot, s.opts.ScreenshotRoot, id.File, id.Name)
	if err := paths.Ensure(); err != nil {
		return nil, errs.Wrap(errs.Internal, "prepare artifact directories", err)
	}

	bctx, err := s.browser.NewContext(playwright.BrowserNewContextOptions{
		RecordVideo: &playwright.RecordVideo{Dir: paths.VideoDir},
		UserAgent:   playwright.String(s.opts.UserAgent),
		Viewport:    s.opts.Viewport,
		Locale:      playwright.String(s.opts.Locale),
	})
	if err != nil {
		return nil, errs.FromBrowser("create browser context", err)
	}
	if s.opts.DefaultTimeout > 0 {
		bctx.SetDefaultTimeout(pacing.Millis(s.opts.DefaultTimeout))
		bctx.SetDefaultNavigationTimeout(pacing.Millis(s.opts.DefaultTimeout))
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, errs.FromBrowser("open page", err)
	}

	if err := ApplyStealth(page); err != nil {
		_ = page.Close()
		_ = bctx.Close()
		return nil, errs.Wrap(errs.Internal, "instrument page", err)
	}

	log.Debug("page acquired", "video_dir", paths.VideoDir, "screenshot_dir", paths.ScreenshotDir)
	return &TestPage{
		ID:       id,
		Paths:    paths,
		Context:  bctx,
		Page:     page,
		ctx:      ctx,
		log:      log,
		uploader: s.opts.Uploader,

		uploadTimeout: s.opts.UploadTimeout,
	}, nil
}

// Release captures the screenshot, closes the page and context, finalizes the
// video under the test's name and uploads both artifacts when an uploader is
// configured. Every step runs even if an earlier one failed; the failures are
// logged and returned but never escalated. Only the first call does anything.
func (tp *TestPage) Release() []error {
	tp.releaseOnce.Do(func() {
		tp.failures = runSteps(tp.Logger(), tp.releaseSteps())
	})
	return tp.failures
}

// Logger returns the test-correlated logger for this page.
func (tp *TestPage) Logger() *slog.Logger {
	if tp.log != nil {
		return tp.log
	}
	return obs.Pkg("browser")
}

func (tp *TestPage) correlationCtx() context.Context {
	if tp.ctx != nil {
		return tp.ctx
	}
	return context.Background()
}

func (tp *TestPage) releaseSteps() []step {
	var (
		videoTmp      string
		screenshotOK  bool
		videoFinalOK  bool
		screenshotOut = tp.Paths.ScreenshotPath()
		videoOut      = tp.Paths.VideoPath()
	)

	steps := []step{
		{
			name: "screenshot",
			run: func() error {
				if tp.Page == nil {
					return errNoPage
				}
				if _, err := tp.Page.Screenshot(playwright.PageScreenshotOptions{
					Path:     playwright.String(screenshotOut),
					FullPage: playwright.Bool(true),
				}); err != nil {
					return err
				}
				screenshotOK = true
				tp.Logger().Info("screenshot saved", "path", screenshotOut)
				return nil
			},
		},
		{
			name:     "resolve video path",
			optional: true,
			run: func() error {
				if tp.Page == nil {
					return errNoPage
				}
				video := tp.Page.Video()
				if video == nil {
					return errNoVideo
				}
				p, err := video.Path()
				if err != nil {
					return err
				}
				videoTmp = p
				return nil
			},
		},
		{
			name: "close page",
			run: func() error {
				if tp.Page == nil {
					return nil
				}
				return tp.Page.Close()
			},
		},
		{
			name: "close context",
			run: func() error {
				if tp.Context == nil {
					return nil
				}
				return tp.Context.Close()
			},
		},
		{
			name: "finalize video",
			run: func() error {
				if videoTmp == "" {
					return nil
				}
				if err := artifacts.FinalizeVideo(videoTmp, videoOut); err != nil {
					if errors.Is(err, artifacts.ErrNoVideo) {
						return nil
					}
					return err
				}
				videoFinalOK = true
				tp.Logger().Info("video saved", "path", videoOut)
				return nil
			},
		},
	}

	if tp.uploader != nil {
		steps = append(steps,
			step{
				name: "upload screenshot",
				run: func() error {
					if !screenshotOK {
						return nil
					}
					return tp.upload("screenshots", screenshotOut)
				},
			},
			step{
				name: "upload video",
				run: func() error {
					if !videoFinalOK {
						return nil
					}
					return tp.upload("videos", videoOut)
				},
			},
		)
	}
	return steps
}

func (tp *TestPage) upload(kind, localPath string) error {
	timeout := tp.uploadTimeout
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	ctx, cancel := context.WithTimeout(tp.correlationCtx(), timeout)
	defer cancel()

	key := tp.uploader.Key(kind, tp.ID.File, tp.Paths.SafeName+filepath.Ext(localPath))
	if err := tp.uploader.UploadFile(ctx, key, localPath, artifacts.ContentType(localPath)); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	tp.Logger().Info("artifact uploaded", "key", key)
	return nil
}
