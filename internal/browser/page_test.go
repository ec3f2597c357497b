package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/login-e2e/internal/artifacts"
	"github.com/kuitang/login-e2e/internal/s3client"
)

// fakeVideo mimics Playwright's recorder: the file at path only holds the
// final bytes once the owning context is closed.
type fakeVideo struct {
	playwright.Video
	path    string
	pathErr error
}

func (v *fakeVideo) Path() (string, error) {
	return v.path, v.pathErr
}

type fakePage struct {
	playwright.Page
	calls         *[]string
	screenshotErr error
	video         playwright.Video
}

func (p *fakePage) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	*p.calls = append(*p.calls, "screenshot")
	if p.screenshotErr != nil {
		return nil, p.screenshotErr
	}
	data := []byte("png")
	if len(options) > 0 && options[0].Path != nil {
		if err := os.WriteFile(*options[0].Path, data, 0o644); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (p *fakePage) Video() playwright.Video {
	return p.video
}

func (p *fakePage) Close(...playwright.PageCloseOptions) error {
	*p.calls = append(*p.calls, "close page")
	return nil
}

type fakeContext struct {
	playwright.BrowserContext
	calls     *[]string
	videoPath string
	closeErr  error
}

func (c *fakeContext) Close(...playwright.BrowserContextCloseOptions) error {
	*c.calls = append(*c.calls, "close context")
	if c.videoPath != "" {
		if err := os.WriteFile(c.videoPath, []byte("webm"), 0o644); err != nil {
			return err
		}
	}
	return c.closeErr
}

func newFakeTestPage(t *testing.T, name string) (*TestPage, *[]string, string) {
	t.Helper()

	root := t.TempDir()
	paths := artifacts.For(filepath.Join(root, "videos"), filepath.Join(root, "screenshots"), "login_test", name)
	require.NoError(t, paths.Ensure())

	tmpVideo := filepath.Join(paths.VideoDir, "4b1d7e0c9a.webm")
	calls := &[]string{}
	tp := &TestPage{
		ID:      TestIdentity{File: "login_test", Name: name},
		Paths:   paths,
		Page:    &fakePage{calls: calls, video: &fakeVideo{path: tmpVideo}},
		Context: &fakeContext{calls: calls, videoPath: tmpVideo},
	}
	return tp, calls, tmpVideo
}

func TestRelease_CapturesAndFinalizes(t *testing.T) {
	t.Parallel()

	tp, calls, tmpVideo := newFakeTestPage(t, "TestLogin_InvalidEmails/fake@email.com")

	require.Empty(t, tp.Release())
	require.Equal(t, []string{"screenshot", "close page", "close context"}, *calls)

	require.FileExists(t, filepath.Join(tp.Paths.ScreenshotDir, "TestLogin_InvalidEmails_fake@email.com.png"))
	require.FileExists(t, filepath.Join(tp.Paths.VideoDir, "TestLogin_InvalidEmails_fake@email.com.webm"))
	require.NoFileExists(t, tmpVideo)
}

func TestRelease_ScreenshotFailureDoesNotBlockCleanup(t *testing.T) {
	t.Parallel()

	tp, calls, _ := newFakeTestPage(t, "TestLogin_Valid")
	tp.Page.(*fakePage).screenshotErr = errors.New("target crashed")

	failures := tp.Release()
	require.Len(t, failures, 1)
	require.ErrorContains(t, failures[0], "screenshot")
	require.Equal(t, []string{"screenshot", "close page", "close context"}, *calls)
	require.FileExists(t, tp.Paths.VideoPath())
	require.NoFileExists(t, tp.Paths.ScreenshotPath())
}

func TestRelease_UnresolvableVideoIsSilent(t *testing.T) {
	t.Parallel()

	tp, calls, _ := newFakeTestPage(t, "TestLogin_Masking")
	tp.Page.(*fakePage).video = &fakeVideo{pathErr: errors.New("video not started")}

	require.Empty(t, tp.Release())
	require.Equal(t, []string{"screenshot", "close page", "close context"}, *calls)
	require.NoFileExists(t, tp.Paths.VideoPath())
}

func TestRelease_NilVideoIsSilent(t *testing.T) {
	t.Parallel()

	tp, _, _ := newFakeTestPage(t, "TestLogin_NoVideo")
	tp.Page.(*fakePage).video = nil

	require.Empty(t, tp.Release())
	require.FileExists(t, tp.Paths.ScreenshotPath())
}

func TestRelease_OverwritesPreviousRunVideo(t *testing.T) {
	t.Parallel()

	tp, _, _ := newFakeTestPage(t, "TestLogin_Toggle")
	require.NoError(t, os.WriteFile(tp.Paths.VideoPath(), []byte("previous run"), 0o644))

	require.Empty(t, tp.Release())
	got, err := os.ReadFile(tp.Paths.VideoPath())
	require.NoError(t, err)
	require.Equal(t, "webm", string(got))
}

func TestRelease_ContextCloseFailureStillFinalizes(t *testing.T) {
	t.Parallel()

	tp, _, _ := newFakeTestPage(t, "TestLogin_CloseFails")
	tp.Context.(*fakeContext).closeErr = errors.New("browser has been closed")

	failures := tp.Release()
	require.Len(t, failures, 1)
	require.ErrorContains(t, failures[0], "close context")
	require.FileExists(t, tp.Paths.VideoPath())
}

func TestRelease_RunsOnce(t *testing.T) {
	t.Parallel()

	tp, calls, _ := newFakeTestPage(t, "TestLogin_Once")
	tp.Release()
	tp.Release()
	require.Equal(t, []string{"screenshot", "close page", "close context"}, *calls)
}

func TestRelease_UploadsArtifacts(t *testing.T) {
	t.Parallel()

	client := s3client.TestClient(t, "artifacts", "run-1")
	tp, _, _ := newFakeTestPage(t, "TestLogin_XSS")
	tp.uploader = client

	require.Empty(t, tp.Release())

	keys, err := client.ListKeys(context.Background(), "")
	require.NoError(t, err)
	sort.Strings(keys)
	require.Equal(t, []string{
		"run-1/screenshots/login_test/TestLogin_XSS.png",
		"run-1/videos/login_test/TestLogin_XSS.webm",
	}, keys)
}

// stallingUploader never finishes an upload on its own.
type stallingUploader struct{}

func (stallingUploader) Key(parts ...string) string { return filepath.Join(parts...) }

func (stallingUploader) UploadFile(ctx context.Context, _, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRelease_UploadIsBoundedByTimeout(t *testing.T) {
	t.Parallel()

	tp, calls, _ := newFakeTestPage(t, "TestLogin_SlowBucket")
	tp.uploader = stallingUploader{}
	tp.uploadTimeout = 50 * time.Millisecond

	start := time.Now()
	failures := tp.Release()
	require.Less(t, time.Since(start), 5*time.Second)

	require.Len(t, failures, 2)
	for _, err := range failures {
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}
	require.Equal(t, []string{"screenshot", "close page", "close context"}, *calls)
	require.FileExists(t, tp.Paths.ScreenshotPath())
	require.FileExists(t, tp.Paths.VideoPath())
}

func TestAcquirePageFor_RequiresRunningSession(t *testing.T) {
	t.Parallel()

	var s *Session
	_, err := s.AcquirePageFor(context.Background(), TestIdentity{File: "f", Name: "n"})
	require.Error(t, err)

	_, err = (&Session{}).AcquirePageFor(context.Background(), TestIdentity{File: "f", Name: "n"})
	require.Error(t, err)
}
