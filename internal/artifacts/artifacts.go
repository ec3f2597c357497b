// Package artifacts names and places the per-test screenshot and video.
//
// Layout, relative to the artifact root:
//
//	videos/<test_file>/<safe_test_name>.webm
//	screenshots/<test_file>/<safe_test_name>.png
//
// Directories are created on demand and never cleared, so repeated runs
// accumulate files until pruned.
package artifacts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	ScreenshotExt = ".png"
	VideoExt      = ".webm"
)

var unsafeNameReplacer = strings.NewReplacer("/", "_", ":", "_")

// SafeName makes a test name usable as a file name by replacing "/" and ":" with "_".
func SafeName(testName string) string {
	return unsafeNameReplacer.Replace(testName)
}

// FileBase returns the base name of a test source file without its extension,
// e.g. "tests/login/login_test.go" -> "login_test".
func FileBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Paths is where one test's artifacts go.
type Paths struct {
	VideoDir      string
	ScreenshotDir string
	SafeName      string
}

// For derives the artifact paths of a test from the roots, the test file base
// name and the test case name. It does not touch the filesystem.
func For(videoRoot, screenshotRoot, testFile, testName string) Paths {
	return Paths{
		VideoDir:      filepath.Join(videoRoot, testFile),
		ScreenshotDir: filepath.Join(screenshotRoot, testFile),
		SafeName:      SafeName(testName),
	}
}

// Ensure creates both directories.
func (p Paths) Ensure() error {
	for _, dir := range []string{p.VideoDir, p.ScreenshotDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("artifacts: create %s: %w", dir, err)
		}
	}
	return nil
}

// ScreenshotPath is <screenshot_dir>/<safe_name>.png.
func (p Paths) ScreenshotPath() string {
	return filepath.Join(p.ScreenshotDir, p.SafeName+ScreenshotExt)
}

// VideoPath is <video_dir>/<safe_name>.webm.
func (p Paths) VideoPath() string {
	return filepath.Join(p.VideoDir, p.SafeName+VideoExt)
}

// ErrNoVideo is returned by FinalizeVideo when there is nothing to move.
var ErrNoVideo = errors.New("artifacts: no finalized video")

// FinalizeVideo moves the recorder's temporary file to dst, replacing any
// existing file. It returns ErrNoVideo when src is empty or missing.
func FinalizeVideo(src, dst string) error {
	if src == "" {
		return ErrNoVideo
	}
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoVideo
		}
		return fmt.Errorf("artifacts: stat %s: %w", src, err)
	}
	if filepath.Clean(src) == filepath.Clean(dst) {
		return nil
	}

	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("artifacts: remove existing %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		// Cross-device moves fail with EXDEV; fall back to copy + delete.
		if copyErr := copyFile(src, dst); copyErr != nil {
			return fmt.Errorf("artifacts: move %s to %s: %w", src, dst, errors.Join(err, copyErr))
		}
		if rmErr := os.Remove(src); rmErr != nil {
			return fmt.Errorf("artifacts: remove %s after copy: %w", src, rmErr)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// ContentType returns the MIME type for an artifact file.
func ContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ScreenshotExt:
		return "image/png"
	case VideoExt:
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
