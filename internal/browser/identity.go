package browser

import (
	"runtime"
	"strings"
	"testing"

	"github.com/kuitang/login-e2e/internal/artifacts"
)

// TestIdentity names a test for artifact purposes: the base name of the file
// that declares it and the full (sub)test name.
type TestIdentity struct {
	File string
	Name string
}

// IdentityOf derives the identity of t. The file is the one declaring the
// top-level test function, found by walking the call stack; if that frame is
// not on the stack (e.g. a helper goroutine), the nearest caller outside this
// package is used.
func IdentityOf(t testing.TB) TestIdentity {
	return TestIdentity{
		File: artifacts.FileBase(testFileOf(t.Name())),
		Name: t.Name(),
	}
}

func testFileOf(testName string) string {
	top := testName
	if i := strings.IndexByte(top, '/'); i >= 0 {
		top = top[:i]
	}

	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var fallback string
	for {
		frame, more := frames.Next()
		fn := frame.Function
		if top != "" && (strings.HasSuffix(fn, "."+top) || strings.Contains(fn, "."+top+".func")) {
			return frame.File
		}
		if fallback == "" && !strings.Contains(fn, "/internal/browser.") && !strings.HasPrefix(fn, "testing.") {
			fallback = frame.File
		}
		if !more {
			break
		}
	}
	if fallback == "" {
		return "unknown"
	}
	return fallback
}
