package urlutil

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestBuildAbsolute_GeneratesExpectedURLs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := fmt.Sprintf(
			"https://%s.%s",
			rapid.StringMatching(`[a-z]{3,12}`).Draw(rt, "baseHost"),
			rapid.StringMatching(`[a-z]{2,8}`).Draw(rt, "baseTld"),
		)
		if rapid.Bool().Draw(rt, "baseHasSlash") {
			base += "/"
		}

		pathKind := rapid.IntRange(0, 3).Draw(rt, "pathKind")
		var path string
		switch pathKind {
		case 0:
			path = ""
		case 1:
			path = "/" + rapid.StringMatching(`[a-z]{1,12}`).Draw(rt, "relativePath")
		case 2:
			path = "founder/" + rapid.StringMatching(`[a-z]{1,12}`).Draw(rt, "nestedPath")
		case 3:
			path = fmt.Sprintf(
				"https://%s.%s/callback",
				rapid.StringMatching(`[a-z]{3,10}`).Draw(rt, "absoluteHost"),
				rapid.StringMatching(`[a-z]{2,6}`).Draw(rt, "absoluteTld"),
			)
		}

		got := BuildAbsolute(base, path)
		var want string
		switch {
		case path == "":
			want = strings.TrimRight(base, "/")
		case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
			want = path
		case strings.HasPrefix(path, "/"):
			want = strings.TrimRight(base, "/") + path
		default:
			want = strings.TrimRight(base, "/") + "/" + path
		}

		if got != want {
			rt.Fatalf("BuildAbsolute mismatch: got=%s want=%s", got, want)
		}
		parsed, err := url.Parse(got)
		if err != nil {
			rt.Fatalf("BuildAbsolute returned invalid URL %s: %v", got, err)
		}
		if parsed.Scheme == "" && pathKind != 3 {
			rt.Fatalf("expected absolute URL with scheme, got=%s", got)
		}
	})
}

func TestRootURL_AddsSingleTrailingSlash(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		origin := fmt.Sprintf("http://127.0.0.1:%d", rapid.IntRange(1024, 65535).Draw(rt, "port"))
		slashes := strings.Repeat("/", rapid.IntRange(0, 3).Draw(rt, "slashes"))

		got := RootURL(origin + slashes)
		if got != origin+"/" {
			rt.Fatalf("RootURL(%q) = %q, want %q", origin+slashes, got, origin+"/")
		}
	})
}

func TestIsAbsoluteHTTP(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://ainthinaiaccountingfrontend.vercel.app/", true},
		{"http://127.0.0.1:8080/", true},
		{" http://localhost:9000 ", true},
		{"ftp://example.com/", false},
		{"example.com/login", false},
		{"/founder/dashboard", false},
		{"https://", false},
		{"", false},
		{"http://[::1", false},
	}
	for _, tt := range tests {
		if got := IsAbsoluteHTTP(tt.raw); got != tt.want {
			t.Errorf("IsAbsoluteHTTP(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
