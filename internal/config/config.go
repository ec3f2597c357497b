// Package config provides configuration for the login suite and the local
// stand-in app. It loads a .env file once per process, then reads environment
// variables, validates them, and fills in defaults.
//
// TARGET selects what the suite drives: "local" (default) starts the stand-in
// app in-process, "remote" drives the hosted frontend at LOGIN_URL.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/kuitang/login-e2e/internal/pacing"
	"github.com/kuitang/login-e2e/internal/urlutil"
)

const (
	TargetLocal  = "local"
	TargetRemote = "remote"

	// DefaultLoginURL is the hosted login page.
	DefaultLoginURL = "https://ainthinaiaccountingfrontend.vercel.app/"
	// DefaultSuccessPath is where a successful login lands, relative to the login URL.
	DefaultSuccessPath = "founder/dashboard"

	defaultArtifactDir = "."
	defaultS3Region    = "us-east-1"
)

// Config holds all suite configuration.
type Config struct {
	Target     string
	LoginURL   string // empty for the local target until the stand-in is started
	SuccessURL string

	// Credential source (ADMIN_LOGIN / ADMIN_PASSWORD)
	AdminEmail    string
	AdminPassword string

	// Browser
	Headless    bool
	BrowserArgs []string
	SlowMo      time.Duration

	// Artifacts: videos/<file>/ and screenshots/<file>/ live under ArtifactDir
	ArtifactDir string

	// Pacing
	Timing         pacing.Timing
	SubmitInterval time.Duration

	// Optional artifact upload (S3-compatible)
	ArtifactBucket     string // ARTIFACT_BUCKET; empty disables upload
	AWSEndpointS3      string // AWS_ENDPOINT_URL_S3
	AWSRegion          string // AWS_REGION
	AWSAccessKeyID     string // AWS_ACCESS_KEY_ID
	AWSSecretAccessKey string // AWS_SECRET_ACCESS_KEY
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

var dotEnvOnce sync.Once

// LoadDotEnv loads DOTENV_PATH, or the nearest .env found walking up from the
// working directory to the module root. Variables already set in the
// environment win. It runs at most once per process; a missing file is not an error.
func LoadDotEnv() error {
	var loadErr error
	dotEnvOnce.Do(func() {
		path := strings.TrimSpace(os.Getenv("DOTENV_PATH"))
		if path == "" {
			path = findDotEnv()
		}
		if path == "" {
			return
		}
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			loadErr = fmt.Errorf("load %s: %w", path, err)
		}
	})
	return loadErr
}

func findDotEnv() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load loads the .env file and then configuration from the environment.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	return FromEnv()
}

// FromEnv builds configuration from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{}

	cfg.Target = strings.ToLower(getEnvOrDefault("TARGET", TargetLocal))
	cfg.LoginURL = strings.TrimSpace(os.Getenv("LOGIN_URL"))
	if cfg.LoginURL == "" && cfg.Target == TargetRemote {
		cfg.LoginURL = DefaultLoginURL
	}
	cfg.SuccessURL = strings.TrimSpace(os.Getenv("SUCCESS_URL"))
	if cfg.SuccessURL == "" && cfg.LoginURL != "" {
		cfg.SuccessURL = SuccessURLFor(cfg.LoginURL)
	}

	cfg.AdminEmail = strings.TrimSpace(os.Getenv("ADMIN_LOGIN"))
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	cfg.Headless = parseBoolOrDefault("HEADLESS", false)
	cfg.BrowserArgs = parseListOrDefault("BROWSER_ARGS", nil)
	cfg.SlowMo = parseDurationOrDefault("SLOW_MO", 0)

	cfg.ArtifactDir = getEnvOrDefault("ARTIFACT_DIR", defaultArtifactDir)

	cfg.Timing = pacing.Timing{
		KeyDelay:       parseDurationOrDefault("KEY_DELAY", pacing.Default.KeyDelay),
		FieldPause:     parseDurationOrDefault("FIELD_PAUSE", pacing.Default.FieldPause),
		PreSubmitPause: parseDurationOrDefault("PRE_SUBMIT_PAUSE", pacing.Default.PreSubmitPause),
		ErrorWait:      parseDurationOrDefault("ERROR_WAIT", pacing.Default.ErrorWait),
		SuccessWait:    parseDurationOrDefault("SUCCESS_WAIT", pacing.Default.SuccessWait),
		SettleWait:     parseDurationOrDefault("SETTLE_WAIT", pacing.Default.SettleWait),
		ChallengeWait:  parseDurationOrDefault("CHALLENGE_WAIT", pacing.Default.ChallengeWait),
	}
	cfg.SubmitInterval = parseDurationOrDefault("SUBMIT_INTERVAL", 0)

	cfg.ArtifactBucket = strings.TrimSpace(os.Getenv("ARTIFACT_BUCKET"))
	cfg.AWSEndpointS3 = strings.TrimSpace(os.Getenv("AWS_ENDPOINT_URL_S3"))
	cfg.AWSRegion = getEnvOrDefault("AWS_REGION", defaultS3Region)
	cfg.AWSAccessKeyID = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	cfg.AWSSecretAccessKey = strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SuccessURLFor derives the dashboard URL from a login URL.
func SuccessURLFor(loginURL string) string {
	return urlutil.BuildAbsolute(loginURL, DefaultSuccessPath)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []string

	switch c.Target {
	case TargetLocal, TargetRemote:
	default:
		errs = append(errs, fmt.Sprintf("TARGET must be %q or %q (got %q)", TargetLocal, TargetRemote, c.Target))
	}

	if c.LoginURL != "" && !urlutil.IsAbsoluteHTTP(c.LoginURL) {
		errs = append(errs, "LOGIN_URL must be an absolute http(s) URL")
	}
	if c.SuccessURL != "" && !urlutil.IsAbsoluteHTTP(c.SuccessURL) {
		errs = append(errs, "SUCCESS_URL must be an absolute http(s) URL")
	}
	if c.SuccessURL != "" && c.SuccessURL == c.LoginURL {
		errs = append(errs, "SUCCESS_URL must differ from LOGIN_URL")
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, "ADMIN_LOGIN and ADMIN_PASSWORD must be set together")
	}

	if strings.TrimSpace(c.ArtifactDir) == "" {
		errs = append(errs, "ARTIFACT_DIR must not be empty")
	}

	if err := c.Timing.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.SubmitInterval < 0 {
		errs = append(errs, "SUBMIT_INTERVAL must not be negative")
	}

	if c.ArtifactBucket != "" {
		if c.AWSRegion == "" {
			errs = append(errs, "AWS_REGION is required when ARTIFACT_BUCKET is set")
		}
		if (c.AWSAccessKeyID == "") != (c.AWSSecretAccessKey == "") {
			errs = append(errs, "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
		}
		if c.AWSEndpointS3 != "" && !urlutil.IsAbsoluteHTTP(c.AWSEndpointS3) {
			errs = append(errs, "AWS_ENDPOINT_URL_S3 must be an absolute http(s) URL")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// UseLocalTarget reports whether the suite should start the stand-in app.
func (c *Config) UseLocalTarget() bool {
	return c.Target == TargetLocal && c.LoginURL == ""
}

// HasAdminCredentials reports whether the credential source is populated.
func (c *Config) HasAdminCredentials() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}

// UploadEnabled reports whether artifacts are copied to a bucket after each test.
func (c *Config) UploadEnabled() bool {
	return c.ArtifactBucket != ""
}

// VideoRoot is the parent of every per-test-file video directory.
func (c *Config) VideoRoot() string {
	return filepath.Join(c.ArtifactDir, "videos")
}

// ScreenshotRoot is the parent of every per-test-file screenshot directory.
func (c *Config) ScreenshotRoot() string {
	return filepath.Join(c.ArtifactDir, "screenshots")
}

// PrintSummary writes a human-readable summary without secrets.
func (c *Config) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "login suite configuration:")
	if c.UseLocalTarget() {
		fmt.Fprintln(w, "  Target:    local stand-in app")
	} else {
		fmt.Fprintf(w, "  Target:    %s\n", c.LoginURL)
		fmt.Fprintf(w, "  Success:   %s\n", c.SuccessURL)
	}
	if c.HasAdminCredentials() {
		fmt.Fprintln(w, "  Admin:     from ADMIN_LOGIN / ADMIN_PASSWORD")
	} else {
		fmt.Fprintln(w, "  Admin:     not set (admin scenarios skip on remote)")
	}
	fmt.Fprintf(w, "  Headless:  %t\n", c.Headless)
	fmt.Fprintf(w, "  Artifacts: %s\n", c.ArtifactDir)
	if c.UploadEnabled() {
		fmt.Fprintf(w, "  Upload:    s3://%s\n", c.ArtifactBucket)
	}
	fmt.Fprintln(w, "")
}

// ServerFlags are the command-line flags of the stand-in app.
type ServerFlags struct {
	Addr          string
	AdminEmail    string
	AdminPassword string
	ResponseDelay time.Duration
}

// ParseServerFlags parses the stand-in app's flags from args.
func ParseServerFlags(args []string) (ServerFlags, error) {
	var f ServerFlags
	fs := flag.NewFlagSet("fakeapp", flag.ContinueOnError)
	fs.StringVar(&f.Addr, "addr", getEnvOrDefault("LISTEN_ADDR", "127.0.0.1:8080"), "Listen address")
	fs.StringVar(&f.AdminEmail, "admin-email", os.Getenv("ADMIN_LOGIN"), "Seeded admin email (defaults to ADMIN_LOGIN)")
	fs.StringVar(&f.AdminPassword, "admin-password", os.Getenv("ADMIN_PASSWORD"), "Seeded admin password (defaults to ADMIN_PASSWORD)")
	fs.DurationVar(&f.ResponseDelay, "response-delay", parseDurationOrDefault("RESPONSE_DELAY", 0), "Delay added before every login response")
	if err := fs.Parse(args); err != nil {
		return ServerFlags{}, err
	}
	var problems []string
	if f.Addr == "" {
		problems = append(problems, "--addr must not be empty")
	}
	if f.ResponseDelay < 0 {
		problems = append(problems, "--response-delay must not be negative")
	}
	if len(problems) > 0 {
		return ServerFlags{}, &ValidationError{Errors: problems}
	}
	return f, nil
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
