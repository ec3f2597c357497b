// Command fakeapp serves the local stand-in login app for manual debugging of
// the browser suite.
//
//	go run ./cmd/fakeapp -addr 127.0.0.1:8080 -admin-email founder@example.com -admin-password secret
//
// Then run the suite against it with TARGET=remote LOGIN_URL=http://127.0.0.1:8080/.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuitang/login-e2e/internal/config"
	"github.com/kuitang/login-e2e/internal/fakeapp"
	"github.com/kuitang/login-e2e/internal/logutil"
	"github.com/kuitang/login-e2e/internal/obs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fakeapp: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	flags, err := config.ParseServerFlags(args)
	if err != nil {
		return err
	}

	obs.Init()
	log := obs.Pkg("cmd/fakeapp")

	var accounts []fakeapp.Account
	if flags.AdminEmail != "" && flags.AdminPassword != "" {
		accounts = append(accounts, fakeapp.Account{Email: flags.AdminEmail, Password: flags.AdminPassword})
	} else {
		log.Warn("no admin account seeded; every login will be rejected")
	}
	app := fakeapp.New(fakeapp.Options{Accounts: accounts, ResponseDelay: flags.ResponseDelay})
	defer app.Close()

	srv := &http.Server{
		Addr:              flags.Addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		log.Info("stand-in app listening",
			"addr", "http://"+flags.Addr+"/",
			"admin", logutil.MaskEmail(flags.AdminEmail),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("stand-in app stopped", slog.Int("login_attempts", app.Attempts()))
	return nil
}
