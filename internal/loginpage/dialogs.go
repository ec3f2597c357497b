package loginpage

import (
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/login-e2e/internal/logutil"
	"github.com/kuitang/login-e2e/internal/obs"
)

// DialogWatcher dismisses every native dialog on a page and records it.
// Register it before the action that might open one.
type DialogWatcher struct {
	log *slog.Logger

	mu       sync.Mutex
	messages []string
}

// WatchDialogs registers a dismissing dialog handler on page.
func WatchDialogs(page playwright.Page) *DialogWatcher {
	w := &DialogWatcher{log: obs.Pkg("loginpage")}
	page.OnDialog(w.handle)
	return w
}

func (w *DialogWatcher) handle(dialog playwright.Dialog) {
	msg := dialog.Message()
	w.mu.Lock()
	w.messages = append(w.messages, msg)
	w.mu.Unlock()

	w.log.Warn("native dialog dismissed", "type", dialog.Type(), "message", logutil.TruncateForLog(msg, 80))
	if err := dialog.Dismiss(); err != nil {
		w.log.Warn("dialog dismiss failed", "error", err)
	}
}

// Count returns how many dialogs fired.
func (w *DialogWatcher) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

// Messages returns the dialog messages in the order they fired.
func (w *DialogWatcher) Messages() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.messages...)
}
