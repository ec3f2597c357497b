package loginpage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/login-e2e/internal/errs"
	"github.com/kuitang/login-e2e/internal/pacing"
)

// pwLocator lets fakeLocator embed the interface without the field name
// shadowing the interface's own Locator method.
type pwLocator = playwright.Locator

// fakeLocator records interactions under its selector.
type fakeLocator struct {
	pwLocator
	selector string
	page     *fakePage
}

func (l *fakeLocator) First() playwright.Locator {
	return l
}

func (l *fakeLocator) PressSequentially(text string, options ...playwright.LocatorPressSequentiallyOptions) error {
	delay := 0.0
	if len(options) > 0 && options[0].Delay != nil {
		delay = *options[0].Delay
	}
	l.page.record(fmt.Sprintf("type %s %q delay=%v", l.selector, text, delay))
	return l.page.errs[l.selector]
}

func (l *fakeLocator) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	l.page.record("wait " + l.selector)
	if err, ok := l.page.waitErrs[l.selector]; ok {
		return err
	}
	return nil
}

func (l *fakeLocator) Click(...playwright.LocatorClickOptions) error {
	l.page.record("click " + l.selector)
	if l.selector == ToggleSelector {
		if l.page.inputType == "password" {
			l.page.inputType = "text"
		} else {
			l.page.inputType = "password"
		}
	}
	return l.page.errs[l.selector]
}

func (l *fakeLocator) InnerText(...playwright.LocatorInnerTextOptions) (string, error) {
	return l.page.errorText, l.page.innerTextErr
}

func (l *fakeLocator) GetAttribute(name string, _ ...playwright.LocatorGetAttributeOptions) (string, error) {
	if name != "type" {
		return "", errors.New("unexpected attribute " + name)
	}
	return l.page.inputType, l.page.errs["attr"]
}

type fakePage struct {
	playwright.Page
	calls        []string
	url          string
	inputType    string
	errorText    string
	innerTextErr error
	errs         map[string]error
	waitErrs     map[string]error
	waitedURL    string
	gotoErr      error
	dialogFn     func(playwright.Dialog)
}

func newFakePage() *fakePage {
	return &fakePage{
		inputType: "password",
		errs:      map[string]error{},
		waitErrs:  map[string]error{},
	}
}

func (p *fakePage) record(call string) {
	p.calls = append(p.calls, call)
}

func (p *fakePage) Locator(selector string, _ ...playwright.PageLocatorOptions) playwright.Locator {
	return &fakeLocator{selector: selector, page: p}
}

func (p *fakePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	if len(options) == 0 || options[0].WaitUntil == nil || *options[0].WaitUntil != *playwright.WaitUntilStateDomcontentloaded {
		return nil, errors.New("navigate must wait for domcontentloaded")
	}
	p.record("goto " + url)
	if p.gotoErr == nil {
		p.url = url
	}
	return nil, p.gotoErr
}

func (p *fakePage) URL() string {
	return p.url
}

func (p *fakePage) WaitForURL(url interface{}, _ ...playwright.PageWaitForURLOptions) error {
	p.waitedURL, _ = url.(string)
	if p.url != p.waitedURL {
		return fmt.Errorf("%w: waiting for %v", playwright.ErrTimeout, url)
	}
	return nil
}

func (p *fakePage) OnDialog(fn func(playwright.Dialog)) {
	p.dialogFn = fn
}

type fakeDialog struct {
	playwright.Dialog
	message   string
	dismissed bool
}

func (d *fakeDialog) Message() string { return d.message }
func (d *fakeDialog) Type() string    { return "alert" }
func (d *fakeDialog) Dismiss() error {
	d.dismissed = true
	return nil
}

var instant = pacing.Timing{
	KeyDelay:    100 * time.Millisecond,
	ErrorWait:   time.Second,
	SuccessWait: time.Second,
}

func TestNew_DefaultsToHostedTargets(t *testing.T) {
	p := New(newFakePage())
	require.Equal(t, "https://ainthinaiaccountingfrontend.vercel.app/", p.LoginURL())
	require.Equal(t, "https://ainthinaiaccountingfrontend.vercel.app/founder/dashboard", p.SuccessURL())
}

func TestWithTargets_DerivesSuccessURL(t *testing.T) {
	p := New(newFakePage(), WithTargets(Targets{LoginURL: "http://127.0.0.1:8080/"}))
	require.Equal(t, "http://127.0.0.1:8080/founder/dashboard", p.SuccessURL())

	p = New(newFakePage(), WithTargets(Targets{LoginURL: "http://a/", SuccessURL: "http://a/home"}))
	require.Equal(t, Targets{LoginURL: "http://a/", SuccessURL: "http://a/home"}, p.Targets())
}

func TestNavigate(t *testing.T) {
	fp := newFakePage()
	p := New(fp, WithTargets(Targets{LoginURL: "http://local/"}))

	require.NoError(t, p.Navigate())
	require.Equal(t, []string{"goto http://local/"}, fp.calls)

	fp.gotoErr = errors.New("net::ERR_CONNECTION_REFUSED")
	err := p.Navigate()
	require.Error(t, err)
	require.Equal(t, errs.Internal, errs.CodeOf(err))
	require.False(t, errs.IsTimeout(err))
}

func TestLogin_TypesFieldsThenSubmits(t *testing.T) {
	fp := newFakePage()
	p := New(fp, WithTiming(instant))

	require.NoError(t, p.Login(context.Background(), "user@example.com", "s3cret"))
	require.Equal(t, []string{
		`type input[name='email'] "user@example.com" delay=100`,
		`type input[name='password'] "s3cret" delay=100`,
		"wait button[type='submit']",
		"click button[type='submit']",
	}, fp.calls)
}

func TestLogin_StopsAtFirstFailure(t *testing.T) {
	fp := newFakePage()
	fp.errs[PasswordSelector] = errors.New("element detached")
	p := New(fp, WithTiming(instant))

	err := p.Login(context.Background(), "user@example.com", "s3cret")
	require.Error(t, err)
	require.Contains(t, err.Error(), "type password")
	require.NotContains(t, fp.calls, "click button[type='submit']")
}

func TestLogin_HonoursCancelledContext(t *testing.T) {
	fp := newFakePage()
	timing := instant
	timing.FieldPause = time.Hour
	p := New(fp, WithTiming(timing), WithThrottle(pacing.NewThrottle(time.Hour)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Login(ctx, "user@example.com", "s3cret")
	require.Error(t, err)
	require.Empty(t, fp.calls)
}

func TestErrorMessage_States(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		fp := newFakePage()
		fp.errorText = "  Invalid email address \n"
		r := New(fp, WithTiming(instant)).ErrorMessage()
		require.Equal(t, ErrorFound, r.State)
		require.Equal(t, "Invalid email address", r.Text)
		require.True(t, r.Present())
	})

	t.Run("timeout means no error", func(t *testing.T) {
		fp := newFakePage()
		fp.waitErrs[ErrorSelector] = fmt.Errorf("%w: 1000ms exceeded", playwright.ErrTimeout)
		r := New(fp, WithTiming(instant)).ErrorMessage()
		require.Equal(t, NoError, r.State)
		require.NoError(t, r.Err)
		require.False(t, r.Present())
	})

	t.Run("broken lookup", func(t *testing.T) {
		fp := newFakePage()
		fp.waitErrs[ErrorSelector] = errors.New("target page, context or browser has been closed")
		r := New(fp, WithTiming(instant)).ErrorMessage()
		require.Equal(t, LookupFailed, r.State)
		require.Error(t, r.Err)
		require.False(t, r.Present())
	})

	t.Run("unreadable text", func(t *testing.T) {
		fp := newFakePage()
		fp.innerTextErr = errors.New("detached")
		r := New(fp, WithTiming(instant)).ErrorMessage()
		require.Equal(t, LookupFailed, r.State)
	})
}

func TestGetErrorMessage(t *testing.T) {
	fp := newFakePage()
	fp.errorText = "Invalid email or password"
	p := New(fp, WithTiming(instant))

	text, ok := p.GetErrorMessage()
	require.True(t, ok)
	require.Equal(t, "Invalid email or password", text)

	fp.waitErrs[ErrorSelector] = fmt.Errorf("%w", playwright.ErrTimeout)
	text, ok = p.GetErrorMessage()
	require.False(t, ok)
	require.Empty(t, text)
}

func TestErrorState_String(t *testing.T) {
	require.Equal(t, "no_error", NoError.String())
	require.Equal(t, "error_found", ErrorFound.String())
	require.Equal(t, "lookup_failed", LookupFailed.String())
	require.Equal(t, "ErrorState(9)", ErrorState(9).String())
}

func TestToggleFlipsInputType(t *testing.T) {
	fp := newFakePage()
	p := New(fp)

	typ, err := p.PasswordInputType()
	require.NoError(t, err)
	require.Equal(t, "password", typ)

	require.NoError(t, p.TogglePasswordVisibility())
	typ, err = p.PasswordInputType()
	require.NoError(t, err)
	require.Equal(t, "text", typ)

	require.NoError(t, p.TogglePasswordVisibility())
	typ, err = p.PasswordInputType()
	require.NoError(t, err)
	require.Equal(t, "password", typ)
}

func TestWaitForSuccess(t *testing.T) {
	fp := newFakePage()
	p := New(fp, WithTargets(Targets{LoginURL: "http://local/"}), WithTiming(instant))

	fp.url = "http://local/"
	err := p.WaitForSuccess(0)
	require.True(t, errs.IsTimeout(err))
	require.Equal(t, "http://local/founder/dashboard", fp.waitedURL)
	require.False(t, p.IsOnSuccessURL())

	fp.url = "http://local/founder/dashboard"
	require.NoError(t, p.WaitForSuccess(time.Second))
	require.True(t, p.IsOnSuccessURL())
	require.Equal(t, "http://local/founder/dashboard", p.CurrentURL())
}

func TestWatchDialogs_DismissesAndCounts(t *testing.T) {
	fp := newFakePage()
	w := WatchDialogs(fp)
	require.NotNil(t, fp.dialogFn)
	require.Zero(t, w.Count())

	d := &fakeDialog{message: "XSS"}
	fp.dialogFn(d)

	require.True(t, d.dismissed)
	require.Equal(t, 1, w.Count())
	require.Equal(t, []string{"XSS"}, w.Messages())
}
