package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightLauncher launches Chromium sessions through playwright-go.
type PlaywrightLauncher struct {
	// Stdout and Stderr receive driver install/run output; nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Launch installs the Playwright driver and Chromium if needed, starts the
// driver, then launches a browser with one context and one page. Every
// resource acquired before a failure is released before returning.
func (l *PlaywrightLauncher) Launch(ctx context.Context, opts SessionOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   discardIfNil(l.Stdout),
		Stderr:   discardIfNil(l.Stderr),
	}

	if !opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.BrowserPath != "" {
		launchOpts.ExecutablePath = playwright.String(opts.BrowserPath)
	}
	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(opts.Timeout)

	return &playwrightSession{
		pw:      pw,
		browser: browser,
		context: bctx,
		page:    page,
	}, nil
}

// playwrightSession is a Session backed by a Playwright page.
type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

func (s *playwrightSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Navigate navigates the session's page to the specified URL.
func (s *playwrightSession) Navigate(url string, opts NavigateOptions) error {
	if s.isClosed() {
		return ErrClosed
	}

	playwrightOpts := playwright.PageGotoOptions{}

	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if _, err := s.page.Goto(url, playwrightOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", mapPlaywrightError(err))
	}
	return nil
}

// WaitForText waits for the first element matching a text selector to become visible.
func (s *playwrightSession) WaitForText(text string, opts WaitOptions) error {
	if s.isClosed() {
		return ErrClosed
	}
	if text == "" {
		return fmt.Errorf("text is required for wait")
	}

	waitOpts := playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	}
	if opts.Timeout > 0 {
		waitOpts.Timeout = playwright.Float(opts.Timeout)
	}

	locator := s.page.Locator("text=" + text).First()
	if err := locator.WaitFor(waitOpts); err != nil {
		return fmt.Errorf("wait for %q failed: %w", text, mapPlaywrightError(err))
	}
	return nil
}

// Screenshot writes a PNG of the page to path, creating its directory.
func (s *playwrightSession) Screenshot(path string, opts ScreenshotOptions) error {
	if s.isClosed() {
		return ErrClosed
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(opts.FullPage),
	})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", mapPlaywrightError(err))
	}
	return nil
}

func (s *playwrightSession) OnConsole(handler func(ConsoleMessage)) {
	s.page.OnConsole(func(msg playwright.ConsoleMessage) {
		handler(ConsoleMessage{Type: msg.Type(), Text: msg.Text()})
	})
}

func (s *playwrightSession) OnPageError(handler func(error)) {
	s.page.OnPageError(handler)
}

// Close closes page, context and browser, then stops the driver. Errors
// from the page and context are ignored so cleanup always reaches the
// browser process.
func (s *playwrightSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		_ = s.page.Close()
		_ = s.context.Close()

		var errs []error
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// mapPlaywrightError tags Playwright timeouts with ErrTimeout.
func mapPlaywrightError(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func discardIfNil(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
