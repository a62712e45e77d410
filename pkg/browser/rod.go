package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// textVisibleJS reports whether the rendered (visible) text of the page
// contains the marker, ignoring case.
const textVisibleJS = `(marker) => {
	const body = document.body;
	if (!body) return false;
	return body.innerText.toLowerCase().includes(marker.toLowerCase());
}`

// RodLauncher launches Chrome sessions through go-rod.
type RodLauncher struct{}

// Launch starts Chrome via rod's launcher, connects to it and opens a blank
// page. CHROME_BIN is honoured when no browser path is configured.
func (l *RodLauncher) Launch(ctx context.Context, opts SessionOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	lc := launcher.New().Context(ctx)

	bin := opts.BrowserPath
	if bin == "" {
		bin = os.Getenv("CHROME_BIN")
	}
	if bin != "" {
		lc = lc.Bin(bin)
	}

	lc = lc.Headless(opts.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-first-run")

	controlURL, err := lc.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		lc.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		lc.Cleanup()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  opts.Viewport.Width,
		Height: opts.Viewport.Height,
	}); err != nil {
		_ = browser.Close()
		lc.Cleanup()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	return &rodSession{
		launcher:       lc,
		browser:        browser,
		page:           page,
		defaultTimeout: time.Duration(opts.Timeout) * time.Millisecond,
	}, nil
}

// rodSession is a Session backed by a rod page.
type rodSession struct {
	launcher       *launcher.Launcher
	browser        *rod.Browser
	page           *rod.Page
	defaultTimeout time.Duration

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *rodSession) timeout(ms float64) time.Duration {
	if ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return s.defaultTimeout
}

func (s *rodSession) Navigate(url string, opts NavigateOptions) error {
	if s.isClosed() {
		return ErrClosed
	}

	page := s.page.Timeout(s.timeout(opts.Timeout))
	defer page.CancelTimeout()

	// The idle waiter must be registered before navigating or the event is missed
	var waitIdle func()
	if opts.WaitUntil == "networkidle" {
		waitIdle = page.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	}

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", mapContextError(err))
	}

	var err error
	switch opts.WaitUntil {
	case "domcontentloaded":
		err = page.WaitDOMStable(300*time.Millisecond, 0)
	case "networkidle":
		waitIdle()
		err = page.GetContext().Err()
	default:
		err = page.WaitLoad()
	}
	if err != nil {
		return fmt.Errorf("navigation failed: %w", mapContextError(err))
	}
	return nil
}

func (s *rodSession) WaitForText(text string, opts WaitOptions) error {
	if s.isClosed() {
		return ErrClosed
	}
	if text == "" {
		return fmt.Errorf("text is required for wait")
	}

	page := s.page.Timeout(s.timeout(opts.Timeout))
	defer page.CancelTimeout()

	if err := page.Wait(rod.Eval(textVisibleJS, text)); err != nil {
		return fmt.Errorf("wait for %q failed: %w", text, mapContextError(err))
	}
	return nil
}

func (s *rodSession) Screenshot(path string, opts ScreenshotOptions) error {
	if s.isClosed() {
		return ErrClosed
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	data, err := s.page.Screenshot(opts.FullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save screenshot: %w", err)
	}
	return nil
}

// OnConsole subscribes to Runtime.consoleAPICalled. rod enables the Runtime
// domain on subscription and delivers events on its own goroutine.
func (s *rodSession) OnConsole(handler func(ConsoleMessage)) {
	go s.page.EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
		handler(ConsoleMessage{
			Type: string(e.Type),
			Text: consoleText(e.Args),
		})
	})()
}

func (s *rodSession) OnPageError(handler func(error)) {
	go s.page.EachEvent(func(e *proto.RuntimeExceptionThrown) {
		handler(exceptionError(e.ExceptionDetails))
	})()
}

// Close closes the browser and removes the launcher's temporary profile.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		if err := s.browser.Close(); err != nil {
			s.closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		s.launcher.Cleanup()
	})
	return s.closeErr
}

// consoleText renders console arguments the way devtools prints them:
// primitive values verbatim, objects by description, space separated.
func consoleText(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		switch {
		case !arg.Value.Nil():
			parts = append(parts, arg.Value.Str())
		case arg.Description != "":
			parts = append(parts, arg.Description)
		default:
			parts = append(parts, string(arg.Type))
		}
	}
	return strings.Join(parts, " ")
}

func exceptionError(details *proto.RuntimeExceptionDetails) error {
	if details == nil {
		return errors.New("unknown page error")
	}
	if details.Exception != nil && details.Exception.Description != "" {
		return errors.New(details.Exception.Description)
	}
	return errors.New(details.Text)
}

// mapContextError tags deadline errors from rod's page timeouts with ErrTimeout.
func mapContextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
