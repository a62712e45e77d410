package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names a browser automation backend.
type Driver string

const (
	// DriverPlaywright drives Chromium through the Playwright driver process
	DriverPlaywright Driver = "playwright"

	// DriverRod drives Chrome directly over the DevTools protocol
	DriverRod Driver = "rod"
)

var (
	// ErrTimeout is returned (wrapped) when a navigation or wait exceeds its timeout.
	ErrTimeout = errors.New("timeout exceeded")

	// ErrClosed is returned when an operation is attempted on a closed session.
	ErrClosed = errors.New("session closed")
)

// Launcher starts browser sessions.
type Launcher interface {
	Launch(ctx context.Context, opts SessionOptions) (Session, error)
}

// Session is a running browser with a single page. A session is exclusively
// owned by its caller and must be closed exactly once; Close is idempotent so
// it can always be deferred.
type Session interface {
	// Navigate loads url in the page.
	Navigate(url string, opts NavigateOptions) error

	// WaitForText blocks until an element whose visible text contains text
	// is shown, or the timeout elapses.
	WaitForText(text string, opts WaitOptions) error

	// Screenshot writes a PNG of the page to path.
	Screenshot(path string, opts ScreenshotOptions) error

	// OnConsole registers a handler invoked for every console message.
	OnConsole(handler func(ConsoleMessage))

	// OnPageError registers a handler invoked for every uncaught page error.
	OnPageError(handler func(error))

	// Close releases the page and the browser process.
	Close() error
}

// ConsoleMessage is a single message the page wrote to its console.
type ConsoleMessage struct {
	// Type is the console method, e.g. "log", "warning", "error"
	Type string

	// Text is the rendered message text
	Text string
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for operations (in milliseconds)
	Timeout float64

	// BrowserPath optionally points at a Chrome/Chromium binary
	BrowserPath string

	// SkipInstall skips the Playwright browser download check
	SkipInstall bool
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	// Valid values: "load", "domcontentloaded", "networkidle"
	WaitUntil string

	// Timeout in milliseconds (0 means default)
	Timeout float64
}

// WaitOptions configures waiting behavior.
type WaitOptions struct {
	// Timeout in milliseconds (0 means default)
	Timeout float64
}

// ScreenshotOptions configures screenshot capture.
type ScreenshotOptions struct {
	// FullPage captures the full scrollable page instead of the viewport
	FullPage bool
}

// Default values for various operations
const (
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultWaitUntil      = "load"
)

// ParseDriver converts a driver name into a Driver.
func ParseDriver(name string) (Driver, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(name))) {
	case "", DriverPlaywright:
		return DriverPlaywright, nil
	case DriverRod:
		return DriverRod, nil
	default:
		return "", fmt.Errorf("unknown browser driver: %s (must be 'playwright' or 'rod')", name)
	}
}

// NewLauncher returns the Launcher for the given driver.
func NewLauncher(driver Driver) (Launcher, error) {
	switch driver {
	case "", DriverPlaywright:
		return &PlaywrightLauncher{}, nil
	case DriverRod:
		return &RodLauncher{}, nil
	default:
		return nil, fmt.Errorf("unknown browser driver: %s", driver)
	}
}

// applyDefaults fills zero-valued session options.
func (o *SessionOptions) applyDefaults() {
	if o.Viewport == nil {
		o.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
}
