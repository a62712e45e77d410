package verify

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/pagecheck/pkg/browser"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is where the BillScan front end is served during development
	DefaultBaseURL = "http://localhost:3001"

	// DefaultWaitTimeout bounds how long a marker may take to become visible
	DefaultWaitTimeout = 10 * time.Second

	// DefaultNavigationTimeout bounds a single page load
	DefaultNavigationTimeout = 30 * time.Second
)

// Config represents the configuration for a verification run
type Config struct {
	// BaseURL of the application under test
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Targets are checked in order
	Targets []Target `yaml:"targets" json:"targets"`

	// Browser configuration
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Timeout for each marker wait
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// NavigationTimeout for each page load
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`

	// WaitUntil is the load state a navigation waits for: load, domcontentloaded, networkidle
	WaitUntil string `yaml:"wait_until" json:"wait_until"`

	// ViewportOnly captures only the visible viewport instead of the full page
	ViewportOnly bool `yaml:"viewport_only" json:"viewport_only"`

	// ContinueOnFailure checks every target even after one fails
	ContinueOnFailure bool `yaml:"continue_on_failure" json:"continue_on_failure"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig selects and configures the browser driver
type BrowserConfig struct {
	Driver      string `yaml:"driver" json:"driver"`             // playwright (default) or rod
	Headed      bool   `yaml:"headed" json:"headed"`             // show the browser window
	Path        string `yaml:"path" json:"path"`                 // optional browser binary
	SkipInstall bool   `yaml:"skip_install" json:"skip_install"` // skip the Playwright download check
	Width       int    `yaml:"width" json:"width"`
	Height      int    `yaml:"height" json:"height"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls operator output: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// DefaultConfig returns the dashboard and upload page checks against the
// local development server.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		Targets:           DefaultTargets(),
		Timeout:           DefaultWaitTimeout,
		NavigationTimeout: DefaultNavigationTimeout,
		WaitUntil:         browser.DefaultWaitUntil,
		Browser: BrowserConfig{
			Driver: string(browser.DriverPlaywright),
			Width:  browser.DefaultViewportWidth,
			Height: browser.DefaultViewportHeight,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. A targets list in
// the file replaces the default targets entirely.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Validate validates the configuration and fills unset defaults
//
//nolint:gocyclo
func (c *Config) Validate() error {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return fmt.Errorf("invalid base_url: %q (must be an http or https URL)", c.BaseURL)
	}
	if base.Host == "" {
		return fmt.Errorf("invalid base_url: %q (missing host)", c.BaseURL)
	}

	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}

	seen := make(map[string]bool, len(c.Targets))
	for i, target := range c.Targets {
		if err := target.validate(); err != nil {
			return fmt.Errorf("invalid target #%d: %w", i+1, err)
		}
		key := strings.ToLower(target.Name)
		if seen[key] {
			return fmt.Errorf("duplicate target name: %s", target.Name)
		}
		seen[key] = true
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultWaitTimeout
	}

	if c.NavigationTimeout < 0 {
		return fmt.Errorf("navigation_timeout cannot be negative")
	}
	if c.NavigationTimeout == 0 {
		c.NavigationTimeout = DefaultNavigationTimeout
	}

	switch c.WaitUntil {
	case "":
		c.WaitUntil = browser.DefaultWaitUntil
	case "load", "domcontentloaded", "networkidle":
	default:
		return fmt.Errorf("invalid wait_until: %s (must be 'load', 'domcontentloaded', or 'networkidle')", c.WaitUntil)
	}

	driver, err := browser.ParseDriver(c.Browser.Driver)
	if err != nil {
		return err
	}
	c.Browser.Driver = string(driver)

	if c.Browser.Width < 0 || c.Browser.Height < 0 {
		return fmt.Errorf("browser viewport cannot be negative")
	}
	if c.Browser.Width == 0 {
		c.Browser.Width = browser.DefaultViewportWidth
	}
	if c.Browser.Height == 0 {
		c.Browser.Height = browser.DefaultViewportHeight
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}
	if _, ok := logLevels[c.Logging.Verbosity]; !ok {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// TargetURL resolves a target's path against the base URL. Absolute target
// URLs are returned unchanged.
func (c *Config) TargetURL(t Target) (string, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base_url: %w", err)
	}
	ref, err := url.Parse(t.Path)
	if err != nil {
		return "", fmt.Errorf("invalid path for target %s: %w", t.Name, err)
	}
	resolved := base.ResolveReference(ref)
	if resolved.Path == "" {
		resolved.Path = "/"
	}
	return resolved.String(), nil
}

// SessionOptions translates the browser configuration for a Launcher.
func (c *Config) SessionOptions() browser.SessionOptions {
	return browser.SessionOptions{
		Headless:    !c.Browser.Headed,
		BrowserPath: c.Browser.Path,
		SkipInstall: c.Browser.SkipInstall,
		Timeout:     float64(c.NavigationTimeout.Milliseconds()),
		Viewport: &browser.Viewport{
			Width:  c.Browser.Width,
			Height: c.Browser.Height,
		},
	}
}

// screenshotPaths returns the cleaned screenshot path of every target
func (c *Config) screenshotPaths() []string {
	paths := make([]string, 0, len(c.Targets))
	for _, t := range c.Targets {
		paths = append(paths, filepath.Clean(t.Screenshot))
	}
	return paths
}
