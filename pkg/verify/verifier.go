package verify

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/entrhq/pagecheck/pkg/browser"
	"github.com/entrhq/pagecheck/pkg/logging"
)

// Verifier runs the page checks of a Config against one browser session.
type Verifier struct {
	config   *Config
	launcher browser.Launcher
	printer  *Printer
	logger   *logging.Logger
}

// NewVerifier validates config and creates a verifier. A nil logger drops
// debug logging.
func NewVerifier(config *Config, launcher browser.Launcher, printer *Printer, logger *logging.Logger) (*Verifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if launcher == nil {
		return nil, fmt.Errorf("browser launcher is required")
	}
	if printer == nil {
		printer = NewPrinter(os.Stdout, ParseLogLevel(config.Logging.Verbosity))
	}
	if logger == nil {
		logger = logging.Discard("verifier")
	}

	return &Verifier{
		config:   config,
		launcher: launcher,
		printer:  printer,
		logger:   logger,
	}, nil
}

// Run checks every target in order and always releases the browser session.
// It never returns an error or panics: failures are printed for the
// operator and recorded in the returned report. Unless ContinueOnFailure is
// set, the first failure skips the remaining targets.
func (v *Verifier) Run(ctx context.Context) (report *Report) {
	report = newReport(v.logger.RunID(), v.config.Targets)
	current := -1

	v.logger.Infof("Starting verification of %d targets against %s", len(v.config.Targets), v.config.BaseURL)

	defer func() {
		if r := recover(); r != nil {
			failure := newFailure("", StageAborted, fmt.Errorf("panic: %v", r))
			if current >= 0 {
				failure.Target = report.Results[current].Target.Name
				report.Results[current].Status = StatusFailed
				report.Results[current].Err = failure
			}
			report.fail(failure)
			v.logger.Errorf("Recovered from panic: %v", r)
			v.printer.Errorf("%v", failure)
		}
		report.finish()
		v.logger.Infof("Verification finished in %s (succeeded=%v)", report.Duration, report.Succeeded())
		v.printer.Summary(report)
	}()

	v.clearScreenshots()

	session, err := v.launcher.Launch(ctx, v.config.SessionOptions())
	if err != nil {
		failure := newFailure("", StageLaunch, err)
		report.fail(failure)
		v.logger.Errorf("Browser launch failed: %v", err)
		v.printer.Errorf("%v", failure)
		return report
	}
	defer v.release(session)

	session.OnConsole(func(msg browser.ConsoleMessage) {
		v.logger.Debugf("console [%s] %s", msg.Type, msg.Text)
		v.printer.Console(msg)
	})
	session.OnPageError(func(err error) {
		v.logger.Warnf("page error: %v", err)
		v.printer.PageError(err)
	})

	for i, target := range v.config.Targets {
		if err := ctx.Err(); err != nil {
			failure := newFailure("", StageAborted, err)
			report.fail(failure)
			v.printer.Errorf("%v", failure)
			break
		}

		current = i
		result := v.check(session, target)
		report.Results[i] = result
		current = -1

		if result.Err != nil {
			report.fail(result.Err)
			v.logger.Errorf("Check %q failed: %v", target.Name, result.Err)
			v.printer.Errorf("%v", result.Err)
			if !v.config.ContinueOnFailure {
				break
			}
		}
	}

	return report
}

// check navigates to one target, waits for its marker and captures it.
func (v *Verifier) check(session browser.Session, target Target) Result {
	start := time.Now()
	result := Result{Target: target, Status: StatusFailed}
	fail := func(stage Stage, err error) Result {
		result.Err = newFailure(target.Name, stage, err)
		result.Duration = time.Since(start)
		return result
	}

	url, err := v.config.TargetURL(target)
	if err != nil {
		return fail(StageNavigate, err)
	}

	v.printer.Navigating(target)
	v.logger.Infof("Navigating to %s (%s)", target.Name, url)
	if err := session.Navigate(url, browser.NavigateOptions{
		WaitUntil: v.config.WaitUntil,
		Timeout:   float64(v.config.NavigationTimeout.Milliseconds()),
	}); err != nil {
		return fail(StageNavigate, err)
	}

	v.printer.Debugf("waiting up to %s for %q", v.config.Timeout, target.Marker)
	if err := session.WaitForText(target.Marker, browser.WaitOptions{
		Timeout: float64(v.config.Timeout.Milliseconds()),
	}); err != nil {
		return fail(StageWait, err)
	}
	v.printer.Loaded(target)

	if err := session.Screenshot(target.Screenshot, browser.ScreenshotOptions{
		FullPage: !v.config.ViewportOnly,
	}); err != nil {
		return fail(StageScreenshot, err)
	}

	width, height, err := inspectScreenshot(target.Screenshot)
	if err != nil {
		return fail(StageScreenshot, err)
	}

	result.Status = StatusPassed
	result.Screenshot = target.Screenshot
	result.Width = width
	result.Height = height
	result.Duration = time.Since(start)

	v.logger.Infof("Saved %s screenshot to %s (%dx%d)", target.Name, target.Screenshot, width, height)
	v.printer.ScreenshotSaved(result)
	return result
}

// release closes the session; a close failure is reported but does not
// change the outcome of the checks.
func (v *Verifier) release(session browser.Session) {
	if err := session.Close(); err != nil {
		v.logger.Warnf("Failed to close browser session: %v", err)
		v.printer.Warningf("failed to close browser: %v", err)
		return
	}
	v.logger.Debugf("Browser session closed")
}

// clearScreenshots removes screenshots from earlier runs so every file on
// disk after a run was produced by that run.
func (v *Verifier) clearScreenshots() {
	for _, path := range v.config.screenshotPaths() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			v.logger.Warnf("Failed to remove stale screenshot %s: %v", path, err)
		}
	}
}

// inspectScreenshot decodes the PNG header and rejects empty images.
func inspectScreenshot(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open screenshot: %w", err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("screenshot %s is not a valid PNG: %w", path, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return 0, 0, fmt.Errorf("screenshot %s has empty dimensions %dx%d", path, cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}
