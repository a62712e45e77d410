// Package browser provides headless browser sessions for page verification.
//
// A Session owns one browser process and a single page. It is acquired from a
// Launcher and must be released with Close on every exit path; Close is
// idempotent, so the usual pattern is to defer it right after Launch.
//
// # Drivers
//
// Two drivers implement Launcher:
//
//   - PlaywrightLauncher: Chromium through playwright-go. The driver and the
//     browser are downloaded on first use unless SkipInstall is set.
//   - RodLauncher: Chrome over the DevTools protocol through go-rod. Uses
//     BrowserPath or CHROME_BIN, otherwise rod downloads a Chromium build.
//
// Driver timeouts are reported as errors wrapping ErrTimeout, so callers can
// detect a failed wait with errors.Is regardless of the driver.
//
// # Diagnostics
//
// OnConsole and OnPageError handlers are invoked on driver goroutines, in
// the order the page emitted the events. Handlers must be safe for
// concurrent use with the goroutine driving the session.
//
// # Example Usage
//
//	launcher, _ := browser.NewLauncher(browser.DriverPlaywright)
//	session, err := launcher.Launch(ctx, browser.SessionOptions{Headless: true})
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	err = session.Navigate("http://localhost:3001/", browser.NavigateOptions{})
//	err = session.WaitForText("BillScan", browser.WaitOptions{Timeout: 10000})
//	err = session.Screenshot("verification/dashboard.png", browser.ScreenshotOptions{FullPage: true})
package browser
