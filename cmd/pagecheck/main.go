// Package main provides pagecheck, a smoke test that opens the BillScan front
// end in a real browser, confirms each page rendered and saves screenshots.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/pagecheck/pkg/browser"
	"github.com/entrhq/pagecheck/pkg/logging"
	"github.com/entrhq/pagecheck/pkg/verify"
)

const version = "0.1.0"

// errChecksFailed is returned in strict mode when any target did not pass
var errChecksFailed = errors.New("one or more page checks failed")

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	BaseURL     string
	Driver      string
	Timeout     time.Duration
	Headed      bool
	SkipInstall bool
	Targets     string
	Verbosity   string
	Strict      bool
	ShowVersion bool

	// set records the flags given explicitly on the command line
	set map[string]bool
}

func main() {
	config, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if config.ShowVersion {
		fmt.Printf("pagecheck v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted, closing browser...")
		cancel()
	}()

	if err := run(ctx, config, os.Stdout); err != nil {
		cancel()
		log.Printf("pagecheck: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags into a CLIConfig
func parseFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	config := &CLIConfig{}

	fs.StringVar(&config.ConfigFile, "config", "", "Path to configuration file (YAML)")
	fs.StringVar(&config.BaseURL, "base-url", verify.DefaultBaseURL, "Base URL of the application under test")
	fs.StringVar(&config.Driver, "driver", string(browser.DriverPlaywright), "Browser driver: playwright or rod")
	fs.DurationVar(&config.Timeout, "timeout", verify.DefaultWaitTimeout, "How long each marker may take to appear")
	fs.BoolVar(&config.Headed, "headed", false, "Show the browser window")
	fs.BoolVar(&config.SkipInstall, "skip-install", false, "Do not download the Playwright driver and Chromium")
	fs.StringVar(&config.Targets, "targets", "", "Glob selecting targets by name, e.g. 'dashboard' or '{dashboard,upload*}'")
	fs.StringVar(&config.Verbosity, "verbosity", "normal", "Output verbosity: quiet, normal, verbose, debug")
	fs.BoolVar(&config.Strict, "strict", false, "Exit non-zero when a check fails")
	fs.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "pagecheck - browser smoke test for the BillScan front end\n\n")
		fmt.Fprintf(out, "Usage: pagecheck [options]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  # Check the dev server on localhost:3001\n")
		fmt.Fprintf(out, "  pagecheck\n\n")
		fmt.Fprintf(out, "  # Check a staging deploy with rod and fail the build on errors\n")
		fmt.Fprintf(out, "  pagecheck -base-url https://staging.example.com -driver rod -strict\n\n")
		fmt.Fprintf(out, "  # Only the upload page, using a config file\n")
		fmt.Fprintf(out, "  pagecheck -config pagecheck.yaml -targets 'upload*'\n\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	config.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		config.set[f.Name] = true
	})
	return config, nil
}

// run executes one verification pass
func run(ctx context.Context, cliConfig *CLIConfig, stdout io.Writer) error {
	config, err := loadConfig(cliConfig)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if validationErr := config.Validate(); validationErr != nil {
		return fmt.Errorf("invalid configuration: %w", validationErr)
	}

	config.Targets, err = verify.FilterTargets(config.Targets, cliConfig.Targets)
	if err != nil {
		return err
	}

	printer := verify.NewPrinter(stdout, verify.ParseLogLevel(config.Logging.Verbosity))

	logger, logErr := logging.NewLogger("verifier")
	if logErr != nil {
		printer.Warningf("run log unavailable: %v", logErr)
	}
	defer logging.Close()

	launcher, err := newLauncher(config)
	if err != nil {
		return err
	}

	verifier, err := verify.NewVerifier(config, launcher, printer, logger)
	if err != nil {
		return err
	}

	printer.Debugf("run %s, log %s", logger.RunID(), logger.LogPath())
	report := verifier.Run(ctx)

	if cliConfig.Strict && !report.Succeeded() {
		return errChecksFailed
	}
	return nil
}

// loadConfig starts from the file (or the defaults) and applies the flags
// that were given explicitly.
func loadConfig(cliConfig *CLIConfig) (*verify.Config, error) {
	config := verify.DefaultConfig()
	if cliConfig.ConfigFile != "" {
		loaded, err := verify.LoadConfig(cliConfig.ConfigFile)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if cliConfig.set["base-url"] {
		config.BaseURL = cliConfig.BaseURL
	}
	if cliConfig.set["driver"] {
		config.Browser.Driver = cliConfig.Driver
	}
	if cliConfig.set["timeout"] {
		config.Timeout = cliConfig.Timeout
	}
	if cliConfig.set["headed"] {
		config.Browser.Headed = cliConfig.Headed
	}
	if cliConfig.set["skip-install"] {
		config.Browser.SkipInstall = cliConfig.SkipInstall
	}
	if cliConfig.set["verbosity"] {
		config.Logging.Verbosity = cliConfig.Verbosity
	}

	return config, nil
}

// newLauncher builds the configured driver. Playwright's install output is
// only shown at debug verbosity.
func newLauncher(config *verify.Config) (browser.Launcher, error) {
	driver, err := browser.ParseDriver(config.Browser.Driver)
	if err != nil {
		return nil, err
	}

	launcher, err := browser.NewLauncher(driver)
	if err != nil {
		return nil, err
	}
	if pw, ok := launcher.(*browser.PlaywrightLauncher); ok && verify.ParseLogLevel(config.Logging.Verbosity) >= verify.LogLevelDebug {
		pw.Stdout = os.Stderr
		pw.Stderr = os.Stderr
	}
	return launcher, nil
}
