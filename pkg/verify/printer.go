package verify

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/entrhq/pagecheck/pkg/browser"
)

// LogLevel represents the operator output verbosity level
type LogLevel int

const (
	// LogLevelQuiet shows only errors, page errors and the final summary
	LogLevelQuiet LogLevel = iota
	// LogLevelNormal shows progress and console messages (default)
	LogLevelNormal
	// LogLevelVerbose adds screenshot paths and timings
	LogLevelVerbose
	// LogLevelDebug shows all internal details for debugging
	LogLevelDebug
)

var logLevels = map[string]LogLevel{
	"quiet":   LogLevelQuiet,
	"normal":  LogLevelNormal,
	"verbose": LogLevelVerbose,
	"debug":   LogLevelDebug,
}

// ParseLogLevel converts a verbosity name to a LogLevel, defaulting to normal
func ParseLogLevel(level string) LogLevel {
	if l, ok := logLevels[level]; ok {
		return l
	}
	return LogLevelNormal
}

// Printer writes human-readable progress lines for the operator. It is safe
// for concurrent use: browser drivers deliver console and page errors on
// their own goroutines.
type Printer struct {
	mu     sync.Mutex
	level  LogLevel
	writer io.Writer

	success lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

// NewPrinter creates a printer writing to w. Colors are used only when w is
// a terminal.
func NewPrinter(w io.Writer, level LogLevel) *Printer {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)
	return &Printer{
		level:   level,
		writer:  w,
		success: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		info:    r.NewStyle().Foreground(lipgloss.Color("217")),
		warning: r.NewStyle().Foreground(lipgloss.Color("3")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (p *Printer) println(atLeast LogLevel, line string) {
	if p.level < atLeast {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.writer, line)
}

// Navigating announces a navigation
func (p *Printer) Navigating(t Target) {
	p.println(LogLevelNormal, p.info.Render(fmt.Sprintf("Navigating to %s...", t.Name)))
}

// Loaded reports that a target's marker became visible
func (p *Printer) Loaded(t Target) {
	p.println(LogLevelNormal, fmt.Sprintf("%s loaded.", t.Title()))
}

// ScreenshotSaved confirms a written screenshot
func (p *Printer) ScreenshotSaved(res Result) {
	p.println(LogLevelNormal, p.success.Render(fmt.Sprintf("%s screenshot saved.", res.Target.Title())))
	p.Verbosef("%s (%dx%d, %s)", res.Screenshot, res.Width, res.Height, res.Duration.Round(time.Millisecond))
}

// Console forwards an in-page console message
func (p *Printer) Console(msg browser.ConsoleMessage) {
	p.println(LogLevelNormal, p.muted.Render("Console:")+" "+msg.Text)
}

// PageError forwards an uncaught in-page error
func (p *Printer) PageError(err error) {
	p.println(LogLevelQuiet, p.failure.Render("Page Error:")+" "+err.Error())
}

// Errorf prints an error message
func (p *Printer) Errorf(format string, args ...interface{}) {
	p.println(LogLevelQuiet, p.failure.Render("Error:")+" "+fmt.Sprintf(format, args...))
}

// Warningf prints a warning message
func (p *Printer) Warningf(format string, args ...interface{}) {
	p.println(LogLevelQuiet, p.warning.Render("Warning:")+" "+fmt.Sprintf(format, args...))
}

// Verbosef prints detailed information (only in verbose mode)
func (p *Printer) Verbosef(format string, args ...interface{}) {
	p.println(LogLevelVerbose, p.muted.Render("→ "+fmt.Sprintf(format, args...)))
}

// Debugf prints debug information (only in debug mode)
func (p *Printer) Debugf(format string, args ...interface{}) {
	p.println(LogLevelDebug, p.muted.Render("[DEBUG] "+fmt.Sprintf(format, args...)))
}

// Summary prints the final tally of a run
func (p *Printer) Summary(r *Report) {
	passed, failed, skipped := r.Counts()

	var b strings.Builder
	b.WriteString("Summary: ")
	b.WriteString(fmt.Sprintf("%d passed, %d failed, %d skipped", passed, failed, skipped))
	b.WriteString(fmt.Sprintf(" in %s", r.Duration.Round(time.Millisecond)))

	style := p.success
	if !r.Succeeded() {
		style = p.failure
	}
	p.println(LogLevelQuiet, style.Render(b.String()))
}
