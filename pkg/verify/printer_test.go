package verify

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/entrhq/pagecheck/pkg/browser"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelQuiet, ParseLogLevel("quiet"))
	assert.Equal(t, LogLevelNormal, ParseLogLevel("normal"))
	assert.Equal(t, LogLevelVerbose, ParseLogLevel("verbose"))
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelNormal, ParseLogLevel("shouty"))
}

func TestPrinter_Levels(t *testing.T) {
	target := DefaultTargets()[0]
	result := Result{
		Target:     target,
		Status:     StatusPassed,
		Screenshot: target.Screenshot,
		Width:      1280,
		Height:     2400,
		Duration:   1500 * time.Millisecond,
	}

	emit := func(p *Printer) {
		p.Navigating(target)
		p.Loaded(target)
		p.ScreenshotSaved(result)
		p.Console(browser.ConsoleMessage{Type: "log", Text: "ready"})
		p.PageError(errors.New("boom"))
		p.Errorf("dashboard: %s", "wait failed")
		p.Debugf("internal")
	}

	tests := []struct {
		level   LogLevel
		want    []string
		notWant []string
	}{
		{
			level:   LogLevelQuiet,
			want:    []string{"Page Error: boom", "Error: dashboard: wait failed"},
			notWant: []string{"Navigating to", "Console:", "loaded.", "[DEBUG]"},
		},
		{
			level: LogLevelNormal,
			want: []string{
				"Navigating to dashboard...",
				"Dashboard loaded.",
				"Dashboard screenshot saved.",
				"Console: ready",
				"Page Error: boom",
			},
			notWant: []string{"1280x2400", "[DEBUG]"},
		},
		{
			level:   LogLevelVerbose,
			want:    []string{"1280x2400", "1.5s"},
			notWant: []string{"[DEBUG]"},
		},
		{
			level: LogLevelDebug,
			want:  []string{"[DEBUG] internal"},
		},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		emit(NewPrinter(&buf, tt.level))
		out := buf.String()
		for _, w := range tt.want {
			assert.Contains(t, out, w, "level %d", tt.level)
		}
		for _, nw := range tt.notWant {
			assert.NotContains(t, out, nw, "level %d", tt.level)
		}
	}
}

func TestPrinter_NoColorWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, LogLevelNormal).Errorf("plain")
	assert.Equal(t, "Error: plain\n", buf.String())
}

func TestPrinter_Summary(t *testing.T) {
	report := newReport("run", DefaultTargets())
	report.Results[0].Status = StatusPassed
	report.Results[1].Status = StatusFailed
	report.finish()

	var buf bytes.Buffer
	NewPrinter(&buf, LogLevelQuiet).Summary(report)
	assert.True(t, strings.HasPrefix(buf.String(), "Summary: 1 passed, 1 failed, 0 skipped in "))
}

func TestPrinter_ConcurrentLinesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, LogLevelNormal)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Console(browser.ConsoleMessage{Type: "log", Text: "tick"})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 50)
	for _, line := range lines {
		assert.Equal(t, "Console: tick", line)
	}
}
