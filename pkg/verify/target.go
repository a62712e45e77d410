package verify

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gobwas/glob"
)

// Target is a page to check: where it lives, the text that proves it
// rendered, and where its screenshot goes.
type Target struct {
	// Name identifies the target in output, e.g. "dashboard"
	Name string `yaml:"name" json:"name"`

	// Path is resolved against the base URL; absolute URLs are used as is
	Path string `yaml:"path" json:"path"`

	// Marker is the text that must become visible on the page
	Marker string `yaml:"marker" json:"marker"`

	// Screenshot is the PNG output path, relative to the working directory
	Screenshot string `yaml:"screenshot" json:"screenshot"`
}

// DefaultTargets returns the dashboard and upload page checks.
func DefaultTargets() []Target {
	return []Target{
		{
			Name:       "dashboard",
			Path:       "/",
			Marker:     "BillScan",
			Screenshot: filepath.Join("verification", "dashboard.png"),
		},
		{
			Name:       "upload page",
			Path:       "/upload",
			Marker:     "Take a Photo",
			Screenshot: filepath.Join("verification", "upload_page.png"),
		},
	}
}

func (t Target) validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(t.Marker) == "" {
		return fmt.Errorf("target %s: marker is required", t.Name)
	}
	if t.Screenshot == "" {
		return fmt.Errorf("target %s: screenshot path is required", t.Name)
	}
	if !strings.EqualFold(filepath.Ext(t.Screenshot), ".png") {
		return fmt.Errorf("target %s: screenshot must be a .png file", t.Name)
	}
	return nil
}

// Title returns the target name with its first letter upper-cased, for
// sentence-initial output such as "Dashboard loaded."
func (t Target) Title() string {
	r, size := utf8.DecodeRuneInString(t.Name)
	if r == utf8.RuneError {
		return t.Name
	}
	return string(unicode.ToUpper(r)) + t.Name[size:]
}

// FilterTargets keeps the targets whose name matches the glob pattern,
// preserving order. An empty pattern keeps every target.
func FilterTargets(targets []Target, pattern string) ([]Target, error) {
	if pattern == "" {
		return targets, nil
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid target pattern %q: %w", pattern, err)
	}

	filtered := make([]Target, 0, len(targets))
	for _, t := range targets {
		if g.Match(t.Name) {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no target matches %q", pattern)
	}
	return filtered, nil
}
