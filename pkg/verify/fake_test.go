package verify

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/entrhq/pagecheck/pkg/browser"
)

// fakeLauncher hands out a single fakeSession and records launches.
type fakeLauncher struct {
	session   *fakeSession
	launchErr error
	launches  int
	opts      browser.SessionOptions
}

func (l *fakeLauncher) Launch(ctx context.Context, opts browser.SessionOptions) (browser.Session, error) {
	l.launches++
	l.opts = opts
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.session, nil
}

// fakeSession simulates a page. Console messages and page errors queued per
// URL are emitted during Navigate, like a page logging while it loads.
type fakeSession struct {
	mu sync.Mutex

	navigateErr   map[string]error
	waitErr       map[string]error
	screenshotErr map[string]error
	panicOnWait   map[string]bool
	consoleByURL  map[string][]string
	pageErrByURL  map[string][]error
	invalidPNG    bool

	onConsole   []func(browser.ConsoleMessage)
	onPageError []func(error)

	current     string
	navigated   []string
	waited      []string
	screenshots []string
	closeCount  int
	closeErr    error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		navigateErr:   map[string]error{},
		waitErr:       map[string]error{},
		screenshotErr: map[string]error{},
		panicOnWait:   map[string]bool{},
		consoleByURL:  map[string][]string{},
		pageErrByURL:  map[string][]error{},
	}
}

func (s *fakeSession) Navigate(url string, _ browser.NavigateOptions) error {
	s.mu.Lock()
	s.navigated = append(s.navigated, url)
	s.current = url
	err := s.navigateErr[url]
	console := s.consoleByURL[url]
	pageErrs := s.pageErrByURL[url]
	consoleHandlers := append([]func(browser.ConsoleMessage){}, s.onConsole...)
	errorHandlers := append([]func(error){}, s.onPageError...)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	for _, text := range console {
		for _, h := range consoleHandlers {
			h(browser.ConsoleMessage{Type: "log", Text: text})
		}
	}
	for _, pe := range pageErrs {
		for _, h := range errorHandlers {
			h(pe)
		}
	}
	return nil
}

func (s *fakeSession) WaitForText(text string, _ browser.WaitOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waited = append(s.waited, text)
	if s.panicOnWait[s.current] {
		panic("driver crashed")
	}
	return s.waitErr[s.current]
}

func (s *fakeSession) Screenshot(path string, _ browser.ScreenshotOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.screenshotErr[s.current]; err != nil {
		return err
	}
	s.screenshots = append(s.screenshots, path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if s.invalidPNG {
		return os.WriteFile(path, []byte("not a png"), 0644)
	}
	return writeTestPNG(path, 64, 48)
}

func (s *fakeSession) OnConsole(handler func(browser.ConsoleMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConsole = append(s.onConsole, handler)
}

func (s *fakeSession) OnPageError(handler func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPageError = append(s.onPageError, handler)
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCount++
	return s.closeErr
}

func writeTestPNG(path string, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
