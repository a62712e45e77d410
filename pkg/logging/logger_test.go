package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// setupTestDir points the package at a temporary log directory and resets global state
func setupTestDir(t *testing.T) {
	t.Helper()

	reset := func(dir string) {
		if fileWriter != nil {
			_ = fileWriter.Close()
		}
		logDir = dir
		initErr = nil
		initOnce = sync.Once{}
		runID = ""
		runIDOnce = sync.Once{}
		fileWriter = nil
	}

	origLogDir := logDir
	reset(t.TempDir())
	t.Cleanup(func() { reset(origLogDir) })
}

func readLog(t *testing.T, logger *Logger) string {
	t.Helper()

	if err := Close(); err != nil {
		t.Fatalf("Failed to close log writer: %v", err)
	}
	content, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(content)
}

func TestNewLogger(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("verifier")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	if logger.component != "verifier" {
		t.Errorf("Expected component 'verifier', got %q", logger.component)
	}

	if logger.RunID() == "" {
		t.Error("Expected non-empty run ID")
	}

	if filepath.Base(logger.LogPath()) != logFileName {
		t.Errorf("Expected log file %q, got %q", logFileName, logger.LogPath())
	}

	logger.Infof("started")
	if _, err := os.Stat(logger.LogPath()); os.IsNotExist(err) {
		t.Errorf("Log file does not exist at %s", logger.LogPath())
	}
}

func TestLoggerFormatting(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Debugf("Debug message %d", 123)
	logger.Infof("Info message")
	logger.Warnf("Warning message")
	logger.Errorf("Error message")

	logContent := readLog(t, logger)

	expectedPatterns := []string{
		"[test] [DEBUG] Debug message 123",
		"[test] [INFO] Info message",
		"[test] [WARN] Warning message",
		"[test] [ERROR] Error message",
		"[" + shortID(logger.RunID()) + "]",
	}

	for _, pattern := range expectedPatterns {
		if !strings.Contains(logContent, pattern) {
			t.Errorf("Log content missing expected pattern: %q\nContent:\n%s", pattern, logContent)
		}
	}
}

func TestMultipleComponents(t *testing.T) {
	setupTestDir(t)

	logger1, err := NewLogger("component1")
	if err != nil {
		t.Fatalf("Failed to create logger1: %v", err)
	}

	logger2, err := NewLogger("component2")
	if err != nil {
		t.Fatalf("Failed to create logger2: %v", err)
	}

	// They should share the same run ID and log file
	if logger1.RunID() != logger2.RunID() {
		t.Errorf("Expected same run ID, got %q and %q", logger1.RunID(), logger2.RunID())
	}

	if logger1.LogPath() != logger2.LogPath() {
		t.Errorf("Expected same log path, got %q and %q", logger1.LogPath(), logger2.LogPath())
	}

	logger1.Infof("Message from component1")
	logger2.Infof("Message from component2")

	logContent := readLog(t, logger1)

	if !strings.Contains(logContent, "[component1]") {
		t.Error("Log missing component1 entries")
	}
	if !strings.Contains(logContent, "[component2]") {
		t.Error("Log missing component2 entries")
	}
}

func TestConcurrentWrites(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("concurrent")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Infof("line %d", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(readLog(t, logger)), "\n")
	if len(lines) != 20 {
		t.Errorf("Expected 20 log lines, got %d", len(lines))
	}
}

func TestGetRunID(t *testing.T) {
	setupTestDir(t)

	id1 := GetRunID()
	id2 := GetRunID()

	if id1 != id2 {
		t.Errorf("Expected consistent run ID, got %q and %q", id1, id2)
	}

	if !strings.Contains(id1, "-") {
		t.Errorf("Expected UUID formatted run ID, got %q", id1)
	}
}

func TestGetLogDirectory(t *testing.T) {
	setupTestDir(t)

	dir, err := GetLogDirectory()
	if err != nil {
		t.Fatalf("Failed to get log directory: %v", err)
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Log directory does not exist or is not a directory: %s", dir)
	}
}

func TestFallbackLogger(t *testing.T) {
	setupTestDir(t)

	// A regular file where the directory should be forces the fallback
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	logDir = filepath.Join(blocker, "logs")

	logger, err := NewLogger("fallback")
	if err == nil {
		t.Fatal("Expected an error when the log directory cannot be created")
	}
	if logger == nil {
		t.Fatal("Expected a fallback logger")
	}
	if logger.LogPath() != "" {
		t.Errorf("Expected empty log path in fallback mode, got %q", logger.LogPath())
	}
}

func TestCloseIsRepeatable(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	logger.Infof("before close")

	if err := Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}

	// lumberjack reopens on the next write
	logger.Infof("after close")
	if !strings.Contains(readLog(t, logger), "after close") {
		t.Error("Expected write after close to reopen the log file")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard("quiet")
	logger.Infof("dropped %s", "entry")
	if logger.LogPath() != "" {
		t.Errorf("Expected no log path for discard logger, got %q", logger.LogPath())
	}
}
