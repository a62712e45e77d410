package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName = "pagecheck.log"

	// Rotation limits for the shared log file
	maxLogSizeMB  = 10
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// Logger provides component-tagged debug logging for pagecheck runs.
// All components of a run append to ~/.pagecheck/logs/pagecheck.log, and
// every entry carries the run ID so interleaved runs can be told apart.
//
// All log methods (Debugf, Infof, Warnf, Errorf) write unconditionally.
type Logger struct {
	runID     string
	component string
	logger    *log.Logger
	mu        sync.Mutex
	logPath   string
}

var (
	// Global run ID for the current execution
	runID     string
	runIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory and writer initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error

	// fileWriter is the rotating writer shared by every Logger
	fileWriter *lumberjack.Logger
)

// getRunID returns or creates the run ID for this execution
func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// initLogWriter ensures the log directory exists and opens the rotating writer
func initLogWriter() error {
	initOnce.Do(func() {
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".pagecheck", "logs")
		}

		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}

		fileWriter = &lumberjack.Logger{
			Filename:   filepath.Join(logDir, logFileName),
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
		}
	})
	return initErr
}

// NewLogger creates a new logger for a specific component.
//
// If the log directory cannot be created it returns a fallback logger that
// writes to stderr along with the error. Callers can check the error to
// detect fallback mode.
func NewLogger(component string) (*Logger, error) {
	if err := initLogWriter(); err != nil {
		return newFallbackLogger(component, err), err
	}

	return &Logger{
		runID:     getRunID(),
		component: component,
		logger:    log.New(fileWriter, "", 0), // timestamps are formatted per entry
		logPath:   fileWriter.Filename,
	}, nil
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, fmt.Sprintf("[%s] ", component), log.LstdFlags)
	logger.Printf("WARNING: Failed to initialize file logging: %v", err)
	logger.Printf("Falling back to stderr logging")

	return &Logger{
		runID:     getRunID(),
		component: component,
		logger:    logger,
		logPath:   "",
	}
}

// Discard returns a logger that drops every entry.
func Discard(component string) *Logger {
	return &Logger{
		runID:     getRunID(),
		component: component,
		logger:    log.New(io.Discard, "", 0),
	}
}

// formatLogEntry creates a log entry with timestamp, run, component, and level
func (l *Logger) formatLogEntry(level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s", timestamp, shortID(l.runID), l.component, level, message)
}

func (l *Logger) write(level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	message := fmt.Sprintf(format, v...)
	l.logger.Println(l.formatLogEntry(level, message))
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write("DEBUG", format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write("INFO", format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write("WARN", format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write("ERROR", format, v...)
}

// RunID returns the current run ID
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the path to the log file, empty in fallback mode
func (l *Logger) LogPath() string {
	return l.logPath
}

// GetRunID returns the current global run ID
func GetRunID() string {
	return getRunID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogWriter(); err != nil {
		return "", err
	}
	return logDir, nil
}

// Close flushes and closes the shared log file. Safe to call multiple times;
// a later write reopens the file.
func Close() error {
	if fileWriter == nil {
		return nil
	}
	return fileWriter.Close()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
