package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"textwatch/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// MaxLogFileSizeMB is the size at which a level file is rotated.
	MaxLogFileSizeMB = 20
	// MaxLogBackups is how many rotated files are kept per level.
	MaxLogBackups = 3
	// MaxLogAgeDays is how long rotated files are kept.
	MaxLogAgeDays = 14
)

// Logger provides leveled logging (info/warning/error) to rotating files and stdout/stderr.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	files      []*lumberjack.Logger
	logDir     string
	mu         sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{
		logDir: config.LogDirectory,
	}

	logger.setupLoggers(os.Stdout, os.Stderr)
	return logger
}

// NewQuiet creates a Logger that writes only to files in dir. Useful for tools and tests.
func NewQuiet(dir string) *Logger {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{logDir: dir}
	logger.setupLoggers(io.Discard, io.Discard)
	return logger
}

// setupLoggers initializes writers and per-level loggers.
func (l *Logger) setupLoggers(stdout, stderr io.Writer) {
	infoFile := l.openLogFile("info.log")
	warningFile := l.openLogFile("warning.log")
	errorFile := l.openLogFile("error.log")

	infoWriter := io.MultiWriter(stdout, infoFile)
	warningWriter := io.MultiWriter(stdout, warningFile)
	errorWriter := io.MultiWriter(stderr, errorFile)

	l.infoLog = log.New(infoWriter, "ℹ️  INFO    ", log.Ldate|log.Ltime|log.Lshortfile)
	l.warningLog = log.New(warningWriter, "⚠️  WARNING ", log.Ldate|log.Ltime|log.Lshortfile)
	l.errorLog = log.New(errorWriter, "❌ ERROR   ", log.Ldate|log.Ltime|log.Lshortfile)
}

// openLogFile returns a rotating writer for a level file.
func (l *Logger) openLogFile(filename string) *lumberjack.Logger {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, filename),
		MaxSize:    MaxLogFileSizeMB,
		MaxBackups: MaxLogBackups,
		MaxAge:     MaxLogAgeDays,
		LocalTime:  true,
	}
	l.files = append(l.files, file)
	return file
}

// Dir returns the directory the level files live in.
func (l *Logger) Dir() string {
	return l.logDir
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Output(2, fmt.Sprintf(format, v...))
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Output(2, fmt.Sprintf(format, v...))
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Output(2, fmt.Sprintf(format, v...))
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) {
	l.mu.Lock()
	err := os.Truncate(filepath.Join(l.logDir, fileName), 0)
	l.mu.Unlock()

	if err != nil {
		l.Error("Error truncating log file %s: %v", fileName, err)
		return
	}
	l.Info("File content has been cleared.")
}

// Close flushes and closes every level file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
