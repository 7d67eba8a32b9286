package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Global logger instance and synchronization
var (
	logger   *log.Logger
	loggerMu sync.RWMutex
	logFile  *os.File // Track file handle for cleanup
)

// Config holds logger configuration.
type Config struct {
	Level      string // trace, debug, info, warn, error; defaults to info
	OutputPath string // Empty for stderr, or file path
	Format     string // "json" or "text"
}

// Init configures the global logger. Call once at startup; later calls
// replace the configuration (and close any previously opened log file).
func Init(cfg Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	l := log.New()

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	l.SetLevel(parsed)

	if cfg.Format == "json" {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{DisableLevelTruncation: true})
	}

	var out io.Writer = os.Stderr
	var f *os.File
	if cfg.OutputPath != "" {
		f, err = os.OpenFile(cfg.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	l.SetOutput(out)

	logger = l
	return nil
}

// GetLogger returns the global logger, lazily initializing a default
// (info level, text format, stderr) if Init was never called.
func GetLogger() *log.Logger {
	loggerMu.RLock()
	if logger != nil {
		defer loggerMu.RUnlock()
		return logger
	}
	loggerMu.RUnlock()

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		l := log.New()
		l.SetLevel(log.InfoLevel)
		l.SetFormatter(&log.TextFormatter{DisableLevelTruncation: true})
		logger = l
	}
	return logger
}

// Close releases the log file handle, if any.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}
