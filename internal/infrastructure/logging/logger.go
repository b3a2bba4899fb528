// Package logging builds the runtime logger used by the CLI and handlers.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	charmLog "github.com/charmbracelet/log"

	"github.com/ersonp/activity-core/internal/infrastructure/config"
)

// Logger fans log events to a styled console sink and an optional logfmt file sink.
type Logger struct {
	sinks     []*charmLog.Logger
	closeFile func() error
	filePath  string
}

// New configures log sinks from the logging config.
// An empty level means info. A relative file path is resolved against basePath.
func New(stderr io.Writer, basePath string, cfg config.LoggingConfig) (*Logger, error) {
	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := charmLog.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parsing logging level %q: %w", cfg.Level, err)
	}

	if stderr == nil {
		stderr = io.Discard
	}

	console := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          "activity",
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &Logger{sinks: []*charmLog.Logger{console}}
	if cfg.File == "" {
		return logger, nil
	}

	path := cfg.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(basePath, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	// File output stays unstyled so it can be grepped and parsed.
	logger.sinks = append(logger.sinks, charmLog.NewWithOptions(file, charmLog.Options{
		Level:           level,
		Prefix:          "activity",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	}))
	logger.closeFile = file.Close
	logger.filePath = path

	return logger, nil
}

// FilePath returns the active log file path, or "" when logging to console only.
func (l *Logger) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Close closes the optional file sink.
func (l *Logger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// Debug logs a debug event to all sinks.
func (l *Logger) Debug(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		sink.Debug(msg, keyvals...)
	}
}

// Info logs an informational event to all sinks.
func (l *Logger) Info(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		sink.Info(msg, keyvals...)
	}
}

// Warn logs a warning event to all sinks.
func (l *Logger) Warn(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		sink.Warn(msg, keyvals...)
	}
}

// Error logs an error event to all sinks.
func (l *Logger) Error(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		sink.Error(msg, keyvals...)
	}
}
