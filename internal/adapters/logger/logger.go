// Package logger implements a logging adapter using log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
)

// LevelVerbose sits between debug and info.
const LevelVerbose = slog.Level(domain.LogLevelVerbose)

// Logger implements ports.Logger using log/slog.
type Logger struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	level    *slog.LevelVar
	jsonMode bool
	output   io.Writer
}

var _ ports.Logger = (*Logger)(nil)

// New creates a new Logger writing pretty output to stderr at info level.
func New() *Logger {
	l := &Logger{level: &slog.LevelVar{}, output: os.Stderr}
	l.rebuild()
	return l
}

// SetOutput updates the logger's output destination.
// If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.rebuild()
}

// SetJSON switches between JSON and pretty logging.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.rebuild()
}

// SetLevel sets the minimum level that is written.
func (l *Logger) SetLevel(level domain.LogLevel) {
	l.level.Set(slog.Level(level))
}

func (l *Logger) rebuild() {
	opts := &slog.HandlerOptions{Level: l.level, ReplaceAttr: replaceLevel}
	var handler slog.Handler
	if l.jsonMode {
		handler = slog.NewJSONHandler(l.output, opts)
	} else {
		handler = NewPrettyHandler(l.output, opts)
	}
	l.logger = slog.New(handler)
}

// replaceLevel names the verbose level in structured output.
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok && level == LevelVerbose {
			a.Value = slog.StringValue(domain.LogLevelVerbose.String())
		}
	}
	return a
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg)
}

// Verbose logs a message shown with --log-level verbose.
func (l *Logger) Verbose(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Log(context.Background(), LevelVerbose, msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error message.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.jsonMode {
		l.logger.Error("operation failed", "error", err)
		return
	}
	l.logger.Error(formatErrorEntries(collectErrorEntries(err)))
}
