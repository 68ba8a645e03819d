// Package logger provides the structured logger of the CLI. The core
// packages never log; they return errors and leave reporting to callers.
package logger

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Logger interface for structured logging
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// slogLogger wraps slog.Logger to implement our Logger interface
type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *slogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *slogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// Setup creates a structured logger based on configuration. The JSON_LOGGER
// environment variable forces JSON output regardless of format.
func Setup(level, format string) Logger {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}

	// Logs go to stderr so command output on stdout stays parseable.
	var handler slog.Handler
	if useJSON(format) {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return &slogLogger{
		logger: slog.New(handler),
	}
}

// useJSON reports whether the format or a truthy JSON_LOGGER environment
// variable ("true", "1", "TRUE", ...) selects JSON output.
func useJSON(format string) bool {
	if strings.ToLower(format) == "json" {
		return true
	}
	v, err := strconv.ParseBool(os.Getenv("JSON_LOGGER"))
	return err == nil && v
}
