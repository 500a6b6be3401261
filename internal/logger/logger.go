// Package logger provides a small structured logging facade over log/slog
// with request-scoped context plumbing.
package logger

import (
	"context"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel converts a string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN", "warning":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field  { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger is the logging interface handed to services and middleware.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger with the fields attached to every entry.
	With(fields ...Field) Logger
	// WithContext returns a child logger carrying request_id/user_id from ctx.
	WithContext(ctx context.Context) Logger
}

// Config holds logging configuration.
type Config struct {
	Level  Level
	Format string // "json" or "text"
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Format: "json"}
}

var defaultLogger Logger

// SetDefault installs the process-wide default logger.
func SetDefault(l Logger) {
	defaultLogger = l
}

// Default returns the process-wide default logger, initializing a JSON
// slog logger on first use.
func Default() Logger {
	if defaultLogger == nil {
		defaultLogger = NewSlogLogger(DefaultConfig())
	}
	return defaultLogger
}
