package syncbox

import (
	"context"
	"log/slog"
)

// Logger provides structured logging hooks.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...any)
	// Info logs an informational message.
	Info(msg string, args ...any)
	// Warn logs a warning message.
	Warn(msg string, args ...any)
	// Error logs an error message.
	Error(msg string, args ...any)
}

// NopLogger is a no-op logger.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Warn implements Logger.
func (NopLogger) Warn(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, ...any) {}

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	L *slog.Logger
}

// Debug implements Logger.
func (s SlogLogger) Debug(msg string, args ...any) {
	s.L.Log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info implements Logger.
func (s SlogLogger) Info(msg string, args ...any) {
	s.L.Log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn implements Logger.
func (s SlogLogger) Warn(msg string, args ...any) {
	s.L.Log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error implements Logger.
func (s SlogLogger) Error(msg string, args ...any) {
	s.L.Log(context.Background(), slog.LevelError, msg, args...)
}
