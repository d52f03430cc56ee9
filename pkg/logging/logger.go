// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for Lifeboat components.
//
// The logging system is built on Go's standard library slog package.
// The default configuration writes human-readable text to stderr;
// services enable JSON output for machine processing.
//
// # Basic Usage
//
//	logger := logging.Default()
//	logger.Info("ask received", "request_id", reqID)
//	logger.Error("primitive failed", "primitive", name, "error", err)
//
// # Log Levels
//
// Four levels are supported, matching slog conventions:
//
//   - Debug: Development troubleshooting, verbose output
//   - Info: Normal operations (request start/end, state transitions)
//   - Warn: Recoverable issues (agent retries, degraded mode)
//   - Error: Operation failures (but system continues)
//
// # Thread Safety
//
// Logger is safe for concurrent use. The underlying slog.Logger is
// thread-safe.
//
// # Security Considerations
//
// This package does NOT automatically redact sensitive data.
// Callers must ensure API keys are not logged:
//
//	// BAD: logs sensitive data
//	logger.Info("ask", "api_key", key)
//
//	// GOOD: log metadata only
//	logger.Info("ask", "api_key_present", key != "")
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Level represents log severity levels.
//
// Levels follow the slog convention and are ordered by severity:
// Debug < Info < Warn < Error. Setting a minimum level filters out
// all logs below that level.
type Level int

const (
	// LevelDebug is for development troubleshooting.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages.
	LevelInfo

	// LevelWarn is for potentially problematic situations.
	LevelWarn

	// LevelError is for error conditions.
	LevelError
)

// String returns the human-readable name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel converts our Level to slog.Level.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures the Logger behavior.
//
// All fields have sensible defaults. A zero-value Config creates a
// logger that writes Info+ messages to stderr in text format.
type Config struct {
	// Level sets the minimum log level.
	//
	// Messages below this level are discarded.
	// Default: LevelInfo
	Level Level

	// Service identifies the component generating logs.
	//
	// This value is included in every log entry as the "service"
	// attribute. Recommended values: "orchestrator", "agent".
	// Default: "" (no service attribute)
	Service string

	// JSON enables JSON output format.
	//
	// When true, logs are formatted as JSON objects. When false,
	// logs are formatted as human-readable text.
	// Default: false (text format)
	JSON bool

	// Writer overrides the output destination.
	//
	// Default: os.Stderr
	Writer io.Writer
}

// Logger provides structured logging for Lifeboat services.
//
// Logger wraps slog.Logger and adds the service attribute and
// level management.
//
// Thread Safety: Logger is safe for concurrent use.
type Logger struct {
	slogger *slog.Logger
}

// New creates a Logger from the given configuration.
//
// Inputs:
//
//	cfg - Logger configuration (zero value is valid)
//
// Outputs:
//
//	*Logger - The configured logger
func New(cfg Config) *Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level.toSlogLevel()}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slogger := slog.New(handler)
	if cfg.Service != "" {
		slogger = slogger.With("service", cfg.Service)
	}

	return &Logger{slogger: slogger}
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// Default returns the shared default logger.
//
// The default logger writes Info+ messages to stderr in text format.
// It is created lazily on first use.
//
// Thread Safety: This function is safe for concurrent use.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(Config{})
	})
	return defaultLogger
}

// Debug logs a message at debug level with key-value attributes.
func (l *Logger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

// Info logs a message at info level with key-value attributes.
func (l *Logger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

// Warn logs a message at warn level with key-value attributes.
func (l *Logger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

// Error logs a message at error level with key-value attributes.
func (l *Logger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// With returns a Logger that includes the given attributes in every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slogger: l.slogger.With(args...)}
}

// Slog exposes the underlying slog.Logger for libraries that expect it.
func (l *Logger) Slog() *slog.Logger {
	return l.slogger
}
