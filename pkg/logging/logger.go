// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging for resilience components.
//
// The package wraps Go's standard library slog package with the
// conventions shared by Aleutian services:
//
//   - Default: stderr output for CLI compatibility (follows Unix conventions)
//   - Every entry carries a "service" attribute identifying the component
//   - Text format for humans, JSON format for machine processing
//
// # Basic Usage
//
// For simple CLI usage with stderr output:
//
//	logger := logging.Default()
//	logger.Info("monitor started", "interval", interval)
//	logger.Error("check failed", "service", name, "error", err)
//
// Components receive a *Logger by injection; there is no package-level
// global logger. Tests pass logging.Discard() to silence output.
//
// # Log Levels
//
// Four levels are supported, matching slog conventions:
//
//   - Debug: Development troubleshooting, verbose output
//   - Info: Normal operations (level transitions, monitor cycles)
//   - Warn: Recoverable issues (retry attempts, fallback engaged)
//   - Error: Operation failures (but system continues)
//
// # Thread Safety
//
// Logger is safe for concurrent use; the underlying slog.Logger is
// thread-safe.
//
// # Security Considerations
//
// This package does NOT automatically redact sensitive data. Callers must
// ensure tokens and secrets are not logged (health-check headers in
// particular must never be passed as attributes).
package logging

import (
	"io"
	"log/slog"
	"os"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity levels.
//
// Levels follow the slog convention and are ordered by severity:
// Debug < Info < Warn < Error. Setting a minimum level filters out all
// logs below that level.
type Level int

const (
	// LevelDebug is for development troubleshooting.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages.
	LevelInfo

	// LevelWarn is for potentially problematic situations.
	LevelWarn

	// LevelError is for error conditions the system survives.
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

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger behavior.
//
// All fields have sensible defaults. A zero-value Config creates a logger
// that writes Info+ messages to stderr in text format.
type Config struct {
	// Level sets the minimum log level.
	// Messages below this level are discarded. Default: LevelInfo.
	Level Level

	// Service identifies the component generating logs.
	//
	// Included in every entry as the "service" attribute so aggregated
	// logs can be filtered by component.
	// Recommended values: "health", "degradation", "monitor".
	// Default: "" (no service attribute).
	Service string

	// JSON enables JSON output format.
	//
	// When true, entries are JSON objects (machine-parseable).
	// When false, entries are human-readable text.
	// Default: false.
	JSON bool

	// Output overrides the destination writer.
	//
	// Default: os.Stderr. Tests typically pass a bytes.Buffer.
	Output io.Writer
}

// =============================================================================
// Logger
// =============================================================================

// Logger is a structured logger for resilience components.
//
// Construct with New or Default and pass by injection. The zero value is
// not usable; a nil *Logger is not safe to call.
type Logger struct {
	slog *slog.Logger
}

// New creates a Logger from the given configuration.
//
// Inputs:
//   - cfg: Logger configuration. Zero value is valid.
//
// Outputs:
//   - *Logger: Ready-to-use logger.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level.toSlogLevel()}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	l := slog.New(handler)
	if cfg.Service != "" {
		l = l.With("service", cfg.Service)
	}

	return &Logger{slog: l}
}

// Default returns a logger writing Info+ text entries to stderr.
func Default() *Logger {
	return New(Config{})
}

// Discard returns a logger that drops every entry. Intended for tests.
func Discard() *Logger {
	return New(Config{Output: io.Discard, Level: LevelError + 1})
}

// With returns a Logger that includes the given attributes in every entry.
//
// Example:
//
//	opLog := logger.With("component", "memory_system")
//	opLog.Warn("primary failed", "error", err)
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

// Debug logs at debug level with key-value attributes.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs at info level with key-value attributes.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs at warn level with key-value attributes.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs at error level with key-value attributes.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}
