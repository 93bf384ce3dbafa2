// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package app

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// SetupLogger configures the global slog logger.
func SetupLogger(w io.Writer, level, format string) {
	slog.SetDefault(slog.New(NewLogHandler(w, level, format)))
}

// NewLogHandler returns a JSON handler for format "json" and a tint handler otherwise.
func NewLogHandler(w io.Writer, level, format string) slog.Handler {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})
	}
	return tint.NewHandler(w, &tint.Options{Level: logLevel})
}
