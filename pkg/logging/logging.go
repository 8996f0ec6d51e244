// Package logging configures the process-wide slog default logger.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the default logger for CLI use. Text output by default,
// JSON when jsonOutput is set. The debug flag wins over LOG_LEVEL.
func Setup(debug, jsonOutput bool) {
	level := levelFromEnv()
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// SetDefaultStructuredLogger installs a JSON logger that stamps every record
// with the service name and version. Intended for long-running servers where
// logs are scraped rather than read. Level comes from LOG_LEVEL.
func SetDefaultStructuredLogger(name, version string) {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})

	logger := slog.New(handler).With(
		slog.String("name", name),
		slog.String("version", version),
	)

	slog.SetDefault(logger)
}

// levelFromEnv parses LOG_LEVEL, defaulting to info.
func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
