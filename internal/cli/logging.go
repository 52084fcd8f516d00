package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// setupLogging installs the default slog logger. The returned func closes the
// log file, if one was opened.
func setupLogging(level, format, file string, stderr io.Writer) (func() error, error) {
	opts := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(level),
	}
	w, closeLog := configureLogWriter(file, stderr)

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json", "":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		_ = closeLog()
		return nil, fmt.Errorf("unknown log format %q (expected json or text)", format)
	}
	slog.SetDefault(slog.New(handler))
	return closeLog, nil
}

func configureLogWriter(file string, stderr io.Writer) (io.Writer, func() error) {
	noop := func() error { return nil }
	if file == "" {
		return stderr, noop
	}
	// Create parent directories if they don't exist
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		fmt.Fprintf(stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", file, err)
		return stderr, noop
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(stderr, "failed to open log file '%s': %v; falling back to stderr\n", file, err)
		return stderr, noop
	}
	return f, f.Close
}

func logLevelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
