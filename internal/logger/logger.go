// Package logger configures the process-wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Configure sets slog's default logger.
//
// level is one of none, error, warn, info or debug. With an empty file the logger writes text
// to stdout, otherwise JSON to the truncated file, which is returned and must be closed by the
// caller. "none" discards everything.
func Configure(level, file string, opts slog.HandlerOptions) (*os.File, error) {
	switch strings.ToLower(level) {
	case "none":
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

		return nil, nil
	case "error":
		opts.Level = slog.LevelError
	case "warn":
		opts.Level = slog.LevelWarn
	case "info":
		opts.Level = slog.LevelInfo
	case "debug":
		opts.Level = slog.LevelDebug
	default:
		return nil, fmt.Errorf("unexpected log level %q", level)
	}

	if file == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &opts)))

		return nil, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &opts)))

	return f, nil
}
