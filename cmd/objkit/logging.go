package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/c360/objkit/env"
)

func setupLogger(w io.Writer, level, format string) *slog.Logger {
	logLevel := env.ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug,
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(
		"service", appName,
		"version", Version,
		"pid", os.Getpid(),
	)
}
