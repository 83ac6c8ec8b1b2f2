package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/adampresley/streetview/cmd/website/internal/configuration"
)

func setupLogger(config *configuration.Config, version string) {
	level := slog.LevelInfo

	switch strings.ToLower(config.LogLevel) {
	case "debug":
		level = slog.LevelDebug

	case "warn":
		level = slog.LevelWarn

	case "error":
		level = slog.LevelError
	}

	options := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, options)

	if version == "development" {
		handler = slog.NewTextHandler(os.Stdout, options)
	}

	slog.SetDefault(slog.New(handler).With("app", appName, "version", version))
}
