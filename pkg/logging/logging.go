package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelFromEnv reads LOG_LEVEL, info when unset or unknown
func LevelFromEnv() slog.Level {
	levelStr := os.Getenv("LOG_LEVEL")

	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs a text handler writing to w as the default logger
func Setup(w io.Writer) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: LevelFromEnv()})))
}
