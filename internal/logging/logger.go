package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/jengzang/measurement-map-go/internal/config"
)

// New builds the application logger: colourised text in development and
// JSON in production.
func New(cfg *config.Config, version, appName string) *slog.Logger {
	return newLogger(os.Stdout, cfg, version, appName)
}

// Setup installs the logger as the slog default, which also routes the
// standard log package through it.
func Setup(cfg *config.Config, version, appName string) *slog.Logger {
	logger := New(cfg, version, appName)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg *config.Config, version, appName string) *slog.Logger {
	level := ParseLevel(cfg.LogLevel)

	if !cfg.IsProduction() {
		h := tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  false,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.Env,
	)
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
