// Package log builds the process loggers on top of slog and holds the
// field and component names shared across subsystems.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger bound to one component. The component attribute
// is attached once at construction, so records carry it without per-call
// plumbing.
type Logger struct {
	*slog.Logger
	base *slog.Logger
}

// Config controls handler construction. A nil Output means stdout.
type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer
}

// New builds a text-handler logger for the given component.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	base := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level}))
	bound := base
	if cfg.Component != "" {
		bound = base.With(FieldComponent, cfg.Component)
	}
	return &Logger{Logger: bound, base: base}
}

// SetDefault routes the package-level slog helpers through this logger's
// handler. The component attribute is deliberately left off so subsystems
// can attach their own with ForComponent.
func SetDefault(l *Logger) {
	slog.SetDefault(l.base)
}

// ForComponent derives a subsystem logger from the process default.
func ForComponent(component string) *slog.Logger {
	return slog.Default().With(FieldComponent, component)
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to Info.
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
