// Package log wraps log/slog with component-tagged loggers, request-scoped
// loggers carried in the context and a few structured log helpers.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger tagged with the component that owns it.
type Logger struct {
	*slog.Logger
	// base carries every attribute except the component
	base      *slog.Logger
	component string
}

// Config holds logger configuration. Handler wins over Format and Output.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
	// Format is "text" (default) or "json"
	Format string
	Output io.Writer
}

// DefaultConfig returns sensible defaults for logging
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Format:    "text",
		Output:    os.Stdout,
	}
}

// New creates a new logger with the given configuration
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		handler = NewHandler(config.Format, out, config.Level)
	}
	return newLogger(slog.New(handler), config.Component)
}

func newLogger(base *slog.Logger, component string) *Logger {
	l := &Logger{Logger: base, base: base, component: component}
	if component != "" {
		l.Logger = base.With(FieldComponent, component)
	}
	return l
}

// NewHandler builds a text or JSON handler writing to w.
func NewHandler(format string, w io.Writer, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything
// else is info.
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

// With returns a new logger with the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		base:      l.base.With(args...),
		component: l.component,
	}
}

// WithComponent returns a logger sharing l's attributes under another component.
func (l *Logger) WithComponent(component string) *Logger {
	return newLogger(l.base, component)
}

// Component returns the logger's component name
func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs logger's handler as the slog default. Plain slog
// calls carry no component; they add their own when they need one.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.base)
}
