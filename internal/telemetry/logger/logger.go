package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (json, text).
	Format string
	// Output is the output writer (defaults to os.Stderr). Wrap it with
	// NewAsyncWriter to keep logging off the reactor goroutine.
	Output io.Writer
}

// levels maps accepted level names to slog levels. The first name of each
// level is the canonical one reported by GetLevel.
var levels = []struct {
	names []string
	level slog.Level
}{
	{[]string{"debug"}, slog.LevelDebug},
	{[]string{"info"}, slog.LevelInfo},
	{[]string{"warn", "warning"}, slog.LevelWarn},
	{[]string{"error"}, slog.LevelError},
}

// globalLevel is shared by every logger built with New, so SetLevel takes
// effect without rebuilding them.
var globalLevel = new(slog.LevelVar)

type slogLogger struct {
	*slog.Logger
}

// New creates a logger writing to cfg.Output.
func New(cfg Config) (Logger, error) {
	globalLevel.Set(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: globalLevel,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		h = slog.NewTextHandler(out, opts)
	default:
		h = slog.NewJSONHandler(out, opts)
	}
	return slogLogger{slog.New(h)}, nil
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return slogLogger{slog.New(slog.DiscardHandler)}
}

func (l slogLogger) With(args ...any) Logger {
	return slogLogger{l.Logger.With(args...)}
}

// SetLevel changes the level of every logger built with New. Unknown names
// select info.
func SetLevel(level string) {
	globalLevel.Set(parseLevel(level))
}

// GetLevel returns the current level name.
func GetLevel() string {
	cur := globalLevel.Level()
	for _, l := range levels {
		if l.level == cur {
			return l.names[0]
		}
	}
	return "info"
}

// ValidLevel reports whether level is a recognized level name.
func ValidLevel(level string) bool {
	_, ok := lookupLevel(level)
	return ok
}

func lookupLevel(name string) (slog.Level, bool) {
	name = strings.ToLower(name)
	for _, l := range levels {
		for _, n := range l.names {
			if n == name {
				return l.level, true
			}
		}
	}
	return slog.LevelInfo, false
}

func parseLevel(name string) slog.Level {
	lvl, _ := lookupLevel(name)
	return lvl
}

var defaultLogger atomic.Value // Logger

func init() {
	l, _ := New(Config{Level: "info", Format: "json"})
	defaultLogger.Store(&l)
}

// SetDefault replaces the logger returned by Default and FromContext.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger.Store(&l)
	}
}

// Default returns the process-wide logger.
func Default() Logger {
	return *defaultLogger.Load().(*Logger)
}
