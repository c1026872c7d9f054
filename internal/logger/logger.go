// Package logger holds the process-wide slog logger. It writes to stderr so
// command output on stdout stays clean for piping.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	level  slog.LevelVar
	format string    = "text"
	out    io.Writer = os.Stderr
	base   *slog.Logger
)

func init() {
	base = build()
}

// build must be called with mu held (or before any concurrent use).
func build() *slog.Logger {
	opts := &slog.HandlerOptions{Level: &level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// Configure applies LOG_LEVEL and LOG_FORMAT ("text" or "json"). On error
// the logger is left unchanged.
func Configure(levelName, formatName string) error {
	lvl, err := ParseLevel(levelName)
	if err != nil {
		return err
	}
	f := strings.ToLower(strings.TrimSpace(formatName))
	if f == "" {
		f = "text"
	}
	if f != "text" && f != "json" {
		return fmt.Errorf("unsupported log format: %s", formatName)
	}

	mu.Lock()
	defer mu.Unlock()
	level.Set(lvl)
	format = f
	base = build()
	return nil
}

// ParseLevel maps debug|info|warn|error to a slog level; blank means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %s", name)
	}
}

func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	mu.Lock()
	defer mu.Unlock()
	out = w
	base = build()
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// With returns a logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

func Debugf(format string, v ...any) {
	current().Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...any) {
	current().Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	current().Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...any) {
	current().Error(fmt.Sprintf(format, v...))
}
