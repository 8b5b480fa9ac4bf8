// Package logging provides the leveled, structured logger used across dir-archiver.
// Messages take slog-style key/value pairs: log.Error("copy failed", "path", p, "error", err).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options select level ("debug", "info", "warn", "error"), format ("text", "json")
// and an optional file that receives a copy of every record.
type Options struct {
	Level  string
	Format string
	File   string
}

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	l *slog.Logger
}

func (s SlogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s SlogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s SlogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s SlogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// With returns a logger that adds args to every record.
func (s SlogLogger) With(args ...any) SlogLogger { return SlogLogger{l: s.l.With(args...)} }

// New builds a logger writing to stderr and, when opts.File is set, appending to that file.
// The returned closer releases the file and is safe to call when no file was opened.
func New(opts Options) (SlogLogger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return SlogLogger{}, nil, err
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return SlogLogger{}, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return SlogLogger{}, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closer = f
	}

	return NewWriter(out, opts.Format, level), closer, nil
}

// NewWriter builds a logger on an arbitrary writer.
func NewWriter(w io.Writer, format string, level slog.Level) SlogLogger {
	ho := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, ho)
	} else {
		h = slog.NewTextHandler(w, ho)
	}
	return SlogLogger{l: slog.New(h)}
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// Discard drops everything. Handy in tests.
func Discard() Logger {
	return NewWriter(io.Discard, "text", slog.LevelError+1)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
