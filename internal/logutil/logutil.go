// Package logutil builds the structured logger used by the daemon.
package logutil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 5
	maxBackups = 3
	maxAgeDays = 28
)

// Options configure New.
type Options struct {
	// Path is the log file. Rotated files are kept next to it.
	Path  string
	Level string
	// Mirror receives a human readable copy of every record when set.
	Mirror io.Writer
}

// ParseLevel maps a config value to a level. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	var l slog.Level

	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}

	return l
}

// New returns a logger writing JSON records to a rotating file, and the
// closer for that file.
func New(opts Options) (*slog.Logger, io.Closer) {
	rotator := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}

	level := ParseLevel(opts.Level)

	var h slog.Handler = slog.NewJSONHandler(rotator, &slog.HandlerOptions{
		Level: level,
	})

	if opts.Mirror != nil {
		h = fanout{h, slog.NewTextHandler(opts.Mirror, &slog.HandlerOptions{Level: level})}
	}

	return slog.New(h), rotator
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError + 1,
	}))
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}

	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error

	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}

	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}

	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}

	return out
}
