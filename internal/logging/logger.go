package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/lmittmann/tint"

	"github.com/backmassage/calcanim/internal/config"
	"github.com/backmassage/calcanim/internal/term"
)

// Logger provides leveled printf-style logging on top of slog. Console
// output goes through tint on stderr; an optional file sink receives plain
// text records. Safe for concurrent use.
type Logger struct {
	base    *slog.Logger
	closer  *fileSink
	verbose bool
}

type fileSink struct {
	mu sync.Mutex
	f  *os.File
}

func (s *fileSink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// New builds the process logger from cfg: colors resolved through
// term.Configure, DEBUG enabled by cfg.Verbose, and cfg.LogFile (if set)
// opened for append. Call Close when done.
func New(cfg *config.Config) (*Logger, error) {
	color := term.Configure(cfg.ColorMode)
	opts := &tint.Options{
		Level:      level(cfg.Verbose),
		TimeFormat: "15:04:05",
		NoColor:    !color,
	}
	handlers := []slog.Handler{tint.NewHandler(os.Stderr, opts)}

	var sink *fileSink
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		sink = &fileSink{f: f}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level(cfg.Verbose)}))
	}

	return &Logger{
		base:    slog.New(fanout(handlers)),
		closer:  sink,
		verbose: cfg.Verbose,
	}, nil
}

// NewWriter returns a logger writing plain text records to w.
func NewWriter(w io.Writer, verbose bool) *Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return &Logger{base: slog.New(h), verbose: verbose}
}

// Discard returns a logger that drops everything.
func Discard() *Logger { return NewWriter(io.Discard, false) }

func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Close closes the log file if one was opened. Loggers derived with With
// share the file; close only the root.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.close()
}

// Verbose reports whether DEBUG records are emitted.
func (l *Logger) Verbose() bool { return l.verbose }

// Slog exposes the underlying structured logger.
func (l *Logger) Slog() *slog.Logger { return l.base }

// With returns a logger that adds the given key/value pairs to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{base: l.base.With(args...), closer: l.closer, verbose: l.verbose}
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...any) {
	l.base.Info(fmt.Sprintf(format, args...))
}

// Success logs a completed step at INFO level, tagged ok=true.
func (l *Logger) Success(format string, args ...any) {
	l.base.Info(fmt.Sprintf(format, args...), slog.Bool("ok", true))
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...any) {
	l.base.Warn(fmt.Sprintf(format, args...))
}

// Error logs at ERROR level.
func (l *Logger) Error(format string, args ...any) {
	l.base.Error(fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level; dropped unless verbose.
func (l *Logger) Debug(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.base.Debug(fmt.Sprintf(format, args...))
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, lvl slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, lvl) {
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
