// Package logging wraps log/slog with the service-identity attributes Turbo
// attaches to every log line (service name, environment) so lifecycle,
// registration, and request-error events are consistently structured.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is a thin, concurrency-safe wrapper around *slog.Logger.
type Logger struct {
	slogger *slog.Logger
}

// Option configures a Logger.
type Option func(*options)

type options struct {
	output      io.Writer
	level       slog.Level
	json        bool
	serviceName string
	environment string
}

// WithOutput sets the destination writer. Default os.Stdout.
func WithOutput(w io.Writer) Option { return func(o *options) { o.output = w } }

// WithLevel sets the minimum enabled level. Default slog.LevelInfo.
func WithLevel(l slog.Level) Option { return func(o *options) { o.level = l } }

// WithJSON switches the handler to JSON output. Default is text.
func WithJSON(enabled bool) Option { return func(o *options) { o.json = enabled } }

// WithService attaches service-name and environment attributes to every
// record emitted by the logger.
func WithService(name, environment string) Option {
	return func(o *options) { o.serviceName = name; o.environment = environment }
}

// New builds a Logger from the given options.
func New(opts ...Option) *Logger {
	o := &options{output: os.Stdout, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}
	var handler slog.Handler
	if o.json {
		handler = slog.NewJSONHandler(o.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(o.output, handlerOpts)
	}

	l := slog.New(handler)
	if o.serviceName != "" {
		l = l.With("service", o.serviceName)
	}
	if o.environment != "" {
		l = l.With("environment", o.environment)
	}

	return &Logger{slogger: l}
}

// Noop returns a Logger that discards everything; router.New uses it when
// no logger is installed.
func Noop() *Logger {
	return &Logger{slogger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if l.slogger.Enabled(ctx, level) {
		l.slogger.Log(ctx, level, msg, args...)
	}
}

// Slog returns the underlying *slog.Logger for callers that need direct
// access (e.g. to pass into a library that expects one).
func (l *Logger) Slog() *slog.Logger { return l.slogger }
