package splash

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with collector-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithRank adds the process rank to the logger.
func (l *Logger) WithRank(rank int) *Logger {
	return &Logger{
		Logger: l.Logger.With("rank", rank),
	}
}

// WithID adds an iteration id field to the logger.
func (l *Logger) WithID(id uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("id", id),
	}
}

// WithName adds a dataset name field to the logger.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("name", name),
	}
}

// LogOpen logs an open of the collector.
func (l *Logger) LogOpen(ctx context.Context, base string, access AccessType, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"base", base,
			"access", access.String(),
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "opened",
			"base", base,
			"access", access.String(),
		)
	}
}

// LogClose logs a close of the collector.
func (l *Logger) LogClose(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "closed")
	}
}

// LogWrite logs a dataset write.
func (l *Logger) LogWrite(ctx context.Context, id uint32, name string, elements uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"id", id,
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "write completed",
			"id", id,
			"name", name,
			"elements", elements,
		)
	}
}

// LogRead logs a dataset read.
func (l *Logger) LogRead(ctx context.Context, id uint32, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed",
			"id", id,
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "read completed",
			"id", id,
			"name", name,
		)
	}
}

// LogAttribute logs an attribute access. write is false for reads.
func (l *Logger) LogAttribute(ctx context.Context, id uint32, name string, write bool, err error) {
	op := "read"
	if write {
		op = "write"
	}
	if err != nil {
		l.ErrorContext(ctx, "attribute "+op+" failed",
			"id", id,
			"attribute", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "attribute "+op+" completed",
			"id", id,
			"attribute", name,
		)
	}
}
