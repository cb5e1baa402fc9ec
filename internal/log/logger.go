// Package log wraps go.uber.org/zap with a small Hook mechanism that lets
// callers attach request-scoped fields (trace ID, operation name) to every
// log line without threading them through every call site explicitly.
package log

import (
	"context"

	"go.uber.org/zap"
)

// Field is a structured logging field; a type alias so callers can build
// one with the familiar zap constructors (log.String, log.Int, ...).
type Field = zap.Field

func String(key, val string) Field  { return zap.String(key, val) }
func Int(key string, val int) Field { return zap.Int(key, val) }
func Error(err error) Field         { return zap.Error(err) }

// Hook contributes extra fields to a log entry, derived from its context.
type Hook interface {
	Apply(ctx context.Context, msg string, fields ...Field) []Field
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx context.Context, msg string, fields ...Field) []Field

func (f HookFunc) Apply(ctx context.Context, msg string, fields ...Field) []Field {
	return f(ctx, msg, fields...)
}

// Logger wraps a *zap.Logger and runs every registered Hook before each
// log call, so every line picks up whatever context the caller tagged.
type Logger struct {
	zap   *zap.Logger
	hooks []Hook
}

// New wraps an existing *zap.Logger.
func New(zl *zap.Logger) *Logger {
	return &Logger{zap: zl}
}

// AddHook registers h; hooks run in registration order and their returned
// fields are appended, later hooks seeing the earlier hooks' additions.
func (l *Logger) AddHook(h Hook) {
	l.hooks = append(l.hooks, h)
}

func (l *Logger) withHooks(ctx context.Context, msg string, fields []Field) []Field {
	for _, h := range l.hooks {
		fields = h.Apply(ctx, msg, fields...)
	}

	return fields
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.zap.Debug(msg, l.withHooks(ctx, msg, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.zap.Info(msg, l.withHooks(ctx, msg, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.zap.Warn(msg, l.withHooks(ctx, msg, fields)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.zap.Error(msg, l.withHooks(ctx, msg, fields)...)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}
