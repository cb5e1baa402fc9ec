package log

import "context"

type contextKey int

const (
	traceIDKey contextKey = iota
	operationNameKey
)

// WithTraceID stores a request's trace ID in ctx for traceFields to pick up.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID retrieves the trace ID WithTraceID stored, if any.
func GetTraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(traceIDKey).(string)
	return v, ok
}

// WithOperationName stores the name of the operation producing this log
// line (e.g. "grammar.Compile", "parse.Advance") in ctx.
func WithOperationName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationNameKey, name)
}

// GetOperationName retrieves the operation name WithOperationName stored, if any.
func GetOperationName(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(operationNameKey).(string)
	return v, ok
}

// traceFields is the default Hook: it appends trace_id/operation_name
// fields when the context carries them, and is a no-op otherwise.
func traceFields(ctx context.Context, _ string, fields ...Field) []Field {
	if ctx == nil {
		return fields
	}

	if traceID, ok := GetTraceID(ctx); ok {
		fields = append(fields, String("trace_id", traceID))
	}

	if operationName, ok := GetOperationName(ctx); ok {
		fields = append(fields, String("operation_name", operationName))
	}

	return fields
}

// DefaultHook is traceFields exposed for callers assembling their own Logger.
var DefaultHook = HookFunc(traceFields)
