package logger

import "context"

type ctxKey int

const (
	loggerKey ctxKey = iota
	clientIDKey
	traceIDKey
)

// WithLogger returns a context carrying l.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored by WithLogger, or Default().
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithClientID returns a context carrying a client id.
func WithClientID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// ClientIDFromContext returns the client id stored by WithClientID.
func ClientIDFromContext(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(clientIDKey).(uint64)
	return id, ok
}

// WithTraceID returns a context carrying a trace id.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// TraceIDFromContext returns the trace id stored by WithTraceID, or "".
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// L returns the context's logger with client_id and trace_id attached when
// the context carries them.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	var attrs []any
	if id, ok := ClientIDFromContext(ctx); ok {
		attrs = append(attrs, "client_id", id)
	}
	if id := TraceIDFromContext(ctx); id != "" {
		attrs = append(attrs, "trace_id", id)
	}
	if len(attrs) == 0 {
		return l
	}
	return l.With(attrs...)
}
