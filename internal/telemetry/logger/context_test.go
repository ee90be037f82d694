package logger

import (
	"context"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	l, buf := newJSON(t, "info")

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("test message")

	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestClientID(t *testing.T) {
	ctx := context.Background()
	if _, ok := ClientIDFromContext(ctx); ok {
		t.Error("ClientIDFromContext on empty context reported ok")
	}

	ctx = WithClientID(ctx, 42)
	id, ok := ClientIDFromContext(ctx)
	if !ok || id != 42 {
		t.Errorf("ClientIDFromContext() = %d, %v, want 42, true", id, ok)
	}
}

func TestTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-1")
	if got := TraceIDFromContext(ctx); got != "trace-1" {
		t.Errorf("TraceIDFromContext() = %q, want trace-1", got)
	}
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Errorf("TraceIDFromContext(empty) = %q, want empty", got)
	}
}

func TestL_EnrichesLogger(t *testing.T) {
	l, buf := newJSON(t, "info")

	ctx := WithLogger(context.Background(), l)
	ctx = WithClientID(ctx, 3)
	ctx = WithTraceID(ctx, "abc")
	L(ctx).Info("enriched")

	entry := decode(t, buf)
	if entry["client_id"] != float64(3) {
		t.Errorf("client_id = %v, want 3", entry["client_id"])
	}
	if entry["trace_id"] != "abc" {
		t.Errorf("trace_id = %v, want abc", entry["trace_id"])
	}
}
