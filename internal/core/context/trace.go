package context

import (
	"context"

	"github.com/google/uuid"
)

// TraceContext carries per-request correlation ids from the HTTP
// middleware down into logs and audit entries.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

// NewTraceContext generates a context with fresh ids, used when the
// inbound request carried none.
func NewTraceContext() *TraceContext {
	return &TraceContext{
		TraceID:   uuid.New().String(),
		SpanID:    uuid.New().String()[:16],
		RequestID: uuid.New().String(),
	}
}

type traceContextKey struct{}

// WithTrace attaches a TraceContext.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns the attached TraceContext, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetTraceID returns the trace id, generating one for untraced contexts
// so log lines always correlate to something.
func GetTraceID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.TraceID
	}
	return uuid.New().String()
}

// GetRequestID returns the request id, empty for untraced contexts.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}
