package tracing

import (
	"context"
	"net/http"
	"regexp"

	"github.com/rs/zerolog"
)

// TraceHeader carries the trace ID in and out of HTTP exchanges.
const TraceHeader = "X-Trace-Id"

var validTraceID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// FromRequest returns r's context with a trace ID taken from the
// X-Trace-Id header when well formed, or a new one.
func FromRequest(r *http.Request) context.Context {
	ctx := r.Context()
	if id := r.Header.Get(TraceHeader); validTraceID.MatchString(id) {
		return WithTraceID(ctx, id)
	}
	return WithTraceID(ctx, NewTraceID())
}

// PropagateToLogger adds tracing context to a zerolog logger
func PropagateToLogger(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	tc := FromContext(ctx)

	lc := logger.With()
	if tc.TraceID != "" {
		lc = lc.Str("trace_id", tc.TraceID)
	}
	if tc.RequestID != "" {
		lc = lc.Str("request_id", tc.RequestID)
	}
	if tc.Tool != "" {
		lc = lc.Str("tool", tc.Tool)
	}
	if tc.ConnID != "" {
		lc = lc.Str("conn_id", tc.ConnID)
	}
	return lc.Logger()
}

// LoggerFromContext creates a logger with tracing context from the given context
func LoggerFromContext(ctx context.Context, baseLogger zerolog.Logger) zerolog.Logger {
	return PropagateToLogger(ctx, baseLogger)
}

// Detach copies tracing values onto a fresh background context, for work
// that must outlive the request that started it.
func Detach(ctx context.Context) context.Context {
	return NewContext(context.Background(), FromContext(ctx))
}
