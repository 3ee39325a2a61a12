// Package tracing wraps the process-wide OpenTelemetry tracer so callers
// can open spans without carrying a tracer handle around. When no tracer
// has been registered every helper degrades to a no-op.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

// SetTracer registers the tracer used by StartSpan. Call it once at startup.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// GetActiveSpan returns the span recorded on the context, or nil when
// tracing is disabled or no real span is active.
func GetActiveSpan(ctx context.Context) trace.Span {
	if tracer == nil {
		return nil
	}
	span := trace.SpanFromContext(ctx)
	// A context without a recording span yields an invalid span context.
	if !span.SpanContext().IsValid() {
		return nil
	}
	return span
}

// StartSpan opens a child span named spanName. With no tracer registered it
// returns the context unchanged and the (no-op) span already on it.
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName)
}

// GetTraceParent renders the W3C traceparent header value for the active
// span, or "" when there is none.
func GetTraceParent(ctx context.Context) string {
	span := GetActiveSpan(ctx)
	if span == nil {
		return ""
	}

	tp := propagation.TraceContext{}
	carrier := propagation.MapCarrier{}
	tp.Inject(ctx, carrier)

	return carrier.Get("traceparent")
}

// GetTraceState renders the W3C tracestate header value for the active
// span, or "" when there is none.
func GetTraceState(ctx context.Context) string {
	span := GetActiveSpan(ctx)
	if span == nil {
		return ""
	}

	tp := propagation.TraceContext{}
	carrier := propagation.MapCarrier{}
	tp.Inject(ctx, carrier)

	return carrier.Get("tracestate")
}

// GetTraceID returns the active trace ID as a hex string, or "".
func GetTraceID(ctx context.Context) string {
	span := GetActiveSpan(ctx)
	if span == nil {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// GetSpanID returns the active span ID as a hex string, or "".
func GetSpanID(ctx context.Context) string {
	span := GetActiveSpan(ctx)
	if span == nil {
		return ""
	}
	return span.SpanContext().SpanID().String()
}
