package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StoredTrace is the W3C trace context persisted next to a queued row, so the
// goroutine that later ships the row can continue the request's trace.
type StoredTrace struct {
	Parent string
	State  string
}

func CaptureTrace(ctx context.Context) StoredTrace {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return StoredTrace{}
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return StoredTrace{Parent: carrier.Get("traceparent"), State: carrier.Get("tracestate")}
}

// Resume returns ctx carrying the stored span as remote parent. A missing or
// unparsable traceparent leaves ctx unchanged.
func (s StoredTrace) Resume(ctx context.Context) context.Context {
	if s.Parent == "" {
		return ctx
	}
	carrier := propagation.MapCarrier{"traceparent": s.Parent}
	if s.State != "" {
		carrier.Set("tracestate", s.State)
	}
	resumed := otel.GetTextMapPropagator().Extract(ctx, carrier)
	if !trace.SpanContextFromContext(resumed).IsValid() {
		return ctx
	}
	return resumed
}
