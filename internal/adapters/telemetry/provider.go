// Package telemetry adapts OpenTelemetry to ports.Tracer.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/makit/internal/core/ports"
)

// RunIDKey is the span attribute holding the invocation identifier.
const RunIDKey = "makit.run_id"

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
type OTelTracer struct {
	tracer trace.Tracer
	runID  string
}

var _ ports.Tracer = (*OTelTracer)(nil)

// NewOTelTracer creates a tracer from tp. Every span carries runID.
func NewOTelTracer(tp trace.TracerProvider, name, runID string) *OTelTracer {
	return &OTelTracer{
		tracer: tp.Tracer(name),
		runID:  runID,
	}
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string) (context.Context, ports.Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attribute.String(RunIDKey, t.runID)))
	return ctx, &OTelSpan{span: span}
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span trace.Span
}

var _ ports.Span = (*OTelSpan)(nil)

// End completes the span.
func (s *OTelSpan) End() {
	s.span.End()
}

// RecordError records err and marks the span as failed.
func (s *OTelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}
