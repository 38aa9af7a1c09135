package telemetry

import (
	"context"

	"go.trai.ch/makit/internal/core/ports"
)

// NoOpTracer is a no-op implementation of ports.Tracer.
type NoOpTracer struct{}

// NewNoOpTracer creates a new NoOpTracer.
func NewNoOpTracer() *NoOpTracer {
	return &NoOpTracer{}
}

// Start creates a new no-op span.
func (t *NoOpTracer) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, &NoOpSpan{}
}

// NoOpSpan is a no-op implementation of ports.Span.
type NoOpSpan struct{}

// End does nothing.
func (s *NoOpSpan) End() {}

// RecordError does nothing.
func (s *NoOpSpan) RecordError(error) {}

// SetAttribute does nothing.
func (s *NoOpSpan) SetAttribute(string, any) {}
