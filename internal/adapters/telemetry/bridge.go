package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/makit/internal/core/ports"
)

// LogBridge implements sdktrace.SpanProcessor by writing finished spans to
// the debug log.
type LogBridge struct {
	logger ports.Logger
}

var _ sdktrace.SpanProcessor = (*LogBridge)(nil)

// NewLogBridge returns a new LogBridge.
func NewLogBridge(logger ports.Logger) *LogBridge {
	return &LogBridge{logger: logger}
}

// OnStart does nothing.
func (b *LogBridge) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, duration and status.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if !s.SpanContext().IsValid() {
		return
	}

	status := "ok"
	if s.Status().Code == codes.Error {
		status = "error: " + s.Status().Description
	}
	b.logger.Debug(fmt.Sprintf("span %s took %s (%s)", s.Name(), s.EndTime().Sub(s.StartTime()), status))
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(context.Context) error {
	return nil
}

// NewProvider creates a tracer provider that reports spans to logger.
func NewProvider(logger ports.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewLogBridge(logger)))
}
