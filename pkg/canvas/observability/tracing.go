package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the canvas tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("canvas")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartApplySpan starts a span for one interpreter batch.
	StartApplySpan(ctx context.Context, workflowID string, actionCount int) (context.Context, trace.Span)

	// StartLayoutSpan starts a span for a layout pass.
	StartLayoutSpan(ctx context.Context, nodeCount int) (context.Context, trace.Span)

	// StartSaveSpan starts a span for a draft save.
	StartSaveSpan(ctx context.Context, workflowID string) (context.Context, trace.Span)

	// StartLoadSpan starts a span for workflow hydration.
	StartLoadSpan(ctx context.Context, workflowID string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartApplySpan starts a span for one interpreter batch.
func (m *otelSpanManager) StartApplySpan(ctx context.Context, workflowID string, actionCount int) (context.Context, trace.Span) {
	return StartApplySpan(ctx, workflowID, actionCount)
}

// StartLayoutSpan starts a span for a layout pass.
func (m *otelSpanManager) StartLayoutSpan(ctx context.Context, nodeCount int) (context.Context, trace.Span) {
	return StartLayoutSpan(ctx, nodeCount)
}

// StartSaveSpan starts a span for a draft save.
func (m *otelSpanManager) StartSaveSpan(ctx context.Context, workflowID string) (context.Context, trace.Span) {
	return StartSaveSpan(ctx, workflowID)
}

// StartLoadSpan starts a span for workflow hydration.
func (m *otelSpanManager) StartLoadSpan(ctx context.Context, workflowID string) (context.Context, trace.Span) {
	return StartLoadSpan(ctx, workflowID)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// Convenience functions that operate on the global tracer.
// These are useful for simple cases where you don't need the interface.

// StartApplySpan starts a span for one interpreter batch.
// Uses the global OTel tracer.
func StartApplySpan(ctx context.Context, workflowID string, actionCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "canvas.apply",
		trace.WithAttributes(
			attribute.String("workflow.id", workflowID),
			attribute.Int("action.count", actionCount),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartLayoutSpan starts a span for a layout pass.
// Uses the global OTel tracer.
func StartLayoutSpan(ctx context.Context, nodeCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "canvas.layout",
		trace.WithAttributes(
			attribute.Int("node.count", nodeCount),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartSaveSpan starts a span for a draft save.
// Uses the global OTel tracer.
func StartSaveSpan(ctx context.Context, workflowID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "canvas.save",
		trace.WithAttributes(
			attribute.String("workflow.id", workflowID),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartLoadSpan starts a span for workflow hydration.
// Uses the global OTel tracer.
func StartLoadSpan(ctx context.Context, workflowID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "canvas.load",
		trace.WithAttributes(
			attribute.String("workflow.id", workflowID),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
