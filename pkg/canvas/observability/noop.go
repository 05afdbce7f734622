package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordActionApplied does nothing.
func (NoopMetrics) RecordActionApplied(_ context.Context, _ string) {}

// RecordActionSkipped does nothing.
func (NoopMetrics) RecordActionSkipped(_ context.Context, _, _ string) {}

// RecordLayout does nothing.
func (NoopMetrics) RecordLayout(_ context.Context, _ int, _ time.Duration) {}

// RecordSave does nothing.
func (NoopMetrics) RecordSave(_ context.Context, _ bool, _ int64, _ time.Duration) {}

// RecordGraphSize does nothing.
func (NoopMetrics) RecordGraphSize(_ context.Context, _, _ int) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
// We use the OTel noop package for a proper no-op span implementation.
var noopSpan = noop.Span{}

// StartApplySpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartApplySpan(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartLayoutSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartLayoutSpan(ctx context.Context, _ int) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartSaveSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartSaveSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartLoadSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartLoadSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
