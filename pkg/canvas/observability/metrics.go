package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records canvas metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordActionApplied records one interpreter command that was applied.
	RecordActionApplied(ctx context.Context, actionType string)

	// RecordActionSkipped records one interpreter command that was dropped.
	RecordActionSkipped(ctx context.Context, actionType, reason string)

	// RecordLayout records a layout pass over the main graph.
	RecordLayout(ctx context.Context, nodeCount int, duration time.Duration)

	// RecordSave records a draft save attempt with its outcome.
	RecordSave(ctx context.Context, success bool, sizeBytes int64, duration time.Duration)

	// RecordGraphSize records the graph dimensions after a change.
	RecordGraphSize(ctx context.Context, nodeCount, edgeCount int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	actionsApplied metric.Int64Counter
	actionsSkipped metric.Int64Counter
	layoutLatency  metric.Float64Histogram
	saves          metric.Int64Counter
	saveLatency    metric.Float64Histogram
	saveSize       metric.Int64Histogram
	graphNodes     metric.Int64Histogram
	graphEdges     metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("canvas")

	actionsApplied, err := meter.Int64Counter("canvas.actions.applied",
		metric.WithDescription("Number of interpreter commands applied"),
	)
	if err != nil {
		return nil, err
	}

	actionsSkipped, err := meter.Int64Counter("canvas.actions.skipped",
		metric.WithDescription("Number of interpreter commands skipped"),
	)
	if err != nil {
		return nil, err
	}

	layoutLatency, err := meter.Float64Histogram("canvas.layout.duration_ms",
		metric.WithDescription("Layout pass latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	saves, err := meter.Int64Counter("canvas.saves",
		metric.WithDescription("Number of draft save attempts"),
	)
	if err != nil {
		return nil, err
	}

	saveLatency, err := meter.Float64Histogram("canvas.save.duration_ms",
		metric.WithDescription("Draft save latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	saveSize, err := meter.Int64Histogram("canvas.save.size_bytes",
		metric.WithDescription("Serialized draft size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	graphNodes, err := meter.Int64Histogram("canvas.graph.nodes",
		metric.WithDescription("Node count after a graph change"),
	)
	if err != nil {
		return nil, err
	}

	graphEdges, err := meter.Int64Histogram("canvas.graph.edges",
		metric.WithDescription("Edge count after a graph change"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		actionsApplied: actionsApplied,
		actionsSkipped: actionsSkipped,
		layoutLatency:  layoutLatency,
		saves:          saves,
		saveLatency:    saveLatency,
		saveSize:       saveSize,
		graphNodes:     graphNodes,
		graphEdges:     graphEdges,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordActionApplied records an applied command.
func (m *otelMetrics) RecordActionApplied(ctx context.Context, actionType string) {
	m.actionsApplied.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action_type", actionType),
	))
}

// RecordActionSkipped records a skipped command.
func (m *otelMetrics) RecordActionSkipped(ctx context.Context, actionType, reason string) {
	m.actionsSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action_type", actionType),
		attribute.String("reason", reason),
	))
}

// RecordLayout records a layout pass.
func (m *otelMetrics) RecordLayout(ctx context.Context, nodeCount int, duration time.Duration) {
	m.layoutLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.Int("node_count", nodeCount),
	))
}

// RecordSave records a draft save attempt.
func (m *otelMetrics) RecordSave(ctx context.Context, success bool, sizeBytes int64, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.saves.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.saveLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if success {
		m.saveSize.Record(ctx, sizeBytes)
	}
}

// RecordGraphSize records graph dimensions.
func (m *otelMetrics) RecordGraphSize(ctx context.Context, nodeCount, edgeCount int) {
	m.graphNodes.Record(ctx, int64(nodeCount))
	m.graphEdges.Record(ctx, int64(edgeCount))
}
