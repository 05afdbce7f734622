package canvas

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/action"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/observability"
)

// TestObservability_EndToEnd drives an editor session against real OTel
// providers and checks the telemetry it emits: the span tree for
// open/apply/layout/save, error status on a failed save, and the metric
// instruments.
//
// The global tracer delegates to the first provider set in the process, so
// everything that asserts on exported telemetry lives in this one test.
func TestObservability_EndToEnd(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	telemetry := []Option{
		WithSpanManager(observability.NewSpanManager()),
		WithMetrics(observability.NewMetricsRecorder()),
	}

	ed := newTestEditor(t, telemetry...)

	res, err := ed.Apply(context.Background(), []action.Action{
		action.AddNode{ConnectorSlug: "webhook", ActionID: "receive"},
		action.AddNode{ConnectorSlug: "send-email", ActionID: "send"},
		action.AddNode{ConnectorSlug: "ghost"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Applied)
	require.Len(t, res.Skipped, 1)
	require.NoError(t, ed.Save(context.Background()))

	t.Run("span tree", func(t *testing.T) {
		byName := map[string][]tracetest.SpanStub{}
		for _, s := range exporter.GetSpans() {
			byName[s.Name] = append(byName[s.Name], s)
		}
		require.Len(t, byName["canvas.load"], 1)
		require.Len(t, byName["canvas.apply"], 1)
		require.Len(t, byName["canvas.layout"], 1)
		require.Len(t, byName["canvas.save"], 1)

		apply := byName["canvas.apply"][0]
		var workflowID string
		var actionCount int64
		for _, attr := range apply.Attributes {
			switch attr.Key {
			case "workflow.id":
				workflowID = attr.Value.AsString()
			case "action.count":
				actionCount = attr.Value.AsInt64()
			}
		}
		assert.Equal(t, "wf-test", workflowID)
		assert.Equal(t, int64(3), actionCount)

		layout := byName["canvas.layout"][0]
		assert.Equal(t, apply.SpanContext.SpanID(), layout.Parent.SpanID(),
			"layout runs inside the apply span")

		assert.Equal(t, codes.Ok, byName["canvas.save"][0].Status.Code)
	})

	t.Run("failed save span", func(t *testing.T) {
		exporter.Reset()

		store := newRecordingStore()
		store.failWith(errors.New("backend offline"))
		fed := newTestEditor(t, append(telemetry, WithDraftStore(store))...)
		mustAddNode(t, fed, "webhook", "receive")
		require.Error(t, fed.Save(context.Background()))

		var failed *tracetest.SpanStub
		for _, s := range exporter.GetSpans() {
			if s.Name == "canvas.save" && s.Status.Code == codes.Error {
				failed = &s
				break
			}
		}
		require.NotNil(t, failed, "expected an error-status save span")
		assert.Contains(t, failed.Status.Description, "backend offline")
	})

	t.Run("metric instruments", func(t *testing.T) {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))

		metrics := map[string]metricdata.Metrics{}
		for _, scope := range rm.ScopeMetrics {
			for _, m := range scope.Metrics {
				metrics[m.Name] = m
			}
		}
		for _, want := range []string{
			"canvas.actions.applied",
			"canvas.actions.skipped",
			"canvas.layout.duration_ms",
			"canvas.saves",
			"canvas.save.duration_ms",
			"canvas.save.size_bytes",
			"canvas.graph.nodes",
			"canvas.graph.edges",
		} {
			assert.Contains(t, metrics, want)
		}

		assert.Equal(t, int64(2), sumCounter(t, metrics, "canvas.actions.applied"))
		assert.Equal(t, int64(1), sumCounter(t, metrics, "canvas.actions.skipped"))
		// One successful save from the batch editor, one failure from the
		// broken-store editor.
		assert.Equal(t, int64(2), sumCounter(t, metrics, "canvas.saves"))
	})
}

// sumCounter totals the data points of an int64 counter across attribute sets.
func sumCounter(t *testing.T, metrics map[string]metricdata.Metrics, name string) int64 {
	t.Helper()
	m, ok := metrics[name]
	require.True(t, ok, "metric %s not collected", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}
