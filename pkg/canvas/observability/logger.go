// Package observability provides production-grade observability features
// for the canvas: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds canvas context to a logger.
// Returns a new logger with the workflow_id field.
//
// Example:
//
//	enriched := EnrichLogger(logger, "wf-123")
//	enriched.Info("applying actions") // includes workflow_id
func EnrichLogger(logger *slog.Logger, workflowID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("workflow_id", workflowID),
	)
}

// LogApplyStart logs the start of an interpreter batch.
func LogApplyStart(logger *slog.Logger, actionCount int) {
	if logger == nil {
		return
	}
	logger.Debug("applying assistant actions",
		slog.Int("action_count", actionCount),
	)
}

// LogActionApplied logs one applied command.
func LogActionApplied(logger *slog.Logger, actionType string) {
	if logger == nil {
		return
	}
	logger.Debug("action applied",
		slog.String("action_type", actionType),
	)
}

// LogActionSkipped logs one command the interpreter could not apply.
// Skips are expected with model-generated commands, hence Warn not Error.
func LogActionSkipped(logger *slog.Logger, index int, actionType, reason string) {
	if logger == nil {
		return
	}
	logger.Warn("action skipped",
		slog.Int("index", index),
		slog.String("action_type", actionType),
		slog.String("reason", reason),
	)
}

// LogLayout logs a completed layout pass.
func LogLayout(logger *slog.Logger, nodeCount int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("layout applied",
		slog.Int("node_count", nodeCount),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSaveStart logs the start of a draft save.
func LogSaveStart(logger *slog.Logger, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("draft save starting",
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogSaveSuccess logs a completed draft save.
func LogSaveSuccess(logger *slog.Logger, sizeBytes int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("draft saved",
		slog.Int("size_bytes", sizeBytes),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSaveError logs a draft save failure (non-fatal, the save is retried).
func LogSaveError(logger *slog.Logger, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Warn("draft save failed",
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogLoad logs a workflow hydration.
func LogLoad(logger *slog.Logger, workflowID string, nodeCount, edgeCount int) {
	if logger == nil {
		return
	}
	logger.Info("workflow hydrated",
		slog.String("workflow_id", workflowID),
		slog.Int("node_count", nodeCount),
		slog.Int("edge_count", edgeCount),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
