// Package draft provides persistent storage for workflow draft graphs.
// A draft is the editable copy of a workflow; every save appends a new
// version and activation promotes the latest draft to the running workflow.
package draft

import (
	"context"
	"errors"
	"time"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
)

// Store persists draft graphs keyed by workflow id.
// Implementations must be safe for concurrent use.
type Store interface {
	// Load retrieves the latest draft graph for a workflow.
	// Returns ErrNotFound if the workflow has no draft.
	Load(ctx context.Context, workflowID string) (graph.Graph, error)

	// SaveDraft stores the graph as a new draft version.
	SaveDraft(ctx context.Context, workflowID string, g graph.Graph) error

	// Activate toggles whether the workflow is live. Activating promotes
	// the latest draft version to the active workflow; deactivating clears
	// the active marker. Returns ErrNotFound if the workflow has no draft.
	Activate(ctx context.Context, workflowID string, active bool) error

	// ListVersions returns saved version metadata ordered oldest first.
	// Returns an empty slice (not an error) if the workflow has no draft.
	ListVersions(ctx context.Context, workflowID string) ([]VersionInfo, error)

	// Close releases any resources (connections, files).
	Close() error
}

// VersionInfo provides version metadata without loading the full graph.
type VersionInfo struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Bytes   int64     `json:"bytes"`
	Active  bool      `json:"active"`
}

// Sentinel errors for draft operations.
var (
	// ErrNotFound indicates a workflow has no stored draft.
	ErrNotFound = errors.New("draft not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("draft store closed")
)
