package canvas

import (
	"errors"
	"fmt"
)

// Sentinel errors for editor lifecycle and lookups.
var (
	// ErrEditorClosed indicates an operation on an editor after Close.
	ErrEditorClosed = errors.New("editor closed")

	// ErrNotHydrated indicates a write before Open loaded the draft.
	ErrNotHydrated = errors.New("editor not hydrated")

	// ErrNodeNotFound indicates a node id with no matching node.
	ErrNodeNotFound = errors.New("node not found")
)

// SaveError wraps a failed draft save with the workflow it was for.
type SaveError struct {
	// WorkflowID is the workflow whose draft failed to persist.
	WorkflowID string
	// Err is the underlying store or serialization error.
	Err error
}

// Error implements the error interface.
func (e *SaveError) Error() string {
	return fmt.Sprintf("save draft for workflow %s: %v", e.WorkflowID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SaveError) Unwrap() error {
	return e.Err
}
