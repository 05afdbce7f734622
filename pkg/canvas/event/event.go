// Package event carries canvas lifecycle notifications. The editor publishes
// an event for every graph mutation, interpreter skip, and save attempt;
// hosts subscribe to drive UI updates instead of threading callbacks through
// node data.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
)

// Type identifies what happened.
type Type string

// Canvas event types.
const (
	TypeGraphChanged  Type = "graph.changed"
	TypeGraphReplaced Type = "graph.replaced"
	TypeNodeAdded     Type = "node.added"
	TypeNodeRemoved   Type = "node.removed"
	TypeNodeUpdated   Type = "node.updated"
	TypeEdgeAdded     Type = "edge.added"
	TypeLayoutApplied Type = "layout.applied"
	TypeActionSkipped Type = "action.skipped"
	TypeSaveStarted   Type = "save.started"
	TypeSaveSucceeded Type = "save.succeeded"
	TypeSaveFailed    Type = "save.failed"
	TypeAddRequested  Type = "add.requested"
)

// Event is one canvas notification.
type Event struct {
	ID         string
	Type       Type
	Time       time.Time
	WorkflowID string
	Payload    any
}

// New creates an event stamped with a fresh id and the current time.
func New(t Type, workflowID string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Time:       time.Now().UTC(),
		WorkflowID: workflowID,
		Payload:    payload,
	}
}

// NodeChange is the payload for node.added, node.removed, and node.updated.
type NodeChange struct {
	Node graph.Node
}

// EdgeChange is the payload for edge.added.
type EdgeChange struct {
	Edge graph.Edge
}

// ActionSkip is the payload for action.skipped: one assistant command the
// interpreter could not apply.
type ActionSkip struct {
	Index  int
	Action string
	Reason string
}

// SaveResult is the payload for save.started, save.succeeded, and
// save.failed. Err is set only on failure.
type SaveResult struct {
	Bytes int
	Err   error
}

// AddRequest is the payload for add.requested: the host should open its
// node picker anchored at the given node handle.
type AddRequest struct {
	NodeID string
	Handle string
}
