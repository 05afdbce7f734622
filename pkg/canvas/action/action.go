// Package action defines the closed set of structural edit commands an
// assistant can apply to a workflow canvas, plus the decoding of their JSON
// wire form.
//
// The wire form is an array of objects tagged by a "type" field:
//
//	[
//	  {"type": "add_node", "connectorSlug": "webhook"},
//	  {"type": "add_edge", "source": "Webhook", "target": "Send Email"}
//	]
//
// Actions are a sealed union: the interpreter switches over the five
// variants exhaustively, so adding a variant is a compile-visible change
// rather than a silently ignored string.
package action

import "github.com/flowcanvas/flowcanvas/pkg/canvas/graph"

// Wire names for the command variants.
const (
	TypeAddNode          = "add_node"
	TypeAddEdge          = "add_edge"
	TypeDeleteNode       = "delete_node"
	TypeUpdateNode       = "update_node"
	TypeGenerateWorkflow = "generate_workflow"
)

// Action is one structural edit command. The set of implementations is
// closed; see the Type constants for the wire names.
type Action interface {
	// Type returns the wire name of the command.
	Type() string

	isAction()
}

// AddNode creates a node from a connector looked up by slug.
type AddNode struct {
	ConnectorSlug string          `json:"connectorSlug"`
	ActionID      string          `json:"actionId,omitempty"`
	Position      *graph.Position `json:"position,omitempty"`
	Config        map[string]any  `json:"config,omitempty"`
}

// AddEdge connects two nodes referenced by id, label, slug, or slug_action
// compound; endpoints go through the node resolver.
type AddEdge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// DeleteNode removes a node by id, cascading its incident edges.
type DeleteNode struct {
	NodeID string `json:"nodeId"`
}

// UpdateNode shallow-merges a patch into a node's data.
type UpdateNode struct {
	NodeID string         `json:"nodeId"`
	Patch  map[string]any `json:"patch"`
}

// GenerateWorkflow replaces the whole graph with a parsed definition.
type GenerateWorkflow struct {
	Definition Definition `json:"definition"`
}

func (AddNode) Type() string          { return TypeAddNode }
func (AddEdge) Type() string          { return TypeAddEdge }
func (DeleteNode) Type() string       { return TypeDeleteNode }
func (UpdateNode) Type() string       { return TypeUpdateNode }
func (GenerateWorkflow) Type() string { return TypeGenerateWorkflow }

func (AddNode) isAction()          {}
func (AddEdge) isAction()          {}
func (DeleteNode) isAction()       {}
func (UpdateNode) isAction()       {}
func (GenerateWorkflow) isAction() {}
