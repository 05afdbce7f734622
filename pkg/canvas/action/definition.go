package action

import (
	"encoding/json"
	"fmt"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
)

// Definition is the generate_workflow payload: a named node list plus a
// connections map keyed by source node name. Assistants emit it in the n8n
// style, so the parser accepts both position encodings ([x,y] and {x,y})
// and both flat and per-output-nested connection target lists.
type Definition struct {
	Name        string                   `json:"name,omitempty"`
	Nodes       []DefinitionNode         `json:"nodes"`
	Connections map[string]ConnectionSet `json:"connections,omitempty"`

	// Edges is the legacy flat list, appended as-is with ids defaulted
	// from "source-target".
	Edges []graph.Edge `json:"edges,omitempty"`
}

// DefinitionNode declares one node by name and connector slug.
type DefinitionNode struct {
	Name     string        `json:"name"`
	Slug     string        `json:"slug"`
	ActionID string        `json:"action_id,omitempty"`
	Position *NodePosition `json:"position,omitempty"`
}

// NodePosition decodes either a two-element array or an {x,y} object.
type NodePosition struct {
	X float64
	Y float64
}

// UnmarshalJSON accepts [x, y] (extra elements ignored) and {"x":…,"y":…}.
func (p *NodePosition) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) < 2 {
			return fmt.Errorf("position array needs two elements, got %d", len(arr))
		}
		p.X, p.Y = arr[0], arr[1]
		return nil
	}

	var obj struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("position must be [x,y] or {x,y}: %w", err)
	}
	p.X, p.Y = obj.X, obj.Y
	return nil
}

// ConnectionSet maps a handle type (main, model, memory, tools) to the
// targets wired from that handle.
type ConnectionSet map[string]ConnectionTargets

// ConnectionTarget references a target node by definition name.
type ConnectionTarget struct {
	Node string `json:"node"`
	Type string `json:"type,omitempty"`
}

// ConnectionTargets decodes the three shapes assistants produce for a
// handle's target list: a flat array of refs, the n8n nested
// array-per-output-index form, or a single bare ref.
type ConnectionTargets []ConnectionTarget

// UnmarshalJSON flattens whichever shape arrives.
func (ts *ConnectionTargets) UnmarshalJSON(data []byte) error {
	var flat []ConnectionTarget
	if err := json.Unmarshal(data, &flat); err == nil {
		*ts = flat
		return nil
	}

	var nested [][]ConnectionTarget
	if err := json.Unmarshal(data, &nested); err == nil {
		var out ConnectionTargets
		for _, group := range nested {
			out = append(out, group...)
		}
		*ts = out
		return nil
	}

	var single ConnectionTarget
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("connection targets must be refs or nested refs: %w", err)
	}
	*ts = ConnectionTargets{single}
	return nil
}
