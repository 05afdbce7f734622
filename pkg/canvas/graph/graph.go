// Package graph defines the node/edge model for workflow canvases along with
// the pure functions that operate on it: immutable-update transitions,
// connection validation, external-name resolution, and edge sanitization.
//
// A Graph is a plain value. Every transition (WithNode, WithEdge, WithoutNode,
// WithData, WithPosition) returns a new Graph and leaves the receiver intact,
// so snapshots can be handed out and compared without copying at every call
// site. Store wraps a Graph with the small amount of locking needed to share
// it with background goroutines such as the autosave timer.
package graph

import (
	"fmt"
	"log/slog"
	"strings"
)

// Kind classifies a node on the canvas.
type Kind string

const (
	KindTrigger     Kind = "trigger"
	KindAction      Kind = "action"
	KindCondition   Kind = "condition"
	KindAgent       Kind = "agent"
	KindAgentModel  Kind = "agent-model"
	KindAgentMemory Kind = "agent-memory"
	KindAgentTool   Kind = "agent-tool"
	KindCustom      Kind = "custom"
)

// Valid reports whether k is one of the defined node kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTrigger, KindAction, KindCondition, KindAgent,
		KindAgentModel, KindAgentMemory, KindAgentTool, KindCustom:
		return true
	}
	return false
}

// IsResource reports whether k is an agent-resource kind. Resource nodes
// attach to an agent's named handle instead of participating in the main flow.
func (k Kind) IsResource() bool {
	switch k {
	case KindAgentModel, KindAgentMemory, KindAgentTool:
		return true
	}
	return false
}

// Handle names used on the canvas. Resource handles (model, memory, tools)
// accept edges from the matching resource kind only; true/false are the
// branch outputs of condition nodes; source is the generic output handle.
const (
	HandleModel  = "model"
	HandleMemory = "memory"
	HandleTools  = "tools"
	HandleTrue   = "true"
	HandleFalse  = "false"
	HandleSource = "source"
)

// ResourceHandle returns the target handle a resource kind connects into.
// The second return is false for non-resource kinds.
func ResourceHandle(k Kind) (string, bool) {
	switch k {
	case KindAgentModel:
		return HandleModel, true
	case KindAgentMemory:
		return HandleMemory, true
	case KindAgentTool:
		return HandleTools, true
	}
	return "", false
}

// ResourceKind returns the node kind that may feed the given target handle.
// The second return is false for non-resource handles.
func ResourceKind(handle string) (Kind, bool) {
	switch handle {
	case HandleModel:
		return KindAgentModel, true
	case HandleMemory:
		return KindAgentMemory, true
	case HandleTools:
		return KindAgentTool, true
	}
	return "", false
}

// IsResourceHandle reports whether handle is model, memory, or tools.
func IsResourceHandle(handle string) bool {
	_, ok := ResourceKind(handle)
	return ok
}

// Position is a node's top-left anchor on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData carries the persisted payload of a node. The engine treats Slug,
// ActionID, and Config as opaque identifiers/values owned by the connector;
// Label and Description exist for display and name resolution.
type NodeData struct {
	Label       string         `json:"label,omitempty"`
	Description string         `json:"description,omitempty"`
	ConnectorID string         `json:"connectorId,omitempty"`
	Slug        string         `json:"slug,omitempty"`
	ActionID    string         `json:"actionId,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

// clone deep-copies the data so transitions never share the config map.
func (d NodeData) clone() NodeData {
	out := d
	if d.Config != nil {
		out.Config = make(map[string]any, len(d.Config))
		for k, v := range d.Config {
			out.Config[k] = v
		}
	}
	return out
}

// Node is a single vertex on the canvas. Kind is immutable after creation.
// Selected and Dragging are editor-session state and never serialize.
type Node struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`

	Selected bool `json:"-"`
	Dragging bool `json:"-"`
}

// Edge connects two nodes, optionally through named handles.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// EdgeID builds the deterministic edge id for an endpoint pair. The
// sanitizer regenerates swapped edge ids with this scheme, and definition
// edges that arrive without an id default to it.
func EdgeID(source, target string) string {
	return source + "-" + target
}

// Graph is the canonical {nodes, edges} state. The zero value is usable;
// New returns one with non-nil slices so it serializes as empty arrays.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// New returns an empty graph.
func New() Graph {
	return Graph{Nodes: []Node{}, Edges: []Edge{}}
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasNode reports whether a node with the given id exists.
func (g Graph) HasNode(id string) bool {
	_, ok := g.Node(id)
	return ok
}

// HasEdge reports whether an edge with the given id exists.
func (g Graph) HasEdge(id string) bool {
	for _, e := range g.Edges {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Clone deep-copies the graph, including node config maps. Use it when a
// snapshot crosses an ownership boundary; pure transitions already copy the
// slices they touch.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		n.Data = n.Data.clone()
		out.Nodes[i] = n
	}
	copy(out.Edges, g.Edges)
	return out
}

// WithNode returns a new graph with n appended.
// Returns ErrDuplicateNode if a node with the same id already exists.
//
// Panics if n.ID is empty: engine-created nodes always carry a fresh UUID,
// so an empty id is a programming error, not input data.
func (g Graph) WithNode(n Node) (Graph, error) {
	if n.ID == "" {
		panic("canvas: node ID cannot be empty")
	}
	if g.HasNode(n.ID) {
		return g, fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	nodes := make([]Node, len(g.Nodes), len(g.Nodes)+1)
	copy(nodes, g.Nodes)
	nodes = append(nodes, n)
	return Graph{Nodes: nodes, Edges: g.Edges}, nil
}

// WithEdge returns a new graph with e appended. An empty e.ID is defaulted
// via EdgeID. Returns ErrMissingEndpoint when either endpoint does not exist
// and ErrDuplicateEdge when the id is already present.
func (g Graph) WithEdge(e Edge) (Graph, error) {
	if e.ID == "" {
		e.ID = EdgeID(e.Source, e.Target)
	}
	if !g.HasNode(e.Source) {
		return g, fmt.Errorf("%w: source %q", ErrMissingEndpoint, e.Source)
	}
	if !g.HasNode(e.Target) {
		return g, fmt.Errorf("%w: target %q", ErrMissingEndpoint, e.Target)
	}
	if g.HasEdge(e.ID) {
		return g, fmt.Errorf("%w: %s", ErrDuplicateEdge, e.ID)
	}
	edges := make([]Edge, len(g.Edges), len(g.Edges)+1)
	copy(edges, g.Edges)
	edges = append(edges, e)
	return Graph{Nodes: g.Nodes, Edges: edges}, nil
}

// WithoutNode returns a new graph with the node removed and every edge whose
// source or target references it removed as well. A missing id returns the
// graph unchanged.
func (g Graph) WithoutNode(id string) Graph {
	if !g.HasNode(id) {
		return g
	}
	nodes := make([]Node, 0, len(g.Nodes)-1)
	for _, n := range g.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	edges := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	return Graph{Nodes: nodes, Edges: edges}
}

// WithData returns a new graph with patch shallow-merged into the node's
// data. Known keys (label, description, connectorId, slug, actionId, config)
// replace the current values; config replaces the whole map. Unknown keys and
// mistyped values are ignored with a debug log. The bool reports whether the
// node was found.
func (g Graph) WithData(id string, patch map[string]any) (Graph, bool) {
	idx := -1
	for i, n := range g.Nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return g, false
	}
	nodes := make([]Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	data := nodes[idx].Data.clone()
	for k, v := range patch {
		switch k {
		case "label":
			if s, ok := v.(string); ok {
				data.Label = s
			} else {
				slog.Debug("ignoring mistyped node data value", "key", k, "node", id)
			}
		case "description":
			if s, ok := v.(string); ok {
				data.Description = s
			} else {
				slog.Debug("ignoring mistyped node data value", "key", k, "node", id)
			}
		case "connectorId":
			if s, ok := v.(string); ok {
				data.ConnectorID = s
			} else {
				slog.Debug("ignoring mistyped node data value", "key", k, "node", id)
			}
		case "slug":
			if s, ok := v.(string); ok {
				data.Slug = s
			} else {
				slog.Debug("ignoring mistyped node data value", "key", k, "node", id)
			}
		case "actionId":
			if s, ok := v.(string); ok {
				data.ActionID = s
			} else {
				slog.Debug("ignoring mistyped node data value", "key", k, "node", id)
			}
		case "config":
			if m, ok := v.(map[string]any); ok {
				cfg := make(map[string]any, len(m))
				for ck, cv := range m {
					cfg[ck] = cv
				}
				data.Config = cfg
			} else {
				slog.Debug("ignoring mistyped node data value", "key", k, "node", id)
			}
		default:
			slog.Debug("ignoring unknown node data key", "key", k, "node", id)
		}
	}
	nodes[idx].Data = data
	return Graph{Nodes: nodes, Edges: g.Edges}, true
}

// WithPosition returns a new graph with the node moved to pos. The bool
// reports whether the node was found.
func (g Graph) WithPosition(id string, pos Position) (Graph, bool) {
	idx := -1
	for i, n := range g.Nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return g, false
	}
	nodes := make([]Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	nodes[idx].Position = pos
	return Graph{Nodes: nodes, Edges: g.Edges}, true
}

// normalized returns the graph with nil slices replaced by empty ones so the
// wire form always carries arrays.
func (g Graph) normalized() Graph {
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Edges == nil {
		g.Edges = []Edge{}
	}
	return g
}

// trimFold lower-cases and trims an external identifier for comparison.
func trimFold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
