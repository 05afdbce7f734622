// Package layout computes deterministic 2-D positions for a workflow canvas.
//
// The algorithm is two-tier. Main-flow nodes (trigger, action, condition,
// agent, custom) go through a Sugiyama-style layered placement: rank
// assignment by longest path, barycenter ordering within ranks, then
// left-to-right coordinate assignment. Resource nodes (agent-model,
// agent-memory, agent-tool) never participate in ranking; each one sits at a
// fixed offset under the agent its edge feeds, keyed by the target handle.
//
// Identical inputs produce identical outputs: there is no randomness, every
// iteration order is the node insertion order, and all sorts are stable.
package layout

import (
	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
)

// Geometry constants. Ranks run left to right.
const (
	// RankSep is the horizontal gap between ranks.
	RankSep = 100.0
	// NodeSep is the vertical gap between nodes in the same rank.
	NodeSep = 50.0

	// DefaultWidth and DefaultHeight size every non-agent main node.
	DefaultWidth  = 100.0
	DefaultHeight = 100.0
	// AgentWidth and AgentHeight size agent nodes, which are drawn wider to
	// fit their resource handles.
	AgentWidth  = 200.0
	AgentHeight = 100.0

	// ResourceWidth is the drawn width of a resource node, used only to
	// center it on its handle.
	ResourceWidth = 60.0
	// ResourceDrop is the vertical distance from an agent's anchor to the
	// resource row beneath it.
	ResourceDrop = 260.0
)

// handleOffsets maps a resource target handle to the horizontal offset of
// that handle from the agent's left edge.
var handleOffsets = map[string]float64{
	graph.HandleModel:  -30,
	graph.HandleMemory: 90,
	graph.HandleTools:  220,
}

// Option adjusts the engine geometry.
type Option func(*engine)

// WithRankSep overrides the horizontal gap between ranks.
func WithRankSep(px float64) Option {
	return func(e *engine) {
		if px > 0 {
			e.rankSep = px
		}
	}
}

// WithNodeSep overrides the vertical gap between nodes in a rank.
func WithNodeSep(px float64) Option {
	return func(e *engine) {
		if px > 0 {
			e.nodeSep = px
		}
	}
}

type engine struct {
	rankSep float64
	nodeSep float64
}

// nodeSize returns the declared drawing size for a main node kind.
func nodeSize(k graph.Kind) (w, h float64) {
	if k == graph.KindAgent {
		return AgentWidth, AgentHeight
	}
	return DefaultWidth, DefaultHeight
}

// Apply returns a copy of g with every node position recomputed. Only
// positions change; nodes, edges, and their order pass through untouched.
//
// Resource nodes with no edge into a main node keep their previous position.
// That shape should not occur in a valid graph, but the layout engine is not
// the place to invent a position for an orphan.
func Apply(g graph.Graph, opts ...Option) graph.Graph {
	e := &engine{rankSep: RankSep, nodeSep: NodeSep}
	for _, opt := range opts {
		opt(e)
	}

	nodes := make([]graph.Node, len(g.Nodes))
	copy(nodes, g.Nodes)

	// Index main nodes in insertion order.
	mainIdx := make(map[string]int)
	var main []graph.Node
	for _, n := range g.Nodes {
		if !n.Kind.IsResource() {
			mainIdx[n.ID] = len(main)
			main = append(main, n)
		}
	}

	// Layer the main subgraph using only main-to-main edges.
	lg := newLayeredGraph(len(main), e.rankSep, e.nodeSep)
	for i, n := range main {
		lg.width[i], lg.height[i] = nodeSize(n.Kind)
	}
	for _, edge := range g.Edges {
		u, uOK := mainIdx[edge.Source]
		v, vOK := mainIdx[edge.Target]
		if uOK && vOK {
			lg.addEdge(u, v)
		}
	}
	centers := lg.place()

	// Write main positions, converting rank centers to top-left anchors.
	placed := make(map[string]graph.Position, len(main))
	for i, n := range main {
		w, h := nodeSize(n.Kind)
		placed[n.ID] = graph.Position{X: centers[i].X - w/2, Y: centers[i].Y - h/2}
	}
	for i := range nodes {
		if pos, ok := placed[nodes[i].ID]; ok {
			nodes[i].Position = pos
		}
	}

	// Pin each resource under its owning agent. The owning edge is the first
	// one (in edge order) whose source is the resource and whose target is a
	// main node.
	for i := range nodes {
		if !nodes[i].Kind.IsResource() {
			continue
		}
		owner, handle, ok := owningEdge(g, nodes[i])
		if !ok {
			continue
		}
		agentPos, ok := placed[owner]
		if !ok {
			continue
		}
		offset, ok := handleOffsets[handle]
		if !ok {
			// Fall back to the handle implied by the resource kind.
			implied, _ := graph.ResourceHandle(nodes[i].Kind)
			offset = handleOffsets[implied]
		}
		nodes[i].Position = graph.Position{
			X: agentPos.X + offset - ResourceWidth/2,
			Y: agentPos.Y + ResourceDrop,
		}
	}

	return graph.Graph{Nodes: nodes, Edges: g.Edges}
}

// owningEdge finds the edge that attaches a resource node to the main flow
// and returns the owner id and the target handle.
func owningEdge(g graph.Graph, resource graph.Node) (owner, handle string, ok bool) {
	for _, e := range g.Edges {
		if e.Source != resource.ID {
			continue
		}
		tgt, found := g.Node(e.Target)
		if !found || tgt.Kind.IsResource() {
			continue
		}
		return e.Target, e.TargetHandle, true
	}
	return "", "", false
}
