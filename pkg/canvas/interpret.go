package canvas

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/action"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/connector"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/event"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/observability"
)

// Skip records one command the interpreter dropped and why.
type Skip struct {
	// Index is the command's position within the batch.
	Index int
	// Action is the wire name of the command.
	Action string
	// Reason is the human-readable skip diagnostic.
	Reason string
}

// ApplyResult summarizes one interpreter batch.
type ApplyResult struct {
	// Applied counts the commands that took effect.
	Applied int
	// Skipped lists the commands that were dropped, in batch order.
	Skipped []Skip
	// Generated reports whether the batch contained a generate_workflow
	// command, in which case the post-batch layout pass was skipped.
	Generated bool
	// Graph is a snapshot of the working graph after the batch settled.
	Graph graph.Graph
}

// Apply interprets an ordered list of assistant commands against the working
// graph, best-effort: a command referencing a missing connector or an
// unresolvable node is dropped, logged, published as an action.skipped event,
// and never aborts the rest of the batch.
//
// After the batch, layout runs once over the final node set unless the batch
// contained generate_workflow (whose definition supplies positions), and the
// edge sanitizer always runs. The returned result reports what was applied,
// what was skipped, and the settled graph.
func (ed *Editor) Apply(ctx context.Context, actions []action.Action) (*ApplyResult, error) {
	if err := ed.writable(); err != nil {
		return nil, err
	}

	observability.LogApplyStart(ed.logger, len(actions))
	applyCtx, span := ed.spans.StartApplySpan(ctx, ed.workflowID, len(actions))

	res := &ApplyResult{}
	for i, act := range actions {
		if err := ed.applyOne(act); err != nil {
			reason := err.Error()
			res.Skipped = append(res.Skipped, Skip{Index: i, Action: act.Type(), Reason: reason})
			observability.LogActionSkipped(ed.logger, i, act.Type(), reason)
			ed.metrics.RecordActionSkipped(applyCtx, act.Type(), reason)
			ed.bus.Publish(event.New(event.TypeActionSkipped, ed.workflowID, event.ActionSkip{
				Index:  i,
				Action: act.Type(),
				Reason: reason,
			}))
			continue
		}
		res.Applied++
		observability.LogActionApplied(ed.logger, act.Type())
		ed.metrics.RecordActionApplied(applyCtx, act.Type())
		if _, ok := act.(action.GenerateWorkflow); ok {
			res.Generated = true
		}
	}

	if !res.Generated {
		ed.applyLayout(applyCtx)
	}
	ed.store.Update(graph.Sanitize)

	res.Graph = ed.store.Snapshot()
	ed.spans.EndSpanWithError(span, nil)
	ed.afterMutation()
	return res, nil
}

// applyOne dispatches a single command. The returned error is the skip
// diagnostic; nil means the command took effect.
func (ed *Editor) applyOne(act action.Action) error {
	switch a := act.(type) {
	case action.AddNode:
		return ed.applyAddNode(a)
	case action.AddEdge:
		return ed.applyAddEdge(a)
	case action.DeleteNode:
		return ed.applyDeleteNode(a)
	case action.UpdateNode:
		return ed.applyUpdateNode(a)
	case action.GenerateWorkflow:
		return ed.applyGenerate(a)
	default:
		// The union is sealed; hitting this arm means a variant was added
		// without an interpreter case.
		return fmt.Errorf("unhandled action type %q", act.Type())
	}
}

func (ed *Editor) applyAddNode(a action.AddNode) error {
	c, ok := ed.registry.BySlug(a.ConnectorSlug)
	if !ok {
		return fmt.Errorf("unknown connector slug %q", a.ConnectorSlug)
	}
	var pos graph.Position
	if a.Position != nil {
		pos = *a.Position
	}
	n := nodeFromConnector(c, a.ActionID, pos, a.Config)
	if err := ed.store.AddNode(n); err != nil {
		return err
	}
	ed.bus.Publish(event.New(event.TypeNodeAdded, ed.workflowID, event.NodeChange{Node: n}))
	return nil
}

func (ed *Editor) applyAddEdge(a action.AddEdge) error {
	g := ed.store.Snapshot()
	srcID, ok := graph.Resolve(a.Source, g.Nodes)
	if !ok {
		return fmt.Errorf("unresolvable source %q", a.Source)
	}
	tgtID, ok := graph.Resolve(a.Target, g.Nodes)
	if !ok {
		return fmt.Errorf("unresolvable target %q", a.Target)
	}
	src, _ := g.Node(srcID)
	tgt, _ := g.Node(tgtID)

	e := graph.Edge{
		Source:       srcID,
		Target:       tgtID,
		SourceHandle: sourceHandleFor(src.Kind),
		TargetHandle: a.TargetHandle,
	}
	// Repair an inverted agent/resource direction up front, same rule as the
	// sanitizer, so the published event already carries the corrected edge.
	if graph.IsResourceHandle(e.TargetHandle) && src.Kind == graph.KindAgent && tgt.Kind != graph.KindAgent {
		e.Source, e.Target = e.Target, e.Source
		e.SourceHandle = sourceHandleFor(tgt.Kind)
	}
	e.ID = graph.EdgeID(e.Source, e.Target)

	if err := ed.store.AddEdge(e); err != nil {
		return err
	}
	ed.bus.Publish(event.New(event.TypeEdgeAdded, ed.workflowID, event.EdgeChange{Edge: e}))
	return nil
}

func (ed *Editor) applyDeleteNode(a action.DeleteNode) error {
	n, ok := ed.store.Node(a.NodeID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, a.NodeID)
	}
	ed.store.RemoveNode(a.NodeID)
	ed.bus.Publish(event.New(event.TypeNodeRemoved, ed.workflowID, event.NodeChange{Node: n}))
	return nil
}

func (ed *Editor) applyUpdateNode(a action.UpdateNode) error {
	if !ed.store.PatchData(a.NodeID, a.Patch) {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, a.NodeID)
	}
	n, _ := ed.store.Node(a.NodeID)
	ed.bus.Publish(event.New(event.TypeNodeUpdated, ed.workflowID, event.NodeChange{Node: n}))
	return nil
}

// applyGenerate replaces the whole graph from a parsed definition. Nodes
// whose slug is not in the registry and connections that fail to resolve are
// skipped with a warning; whatever remains becomes the new graph.
func (ed *Editor) applyGenerate(a action.GenerateWorkflow) error {
	def := a.Definition
	g := graph.New()

	// Name-to-id table in creation order; the first node to claim a name
	// wins and later duplicates are reachable only by id.
	ids := make(map[string]string, len(def.Nodes))
	var order []string

	for _, dn := range def.Nodes {
		c, ok := ed.registry.BySlug(dn.Slug)
		if !ok {
			ed.logger.Warn("generated node skipped", "name", dn.Name, "slug", dn.Slug)
			continue
		}
		var pos graph.Position
		if dn.Position != nil {
			pos = graph.Position{X: dn.Position.X, Y: dn.Position.Y}
		}
		n := nodeFromConnector(c, dn.ActionID, pos, nil)
		if dn.Name != "" {
			n.Data.Label = dn.Name
		}
		next, err := g.WithNode(n)
		if err != nil {
			ed.logger.Warn("generated node skipped", "name", dn.Name, "error", err)
			continue
		}
		g = next
		if _, taken := ids[dn.Name]; !taken {
			ids[dn.Name] = n.ID
			order = append(order, dn.Name)
		}
	}

	// JSON objects lose key order; sort source names and handle types so the
	// edge list is deterministic for identical definitions.
	sources := make([]string, 0, len(def.Connections))
	for name := range def.Connections {
		sources = append(sources, name)
	}
	sort.Strings(sources)

	for _, srcName := range sources {
		srcID, ok := lookupName(ids, order, srcName)
		if !ok {
			ed.logger.Warn("generated connection skipped", "source", srcName)
			continue
		}
		set := def.Connections[srcName]
		handles := make([]string, 0, len(set))
		for h := range set {
			handles = append(handles, h)
		}
		sort.Strings(handles)

		for _, handleType := range handles {
			targetHandle, ok := connectionHandle(handleType)
			if !ok {
				ed.logger.Warn("generated connection skipped", "source", srcName, "handle", handleType)
				continue
			}
			for _, ref := range set[handleType] {
				tgtID, ok := lookupName(ids, order, ref.Node)
				if !ok {
					ed.logger.Warn("generated connection skipped", "source", srcName, "target", ref.Node)
					continue
				}
				src, _ := g.Node(srcID)
				tgt, _ := g.Node(tgtID)
				e := graph.Edge{
					Source:       srcID,
					Target:       tgtID,
					SourceHandle: sourceHandleFor(src.Kind),
					TargetHandle: targetHandle,
				}
				if graph.IsResourceHandle(e.TargetHandle) && src.Kind == graph.KindAgent && tgt.Kind != graph.KindAgent {
					e.Source, e.Target = e.Target, e.Source
					e.SourceHandle = sourceHandleFor(tgt.Kind)
				}
				e.ID = graph.EdgeID(e.Source, e.Target)

				next, err := g.WithEdge(e)
				if err != nil {
					ed.logger.Warn("generated connection skipped", "source", srcName, "target", ref.Node, "error", err)
					continue
				}
				g = next
			}
		}
	}

	// Legacy flat edge list: endpoints may be definition names or raw ids.
	for _, le := range def.Edges {
		e := le
		if id, ok := lookupName(ids, order, e.Source); ok {
			e.Source = id
		}
		if id, ok := lookupName(ids, order, e.Target); ok {
			e.Target = id
		}
		if e.ID == "" {
			e.ID = graph.EdgeID(e.Source, e.Target)
		}
		next, err := g.WithEdge(e)
		if err != nil {
			ed.logger.Warn("legacy edge skipped", "source", le.Source, "target", le.Target, "error", err)
			continue
		}
		g = next
	}

	ed.store.Replace(graph.Sanitize(g))
	ed.bus.Publish(event.New(event.TypeGraphReplaced, ed.workflowID, nil))
	return nil
}

// nodeFromConnector builds a canvas node from a catalog entry: fresh uuid,
// kind from the declared connector type, label from the manifest (action
// name first, display name second), config from the action's schema defaults
// with overrides merged on top.
func nodeFromConnector(c connector.Connector, actionID string, pos graph.Position, overrides map[string]any) graph.Node {
	label := c.ActionName(actionID)
	if label == "" {
		label = c.DisplayName()
	}
	cfg := c.DefaultConfig(actionID)
	if len(overrides) > 0 {
		if cfg == nil {
			cfg = make(map[string]any, len(overrides))
		}
		for k, v := range overrides {
			cfg[k] = v
		}
	}
	return graph.Node{
		ID:       uuid.NewString(),
		Kind:     c.Kind(),
		Position: pos,
		Data: graph.NodeData{
			Label:       label,
			ConnectorID: c.ID,
			Slug:        c.Slug,
			ActionID:    actionID,
			Config:      cfg,
		},
	}
}

// sourceHandleFor picks the source handle for an interpreter-created edge:
// the true branch for condition sources, the generic output otherwise.
func sourceHandleFor(k graph.Kind) string {
	if k == graph.KindCondition {
		return graph.HandleTrue
	}
	return graph.HandleSource
}

// connectionHandle maps a definition handle type onto an edge targetHandle.
// Main-flow connections carry no target handle; resource handle types carry
// themselves; anything else is unknown and the connection is skipped.
func connectionHandle(handleType string) (string, bool) {
	switch handleType {
	case "", "main":
		return "", true
	case graph.HandleModel, graph.HandleMemory, graph.HandleTools:
		return handleType, true
	}
	return "", false
}

// lookupName resolves a definition name to a node id: exact key first, then
// a case-insensitive trimmed scan over the known names in creation order.
func lookupName(ids map[string]string, order []string, name string) (string, bool) {
	if id, ok := ids[name]; ok {
		return id, true
	}
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return "", false
	}
	for _, known := range order {
		if strings.ToLower(strings.TrimSpace(known)) == want {
			return ids[known], true
		}
	}
	return "", false
}
