package graph

import (
	"errors"
	"fmt"
)

// IsValidConnection reports whether a proposed edge may be created given the
// current graph. It is a pure predicate: violations are rejected with false
// and no further signal, which the editor surfaces as the connection simply
// not appearing.
//
// Rules, checked in order:
//  1. A resource-kind source (agent-model, agent-memory, agent-tool) must
//     target its matching handle (model, memory, tools respectively).
//  2. targetHandle "model" requires an agent-model source and at most one
//     incoming edge per target handle.
//  3. targetHandle "memory" behaves like "model" with agent-memory.
//  4. targetHandle "tools" requires an agent-tool source; no cardinality cap.
//  5. Anything else is valid.
//
// Edges whose endpoints are missing from the graph are rejected outright:
// rule 5 would otherwise admit an edge that violates the referential
// invariant before it is ever drawn.
func IsValidConnection(g Graph, e Edge) bool {
	src, ok := g.Node(e.Source)
	if !ok {
		return false
	}
	if !g.HasNode(e.Target) {
		return false
	}

	if handle, isResource := ResourceHandle(src.Kind); isResource {
		if e.TargetHandle != handle {
			return false
		}
	}

	switch e.TargetHandle {
	case HandleModel:
		if src.Kind != KindAgentModel {
			return false
		}
		return !hasIncoming(g, e.Target, HandleModel)
	case HandleMemory:
		if src.Kind != KindAgentMemory {
			return false
		}
		return !hasIncoming(g, e.Target, HandleMemory)
	case HandleTools:
		return src.Kind == KindAgentTool
	}
	return true
}

// hasIncoming reports whether any existing edge already terminates at the
// given target and handle.
func hasIncoming(g Graph, target, handle string) bool {
	for _, e := range g.Edges {
		if e.Target == target && e.TargetHandle == handle {
			return true
		}
	}
	return false
}

// Validate checks the whole graph against the structural invariants and
// returns every violation joined into a single error, or nil. The editor
// logs the result after hydration; it never refuses to load a graph.
func Validate(g Graph) error {
	var errs []error

	nodeIDs := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			errs = append(errs, errors.New("node with empty id"))
			continue
		}
		if _, dup := nodeIDs[n.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID))
		}
		nodeIDs[n.ID] = struct{}{}
		if !n.Kind.Valid() {
			errs = append(errs, fmt.Errorf("node %s has unknown kind %q", n.ID, n.Kind))
		}
	}

	type inKey struct{ target, handle string }

	edgeIDs := make(map[string]struct{}, len(g.Edges))
	incoming := make(map[inKey]int)
	for _, e := range g.Edges {
		if _, dup := edgeIDs[e.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateEdge, e.ID))
		}
		edgeIDs[e.ID] = struct{}{}

		src, srcOK := g.Node(e.Source)
		if !srcOK {
			errs = append(errs, fmt.Errorf("%w: edge %s source %q", ErrMissingEndpoint, e.ID, e.Source))
		}
		tgt, tgtOK := g.Node(e.Target)
		if !tgtOK {
			errs = append(errs, fmt.Errorf("%w: edge %s target %q", ErrMissingEndpoint, e.ID, e.Target))
		}

		if kind, isResource := ResourceKind(e.TargetHandle); isResource {
			if e.TargetHandle != HandleTools {
				incoming[inKey{e.Target, e.TargetHandle}]++
			}
			if srcOK && src.Kind != kind {
				errs = append(errs, fmt.Errorf("edge %s: %s handle requires %s source, got %s",
					e.ID, e.TargetHandle, kind, src.Kind))
			}
			if tgtOK && tgt.Kind != KindAgent {
				errs = append(errs, fmt.Errorf("edge %s: %s handle requires agent target, got %s",
					e.ID, e.TargetHandle, tgt.Kind))
			}
		}
	}

	for key, count := range incoming {
		if count > 1 {
			errs = append(errs, fmt.Errorf("node %s has %d edges into %s handle, want at most 1",
				key.target, count, key.handle))
		}
	}

	return errors.Join(errs...)
}
