package graph

// Sanitize repairs edges whose endpoints were stored in the wrong direction.
// Resource edges must flow resource → agent: for every edge with a resource
// targetHandle whose source is an agent and whose target is not, the
// endpoints are swapped, the targetHandle kept, and the id regenerated
// deterministically from the new pair.
//
// Sanitize is idempotent; running it over an already-correct edge set returns
// the same edges. A swap that collides with an existing edge id is dropped,
// first occurrence wins, so edge ids stay unique.
func Sanitize(g Graph) Graph {
	edges := make([]Edge, 0, len(g.Edges))
	seen := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		if IsResourceHandle(e.TargetHandle) {
			src, srcOK := g.Node(e.Source)
			tgt, tgtOK := g.Node(e.Target)
			if srcOK && tgtOK && src.Kind == KindAgent && tgt.Kind != KindAgent {
				e.Source, e.Target = e.Target, e.Source
				e.ID = EdgeID(e.Source, e.Target)
			}
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		edges = append(edges, e)
	}
	return Graph{Nodes: g.Nodes, Edges: edges}
}
