package graph

import "sync"

// Store holds the canonical working graph for an editing session. All reads
// return value snapshots and all writes go through the pure Graph transitions,
// so no caller ever sees the internal state as a shared mutable reference.
//
// The mutex exists for the benefit of background goroutines (the autosave
// timer, event subscribers); the editing model itself is single-mutator.
type Store struct {
	mu       sync.RWMutex
	graph    Graph
	revision uint64
}

// NewStore creates a store holding an empty graph.
func NewStore() *Store {
	return &Store{graph: New()}
}

// Snapshot returns a deep copy of the current graph.
func (s *Store) Snapshot() Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Clone()
}

// Revision returns a counter incremented by every successful mutation.
// Useful for cheap change detection without serializing.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Len returns the current node and edge counts.
func (s *Store) Len() (nodes, edges int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.graph.Nodes), len(s.graph.Edges)
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.graph.Node(id)
	if ok {
		n.Data = n.Data.clone()
	}
	return n, ok
}

// AddNode appends a node.
func (s *Store) AddNode(n Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.graph.WithNode(n)
	if err != nil {
		return err
	}
	s.graph = next
	s.revision++
	return nil
}

// AddEdge appends an edge.
func (s *Store) AddEdge(e Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.graph.WithEdge(e)
	if err != nil {
		return err
	}
	s.graph = next
	s.revision++
	return nil
}

// RemoveNode deletes the node and every incident edge. Returns false when
// the node does not exist.
func (s *Store) RemoveNode(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.graph.HasNode(id) {
		return false
	}
	s.graph = s.graph.WithoutNode(id)
	s.revision++
	return true
}

// PatchData shallow-merges patch into the node's data. Returns false when
// the node does not exist.
func (s *Store) PatchData(id string, patch map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.graph.WithData(id, patch)
	if !ok {
		return false
	}
	s.graph = next
	s.revision++
	return true
}

// SetPosition moves a node. Returns false when the node does not exist.
func (s *Store) SetPosition(id string, pos Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.graph.WithPosition(id, pos)
	if !ok {
		return false
	}
	s.graph = next
	s.revision++
	return true
}

// Replace swaps in a whole new graph, normalizing nil slices. Used by the
// load path and by generate_workflow, which replaces rather than merges.
func (s *Store) Replace(g Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = g.normalized().Clone()
	s.revision++
}

// Update applies fn to the current graph and stores the result. fn must be
// pure; it receives a snapshot and returns the replacement graph.
func (s *Store) Update(fn func(Graph) Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = fn(s.graph).normalized()
	s.revision++
}
