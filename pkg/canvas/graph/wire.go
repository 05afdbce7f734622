package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Marshal serializes the graph to its persisted wire form:
//
//	{"nodes": [{"id", "type", "position": {"x","y"}, "data"}],
//	 "edges": [{"id", "source", "target", "sourceHandle"?, "targetHandle"?}]}
//
// Transient node fields (selection, drag state) never serialize. The output
// is deterministic for a given graph, so byte comparison is a valid
// dirty check: struct fields marshal in declaration order and config maps
// marshal with sorted keys.
func Marshal(g Graph) ([]byte, error) {
	data, err := json.Marshal(g.normalized())
	if err != nil {
		return nil, fmt.Errorf("marshal graph: %w", err)
	}
	return data, nil
}

// Unmarshal parses the persisted wire form. Missing or null node/edge arrays
// come back as empty slices; anything that is not a JSON object fails.
func Unmarshal(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return New(), fmt.Errorf("unmarshal graph: %w", err)
	}
	return g.normalized(), nil
}

// Equal reports whether two graphs serialize to identical bytes. This is the
// comparison the autosave dirty check uses.
func Equal(a, b Graph) bool {
	ab, err := Marshal(a)
	if err != nil {
		return false
	}
	bb, err := Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
