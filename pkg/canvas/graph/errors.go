package graph

import "errors"

// Transition and validation errors. Callers branch with errors.Is; the
// interpreter turns them into skip diagnostics rather than aborting a batch.
var (
	// ErrDuplicateNode indicates a node id that already exists in the graph.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrDuplicateEdge indicates an edge id that already exists in the graph.
	ErrDuplicateEdge = errors.New("duplicate edge id")

	// ErrMissingEndpoint indicates an edge whose source or target references
	// no existing node.
	ErrMissingEndpoint = errors.New("edge endpoint does not exist")
)
