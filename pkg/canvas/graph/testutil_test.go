package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Shared fixtures for the graph package tests.

// node builds a minimal node of the given kind.
func node(id string, kind Kind) Node {
	return Node{ID: id, Kind: kind}
}

// labeled builds a node with the identity fields the resolver matches on.
func labeled(id string, kind Kind, label, slug, actionID string) Node {
	return Node{
		ID:   id,
		Kind: kind,
		Data: NodeData{Label: label, Slug: slug, ActionID: actionID},
	}
}

// build assembles a graph from parts, failing the test on any transition
// error so fixtures stay honest.
func build(t *testing.T, nodes []Node, edges []Edge) Graph {
	t.Helper()
	g := New()
	var err error
	for _, n := range nodes {
		g, err = g.WithNode(n)
		require.NoError(t, err)
	}
	for _, e := range edges {
		g, err = g.WithEdge(e)
		require.NoError(t, err)
	}
	return g
}
