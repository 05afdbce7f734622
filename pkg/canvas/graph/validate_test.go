package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// agentFixture builds an agent with one wired model resource, the shape most
// validator rules revolve around.
func agentFixture(t *testing.T) Graph {
	t.Helper()
	return build(t,
		[]Node{
			node("agent", KindAgent),
			node("model", KindAgentModel),
			node("memory", KindAgentMemory),
			node("tool-a", KindAgentTool),
			node("tool-b", KindAgentTool),
			node("step", KindAction),
		},
		[]Edge{
			{Source: "model", Target: "agent", TargetHandle: HandleModel},
		},
	)
}

// TestIsValidConnection_Generic verifies rule 5: plain main-flow edges are
// always valid.
func TestIsValidConnection_Generic(t *testing.T) {
	g := build(t, []Node{node("a", KindTrigger), node("b", KindAction)}, nil)

	assert.True(t, IsValidConnection(g, Edge{Source: "a", Target: "b"}))
	assert.True(t, IsValidConnection(g, Edge{
		Source: "a", Target: "b", SourceHandle: HandleSource, TargetHandle: "target",
	}))
}

// TestIsValidConnection_MissingEndpoints verifies edges to unknown nodes are
// rejected before any rule applies.
func TestIsValidConnection_MissingEndpoints(t *testing.T) {
	g := build(t, []Node{node("a", KindTrigger)}, nil)

	assert.False(t, IsValidConnection(g, Edge{Source: "ghost", Target: "a"}))
	assert.False(t, IsValidConnection(g, Edge{Source: "a", Target: "ghost"}))
}

// TestIsValidConnection_ResourceSourceHandleMismatch verifies rule 1: a
// resource node may only ever connect into its matching handle.
func TestIsValidConnection_ResourceSourceHandleMismatch(t *testing.T) {
	g := agentFixture(t)

	testCases := []struct {
		name   string
		source string
		handle string
	}{
		{"model into memory handle", "model", HandleMemory},
		{"model into generic handle", "model", ""},
		{"memory into tools handle", "memory", HandleTools},
		{"tool into model handle", "tool-a", HandleModel},
		{"tool into main flow", "tool-a", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := Edge{Source: tc.source, Target: "agent", TargetHandle: tc.handle}
			assert.False(t, IsValidConnection(g, e))
		})
	}
}

// TestIsValidConnection_ModelCardinality verifies rule 2: a second model
// into the same agent handle is rejected.
func TestIsValidConnection_ModelCardinality(t *testing.T) {
	g := agentFixture(t)
	g, err := g.WithNode(node("model-2", KindAgentModel))
	require.NoError(t, err)

	e := Edge{Source: "model-2", Target: "agent", TargetHandle: HandleModel}
	assert.False(t, IsValidConnection(g, e))
}

// TestIsValidConnection_ModelIntoFreeAgent verifies the happy path for a
// model handle with no existing edge.
func TestIsValidConnection_ModelIntoFreeAgent(t *testing.T) {
	g := build(t,
		[]Node{node("agent", KindAgent), node("model", KindAgentModel)},
		nil,
	)

	e := Edge{Source: "model", Target: "agent", TargetHandle: HandleModel}
	assert.True(t, IsValidConnection(g, e))
}

// TestIsValidConnection_MemoryCardinality verifies rule 3 mirrors rule 2.
func TestIsValidConnection_MemoryCardinality(t *testing.T) {
	g := build(t,
		[]Node{
			node("agent", KindAgent),
			node("mem-1", KindAgentMemory),
			node("mem-2", KindAgentMemory),
		},
		[]Edge{{Source: "mem-1", Target: "agent", TargetHandle: HandleMemory}},
	)

	assert.False(t, IsValidConnection(g, Edge{
		Source: "mem-2", Target: "agent", TargetHandle: HandleMemory,
	}))
}

// TestIsValidConnection_ToolsUnbounded verifies rule 4: any number of tools.
func TestIsValidConnection_ToolsUnbounded(t *testing.T) {
	g := build(t,
		[]Node{
			node("agent", KindAgent),
			node("tool-1", KindAgentTool),
			node("tool-2", KindAgentTool),
			node("tool-3", KindAgentTool),
		},
		[]Edge{
			{Source: "tool-1", Target: "agent", TargetHandle: HandleTools},
			{Source: "tool-2", Target: "agent", TargetHandle: HandleTools},
		},
	)

	assert.True(t, IsValidConnection(g, Edge{
		Source: "tool-3", Target: "agent", TargetHandle: HandleTools,
	}))
}

// TestIsValidConnection_WrongSourceKindForHandle verifies rules 2-4 check the
// source kind, not just cardinality.
func TestIsValidConnection_WrongSourceKindForHandle(t *testing.T) {
	g := agentFixture(t)

	testCases := []struct {
		name   string
		source string
		handle string
	}{
		{"action into model handle", "step", HandleModel},
		{"action into memory handle", "step", HandleMemory},
		{"action into tools handle", "step", HandleTools},
		{"memory into model handle", "memory", HandleModel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := Edge{Source: tc.source, Target: "agent", TargetHandle: tc.handle}
			assert.False(t, IsValidConnection(g, e))
		})
	}
}

// TestValidate_Clean verifies a well-formed graph yields no error.
func TestValidate_Clean(t *testing.T) {
	g := agentFixture(t)
	assert.NoError(t, Validate(g))
}

// TestValidate_ReportsEveryViolation verifies violations are joined rather
// than short-circuited.
func TestValidate_ReportsEveryViolation(t *testing.T) {
	g := Graph{
		Nodes: []Node{
			{ID: "a", Kind: KindAgent},
			{ID: "a", Kind: KindAction},
			{ID: "m1", Kind: KindAgentModel},
			{ID: "m2", Kind: KindAgentModel},
			{ID: "weird", Kind: Kind("sparkle")},
		},
		Edges: []Edge{
			{ID: "e1", Source: "m1", Target: "a", TargetHandle: HandleModel},
			{ID: "e2", Source: "m2", Target: "a", TargetHandle: HandleModel},
			{ID: "e3", Source: "ghost", Target: "a"},
			{ID: "e3", Source: "a", Target: "m1"},
		},
	}

	err := Validate(g)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrDuplicateNode)
	assert.ErrorIs(t, err, ErrDuplicateEdge)
	assert.ErrorIs(t, err, ErrMissingEndpoint)
	assert.Contains(t, err.Error(), "unknown kind")
	assert.Contains(t, err.Error(), "want at most 1")
}

// TestValidate_ResourceDirection verifies inverted resource edges are
// reported (the sanitizer exists to repair exactly these).
func TestValidate_ResourceDirection(t *testing.T) {
	g := Graph{
		Nodes: []Node{
			{ID: "agent", Kind: KindAgent},
			{ID: "model", Kind: KindAgentModel},
		},
		Edges: []Edge{
			{ID: "e1", Source: "agent", Target: "model", TargetHandle: HandleModel},
		},
	}

	err := Validate(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires agent target")
	assert.Contains(t, err.Error(), "requires agent-model source")
}
