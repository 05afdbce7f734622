package action

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNodePosition_Forms verifies both accepted encodings.
func TestNodePosition_Forms(t *testing.T) {
	var p NodePosition
	require.NoError(t, json.Unmarshal([]byte(`[120, 340]`), &p))
	assert.Equal(t, NodePosition{X: 120, Y: 340}, p)

	require.NoError(t, json.Unmarshal([]byte(`{"x": -5, "y": 7.5}`), &p))
	assert.Equal(t, NodePosition{X: -5, Y: 7.5}, p)

	// Extra array elements are ignored, n8n emits exactly two but some
	// assistants pad.
	require.NoError(t, json.Unmarshal([]byte(`[1, 2, 3]`), &p))
	assert.Equal(t, NodePosition{X: 1, Y: 2}, p)
}

// TestNodePosition_Invalid verifies rejection of unusable encodings.
func TestNodePosition_Invalid(t *testing.T) {
	var p NodePosition
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &p))
	assert.Error(t, json.Unmarshal([]byte(`"1,2"`), &p))
}

// TestConnectionTargets_Forms verifies the flat, n8n-nested, and bare-object
// shapes all flatten to the same list.
func TestConnectionTargets_Forms(t *testing.T) {
	want := ConnectionTargets{{Node: "Send Email"}}

	var flat ConnectionTargets
	require.NoError(t, json.Unmarshal([]byte(`[{"node": "Send Email"}]`), &flat))
	assert.Equal(t, want, flat)

	var nested ConnectionTargets
	require.NoError(t, json.Unmarshal([]byte(`[[{"node": "Send Email"}]]`), &nested))
	assert.Equal(t, want, nested)

	var single ConnectionTargets
	require.NoError(t, json.Unmarshal([]byte(`{"node": "Send Email"}`), &single))
	assert.Equal(t, want, single)
}

// TestConnectionTargets_NestedGroupsFlatten verifies multiple output groups
// merge in order.
func TestConnectionTargets_NestedGroupsFlatten(t *testing.T) {
	var ts ConnectionTargets
	require.NoError(t, json.Unmarshal(
		[]byte(`[[{"node": "A"}, {"node": "B"}], [{"node": "C", "type": "main"}]]`), &ts))

	require.Len(t, ts, 3)
	assert.Equal(t, "A", ts[0].Node)
	assert.Equal(t, "B", ts[1].Node)
	assert.Equal(t, "C", ts[2].Node)
	assert.Equal(t, "main", ts[2].Type)
}

// TestDefinition_Parse verifies a full n8n-style document including the
// legacy flat edge list.
func TestDefinition_Parse(t *testing.T) {
	var def Definition
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Support triage",
		"nodes": [
			{"name": "Webhook", "slug": "webhook", "action_id": "receive", "position": [0, 0]},
			{"name": "Classify", "slug": "ai-agent", "action_id": "run"},
			{"name": "GPT-4", "slug": "openai-model"}
		],
		"connections": {
			"Webhook": {"main": [{"node": "Classify"}]},
			"GPT-4": {"model": [{"node": "Classify"}]}
		},
		"edges": [
			{"source": "extra-1", "target": "extra-2"}
		]
	}`), &def))

	assert.Equal(t, "Support triage", def.Name)
	require.Len(t, def.Nodes, 3)
	assert.Equal(t, "receive", def.Nodes[0].ActionID)
	assert.Nil(t, def.Nodes[1].Position)

	require.Len(t, def.Connections, 2)
	assert.Equal(t, "Classify", def.Connections["GPT-4"]["model"][0].Node)

	require.Len(t, def.Edges, 1)
	assert.Equal(t, "extra-1", def.Edges[0].Source)
	assert.Empty(t, def.Edges[0].ID)
}
