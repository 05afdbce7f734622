package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/flowcanvas/flowcanvas/pkg/canvas"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/action"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/connector"
)

// BenchmarkApply_AddNode_10 applies a 10-command add_node batch to a fresh
// editor, including the post-batch layout pass.
func BenchmarkApply_AddNode_10(b *testing.B) {
	benchmarkApplyAddNodes(b, 10)
}

// BenchmarkApply_AddNode_50 applies a 50-command add_node batch.
func BenchmarkApply_AddNode_50(b *testing.B) {
	benchmarkApplyAddNodes(b, 50)
}

// BenchmarkApply_Generate_10 regenerates a 10-node workflow from a
// definition on every iteration.
func BenchmarkApply_Generate_10(b *testing.B) {
	benchmarkApplyGenerate(b, 10)
}

// BenchmarkApply_Generate_50 regenerates a 50-node workflow.
func BenchmarkApply_Generate_50(b *testing.B) {
	benchmarkApplyGenerate(b, 50)
}

// BenchmarkDecode_Batch measures decoding a 20-command wire batch.
func BenchmarkDecode_Batch(b *testing.B) {
	payload := []byte(`[` + repeatCommands(20) + `]`)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := action.Decode(payload); err != nil {
			b.Fatal(err)
		}
	}
}

// Helper functions

func benchCatalog() []connector.Connector {
	return []connector.Connector{
		{
			ID:   "conn-webhook",
			Slug: "webhook",
			Type: "trigger",
			Manifest: json.RawMessage(`{
				"name": "Webhook",
				"actions": [{"id": "receive", "name": "Receive Webhook"}]
			}`),
		},
		{
			ID:   "conn-step",
			Slug: "step",
			Type: "action",
			Manifest: json.RawMessage(`{
				"name": "Step",
				"actions": [{"id": "run", "name": "Run Step"}]
			}`),
		},
	}
}

func benchEditor(b *testing.B) *canvas.Editor {
	b.Helper()
	ed := canvas.NewEditor("bench",
		canvas.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		canvas.WithConnectorSource(connector.StaticSource(benchCatalog())),
		canvas.WithAutosaveDisabled(),
	)
	if err := ed.Open(context.Background()); err != nil {
		b.Fatal(err)
	}
	return ed
}

func benchmarkApplyAddNodes(b *testing.B, n int) {
	batch := make([]action.Action, n)
	for i := range batch {
		batch[i] = action.AddNode{ConnectorSlug: "step", ActionID: "run"}
	}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		ed := benchEditor(b)
		b.StartTimer()
		if _, err := ed.Apply(ctx, batch); err != nil {
			b.Fatal(err)
		}
		b.StopTimer()
		_ = ed.Close()
		b.StartTimer()
	}
}

func benchmarkApplyGenerate(b *testing.B, n int) {
	def := action.Definition{Nodes: make([]action.DefinitionNode, n)}
	def.Connections = make(map[string]action.ConnectionSet, n-1)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Step %d", i)
		slug := "step"
		if i == 0 {
			slug = "webhook"
		}
		def.Nodes[i] = action.DefinitionNode{Name: name, Slug: slug}
		if i > 0 {
			prev := fmt.Sprintf("Step %d", i-1)
			def.Connections[prev] = action.ConnectionSet{
				"main": {{Node: name}},
			}
		}
	}
	batch := []action.Action{action.GenerateWorkflow{Definition: def}}

	ed := benchEditor(b)
	defer ed.Close()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ed.Apply(ctx, batch); err != nil {
			b.Fatal(err)
		}
	}
}

func repeatCommands(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += `{"type": "add_node", "connectorSlug": "step", "actionId": "run"}`
	}
	return out
}
