package benchmarks

import (
	"testing"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
)

// BenchmarkMarshal_100 serializes a 100-node chain to the wire form.
func BenchmarkMarshal_100(b *testing.B) {
	g := buildLinearGraph(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := graph.Marshal(g); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkUnmarshal_100 parses a 100-node chain from the wire form.
func BenchmarkUnmarshal_100(b *testing.B) {
	g := buildLinearGraph(100)
	data, err := graph.Marshal(g)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := graph.Unmarshal(data); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSanitize_Agents runs the direction repair over 10 fully resourced
// agents whose resource edges are all stored inverted.
func BenchmarkSanitize_Agents(b *testing.B) {
	g := buildAgentGraph(10)
	// Invert every resource edge so each iteration does real repair work.
	for i, e := range g.Edges {
		if graph.IsResourceHandle(e.TargetHandle) {
			g.Edges[i].Source, g.Edges[i].Target = e.Target, e.Source
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		graph.Sanitize(g)
	}
}

// BenchmarkResolve_Miss scans all four resolver tiers over 100 nodes without
// a hit, the worst case.
func BenchmarkResolve_Miss(b *testing.B) {
	g := buildLinearGraph(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		graph.Resolve("no such node anywhere", g.Nodes)
	}
}

// BenchmarkIsValidConnection_Resource checks the cardinality rule against 10
// agents' worth of existing resource edges.
func BenchmarkIsValidConnection_Resource(b *testing.B) {
	g := buildAgentGraph(10)
	e := graph.Edge{Source: "agent9-model", Target: "agent0", TargetHandle: graph.HandleModel}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		graph.IsValidConnection(g, e)
	}
}
