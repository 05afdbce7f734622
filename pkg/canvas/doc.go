/*
Package canvas provides a workflow graph editing engine.

# Overview

canvas is a Go library for building and maintaining workflow graphs:
directed graphs of typed nodes (triggers, actions, conditions, AI agents
and their resources) persisted as versioned drafts and executed
elsewhere. It covers the parts with real invariants: the node/edge
model, connection-validity rules, deterministic auto-layout, the
interpreter for assistant-produced structural edits, and the debounced
autosave dirty check.

The library is a pure engine with:
  - An immutable-update graph model (every transition returns a new value)
  - A closed tagged-union action type, exhaustively interpreted
  - A typed event bus instead of callbacks inside node data
  - OpenTelemetry integration for observability

# Opening a Session

An Editor is one editing session over one workflow draft:

	store, err := draft.NewSQLiteStore("./drafts.db")
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	ed := canvas.NewEditor("wf-1",
	    canvas.WithDraftStore(store),
	    canvas.WithConnectorSource(connector.NewHTTPSource(catalogURL)),
	)
	defer ed.Close()

	if err := ed.Open(ctx); err != nil {
	    log.Fatal(err)
	}

Open hydrates the working graph from the draft store (a missing draft
becomes an empty graph), repairs reversed resource edges, and loads the
connector catalog. Everything before Open fails with ErrNotHydrated.

# Manual Editing

Edit operations mirror what a canvas UI does:

	node, err := ed.AddNode("webhook", "receive", graph.Position{X: 0, Y: 0})

	ok, err := ed.Connect(graph.Edge{Source: node.ID, Target: next.ID})
	if !ok {
	    // the validator rejected the connection; no edge was created
	}

	err = ed.MoveNode(node.ID, graph.Position{X: 200, Y: 80})
	err = ed.UpdateNodeData(node.ID, map[string]any{"label": "Incoming"})
	err = ed.RemoveNode(node.ID)
	err = ed.AutoLayout(ctx)

Connect is gated by the connection rules: a resource node may only feed
its matching agent handle, model and memory handles accept one edge,
tools accepts many. A rejection is (false, nil), not an error.

# Assistant Actions

Apply interprets an ordered command batch best-effort:

	actions, err := action.DecodeLenient(llmOutput)
	res, err := ed.Apply(ctx, actions)
	for _, skip := range res.Skipped {
	    log.Printf("dropped %s: %s", skip.Action, skip.Reason)
	}

Commands that reference unknown connector slugs or unresolvable node
names are dropped with a diagnostic and the batch continues. Edge
endpoints are resolved fuzzily (label, slug, slug_action compounds),
and layout runs once after the batch unless it contained
generate_workflow.

# Autosave

Every mutation arms a debounced save. The coordinator serializes the
graph, byte-compares it against the last saved snapshot, and persists
only real differences; a failed save keeps the snapshot so the next
tick retries. Save flushes immediately, Dirty reports pending drift,
and Activate flushes before promoting the draft:

	if ed.Dirty() {
	    err = ed.Save(ctx)
	}
	err = ed.Activate(ctx, true)

# Events

The editor publishes typed events for every mutation, skip, and save
attempt:

	ed.Events().Subscribe([]event.Type{event.TypeSaveFailed}, func(evt event.Event) {
	    res := evt.Payload.(event.SaveResult)
	    log.Printf("save failed: %v", res.Err)
	})

Delivery is synchronous on the mutating goroutine; handlers must not
block.

# Observability

Enable logging, metrics, and tracing:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ed := canvas.NewEditor("wf-1",
	    canvas.WithLogger(logger),
	    canvas.WithMetrics(observability.NewMetricsRecorder()),
	    canvas.WithSpanManager(observability.NewSpanManager()),
	)

Logs include structured fields: workflow_id, action_type, duration_ms.
OpenTelemetry metrics: canvas.actions.applied, canvas.save.duration_ms, etc.
OpenTelemetry tracing: canvas.load, canvas.apply > canvas.layout, canvas.save.

# Thread Safety

  - Editor IS safe for concurrent use; the working graph is behind a store
    that hands out deep copies
  - Graph values are immutable; transitions return new values
  - The autosave timer runs on its own goroutine and is synchronized with
    explicit Save calls

# Subpackages

  - graph: node/edge model, validation, resolution, sanitization
  - layout: deterministic two-tier auto-layout
  - action: assistant command decoding (strict and lenient)
  - connector: catalog client and registry
  - draft: draft persistence (memory, SQLite, Redis, HTTP)
  - assistant: chat client returning decoded actions
  - event: typed editor events and the in-process bus
  - config: file-based configuration with typed settings
  - observability: logging, metrics, and tracing helpers
*/
package canvas
