package canvas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/connector"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/draft"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/event"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/layout"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/observability"
)

// Editor is one editing session over one workflow draft. It owns the working
// graph, the connector registry, the event bus, and the autosave coordinator,
// and is the only mutator of the graph: hosts call its operations and observe
// the results through snapshots and bus events.
//
// Lifecycle: NewEditor, Open (hydrate), edit operations, Close. Every write
// operation before Open fails with ErrNotHydrated; everything after Close
// fails with ErrEditorClosed.
type Editor struct {
	workflowID string
	logger     *slog.Logger
	store      *graph.Store
	drafts     draft.Store
	registry   *connector.Registry
	source     connector.Source
	bus        event.Bus
	ownsBus    bool
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
	layoutOpts []layout.Option
	saver      *SaveCoordinator

	mu       sync.Mutex
	hydrated bool
	closed   bool
}

// NewEditor creates an editing session for the given workflow.
//
// Without options the session is self-contained: an in-memory draft store, a
// private event bus, no-op metrics and tracing, and a one second autosave
// debounce. Panics on an empty workflow id.
//
// Example:
//
//	ed := canvas.NewEditor("wf-1",
//	    canvas.WithDraftStore(store),
//	    canvas.WithConnectorSource(catalog),
//	)
//	if err := ed.Open(ctx); err != nil { ... }
//	defer ed.Close()
func NewEditor(workflowID string, opts ...Option) *Editor {
	if workflowID == "" {
		panic("canvas: workflow ID cannot be empty")
	}

	cfg := defaultEditorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ownsBus := false
	if cfg.bus == nil {
		cfg.bus = event.NewBus()
		ownsBus = true
	}
	if cfg.store == nil {
		cfg.store = draft.NewMemoryStore()
	}

	var layoutOpts []layout.Option
	if cfg.rankSep > 0 {
		layoutOpts = append(layoutOpts, layout.WithRankSep(cfg.rankSep))
	}
	if cfg.nodeSep > 0 {
		layoutOpts = append(layoutOpts, layout.WithNodeSep(cfg.nodeSep))
	}

	ed := &Editor{
		workflowID: workflowID,
		logger:     observability.EnrichLogger(cfg.logger, workflowID),
		store:      graph.NewStore(),
		drafts:     cfg.store,
		registry:   connector.NewRegistry(),
		source:     cfg.source,
		bus:        cfg.bus,
		ownsBus:    ownsBus,
		metrics:    cfg.metrics,
		spans:      cfg.spans,
		layoutOpts: layoutOpts,
	}
	ed.saver = newSaveCoordinator(workflowID, cfg.store, ed.store.Snapshot, cfg)
	return ed
}

// Open hydrates the session: loads the draft (a missing draft becomes an
// empty graph), sanitizes it, seeds the autosave snapshot, and loads the
// connector catalog when a source was configured. Idempotent; calling Open
// on a hydrated session is a no-op.
//
// A draft that violates graph invariants is logged and loaded anyway; a
// sanitizer repair marks the session dirty so the fix persists. A catalog
// fetch failure is logged and leaves the registry empty rather than failing
// the open.
func (ed *Editor) Open(ctx context.Context) error {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.closed {
		return ErrEditorClosed
	}
	if ed.hydrated {
		return nil
	}

	loadCtx, span := ed.spans.StartLoadSpan(ctx, ed.workflowID)

	g, err := ed.drafts.Load(loadCtx, ed.workflowID)
	switch {
	case errors.Is(err, draft.ErrNotFound):
		g = graph.New()
	case err != nil:
		ed.spans.EndSpanWithError(span, err)
		return fmt.Errorf("load draft for workflow %s: %w", ed.workflowID, err)
	}

	repaired := graph.Sanitize(g)
	if verr := graph.Validate(repaired); verr != nil {
		ed.logger.Warn("loaded draft violates graph invariants", "error", verr)
	}
	ed.store.Replace(repaired)

	// The baseline is the draft as stored, so a sanitizer repair registers
	// as an unsaved change.
	if data, merr := graph.Marshal(g); merr == nil {
		ed.saver.Seed(data)
	}
	ed.hydrated = true
	if !graph.Equal(g, repaired) {
		ed.saver.MarkDirty()
	}

	if ed.source != nil {
		if cerr := ed.registry.Load(loadCtx, ed.source); cerr != nil {
			ed.logger.Warn("connector catalog unavailable", "error", cerr)
		}
	}

	nodes, edges := ed.store.Len()
	observability.LogLoad(ed.logger, ed.workflowID, nodes, edges)
	ed.metrics.RecordGraphSize(loadCtx, nodes, edges)
	ed.spans.EndSpanWithError(span, nil)
	return nil
}

// WorkflowID returns the workflow this session edits.
func (ed *Editor) WorkflowID() string {
	return ed.workflowID
}

// Graph returns a deep copy of the working graph.
func (ed *Editor) Graph() graph.Graph {
	return ed.store.Snapshot()
}

// Registry returns the connector catalog for this session. Hosts without a
// catalog API register connectors on it directly.
func (ed *Editor) Registry() *connector.Registry {
	return ed.registry
}

// Events returns the bus this session publishes to.
func (ed *Editor) Events() event.Bus {
	return ed.bus
}

// writable guards every mutating operation.
func (ed *Editor) writable() error {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.closed {
		return ErrEditorClosed
	}
	if !ed.hydrated {
		return ErrNotHydrated
	}
	return nil
}

// AddNode creates a node from the connector registered under slug and places
// it at pos. The node id is fresh, the kind comes from the connector's
// declared type, the label from the manifest, and the config from the
// action's schema defaults.
func (ed *Editor) AddNode(slug, actionID string, pos graph.Position) (graph.Node, error) {
	if err := ed.writable(); err != nil {
		return graph.Node{}, err
	}
	c, ok := ed.registry.BySlug(slug)
	if !ok {
		return graph.Node{}, fmt.Errorf("add node %q: %w", slug, connector.ErrNotFound)
	}
	n := nodeFromConnector(c, actionID, pos, nil)
	if err := ed.store.AddNode(n); err != nil {
		return graph.Node{}, fmt.Errorf("add node %q: %w", slug, err)
	}
	ed.afterMutation(event.New(event.TypeNodeAdded, ed.workflowID, event.NodeChange{Node: n}))
	return n, nil
}

// Connect proposes an edge the way a manual drag does: the connection
// validator gates it, and a rejection reports (false, nil) with no edge
// created. An empty edge id defaults to the deterministic source-target form.
func (ed *Editor) Connect(e graph.Edge) (bool, error) {
	if err := ed.writable(); err != nil {
		return false, err
	}
	if e.ID == "" {
		e.ID = graph.EdgeID(e.Source, e.Target)
	}
	if !graph.IsValidConnection(ed.store.Snapshot(), e) {
		return false, nil
	}
	if err := ed.store.AddEdge(e); err != nil {
		return false, fmt.Errorf("connect %s to %s: %w", e.Source, e.Target, err)
	}
	ed.afterMutation(event.New(event.TypeEdgeAdded, ed.workflowID, event.EdgeChange{Edge: e}))
	return true, nil
}

// MoveNode sets a node's position.
func (ed *Editor) MoveNode(id string, pos graph.Position) error {
	if err := ed.writable(); err != nil {
		return err
	}
	if !ed.store.SetPosition(id, pos) {
		return fmt.Errorf("move node %s: %w", id, ErrNodeNotFound)
	}
	n, _ := ed.store.Node(id)
	ed.afterMutation(event.New(event.TypeNodeUpdated, ed.workflowID, event.NodeChange{Node: n}))
	return nil
}

// UpdateNodeData shallow-merges patch into a node's data. Config in a patch
// replaces the whole config map; unknown keys are ignored.
func (ed *Editor) UpdateNodeData(id string, patch map[string]any) error {
	if err := ed.writable(); err != nil {
		return err
	}
	if !ed.store.PatchData(id, patch) {
		return fmt.Errorf("update node %s: %w", id, ErrNodeNotFound)
	}
	n, _ := ed.store.Node(id)
	ed.afterMutation(event.New(event.TypeNodeUpdated, ed.workflowID, event.NodeChange{Node: n}))
	return nil
}

// RemoveNode deletes a node and every edge touching it.
func (ed *Editor) RemoveNode(id string) error {
	if err := ed.writable(); err != nil {
		return err
	}
	n, ok := ed.store.Node(id)
	if !ok {
		return fmt.Errorf("remove node %s: %w", id, ErrNodeNotFound)
	}
	ed.store.RemoveNode(id)
	ed.afterMutation(event.New(event.TypeNodeRemoved, ed.workflowID, event.NodeChange{Node: n}))
	return nil
}

// ReplaceGraph swaps in a whole new graph, sanitized first. Hosts use it for
// template instantiation and undo stacks.
func (ed *Editor) ReplaceGraph(g graph.Graph) error {
	if err := ed.writable(); err != nil {
		return err
	}
	ed.store.Replace(graph.Sanitize(g))
	ed.afterMutation(event.New(event.TypeGraphReplaced, ed.workflowID, nil))
	return nil
}

// AutoLayout recomputes every node position.
func (ed *Editor) AutoLayout(ctx context.Context) error {
	if err := ed.writable(); err != nil {
		return err
	}
	ed.applyLayout(ctx)
	ed.afterMutation()
	return nil
}

// applyLayout runs the layout engine over the working graph with the
// session's geometry, braided with timing, metrics, and a span.
func (ed *Editor) applyLayout(ctx context.Context) {
	nodes, _ := ed.store.Len()
	layoutCtx, span := ed.spans.StartLayoutSpan(ctx, nodes)
	start := time.Now()

	ed.store.Update(func(g graph.Graph) graph.Graph {
		return layout.Apply(g, ed.layoutOpts...)
	})

	duration := time.Since(start)
	durationMs := float64(duration.Milliseconds())
	ed.metrics.RecordLayout(layoutCtx, nodes, duration)
	observability.LogLayout(ed.logger, nodes, durationMs)
	ed.bus.Publish(event.New(event.TypeLayoutApplied, ed.workflowID, nil))
	ed.spans.EndSpanWithError(span, nil)
}

// RequestAdd publishes the intent "user clicked the + on node N, handle H".
// The graph does not change; the host's node picker subscribes to
// event.TypeAddRequested and opens anchored at that handle.
func (ed *Editor) RequestAdd(nodeID, handle string) error {
	ed.mu.Lock()
	closed := ed.closed
	ed.mu.Unlock()
	if closed {
		return ErrEditorClosed
	}
	ed.bus.Publish(event.New(event.TypeAddRequested, ed.workflowID, event.AddRequest{
		NodeID: nodeID,
		Handle: handle,
	}))
	return nil
}

// Save flushes the draft immediately, bypassing the autosave debounce. A
// clean graph saves nothing and returns nil.
func (ed *Editor) Save(ctx context.Context) error {
	if err := ed.writable(); err != nil {
		return err
	}
	return ed.saver.Flush(ctx)
}

// Activate toggles whether the workflow is live. Activation flushes the
// draft first so the promoted version is the one on screen.
func (ed *Editor) Activate(ctx context.Context, active bool) error {
	if err := ed.writable(); err != nil {
		return err
	}
	if active {
		if err := ed.saver.Flush(ctx); err != nil {
			return err
		}
	}
	if err := ed.drafts.Activate(ctx, ed.workflowID, active); err != nil {
		op := "activate"
		if !active {
			op = "deactivate"
		}
		return fmt.Errorf("%s workflow %s: %w", op, ed.workflowID, err)
	}
	return nil
}

// Versions lists the saved draft versions for this workflow, oldest first.
func (ed *Editor) Versions(ctx context.Context) ([]draft.VersionInfo, error) {
	ed.mu.Lock()
	closed := ed.closed
	ed.mu.Unlock()
	if closed {
		return nil, ErrEditorClosed
	}
	return ed.drafts.ListVersions(ctx, ed.workflowID)
}

// Dirty reports whether the working graph differs from the last saved
// snapshot. Always false before hydration.
func (ed *Editor) Dirty() bool {
	ed.mu.Lock()
	hydrated := ed.hydrated
	ed.mu.Unlock()
	if !hydrated {
		return false
	}
	return ed.saver.Dirty()
}

// Close ends the session: the pending autosave timer is cancelled without
// saving, and the bus is closed if the editor created it. The draft store is
// never closed here; it belongs to the host. Idempotent.
func (ed *Editor) Close() error {
	ed.mu.Lock()
	if ed.closed {
		ed.mu.Unlock()
		return nil
	}
	ed.closed = true
	ed.mu.Unlock()

	ed.saver.Stop()
	if ed.ownsBus {
		return ed.bus.Close()
	}
	return nil
}

// afterMutation is the shared tail of every graph mutation: publish the
// specific events, then the coarse graph.changed signal, record the new graph
// size, and arm the autosave debounce.
func (ed *Editor) afterMutation(evts ...event.Event) {
	for _, evt := range evts {
		ed.bus.Publish(evt)
	}
	ed.bus.Publish(event.New(event.TypeGraphChanged, ed.workflowID, nil))
	nodes, edges := ed.store.Len()
	ed.metrics.RecordGraphSize(context.Background(), nodes, edges)
	ed.saver.MarkDirty()
}
