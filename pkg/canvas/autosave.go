package canvas

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/draft"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/event"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/observability"
)

// Clock schedules deferred work. The real clock delegates to time.AfterFunc;
// tests inject a fake that fires timers on demand.
type Clock interface {
	// AfterFunc runs fn on its own goroutine after d elapses.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a stoppable, resettable scheduled call.
type Timer interface {
	// Reset reschedules the timer for d from now.
	Reset(d time.Duration) bool

	// Stop cancels the timer if it has not fired.
	Stop() bool
}

// realClock is the production Clock backed by the time package.
type realClock struct{}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SaveCoordinator owns the autosave protocol for one workflow: a debounced
// dirty check against the serialized form of the last successful save.
//
// MarkDirty arms (or re-arms) the debounce timer. When it fires, the current
// graph is serialized and byte-compared against the snapshot; only a real
// difference reaches the store. The snapshot advances on success and stays
// put on failure, so the next tick retries with the newest state. An
// in-flight guard serializes saves: a tick that lands during a save marks it
// pending instead of starting a second one, and the pending save runs after
// the current one completes. Nothing in flight is ever cancelled.
type SaveCoordinator struct {
	workflowID string
	store      draft.Store
	snapshotFn func() graph.Graph
	logger     *slog.Logger
	bus        event.Bus
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
	interval   time.Duration
	disabled   bool
	clock      Clock

	mu       sync.Mutex
	timer    Timer
	snapshot []byte
	inFlight bool
	pending  bool
	stopped  bool

	// saveMu serializes the timer goroutine's save with explicit Flush calls.
	saveMu sync.Mutex
}

// NewSaveCoordinator creates a coordinator that persists snapshot() to store
// under workflowID. Most hosts never call this directly; the Editor owns one.
//
// Panics on an empty workflow id, nil store, or nil snapshot function: those
// are wiring mistakes, not runtime conditions.
func NewSaveCoordinator(workflowID string, store draft.Store, snapshot func() graph.Graph, opts ...Option) *SaveCoordinator {
	if workflowID == "" {
		panic("canvas: workflow ID cannot be empty")
	}
	if store == nil {
		panic("canvas: draft store cannot be nil")
	}
	if snapshot == nil {
		panic("canvas: snapshot function cannot be nil")
	}
	cfg := defaultEditorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bus == nil {
		cfg.bus = event.NewBus()
	}
	return newSaveCoordinator(workflowID, store, snapshot, cfg)
}

// newSaveCoordinator wires a coordinator from an already-resolved config.
func newSaveCoordinator(workflowID string, store draft.Store, snapshot func() graph.Graph, cfg editorConfig) *SaveCoordinator {
	return &SaveCoordinator{
		workflowID: workflowID,
		store:      store,
		snapshotFn: snapshot,
		logger:     observability.EnrichLogger(cfg.logger, workflowID),
		bus:        cfg.bus,
		metrics:    cfg.metrics,
		spans:      cfg.spans,
		interval:   cfg.autosaveInterval,
		disabled:   cfg.autosaveDisabled,
		clock:      cfg.clock,
	}
}

// MarkDirty notes that the graph changed and (re)arms the debounce timer, so
// a burst of mutations coalesces into one save. No-op when autosave is
// disabled or the coordinator is stopped.
func (c *SaveCoordinator) MarkDirty() {
	if c.disabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.armLocked()
}

// armLocked starts or resets the debounce timer. Callers hold c.mu.
func (c *SaveCoordinator) armLocked() {
	if c.timer == nil {
		c.timer = c.clock.AfterFunc(c.interval, c.tick)
		return
	}
	c.timer.Reset(c.interval)
}

// tick runs on the timer goroutine when the debounce elapses.
func (c *SaveCoordinator) tick() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if c.inFlight {
		// A save is running; remember that newer state exists and let the
		// completion path re-arm.
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.mu.Unlock()

	err := c.save(context.Background())

	c.mu.Lock()
	c.inFlight = false
	rearm := c.pending || err != nil
	c.pending = false
	if rearm && !c.stopped {
		c.armLocked()
	}
	c.mu.Unlock()
}

// Flush saves immediately when the graph differs from the snapshot,
// bypassing the debounce. Explicit saves and activation call it.
func (c *SaveCoordinator) Flush(ctx context.Context) error {
	return c.save(ctx)
}

// save serializes the current graph, compares it to the snapshot, and
// persists on difference. Returns nil when the graph is already clean.
func (c *SaveCoordinator) save(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	g := c.snapshotFn()
	data, err := graph.Marshal(g)
	if err != nil {
		return &SaveError{WorkflowID: c.workflowID, Err: err}
	}

	c.mu.Lock()
	clean := bytes.Equal(data, c.snapshot)
	c.mu.Unlock()
	if clean {
		return nil
	}

	observability.LogSaveStart(c.logger, len(data))
	c.bus.Publish(event.New(event.TypeSaveStarted, c.workflowID, event.SaveResult{Bytes: len(data)}))
	saveCtx, span := c.spans.StartSaveSpan(ctx, c.workflowID)
	start := time.Now()

	err = c.store.SaveDraft(saveCtx, c.workflowID, g)

	duration := time.Since(start)
	durationMs := float64(duration.Milliseconds())
	c.spans.EndSpanWithError(span, err)
	c.metrics.RecordSave(saveCtx, err == nil, int64(len(data)), duration)

	if err != nil {
		observability.LogSaveError(c.logger, err, durationMs)
		c.bus.Publish(event.New(event.TypeSaveFailed, c.workflowID, event.SaveResult{Bytes: len(data), Err: err}))
		return &SaveError{WorkflowID: c.workflowID, Err: err}
	}

	c.mu.Lock()
	c.snapshot = data
	c.mu.Unlock()

	observability.LogSaveSuccess(c.logger, len(data), durationMs)
	c.bus.Publish(event.New(event.TypeSaveSucceeded, c.workflowID, event.SaveResult{Bytes: len(data)}))
	return nil
}

// Dirty reports whether the current graph differs from the last saved
// snapshot. A graph that fails to serialize counts as dirty.
func (c *SaveCoordinator) Dirty() bool {
	data, err := graph.Marshal(c.snapshotFn())
	if err != nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return !bytes.Equal(data, c.snapshot)
}

// Seed installs the baseline snapshot after hydration, so loading a draft
// does not immediately count as an unsaved change.
func (c *SaveCoordinator) Seed(snapshot []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snapshot
}

// Stop cancels any pending debounce and refuses further timer work. It does
// not interrupt a save already in flight.
func (c *SaveCoordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
}
