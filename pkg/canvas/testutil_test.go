package canvas

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/connector"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/draft"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/event"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
)

// testConnectors is the catalog the root tests run against: one connector of
// every node kind the engine distinguishes, with manifests rich enough to
// exercise label and default-config derivation.
func testConnectors() []connector.Connector {
	return []connector.Connector{
		{
			ID:   "conn-webhook",
			Slug: "webhook",
			Type: "trigger",
			Manifest: json.RawMessage(`{
				"name": "Webhook",
				"actions": [{
					"id": "receive",
					"name": "Receive Webhook",
					"input_schema": {"properties": {"method": {"type": "string", "default": "POST"}}}
				}]
			}`),
		},
		{
			ID:   "conn-email",
			Slug: "send-email",
			Type: "action",
			Manifest: json.RawMessage(`{
				"name": "Send Email",
				"actions": [{"id": "send", "name": "Send Message"}]
			}`),
		},
		{
			ID:       "conn-if",
			Slug:     "if",
			Type:     "condition",
			Manifest: json.RawMessage(`{"name": "If"}`),
		},
		{
			ID:   "conn-agent",
			Slug: "ai-agent",
			Type: "agent",
			Manifest: json.RawMessage(`{
				"name": "AI Agent",
				"actions": [{"id": "run", "name": "Run Agent"}]
			}`),
		},
		{
			ID:       "conn-model",
			Slug:     "gpt-4",
			Type:     "model",
			Manifest: json.RawMessage(`{"name": "GPT-4"}`),
		},
		{
			ID:       "conn-memory",
			Slug:     "redis-memory",
			Type:     "memory",
			Manifest: json.RawMessage(`{"name": "Redis Memory"}`),
		},
		{
			ID:       "conn-tool",
			Slug:     "http-tool",
			Type:     "tool",
			Manifest: json.RawMessage(`{"name": "HTTP Tool"}`),
		},
	}
}

// quietLogger discards output so skip diagnostics do not spam test runs.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEditor builds and opens an editor against the test catalog with
// autosave disabled. Extra options append after, so callers can override the
// store or the bus.
func newTestEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	base := []Option{
		WithLogger(quietLogger()),
		WithConnectorSource(connector.StaticSource(testConnectors())),
		WithAutosaveDisabled(),
	}
	ed := NewEditor("wf-test", append(base, opts...)...)
	t.Cleanup(func() { _ = ed.Close() })
	require.NoError(t, ed.Open(context.Background()))
	return ed
}

// mustAddNode adds a node through the editor or fails the test.
func mustAddNode(t *testing.T, ed *Editor, slug, actionID string) graph.Node {
	t.Helper()
	n, err := ed.AddNode(slug, actionID, graph.Position{})
	require.NoError(t, err)
	return n
}

// eventRecorder collects bus events for assertions.
type eventRecorder struct {
	mu   sync.Mutex
	evts []event.Event
}

func (r *eventRecorder) handle(evt event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evts = append(r.evts, evt)
}

func (r *eventRecorder) count(t event.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, evt := range r.evts {
		if evt.Type == t {
			n++
		}
	}
	return n
}

func (r *eventRecorder) last(t event.Type) (event.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.evts) - 1; i >= 0; i-- {
		if r.evts[i].Type == t {
			return r.evts[i], true
		}
	}
	return event.Event{}, false
}

// fakeTimer is a Timer whose firing the fakeClock controls.
type fakeTimer struct {
	clock  *fakeClock
	fn     func()
	active bool
}

func (t *fakeTimer) Reset(time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.active
	t.active = true
	return was
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.active
	t.active = false
	return was
}

// fakeClock is a Clock whose timers fire only when the test says so.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{}
}

func (c *fakeClock) AfterFunc(_ time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, fn: fn, active: true}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every armed timer callback synchronously on the caller's
// goroutine, matching how the debounce tick would run.
func (c *fakeClock) fire() {
	c.mu.Lock()
	var due []func()
	for _, t := range c.timers {
		if t.active {
			t.active = false
			due = append(due, t.fn)
		}
	}
	c.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}

// armed reports whether any timer is waiting to fire.
func (c *fakeClock) armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.timers {
		if t.active {
			return true
		}
	}
	return false
}

// recordingStore wraps a memory store, counting saves and optionally failing
// them.
type recordingStore struct {
	*draft.MemoryStore
	mu      sync.Mutex
	saves   int
	saveErr error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: draft.NewMemoryStore()}
}

func (s *recordingStore) SaveDraft(ctx context.Context, workflowID string, g graph.Graph) error {
	s.mu.Lock()
	s.saves++
	err := s.saveErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.SaveDraft(ctx, workflowID, g)
}

func (s *recordingStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *recordingStore) failWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// blockingStore blocks its first SaveDraft until release is closed; later
// saves pass straight through. It choreographs the in-flight guard test.
type blockingStore struct {
	*draft.MemoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		MemoryStore: draft.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (s *blockingStore) SaveDraft(ctx context.Context, workflowID string, g graph.Graph) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return s.MemoryStore.SaveDraft(ctx, workflowID, g)
}
