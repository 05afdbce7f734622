package canvas

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/config"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/connector"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/draft"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/event"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/observability"
)

// editorConfig holds configuration for an editing session.
type editorConfig struct {
	logger           *slog.Logger
	store            draft.Store
	source           connector.Source
	bus              event.Bus
	metrics          observability.MetricsRecorder
	spans            observability.SpanManager
	autosaveInterval time.Duration
	autosaveDisabled bool
	rankSep          float64
	nodeSep          float64
	clock            Clock
}

// defaultEditorConfig returns the default session configuration: in-memory
// persistence, no-op observability, and a one second autosave debounce.
func defaultEditorConfig() editorConfig {
	return editorConfig{
		logger:           slog.Default(),
		metrics:          observability.NoopMetrics{},
		spans:            observability.NoopSpanManager{},
		autosaveInterval: config.DefaultAutosaveInterval,
		clock:            realClock{},
	}
}

// Option configures an editor session.
type Option func(*editorConfig)

// WithLogger sets the structured logger for the session. The editor enriches
// it with the workflow id, so hosts pass their base logger.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *editorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDraftStore sets the persistence backend drafts load from and save to.
// Default: an in-memory store private to the editor.
//
// The editor never closes the store; hosts that share one store across
// editors close it themselves.
func WithDraftStore(store draft.Store) Option {
	return func(c *editorConfig) {
		if store != nil {
			c.store = store
		}
	}
}

// WithConnectorSource sets the catalog the editor loads connectors from
// during Open. Without one the registry starts empty and hosts register
// connectors directly.
func WithConnectorSource(src connector.Source) Option {
	return func(c *editorConfig) {
		if src != nil {
			c.source = src
		}
	}
}

// WithBus sets the event bus the editor publishes to. Hosts that drive
// several editors can share one bus; events carry the workflow id to keep
// the streams apart. Default: a private bus the editor closes on Close.
func WithBus(bus event.Bus) Option {
	return func(c *editorConfig) {
		if bus != nil {
			c.bus = bus
		}
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
//
// Example:
//
//	ed := canvas.NewEditor("wf-1", canvas.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(rec observability.MetricsRecorder) Option {
	return func(c *editorConfig) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// WithSpanManager sets the trace span manager.
// Default: observability.NoopSpanManager{}
func WithSpanManager(spans observability.SpanManager) Option {
	return func(c *editorConfig) {
		if spans != nil {
			c.spans = spans
		}
	}
}

// WithAutosaveInterval sets the debounce delay between the first unsaved
// change and the background save.
// Default: config.DefaultAutosaveInterval
func WithAutosaveInterval(d time.Duration) Option {
	return func(c *editorConfig) {
		if d > 0 {
			c.autosaveInterval = d
		}
	}
}

// WithAutosaveDisabled turns background saving off. Save still works; only
// the debounce timer is suppressed.
func WithAutosaveDisabled() Option {
	return func(c *editorConfig) {
		c.autosaveDisabled = true
	}
}

// WithLayoutSeparation overrides the auto-layout geometry. Zero or negative
// values keep the defaults.
func WithLayoutSeparation(rankSep, nodeSep float64) Option {
	return func(c *editorConfig) {
		if rankSep > 0 {
			c.rankSep = rankSep
		}
		if nodeSep > 0 {
			c.nodeSep = nodeSep
		}
	}
}

// WithSettings applies a loaded canvas configuration in one call: autosave
// interval and disablement, layout separations, and HTTP backends for
// persistence and the connector catalog when their base URLs are set.
// Explicit options may be combined with it; later options win.
func WithSettings(s config.Settings) Option {
	return func(c *editorConfig) {
		if d := s.AutosaveInterval(); d > 0 {
			c.autosaveInterval = d
		}
		if s.AutosaveDisabled() {
			c.autosaveDisabled = true
		}
		if sep := s.LayoutRankSep(); sep > 0 {
			c.rankSep = sep
		}
		if sep := s.LayoutNodeSep(); sep > 0 {
			c.nodeSep = sep
		}
		httpc := &http.Client{Timeout: s.HTTPTimeout()}
		if url := s.PersistenceBaseURL(); url != "" {
			c.store = draft.NewHTTPStore(url, draft.WithHTTPClient(httpc))
		}
		if url := s.ConnectorsBaseURL(); url != "" {
			c.source = connector.NewHTTPSource(url, connector.WithHTTPClient(httpc))
		}
	}
}

// WithClock sets the time source for the autosave debounce. Tests inject a
// fake clock to fire timers deterministically.
// Default: the real time package.
func WithClock(clock Clock) Option {
	return func(c *editorConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}
