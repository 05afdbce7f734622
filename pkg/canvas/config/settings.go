package config

import "time"

// Default values for canvas settings.
const (
	DefaultAutosaveInterval = time.Second
	DefaultHTTPTimeout      = 15 * time.Second
)

// Settings is the canvas view over a Config. It names every setting the
// editor reads, so hosts get one place to look instead of scattered string
// keys:
//
//	autosave.interval    debounce delay before a dirty draft is saved
//	autosave.disabled    turn background saving off entirely
//	persistence.base_url workflow persistence API
//	assistant.base_url   workflow assistant API
//	connectors.base_url  connector catalog API
//	http.timeout         timeout for outbound API calls
//	layout.rank_sep      horizontal gap between layout ranks
//	layout.node_sep      vertical gap between stacked nodes
type Settings struct {
	cfg Config
}

// NewSettings wraps cfg in the canvas settings view.
func NewSettings(cfg Config) Settings {
	return Settings{cfg: cfg}
}

// AutosaveInterval returns the debounce delay before a dirty draft is saved.
func (s Settings) AutosaveInterval() time.Duration {
	return s.cfg.Duration("autosave.interval", DefaultAutosaveInterval)
}

// AutosaveDisabled reports whether background saving is turned off.
func (s Settings) AutosaveDisabled() bool {
	return s.cfg.Bool("autosave.disabled", false)
}

// PersistenceBaseURL returns the workflow persistence API base URL, or ""
// when unset.
func (s Settings) PersistenceBaseURL() string {
	return s.cfg.String("persistence.base_url", "")
}

// AssistantBaseURL returns the workflow assistant API base URL, or "" when
// unset.
func (s Settings) AssistantBaseURL() string {
	return s.cfg.String("assistant.base_url", "")
}

// ConnectorsBaseURL returns the connector catalog API base URL, or "" when
// unset.
func (s Settings) ConnectorsBaseURL() string {
	return s.cfg.String("connectors.base_url", "")
}

// HTTPTimeout returns the timeout for outbound API calls.
func (s Settings) HTTPTimeout() time.Duration {
	return s.cfg.Duration("http.timeout", DefaultHTTPTimeout)
}

// LayoutRankSep returns the horizontal rank separation override, or 0 when
// unset.
func (s Settings) LayoutRankSep() float64 {
	return s.cfg.Float("layout.rank_sep", 0)
}

// LayoutNodeSep returns the vertical node separation override, or 0 when
// unset.
func (s Settings) LayoutNodeSep() float64 {
	return s.cfg.Float("layout.node_sep", 0)
}
