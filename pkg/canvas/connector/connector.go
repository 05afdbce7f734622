// Package connector models the external connector catalog the canvas builds
// nodes from. Connectors are consumed read-only: the engine looks them up by
// slug when interpreting add_node commands, derives the node kind from the
// declared connector type, and reads display metadata and config defaults out
// of the opaque manifest document.
package connector

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
)

// ErrNotFound indicates a connector id or slug with no catalog entry.
var ErrNotFound = errors.New("connector not found")

// Connector describes one integration as served by the catalog API.
// Manifest is the connector's self-description (display name, declared
// actions, input schemas); the engine never interprets it beyond the helper
// lookups in this package.
type Connector struct {
	ID           string          `json:"id"`
	Slug         string          `json:"slug"`
	Type         string          `json:"connector_type"`
	Manifest     json.RawMessage `json:"manifest,omitempty"`
	IconURLLight string          `json:"icon_url_light,omitempty"`
	IconURLDark  string          `json:"icon_url_dark,omitempty"`
	IsCustom     bool            `json:"is_custom,omitempty"`
}

// Kind maps the connector's declared type onto a node kind.
func (c Connector) Kind() graph.Kind {
	return KindForType(c.Type, c.IsCustom)
}

// KindForType maps a connector_type string onto a node kind. The catalog
// uses the kind names themselves plus the legacy aliases model, memory, and
// tool. Unknown types fall back to action, or custom when the connector is
// user-built.
func KindForType(connectorType string, isCustom bool) graph.Kind {
	switch strings.ToLower(strings.TrimSpace(connectorType)) {
	case "trigger":
		return graph.KindTrigger
	case "action":
		return graph.KindAction
	case "condition":
		return graph.KindCondition
	case "agent":
		return graph.KindAgent
	case "agent-model", "model":
		return graph.KindAgentModel
	case "agent-memory", "memory":
		return graph.KindAgentMemory
	case "agent-tool", "tool":
		return graph.KindAgentTool
	case "custom":
		return graph.KindCustom
	default:
		if isCustom {
			return graph.KindCustom
		}
		return graph.KindAction
	}
}

// normalizeSlug canonicalizes slugs for lookup; catalogs serve lowercase
// slugs but assistants re-case them freely.
func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// humanizeSlug turns "ai-agent" into "Ai Agent" for use as a node label when
// the manifest declares no display name.
func humanizeSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
