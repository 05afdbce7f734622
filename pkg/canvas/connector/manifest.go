package connector

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DisplayName returns the connector's human-readable name. It prefers the
// manifest's name field, then title, and falls back to a title-cased slug.
func (c Connector) DisplayName() string {
	if name := gjson.GetBytes(c.Manifest, "name"); name.Type == gjson.String && name.Str != "" {
		return name.Str
	}
	if title := gjson.GetBytes(c.Manifest, "title"); title.Type == gjson.String && title.Str != "" {
		return title.Str
	}
	return humanizeSlug(c.Slug)
}

// ActionName returns the display name the manifest declares for actionID,
// or the empty string when the manifest has no such action.
func (c Connector) ActionName(actionID string) string {
	if actionID == "" {
		return ""
	}
	query := fmt.Sprintf("actions.#(id==%q).name", actionID)
	if name := gjson.GetBytes(c.Manifest, query); name.Type == gjson.String {
		return name.Str
	}
	return ""
}

// ActionIDs lists the ids of the actions the manifest declares, in manifest
// order.
func (c Connector) ActionIDs() []string {
	var ids []string
	gjson.GetBytes(c.Manifest, "actions.#.id").ForEach(func(_, id gjson.Result) bool {
		if id.Type == gjson.String {
			ids = append(ids, id.Str)
		}
		return true
	})
	return ids
}

// DefaultConfig assembles the default node config for actionID from the
// action's input schema. Every schema property with a default contributes
// one entry; properties without defaults are omitted. Returns nil when the
// manifest declares no defaults for the action.
func (c Connector) DefaultConfig(actionID string) map[string]any {
	if actionID == "" {
		return nil
	}
	query := fmt.Sprintf("actions.#(id==%q).input_schema.properties", actionID)
	props := gjson.GetBytes(c.Manifest, query)
	if !props.IsObject() {
		return nil
	}

	doc := "{}"
	props.ForEach(func(key, prop gjson.Result) bool {
		def := prop.Get("default")
		if !def.Exists() {
			return true
		}
		// Dots in property names would otherwise be read as sjson path
		// separators.
		path := strings.ReplaceAll(key.Str, ".", `\.`)
		if out, err := sjson.Set(doc, path, def.Value()); err == nil {
			doc = out
		}
		return true
	})

	if doc == "{}" {
		return nil
	}
	var config map[string]any
	if err := json.Unmarshal([]byte(doc), &config); err != nil {
		return nil
	}
	return config
}
