package graph

import "strings"

// Resolve maps an externally supplied identifier to a node id. It exists for
// edges specified by AI references rather than ids: assistants name nodes by
// label ("Webhook"), by slug ("webhook"), or by slug_action compounds
// ("webhook_receive", "ai_agent_run").
//
// Matching is case-insensitive and trimmed, in this priority:
//  1. exact label
//  2. exact slug
//  3. slug + "_" + actionId
//  4. same as 3 with hyphens in the slug normalized to underscores
//
// Within each tier the first node in insertion order wins; ties between
// same-labelled nodes resolve to the first-created node and are not reported.
// The second return is false when nothing matches, and the caller is expected
// to skip the dependent operation.
func Resolve(identifier string, nodes []Node) (string, bool) {
	want := trimFold(identifier)
	if want == "" {
		return "", false
	}

	for _, n := range nodes {
		if trimFold(n.Data.Label) == want {
			return n.ID, true
		}
	}
	for _, n := range nodes {
		if trimFold(n.Data.Slug) == want {
			return n.ID, true
		}
	}
	for _, n := range nodes {
		if n.Data.Slug == "" {
			continue
		}
		if trimFold(n.Data.Slug+"_"+n.Data.ActionID) == want {
			return n.ID, true
		}
	}
	for _, n := range nodes {
		if n.Data.Slug == "" {
			continue
		}
		flat := strings.ReplaceAll(n.Data.Slug, "-", "_")
		if trimFold(flat+"_"+n.Data.ActionID) == want {
			return n.ID, true
		}
	}
	return "", false
}
