package dispatcher

import (
	"encoding/json"

	"github.com/beads-village/bv/internal/issuestore"
)

// rawToAny decodes a json.RawMessage into a generic any (map, slice,
// scalar...) for handlers whose contract is "pass the store's response
// through". A decode failure becomes a string so the result is never lost.
func rawToAny(data json.RawMessage) any {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	return v
}

// listEnvelope is the optional shape an issue-store response may carry
// around a plain array: {items, total}. Stores that just return a bare
// array are handled by issuestore.DecodeIssues falling back to len(items).
type listEnvelope struct {
	Items []json.RawMessage `json:"items"`
	Total *int               `json:"total"`
}

// decodeList returns the decoded items plus a total count: the store's own
// total when present, otherwise len(items).
func decodeList(data json.RawMessage) ([]issuestore.Issue, int) {
	items := issuestore.DecodeIssues(data)

	var env listEnvelope
	if err := json.Unmarshal(data, &env); err == nil && env.Total != nil {
		return items, *env.Total
	}
	return items, len(items)
}

// decodeInto is a thin json.Unmarshal wrapper for the handful of call sites
// that need one specific field out of a raw store response rather than the
// whole payload.
func decodeInto(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}

func issuesToAny(items []issuestore.Issue) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, rawToAny(it.Raw))
	}
	return out
}
