package report

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Summary is the pre-aggregated input to a report. Counts are not validated
// against each other and ranked entries are used in the order given.
type Summary struct {
	Total         uint32        `json:"total"`
	Success       uint32        `json:"success"`
	Failure       uint32        `json:"failure"`
	TopCategories []RankedEntry `json:"top_categories"`
	TopUsers      []RankedEntry `json:"top_users"`
	TopActions    []RankedEntry `json:"top_actions"`
	Rows          []EventRow    `json:"rows"`
}

// EventRow is one audit event. Every field is an opaque display string.
type EventRow struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Category  string `json:"category"`
	User      string `json:"user"`
	Status    string `json:"status"`
}

// RankedEntry is a (label, count) pair. On the wire it is the two-element
// array ["label", count]; an object with label and count keys is also
// accepted when decoding.
type RankedEntry struct {
	Label string
	Count uint32
}

// MarshalJSON encodes the entry in tuple form.
func (e RankedEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Label, e.Count})
}

// UnmarshalJSON accepts ["label", n] or {"label": "...", "count": n}.
func (e *RankedEntry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("ranked entry: empty value")
	}
	switch trimmed[0] {
	case '[':
		var tuple []json.RawMessage
		if err := json.Unmarshal(trimmed, &tuple); err != nil {
			return fmt.Errorf("ranked entry: %w", err)
		}
		if len(tuple) != 2 {
			return fmt.Errorf("ranked entry: expected [label, count], got %d elements", len(tuple))
		}
		if err := json.Unmarshal(tuple[0], &e.Label); err != nil {
			return fmt.Errorf("ranked entry label: %w", err)
		}
		if err := json.Unmarshal(tuple[1], &e.Count); err != nil {
			return fmt.Errorf("ranked entry count: %w", err)
		}
		return nil
	case '{':
		var obj struct {
			Label *string `json:"label"`
			Count *uint32 `json:"count"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return fmt.Errorf("ranked entry: %w", err)
		}
		if obj.Label == nil || obj.Count == nil {
			return fmt.Errorf("ranked entry: object needs label and count")
		}
		e.Label, e.Count = *obj.Label, *obj.Count
		return nil
	default:
		return fmt.Errorf("ranked entry: expected array or object")
	}
}

// DecodeSummary parses a JSON summary. Unknown keys are ignored.
func DecodeSummary(data []byte) (Summary, error) {
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	return s, nil
}
