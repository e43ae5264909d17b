package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tupleSummary = `{
  "total": 10,
  "success": 7,
  "failure": 3,
  "top_categories": [["login", 5], ["logout", 3]],
  "top_users": [{"label": "alice", "count": 4}],
  "top_actions": [],
  "rows": [
    {"timestamp": "2026-10-19T10:00:00Z", "action": "login", "category": "auth", "user": "alice", "status": "ok"}
  ],
  "extra": "ignored"
}`

func TestDecodeSummaryAcceptsTuplesAndObjects(t *testing.T) {
	s, err := DecodeSummary([]byte(tupleSummary))
	require.NoError(t, err)

	assert.Equal(t, uint32(10), s.Total)
	assert.Equal(t, []RankedEntry{{"login", 5}, {"logout", 3}}, s.TopCategories)
	assert.Equal(t, []RankedEntry{{"alice", 4}}, s.TopUsers)
	assert.Empty(t, s.TopActions)
	require.Len(t, s.Rows, 1)
	assert.Equal(t, "alice", s.Rows[0].User)
}

func TestRankedEntryEncodesAsTuple(t *testing.T) {
	data, err := json.Marshal(RankedEntry{Label: "login", Count: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `["login", 5]`, string(data))
}

func TestRankedEntryRejectsMalformed(t *testing.T) {
	for name, input := range map[string]string{
		"short tuple":    `["login"]`,
		"long tuple":     `["login", 5, 6]`,
		"negative count": `["login", -1]`,
		"count overflow": `["login", 4294967296]`,
		"string count":   `["login", "5"]`,
		"missing count":  `{"label": "login"}`,
		"scalar":         `"login"`,
	} {
		t.Run(name, func(t *testing.T) {
			var e RankedEntry
			assert.Error(t, json.Unmarshal([]byte(input), &e))
		})
	}
}
