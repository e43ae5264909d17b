package testsupport

import (
	"fmt"

	"auditdesk/internal/report"
)

// SampleSummary returns the small summary used across end-to-end tests:
// 10 events, two categories, two rows.
func SampleSummary() report.Summary {
	return report.Summary{
		Total:   10,
		Success: 7,
		Failure: 3,
		TopCategories: []report.RankedEntry{
			{Label: "login", Count: 5},
			{Label: "logout", Count: 3},
		},
		Rows: []report.EventRow{
			{Timestamp: "2024-05-01T10:00:00Z", Action: "login", Category: "auth", User: "alice", Status: "success"},
			{Timestamp: "2024-05-01T10:05:00Z", Action: "logout", Category: "auth", User: "bob", Status: "failure"},
		},
	}
}

// LargeSummary returns a summary with n rows and more ranked entries than a
// page shows.
func LargeSummary(n int) report.Summary {
	s := report.Summary{Total: uint32(n), Success: uint32(n)}
	for i := 0; i < 8; i++ {
		s.TopCategories = append(s.TopCategories, report.RankedEntry{Label: fmt.Sprintf("category-%d", i), Count: uint32(8 - i)})
		s.TopUsers = append(s.TopUsers, report.RankedEntry{Label: fmt.Sprintf("user-%d", i), Count: uint32(8 - i)})
		s.TopActions = append(s.TopActions, report.RankedEntry{Label: fmt.Sprintf("action-%d", i), Count: uint32(8 - i)})
	}
	for i := 0; i < n; i++ {
		s.Rows = append(s.Rows, report.EventRow{
			Timestamp: fmt.Sprintf("2024-05-01T10:%02d:00Z", i%60),
			Action:    "read",
			Category:  "file",
			User:      fmt.Sprintf("user-%d", i%8),
			Status:    "success",
		})
	}
	return s
}
