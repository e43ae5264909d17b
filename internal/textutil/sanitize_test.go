package textutil

import (
	"testing"
	"time"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  plain.pdf ", "plain.pdf"},
		{"a/b\\c:d*e", "a-b-c-d-e"},
		{`what?"<is>|this`, "whatisthis"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Weekly Audit", "weekly_audit"},
		{"  Q3 / 2024 ", "q3_2024"},
		{"Übersicht Zugriff", "bersicht_zugriff"},
		{"***", "unknown"},
		{"", "unknown"},
	}
	for _, tc := range cases {
		if got := SanitizeToken(tc.in); got != tc.want {
			t.Fatalf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestReportFileName(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	if got := ReportFileName("Audit Report", at); got != "audit_report-20240501T100000Z.pdf" {
		t.Fatalf("unexpected name %q", got)
	}
}
