package report

import (
	"fmt"
	"time"
)

// Page geometry in millimetres. Y is measured up from the bottom edge.
const (
	PageWidthMM    = 210.0
	PageHeightMM   = 297.0
	TopMM          = 285.0
	BottomMarginMM = 20.0
	LeftMM         = 20.0
	IndentMM       = 24.0
)

// Caps on what a single page shows.
const (
	MaxRankedEntries = 5
	MaxEventRows     = 100
)

// DefaultTitle heads the page when no title is configured.
const DefaultTitle = "Audit Report"

const (
	titleSize   = 18.0
	stampSize   = 10.0
	totalsSize  = 11.0
	sectionSize = 12.0
	entrySize   = 10.0
	rowSize     = 8.0

	titleAdvance   = 10.0
	stampAdvance   = 12.0
	totalsAdvance  = 10.0
	sectionAdvance = 8.0
	entryAdvance   = 6.0
	rowAdvance     = 4.5
	sectionGap     = 4.0
	lastSectionGap = 6.0
)

// TextBlock is one line of text placed at an absolute baseline position.
type TextBlock struct {
	Text string
	Size float64
	X    float64
	Y    float64
}

// Page is the laid-out result of a Summary.
type Page struct {
	Title       string
	GeneratedAt time.Time
	WidthMM     float64
	HeightMM    float64
	Blocks      []TextBlock
	// RowsShown counts event rows placed on the page; RowsDropped counts
	// rows omitted by the row cap or the bottom margin.
	RowsShown   int
	RowsDropped int
}

type cursor struct {
	y      float64
	blocks []TextBlock
}

func (c *cursor) emit(text string, size, x, advance float64) {
	c.blocks = append(c.blocks, TextBlock{Text: text, Size: size, X: x, Y: c.y})
	c.y -= advance
}

// Layout positions every line of the report. An empty title uses
// DefaultTitle. generatedAt is printed in RFC 3339 UTC form.
func Layout(summary Summary, title string, generatedAt time.Time) Page {
	if title == "" {
		title = DefaultTitle
	}
	generatedAt = generatedAt.UTC()

	c := &cursor{y: TopMM}
	c.emit(title, titleSize, LeftMM, titleAdvance)
	c.emit("Generated "+generatedAt.Format(time.RFC3339), stampSize, LeftMM, stampAdvance)
	c.emit(fmt.Sprintf("Total: %d  Success: %d  Failure: %d", summary.Total, summary.Success, summary.Failure),
		totalsSize, LeftMM, totalsAdvance)

	sections := []struct {
		title   string
		entries []RankedEntry
		gap     float64
	}{
		{"Top Categories", summary.TopCategories, sectionGap},
		{"Top Users", summary.TopUsers, sectionGap},
		{"Top Actions", summary.TopActions, lastSectionGap},
	}
	for _, section := range sections {
		c.emit(section.title, sectionSize, LeftMM, sectionAdvance)
		for _, entry := range capRanked(section.entries) {
			c.emit(fmt.Sprintf("%s: %d", entry.Label, entry.Count), entrySize, IndentMM, entryAdvance)
		}
		c.y -= section.gap
	}

	c.emit(fmt.Sprintf("Events (first %d)", MaxEventRows), sectionSize, LeftMM, sectionAdvance)
	shown := 0
	for _, row := range capRows(summary.Rows) {
		c.emit(FormatRow(row), rowSize, LeftMM, rowAdvance)
		shown++
		if c.y < BottomMarginMM {
			break
		}
	}

	return Page{
		Title:       title,
		GeneratedAt: generatedAt,
		WidthMM:     PageWidthMM,
		HeightMM:    PageHeightMM,
		Blocks:      c.blocks,
		RowsShown:   shown,
		RowsDropped: len(summary.Rows) - shown,
	}
}

// FormatRow renders an event as "ts | action | category | user | status".
func FormatRow(row EventRow) string {
	return row.Timestamp + " | " + row.Action + " | " + row.Category + " | " + row.User + " | " + row.Status
}

func capRanked(entries []RankedEntry) []RankedEntry {
	if len(entries) > MaxRankedEntries {
		return entries[:MaxRankedEntries]
	}
	return entries
}

func capRows(rows []EventRow) []EventRow {
	if len(rows) > MaxEventRows {
		return rows[:MaxEventRows]
	}
	return rows
}
