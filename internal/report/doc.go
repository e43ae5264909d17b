// Package report lays out an audit summary on a single A4 page and renders it
// to PDF.
//
// Layout is a pure function from Summary to Page so the same positioned text
// can be previewed in a terminal or drawn by a DocumentSink. The page is
// best-effort: ranked sections show at most MaxRankedEntries lines, the event
// table at most MaxEventRows rows, and rows that would cross the bottom margin
// are dropped without error. Render encodes the whole document in memory
// before replacing the destination, so a failed render never leaves a
// truncated file behind.
package report
