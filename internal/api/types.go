package api

import "auditdesk/internal/report"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ReportRequest asks for summary to be rendered to Path. Relative paths are
// placed under the configured report directory.
type ReportRequest struct {
	Path    string         `json:"path"`
	Payload report.Summary `json:"payload"`
}

// ReportResponse acknowledges a written report. Callers that only check for
// success can treat it as an empty object.
type ReportResponse struct {
	Path        string `json:"path,omitempty"`
	RequestID   string `json:"requestId,omitempty"`
	RowsShown   int    `json:"rowsShown,omitempty"`
	RowsDropped int    `json:"rowsDropped,omitempty"`
}

// TailRequest asks for the bytes of Path appended after Offset. Settle holds
// back a trailing multi-byte character that is still being written instead of
// failing on it; followers polling a live file set it.
type TailRequest struct {
	Path   string `json:"path"`
	Offset uint64 `json:"offset"`
	Settle bool   `json:"settle,omitempty"`
}

// TailResponse carries the new text and the offset to pass next time.
type TailResponse struct {
	Text   string `json:"text"`
	Length uint64 `json:"length"`
}

// TailLinesRequest asks for the last Lines lines of Path.
type TailLinesRequest struct {
	Path  string `json:"path"`
	Lines int    `json:"lines"`
}

// TailLinesResponse carries the lines and the offset to resume from.
// Partial reports that the last line has no trailing newline yet.
type TailLinesResponse struct {
	Lines   []string `json:"lines"`
	Offset  uint64   `json:"offset"`
	Partial bool     `json:"partial,omitempty"`
}

// ErrorResponse is the body of every failed HTTP call.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// HealthResponse is returned by the unauthenticated health probe.
type HealthResponse struct {
	Status string `json:"status"`
}

// ServiceStats counts Service outcomes since startup.
type ServiceStats struct {
	ReportsRendered uint64 `json:"reportsRendered"`
	ChunksServed    uint64 `json:"chunksServed"`
	Failures        uint64 `json:"failures"`
}

// StatusResponse summarizes the running daemon.
type StatusResponse struct {
	Running      bool         `json:"running"`
	PID          int          `json:"pid"`
	StartedAt    string       `json:"startedAt,omitempty"`
	SessionID    string       `json:"sessionId,omitempty"`
	Bind         string       `json:"bind,omitempty"`
	SocketPath   string       `json:"socketPath,omitempty"`
	LockFilePath string       `json:"lockFilePath,omitempty"`
	LogPath      string       `json:"logPath,omitempty"`
	DecodePolicy string       `json:"decodePolicy"`
	Stats        ServiceStats `json:"stats"`
}
