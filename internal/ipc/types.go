package ipc

import "auditdesk/internal/api"

// ServiceName is the JSON-RPC service prefix.
const ServiceName = "AuditDesk"

// ReportRequest renders a summary to a path on the daemon host.
type ReportRequest = api.ReportRequest

// ReportResponse acknowledges a written report.
type ReportResponse = api.ReportResponse

// TailRequest reads the bytes appended after an offset.
type TailRequest = api.TailRequest

// TailResponse carries new text and the next offset.
type TailResponse = api.TailResponse

// TailLinesRequest asks for the last lines of a file.
type TailLinesRequest = api.TailLinesRequest

// TailLinesResponse carries the lines and the resume offset.
type TailLinesResponse = api.TailLinesResponse

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse = api.StatusResponse

// StopRequest asks the daemon process to exit.
type StopRequest struct{}

// StopResponse indicates the stop was accepted.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
