// Package api defines the wire-format types shared by the HTTP and IPC
// surfaces and the Service that invokes the report renderer and tail reader
// on behalf of a caller.
//
// # Key Types
//
// ReportRequest/ReportResponse: generate_pdf_report payloads. The summary is
// passed through as report.Summary so ranked entries keep their
// [label, count] tuple encoding.
//
// TailRequest/TailResponse: read_tail_chunk payloads ({"text", "length"}).
//
// ErrorResponse: {"error": "..."} body for failed calls, plus the error kind.
//
// StatusResponse: daemon runtime information and per-operation counters.
//
// # Service
//
// Service validates requests, stamps a request ID, operation, and transport
// on the context, logs the outcome, and returns errors tagged with the
// services markers. HTTPStatus maps those markers to status codes.
//
// # Client
//
// Client is the HTTP counterpart used by the CLI when --via-daemon targets
// the HTTP listener. Remote failures come back as *RemoteError, which unwraps
// to the same services marker the daemon reported.
package api
