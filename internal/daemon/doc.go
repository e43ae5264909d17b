// Package daemon coordinates the long-running auditdesk process.
//
// It owns the HTTP JSON listener (/api/report, /api/tail, /api/health,
// /api/status) and a flock-based lock that keeps a single daemon per state
// directory. Run serves the listener and any sidecar loops (the IPC socket)
// under one errgroup, so a failure in either stops both.
//
// Keep request handling thin here: validation, logging, and the calls into
// the renderer and tail reader live in internal/api.
package daemon
