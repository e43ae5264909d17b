// Package main hosts the auditdesk CLI entrypoint and command graph.
//
// Commands either run an operation in-process (report, tail, cursors) or
// talk to the daemon over its JSON-RPC socket (start, stop, status and any
// command given --via-daemon). The serve command runs the daemon itself.
package main
