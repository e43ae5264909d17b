// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships the
// matching client used by the CLI.
//
// The server registers the "AuditDesk" service with GeneratePDFReport,
// ReadTailChunk, TailLines, Status, and Stop. Each call runs through the
// daemon's api.Service with the "ipc" transport stamped on its context.
//
// net/rpc only carries error strings, so failures travel as "[kind] message"
// and the client turns them back into *api.RemoteError values that unwrap to
// the same services markers the HTTP client sees.
package ipc
