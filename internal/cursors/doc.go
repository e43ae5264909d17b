// Package cursors persists tail bookmarks for the CLI.
//
// A cursor records the offset a previous `auditdesk tail` session reached for
// a log path so `tail --resume` can continue from there. Cursors are caller
// state: the tail reader itself never consults them.
package cursors
