// Package preflight provides readiness checks for the filesystem paths and
// daemon endpoints auditdesk depends on.
//
// The CLI "auditdesk status" command runs RunAll and renders each Result;
// "auditdesk serve" runs the directory checks before taking the lock so a
// misconfigured state directory fails fast with a readable message.
package preflight
