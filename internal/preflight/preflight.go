package preflight

import (
	"context"
	"strings"

	"auditdesk/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	// Skipped marks checks that do not apply (feature not configured or
	// daemon not running). Skipped results never count as failures.
	Skipped bool   `json:"skipped"`
	Detail  string `json:"detail,omitempty"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := DirectoryChecks(cfg)
	if font := strings.TrimSpace(cfg.Report.FontFile); font != "" {
		results = append(results, CheckFileReadable("Report font", font))
	}
	results = append(results, CheckCursorStore(ctx, cfg))
	results = append(results, CheckDaemonSocket(cfg.SocketPath()))
	if strings.TrimSpace(cfg.API.Bind) != "" {
		results = append(results, CheckAPI(ctx, cfg.API.Bind, cfg.API.Token))
	}
	return results
}

// DirectoryChecks covers the directories the daemon writes into.
func DirectoryChecks(cfg *config.Config) []Result {
	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if cfg.Paths.ReportDir != "" {
		results = append(results, CheckDirectoryAccess("Report directory", cfg.Paths.ReportDir))
	}
	return results
}

// Failed returns the results that neither passed nor were skipped.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			out = append(out, r)
		}
	}
	return out
}
