package preflight

import (
	"context"
	"fmt"

	"auditdesk/internal/config"
	"auditdesk/internal/cursors"
)

// CheckCursorStore opens the tail cursor database and counts bookmarks.
func CheckCursorStore(ctx context.Context, cfg *config.Config) Result {
	const name = "Cursor store"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	store, err := cursors.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.CursorDBPath(), err)}
	}
	defer store.Close()

	list, err := store.List(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.CursorDBPath(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d cursors)", cfg.CursorDBPath(), len(list))}
}
