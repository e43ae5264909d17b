package cursors

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditdesk/internal/config"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "state", "cursors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	store.now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }

	_, ok, err := store.Get(ctx, "/var/log/audit.log")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "/var/log/audit.log", 120))
	cur, ok, err := store.Get(ctx, "/var/log/audit.log")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(120), cur.Offset)
	assert.Equal(t, "/var/log/audit.log", cur.Path)
	assert.True(t, cur.UpdatedAt.Equal(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)))

	require.NoError(t, store.Save(ctx, "/var/log/audit.log", 300))
	cur, _, err = store.Get(ctx, "/var/log/audit.log")
	require.NoError(t, err)
	assert.Equal(t, uint64(300), cur.Offset)
}

func TestRelativePathsShareKey(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	t.Chdir(t.TempDir())

	require.NoError(t, store.Save(ctx, "audit.log", 7))
	abs, err := filepath.Abs("audit.log")
	require.NoError(t, err)

	cur, ok, err := store.Get(ctx, abs)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(7), cur.Offset)
}

func TestDeleteAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { tick = tick.Add(time.Minute); return tick }

	require.NoError(t, store.Save(ctx, "/logs/a.log", 1))
	require.NoError(t, store.Save(ctx, "/logs/b.log", 2))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "/logs/b.log", list[0].Path)

	removed, err := store.Delete(ctx, "/logs/a.log")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete(ctx, "/logs/a.log")
	require.NoError(t, err)
	assert.False(t, removed)

	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReopenKeepsCursorsAndMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cursors.db")
	store, err := OpenPath(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "/logs/a.log", 42))
	require.NoError(t, store.Close())

	store, err = OpenPath(dbPath)
	require.NoError(t, err)
	defer store.Close()

	cur, ok, err := store.Get(context.Background(), "/logs/a.log")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(42), cur.Offset)
}

func TestOpenUsesConfigStateDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "state")

	store, err := Open(&cfg)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, filepath.Join(cfg.Paths.StateDir, "cursors.db"), store.Path())
}

func TestEmptyPathRejected(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.Save(context.Background(), "", 1))
}
