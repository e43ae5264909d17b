package cursors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"auditdesk/internal/config"
)

// Cursor is the last offset a tail session reached for a path.
type Cursor struct {
	Path      string    `json:"path"`
	Offset    uint64    `json:"offset"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store manages cursor persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open connects to the cursor database under the configured state directory.
func Open(cfg *config.Config) (*Store, error) {
	return OpenPath(cfg.CursorDBPath())
}

// OpenPath opens (creating if needed) the cursor database at dbPath and
// applies migrations.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure state directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the cursor for logPath. ok is false when none is stored.
func (s *Store) Get(ctx context.Context, logPath string) (Cursor, bool, error) {
	key, err := normalizeKey(logPath)
	if err != nil {
		return Cursor{}, false, err
	}
	var (
		offset  int64
		updated string
	)
	err = s.db.QueryRowContext(ctx, "SELECT byte_offset, updated_at FROM tail_cursors WHERE path = ?", key).Scan(&offset, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Cursor{}, false, nil
	}
	if err != nil {
		return Cursor{}, false, fmt.Errorf("query cursor: %w", err)
	}
	return newCursor(key, offset, updated), true, nil
}

// Save records offset for logPath, replacing any previous value.
func (s *Store) Save(ctx context.Context, logPath string, offset uint64) error {
	key, err := normalizeKey(logPath)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tail_cursors (path, byte_offset, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET byte_offset = excluded.byte_offset, updated_at = excluded.updated_at`,
		key, int64(offset), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

// Delete removes the cursor for logPath and reports whether one existed.
func (s *Store) Delete(ctx context.Context, logPath string) (bool, error) {
	key, err := normalizeKey(logPath)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM tail_cursors WHERE path = ?", key)
	if err != nil {
		return false, fmt.Errorf("delete cursor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete cursor: %w", err)
	}
	return n > 0, nil
}

// List returns every stored cursor ordered by most recent update.
func (s *Store) List(ctx context.Context) ([]Cursor, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, byte_offset, updated_at FROM tail_cursors ORDER BY updated_at DESC, path")
	if err != nil {
		return nil, fmt.Errorf("list cursors: %w", err)
	}
	defer rows.Close()

	var out []Cursor
	for rows.Next() {
		var (
			path    string
			offset  int64
			updated string
		)
		if err := rows.Scan(&path, &offset, &updated); err != nil {
			return nil, fmt.Errorf("scan cursor: %w", err)
		}
		out = append(out, newCursor(path, offset, updated))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cursors: %w", err)
	}
	return out, nil
}

func newCursor(path string, offset int64, updated string) Cursor {
	ts, _ := time.Parse(time.RFC3339Nano, updated)
	return Cursor{Path: path, Offset: uint64(offset), UpdatedAt: ts}
}

func normalizeKey(logPath string) (string, error) {
	if logPath == "" {
		return "", errors.New("cursor path is empty")
	}
	abs, err := filepath.Abs(logPath)
	if err != nil {
		return "", fmt.Errorf("resolve cursor path: %w", err)
	}
	return abs, nil
}
