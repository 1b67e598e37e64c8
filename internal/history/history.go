// ABOUTME: SQLite-backed activity journal using modernc.org/sqlite
// ABOUTME: Records who submitted what to whom, the amount and the ledger's verdict

package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/2389/hero-console/internal/amount"
	"github.com/2389/hero-console/internal/ledger"
	"github.com/2389/hero-console/internal/principal"
)

// Entry is one recorded write submission.
type Entry struct {
	ID        string
	Op        string // "transfer" or "mint"
	From      string
	To        string
	Amount    string
	OK        bool
	Reason    string
	CreatedAt time.Time
}

// Store is the journal. It implements session.Recorder.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the journal database at the given path. Parent
// directories are created if needed and the schema is bootstrapped
// automatically.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	// WAL keeps concurrent reads cheap while writes land.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With("component", "history"),
	}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s.logger.Debug("journal opened", "path", path)
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS activity (
	id         TEXT PRIMARY KEY,
	op         TEXT NOT NULL,
	from_p     TEXT NOT NULL,
	to_p       TEXT NOT NULL,
	amount     TEXT NOT NULL,
	ok         INTEGER NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_created ON activity(created_at);
`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts the outcome of a submitted write. Implements
// session.Recorder.
func (s *Store) Record(ctx context.Context, op string, from, to principal.Principal, amt amount.Amount, res ledger.Result) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO activity (id, op, from_p, to_p, amount, ok, reason, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(),
		op,
		from.String(),
		to.String(),
		amt.String(),
		boolToInt(res.OK),
		res.Reason,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", op, err)
	}
	return nil
}

// Recent returns the most recent entries, newest first. Entries sharing a
// timestamp fall back to insertion order.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, op, from_p, to_p, amount, ok, reason, created_at
FROM activity
ORDER BY created_at DESC, rowid DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ok int
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Op, &e.From, &e.To, &e.Amount, &ok, &e.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		e.OK = ok != 0
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
