package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single-file SQLite database. SQLite's
// own file locking serializes the read-modify-write sequence across
// process instances; transactions open in immediate mode so the write lock
// is taken before the used-id set is read, not after.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// sqliteBusyTimeoutMS bounds how long a Reserve waits for a concurrent
// instance to release the ledger before failing.
const sqliteBusyTimeoutMS = 30000

// NewSQLiteStore opens the ledger at dbPath, creating the file and schema
// on first use.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(%d)",
		url.PathEscape(dbPath), sqliteBusyTimeoutMS)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS used_sample_ids (id INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Reserve implements Store. The immediate transaction holds the database
// write lock from before the SELECT until COMMIT, so no other process can
// interleave its own read-and-commit.
func (s *SQLiteStore) Reserve(ctx context.Context, fn func(used map[int64]bool) ([]int64, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	used, err := readUsedIDs(ctx, tx)
	if err != nil {
		return err
	}

	newIDs, err := fn(used)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO used_sample_ids (id) VALUES (?)")
	if err != nil {
		return fmt.Errorf("failed to prepare ledger insert: %w", err)
	}
	defer stmt.Close()
	for _, id := range newIDs {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("failed to record surrogate id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger transaction: %w", err)
	}
	return nil
}

// Close closes the ledger database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.Tx and *sql.DB.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func readUsedIDs(ctx context.Context, q querier) (map[int64]bool, error) {
	rows, err := q.QueryContext(ctx, "SELECT id FROM used_sample_ids")
	if err != nil {
		return nil, fmt.Errorf("failed to read used ids: %w", err)
	}
	defer rows.Close()

	used := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan used id: %w", err)
		}
		used[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read used ids: %w", err)
	}
	return used, nil
}
