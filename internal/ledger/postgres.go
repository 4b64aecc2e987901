package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store on PostgreSQL, for deployments where the
// ledger must live off the processing host. It expects the schema to
// already exist (created via migrations).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a ledger store on an existing connection.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping ledger database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a ledger store from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Reserve implements Store. An explicit table lock serializes the whole
// read-and-commit sequence against every other instance; a plain
// transaction would allow two readers to observe the same used set and
// both commit.
func (s *PostgresStore) Reserve(ctx context.Context, fn func(used map[int64]bool) ([]int64, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "LOCK TABLE used_sample_ids IN ACCESS EXCLUSIVE MODE"); err != nil {
		return fmt.Errorf("failed to lock ledger table: %w", err)
	}

	used, err := readUsedIDs(ctx, tx)
	if err != nil {
		return err
	}

	newIDs, err := fn(used)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO used_sample_ids (id) VALUES ($1)")
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
