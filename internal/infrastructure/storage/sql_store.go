package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"FeedSignals/internal/identity"
	"FeedSignals/internal/ports"
)

const (
	identityTable  = "identity_log"
	insertChunkLen = 500
)

// SQLStore persists the identity log into a SQL table, one row per identity.
type SQLStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ ports.IdentityStore = (*SQLStore)(nil)

// OpenSQLite opens (or creates) a sqlite database and prepares the schema.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	store := NewSQLStore(db, logger)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wires a sql.DB implementation.
func NewSQLStore(db *sql.DB, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{db: db, logger: logger}
}

// Migrate creates the identity table when absent.
func (s *SQLStore) Migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + identityTable + ` (
	              seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	              identity TEXT NOT NULL UNIQUE
	          )`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create identity table: %w", err)
	}
	return nil
}

// Load returns the stored identities in insertion order, or an empty log on any failure.
func (s *SQLStore) Load(ctx context.Context) *identity.Log {
	values, err := s.loadValues(ctx)
	if err != nil {
		s.logger.Warn("identity table unreadable, starting empty", "error", err)
		return identity.NewLog()
	}
	return identity.FromStrings(values)
}

func (s *SQLStore) loadValues(ctx context.Context) ([]string, error) {
	rows, err := sq.Select("identity").
		From(identityTable).
		OrderBy("seq").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		values = append(values, v)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return values, nil
}

// Save replaces the table contents inside one transaction.
func (s *SQLStore) Save(ctx context.Context, log *identity.Log) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin identity tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := sq.Delete(identityTable).RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("clear identities: %w", err)
	}

	values := log.Strings()
	for start := 0; start < len(values); start += insertChunkLen {
		end := min(start+insertChunkLen, len(values))

		insert := sq.Insert(identityTable).Columns("identity")
		for _, v := range values[start:end] {
			insert = insert.Values(v)
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert identities: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit identities: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
