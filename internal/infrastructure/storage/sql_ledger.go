package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"BillsMonitor/internal/domain"
	"BillsMonitor/internal/ports"
)

const (
	seenTable       = "seen_bills"
	seenColumn      = "bill_id"
	insertBatchSize = 500
)

// SQLLedger persists processed bill ids in a relational table (Postgres or SQLite).
type SQLLedger struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.Ledger = (*SQLLedger)(nil)

// NewPostgresLedger wires a sql.DB opened with the lib/pq driver.
func NewPostgresLedger(db *sql.DB) *SQLLedger {
	return &SQLLedger{db: db, builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// NewSQLiteLedger wires a sql.DB opened with the modernc sqlite driver.
func NewSQLiteLedger(db *sql.DB) *SQLLedger {
	return &SQLLedger{db: db, builder: sq.StatementBuilder.PlaceholderFormat(sq.Question)}
}

// OpenPostgres opens and pings a Postgres database.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a SQLite database. A single connection keeps ":memory:" databases
// consistent and serializes writers.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// EnsureSchema creates the ledger table when it does not exist.
func (l *SQLLedger) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY)`, seenTable, seenColumn)
	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", seenTable, err)
	}
	return nil
}

// Load returns every stored id.
func (l *SQLLedger) Load(ctx context.Context) (domain.SeenSet, error) {
	seen := domain.NewSeenSet()
	if l.db == nil {
		return seen, nil
	}

	query, args, err := l.builder.Select(seenColumn).From(seenTable).ToSql()
	if err != nil {
		return seen, fmt.Errorf("build select: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return seen, fmt.Errorf("query seen: %w", err)
	}

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return domain.NewSeenSet(), fmt.Errorf("scan id: %w", err)
		}
		seen.Add(id)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return domain.NewSeenSet(), fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return domain.NewSeenSet(), fmt.Errorf("close rows: %w", closeErr)
	}

	return seen, nil
}

// Save replaces the table contents with the full set in one transaction.
func (l *SQLLedger) Save(ctx context.Context, seen domain.SeenSet) error {
	if l.db == nil {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := l.replace(ctx, tx, seen.IDs()); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (l *SQLLedger) replace(ctx context.Context, tx *sql.Tx, ids []string) error {
	query, args, err := l.builder.Delete(seenTable).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear seen: %w", err)
	}

	for start := 0; start < len(ids); start += insertBatchSize {
		end := min(start+insertBatchSize, len(ids))

		insert := l.builder.Insert(seenTable).Columns(seenColumn)
		for _, id := range ids[start:end] {
			insert = insert.Values(id)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert seen: %w", err)
		}
	}

	return nil
}
