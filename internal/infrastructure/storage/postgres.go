package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/ports"
)

// PostgresArchive persists processed records into Postgres so reruns across
// machines share one deduplication set. A nil db degrades to a no-op.
type PostgresArchive struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.ProcessedArchive = (*PostgresArchive)(nil)

// NewPostgresArchive wires a sql.DB implementation.
func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	archive := NewPostgresArchive(db)
	if err := archive.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return archive, nil
}

// Close releases the underlying connection pool.
func (a *PostgresArchive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *PostgresArchive) ensureSchema(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS processed_records (
        key         TEXT PRIMARY KEY,
        publication TEXT NOT NULL DEFAULT '',
        title       TEXT NOT NULL DEFAULT '',
        include     BOOLEAN NOT NULL DEFAULT FALSE,
        reason      TEXT NOT NULL DEFAULT '',
        status      TEXT NOT NULL DEFAULT '',
        updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`
	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// AlreadyProcessed returns the subset of keys that already exist in storage.
func (a *PostgresArchive) AlreadyProcessed(ctx context.Context, keys []string) (map[string]bool, error) {
	if a.db == nil || len(keys) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := a.sb.
		Select("key").
		From("processed_records").
		Where(sq.Expr("key = ANY(?)", pq.StringArray(keys))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build processed query: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}
	defer rows.Close()

	result := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		result[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// SaveProcessed upserts the processed record snapshot.
func (a *PostgresArchive) SaveProcessed(ctx context.Context, rec domain.ProcessedRecord) error {
	if a.db == nil {
		return nil
	}

	query, args, err := a.sb.
		Insert("processed_records").
		Columns("key", "publication", "title", "include", "reason", "status").
		Values(rec.Key, rec.Publication, rec.Title, rec.Include, rec.Reason, string(rec.Status)).
		Suffix(`ON CONFLICT (key) DO UPDATE
            SET publication = EXCLUDED.publication,
                title = EXCLUDED.title,
                include = EXCLUDED.include,
                reason = EXCLUDED.reason,
                status = EXCLUDED.status,
                updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert processed: %w", err)
	}
	return nil
}
