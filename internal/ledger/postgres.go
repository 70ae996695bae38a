package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists outcome records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS outcome_records (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			user_id TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_outcome_records_created ON outcome_records (created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, record Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO outcome_records (id, kind, user_id, subject, outcome, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID,
		string(record.Kind),
		record.UserID,
		record.Subject,
		record.Outcome,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, user_id, subject, outcome, created_at
		 FROM outcome_records ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent records: %w", err)
	}
	defer rows.Close()

	items := make([]Record, 0, limit)
	for rows.Next() {
		var r Record
		var kind string
		if err := rows.Scan(&r.ID, &kind, &r.UserID, &r.Subject, &r.Outcome, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		r.Kind = Kind(kind)
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}

	return items, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
