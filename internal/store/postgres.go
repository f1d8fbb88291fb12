package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/kb-resolver/internal/db"
	"github.com/sells-group/kb-resolver/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	insertQuerySQL = `INSERT INTO query_history (id, question, answer, intent, brain_used, provenance, confidence, elapsed_ms, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	selectQuerySQL = `SELECT id, question, answer, intent, brain_used, provenance, confidence, elapsed_ms, created_at FROM query_history`
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Prepare(ctx, "insert_query", insertQuerySQL); err != nil {
			return eris.Wrap(err, "postgres: prepare insert_query")
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS query_history (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	intent     TEXT NOT NULL,
	brain_used TEXT NOT NULL,
	provenance TEXT NOT NULL,
	confidence TEXT NOT NULL,
	elapsed_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_query_history_created_at ON query_history(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_query_history_intent ON query_history(intent);
`

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) RecordQuery(ctx context.Context, rec model.QueryRecord) error {
	rec = prepare(rec)
	_, err := s.pool.Exec(ctx, insertQuerySQL, historyRow(rec)...)
	return eris.Wrap(err, "postgres: insert query")
}

func (s *PostgresStore) ListQueries(ctx context.Context, filter QueryFilter) ([]model.QueryRecord, error) {
	clause, args := where(filter, func(n int) string { return fmt.Sprintf("$%d", n) })
	n := len(args)
	args = append(args, filter.limit(), filter.Offset)

	rows, err := s.pool.Query(ctx,
		selectQuerySQL+clause+fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", n+1, n+2),
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list queries")
	}
	defer rows.Close()

	var out []model.QueryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan query")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate queries")
}

// CopyQueries bulk-loads records with COPY, e.g. when moving a SQLite
// history into Postgres. Records keep their IDs and timestamps.
func (s *PostgresStore) CopyQueries(ctx context.Context, recs []model.QueryRecord) (int64, error) {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, historyRow(prepare(r)))
	}
	n, err := db.CopyFrom(ctx, s.pool, "query_history", historyColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: copy queries")
	}
	return n, nil
}

