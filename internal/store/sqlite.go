package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/kb-resolver/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS query_history (
	id         TEXT PRIMARY KEY,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	intent     TEXT NOT NULL,
	brain_used TEXT NOT NULL,
	provenance TEXT NOT NULL,
	confidence TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_query_history_created_at ON query_history(created_at);
CREATE INDEX IF NOT EXISTS idx_query_history_intent ON query_history(intent);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordQuery(ctx context.Context, rec model.QueryRecord) error {
	rec = prepare(rec)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_history (`+strings.Join(historyColumns, ", ")+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		historyRow(rec)...,
	)
	return eris.Wrap(err, "sqlite: insert query")
}

func (s *SQLiteStore) ListQueries(ctx context.Context, filter QueryFilter) ([]model.QueryRecord, error) {
	clause, args := where(filter, func(int) string { return "?" })
	args = append(args, filter.limit(), filter.Offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+strings.Join(historyColumns, ", ")+` FROM query_history`+clause+
			` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list queries")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.QueryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan query")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate queries")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (model.QueryRecord, error) {
	var (
		rec                       model.QueryRecord
		intent, brain, confidence string
	)
	err := row.Scan(&rec.ID, &rec.Question, &rec.Answer, &intent, &brain,
		&rec.Provenance, &confidence, &rec.ElapsedMS, &rec.CreatedAt)
	if err != nil {
		return model.QueryRecord{}, err
	}
	rec.Intent = model.Intent(intent)
	rec.BrainUsed = model.BrainUsed(brain)
	rec.Confidence = model.Confidence(confidence)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}
