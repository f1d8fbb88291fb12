// Package store persists the query history: every answered question with
// the stage that answered it.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/kb-resolver/internal/model"
)

// DefaultListLimit caps ListQueries when QueryFilter.Limit is zero.
const DefaultListLimit = 50

// QueryFilter narrows ListQueries. Zero fields match everything.
type QueryFilter struct {
	Intent    model.Intent    `json:"intent,omitempty"`
	BrainUsed model.BrainUsed `json:"brain_used,omitempty"`
	Since     time.Time       `json:"since,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Offset    int             `json:"offset,omitempty"`
}

func (f QueryFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for the query history.
type Store interface {
	// RecordQuery saves rec, assigning an ID and timestamp when unset.
	RecordQuery(ctx context.Context, rec model.QueryRecord) error
	// ListQueries returns matching records, newest first.
	ListQueries(ctx context.Context, filter QueryFilter) ([]model.QueryRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures a Store.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// Open creates the configured Store and runs its migration.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "kbr.db"
		}
		s, err = NewSQLite(dsn)
	case "postgres", "postgresql":
		s, err = NewPostgres(ctx, cfg.DSN, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// prepare fills the ID and timestamp of a record about to be saved.
func prepare(rec model.QueryRecord) model.QueryRecord {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}

var historyColumns = []string{
	"id", "question", "answer", "intent", "brain_used", "provenance", "confidence", "elapsed_ms", "created_at",
}

func historyRow(rec model.QueryRecord) []any {
	return []any{
		rec.ID, rec.Question, rec.Answer, string(rec.Intent), string(rec.BrainUsed),
		rec.Provenance, string(rec.Confidence), rec.ElapsedMS, rec.CreatedAt,
	}
}

// where builds the filter clause. placeholder renders the n-th (1-based)
// bind parameter for the dialect.
func where(f QueryFilter, placeholder func(n int) string) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, cond+" "+placeholder(len(args)))
	}
	if f.Intent != "" {
		add("intent =", string(f.Intent))
	}
	if f.BrainUsed != "" {
		add("brain_used =", string(f.BrainUsed))
	}
	if !f.Since.IsZero() {
		add("created_at >=", f.Since.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
