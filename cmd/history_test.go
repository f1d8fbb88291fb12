package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/kb-resolver/internal/model"
	"github.com/sells-group/kb-resolver/internal/store"
)

type fakeCopier struct {
	batches [][]model.QueryRecord
	err     error
}

func (f *fakeCopier) CopyQueries(_ context.Context, recs []model.QueryRecord) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.batches = append(f.batches, recs)
	return int64(len(recs)), nil
}

func TestFormatHistory(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	recs := []model.QueryRecord{
		{
			ID:         "abc12345-6789-0000-0000-000000000000",
			Question:   "What was the total assets in 2023?",
			Intent:     model.IntentFinancialMetric,
			BrainUsed:  model.BrainLocal,
			Confidence: model.ConfidenceHigh,
			ElapsedMS:  4,
			CreatedAt:  now,
		},
		{
			ID:         "short",
			Question:   "Explain in great detail how the bank's liquidity position evolved across every reporting period",
			Intent:     model.IntentConcept,
			BrainUsed:  model.BrainExternal,
			Confidence: model.ConfidenceMedium,
			CreatedAt:  now,
		},
	}

	var buf bytes.Buffer
	formatHistory(&buf, recs)

	out := buf.String()
	assert.Contains(t, out, "QUESTION")
	assert.Contains(t, out, "abc12345 ")
	assert.NotContains(t, out, "abc12345-")
	assert.Contains(t, out, "2025-06-15 10:30")
	assert.Contains(t, out, "FINANCIAL_METRIC")
	assert.Contains(t, out, "ExternalBrain")
	assert.Contains(t, out, "...")
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 10))
	assert.Equal(t, "abcdefg...", truncateText("abcdefghijklmnop", 10))
	assert.Equal(t, "₦₦₦...", truncateText("₦₦₦₦₦₦₦", 6))
}

func TestCopyHistory(t *testing.T) {
	ctx := context.Background()
	src, err := store.NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer src.Close() //nolint:errcheck
	require.NoError(t, src.Migrate(ctx))

	total := copyPageSize + 7
	for i := 0; i < total; i++ {
		require.NoError(t, src.RecordQuery(ctx, model.QueryRecord{
			Question:  fmt.Sprintf("question %d", i),
			Intent:    model.IntentUnknown,
			BrainUsed: model.BrainLocal,
		}))
	}

	dst := &fakeCopier{}
	n, err := copyHistory(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, int64(total), n)
	require.Len(t, dst.batches, 2)
	assert.Len(t, dst.batches[0], copyPageSize)
	assert.Len(t, dst.batches[1], 7)
}

func TestCopyHistory_Empty(t *testing.T) {
	ctx := context.Background()
	src, err := store.NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer src.Close() //nolint:errcheck
	require.NoError(t, src.Migrate(ctx))

	dst := &fakeCopier{}
	n, err := copyHistory(ctx, src, dst)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, dst.batches)
}

func TestCopyHistory_WriteError(t *testing.T) {
	ctx := context.Background()
	src, err := store.NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer src.Close() //nolint:errcheck
	require.NoError(t, src.Migrate(ctx))
	require.NoError(t, src.RecordQuery(ctx, model.QueryRecord{Question: "q"}))

	_, err = copyHistory(ctx, src, &fakeCopier{err: errors.New("copy failed")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history copy: write")
}
