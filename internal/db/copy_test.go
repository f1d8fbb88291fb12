package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "query_history", []string{"a", "b"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"query_history"}, []string{"id", "question"}).WillReturnResult(3)

	rows := [][]any{{"1", "x"}, {"2", "y"}, {"3", "z"}}
	n, err := CopyFrom(context.Background(), mock, "query_history", []string{"id", "question"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_SchemaQualified(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"kbr", "query_history"}, []string{"id"}).WillReturnError(fmt.Errorf("permission denied"))

	_, err = CopyFrom(context.Background(), mock, "kbr.query_history", []string{"id"}, [][]any{{"1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO kbr.query_history")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, `"query_history"`, Identifier("query_history").Sanitize())
	assert.Equal(t, `"kbr"."query_history"`, Identifier("kbr.query_history").Sanitize())
}
