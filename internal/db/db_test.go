package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "breweries", []string{"id", "name"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := [][]any{{"id-1", "Birrificio Italiano"}, {"id-2", "Baladin"}}
	mock.ExpectCopyFrom(pgx.Identifier{"breweries"}, []string{"id", "name"}).WillReturnResult(2)

	n, err := CopyFrom(context.TODO(), mock, "breweries", []string{"id", "name"}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_Validation(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{Table: "breweries"}, [][]any{{"x"}})
	assert.Error(t, err)

	_, err = BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table: "breweries", Columns: []string{"id"},
	}, [][]any{{"x"}})
	assert.Error(t, err)

	n, err := BulkUpsert(context.TODO(), nil, UpsertConfig{}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_breweries"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_breweries"}, []string{"id", "name", "data"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "breweries"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.TODO(), mock, UpsertConfig{
		Table:        "breweries",
		Columns:      []string{"id", "name", "data"},
		ConflictKeys: []string{"id"},
	}, [][]any{
		{"id-1", "Birrificio Italiano", "{}"},
		{"id-2", "Baladin", "{}"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
