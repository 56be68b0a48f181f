package sqlutil

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type txQueries struct {
	tx *sql.Tx
}

func TestRun(t *testing.T) {
	newQueries := func(tx *sql.Tx) *txQueries { return &txQueries{tx: tx} }

	t.Run("commits on success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()
		err = Run(context.Background(), db, newQueries, func(q *txQueries) error {
			assert.NotNil(t, q.tx)
			return nil
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()
		boom := errors.New("boom")
		err = Run(context.Background(), db, newQueries, func(*txQueries) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNullStrings(t *testing.T) {
	s := "x"
	assert.Equal(t, sql.NullString{String: "x", Valid: true}, ToSqlString(&s))
	assert.False(t, ToSqlString(nil).Valid)
	assert.Equal(t, "fallback", FromSqlString(sql.NullString{}, "fallback"))
}
