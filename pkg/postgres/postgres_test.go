//go:build !integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPgErrorUniqueViolation(t *testing.T) {
	assert.True(t, IsPgErrorUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsPgErrorUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsPgErrorUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsPgErrorUniqueViolation(errors.New("boom")))
	assert.False(t, IsPgErrorUniqueViolation(nil))
}

func TestInTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM webhook_events").WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		err = InTransaction(ctx, mock, func(tx Executor) error {
			_, err := tx.Exec(ctx, "DELETE FROM webhook_events")
			return err
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		fnErr := errors.New("fn failed")
		err = InTransaction(ctx, mock, func(Executor) error { return fnErr })

		assert.ErrorIs(t, err, fnErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin().WillReturnError(errors.New("no conn"))

		err = InTransaction(ctx, mock, func(Executor) error { return nil })

		assert.ErrorContains(t, err, "begin transaction")
	})
}
