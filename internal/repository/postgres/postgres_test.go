package postgres_test

import (
	"context"
	"errors"
	"testing"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UnitOfWork(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit then rollback is a no-op", func(t *testing.T) {
		db, mock := newMock(t)
		store := postgres.NewStore(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE items SET status").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		uow, err := store.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, uow.Items().UpdateStatus(ctx, 1, domain.ItemStatusRented))
		require.NoError(t, uow.Commit())
		assert.NoError(t, uow.Rollback())
		assert.Error(t, uow.Commit())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback on failure", func(t *testing.T) {
		db, mock := newMock(t)
		store := postgres.NewStore(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE wallets SET balance").
			WillReturnError(checkViolation("wallets_balance_non_negative"))
		mock.ExpectRollback()

		uow, err := store.Begin(ctx)
		require.NoError(t, err)
		err = uow.Wallets().UpdateBalance(ctx, 1, dec("-5"))
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
		require.NoError(t, uow.Rollback())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Begin failure", func(t *testing.T) {
		db, mock := newMock(t)
		store := postgres.NewStore(db)

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))
		_, err := store.Begin(ctx)
		assert.ErrorContains(t, err, "too many connections")
	})

	t.Run("Deadlock maps to conflict", func(t *testing.T) {
		db, mock := newMock(t)
		store := postgres.NewStore(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1 FOR UPDATE").
			WillReturnError(pqError("40P01", ""))
		mock.ExpectRollback()

		uow, err := store.Begin(ctx)
		require.NoError(t, err)
		_, err = uow.Bookings().GetByIDForUpdate(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrConflict)
		require.NoError(t, uow.Rollback())
	})
}
