package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"
	"lendahand-backend/internal/repository"

	"github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store opens units of work on the database.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// Begin starts a READ COMMITTED transaction. Rows that are read-modify-written
// are locked with SELECT ... FOR UPDATE by the repositories.
func (s *Store) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return newUnitOfWork(tx), nil
}

type unitOfWork struct {
	tx       *sql.Tx
	done     bool
	users    repository.UserRepository
	wallets  repository.WalletRepository
	items    repository.ItemRepository
	bookings repository.BookingRepository
	disputes repository.DisputeRepository
}

func newUnitOfWork(tx *sql.Tx) *unitOfWork {
	return &unitOfWork{
		tx:       tx,
		users:    NewUserRepository(tx),
		wallets:  NewWalletRepository(tx),
		items:    NewItemRepository(tx),
		bookings: NewBookingRepository(tx),
		disputes: NewDisputeRepository(tx),
	}
}

func (u *unitOfWork) Users() repository.UserRepository       { return u.users }
func (u *unitOfWork) Wallets() repository.WalletRepository   { return u.wallets }
func (u *unitOfWork) Items() repository.ItemRepository       { return u.items }
func (u *unitOfWork) Bookings() repository.BookingRepository { return u.bookings }
func (u *unitOfWork) Disputes() repository.DisputeRepository { return u.disputes }

func (u *unitOfWork) Commit() error {
	if u.done {
		return sql.ErrTxDone
	}
	u.done = true
	if err := u.tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error("Rollback failed", "error", err)
		return err
	}
	return nil
}

// Postgres error codes the repositories translate into domain errors.
const (
	pqUniqueViolation      = "23505"
	pqCheckViolation       = "23514"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

// mapError converts driver errors into the domain taxonomy; unknown errors pass through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Message)
		case pqCheckViolation:
			if pqErr.Constraint == "wallets_balance_non_negative" {
				return fmt.Errorf("%w: %s", domain.ErrInsufficientFunds, pqErr.Message)
			}
		}
	}
	return err
}
