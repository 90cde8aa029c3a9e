package repository

import (
	"context"
	"time"

	"lendahand-backend/internal/domain"

	"github.com/shopspring/decimal"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByUserID(ctx context.Context, userID int32) (*domain.Wallet, error)
	// GetByUserIDForUpdate row-locks the wallet until the unit of work ends.
	GetByUserIDForUpdate(ctx context.Context, userID int32) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, walletID int32, balance decimal.Decimal) error
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	// ListTransactions returns newest first; limit <= 0 returns everything.
	ListTransactions(ctx context.Context, walletID int32, limit int32) ([]domain.Transaction, error)
}

// ItemRepository is the read side of the catalog plus the availability flag.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id int32) (*domain.Item, error)
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Item, error)
	UpdateStatus(ctx context.Context, id int32, status domain.ItemStatus) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int32) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Booking, error)
	// UpdateStatus only applies when the stored status still equals from; otherwise domain.ErrConflict.
	UpdateStatus(ctx context.Context, id int32, from, to domain.BookingStatus, reason string) error
	ListByParty(ctx context.Context, userID int32) ([]domain.Booking, error)
	ListByLender(ctx context.Context, lenderID int32, status domain.BookingStatus) ([]domain.Booking, error)
	ListActive(ctx context.Context, endingOnOrAfter time.Time) ([]domain.Booking, error)
}

type DisputeRepository interface {
	// Create fails with domain.ErrDuplicateDispute when the booking already has a dispute.
	Create(ctx context.Context, dispute *domain.Dispute) error
	GetByID(ctx context.Context, id int32) (*domain.Dispute, error)
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Dispute, error)
	GetByBookingID(ctx context.Context, bookingID int32) (*domain.Dispute, error)
	HasOpenForBooking(ctx context.Context, bookingID int32) (bool, error)
	// Update and Delete only touch open disputes and fail with domain.ErrConflict
	// when the dispute has left that state.
	Update(ctx context.Context, dispute *domain.Dispute) error
	Delete(ctx context.Context, id int32) error
	ListByParty(ctx context.Context, userID int32) ([]domain.Dispute, error)
}

// UnitOfWork scopes every repository to one database transaction.
// Commit or Rollback ends it; calling Rollback after Commit is a no-op.
type UnitOfWork interface {
	Users() UserRepository
	Wallets() WalletRepository
	Items() ItemRepository
	Bookings() BookingRepository
	Disputes() DisputeRepository
	Commit() error
	Rollback() error
}

type TxManager interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
