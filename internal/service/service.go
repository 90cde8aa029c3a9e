package service

import (
	"context"
	"io"
	"time"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/repository"

	"github.com/shopspring/decimal"
)

// Ledger records balance adjustments. Callers own the unit of work so that
// several postings commit or roll back together.
type Ledger interface {
	Post(ctx context.Context, uow repository.UnitOfWork, p domain.Posting) (*domain.Transaction, error)
}

// AvailabilityTracker flips the item status flag. Only the booking engine calls it.
type AvailabilityTracker interface {
	SetStatus(ctx context.Context, uow repository.UnitOfWork, itemID int32, status domain.ItemStatus) error
}

type DisputeGate interface {
	HasOpenDispute(ctx context.Context, uow repository.UnitOfWork, bookingID int32) (bool, error)
	Open(ctx context.Context, uow repository.UnitOfWork, bookingID, raisedBy int32, description string, estimatedCost *decimal.Decimal) (*domain.Dispute, error)
	Resolve(ctx context.Context, uow repository.UnitOfWork, disputeID int32, status domain.DisputeStatus, notes string) (*domain.Dispute, error)
	Delete(ctx context.Context, uow repository.UnitOfWork, disputeID int32) error
}

// BookingRequest carries the borrower's input for a new booking.
type BookingRequest struct {
	ItemID    int32
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

type BookingService interface {
	RequestBooking(ctx context.Context, borrowerID int32, req BookingRequest) (*domain.BookingDetails, error)
	// Transition dispatches a requested status to Decide, InitiateReturn or ConfirmReturn.
	Transition(ctx context.Context, bookingID, actorID int32, status, reason string) (*domain.BookingDetails, error)
	Decide(ctx context.Context, bookingID, actorID int32, status domain.BookingStatus, reason string) (*domain.Booking, error)
	InitiateReturn(ctx context.Context, bookingID, actorID int32) (*domain.Booking, error)
	ConfirmReturn(ctx context.Context, bookingID, actorID int32) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID, actorID int32) (*domain.BookingDetails, error)
	ListMyBookings(ctx context.Context, userID int32) ([]domain.BookingDetails, error)
	ListPending(ctx context.Context, lenderID int32) ([]domain.BookingDetails, error)
	// ActiveItems maps item id to whole days left on its accepted booking.
	ActiveItems(ctx context.Context, today time.Time) (map[int32]int32, error)
}

type WalletService interface {
	GetBalance(ctx context.Context, userID int32) (*domain.WalletSummary, error)
	Topup(ctx context.Context, userID int32, amount decimal.Decimal, paymentMethod string) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, userID int32) ([]domain.Transaction, error)
}

type DisputeService interface {
	CreateDispute(ctx context.Context, actorID, bookingID int32, description string, estimatedCost *decimal.Decimal) (*domain.Dispute, error)
	ResolveDispute(ctx context.Context, actorID, disputeID int32, status, notes string) (*domain.Dispute, error)
	DeleteDispute(ctx context.Context, actorID, disputeID int32) error
	GetDispute(ctx context.Context, actorID, disputeID int32) (*domain.Dispute, error)
	ListDisputes(ctx context.Context, actorID int32) ([]domain.Dispute, error)
}

type UserService interface {
	// CreateUser stores the user and its wallet in one unit of work.
	CreateUser(ctx context.Context, user *domain.User, openingBalance decimal.Decimal) (*domain.Wallet, error)
	GetUser(ctx context.Context, userID int32) (*domain.User, error)
}

// UploadedFile is one part of a multipart image upload.
type UploadedFile struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type ImageService interface {
	UploadImages(ctx context.Context, userID int32, files []UploadedFile) ([]string, error)
	OpenImage(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// withUnitOfWork runs fn inside a unit of work, committing on success and
// rolling back on any error.
func withUnitOfWork(ctx context.Context, tm repository.TxManager, fn func(uow repository.UnitOfWork) error) error {
	uow, err := tm.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}
