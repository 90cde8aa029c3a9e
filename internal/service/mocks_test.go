package service_test

import (
	"context"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork hands out the mock repositories it was built with.
type MockUnitOfWork struct {
	mock.Mock
	wallets  *MockWalletRepo
	items    *MockItemRepo
	disputes *MockDisputeRepo
}

func (m *MockUnitOfWork) Users() repository.UserRepository       { return nil }
func (m *MockUnitOfWork) Wallets() repository.WalletRepository   { return m.wallets }
func (m *MockUnitOfWork) Items() repository.ItemRepository       { return m.items }
func (m *MockUnitOfWork) Bookings() repository.BookingRepository { return nil }
func (m *MockUnitOfWork) Disputes() repository.DisputeRepository { return m.disputes }
func (m *MockUnitOfWork) Commit() error                          { return m.Called().Error(0) }
func (m *MockUnitOfWork) Rollback() error                        { return m.Called().Error(0) }

// MockWalletRepo
type MockWalletRepo struct {
	mock.Mock
}

func (m *MockWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}
func (m *MockWalletRepo) GetByUserID(ctx context.Context, userID int32) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}
func (m *MockWalletRepo) GetByUserIDForUpdate(ctx context.Context, userID int32) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}
func (m *MockWalletRepo) UpdateBalance(ctx context.Context, walletID int32, balance decimal.Decimal) error {
	args := m.Called(ctx, walletID, balance)
	return args.Error(0)
}
func (m *MockWalletRepo) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockWalletRepo) ListTransactions(ctx context.Context, walletID int32, limit int32) ([]domain.Transaction, error) {
	args := m.Called(ctx, walletID, limit)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

// MockItemRepo
type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) Create(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockItemRepo) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}
func (m *MockItemRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}
func (m *MockItemRepo) UpdateStatus(ctx context.Context, id int32, status domain.ItemStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// decimalEq matches a decimal argument by value rather than representation.
func decimalEq(want string) any {
	w := decimal.RequireFromString(want)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(w) })
}

// MockDisputeRepo
type MockDisputeRepo struct {
	mock.Mock
}

func (m *MockDisputeRepo) Create(ctx context.Context, d *domain.Dispute) error {
	return m.Called(ctx, d).Error(0)
}
func (m *MockDisputeRepo) GetByID(ctx context.Context, id int32) (*domain.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}
func (m *MockDisputeRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}
func (m *MockDisputeRepo) GetByBookingID(ctx context.Context, bookingID int32) (*domain.Dispute, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}
func (m *MockDisputeRepo) HasOpenForBooking(ctx context.Context, bookingID int32) (bool, error) {
	args := m.Called(ctx, bookingID)
	return args.Bool(0), args.Error(1)
}
func (m *MockDisputeRepo) Update(ctx context.Context, d *domain.Dispute) error {
	return m.Called(ctx, d).Error(0)
}
func (m *MockDisputeRepo) Delete(ctx context.Context, id int32) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockDisputeRepo) ListByParty(ctx context.Context, userID int32) ([]domain.Dispute, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Dispute), args.Error(1)
}
