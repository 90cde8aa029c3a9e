package http_test

import (
	"context"
	"io"
	"sync"
	"time"

	"lendahand-backend/internal/cache"
	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) RequestBooking(ctx context.Context, borrowerID int32, req service.BookingRequest) (*domain.BookingDetails, error) {
	args := m.Called(ctx, borrowerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingDetails), args.Error(1)
}

func (m *MockBookingService) Transition(ctx context.Context, bookingID, actorID int32, status, reason string) (*domain.BookingDetails, error) {
	args := m.Called(ctx, bookingID, actorID, status, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingDetails), args.Error(1)
}

func (m *MockBookingService) Decide(ctx context.Context, bookingID, actorID int32, status domain.BookingStatus, reason string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, actorID, status, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) InitiateReturn(ctx context.Context, bookingID, actorID int32) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) ConfirmReturn(ctx context.Context, bookingID, actorID int32) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, bookingID, actorID int32) (*domain.BookingDetails, error) {
	args := m.Called(ctx, bookingID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingDetails), args.Error(1)
}

func (m *MockBookingService) ListMyBookings(ctx context.Context, userID int32) ([]domain.BookingDetails, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.BookingDetails), args.Error(1)
}

func (m *MockBookingService) ListPending(ctx context.Context, lenderID int32) ([]domain.BookingDetails, error) {
	args := m.Called(ctx, lenderID)
	return args.Get(0).([]domain.BookingDetails), args.Error(1)
}

func (m *MockBookingService) ActiveItems(ctx context.Context, today time.Time) (map[int32]int32, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int32]int32), args.Error(1)
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetBalance(ctx context.Context, userID int32) (*domain.WalletSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletSummary), args.Error(1)
}

func (m *MockWalletService) Topup(ctx context.Context, userID int32, amount decimal.Decimal, paymentMethod string) (*domain.Wallet, error) {
	args := m.Called(ctx, userID, amount, paymentMethod)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletService) ListTransactions(ctx context.Context, userID int32) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

type MockDisputeService struct {
	mock.Mock
}

func (m *MockDisputeService) CreateDispute(ctx context.Context, actorID, bookingID int32, description string, estimatedCost *decimal.Decimal) (*domain.Dispute, error) {
	args := m.Called(ctx, actorID, bookingID, description, estimatedCost)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}

func (m *MockDisputeService) ResolveDispute(ctx context.Context, actorID, disputeID int32, status, notes string) (*domain.Dispute, error) {
	args := m.Called(ctx, actorID, disputeID, status, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}

func (m *MockDisputeService) DeleteDispute(ctx context.Context, actorID, disputeID int32) error {
	args := m.Called(ctx, actorID, disputeID)
	return args.Error(0)
}

func (m *MockDisputeService) GetDispute(ctx context.Context, actorID, disputeID int32) (*domain.Dispute, error) {
	args := m.Called(ctx, actorID, disputeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}

func (m *MockDisputeService) ListDisputes(ctx context.Context, actorID int32) ([]domain.Dispute, error) {
	args := m.Called(ctx, actorID)
	return args.Get(0).([]domain.Dispute), args.Error(1)
}

type MockImageService struct {
	mock.Mock
}

func (m *MockImageService) UploadImages(ctx context.Context, userID int32, files []service.UploadedFile) ([]string, error) {
	args := m.Called(ctx, userID, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockImageService) OpenImage(ctx context.Context, key string) (io.ReadCloser, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.String(1), args.Error(2)
}

// memIdempotencyStore is an in-process cache.IdempotencyStore.
type memIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*cache.StoredResponse
	pending map[string]bool
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{entries: map[string]*cache.StoredResponse{}, pending: map[string]bool{}}
}

func (s *memIdempotencyStore) Reserve(ctx context.Context, key string) (*cache.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resp, ok := s.entries[key]; ok {
		return resp, nil
	}
	if s.pending[key] {
		return nil, cache.ErrInFlight
	}
	s.pending[key] = true
	return nil, nil
}

func (s *memIdempotencyStore) Save(ctx context.Context, key string, resp *cache.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	s.entries[key] = resp
	return nil
}

func (s *memIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	delete(s.entries, key)
	return nil
}
