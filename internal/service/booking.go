package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"
	"lendahand-backend/internal/repository"
	"lendahand-backend/internal/utils"
)

// BookingOptions switches optional behaviour of the booking lifecycle.
type BookingOptions struct {
	// ReclaimEarningOnReturn debits the lender a PENALTY equal to the deposit
	// when a return is confirmed, so the refund does not create money.
	ReclaimEarningOnReturn bool
}

type bookingService struct {
	tm      repository.TxManager
	ledger  Ledger
	items   AvailabilityTracker
	gate    DisputeGate
	options BookingOptions
}

func NewBookingService(tm repository.TxManager, ledger Ledger, items AvailabilityTracker, gate DisputeGate, options BookingOptions) BookingService {
	return &bookingService{
		tm:      tm,
		ledger:  ledger,
		items:   items,
		gate:    gate,
		options: options,
	}
}

func (s *bookingService) RequestBooking(ctx context.Context, borrowerID int32, req BookingRequest) (*domain.BookingDetails, error) {
	logger.EnterMethod("bookingService.RequestBooking", "borrowerID", borrowerID, "itemID", req.ItemID)

	var details *domain.BookingDetails
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		item, err := uow.Items().GetByID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if !item.IsActive || item.Status == domain.ItemStatusInactive {
			return fmt.Errorf("%w: item %d is not available", domain.ErrInvalidState, item.ID)
		}
		if item.LenderID == borrowerID {
			return domain.ErrSelfBooking
		}

		quote, err := utils.QuoteDeposit(item, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}

		booking := &domain.Booking{
			ItemID:       item.ID,
			BorrowerID:   borrowerID,
			LenderID:     item.LenderID,
			StartDate:    req.StartDate,
			EndDate:      req.EndDate,
			TotalDeposit: quote.Total,
			Status:       domain.BookingStatusPending,
			Reason:       req.Reason,
		}
		if err := uow.Bookings().Create(ctx, booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		list, err := s.describe(ctx, uow, []domain.Booking{*booking})
		if err != nil {
			return err
		}
		details = &list[0]
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.RequestBooking", err, "borrowerID", borrowerID, "itemID", req.ItemID)
		return nil, err
	}

	logger.ExitMethod("bookingService.RequestBooking", "bookingID", details.ID, "totalDeposit", details.TotalDeposit.StringFixed(2))
	return details, nil
}

func (s *bookingService) Transition(ctx context.Context, bookingID, actorID int32, status, reason string) (*domain.BookingDetails, error) {
	to, err := domain.ParseBookingStatus(status)
	if err != nil {
		return nil, err
	}

	switch to {
	case domain.BookingStatusAccepted, domain.BookingStatusRejected:
		_, err = s.decide(ctx, bookingID, actorID, to, reason)
	case domain.BookingStatusReturnPending:
		_, err = s.initiateReturn(ctx, bookingID, actorID, reason)
	case domain.BookingStatusReturned:
		_, err = s.confirmReturn(ctx, bookingID, actorID, reason)
	default:
		err = fmt.Errorf("%w: bookings cannot be moved back to %s", domain.ErrInvalidState, to)
	}
	if err != nil {
		return nil, err
	}
	return s.GetBooking(ctx, bookingID, actorID)
}

func (s *bookingService) Decide(ctx context.Context, bookingID, actorID int32, status domain.BookingStatus, reason string) (*domain.Booking, error) {
	return s.decide(ctx, bookingID, actorID, status, reason)
}

func (s *bookingService) InitiateReturn(ctx context.Context, bookingID, actorID int32) (*domain.Booking, error) {
	return s.initiateReturn(ctx, bookingID, actorID, "")
}

func (s *bookingService) ConfirmReturn(ctx context.Context, bookingID, actorID int32) (*domain.Booking, error) {
	return s.confirmReturn(ctx, bookingID, actorID, "")
}

// decide accepts or rejects a pending booking. Acceptance moves the deposit
// from borrower to lender and marks the item rented; the first acceptance
// on an item wins.
func (s *bookingService) decide(ctx context.Context, bookingID, actorID int32, to domain.BookingStatus, reason string) (*domain.Booking, error) {
	if to != domain.BookingStatusAccepted && to != domain.BookingStatusRejected {
		return nil, fmt.Errorf("%w: a decision must be accepted or rejected, got %s", domain.ErrValidation, to)
	}

	return s.transition(ctx, bookingID, actorID, to, reason, func(uow repository.UnitOfWork, b *domain.Booking) error {
		if to == domain.BookingStatusRejected {
			return nil
		}

		item, err := uow.Items().GetByIDForUpdate(ctx, b.ItemID)
		if err != nil {
			return err
		}
		if !item.IsActive || item.Status != domain.ItemStatusAvailable {
			return fmt.Errorf("%w: item %d is %s", domain.ErrInvalidState, item.ID, item.Status)
		}

		if b.TotalDeposit.IsPositive() {
			if err := lockWallets(ctx, uow, b.BorrowerID, b.LenderID); err != nil {
				return err
			}
			bookingRef := b.ID
			if _, err := s.ledger.Post(ctx, uow, domain.Posting{
				UserID:      b.BorrowerID,
				Amount:      b.TotalDeposit,
				Type:        domain.TransactionTypeDeposit,
				BookingID:   &bookingRef,
				Description: fmt.Sprintf("Deposit locked for item '%s'", item.Title),
			}); err != nil {
				return err
			}
			if _, err := s.ledger.Post(ctx, uow, domain.Posting{
				UserID:      b.LenderID,
				Amount:      b.TotalDeposit,
				Type:        domain.TransactionTypeEarning,
				BookingID:   &bookingRef,
				Description: fmt.Sprintf("Earning from renting '%s'", item.Title),
			}); err != nil {
				return err
			}
		}

		return s.items.SetStatus(ctx, uow, item.ID, domain.ItemStatusRented)
	})
}

func (s *bookingService) initiateReturn(ctx context.Context, bookingID, actorID int32, reason string) (*domain.Booking, error) {
	return s.transition(ctx, bookingID, actorID, domain.BookingStatusReturnPending, reason, func(uow repository.UnitOfWork, b *domain.Booking) error {
		open, err := s.gate.HasOpenDispute(ctx, uow, b.ID)
		if err != nil {
			return err
		}
		if open {
			return fmt.Errorf("%w: cannot initiate return while a dispute is open", domain.ErrInvalidState)
		}
		return nil
	})
}

// confirmReturn refunds the deposit to the borrower and frees the item.
func (s *bookingService) confirmReturn(ctx context.Context, bookingID, actorID int32, reason string) (*domain.Booking, error) {
	return s.transition(ctx, bookingID, actorID, domain.BookingStatusReturned, reason, func(uow repository.UnitOfWork, b *domain.Booking) error {
		item, err := uow.Items().GetByIDForUpdate(ctx, b.ItemID)
		if err != nil {
			return err
		}

		if b.TotalDeposit.IsPositive() {
			if err := lockWallets(ctx, uow, b.BorrowerID, b.LenderID); err != nil {
				return err
			}
			bookingRef := b.ID
			if _, err := s.ledger.Post(ctx, uow, domain.Posting{
				UserID:      b.BorrowerID,
				Amount:      b.TotalDeposit,
				Type:        domain.TransactionTypeRefund,
				BookingID:   &bookingRef,
				Description: fmt.Sprintf("Deposit refund for item '%s'", item.Title),
			}); err != nil {
				return err
			}

			if s.options.ReclaimEarningOnReturn {
				if _, err := s.ledger.Post(ctx, uow, domain.Posting{
					UserID:      b.LenderID,
					Amount:      b.TotalDeposit,
					Type:        domain.TransactionTypePenalty,
					BookingID:   &bookingRef,
					Description: fmt.Sprintf("Deposit returned to borrower for item '%s'", item.Title),
				}); err != nil {
					return err
				}
			} else {
				logger.Warn("Refund issued without reclaiming lender earning",
					"bookingID", b.ID,
					"lenderID", b.LenderID,
					"amount", b.TotalDeposit.StringFixed(2),
				)
			}
		}

		return s.items.SetStatus(ctx, uow, item.ID, domain.ItemStatusAvailable)
	})
}

// transition locks the booking, checks the actor and the move, runs apply and
// writes the new status, all inside one unit of work.
func (s *bookingService) transition(
	ctx context.Context,
	bookingID, actorID int32,
	to domain.BookingStatus,
	reason string,
	apply func(uow repository.UnitOfWork, b *domain.Booking) error,
) (*domain.Booking, error) {
	method := "bookingService.transition"
	logger.EnterMethod(method, "bookingID", bookingID, "actorID", actorID, "to", to)

	var result *domain.Booking
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		b, err := uow.Bookings().GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := authorizeTransition(b, actorID, to); err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(to) {
			return fmt.Errorf("%w: booking %d is %s and cannot move to %s", domain.ErrInvalidState, b.ID, b.Status, to)
		}

		if err := apply(uow, b); err != nil {
			return err
		}

		from := b.Status
		if err := uow.Bookings().UpdateStatus(ctx, b.ID, from, to, reason); err != nil {
			return err
		}
		b.Status = to
		if reason != "" {
			b.Reason = reason
		}
		result = b
		logger.Transition(b.ID, actorID, string(from), string(to), "itemID", b.ItemID)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "bookingID", bookingID, "actorID", actorID, "to", to)
		return nil, err
	}

	logger.ExitMethod(method, "bookingID", bookingID, "status", result.Status)
	return result, nil
}

// authorizeTransition allows only the lender to decide and confirm a return,
// and only the borrower to initiate one.
func authorizeTransition(b *domain.Booking, actorID int32, to domain.BookingStatus) error {
	switch to {
	case domain.BookingStatusAccepted, domain.BookingStatusRejected:
		if actorID != b.LenderID {
			return fmt.Errorf("%w: only the lender can accept or reject", domain.ErrForbidden)
		}
	case domain.BookingStatusReturnPending:
		if actorID != b.BorrowerID {
			return fmt.Errorf("%w: only the borrower can initiate a return", domain.ErrForbidden)
		}
	case domain.BookingStatusReturned:
		if actorID != b.LenderID {
			return fmt.Errorf("%w: only the lender can confirm a return", domain.ErrForbidden)
		}
	}
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID, actorID int32) (*domain.BookingDetails, error) {
	var details *domain.BookingDetails
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		b, err := uow.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !b.IsParty(actorID) {
			return fmt.Errorf("%w: not a party to booking %d", domain.ErrForbidden, bookingID)
		}
		list, err := s.describe(ctx, uow, []domain.Booking{*b})
		if err != nil {
			return err
		}
		details = &list[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, userID int32) ([]domain.BookingDetails, error) {
	var details []domain.BookingDetails
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		bookings, err := uow.Bookings().ListByParty(ctx, userID)
		if err != nil {
			return err
		}
		details, err = s.describe(ctx, uow, bookings)
		return err
	})
	return details, err
}

func (s *bookingService) ListPending(ctx context.Context, lenderID int32) ([]domain.BookingDetails, error) {
	var details []domain.BookingDetails
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		bookings, err := uow.Bookings().ListByLender(ctx, lenderID, domain.BookingStatusPending)
		if err != nil {
			return err
		}
		details, err = s.describe(ctx, uow, bookings)
		return err
	})
	return details, err
}

func (s *bookingService) ActiveItems(ctx context.Context, now time.Time) (map[int32]int32, error) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	active := map[int32]int32{}
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		bookings, err := uow.Bookings().ListActive(ctx, day)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			active[b.ItemID] = max(0, domain.DurationDays(day, b.EndDate))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return active, nil
}

// describe resolves item and party display fields with one lookup per
// distinct id. Rows that no longer exist leave the fields empty.
func (s *bookingService) describe(ctx context.Context, uow repository.UnitOfWork, bookings []domain.Booking) ([]domain.BookingDetails, error) {
	items := map[int32]*domain.Item{}
	users := map[int32]*domain.User{}

	item := func(id int32) (*domain.Item, error) {
		if it, ok := items[id]; ok {
			return it, nil
		}
		it, err := uow.Items().GetByID(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		items[id] = it
		return it, nil
	}
	user := func(id int32) (*domain.User, error) {
		if u, ok := users[id]; ok {
			return u, nil
		}
		u, err := uow.Users().GetByID(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		users[id] = u
		return u, nil
	}

	result := make([]domain.BookingDetails, 0, len(bookings))
	for _, b := range bookings {
		d := domain.BookingDetails{Booking: b}

		it, err := item(b.ItemID)
		if err != nil {
			return nil, err
		}
		if it != nil {
			d.ItemTitle = it.Title
			d.ItemLocation = it.Location
		}

		lender, err := user(b.LenderID)
		if err != nil {
			return nil, err
		}
		if lender != nil {
			d.LenderName = lender.FullName
		}

		borrower, err := user(b.BorrowerID)
		if err != nil {
			return nil, err
		}
		if borrower != nil {
			d.BorrowerName = borrower.FullName
		}

		result = append(result, d)
	}
	return result, nil
}
