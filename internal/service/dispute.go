package service

import (
	"context"
	"fmt"
	"strings"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"
	"lendahand-backend/internal/repository"

	"github.com/shopspring/decimal"
)

type disputeService struct {
	tm   repository.TxManager
	gate DisputeGate
}

func NewDisputeService(tm repository.TxManager, gate DisputeGate) DisputeService {
	return &disputeService{tm: tm, gate: gate}
}

func (s *disputeService) CreateDispute(ctx context.Context, actorID, bookingID int32, description string, estimatedCost *decimal.Decimal) (*domain.Dispute, error) {
	logger.EnterMethod("disputeService.CreateDispute", "actorID", actorID, "bookingID", bookingID)

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}

	var dispute *domain.Dispute
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		booking, err := uow.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !booking.IsParty(actorID) {
			return fmt.Errorf("%w: not a party to booking %d", domain.ErrForbidden, bookingID)
		}
		dispute, err = s.gate.Open(ctx, uow, bookingID, actorID, description, estimatedCost)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("disputeService.CreateDispute", err, "bookingID", bookingID)
		return nil, err
	}

	logger.ExitMethod("disputeService.CreateDispute", "disputeID", dispute.ID)
	return dispute, nil
}

func (s *disputeService) ResolveDispute(ctx context.Context, actorID, disputeID int32, status, notes string) (*domain.Dispute, error) {
	logger.EnterMethod("disputeService.ResolveDispute", "actorID", actorID, "disputeID", disputeID, "status", status)

	resolution, err := domain.ParseResolution(status)
	if err != nil {
		return nil, err
	}

	var dispute *domain.Dispute
	err = withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		if _, err := s.authorize(ctx, uow, actorID, disputeID); err != nil {
			return err
		}
		dispute, err = s.gate.Resolve(ctx, uow, disputeID, resolution, notes)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("disputeService.ResolveDispute", err, "disputeID", disputeID)
		return nil, err
	}

	logger.ExitMethod("disputeService.ResolveDispute", "disputeID", disputeID, "status", dispute.Status)
	return dispute, nil
}

func (s *disputeService) DeleteDispute(ctx context.Context, actorID, disputeID int32) error {
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		if _, err := s.authorize(ctx, uow, actorID, disputeID); err != nil {
			return err
		}
		return s.gate.Delete(ctx, uow, disputeID)
	})
	if err != nil {
		logger.ExitMethodWithError("disputeService.DeleteDispute", err, "disputeID", disputeID)
		return err
	}
	logger.Info("Dispute deleted", "disputeID", disputeID, "actorID", actorID)
	return nil
}

func (s *disputeService) GetDispute(ctx context.Context, actorID, disputeID int32) (*domain.Dispute, error) {
	var dispute *domain.Dispute
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		var err error
		dispute, err = s.authorize(ctx, uow, actorID, disputeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

func (s *disputeService) ListDisputes(ctx context.Context, actorID int32) ([]domain.Dispute, error) {
	var disputes []domain.Dispute
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		var err error
		disputes, err = uow.Disputes().ListByParty(ctx, actorID)
		return err
	})
	return disputes, err
}

// authorize loads the dispute and allows either party to its booking or an admin.
func (s *disputeService) authorize(ctx context.Context, uow repository.UnitOfWork, actorID, disputeID int32) (*domain.Dispute, error) {
	dispute, err := uow.Disputes().GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	booking, err := uow.Bookings().GetByID(ctx, dispute.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.IsParty(actorID) {
		return dispute, nil
	}

	actor, err := uow.Users().GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: not a party to dispute %d", domain.ErrForbidden, disputeID)
	}
	return dispute, nil
}
