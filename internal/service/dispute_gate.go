package service

import (
	"context"
	"fmt"
	"time"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/repository"

	"github.com/shopspring/decimal"
)

type disputeGate struct{}

func NewDisputeGate() DisputeGate {
	return &disputeGate{}
}

func (g *disputeGate) HasOpenDispute(ctx context.Context, uow repository.UnitOfWork, bookingID int32) (bool, error) {
	return uow.Disputes().HasOpenForBooking(ctx, bookingID)
}

// Open fails with domain.ErrDuplicateDispute whenever the booking already has
// a dispute, whatever its status.
func (g *disputeGate) Open(ctx context.Context, uow repository.UnitOfWork, bookingID, raisedBy int32, description string, estimatedCost *decimal.Decimal) (*domain.Dispute, error) {
	if estimatedCost != nil && estimatedCost.IsNegative() {
		return nil, fmt.Errorf("%w: estimated cost cannot be negative", domain.ErrValidation)
	}
	if estimatedCost != nil && !domain.IsWholeCents(*estimatedCost) {
		return nil, fmt.Errorf("%w: estimated cost cannot have more than %d decimal places", domain.ErrValidation, domain.MoneyScale)
	}
	d := &domain.Dispute{
		BookingID:     bookingID,
		RaisedBy:      raisedBy,
		Description:   description,
		EstimatedCost: estimatedCost,
		Status:        domain.DisputeStatusOpen,
	}
	if err := uow.Disputes().Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (g *disputeGate) Resolve(ctx context.Context, uow repository.UnitOfWork, disputeID int32, status domain.DisputeStatus, notes string) (*domain.Dispute, error) {
	if status != domain.DisputeStatusResolved && status != domain.DisputeStatusRejected {
		return nil, fmt.Errorf("%w: dispute can only be resolved or rejected", domain.ErrValidation)
	}
	d, err := uow.Disputes().GetByIDForUpdate(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !d.IsOpen() {
		return nil, fmt.Errorf("%w: dispute %d is already %s", domain.ErrInvalidState, disputeID, d.Status)
	}

	now := time.Now().UTC()
	d.Status = status
	d.ResolutionNotes = notes
	d.ResolvedAt = &now
	if err := uow.Disputes().Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (g *disputeGate) Delete(ctx context.Context, uow repository.UnitOfWork, disputeID int32) error {
	d, err := uow.Disputes().GetByIDForUpdate(ctx, disputeID)
	if err != nil {
		return err
	}
	if !d.IsOpen() {
		return fmt.Errorf("%w: only open disputes can be deleted", domain.ErrInvalidState)
	}
	return uow.Disputes().Delete(ctx, disputeID)
}
