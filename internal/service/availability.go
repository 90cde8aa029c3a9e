package service

import (
	"context"
	"fmt"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/repository"
)

type availabilityTracker struct{}

func NewAvailabilityTracker() AvailabilityTracker {
	return &availabilityTracker{}
}

func (t *availabilityTracker) SetStatus(ctx context.Context, uow repository.UnitOfWork, itemID int32, status domain.ItemStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown item status %q", domain.ErrValidation, status)
	}
	if err := uow.Items().UpdateStatus(ctx, itemID, status); err != nil {
		return fmt.Errorf("set item %d %s: %w", itemID, status, err)
	}
	return nil
}
