package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
	DisputeStatusRejected DisputeStatus = "rejected"
)

// ParseResolution accepts only the closing statuses.
func ParseResolution(s string) (DisputeStatus, error) {
	st := DisputeStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case DisputeStatusResolved, DisputeStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: dispute can only be resolved or rejected, got %q", ErrValidation, s)
}

type Dispute struct {
	ID              int32            `json:"id"`
	BookingID       int32            `json:"booking_id"`
	RaisedBy        int32            `json:"raised_by"`
	Description     string           `json:"description"`
	EstimatedCost   *decimal.Decimal `json:"estimated_cost,omitempty"`
	Status          DisputeStatus    `json:"status"`
	ResolutionNotes string           `json:"resolution_notes"`
	CreatedAt       time.Time        `json:"created_at"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
}

func (d *Dispute) IsOpen() bool {
	return d.Status == DisputeStatusOpen
}
