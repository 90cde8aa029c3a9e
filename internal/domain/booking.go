package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending       BookingStatus = "pending"
	BookingStatusAccepted      BookingStatus = "accepted"
	BookingStatusRejected      BookingStatus = "rejected"
	BookingStatusReturnPending BookingStatus = "return_pending"
	BookingStatusReturned      BookingStatus = "returned"
)

// bookingTransitions is the complete set of legal moves. Anything absent is illegal,
// which makes rejected and returned terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:       {BookingStatusAccepted, BookingStatusRejected},
	BookingStatusAccepted:      {BookingStatusReturnPending},
	BookingStatusReturnPending: {BookingStatusReturned},
}

// ParseBookingStatus accepts any letter case.
func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusRejected,
		BookingStatusReturnPending, BookingStatusReturned:
		return st, nil
	}
	return "", fmt.Errorf("%w: invalid status: %s", ErrValidation, s)
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

type Booking struct {
	ID           int32           `json:"id"`
	ItemID       int32           `json:"item_id"`
	BorrowerID   int32           `json:"borrower_id"`
	LenderID     int32           `json:"lender_id"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	TotalDeposit decimal.Decimal `json:"total_deposit"`
	Status       BookingStatus   `json:"status"`
	Reason       string          `json:"reason"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsParty reports whether the user is the borrower or the lender of the booking.
func (b *Booking) IsParty(userID int32) bool {
	return b.BorrowerID == userID || b.LenderID == userID
}

// DurationDays counts whole calendar days between start and end.
func DurationDays(start, end time.Time) int32 {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int32(e.Sub(s).Hours() / 24)
}

// BookingDetails is a booking plus display fields resolved by explicit lookups.
type BookingDetails struct {
	Booking
	ItemTitle    string `json:"item_title,omitempty"`
	ItemLocation string `json:"item_location,omitempty"`
	LenderName   string `json:"lender_name,omitempty"`
	BorrowerName string `json:"borrower_name,omitempty"`
}
