package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidRange      = errors.New("invalid range")
	ErrValidation        = errors.New("validation error")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicateDispute  = errors.New("dispute already exists for this booking")
	ErrConflict          = errors.New("conflicting update")
	ErrUnauthenticated   = errors.New("not authenticated")

	// ErrSelfBooking is a Forbidden case that the API reports as a bad request.
	ErrSelfBooking = fmt.Errorf("%w: cannot book your own item", ErrForbidden)
)

// InsufficientFundsError carries the amounts needed to explain the failure.
type InsufficientFundsError struct {
	UserID    int32
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient wallet balance. Required: %s, Available: %s",
		e.Required.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// IsClientError reports whether err is an expected business failure
// rather than an internal fault.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrForbidden, ErrInvalidState, ErrInvalidRange, ErrValidation,
		ErrInsufficientFunds, ErrDuplicateDispute, ErrConflict, ErrUnauthenticated,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
