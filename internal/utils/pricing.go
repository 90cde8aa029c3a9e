package utils

import (
	"fmt"
	"time"

	"lendahand-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used by the API.
const DateLayout = "2006-01-02"

// DepositQuote is the deposit breakdown for a booking period.
type DepositQuote struct {
	Days         int32
	DailyDeposit decimal.Decimal
	Total        decimal.Decimal
}

// ParseDate converts a yyyy-mm-dd string, or an RFC 3339 timestamp, into a UTC date.
func ParseDate(dateStr string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, dateStr); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd: %q", dateStr)
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// QuoteDeposit checks the period against the item's minimum and maximum
// duration and prices it at the item's daily deposit. Duration is counted
// as end minus start in whole days.
func QuoteDeposit(item *domain.Item, start, end time.Time) (DepositQuote, error) {
	days := domain.DurationDays(start, end)
	if days < item.MinDays || days > item.MaxDays {
		return DepositQuote{}, fmt.Errorf("%w: duration must be between %d and %d days, got %d",
			domain.ErrInvalidRange, item.MinDays, item.MaxDays, days)
	}
	return DepositQuote{
		Days:         days,
		DailyDeposit: item.DailyDeposit,
		Total:        item.DailyDeposit.Mul(decimal.NewFromInt32(days)),
	}, nil
}
