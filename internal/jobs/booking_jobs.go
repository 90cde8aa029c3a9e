package jobs

import (
	"context"
	"fmt"
	"time"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"

	"github.com/lib/pq"
)

type OverdueBooking struct {
	ID         int32
	ItemID     int32
	BorrowerID int32
	LenderID   int32
	EndDate    time.Time
	Status     domain.BookingStatus
}

// ReportOverdueBookings logs bookings still out after their end date. It changes nothing.
func (jr *JobRunner) ReportOverdueBookings() {
	jr.runWithRecovery("ReportOverdueBookings", func() {
		overdue, err := jr.overdueBookings(context.Background())
		if err != nil {
			logger.Error("Failed to list overdue bookings", "error", err)
			return
		}
		for _, b := range overdue {
			logger.Warn("Booking is overdue",
				"booking_id", b.ID,
				"item_id", b.ItemID,
				"borrower_id", b.BorrowerID,
				"lender_id", b.LenderID,
				"status", b.Status,
				"end_date", b.EndDate.Format("2006-01-02"))
		}
		logger.Info("Overdue booking report finished", "count", len(overdue))
	})
}

func (jr *JobRunner) overdueBookings(ctx context.Context) ([]OverdueBooking, error) {
	query := `
		SELECT id, item_id, borrower_id, lender_id, end_date, status
		FROM bookings
		WHERE status = ANY($1)
		  AND end_date < $2
		ORDER BY end_date, id
	`
	statuses := []string{string(domain.BookingStatusAccepted), string(domain.BookingStatusReturnPending)}
	rows, err := jr.db.QueryContext(ctx, query, pq.Array(statuses), today(jr.now()))
	if err != nil {
		return nil, fmt.Errorf("query overdue bookings: %w", err)
	}
	defer rows.Close()

	var overdue []OverdueBooking
	for rows.Next() {
		var b OverdueBooking
		if err := rows.Scan(&b.ID, &b.ItemID, &b.BorrowerID, &b.LenderID, &b.EndDate, &b.Status); err != nil {
			return nil, fmt.Errorf("scan overdue booking: %w", err)
		}
		overdue = append(overdue, b)
	}
	return overdue, rows.Err()
}
