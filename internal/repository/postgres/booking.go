package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"
	"lendahand-backend/internal/repository"
)

type bookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `id, item_id, borrower_id, lender_id, start_date, end_date, total_deposit, status,
	COALESCE(reason, ''), created_at, updated_at`

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `INSERT INTO bookings (item_id, borrower_id, lender_id, start_date, end_date, total_deposit, status, reason, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id`
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	logger.DatabaseCall("bookings.Create", query, "itemID", b.ItemID, "borrowerID", b.BorrowerID)
	err := r.db.QueryRowContext(ctx, query,
		b.ItemID, b.BorrowerID, b.LenderID, b.StartDate, b.EndDate, b.TotalDeposit, b.Status, b.Reason, now,
	).Scan(&b.ID)
	logger.DatabaseResult("bookings.Create", 1, err)
	return mapError(err)
}

func (r *bookingRepository) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *bookingRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *bookingRepository) getOne(ctx context.Context, query string, id int32) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id int32, from, to domain.BookingStatus, reason string) error {
	query := `UPDATE bookings SET status = $1, reason = COALESCE(NULLIF($2, ''), reason), updated_at = $3
	          WHERE id = $4 AND status = $5`
	logger.DatabaseCall("bookings.UpdateStatus", query, "bookingID", id, "from", from, "to", to)
	res, err := r.db.ExecContext(ctx, query, to, reason, time.Now().UTC(), id, from)
	if err != nil {
		logger.DatabaseResult("bookings.UpdateStatus", 0, err)
		return mapError(err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("bookings.UpdateStatus", n, err)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("booking %d is no longer %s: %w", id, from, domain.ErrConflict)
	}
	return nil
}

func (r *bookingRepository) ListByParty(ctx context.Context, userID int32) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE borrower_id = $1 OR lender_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, userID)
}

func (r *bookingRepository) ListByLender(ctx context.Context, lenderID int32, status domain.BookingStatus) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE lender_id = $1 AND status = $2 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, lenderID, status)
}

func (r *bookingRepository) ListActive(ctx context.Context, endingOnOrAfter time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE status = $1 AND end_date >= $2 ORDER BY end_date`
	return r.list(ctx, query, domain.BookingStatusAccepted, endingOnOrAfter)
}

func (r *bookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := row.Scan(&b.ID, &b.ItemID, &b.BorrowerID, &b.LenderID, &b.StartDate, &b.EndDate,
		&b.TotalDeposit, &b.Status, &b.Reason, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}
