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

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type disputeRepository struct {
	db DBTX
}

func NewDisputeRepository(db DBTX) repository.DisputeRepository {
	return &disputeRepository{db: db}
}

const disputeColumns = `d.id, d.booking_id, d.raised_by, d.description, d.estimated_cost, d.status,
	COALESCE(d.resolution_notes, ''), d.created_at, d.resolved_at`

func (r *disputeRepository) Create(ctx context.Context, d *domain.Dispute) error {
	logger.EnterMethod("disputeRepository.Create", "bookingID", d.BookingID)

	query := `INSERT INTO disputes (booking_id, raised_by, description, estimated_cost, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if d.Status == "" {
		d.Status = domain.DisputeStatusOpen
	}
	d.CreatedAt = time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, d.BookingID, d.RaisedBy, d.Description, nullDecimal(d.EstimatedCost), d.Status, d.CreatedAt).Scan(&d.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			err = fmt.Errorf("booking %d: %w", d.BookingID, domain.ErrDuplicateDispute)
		} else {
			err = mapError(err)
		}
		logger.ExitMethodWithError("disputeRepository.Create", err, "bookingID", d.BookingID)
		return err
	}

	logger.ExitMethod("disputeRepository.Create", "disputeID", d.ID)
	return nil
}

func (r *disputeRepository) GetByID(ctx context.Context, id int32) (*domain.Dispute, error) {
	return r.getOne(ctx, `SELECT `+disputeColumns+` FROM disputes d WHERE d.id = $1`, id)
}

func (r *disputeRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Dispute, error) {
	return r.getOne(ctx, `SELECT `+disputeColumns+` FROM disputes d WHERE d.id = $1 FOR UPDATE`, id)
}

func (r *disputeRepository) getOne(ctx context.Context, query string, id int32) (*domain.Dispute, error) {
	d, err := scanDispute(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dispute %d: %w", id, domain.ErrNotFound)
	}
	return d, mapError(err)
}

func (r *disputeRepository) GetByBookingID(ctx context.Context, bookingID int32) (*domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes d WHERE d.booking_id = $1`
	d, err := scanDispute(r.db.QueryRowContext(ctx, query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dispute for booking %d: %w", bookingID, domain.ErrNotFound)
	}
	return d, mapError(err)
}

func (r *disputeRepository) HasOpenForBooking(ctx context.Context, bookingID int32) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM disputes WHERE booking_id = $1 AND status = $2)`
	err := r.db.QueryRowContext(ctx, query, bookingID, domain.DisputeStatusOpen).Scan(&exists)
	return exists, mapError(err)
}

func (r *disputeRepository) Update(ctx context.Context, d *domain.Dispute) error {
	query := `UPDATE disputes SET status = $1, resolution_notes = $2, resolved_at = $3 WHERE id = $4 AND status = $5`
	logger.DatabaseCall("disputes.Update", query, "disputeID", d.ID, "status", d.Status)
	res, err := r.db.ExecContext(ctx, query, d.Status, d.ResolutionNotes, d.ResolvedAt, d.ID, domain.DisputeStatusOpen)
	if err != nil {
		logger.DatabaseResult("disputes.Update", 0, err)
		return mapError(err)
	}
	return requireOpenRow(res, "disputes.Update", d.ID)
}

func (r *disputeRepository) Delete(ctx context.Context, id int32) error {
	query := `DELETE FROM disputes WHERE id = $1 AND status = $2`
	logger.DatabaseCall("disputes.Delete", query, "disputeID", id)
	res, err := r.db.ExecContext(ctx, query, id, domain.DisputeStatusOpen)
	if err != nil {
		logger.DatabaseResult("disputes.Delete", 0, err)
		return mapError(err)
	}
	return requireOpenRow(res, "disputes.Delete", id)
}

func requireOpenRow(res sql.Result, op string, id int32) error {
	n, err := res.RowsAffected()
	logger.DatabaseResult(op, n, err)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("dispute %d is no longer open: %w", id, domain.ErrConflict)
	}
	return nil
}

func (r *disputeRepository) ListByParty(ctx context.Context, userID int32) ([]domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes d
	          JOIN bookings b ON b.id = d.booking_id
	          WHERE b.borrower_id = $1 OR b.lender_id = $1
	          ORDER BY d.created_at DESC, d.id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	disputes := []domain.Dispute{}
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		disputes = append(disputes, *d)
	}
	return disputes, rows.Err()
}

func scanDispute(row rowScanner) (*domain.Dispute, error) {
	d := &domain.Dispute{}
	var cost decimal.NullDecimal
	var resolvedAt sql.NullTime
	err := row.Scan(&d.ID, &d.BookingID, &d.RaisedBy, &d.Description, &cost, &d.Status,
		&d.ResolutionNotes, &d.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if cost.Valid {
		c := cost.Decimal
		d.EstimatedCost = &c
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		d.ResolvedAt = &t
	}
	return d, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
