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
)

type itemRepository struct {
	db DBTX
}

func NewItemRepository(db DBTX) repository.ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, lender_id, title, COALESCE(description, ''), COALESCE(location, ''), daily_deposit,
	min_days, max_days, images, is_active, status, created_at`

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `INSERT INTO items (lender_id, title, description, location, daily_deposit, min_days, max_days, images, is_active, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if item.Status == "" {
		item.Status = domain.ItemStatusAvailable
	}
	item.CreatedAt = time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		item.LenderID, item.Title, item.Description, item.Location, item.DailyDeposit,
		item.MinDays, item.MaxDays, pq.Array(item.Images), item.IsActive, item.Status, item.CreatedAt,
	).Scan(&item.ID)
	return mapError(err)
}

func (r *itemRepository) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
}

func (r *itemRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
}

func (r *itemRepository) getOne(ctx context.Context, query string, id int32) (*domain.Item, error) {
	item := &domain.Item{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.LenderID, &item.Title, &item.Description, &item.Location, &item.DailyDeposit,
		&item.MinDays, &item.MaxDays, pq.Array(&item.Images), &item.IsActive, &item.Status, &item.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return item, nil
}

func (r *itemRepository) UpdateStatus(ctx context.Context, id int32, status domain.ItemStatus) error {
	query := `UPDATE items SET status = $1 WHERE id = $2`
	logger.DatabaseCall("items.UpdateStatus", query, "itemID", id, "status", status)
	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		logger.DatabaseResult("items.UpdateStatus", 0, err)
		return mapError(err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("items.UpdateStatus", n, err)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
