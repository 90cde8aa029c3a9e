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

	"github.com/shopspring/decimal"
)

type walletRepository struct {
	db DBTX
}

func NewWalletRepository(db DBTX) repository.WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (user_id, balance, created_at, updated_at) VALUES ($1, $2, $3, $3) RETURNING id`
	now := time.Now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now
	err := r.db.QueryRowContext(ctx, query, w.UserID, w.Balance, now).Scan(&w.ID)
	return mapError(err)
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID int32) (*domain.Wallet, error) {
	query := `SELECT id, user_id, balance, created_at, updated_at FROM wallets WHERE user_id = $1`
	return r.getOne(ctx, query, userID)
}

func (r *walletRepository) GetByUserIDForUpdate(ctx context.Context, userID int32) (*domain.Wallet, error) {
	query := `SELECT id, user_id, balance, created_at, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE`
	return r.getOne(ctx, query, userID)
}

func (r *walletRepository) getOne(ctx context.Context, query string, userID int32) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("wallet for user %d: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return w, nil
}

func (r *walletRepository) UpdateBalance(ctx context.Context, walletID int32, balance decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $1, updated_at = $2 WHERE id = $3`
	logger.DatabaseCall("wallets.UpdateBalance", query, "walletID", walletID)
	res, err := r.db.ExecContext(ctx, query, balance, time.Now().UTC(), walletID)
	if err != nil {
		logger.DatabaseResult("wallets.UpdateBalance", 0, err)
		return mapError(err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("wallets.UpdateBalance", n, err)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("wallet %d: %w", walletID, domain.ErrNotFound)
	}
	return nil
}

func (r *walletRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `INSERT INTO transactions (user_id, wallet_id, booking_id, amount, type, description, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	tx.CreatedAt = time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, tx.UserID, tx.WalletID, tx.BookingID, tx.Amount, tx.Type, tx.Description, tx.CreatedAt).Scan(&tx.ID)
	return mapError(err)
}

func (r *walletRepository) ListTransactions(ctx context.Context, walletID int32, limit int32) ([]domain.Transaction, error) {
	query := `SELECT id, user_id, wallet_id, booking_id, amount, type, COALESCE(description, ''), created_at
	          FROM transactions WHERE wallet_id = $1 ORDER BY created_at DESC, id DESC`
	args := []any{walletID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		var tx domain.Transaction
		var bookingID sql.NullInt32
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.WalletID, &bookingID, &tx.Amount, &tx.Type, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			id := bookingID.Int32
			tx.BookingID = &id
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
