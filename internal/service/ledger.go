package service

import (
	"context"
	"fmt"
	"sort"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"
	"lendahand-backend/internal/repository"
)

type ledger struct{}

func NewLedger() Ledger {
	return &ledger{}
}

// Post locks the wallet row, checks the resulting balance and records the
// transaction. Nothing is written when the balance would go negative.
func (l *ledger) Post(ctx context.Context, uow repository.UnitOfWork, p domain.Posting) (*domain.Transaction, error) {
	if !p.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: posting amount must be positive, got %s", domain.ErrValidation, p.Amount)
	}
	if !domain.IsWholeCents(p.Amount) {
		return nil, fmt.Errorf("%w: posting amount %s has more than %d decimal places", domain.ErrValidation, p.Amount, domain.MoneyScale)
	}
	if _, ok := p.Type.Direction(); !ok {
		return nil, fmt.Errorf("%w: unknown transaction type %q", domain.ErrValidation, p.Type)
	}

	wallet, err := uow.Wallets().GetByUserIDForUpdate(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	balance := wallet.Balance.Add(p.Type.Signed(p.Amount))
	if balance.IsNegative() {
		return nil, &domain.InsufficientFundsError{
			UserID:    p.UserID,
			Required:  p.Amount,
			Available: wallet.Balance,
		}
	}

	if err := uow.Wallets().UpdateBalance(ctx, wallet.ID, balance); err != nil {
		return nil, fmt.Errorf("update balance for user %d: %w", p.UserID, err)
	}

	tx := &domain.Transaction{
		UserID:      p.UserID,
		WalletID:    wallet.ID,
		BookingID:   p.BookingID,
		Amount:      p.Amount,
		Type:        p.Type,
		Description: p.Description,
	}
	if err := uow.Wallets().CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("record %s transaction for user %d: %w", p.Type, p.UserID, err)
	}

	logger.Debug("Ledger posting",
		"userID", p.UserID,
		"type", p.Type,
		"amount", p.Amount.StringFixed(2),
		"balance", balance.StringFixed(2),
	)
	return tx, nil
}

// lockWallets takes the wallet row locks in ascending user id order so that
// two transitions touching the same pair of wallets cannot deadlock.
func lockWallets(ctx context.Context, uow repository.UnitOfWork, userIDs ...int32) error {
	ids := append([]int32(nil), userIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		if _, err := uow.Wallets().GetByUserIDForUpdate(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
