package service

import (
	"context"
	"fmt"
	"strings"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"
	"lendahand-backend/internal/repository"

	"github.com/shopspring/decimal"
)

const defaultPaymentMethod = "credit_card"

// WalletOptions are the wallet limits and display settings.
type WalletOptions struct {
	MaxTopup           decimal.Decimal
	RecentTransactions int32
	Currency           string
}

type walletService struct {
	tm      repository.TxManager
	ledger  Ledger
	options WalletOptions
}

func NewWalletService(tm repository.TxManager, ledger Ledger, options WalletOptions) WalletService {
	return &walletService{tm: tm, ledger: ledger, options: options}
}

func (s *walletService) GetBalance(ctx context.Context, userID int32) (*domain.WalletSummary, error) {
	var summary *domain.WalletSummary
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		wallet, err := uow.Wallets().GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		txs, err := uow.Wallets().ListTransactions(ctx, wallet.ID, s.options.RecentTransactions)
		if err != nil {
			return err
		}
		summary = &domain.WalletSummary{
			Balance:      wallet.Balance,
			Currency:     s.options.Currency,
			Transactions: txs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// Topup credits the wallet without contacting any payment provider.
func (s *walletService) Topup(ctx context.Context, userID int32, amount decimal.Decimal, paymentMethod string) (*domain.Wallet, error) {
	logger.EnterMethod("walletService.Topup", "userID", userID, "amount", amount.StringFixed(2))

	if !amount.IsPositive() {
		err := fmt.Errorf("%w: amount must be greater than 0", domain.ErrValidation)
		logger.ExitMethodWithError("walletService.Topup", err, "userID", userID)
		return nil, err
	}
	if !domain.IsWholeCents(amount) {
		err := fmt.Errorf("%w: amount cannot have more than %d decimal places", domain.ErrValidation, domain.MoneyScale)
		logger.ExitMethodWithError("walletService.Topup", err, "userID", userID)
		return nil, err
	}
	if amount.GreaterThan(s.options.MaxTopup) {
		err := fmt.Errorf("%w: amount cannot exceed %s %s", domain.ErrValidation, s.options.Currency, s.options.MaxTopup.String())
		logger.ExitMethodWithError("walletService.Topup", err, "userID", userID)
		return nil, err
	}
	method := strings.TrimSpace(paymentMethod)
	if method == "" {
		method = defaultPaymentMethod
	}

	var wallet *domain.Wallet
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		if _, err := s.ledger.Post(ctx, uow, domain.Posting{
			UserID:      userID,
			Amount:      amount,
			Type:        domain.TransactionTypeTopup,
			Description: "Wallet topup via " + method,
		}); err != nil {
			return err
		}
		var err error
		wallet, err = uow.Wallets().GetByUserID(ctx, userID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("walletService.Topup", err, "userID", userID)
		return nil, err
	}

	logger.ExitMethod("walletService.Topup", "userID", userID, "balance", wallet.Balance.StringFixed(2))
	return wallet, nil
}

func (s *walletService) ListTransactions(ctx context.Context, userID int32) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		wallet, err := uow.Wallets().GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		txs, err = uow.Wallets().ListTransactions(ctx, wallet.ID, 0)
		return err
	})
	return txs, err
}
