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

type userService struct {
	tm     repository.TxManager
	ledger Ledger
}

func NewUserService(tm repository.TxManager, ledger Ledger) UserService {
	return &userService{tm: tm, ledger: ledger}
}

// CreateUser inserts the user and an empty wallet, then posts any opening
// balance as a TOPUP so the balance is backed by a transaction.
func (s *userService) CreateUser(ctx context.Context, user *domain.User, openingBalance decimal.Decimal) (*domain.Wallet, error) {
	logger.EnterMethod("userService.CreateUser", "email", user.Email)

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || user.FullName == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrValidation)
	}
	if user.Role == "" {
		user.Role = domain.UserRoleBorrower
	}
	if !user.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, user.Role)
	}
	if openingBalance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance cannot be negative", domain.ErrValidation)
	}

	var wallet *domain.Wallet
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		if err := uow.Users().Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		wallet = &domain.Wallet{UserID: user.ID, Balance: decimal.Zero}
		if err := uow.Wallets().Create(ctx, wallet); err != nil {
			return fmt.Errorf("create wallet: %w", err)
		}
		if openingBalance.IsPositive() {
			if _, err := s.ledger.Post(ctx, uow, domain.Posting{
				UserID:      user.ID,
				Amount:      openingBalance,
				Type:        domain.TransactionTypeTopup,
				Description: "Opening balance",
			}); err != nil {
				return err
			}
			wallet.Balance = openingBalance
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("userService.CreateUser", err, "email", user.Email)
		return nil, err
	}

	logger.ExitMethod("userService.CreateUser", "userID", user.ID, "walletID", wallet.ID)
	return wallet, nil
}

func (s *userService) GetUser(ctx context.Context, userID int32) (*domain.User, error) {
	var user *domain.User
	err := withUnitOfWork(ctx, s.tm, func(uow repository.UnitOfWork) error {
		var err error
		user, err = uow.Users().GetByID(ctx, userID)
		return err
	})
	return user, err
}
