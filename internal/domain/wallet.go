package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeRefund     TransactionType = "REFUND"
	TransactionTypePenalty    TransactionType = "PENALTY"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTopup      TransactionType = "TOPUP"
	TransactionTypeEarning    TransactionType = "EARNING"
)

// Direction of a posting relative to the wallet it is posted to.
type Direction int

const (
	Debit  Direction = -1
	Credit Direction = 1
)

var transactionDirections = map[TransactionType]Direction{
	TransactionTypeDeposit:    Debit,
	TransactionTypeWithdrawal: Debit,
	TransactionTypePenalty:    Debit,
	TransactionTypeRefund:     Credit,
	TransactionTypeTopup:      Credit,
	TransactionTypeEarning:    Credit,
}

// Direction reports whether postings of this type decrease or increase the balance.
// The second return value is false for unknown types.
func (t TransactionType) Direction() (Direction, bool) {
	d, ok := transactionDirections[t]
	return d, ok
}

// Signed returns amount with the sign implied by the transaction type.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	if d, ok := t.Direction(); ok && d == Debit {
		return amount.Neg()
	}
	return amount
}

// MoneyScale is the number of decimal places stored for monetary columns.
const MoneyScale = 2

// IsWholeCents reports whether amount can be stored without rounding.
func IsWholeCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(MoneyScale))
}

type Wallet struct {
	ID        int32           `json:"id"`
	UserID    int32           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction is an immutable ledger entry. Amount is always positive.
type Transaction struct {
	ID          int32           `json:"id"`
	UserID      int32           `json:"user_id"`
	WalletID    int32           `json:"wallet_id"`
	BookingID   *int32          `json:"booking_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Posting is a request to the ledger to record one balance adjustment.
type Posting struct {
	UserID      int32
	Amount      decimal.Decimal
	Type        TransactionType
	BookingID   *int32
	Description string
}

type WalletSummary struct {
	Balance      decimal.Decimal `json:"balance"`
	Currency     string          `json:"currency"`
	Transactions []Transaction   `json:"transactions"`
}
