package jobs

import (
	"context"
	"fmt"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// WalletMismatch is a wallet whose balance differs from its transaction history.
type WalletMismatch struct {
	WalletID int32
	UserID   int32
	Balance  decimal.Decimal
	Ledger   decimal.Decimal
}

type ReconcileReport struct {
	Wallets    int
	Mismatches []WalletMismatch
	// UnmatchedRefunds is refund credit not offset by a lender debit on the same booking.
	UnmatchedRefunds decimal.Decimal
}

func transactionTypes(dir domain.Direction) []string {
	var types []string
	for _, t := range []domain.TransactionType{
		domain.TransactionTypeDeposit, domain.TransactionTypeRefund, domain.TransactionTypePenalty,
		domain.TransactionTypeWithdrawal, domain.TransactionTypeTopup, domain.TransactionTypeEarning,
	} {
		if d, _ := t.Direction(); d == dir {
			types = append(types, string(t))
		}
	}
	return types
}

// ReconcileWallets compares every wallet balance with the signed sum of its
// transactions and reports refunds that minted money.
func (jr *JobRunner) ReconcileWallets() {
	jr.runWithRecovery("ReconcileWallets", func() {
		report, err := jr.reconcileWallets(context.Background())
		if err != nil {
			logger.Error("Failed to reconcile wallets", "error", err)
			return
		}
		logger.Info("Wallet reconciliation finished",
			"wallets", report.Wallets,
			"mismatches", len(report.Mismatches),
			"unmatched_refunds", report.UnmatchedRefunds.StringFixed(2))
	})
}

func (jr *JobRunner) reconcileWallets(ctx context.Context) (*ReconcileReport, error) {
	query := `
		SELECT w.id, w.user_id, w.balance,
		       COALESCE(SUM(CASE WHEN t.type = ANY($1) THEN t.amount
		                         WHEN t.type = ANY($2) THEN -t.amount
		                         ELSE 0 END), 0) AS ledger_total
		FROM wallets w
		LEFT JOIN transactions t ON t.wallet_id = w.id
		GROUP BY w.id, w.user_id, w.balance
		ORDER BY w.id
	`
	rows, err := jr.db.QueryContext(ctx, query,
		pq.Array(transactionTypes(domain.Credit)), pq.Array(transactionTypes(domain.Debit)))
	if err != nil {
		return nil, fmt.Errorf("query wallet totals: %w", err)
	}
	defer rows.Close()

	report := &ReconcileReport{}
	for rows.Next() {
		var m WalletMismatch
		if err := rows.Scan(&m.WalletID, &m.UserID, &m.Balance, &m.Ledger); err != nil {
			return nil, fmt.Errorf("scan wallet totals: %w", err)
		}
		report.Wallets++
		if !m.Balance.Equal(m.Ledger) {
			logger.Error("Wallet balance does not match its transactions",
				"wallet_id", m.WalletID,
				"user_id", m.UserID,
				"balance", m.Balance.StringFixed(2),
				"ledger", m.Ledger.StringFixed(2))
			report.Mismatches = append(report.Mismatches, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet totals: %w", err)
	}

	refundQuery := `
		SELECT COALESCE(SUM(CASE WHEN type = $1 THEN amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN type = $2 THEN amount ELSE 0 END), 0)
		FROM transactions
		WHERE booking_id IS NOT NULL
	`
	var refunds, penalties decimal.Decimal
	err = jr.db.QueryRowContext(ctx, refundQuery, domain.TransactionTypeRefund, domain.TransactionTypePenalty).Scan(&refunds, &penalties)
	if err != nil {
		return nil, fmt.Errorf("query refund totals: %w", err)
	}
	report.UnmatchedRefunds = refunds.Sub(penalties)
	if report.UnmatchedRefunds.IsPositive() {
		logger.Warn("Refunds credited without reclaiming lender earnings",
			"refunds", refunds.StringFixed(2),
			"penalties", penalties.StringFixed(2),
			"unmatched", report.UnmatchedRefunds.StringFixed(2))
	}
	return report, nil
}
