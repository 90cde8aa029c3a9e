package http

import (
	"net/http"

	"lendahand-backend/internal/service"

	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	wallets service.WalletService
}

func NewWalletHandler(wallets service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

type topupRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
}

type topupResponse struct {
	Message string          `json:"message"`
	Balance decimal.Decimal `json:"balance"`
}

func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.wallets.GetBalance(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *WalletHandler) Topup(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req topupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	wallet, err := h.wallets.Topup(r.Context(), userID, req.Amount, req.PaymentMethod)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topupResponse{Message: "Wallet topped up successfully", Balance: wallet.Balance})
}

func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := h.wallets.ListTransactions(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
