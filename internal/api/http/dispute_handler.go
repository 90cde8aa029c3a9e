package http

import (
	"net/http"

	"lendahand-backend/internal/service"

	"github.com/shopspring/decimal"
)

type DisputeHandler struct {
	disputes service.DisputeService
}

func NewDisputeHandler(disputes service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

type createDisputeRequest struct {
	BookingID     int32            `json:"booking_id"`
	Description   string           `json:"description"`
	EstimatedCost *decimal.Decimal `json:"estimated_cost"`
}

type resolveDisputeRequest struct {
	Status          string `json:"status"`
	ResolutionNotes string `json:"resolution_notes"`
}

func (h *DisputeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	dispute, err := h.disputes.CreateDispute(r.Context(), userID, req.BookingID, req.Description, req.EstimatedCost)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dispute)
}

func (h *DisputeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	disputes, err := h.disputes.ListDisputes(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, disputes)
}

func (h *DisputeHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	dispute, err := h.disputes.GetDispute(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dispute)
}

func (h *DisputeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req resolveDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	dispute, err := h.disputes.ResolveDispute(r.Context(), userID, id, req.Status, req.ResolutionNotes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dispute)
}

func (h *DisputeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.disputes.DeleteDispute(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Dispute deleted"})
}
