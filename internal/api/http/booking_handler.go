package http

import (
	"fmt"
	"net/http"
	"time"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/service"
	"lendahand-backend/internal/utils"
)

type BookingHandler struct {
	bookings service.BookingService
	now      func() time.Time
}

func NewBookingHandler(bookings service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings, now: time.Now}
}

type createBookingRequest struct {
	ItemID    int32  `json:"item_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

type updateBookingRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func parseDate(field, value string) (time.Time, error) {
	t, err := utils.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", domain.ErrValidation, field, err)
	}
	return t, nil
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	booking, err := h.bookings.RequestBooking(r.Context(), userID, service.BookingRequest{
		ItemID:    req.ItemID,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	bookings, err := h.bookings.ListMyBookings(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *BookingHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	bookings, err := h.bookings.ListPending(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	booking, err := h.bookings.GetBooking(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// Update applies a status transition requested by the lender or borrower.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var req updateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	booking, err := h.bookings.Transition(r.Context(), id, userID, req.Status, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// ActiveItems reports days left for every item on an accepted booking.
func (h *BookingHandler) ActiveItems(w http.ResponseWriter, r *http.Request) {
	active, err := h.bookings.ActiveItems(r.Context(), h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": active})
}
