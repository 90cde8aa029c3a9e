package http

import (
	"net/http"

	"lendahand-backend/internal/cache"
	"lendahand-backend/internal/security"
	"lendahand-backend/internal/service"

	"github.com/gorilla/mux"
)

// RouterConfig carries everything the REST surface depends on.
type RouterConfig struct {
	Bookings     service.BookingService
	Wallets      service.WalletService
	Disputes     service.DisputeService
	Images       service.ImageService
	TokenManager security.TokenManager
	// Idempotency is optional; without it Idempotency-Key headers are ignored.
	Idempotency    cache.IdempotencyStore
	HealthChecks   map[string]HealthCheck
	MaxUploadBytes int64
}

// NewRouter registers every route. Fixed paths under /bookings are
// registered before /bookings/{id} so they are not captured by it.
func NewRouter(cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestLogger)
	router.Use(NewAuthMiddleware(cfg.TokenManager).Handler)
	router.Use(Idempotency(cfg.Idempotency))

	health := NewHealthHandler(cfg.HealthChecks)
	router.HandleFunc("/healthz", health.Healthz).Methods(http.MethodGet)

	bookings := NewBookingHandler(cfg.Bookings)
	router.HandleFunc("/bookings", bookings.Create).Methods(http.MethodPost)
	router.HandleFunc("/bookings", bookings.ListMine).Methods(http.MethodGet)
	router.HandleFunc("/bookings/pending", bookings.ListPending).Methods(http.MethodGet)
	router.HandleFunc("/bookings/active-items", bookings.ActiveItems).Methods(http.MethodGet)
	router.HandleFunc("/bookings/{id}", bookings.Get).Methods(http.MethodGet)
	router.HandleFunc("/bookings/{id}", bookings.Update).Methods(http.MethodPatch)

	disputes := NewDisputeHandler(cfg.Disputes)
	router.HandleFunc("/disputes", disputes.Create).Methods(http.MethodPost)
	router.HandleFunc("/disputes", disputes.List).Methods(http.MethodGet)
	router.HandleFunc("/disputes/{id}", disputes.Get).Methods(http.MethodGet)
	router.HandleFunc("/disputes/{id}", disputes.Resolve).Methods(http.MethodPatch)
	router.HandleFunc("/disputes/{id}", disputes.Delete).Methods(http.MethodDelete)

	wallets := NewWalletHandler(cfg.Wallets)
	router.HandleFunc("/wallet/balance", wallets.Balance).Methods(http.MethodGet)
	router.HandleFunc("/wallet/topup", wallets.Topup).Methods(http.MethodPost)
	router.HandleFunc("/wallet/transactions", wallets.Transactions).Methods(http.MethodGet)

	uploads := NewImageUploadHandler(cfg.Images, cfg.MaxUploadBytes)
	router.HandleFunc("/uploads/images", uploads.HandleUpload).Methods(http.MethodPost)
	router.HandleFunc("/uploads/files/{key}", uploads.HandleDownload).Methods(http.MethodGet)
	router.HandleFunc("/uploads/ping", uploads.HandlePing).Methods(http.MethodGet)

	return router
}
