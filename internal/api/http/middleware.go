package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lendahand-backend/internal/cache"
	"lendahand-backend/internal/config"
	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"
	"lendahand-backend/internal/security"

	"github.com/gorilla/mux"
)

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.URL.Path
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return r.URL.Path
	}
	return tmpl
}

type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

// Handler authenticates requests to non-public routes and stores the caller's
// user id in the request context.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.GetSecurityLevel(r.Method, routeTemplate(r))
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractToken(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid token: %v", domain.ErrUnauthenticated, err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
	})
}

func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("%w: authorization token is not provided", domain.ErrUnauthenticated)
	}

	token := authHeader
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: authorization token is empty", domain.ErrUnauthenticated)
	}
	return token, nil
}

// idempotentRoutes are the money-moving POSTs that honour an Idempotency-Key header.
var idempotentRoutes = map[string]bool{
	"POST /bookings":     true,
	"POST /wallet/topup": true,
}

const IdempotencyKeyHeader = "Idempotency-Key"

// Idempotency replays the first completed response for a repeated
// Idempotency-Key. Keys are scoped to the caller and the route. Must run
// after the auth middleware.
func Idempotency(store cache.IdempotencyStore) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			route := r.Method + " " + routeTemplate(r)
			if store == nil || header == "" || !idempotentRoutes[route] {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				writeError(w, r, err)
				return
			}
			key := fmt.Sprintf("%d:%s:%s", userID, route, header)

			stored, err := store.Reserve(r.Context(), key)
			switch {
			case errors.Is(err, cache.ErrInFlight):
				writeError(w, r, fmt.Errorf("%w: %v", domain.ErrConflict, err))
				return
			case err != nil:
				logger.Warn("Idempotency store unavailable, processing request without it", "error", err)
				next.ServeHTTP(w, r)
				return
			case stored != nil:
				logger.Info("Replaying idempotent response", "route", route, "userID", userID)
				w.Header().Set("Content-Type", stored.ContentType)
				w.Header().Set("X-Idempotency-Hit", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			release := func() {
				if err := store.Release(r.Context(), key); err != nil {
					logger.Warn("Failed to release idempotency key", "error", err)
				}
			}
			defer func() {
				if p := recover(); p != nil {
					release()
					panic(p)
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK, capture: true}
			next.ServeHTTP(rec, r)

			// Server faults are not remembered so the client can retry.
			if rec.status >= http.StatusInternalServerError {
				release()
				return
			}
			resp := &cache.StoredResponse{
				Status:      rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}
			if err := store.Save(r.Context(), key, resp); err != nil {
				logger.Error("Failed to save idempotency key", "error", err)
			}
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	capture     bool
	body        bytes.Buffer
}

func (rr *responseRecorder) WriteHeader(status int) {
	if !rr.wroteHeader {
		rr.status = status
		rr.wroteHeader = true
	}
	rr.ResponseWriter.WriteHeader(status)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if !rr.wroteHeader {
		rr.WriteHeader(http.StatusOK)
	}
	if rr.capture {
		rr.body.Write(b)
	}
	return rr.ResponseWriter.Write(b)
}

// RequestLogger logs every request and turns panics into a 500.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				logger.Error("Panic while handling request", "method", r.Method, "path", r.URL.Path, "panic", p)
				if !rec.wroteHeader {
					writeJSON(rec, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
				}
			}
			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()
		next.ServeHTTP(rec, r)
	})
}
