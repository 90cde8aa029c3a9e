package http

import (
	"context"

	"lendahand-backend/internal/domain"
)

type contextKey string

const userIDKey contextKey = "user-id"

// WithUserID stores the authenticated caller in ctx.
func WithUserID(ctx context.Context, userID int32) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the caller set by the auth middleware.
func UserIDFromContext(ctx context.Context) (int32, error) {
	userID, ok := ctx.Value(userIDKey).(int32)
	if !ok || userID == 0 {
		return 0, domain.ErrUnauthenticated
	}
	return userID, nil
}
