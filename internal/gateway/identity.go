package gateway

import (
	"context"

	"procodus.dev/smarthome/internal/store"
)

type contextKey struct{ name string }

// userIDKey carries an authenticated identity through a request context.
var userIDKey = &contextKey{"user-id"}

// WithUserID returns a context carrying an authenticated user identity.
// An upstream authentication middleware is expected to call this; nothing
// in this repository sets it today.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID resolves the acting user's identity: an authenticated identity on
// the context wins, then an explicit parameter, then the fixed fallback
// identity used while no authentication layer exists.
func UserID(ctx context.Context, explicit string) string {
	if id, ok := ctx.Value(userIDKey).(string); ok && id != "" {
		return id
	}

	if explicit != "" {
		return explicit
	}

	return store.SeedUserID
}
