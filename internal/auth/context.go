package auth

import "context"

type contextKey string

const (
	userIDKey   contextKey = "auth.user_id"
	usernameKey contextKey = "auth.username"
	roleKey     contextKey = "auth.role"
)

// WithIdentity stores the authenticated identity on the request context.
func WithIdentity(ctx context.Context, userID, username string, role Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, usernameKey, username)
	return context.WithValue(ctx, roleKey, role)
}

// UserIDFromContext returns the acting user's id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}

// UsernameFromContext returns the acting user's username, if any.
func UsernameFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(usernameKey).(string)
	return v, ok && v != ""
}

// RoleFromContext returns the caller's role, if any.
func RoleFromContext(ctx context.Context) (Role, bool) {
	v, ok := ctx.Value(roleKey).(Role)
	return v, ok
}
