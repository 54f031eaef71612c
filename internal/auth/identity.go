package auth

import "context"

type identityKey struct{}

// WithUserID marks the context as belonging to an authenticated user.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil || userID == "" {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, userID)
}

// UserIDFromContext returns the authenticated caller, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	userID, ok := ctx.Value(identityKey{}).(string)
	return userID, ok && userID != ""
}
