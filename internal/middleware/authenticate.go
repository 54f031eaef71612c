package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/skillswap/backend/internal/auth"
	"github.com/skillswap/backend/internal/logging"
)

// Authenticator resolves an access token to a user identifier.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// Authenticate attaches the caller identity to the request context when a
// valid bearer token is presented. Requests without one continue anonymously
// so each handler decides how to report a missing login.
func Authenticate(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" || authn == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			userID, err := authn.Authenticate(ctx, token)
			if err != nil {
				logging.FromContext(ctx).Warn("rejected access token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx = auth.WithUserID(ctx, userID)
			ctx = logging.With(ctx, "userId", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter browsers must use for websocket upgrades.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}
