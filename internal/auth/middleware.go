package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sakif/flashcards/internal/apperror"
)

// CookieName is the HttpOnly cookie holding the access token.
const CookieName = "token"

// contextKey is unexported so no other package can read or shadow the value.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth rejects requests without a valid token with the 401
// UNAUTHORIZED envelope and stores the user id in the context otherwise.
//
// The cookie is tried first; the Authorization header lets non-browser
// clients call the API:
//
//	Cookie: token=<jwt>
//	Authorization: Bearer <jwt>
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := tokens.Validate(tokenFromRequest(r))
			if err != nil {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// RejectAll answers every request with the 401 envelope. It stands in for
// RequireAuth when no signing secret is configured.
func RejectAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeUnauthorized(w)
	})
}

// UserIDFromContext returns the authenticated user, ("", false) when anonymous.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns ctx carrying userID, as RequireAuth does.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter) {
	status, env := apperror.Translate(apperror.Unauthorized(""))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
