package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/auth"
	"github.com/sakif/flashcards/internal/service"
)

const stateCookie = "oauth_state"

// OAuthProvider is the GitHub side of the login flow.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler manages the GitHub OAuth login flow and the session cookie.
//
//	GET  /auth/github/login    → HandleGitHubLogin
//	GET  /auth/github/callback → HandleGitHubCallback
//	POST /auth/logout          → HandleLogout
//	GET  /api/me               → HandleMe
type AuthHandler struct {
	github OAuthProvider
	svc    *service.AuthService
	logger *slog.Logger

	// AfterLogin is where the browser lands after a successful callback.
	AfterLogin string
	// SecureCookies sets the Secure flag; enable behind HTTPS.
	SecureCookies bool
}

func NewAuthHandler(github OAuthProvider, svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		github:     github,
		svc:        svc,
		logger:     logger,
		AfterLogin: "/",
	}
}

// HandleGitHubLogin redirects to GitHub with a random state that is also
// stored in a 10 minute cookie. The callback only proceeds when both match,
// which ties the callback to a login this browser started.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback checks the state, exchanges the code, logs the user in
// and sets the token cookie.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || q.Get("state") != c.Value {
		writeError(w, r, h.logger, apperror.ValidationFailed("state", "Invalid OAuth state"))
		return
	}
	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if denied := q.Get("error"); denied != "" {
		h.logger.Info("GitHub authorization denied", slog.String("error", denied))
		http.Redirect(w, r, h.AfterLogin+"?auth=denied", http.StatusSeeOther)
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, r, h.logger, apperror.ValidationFailed("code", "Missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, r, h.logger, apperror.Unauthorized("GitHub authentication failed"))
		return
	}

	res, err := h.svc.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(auth.DefaultTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.AfterLogin, http.StatusSeeOther)
}

// HandleLogout deletes the token cookie. The token itself stays valid until
// it expires; without the cookie the browser no longer sends it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// HandleMe returns the profile of the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUserByID(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
