package handler_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/flashcards/internal/auth"
	"github.com/sakif/flashcards/internal/handler"
	"github.com/sakif/flashcards/internal/model"
	sqliteRepo "github.com/sakif/flashcards/internal/repository/sqlite"
	"github.com/sakif/flashcards/internal/service"
)

type fakeProvider struct {
	user *auth.GitHubUser
	err  error
}

func (p *fakeProvider) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*auth.GitHubUser, error) {
	if p.err != nil {
		return nil, p.err
	}
	if code != "good-code" {
		return nil, errors.New("bad verification code")
	}
	return p.user, nil
}

func newAuthRouter(t *testing.T, provider *fakeProvider) (http.Handler, *auth.TokenService) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	db, err := sqliteRepo.New(context.Background(), filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16")
	require.NoError(t, err)

	h := handler.NewAuthHandler(provider, service.NewAuthService(db, tokens, logger), logger)
	h.AfterLogin = "/app"

	r := chi.NewRouter()
	r.Get("/auth/github/login", h.HandleGitHubLogin)
	r.Get("/auth/github/callback", h.HandleGitHubCallback)
	r.Post("/auth/logout", h.HandleLogout)
	r.With(auth.RequireAuth(tokens)).Get("/api/me", h.HandleMe)
	return r, tokens
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func callback(router http.Handler, query, state string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?"+query, nil)
	if state != "" {
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: state})
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestGitHubLogin_FullFlow(t *testing.T) {
	router, tokens := newAuthRouter(t, &fakeProvider{
		user: &auth.GitHubUser{ID: 42, Login: "octocat", Email: "octo@example.com"},
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)

	state := findCookie(rr, "oauth_state")
	require.NotNil(t, state)
	assert.True(t, state.HttpOnly)
	assert.Equal(t, "https://github.example/authorize?state="+state.Value, rr.Header().Get("Location"))

	rr = callback(router, "code=good-code&state="+state.Value, state.Value)
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	assert.Equal(t, "/app", rr.Header().Get("Location"))

	session := findCookie(rr, auth.CookieName)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	userID, err := tokens.Validate(session.Value)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(session)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[model.User](t, rr)
	assert.Equal(t, userID, me.ID)
	assert.Equal(t, "octocat", me.Login)
	assert.Equal(t, int64(42), me.GitHubID)
}

func TestGitHubCallback_Rejections(t *testing.T) {
	router, _ := newAuthRouter(t, &fakeProvider{user: &auth.GitHubUser{ID: 1, Login: "x"}})

	tests := []struct {
		name    string
		query   string
		cookie  string
		status  int
		code    string
		message string
	}{
		{"no state cookie", "code=good-code&state=abc", "", http.StatusBadRequest, "VALIDATION_ERROR", "Invalid OAuth state"},
		{"state mismatch", "code=good-code&state=abc", "xyz", http.StatusBadRequest, "VALIDATION_ERROR", "Invalid OAuth state"},
		{"missing code", "state=abc", "abc", http.StatusBadRequest, "VALIDATION_ERROR", "Missing OAuth code"},
		{"exchange fails", "code=stale&state=abc", "abc", http.StatusUnauthorized, "UNAUTHORIZED", "GitHub authentication failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := callback(router, tt.query, tt.cookie)
			assertError(t, rr, tt.status, tt.code, tt.message)
			assert.Nil(t, findCookie(rr, auth.CookieName))
		})
	}
}

func TestGitHubCallback_Denied(t *testing.T) {
	router, _ := newAuthRouter(t, &fakeProvider{})

	rr := callback(router, "error=access_denied&state=abc", "abc")

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/app?auth=denied", rr.Header().Get("Location"))
	assert.Nil(t, findCookie(rr, auth.CookieName))
}

func TestLogoutAndAnonymousMe(t *testing.T) {
	router, _ := newAuthRouter(t, &fakeProvider{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	cleared := findCookie(rr, auth.CookieName)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assertError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
}
