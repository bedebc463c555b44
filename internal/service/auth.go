package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/auth"
	"github.com/sakif/flashcards/internal/model"
	"github.com/sakif/flashcards/internal/repository"
)

// AuthService resolves identities for the rest of the application.
//
//	AuthHandler → AuthService → UserRepository (DB)
//	                          ↘ TokenService (JWT)
//
// Users never set a password: the first GitHub login creates the account and
// every later login refreshes its profile. The JWT subject is our own user id,
// which is the owner id every flashcard and generation is scoped by.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: orDiscard(logger),
	}
}

// AuthResult bundles the user and the issued token so the handler can set
// the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGitHub upserts the GitHub profile and issues a token for it.
// It does not touch HTTP; setting the cookie is the handler's job.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Login:     ghUser.Login,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, apperror.Databasef(err, "Failed to save user")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("user_id", user.ID),
		slog.String("login", user.Login),
	)
	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID backs GET /api/me. A token whose user no longer exists is
// not-found rather than unauthorized.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, dbError(err, "Failed to fetch user")
	}
	return user, nil
}
