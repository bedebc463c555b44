// Package auth issues and checks the credentials of the flashcard API.
//
// AUTHENTICATION FLOW:
//  1. GET /auth/github/login redirects to GitHub with a random state cookie.
//  2. GitHub calls back /auth/github/callback with a code.
//  3. The server exchanges the code for the GitHub profile and upserts the user.
//  4. The server signs a JWT whose subject is our user id and sets it as the
//     HttpOnly "token" cookie.
//  5. RequireAuth reads the cookie (or an Authorization: Bearer header),
//     validates the JWT and puts the user id in the request context. Every
//     service call is scoped by that id.
//
// Tokens are HS256 and stateless: validating one needs only the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer is written to and required in every token.
	Issuer = "flashcards"

	// DefaultTokenTTL is the lifetime of a login token.
	DefaultTokenTTL = 24 * time.Hour
)

// ErrTokenExpired is returned by Validate for a well-formed token past its expiry.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and validates access tokens with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService rejects secrets shorter than 16 characters.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: DefaultTokenTTL}, nil
}

// TTL is the lifetime of tokens issued by Generate.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate signs a token for userID valid for TTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token for userID valid for d. A negative d
// yields an already expired token, which is what the tests use it for.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()
	c := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate returns the user id of a valid token.
//
// Only HS256 is accepted, which rules out "alg: none" and key-confusion
// tokens. The issuer and an expiry are mandatory.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("auth: invalid token")
	}
	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}
	return c.Subject, nil
}
