package model

import "time"

// User is an account created on first GitHub login.
//
// ID is our own xid string; every flashcard, generation and error log row is
// keyed by it. GitHubID is unique and only used to find the account again on
// the next login.
type User struct {
	ID        string    `json:"id"`
	GitHubID  int64     `json:"githubId"`
	Login     string    `json:"login"`
	Email     string    `json:"email"` // empty when hidden on GitHub
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
