package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const defaultGitHubAPI = "https://api.github.com"

// GitHubUser is the part of GitHub's /user response we keep.
type GitHubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"` // empty when hidden in GitHub settings
	AvatarURL string `json:"avatar_url"`
}

// GitHubConfig holds the OAuth app credentials. Endpoint and APIURL default to
// github.com and are only overridden in tests.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string

	Endpoint oauth2.Endpoint
	APIURL   string
}

// GitHubProvider runs the authorization code flow against GitHub. The code
// is exchanged server to server, so the GitHub access token never reaches
// the browser; it is used once to read the profile and then dropped.
type GitHubProvider struct {
	config *oauth2.Config
	apiURL string
}

// NewGitHubProvider requests read:user and user:email.
func NewGitHubProvider(cfg GitHubConfig) (*GitHubProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("auth: GitHub client id and secret are required")
	}
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = github.Endpoint
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultGitHubAPI
	}

	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoint,
		},
		apiURL: apiURL,
	}, nil
}

// AuthURL is GitHub's consent page for state. The caller stores state in a
// cookie and compares it on callback.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the GitHub profile.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building GitHub /user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.config.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var u GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}
	if u.ID == 0 {
		return nil, errors.New("auth: GitHub returned a user without an id")
	}
	return &u, nil
}
