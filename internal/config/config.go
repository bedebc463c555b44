// Package config loads the server configuration from the environment.
//
// An optional .env file in the working directory is read first with
// godotenv; variables already set in the process environment win over it.
// Every setting has a default except the secrets, and a value that is set but
// cannot be parsed fails Load with an error naming the variable.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/flashcards/internal/llm"
)

type Config struct {
	Port   int
	DBPath string

	LogLevel slog.Level

	// JWTSecret signs session tokens. Authentication is disabled when empty.
	JWTSecret string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// OpenRouterAPIKey selects the live generator; without it the mock is used.
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	LLMTimeout        time.Duration

	MockGenerationDelay time.Duration

	CORSAllowedOrigins []string
	// AfterLoginURL is where the browser lands after the OAuth callback.
	AfterLoginURL string
	SecureCookies bool
}

// GitHubEnabled reports whether the OAuth login routes can be mounted.
func (c *Config) GitHubEnabled() bool {
	return c.JWTSecret != "" && c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which has the signature of os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	p := parser{lookup: lookup}

	cfg := &Config{
		Port:                p.int("PORT", 8080),
		DBPath:              p.string("DB_PATH", "data/flashcards.db"),
		LogLevel:            p.level("LOG_LEVEL", slog.LevelInfo),
		JWTSecret:           p.string("JWT_SECRET", ""),
		GitHubClientID:      p.string("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret:  p.string("GITHUB_CLIENT_SECRET", ""),
		OpenRouterAPIKey:    p.string("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:   p.string("OPENROUTER_BASE_URL", llm.DefaultBaseURL),
		LLMTimeout:          p.duration("LLM_TIMEOUT", llm.DefaultTimeout),
		MockGenerationDelay: p.duration("MOCK_GENERATION_DELAY", 1500*time.Millisecond),
		CORSAllowedOrigins:  p.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AfterLoginURL:       p.string("AFTER_LOGIN_URL", "/"),
		SecureCookies:       p.bool("SECURE_COOKIES", false),
	}
	cfg.GitHubCallbackURL = p.string("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port))

	if p.err != nil {
		return nil, p.err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: PORT: %d is out of range", cfg.Port)
	}
	return cfg, nil
}

// parser keeps the first error so Load can read every variable in one pass.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) raw(key string) (string, bool) {
	v, ok := p.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("config: %s: invalid value %q: %w", key, value, err)
	}
}

func (p *parser) string(key, def string) string {
	if v, ok := p.raw(key); ok {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err == nil && d < 0 {
		err = errors.New("must not be negative")
	}
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		p.fail(key, v, err)
		return def
	}
	return l
}

func (p *parser) list(key string, def []string) []string {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
