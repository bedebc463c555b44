// Package server sets up the HTTP server, router, and all route definitions.
//
// COMPOSITION ROOT:
// New is the only place that knows concrete types. It opens the database,
// picks the suggestion generator, builds the services and hands them to the
// handlers. Everything below receives interfaces.
//
//	config → sqlite.DB ─┬→ GenerationService(generator) → GenerationHandler
//	                    ├→ FlashcardService             → FlashcardHandler
//	                    ├→ StatsService                 → StatsHandler
//	                    └→ AuthService(tokens)          → AuthHandler
//
// GENERATOR CHOICE:
// Made once, here. With OPENROUTER_API_KEY set the live LLM generator is
// used and /api/models/check queries the provider; without it the mock
// generator answers after MOCK_GENERATION_DELAY and the models check reports
// service-unavailable.
//
// AUTH:
// Every /api route sits behind RequireAuth, which needs JWT_SECRET. The
// GitHub login routes are mounted only when the OAuth app is configured too.
// Without a secret the API still starts but answers 401 to everything.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sakif/flashcards/internal/auth"
	"github.com/sakif/flashcards/internal/config"
	"github.com/sakif/flashcards/internal/generator"
	"github.com/sakif/flashcards/internal/handler"
	"github.com/sakif/flashcards/internal/llm"
	"github.com/sakif/flashcards/internal/middleware"
	sqliteRepo "github.com/sakif/flashcards/internal/repository/sqlite"
	"github.com/sakif/flashcards/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the database connection. The connection is
// closed when Start returns.
type Server struct {
	router http.Handler
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	// generationBudget is the longest a generator call may take.
	generationBudget time.Duration
}

// New opens the database and wires every route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{config: cfg, logger: logger, db: db}
	if s.router, err = s.routes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// routes builds the middleware chain and route table.
//
// MIDDLEWARE ORDER:
//
//	RequestID → RealIP → Logger → Recoverer → CORS → (RequireAuth → UserID on /api)
//
// Recoverer runs inside Logger so a panic is still logged as a 500.
func (s *Server) routes() (http.Handler, error) {
	gen, checker, err := s.generator()
	if err != nil {
		return nil, err
	}

	var tokens *auth.TokenService
	if s.config.JWTSecret != "" {
		if tokens, err = auth.NewTokenService(s.config.JWTSecret); err != nil {
			return nil, fmt.Errorf("creating token service: %w", err)
		}
	} else {
		s.logger.Warn("JWT_SECRET not set; every /api route will answer 401")
	}

	generations := handler.NewGenerationHandler(
		service.NewGenerationService(gen, s.db, s.db, s.logger, service.WithSingleAcceptance()), s.logger)
	flashcards := handler.NewFlashcardHandler(service.NewFlashcardService(s.db, s.db, s.logger), s.logger)
	stats := handler.NewStatsHandler(service.NewStatsService(s.db, s.db), s.logger)
	models := handler.NewModelsHandler(checker, s.logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler)

	r.Get("/healthz", handler.HandleHealth(s.db, s.logger))

	var authHandler *handler.AuthHandler
	if tokens != nil {
		var provider handler.OAuthProvider
		if s.config.GitHubEnabled() {
			gh, err := auth.NewGitHubProvider(auth.GitHubConfig{
				ClientID:     s.config.GitHubClientID,
				ClientSecret: s.config.GitHubClientSecret,
				CallbackURL:  s.config.GitHubCallbackURL,
			})
			if err != nil {
				return nil, fmt.Errorf("creating GitHub provider: %w", err)
			}
			provider = gh
		}

		authHandler = handler.NewAuthHandler(provider, service.NewAuthService(s.db, tokens, s.logger), s.logger)
		authHandler.AfterLogin = s.config.AfterLoginURL
		authHandler.SecureCookies = s.config.SecureCookies

		r.Post("/auth/logout", authHandler.HandleLogout)
		if provider != nil {
			r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
			r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		} else {
			s.logger.Warn("GitHub OAuth not configured; login routes disabled")
		}
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(requireAuth(tokens))
		r.Use(middleware.UserID(auth.UserIDFromContext))

		if authHandler != nil {
			r.Get("/me", authHandler.HandleMe)
		}

		r.Post("/generations/generate", generations.HandleGenerate)
		r.Post("/generations/{id}/accept", generations.HandleAccept)
		r.Get("/generations", generations.HandleList)

		r.Get("/flashcards", flashcards.HandleList)
		r.Post("/flashcards", flashcards.HandleCreate)
		r.Get("/flashcards/{id}", flashcards.HandleGet)
		r.Put("/flashcards/{id}", flashcards.HandleUpdate)
		r.Delete("/flashcards/{id}", flashcards.HandleDelete)

		r.Get("/models/check", models.HandleCheck)

		r.Get("/statistics/generations", stats.HandleGenerations)
		r.Get("/statistics/flashcards", stats.HandleFlashcards)
	})

	return r, nil
}

// generator returns the live generator and its model checker when an API key
// is configured, the mock and a nil checker otherwise.
func (s *Server) generator() (generator.Generator, handler.ModelChecker, error) {
	if s.config.OpenRouterAPIKey == "" {
		s.logger.Info("OPENROUTER_API_KEY not set; using mock generator",
			slog.Duration("delay", s.config.MockGenerationDelay))
		s.generationBudget = s.config.MockGenerationDelay
		return generator.NewMock(s.config.MockGenerationDelay), nil, nil
	}

	client, err := llm.New(llm.Config{
		APIKey:  s.config.OpenRouterAPIKey,
		BaseURL: s.config.OpenRouterBaseURL,
		Timeout: s.config.LLMTimeout,
		Title:   "Flashcards",
		Logger:  s.logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating LLM client: %w", err)
	}
	s.generationBudget = client.Timeout()
	s.logger.Info("using OpenRouter generator",
		slog.String("base_url", s.config.OpenRouterBaseURL),
		slog.Duration("timeout", s.generationBudget),
	)
	return generator.NewLLM(client), client, nil
}

// requireAuth falls back to rejecting every request when there is no token
// service to check against.
func requireAuth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	if tokens != nil {
		return auth.RequireAuth(tokens)
	}
	return auth.RejectAll
}

// writeTimeout leaves room for a generation call on top of the usual budget.
func (s *Server) writeTimeout() time.Duration {
	return s.generationBudget + 15*time.Second
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests and
// closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.writeTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
