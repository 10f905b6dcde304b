// Package server wires the application together: storage, session store,
// authentication, handlers, and routes, plus server lifecycle with
// graceful shutdown. This is the composition root; nothing else constructs
// cross-layer dependencies.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/blogdeck/internal/auth"
	"github.com/sakif/blogdeck/internal/handler"
	"github.com/sakif/blogdeck/internal/middleware"
	sqliteRepo "github.com/sakif/blogdeck/internal/repository/sqlite"
	"github.com/sakif/blogdeck/internal/session"
)

// Config holds server configuration, loaded from the environment in
// cmd/server.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string

	// AuthMode selects the authenticator variant: "mock" (default, demo
	// stub) or "local" (in-memory registry with bcrypt hashes).
	AuthMode string

	// Federated variant; routes are registered only when all three are set.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the resources behind it. The database
// connection is closed during shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	store  *session.Store
}

// New assembles the full dependency chain: SQLite KV store, authenticator,
// session store (rehydrated from storage), token service, handlers, routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var authn auth.Authenticator
	switch cfg.AuthMode {
	case "", "mock":
		authn = auth.NewMockAuthenticator()
	case "local":
		authn = auth.NewLocalAuthenticator(auth.NewPasswordService())
	default:
		db.Close()
		return nil, fmt.Errorf("unknown auth mode %q (want mock or local)", cfg.AuthMode)
	}

	store := session.New(db, authn, logger)
	store.Load(context.Background())

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Store exposes the session store, mainly for tests that drive the server
// through its API and assert on state.
func (s *Server) Store() *session.Store {
	return s.store
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" && s.config.GitHubCallbackURL != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authHandler := handler.NewAuthHandler(s.store, tokens, github, s.logger)
	orgHandler := handler.NewOrganizationHandler(s.store, s.logger)
	blogHandler := handler.NewBlogHandler(s.store, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/signup", authHandler.HandleSignup)
		r.Post("/auth/logout", authHandler.HandleLogout)

		// Everything below requires a valid session token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)
			r.Get("/session", orgHandler.HandleSession)

			r.Get("/organizations", orgHandler.HandleList)
			r.Post("/organizations", orgHandler.HandleCreate)
			r.Get("/organizations/current", orgHandler.HandleCurrent)
			r.Put("/organizations/current", orgHandler.HandleSelect)

			r.Get("/blogs", blogHandler.HandleList)
			r.Post("/blogs", blogHandler.HandleCreate)
			r.Put("/blogs/{id}", blogHandler.HandleUpdate)
			r.Delete("/blogs/{id}", blogHandler.HandleDelete)
		})
	})

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	return nil
}

// Router returns the configured handler, for httptest-driven tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
