// Package devserver wires the development backend: sqlite storage,
// token issuer, handlers and middleware behind a gorilla/mux router.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/newscoin/newscoin/internal/config"
	"github.com/newscoin/newscoin/internal/devserver/handlers"
	"github.com/newscoin/newscoin/internal/devserver/middleware"
	"github.com/newscoin/newscoin/internal/devserver/storage"
	"github.com/newscoin/newscoin/internal/devserver/token"
)

const (
	shutdownTimeout = 5 * time.Second
	// tokenCleanupInterval период удаления просроченных refresh token
	tokenCleanupInterval = time.Hour
)

// Store is everything the server keeps in the database
type Store interface {
	storage.UserStorage
	storage.TokenStorage
	storage.NewsStorage
	storage.RewardStorage
	handlers.Pinger
}

// Deps are the collaborators of Server
type Deps struct {
	Store  Store
	Issuer *token.Issuer
	Logger *slog.Logger
	// Google is nil when Google sign-in is disabled
	Google  handlers.IDTokenVerifier
	Version string
	Config  config.DevServer
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
}

// Server is the development HTTP backend
type Server struct {
	handler http.Handler
	limiter *middleware.RateLimiter
	deps    Deps
}

// New builds the router and middleware chain
func New(deps Deps) *Server {
	s := &Server{deps: deps}
	if rate := deps.Config.RateLimit; rate > 0 {
		s.limiter = middleware.NewRateLimiter(int(rate), time.Minute, deps.Logger)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close stops background helpers
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func (s *Server) routes() http.Handler {
	d := s.deps
	now := d.Issuer.Now

	auth := handlers.NewAuthHandler(d.Logger, d.Store, d.Store, d.Issuer, handlers.AuthConfig{
		Google:      d.Google,
		SignupBonus: d.Config.Rewards.SignupBonus,
		BcryptCost:  d.BcryptCost,
	})
	news := handlers.NewNewsHandler(d.Logger, d.Store, d.Store, d.Store, d.Config.Rewards, now)
	user := handlers.NewUserHandler(d.Logger, d.Store, d.Store, now)
	health := handlers.NewHealthHandler(d.Logger, d.Store, d.Version)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlers.SendError(w, "Route not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlers.SendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	r.HandleFunc("/health", health.Health).Methods(http.MethodGet)

	// Публичные маршруты
	r.HandleFunc("/auth/register", auth.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify-email", auth.VerifyEmail).Methods(http.MethodPost)
	r.HandleFunc("/auth/resend-verification", auth.ResendVerification).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", auth.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/google", auth.Google).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh-token", auth.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", auth.Logout).Methods(http.MethodPost)
	r.HandleFunc("/news/db", news.Feed).Methods(http.MethodGet)
	r.HandleFunc("/news/latest/feed", news.Latest).Methods(http.MethodGet)

	// Маршруты с access token
	protected := r.NewRoute().Subrouter()
	protected.Use(middleware.Auth(d.Logger, d.Issuer))
	protected.HandleFunc("/news/{id}/read", news.MarkRead).Methods(http.MethodPost)
	protected.HandleFunc("/user/profile", user.Profile).Methods(http.MethodGet)
	protected.HandleFunc("/user/wallet", user.Wallet).Methods(http.MethodGet)
	protected.HandleFunc("/gift-cards", user.GiftCards).Methods(http.MethodGet)
	protected.HandleFunc("/redeem", user.Redeem).Methods(http.MethodPost)

	var h http.Handler = r
	if s.limiter != nil {
		h = s.limiter.Middleware(h)
	}
	h = middleware.Recovery(d.Logger)(h)
	return middleware.Logging(d.Logger, "/health")(h)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.deps.Logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server.ListenAndServe: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server.Shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.cleanupTokens(gctx)
		return nil
	})

	return g.Wait()
}

// cleanupTokens периодически удаляет просроченные refresh token
func (s *Server) cleanupTokens(ctx context.Context) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.deps.Store.DeleteExpiredTokens(ctx, s.deps.Issuer.Now())
			if err != nil {
				s.deps.Logger.WarnContext(ctx, "failed to delete expired tokens", slog.Any("error", err))
				continue
			}
			if deleted > 0 {
				s.deps.Logger.InfoContext(ctx, "expired tokens deleted", slog.Int("count", deleted))
			}
		}
	}
}
