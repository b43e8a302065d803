// Package server is the composition root: it opens the stores named by the
// configuration, builds services and handlers, and mounts them on a chi
// router.
//
//	config -> stores (sqlite | postgres | memory, session memory | redis)
//	       -> services -> handlers -> routes
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

	"github.com/sakif/booker/internal/auth"
	"github.com/sakif/booker/internal/catalog"
	"github.com/sakif/booker/internal/config"
	"github.com/sakif/booker/internal/repository"
	"github.com/sakif/booker/internal/repository/memory"
	"github.com/sakif/booker/internal/repository/postgres"
	sqliteRepo "github.com/sakif/booker/internal/repository/sqlite"
	"github.com/sakif/booker/internal/session"
)

// Pinger is implemented by backends the health endpoint can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router needs. New fills them from the
// configuration; tests build them directly.
type Deps struct {
	Users     repository.UserRepository
	Favorites repository.FavoriteRepository
	Sessions  session.Store
	Searcher  catalog.Searcher
	Checks    map[string]Pinger

	// Passwords defaults to auth.NewPasswordService.
	Passwords *auth.PasswordService
}

// Server owns the HTTP listener and every resource opened for it.
type Server struct {
	handler http.Handler
	cfg     config.Config
	logger  *slog.Logger
	closers []func() error
}

// New opens the configured stores and catalog client and wires the router.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}
	deps := Deps{Checks: map[string]Pinger{}}

	if err := s.openStore(cfg, &deps); err != nil {
		s.close()
		return nil, err
	}

	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rs := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		s.closers = append(s.closers, rs.Close)
		deps.Sessions = rs
		deps.Checks["sessions"] = rs
	default:
		deps.Sessions = session.NewMemoryStore()
	}

	client, err := catalog.New(cfg.Catalog(), logger)
	if err != nil {
		s.close()
		return nil, err
	}
	deps.Searcher = catalog.NewShared(client)

	h, err := NewHandler(cfg, deps, logger)
	if err != nil {
		s.close()
		return nil, err
	}
	s.handler = h
	return s, nil
}

func (s *Server) openStore(cfg config.Config, deps *Deps) error {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening postgres: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		deps.Users, deps.Favorites = db, db
		deps.Checks["store"] = db

	case config.DriverMemory:
		db := memory.New()
		deps.Users, deps.Favorites = db, db

	default:
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening sqlite: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		deps.Users, deps.Favorites = db, db
		deps.Checks["store"] = db
	}
	return nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Error("closing resource", slog.String("error", err.Error()))
		}
	}
	s.closers = nil
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then drains
// in-flight requests for up to 30 seconds and closes every store.
func (s *Server) Start(ctx context.Context) error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.cfg.SearchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("db_driver", s.cfg.DBDriver),
			slog.String("session_store", s.cfg.SessionStore),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

// newTokens is split out so NewHandler and tests agree on token settings.
func newTokens(cfg config.Config) (*auth.TokenService, error) {
	return auth.NewTokenService(cfg.SessionSecret, cfg.SessionTTL)
}
