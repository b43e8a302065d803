package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/booker/internal/auth"
	"github.com/sakif/booker/internal/config"
	"github.com/sakif/booker/internal/handler"
	"github.com/sakif/booker/internal/middleware"
	"github.com/sakif/booker/internal/service"
	"github.com/sakif/booker/internal/session"
)

// NewHandler builds the router:
//
//	GET    /health
//	GET    /api/session
//	POST   /api/auth/{action}          rate limited per IP
//	*      /api/book                   POST add, DELETE remove, else 404
//	GET    /api/favorites
//	GET    /api/favorites/{googleId}
//	GET    /api/search?q=
//
// Middleware order: request id, real ip, request log, panic recovery, then
// the session loader on /api.
func NewHandler(cfg config.Config, deps Deps, logger *slog.Logger) (http.Handler, error) {
	tokens, err := newTokens(cfg)
	if err != nil {
		return nil, err
	}
	sessions := session.NewManager(deps.Sessions, tokens, session.CookieOptions{
		Name:   cfg.SessionCookieName,
		Secure: cfg.SessionCookieSecure,
	}, logger)

	passwords := deps.Passwords
	if passwords == nil {
		passwords = auth.NewPasswordService()
	}
	authService := service.NewAuthService(deps.Users, passwords, logger)
	favoriteService := service.NewFavoriteService(deps.Favorites, logger)

	authHandler := handler.NewAuthHandler(authService, cfg.SignupRedirect, logger)
	bookHandler := handler.NewBookHandler(favoriteService, logger)
	searchHandler := handler.NewSearchHandler(deps.Searcher, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", healthHandler(deps.Checks))

	r.Route("/api", func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Get("/session", handler.HandleSession)

		r.With(middleware.RateLimit(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)).
			HandleFunc("/auth/{action}", authHandler.HandleAction)

		r.HandleFunc("/book", bookHandler.HandleBook)
		r.Get("/favorites", bookHandler.HandleList)
		r.Get("/favorites/{googleId}", bookHandler.HandleGet)

		r.Get("/search", searchHandler.HandleSearch)
	})

	return r, nil
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler answers 200 when every check pings within two seconds and
// 503 otherwise.
func healthHandler(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		handler.WriteJSON(w, status, resp)
	}
}
