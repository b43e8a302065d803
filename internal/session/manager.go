package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/booker/internal/auth"
)

// DefaultCookieName is the cookie the session token travels in.
const DefaultCookieName = "booker_auth_cookie"

// CookieOptions controls the session cookie. Secure should be set whenever
// the service is reached over HTTPS.
type CookieOptions struct {
	Name   string
	Secure bool
}

// Manager loads sessions from the request cookie and binds Save/Destroy to
// the response.
//
// THE COOKIE carries a signed token whose subject is a random session id.
// The user lives only in the Store under that id, so:
//   - destroying a session takes effect immediately, whatever the token says
//   - a leaked cookie stops working after logout or TTL expiry
//   - Save issues a fresh id, so a pre-login cookie is never promoted
type Manager struct {
	store  Store
	tokens *auth.TokenService
	cookie CookieOptions
	logger *slog.Logger
}

// NewManager creates a Manager. An empty cookie name means
// DefaultCookieName. The cookie lifetime follows tokens.TTL().
func NewManager(store Store, tokens *auth.TokenService, cookie CookieOptions, logger *slog.Logger) *Manager {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	return &Manager{store: store, tokens: tokens, cookie: cookie, logger: logger}
}

// Load resolves the session for r. A missing, invalid or expired cookie and
// an id unknown to the store all yield an unauthenticated session. The
// returned error is non-nil only when the store itself failed; the session
// is still usable and unauthenticated in that case.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	lc := &responseLifecycle{m: m, w: w}

	c, err := r.Cookie(m.cookie.Name)
	if err != nil || c.Value == "" {
		return New("", nil, lc), nil
	}

	id, err := m.tokens.Verify(c.Value)
	if err != nil {
		m.logger.Debug("session cookie rejected", slog.String("error", err.Error()))
		return New("", nil, lc), nil
	}

	user, ok, err := m.store.Get(r.Context(), id)
	if err != nil {
		return New("", nil, lc), fmt.Errorf("session: loading %s: %w", id, err)
	}
	if !ok {
		return New("", nil, lc), nil
	}
	return New(id, user, lc), nil
}

// Middleware loads the session and stores it in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Load(w, r)
		if err != nil {
			m.logger.Error("session store unavailable", slog.String("error", err.Error()))
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
	})
}

// responseLifecycle persists a session and writes its cookie to w.
type responseLifecycle struct {
	m *Manager
	w http.ResponseWriter
}

var errNoUser = errors.New("session: save without user")

// Save stores the bag under a fresh id and issues a new cookie. The previous
// id, if any, is dropped so a saved session never keeps a pre-login id.
func (l *responseLifecycle) Save(ctx context.Context, s *Session) error {
	if s.User == nil {
		return errNoUser
	}

	id := xid.New().String()
	token, err := l.m.tokens.Issue(id)
	if err != nil {
		return err
	}
	if err := l.m.store.Set(ctx, id, s.User, l.m.tokens.TTL()); err != nil {
		return err
	}

	if s.ID != "" && s.ID != id {
		if err := l.m.store.Delete(ctx, s.ID); err != nil {
			l.m.logger.Warn("dropping previous session", slog.String("session_id", s.ID), slog.String("error", err.Error()))
		}
	}
	s.ID = id

	http.SetCookie(l.w, &http.Cookie{
		Name:     l.m.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(l.m.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   l.m.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy removes the stored bag and expires the cookie. The cookie is
// cleared even when the store delete fails.
func (l *responseLifecycle) Destroy(ctx context.Context, s *Session) error {
	var err error
	if s.ID != "" {
		err = l.m.store.Delete(ctx, s.ID)
	}
	s.ID = ""

	http.SetCookie(l.w, &http.Cookie{
		Name:     l.m.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   l.m.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}
