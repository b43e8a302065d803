package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/booker/internal/apperror"
	"github.com/sakif/booker/internal/model"
	"github.com/sakif/booker/internal/service"
	"github.com/sakif/booker/internal/session"
)

// Action is one of the auth actions reachable under /api/auth/{action}.
type Action string

// The known actions.
const (
	ActionLogin  Action = "login"
	ActionLogout Action = "logout"
	ActionSignup Action = "signup"
)

// ParseAction reports whether s names a known action.
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionLogin, ActionLogout, ActionSignup:
		return a, true
	}
	return "", false
}

// DefaultSignupRedirect is where a successful signup sends the browser.
const DefaultSignupRedirect = "/search"

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type actionFunc func(ctx context.Context, sess *session.Session, body []byte) Outcome

// AuthHandler runs login, logout and signup. Login and signup save the
// session exactly once on success; logout only destroys it.
//
// ACTIONS (POST /api/auth/{action}):
//   - login  → check credentials, save the session, 200 with no body
//   - signup → create the account, save the session, 302 to signupRedirect
//   - logout → destroy the session, 200
//
// The action set is closed. The map is filled once in NewAuthHandler and
// never changes afterwards, so Dispatch needs no locking.
type AuthHandler struct {
	auth           *service.AuthService
	signupRedirect string
	actions        map[Action]actionFunc
	logger         *slog.Logger
}

// NewAuthHandler creates an AuthHandler. An empty signupRedirect falls back
// to DefaultSignupRedirect.
func NewAuthHandler(auth *service.AuthService, signupRedirect string, logger *slog.Logger) *AuthHandler {
	if signupRedirect == "" {
		signupRedirect = DefaultSignupRedirect
	}
	h := &AuthHandler{
		auth:           auth,
		signupRedirect: signupRedirect,
		logger:         logger,
	}
	h.actions = map[Action]actionFunc{
		ActionLogin:  h.login,
		ActionLogout: h.logout,
		ActionSignup: h.signup,
	}
	return h
}

// Dispatch runs action for method. Anything but POST of a known action is
// 404 with no body.
func (h *AuthHandler) Dispatch(ctx context.Context, sess *session.Session, method, action string, body []byte) Outcome {
	if method != http.MethodPost {
		return errorOutcome(h.logger, apperror.NotSupported("method "+method))
	}
	a, known := ParseAction(action)
	if !known {
		return errorOutcome(h.logger, apperror.NotSupported("action "+action))
	}
	return h.actions[a](ctx, sess, body)
}

func (h *AuthHandler) login(ctx context.Context, sess *session.Session, body []byte) Outcome {
	creds := decodeCredentials(body)
	user, err := h.auth.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return errorOutcome(h.logger, err)
	}
	if o, saved := h.establish(ctx, sess, user); !saved {
		return o
	}
	return Outcome{Status: http.StatusOK}
}

func (h *AuthHandler) signup(ctx context.Context, sess *session.Session, body []byte) Outcome {
	creds := decodeCredentials(body)
	user, err := h.auth.Signup(ctx, creds.Username, creds.Password)
	if err != nil {
		return errorOutcome(h.logger, err)
	}
	if o, saved := h.establish(ctx, sess, user); !saved {
		return o
	}
	return Outcome{Status: http.StatusFound, Location: h.signupRedirect}
}

func (h *AuthHandler) logout(ctx context.Context, sess *session.Session, _ []byte) Outcome {
	if err := sess.Destroy(ctx); err != nil {
		h.logger.Error("destroying session on logout", slog.String("error", err.Error()))
	}
	return Outcome{Status: http.StatusOK}
}

// establish binds user to sess and saves it. On failure the session is left
// unauthenticated and the returned outcome describes the error.
func (h *AuthHandler) establish(ctx context.Context, sess *session.Session, user *model.SessionUser) (Outcome, bool) {
	sess.User = user
	if err := sess.Save(ctx); err != nil {
		sess.User = nil
		return errorOutcome(h.logger, apperror.Unavailable(err)), false
	}
	return Outcome{}, true
}

// decodeCredentials reads {"username","password"}. A body that does not
// decode yields empty credentials, which the service rejects.
func decodeCredentials(body []byte) credentials {
	var c credentials
	_ = json.Unmarshal(body, &c)
	return c
}

// HandleAction runs one auth action.
//
// HTTP: POST /api/auth/{action}  body: {"username": "...", "password": "..."}
//
// The route sits behind the per-IP rate limiter.
func (h *AuthHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeOutcome(w, r, badRequest("invalid request body"))
		return
	}
	o := h.Dispatch(r.Context(), sessionFrom(r), r.Method, chi.URLParam(r, "action"), body)
	writeOutcome(w, r, o)
}
