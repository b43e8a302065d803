// Package session holds the per-request session bag and the stores that
// persist it between requests.
//
// A Session is loaded once per request by the Manager middleware. Handlers
// read and replace Session.User and then call Save or Destroy; neither is
// ever called implicitly.
package session

import (
	"context"
	"errors"

	"github.com/sakif/booker/internal/model"
)

// Lifecycle persists or tears down a session. The Manager binds one per
// request so Save and Destroy can write the cookie on the response.
type Lifecycle interface {
	Save(ctx context.Context, s *Session) error
	Destroy(ctx context.Context, s *Session) error
}

// Session is the mutable bag attached to one request.
//
// User is nil while the caller is unauthenticated. It is the sole
// authorization credential the handlers look at.
type Session struct {
	ID   string
	User *model.SessionUser

	lc Lifecycle
}

var errNoLifecycle = errors.New("session: no lifecycle bound")

// New builds a session bound to lc. id may be empty for a session that has
// never been saved.
func New(id string, user *model.SessionUser, lc Lifecycle) *Session {
	return &Session{ID: id, User: user, lc: lc}
}

// Authenticated reports whether a user is attached.
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil
}

// Save persists the current bag.
func (s *Session) Save(ctx context.Context) error {
	if s.lc == nil {
		return errNoLifecycle
	}
	return s.lc.Save(ctx, s)
}

// Destroy clears the user and removes the persisted bag. The session is
// unauthenticated afterwards even if the store call fails.
func (s *Session) Destroy(ctx context.Context) error {
	s.User = nil
	if s.lc == nil {
		return errNoLifecycle
	}
	return s.lc.Destroy(ctx, s)
}
