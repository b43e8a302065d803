package handler

import (
	"net/http"

	"github.com/sakif/booker/internal/model"
)

// SessionStatus is the body of GET /api/session, used by pages to decide
// whether to redirect to login.
type SessionStatus struct {
	IsLoggedIn bool               `json:"isLoggedIn"`
	User       *model.SessionUser `json:"user,omitempty"`
}

// HandleSession reports the current session without touching the store.
//
// HTTP: GET /api/session → 200 {"isLoggedIn": true, "user": {...}}
func HandleSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	WriteJSON(w, http.StatusOK, SessionStatus{
		IsLoggedIn: sess.Authenticated(),
		User:       sess.User,
	})
}
