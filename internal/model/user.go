package model

import "time"

// User is a registered account. PasswordHash is a bcrypt hash and is never
// serialized.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	FavoriteBooks []Book    `json:"favoriteBooks"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SessionUser is the projection of a User carried by a session. It is the
// only credential the request router trusts.
type SessionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// SessionUser returns the session projection of u.
func (u *User) SessionUser() *SessionUser {
	return &SessionUser{ID: u.ID, Username: u.Username}
}
