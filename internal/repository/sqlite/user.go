package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/booker/internal/apperror"
	"github.com/sakif/booker/internal/model"
	"github.com/sakif/booker/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts user and fills in ID and CreatedAt.
// A taken username yields apperror.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	id := xid.New().String()
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at)
		 VALUES (?, ?, ?, ?)`,
		id,
		user.Username,
		user.PasswordHash,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("error inserting user")
		}
		return unavailable("inserting user", err)
	}

	user.ID = id
	user.CreatedAt = now
	if user.FavoriteBooks == nil {
		user.FavoriteBooks = []model.Book{}
	}
	return nil
}

// GetUserByUsername returns the account with the given username, favorites
// included.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var doc repository.UserDocument

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at
		 FROM users WHERE username = ?`,
		username,
	).Scan(&doc.DocID, &doc.Username, &doc.Password, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("User not found")
		}
		return nil, unavailable("getting user "+username, err)
	}

	books, err := db.favoriteDocs(ctx, db.conn, doc.DocID)
	if err != nil {
		return nil, err
	}
	doc.FavoriteBooks = books

	return repository.NormalizeUser(doc)
}
