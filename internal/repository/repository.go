// Package repository declares the persistence contracts used by the service
// layer, and the document shapes every backend reads and writes.
//
// Services depend on these interfaces only; sqlite, postgres and memory each
// provide an implementation.
package repository

import (
	"context"

	"github.com/sakif/booker/internal/model"
)

// UserRepository stores accounts.
//
// Create returns apperror.ErrConflict when the username is taken.
// GetByUsername returns apperror.ErrNotFound when no account matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// FavoriteRepository stores the favorite books embedded in a user record.
//
// Every method returns apperror.ErrNotFound when the user record no longer
// exists and apperror.ErrUnavailable when the store cannot be reached.
type FavoriteRepository interface {
	// GetAll returns the favorites in insertion order. An existing user with
	// no favorites yields an empty, non-nil slice.
	GetAll(ctx context.Context, userID string) ([]model.Book, error)

	// GetByGoogleID returns nil, nil when the user has no such favorite.
	GetByGoogleID(ctx context.Context, userID, googleID string) (*model.Book, error)

	// Add inserts book unless a favorite with the same GoogleID exists, and
	// returns the stored entry either way.
	Add(ctx context.Context, userID string, book model.Book) (*model.Book, error)

	// Remove deletes the favorite whose internal ID or GoogleID equals id.
	// A missing favorite is not an error.
	Remove(ctx context.Context, userID, id string) error
}
