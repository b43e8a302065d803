// Package memory implements an in-memory repository for development and testing.
//
// Each user is held as one repository.UserDocument. Add and Remove read the
// current favorites, compute the union or difference on GoogleID, and write
// the result back while holding the store mutex, so each operation is atomic
// per store (and therefore per user).
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/booker/internal/apperror"
	"github.com/sakif/booker/internal/model"
	"github.com/sakif/booker/internal/repository"
)

// DB implements an in-memory document store.
type DB struct {
	mu         sync.Mutex
	users      map[string]*repository.UserDocument
	byUsername map[string]string
}

// New creates an empty in-memory store.
func New() *DB {
	return &DB{
		users:      make(map[string]*repository.UserDocument),
		byUsername: make(map[string]string),
	}
}

// Ensure interfaces are met.
var _ repository.UserRepository = (*DB)(nil)
var _ repository.FavoriteRepository = (*DB)(nil)

// --- UserRepository ---

// CreateUser stores a new account; the username must be unused.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, taken := db.byUsername[user.Username]; taken {
		return apperror.Conflict("error inserting user")
	}

	doc := &repository.UserDocument{
		DocID:         xid.New().String(),
		Username:      user.Username,
		Password:      user.PasswordHash,
		FavoriteBooks: []repository.BookDocument{},
		CreatedAt:     time.Now().UTC(),
	}
	db.users[doc.DocID] = doc
	db.byUsername[doc.Username] = doc.DocID

	user.ID = doc.DocID
	user.CreatedAt = doc.CreatedAt
	user.FavoriteBooks = []model.Book{}
	return nil
}

// GetUserByUsername finds an account by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	id, ok := db.byUsername[username]
	if !ok {
		return nil, apperror.NotFoundMessage("User not found")
	}
	return repository.NormalizeUser(*db.users[id])
}

// DeleteUser drops an account and its favorites. Sessions that still point
// at it become stale.
func (db *DB) DeleteUser(ctx context.Context, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	doc, ok := db.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	delete(db.byUsername, doc.Username)
	delete(db.users, userID)
	return nil
}

// --- FavoriteRepository ---

// GetAll returns a copy of the user's favorites.
func (db *DB) GetAll(ctx context.Context, userID string) ([]model.Book, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.user(userID)
	if err != nil {
		return nil, err
	}
	return repository.NormalizeBooks(doc.FavoriteBooks)
}

// GetByGoogleID does a linear scan of the user's favorites.
func (db *DB) GetByGoogleID(ctx context.Context, userID, googleID string) (*model.Book, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.user(userID)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(doc.FavoriteBooks, func(b repository.BookDocument) bool {
		return b.GoogleID == googleID
	})
	if i < 0 {
		return nil, nil
	}
	book, err := repository.NormalizeBook(doc.FavoriteBooks[i])
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Add appends book unless its GoogleID is already present, returning the
// stored entry.
func (db *DB) Add(ctx context.Context, userID string, book model.Book) (*model.Book, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.user(userID)
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(doc.FavoriteBooks, func(b repository.BookDocument) bool {
		return b.GoogleID == book.GoogleID
	})
	if i < 0 {
		added, err := repository.NewBookDocument(xid.New().String(), book, time.Now().UTC())
		if err != nil {
			return nil, apperror.InvalidInput("book", err.Error())
		}
		next := slices.Clone(doc.FavoriteBooks)
		doc.FavoriteBooks = append(next, added)
		i = len(doc.FavoriteBooks) - 1
	}

	stored, err := repository.NormalizeBook(doc.FavoriteBooks[i])
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Remove drops every favorite whose internal ID or GoogleID equals id.
func (db *DB) Remove(ctx context.Context, userID, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := db.user(userID)
	if err != nil {
		return err
	}
	doc.FavoriteBooks = slices.DeleteFunc(slices.Clone(doc.FavoriteBooks), func(b repository.BookDocument) bool {
		return b.DocID == id || b.GoogleID == id
	})
	return nil
}

// user must be called with db.mu held.
func (db *DB) user(userID string) (*repository.UserDocument, error) {
	doc, ok := db.users[userID]
	if !ok {
		return nil, apperror.NotFound("user", userID)
	}
	return doc, nil
}
