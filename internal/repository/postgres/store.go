package postgres

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

var (
	_ repository.UserRepository     = (*DB)(nil)
	_ repository.FavoriteRepository = (*DB)(nil)
)

const favoriteColumns = "id, google_id, title, authors, page_count, categories, thumbnail, description, preview_link, added_at"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateUser inserts a new account.
func (d *DB) CreateUser(ctx context.Context, user *model.User) error {
	id := xid.New().String()
	now := time.Now().UTC()
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, created_at) VALUES ($1, $2, $3, $4)",
		id, user.Username, user.PasswordHash, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("error inserting user")
		}
		return unavailable("insert user", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.FavoriteBooks = []model.Book{}
	return nil
}

// GetUserByUsername retrieves a user and favorites by username.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var doc repository.UserDocument
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = $1",
		username,
	).Scan(&doc.DocID, &doc.Username, &doc.Password, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFoundMessage("User not found")
	}
	if err != nil {
		return nil, unavailable("get user", err)
	}

	books, err := favoriteDocs(ctx, d.sql, doc.DocID)
	if err != nil {
		return nil, err
	}
	doc.FavoriteBooks = books
	return repository.NormalizeUser(doc)
}

// GetAll returns the user's favorites in insertion order.
func (d *DB) GetAll(ctx context.Context, userID string) ([]model.Book, error) {
	if err := userExists(ctx, d.sql, userID); err != nil {
		return nil, err
	}
	docs, err := favoriteDocs(ctx, d.sql, userID)
	if err != nil {
		return nil, err
	}
	return repository.NormalizeBooks(docs)
}

// GetByGoogleID returns nil, nil when the favorite is absent.
func (d *DB) GetByGoogleID(ctx context.Context, userID, googleID string) (*model.Book, error) {
	if err := userExists(ctx, d.sql, userID); err != nil {
		return nil, err
	}
	doc, err := scanFavorite(d.sql.QueryRowContext(ctx,
		"SELECT "+favoriteColumns+" FROM favorite_books WHERE user_id = $1 AND google_id = $2",
		userID, googleID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get favorite", err)
	}
	book, err := repository.NormalizeBook(doc)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Add inserts the favorite unless the GoogleID is present and returns the
// stored row.
func (d *DB) Add(ctx context.Context, userID string, book model.Book) (*model.Book, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin add", err)
	}
	defer tx.Rollback()

	// Lock the user row so a concurrent account delete cannot interleave.
	var one int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", userID)
	}
	if err != nil {
		return nil, unavailable("lock user", err)
	}

	doc, err := repository.NewBookDocument(xid.New().String(), book, time.Now().UTC())
	if err != nil {
		return nil, apperror.InvalidInput("book", err.Error())
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO favorite_books (id, user_id, google_id, title, authors, page_count, categories, thumbnail, description, preview_link, added_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) ON CONFLICT (user_id, google_id) DO NOTHING",
		doc.DocID, userID, doc.GoogleID, doc.Title, doc.Authors, doc.PageCount, doc.Categories,
		doc.Thumbnail, doc.Description, doc.PreviewLink, doc.AddedAt,
	)
	if err != nil {
		return nil, unavailable("insert favorite", err)
	}

	stored, err := scanFavorite(tx.QueryRowContext(ctx,
		"SELECT "+favoriteColumns+" FROM favorite_books WHERE user_id = $1 AND google_id = $2",
		userID, book.GoogleID,
	))
	if err != nil {
		return nil, unavailable("read back favorite", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit add", err)
	}

	added, err := repository.NormalizeBook(stored)
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// Remove deletes by internal id or GoogleID; a missing favorite is not an error.
func (d *DB) Remove(ctx context.Context, userID, id string) error {
	if err := userExists(ctx, d.sql, userID); err != nil {
		return err
	}
	_, err := d.sql.ExecContext(ctx,
		"DELETE FROM favorite_books WHERE user_id = $1 AND (id = $2 OR google_id = $2)",
		userID, id,
	)
	if err != nil {
		return unavailable("delete favorite", err)
	}
	return nil
}

func userExists(ctx context.Context, q querier, userID string) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = $1", userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("user", userID)
	}
	if err != nil {
		return unavailable("lookup user", err)
	}
	return nil
}

func favoriteDocs(ctx context.Context, q querier, userID string) ([]repository.BookDocument, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+favoriteColumns+" FROM favorite_books WHERE user_id = $1 ORDER BY seq",
		userID,
	)
	if err != nil {
		return nil, unavailable("list favorites", err)
	}
	defer rows.Close()

	docs := []repository.BookDocument{}
	for rows.Next() {
		doc, err := scanFavorite(rows)
		if err != nil {
			return nil, unavailable("scan favorite", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate favorites", err)
	}
	return docs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFavorite(s scanner) (repository.BookDocument, error) {
	var doc repository.BookDocument
	err := s.Scan(&doc.DocID, &doc.GoogleID, &doc.Title, &doc.Authors, &doc.PageCount,
		&doc.Categories, &doc.Thumbnail, &doc.Description, &doc.PreviewLink, &doc.AddedAt)
	return doc, err
}
