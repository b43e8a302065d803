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

var _ repository.FavoriteRepository = (*DB)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const favoriteColumns = `id, google_id, title, authors, page_count, categories,
	thumbnail, description, preview_link, added_at`

// GetAll returns the user's favorites in the order they were added.
func (db *DB) GetAll(ctx context.Context, userID string) ([]model.Book, error) {
	if err := userExists(ctx, db.conn, userID); err != nil {
		return nil, err
	}

	docs, err := db.favoriteDocs(ctx, db.conn, userID)
	if err != nil {
		return nil, err
	}
	return repository.NormalizeBooks(docs)
}

// GetByGoogleID scans the user's favorites for googleID.
func (db *DB) GetByGoogleID(ctx context.Context, userID, googleID string) (*model.Book, error) {
	if err := userExists(ctx, db.conn, userID); err != nil {
		return nil, err
	}

	doc, err := scanFavorite(db.conn.QueryRowContext(ctx,
		`SELECT `+favoriteColumns+` FROM favorite_books
		 WHERE user_id = ? AND google_id = ?`,
		userID, googleID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, unavailable("getting favorite "+googleID, err)
	}

	book, err := repository.NormalizeBook(doc)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Add inserts book for the user unless that GoogleID is already present.
//
// The existence check, the insert and the read-back share one transaction;
// ON CONFLICT DO NOTHING on the (user_id, google_id) index turns a duplicate
// into a no-op, so the returned row is whichever entry won.
func (db *DB) Add(ctx context.Context, userID string, book model.Book) (*model.Book, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("beginning add", err)
	}
	defer tx.Rollback()

	if err := userExists(ctx, tx, userID); err != nil {
		return nil, err
	}

	doc, err := repository.NewBookDocument(xid.New().String(), book, time.Now().UTC())
	if err != nil {
		return nil, apperror.InvalidInput("book", err.Error())
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO favorite_books
			(id, user_id, google_id, title, authors, page_count, categories,
			 thumbnail, description, preview_link, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, google_id) DO NOTHING`,
		doc.DocID,
		userID,
		doc.GoogleID,
		doc.Title,
		doc.Authors,
		doc.PageCount,
		doc.Categories,
		doc.Thumbnail,
		doc.Description,
		doc.PreviewLink,
		doc.AddedAt,
	)
	if err != nil {
		return nil, unavailable("adding favorite "+book.GoogleID, err)
	}

	stored, err := scanFavorite(tx.QueryRowContext(ctx,
		`SELECT `+favoriteColumns+` FROM favorite_books
		 WHERE user_id = ? AND google_id = ?`,
		userID, book.GoogleID,
	))
	if err != nil {
		return nil, unavailable("reading back favorite "+book.GoogleID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("committing add", err)
	}

	added, err := repository.NormalizeBook(stored)
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// Remove deletes the favorite matching id by internal ID or GoogleID.
func (db *DB) Remove(ctx context.Context, userID, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("beginning remove", err)
	}
	defer tx.Rollback()

	if err := userExists(ctx, tx, userID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM favorite_books
		 WHERE user_id = ? AND (id = ? OR google_id = ?)`,
		userID, id, id,
	)
	if err != nil {
		return unavailable("removing favorite "+id, err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("committing remove", err)
	}
	return nil
}

func userExists(ctx context.Context, q querier, userID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("user", userID)
		}
		return unavailable("looking up user "+userID, err)
	}
	return nil
}

func (db *DB) favoriteDocs(ctx context.Context, q querier, userID string) ([]repository.BookDocument, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+favoriteColumns+` FROM favorite_books
		 WHERE user_id = ?
		 ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, unavailable("listing favorites", err)
	}
	defer rows.Close()

	docs := []repository.BookDocument{}
	for rows.Next() {
		doc, err := scanFavorite(rows)
		if err != nil {
			return nil, unavailable("scanning favorite row", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating favorites", err)
	}
	return docs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFavorite(s scanner) (repository.BookDocument, error) {
	var doc repository.BookDocument
	err := s.Scan(
		&doc.DocID,
		&doc.GoogleID,
		&doc.Title,
		&doc.Authors,
		&doc.PageCount,
		&doc.Categories,
		&doc.Thumbnail,
		&doc.Description,
		&doc.PreviewLink,
		&doc.AddedAt,
	)
	return doc, err
}
