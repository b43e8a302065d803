// Package sqlite implements the repository interfaces on SQLite through the
// pure-Go modernc.org/sqlite driver.
//
// A user document is split over two tables: users holds the account and
// favorite_books holds the embedded favorites, one row each. The unique
// (user_id, google_id) index is what makes Add a set union.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/booker/internal/apperror"
)

// DB wraps the SQLite connection pool and implements
// repository.UserRepository and repository.FavoriteRepository.
type DB struct {
	conn *sql.DB
}

// dsnParams apply to every pooled connection. BEGIN IMMEDIATE takes the
// write lock up front, so the read-then-write transactions in Add and
// Remove wait on busy_timeout instead of failing with SQLITE_BUSY.
const dsnParams = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"

// New opens (or creates) the database at dbPath and runs migrations.
// Pass ":memory:" for a throwaway database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath+"?"+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS favorite_books (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			google_id    TEXT NOT NULL,
			title        TEXT NOT NULL DEFAULT '',
			authors      TEXT NOT NULL DEFAULT '[]',
			page_count   INTEGER NOT NULL DEFAULT 0,
			categories   TEXT NOT NULL DEFAULT '[]',
			thumbnail    TEXT NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT '',
			preview_link TEXT NOT NULL DEFAULT '',
			added_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_favorite_books_user_google
			ON favorite_books(user_id, google_id);
	`)
	if err != nil {
		return fmt.Errorf("creating favorite_books table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate key.
func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// unavailable marks a driver failure. Context cancellation passes through
// untouched so callers can tell an aborted request from a broken store.
func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("sqlite: %s: %w", op, err)
	}
	return fmt.Errorf("sqlite: %s: %w", op, apperror.Unavailable(err))
}
